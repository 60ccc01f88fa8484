package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/lysyi3m/mail-comb/app/blocklist"
	"github.com/lysyi3m/mail-comb/app/cfg"
	"github.com/lysyi3m/mail-comb/app/classifier"
	"github.com/lysyi3m/mail-comb/app/database"
	"github.com/lysyi3m/mail-comb/app/feed"
	"github.com/lysyi3m/mail-comb/app/tasks"
)

// App holds the opened database and the wired pipeline for one command.
type App struct {
	db       *database.DB
	pipeline *tasks.Pipeline
}

func newApp(ctx context.Context, appCfg *cfg.Cfg) (*App, error) {
	db, err := database.NewConnection(appCfg.DBPath)
	if err != nil {
		return nil, err
	}

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	slog.Debug("Database ready", "path", appCfg.DBPath, "schema_version", version, "dirty", dirty)

	rules, err := feed.LoadRules(appCfg.FiltersConfig)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to load filter rules: %w", err)
	}

	httpClient := &http.Client{Timeout: appCfg.HTTPTimeout()}

	blocker := blocklist.NewProvider(httpClient, blocklist.Config{
		Path:      appCfg.BlocklistPath,
		URL:       appCfg.BlocklistURL,
		MaxAge:    time.Duration(appCfg.BlocklistMaxAge) * time.Second,
		UserAgent: appCfg.UserAgent,
	})
	if needsBlocklist(appCfg.Command) {
		if err := blocker.Load(ctx); err != nil {
			slog.Warn("Blocklist unavailable, continuing without ad-block rules", "error", err)
		}
	}

	gemini, err := classifier.NewGemini(ctx, appCfg.GeminiAPIKey, appCfg.GeminiModel)
	if err != nil {
		db.Close()
		return nil, err
	}

	entryRepo := database.NewEntryRepository(db)
	articleRepo := database.NewArticleRepository(db)
	failedCrawlRepo := database.NewFailedCrawlRepository(db)

	linkFilter := feed.NewLinkFilter(rules.Filter, blocker)
	normalizer := feed.NewNormalizer(rules.Normalizer)
	links := feed.NewLinkExtractor(rules.RedirectWrappers, linkFilter, normalizer)
	extractor := feed.NewContentExtractor(httpClient, appCfg.UserAgent)

	pipeline := &tasks.Pipeline{
		Source:    feed.NewSourceFetcher(httpClient, appCfg.FeedURL, appCfg.FallbackFile, appCfg.UserAgent),
		Parser:    feed.NewParser(),
		Processor: feed.NewProcessor(links, entryRepo, articleRepo, failedCrawlRepo, extractor, gemini),
		Publisher: feed.NewPublisher(articleRepo, feed.NewGenerator(), appCfg.OutputFile, appCfg.FeedLimit),
		Blocklist: blocker,
		Entries:   entryRepo,
		Articles:  articleRepo,
		Extractor: extractor,
	}

	return &App{db: db, pipeline: pipeline}, nil
}

func (a *App) Close() {
	if err := a.db.Close(); err != nil {
		slog.Warn("Failed to close database", "error", err)
	}
}

// execute runs a task in the foreground, outside the scheduler.
func (a *App) execute(ctx context.Context, task tasks.TaskInterface) error {
	task.Start()
	if err := task.Execute(ctx); err != nil {
		return fmt.Errorf("%s failed: %w", task.GetType(), err)
	}
	return nil
}

func needsBlocklist(command string) bool {
	return command == "serve" || command == "run"
}

func backfillLimit(params []string) (int, error) {
	if len(params) == 0 {
		return tasks.DefaultBackfillLimit, nil
	}

	limit, err := strconv.Atoi(params[0])
	if err != nil || limit <= 0 {
		return 0, fmt.Errorf("invalid backfill limit %q", params[0])
	}
	return limit, nil
}
