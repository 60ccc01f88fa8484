package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lysyi3m/mail-comb/app/feed"
)

const DefaultBackfillLimit = 50

// BackfillContentTask re-extracts the most recent non-spam articles and
// replaces their stored content with the cleaned article HTML. Titles,
// summaries, tags and content hashes are left untouched.
type BackfillContentTask struct {
	Task
	Limit     int
	articles  BackfillStore
	extractor feed.Extractor
}

func NewBackfillContentTask(limit int, articles BackfillStore, extractor feed.Extractor) *BackfillContentTask {
	if limit <= 0 {
		limit = DefaultBackfillLimit
	}

	return &BackfillContentTask{
		Task:      NewTask(TaskTypeBackfillContent),
		Limit:     limit,
		articles:  articles,
		extractor: extractor,
	}
}

func (t *BackfillContentTask) Execute(ctx context.Context) error {
	articles, err := t.articles.GetRecentNonSpamArticles(t.Limit)
	if err != nil {
		return fmt.Errorf("failed to load articles: %w", err)
	}

	updated, unchanged, failed := 0, 0, 0

	for _, article := range articles {
		if err := ctx.Err(); err != nil {
			return err
		}

		extracted, err := t.extractor.Run(ctx, article.OriginalLink)
		if err != nil {
			slog.Warn("Failed to extract content", "url", article.OriginalLink, "error", err)
			failed++
			continue
		}

		if extracted.HTML == "" || extracted.HTML == article.Content {
			unchanged++
			continue
		}

		if err := t.articles.UpdateArticleContent(article.ID, extracted.HTML); err != nil {
			return fmt.Errorf("failed to update article %d: %w", article.ID, err)
		}

		slog.Debug("Article content updated", "id", article.ID, "url", article.OriginalLink)
		updated++
	}

	slog.Info("Task completed",
		"type", "BackfilledContent",
		"duration", t.GetDuration(),
		"total", len(articles),
		"updated", updated,
		"unchanged", unchanged,
		"failed", failed)

	return nil
}
