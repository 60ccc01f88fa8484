package feed

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/lysyi3m/mail-comb/app/database"
)

type ArticleSource interface {
	GetRecentNonSpamArticles(limit int) ([]database.Article, error)
}

// Publisher rebuilds the output feed from the store on every call.
type Publisher struct {
	articles   ArticleSource
	generator  *Generator
	outputPath string
	limit      int
}

func NewPublisher(articles ArticleSource, generator *Generator, outputPath string, limit int) *Publisher {
	return &Publisher{
		articles:   articles,
		generator:  generator,
		outputPath: outputPath,
		limit:      limit,
	}
}

func (p *Publisher) OutputPath() string {
	return p.outputPath
}

// Run writes the feed and returns the number of published articles.
func (p *Publisher) Run() (int, error) {
	articles, err := p.articles.GetRecentNonSpamArticles(p.limit)
	if err != nil {
		return 0, fmt.Errorf("failed to load articles: %w", err)
	}

	rss, err := p.generator.Run(articles)
	if err != nil {
		return 0, fmt.Errorf("failed to generate feed: %w", err)
	}

	if err := writeFileAtomic(p.outputPath, []byte(rss)); err != nil {
		return 0, fmt.Errorf("failed to write feed: %w", err)
	}

	slog.Info("Feed published", "path", p.outputPath, "articles", len(articles))
	return len(articles), nil
}

// Readers of path see either the old or the new file, never a partial one.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), path)
}
