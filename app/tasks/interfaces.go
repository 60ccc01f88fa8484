package tasks

import (
	"context"

	"github.com/lysyi3m/mail-comb/app/database"
	"github.com/lysyi3m/mail-comb/app/feed"
)

// TaskSchedulerInterface is the part of the scheduler used by the HTTP API
// to hand work to the single worker.
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
	QueueLength() int
}

type SourceFetcher interface {
	Run(ctx context.Context) ([]byte, error)
}

type EntryParser interface {
	Run(data []byte) ([]feed.Entry, error)
}

type DigestProcessor interface {
	Run(ctx context.Context, entries []feed.Entry) (feed.RunStats, error)
}

type FeedPublisher interface {
	Run() (int, error)
}

type BlocklistRefresher interface {
	RefreshIfStale(ctx context.Context) error
}

type EntryResetter interface {
	ResetEntry(entryID string) (articlesDeleted int64, found bool, err error)
}

type BackfillStore interface {
	GetRecentNonSpamArticles(limit int) ([]database.Article, error)
	UpdateArticleContent(articleID int64, content string) error
}
