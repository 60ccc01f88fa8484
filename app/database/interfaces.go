package database

import (
	"errors"
)

var ErrNoLookupKey = errors.New("either url or content hash is required")

type EntryRepository interface {
	EntryExists(entryID string) (bool, error)
	MarkEntryProcessed(entryID string) error
	ResetEntry(entryID string) (articlesDeleted int64, found bool, err error)
	GetEntryCount() (int, error)
}

type ArticleRepository interface {
	ArticleExists(url, contentHash string) (bool, error)
	SaveArticle(article Article) (SaveResult, error)
	GetRecentNonSpamArticles(limit int) ([]Article, error)
	GetLatestArticles(limit int) ([]Article, error)
	GetArticleCount() (int, error)
	UpdateArticleContent(articleID int64, content string) error
}

type FailedCrawlRepository interface {
	IsCrawlFailed(url string) (bool, error)
	MarkCrawlFailed(url, errorCode string) error
	GetFailedCrawl(url string) (*FailedCrawl, error)
	GetFailedCrawlCount() (int, error)
}

var (
	_ EntryRepository       = (*EntryRepo)(nil)
	_ ArticleRepository     = (*ArticleRepo)(nil)
	_ FailedCrawlRepository = (*FailedCrawlRepo)(nil)
)
