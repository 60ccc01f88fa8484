package database

import (
	"time"
)

type Entry struct {
	ID          string
	ProcessedAt time.Time
}

// Article is one crawled page. Columns added by later migrations read back as
// zero values for rows written before they existed.
type Article struct {
	ID             int64
	FeedEntryID    string
	EmailSource    string // Subject of the newsletter the link came from
	SourceDomain   string
	Title          string
	Content        string
	Summary        string
	Tags           []string
	ImageURL       string
	OriginalLink   string
	ContentHash    string
	PublishedDate  string // Article's own publish date as extracted
	FeedSourceDate string // When the newsletter arrived
	Author         string
	ReadingTime    int // minutes
	CrawledAt      time.Time
}

type FailedCrawl struct {
	URL         string
	ErrorCode   string
	AttemptedAt time.Time
}

type SaveResult int

const (
	SaveInserted SaveResult = iota
	SaveDuplicate
)

func (r SaveResult) String() string {
	switch r {
	case SaveInserted:
		return "inserted"
	case SaveDuplicate:
		return "duplicate"
	default:
		return "unknown"
	}
}

type Stats struct {
	Entries      int
	Articles     int
	SpamArticles int
	FailedCrawls int
}
