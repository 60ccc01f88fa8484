package api

import (
	"github.com/lysyi3m/mail-comb/app/database"
	"github.com/lysyi3m/mail-comb/app/tasks"
)

type TaskBuilder interface {
	ProcessDigest() tasks.TaskInterface
	PublishFeed() tasks.TaskInterface
	ResetEntries(entryIDs []string) tasks.TaskInterface
	BackfillContent(limit int) tasks.TaskInterface
}

var _ TaskBuilder = (*tasks.Pipeline)(nil)

type Handler struct {
	db          *database.DB
	articleRepo *database.ArticleRepo
	builder     TaskBuilder
	scheduler   tasks.TaskSchedulerInterface
	feedPath    string
}

type taskResponse struct {
	ID   string         `json:"id"`
	Type tasks.TaskType `json:"type"`
}

type articleSummary struct {
	ID           int64    `json:"id"`
	Title        string   `json:"title"`
	Link         string   `json:"link"`
	SourceDomain string   `json:"source_domain"`
	Tags         []string `json:"tags"`
	CrawledAt    string   `json:"crawled_at"`
}
