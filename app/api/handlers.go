package api

import (
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lysyi3m/mail-comb/app/database"
	"github.com/lysyi3m/mail-comb/app/tasks"
)

const latestArticles = 3

func NewHandler(db *database.DB, builder TaskBuilder, scheduler tasks.TaskSchedulerInterface, feedPath string) *Handler {
	return &Handler{
		db:          db,
		articleRepo: database.NewArticleRepository(db),
		builder:     builder,
		scheduler:   scheduler,
		feedPath:    feedPath,
	}
}

func (h *Handler) GetFeed(c *gin.Context) {
	info, err := os.Stat(h.feedPath)
	if errors.Is(err, fs.ErrNotExist) {
		c.Status(http.StatusNotFound)
		return
	}
	if err != nil {
		slog.Error("Failed to stat feed file", "path", h.feedPath, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	c.Header("Content-Type", "application/rss+xml; charset=utf-8")
	c.Header("X-Last-Updated", info.ModTime().UTC().Format(time.RFC3339))
	c.File(h.feedPath)
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
		"queue":     h.scheduler.QueueLength(),
	}

	if count, err := h.articleRepo.GetArticleCount(); err == nil {
		health["articles"] = count
	} else {
		slog.Error("Database error", "operation", "count_articles", "error", err)
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	stats, err := database.GetStats(h.db)
	if err != nil {
		slog.Error("Database error", "operation", "get_stats", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	articles, err := h.articleRepo.GetLatestArticles(latestArticles)
	if err != nil {
		slog.Error("Database error", "operation", "get_latest_articles", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	latest := make([]articleSummary, 0, len(articles))
	for _, article := range articles {
		latest = append(latest, articleSummary{
			ID:           article.ID,
			Title:        article.Title,
			Link:         article.OriginalLink,
			SourceDomain: article.SourceDomain,
			Tags:         article.Tags,
			CrawledAt:    article.CrawledAt.Format(time.RFC3339),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"entries":       stats.Entries,
		"articles":      stats.Articles,
		"spam_articles": stats.SpamArticles,
		"failed_crawls": stats.FailedCrawls,
		"latest":        latest,
	})
}

func (h *Handler) APIRun(c *gin.Context) {
	h.enqueue(c, h.builder.ProcessDigest())
}

func (h *Handler) APIPublish(c *gin.Context) {
	h.enqueue(c, h.builder.PublishFeed())
}

func (h *Handler) APIBackfill(c *gin.Context) {
	limit := tasks.DefaultBackfillLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = parsed
	}

	h.enqueue(c, h.builder.BackfillContent(limit))
}

func (h *Handler) APIResetEntry(c *gin.Context) {
	entryID := strings.TrimPrefix(c.Param("id"), "/")
	if entryID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing entry id parameter"})
		return
	}

	h.enqueue(c, h.builder.ResetEntries([]string{entryID}))
}

func (h *Handler) enqueue(c *gin.Context, task tasks.TaskInterface) {
	if err := h.scheduler.EnqueueTask(task); err != nil {
		slog.Error("Error enqueueing task", "type", string(task.GetType()), "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":   "Failed to enqueue task",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"task":    taskResponse{ID: task.GetID(), Type: task.GetType()},
	})
}
