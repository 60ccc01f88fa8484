package api

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lysyi3m/mail-comb/app/cfg"
)

// NewServer creates a new HTTP server with all routes configured
func NewServer(handler *Handler) *gin.Engine {
	if !cfg.Get().Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		Formatter: func(param gin.LogFormatterParams) string {
			return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
				param.ClientIP,
				param.TimeStamp.Format(time.RFC3339),
				param.Method,
				param.Path,
				param.Request.Proto,
				param.StatusCode,
				param.Latency,
				param.Request.UserAgent(),
				param.ErrorMessage,
			)
		},
		SkipPaths: []string{"/health"},
	}))

	r.Use(gin.Recovery())

	setupRoutes(r, handler)

	return r
}

func setupRoutes(r *gin.Engine, handler *Handler) {
	r.GET("/feed.xml", handler.GetFeed)

	r.GET("/health", handler.GetHealth)
	r.GET("/stats", handler.GetStats)

	api := r.Group("/api")
	{
		api.POST("/run", handler.APIRun)
		api.POST("/publish", handler.APIPublish)
		api.POST("/backfill", handler.APIBackfill)
		// Entry ids are usually URIs, so the whole remaining path is the id.
		api.DELETE("/entries/*id", handler.APIResetEntry)
	}

	r.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"service":     "Mail Comb",
			"version":     cfg.GetVersion(),
			"description": "Newsletter digest to RSS: link extraction, deduplication, filtering and summaries",
			"endpoints": map[string]string{
				"feed":     "/feed.xml",
				"health":   "/health",
				"stats":    "/stats",
				"run":      "/api/run (POST)",
				"publish":  "/api/publish (POST)",
				"backfill": "/api/backfill?limit=<n> (POST)",
				"reset":    "/api/entries/<entry id> (DELETE)",
			},
		})
	})

	r.GET("/favicon.ico", func(c *gin.Context) {
		c.Status(204)
	})
}
