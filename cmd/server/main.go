package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lysyi3m/mail-comb/app/api"
	"github.com/lysyi3m/mail-comb/app/cfg"
	"github.com/lysyi3m/mail-comb/app/tasks"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	if appCfg == nil {
		// Help was shown
		return
	}

	setupLogger(appCfg.Debug)

	if err := run(appCfg); err != nil {
		slog.Error("Command failed", "command", appCfg.Command, "error", err)
		os.Exit(1)
	}
}

func setupLogger(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}

func run(appCfg *cfg.Cfg) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := newApp(ctx, appCfg)
	if err != nil {
		return err
	}
	defer app.Close()

	switch appCfg.Command {
	case "serve":
		return serve(ctx, appCfg, app)
	case "run":
		return app.execute(ctx, app.pipeline.ProcessDigest())
	case "publish":
		return app.execute(ctx, app.pipeline.PublishFeed())
	case "stats":
		return printStats(os.Stdout, app.db)
	case "reset-entry":
		return app.execute(ctx, app.pipeline.ResetEntries(appCfg.Params))
	case "backfill":
		limit, err := backfillLimit(appCfg.Params)
		if err != nil {
			return err
		}
		return app.execute(ctx, app.pipeline.BackfillContent(limit))
	default:
		return fmt.Errorf("unknown command: %s", appCfg.Command)
	}
}

func serve(ctx context.Context, appCfg *cfg.Cfg, app *App) error {
	slog.Info("Starting Mail Comb server", "version", appCfg.Version)

	scheduler := tasks.NewScheduler(app.pipeline.ProcessDigest)
	scheduler.Start()
	defer func() {
		scheduler.Stop()
		slog.Info("Background scheduler stopped")
	}()

	handler := api.NewHandler(app.db, app.pipeline, scheduler, appCfg.OutputFile)
	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      api.NewServer(handler),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening",
			"port", appCfg.Port,
			"feed", fmt.Sprintf("http://localhost:%s/feed.xml", appCfg.Port),
			"scheduler_interval", time.Duration(appCfg.SchedulerInterval)*time.Second)

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		slog.Info("Shutdown signal received")
	case serveErr = <-serverErrChan:
		slog.Error("Server error", "error", serveErr)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped")
	}

	return serveErr
}
