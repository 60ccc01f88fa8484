package tasks

import (
	"context"
	"fmt"
	"log/slog"
)

// ProcessDigestTask is one full pipeline run: fetch the source feed, process
// every unseen entry and republish the output feed.
type ProcessDigestTask struct {
	Task
	source    SourceFetcher
	parser    EntryParser
	processor DigestProcessor
	publisher FeedPublisher
	blocklist BlocklistRefresher
}

func NewProcessDigestTask(source SourceFetcher, parser EntryParser, processor DigestProcessor, publisher FeedPublisher, blocklist BlocklistRefresher) *ProcessDigestTask {
	return &ProcessDigestTask{
		Task:      NewTask(TaskTypeProcessDigest),
		source:    source,
		parser:    parser,
		processor: processor,
		publisher: publisher,
		blocklist: blocklist,
	}
}

func (t *ProcessDigestTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if t.blocklist != nil {
		if err := t.blocklist.RefreshIfStale(ctx); err != nil {
			slog.Warn("Failed to refresh blocklist, keeping current rules", "error", err)
		}
	}

	data, err := t.source.Run(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch source feed: %w", err)
	}

	entries, err := t.parser.Run(data)
	if err != nil {
		return fmt.Errorf("failed to parse source feed: %w", err)
	}

	stats, processErr := t.processor.Run(ctx, entries)

	// Whatever was saved before a failure still gets published.
	published, err := t.publisher.Run()
	if err != nil {
		publishErr := fmt.Errorf("failed to publish feed: %w", err)
		if processErr != nil {
			return fmt.Errorf("failed to process entries: %w; %w", processErr, publishErr)
		}
		return publishErr
	}

	slog.Info("Task completed",
		"type", "ProcessedDigest",
		"duration", t.GetDuration(),
		"entries", stats.Entries,
		"skipped", stats.EntriesSkipped,
		"candidates", stats.Candidates,
		"saved", stats.Saved,
		"duplicates", stats.Duplicates,
		"known_failures", stats.KnownFailures,
		"failed", stats.Failed,
		"marked_failed", stats.MarkedFailed,
		"too_short", stats.TooShort,
		"classify_errors", stats.ClassifyErrors,
		"published", published)

	if processErr != nil {
		return fmt.Errorf("failed to process entries: %w", processErr)
	}

	return nil
}
