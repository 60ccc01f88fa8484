package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// ResetEntryTask forgets entries so the next run processes them again.
// Articles saved from those entries are deleted with them.
type ResetEntryTask struct {
	Task
	EntryIDs []string
	entries  EntryResetter
}

func NewResetEntryTask(entryIDs []string, entries EntryResetter) *ResetEntryTask {
	return &ResetEntryTask{
		Task:     NewTask(TaskTypeResetEntry),
		EntryIDs: entryIDs,
		entries:  entries,
	}
}

func (t *ResetEntryTask) Execute(ctx context.Context) error {
	var errs []error
	reset := 0

	for _, entryID := range t.EntryIDs {
		if err := ctx.Err(); err != nil {
			return err
		}

		deleted, found, err := t.entries.ResetEntry(entryID)
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to reset entry %s: %w", entryID, err))
			continue
		}

		if !found {
			slog.Warn("Entry not found", "entry_id", entryID)
			continue
		}

		reset++
		slog.Info("Entry reset", "entry_id", entryID, "articles_deleted", deleted)
	}

	slog.Info("Task completed", "type", "ResetEntries", "duration", t.GetDuration(), "requested", len(t.EntryIDs), "reset", reset)

	return errors.Join(errs...)
}
