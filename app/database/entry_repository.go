package database

import (
	"database/sql"
	"fmt"
)

type EntryRepo struct {
	db *DB
}

func NewEntryRepository(db *DB) *EntryRepo {
	return &EntryRepo{db: db}
}

func (r *EntryRepo) EntryExists(entryID string) (bool, error) {
	var exists int
	err := r.db.QueryRow(`SELECT 1 FROM entries WHERE entry_id = ?`, entryID).Scan(&exists)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check entry: %w", err)
	}
	return true, nil
}

// MarkEntryProcessed is a no-op for entries that are already recorded.
func (r *EntryRepo) MarkEntryProcessed(entryID string) error {
	_, err := r.db.Exec(`INSERT OR IGNORE INTO entries (entry_id) VALUES (?)`, entryID)
	if err != nil {
		return fmt.Errorf("failed to mark entry processed: %w", err)
	}
	return nil
}

// ResetEntry forgets an entry together with the articles saved from it, so the
// next run processes it again.
func (r *EntryRepo) ResetEntry(entryID string) (int64, bool, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return 0, false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`DELETE FROM articles WHERE feed_entry_id = ?`, entryID)
	if err != nil {
		return 0, false, fmt.Errorf("failed to delete entry articles: %w", err)
	}
	articlesDeleted, err := res.RowsAffected()
	if err != nil {
		return 0, false, fmt.Errorf("failed to count deleted articles: %w", err)
	}

	res, err = tx.Exec(`DELETE FROM entries WHERE entry_id = ?`, entryID)
	if err != nil {
		return 0, false, fmt.Errorf("failed to delete entry: %w", err)
	}
	entriesDeleted, err := res.RowsAffected()
	if err != nil {
		return 0, false, fmt.Errorf("failed to count deleted entries: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, false, fmt.Errorf("failed to commit entry reset: %w", err)
	}

	return articlesDeleted, entriesDeleted > 0, nil
}

func (r *EntryRepo) GetEntryCount() (int, error) {
	var count int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM entries`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to get entry count: %w", err)
	}
	return count, nil
}
