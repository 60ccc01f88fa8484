package database

import (
	"database/sql"
	"fmt"
)

type FailedCrawlRepo struct {
	db *DB
}

func NewFailedCrawlRepository(db *DB) *FailedCrawlRepo {
	return &FailedCrawlRepo{db: db}
}

func (r *FailedCrawlRepo) IsCrawlFailed(url string) (bool, error) {
	var exists int
	err := r.db.QueryRow(`SELECT 1 FROM failed_crawls WHERE url = ?`, url).Scan(&exists)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check failed crawl: %w", err)
	}
	return true, nil
}

// MarkCrawlFailed records the latest failed attempt, replacing any earlier one.
func (r *FailedCrawlRepo) MarkCrawlFailed(url, errorCode string) error {
	_, err := r.db.Exec(`
		INSERT INTO failed_crawls (url, error_code, attempted_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (url) DO UPDATE SET
			error_code = excluded.error_code,
			attempted_at = excluded.attempted_at
	`, url, errorCode)
	if err != nil {
		return fmt.Errorf("failed to mark crawl failed: %w", err)
	}
	return nil
}

func (r *FailedCrawlRepo) GetFailedCrawl(url string) (*FailedCrawl, error) {
	var fc FailedCrawl
	var errorCode, attemptedAt sql.NullString

	err := r.db.QueryRow(`
		SELECT url, error_code, attempted_at FROM failed_crawls WHERE url = ?
	`, url).Scan(&fc.URL, &errorCode, &attemptedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get failed crawl: %w", err)
	}

	fc.ErrorCode = errorCode.String
	fc.AttemptedAt = parseTimestamp(attemptedAt)

	return &fc, nil
}

func (r *FailedCrawlRepo) GetFailedCrawlCount() (int, error) {
	var count int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM failed_crawls`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to get failed crawl count: %w", err)
	}
	return count, nil
}
