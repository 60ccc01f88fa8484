package database

import (
	"fmt"
)

func GetStats(db *DB) (Stats, error) {
	var stats Stats

	err := db.QueryRow(`SELECT
		(SELECT COUNT(*) FROM entries),
		(SELECT COUNT(*) FROM articles),
		(SELECT COUNT(*) FROM failed_crawls)
	`).Scan(&stats.Entries, &stats.Articles, &stats.FailedCrawls)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to get stats: %w", err)
	}

	spam, err := NewArticleRepository(db).GetSpamArticleCount()
	if err != nil {
		return Stats{}, err
	}
	stats.SpamArticles = spam

	return stats, nil
}
