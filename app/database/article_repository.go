package database

import (
	"database/sql"
	"fmt"
	"log/slog"
)

const articleColumns = `
	id, COALESCE(feed_entry_id, ''), COALESCE(email_source, ''),
	COALESCE(article_source_domain, ''), COALESCE(title, ''), COALESCE(content, ''),
	COALESCE(summary, ''), COALESCE(tags, ''), COALESCE(image_url, ''),
	original_link, COALESCE(content_hash, ''), COALESCE(published_date, ''),
	COALESCE(feed_source_date, ''), COALESCE(author, ''), COALESCE(reading_time, 0),
	crawl_date`

// spamFilter excludes articles tagged "spam", in both the JSON and the older
// comma separated tag format.
const spamFilter = `
	NOT EXISTS (
		SELECT 1 FROM json_each(CASE WHEN json_valid(articles.tags) THEN articles.tags ELSE '[]' END) AS t
		WHERE lower(trim(t.value)) = 'spam'
	)
	AND NOT (
		articles.tags IS NOT NULL AND NOT json_valid(articles.tags)
		AND ',' || lower(replace(articles.tags, ' ', '')) || ',' LIKE '%,spam,%'
	)`

type ArticleRepo struct {
	db *DB
}

func NewArticleRepository(db *DB) *ArticleRepo {
	return &ArticleRepo{db: db}
}

// ArticleExists reports whether any article matches url or contentHash.
// Empty keys are ignored; at least one must be given.
func (r *ArticleRepo) ArticleExists(url, contentHash string) (bool, error) {
	if url == "" && contentHash == "" {
		return false, ErrNoLookupKey
	}

	if url != "" {
		found, err := r.exists(`SELECT 1 FROM articles WHERE original_link = ? LIMIT 1`, url)
		if err != nil || found {
			return found, err
		}
	}

	if contentHash != "" {
		return r.exists(`SELECT 1 FROM articles WHERE content_hash = ? LIMIT 1`, contentHash)
	}

	return false, nil
}

func (r *ArticleRepo) exists(query string, arg string) (bool, error) {
	var exists int
	err := r.db.QueryRow(query, arg).Scan(&exists)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check article: %w", err)
	}
	return true, nil
}

// SaveArticle inserts a new row. An existing row with the same original link
// is left untouched and reported as SaveDuplicate.
func (r *ArticleRepo) SaveArticle(article Article) (SaveResult, error) {
	tags, err := encodeTags(article.Tags)
	if err != nil {
		return SaveInserted, fmt.Errorf("failed to encode tags: %w", err)
	}

	_, err = r.db.Exec(`
		INSERT INTO articles (
			feed_entry_id, email_source, article_source_domain, title,
			content, summary, tags, image_url, original_link, content_hash,
			published_date, feed_source_date, author, reading_time
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, article.FeedEntryID, article.EmailSource, article.SourceDomain, article.Title,
		article.Content, article.Summary, tags, article.ImageURL, article.OriginalLink,
		article.ContentHash, article.PublishedDate, article.FeedSourceDate,
		article.Author, article.ReadingTime)

	if isUniqueViolation(err) {
		slog.Info("Article already exists (duplicate link)", "url", article.OriginalLink)
		return SaveDuplicate, nil
	}
	if err != nil {
		return SaveInserted, fmt.Errorf("failed to save article: %w", err)
	}

	slog.Info("Saved article", "title", article.Title, "url", article.OriginalLink)
	return SaveInserted, nil
}

// GetRecentNonSpamArticles returns up to limit articles not tagged "spam",
// most recently crawled first.
func (r *ArticleRepo) GetRecentNonSpamArticles(limit int) ([]Article, error) {
	rows, err := r.db.Query(`
		SELECT `+articleColumns+`
		FROM articles
		WHERE `+spamFilter+`
		ORDER BY crawl_date DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent articles: %w", err)
	}

	return scanArticles(rows)
}

// GetLatestArticles returns the last saved articles regardless of tags.
func (r *ArticleRepo) GetLatestArticles(limit int) ([]Article, error) {
	rows, err := r.db.Query(`
		SELECT `+articleColumns+`
		FROM articles
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest articles: %w", err)
	}

	return scanArticles(rows)
}

func (r *ArticleRepo) GetArticleCount() (int, error) {
	var count int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM articles`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to get article count: %w", err)
	}
	return count, nil
}

func (r *ArticleRepo) GetSpamArticleCount() (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM articles WHERE NOT (` + spamFilter + `)`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get spam article count: %w", err)
	}
	return count, nil
}

// UpdateArticleContent rewrites the stored content only; identity and
// dedup keys stay as they are.
func (r *ArticleRepo) UpdateArticleContent(articleID int64, content string) error {
	_, err := r.db.Exec(`UPDATE articles SET content = ? WHERE id = ?`, content, articleID)
	if err != nil {
		return fmt.Errorf("failed to update article content: %w", err)
	}
	return nil
}

func scanArticles(rows *sql.Rows) ([]Article, error) {
	defer rows.Close()

	var articles []Article
	for rows.Next() {
		var article Article
		var tags string
		var crawledAt sql.NullString

		err := rows.Scan(
			&article.ID, &article.FeedEntryID, &article.EmailSource,
			&article.SourceDomain, &article.Title, &article.Content,
			&article.Summary, &tags, &article.ImageURL,
			&article.OriginalLink, &article.ContentHash, &article.PublishedDate,
			&article.FeedSourceDate, &article.Author, &article.ReadingTime,
			&crawledAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan article row: %w", err)
		}

		article.Tags = decodeTags(tags)
		article.CrawledAt = parseTimestamp(crawledAt)
		articles = append(articles, article)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating article rows: %w", err)
	}

	return articles, nil
}
