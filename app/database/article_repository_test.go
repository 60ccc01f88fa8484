package database

import (
	"errors"
	"testing"
)

func TestArticleRepo_ArticleExists(t *testing.T) {
	db := newTestDB(t)
	repo := NewArticleRepository(db)

	_, err := repo.SaveArticle(Article{
		OriginalLink: "https://example.com/a",
		ContentHash:  "hash-a",
		Title:        "A",
	})
	if err != nil {
		t.Fatalf("Failed to save article: %v", err)
	}

	tests := []struct {
		name     string
		url      string
		hash     string
		expected bool
	}{
		{"matching url", "https://example.com/a", "", true},
		{"matching hash", "", "hash-a", true},
		{"hash matches under another url", "https://example.com/b", "hash-a", true},
		{"no match", "https://example.com/b", "hash-b", false},
		{"url only no match", "https://example.com/c", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exists, err := repo.ArticleExists(tt.url, tt.hash)
			if err != nil {
				t.Fatalf("Expected no error, got: %v", err)
			}
			if exists != tt.expected {
				t.Errorf("Expected %v, got %v", tt.expected, exists)
			}
		})
	}
}

func TestArticleRepo_ArticleExistsWithoutKeys(t *testing.T) {
	db := newTestDB(t)

	_, err := NewArticleRepository(db).ArticleExists("", "")
	if !errors.Is(err, ErrNoLookupKey) {
		t.Errorf("Expected ErrNoLookupKey, got: %v", err)
	}
}

func TestArticleRepo_SaveDuplicateLink(t *testing.T) {
	db := newTestDB(t)
	repo := NewArticleRepository(db)

	first := Article{OriginalLink: "https://example.com/a", Title: "First", ContentHash: "h1"}
	result, err := repo.SaveArticle(first)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if result != SaveInserted {
		t.Errorf("Expected %s, got %s", SaveInserted, result)
	}

	second := Article{OriginalLink: "https://example.com/a", Title: "Second", ContentHash: "h2"}
	result, err = repo.SaveArticle(second)
	if err != nil {
		t.Fatalf("Duplicate save should not be an error, got: %v", err)
	}
	if result != SaveDuplicate {
		t.Errorf("Expected %s, got %s", SaveDuplicate, result)
	}

	articles, err := repo.GetLatestArticles(10)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(articles) != 1 {
		t.Fatalf("Expected 1 article, got %d", len(articles))
	}
	if articles[0].Title != "First" {
		t.Errorf("Existing row must be kept, got title '%s'", articles[0].Title)
	}
}

func TestArticleRepo_RoundTripFields(t *testing.T) {
	db := newTestDB(t)
	repo := NewArticleRepository(db)

	in := Article{
		FeedEntryID:    "urn:entry:1",
		EmailSource:    "Weekly Digest #12",
		SourceDomain:   "example.com",
		Title:          "Title",
		Content:        "<p>Body</p>",
		Summary:        "Summary",
		Tags:           []string{"go", "databases"},
		ImageURL:       "https://example.com/img.png",
		OriginalLink:   "https://example.com/a",
		ContentHash:    "abc",
		PublishedDate:  "2024-01-02T03:04:05Z",
		FeedSourceDate: "2024-01-03T00:00:00Z",
		Author:         "Jane Roe",
		ReadingTime:    4,
	}
	if _, err := repo.SaveArticle(in); err != nil {
		t.Fatalf("Failed to save article: %v", err)
	}

	articles, err := repo.GetRecentNonSpamArticles(1)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(articles) != 1 {
		t.Fatalf("Expected 1 article, got %d", len(articles))
	}

	out := articles[0]
	if out.ID == 0 {
		t.Error("Expected generated id")
	}
	if out.CrawledAt.IsZero() {
		t.Error("Expected crawl timestamp to be set")
	}
	if out.EmailSource != in.EmailSource || out.SourceDomain != in.SourceDomain {
		t.Errorf("Source fields mismatch: %+v", out)
	}
	if out.Author != in.Author || out.ReadingTime != in.ReadingTime {
		t.Errorf("Author or reading time mismatch: %+v", out)
	}
	if len(out.Tags) != 2 || out.Tags[0] != "go" || out.Tags[1] != "databases" {
		t.Errorf("Expected tags [go databases], got %v", out.Tags)
	}
}

func TestArticleRepo_SpamExcluded(t *testing.T) {
	db := newTestDB(t)
	repo := NewArticleRepository(db)

	saves := []Article{
		{OriginalLink: "https://example.com/1", Tags: []string{"go"}},
		{OriginalLink: "https://example.com/2", Tags: []string{"Spam"}},
		{OriginalLink: "https://example.com/3", Tags: []string{"antispam"}},
		{OriginalLink: "https://example.com/4"},
	}
	for _, a := range saves {
		if _, err := repo.SaveArticle(a); err != nil {
			t.Fatalf("Failed to save article: %v", err)
		}
	}

	// Older rows stored tags as a plain comma separated list.
	_, err := db.Exec(`INSERT INTO articles (original_link, tags) VALUES (?, ?), (?, ?)`,
		"https://example.com/5", "news, spam",
		"https://example.com/6", "news, tech")
	if err != nil {
		t.Fatalf("Failed to insert legacy rows: %v", err)
	}

	articles, err := repo.GetRecentNonSpamArticles(50)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	got := make(map[string]bool)
	for _, a := range articles {
		got[a.OriginalLink] = true
	}

	for _, link := range []string{"https://example.com/1", "https://example.com/3", "https://example.com/4", "https://example.com/6"} {
		if !got[link] {
			t.Errorf("Expected %s in results", link)
		}
	}
	for _, link := range []string{"https://example.com/2", "https://example.com/5"} {
		if got[link] {
			t.Errorf("Expected %s to be excluded as spam", link)
		}
	}

	spam, err := repo.GetSpamArticleCount()
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if spam != 2 {
		t.Errorf("Expected 2 spam articles, got %d", spam)
	}
}

func TestArticleRepo_RecentOrderingAndLimit(t *testing.T) {
	db := newTestDB(t)
	repo := NewArticleRepository(db)

	_, err := db.Exec(`
		INSERT INTO articles (original_link, title, crawl_date) VALUES
			('https://example.com/old', 'old', '2024-01-01 10:00:00'),
			('https://example.com/new', 'new', '2024-03-01 10:00:00'),
			('https://example.com/mid', 'mid', '2024-02-01 10:00:00')
	`)
	if err != nil {
		t.Fatalf("Failed to insert rows: %v", err)
	}

	articles, err := repo.GetRecentNonSpamArticles(2)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(articles) != 2 {
		t.Fatalf("Expected 2 articles, got %d", len(articles))
	}
	if articles[0].Title != "new" || articles[1].Title != "mid" {
		t.Errorf("Expected [new mid], got [%s %s]", articles[0].Title, articles[1].Title)
	}
}

func TestArticleRepo_UpdateArticleContent(t *testing.T) {
	db := newTestDB(t)
	repo := NewArticleRepository(db)

	if _, err := repo.SaveArticle(Article{OriginalLink: "https://example.com/a", Content: "plain", ContentHash: "h"}); err != nil {
		t.Fatalf("Failed to save article: %v", err)
	}

	articles, _ := repo.GetLatestArticles(1)
	if err := repo.UpdateArticleContent(articles[0].ID, "<p>rich</p>"); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	articles, _ = repo.GetLatestArticles(1)
	if articles[0].Content != "<p>rich</p>" {
		t.Errorf("Expected updated content, got '%s'", articles[0].Content)
	}
	if articles[0].ContentHash != "h" {
		t.Errorf("Content hash must not change, got '%s'", articles[0].ContentHash)
	}
}

func TestGetStats(t *testing.T) {
	db := newTestDB(t)

	NewEntryRepository(db).MarkEntryProcessed("urn:entry:1")
	articles := NewArticleRepository(db)
	articles.SaveArticle(Article{OriginalLink: "https://example.com/1"})
	articles.SaveArticle(Article{OriginalLink: "https://example.com/2", Tags: []string{"spam"}})
	NewFailedCrawlRepository(db).MarkCrawlFailed("https://example.com/x", "http_403")

	stats, err := GetStats(db)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	expected := Stats{Entries: 1, Articles: 2, SpamArticles: 1, FailedCrawls: 1}
	if stats != expected {
		t.Errorf("Expected %+v, got %+v", expected, stats)
	}
}
