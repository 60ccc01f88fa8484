package database

import (
	"testing"
)

func TestEntryRepo_MarkEntryProcessed(t *testing.T) {
	db := newTestDB(t)
	repo := NewEntryRepository(db)

	exists, err := repo.EntryExists("urn:entry:1")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if exists {
		t.Error("Entry should not exist before it is marked")
	}

	if err := repo.MarkEntryProcessed("urn:entry:1"); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	// Marking twice is a no-op.
	if err := repo.MarkEntryProcessed("urn:entry:1"); err != nil {
		t.Fatalf("Expected no error on repeated mark, got: %v", err)
	}

	exists, err = repo.EntryExists("urn:entry:1")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if !exists {
		t.Error("Entry should exist after it is marked")
	}

	count, err := repo.GetEntryCount()
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 entry, got %d", count)
	}
}

func TestEntryRepo_ResetEntry(t *testing.T) {
	db := newTestDB(t)
	entries := NewEntryRepository(db)
	articles := NewArticleRepository(db)

	if err := entries.MarkEntryProcessed("urn:entry:1"); err != nil {
		t.Fatalf("Failed to mark entry: %v", err)
	}
	for _, link := range []string{"https://example.com/a", "https://example.com/b"} {
		if _, err := articles.SaveArticle(Article{FeedEntryID: "urn:entry:1", OriginalLink: link}); err != nil {
			t.Fatalf("Failed to save article: %v", err)
		}
	}
	if _, err := articles.SaveArticle(Article{FeedEntryID: "urn:entry:2", OriginalLink: "https://example.com/c"}); err != nil {
		t.Fatalf("Failed to save article: %v", err)
	}

	deleted, found, err := entries.ResetEntry("urn:entry:1")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if !found {
		t.Error("Expected entry to be found")
	}
	if deleted != 2 {
		t.Errorf("Expected 2 deleted articles, got %d", deleted)
	}

	exists, _ := entries.EntryExists("urn:entry:1")
	if exists {
		t.Error("Entry should be gone after reset")
	}

	count, _ := articles.GetArticleCount()
	if count != 1 {
		t.Errorf("Expected the other entry's article to remain, got %d articles", count)
	}

	_, found, err = entries.ResetEntry("urn:entry:missing")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if found {
		t.Error("Missing entry should be reported as not found")
	}
}
