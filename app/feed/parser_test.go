package feed

import (
	"errors"
	"testing"
	"time"
)

const sampleAtomFeed = `<?xml version="1.0" encoding="utf-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>Newsletters</title>
  <id>urn:feed</id>
  <updated>2024-05-02T10:00:00Z</updated>
  <entry>
    <id>urn:entry:1</id>
    <title>Weekly Go</title>
    <updated>2024-05-02T09:00:00Z</updated>
    <published>2024-05-01T09:00:00Z</published>
    <content type="html">&lt;a href="https://ex.com/a"&gt;A&lt;/a&gt;</content>
  </entry>
  <entry>
    <id>urn:entry:2</id>
    <published>2024-05-01T08:00:00Z</published>
    <content type="html">&lt;p&gt;hello&lt;/p&gt;</content>
  </entry>
  <entry>
    <title>Missing id</title>
    <content type="html">ignored</content>
  </entry>
  <entry>
    <id>urn:entry:4</id>
    <title>No date, no body</title>
  </entry>
</feed>`

func TestParser_Run(t *testing.T) {
	parser := NewParser()
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	parser.now = func() time.Time { return now }

	entries, err := parser.Run([]byte(sampleAtomFeed))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if len(entries) != 3 {
		t.Fatalf("Expected 3 entries (one without id dropped), got %d", len(entries))
	}

	first := entries[0]
	if first.ID != "urn:entry:1" || first.Title != "Weekly Go" {
		t.Errorf("Unexpected first entry: %+v", first)
	}
	if first.Content != `<a href="https://ex.com/a">A</a>` {
		t.Errorf("Expected decoded HTML content, got %q", first.Content)
	}
	if !first.Date.Equal(time.Date(2024, 5, 2, 9, 0, 0, 0, time.UTC)) {
		t.Errorf("Expected updated date to win, got %v", first.Date)
	}

	second := entries[1]
	if second.Title != "No Title" {
		t.Errorf("Expected 'No Title' placeholder, got %q", second.Title)
	}
	if !second.Date.Equal(time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)) {
		t.Errorf("Expected published date fallback, got %v", second.Date)
	}

	fourth := entries[2]
	if fourth.ID != "urn:entry:4" {
		t.Errorf("Expected urn:entry:4, got %s", fourth.ID)
	}
	if fourth.Content != "" {
		t.Errorf("Expected empty content, got %q", fourth.Content)
	}
	if !fourth.Date.Equal(now) {
		t.Errorf("Expected current time fallback, got %v", fourth.Date)
	}
}

func TestParser_RunInvalid(t *testing.T) {
	parser := NewParser()

	_, err := parser.Run([]byte("this is not a feed"))
	if err == nil {
		t.Fatal("Expected error for invalid feed")
	}
	if !errors.Is(err, ErrParse) {
		t.Errorf("Expected ErrParse, got: %v", err)
	}
}
