package feed

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"
)

const sampleArticleHTML = `<!DOCTYPE html>
<html>
<head>
	<title>Understanding Go Concurrency Patterns</title>
	<meta name="author" content="Jane Roe">
	<meta property="og:image" content="/images/cover.png">
	<meta property="article:published_time" content="2024-04-30T08:15:00Z">
</head>
<body>
	<header><nav>Home | Blog | About</nav></header>
	<main>
		<article>
			<h1>Understanding Go Concurrency Patterns</h1>
			<p>This is the main content of the article. Goroutines and channels make it easy to structure programs that do many things at once, but they also make it easy to leak work that nobody waits for.</p>
			<p>The pipeline pattern connects stages with channels. Each stage receives values from upstream, does some work, and sends the results downstream until the input is exhausted or the context is cancelled.</p>
			<p>Bounded parallelism keeps resource usage predictable. A fixed number of workers read from a shared channel so the program never starts more goroutines than the machine can comfortably run at the same time.</p>
		</article>
	</main>
	<aside><div>Advertisement</div></aside>
	<footer><p>Copyright 2024</p></footer>
</body>
</html>`

func pageWithHead(head string) string {
	paragraph := "<p>Plenty of words to read here, none of them carrying an author or a date. " +
		"The extractor still needs a body long enough to be recognised as the main content of the page.</p>"
	return "<html><head>" + head + "</head><body><article>" +
		strings.Repeat(paragraph, 3) + "</article></body></html>"
}

func TestContentExtractor_Run(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(sampleArticleHTML))
	}))
	defer server.Close()

	extractor := NewContentExtractor(server.Client(), "test")

	article, err := extractor.Run(context.Background(), server.URL+"/posts/concurrency")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if !strings.Contains(article.Title, "Concurrency") {
		t.Errorf("Expected title to mention Concurrency, got %q", article.Title)
	}
	if !strings.Contains(article.Text, "pipeline pattern connects stages") {
		t.Error("Expected extracted text to contain article body")
	}
	if strings.Contains(article.Text, "Copyright 2024") {
		t.Error("Expected footer to be dropped from extracted text")
	}
	if !strings.Contains(article.HTML, "<p>") {
		t.Errorf("Expected cleaned HTML content, got %q", article.HTML)
	}
	if article.Author != "Jane Roe" {
		t.Errorf("Expected author 'Jane Roe', got %q", article.Author)
	}
	if article.ImageURL != server.URL+"/images/cover.png" {
		t.Errorf("Expected absolute image URL, got %q", article.ImageURL)
	}
	if article.PublishedAt == nil || !article.PublishedAt.Equal(time.Date(2024, 4, 30, 8, 15, 0, 0, time.UTC)) {
		t.Errorf("Expected published date from meta tag, got %v", article.PublishedAt)
	}
}

func TestContentExtractor_ParseDefaults(t *testing.T) {
	extractor := NewContentExtractor(http.DefaultClient, "test")
	pageURL, _ := url.Parse("https://ex.com/post")

	page := pageWithHead("<title>A plain page without metadata</title>")

	article, err := extractor.Parse([]byte(page), pageURL)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if article.Author != UnknownAuthor {
		t.Errorf("Expected %q, got %q", UnknownAuthor, article.Author)
	}
	if article.PublishedAt != nil {
		t.Errorf("Expected no published date, got %v", article.PublishedAt)
	}
	if article.URL != "https://ex.com/post" {
		t.Errorf("Expected URL to be recorded, got %q", article.URL)
	}
}

func TestContentExtractor_ParseEmpty(t *testing.T) {
	extractor := NewContentExtractor(http.DefaultClient, "test")

	_, err := extractor.Parse(nil, nil)
	if !errors.Is(err, ErrParse) {
		t.Errorf("Expected ErrParse, got: %v", err)
	}
}

func TestContentExtractor_FetchFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	extractor := NewContentExtractor(server.Client(), "test")

	_, err := extractor.Run(context.Background(), server.URL)

	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("Expected *FetchError, got: %v", err)
	}
	if !fetchErr.IsAuthFailure() {
		t.Error("Expected 403 to be an auth failure")
	}
}

func TestPublishedDate_Layouts(t *testing.T) {
	extractor := NewContentExtractor(http.DefaultClient, "test")

	tests := []struct {
		head     string
		expected time.Time
	}{
		{`<meta name="date" content="2024-01-02">`, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)},
		{`<meta itemprop="datePublished" content="2024-01-02T03:04:05+02:00">`, time.Date(2024, 1, 2, 1, 4, 5, 0, time.UTC)},
	}

	for _, tt := range tests {
		page := pageWithHead(tt.head)
		article, err := extractor.Parse([]byte(page), nil)
		if err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
		if article.PublishedAt == nil || !article.PublishedAt.Equal(tt.expected) {
			t.Errorf("Expected %v for %s, got %v", tt.expected, tt.head, article.PublishedAt)
		}
	}

	page := strings.Replace(pageWithHead(""), "<article>", `<article><time datetime="2024-03-04T05:06:07Z">March</time>`, 1)
	article, err := extractor.Parse([]byte(page), nil)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if article.PublishedAt == nil || !article.PublishedAt.Equal(time.Date(2024, 3, 4, 5, 6, 7, 0, time.UTC)) {
		t.Errorf("Expected date from time element, got %v", article.PublishedAt)
	}
}
