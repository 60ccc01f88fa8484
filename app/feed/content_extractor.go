package feed

import (
	"bytes"
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
)

const UnknownAuthor = "Unknown Author"

var publishedDateSelectors = []string{
	"meta[property='article:published_time']",
	"meta[name='article:published_time']",
	"meta[property='og:published_time']",
	"meta[name='pubdate']",
	"meta[name='date']",
	"meta[itemprop='datePublished']",
}

var publishedDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05Z0700",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

type ContentExtractor struct {
	httpClient *http.Client
	userAgent  string
}

func NewContentExtractor(httpClient *http.Client, userAgent string) *ContentExtractor {
	return &ContentExtractor{
		httpClient: httpClient,
		userAgent:  userAgent,
	}
}

// Run downloads pageURL and extracts the article. Download failures are
// returned as *FetchError, unreadable pages wrap ErrParse.
func (e *ContentExtractor) Run(ctx context.Context, pageURL string) (*ExtractedArticle, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return nil, &FetchError{URL: pageURL, Kind: FetchParse, Err: err}
	}

	data, err := fetch(ctx, e.httpClient, pageURL, e.userAgent, isHTMLContentType)
	if err != nil {
		return nil, err
	}

	return e.Parse(data, u)
}

// Parse extracts the article from an already downloaded page.
func (e *ContentExtractor) Parse(data []byte, pageURL *url.URL) (*ExtractedArticle, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("HTML data is empty: %w", ErrParse)
	}

	article, err := readability.FromReader(bytes.NewReader(data), pageURL)
	if err != nil {
		return nil, fmt.Errorf("failed to extract content: %w: %w", ErrParse, err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w: %w", ErrParse, err)
	}

	extracted := &ExtractedArticle{
		Title:    strings.TrimSpace(cmp.Or(article.Title, doc.Find("title").First().Text())),
		Text:     strings.TrimSpace(article.TextContent),
		HTML:     strings.TrimSpace(article.Content),
		ImageURL: resolveURL(pageURL, cmp.Or(article.Image, metaContent(doc, "meta[property='og:image']"))),
		Author: cmp.Or(
			strings.TrimSpace(article.Byline),
			metaContent(doc, "meta[name='author']"),
			UnknownAuthor,
		),
		PublishedAt: publishedDate(doc),
	}
	if pageURL != nil {
		extracted.URL = pageURL.String()
	}

	slog.Debug("Content extracted successfully",
		"url", extracted.URL,
		"title", extracted.Title,
		"text_length", len(extracted.Text))

	return extracted, nil
}

func isHTMLContentType(contentType string) bool {
	contentType = strings.ToLower(contentType)
	return strings.Contains(contentType, "text/html") || strings.Contains(contentType, "application/xhtml+xml")
}

func metaContent(doc *goquery.Document, selector string) string {
	content, _ := doc.Find(selector).First().Attr("content")
	return strings.TrimSpace(content)
}

func publishedDate(doc *goquery.Document) *time.Time {
	candidates := make([]string, 0, len(publishedDateSelectors)+1)
	for _, selector := range publishedDateSelectors {
		candidates = append(candidates, metaContent(doc, selector))
	}
	if datetime, ok := doc.Find("time[datetime]").First().Attr("datetime"); ok {
		candidates = append(candidates, strings.TrimSpace(datetime))
	}

	for _, value := range candidates {
		if value == "" {
			continue
		}
		for _, layout := range publishedDateLayouts {
			if t, err := time.Parse(layout, value); err == nil {
				return &t
			}
		}
	}

	return nil
}

func resolveURL(base *url.URL, ref string) string {
	if ref == "" || base == nil {
		return ref
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return base.ResolveReference(u).String()
}
