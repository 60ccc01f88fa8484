package feed

import (
	"cmp"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/lysyi3m/mail-comb/app/classifier"
	"github.com/lysyi3m/mail-comb/app/database"
)

const (
	MinTextLength        = 100
	ClassifierTextLength = 4000
	wordsPerMinute       = 200
)

type EntryStore interface {
	EntryExists(entryID string) (bool, error)
	MarkEntryProcessed(entryID string) error
}

type ArticleStore interface {
	ArticleExists(url, contentHash string) (bool, error)
	SaveArticle(article database.Article) (database.SaveResult, error)
}

type FailedCrawlStore interface {
	IsCrawlFailed(url string) (bool, error)
	MarkCrawlFailed(url, errorCode string) error
}

type Extractor interface {
	Run(ctx context.Context, pageURL string) (*ExtractedArticle, error)
}

type Classifier interface {
	Classify(ctx context.Context, title, content string) (classifier.Classification, error)
}

// Processor walks entries through link extraction and the crawl gate.
// Entries and their candidates are handled one at a time.
type Processor struct {
	links      *LinkExtractor
	entries    EntryStore
	articles   ArticleStore
	failures   FailedCrawlStore
	extractor  Extractor
	classifier Classifier
	now        func() time.Time
}

func NewProcessor(links *LinkExtractor, entries EntryStore, articles ArticleStore, failures FailedCrawlStore, extractor Extractor, contentClassifier Classifier) *Processor {
	return &Processor{
		links:      links,
		entries:    entries,
		articles:   articles,
		failures:   failures,
		extractor:  extractor,
		classifier: contentClassifier,
		now:        time.Now,
	}
}

// Run processes entries in order. A store failure abandons the current entry,
// which stays unprocessed, and the run moves on to the next one. The returned
// error joins all such failures.
func (p *Processor) Run(ctx context.Context, entries []Entry) (RunStats, error) {
	var stats RunStats
	var errs []error

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		if err := p.processEntry(ctx, entry, &stats); err != nil {
			if ctx.Err() != nil {
				return stats, ctx.Err()
			}
			slog.Error("Failed to process entry", "entry_id", entry.ID, "error", err)
			errs = append(errs, fmt.Errorf("entry %s: %w", entry.ID, err))
		}
	}

	return stats, errors.Join(errs...)
}

func (p *Processor) processEntry(ctx context.Context, entry Entry, stats *RunStats) error {
	processed, err := p.entries.EntryExists(entry.ID)
	if err != nil {
		return fmt.Errorf("failed to check entry: %w", err)
	}
	if processed {
		slog.Debug("Entry already processed, skipping", "entry_id", entry.ID)
		stats.EntriesSkipped++
		return nil
	}

	if strings.TrimSpace(entry.Content) == "" {
		slog.Warn("No content found in entry", "entry_id", entry.ID)
		stats.EntriesSkipped++
		return nil
	}

	slog.Info("Processing new entry", "entry_id", entry.ID, "title", entry.Title)

	candidates, err := p.links.Run(entry.Content)
	if err != nil {
		return err
	}

	slog.Info("Found potential article links", "entry_id", entry.ID, "count", len(candidates))
	stats.Candidates += len(candidates)

	for _, link := range candidates {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := p.processLink(ctx, entry, link, stats); err != nil {
			return err
		}
	}

	if err := p.entries.MarkEntryProcessed(entry.ID); err != nil {
		return fmt.Errorf("failed to mark entry processed: %w", err)
	}
	stats.Entries++

	return nil
}

// processLink returns an error only for store failures and cancellation.
func (p *Processor) processLink(ctx context.Context, entry Entry, link string, stats *RunStats) error {
	exists, err := p.articles.ArticleExists(link, "")
	if err != nil {
		return fmt.Errorf("failed to check article: %w", err)
	}
	if exists {
		slog.Info("Skipping duplicate URL", "url", link)
		stats.Duplicates++
		return nil
	}

	failed, err := p.failures.IsCrawlFailed(link)
	if err != nil {
		return fmt.Errorf("failed to check crawl failure: %w", err)
	}
	if failed {
		slog.Info("Skipping previously failed URL", "url", link)
		stats.KnownFailures++
		return nil
	}

	slog.Info("Crawling article", "url", link)

	extracted, err := p.extractor.Run(ctx, link)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return p.handleExtractError(link, err, stats)
	}

	text := strings.TrimSpace(extracted.Text)
	if utf8.RuneCountInString(text) < MinTextLength {
		slog.Warn("Skipping article with insufficient content", "url", link, "length", utf8.RuneCountInString(text))
		stats.TooShort++
		return nil
	}

	hash := ContentHash(text)
	exists, err = p.articles.ArticleExists("", hash)
	if err != nil {
		return fmt.Errorf("failed to check content hash: %w", err)
	}
	if exists {
		slog.Info("Skipping duplicate content (hash match)", "url", link, "hash", hash)
		stats.Duplicates++
		return nil
	}

	classification := p.classify(ctx, link, extracted.Title, text, stats)

	article := database.Article{
		FeedEntryID:    entry.ID,
		EmailSource:    entry.Title,
		SourceDomain:   sourceDomain(link),
		Title:          cmp.Or(extracted.Title, link),
		Content:        cmp.Or(extracted.HTML, text),
		Summary:        classification.Summary,
		Tags:           classification.Tags,
		ImageURL:       extracted.ImageURL,
		OriginalLink:   link,
		ContentHash:    hash,
		PublishedDate:  p.publishedDate(extracted.PublishedAt),
		FeedSourceDate: entry.Date.Format(time.RFC3339),
		Author:         cmp.Or(extracted.Author, UnknownAuthor),
		ReadingTime:    ReadingTime(text),
	}

	result, err := p.articles.SaveArticle(article)
	if err != nil {
		return err
	}

	if result == database.SaveDuplicate {
		stats.Duplicates++
	} else {
		stats.Saved++
	}

	return nil
}

func (p *Processor) handleExtractError(link string, err error, stats *RunStats) error {
	var fetchErr *FetchError
	if errors.As(err, &fetchErr) && fetchErr.IsAuthFailure() {
		slog.Warn("Marking URL as failed", "url", link, "code", fetchErr.Code())
		if err := p.failures.MarkCrawlFailed(link, fetchErr.Code()); err != nil {
			return fmt.Errorf("failed to mark crawl failed: %w", err)
		}
		stats.MarkedFailed++
		return nil
	}

	slog.Error("Failed to process article", "url", link, "error", err)
	stats.Failed++
	return nil
}

// classify never fails; an unavailable classifier yields an empty result.
func (p *Processor) classify(ctx context.Context, link, title, text string, stats *RunStats) classifier.Classification {
	result, err := p.classifier.Classify(ctx, title, truncateRunes(text, ClassifierTextLength))
	if err == nil {
		return result
	}

	stats.ClassifyErrors++
	if errors.Is(err, classifier.ErrNotConfigured) {
		slog.Debug("Classifier not configured", "url", link)
	} else {
		slog.Error("Error calling classifier", "url", link, "error", err)
	}

	return classifier.Classification{Tags: []string{}}
}

func (p *Processor) publishedDate(extracted *time.Time) string {
	if extracted != nil {
		return extracted.Format(time.RFC3339)
	}
	return p.now().Format(time.RFC3339)
}

func ContentHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// ReadingTime estimates minutes at 200 words per minute, at least one.
// Halves round to even.
func ReadingTime(text string) int {
	words := len(strings.Fields(text))
	return max(1, int(math.RoundToEven(float64(words)/wordsPerMinute)))
}

func sourceDomain(link string) string {
	u, err := url.Parse(link)
	if err != nil {
		return ""
	}
	return u.Host
}

func truncateRunes(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit])
}
