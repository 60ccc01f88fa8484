package feed

import (
	"bytes"
	"cmp"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

type Parser struct {
	gofeedParser *gofeed.Parser
	now          func() time.Time
}

func NewParser() *Parser {
	return &Parser{
		gofeedParser: gofeed.NewParser(),
		now:          time.Now,
	}
}

// Run parses a source feed document. Entries without an identifier are
// dropped; an entry keeps an empty Content when the document has none.
func (p *Parser) Run(data []byte) ([]Entry, error) {
	feed, err := p.gofeedParser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w: %w", ErrParse, err)
	}

	entries := make([]Entry, 0, len(feed.Items))
	for _, item := range feed.Items {
		id := strings.TrimSpace(item.GUID)
		if id == "" {
			slog.Warn("Entry found without ID, skipping", "title", item.Title)
			continue
		}

		entries = append(entries, Entry{
			ID:      id,
			Title:   cmp.Or(strings.TrimSpace(item.Title), "No Title"),
			Content: cmp.Or(item.Content, item.Description),
			Date:    p.entryDate(item),
		})
	}

	return entries, nil
}

func (p *Parser) entryDate(item *gofeed.Item) time.Time {
	if item.UpdatedParsed != nil {
		return *item.UpdatedParsed
	}
	if item.PublishedParsed != nil {
		return *item.PublishedParsed
	}
	return p.now()
}
