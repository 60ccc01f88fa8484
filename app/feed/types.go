package feed

import (
	"time"
)

// Entry is one forwarded newsletter from the source feed.
type Entry struct {
	ID      string
	Title   string
	Content string    // HTML body
	Date    time.Time // updated, else published, else time of parsing
}

type ExtractedArticle struct {
	URL         string
	Title       string
	Text        string
	HTML        string
	ImageURL    string
	Author      string
	PublishedAt *time.Time
}

// Link is an anchor found in an entry body, after redirect unwrapping.
type Link struct {
	URL  string
	Text string
}

// Rule types

type Rules struct {
	Filter           FilterRules       `yaml:"filter"`
	Normalizer       NormalizerRules   `yaml:"normalizer"`
	RedirectWrappers []RedirectWrapper `yaml:"redirect_wrappers"`
}

type FilterRules struct {
	BlockedExtensions []string `yaml:"blocked_extensions"`
	BlockedSubstrings []string `yaml:"blocked_substrings"`
	BlockedDomains    []string `yaml:"blocked_domains"`
}

type NormalizerRules struct {
	TrackingParams []string `yaml:"tracking_params"`
}

// RedirectWrapper describes a link shortener or click tracker that carries
// the real destination in a query parameter. A Host starting with "*."
// matches any subdomain.
type RedirectWrapper struct {
	Host   string   `yaml:"host"`
	Path   string   `yaml:"path"`
	Params []string `yaml:"params"`
}

// RunStats counts what happened during one Processor run.
type RunStats struct {
	Entries        int // new entries completed
	EntriesSkipped int // already processed or without content
	Candidates     int
	Saved          int
	Duplicates     int // known link or content
	KnownFailures  int // skipped because of a failed crawl record
	Failed         int
	MarkedFailed   int
	TooShort       int
	ClassifyErrors int
}
