package feed

import (
	"fmt"
	"strings"
	"sync"

	ahocorasick "github.com/cloudflare/ahocorasick"
	"golang.org/x/text/cases"
)

// BlockingRules is an external ad-block style rule set consulted with the
// URL only.
type BlockingRules interface {
	ShouldBlock(url string) bool
}

// LinkFilter decides whether a candidate link is worth crawling. The checks
// are substring heuristics and lean towards keeping real articles.
type LinkFilter struct {
	extensions []string
	substrings []string
	domains    []string
	blocking   BlockingRules

	mu               sync.Mutex // matchers keep per-search state
	substringMatcher *ahocorasick.Matcher
	domainMatcher    *ahocorasick.Matcher
}

// NewLinkFilter builds a filter from rules. blocking may be nil.
func NewLinkFilter(rules FilterRules, blocking BlockingRules) *LinkFilter {
	f := &LinkFilter{
		extensions: foldAll(rules.BlockedExtensions),
		substrings: foldAll(rules.BlockedSubstrings),
		domains:    foldAll(rules.BlockedDomains),
		blocking:   blocking,
	}

	if len(f.substrings) > 0 {
		f.substringMatcher = ahocorasick.NewStringMatcher(f.substrings)
	}
	if len(f.domains) > 0 {
		f.domainMatcher = ahocorasick.NewStringMatcher(f.domains)
	}

	return f
}

func (f *LinkFilter) IsValid(url, linkText string) bool {
	valid, _ := f.Check(url, linkText)
	return valid
}

// Check applies extension, substring, domain and blocking-rule checks in that
// order and returns the reason for the first one that rejects the link.
func (f *LinkFilter) Check(url, linkText string) (bool, string) {
	folded := fold(url)

	for _, ext := range f.extensions {
		if strings.HasSuffix(folded, ext) {
			return false, fmt.Sprintf("blocked extension '%s'", ext)
		}
	}

	if sub, ok := f.match(f.substringMatcher, f.substrings, folded); ok {
		return false, fmt.Sprintf("url contains '%s'", sub)
	}

	if linkText != "" {
		if sub, ok := f.match(f.substringMatcher, f.substrings, fold(linkText)); ok {
			return false, fmt.Sprintf("link text contains '%s'", sub)
		}
	}

	if domain, ok := f.match(f.domainMatcher, f.domains, folded); ok {
		return false, fmt.Sprintf("blocked domain '%s'", domain)
	}

	if f.blocking != nil && f.blocking.ShouldBlock(url) {
		return false, "blocking rules"
	}

	return true, ""
}

func (f *LinkFilter) match(matcher *ahocorasick.Matcher, dictionary []string, text string) (string, bool) {
	if matcher == nil {
		return "", false
	}

	f.mu.Lock()
	hits := matcher.Match([]byte(text))
	f.mu.Unlock()

	if len(hits) == 0 {
		return "", false
	}
	return dictionary[hits[0]], true
}

func fold(s string) string {
	return cases.Fold().String(s)
}

func foldAll(values []string) []string {
	folded := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			folded = append(folded, fold(v))
		}
	}
	return folded
}
