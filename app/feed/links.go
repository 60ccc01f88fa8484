package feed

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const maxRedirectDepth = 3

// LinkExtractor turns an entry body into the ordered set of URLs to crawl.
type LinkExtractor struct {
	wrappers   []RedirectWrapper
	filter     *LinkFilter
	normalizer *Normalizer
}

func NewLinkExtractor(wrappers []RedirectWrapper, filter *LinkFilter, normalizer *Normalizer) *LinkExtractor {
	return &LinkExtractor{
		wrappers:   wrappers,
		filter:     filter,
		normalizer: normalizer,
	}
}

// Links returns every absolute http(s) anchor in document order with
// redirect wrappers removed.
func (e *LinkExtractor) Links(body string) ([]Link, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse entry HTML: %w", err)
	}

	var links []Link
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		href = strings.TrimSpace(href)
		if !isHTTPURL(href) {
			return
		}

		links = append(links, Link{
			URL:  e.UnwrapRedirect(href),
			Text: strings.Join(strings.Fields(s.Text()), " "),
		})
	})

	return links, nil
}

// Run filters and normalizes the links of body. The result keeps the order
// of first appearance and holds each normalized URL once.
func (e *LinkExtractor) Run(body string) ([]string, error) {
	links, err := e.Links(body)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(links))
	candidates := make([]string, 0, len(links))

	for _, link := range links {
		if ok, reason := e.filter.Check(link.URL, link.Text); !ok {
			slog.Debug("Link filtered", "url", link.URL, "reason", reason)
			continue
		}

		normalized := e.normalizer.Run(link.URL)
		if _, dup := seen[normalized]; dup {
			continue
		}
		seen[normalized] = struct{}{}
		candidates = append(candidates, normalized)
	}

	return candidates, nil
}

// UnwrapRedirect follows known redirect wrappers, nested up to three deep.
// Anything that does not parse is returned as is.
func (e *LinkExtractor) UnwrapRedirect(rawURL string) string {
	current := rawURL

	for range maxRedirectDepth {
		u, err := url.Parse(current)
		if err != nil {
			return current
		}

		target, ok := e.redirectTarget(u)
		if !ok {
			return current
		}
		current = target
	}

	return current
}

func (e *LinkExtractor) redirectTarget(u *url.URL) (string, bool) {
	host := strings.ToLower(u.Hostname())

	for _, wrapper := range e.wrappers {
		if !matchesHost(host, strings.ToLower(wrapper.Host)) {
			continue
		}
		if wrapper.Path != "" && u.Path != wrapper.Path {
			continue
		}

		query := u.Query()
		for _, param := range wrapper.Params {
			if target := strings.TrimSpace(query.Get(param)); isHTTPURL(target) {
				return target, true
			}
		}
	}

	return "", false
}

func matchesHost(host, pattern string) bool {
	if suffix, ok := strings.CutPrefix(pattern, "*."); ok {
		return host == suffix || strings.HasSuffix(host, "."+suffix)
	}
	return host == pattern
}

func isHTTPURL(s string) bool {
	lower := strings.ToLower(s)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
