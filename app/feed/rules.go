package feed

import (
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

func DefaultFilterRules() FilterRules {
	return FilterRules{
		BlockedExtensions: []string{".png", ".jpg", ".jpeg", ".gif", ".svg", ".css", ".js", ".ico"},
		BlockedSubstrings: []string{
			"unsubscribe", "preferences", "view in browser", "privacy policy",
			"login", "signin", "signup", "register",
		},
		BlockedDomains: []string{
			"twitter.com", "facebook.com", "linkedin.com", "instagram.com", "tiktok.com",
			"youtube.com", "google.com", "bing.com", "yahoo.com",
			"kill-the-newsletter.com",
		},
	}
}

func DefaultNormalizerRules() NormalizerRules {
	return NormalizerRules{
		TrackingParams: []string{
			"utm_source", "utm_medium", "utm_campaign", "utm_term", "utm_content",
			"fbclid", "gclid", "ref", "source",
		},
	}
}

func DefaultRedirectWrappers() []RedirectWrapper {
	return []RedirectWrapper{
		{Host: "google.com", Path: "/url", Params: []string{"q", "url"}},
		{Host: "www.google.com", Path: "/url", Params: []string{"q", "url"}},
		{Host: "l.facebook.com", Path: "/l.php", Params: []string{"u"}},
		{Host: "*.safelinks.protection.outlook.com", Params: []string{"url"}},
		{Host: "out.reddit.com", Params: []string{"url"}},
	}
}

func DefaultRules() Rules {
	return Rules{
		Filter:           DefaultFilterRules(),
		Normalizer:       DefaultNormalizerRules(),
		RedirectWrappers: DefaultRedirectWrappers(),
	}
}

// LoadRules reads filter lists from a YAML file. An empty path yields the
// built-in lists; lists missing from the file keep their defaults.
func LoadRules(path string) (Rules, error) {
	rules := DefaultRules()
	if path == "" {
		return rules, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, fmt.Errorf("failed to read file: %w", err)
	}

	var raw Rules
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Rules{}, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if raw.Filter.BlockedExtensions != nil {
		rules.Filter.BlockedExtensions = raw.Filter.BlockedExtensions
	}
	if raw.Filter.BlockedSubstrings != nil {
		rules.Filter.BlockedSubstrings = raw.Filter.BlockedSubstrings
	}
	if raw.Filter.BlockedDomains != nil {
		rules.Filter.BlockedDomains = raw.Filter.BlockedDomains
	}
	if raw.Normalizer.TrackingParams != nil {
		rules.Normalizer.TrackingParams = raw.Normalizer.TrackingParams
	}
	if raw.RedirectWrappers != nil {
		rules.RedirectWrappers = raw.RedirectWrappers
	}

	if err := validateRules(rules); err != nil {
		return Rules{}, fmt.Errorf("invalid rules %s: %w", path, err)
	}

	slog.Debug("Filter rules loaded",
		"path", path,
		"extensions", len(rules.Filter.BlockedExtensions),
		"substrings", len(rules.Filter.BlockedSubstrings),
		"domains", len(rules.Filter.BlockedDomains),
		"tracking_params", len(rules.Normalizer.TrackingParams),
		"redirect_wrappers", len(rules.RedirectWrappers))

	return rules, nil
}

func validateRules(rules Rules) error {
	for i, ext := range rules.Filter.BlockedExtensions {
		if !strings.HasPrefix(ext, ".") || len(ext) < 2 {
			return fmt.Errorf("blocked extension at index %d must start with a dot: %q", i, ext)
		}
	}

	lists := map[string][]string{
		"blocked substring": rules.Filter.BlockedSubstrings,
		"blocked domain":    rules.Filter.BlockedDomains,
		"tracking param":    rules.Normalizer.TrackingParams,
	}
	for name, list := range lists {
		if i := slices.IndexFunc(list, func(s string) bool { return strings.TrimSpace(s) == "" }); i >= 0 {
			return fmt.Errorf("%s at index %d is empty", name, i)
		}
	}

	for i, wrapper := range rules.RedirectWrappers {
		if wrapper.Host == "" {
			return fmt.Errorf("redirect wrapper at index %d has no host", i)
		}
		if len(wrapper.Params) == 0 {
			return fmt.Errorf("redirect wrapper at index %d must name at least one param", i)
		}
	}

	return nil
}
