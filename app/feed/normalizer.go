package feed

import (
	"net/url"
	"strings"
)

// Normalizer produces the canonical form of a URL used as the dedup key.
type Normalizer struct {
	trackingParams map[string]struct{}
}

func NewNormalizer(rules NormalizerRules) *Normalizer {
	params := make(map[string]struct{}, len(rules.TrackingParams))
	for _, p := range rules.TrackingParams {
		params[strings.ToLower(p)] = struct{}{}
	}
	return &Normalizer{trackingParams: params}
}

// Run drops the fragment and tracking parameters, keeps the remaining
// parameters in their original order and strips one trailing slash.
// Input that cannot be parsed is returned unchanged.
func (n *Normalizer) Run(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}

	u.Fragment = ""
	u.RawFragment = ""
	u.ForceQuery = false

	if u.RawQuery != "" {
		query, ok := n.filterQuery(u.RawQuery)
		if !ok {
			return rawURL
		}
		u.RawQuery = query
	}

	return strings.TrimSuffix(u.String(), "/")
}

// url.Values would sort keys on Encode, so pairs are handled by hand.
func (n *Normalizer) filterQuery(rawQuery string) (string, bool) {
	kept := make([]string, 0)

	for _, pair := range strings.Split(rawQuery, "&") {
		if pair == "" {
			continue
		}

		rawKey, rawValue, _ := strings.Cut(pair, "=")
		key, err := url.QueryUnescape(rawKey)
		if err != nil {
			return "", false
		}
		value, err := url.QueryUnescape(rawValue)
		if err != nil {
			return "", false
		}

		if _, tracking := n.trackingParams[strings.ToLower(key)]; tracking {
			continue
		}

		kept = append(kept, url.QueryEscape(key)+"="+url.QueryEscape(value))
	}

	return strings.Join(kept, "&"), true
}
