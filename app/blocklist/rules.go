package blocklist

import (
	"bufio"
	"io"
	"strings"

	ahocorasick "github.com/cloudflare/ahocorasick"
)

// RuleSet holds the network filters of an EasyList style list. Only the
// subset needed to judge a bare URL is understood: "||host" anchors, "|"
// start and end anchors, plain patterns with "*" wildcards and a trailing
// "^" separator, and "@@" exceptions. Element hiding rules and rules with
// "$" options are skipped.
type RuleSet struct {
	block     matcher
	exception matcher
}

type ParseStats struct {
	Rules   int
	Skipped int
}

type hostRule struct {
	path      string // empty matches the whole host
	separator bool
}

type anchoredRule struct {
	text      string
	start     bool
	end       bool
	separator bool
}

type matcher struct {
	hosts     map[string][]hostRule
	anchored  []anchoredRule
	wildcards [][]string

	substrings []string
	substr     *ahocorasick.Matcher
}

func Parse(r io.Reader) (*RuleSet, ParseStats, error) {
	rs := &RuleSet{
		block:     matcher{hosts: make(map[string][]hostRule)},
		exception: matcher{hosts: make(map[string][]hostRule)},
	}
	var stats ParseStats

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "!") || strings.HasPrefix(line, "[") {
			continue
		}
		if strings.Contains(line, "##") || strings.Contains(line, "#@#") || strings.Contains(line, "#?#") || strings.Contains(line, "#$#") {
			stats.Skipped++
			continue
		}

		target := &rs.block
		if rest, ok := strings.CutPrefix(line, "@@"); ok {
			target = &rs.exception
			line = rest
		}

		if strings.Contains(line, "$") {
			stats.Skipped++
			continue
		}

		if target.add(strings.ToLower(line)) {
			stats.Rules++
		} else {
			stats.Skipped++
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, stats, err
	}

	rs.block.build()
	rs.exception.build()

	return rs, stats, nil
}

func (rs *RuleSet) ShouldBlock(rawURL string) bool {
	if rs == nil {
		return false
	}
	u := strings.ToLower(rawURL)
	return rs.block.matches(u) && !rs.exception.matches(u)
}

func (m *matcher) add(rule string) bool {
	if rest, ok := strings.CutPrefix(rule, "||"); ok {
		return m.addHost(rest)
	}

	start := strings.HasPrefix(rule, "|")
	end := strings.HasSuffix(rule, "|") && len(rule) > 1
	rule = strings.TrimSuffix(strings.TrimPrefix(rule, "|"), "|")

	if !start {
		rule = strings.TrimLeft(rule, "*")
	}
	if !end {
		rule = strings.TrimRight(rule, "*")
	}

	separator := strings.HasSuffix(rule, "^")
	rule = strings.TrimSuffix(rule, "^")

	if len(rule) < 3 || strings.Contains(rule, "^") {
		return false
	}

	if strings.Contains(rule, "*") {
		if start || end || separator {
			return false
		}
		m.wildcards = append(m.wildcards, strings.Split(rule, "*"))
		return true
	}

	if start || end || separator {
		m.anchored = append(m.anchored, anchoredRule{text: rule, start: start, end: end, separator: separator})
		return true
	}

	m.substrings = append(m.substrings, rule)
	return true
}

func (m *matcher) addHost(rule string) bool {
	i := strings.IndexAny(rule, "/^:?|")
	host, rest := rule, ""
	if i >= 0 {
		host, rest = rule[:i], rule[i:]
	}

	if host == "" || strings.Contains(host, "*") {
		return false
	}

	switch {
	case rest == "" || rest == "^" || rest == "^|":
		m.hosts[host] = append(m.hosts[host], hostRule{})
		return true
	case strings.HasPrefix(rest, "/"):
		rest = strings.TrimSuffix(rest, "|")
		separator := strings.HasSuffix(rest, "^")
		path := strings.TrimSuffix(rest, "^")
		if strings.ContainsAny(path, "*^") {
			return false
		}
		m.hosts[host] = append(m.hosts[host], hostRule{path: path, separator: separator})
		return true
	}

	return false
}

func (m *matcher) build() {
	if len(m.substrings) > 0 {
		m.substr = ahocorasick.NewStringMatcher(m.substrings)
	}
}

func (m *matcher) matches(u string) bool {
	if len(m.hosts) > 0 && m.matchesHost(u) {
		return true
	}

	for _, rule := range m.anchored {
		if rule.matches(u) {
			return true
		}
	}

	for _, parts := range m.wildcards {
		if matchesInOrder(u, parts) {
			return true
		}
	}

	return m.substr != nil && len(m.substr.Match([]byte(u))) > 0
}

// matchesHost checks the URL host and each parent domain against "||" rules.
func (m *matcher) matchesHost(u string) bool {
	_, afterScheme, ok := strings.Cut(u, "://")
	if !ok {
		return false
	}

	hostPort, rest := afterScheme, ""
	if i := strings.IndexAny(afterScheme, "/?#"); i >= 0 {
		hostPort, rest = afterScheme[:i], afterScheme[i:]
	}
	if at := strings.LastIndex(hostPort, "@"); at >= 0 {
		hostPort = hostPort[at+1:]
	}
	host := hostPort
	if i := strings.LastIndex(hostPort, ":"); i >= 0 && !strings.HasSuffix(hostPort, "]") {
		host = hostPort[:i]
	}

	for domain := host; domain != ""; {
		for _, rule := range m.hosts[domain] {
			if rule.path == "" {
				return true
			}
			if strings.HasPrefix(rest, rule.path) && (!rule.separator || isSeparatorAt(rest, len(rule.path))) {
				return true
			}
		}

		i := strings.Index(domain, ".")
		if i < 0 {
			break
		}
		domain = domain[i+1:]
	}

	return false
}

func (r anchoredRule) matches(u string) bool {
	switch {
	case r.start && r.end:
		return u == r.text
	case r.start:
		return strings.HasPrefix(u, r.text) && (!r.separator || isSeparatorAt(u, len(r.text)))
	case r.end:
		return strings.HasSuffix(u, r.text)
	}

	for offset := 0; offset < len(u); {
		i := strings.Index(u[offset:], r.text)
		if i < 0 {
			return false
		}
		end := offset + i + len(r.text)
		if isSeparatorAt(u, end) {
			return true
		}
		offset += i + 1
	}
	return false
}

func matchesInOrder(u string, parts []string) bool {
	for _, part := range parts {
		i := strings.Index(u, part)
		if i < 0 {
			return false
		}
		u = u[i+len(part):]
	}
	return true
}

// isSeparatorAt reports whether position i of s is the end of the string or
// a character other than a letter, digit or one of "_-.%".
func isSeparatorAt(s string, i int) bool {
	if i >= len(s) {
		return true
	}
	c := s[i]
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return false
	case c == '_' || c == '-' || c == '.' || c == '%':
		return false
	}
	return true
}
