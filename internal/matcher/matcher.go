// internal/matcher/matcher.go
package matcher

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"go.uber.org/zap"
)

// Config holds the keyword set and the exclusion list. Exclusions are
// configuration data, not code: on this platform a bare "bonk" would match
// virtually every token and flood alerts, but which terms are too generic is
// an operator decision.
type Config struct {
	Keywords   []string
	Exclusions []string
}

// Matcher tests resolved token names against configured keywords.
//
// Matching rules:
//   - case-insensitive substring containment;
//   - excluded keywords never match, even when contained;
//   - single-rune keywords never match;
//   - keywords of one or two runes must appear as a standalone word
//     ("ai" must not fire on "chair");
//   - among multiple matches the shortest keyword wins, ties broken
//     lexicographically, so results are deterministic.
type Matcher struct {
	keywords   []string
	exclusions map[string]struct{}
	logger     *zap.Logger
}

func New(cfg Config, logger *zap.Logger) *Matcher {
	m := &Matcher{
		exclusions: make(map[string]struct{}, len(cfg.Exclusions)),
		logger:     logger.Named("matcher"),
	}
	for _, raw := range cfg.Exclusions {
		excl := normalize(raw)
		if excl != "" {
			m.exclusions[excl] = struct{}{}
		}
	}
	m.SetKeywords(cfg.Keywords)
	return m
}

// SetKeywords replaces the keyword set. Keywords are normalized, deduplicated
// and sorted shortest-first for the deterministic tie-break.
func (m *Matcher) SetKeywords(keywords []string) {
	seen := make(map[string]struct{}, len(keywords))
	normalized := make([]string, 0, len(keywords))
	for _, raw := range keywords {
		kw := normalize(raw)
		if kw == "" {
			continue
		}
		if _, dup := seen[kw]; dup {
			continue
		}
		seen[kw] = struct{}{}
		normalized = append(normalized, kw)
	}

	sort.Slice(normalized, func(i, j int) bool {
		if len(normalized[i]) != len(normalized[j]) {
			return len(normalized[i]) < len(normalized[j])
		}
		return normalized[i] < normalized[j]
	})
	m.keywords = normalized
}

// Keywords returns the active keyword set in match order.
func (m *Matcher) Keywords() []string {
	out := make([]string, len(m.keywords))
	copy(out, m.keywords)
	return out
}

// Match returns the first matching keyword for name, or ("", false).
func (m *Matcher) Match(name string) (string, bool) {
	lower := strings.ToLower(name)

	for _, kw := range m.keywords {
		if _, excluded := m.exclusions[kw]; excluded {
			continue
		}
		runes := []rune(kw)
		if len(runes) <= 1 {
			continue
		}
		if len(runes) <= 2 {
			if containsWord(lower, kw) {
				return kw, true
			}
			continue
		}
		if strings.Contains(lower, kw) {
			return kw, true
		}
	}
	return "", false
}

func normalize(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// containsWord reports whether word appears in lower-cased text delimited by
// non-alphanumeric runes. Neighbor runes are decoded properly so multibyte
// letters do not read as boundaries.
func containsWord(text, word string) bool {
	for start := 0; ; {
		idx := strings.Index(text[start:], word)
		if idx < 0 {
			return false
		}
		idx += start

		before := true
		if idx > 0 {
			r, _ := utf8.DecodeLastRuneInString(text[:idx])
			before = isBoundary(r)
		}
		after := true
		if end := idx + len(word); end < len(text) {
			r, _ := utf8.DecodeRuneInString(text[end:])
			after = isBoundary(r)
		}
		if before && after {
			return true
		}
		start = idx + 1
	}
}

func isBoundary(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}
