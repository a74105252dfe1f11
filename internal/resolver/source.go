// internal/resolver/source.go
package resolver

import (
	"context"
	"regexp"
	"strings"
	"time"
)

// Source identifies the upstream API a name came from.
type Source string

const (
	SourceDexScreener Source = "dexscreener"
	SourceSolscan     Source = "solscan"
	SourceBirdeye     Source = "birdeye"
	SourcePumpfun     Source = "pumpfun"
)

// NameResult is a resolved display name for a token mint.
type NameResult struct {
	Name       string
	Confidence float64
	Source     Source
	ResolvedAt time.Time
}

// SourceClient resolves a mint address to a display name against one upstream
// API. FetchName never returns an error: any transport failure, timeout or
// malformed payload yields nil, with the cause logged inside the client. This
// keeps the cascade free of exception-driven control flow — very new tokens
// are simply absent from most indexers for the first seconds of their life.
type SourceClient interface {
	Source() Source
	FetchName(ctx context.Context, address string) *NameResult
}

// Clock abstracts time for the cache and retry scheduler so expiry and delay
// behavior is testable without sleeping.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns the wall clock.
func SystemClock() Clock { return systemClock{} }

const (
	minNameLen = 2
	maxNameLen = 50
)

var cleanupPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\s*\|\s*LetsBonk.*$`),
	regexp.MustCompile(`(?i)^Token:\s*`),
	regexp.MustCompile(`(?i)^Name:\s*`),
	regexp.MustCompile(`\s*\(\$\w+\)$`),
	regexp.MustCompile(`(?i)\s*Token\s*$`),
}

var whitespaceRe = regexp.MustCompile(`\s+`)

// CleanName strips indexer and page artifacts from a raw token name:
// "| LetsBonk" suffixes, "Token:"/"Name:" prefixes, "($SYM)" tails, a
// trailing "Token" and redundant whitespace.
func CleanName(raw string) string {
	cleaned := strings.TrimSpace(raw)
	for _, p := range cleanupPatterns {
		cleaned = p.ReplaceAllString(cleaned, "")
	}
	return whitespaceRe.ReplaceAllString(cleaned, " ")
}

// validName reports whether a cleaned name is plausibly a real token name.
func validName(name string) bool {
	n := len([]rune(name))
	return n >= minNameLen && n < maxNameLen
}

// IsPlaceholder reports whether a name is an indexer fallback rather than the
// token's real name ("Unknown", "Unnamed Token", "Token Ab12...", the
// "letsbonk token <mint>" synthetic names).
func IsPlaceholder(name string) bool {
	lower := strings.ToLower(strings.TrimSpace(name))
	switch lower {
	case "", "unknown", "unnamed", "unnamed token", "token":
		return true
	}
	for _, prefix := range []string{"token ", "letsbonk token ", "unnamed "} {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	// Random-character junk the fallback resolvers occasionally emit.
	if strings.Count(lower, "x") > 3 || strings.Count(lower, "z") > 2 {
		return true
	}
	return false
}
