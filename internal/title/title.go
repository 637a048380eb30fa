// Package title normalizes free-text commit and pull request titles into the
// canonical keys used wherever two titles must be compared.
//
// Two titles are "the same change" everywhere in changelog-bot if and only if
// Normalize returns the same key for both.
package title

import (
	"regexp"
	"strings"
)

// Types lists the conventional commit types recognized as prefixes.
var Types = []string{
	"feat",
	"fix",
	"refactor",
	"perf",
	"style",
	"docs",
	"build",
	"ci",
	"test",
	"chore",
	"revert",
}

var (
	// conventionalPrefixRe matches `type:`, `type!:`, `type(scope):` and `type(scope)!:`.
	conventionalPrefixRe = regexp.MustCompile(`(?i)^(` + strings.Join(Types, "|") + `)!?(?:\([^)]*\))?!?:\s*`)

	// breakingMarkerRe matches a `!` directly before the prefix colon, for any type word.
	breakingMarkerRe = regexp.MustCompile(`^[A-Za-z]+(?:\([^)]*\))?!:`)

	nonAlphanumericRe = regexp.MustCompile(`[^a-z0-9]+`)
)

// StripConventionalPrefix removes a leading `type(scope)!:` token and trims the result.
func StripConventionalPrefix(s string) string {
	s = strings.TrimSpace(s)
	return strings.TrimSpace(conventionalPrefixRe.ReplaceAllString(s, ""))
}

// Normalize strips the conventional prefix, lowercases, collapses every run of
// non-alphanumeric characters into one space and trims.
func Normalize(s string) string {
	s = strings.ToLower(StripConventionalPrefix(s))
	return strings.TrimSpace(nonAlphanumericRe.ReplaceAllString(s, " "))
}

// Kind returns the lowercased conventional type of s, or "" when s has no
// recognized prefix.
func Kind(s string) string {
	m := conventionalPrefixRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return ""
	}
	return strings.ToLower(m[1])
}

// HasPrefix reports whether s starts with a conventional prefix of one of the
// given types. Scope and breaking marker are optional in either position.
func HasPrefix(s string, types ...string) bool {
	kind := Kind(s)
	if kind == "" {
		return false
	}
	for _, t := range types {
		if strings.EqualFold(kind, t) {
			return true
		}
	}
	return false
}

// HasBreakingMarker reports whether the first line of s carries the breaking
// marker in its prefix (`type!:` or `type(scope)!:`).
func HasBreakingMarker(s string) bool {
	first, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	return breakingMarkerRe.MatchString(first)
}

// Core returns the lowercased title with its conventional prefix removed,
// keeping punctuation. Substring heuristics run against this form.
func Core(s string) string {
	return strings.ToLower(StripConventionalPrefix(s))
}
