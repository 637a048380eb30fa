package classify

import (
	"regexp"
	"strings"

	"github.com/ariel-frischer/changelog-bot/internal/title"
)

var (
	bulletPrefixRe = regexp.MustCompile(`^[*-]\s+`)
	scopeRe        = regexp.MustCompile(`(?i)^[a-z]+(?:\(([^)]+)\))?!?:`)
	depScopeRe     = regexp.MustCompile(`(?i)\bdeps(?:-dev|-prod)?\b|\bdependencies?\b`)
	depBotRe       = regexp.MustCompile(`\brenovate\b|\bdependabot\b|\bdeps?bot\b`)
	depPluralRe    = regexp.MustCompile(`\bdeps\b|\bdependencies\b`)
	depSingularRe  = regexp.MustCompile(`\bdependency\b`)
	depActionRe    = regexp.MustCompile(`\b(bump|upgrade|update|pin|refresh|lockfile)\b|bump|upgrade`)
	depFromToRe    = regexp.MustCompile(`from\s+(\d+)\b.*to\s+(\d+)\b`)
	depToVersionRe = regexp.MustCompile(`\bto\s+v?\d+(?:\.\d+){0,3}\b`)
)

// IsDependencyUpdate reports whether a title (or a bullet line) is a
// dependency-only update: a deps scope, a dependency bot, "deps" plus an
// action verb, or "dependency" plus an action verb and a target version.
func IsDependencyUpdate(raw string) bool {
	t := strings.TrimSpace(bulletPrefixRe.ReplaceAllString(raw, ""))
	if t == "" {
		return false
	}

	if m := scopeRe.FindStringSubmatch(t); m != nil && m[1] != "" && depScopeRe.MatchString(m[1]) {
		return true
	}

	if depBotRe.MatchString(strings.ToLower(t)) {
		return true
	}

	core := title.Core(t)
	action := depActionRe.MatchString(core)
	if depPluralRe.MatchString(core) && action {
		return true
	}
	versioned := depFromToRe.MatchString(core) || depToVersionRe.MatchString(core)
	return depSingularRe.MatchString(core) && action && versioned
}
