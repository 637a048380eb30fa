package classify

import (
	"strings"

	"github.com/ariel-frischer/changelog-bot/internal/title"
)

var (
	typeIndicators = []string{
		"type", "types", "typing", "type definition", "type definitions",
		"typedef", "d.ts", "ts type", "option type",
	}
	fixIndicators = []string{
		"fix", "correct", "tighten", "narrow", "wrong", "invalid",
		"incorrect", "mismatch", "bug", "error",
	}
	changeIndicators = []string{
		"improve", "improvement", "enhance", "enhancement", "optimize",
		"optimization", "refine", "refinement", "streamline", "simplify",
		"polish", "rework", "revise", "revamp", "stabilize", "hardening",
		"harden", "tweak", "adjust", "tune", "tuning", "retune",
		"fine-tune", "fine tune", "finetune",
	}
)

// IsImplicitFix reports whether a title reads as a typing or contract
// correction without saying "fix:", e.g. "refactor: tighten option type".
// Matching is by substring on the lowercased, prefix-stripped title.
func IsImplicitFix(raw string) bool {
	core := title.Core(raw)
	if core == "" {
		return false
	}
	return containsAny(core, typeIndicators) && containsAny(core, fixIndicators)
}

// IsChangeLike reports whether a title describes an improvement to existing
// behavior rather than a new feature.
func IsChangeLike(raw string) bool {
	core := title.Core(raw)
	return core != "" && containsAny(core, changeIndicators)
}

// IsRefactorLike reports a refactor, perf or style prefix.
func IsRefactorLike(raw string) bool {
	return title.HasPrefix(raw, "refactor", "perf", "style")
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
