package classify

import (
	"strings"

	"github.com/ariel-frischer/changelog-bot/internal/changelog"
	"github.com/ariel-frischer/changelog-bot/internal/title"
)

// TitlesForClassification rewrites item titles into the form an external
// classifier sees. Only the conventional prefix changes, so the rendered
// title is unaffected once the prefix is stripped again:
//   - implicit type fixes become "fix: ..."
//   - refactor/perf/style and improvement phrasing become "refactor: ..."
//     unless they already carry one of those prefixes
//   - otherwise a confident score picks fix:, refactor: or feat:
//
// Items with an empty title are skipped.
func TitlesForClassification(items []changelog.Item, s *Scorer) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		base := strings.TrimSpace(item.ClassificationTitle())
		if base == "" {
			continue
		}
		core := title.StripConventionalPrefix(base)

		switch {
		case IsImplicitFix(base) && !title.HasPrefix(base, "fix"):
			out = append(out, "fix: "+core)
		case IsRefactorLike(base):
			out = append(out, base)
		case IsChangeLike(base):
			out = append(out, "refactor: "+core)
		default:
			out = append(out, guided(base, core, s))
		}
	}
	return out
}

func guided(base, core string, s *Scorer) string {
	c, _, ok := s.Classify(base)
	if !ok {
		return base
	}
	switch {
	case c == changelog.Fixed && !title.HasPrefix(base, "fix"):
		return "fix: " + core
	case c == changelog.Changed && !IsRefactorLike(base):
		return "refactor: " + core
	case c == changelog.Added && !title.HasPrefix(base, "feat"):
		return "feat: " + core
	}
	return base
}
