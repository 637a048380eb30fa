// Package tune corrects systematic misplacements in a category map produced
// by a classifier.
//
// Tune runs five ordered passes. Every move removes the title from all
// buckets before appending it to the target, so a title is never listed
// twice no matter how many passes touch it.
package tune

import (
	"slices"

	"github.com/ariel-frischer/changelog-bot/internal/changelog"
	"github.com/ariel-frischer/changelog-bot/internal/classify"
	"github.com/ariel-frischer/changelog-bot/internal/title"
)

var weakBuckets = []changelog.Category{changelog.Chore, changelog.Docs, changelog.Test}

// Tune returns an adjusted copy of categories. The input map is not modified.
// A title listed in several buckets is first reduced to the earliest one in
// changelog.Order.
//
// Titles considered are the raw and display titles of items, then every title
// already present in categories:
//  1. implicit type fixes move to Fixed
//  2. fix: prefixed titles move to Fixed
//  3. refactor/perf/style or improvement titles move to Changed when they
//     (or a listed title with the same normalized key) sit in Chore, Added
//     or nowhere
//  4. feat: prefixed titles move to Added
//  5. titles left in Chore, Docs or Test move to a category the scorer is
//     confident about, when that category's threshold is met; dependency
//     updates are never promoted into Breaking Changes
func Tune(items []changelog.Item, categories changelog.CategoryMap, s *classify.Scorer) changelog.CategoryMap {
	if len(items) == 0 {
		return dedupe(categories)
	}

	known := knownTitles(items, categories)

	adjusted := dedupe(categories)
	for _, c := range []changelog.Category{changelog.Fixed, changelog.Changed, changelog.Added} {
		if adjusted[c] == nil {
			adjusted[c] = []string{}
		}
	}

	moveAll(adjusted, known, changelog.Fixed, classify.IsImplicitFix)
	moveAll(adjusted, known, changelog.Fixed, func(t string) bool { return title.HasPrefix(t, "fix") })

	var toChanged []string
	for _, t := range known {
		if !classify.IsRefactorLike(t) && !classify.IsChangeLike(t) {
			continue
		}
		current, ok := placement(adjusted, t)
		if ok && current != changelog.Chore && current != changelog.Added {
			continue
		}
		toChanged = append(toChanged, t)
	}
	for _, t := range toChanged {
		adjusted.Move(t, changelog.Changed)
	}

	moveAll(adjusted, known, changelog.Added, func(t string) bool { return title.HasPrefix(t, "feat") })

	for _, t := range known {
		current, ok := adjusted.CategoryOf(t)
		if !ok || !slices.Contains(weakBuckets, current) {
			continue
		}
		target, ok := s.Promotion(t)
		if !ok || target == current {
			continue
		}
		if target == changelog.Breaking && classify.IsDependencyUpdate(t) {
			continue
		}
		adjusted.Move(t, target)
	}

	return adjusted
}

// dedupe copies m keeping each title only in the first bucket that lists it.
func dedupe(m changelog.CategoryMap) changelog.CategoryMap {
	out := make(changelog.CategoryMap, len(m))
	seen := map[string]bool{}
	for _, c := range m.Keys() {
		titles := []string{}
		for _, t := range m[c] {
			if !seen[t] {
				seen[t] = true
				titles = append(titles, t)
			}
		}
		out[c] = titles
	}
	return out
}

// placement finds where t sits. A title not listed itself takes the bucket of
// the first listed title with the same normalized key, so a display title
// follows its prefixed sibling.
func placement(m changelog.CategoryMap, t string) (changelog.Category, bool) {
	if c, ok := m.CategoryOf(t); ok {
		return c, true
	}
	key := title.Normalize(t)
	if key == "" {
		return "", false
	}
	for _, c := range m.Keys() {
		for _, listed := range m[c] {
			if title.Normalize(listed) == key {
				return c, true
			}
		}
	}
	return "", false
}

func moveAll(m changelog.CategoryMap, titles []string, to changelog.Category, match func(string) bool) {
	for _, t := range titles {
		if match(t) {
			m.Move(t, to)
		}
	}
}

// knownTitles lists candidate titles in a stable order.
func knownTitles(items []changelog.Item, categories changelog.CategoryMap) []string {
	var out []string
	seen := map[string]bool{}
	push := func(t string) {
		if t != "" && !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	for _, item := range items {
		push(item.RawTitle)
		push(item.Title)
	}
	for _, t := range categories.Titles() {
		push(t)
	}
	return out
}
