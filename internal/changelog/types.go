package changelog

import (
	"slices"
	"strings"
)

// Category is one changelog section name from the fixed vocabulary.
type Category string

// Categories in rendering order.
const (
	Breaking Category = "Breaking Changes"
	Added    Category = "Added"
	Fixed    Category = "Fixed"
	Changed  Category = "Changed"
	Docs     Category = "Docs"
	Test     Category = "Test"
	Chore    Category = "Chore"
	Reverted Category = "Reverted"
)

// Order is the fixed category order used for rendering and tie-breaking.
var Order = []Category{Breaking, Added, Fixed, Changed, Docs, Test, Chore, Reverted}

// categoryAliases maps lowercase H3 headings and classifier keys onto the vocabulary.
var categoryAliases = map[string]Category{
	"add":              Added,
	"added":            Added,
	"feat":             Added,
	"features":         Added,
	"init":             Chore,
	"refactor":         Changed,
	"change":           Changed,
	"changed":          Changed,
	"fix":              Fixed,
	"fixed":            Fixed,
	"docs":             Docs,
	"build":            Chore,
	"ci":               Chore,
	"test":             Test,
	"chore":            Chore,
	"revert":           Reverted,
	"reverted":         Reverted,
	"breaking":         Breaking,
	"breaking changes": Breaking,
	"breaking change":  Breaking,
}

// NormalizeCategory maps a heading or classifier key onto the vocabulary.
// Exact vocabulary names match case-insensitively; unknown names return false.
func NormalizeCategory(name string) (Category, bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	for _, c := range Order {
		if strings.ToLower(string(c)) == key {
			return c, true
		}
	}
	c, ok := categoryAliases[key]
	return c, ok
}

// Item is one changelog bullet. PR 0 means unattributed.
type Item struct {
	Title    string
	RawTitle string
	Author   string
	PR       int
	URL      string
}

// ClassificationTitle returns the raw title when present, else the display title.
func (i Item) ClassificationTitle() string {
	if i.RawTitle != "" {
		return i.RawTitle
	}
	return i.Title
}

// CategoryMap assigns titles to categories. A title belongs to at most one
// category once it has passed through Move.
type CategoryMap map[Category][]string

// Clone returns a deep copy.
func (m CategoryMap) Clone() CategoryMap {
	out := make(CategoryMap, len(m))
	for c, titles := range m {
		out[c] = slices.Clone(titles)
	}
	return out
}

// Remove deletes t from every category.
func (m CategoryMap) Remove(t string) {
	for c, titles := range m {
		if slices.Contains(titles, t) {
			m[c] = slices.DeleteFunc(slices.Clone(titles), func(s string) bool { return s == t })
		}
	}
}

// Move removes t from every category, then appends it to c.
func (m CategoryMap) Move(t string, c Category) {
	m.Remove(t)
	m[c] = append(m[c], t)
}

// CategoryOf returns the first category, in Order, that lists t. Categories
// outside the vocabulary are checked last in name order.
func (m CategoryMap) CategoryOf(t string) (Category, bool) {
	for _, c := range m.Keys() {
		if slices.Contains(m[c], t) {
			return c, true
		}
	}
	return "", false
}

// Keys returns the categories present in m: vocabulary ones in Order, then
// any others sorted by name.
func (m CategoryMap) Keys() []Category {
	keys := make([]Category, 0, len(m))
	for _, c := range Order {
		if _, ok := m[c]; ok {
			keys = append(keys, c)
		}
	}
	var extra []Category
	for c := range m {
		if !slices.Contains(Order, c) {
			extra = append(extra, c)
		}
	}
	slices.Sort(extra)
	return append(keys, extra...)
}

// Titles returns every title in m, in key order, without duplicates.
func (m CategoryMap) Titles() []string {
	var out []string
	for _, c := range m.Keys() {
		for _, t := range m[c] {
			if !slices.Contains(out, t) {
				out = append(out, t)
			}
		}
	}
	return out
}

// Section is a passthrough block kept verbatim from release notes.
type Section struct {
	Heading string
	Body    string
}
