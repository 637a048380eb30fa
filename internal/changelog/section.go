package changelog

import (
	"fmt"
	"strings"

	"github.com/ariel-frischer/changelog-bot/internal/title"
)

// SectionOptions describes one version section.
type SectionOptions struct {
	Version string
	Date    string
	// Items are the entries that category titles resolve against.
	Items []Item
	// Categories lists titles per category. Titles may be raw, display or
	// rewritten forms of an item's title.
	Categories CategoryMap
	// Passthrough blocks are rendered after the categories, verbatim.
	Passthrough []Section
	// FullChangelog, when set, adds a "**Full Changelog**: <url>" line.
	FullChangelog string
}

// VersionHeading renders "## [v<version>] - <date>", or without the date
// part when date is empty. A leading "v" on version is not doubled.
func VersionHeading(version, date string) string {
	h := fmt.Sprintf("## [v%s]", strings.TrimPrefix(strings.TrimSpace(version), "v"))
	if date != "" {
		h += " - " + date
	}
	return h
}

// ComposeSection renders a version section: one H3 per populated category in
// Order, then passthrough blocks, then the Full Changelog line. Each item is
// rendered at most once, in the first category that resolves to it.
func ComposeSection(opts SectionOptions) string {
	lookup := newItemLookup(opts.Items)
	lines := []string{VersionHeading(opts.Version, opts.Date), ""}

	seen := map[string]bool{}
	for _, c := range Order {
		var entries []Item
		for _, t := range opts.Categories[c] {
			item, ok := lookup.find(t)
			if !ok {
				continue
			}
			key := item.identity()
			if seen[key] {
				continue
			}
			seen[key] = true
			entries = append(entries, item)
		}
		if len(entries) == 0 {
			continue
		}
		lines = append(lines, "### "+string(c), "")
		for _, item := range entries {
			lines = append(lines, FormatBullet(item))
		}
		lines = append(lines, "")
	}

	for _, s := range opts.Passthrough {
		lines = append(lines, "### "+s.Heading, "", strings.TrimSpace(s.Body), "")
	}

	if opts.FullChangelog != "" {
		lines = append(lines, "**Full Changelog**: "+opts.FullChangelog, "")
	}

	return strings.Join(lines, "\n")
}

// FormatBullet renders "- <title>[ by @<author>][ in [#<pr>](<url>)]".
// The PR link needs both a number and a URL.
func FormatBullet(item Item) string {
	var b strings.Builder
	b.WriteString("- ")
	b.WriteString(item.Title)
	if item.Author != "" {
		b.WriteString(" by @")
		b.WriteString(item.Author)
	}
	if item.PR > 0 && item.URL != "" {
		fmt.Fprintf(&b, " in [#%d](%s)", item.PR, item.URL)
	}
	return b.String()
}

func (i Item) identity() string {
	if i.PR > 0 {
		return fmt.Sprintf("pr-%d", i.PR)
	}
	return "title-" + i.Title + "-" + i.RawTitle
}

// itemLookup resolves classifier titles back to items.
type itemLookup struct {
	exact      map[string]Item
	normalized map[string]Item
	// normKeys keeps first-insertion order for the fuzzy scan.
	normKeys []string
}

func newItemLookup(items []Item) *itemLookup {
	l := &itemLookup{
		exact:      map[string]Item{},
		normalized: map[string]Item{},
	}
	for _, item := range items {
		keys := []string{item.Title}
		if item.RawTitle != "" && item.RawTitle != item.Title {
			keys = append(keys, item.RawTitle)
		}
		for _, k := range keys {
			if k == "" {
				continue
			}
			l.exact[k] = item
			l.exact[strings.ToLower(k)] = item
			norm := title.Normalize(k)
			if _, ok := l.normalized[norm]; !ok {
				l.normKeys = append(l.normKeys, norm)
			}
			l.normalized[norm] = item
		}
	}
	return l
}

// find tries exact, lowercase, prefix-stripped and normalized keys, then a
// prefix match in either direction where the shorter key is at least half
// as long as the longer one.
func (l *itemLookup) find(t string) (Item, bool) {
	if t == "" {
		return Item{}, false
	}
	stripped := title.StripConventionalPrefix(t)
	for _, k := range []string{t, strings.ToLower(t), stripped, strings.ToLower(stripped)} {
		if item, ok := l.exact[k]; ok {
			return item, true
		}
	}

	norm := title.Normalize(t)
	if item, ok := l.normalized[norm]; ok {
		return item, true
	}
	for _, k := range l.normKeys {
		shorter, longer := len(k), len(norm)
		if shorter > longer {
			shorter, longer = longer, shorter
		}
		if longer == 0 || float64(shorter)/float64(longer) < 0.5 {
			continue
		}
		if strings.HasPrefix(k, norm) || strings.HasPrefix(norm, k) {
			return l.normalized[k], true
		}
	}
	return Item{}, false
}
