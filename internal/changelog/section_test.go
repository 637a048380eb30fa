package changelog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVersionHeading(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "## [v1.2.0] - 2024-03-01", VersionHeading("1.2.0", "2024-03-01"))
	assert.Equal(t, "## [v1.2.0] - 2024-03-01", VersionHeading("v1.2.0", "2024-03-01"))
	assert.Equal(t, "## [v1.2.0]", VersionHeading("1.2.0", ""))
}

func TestFormatBullet(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		item Item
		want string
	}{
		"title only":    {item: Item{Title: "add login"}, want: "- add login"},
		"author":        {item: Item{Title: "add login", Author: "alice"}, want: "- add login by @alice"},
		"pr needs url":  {item: Item{Title: "add login", PR: 3}, want: "- add login"},
		"full metadata": {item: Item{Title: "add login", Author: "alice", PR: 3, URL: "https://github.com/o/r/pull/3"}, want: "- add login by @alice in [#3](https://github.com/o/r/pull/3)"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, FormatBullet(tt.item))
		})
	}
}

func TestComposeSection(t *testing.T) {
	t.Parallel()

	items := []Item{
		{Title: "add login", RawTitle: "feat: add login", Author: "alice", PR: 3, URL: "https://github.com/o/r/pull/3"},
		{Title: "crash on null", RawTitle: "fix: crash on null", PR: 4, URL: "https://github.com/o/r/pull/4"},
		{Title: "update readme", RawTitle: "docs: update readme"},
	}
	categories := CategoryMap{
		Chore: {"docs: update readme"},
		// Listed twice: rendered only in the first category in order.
		Fixed: {"fix: crash on null", "unknown title"},
		Added: {"FEAT: ADD LOGIN", "crash on null"},
		Docs:  {"update readme"},
	}

	got := ComposeSection(SectionOptions{
		Version:       "1.0.0",
		Date:          "2024-01-01",
		Items:         items,
		Categories:    categories,
		Passthrough:   []Section{{Heading: "New Contributors", Body: "\n* @alice made their first contribution\n"}},
		FullChangelog: "https://github.com/o/r/compare/v0.9.0...v1.0.0",
	})

	want := "## [v1.0.0] - 2024-01-01\n" +
		"\n" +
		"### Added\n" +
		"\n" +
		"- add login by @alice in [#3](https://github.com/o/r/pull/3)\n" +
		"- crash on null in [#4](https://github.com/o/r/pull/4)\n" +
		"\n" +
		"### Docs\n" +
		"\n" +
		"- update readme\n" +
		"\n" +
		"### New Contributors\n" +
		"\n" +
		"* @alice made their first contribution\n" +
		"\n" +
		"**Full Changelog**: https://github.com/o/r/compare/v0.9.0...v1.0.0\n"
	assert.Equal(t, want, got)
}

func TestItemLookup(t *testing.T) {
	t.Parallel()

	items := []Item{
		{Title: "support dark mode in settings", RawTitle: "feat(ui): support dark mode in settings", PR: 1},
		{Title: "x", PR: 2},
	}
	l := newItemLookup(items)

	tests := map[string]struct {
		lookup string
		wantPR int
		found  bool
	}{
		"exact raw":            {lookup: "feat(ui): support dark mode in settings", wantPR: 1, found: true},
		"lowercase":            {lookup: "support dark mode in settings", wantPR: 1, found: true},
		"rewritten prefix":     {lookup: "refactor: support dark mode in settings", wantPR: 1, found: true},
		"normalized":           {lookup: "Support dark-mode in settings!", wantPR: 1, found: true},
		"long enough prefix":   {lookup: "support dark mode", wantPR: 1, found: true},
		"too short a prefix":   {lookup: "support", found: false},
		"unrelated":            {lookup: "remove legacy api", found: false},
		"empty":                {lookup: "", found: false},
		"single letter titles": {lookup: "x", wantPR: 2, found: true},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			item, ok := l.find(tt.lookup)
			assert.Equal(t, tt.found, ok)
			if tt.found {
				assert.Equal(t, tt.wantPR, item.PR)
			}
		})
	}
}
