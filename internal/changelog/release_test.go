package changelog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const githubReleaseBody = `## What's Changed
* feat: add login by @alice in https://github.com/o/r/pull/12
* fix(parser): crash on null (#13)
* docs: update readme #14 by @bob
* plain subject without refs
Not a bullet line

## New Contributors
* @alice made their first contribution in https://github.com/o/r/pull/12

**Full Changelog**: https://github.com/o/r/compare/v1.0.0...v1.1.0
`

func TestParseReleaseNotes(t *testing.T) {
	t.Parallel()

	notes := ParseReleaseNotes(githubReleaseBody, Repo{Owner: "o", Name: "r"})

	require.Len(t, notes.Items, 4)
	assert.Equal(t, Item{
		Title: "add login", RawTitle: "feat: add login", Author: "alice",
		PR: 12, URL: "https://github.com/o/r/pull/12",
	}, notes.Items[0])
	assert.Equal(t, Item{
		Title: "crash on null", RawTitle: "fix(parser): crash on null",
		PR: 13, URL: "https://github.com/o/r/pull/13",
	}, notes.Items[1])
	assert.Equal(t, Item{
		Title: "update readme", RawTitle: "docs: update readme", Author: "bob",
		PR: 14, URL: "https://github.com/o/r/pull/14",
	}, notes.Items[2])
	assert.Equal(t, Item{Title: "plain subject without refs", RawTitle: "plain subject without refs"}, notes.Items[3])

	assert.Equal(t, []Section{{
		Heading: "New Contributors",
		Body:    "* @alice made their first contribution in https://github.com/o/r/pull/12",
	}}, notes.Sections)
	assert.Equal(t, "https://github.com/o/r/compare/v1.0.0...v1.1.0", notes.FullChangelog)
}

func TestParseReleaseNotes_EdgeCases(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		body          string
		repo          Repo
		wantItems     []Item
		wantFull      string
		wantNoSection bool
	}{
		"empty body": {
			body:          "   ",
			wantNoSection: true,
		},
		"range full changelog expands with repo": {
			body:      "## What's Changed\n- chore: tidy\n\n**Full Changelog**: v1.0.0...v1.1.0\n",
			repo:      Repo{Owner: "o", Name: "r"},
			wantItems: []Item{{Title: "tidy", RawTitle: "chore: tidy"}},
			wantFull:  "https://github.com/o/r/compare/v1.0.0...v1.1.0",
		},
		"range without repo is dropped": {
			body:      "## What's Changed\n- chore: tidy (#5)\n\n**Full Changelog**: v1.0.0...v1.1.0\n",
			wantItems: []Item{{Title: "tidy", RawTitle: "chore: tidy", PR: 5}},
		},
		"titles ending in -in keep their letters": {
			body: "## What's Changed\n* feat: add login by @alice in https://github.com/o/r/pull/7\n* fix: handle builtin\n",
			wantItems: []Item{
				{Title: "add login", RawTitle: "feat: add login", Author: "alice", PR: 7, URL: "https://github.com/o/r/pull/7"},
				{Title: "handle builtin", RawTitle: "fix: handle builtin"},
			},
		},
		"bare number in parentheses": {
			body:      "## What's Changed\n- perf: faster parse (42)\n",
			repo:      Repo{Owner: "o", Name: "r"},
			wantItems: []Item{{Title: "faster parse", RawTitle: "perf: faster parse", PR: 42, URL: "https://github.com/o/r/pull/42"}},
		},
		"prefix-only bullet is skipped": {
			body: "## What's Changed\n- feat: by @x\n",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			notes := ParseReleaseNotes(tt.body, tt.repo)
			assert.Equal(t, tt.wantItems, notes.Items)
			assert.Equal(t, tt.wantFull, notes.FullChangelog)
			if tt.wantNoSection {
				assert.Empty(t, notes.Sections)
			}
		})
	}
}

func TestBuildReleaseSection(t *testing.T) {
	t.Parallel()

	notes := ParseReleaseNotes(githubReleaseBody, Repo{Owner: "o", Name: "r"})
	categories := CategoryMap{
		Added: {"feat: add login"},
		Fixed: {"fix: crash on null"},
		Docs:  {"docs: update readme"},
		Chore: {"plain subject without refs"},
	}

	got := BuildReleaseSection("1.1.0", "2024-05-01", notes, categories)

	want := "## [v1.1.0] - 2024-05-01\n\n" +
		"### Added\n\n- add login by @alice in [#12](https://github.com/o/r/pull/12)\n\n" +
		"### Fixed\n\n- crash on null in [#13](https://github.com/o/r/pull/13)\n\n" +
		"### Docs\n\n- update readme by @bob in [#14](https://github.com/o/r/pull/14)\n\n" +
		"### Chore\n\n- plain subject without refs\n\n" +
		"### New Contributors\n\n* @alice made their first contribution in https://github.com/o/r/pull/12\n\n" +
		"**Full Changelog**: https://github.com/o/r/compare/v1.0.0...v1.1.0\n"
	assert.Equal(t, want, got)
}
