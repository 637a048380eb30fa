package changelog

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func countVersionHeadings(doc, version string) int {
	re := regexp.MustCompile(`(?m)^##\s*\[v` + regexp.QuoteMeta(version) + `\]`)
	return len(re.FindAllString(doc, -1))
}

func TestInsertSection(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		doc     string
		anchor  string
		section string
		want    string
	}{
		"non-heading anchor falls back to Unreleased": {
			doc:     "# Changelog\n\n## [Unreleased]\n",
			anchor:  "# Changelog",
			section: "## [v0.1.0]\n- foo",
			want:    "# Changelog\n\n## [Unreleased]\n\n## [v0.1.0]\n- foo\n\n",
		},
		"anchor with trailing spaces": {
			doc:     "## [Unreleased]  \n\n## [v0.9.0]\n- old\n",
			anchor:  UnreleasedAnchor,
			section: "\n## [v1.0.0]\n- new\n\n",
			want:    "## [Unreleased]  \n\n## [v1.0.0]\n- new\n\n## [v0.9.0]\n- old\n",
		},
		"missing anchor goes above the first H2 and keeps the header": {
			doc:     "# Changelog\n\nIntro\n\n## [v1.0.0] - 2024-01-01\n- a\n",
			anchor:  UnreleasedAnchor,
			section: "## [v1.1.0]\n- b",
			want:    "# Changelog\n\nIntro\n\n## [v1.1.0]\n- b\n\n## [v1.0.0] - 2024-01-01\n- a\n",
		},
		"no H2 at all appends after the text": {
			doc:     "# Changelog\n",
			anchor:  UnreleasedAnchor,
			section: "## [v1.0.0]\n- a",
			want:    "# Changelog\n\n## [v1.0.0]\n- a\n",
		},
		"empty document": {
			doc:     "",
			anchor:  UnreleasedAnchor,
			section: "## [v1.0.0]\n- a",
			want:    "## [v1.0.0]\n- a\n\n",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, InsertSection(tt.doc, tt.anchor, tt.section))
		})
	}
}

func TestReplaceSection(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		doc     string
		version string
		section string
		want    string
	}{
		"replaces up to the next version heading": {
			doc:     "# Changelog\n\n## [v1.0.0] - 2024-01-01\n\n- old\n\n## [v0.9.0]\n- keep this\n",
			version: "1.0.0",
			section: "## [v1.0.0] - 2024-02-02\n\n- new\n",
			want:    "# Changelog\n\n## [v1.0.0] - 2024-02-02\n\n- new\n\n## [v0.9.0]\n- keep this\n",
		},
		"last section runs to the end": {
			doc:     "# C\n\n## [v1.0.0]\n- old\n",
			version: "v1.0.0",
			section: "## [v1.0.0]\n- new",
			want:    "# C\n\n## [v1.0.0]\n- new\n",
		},
		"link definitions end the span": {
			doc:     "# C\n\n## [v1.0.0]\n- old\n\n[v1.0.0]: https://x/compare/a...b\n",
			version: "1.0.0",
			section: "## [v1.0.0]\n- new",
			want:    "# C\n\n## [v1.0.0]\n- new\n\n[v1.0.0]: https://x/compare/a...b\n",
		},
		"unknown version is a no-op": {
			doc:     "# C\n\n## [v0.9.0]\n- keep\n",
			version: "1.0.0",
			section: "## [v1.0.0]\n- new",
			want:    "# C\n\n## [v0.9.0]\n- keep\n",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ReplaceSection(tt.doc, tt.version, tt.section))
		})
	}
}

func TestRemoveAllSections(t *testing.T) {
	t.Parallel()

	doc := "# Changelog\n\n## [v1.0.0]\n- a\n\n## [v0.9.0]\n- b\n\n## [v1.0.0]\n- dup\n"
	got := RemoveAllSections(doc, "1.0.0")

	assert.Equal(t, "# Changelog\n\n## [v0.9.0]\n- b\n", got)
	assert.Zero(t, countVersionHeadings(got, "1.0.0"))
}

func TestRemoveAllSections_KeepsOtherVersions(t *testing.T) {
	t.Parallel()

	doc := "## [v2.0.0]\n- dup\n\n## [v1.0.0]\n- stays\n\n## [v2.0.0]\n- dup again\n"
	got := RemoveAllSections(doc, "2.0.0")

	assert.Equal(t, "## [v1.0.0]\n- stays\n", got)
}

func TestHasDuplicateVersion(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		doc  string
		want bool
	}{
		"two headings":                {doc: "## [v2.0.0]\n- a\n\n## [v2.0.0]\n- a\n", want: true},
		"heading plus compare link":   {doc: "## [v2.0.0]\n- a\n\n[v2.0.0]: https://x\n", want: false},
		"single heading":              {doc: "## [v2.0.0] - 2024-01-01\n", want: false},
		"similar version is distinct": {doc: "## [v2.0.0]\n## [v2.0.01]\n", want: false},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, HasDuplicateVersion(tt.doc, "2.0.0"))
		})
	}
}

func TestMerge_InsertsBeforeOlderVersion(t *testing.T) {
	t.Parallel()

	current := "# Changelog\n\n## [Unreleased]\n\n## [v0.9.0]\n- old\n"
	out := Merge(current, MergeOptions{Version: "1.0.0", Section: "## [v1.0.0]\n- new"})

	assert.Equal(t, "# Changelog\n\n## [Unreleased]\n\n## [v1.0.0]\n- new\n\n## [v0.9.0]\n- old\n", out)
	assert.Less(t, strings.Index(out, "## [v1.0.0]"), strings.Index(out, "## [v0.9.0]"))
}

func TestMerge_ReplacesExistingVersion(t *testing.T) {
	t.Parallel()

	current := "# Changelog\n\n## [Unreleased]\n\n## [v1.0.0]\n- old\n"
	out := Merge(current, MergeOptions{Version: "1.0.0", Section: "## [v1.0.0]\n- new"})

	assert.Contains(t, out, "## [v1.0.0]\n- new")
	assert.NotContains(t, out, "- old")
}

func TestMerge_DuplicateSectionsCollapse(t *testing.T) {
	t.Parallel()

	dup := "## [v2.0.0]\n- a"
	current := strings.Join([]string{"# Changelog", "", "## [Unreleased]", "", dup, "", dup, ""}, "\n")

	out := Merge(current, MergeOptions{Version: "2.0.0", Section: "## [v2.0.0]\n- only once"})

	assert.Equal(t, 1, countVersionHeadings(out, "2.0.0"))
	assert.Equal(t, "# Changelog\n\n## [Unreleased]\n\n## [v2.0.0]\n- only once\n", out)
}

func TestMerge_CompareLinks(t *testing.T) {
	t.Parallel()

	current := "# Changelog\n\n## [Unreleased]\n\n## [v1.0.0]\n- x\n\n[Unreleased]: https://example.com/old\n"
	compare := "[v1.1.0]: https://example.com/compare/v1.0.0...v1.1.0"
	unreleased := "[Unreleased]: https://example.com/compare/v1.1.0...HEAD"
	opts := MergeOptions{
		Version:        "1.1.0",
		Section:        "## [v1.1.0]\n- y",
		CompareLine:    compare,
		UnreleasedLine: unreleased,
	}

	out := Merge(current, opts)

	assert.Equal(t,
		"# Changelog\n\n## [Unreleased]\n\n## [v1.1.0]\n- y\n\n## [v1.0.0]\n- x\n\n"+unreleased+"\n"+compare+"\n",
		out)

	opts.Section = "## [v1.1.0]\n- y (updated)"
	again := Merge(out, opts)

	compareRe := regexp.MustCompile(`(?m)^\[v1\.1\.0\]: .+$`)
	assert.Len(t, compareRe.FindAllString(again, -1), 1)
	assert.Contains(t, again, "- y (updated)")
	assert.NotContains(t, again, "https://example.com/old")
}

func TestMerge_CompareLineInsideSectionMovesToBottom(t *testing.T) {
	t.Parallel()

	section := "## [v1.0.0]\n\n- a\n\n[v1.0.0]: https://x/compare/v0.9.0...v1.0.0\n"
	out := Merge("## [Unreleased]\n\n## [v0.9.0]\n- old\n", MergeOptions{
		Version:     "1.0.0",
		Section:     section,
		CompareLine: "[v1.0.0]: https://x/compare/v0.9.0...v1.0.0",
	})

	assert.Equal(t,
		"## [Unreleased]\n\n## [v1.0.0]\n\n- a\n\n## [v0.9.0]\n- old\n\n[v1.0.0]: https://x/compare/v0.9.0...v1.0.0\n",
		out)
}

func TestMerge_SeedsBlankDocument(t *testing.T) {
	t.Parallel()

	out := Merge("  \n", MergeOptions{Version: "0.1.0", Section: "## [v0.1.0] - 2024-01-01\n\n### Added\n\n- first\n"})

	assert.True(t, strings.HasPrefix(out, "# Changelog\n"))
	assert.Contains(t, out, "## [Unreleased]\n\n## [v0.1.0] - 2024-01-01\n\n### Added\n\n- first\n")
	assert.True(t, strings.HasSuffix(out, "- first\n"))
}

func TestMerge_Idempotent(t *testing.T) {
	t.Parallel()

	docs := map[string]string{
		"blank":          "",
		"header only":    Header(),
		"with history":   "# Changelog\n\n## [Unreleased]\n\n## [v0.9.0] - 2023-12-01\n\n### Fixed\n\n- crash\n\n[v0.9.0]: https://github.com/o/r/compare/v0.8.0...v0.9.0\n",
		"already merged": "# Changelog\n\n## [Unreleased]\n\n## [v1.0.0] - 2024-01-01\n\n- stale\n",
		"duplicated":     "## [Unreleased]\n\n## [v1.0.0]\n- a\n\n## [v1.0.0]\n- b\n",
		"no anchor":      "# Changelog\n\n## [v0.9.0]\n- old\n",
		"free text":      "Some notes without headings.\n",
		"crlf endings":   "# Changelog\r\n\r\n## [Unreleased]\r\n\r\n## [v0.9.0]\r\n\r\n- old\r\n",
	}
	section := ComposeSection(SectionOptions{
		Version:    "1.0.0",
		Date:       "2024-01-01",
		Items:      []Item{{Title: "add login", PR: 3, URL: "https://github.com/o/r/pull/3"}},
		Categories: CategoryMap{Added: {"add login"}},
	})

	for name, doc := range docs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			opts := MergeOptions{
				Version:        "1.0.0",
				Section:        section,
				CompareLine:    "[v1.0.0]: https://github.com/o/r/compare/v0.9.0...v1.0.0",
				UnreleasedLine: "[Unreleased]: https://github.com/o/r/compare/v1.0.0...HEAD",
			}
			once := Merge(doc, opts)
			twice := Merge(once, opts)

			assert.Equal(t, once, twice)
			assert.Equal(t, 1, countVersionHeadings(once, "1.0.0"))
			assert.True(t, strings.HasSuffix(once, "\n"))
			assert.False(t, strings.HasSuffix(once, "\n\n"))
			assert.NotContains(t, once, "\r")
		})
	}
}

func TestMerge_CRLF(t *testing.T) {
	t.Parallel()

	doc := "# Changelog\r\n\r\n## [Unreleased]\r\n\r\n## [v1.0.0]\r\n\r\n- old\r\n"
	got := Merge(doc, MergeOptions{Version: "2.0.0", Section: "## [v2.0.0]\r\n\r\n- thing\r\n"})

	assert.Equal(t, "# Changelog\n\n## [Unreleased]\n\n## [v2.0.0]\n\n- thing\n\n## [v1.0.0]\n\n- old\n", got)
	assert.Equal(t, got, Merge(got, MergeOptions{Version: "2.0.0", Section: "## [v2.0.0]\n\n- thing\n"}))
}

func TestNormalizeNewlines(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"a\nb":       "a\nb",
		"a\r\nb\r\n": "a\nb\n",
		"a\rb":       "a\nb",
		"":           "",
	}

	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, want, NormalizeNewlines(in))
		})
	}
}
