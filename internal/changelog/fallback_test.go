package changelog

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ariel-frischer/changelog-bot/internal/attribution"
)

func TestFallbackCategory(t *testing.T) {
	t.Parallel()

	tests := map[string]Category{
		"feat: add login":             Added,
		"feat(api)!: drop v1":         Breaking,
		"Fix: crash":                  Fixed,
		"perf: faster":                Changed,
		"style: gofmt":                Changed,
		"docs: readme":                Docs,
		"test: more cases":            Test,
		"ci: cache modules":           Chore,
		"build: bump go":              Chore,
		"revert: \"feat: add login\"": Reverted,
		"random subject":              Chore,
	}

	for subject, want := range tests {
		t.Run(subject, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, want, FallbackCategory(subject))
		})
	}
}

func TestFallbackSection(t *testing.T) {
	t.Parallel()

	commits := []attribution.Commit{
		{SHA: "a1", Subject: "feat: add login"},
		{SHA: "b2", Subject: "fix(parser): crash on null (#9)"},
		{SHA: "c3", Subject: "ci: cache modules"},
		{SHA: "d4", Subject: "feat!: drop node 16"},
		{SHA: "e5", Subject: "   "},
	}
	prs := map[string][]int{"a1": {5, 6}}

	got := FallbackSection("1.0.0", "2024-01-01", commits, func(sha string) []int { return prs[sha] })

	want := "## [v1.0.0] - 2024-01-01\n\n" +
		"### Breaking Changes\n\n- drop node 16\n\n" +
		"### Added\n\n- add login (#5)\n\n" +
		"### Fixed\n\n- crash on null (#9)\n\n" +
		"### Chore\n\n- cache modules\n"
	assert.Equal(t, want, got)
}

func TestFallbackSection_NoCommits(t *testing.T) {
	t.Parallel()

	got := FallbackSection("1.0.0", "2024-01-01", nil, nil)
	assert.Equal(t, "## [v1.0.0] - 2024-01-01\n\n### Changed\n\n- Summary of changes\n", got)
}
