package attribution

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInlineRefs(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		input string
		want  []int
	}{
		"single":           {input: "feat: add login (#12)", want: []int{12}},
		"multiple ordered": {input: "fix #9 and #3 then #9", want: []int{9, 3}},
		"none":             {input: "chore: tidy", want: nil},
		"zero skipped":     {input: "#0 bogus", want: nil},
		"bracketed":        {input: "docs: link [#44]", want: []int{44}},
		"empty":            {input: "", want: nil},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, InlineRefs(tt.input))
		})
	}
}

func TestParseMergeLog(t *testing.T) {
	t.Parallel()

	log := "abc1234 Add login\n" +
		"  continuation line of the same body\n" +
		"\n" +
		"def5678901 \n" +
		"nothex body\n"

	got := ParseMergeLog(log)
	require.Len(t, got, 2)
	assert.Equal(t, MergeRecord{SHA: "abc1234", Body: "Add login"}, got[0])
	assert.Equal(t, MergeRecord{SHA: "def5678901", Body: ""}, got[1])
}

func TestResolve_InlineAndExternal(t *testing.T) {
	t.Parallel()

	idx := Resolve(Input{
		Commits: []Commit{
			{SHA: "a1", Subject: "feat: add login (#12)"},
			{SHA: "b2", Subject: "fix: crash on null"},
			{SHA: "c3", Subject: "chore: tidy"},
		},
		External: map[string][]PullRef{
			"a1": {{Number: 12}, {Number: 15}},
			"b2": {{Number: 20, Title: "Fix crash on null input"}},
		},
	})

	assert.Equal(t, []int{12, 15}, idx.PRsFor("a1"))
	assert.Equal(t, []int{20}, idx.PRsFor("b2"))
	assert.Empty(t, idx.PRsFor("c3"))

	pr, ok := idx.PrimaryPR("a1")
	assert.True(t, ok)
	assert.Equal(t, 12, pr)

	_, ok = idx.PrimaryPR("c3")
	assert.False(t, ok, "unattributed commits stay unattributed")

	pr, ok = idx.PRForTitle("Add login")
	assert.True(t, ok)
	assert.Equal(t, 12, pr)

	pr, ok = idx.PRForTitle("fix: Crash on NULL input")
	assert.True(t, ok)
	assert.Equal(t, 20, pr)

	_, ok = idx.PRForTitle("tidy")
	assert.False(t, ok)
}

func TestResolve_MergePropagation(t *testing.T) {
	t.Parallel()

	expanded := map[string][]string{
		"m1": {"x1", "x2"},
		"m2": {"y1"},
	}
	idx := Resolve(Input{
		Commits: []Commit{
			{SHA: "m1", Subject: "Merge pull request #7 from org/feature"},
			{SHA: "m2", Subject: "Merge branch 'main'"},
			{SHA: "x1", Subject: "wip on feature (#3)"},
			{SHA: "x2", Subject: "finish feature"},
			{SHA: "y1", Subject: "unrelated"},
		},
		Merges: []MergeRecord{
			{SHA: "m1", Body: "Add dark mode"},
			{SHA: "m2", Body: "sync"},
		},
		Expand: func(sha string) ([]string, error) {
			return expanded[sha], nil
		},
	})

	assert.Equal(t, []int{7, 3}, idx.PRsFor("x1"), "propagation keeps existing numbers")
	assert.Equal(t, []int{7}, idx.PRsFor("x2"))
	assert.Empty(t, idx.PRsFor("y1"), "merges without a PR do not propagate")

	pr, ok := idx.PRForTitle("Add dark mode")
	assert.True(t, ok)
	assert.Equal(t, 7, pr)

	pr, ok = idx.PRForTitle("finish feature")
	assert.True(t, ok)
	assert.Equal(t, 7, pr)
}

func TestResolve_ExpandErrorSkipsMerge(t *testing.T) {
	t.Parallel()

	idx := Resolve(Input{
		Commits: []Commit{{SHA: "m1", Subject: "Merge pull request #7"}},
		Merges:  []MergeRecord{{SHA: "m1", Body: "x"}},
		Expand: func(string) ([]string, error) {
			return nil, errors.New("boom")
		},
	})

	assert.Equal(t, []string{"m1"}, idx.Commits())
}

func TestResolve_TitleFirstWriterWins(t *testing.T) {
	t.Parallel()

	idx := Resolve(Input{
		Commits: []Commit{
			{SHA: "a", Subject: "feat: Add login (#1)"},
			{SHA: "b", Subject: "fix: add login (#2)"},
		},
	})

	pr, ok := idx.PRForTitle("add login")
	require.True(t, ok)
	assert.Equal(t, 1, pr)
}

// Every number in the index must come from an inline ref, an external
// association or a propagating merge for that exact SHA.
func TestResolve_Soundness(t *testing.T) {
	t.Parallel()

	in := Input{
		Commits: []Commit{
			{SHA: "m", Subject: "Merge pull request #50"},
			{SHA: "a", Subject: "feat: a (#10)"},
			{SHA: "b", Subject: "fix: b"},
			{SHA: "c", Subject: "docs: c"},
		},
		Merges:   []MergeRecord{{SHA: "m", Body: "Feature bundle"}},
		External: map[string][]PullRef{"b": {{Number: 11}}},
		Expand: func(sha string) ([]string, error) {
			if sha == "m" {
				return []string{"a"}, nil
			}
			return nil, nil
		},
	}
	idx := Resolve(in)

	allowed := map[string]map[int]bool{
		"m": {50: true},
		"a": {10: true, 50: true},
		"b": {11: true},
	}
	for _, sha := range idx.Commits() {
		for _, n := range idx.PRsFor(sha) {
			assert.True(t, allowed[sha][n], "sha %s has untraceable PR #%d", sha, n)
		}
	}
	assert.Empty(t, idx.PRsFor("c"))
}

func TestIndex_ReturnsCopies(t *testing.T) {
	t.Parallel()

	idx := Resolve(Input{Commits: []Commit{{SHA: "a", Subject: "x (#1)"}}})
	got := idx.PRsFor("a")
	got[0] = 99
	assert.Equal(t, []int{1}, idx.PRsFor("a"))

	titles := idx.Titles()
	titles["x"] = 42
	pr, _ := idx.PRForTitle("x")
	assert.Equal(t, 1, pr)
}
