// Package attribution links commits and titles to the pull requests that
// introduced them.
//
// An Index is built once per run by Resolve and is read-only afterwards. Every
// PR number it holds comes from an inline "#N" reference, an externally
// supplied commit association, or propagation from a merge commit that itself
// carries a PR number. Nothing is guessed.
package attribution

import (
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/ariel-frischer/changelog-bot/internal/title"
)

// Commit is one entry of a range query.
type Commit struct {
	SHA     string
	Subject string
}

// PullRef is a pull request associated with a commit by the hosting platform.
type PullRef struct {
	Number int
	Title  string
}

// MergeRecord is one merge commit in the range: its SHA and the first line
// of its body (usually the merged PR's title).
type MergeRecord struct {
	SHA  string
	Body string
}

// ExpandFunc lists the commits a merge commit brought in (first parent
// excluded, second parent included). A failing expansion is skipped.
type ExpandFunc func(mergeSHA string) ([]string, error)

// Input carries everything Resolve reads. Only Commits is required.
type Input struct {
	Commits []Commit
	Merges  []MergeRecord
	// External maps commit SHA to the PRs the hosting platform associates with it.
	External map[string][]PullRef
	// Expand enumerates merged commits for propagation. Nil disables propagation.
	Expand ExpandFunc
}

var (
	inlineRefRe = regexp.MustCompile(`#(\d+)`)
	mergeLineRe = regexp.MustCompile(`^[0-9a-fA-F]{7,40}$`)
)

// InlineRefs returns the PR numbers referenced as "#N" in text, deduplicated,
// in order of first appearance.
func InlineRefs(text string) []int {
	var refs []int
	for _, m := range inlineRefRe.FindAllStringSubmatch(text, -1) {
		n, err := strconv.Atoi(m[1])
		if err != nil || n <= 0 {
			continue
		}
		if !slices.Contains(refs, n) {
			refs = append(refs, n)
		}
	}
	return refs
}

// ParseMergeLog reads "<sha> <body>" lines as produced by
// `git log --merges --pretty=format:'%H %b'`. Lines that do not start with a
// commit hash are continuation lines of a multi-line body and are ignored.
func ParseMergeLog(log string) []MergeRecord {
	var records []MergeRecord
	for _, line := range strings.Split(log, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		sha, body, _ := strings.Cut(line, " ")
		if !mergeLineRe.MatchString(sha) {
			continue
		}
		records = append(records, MergeRecord{SHA: sha, Body: strings.TrimSpace(body)})
	}
	return records
}

// Index answers attribution queries for one run.
type Index struct {
	commitToPRs map[string][]int
	titleToPR   map[string]int
}

// Resolve builds the attribution index.
//
// Per commit, inline references come first, then external associations,
// deduplicated. Merge commits that carry at least one PR push their numbers
// onto every commit they merged, after whatever those commits already have.
// The title table maps normalized commit subjects, then normalized merge
// bodies, then external PR titles to a PR number; the first writer of a key wins.
func Resolve(in Input) *Index {
	idx := &Index{
		commitToPRs: make(map[string][]int),
		titleToPR:   make(map[string]int),
	}

	for _, c := range in.Commits {
		nums := InlineRefs(c.Subject)
		for _, ref := range in.External[c.SHA] {
			if ref.Number > 0 && !slices.Contains(nums, ref.Number) {
				nums = append(nums, ref.Number)
			}
		}
		if len(nums) > 0 {
			idx.commitToPRs[c.SHA] = nums
		}
	}

	if in.Expand != nil {
		for _, m := range in.Merges {
			nums := slices.Clone(idx.commitToPRs[m.SHA])
			if len(nums) == 0 {
				continue
			}
			merged, err := in.Expand(m.SHA)
			if err != nil {
				continue
			}
			for _, sha := range merged {
				idx.commitToPRs[sha] = union(nums, idx.commitToPRs[sha])
			}
		}
	}

	for _, c := range in.Commits {
		if nums := idx.commitToPRs[c.SHA]; len(nums) > 0 {
			idx.addTitle(c.Subject, nums[0])
		}
	}
	for _, m := range in.Merges {
		if nums := idx.commitToPRs[m.SHA]; len(nums) > 0 {
			idx.addTitle(m.Body, nums[0])
		}
	}
	for _, c := range in.Commits {
		for _, ref := range in.External[c.SHA] {
			if ref.Number > 0 {
				idx.addTitle(ref.Title, ref.Number)
			}
		}
	}

	return idx
}

func (x *Index) addTitle(t string, pr int) {
	key := title.Normalize(t)
	if key == "" {
		return
	}
	if _, ok := x.titleToPR[key]; !ok {
		x.titleToPR[key] = pr
	}
}

// union keeps the order of first followed by the new entries of second.
func union(first, second []int) []int {
	out := slices.Clone(first)
	for _, n := range second {
		if !slices.Contains(out, n) {
			out = append(out, n)
		}
	}
	return out
}

// PRsFor returns every PR number attributed to sha. The slice is a copy.
func (x *Index) PRsFor(sha string) []int {
	return slices.Clone(x.commitToPRs[sha])
}

// PrimaryPR returns the first PR attributed to sha.
func (x *Index) PrimaryPR(sha string) (int, bool) {
	nums := x.commitToPRs[sha]
	if len(nums) == 0 {
		return 0, false
	}
	return nums[0], true
}

// PRForTitle looks up a title by its normalized key.
func (x *Index) PRForTitle(t string) (int, bool) {
	pr, ok := x.titleToPR[title.Normalize(t)]
	return pr, ok
}

// Commits returns the SHAs that carry at least one PR, sorted.
func (x *Index) Commits() []string {
	shas := make([]string, 0, len(x.commitToPRs))
	for sha := range x.commitToPRs {
		shas = append(shas, sha)
	}
	slices.Sort(shas)
	return shas
}

// Titles returns a copy of the normalized title table.
func (x *Index) Titles() map[string]int {
	out := make(map[string]int, len(x.titleToPR))
	for k, v := range x.titleToPR {
		out[k] = v
	}
	return out
}
