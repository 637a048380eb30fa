package changelog

import (
	"fmt"
	"strings"

	"github.com/ariel-frischer/changelog-bot/internal/attribution"
	"github.com/ariel-frischer/changelog-bot/internal/title"
)

// kindCategories buckets conventional types for the fallback section.
// Types not listed, and subjects without a prefix, go to Chore.
var kindCategories = map[string]Category{
	"feat":     Added,
	"fix":      Fixed,
	"refactor": Changed,
	"perf":     Changed,
	"style":    Changed,
	"docs":     Docs,
	"test":     Test,
	"revert":   Reverted,
}

// FallbackCategory returns the bucket of a commit subject when no
// classifier is involved. The breaking marker wins over the type.
func FallbackCategory(subject string) Category {
	if title.HasBreakingMarker(subject) {
		return Breaking
	}
	if c, ok := kindCategories[title.Kind(subject)]; ok {
		return c
	}
	return Chore
}

// FallbackSection renders a section straight from commit subjects. Each
// bullet carries the first PR of the commit, taken from prsFor or, failing
// that, from an inline "#N" in the subject. Subjects that already show a
// "(#N)" reference are left as they are. prsFor may be nil.
func FallbackSection(version, date string, commits []attribution.Commit, prsFor func(sha string) []int) string {
	buckets := map[Category][]string{}
	for _, c := range commits {
		subject := strings.TrimSpace(c.Subject)
		if subject == "" {
			continue
		}
		var prs []int
		if prsFor != nil {
			prs = prsFor(c.SHA)
		}
		if len(prs) == 0 {
			prs = attribution.InlineRefs(subject)
		}

		bullet := "- " + title.StripConventionalPrefix(subject)
		if len(prs) > 0 && !inlinePRPresentRe.MatchString(subject) {
			bullet += fmt.Sprintf(" (#%d)", prs[0])
		}
		cat := FallbackCategory(subject)
		buckets[cat] = append(buckets[cat], bullet)
	}

	lines := []string{VersionHeading(version, date), ""}
	for _, c := range Order {
		if len(buckets[c]) == 0 {
			continue
		}
		lines = append(lines, "### "+string(c), "")
		lines = append(lines, buckets[c]...)
		lines = append(lines, "")
	}
	if len(buckets) == 0 {
		lines = append(lines, "### "+string(Changed), "", "- Summary of changes", "")
	}
	return strings.Join(lines, "\n")
}
