package changelog

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/ariel-frischer/changelog-bot/internal/title"
)

var (
	releaseHeaderRe   = regexp.MustCompile(`^##\s*\[([^\]]+)\](.*)$`)
	h3HeadingRe       = regexp.MustCompile(`^###\s+(.+?)\s*$`)
	anyH3Re           = regexp.MustCompile(`^###\s+`)
	mergedPRsHeadRe   = regexp.MustCompile(`(?i)^###\s+Merged PRs`)
	bulletPartsRe     = regexp.MustCompile(`^(\s*[-*]\s+)(.*)$`)
	inlinePRPresentRe = regexp.MustCompile(`\(#\d+\)|\[#\d+\]`)
	blankRunRe        = regexp.MustCompile(`\n{3,}`)
)

// NormalizeSectionHeadings forces a "v" prefix on the version heading in the
// first line and maps H3 headings onto the category vocabulary. Unknown H3
// headings are kept. Runs of blank lines collapse to one.
func NormalizeSectionHeadings(md string) string {
	if md == "" {
		return md
	}
	lines := strings.Split(md, "\n")
	for i, line := range lines {
		if i == 0 {
			if m := releaseHeaderRe.FindStringSubmatch(line); m != nil && !strings.HasPrefix(m[1], "v") {
				lines[i] = "## [v" + m[1] + "]" + m[2]
			}
			continue
		}
		m := h3HeadingRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		if c, ok := NormalizeCategory(m[1]); ok {
			lines[i] = "### " + string(c)
		} else {
			lines[i] = "### " + m[1]
		}
	}
	return blankRunRe.ReplaceAllString(strings.Join(lines, "\n"), "\n\n")
}

// RemoveMergedPRs drops a "### Merged PRs" block up to the next H3 heading.
func RemoveMergedPRs(md string) string {
	lines := strings.Split(md, "\n")
	kept := make([]string, 0, len(lines))
	skipping := false
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if skipping {
			if !anyH3Re.MatchString(trimmed) {
				continue
			}
			skipping = false
		}
		if mergedPRsHeadRe.MatchString(trimmed) {
			skipping = true
			continue
		}
		kept = append(kept, line)
	}
	return blankRunRe.ReplaceAllString(strings.Join(kept, "\n"), "\n\n")
}

// AttachPRNumbers appends a PR reference to bullets that have none, when the
// bullet text matches a title of titleToPR by normalized key, exactly or by
// prefix in either direction. With a repo the reference is a markdown link,
// otherwise "(#N)".
func AttachPRNumbers(md string, titleToPR map[string]int, repo Repo) string {
	normalized := make(map[string]int, len(titleToPR))
	for t, pr := range titleToPR {
		if key := title.Normalize(t); key != "" && pr > 0 {
			normalized[key] = pr
		}
	}
	if len(normalized) == 0 {
		return md
	}
	keys := make([]string, 0, len(normalized))
	for k := range normalized {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	lines := strings.Split(md, "\n")
	for i, line := range lines {
		m := bulletPartsRe.FindStringSubmatch(line)
		if m == nil || inlinePRPresentRe.MatchString(line) {
			continue
		}
		pr, ok := matchPR(title.Normalize(m[2]), normalized, keys)
		if !ok {
			continue
		}
		if repo.IsZero() {
			lines[i] = fmt.Sprintf("%s%s (#%d)", m[1], m[2], pr)
		} else {
			lines[i] = fmt.Sprintf("%s%s in [#%d](%s)", m[1], m[2], pr, repo.PullURL(pr))
		}
	}
	return strings.Join(lines, "\n")
}

func matchPR(bullet string, normalized map[string]int, keys []string) (int, bool) {
	if bullet == "" {
		return 0, false
	}
	if pr, ok := normalized[bullet]; ok {
		return pr, true
	}
	for _, k := range keys {
		if strings.HasPrefix(bullet, k) || strings.HasPrefix(k, bullet) {
			return normalized[k], true
		}
	}
	return 0, false
}

// Postprocess removes the Merged PRs block, then attaches PR references.
func Postprocess(md string, titleToPR map[string]int, repo Repo) string {
	return AttachPRNumbers(RemoveMergedPRs(md), titleToPR, repo)
}
