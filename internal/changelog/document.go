package changelog

import (
	"regexp"
	"strings"
)

// UnreleasedAnchor is the default insertion anchor.
const UnreleasedAnchor = "## [Unreleased]"

var (
	anyH2Re           = regexp.MustCompile(`(?m)^##\s`)
	sectionBoundaryRe = regexp.MustCompile(`^##\s*\[`)
	linkDefinitionRe  = regexp.MustCompile(`^\[[^\]]+\]:\s+\S`)
)

func versionHeadingRe(version string) *regexp.Regexp {
	return regexp.MustCompile(`^##\s*\[v` + regexp.QuoteMeta(bareVersion(version)) + `\]`)
}

func compareLinkRe(version string) *regexp.Regexp {
	return regexp.MustCompile(`^\[v` + regexp.QuoteMeta(bareVersion(version)) + `\]:\s`)
}

func bareVersion(version string) string {
	return strings.TrimPrefix(strings.TrimSpace(version), "v")
}

// HasSection reports whether doc has a "## [v<version>]" heading line.
// NormalizeNewlines converts CRLF and lone CR line endings to "\n".
func NormalizeNewlines(s string) string {
	if !strings.Contains(s, "\r") {
		return s
	}
	return strings.ReplaceAll(strings.ReplaceAll(s, "\r\n", "\n"), "\r", "\n")
}

func HasSection(doc, version string) bool {
	return countHeadings(doc, version) > 0
}

// HasDuplicateVersion reports whether the version heading occurs more than
// once. Compare-link lines do not count.
func HasDuplicateVersion(doc, version string) bool {
	return countHeadings(doc, version) > 1
}

func countHeadings(doc, version string) int {
	re := versionHeadingRe(version)
	n := 0
	for _, line := range strings.Split(doc, "\n") {
		if re.MatchString(line) {
			n++
		}
	}
	return n
}

// spanEnd returns the index of the first line after the section that starts
// at lines[start]: the next "## [" heading, the first link definition, or
// len(lines).
func spanEnd(lines []string, start int) int {
	for j := start + 1; j < len(lines); j++ {
		if sectionBoundaryRe.MatchString(lines[j]) || linkDefinitionRe.MatchString(lines[j]) {
			return j
		}
	}
	return len(lines)
}

// ReplaceSection swaps the first section of version for section (outer
// whitespace trimmed). Text outside the replaced span is kept byte for byte.
// The document is returned unchanged when the version has no heading.
func ReplaceSection(doc, version, section string) string {
	lines := strings.Split(doc, "\n")
	re := versionHeadingRe(version)
	start := -1
	for i, line := range lines {
		if re.MatchString(line) {
			start = i
			break
		}
	}
	if start < 0 {
		return doc
	}
	end := spanEnd(lines, start)

	var b strings.Builder
	if start > 0 {
		b.WriteString(strings.Join(lines[:start], "\n"))
		b.WriteString("\n")
	}
	b.WriteString(strings.TrimSpace(section))
	if end < len(lines) {
		b.WriteString("\n\n")
		b.WriteString(strings.Join(lines[end:], "\n"))
	} else {
		b.WriteString("\n")
	}
	return b.String()
}

// RemoveAllSections deletes every section of version. Blank lines left at
// the seams collapse to one, and leading blank lines are dropped.
func RemoveAllSections(doc, version string) string {
	lines := strings.Split(doc, "\n")
	re := versionHeadingRe(version)

	out := make([]string, 0, len(lines))
	for i := 0; i < len(lines); {
		if !re.MatchString(lines[i]) {
			out = append(out, lines[i])
			i++
			continue
		}
		i = spanEnd(lines, i)
		if len(out) == 0 {
			continue
		}
		if out[len(out)-1] == "" {
			for i < len(lines) && strings.TrimSpace(lines[i]) == "" {
				i++
			}
		} else if i < len(lines) && strings.TrimSpace(lines[i]) != "" {
			out = append(out, "")
		}
	}
	return strings.TrimLeft(strings.Join(out, "\n"), "\n")
}

// removeLines drops lines matching re, collapsing the blank lines around
// each removed line to one.
func removeLines(doc string, re *regexp.Regexp) string {
	lines := strings.Split(doc, "\n")
	out := make([]string, 0, len(lines))
	removed := false
	for _, line := range lines {
		if re.MatchString(line) {
			removed = true
			continue
		}
		if removed && line == "" && len(out) > 0 && out[len(out)-1] == "" {
			continue
		}
		removed = false
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}

// InsertSection places section (outer whitespace trimmed) directly below the
// anchor line with exactly one blank line on each side. An anchor that is
// not an H2 heading falls back to UnreleasedAnchor. Without the anchor line
// the section goes before the first H2 heading (keeping any header block
// above it), or after the whole text when there is no H2 heading at all.
func InsertSection(doc, anchor, section string) string {
	anchor = strings.TrimSpace(anchor)
	if !anyH2Re.MatchString(anchor) {
		anchor = UnreleasedAnchor
	}
	normalized := strings.TrimSpace(section)

	if start, end, ok := findAnchorLine(doc, anchor); ok {
		after := strings.TrimLeft(doc[end:], "\n")
		return doc[:start] + doc[start:end] + "\n\n" + normalized + "\n\n" + after
	}

	existing := strings.TrimLeft(doc, "\n")
	if loc := anyH2Re.FindStringIndex(existing); loc != nil {
		if loc[0] > 0 {
			header := strings.TrimRight(existing[:loc[0]], " \t\r\n")
			rest := strings.TrimLeft(existing[loc[0]:], "\n")
			return header + "\n\n" + normalized + "\n\n" + rest
		}
		return normalized + "\n\n" + existing
	}
	if strings.TrimSpace(existing) != "" {
		return strings.TrimRight(existing, " \t\r\n") + "\n\n" + normalized + "\n"
	}
	return normalized + "\n\n" + existing
}

// findAnchorLine locates the first line that is exactly anchor, allowing
// trailing spaces or tabs. It returns the byte range of the anchor text and
// those trailing blanks, excluding the line break.
func findAnchorLine(doc, anchor string) (int, int, bool) {
	offset := 0
	for _, line := range strings.SplitAfter(doc, "\n") {
		content := strings.TrimSuffix(strings.TrimSuffix(line, "\n"), "\r")
		if strings.HasPrefix(content, anchor) && strings.Trim(content[len(anchor):], " \t") == "" {
			return offset, offset + len(content), true
		}
		offset += len(line)
	}
	return 0, 0, false
}

// MergeOptions describes one merge of a version section into a document.
type MergeOptions struct {
	Version string
	Section string
	// Anchor is the heading to insert below when the version is new.
	// Defaults to UnreleasedAnchor.
	Anchor         string
	CompareLine    string
	UnreleasedLine string
}

// Merge applies a version section to doc idempotently:
//   - a blank document is seeded with the standard header
//   - existing compare links for the version are dropped from doc and section
//   - duplicate headings of the version are removed
//   - an existing section is replaced, otherwise the section is inserted
//   - compare links are appended or updated at the bottom
//
// The result ends with exactly one newline. Merging the same section into
// the result again returns it unchanged.
func Merge(doc string, opts MergeOptions) string {
	doc = NormalizeNewlines(doc)
	opts.Section = NormalizeNewlines(opts.Section)
	if strings.TrimSpace(doc) == "" {
		doc = Header()
	}
	anchor := opts.Anchor
	if anchor == "" {
		anchor = UnreleasedAnchor
	}

	linkRe := compareLinkRe(opts.Version)
	doc = removeLines(doc, linkRe)
	section := removeLines(opts.Section, linkRe)

	if HasDuplicateVersion(doc, opts.Version) {
		doc = RemoveAllSections(doc, opts.Version)
	}
	if HasSection(doc, opts.Version) {
		doc = ReplaceSection(doc, opts.Version, section)
	} else {
		doc = InsertSection(doc, anchor, section)
	}

	doc = UpdateCompareLinks(doc, opts.CompareLine, opts.UnreleasedLine)
	return strings.TrimRight(doc, "\n") + "\n"
}
