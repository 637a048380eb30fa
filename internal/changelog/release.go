package changelog

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/ariel-frischer/changelog-bot/internal/title"
)

var (
	h2HeadingRe     = regexp.MustCompile(`^##\s+(.*)$`)
	fullChangelogRe = regexp.MustCompile(`(?i)Full Changelog[^:]*:\s*(\S+)`)
	bulletRe        = regexp.MustCompile(`^\s*[-*]\s+`)
	prURLRe         = regexp.MustCompile(`https?://\S+/pull/(\d+)`)
	prRefRe         = regexp.MustCompile(`\(#?(\d+)\)|#(\d+)`)
	authorRe        = regexp.MustCompile(`@([A-Za-z0-9_-]+)`)
	// trailingByInRe only matches "by" or "in" as whole words, so a title
	// ending in "login" keeps its last letters.
	trailingByInRe = regexp.MustCompile(`(?i)(?:^|\s+)(?:by|in)\s*$`)
	whatsChangedRe = regexp.MustCompile(`(?i)^What's Changed`)
	fullHeadingRe  = regexp.MustCompile(`(?i)^Full Changelog`)
	absoluteURLRe  = regexp.MustCompile(`^https?://`)
)

// Repo identifies a GitHub repository for link construction.
type Repo struct {
	Owner string
	Name  string
}

// IsZero reports whether r has no owner or name.
func (r Repo) IsZero() bool {
	return r.Owner == "" || r.Name == ""
}

// PullURL returns the pull request URL of number n.
func (r Repo) PullURL(n int) string {
	return fmt.Sprintf("https://github.com/%s/%s/pull/%d", r.Owner, r.Name, n)
}

// ReleaseNotes is the structured form of a GitHub release body.
type ReleaseNotes struct {
	// Items are the bullets of the "What's Changed" block.
	Items []Item
	// Sections are the other H2 blocks, kept verbatim.
	Sections []Section
	// FullChangelog is an absolute compare URL, or "".
	FullChangelog string
}

type rawBlock struct {
	heading string
	lines   []string
}

// ParseReleaseNotes reads the H2 blocks of a release body. Bullets under
// "What's Changed" become items; other blocks except "Full Changelog" are
// kept as passthrough sections. A zero repo leaves bare PR numbers without
// URLs and drops a non-URL Full Changelog range.
func ParseReleaseNotes(body string, repo Repo) ReleaseNotes {
	var notes ReleaseNotes
	if strings.TrimSpace(body) == "" {
		return notes
	}

	for _, block := range collectH2Blocks(body) {
		switch {
		case whatsChangedRe.MatchString(block.heading):
			for _, line := range block.lines {
				line = strings.TrimSpace(line)
				if !bulletRe.MatchString(line) || fullChangelogRe.MatchString(line) {
					continue
				}
				if item, ok := parseReleaseLine(line, repo); ok {
					notes.Items = append(notes.Items, item)
				}
			}
		case fullHeadingRe.MatchString(block.heading):
		default:
			if s, ok := toPassthrough(block); ok {
				notes.Sections = append(notes.Sections, s)
			}
		}
	}

	notes.FullChangelog = fullChangelogURL(body, repo)
	return notes
}

func collectH2Blocks(body string) []rawBlock {
	var blocks []rawBlock
	var current *rawBlock
	for _, line := range strings.Split(strings.ReplaceAll(body, "\r\n", "\n"), "\n") {
		if m := h2HeadingRe.FindStringSubmatch(line); m != nil {
			if current != nil {
				blocks = append(blocks, *current)
			}
			current = &rawBlock{heading: strings.TrimSpace(m[1])}
			continue
		}
		if current != nil {
			current.lines = append(current.lines, line)
		}
	}
	if current != nil {
		blocks = append(blocks, *current)
	}
	return blocks
}

func parseReleaseLine(line string, repo Repo) (Item, bool) {
	text := strings.TrimSpace(bulletRe.ReplaceAllString(line, ""))

	var item Item
	if m := prURLRe.FindStringSubmatchIndex(text); m != nil {
		item.PR, _ = strconv.Atoi(text[m[2]:m[3]])
		item.URL = text[m[0]:m[1]]
		text = strings.TrimSpace(text[:m[0]] + text[m[1]:])
	} else if m := prRefRe.FindStringSubmatchIndex(text); m != nil {
		digits := m[2:4]
		if digits[0] < 0 {
			digits = m[4:6]
		}
		item.PR, _ = strconv.Atoi(text[digits[0]:digits[1]])
		if !repo.IsZero() {
			item.URL = repo.PullURL(item.PR)
		}
		text = strings.TrimSpace(text[:m[0]] + text[m[1]:])
	}

	if m := authorRe.FindStringSubmatchIndex(text); m != nil {
		item.Author = text[m[2]:m[3]]
		text = strings.TrimSpace(text[:m[0]] + text[m[1]:])
	}

	for trailingByInRe.MatchString(text) {
		text = strings.TrimSpace(trailingByInRe.ReplaceAllString(text, ""))
	}

	item.RawTitle = text
	item.Title = title.StripConventionalPrefix(text)
	if item.Title == "" {
		return Item{}, false
	}
	return item, true
}

func toPassthrough(block rawBlock) (Section, bool) {
	kept := make([]string, 0, len(block.lines))
	for _, line := range block.lines {
		if !fullChangelogRe.MatchString(line) {
			kept = append(kept, line)
		}
	}
	body := strings.TrimSpace(strings.Join(kept, "\n"))
	if body == "" {
		return Section{}, false
	}
	return Section{Heading: block.heading, Body: body}, true
}

func fullChangelogURL(body string, repo Repo) string {
	m := fullChangelogRe.FindStringSubmatch(body)
	if m == nil {
		return ""
	}
	link := m[1]
	if absoluteURLRe.MatchString(link) {
		return link
	}
	if repo.IsZero() {
		return ""
	}
	return fmt.Sprintf("https://github.com/%s/%s/compare/%s", repo.Owner, repo.Name, link)
}

// BuildReleaseSection renders the section for a release: the classified
// titles are resolved back to the parsed items, then the passthrough blocks
// and the Full Changelog link follow.
func BuildReleaseSection(version, date string, notes ReleaseNotes, categories CategoryMap) string {
	return ComposeSection(SectionOptions{
		Version:       version,
		Date:          date,
		Items:         notes.Items,
		Categories:    categories,
		Passthrough:   notes.Sections,
		FullChangelog: notes.FullChangelog,
	})
}
