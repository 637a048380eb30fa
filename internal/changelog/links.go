package changelog

import (
	"fmt"
	"regexp"
	"strings"
)

var unreleasedLinkRe = regexp.MustCompile(`(?m)^\[Unreleased\]:[ \t]+.+$`)

const headRef = "HEAD"

// UpdateCompareLinks sets the Unreleased link and appends compareLine when
// no line of doc equals it. An existing "[Unreleased]: ..." line is replaced
// in place, otherwise unreleasedLine is appended. The Unreleased link is
// handled first so a re-run that drops and re-adds compareLine reproduces
// the same link order. Empty arguments are skipped.
func UpdateCompareLinks(doc, compareLine, unreleasedLine string) string {
	if unreleasedLine != "" {
		if loc := unreleasedLinkRe.FindStringIndex(doc); loc != nil {
			doc = doc[:loc[0]] + unreleasedLine + doc[loc[1]:]
		} else if !containsLine(doc, unreleasedLine) {
			doc = appendLinkLine(doc, unreleasedLine)
		}
	}
	if compareLine != "" && !containsLine(doc, compareLine) {
		doc = appendLinkLine(doc, compareLine)
	}
	return doc
}

// appendLinkLine adds line at the end of doc. It joins an existing block of
// link definitions directly, otherwise a blank line separates it.
func appendLinkLine(doc, line string) string {
	doc = strings.TrimSpace(doc)
	last := doc[strings.LastIndex(doc, "\n")+1:]
	if linkDefinitionRe.MatchString(last) {
		return doc + "\n" + line + "\n"
	}
	return doc + "\n\n" + line + "\n"
}

func containsLine(doc, line string) bool {
	for _, l := range strings.Split(doc, "\n") {
		if strings.TrimRight(l, " \t\r") == line {
			return true
		}
	}
	return false
}

// CompareOptions are the inputs of EnsureCompareLinks.
type CompareOptions struct {
	// ServerURL defaults to https://github.com.
	ServerURL  string
	Owner      string
	Repo       string
	PrevRef    string
	ReleaseRef string
	Version    string
	// Existing is the current document; it decides whether an Unreleased
	// link is maintained at all.
	Existing string
}

// EnsureCompareLinks builds the compare link for a version and, when the
// document already carries an Unreleased link and the release is not HEAD,
// the Unreleased link that follows it.
func EnsureCompareLinks(opts CompareOptions) (compareLine, unreleasedLine string) {
	server := strings.TrimRight(opts.ServerURL, "/")
	if server == "" {
		server = "https://github.com"
	}
	base := fmt.Sprintf("%s/%s/%s", server, opts.Owner, opts.Repo)
	compareLine = fmt.Sprintf("[v%s]: %s/compare/%s...%s", bareVersion(opts.Version), base, opts.PrevRef, opts.ReleaseRef)

	if opts.ReleaseRef != headRef && unreleasedLinkRe.MatchString(opts.Existing) {
		unreleasedLine = fmt.Sprintf("[Unreleased]: %s/compare/%s...%s", base, opts.ReleaseRef, headRef)
	}
	return compareLine, unreleasedLine
}
