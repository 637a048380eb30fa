package changelog

import (
	"fmt"
	"regexp"
	"strings"
)

// headingLabelRe captures the bracketed label of an H2 heading, such as
// "v1.2.0" or "Unreleased", and an optional " - <date>" suffix.
var headingLabelRe = regexp.MustCompile(`^##\s*\[([^\]]+)\](?:\s*-\s*(\S+))?`)

// VersionNotFoundError is returned when a requested version has no section.
type VersionNotFoundError struct {
	Version           string
	AvailableVersions []string
}

func (e *VersionNotFoundError) Error() string {
	if len(e.AvailableVersions) == 0 {
		return fmt.Sprintf("version %q not found (the changelog has no versions)", e.Version)
	}
	return fmt.Sprintf("version %q not found (available: %s)",
		e.Version, strings.Join(e.AvailableVersions, ", "))
}

// NormalizeVersion lowercases a version label and drops a leading "v", so
// "V1.0.0", "v1.0.0" and "1.0.0" compare equal.
func NormalizeVersion(version string) string {
	return strings.TrimPrefix(strings.ToLower(strings.TrimSpace(version)), "v")
}

// VersionInfo is one H2 heading of a changelog.
type VersionInfo struct {
	Label string
	Date  string
}

// ListVersions returns every bracketed H2 heading in document order,
// Unreleased included.
func ListVersions(doc string) []VersionInfo {
	var out []VersionInfo
	for _, line := range strings.Split(doc, "\n") {
		m := headingLabelRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		out = append(out, VersionInfo{Label: m[1], Date: m[2]})
	}
	return out
}

// Versions returns the heading labels of doc in document order.
func Versions(doc string) []string {
	infos := ListVersions(doc)
	labels := make([]string, len(infos))
	for i, v := range infos {
		labels[i] = v.Label
	}
	return labels
}

// LatestRelease returns the first heading label that is not Unreleased, or
// "" when the changelog has no released version.
func LatestRelease(doc string) string {
	for _, label := range Versions(doc) {
		if !strings.EqualFold(label, "unreleased") {
			return label
		}
	}
	return ""
}

// SectionBody returns the lines below the heading of version up to the end
// of its span, trimmed. The lookup accepts "v1.0.0", "1.0.0" and
// "unreleased" in any case.
func SectionBody(doc, version string) (string, error) {
	want := NormalizeVersion(version)
	lines := strings.Split(doc, "\n")
	for i, line := range lines {
		m := headingLabelRe.FindStringSubmatch(line)
		if m == nil || NormalizeVersion(m[1]) != want {
			continue
		}
		end := spanEnd(lines, i)
		return strings.TrimSpace(strings.Join(lines[i+1:end], "\n")), nil
	}
	return "", &VersionNotFoundError{Version: version, AvailableVersions: Versions(doc)}
}
