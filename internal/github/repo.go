package github

import (
	"fmt"
	"regexp"
	"strings"
)

// Repo identifies a repository as owner/name.
type Repo struct {
	Owner string
	Name  string
}

// FullName returns "owner/name".
func (r Repo) FullName() string {
	return r.Owner + "/" + r.Name
}

// IsZero reports whether the repository is unset.
func (r Repo) IsZero() bool {
	return r.Owner == "" && r.Name == ""
}

var remoteURLRe = regexp.MustCompile(`^(?:[\w.+-]+://)?(?:[^@/]+@)?[^:/]+(?::\d+)?[:/]([^/]+)/([^/]+?)(?:\.git)?/?$`)

// ParseRepoFullName parses "owner/name".
func ParseRepoFullName(s string) (Repo, error) {
	owner, name, ok := strings.Cut(strings.TrimSpace(s), "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return Repo{}, fmt.Errorf("invalid repository %q: expected owner/name", s)
	}
	return Repo{Owner: owner, Name: name}, nil
}

// RepoFromRemoteURL extracts owner/name from an SCP-style SSH remote
// (git@host:owner/name.git) or a URL remote (https://host/owner/name.git).
func RepoFromRemoteURL(url string) (Repo, error) {
	m := remoteURLRe.FindStringSubmatch(strings.TrimSpace(url))
	if m == nil {
		return Repo{}, fmt.Errorf("cannot determine repository from remote %q", url)
	}
	return Repo{Owner: m[1], Name: m[2]}, nil
}
