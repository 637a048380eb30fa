// Package git reads release history from a repository and publishes the
// changelog branch. It uses the go-git library for every operation, so no git
// binary is required.
package git

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// HeadRef names the current checkout.
const HeadRef = "HEAD"

// DevVersion is the version label used when releasing HEAD.
const DevVersion = "0.0.0-dev"

// DefaultRemote is the remote that changelog branches are pushed to.
const DefaultRemote = "origin"

// debugLogger is a function that logs debug messages when debug mode is enabled.
// By default, it's a no-op. Set it via SetDebugLogger to enable debug output.
var debugLogger func(format string, args ...any)

// SetDebugLogger configures the debug logger for git operations.
// Pass nil to disable debug logging.
func SetDebugLogger(logger func(format string, args ...any)) {
	debugLogger = logger
}

func logDebug(format string, args ...any) {
	if debugLogger != nil {
		debugLogger(format, args...)
	}
}

var (
	safeRefRe = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)
	safeSHARe = regexp.MustCompile(`^[0-9a-fA-F]{7,40}$`)
)

// UnsafeRefError reports a ref that contains characters outside the allowed set.
type UnsafeRefError struct {
	Label string
	Value string
}

func (e *UnsafeRefError) Error() string {
	return fmt.Sprintf("invalid %s: %q contains unsupported characters", e.Label, e.Value)
}

// ValidateRef accepts tag and branch names made of letters, digits, '.', '_'
// and '-', and 7 to 40 character hex SHAs. HEAD passes as a plain name.
func ValidateRef(label, value string) error {
	if safeRefRe.MatchString(value) || safeSHARe.MatchString(value) {
		return nil
	}
	return &UnsafeRefError{Label: label, Value: value}
}

// VersionFromRef derives a version label from a release ref: HEAD maps to
// DevVersion, anything else loses a leading "v".
func VersionFromRef(ref string) string {
	if ref == HeadRef {
		return DevVersion
	}
	return strings.TrimPrefix(ref, "v")
}

// Repo is an opened repository.
type Repo struct {
	repo *git.Repository
	root string
}

// Open opens the repository containing path, walking up to the directory
// that holds .git. An empty path means the current working directory.
func Open(path string) (*Repo, error) {
	if path == "" {
		var err error
		path, err = os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("getting current directory: %w", err)
		}
	}

	logDebug("[git] opening repository at %s", path)

	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{
		DetectDotGit: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening repository at %s: %w", path, err)
	}

	root := path
	if wt, err := repo.Worktree(); err == nil {
		root = wt.Filesystem.Root()
	}

	logDebug("[git] repository opened at %s", root)
	return &Repo{repo: repo, root: root}, nil
}

// IsNotRepository reports whether err came from opening a directory that is
// not inside a git repository.
func IsNotRepository(err error) bool {
	return errors.Is(err, git.ErrRepositoryNotExists)
}

// Root returns the worktree root.
func (r *Repo) Root() string {
	return r.root
}

// commitFor resolves a validated ref (tag, branch, SHA or HEAD) to its commit.
// Annotated tags are peeled.
func (r *Repo) commitFor(ref string) (*object.Commit, error) {
	if err := ValidateRef("ref", ref); err != nil {
		return nil, err
	}

	var hash plumbing.Hash
	if ref == HeadRef {
		head, err := r.repo.Head()
		if err != nil {
			return nil, fmt.Errorf("getting HEAD reference: %w", err)
		}
		hash = head.Hash()
	} else {
		h, err := r.repo.ResolveRevision(plumbing.Revision(ref))
		if err != nil {
			return nil, fmt.Errorf("resolving %s: %w", ref, err)
		}
		hash = *h
	}

	c, err := r.repo.CommitObject(hash)
	if err != nil {
		return nil, fmt.Errorf("loading commit %s: %w", hash, err)
	}
	return c, nil
}

// HasRef reports whether ref resolves to a commit.
func (r *Repo) HasRef(ref string) bool {
	_, err := r.commitFor(ref)
	return err == nil
}

// DateForRef returns the committer date of ref as YYYY-MM-DD, in the
// committer's own time zone.
func (r *Repo) DateForRef(ref string) (string, error) {
	c, err := r.commitFor(ref)
	if err != nil {
		return "", err
	}
	return c.Committer.When.Format("2006-01-02"), nil
}

// OriginURL returns the first URL of the origin remote.
func (r *Repo) OriginURL() (string, error) {
	return r.remoteURL(DefaultRemote)
}

func (r *Repo) remoteURL(name string) (string, error) {
	remote, err := r.repo.Remote(name)
	if err != nil {
		return "", fmt.Errorf("looking up remote %s: %w", name, err)
	}
	urls := remote.Config().URLs
	if len(urls) == 0 {
		return "", fmt.Errorf("remote %s has no URL", name)
	}
	return urls[0], nil
}

// CurrentBranch returns the checked-out branch, or "" on a detached HEAD.
func (r *Repo) CurrentBranch() (string, error) {
	head, err := r.repo.Head()
	if err != nil {
		return "", fmt.Errorf("getting HEAD reference: %w", err)
	}
	if !head.Name().IsBranch() {
		logDebug("[git] CurrentBranch: detached HEAD state")
		return "", nil
	}
	return head.Name().Short(), nil
}

func subjectOf(message string) string {
	subject, _, _ := strings.Cut(strings.TrimSpace(message), "\n")
	return strings.TrimSpace(subject)
}

func bodyOf(message string) string {
	_, body, _ := strings.Cut(strings.TrimSpace(message), "\n")
	return strings.TrimSpace(body)
}
