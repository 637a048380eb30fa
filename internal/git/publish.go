package git

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/go-git/go-git/v5/plumbing/transport/ssh"
)

// BranchPrefix starts the name of every changelog branch.
const BranchPrefix = "chore/changelog-v"

// BranchName returns the changelog branch for version.
func BranchName(prefix, version string) string {
	if prefix == "" {
		prefix = BranchPrefix
	}
	return prefix + strings.TrimPrefix(version, "v")
}

// PublishOptions describes one changelog commit and push.
type PublishOptions struct {
	Branch  string
	Paths   []string // absolute or relative to the worktree root
	Message string
	// Remote defaults to DefaultRemote.
	Remote string
	// Token authenticates HTTPS pushes.
	Token string
	// Author defaults to user.name and user.email from git config.
	Author *object.Signature
	// SkipPush stops after the commit.
	SkipPush bool
}

// Publish creates and checks out opts.Branch from HEAD, stages opts.Paths,
// commits them and pushes the branch.
func (r *Repo) Publish(ctx context.Context, opts PublishOptions) (string, error) {
	if opts.Branch == "" {
		return "", errors.New("publishing: branch name is required")
	}
	if err := r.CreateBranch(opts.Branch); err != nil {
		return "", err
	}

	wt, err := r.repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("getting worktree: %w", err)
	}
	for _, p := range opts.Paths {
		rel, err := r.relative(p)
		if err != nil {
			return "", err
		}
		if _, err := wt.Add(rel); err != nil {
			return "", fmt.Errorf("staging %s: %w", rel, err)
		}
	}

	author := opts.Author
	if author != nil && author.When.IsZero() {
		stamped := *author
		stamped.When = time.Now()
		author = &stamped
	}
	hash, err := wt.Commit(opts.Message, &git.CommitOptions{Author: author})
	if err != nil {
		return "", fmt.Errorf("committing changelog: %w", err)
	}
	logDebug("[git] Publish: committed %s on %s", hash, opts.Branch)

	if opts.SkipPush {
		return hash.String(), nil
	}
	if err := r.push(ctx, opts); err != nil {
		return "", err
	}
	return hash.String(), nil
}

func (r *Repo) relative(p string) (string, error) {
	if !filepath.IsAbs(p) {
		return filepath.ToSlash(filepath.Clean(p)), nil
	}
	rel, err := filepath.Rel(r.root, p)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("path %s is outside the repository", p)
	}
	return filepath.ToSlash(rel), nil
}

func (r *Repo) push(ctx context.Context, opts PublishOptions) error {
	remote := opts.Remote
	if remote == "" {
		remote = DefaultRemote
	}
	url, err := r.remoteURL(remote)
	if err != nil {
		return err
	}
	if isSSHURL(url) && !isSSHAgentAvailable() {
		return fmt.Errorf("pushing to %s: SSH remote without an SSH agent (SSH_AUTH_SOCK is unset)", remote)
	}

	ref := plumbing.NewBranchReferenceName(opts.Branch)
	logDebug("[git] pushing %s to %s (%s)", opts.Branch, remote, url)
	err = r.repo.PushContext(ctx, &git.PushOptions{
		RemoteName: remote,
		RefSpecs:   []config.RefSpec{config.RefSpec(ref + ":" + ref)},
		Auth:       getAuthForURL(url, opts.Token),
	})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return fmt.Errorf("pushing %s to %s: %w", opts.Branch, remote, err)
	}
	return nil
}

// CreateBranch creates a new branch at HEAD and checks it out.
// Returns an error if the branch already exists.
func (r *Repo) CreateBranch(name string) error {
	if err := checkBranchExists(r.repo, name); err != nil {
		return err
	}

	head, err := r.repo.Head()
	if err != nil {
		return fmt.Errorf("getting HEAD: %w", err)
	}

	worktree, err := r.repo.Worktree()
	if err != nil {
		return fmt.Errorf("getting worktree: %w", err)
	}

	// Keep preserves untracked files and the modified changelog; without it
	// go-git resets the worktree to the new branch.
	err = worktree.Checkout(&git.CheckoutOptions{
		Hash:   head.Hash(),
		Branch: plumbing.NewBranchReferenceName(name),
		Create: true,
		Keep:   true,
	})
	if err != nil {
		return fmt.Errorf("creating branch '%s': %w", name, err)
	}

	logDebug("[git] CreateBranch: created and checked out %s", name)
	return nil
}

// checkBranchExists returns an error if the branch already exists.
func checkBranchExists(repo *git.Repository, name string) error {
	_, err := repo.Reference(plumbing.NewBranchReferenceName(name), false)
	if err == nil {
		return fmt.Errorf("branch '%s' already exists", name)
	}
	if !errors.Is(err, plumbing.ErrReferenceNotFound) {
		return fmt.Errorf("checking branch existence: %w", err)
	}
	return nil
}

// getAuthForURL returns the authentication method for a remote URL.
// SSH URLs use SSH agent auth; HTTPS URLs use the token as basic auth.
func getAuthForURL(url, token string) transport.AuthMethod {
	if isSSHURL(url) {
		auth, err := ssh.NewSSHAgentAuth("git")
		if err != nil {
			logDebug("[git] SSH agent auth failed: %v", err)
			return nil
		}
		return auth
	}

	if token == "" || !isHTTPURL(url) {
		return nil
	}
	return &http.BasicAuth{
		Username: "x-access-token",
		Password: token,
	}
}

// isSSHURL checks if a URL is an SSH URL.
// Detects git@ (SCP-style), ssh://, and git+ssh:// schemes.
func isSSHURL(url string) bool {
	return strings.HasPrefix(url, "git@") ||
		strings.HasPrefix(url, "ssh://") ||
		strings.HasPrefix(url, "git+ssh://")
}

func isHTTPURL(url string) bool {
	return strings.HasPrefix(url, "https://") || strings.HasPrefix(url, "http://")
}

// isSSHAgentAvailable checks if an SSH agent is available.
// Returns true only if SSH_AUTH_SOCK is set and non-empty.
func isSSHAgentAvailable() bool {
	sock := strings.TrimSpace(os.Getenv("SSH_AUTH_SOCK"))
	return sock != ""
}
