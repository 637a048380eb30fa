package github

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/ariel-frischer/changelog-bot/internal/attribution"
)

const (
	// DefaultLookupLimit caps how many commits are sent to the commit→PR endpoint.
	DefaultLookupLimit = 200
	// DefaultLookupConcurrency bounds parallel API requests.
	DefaultLookupConcurrency = 8
)

// PullInfo is the subset of a pull request used to enrich changelog bullets.
type PullInfo struct {
	Number int
	Author string
	URL    string
}

type releaseResponse struct {
	Body *string `json:"body"`
}

type pullResponse struct {
	Number  int    `json:"number"`
	Title   string `json:"title"`
	HTMLURL string `json:"html_url"`
	User    *struct {
		Login string `json:"login"`
	} `json:"user"`
}

// ReleaseBody returns the markdown body of the release for tag. Any failure,
// including a missing release, yields "".
func (c *Client) ReleaseBody(ctx context.Context, tag string) string {
	var rel releaseResponse
	if err := c.do(ctx, "GET", c.repoPath("/releases/tags/%s", url.PathEscape(tag)), "", nil, &rel); err != nil {
		logDebug("[github] ReleaseBody(%s): %v", tag, err)
		return ""
	}
	if rel.Body == nil {
		return ""
	}
	return *rel.Body
}

// PullRequest returns the author and URL of PR n, or nil when it cannot be read.
func (c *Client) PullRequest(ctx context.Context, n int) *PullInfo {
	var pr pullResponse
	if err := c.do(ctx, "GET", c.repoPath("/pulls/%d", n), "", nil, &pr); err != nil {
		logDebug("[github] PullRequest(%d): %v", n, err)
		return nil
	}
	info := &PullInfo{Number: n, URL: pr.HTMLURL}
	if pr.User != nil {
		info.Author = pr.User.Login
	}
	return info
}

// PullsForCommit lists the pull requests associated with a commit, which is
// how squash and rebase merges are attributed.
func (c *Client) PullsForCommit(ctx context.Context, sha string) ([]attribution.PullRef, error) {
	var pulls []pullResponse
	if err := c.do(ctx, "GET", c.repoPath("/commits/%s/pulls", sha), "", nil, &pulls); err != nil {
		return nil, err
	}
	refs := make([]attribution.PullRef, 0, len(pulls))
	for _, p := range pulls {
		if p.Number <= 0 {
			continue
		}
		refs = append(refs, attribution.PullRef{Number: p.Number, Title: p.Title})
	}
	return refs, nil
}

// MapCommitsToPRs looks up the first limit SHAs concurrently. A commit whose
// lookup fails maps to an empty slice; the map always holds every looked-up SHA.
func (c *Client) MapCommitsToPRs(ctx context.Context, shas []string, limit, concurrency int) map[string][]attribution.PullRef {
	if limit <= 0 {
		limit = DefaultLookupLimit
	}
	if concurrency <= 0 {
		concurrency = DefaultLookupConcurrency
	}
	if len(shas) > limit {
		shas = shas[:limit]
	}

	var mu sync.Mutex
	out := make(map[string][]attribution.PullRef, len(shas))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for _, sha := range shas {
		g.Go(func() error {
			refs, err := c.PullsForCommit(gctx, sha)
			if err != nil {
				logDebug("[github] PullsForCommit(%s): %v", sha, err)
				refs = []attribution.PullRef{}
			}
			mu.Lock()
			out[sha] = refs
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// PullInfos fetches PR metadata for numbers concurrently. Unreadable PRs are
// absent from the result.
func (c *Client) PullInfos(ctx context.Context, numbers []int, concurrency int) map[int]PullInfo {
	if concurrency <= 0 {
		concurrency = DefaultLookupConcurrency
	}

	var mu sync.Mutex
	out := make(map[int]PullInfo, len(numbers))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for _, n := range numbers {
		g.Go(func() error {
			info := c.PullRequest(gctx, n)
			if info == nil {
				return nil
			}
			mu.Lock()
			out[n] = *info
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// NewPullRequest describes a pull request to open.
type NewPullRequest struct {
	Title  string
	Body   string
	Head   string
	Base   string
	Labels []string
}

// CreatePullRequest opens a pull request and applies its labels. It returns
// the PR number. A failure to label is reported after the PR exists, so the
// number is still returned alongside the error.
func (c *Client) CreatePullRequest(ctx context.Context, pr NewPullRequest) (int, error) {
	payload := map[string]string{
		"title": pr.Title,
		"body":  pr.Body,
		"head":  pr.Head,
		"base":  pr.Base,
	}
	var created pullResponse
	if err := c.do(ctx, "POST", c.repoPath("/pulls"), "", payload, &created); err != nil {
		return 0, fmt.Errorf("creating pull request: %w", err)
	}
	if len(pr.Labels) == 0 {
		return created.Number, nil
	}
	if err := c.AddLabels(ctx, created.Number, pr.Labels); err != nil {
		return created.Number, err
	}
	return created.Number, nil
}

// AddLabels applies labels to an issue or pull request.
func (c *Client) AddLabels(ctx context.Context, number int, labels []string) error {
	payload := map[string][]string{"labels": labels}
	if err := c.do(ctx, "POST", c.repoPath("/issues/%d/labels", number), "", payload, nil); err != nil {
		return fmt.Errorf("labeling #%d: %w", number, err)
	}
	return nil
}
