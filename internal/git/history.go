package git

import (
	"errors"
	"fmt"
	"slices"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"

	"github.com/ariel-frischer/changelog-bot/internal/attribution"
)

// reachable returns every commit reachable from c, c included.
func reachable(c *object.Commit) (map[plumbing.Hash]bool, error) {
	seen := map[plumbing.Hash]bool{}
	err := object.NewCommitPreorderIter(c, nil, nil).ForEach(func(c *object.Commit) error {
		seen[c.Hash] = true
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking history from %s: %w", c.Hash, err)
	}
	return seen, nil
}

// walkExcluding visits commits reachable from tip and not from exclude,
// newest committer time first. A nil exclude walks the whole history.
func walkExcluding(tip, exclude *object.Commit, fn func(*object.Commit) error) error {
	seen := map[plumbing.Hash]bool{}
	if exclude != nil {
		var err error
		if seen, err = reachable(exclude); err != nil {
			return err
		}
	}
	if seen[tip.Hash] {
		return nil
	}
	err := object.NewCommitIterCTime(tip, seen, nil).ForEach(fn)
	if errors.Is(err, storer.ErrStop) {
		return nil
	}
	return err
}

// rangeCommits returns the commits of from..to. An empty from means the
// whole history of to.
func (r *Repo) rangeCommits(from, to string) ([]*object.Commit, error) {
	tip, err := r.commitFor(to)
	if err != nil {
		return nil, err
	}
	var base *object.Commit
	if from != "" {
		if base, err = r.commitFor(from); err != nil {
			return nil, err
		}
	}

	var out []*object.Commit
	err = walkExcluding(tip, base, func(c *object.Commit) error {
		out = append(out, c)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing %s..%s: %w", from, to, err)
	}
	logDebug("[git] %s..%s: %d commits", from, to, len(out))
	return out, nil
}

// CommitsInRange returns the commits reachable from to and not from from,
// newest first, with their subject lines.
func (r *Repo) CommitsInRange(from, to string) ([]attribution.Commit, error) {
	commits, err := r.rangeCommits(from, to)
	if err != nil {
		return nil, err
	}
	out := make([]attribution.Commit, len(commits))
	for i, c := range commits {
		out[i] = attribution.Commit{SHA: c.Hash.String(), Subject: subjectOf(c.Message)}
	}
	return out, nil
}

// MergeCommits returns the merge commits of from..to with their message
// bodies, the subject line excluded.
func (r *Repo) MergeCommits(from, to string) ([]attribution.MergeRecord, error) {
	commits, err := r.rangeCommits(from, to)
	if err != nil {
		return nil, err
	}
	var out []attribution.MergeRecord
	for _, c := range commits {
		if c.NumParents() > 1 {
			out = append(out, attribution.MergeRecord{SHA: c.Hash.String(), Body: bodyOf(c.Message)})
		}
	}
	return out, nil
}

// CommitsFromMerge returns the SHAs a merge brought in: reachable from its
// second parent and not from its first. Non-merge commits yield nothing.
func (r *Repo) CommitsFromMerge(sha string) ([]string, error) {
	c, err := r.commitFor(sha)
	if err != nil {
		return nil, err
	}
	if c.NumParents() < 2 {
		return nil, nil
	}
	first, err := c.Parent(0)
	if err != nil {
		return nil, fmt.Errorf("loading first parent of %s: %w", sha, err)
	}
	second, err := c.Parent(1)
	if err != nil {
		return nil, fmt.Errorf("loading second parent of %s: %w", sha, err)
	}

	var out []string
	err = walkExcluding(second, first, func(c *object.Commit) error {
		out = append(out, c.Hash.String())
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing commits of merge %s: %w", sha, err)
	}
	return out, nil
}

// ExpandMerge adapts CommitsFromMerge to attribution.ExpandFunc.
func (r *Repo) ExpandMerge() attribution.ExpandFunc {
	return r.CommitsFromMerge
}

// tagsByCommit maps commit hashes to the tag names pointing at them, with
// annotated tags peeled. Names per commit are sorted.
func (r *Repo) tagsByCommit() (map[plumbing.Hash][]string, error) {
	iter, err := r.repo.Tags()
	if err != nil {
		return nil, fmt.Errorf("listing tags: %w", err)
	}
	out := map[plumbing.Hash][]string{}
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		target := ref.Hash()
		if tag, err := r.repo.TagObject(target); err == nil {
			c, err := tag.Commit()
			if err != nil {
				logDebug("[git] skipping tag %s: %v", ref.Name().Short(), err)
				return nil
			}
			target = c.Hash
		}
		out[target] = append(out[target], ref.Name().Short())
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("iterating tags: %w", err)
	}
	for h := range out {
		slices.Sort(out[h])
	}
	return out, nil
}

// nearestTag walks breadth-first from c and returns the tag on the closest
// commit. Ties on one commit go to the first name in sort order.
func (r *Repo) nearestTag(c *object.Commit) (string, bool, error) {
	tags, err := r.tagsByCommit()
	if err != nil {
		return "", false, err
	}
	if len(tags) == 0 {
		return "", false, nil
	}

	queue := []*object.Commit{c}
	visited := map[plumbing.Hash]bool{c.Hash: true}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if names := tags[cur.Hash]; len(names) > 0 {
			return names[0], true, nil
		}
		err := cur.Parents().ForEach(func(p *object.Commit) error {
			if !visited[p.Hash] {
				visited[p.Hash] = true
				queue = append(queue, p)
			}
			return nil
		})
		if err != nil {
			return "", false, fmt.Errorf("walking parents of %s: %w", cur.Hash, err)
		}
	}
	return "", false, nil
}

// LatestTag returns the nearest tag reachable from ref, ref's own commit
// included.
func (r *Repo) LatestTag(ref string) (string, bool, error) {
	c, err := r.commitFor(ref)
	if err != nil {
		return "", false, err
	}
	return r.nearestTag(c)
}

// PreviousTag returns the nearest tag reachable from the first parent of
// tag's commit.
func (r *Repo) PreviousTag(tag string) (string, bool, error) {
	c, err := r.commitFor(tag)
	if err != nil {
		return "", false, err
	}
	if c.NumParents() == 0 {
		return "", false, nil
	}
	parent, err := c.Parent(0)
	if err != nil {
		return "", false, fmt.Errorf("loading parent of %s: %w", tag, err)
	}
	return r.nearestTag(parent)
}

// FirstCommit returns the oldest root commit reachable from HEAD.
func (r *Repo) FirstCommit() (string, error) {
	head, err := r.commitFor(HeadRef)
	if err != nil {
		return "", err
	}
	var root string
	err = walkExcluding(head, nil, func(c *object.Commit) error {
		if c.NumParents() == 0 {
			root = c.Hash.String()
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("walking history: %w", err)
	}
	return root, nil
}
