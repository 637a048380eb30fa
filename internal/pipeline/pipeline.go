// Package pipeline runs one changelog update end to end: resolve the release
// range, attribute commits to pull requests, build the version section from
// release notes, a model, or the commit log, and merge it into the document.
//
// Run performs no writes. The caller decides whether to write the file and
// open a pull request from the returned Result.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/ariel-frischer/changelog-bot/internal/attribution"
	"github.com/ariel-frischer/changelog-bot/internal/changelog"
	"github.com/ariel-frischer/changelog-bot/internal/classify"
	"github.com/ariel-frischer/changelog-bot/internal/git"
	"github.com/ariel-frischer/changelog-bot/internal/github"
	"github.com/ariel-frischer/changelog-bot/internal/llm"
	"github.com/ariel-frischer/changelog-bot/internal/progress"
	"github.com/ariel-frischer/changelog-bot/internal/tune"
)

// Source says where the section content came from.
type Source string

const (
	SourceReleaseNotes Source = "release-notes"
	SourceModel        Source = "model"
	SourceFallback     Source = "fallback"
)

const (
	shortSHALen = 7
	language    = "en"

	releaseNotesReason = "Used GitHub Release Notes as the source (no model call)"
	schemaReason       = "LLM output did not match schema after retry"
)

var debugLogger func(format string, args ...any)

// SetDebugLogger sets the debug logging function used by the pipeline.
func SetDebugLogger(logger func(format string, args ...any)) {
	debugLogger = logger
}

func logDebug(format string, args ...any) {
	if debugLogger != nil {
		debugLogger(format, args...)
	}
}

// History is the repository access a run needs. *git.Repo implements it.
type History interface {
	LatestTag(ref string) (string, bool, error)
	PreviousTag(tag string) (string, bool, error)
	FirstCommit() (string, error)
	DateForRef(ref string) (string, error)
	CommitsInRange(from, to string) ([]attribution.Commit, error)
	MergeCommits(from, to string) ([]attribution.MergeRecord, error)
	ExpandMerge() attribution.ExpandFunc
}

// GitHub is the hosting API a run reads from. *github.Client implements it.
type GitHub interface {
	ReleaseBody(ctx context.Context, tag string) string
	MapCommitsToPRs(ctx context.Context, shas []string, limit, concurrency int) map[string][]attribution.PullRef
	PullInfos(ctx context.Context, numbers []int, concurrency int) map[int]github.PullInfo
}

// Options are the per-run settings.
type Options struct {
	ChangelogPath string
	// DiffName labels the diff (default ChangelogPath).
	DiffName string
	// ReleaseTag, ReleaseName and ReleaseBody override detection when set.
	ReleaseTag  string
	ReleaseName string
	ReleaseBody string

	Repo changelog.Repo
	// ServerURL is the web root for compare links (default https://github.com).
	ServerURL string
	// MapCommits enables the commit-to-PR API lookup. It needs a token.
	MapCommits bool

	LookupLimit           int
	LookupConcurrency     int
	ChangelogPreviewLimit int
	TruncateLimit         int

	Labels       []string
	BranchPrefix string
	TitlePrefix  string

	// Now supplies the fallback date (default time.Now).
	Now func() time.Time
	// Warnf receives user-visible warnings.
	Warnf func(format string, args ...any)
	// Progress, when set, shows stage progress.
	Progress *progress.ProgressDisplay
}

// Deps are the collaborators of a run. Git is required.
type Deps struct {
	Git History
	// GitHub may be nil when the repository is unknown.
	GitHub GitHub
	// Classifier sorts release-note titles; nil classifies everything as
	// Chore before tuning.
	Classifier llm.Classifier
	// Generator writes a section from the commit log; nil uses the fallback.
	Generator llm.Generator
	// GeneratorUnavailable is recorded as the fallback reason when Generator is nil.
	GeneratorUnavailable string
	// Scorer defaults to the built-in rules and params.
	Scorer *classify.Scorer
}

// Result is the outcome of a run.
type Result struct {
	Version    string
	ReleaseRef string
	PrevRef    string
	Date       string

	Original string
	Updated  string
	Section  string
	Diff     string

	PRTitle string
	PRBody  string
	Labels  []string
	Branch  string

	Source  Source
	AIUsed  bool
	Reasons []string
	// Commits is the number of commits in the range.
	Commits int
}

// Changed reports whether the run modified the document.
func (r *Result) Changed() bool {
	return r.Original != r.Updated
}

// run holds the state shared by the steps of one Run.
type run struct {
	opts   Options
	deps   Deps
	stages *stageController

	releaseRef, prevRef, version, date string
	existing                           string
	commits                            []attribution.Commit
	merges                             []attribution.MergeRecord
	index                              *attribution.Index
	reasons                            []string
}

// Run computes the updated changelog for one release.
func Run(ctx context.Context, opts Options, deps Deps) (*Result, error) {
	if deps.Git == nil {
		return nil, errors.New("pipeline: git history is required")
	}
	if deps.Scorer == nil {
		rules, err := classify.LoadDefault()
		if err != nil {
			return nil, err
		}
		deps.Scorer = classify.NewScorer(rules, classify.DefaultParams())
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.ChangelogPath == "" {
		opts.ChangelogPath = changelog.DefaultDiffName
	}
	if opts.DiffName == "" {
		opts.DiffName = filepath.ToSlash(opts.ChangelogPath)
	}

	r := &run{opts: opts, deps: deps, stages: newStageController(opts.Progress)}
	steps := []struct {
		name string
		fn   func(context.Context) error
	}{
		{stageRefs, r.resolveRefs},
		{stageHistory, r.readHistory},
		{stageLookup, r.attribute},
	}
	for _, step := range steps {
		r.stages.start(step.name)
		if err := step.fn(ctx); err != nil {
			r.stages.fail(err)
			return nil, err
		}
		r.stages.done()
	}

	r.stages.start(stageCompose)
	out := r.compose(ctx)
	r.stages.done()

	r.stages.start(stageMerge)
	res := r.merge(out)
	r.stages.done()
	return res, nil
}

func (r *run) warnf(format string, args ...any) {
	if r.opts.Warnf != nil {
		r.opts.Warnf(format, args...)
	}
}

// resolveRefs picks the release ref, version, previous ref and date.
func (r *run) resolveRefs(context.Context) error {
	r.releaseRef = r.opts.ReleaseTag
	if r.releaseRef == "" {
		tag, ok, err := r.deps.Git.LatestTag(git.HeadRef)
		if err != nil {
			return fmt.Errorf("detecting latest tag: %w", err)
		}
		r.releaseRef = git.HeadRef
		if ok {
			r.releaseRef = tag
		}
	}
	if err := git.ValidateRef("release tag", r.releaseRef); err != nil {
		return err
	}

	r.version = r.opts.ReleaseName
	if r.version == "" {
		r.version = git.VersionFromRef(r.releaseRef)
	}

	prev, ok, err := r.deps.Git.PreviousTag(r.releaseRef)
	if err != nil {
		return fmt.Errorf("detecting previous tag of %s: %w", r.releaseRef, err)
	}
	if !ok {
		if prev, err = r.deps.Git.FirstCommit(); err != nil {
			return fmt.Errorf("finding first commit: %w", err)
		}
	}
	r.prevRef = prev

	date, err := r.deps.Git.DateForRef(r.releaseRef)
	if err != nil || date == "" {
		logDebug("[pipeline] no date for %s (%v), using today", r.releaseRef, err)
		date = r.opts.Now().UTC().Format(time.DateOnly)
	}
	r.date = date
	logDebug("[pipeline] range %s..%s version %s date %s", r.prevRef, r.releaseRef, r.version, r.date)
	return nil
}

func (r *run) readHistory(context.Context) error {
	existing, err := changelog.Read(r.opts.ChangelogPath)
	if err != nil {
		return err
	}
	r.existing = existing

	if r.commits, err = r.deps.Git.CommitsInRange(r.prevRef, r.releaseRef); err != nil {
		return fmt.Errorf("listing commits %s..%s: %w", r.prevRef, r.releaseRef, err)
	}
	if r.merges, err = r.deps.Git.MergeCommits(r.prevRef, r.releaseRef); err != nil {
		return fmt.Errorf("listing merges %s..%s: %w", r.prevRef, r.releaseRef, err)
	}
	logDebug("[pipeline] %d commits, %d merges", len(r.commits), len(r.merges))
	return nil
}

func (r *run) attribute(ctx context.Context) error {
	var external map[string][]attribution.PullRef
	if r.deps.GitHub != nil && r.opts.MapCommits && len(r.commits) > 0 {
		shas := make([]string, len(r.commits))
		for i, c := range r.commits {
			shas[i] = c.SHA
		}
		external = r.deps.GitHub.MapCommitsToPRs(ctx, shas, r.opts.LookupLimit, r.opts.LookupConcurrency)
	}
	r.index = attribution.Resolve(attribution.Input{
		Commits:  r.commits,
		Merges:   r.merges,
		External: external,
		Expand:   r.deps.Git.ExpandMerge(),
	})
	return ctx.Err()
}

// section is the composed content before merging.
type section struct {
	markdown       string
	anchor         string
	compareLine    string
	unreleasedLine string
	prTitle        string
	prBody         string
	labels         []string
	source         Source
}

func (r *run) compose(ctx context.Context) section {
	body := r.opts.ReleaseBody
	if body == "" && r.opts.ReleaseTag != "" && r.deps.GitHub != nil {
		body = r.deps.GitHub.ReleaseBody(ctx, r.opts.ReleaseTag)
	}
	notes := changelog.ParseReleaseNotes(body, r.opts.Repo)
	if len(notes.Items) > 0 {
		return r.fromReleaseNotes(ctx, notes)
	}
	return r.fromCommitLog(ctx, body)
}

func (r *run) defaultTitle() string {
	return r.opts.TitlePrefix + r.version
}

func (r *run) rangeBody(fallback bool) string {
	kind := "CHANGELOG"
	if fallback {
		kind = "CHANGELOG (fallback)"
	}
	return fmt.Sprintf("Auto-generated %s. Range: `%s..%s`", kind, r.prevRef, r.releaseRef)
}

func (r *run) fromReleaseNotes(ctx context.Context, notes changelog.ReleaseNotes) section {
	r.reasons = append(r.reasons, releaseNotesReason)
	r.attachPRs(notes.Items)
	r.enrichAuthors(ctx, notes.Items)

	titles := classify.TitlesForClassification(notes.Items, r.deps.Scorer)
	categories := r.classify(ctx, titles)
	categories = tune.Tune(notes.Items, categories, r.deps.Scorer)

	return section{
		markdown: changelog.BuildReleaseSection(r.version, r.date, notes, categories),
		prTitle:  r.defaultTitle(),
		prBody:   r.rangeBody(false),
		labels:   slices.Clone(r.opts.Labels),
		source:   SourceReleaseNotes,
	}
}

// attachPRs fills missing PR numbers from the title index and builds URLs.
func (r *run) attachPRs(items []changelog.Item) {
	for i := range items {
		item := &items[i]
		if item.PR == 0 {
			for _, t := range []string{item.Title, item.RawTitle} {
				if pr, ok := r.index.PRForTitle(t); ok && t != "" {
					item.PR = pr
					break
				}
			}
		}
		if item.PR > 0 && item.URL == "" && !r.opts.Repo.IsZero() {
			item.URL = r.opts.Repo.PullURL(item.PR)
		}
	}
}

// enrichAuthors looks up the author and URL of attributed items that lack one.
func (r *run) enrichAuthors(ctx context.Context, items []changelog.Item) {
	if r.deps.GitHub == nil {
		return
	}
	var numbers []int
	for _, item := range items {
		if item.PR > 0 && item.Author == "" && !slices.Contains(numbers, item.PR) {
			numbers = append(numbers, item.PR)
		}
	}
	if len(numbers) == 0 {
		return
	}
	infos := r.deps.GitHub.PullInfos(ctx, numbers, r.opts.LookupConcurrency)
	for _, n := range numbers {
		if _, ok := infos[n]; !ok {
			r.warnf("Failed to fetch PR #%d info", n)
		}
	}
	for i := range items {
		info, ok := infos[items[i].PR]
		if !ok || items[i].Author != "" {
			continue
		}
		if info.Author != "" {
			items[i].Author = info.Author
		}
		if info.URL != "" {
			items[i].URL = info.URL
		}
	}
}

// classify asks the external classifier and falls back to all-Chore.
// Titles the classifier left out are appended to Chore.
func (r *run) classify(ctx context.Context, titles []string) changelog.CategoryMap {
	if len(titles) == 0 {
		return changelog.CategoryMap{}
	}
	if r.deps.Classifier == nil {
		return classify.Fallback(titles)
	}
	categories := make([]string, len(changelog.Order))
	for i, c := range changelog.Order {
		categories[i] = string(c)
	}

	text, err := r.deps.Classifier.Classify(ctx, titles, categories)
	if err != nil {
		r.warnf("classifier failed, using Chore for every title: %v", err)
		return classify.Fallback(titles)
	}
	data, err := llm.ExtractJSONObject(text)
	if err != nil {
		r.warnf("classifier returned no JSON object, using Chore for every title")
		return classify.Fallback(titles)
	}
	parsed := classify.ParseCategoryMap(data)
	if !parsed.OK {
		r.warnf("classifier response rejected (%s), using Chore for every title", parsed.Reason)
		return classify.Fallback(titles)
	}
	if len(parsed.Dropped) > 0 {
		logDebug("[pipeline] classifier keys dropped: %s", strings.Join(parsed.Dropped, ", "))
	}
	return classify.FillMissing(parsed.Map, titles)
}

func (r *run) fromCommitLog(ctx context.Context, releaseBody string) section {
	in := llm.Input{
		Repo:             fullName(r.opts.Repo),
		Version:          r.version,
		Date:             r.date,
		ReleaseTag:       r.releaseRef,
		PrevTag:          r.prevRef,
		ReleaseBody:      releaseBody,
		GitLog:           r.gitLog(),
		MergedPRs:        r.mergeLog(),
		ChangelogPreview: llm.Truncate(r.existing, r.opts.ChangelogPreviewLimit),
		Language:         language,
	}

	if out, ok := r.generate(ctx, in); ok {
		s := section{
			markdown:       changelog.NormalizeSectionHeadings(out.NewSectionMarkdown),
			anchor:         out.InsertAfterAnchor,
			compareLine:    strings.TrimSpace(out.CompareLinkLine),
			unreleasedLine: strings.TrimSpace(out.UnreleasedCompareUpdate),
			prTitle:        out.PRTitle,
			prBody:         out.PRBody,
			labels:         out.Labels,
			source:         SourceModel,
		}
		if s.prTitle == "" {
			s.prTitle = r.defaultTitle()
		}
		if s.prBody == "" {
			s.prBody = r.rangeBody(false)
		}
		if len(s.labels) == 0 {
			s.labels = slices.Clone(r.opts.Labels)
		}
		return s
	}

	return section{
		markdown: changelog.FallbackSection(r.version, r.date, r.commits, r.index.PRsFor),
		prTitle:  r.defaultTitle(),
		prBody:   r.rangeBody(true),
		labels:   slices.Clone(r.opts.Labels),
		source:   SourceFallback,
	}
}

// generate calls the model and records why it was not used on failure.
func (r *run) generate(ctx context.Context, in llm.Input) (llm.Output, bool) {
	if r.deps.Generator == nil {
		reason := r.deps.GeneratorUnavailable
		if reason == "" {
			reason = "No model provider configured"
		}
		r.reasons = append(r.reasons, reason)
		return llm.Output{}, false
	}

	out, err := llm.GenerateWithRetry(ctx, r.deps.Generator, in, r.opts.TruncateLimit)
	if err != nil {
		var schemaErr *llm.SchemaError
		if errors.As(err, &schemaErr) {
			r.reasons = append(r.reasons, schemaReason)
		} else {
			r.reasons = append(r.reasons, "LLM generation failed: "+err.Error())
		}
		return llm.Output{}, false
	}
	if strings.TrimSpace(out.NewSectionMarkdown) == "" {
		r.reasons = append(r.reasons, "LLM returned an empty section")
		return llm.Output{}, false
	}
	return llm.SanitizeOutput(out), true
}

// gitLog renders "<short sha> <subject> (#N)" lines for the model. Subjects
// that already reference their PR are not suffixed again.
func (r *run) gitLog() string {
	lines := make([]string, 0, len(r.commits))
	for _, c := range r.commits {
		line := shortSHA(c.SHA) + " " + c.Subject
		if pr, ok := r.index.PrimaryPR(c.SHA); ok && !slices.Contains(attribution.InlineRefs(c.Subject), pr) {
			line += fmt.Sprintf(" (#%d)", pr)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

// mergeLog renders "<sha> <body>" lines, the shape of `git log --merges`.
func (r *run) mergeLog() string {
	lines := make([]string, 0, len(r.merges))
	for _, m := range r.merges {
		lines = append(lines, strings.TrimSpace(m.SHA+" "+m.Body))
	}
	return strings.Join(lines, "\n")
}

func fullName(repo changelog.Repo) string {
	if repo.IsZero() {
		return ""
	}
	return repo.Owner + "/" + repo.Name
}

func shortSHA(sha string) string {
	if len(sha) > shortSHALen {
		return sha[:shortSHALen]
	}
	return sha
}

func (r *run) merge(s section) *Result {
	md := changelog.Postprocess(s.markdown, r.index.Titles(), r.opts.Repo)

	compareLine, unreleasedLine := s.compareLine, s.unreleasedLine
	if !r.opts.Repo.IsZero() {
		cl, ul := changelog.EnsureCompareLinks(changelog.CompareOptions{
			ServerURL:  r.opts.ServerURL,
			Owner:      r.opts.Repo.Owner,
			Repo:       r.opts.Repo.Name,
			PrevRef:    r.prevRef,
			ReleaseRef: r.releaseRef,
			Version:    r.version,
			Existing:   r.existing,
		})
		if compareLine == "" {
			compareLine = cl
		}
		if unreleasedLine == "" {
			unreleasedLine = ul
		}
	}

	updated := changelog.Merge(r.existing, changelog.MergeOptions{
		Version:        r.version,
		Section:        md,
		Anchor:         s.anchor,
		CompareLine:    compareLine,
		UnreleasedLine: unreleasedLine,
	})

	prBody := s.prBody
	aiUsed := s.source == SourceModel
	if !aiUsed {
		if len(r.reasons) > 0 {
			prBody += fmt.Sprintf("\n\nNote: Generated without LLM. Reason: %s.", strings.Join(r.reasons, "; "))
		} else {
			prBody += "\n\nNote: Generated without LLM."
		}
	}

	return &Result{
		Version:    r.version,
		ReleaseRef: r.releaseRef,
		PrevRef:    r.prevRef,
		Date:       r.date,
		Original:   r.existing,
		Updated:    updated,
		Section:    md,
		Diff:       changelog.DiffNamed(r.opts.DiffName, r.existing, updated),
		PRTitle:    s.prTitle,
		PRBody:     prBody,
		Labels:     s.labels,
		Branch:     git.BranchName(r.opts.BranchPrefix, r.version),
		Source:     s.source,
		AIUsed:     aiUsed,
		Reasons:    slices.Clone(r.reasons),
		Commits:    len(r.commits),
	}
}
