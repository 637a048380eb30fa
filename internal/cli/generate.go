package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ariel-frischer/changelog-bot/internal/changelog"
	"github.com/ariel-frischer/changelog-bot/internal/classify"
	"github.com/ariel-frischer/changelog-bot/internal/cli/shared"
	"github.com/ariel-frischer/changelog-bot/internal/config"
	clierrors "github.com/ariel-frischer/changelog-bot/internal/errors"
	"github.com/ariel-frischer/changelog-bot/internal/git"
	"github.com/ariel-frischer/changelog-bot/internal/github"
	"github.com/ariel-frischer/changelog-bot/internal/llm"
	"github.com/ariel-frischer/changelog-bot/internal/pipeline"
	"github.com/ariel-frischer/changelog-bot/internal/progress"
)

// generateFlags are the flags of 'generate'. Empty strings mean "use config".
type generateFlags struct {
	repoPath      string
	changelogPath string
	baseBranch    string
	provider      string
	releaseTag    string
	releaseName   string
	releaseBody   string
	dryRun        bool
	noPR          bool
}

var genFlags generateFlags

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Update the changelog for the latest release (default command)",
	Long: `Build the section of the release and merge it into the changelog.

The release is --release-tag, or the latest tag reachable from HEAD, or HEAD
itself (version 0.0.0-dev). The range starts at the previous tag, or the
first commit when there is none.

With --dry-run the diff and the updated document are printed and nothing is
written. Otherwise the file is written and, unless --no-pr is set, committed
on a new branch, pushed and proposed as a pull request.`,
	Example: `  changelog-bot generate --dry-run
  changelog-bot generate --release-tag v1.2.0 --release-name 1.2.0
  changelog-bot generate --provider none --no-pr
  changelog-bot generate --release-body "$(gh release view v1.2.0 --json body -q .body)"`,
	Args: argsWithUsage(cobra.NoArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGenerate(cmd, genFlags)
	},
}

func init() {
	generateCmd.GroupID = shared.GroupGenerate
	f := generateCmd.Flags()
	f.StringVar(&genFlags.repoPath, "repo-path", "", "Repository to read (default: current directory)")
	f.StringVar(&genFlags.changelogPath, "changelog-path", "", "Changelog file relative to the repository root (default from config: CHANGELOG.md)")
	f.StringVar(&genFlags.baseBranch, "base-branch", "", "Base branch of the pull request (default from config: main)")
	f.StringVar(&genFlags.provider, "provider", "", "Model provider: openai, anthropic, command or none")
	f.StringVar(&genFlags.releaseTag, "release-tag", "", "Release tag (default: latest tag reachable from HEAD)")
	f.StringVar(&genFlags.releaseName, "release-name", "", "Version label of the section (default: the tag without a leading v)")
	f.StringVar(&genFlags.releaseBody, "release-body", "", "Release notes to use instead of fetching them")
	f.BoolVar(&genFlags.dryRun, "dry-run", false, "Print the diff and the updated changelog without writing")
	f.BoolVar(&genFlags.noPR, "no-pr", false, "Write the changelog but do not open a pull request")
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, flags generateFlags) error {
	out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()

	repoPath := flags.repoPath
	if repoPath == "" {
		repoPath = "."
	}
	repo, err := git.Open(repoPath)
	if err != nil {
		if git.IsNotRepository(err) {
			return clierrors.NotARepository(repoPath)
		}
		return err
	}

	cfg, err := config.LoadWithOptions(config.LoadOptions{
		ProjectDir:    repo.Root(),
		ConfigPath:    configPath,
		WarningWriter: errOut,
	})
	if err != nil {
		return clierrors.ConfigInvalid(err)
	}
	if err := applyGenerateFlags(cfg, flags); err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if timeout := cfg.RunTimeout(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	err = generate(ctx, out, errOut, repo, cfg, flags)
	if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return clierrors.TimeoutError(cfg.RunTimeout().String())
	}
	return err
}

// applyGenerateFlags lays the flags over cfg and checks them.
func applyGenerateFlags(cfg *config.Configuration, flags generateFlags) error {
	if flags.changelogPath != "" {
		cfg.ChangelogPath = flags.changelogPath
	}
	if flags.baseBranch != "" {
		cfg.BaseBranch = flags.baseBranch
	}
	if flags.provider != "" {
		if !llm.ValidProvider(flags.provider) {
			return clierrors.InvalidProvider(flags.provider)
		}
		cfg.Provider = flags.provider
	}
	if flags.releaseTag != "" {
		if err := git.ValidateRef("release tag", flags.releaseTag); err != nil {
			return clierrors.UnsafeRef("release tag", flags.releaseTag)
		}
	}
	return nil
}

func generate(ctx context.Context, out, errOut io.Writer, repo *git.Repo, cfg *config.Configuration, flags generateFlags) error {
	warnf := func(format string, args ...any) {
		fmt.Fprintf(errOut, "%s %s\n", color.YellowString("Warning:"), fmt.Sprintf(format, args...))
	}

	ghRepo := resolveRepository(repo, cfg, warnf)
	creds := config.LoadCredentials(os.Getenv)

	var client *github.Client
	var token github.Token
	if !ghRepo.IsZero() {
		client = github.NewClient(cfg.APIBase, "", ghRepo)
		var err error
		token, err = client.ResolveToken(ctx, github.Credentials{
			Token:          creds.GitHubToken,
			AppID:          creds.AppID,
			PrivateKey:     creds.AppPrivateKey,
			InstallationID: creds.AppInstallationID,
		})
		if err != nil {
			warnf("GitHub authentication failed, continuing without a token: %v", err)
		}
		client.Token = token.Value
	}

	provider, unavailable, err := newProvider(cfg, creds)
	if err != nil {
		return err
	}
	if unavailable != "" && cfg.Provider != llm.ProviderNone {
		warnf("%s; the changelog is generated without a model", unavailable)
	}

	scorer, err := newScorer(cfg)
	if err != nil {
		return clierrors.ConfigInvalid(err)
	}

	changelogPath := cfg.ChangelogPath
	if !filepath.IsAbs(changelogPath) {
		changelogPath = filepath.Join(repo.Root(), changelogPath)
	}

	opts := pipeline.Options{
		ChangelogPath:         changelogPath,
		DiffName:              filepath.ToSlash(cfg.ChangelogPath),
		ReleaseTag:            flags.releaseTag,
		ReleaseName:           flags.releaseName,
		ReleaseBody:           flags.releaseBody,
		Repo:                  changelog.Repo{Owner: ghRepo.Owner, Name: ghRepo.Name},
		ServerURL:             serverURL(cfg.APIBase),
		MapCommits:            token.Value != "",
		LookupLimit:           cfg.LookupLimit,
		LookupConcurrency:     cfg.LookupConcurrency,
		ChangelogPreviewLimit: cfg.ChangelogPreviewLimit,
		TruncateLimit:         cfg.TruncateLimit,
		Labels:                cfg.PR.Labels,
		BranchPrefix:          cfg.PR.BranchPrefix,
		TitlePrefix:           cfg.PR.TitlePrefix,
		Warnf:                 warnf,
		Progress:              progress.NewProgressDisplay(progress.DetectTerminalCapabilities(shared.AsFile(errOut)), errOut),
	}
	deps := pipeline.Deps{
		Git:                  repo,
		GeneratorUnavailable: unavailable,
		Scorer:               scorer,
	}
	if client != nil {
		deps.GitHub = client
	}
	if provider != nil {
		deps.Classifier = provider
		deps.Generator = provider
	}

	res, err := pipeline.Run(ctx, opts, deps)
	if err != nil {
		var unsafe *git.UnsafeRefError
		var pathErr *fs.PathError
		switch {
		case errors.As(err, &unsafe):
			return clierrors.UnsafeRef(unsafe.Label, unsafe.Value)
		case errors.As(err, &pathErr):
			return clierrors.ChangelogUnreadable(cfg.ChangelogPath, err)
		}
		return err
	}

	if flags.dryRun {
		return printDryRun(out, cfg.ChangelogPath, res)
	}
	if !res.Changed() {
		fmt.Fprintf(out, "%s is already up to date for %s\n", cfg.ChangelogPath, res.Version)
		return nil
	}
	if err := changelog.Write(changelogPath, res.Updated); err != nil {
		return clierrors.ChangelogUnwritable(cfg.ChangelogPath, err)
	}
	fmt.Fprintf(out, "%s Updated %s (%s, %s)\n", color.GreenString("✓"), cfg.ChangelogPath, res.Version, res.Source)
	if flags.noPR {
		return nil
	}
	return openPullRequest(ctx, out, warnf, repo, client, token.Value, cfg, changelogPath, res)
}

// resolveRepository picks owner/name from config, then the origin remote.
func resolveRepository(repo *git.Repo, cfg *config.Configuration, warnf func(string, ...any)) github.Repo {
	if cfg.Repository != "" {
		r, err := github.ParseRepoFullName(cfg.Repository)
		if err == nil {
			return r
		}
		warnf("%v", err)
	}
	origin, err := repo.OriginURL()
	if err != nil {
		return github.Repo{}
	}
	r, err := github.RepoFromRemoteURL(origin)
	if err != nil {
		warnf("%v", err)
		return github.Repo{}
	}
	return r
}

// newProvider builds the model backend. A provider that cannot run for lack
// of a key yields the reason instead of an error.
func newProvider(cfg *config.Configuration, creds config.Credentials) (llm.Provider, string, error) {
	if cfg.Provider == llm.ProviderNone {
		return nil, "Provider is none", nil
	}
	provider, err := llm.New(llm.Options{
		Provider:      cfg.Provider,
		Model:         cfg.ModelFor(cfg.Provider),
		Command:       cfg.Command,
		OpenAIKey:     creds.OpenAIKey,
		AnthropicKey:  creds.AnthropicKey,
		OpenAIBase:    cfg.OpenAIBase,
		AnthropicBase: cfg.AnthropicBase,
	})
	if err != nil {
		var missing *llm.MissingKeyError
		if errors.As(err, &missing) {
			return nil, fmt.Sprintf("Missing API key for provider: %s", missing.Provider), nil
		}
		return nil, "", clierrors.ProviderFailed(cfg.Provider, err)
	}
	return provider, "", nil
}

func newScorer(cfg *config.Configuration) (*classify.Scorer, error) {
	rules, err := cfg.ClassifierRules()
	if err != nil {
		return nil, err
	}
	params, err := cfg.ClassifierParams()
	if err != nil {
		return nil, err
	}
	return classify.NewScorer(rules, params), nil
}

// serverURL derives the web root from the API base: api.github.com maps to
// github.com, and a GitHub Enterprise ".../api/v3" base to its host.
func serverURL(apiBase string) string {
	u, err := url.Parse(apiBase)
	if err != nil || u.Host == "" || u.Host == "api.github.com" {
		return "https://github.com"
	}
	return u.Scheme + "://" + u.Host
}

func printDryRun(out io.Writer, name string, res *pipeline.Result) error {
	bold := color.New(color.Bold).SprintFunc()
	fmt.Fprintf(out, "%s %s %s..%s (%s)\n\n", bold("Dry run:"), res.Version, res.PrevRef, res.ReleaseRef, res.Source)
	if !res.Changed() {
		fmt.Fprintf(out, "%s is already up to date.\n", name)
	} else if err := changelog.FormatDiff(res.Diff, out, changelog.FormatOptions{Plain: color.NoColor}); err != nil {
		return err
	}

	fmt.Fprintf(out, "\n%s\n\n%s\n", bold("Updated "+name+":"), strings.TrimRight(res.Updated, "\n"))
	fmt.Fprintf(out, "\n%s %s\n", bold("PR title:"), res.PRTitle)
	fmt.Fprintf(out, "%s %s\n", bold("Branch:"), res.Branch)
	fmt.Fprintf(out, "%s %s\n", bold("Labels:"), strings.Join(res.Labels, ", "))
	fmt.Fprintf(out, "%s\n%s\n", bold("PR body:"), res.PRBody)
	return nil
}

func openPullRequest(ctx context.Context, out io.Writer, warnf func(string, ...any), repo *git.Repo,
	client *github.Client, token string, cfg *config.Configuration, changelogPath string, res *pipeline.Result,
) error {
	if client == nil {
		return clierrors.MissingRepository()
	}
	if token == "" {
		return clierrors.MissingToken()
	}

	if _, err := repo.Publish(ctx, git.PublishOptions{
		Branch:  res.Branch,
		Paths:   []string{changelogPath},
		Message: res.PRTitle,
		Token:   token,
	}); err != nil {
		return clierrors.PublishFailed("pushing "+res.Branch, err)
	}

	number, err := client.CreatePullRequest(ctx, github.NewPullRequest{
		Title:  res.PRTitle,
		Body:   res.PRBody,
		Head:   res.Branch,
		Base:   cfg.BaseBranch,
		Labels: res.Labels,
	})
	if number == 0 {
		return clierrors.PublishFailed("opening the pull request", err)
	}
	if err != nil {
		warnf("%v", err)
	}
	fmt.Fprintf(out, "%s Created PR #%d\n", color.GreenString("✓"), number)
	return nil
}
