// This file (processor.go) contains the main orchestration logic for a metrics run.
// It coordinates the data collection process from validation through publishing: repository
// discovery, sequential per-repository collection, aggregation, and delivery of the snapshot.
//
// Key features:
//   - Config validated once before any network call.
//   - Sequential per-repository collection with partial-failure isolation.
//   - Dry-run mode for previewing a run.
//   - Rate limit reporting in the completion summary.
//   - Context-aware cancellation support.
package stats

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mona-actions/gh-community-metrics/internal/ghapi"
	"github.com/mona-actions/gh-community-metrics/internal/join"
	"github.com/mona-actions/gh-community-metrics/internal/metrics"
	"github.com/mona-actions/gh-community-metrics/internal/model"
	"github.com/mona-actions/gh-community-metrics/internal/output"
	"github.com/mona-actions/gh-community-metrics/internal/state"
	"github.com/pterm/pterm"
)

// Source is the upstream a run collects from. *ghapi.Client implements it.
type Source interface {
	FetchRepositories(ctx context.Context, org string) ([]model.Repository, error)
	FetchPullRequests(ctx context.Context, owner, repo string, cutoff time.Time) ([]model.PullRequest, error)
	FetchReviews(ctx context.Context, pr join.Key) []model.Review
	FetchIssues(ctx context.Context, owner, repo string, cutoff time.Time) ([]model.Issue, error)
}

// RepoStatus is the outcome of collecting one repository.
type RepoStatus string

// Repository outcomes.
const (
	RepoSuccess RepoStatus = output.StatusSuccess
	RepoPartial RepoStatus = output.StatusPartial
	RepoFailed  RepoStatus = output.StatusFailed
)

// RepoResult describes what a run collected from one repository.
type RepoResult struct {
	Repository   string
	Status       RepoStatus
	Reason       string // empty on success
	PullRequests int
	Reviews      int
	Issues       int
}

// Result is the outcome of a run.
type Result struct {
	RunID    string
	DryRun   bool
	Snapshot output.AnalyticsSnapshot
	Repos    []RepoResult
	Outputs  []PublishOutcome
	Duration time.Duration

	Collected Collected

	// Previous is the snapshot currently at the output path. Only set by a dry run.
	Previous output.AnalyticsSnapshot
}

// Collected counts the records a run gathered before aggregation.
type Collected struct {
	ReviewedPullRequests int // pull requests whose reviews were fetched
	Reviews              int
	IndexedRecords       int // pull requests and issues linked to a repository
	APICalls             int64
}

// Option customizes a Runner.
type Option func(*Runner)

// WithSource replaces the GitHub client, mainly for tests.
func WithSource(src Source) Option {
	return func(r *Runner) { r.source = src }
}

// WithSinks replaces the sinks derived from the configuration.
func WithSinks(sinks ...output.Sink) Option {
	return func(r *Runner) { r.sinks = sinks }
}

// WithClock sets the time source. The clock is read once for the cutoff and once for aggregation.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

// WithSleep replaces every wait of the run: API pacing and publish backoff.
func WithSleep(sleep ghapi.SleepFunc) Option {
	return func(r *Runner) { r.sleep = sleep }
}

// WithStatus sets the status that collects counters for the run.
func WithStatus(status *state.Status) Option {
	return func(r *Runner) { r.status = status }
}

// WithHTTPClient sets the base HTTP client the GitHub client wraps.
func WithHTTPClient(hc *http.Client) Option {
	return func(r *Runner) { r.httpClient = hc }
}

// WithRunID fixes the run ID instead of generating one.
func WithRunID(id string) Option {
	return func(r *Runner) { r.runID = id }
}

// Runner executes one metrics run for one organization.
type Runner struct {
	cfg        Config
	source     Source
	sinks      []output.Sink
	status     *state.Status
	now        func() time.Time
	sleep      ghapi.SleepFunc
	httpClient *http.Client
	runID      string
}

// NewRunner validates cfg and prepares a run. It returns ghapi.ErrCredentialMissing when no token
// is configured, unless cfg.DryRun is set or a Source is supplied. The token is checked before
// the rest of cfg, so a missing token is reported even when other settings are also invalid.
func NewRunner(cfg Config, opts ...Option) (*Runner, error) {
	r := &Runner{}
	for _, opt := range opts {
		opt(r)
	}

	if r.source == nil && !cfg.DryRun && strings.TrimSpace(cfg.Token) == "" {
		return nil, ghapi.ErrCredentialMissing
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	r.cfg = cfg

	if r.now == nil {
		r.now = time.Now
	}
	if r.sleep == nil {
		r.sleep = ghapi.SleepContext
	}
	if r.status == nil {
		r.status = state.New()
	}
	if r.runID == "" {
		r.runID = uuid.NewString()
	}

	if r.source == nil && !cfg.DryRun {
		client, err := ghapi.NewClient(ghapi.ClientConfig{
			Token:      cfg.Token,
			BaseURL:    cfg.APIURL,
			UserAgent:  userAgent(cfg.Version),
			Timeout:    cfg.RequestTimeout,
			Status:     r.status,
			Sleep:      r.sleep,
			HTTPClient: r.httpClient,
		})
		if err != nil {
			return nil, err
		}
		r.source = client
	}

	if r.sinks == nil {
		sinks, err := defaultSinks(cfg)
		if err != nil {
			return nil, err
		}
		r.sinks = sinks
	}

	return r, nil
}

func userAgent(version string) string {
	if version == "" {
		return ghapi.DefaultUserAgent
	}
	return ghapi.DefaultUserAgent + "/" + version
}

// defaultSinks returns the file sink plus the object store sink when one is configured.
func defaultSinks(cfg Config) ([]output.Sink, error) {
	sinks := []output.Sink{output.NewFileSink(cfg.OutputFile)}
	if cfg.ObjectStore.Enabled() {
		store, err := output.NewObjectStoreSink(cfg.ObjectStore)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, store)
	}
	return sinks, nil
}

// RunID returns the identifier of this run.
func (r *Runner) RunID() string {
	return r.runID
}

// Status returns the counters of this run.
func (r *Runner) Status() *state.Status {
	return r.status
}

// accumulator collects everything fetched during a run.
type accumulator struct {
	prs     []model.PullRequest
	issues  []model.Issue
	reviews *join.ReviewSet[model.Review]
	index   join.RepoIndex
}

func newAccumulator() *accumulator {
	return &accumulator{
		prs:     []model.PullRequest{},
		issues:  []model.Issue{},
		reviews: join.NewReviewSet[model.Review](),
		index:   join.NewRepoIndex(),
	}
}

// Run collects, aggregates, and publishes one snapshot.
//
// Returns:
//   - the Result and nil when every sink was served (directly or through a recovery file)
//   - ghapi errors wrapped with context when the repository listing fails
//   - a cancellation error when ctx is done between repositories
//   - the Result and a publish error when neither a sink nor its recovery file could be written
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	if r.cfg.Verbose {
		pterm.EnableDebugMessages()
	}

	printBanner(r.cfg.Version)

	if r.cfg.DryRun {
		return r.runDryRun(), nil
	}

	startTime := r.now()
	cutoff := startTime.Add(-r.cfg.Lookback())
	output.PrintOrgHeader(r.cfg.Organization, r.runID)

	spinner, _ := pterm.DefaultSpinner.WithRemoveWhenDone(true).Start("Fetching repositories...")
	repos, err := r.source.FetchRepositories(ctx, r.cfg.Organization)
	if spinner != nil {
		_ = spinner.Stop()
	}
	if err != nil {
		return nil, fmt.Errorf("fetching repositories for %s: %w", r.cfg.Organization, err)
	}

	found := len(repos)
	if len(repos) > r.cfg.MaxRepos {
		repos = repos[:r.cfg.MaxRepos]
	}
	r.status.AddRepos(len(repos))
	output.PrintRepoDiscovery(output.RepoDiscovery{
		Found:     found,
		Selected:  len(repos),
		MaxRepos:  r.cfg.MaxRepos,
		Lookback:  r.cfg.Lookback(),
		CutoffUTC: cutoff.UTC(),
	})

	output.PrintRepoProcessingHeader(len(repos))

	acc := newAccumulator()
	result := &Result{RunID: r.runID, Repos: make([]RepoResult, 0, len(repos))}

	for i, repo := range repos {
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil, fmt.Errorf("operation cancelled by user: %w", ctx.Err())
			}
			return nil, fmt.Errorf("operation cancelled: %w", ctx.Err())
		default:
		}

		res := r.collectRepository(ctx, repo, cutoff, acc)
		result.Repos = append(result.Repos, res)

		r.status.RecordRepo(res.Status == RepoPartial, res.Status == RepoFailed)
		output.PrintRepoProgress(output.RepoProgress{
			Current: i + 1,
			Total:   len(repos),
			Name:    res.Repository,
			Status:  string(res.Status),
			PRs:     res.PullRequests,
			Reviews: res.Reviews,
			Issues:  res.Issues,
			Reason:  res.Reason,
		})
	}

	result.Collected = Collected{
		ReviewedPullRequests: acc.reviews.Len(),
		Reviews:              acc.reviews.Total(),
		IndexedRecords:       acc.index.Len(),
		APICalls:             r.status.GetAPICalls(),
	}
	pterm.Println()
	pterm.Info.Printf("📦 Collected %d reviews on %d pull requests, %d records indexed, %d API calls\n",
		result.Collected.Reviews, result.Collected.ReviewedPullRequests,
		result.Collected.IndexedRecords, result.Collected.APICalls)
	r.status.PrintRateLimit()

	now := r.now()
	result.Snapshot = buildSnapshot(r.cfg.Organization, len(repos), acc, now)

	output.PrintSectionHeader("Community Metrics")
	output.PrintMetricsOverview(result.Snapshot)

	publishErr := r.publish(ctx, result, now)
	result.Duration = r.now().Sub(startTime)
	r.printSummary(result)

	if publishErr != nil {
		return result, publishErr
	}
	return result, nil
}

// collectRepository fetches one repository's pull requests, their reviews, and its issues.
// Each stage appends to acc as soon as it completes, so a later failure keeps earlier data.
func (r *Runner) collectRepository(ctx context.Context, repo model.Repository, cutoff time.Time, acc *accumulator) RepoResult {
	res := RepoResult{Repository: repo.Name, Status: RepoSuccess}

	prs, err := r.source.FetchPullRequests(ctx, repo.Owner, repo.Name, cutoff)
	if err != nil {
		res.Status = RepoFailed
		res.Reason = fmt.Sprintf("pull requests: %v", err)
		return res
	}
	for _, pr := range prs {
		acc.index.Record(pr.Key, repo.Name)
	}
	acc.prs = append(acc.prs, prs...)
	res.PullRequests = len(prs)

	for _, pr := range prs {
		if ctx.Err() != nil {
			res.Status = RepoPartial
			res.Reason = fmt.Sprintf("reviews: %v", ctx.Err())
			return res
		}
		acc.reviews.Add(pr.Key)
		for _, rv := range r.source.FetchReviews(ctx, pr.Key) {
			if rv.PullKey.IsZero() {
				rv.PullKey = pr.Key
			}
			acc.reviews.Add(rv.PullKey, rv)
			res.Reviews++
		}
	}

	issues, err := r.source.FetchIssues(ctx, repo.Owner, repo.Name, cutoff)
	if err != nil {
		res.Status = RepoPartial
		res.Reason = fmt.Sprintf("issues: %v", err)
		return res
	}
	for _, is := range issues {
		acc.index.Record(is.Key, repo.Name)
	}
	acc.issues = append(acc.issues, issues...)
	res.Issues = len(issues)

	return res
}

// buildSnapshot runs both aggregators against the same instant.
func buildSnapshot(org string, repoCount int, acc *accumulator, now time.Time) output.AnalyticsSnapshot {
	return output.AnalyticsSnapshot{
		Organization:    org,
		GeneratedAt:     now.UTC(),
		ReviewMetrics:   metrics.AggregateReviews(acc.prs, acc.reviews, acc.index, now),
		IssueMetrics:    metrics.AggregateIssues(acc.issues, acc.index, now),
		RepositoryCount: repoCount,
	}
}

// publish delivers the snapshot to every sink and joins the failures that could not be recovered.
func (r *Runner) publish(ctx context.Context, result *Result, now time.Time) error {
	recoveryFile := recoveryPath(r.cfg.OutputFile, r.cfg.Organization, now)

	var errs []error
	for _, sink := range r.sinks {
		outcome := publishWithRetry(ctx, sink, result.Snapshot, recoveryFile, r.sleep)
		result.Outputs = append(result.Outputs, outcome)
		switch {
		case outcome.Err != nil:
			r.status.Errorf("❌ %v\n", outcome.Err)
			errs = append(errs, outcome.Err)
		case outcome.RecoveryFile != "":
			r.status.Warnf("⚠️  %s unavailable, snapshot kept in %s\n", outcome.Target, outcome.RecoveryFile)
		default:
			pterm.Success.Printf("💾 Snapshot published to %s\n", outcome.Target)
		}
	}
	return errors.Join(errs...)
}

func (r *Runner) printSummary(result *Result) {
	snap := r.status.Snapshot()

	targets := make([]string, 0, len(result.Outputs))
	for _, o := range result.Outputs {
		switch {
		case o.Err != nil:
		case o.RecoveryFile != "":
			targets = append(targets, o.RecoveryFile)
		default:
			targets = append(targets, o.Target)
		}
	}

	quota := int64(-1)
	if snap.RateLimit.Observed {
		quota = snap.RateLimit.Remaining
	}

	output.PrintCompletionSummary(output.CompletionSummary{
		RunID:          result.RunID,
		RepoCount:      len(result.Repos),
		Succeeded:      int(snap.Succeeded()),
		Partial:        int(snap.Partial),
		Failed:         int(snap.Failed),
		Outputs:        targets,
		Duration:       result.Duration,
		APICalls:       snap.APICalls,
		QuotaRemaining: quota,
		QuotaReset:     snap.RateLimit.Reset,
		Warnings:       int(snap.Warnings),
		Errors:         int(snap.Errors),
	})
}

// runDryRun shows what a run would do without making API calls.
func (r *Runner) runDryRun() *Result {
	targets := make([]string, 0, len(r.sinks))
	for _, s := range r.sinks {
		targets = append(targets, s.Name())
	}

	output.PrintDryRun(output.DryRunPlan{
		Organization: r.cfg.Organization,
		APIURL:       r.cfg.APIURL,
		MaxRepos:     r.cfg.MaxRepos,
		LookbackDays: r.cfg.LookbackDays,
		Targets:      targets,
	})

	previous, err := output.ReadSnapshot(r.cfg.OutputFile)
	switch {
	case err != nil:
		previous = output.AnalyticsSnapshot{}
		pterm.Warning.Printf("⚠️  Existing snapshot is unreadable and would be replaced: %v\n", err)
	case !previous.GeneratedAt.IsZero():
		pterm.Info.Printf("📄 Existing snapshot for %s generated at %s would be replaced\n",
			previous.Organization, previous.GeneratedAt.Format(time.RFC3339))
	}

	pterm.Warning.Println("⚠️  Estimated API usage:")
	pterm.Warning.Printf("  1 call per %d repositories listed\n", ghapi.PageSize)
	pterm.Warning.Println("  Per repository: 1+ calls for pull requests, 1 per pull request for reviews, 1+ for issues")
	pterm.Println()

	pterm.Success.Println("✓ Dry run complete. Remove --dry-run flag to start actual collection.")
	return &Result{RunID: r.runID, DryRun: true, Previous: previous}
}

// printBanner displays the startup banner with version information.
func printBanner(version string) {
	if version == "" {
		version = "dev"
	}

	banner := fmt.Sprintf(`
    ██████╗ ██╗  ██╗     ██████╗ ██████╗ ███╗   ███╗███╗   ███╗██╗   ██╗███╗   ██╗██╗████████╗██╗   ██╗
   ██╔════╝ ██║  ██║    ██╔════╝██╔═══██╗████╗ ████║████╗ ████║██║   ██║████╗  ██║██║╚══██╔══╝╚██╗ ██╔╝
   ██║  ███╗███████║    ██║     ██║   ██║██╔████╔██║██╔████╔██║██║   ██║██╔██╗ ██║██║   ██║    ╚████╔╝
   ██║   ██║██╔══██║    ██║     ██║   ██║██║╚██╔╝██║██║╚██╔╝██║██║   ██║██║╚██╗██║██║   ██║     ╚██╔╝
   ╚██████╔╝██║  ██║    ╚██████╗╚██████╔╝██║ ╚═╝ ██║██║ ╚═╝ ██║╚██████╔╝██║ ╚████║██║   ██║      ██║
    ╚═════╝ ╚═╝  ╚═╝     ╚═════╝ ╚═════╝ ╚═╝     ╚═╝╚═╝     ╚═╝ ╚═════╝ ╚═╝  ╚═══╝╚═╝   ╚═╝      ╚═╝
   📊 GitHub Community Metrics • %s
`, version)

	pterm.DefaultBox.WithBoxStyle(pterm.NewStyle(pterm.FgCyan)).
		WithHorizontalString("═").
		WithVerticalString("║").
		Println(banner)
	pterm.Println()
}

// RunWithContext validates config, runs one collection, and publishes the snapshot.
// It is the entry point used by the CLI.
func RunWithContext(ctx context.Context, config Config) error {
	runner, err := NewRunner(config)
	if err != nil {
		return err
	}
	_, err = runner.Run(ctx)
	return err
}
