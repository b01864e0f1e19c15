// Package monitor orchestrates one monitoring pass: rate check, incremental
// fetch per source repository, per-issue evaluation through the step
// pipeline, and the final checkpoint update.
package monitor

import (
	"context"
	"fmt"
	"log"
	"time"

	gh "github.com/google/go-github/v60/github"
	"github.com/google/uuid"

	"github.com/similigh/mirror-bot/internal/core/config"
	"github.com/similigh/mirror-bot/internal/core/pipeline"
	"github.com/similigh/mirror-bot/internal/core/state"
	"github.com/similigh/mirror-bot/internal/integrations/github"
	"github.com/similigh/mirror-bot/internal/steps"
)

// Monitor runs monitoring passes. Single-threaded by design: one pass is a
// finite, sequential walk over the configured repositories.
type Monitor struct {
	github    pipeline.GitHubService
	store     *state.Store
	cfg       *config.Config
	deps      *pipeline.Dependencies
	stepNames []string
}

// Summary reports what one pass did.
type Summary struct {
	RunID        string    `json:"run_id"`
	StartedAt    time.Time `json:"started_at"`
	Aborted      bool      `json:"aborted"`
	AbortReason  string    `json:"abort_reason,omitempty"`
	ReposChecked int       `json:"repos_checked"`
	NewIssues    int       `json:"new_issues"`
	Matched      int       `json:"matched"`
	Mirrored     int       `json:"mirrored"`
	TrackedTotal int       `json:"tracked_total"`
	RepoErrors   []string  `json:"repo_errors,omitempty"`
}

// New creates a monitor over the given client, state store and config.
func New(ghService pipeline.GitHubService, store *state.Store, cfg *config.Config, dryRun bool) *Monitor {
	return &Monitor{
		github:    ghService,
		store:     store,
		cfg:       cfg,
		deps:      &pipeline.Dependencies{GitHub: ghService, DryRun: dryRun},
		stepNames: pipeline.ResolveSteps(nil, "issue-mirror"),
	}
}

// Run executes one monitoring pass. Remote failures are absorbed per repo
// and per issue; only persistence failures are returned as errors, since
// losing continuity state risks unbounded reprocessing.
func (m *Monitor) Run(ctx context.Context) (*Summary, error) {
	summary := &Summary{
		RunID:     uuid.New().String(),
		StartedAt: time.Now().UTC(),
	}

	// Conservative reserve so a burst of creates cannot exhaust the quota
	// mid-pass. Abort happens before any state mutation.
	remaining, err := m.github.RateLimitRemaining(ctx)
	if err != nil {
		log.Printf("[monitor] Failed to read rate limit: %v", err)
		remaining = 0
	}
	if remaining < m.cfg.Defaults.RateLimitReserve {
		summary.Aborted = true
		summary.AbortReason = fmt.Sprintf("rate limit too low: %d remaining, reserve is %d",
			remaining, m.cfg.Defaults.RateLimitReserve)
		summary.TrackedTotal = m.store.Len()
		return summary, nil
	}

	since := m.store.LastCheckTime()
	log.Printf("[monitor] Run %s continuing from %s", summary.RunID, since.Format(time.RFC3339))

	registry := pipeline.NewRegistry()
	steps.RegisterAll(registry)
	pipe, err := registry.BuildFromNames(m.stepNames, m.deps)
	if err != nil {
		return summary, fmt.Errorf("failed to build pipeline: %w", err)
	}

	for _, full := range m.cfg.MonitoredRepos {
		org, repo, err := github.SplitRepo(full)
		if err != nil {
			log.Printf("[monitor] Skipping misconfigured repo %q: %v", full, err)
			continue
		}

		issues, err := m.github.ListIssuesSince(ctx, org, repo, since, m.cfg.Defaults.PerPage)
		if err != nil {
			// One repo's failure must not abort the pass for the rest.
			log.Printf("[monitor] Failed to fetch issues from %s: %v", full, err)
			summary.RepoErrors = append(summary.RepoErrors, fmt.Sprintf("%s: %v", full, err))
			continue
		}
		summary.ReposChecked++

		for _, raw := range issues {
			issue := issueFromAPI(org, repo, raw)
			key := issue.Key()

			if m.store.Seen(key) {
				continue
			}
			summary.NewIssues++

			pctx := pipeline.NewContext(ctx, issue, m.cfg)
			if err := pipe.Run(pctx); err != nil {
				// Logged, not retried within the pass. The issue is still
				// recorded below so a permanently failing item cannot be
				// reprocessed forever.
				log.Printf("[monitor] WARNING: evaluation of %s failed: %v", key, err)
			}

			m.store.Record(key)

			if !pctx.Result.Skipped {
				summary.Matched++
			}
			if pctx.MirrorNumber != 0 || (m.deps.DryRun && !pctx.Result.Skipped) {
				summary.Mirrored++
			}
		}
	}

	// Processed set first, checkpoint second: a crash between the two can
	// only cause bounded, idempotent reprocessing, never a permanent skip.
	if err := m.store.PersistProcessed(); err != nil {
		return summary, err
	}
	if err := m.store.PersistCheckpoint(time.Now().UTC()); err != nil {
		return summary, err
	}

	summary.TrackedTotal = m.store.Len()
	log.Printf("[monitor] Run %s complete: %d new, %d matched, %d mirrored, %d tracked",
		summary.RunID, summary.NewIssues, summary.Matched, summary.Mirrored, summary.TrackedTotal)

	return summary, nil
}

// issueFromAPI converts an API issue into the pipeline's snapshot form.
func issueFromAPI(org, repo string, raw *gh.Issue) *pipeline.Issue {
	return &pipeline.Issue{
		Org:       org,
		Repo:      repo,
		Number:    raw.GetNumber(),
		Title:     raw.GetTitle(),
		Body:      raw.GetBody(),
		Author:    raw.GetUser().GetLogin(),
		URL:       raw.GetHTMLURL(),
		CreatedAt: raw.GetCreatedAt().Time,
	}
}
