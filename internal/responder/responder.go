// Package responder posts templated replies to mirrored issues that have
// not been answered yet. It is a thin collaborator around the same API
// client the monitor uses: scan, filter, comment.
package responder

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/similigh/mirror-bot/internal/core/config"
	"github.com/similigh/mirror-bot/internal/core/pipeline"
	"github.com/similigh/mirror-bot/internal/integrations/github"
	"github.com/similigh/mirror-bot/internal/steps"
)

// Signature marks the bot's own comments so a sweep never replies twice.
const Signature = "<!-- mirror-bot:auto-response -->"

// DefaultResponse is used when no template is configured for a category.
const DefaultResponse = `Thanks for the report. It has been queued for triage and the team will
follow up on this issue.`

// scanPageSize bounds one sweep to the most recent mirrored issues.
const scanPageSize = 30

// Responder performs one auto-response sweep over the target repository.
type Responder struct {
	github     pipeline.GitHubService
	cfg        *config.Config
	classifier *steps.Classifier
	dryRun     bool
}

// Summary reports what one sweep did.
type Summary struct {
	Scanned   int `json:"scanned"`
	Responded int `json:"responded"`
}

// New creates a responder.
func New(ghService pipeline.GitHubService, cfg *config.Config, dryRun bool) *Responder {
	return &Responder{
		github:     ghService,
		cfg:        cfg,
		classifier: steps.NewClassifier(cfg),
		dryRun:     dryRun,
	}
}

// Run sweeps open auto-detected issues and replies to the unanswered ones.
// Per-issue remote failures are logged and skipped; only a misconfigured
// target repository is an error.
func (r *Responder) Run(ctx context.Context) (*Summary, error) {
	targetOrg, targetRepo, err := github.SplitRepo(r.cfg.ResolveTargetRepo())
	if err != nil {
		return nil, fmt.Errorf("invalid target repo: %w", err)
	}

	issues, err := r.github.ListIssuesByLabel(ctx, targetOrg, targetRepo, steps.AutoDetectedLabel, scanPageSize)
	if err != nil {
		log.Printf("[responder] Failed to list auto-detected issues: %v", err)
		return &Summary{}, nil
	}

	summary := &Summary{}

	for _, issue := range issues {
		summary.Scanned++
		number := issue.GetNumber()

		answered, err := r.hasBotComment(ctx, targetOrg, targetRepo, number)
		if err != nil {
			// Cannot tell whether we already replied; skip rather than
			// risk a duplicate response.
			log.Printf("[responder] Failed to check comments on #%d: %v (skipping)", number, err)
			continue
		}
		if answered {
			continue
		}

		classification := r.classifier.Classify(issue.GetTitle(), issue.GetBody())
		body := r.responseFor(classification.Category)

		if r.dryRun {
			log.Printf("[responder] DRY-RUN: would reply to #%d (%s)", number, classification.Category)
			summary.Responded++
			continue
		}

		if err := r.github.CreateComment(ctx, targetOrg, targetRepo, number, body); err != nil {
			log.Printf("[responder] Failed to reply to #%d: %v", number, err)
			continue
		}

		log.Printf("[responder] Replied to #%d (%s)", number, classification.Category)
		summary.Responded++
	}

	return summary, nil
}

// hasBotComment reports whether the issue already carries a signed reply.
func (r *Responder) hasBotComment(ctx context.Context, org, repo string, number int) (bool, error) {
	comments, err := r.github.ListComments(ctx, org, repo, number)
	if err != nil {
		return false, err
	}
	for _, comment := range comments {
		if strings.Contains(comment.GetBody(), Signature) {
			return true, nil
		}
	}
	return false, nil
}

// responseFor renders the category template with the signature appended.
func (r *Responder) responseFor(category string) string {
	tpl := r.cfg.ResponseFor(category)
	if tpl == "" {
		tpl = DefaultResponse
	}
	return tpl + "\n\n" + Signature
}
