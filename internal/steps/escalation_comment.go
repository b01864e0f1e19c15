package steps

import (
	"log"
	"strings"

	"github.com/similigh/mirror-bot/internal/core/pipeline"
	"github.com/similigh/mirror-bot/internal/integrations/github"
)

// EscalationComment posts the configured follow-up comment on the mirrored
// issue, mentioning the resolved owner. It runs last because it needs the
// mirror's issue number.
type EscalationComment struct {
	github pipeline.GitHubService
	dryRun bool
}

// NewEscalationComment creates a new escalation comment step.
func NewEscalationComment(deps *pipeline.Dependencies) *EscalationComment {
	return &EscalationComment{
		github: deps.GitHub,
		dryRun: deps.DryRun,
	}
}

// Name returns the step name.
func (s *EscalationComment) Name() string {
	return "escalation_comment"
}

// Run posts the escalation comment. A failure is a logged warning, not a
// pipeline error: the mirror already exists and the issue stays processed.
func (s *EscalationComment) Run(ctx *pipeline.Context) error {
	// In dry-run no mirror number exists, so this check comes first.
	if s.dryRun {
		log.Printf("[escalation_comment] DRY-RUN: would notify @%s on the mirror of %s", ctx.RealOwner, ctx.Issue.Key())
		return nil
	}

	if ctx.MirrorNumber == 0 {
		log.Printf("[escalation_comment] No mirror created, skipping")
		return nil
	}

	body := RenderEscalation(ctx.Config.Escalation, ctx.RealOwner, ctx.Issue.SourceRepo(), ctx.Issue.URL)

	targetOrg, targetRepo, err := github.SplitRepo(ctx.Config.ResolveTargetRepo())
	if err != nil {
		log.Printf("[escalation_comment] Invalid target repo: %v", err)
		return nil
	}

	if err := s.github.CreateComment(ctx.Ctx, targetOrg, targetRepo, ctx.MirrorNumber, body); err != nil {
		log.Printf("[escalation_comment] WARNING: failed to comment on mirror #%d: %v", ctx.MirrorNumber, err)
		ctx.Result.Errors = append(ctx.Result.Errors, err.Error())
		return nil
	}

	ctx.Result.CommentPosted = true
	log.Printf("[escalation_comment] Notified @%s on mirror #%d", ctx.RealOwner, ctx.MirrorNumber)

	return nil
}

// RenderEscalation fills the escalation template placeholders.
func RenderEscalation(template, owner, sourceRepo, sourceURL string) string {
	r := strings.NewReplacer(
		"{{owner}}", owner,
		"{{source_repo}}", sourceRepo,
		"{{source_url}}", sourceURL,
	)
	return r.Replace(template)
}
