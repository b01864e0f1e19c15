package steps

import (
	"fmt"
	"log"
	"strings"
	"time"

	gh "github.com/google/go-github/v60/github"

	"github.com/similigh/mirror-bot/internal/core/pipeline"
	"github.com/similigh/mirror-bot/internal/integrations/github"
)

// MirrorTitlePrefix marks mirrored issues in the target repository.
const MirrorTitlePrefix = "[AUTO] "

// AutoDetectedLabel tags every mirrored issue; the responder keys off it.
const AutoDetectedLabel = "auto-detected"

// MirrorCreator assembles and creates the mirrored issue in the target
// repository: structured body with source metadata and duplicate hints,
// labels derived from the classification, assignee from the team table.
type MirrorCreator struct {
	github pipeline.GitHubService
	dryRun bool
}

// NewMirrorCreator creates a new mirror creator step.
func NewMirrorCreator(deps *pipeline.Dependencies) *MirrorCreator {
	return &MirrorCreator{
		github: deps.GitHub,
		dryRun: deps.DryRun,
	}
}

// Name returns the step name.
func (s *MirrorCreator) Name() string {
	return "mirror_creator"
}

// Run creates the mirrored issue. A failure here aborts the rest of this
// issue's pipeline; the caller still records the issue as processed so a
// permanently failing item is never retried forever.
func (s *MirrorCreator) Run(ctx *pipeline.Context) error {
	title := MirrorTitlePrefix + ctx.Issue.Title
	body := ComposeMirrorBody(ctx)
	labels := MirrorLabels(ctx)

	req := &gh.IssueRequest{
		Title:  gh.String(title),
		Body:   gh.String(body),
		Labels: &labels,
	}

	if assignee := ctx.Config.AssigneeFor(ctx.Classification.Category); assignee != "" {
		req.Assignees = &[]string{assignee}
	}

	if s.dryRun {
		log.Printf("[mirror_creator] DRY-RUN: would create %q with labels %v", title, labels)
		return nil
	}

	if s.github == nil {
		return fmt.Errorf("no GitHub client configured")
	}

	targetOrg, targetRepo, err := github.SplitRepo(ctx.Config.ResolveTargetRepo())
	if err != nil {
		return err
	}

	mirror, err := s.github.CreateIssue(ctx.Ctx, targetOrg, targetRepo, req)
	if err != nil {
		return fmt.Errorf("failed to create mirrored issue: %w", err)
	}

	ctx.MirrorNumber = mirror.GetNumber()
	ctx.MirrorURL = mirror.GetHTMLURL()
	ctx.Result.MirrorNumber = ctx.MirrorNumber
	ctx.Result.MirrorURL = ctx.MirrorURL

	log.Printf("[mirror_creator] Created mirror #%d for %s", ctx.MirrorNumber, ctx.Issue.Key())

	return nil
}

// ComposeMirrorBody builds the structured body of the mirrored issue.
func ComposeMirrorBody(ctx *pipeline.Context) string {
	issue := ctx.Issue

	description := strings.TrimSpace(issue.Body)
	if description == "" {
		description = "*No description provided*"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "## Auto-detected issue from %s\n\n", issue.SourceRepo())
	fmt.Fprintf(&sb, "**Original issue:** %s\n", issue.URL)
	fmt.Fprintf(&sb, "**Reported by:** @%s\n", issue.Author)
	fmt.Fprintf(&sb, "**Original reporter:** @%s\n", ctx.RealOwner)
	fmt.Fprintf(&sb, "**Created:** %s\n", issue.CreatedAt.UTC().Format(time.RFC3339))
	fmt.Fprintf(&sb, "**Priority:** `%s`\n", ctx.Classification.Priority)
	sb.WriteString("\n---\n\n### Original description\n\n")
	sb.WriteString(description)

	if len(ctx.Duplicates) > 0 {
		sb.WriteString("\n\n## Possible duplicates\n\n")
		limit := ctx.Config.Defaults.MaxDuplicatesToShow
		if limit <= 0 || limit > len(ctx.Duplicates) {
			limit = len(ctx.Duplicates)
		}
		for _, dup := range ctx.Duplicates[:limit] {
			fmt.Fprintf(&sb, "- #%d: [%s](%s) (similarity: %.0f%%)\n",
				dup.Number, dup.Title, dup.URL, dup.Similarity*100)
		}
	}

	sb.WriteString("\n\n---\n\n*Automatically imported by Mirror-Bot for triage.*\n")

	return sb.String()
}

// MirrorLabels derives the label set for the mirrored issue.
func MirrorLabels(ctx *pipeline.Context) []string {
	labels := []string{
		AutoDetectedLabel,
		ctx.Classification.Priority,
		ctx.Classification.Category,
		"source:" + ctx.Issue.Org,
	}
	if len(ctx.Duplicates) > 0 {
		labels = append(labels, "possible-duplicate")
	}
	return labels
}
