package steps

import (
	"log"

	"github.com/similigh/mirror-bot/internal/core/pipeline"
	"github.com/similigh/mirror-bot/internal/integrations/github"
	"github.com/similigh/mirror-bot/internal/utils/text"
)

// duplicateScanPageSize bounds the dedup scan to the most recent open issues.
const duplicateScanPageSize = 50

// DuplicateCheck scores the candidate title against the open issues already
// in the target repository and keeps matches at or above the similarity
// threshold. Only titles are compared; bodies are ignored. Matches stay in
// API return order, they are not re-ranked by similarity.
type DuplicateCheck struct {
	github pipeline.GitHubService
}

// NewDuplicateCheck creates a new duplicate check step.
func NewDuplicateCheck(deps *pipeline.Dependencies) *DuplicateCheck {
	return &DuplicateCheck{
		github: deps.GitHub,
	}
}

// Name returns the step name.
func (s *DuplicateCheck) Name() string {
	return "duplicate_check"
}

// Run scans the target repository for near-duplicate titles.
// An API failure degrades to "no duplicates found": a missed duplicate hint
// must not abort the mirroring of a matched issue.
func (s *DuplicateCheck) Run(ctx *pipeline.Context) error {
	if s.github == nil {
		log.Printf("[duplicate_check] No GitHub client, skipping")
		return nil
	}

	targetOrg, targetRepo, err := github.SplitRepo(ctx.Config.ResolveTargetRepo())
	if err != nil {
		log.Printf("[duplicate_check] Invalid target repo, skipping: %v", err)
		return nil
	}

	existing, err := s.github.ListOpenIssues(ctx.Ctx, targetOrg, targetRepo, duplicateScanPageSize)
	if err != nil {
		log.Printf("[duplicate_check] Failed to list target issues: %v (continuing without dedup)", err)
		return nil
	}

	threshold := ctx.Config.Defaults.SimilarityThreshold

	var duplicates []pipeline.DuplicateMatch
	for _, issue := range existing {
		similarity := text.Ratio(ctx.Issue.Title, issue.GetTitle())
		if similarity >= threshold {
			duplicates = append(duplicates, pipeline.DuplicateMatch{
				Number:     issue.GetNumber(),
				Title:      issue.GetTitle(),
				URL:        issue.GetHTMLURL(),
				Similarity: similarity,
			})
		}
	}

	ctx.Duplicates = duplicates
	ctx.Result.Duplicates = duplicates

	if len(duplicates) > 0 {
		log.Printf("[duplicate_check] Found %d possible duplicate(s) for %s", len(duplicates), ctx.Issue.Key())
	}

	return nil
}
