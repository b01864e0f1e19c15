package steps

import (
	"log"

	"github.com/similigh/mirror-bot/internal/core/pipeline"
	"github.com/similigh/mirror-bot/internal/utils/text"
)

// OwnerResolution determines the handle of the actual original reporter.
// Issues filed via forwarding flows often embed a link to the original
// report or a mention of the real complainant; the chain prefers the most
// specific signal first:
//
//  1. a cross-repository issue link in the body, resolved via the API
//  2. the leftmost @mention in the body
//  3. the reporting user's own handle
//
// Step 3 always terminates the chain. A fetch failure in step 1 falls
// through to step 2, never to an error.
type OwnerResolution struct {
	github pipeline.GitHubService
}

// NewOwnerResolution creates a new owner resolution step.
func NewOwnerResolution(deps *pipeline.Dependencies) *OwnerResolution {
	return &OwnerResolution{
		github: deps.GitHub,
	}
}

// Name returns the step name.
func (s *OwnerResolution) Name() string {
	return "owner_resolution"
}

// Run resolves the real owner and stores it in the context.
func (s *OwnerResolution) Run(ctx *pipeline.Context) error {
	ctx.RealOwner = s.Resolve(ctx)
	ctx.Result.RealOwner = ctx.RealOwner
	log.Printf("[owner_resolution] Resolved owner of %s: @%s", ctx.Issue.Key(), ctx.RealOwner)
	return nil
}

// Resolve walks the fallback chain for the context's issue.
func (s *OwnerResolution) Resolve(ctx *pipeline.Context) string {
	body := ctx.Issue.Body

	if ref, ok := text.FindIssueLink(body); ok && s.github != nil {
		original, err := s.github.GetIssue(ctx.Ctx, ref.Org, ref.Repo, ref.Number)
		if err == nil && original.GetUser().GetLogin() != "" {
			return original.GetUser().GetLogin()
		}
		if err != nil {
			log.Printf("[owner_resolution] Could not fetch %s/%s#%d: %v (falling back to mentions)",
				ref.Org, ref.Repo, ref.Number, err)
		}
	}

	if mention, ok := text.FirstMention(body); ok {
		return mention
	}

	return ctx.Issue.Author
}
