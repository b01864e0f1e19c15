// Package pipeline provides the core pipeline engine for Mirror-Bot.
// It defines the Step interface and Context structure used by all pipeline steps.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	gh "github.com/google/go-github/v60/github"

	"github.com/similigh/mirror-bot/internal/core/config"
)

// ErrSkipPipeline indicates that the pipeline should stop gracefully.
// This is not an error condition, just an early exit (e.g., no keyword match).
var ErrSkipPipeline = errors.New("skip remaining pipeline steps")

// Step defines the interface that all pipeline steps must implement.
type Step interface {
	// Name returns the unique identifier for this step.
	Name() string

	// Run executes the step's logic.
	// It should return ErrSkipPipeline to stop the pipeline gracefully,
	// or any other error to indicate failure.
	Run(ctx *Context) error
}

// GitHubService is the GitHub API surface the pipeline steps and the
// synchronizer depend on. The concrete implementation lives in
// internal/integrations/github; tests substitute fakes.
type GitHubService interface {
	ListIssuesSince(ctx context.Context, org, repo string, since time.Time, perPage int) ([]*gh.Issue, error)
	ListOpenIssues(ctx context.Context, org, repo string, perPage int) ([]*gh.Issue, error)
	ListIssuesByLabel(ctx context.Context, org, repo, label string, perPage int) ([]*gh.Issue, error)
	GetIssue(ctx context.Context, org, repo string, number int) (*gh.Issue, error)
	CreateIssue(ctx context.Context, org, repo string, req *gh.IssueRequest) (*gh.Issue, error)
	CreateComment(ctx context.Context, org, repo string, number int, body string) error
	ListComments(ctx context.Context, org, repo string, number int) ([]*gh.IssueComment, error)
	RateLimitRemaining(ctx context.Context) (int, error)
}

// Issue is an immutable snapshot of a source issue being evaluated.
type Issue struct {
	Org       string    `json:"org"`
	Repo      string    `json:"repo"`
	Number    int       `json:"number"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Author    string    `json:"author"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"created_at"`
}

// Key returns the processed-set identifier for the issue.
func (i *Issue) Key() string {
	return fmt.Sprintf("%s/%s#%d", i.Org, i.Repo, i.Number)
}

// SourceRepo returns the issue's repository in "owner/repo" form.
func (i *Issue) SourceRepo() string {
	return i.Org + "/" + i.Repo
}

// Classification is the derived category/priority pair for an issue.
type Classification struct {
	Category string `json:"category"`
	Priority string `json:"priority"`
}

// DuplicateMatch is an existing target-repo issue whose title scored at or
// above the similarity threshold.
type DuplicateMatch struct {
	Number     int     `json:"number"`
	Title      string  `json:"title"`
	URL        string  `json:"url"`
	Similarity float64 `json:"similarity"`
}

// Result holds the accumulated results from pipeline execution.
type Result struct {
	IssueKey       string           `json:"issue_key"`
	Skipped        bool             `json:"skipped"`
	SkipReason     string           `json:"skip_reason,omitempty"`
	Classification Classification   `json:"classification"`
	Duplicates     []DuplicateMatch `json:"duplicates,omitempty"`
	RealOwner      string           `json:"real_owner,omitempty"`
	MirrorNumber   int              `json:"mirror_number,omitempty"`
	MirrorURL      string           `json:"mirror_url,omitempty"`
	CommentPosted  bool             `json:"comment_posted"`
	Errors         []string         `json:"errors,omitempty"`
}

// Context carries data through the pipeline steps.
type Context struct {
	// Ctx is the Go context for cancellation and timeouts.
	Ctx context.Context

	// Issue is the issue being processed.
	Issue *Issue

	// Config is the loaded configuration.
	Config *config.Config

	// Result accumulates the processing results.
	Result *Result

	// Classification is set by the classifier step.
	Classification Classification

	// Duplicates holds near-duplicate matches from the duplicate check,
	// in API return order.
	Duplicates []DuplicateMatch

	// RealOwner is the handle resolved by the owner resolution step.
	RealOwner string

	// MirrorNumber and MirrorURL identify the created mirrored issue.
	MirrorNumber int
	MirrorURL    string

	// Metadata allows steps to pass arbitrary data to subsequent steps.
	Metadata map[string]interface{}
}

// NewContext creates a new pipeline context for an issue.
func NewContext(ctx context.Context, issue *Issue, cfg *config.Config) *Context {
	return &Context{
		Ctx:      ctx,
		Issue:    issue,
		Config:   cfg,
		Result:   &Result{IssueKey: issue.Key()},
		Metadata: make(map[string]interface{}),
	}
}

// Pipeline executes a sequence of steps.
type Pipeline struct {
	steps []Step
}

// New creates a new pipeline with the given steps.
func New(steps ...Step) *Pipeline {
	return &Pipeline{steps: steps}
}

// Run executes all steps in order.
// Stops on the first error (unless it's ErrSkipPipeline, which is graceful).
func (p *Pipeline) Run(ctx *Context) error {
	for _, step := range p.steps {
		if err := step.Run(ctx); err != nil {
			if errors.Is(err, ErrSkipPipeline) {
				// Graceful early exit
				return nil
			}
			return fmt.Errorf("step '%s' failed: %w", step.Name(), err)
		}
	}
	return nil
}

// AddStep appends a step to the pipeline.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// Steps returns the list of steps (for introspection).
func (p *Pipeline) Steps() []Step {
	return p.steps
}
