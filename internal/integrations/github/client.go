// Package github wraps the GitHub API for Mirror-Bot: incremental issue
// listing, mirror creation, comments, rate-limit reads and raw file content.
// All operations return typed errors (see errors.go) and never retry.
package github

import (
	"context"
	"fmt"
	"strings"
	"time"

	gh "github.com/google/go-github/v60/github"
)

// Client wraps the GitHub API client.
type Client struct {
	client  *gh.Client
	timeout time.Duration
}

// callCtx derives a bounded context for a single API call.
func (c *Client) callCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.timeout)
}

// ListIssuesSince fetches open issues created or updated after since,
// newest first. Pull requests are excluded.
func (c *Client) ListIssuesSince(ctx context.Context, org, repo string, since time.Time, perPage int) ([]*gh.Issue, error) {
	cctx, cancel := c.callCtx(ctx)
	defer cancel()

	opts := &gh.IssueListByRepoOptions{
		State:       "open",
		Since:       since,
		Sort:        "created",
		Direction:   "desc",
		ListOptions: gh.ListOptions{PerPage: perPage},
	}

	issues, resp, err := c.client.Issues.ListByRepo(cctx, org, repo, opts)
	if err != nil {
		return nil, wrapErr("list issues", resp, err)
	}

	filtered := make([]*gh.Issue, 0, len(issues))
	for _, issue := range issues {
		if issue.IsPullRequest() {
			continue
		}
		filtered = append(filtered, issue)
	}

	return filtered, nil
}

// ListOpenIssues fetches the most recently created open issues in a repo.
// Pull requests are excluded.
func (c *Client) ListOpenIssues(ctx context.Context, org, repo string, perPage int) ([]*gh.Issue, error) {
	cctx, cancel := c.callCtx(ctx)
	defer cancel()

	opts := &gh.IssueListByRepoOptions{
		State:       "open",
		Sort:        "created",
		Direction:   "desc",
		ListOptions: gh.ListOptions{PerPage: perPage},
	}

	issues, resp, err := c.client.Issues.ListByRepo(cctx, org, repo, opts)
	if err != nil {
		return nil, wrapErr("list open issues", resp, err)
	}

	filtered := make([]*gh.Issue, 0, len(issues))
	for _, issue := range issues {
		if issue.IsPullRequest() {
			continue
		}
		filtered = append(filtered, issue)
	}

	return filtered, nil
}

// ListIssuesByLabel fetches open issues carrying the given label.
func (c *Client) ListIssuesByLabel(ctx context.Context, org, repo, label string, perPage int) ([]*gh.Issue, error) {
	cctx, cancel := c.callCtx(ctx)
	defer cancel()

	opts := &gh.IssueListByRepoOptions{
		State:       "open",
		Labels:      []string{label},
		Sort:        "created",
		Direction:   "desc",
		ListOptions: gh.ListOptions{PerPage: perPage},
	}

	issues, resp, err := c.client.Issues.ListByRepo(cctx, org, repo, opts)
	if err != nil {
		return nil, wrapErr("list issues by label", resp, err)
	}

	filtered := make([]*gh.Issue, 0, len(issues))
	for _, issue := range issues {
		if issue.IsPullRequest() {
			continue
		}
		filtered = append(filtered, issue)
	}

	return filtered, nil
}

// GetIssue fetches issue details, including cross-repository issues.
func (c *Client) GetIssue(ctx context.Context, org, repo string, number int) (*gh.Issue, error) {
	cctx, cancel := c.callCtx(ctx)
	defer cancel()

	issue, resp, err := c.client.Issues.Get(cctx, org, repo, number)
	if err != nil {
		return nil, wrapErr("get issue", resp, err)
	}

	return issue, nil
}

// CreateIssue creates an issue in the given repository.
func (c *Client) CreateIssue(ctx context.Context, org, repo string, req *gh.IssueRequest) (*gh.Issue, error) {
	if req == nil || req.Title == nil || strings.TrimSpace(*req.Title) == "" {
		return nil, fmt.Errorf("issue title cannot be empty")
	}

	cctx, cancel := c.callCtx(ctx)
	defer cancel()

	issue, resp, err := c.client.Issues.Create(cctx, org, repo, req)
	if err != nil {
		return nil, wrapErr("create issue", resp, err)
	}

	return issue, nil
}

// CreateComment posts a comment on an issue.
func (c *Client) CreateComment(ctx context.Context, org, repo string, number int, body string) error {
	if strings.TrimSpace(body) == "" {
		return fmt.Errorf("comment body cannot be empty")
	}

	cctx, cancel := c.callCtx(ctx)
	defer cancel()

	comment := &gh.IssueComment{
		Body: gh.String(body),
	}
	_, resp, err := c.client.Issues.CreateComment(cctx, org, repo, number, comment)
	if err != nil {
		return wrapErr("create comment", resp, err)
	}
	return nil
}

// ListComments fetches the comments on an issue.
func (c *Client) ListComments(ctx context.Context, org, repo string, number int) ([]*gh.IssueComment, error) {
	cctx, cancel := c.callCtx(ctx)
	defer cancel()

	comments, resp, err := c.client.Issues.ListComments(cctx, org, repo, number, nil)
	if err != nil {
		return nil, wrapErr("list comments", resp, err)
	}
	return comments, nil
}

// RateLimitRemaining returns the remaining core API quota.
func (c *Client) RateLimitRemaining(ctx context.Context) (int, error) {
	cctx, cancel := c.callCtx(ctx)
	defer cancel()

	limits, resp, err := c.client.RateLimit.Get(cctx)
	if err != nil {
		return 0, wrapErr("rate limit", resp, err)
	}
	if limits.Core == nil {
		return 0, fmt.Errorf("rate limit response missing core quota")
	}
	return limits.Core.Remaining, nil
}

// GetFileContent fetches a file's raw content from a repository branch.
// Used for remote config inheritance.
func (c *Client) GetFileContent(ctx context.Context, org, repo, path, ref string) ([]byte, error) {
	cctx, cancel := c.callCtx(ctx)
	defer cancel()

	opts := &gh.RepositoryContentGetOptions{Ref: ref}
	file, _, resp, err := c.client.Repositories.GetContents(cctx, org, repo, path, opts)
	if err != nil {
		return nil, wrapErr("get file content", resp, err)
	}
	if file == nil {
		return nil, fmt.Errorf("%s is a directory, not a file", path)
	}

	content, err := file.GetContent()
	if err != nil {
		return nil, fmt.Errorf("failed to decode file content: %w", err)
	}
	return []byte(content), nil
}

// SplitRepo splits an "owner/repo" identifier.
func SplitRepo(full string) (org, repo string, err error) {
	parts := strings.Split(full, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid repository %q: expected 'owner/repo'", full)
	}
	return parts[0], parts[1], nil
}
