package steps

import (
	"context"
	"fmt"
	"time"

	gh "github.com/google/go-github/v60/github"
)

// fakeGitHub implements pipeline.GitHubService for step tests and counts
// every call so tests can assert on API traffic.
type fakeGitHub struct {
	openIssues []*gh.Issue
	issues     map[string]*gh.Issue // "org/repo#number"

	listOpenErr error
	getIssueErr error
	createErr   error
	commentErr  error

	listOpenCalls int
	getCalls      int
	createCalls   int
	commentCalls  int

	created  []*gh.IssueRequest
	comments []string

	nextMirrorNumber int
}

func newFakeGitHub() *fakeGitHub {
	return &fakeGitHub{
		issues:           make(map[string]*gh.Issue),
		nextMirrorNumber: 100,
	}
}

func makeIssue(number int, title, body, author, url string) *gh.Issue {
	return &gh.Issue{
		Number:    gh.Int(number),
		Title:     gh.String(title),
		Body:      gh.String(body),
		HTMLURL:   gh.String(url),
		User:      &gh.User{Login: gh.String(author)},
		CreatedAt: &gh.Timestamp{Time: time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)},
	}
}

func (f *fakeGitHub) ListIssuesSince(ctx context.Context, org, repo string, since time.Time, perPage int) ([]*gh.Issue, error) {
	return nil, nil
}

func (f *fakeGitHub) ListOpenIssues(ctx context.Context, org, repo string, perPage int) ([]*gh.Issue, error) {
	f.listOpenCalls++
	if f.listOpenErr != nil {
		return nil, f.listOpenErr
	}
	return f.openIssues, nil
}

func (f *fakeGitHub) ListIssuesByLabel(ctx context.Context, org, repo, label string, perPage int) ([]*gh.Issue, error) {
	return nil, nil
}

func (f *fakeGitHub) GetIssue(ctx context.Context, org, repo string, number int) (*gh.Issue, error) {
	f.getCalls++
	if f.getIssueErr != nil {
		return nil, f.getIssueErr
	}
	issue, ok := f.issues[fmt.Sprintf("%s/%s#%d", org, repo, number)]
	if !ok {
		return nil, fmt.Errorf("issue not found")
	}
	return issue, nil
}

func (f *fakeGitHub) CreateIssue(ctx context.Context, org, repo string, req *gh.IssueRequest) (*gh.Issue, error) {
	f.createCalls++
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = append(f.created, req)
	f.nextMirrorNumber++
	return &gh.Issue{
		Number:  gh.Int(f.nextMirrorNumber),
		HTMLURL: gh.String(fmt.Sprintf("https://github.com/%s/%s/issues/%d", org, repo, f.nextMirrorNumber)),
	}, nil
}

func (f *fakeGitHub) CreateComment(ctx context.Context, org, repo string, number int, body string) error {
	f.commentCalls++
	if f.commentErr != nil {
		return f.commentErr
	}
	f.comments = append(f.comments, body)
	return nil
}

func (f *fakeGitHub) ListComments(ctx context.Context, org, repo string, number int) ([]*gh.IssueComment, error) {
	return nil, nil
}

func (f *fakeGitHub) RateLimitRemaining(ctx context.Context) (int, error) {
	return 5000, nil
}
