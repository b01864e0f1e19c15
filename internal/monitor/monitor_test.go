package monitor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	gh "github.com/google/go-github/v60/github"

	"github.com/similigh/mirror-bot/internal/core/config"
	"github.com/similigh/mirror-bot/internal/core/state"
)

// fakeGitHub implements pipeline.GitHubService with per-repo fixtures and
// call counters.
type fakeGitHub struct {
	sourceIssues map[string][]*gh.Issue // "org/repo" -> new issues
	crossIssues  map[string]*gh.Issue   // "org/repo#number" -> issue
	openTarget   []*gh.Issue

	rate        int
	rateErr     error
	listErr     map[string]error // "org/repo" -> error
	getIssueErr error
	createErr   error

	listCalls    int
	getCalls     int
	createCalls  int
	commentCalls int

	created  []*gh.IssueRequest
	comments []string

	nextMirror int
}

func newFakeGitHub() *fakeGitHub {
	return &fakeGitHub{
		sourceIssues: make(map[string][]*gh.Issue),
		crossIssues:  make(map[string]*gh.Issue),
		listErr:      make(map[string]error),
		rate:         5000,
		nextMirror:   200,
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
	f.listCalls++
	key := org + "/" + repo
	if err := f.listErr[key]; err != nil {
		return nil, err
	}
	return f.sourceIssues[key], nil
}

func (f *fakeGitHub) ListOpenIssues(ctx context.Context, org, repo string, perPage int) ([]*gh.Issue, error) {
	return f.openTarget, nil
}

func (f *fakeGitHub) ListIssuesByLabel(ctx context.Context, org, repo, label string, perPage int) ([]*gh.Issue, error) {
	return nil, nil
}

func (f *fakeGitHub) GetIssue(ctx context.Context, org, repo string, number int) (*gh.Issue, error) {
	f.getCalls++
	if f.getIssueErr != nil {
		return nil, f.getIssueErr
	}
	issue, ok := f.crossIssues[fmt.Sprintf("%s/%s#%d", org, repo, number)]
	if !ok {
		return nil, errors.New("not found")
	}
	return issue, nil
}

func (f *fakeGitHub) CreateIssue(ctx context.Context, org, repo string, req *gh.IssueRequest) (*gh.Issue, error) {
	f.createCalls++
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = append(f.created, req)
	f.nextMirror++
	return &gh.Issue{
		Number:  gh.Int(f.nextMirror),
		HTMLURL: gh.String(fmt.Sprintf("https://github.com/%s/%s/issues/%d", org, repo, f.nextMirror)),
	}, nil
}

func (f *fakeGitHub) CreateComment(ctx context.Context, org, repo string, number int, body string) error {
	f.commentCalls++
	f.comments = append(f.comments, body)
	return nil
}

func (f *fakeGitHub) ListComments(ctx context.Context, org, repo string, number int) ([]*gh.IssueComment, error) {
	return nil, nil
}

func (f *fakeGitHub) RateLimitRemaining(ctx context.Context) (int, error) {
	if f.rateErr != nil {
		return 0, f.rateErr
	}
	return f.rate, nil
}

func testConfig() *config.Config {
	return &config.Config{
		TargetRepo:     "org/support",
		MonitoredRepos: []string{"org/wallet"},
		Keywords:       []string{"wallet", "funds", "urgent"},
		TeamAssignments: map[string][]string{
			"wallet":  {"@wallet-team"},
			"general": {"@triage"},
		},
		Escalation: config.DefaultEscalation,
		Defaults: config.DefaultsConfig{
			SimilarityThreshold:   0.7,
			MaxDuplicatesToShow:   3,
			RateLimitReserve:      100,
			FirstRunWindowMinutes: 30,
			PerPage:               30,
			RequestTimeoutSeconds: 10,
		},
	}
}

func openStore(t *testing.T, dir string) *state.Store {
	t.Helper()
	s, err := state.Open(dir, 30*time.Minute)
	if err != nil {
		t.Fatalf("state.Open failed: %v", err)
	}
	return s
}

func TestEndToEndScenario(t *testing.T) {
	fake := newFakeGitHub()
	fake.sourceIssues["org/wallet"] = []*gh.Issue{
		makeIssue(7, "Wallet funds missing - urgent",
			"@alice reported this, see https://github.com/org/repo/issues/42",
			"forwarder", "https://github.com/org/wallet/issues/7"),
	}
	// Cross-repo fetch fails, so owner resolution falls back to the mention.
	fake.getIssueErr = errors.New("fetch failed")

	dir := t.TempDir()
	store := openStore(t, dir)
	m := New(fake, store, testConfig(), false)

	before := store.LastCheckTime()

	summary, err := m.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if summary.Aborted {
		t.Fatalf("unexpected abort: %s", summary.AbortReason)
	}
	if summary.NewIssues != 1 || summary.Matched != 1 || summary.Mirrored != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if fake.getCalls != 1 {
		t.Fatalf("owner resolution must attempt the linked issue first, got %d fetches", fake.getCalls)
	}
	if fake.createCalls != 1 {
		t.Fatalf("expected one mirror, got %d", fake.createCalls)
	}

	req := fake.created[0]
	labels := strings.Join(*req.Labels, ",")
	for _, want := range []string{"auto-detected", "priority-urgent", "wallet", "source:org"} {
		if !strings.Contains(labels, want) {
			t.Errorf("labels missing %q: %s", want, labels)
		}
	}
	if !strings.Contains(req.GetBody(), "@alice") {
		t.Errorf("mirror body must carry the resolved owner")
	}

	if fake.commentCalls != 1 {
		t.Fatalf("expected escalation comment, got %d", fake.commentCalls)
	}
	if !strings.Contains(fake.comments[0], "@alice") {
		t.Errorf("escalation comment must mention the resolved owner")
	}

	if !store.Seen("org/wallet#7") {
		t.Errorf("issue key must be in the processed set")
	}

	after := store.LastCheckTime()
	if after.Before(before) {
		t.Errorf("checkpoint moved backwards: %v -> %v", before, after)
	}
}

func TestPassIsIdempotent(t *testing.T) {
	fake := newFakeGitHub()
	fake.sourceIssues["org/wallet"] = []*gh.Issue{
		makeIssue(7, "Wallet funds missing", "", "reporter", "https://github.com/org/wallet/issues/7"),
	}

	dir := t.TempDir()
	store := openStore(t, dir)
	cfg := testConfig()

	if _, err := New(fake, store, cfg, false).Run(context.Background()); err != nil {
		t.Fatalf("first pass failed: %v", err)
	}
	if fake.createCalls != 1 {
		t.Fatalf("expected one mirror after first pass, got %d", fake.createCalls)
	}
	tracked := store.Len()

	// Second pass with a fresh store loaded from the same directory and the
	// same remote fixtures: nothing new must happen.
	store2 := openStore(t, dir)
	summary, err := New(fake, store2, cfg, false).Run(context.Background())
	if err != nil {
		t.Fatalf("second pass failed: %v", err)
	}

	if fake.createCalls != 1 {
		t.Fatalf("second pass created issues: %d total", fake.createCalls)
	}
	if summary.NewIssues != 0 {
		t.Fatalf("second pass evaluated issues: %d", summary.NewIssues)
	}
	if store2.Len() != tracked {
		t.Fatalf("processed set changed: %d -> %d", tracked, store2.Len())
	}
}

func TestProcessedSetExclusivity(t *testing.T) {
	fake := newFakeGitHub()
	fake.sourceIssues["org/wallet"] = []*gh.Issue{
		makeIssue(1, "wallet issue one", "", "a", "u1"),
		makeIssue(2, "plain note", "", "b", "u2"), // no keyword: skipped but recorded
	}

	dir := t.TempDir()
	store := openStore(t, dir)
	cfg := testConfig()

	if _, err := New(fake, store, cfg, false).Run(context.Background()); err != nil {
		t.Fatalf("first pass failed: %v", err)
	}

	createsAfterFirst := fake.createCalls

	store2 := openStore(t, dir)
	summary, err := New(fake, store2, cfg, false).Run(context.Background())
	if err != nil {
		t.Fatalf("second pass failed: %v", err)
	}

	// Both the mirrored and the skipped issue are excluded from re-evaluation.
	if summary.NewIssues != 0 {
		t.Fatalf("recorded issues were re-evaluated: %d", summary.NewIssues)
	}
	if fake.createCalls != createsAfterFirst {
		t.Fatalf("recorded issues triggered new creates")
	}
	if !store2.Seen("org/wallet#2") {
		t.Fatalf("skipped issue must still be in the processed set")
	}
}

func TestRateLimitAbort(t *testing.T) {
	fake := newFakeGitHub()
	fake.rate = 50
	fake.sourceIssues["org/wallet"] = []*gh.Issue{
		makeIssue(1, "wallet issue", "", "a", "u"),
	}

	dir := t.TempDir()
	store := openStore(t, dir)

	summary, err := New(fake, store, testConfig(), false).Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if !summary.Aborted {
		t.Fatalf("expected abort below the reserve")
	}
	if fake.listCalls != 0 || fake.createCalls != 0 {
		t.Fatalf("aborted pass must not touch the API: %d list, %d create", fake.listCalls, fake.createCalls)
	}
	if store.Len() != 0 {
		t.Fatalf("aborted pass must not mutate state")
	}
}

func TestRateLimitReadFailureAborts(t *testing.T) {
	fake := newFakeGitHub()
	fake.rateErr = errors.New("boom")

	summary, err := New(fake, openStore(t, t.TempDir()), testConfig(), false).Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !summary.Aborted {
		t.Fatalf("unreadable quota must abort the pass")
	}
}

func TestRepoFailureDoesNotBlockOthers(t *testing.T) {
	fake := newFakeGitHub()
	fake.listErr["org/broken"] = errors.New("boom")
	fake.sourceIssues["org/wallet"] = []*gh.Issue{
		makeIssue(9, "urgent wallet problem", "", "a", "u"),
	}

	cfg := testConfig()
	cfg.MonitoredRepos = []string{"org/broken", "org/wallet"}

	store := openStore(t, t.TempDir())
	summary, err := New(fake, store, cfg, false).Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(summary.RepoErrors) != 1 {
		t.Fatalf("expected one repo error, got %v", summary.RepoErrors)
	}
	if summary.Mirrored != 1 {
		t.Fatalf("healthy repo must still be processed, got %+v", summary)
	}
}

func TestMirrorFailureStillRecordsProcessed(t *testing.T) {
	fake := newFakeGitHub()
	fake.createErr = errors.New("boom")
	fake.sourceIssues["org/wallet"] = []*gh.Issue{
		makeIssue(3, "wallet gone", "", "a", "u"),
	}

	dir := t.TempDir()
	store := openStore(t, dir)

	summary, err := New(fake, store, testConfig(), false).Run(context.Background())
	if err != nil {
		t.Fatalf("remote failure must not fail the pass: %v", err)
	}
	if summary.Mirrored != 0 {
		t.Fatalf("failed mirror counted as mirrored")
	}
	if !store.Seen("org/wallet#3") {
		t.Fatalf("failed issue must still be recorded to avoid infinite reprocessing")
	}

	// A second pass must not retry it.
	store2 := openStore(t, dir)
	fake.createErr = nil
	summary2, err := New(fake, store2, testConfig(), false).Run(context.Background())
	if err != nil {
		t.Fatalf("second pass failed: %v", err)
	}
	if summary2.NewIssues != 0 || fake.createCalls != 1 {
		t.Fatalf("permanently failing issue was retried: %+v, creates=%d", summary2, fake.createCalls)
	}
}

func TestDryRunCreatesNothing(t *testing.T) {
	fake := newFakeGitHub()
	fake.sourceIssues["org/wallet"] = []*gh.Issue{
		makeIssue(5, "wallet funds missing", "", "a", "u"),
	}

	store := openStore(t, t.TempDir())
	summary, err := New(fake, store, testConfig(), true).Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if fake.createCalls != 0 || fake.commentCalls != 0 {
		t.Fatalf("dry-run must not write to the API")
	}
	if summary.Mirrored != 1 {
		t.Fatalf("dry-run should count would-be mirrors, got %+v", summary)
	}
}
