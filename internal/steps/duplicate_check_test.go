package steps

import (
	"errors"
	"testing"

	"github.com/similigh/mirror-bot/internal/core/pipeline"
)

func TestDuplicateCheckFlagsNearDuplicates(t *testing.T) {
	fake := newFakeGitHub()
	fake.openIssues = append(fake.openIssues,
		makeIssue(10, "Wallet balance missing", "", "a", "https://github.com/org/support/issues/10"),
		makeIssue(11, "Completely unrelated docs fix", "", "b", "https://github.com/org/support/issues/11"),
		makeIssue(12, "wallet balance missing", "", "c", "https://github.com/org/support/issues/12"),
	)

	step := NewDuplicateCheck(&pipeline.Dependencies{GitHub: fake})

	ctx := testContext(&pipeline.Issue{
		Org: "src", Repo: "wallet", Number: 1,
		Title: "Wallet balance missing",
	})

	if err := step.Run(ctx); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(ctx.Duplicates) != 2 {
		t.Fatalf("expected 2 duplicates, got %d", len(ctx.Duplicates))
	}

	// API return order preserved, not re-ranked
	if ctx.Duplicates[0].Number != 10 || ctx.Duplicates[1].Number != 12 {
		t.Fatalf("expected API order [10, 12], got [%d, %d]",
			ctx.Duplicates[0].Number, ctx.Duplicates[1].Number)
	}

	if ctx.Duplicates[1].Similarity != 1.0 {
		t.Fatalf("identical case-folded title must score 1.0, got %v", ctx.Duplicates[1].Similarity)
	}
}

func TestDuplicateCheckThreshold(t *testing.T) {
	fake := newFakeGitHub()
	fake.openIssues = append(fake.openIssues,
		makeIssue(20, "Wallet balance gone", "", "a", ""), // one word differs, still >= 0.7
		makeIssue(21, "zzzz", "", "b", ""),
	)

	step := NewDuplicateCheck(&pipeline.Dependencies{GitHub: fake})
	ctx := testContext(&pipeline.Issue{Title: "Wallet balance missing"})

	if err := step.Run(ctx); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(ctx.Duplicates) != 1 || ctx.Duplicates[0].Number != 20 {
		t.Fatalf("expected only the aligned title to be flagged, got %+v", ctx.Duplicates)
	}
	if ctx.Duplicates[0].Similarity >= 1.0 {
		t.Fatalf("differing titles must score below 1.0, got %v", ctx.Duplicates[0].Similarity)
	}
}

func TestDuplicateCheckDegradesOnAPIFailure(t *testing.T) {
	fake := newFakeGitHub()
	fake.listOpenErr = errors.New("boom")

	step := NewDuplicateCheck(&pipeline.Dependencies{GitHub: fake})
	ctx := testContext(&pipeline.Issue{Title: "Wallet balance missing"})

	if err := step.Run(ctx); err != nil {
		t.Fatalf("API failure must not fail the step: %v", err)
	}
	if len(ctx.Duplicates) != 0 {
		t.Fatalf("expected no duplicates on failure, got %d", len(ctx.Duplicates))
	}
}

func TestDuplicateCheckNoClient(t *testing.T) {
	step := NewDuplicateCheck(&pipeline.Dependencies{})
	ctx := testContext(&pipeline.Issue{Title: "anything"})

	if err := step.Run(ctx); err != nil {
		t.Fatalf("missing client must not fail the step: %v", err)
	}
}
