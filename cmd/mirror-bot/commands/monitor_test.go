package commands

import (
	"errors"
	"testing"

	"github.com/similigh/mirror-bot/internal/monitor"
)

func TestMonitorExitCode(t *testing.T) {
	degraded := &monitor.Summary{
		ReposChecked: 2,
		RepoErrors:   []string{"org/down: github list issues: transport: boom"},
	}
	if code := monitorExitCode(degraded, nil); code != 0 {
		t.Fatalf("a pass with per-repo failures still completed and persisted, want exit 0, got %d", code)
	}

	aborted := &monitor.Summary{
		Aborted:     true,
		AbortReason: "rate limit too low: 50 remaining, reserve is 100",
	}
	if code := monitorExitCode(aborted, nil); code != 0 {
		t.Fatalf("a rate-limit abort is transient, want exit 0, got %d", code)
	}

	if code := monitorExitCode(degraded, errors.New("failed to write checkpoint")); code != 1 {
		t.Fatalf("persistence failure must be fatal, want exit 1, got %d", code)
	}
}

func TestProcessDefaultsToDryRun(t *testing.T) {
	flag := processCmd.Flags().Lookup("dry-run")
	if flag == nil {
		t.Fatalf("process command missing dry-run flag")
	}
	if flag.DefValue != "true" {
		t.Fatalf("process must default to dry-run, got default %q", flag.DefValue)
	}
}
