package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/similigh/mirror-bot/internal/core/state"
	"github.com/similigh/mirror-bot/internal/integrations/github"
	"github.com/similigh/mirror-bot/internal/monitor"
)

var monitorDry bool

// monitorCmd represents the monitor command
var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Run one monitoring pass over the configured source repositories",
	Long: `Runs a single monitoring pass: fetches issues created since the last
checkpoint from every monitored repository, evaluates each new issue
through the pipeline, and persists the updated processed set and
checkpoint.

Intended to be run on a schedule (cron, GitHub Actions). One invocation
is one pass; state files in --state-dir carry continuity between runs.

Environment variables:
  GITHUB_TOKEN   Required. Token with issues:write on the target repo.
  TARGET_REPO    Target repository fallback when not set in config.`,
	Run: func(cmd *cobra.Command, args []string) {
		runMonitor()
	},
}

func init() {
	rootCmd.AddCommand(monitorCmd)

	monitorCmd.Flags().BoolVar(&monitorDry, "dry-run", false, "Evaluate issues without creating mirrors or comments")
}

func runMonitor() {
	token := os.Getenv("GITHUB_TOKEN")
	if token == "" {
		fmt.Println("Error: GITHUB_TOKEN environment variable is required")
		os.Exit(1)
	}

	cfg := loadConfig()

	if cfg.ResolveTargetRepo() == "" {
		fmt.Println("Error: no target repository configured (set target_repo or TARGET_REPO)")
		os.Exit(1)
	}
	if len(cfg.MonitoredRepos) == 0 {
		fmt.Println("Error: no monitored repositories configured")
		os.Exit(1)
	}

	window := time.Duration(cfg.Defaults.FirstRunWindowMinutes) * time.Minute
	store, err := state.Open(stateDir, window)
	if err != nil {
		fmt.Printf("❌ Failed to open state directory %s: %v\n", stateDir, err)
		os.Exit(1)
	}

	ctx := context.Background()
	ghClient := github.NewClient(ctx, token).
		WithTimeout(time.Duration(cfg.Defaults.RequestTimeoutSeconds) * time.Second)

	fmt.Printf("[Mirror-Bot] Monitoring %d repositories...\n", len(cfg.MonitoredRepos))

	summary, err := monitor.New(ghClient, store, cfg, monitorDry).Run(ctx)
	if err != nil {
		fmt.Printf("❌ Monitoring pass failed: %v\n", err)
		os.Exit(monitorExitCode(summary, err))
	}

	fmt.Printf("\n=== Monitoring Summary ===\n")
	fmt.Printf("Repos checked: %d\n", summary.ReposChecked)
	fmt.Printf("New issues:    %d\n", summary.NewIssues)
	fmt.Printf("Matched:       %d\n", summary.Matched)
	fmt.Printf("Mirrored:      %d\n", summary.Mirrored)
	fmt.Printf("Tracked total: %d\n", summary.TrackedTotal)
	if summary.Aborted {
		fmt.Printf("Aborted:       %s\n", summary.AbortReason)
	}
	if len(summary.RepoErrors) > 0 {
		fmt.Printf("Repo errors:   %d\n", len(summary.RepoErrors))
	}

	if verbose {
		resultBytes, err := json.MarshalIndent(summary, "", "  ")
		if err == nil {
			fmt.Println("\n=== Detailed Result ===")
			fmt.Println(string(resultBytes))
		}
	}
}

// monitorExitCode maps a pass outcome to the process exit code. Per-repo
// fetch failures and rate-limit aborts are transient: the pass completed and
// persisted state, so they stay on the summary and exit zero. Only
// configuration and persistence failures are fatal.
func monitorExitCode(summary *monitor.Summary, err error) int {
	if err != nil {
		return 1
	}
	return 0
}
