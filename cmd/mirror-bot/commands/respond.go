package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/similigh/mirror-bot/internal/integrations/github"
	"github.com/similigh/mirror-bot/internal/responder"
)

var respondDry bool

// respondCmd represents the respond command
var respondCmd = &cobra.Command{
	Use:   "respond",
	Short: "Reply to unanswered mirrored issues in the target repository",
	Long: `Sweeps open auto-detected issues in the target repository and posts
the configured category response on each one the bot has not replied to
yet. Replies carry a hidden signature so repeated sweeps never respond
twice.

Environment variables:
  GITHUB_TOKEN   Required. Token with issues:write on the target repo.
  TARGET_REPO    Target repository fallback when not set in config.`,
	Run: func(cmd *cobra.Command, args []string) {
		runRespond()
	},
}

func init() {
	rootCmd.AddCommand(respondCmd)

	respondCmd.Flags().BoolVar(&respondDry, "dry-run", false, "Log replies without posting them")
}

func runRespond() {
	token := os.Getenv("GITHUB_TOKEN")
	if token == "" {
		fmt.Println("Error: GITHUB_TOKEN environment variable is required")
		os.Exit(1)
	}

	cfg := loadConfig()

	ctx := context.Background()
	ghClient := github.NewClient(ctx, token).
		WithTimeout(time.Duration(cfg.Defaults.RequestTimeoutSeconds) * time.Second)

	fmt.Println("[Mirror-Bot] Running auto-response sweep...")

	summary, err := responder.New(ghClient, cfg, respondDry).Run(ctx)
	if err != nil {
		fmt.Printf("❌ Auto-response sweep failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("\n=== Auto-Response Summary ===\n")
	fmt.Printf("Scanned:   %d\n", summary.Scanned)
	fmt.Printf("Responded: %d\n", summary.Responded)
}
