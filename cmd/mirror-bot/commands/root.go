package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/similigh/mirror-bot/internal/core/config"
	"github.com/similigh/mirror-bot/internal/integrations/github"
)

var (
	cfgFile  string
	verbose  bool
	stateDir string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "mirror-bot",
	Short: "Monitor source repositories and mirror matching issues for triage",
	Long: `Mirror-Bot watches a set of source repositories for new issues,
classifies the ones that match the configured keywords, checks them
against existing issues for near-duplicates, and mirrors them into a
target repository with an escalation comment on the original.`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to config file (default: .github/mirror-bot.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVar(&stateDir, "state-dir", ".", "Directory holding checkpoint and processed-issue state")
}

// loadConfig resolves the config file, loading the inheritance chain when the
// file extends a remote config. Falls back to defaults if nothing is found.
func loadConfig() *config.Config {
	actualCfgPath := cfgFile
	if actualCfgPath == "" {
		actualCfgPath = config.FindConfigPath("")
	}

	if actualCfgPath == "" {
		if verbose {
			fmt.Println("No configuration file found. Using defaults and environment variables.")
		}
		return config.Default()
	}

	// Build fetcher for config inheritance
	configToken := os.Getenv("GITHUB_TOKEN")

	fetcher := func(ref string) ([]byte, error) {
		org, repo, branch, path, err := config.ParseExtendsRef(ref)
		if err != nil {
			return nil, err
		}
		if configToken == "" {
			return nil, fmt.Errorf("GITHUB_TOKEN required to fetch remote config %s", ref)
		}
		ghClient := github.NewClient(context.Background(), configToken)
		return ghClient.GetFileContent(context.Background(), org, repo, path, branch)
	}

	cfg, err := config.LoadWithInheritance(actualCfgPath, fetcher)
	if err != nil {
		fmt.Printf("Warning: Failed to load config from %s: %v. Using defaults.\n", actualCfgPath, err)
		return config.Default()
	}

	if verbose {
		fmt.Printf("Loaded config from %s\n", actualCfgPath)
	}
	return cfg
}
