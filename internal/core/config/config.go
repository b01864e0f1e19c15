// Package config handles loading and merging Mirror-Bot configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure.
type Config struct {
	// Extends allows inheriting from a remote config (e.g., "org/repo@branch:path").
	Extends string `yaml:"extends,omitempty"`

	// TargetRepo is the "owner/repo" the bot mirrors issues into.
	// Falls back to the TARGET_REPO environment variable when empty.
	TargetRepo string `yaml:"target_repo,omitempty"`

	// MonitoredRepos lists the "owner/repo" sources to poll, in order.
	MonitoredRepos []string `yaml:"monitored_repos,omitempty"`

	// Keywords is the match policy: an issue is mirrored only if its title
	// or body contains at least one keyword (case-insensitive).
	Keywords []string `yaml:"keywords,omitempty"`

	// TeamAssignments maps a category label to assignee handles.
	TeamAssignments map[string][]string `yaml:"team_assignments,omitempty"`

	// Categories and Priorities override the built-in classification rule
	// tables. Order is precedence: the first matching rule wins.
	Categories []Rule `yaml:"categories,omitempty"`
	Priorities []Rule `yaml:"priorities,omitempty"`

	// Responses maps a category label to the auto-responder template.
	Responses map[string]string `yaml:"responses,omitempty"`

	// Escalation is the comment template posted on each mirrored issue.
	// Supported placeholders: {{owner}}, {{source_repo}}, {{source_url}}.
	Escalation string `yaml:"escalation,omitempty"`

	// Defaults contains tuning knobs.
	Defaults DefaultsConfig `yaml:"defaults"`
}

// Rule is one ordered classification rule: a label and the keywords that
// select it.
type Rule struct {
	Label    string   `yaml:"label"`
	Keywords []string `yaml:"keywords"`
}

// DefaultsConfig holds default behavior settings.
type DefaultsConfig struct {
	SimilarityThreshold   float64 `yaml:"similarity_threshold"`
	MaxDuplicatesToShow   int     `yaml:"max_duplicates_to_show"`
	RateLimitReserve      int     `yaml:"rate_limit_reserve"`
	FirstRunWindowMinutes int     `yaml:"first_run_window_minutes"`
	PerPage               int     `yaml:"per_page"`
	RequestTimeoutSeconds int     `yaml:"request_timeout_seconds"`
}

// DefaultEscalation is the fallback escalation comment template.
const DefaultEscalation = `Hi @{{owner}},

Your report from {{source_repo}} has been picked up for triage and will be
reviewed by the team. Progress is tracked on this issue; the original report
is at {{source_url}}.`

// Default returns an empty config with defaults applied. Commands fall back
// to it when no config file is found.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads a config file from the given path and expands environment variables.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Expand environment variables in the YAML content
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyDefaults()

	return &cfg, nil
}

// LoadWithInheritance loads a config and resolves the 'extends' chain.
// The fetcher function is used to retrieve remote configs.
func LoadWithInheritance(path string, fetcher func(ref string) ([]byte, error)) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	if cfg.Extends == "" {
		return cfg, nil
	}

	parentData, err := fetcher(cfg.Extends)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch parent config '%s': %w", cfg.Extends, err)
	}

	expanded := os.ExpandEnv(string(parentData))
	var parentCfg Config
	if err := yaml.Unmarshal([]byte(expanded), &parentCfg); err != nil {
		return nil, fmt.Errorf("failed to parse parent config: %w", err)
	}

	// Merge: child overrides parent
	merged := mergeConfigs(&parentCfg, cfg)
	merged.applyDefaults()

	return merged, nil
}

// ParseExtendsRef parses an extends reference of the form
// "org/repo@branch:path". Branch defaults to "main" and path to
// ".github/mirror-bot.yaml".
func ParseExtendsRef(ref string) (org, repo, branch, path string, err error) {
	branch = "main"
	path = ".github/mirror-bot.yaml"

	rest := ref
	if i := strings.Index(rest, ":"); i >= 0 {
		path = rest[i+1:]
		rest = rest[:i]
	}
	if i := strings.Index(rest, "@"); i >= 0 {
		branch = rest[i+1:]
		rest = rest[:i]
	}

	parts := strings.Split(rest, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", "", "", fmt.Errorf("invalid extends ref %q: expected org/repo[@branch][:path]", ref)
	}

	return parts[0], parts[1], branch, path, nil
}

// FindConfigPath searches for a config file in standard locations.
func FindConfigPath(explicit string) string {
	if explicit != "" {
		if _, err := os.Stat(explicit); err == nil {
			return explicit
		}
		return ""
	}

	candidates := []string{
		".github/mirror-bot.yaml",
		".github/mirror-bot.yml",
		".mirror-bot.yaml",
		".mirror-bot.yml",
	}

	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			abs, _ := filepath.Abs(c)
			return abs
		}
	}

	return ""
}

// ResolveTargetRepo returns the configured target repository, falling back to
// the TARGET_REPO environment variable.
func (c *Config) ResolveTargetRepo() string {
	if c.TargetRepo != "" {
		return c.TargetRepo
	}
	return os.Getenv("TARGET_REPO")
}

// ResponseFor returns the response template for a category, falling back to
// the "general" template.
func (c *Config) ResponseFor(category string) string {
	if tpl, ok := c.Responses[category]; ok && tpl != "" {
		return tpl
	}
	return c.Responses["general"]
}

// AssigneeFor returns the first assignee handle for a category, falling back
// to the "general" entry. A leading '@' is stripped.
func (c *Config) AssigneeFor(category string) string {
	handles, ok := c.TeamAssignments[category]
	if !ok || len(handles) == 0 {
		handles = c.TeamAssignments["general"]
	}
	if len(handles) == 0 {
		return ""
	}
	return strings.TrimPrefix(handles[0], "@")
}

// applyDefaults sets default values for unset fields.
func (c *Config) applyDefaults() {
	if c.Defaults.SimilarityThreshold == 0 {
		c.Defaults.SimilarityThreshold = 0.7
	}
	if c.Defaults.MaxDuplicatesToShow == 0 {
		c.Defaults.MaxDuplicatesToShow = 3
	}
	if c.Defaults.RateLimitReserve == 0 {
		c.Defaults.RateLimitReserve = 100
	}
	if c.Defaults.FirstRunWindowMinutes == 0 {
		c.Defaults.FirstRunWindowMinutes = 30
	}
	if c.Defaults.PerPage == 0 {
		c.Defaults.PerPage = 30
	}
	if c.Defaults.RequestTimeoutSeconds == 0 {
		c.Defaults.RequestTimeoutSeconds = 10
	}
	if c.Escalation == "" {
		c.Escalation = DefaultEscalation
	}
}

// mergeConfigs merges a child config onto a parent config.
// Non-zero values in child override parent.
func mergeConfigs(parent, child *Config) *Config {
	result := *parent

	if child.TargetRepo != "" {
		result.TargetRepo = child.TargetRepo
	}
	if len(child.MonitoredRepos) > 0 {
		result.MonitoredRepos = child.MonitoredRepos
	}
	if len(child.Keywords) > 0 {
		result.Keywords = child.Keywords
	}
	if len(child.TeamAssignments) > 0 {
		result.TeamAssignments = child.TeamAssignments
	}
	if len(child.Categories) > 0 {
		result.Categories = child.Categories
	}
	if len(child.Priorities) > 0 {
		result.Priorities = child.Priorities
	}
	if len(child.Responses) > 0 {
		result.Responses = child.Responses
	}
	if child.Escalation != "" {
		result.Escalation = child.Escalation
	}

	if child.Defaults.SimilarityThreshold != 0 {
		result.Defaults.SimilarityThreshold = child.Defaults.SimilarityThreshold
	}
	if child.Defaults.MaxDuplicatesToShow != 0 {
		result.Defaults.MaxDuplicatesToShow = child.Defaults.MaxDuplicatesToShow
	}
	if child.Defaults.RateLimitReserve != 0 {
		result.Defaults.RateLimitReserve = child.Defaults.RateLimitReserve
	}
	if child.Defaults.FirstRunWindowMinutes != 0 {
		result.Defaults.FirstRunWindowMinutes = child.Defaults.FirstRunWindowMinutes
	}
	if child.Defaults.PerPage != 0 {
		result.Defaults.PerPage = child.Defaults.PerPage
	}
	if child.Defaults.RequestTimeoutSeconds != 0 {
		result.Defaults.RequestTimeoutSeconds = child.Defaults.RequestTimeoutSeconds
	}

	return &result
}
