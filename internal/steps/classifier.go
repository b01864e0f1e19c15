package steps

import (
	"log"
	"strings"

	"github.com/similigh/mirror-bot/internal/core/config"
	"github.com/similigh/mirror-bot/internal/core/pipeline"
)

// DefaultCategoryRules is the built-in category table. Order is precedence:
// the first rule whose keyword appears in the issue text wins.
var DefaultCategoryRules = []config.Rule{
	{Label: "bug", Keywords: []string{"bug", "error", "broken", "crash", "failed"}},
	{Label: "security", Keywords: []string{"security", "vulnerability", "exploit", "hack"}},
	{Label: "wallet", Keywords: []string{"wallet", "balance", "account", "private key", "seed phrase", "coinbase", "metamask", "ledger", "trezor"}},
	{Label: "transaction", Keywords: []string{"transaction", "swap", "transfer", "tx"}},
	{Label: "contract", Keywords: []string{"contract", "smart contract", "solidity"}},
	{Label: "gas-fee", Keywords: []string{"gas", "fee"}},
	{Label: "help", Keywords: []string{"help", "question", "how to"}},
}

// DefaultPriorityRules is the built-in priority table, evaluated
// independently of categories with its own precedence order.
var DefaultPriorityRules = []config.Rule{
	{Label: "priority-critical", Keywords: []string{"critical", "emergency", "security breach", "exploit", "hack", "funds at risk", "total loss"}},
	{Label: "priority-urgent", Keywords: []string{"urgent", "asap", "immediately", "cant access", "locked out", "lost funds"}},
	{Label: "priority-high", Keywords: []string{"high", "important", "stuck", "frozen", "missing balance"}},
	{Label: "priority-low", Keywords: []string{"minor", "low", "suggestion", "enhancement", "feature request"}},
}

const (
	// DefaultCategory applies when no category rule matches.
	DefaultCategory = "general"

	// DefaultPriority applies when no priority rule matches.
	DefaultPriority = "priority-medium"
)

// Classifier derives category and priority labels from issue text via
// ordered keyword matching. Identical text always yields an identical
// classification; overlapping keywords resolve by rule order, not count.
type Classifier struct {
	categories []config.Rule
	priorities []config.Rule
}

// NewClassifier creates a classifier, using config rule tables when present
// and the built-in tables otherwise.
func NewClassifier(cfg *config.Config) *Classifier {
	c := &Classifier{
		categories: DefaultCategoryRules,
		priorities: DefaultPriorityRules,
	}
	if cfg != nil && len(cfg.Categories) > 0 {
		c.categories = cfg.Categories
	}
	if cfg != nil && len(cfg.Priorities) > 0 {
		c.priorities = cfg.Priorities
	}
	return c
}

// Name returns the step name.
func (s *Classifier) Name() string {
	return "classifier"
}

// Run classifies the issue and stores the result in the context.
func (s *Classifier) Run(ctx *pipeline.Context) error {
	classification := s.Classify(ctx.Issue.Title, ctx.Issue.Body)
	ctx.Classification = classification
	ctx.Result.Classification = classification

	log.Printf("[classifier] Issue %s classified as %s / %s",
		ctx.Issue.Key(), classification.Category, classification.Priority)

	return nil
}

// Classify is a pure function of (title, body).
func (s *Classifier) Classify(title, body string) pipeline.Classification {
	content := strings.ToLower(title + " " + body)

	return pipeline.Classification{
		Category: firstMatch(content, s.categories, DefaultCategory),
		Priority: firstMatch(content, s.priorities, DefaultPriority),
	}
}

// firstMatch evaluates the ordered rule table against content and returns
// the first matching label, or fallback when nothing matches.
func firstMatch(content string, rules []config.Rule, fallback string) string {
	for _, rule := range rules {
		for _, keyword := range rule.Keywords {
			if keyword == "" {
				continue
			}
			if strings.Contains(content, strings.ToLower(keyword)) {
				return rule.Label
			}
		}
	}
	return fallback
}
