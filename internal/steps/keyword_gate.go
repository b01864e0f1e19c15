// Package steps contains the modular pipeline steps.
// Each step implements the pipeline.Step interface.
package steps

import (
	"log"
	"strings"

	"github.com/similigh/mirror-bot/internal/core/pipeline"
)

// KeywordGate skips issues whose text matches none of the configured
// keywords. Skipped issues are still recorded as processed by the caller.
type KeywordGate struct{}

// NewKeywordGate creates a new keyword gate step.
func NewKeywordGate() *KeywordGate {
	return &KeywordGate{}
}

// Name returns the step name.
func (s *KeywordGate) Name() string {
	return "keyword_gate"
}

// Run checks the issue against the keyword policy.
func (s *KeywordGate) Run(ctx *pipeline.Context) error {
	if Matches(ctx.Issue.Title, ctx.Issue.Body, ctx.Config.Keywords) {
		log.Printf("[keyword_gate] Issue %s matches keyword policy", ctx.Issue.Key())
		return nil
	}

	ctx.Result.Skipped = true
	ctx.Result.SkipReason = "no keyword match"
	return pipeline.ErrSkipPipeline
}

// Matches reports whether title or body contains any keyword,
// case-insensitive. An empty keyword list matches nothing.
func Matches(title, body string, keywords []string) bool {
	content := strings.ToLower(title + " " + body)
	for _, keyword := range keywords {
		if keyword == "" {
			continue
		}
		if strings.Contains(content, strings.ToLower(keyword)) {
			return true
		}
	}
	return false
}
