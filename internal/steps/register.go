package steps

import (
	"github.com/similigh/mirror-bot/internal/core/pipeline"
)

// RegisterAll registers all built-in steps with the registry.
// Note: the classifier factory closes over no dependencies; its rule tables
// come from the config carried by the pipeline context at build time, so it
// is constructed lazily inside a wrapper step.
func RegisterAll(r *pipeline.Registry) {
	r.Register("keyword_gate", func(deps *pipeline.Dependencies) (pipeline.Step, error) {
		return NewKeywordGate(), nil
	})

	r.Register("classifier", func(deps *pipeline.Dependencies) (pipeline.Step, error) {
		return &configuredClassifier{}, nil
	})

	r.Register("duplicate_check", func(deps *pipeline.Dependencies) (pipeline.Step, error) {
		return NewDuplicateCheck(deps), nil
	})

	r.Register("owner_resolution", func(deps *pipeline.Dependencies) (pipeline.Step, error) {
		return NewOwnerResolution(deps), nil
	})

	r.Register("mirror_creator", func(deps *pipeline.Dependencies) (pipeline.Step, error) {
		return NewMirrorCreator(deps), nil
	})

	r.Register("escalation_comment", func(deps *pipeline.Dependencies) (pipeline.Step, error) {
		return NewEscalationComment(deps), nil
	})
}

// configuredClassifier defers classifier construction until the config is
// available on the pipeline context.
type configuredClassifier struct{}

func (s *configuredClassifier) Name() string {
	return "classifier"
}

func (s *configuredClassifier) Run(ctx *pipeline.Context) error {
	return NewClassifier(ctx.Config).Run(ctx)
}
