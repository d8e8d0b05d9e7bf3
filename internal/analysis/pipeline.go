package analysis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spigell/cv-agent/internal/ai"
	"github.com/spigell/cv-agent/internal/store"
	"go.uber.org/zap"
)

// Step is a single stage of the analysis pipeline applied to a draft record.
type Step interface {
	Name() string
	Disable(reason string)
	IsEnabled() bool

	Apply(ctx context.Context, deps Deps, a *store.Analysis) error
}

// Deps aggregates dependencies shared across all pipeline steps.
type Deps struct {
	Logger   *zap.Logger
	Reviewer ai.Reviewer
	Store    store.Store
}

// Request is a CV submission entering the pipeline.
type Request struct {
	Name string `json:"name"`
	CV   string `json:"cv"`
	Job  string `json:"job,omitempty"`
}

// Pipeline runs submissions through its steps in order.
type Pipeline struct {
	deps  Deps
	steps []Step
}

// New builds the default pipeline: validate, AI review, persist. The review
// step is disabled when no reviewer is configured; the analysis is then
// stored with the skipped status.
func New(deps Deps) *Pipeline {
	reviewStep := NewReview()
	if deps.Reviewer == nil {
		reviewStep.Disable("no reviewer configured")
	}

	return &Pipeline{
		deps: deps,
		steps: []Step{
			NewValidate(),
			reviewStep,
			NewPersist(),
		},
	}
}

// Steps exposes the configured steps, mainly for status reporting.
func (p *Pipeline) Steps() []Step {
	return p.steps
}

// Run creates a draft analysis from the request and applies every enabled
// step sequentially. The first step error aborts the run.
func (p *Pipeline) Run(ctx context.Context, req *Request) (*store.Analysis, error) {
	if req == nil {
		return nil, fmt.Errorf("request is required")
	}

	now := time.Now().UTC()
	a := &store.Analysis{
		ID:        uuid.NewString(),
		Name:      req.Name,
		CV:        req.CV,
		Job:       req.Job,
		Status:    store.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	for _, step := range p.steps {
		if !step.IsEnabled() {
			if p.deps.Logger != nil {
				p.deps.Logger.Info("pipeline step disabled", zap.String("name", step.Name()))
			}
			continue
		}

		if err := step.Apply(ctx, p.deps, a); err != nil {
			return nil, fmt.Errorf("%s: %w", step.Name(), err)
		}

		if p.deps.Logger != nil {
			p.deps.Logger.Info("pipeline step",
				zap.String("name", step.Name()),
				zap.String("analysis_id", a.ID),
				zap.String("status", a.Status),
			)
		}
	}

	return a, nil
}
