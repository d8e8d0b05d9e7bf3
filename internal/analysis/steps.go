package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spigell/cv-agent/internal/ai"
	"github.com/spigell/cv-agent/internal/store"
)

// MaxCVLength caps submissions. Matches the 16 MB request body limit of the
// upstream deployment.
const MaxCVLength = 16 << 20

// ErrInvalid marks submissions rejected by validation; callers map it to a
// client error.
var ErrInvalid = errors.New("invalid submission")

// ErrStorage marks persistence failures, as opposed to upstream AI failures.
var ErrStorage = errors.New("storage failure")

type baseStep struct {
	name     string
	disabled bool
	reason   string
}

func (s *baseStep) Name() string { return s.name }

func (s *baseStep) Disable(reason string) {
	s.disabled = true
	s.reason = reason
}

func (s *baseStep) IsEnabled() bool { return !s.disabled }

// Validate rejects submissions the rest of the pipeline cannot work with.
type Validate struct {
	baseStep
}

func NewValidate() *Validate {
	return &Validate{baseStep{name: "validate"}}
}

func (s *Validate) Apply(_ context.Context, _ Deps, a *store.Analysis) error {
	if strings.TrimSpace(a.CV) == "" {
		return fmt.Errorf("%w: cv text is required", ErrInvalid)
	}

	if len(a.CV) > MaxCVLength {
		return fmt.Errorf("%w: cv text exceeds the %d byte limit", ErrInvalid, MaxCVLength)
	}

	if strings.TrimSpace(a.Name) == "" {
		a.Name = "untitled"
	}

	return nil
}

// Review asks the configured AI reviewer for an assessment.
type Review struct {
	baseStep
}

func NewReview() *Review {
	return &Review{baseStep{name: "ai-review"}}
}

func (s *Review) Apply(ctx context.Context, deps Deps, a *store.Analysis) error {
	if deps.Reviewer == nil {
		a.Status = store.StatusSkipped
		return nil
	}

	review, err := deps.Reviewer.Review(ctx, &ai.Request{
		ID:   a.ID,
		Name: a.Name,
		CV:   a.CV,
		Job:  a.Job,
	})
	if err != nil {
		return fmt.Errorf("review cv: %w", err)
	}

	a.Review = review
	a.Status = store.StatusReviewed
	return nil
}

// Persist writes the analysis to the shared store.
type Persist struct {
	baseStep
}

func NewPersist() *Persist {
	return &Persist{baseStep{name: "persist"}}
}

func (s *Persist) Apply(ctx context.Context, deps Deps, a *store.Analysis) error {
	if deps.Store == nil {
		return fmt.Errorf("%w: store is not configured", ErrStorage)
	}

	// A disabled review step leaves the record pending; record the skip so
	// consumers can tell it apart from a review that never ran.
	if a.Status == store.StatusPending {
		a.Status = store.StatusSkipped
	}

	if err := deps.Store.Save(ctx, a); err != nil {
		return fmt.Errorf("%w: save analysis: %w", ErrStorage, err)
	}

	return nil
}
