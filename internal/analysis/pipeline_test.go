package analysis

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/spigell/cv-agent/internal/ai"
	"github.com/spigell/cv-agent/internal/store"
	"go.uber.org/zap"
)

type stubReviewer struct {
	review  *ai.Review
	err     error
	lastReq *ai.Request
}

func (s *stubReviewer) Review(_ context.Context, req *ai.Request) (*ai.Review, error) {
	s.lastReq = req
	if s.err != nil {
		return nil, s.err
	}
	return s.review, nil
}

func TestPipelineRunWithReviewer(t *testing.T) {
	t.Parallel()

	reviewer := &stubReviewer{review: &ai.Review{Score: 88, Summary: "strong"}}
	mem := store.NewMemory()

	p := New(Deps{Logger: zap.NewNop(), Reviewer: reviewer, Store: mem})

	a, err := p.Run(context.Background(), &Request{
		Name: "Backend CV",
		CV:   "go, postgres, kubernetes",
		Job:  "senior backend engineer",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if a.ID == "" {
		t.Fatalf("expected generated id")
	}

	if a.Status != store.StatusReviewed {
		t.Fatalf("expected reviewed status, got %s", a.Status)
	}

	if a.Review == nil || a.Review.Score != 88 {
		t.Fatalf("expected review attached, got %+v", a.Review)
	}

	if reviewer.lastReq == nil || reviewer.lastReq.Job != "senior backend engineer" {
		t.Fatalf("expected job description passed to reviewer")
	}

	stored, err := mem.Get(context.Background(), a.ID)
	if err != nil {
		t.Fatalf("analysis was not persisted: %v", err)
	}

	if stored.Status != store.StatusReviewed {
		t.Fatalf("unexpected stored status: %s", stored.Status)
	}
}

func TestPipelineRunWithoutReviewer(t *testing.T) {
	t.Parallel()

	mem := store.NewMemory()
	p := New(Deps{Logger: zap.NewNop(), Store: mem})

	a, err := p.Run(context.Background(), &Request{CV: "some cv text"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if a.Status != store.StatusSkipped {
		t.Fatalf("expected skipped status, got %s", a.Status)
	}

	if a.Review != nil {
		t.Fatalf("expected no review")
	}

	if a.Name != "untitled" {
		t.Fatalf("expected default name, got %s", a.Name)
	}
}

func TestPipelineRejectsEmptyCV(t *testing.T) {
	t.Parallel()

	p := New(Deps{Logger: zap.NewNop(), Store: store.NewMemory()})

	_, err := p.Run(context.Background(), &Request{Name: "empty"})
	if !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
	if err == nil || !strings.Contains(err.Error(), "validate") {
		t.Fatalf("expected the failing step named, got %v", err)
	}
}

func TestPipelineStorageErrorIsMarked(t *testing.T) {
	t.Parallel()

	p := New(Deps{Logger: zap.NewNop()})

	_, err := p.Run(context.Background(), &Request{CV: "text"})
	if !errors.Is(err, ErrStorage) {
		t.Fatalf("expected ErrStorage, got %v", err)
	}
	if errors.Is(err, ErrInvalid) {
		t.Fatalf("storage failure must not read as a validation error: %v", err)
	}
}

func TestPipelineReviewerErrorAborts(t *testing.T) {
	t.Parallel()

	wantErr := errors.New("model unavailable")
	mem := store.NewMemory()
	p := New(Deps{
		Logger:   zap.NewNop(),
		Reviewer: &stubReviewer{err: wantErr},
		Store:    mem,
	})

	_, err := p.Run(context.Background(), &Request{CV: "text"})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected reviewer error, got %v", err)
	}

	list, err := mem.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("failed run must not persist, found %d records", len(list))
	}
}

func TestPipelineNilRequest(t *testing.T) {
	t.Parallel()

	p := New(Deps{Store: store.NewMemory()})
	if _, err := p.Run(context.Background(), nil); err == nil {
		t.Fatalf("expected error for nil request")
	}
}
