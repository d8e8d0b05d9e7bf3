package store

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/spigell/cv-agent/internal/ai"
)

// ErrNotFound is returned when the requested analysis does not exist.
var ErrNotFound = errors.New("analysis not found")

// Analysis statuses.
const (
	StatusPending  = "pending"
	StatusReviewed = "reviewed"
	StatusSkipped  = "skipped"
)

// Analysis is the persisted record for one submitted CV.
type Analysis struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	CV        string     `json:"cv"`
	Job       string     `json:"job,omitempty"`
	Status    string     `json:"status"`
	Review    *ai.Review `json:"review,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Store persists analyses. Worker processes hold no state of their own, so in
// multi-worker deployments the store must be shared (redis); the in-memory
// implementation exists for development and tests.
type Store interface {
	Save(ctx context.Context, a *Analysis) error
	Get(ctx context.Context, id string) (*Analysis, error)
	List(ctx context.Context) ([]*Analysis, error)
	Delete(ctx context.Context, id string) error
	// Ping reports whether the backing storage is reachable. The readiness
	// endpoint uses it.
	Ping(ctx context.Context) error
	Close() error
}

// sortByCreation orders list results oldest first, with the ID as a tie
// breaker. Every implementation must list in this order.
func sortByCreation(result []*Analysis) {
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
}
