package store

import (
	"context"
	"sync"
)

// Memory is a mutex-guarded map store. Records live only inside one process,
// so it is unsuitable for the multi-worker deployment model.
type Memory struct {
	mu      sync.RWMutex
	records map[string]*Analysis
}

func NewMemory() *Memory {
	return &Memory{records: make(map[string]*Analysis)}
}

func (m *Memory) Save(_ context.Context, a *Analysis) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	copied := *a
	m.records[a.ID] = &copied
	return nil
}

func (m *Memory) Get(_ context.Context, id string) (*Analysis, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	a, ok := m.records[id]
	if !ok {
		return nil, ErrNotFound
	}

	copied := *a
	return &copied, nil
}

func (m *Memory) List(_ context.Context) ([]*Analysis, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*Analysis, 0, len(m.records))
	for _, a := range m.records {
		copied := *a
		result = append(result, &copied)
	}

	sortByCreation(result)

	return result, nil
}

func (m *Memory) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.records[id]; !ok {
		return ErrNotFound
	}

	delete(m.records, id)
	return nil
}

func (m *Memory) Ping(_ context.Context) error {
	return nil
}

func (m *Memory) Close() error {
	return nil
}

// Kind returns a short name for the /info endpoint.
func (m *Memory) Kind() string {
	return "memory"
}
