package testutil

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/synthgen/backend/internal/history"
	"github.com/synthgen/backend/internal/models"
)

// MockHistory implements history.Store in memory
type MockHistory struct {
	mu   sync.RWMutex
	runs map[string]*models.Run

	// SaveErr, when set, is returned by Save
	SaveErr error
	// ListErr, when set, is returned by List
	ListErr error
}

// NewMockHistory creates an empty mock history
func NewMockHistory() *MockHistory {
	return &MockHistory{runs: make(map[string]*models.Run)}
}

func (m *MockHistory) Save(_ context.Context, run *models.Run) error {
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *run
	m.runs[run.ID] = &copied
	return nil
}

func (m *MockHistory) Get(_ context.Context, id string) (*models.Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	run, ok := m.runs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", history.ErrNotFound, id)
	}
	copied := *run
	return &copied, nil
}

func (m *MockHistory) List(_ context.Context, limit int) ([]*models.Run, error) {
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	runs := make([]*models.Run, 0, len(m.runs))
	for _, run := range m.runs {
		copied := *run
		copied.Data = nil
		runs = append(runs, &copied)
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].CreatedAt.After(runs[j].CreatedAt) })
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

func (m *MockHistory) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.runs[id]; !ok {
		return fmt.Errorf("%w: %s", history.ErrNotFound, id)
	}
	delete(m.runs, id)
	return nil
}

func (m *MockHistory) DeleteOlderThan(_ context.Context, cutoff time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for id, run := range m.runs {
		if run.CreatedAt.Before(cutoff) {
			delete(m.runs, id)
			n++
		}
	}
	return n, nil
}

// Count returns the number of stored runs
func (m *MockHistory) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.runs)
}

var _ history.Store = (*MockHistory)(nil)
