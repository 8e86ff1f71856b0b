package mocks

import (
	"context"
	"sync"

	"github.com/custodia-labs/signpost-sync/internal/core/domain"
	"github.com/custodia-labs/signpost-sync/internal/core/ports/driven"
)

// Ensure MockSyncStateStore implements SyncStateStore
var _ driven.SyncStateStore = (*MockSyncStateStore)(nil)

// MockSyncStateStore is a mock implementation of SyncStateStore for testing
type MockSyncStateStore struct {
	mu     sync.RWMutex
	states map[domain.EntityKind]domain.SyncState
	saves  int
}

// NewMockSyncStateStore creates a new MockSyncStateStore
func NewMockSyncStateStore() *MockSyncStateStore {
	return &MockSyncStateStore{
		states: make(map[domain.EntityKind]domain.SyncState),
	}
}

func (m *MockSyncStateStore) Save(ctx context.Context, state *domain.SyncState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[state.Kind] = *state
	m.saves++
	return nil
}

func (m *MockSyncStateStore) Get(ctx context.Context, kind domain.EntityKind) (*domain.SyncState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	state, ok := m.states[kind]
	if !ok {
		return domain.NewSyncState(kind), nil
	}
	return &state, nil
}

func (m *MockSyncStateStore) List(ctx context.Context) ([]*domain.SyncState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.SyncState, 0, len(m.states))
	for _, state := range m.states {
		s := state
		result = append(result, &s)
	}
	return result, nil
}

// Saves returns how many times Save was called.
func (m *MockSyncStateStore) Saves() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.saves
}
