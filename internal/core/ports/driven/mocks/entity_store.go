package mocks

import (
	"context"
	"sync"

	"github.com/custodia-labs/signpost-sync/internal/core/domain"
	"github.com/custodia-labs/signpost-sync/internal/core/ports/driven"
)

// Ensure MockEntityStore implements EntityStore
var _ driven.EntityStore = (*MockEntityStore)(nil)

// MockEntityStore is a map-backed EntityStore for testing.
// Set Err to make every call fail, simulating an unavailable medium.
type MockEntityStore struct {
	mu       sync.RWMutex
	entities map[domain.EntityKind]map[int64]*domain.Entity
	meta     map[string][]byte
	puts     int

	Err error

	// PutFn, when set, runs before every Put (e.g. to block or observe ordering).
	PutFn func(kind domain.EntityKind, entity *domain.Entity)
}

// NewMockEntityStore creates a new MockEntityStore
func NewMockEntityStore() *MockEntityStore {
	return &MockEntityStore{
		entities: make(map[domain.EntityKind]map[int64]*domain.Entity),
		meta:     make(map[string][]byte),
	}
}

// Seed stores entities without counting them as puts.
func (m *MockEntityStore) Seed(kind domain.EntityKind, entities ...*domain.Entity) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range entities {
		m.table(kind)[e.ID] = e.Clone()
	}
}

func (m *MockEntityStore) table(kind domain.EntityKind) map[int64]*domain.Entity {
	t, ok := m.entities[kind]
	if !ok {
		t = make(map[int64]*domain.Entity)
		m.entities[kind] = t
	}
	return t
}

func (m *MockEntityStore) GetAll(ctx context.Context, kind domain.EntityKind) ([]*domain.Entity, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Entity, 0, len(m.entities[kind]))
	for _, e := range m.entities[kind] {
		result = append(result, e.Clone())
	}
	return result, nil
}

func (m *MockEntityStore) Get(ctx context.Context, kind domain.EntityKind, id int64) (*domain.Entity, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entities[kind][id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return e.Clone(), nil
}

func (m *MockEntityStore) Put(ctx context.Context, kind domain.EntityKind, entity *domain.Entity) error {
	if m.PutFn != nil {
		m.PutFn(kind, entity)
	}
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.table(kind)[entity.ID] = entity.Clone()
	m.puts++
	return nil
}

func (m *MockEntityStore) Count(ctx context.Context, kind domain.EntityKind) (int, error) {
	if m.Err != nil {
		return 0, m.Err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entities[kind]), nil
}

func (m *MockEntityStore) GetMeta(ctx context.Context, key string) ([]byte, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.meta[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (m *MockEntityStore) SetMeta(ctx context.Context, key string, value []byte) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.meta[key] = append([]byte(nil), value...)
	return nil
}

func (m *MockEntityStore) Ping(ctx context.Context) error {
	return m.Err
}

func (m *MockEntityStore) Close() error {
	return nil
}

// Puts returns how many entities were written through Put.
func (m *MockEntityStore) Puts() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.puts
}
