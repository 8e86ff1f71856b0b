package mocks

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/custodia-labs/signpost-sync/internal/core/domain"
	"github.com/custodia-labs/signpost-sync/internal/core/ports/driven"
)

// Ensure MockRemoteClient implements RemoteClient
var _ driven.RemoteClient = (*MockRemoteClient)(nil)

// FetchCall records one FetchEntities invocation.
type FetchCall struct {
	Kind  domain.EntityKind
	Since *domain.Timestamp
}

// MockRemoteClient is a scriptable RemoteClient for testing.
// Without FetchFn it serves Responses per kind (empty when unset).
type MockRemoteClient struct {
	mu    sync.Mutex
	calls []FetchCall

	Responses map[domain.EntityKind][]*domain.Entity
	Site      json.RawMessage
	SiteErr   error

	FetchFn func(ctx context.Context, kind domain.EntityKind, since *domain.Timestamp) ([]*domain.Entity, error)
	PingFn  func() error
}

// NewMockRemoteClient creates a new MockRemoteClient
func NewMockRemoteClient() *MockRemoteClient {
	return &MockRemoteClient{
		Responses: make(map[domain.EntityKind][]*domain.Entity),
	}
}

func (m *MockRemoteClient) FetchEntities(ctx context.Context, kind domain.EntityKind, since *domain.Timestamp) ([]*domain.Entity, error) {
	m.mu.Lock()
	var sinceCopy *domain.Timestamp
	if since != nil {
		v := *since
		sinceCopy = &v
	}
	m.calls = append(m.calls, FetchCall{Kind: kind, Since: sinceCopy})
	fn := m.FetchFn
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, kind, since)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]*domain.Entity, 0, len(m.Responses[kind]))
	for _, e := range m.Responses[kind] {
		result = append(result, e.Clone())
	}
	return result, nil
}

func (m *MockRemoteClient) FetchSite(ctx context.Context) (json.RawMessage, error) {
	if m.SiteErr != nil {
		return nil, m.SiteErr
	}
	return m.Site, nil
}

func (m *MockRemoteClient) Ping(ctx context.Context) error {
	if m.PingFn != nil {
		return m.PingFn()
	}
	return nil
}

// Calls returns the recorded FetchEntities calls.
func (m *MockRemoteClient) Calls() []FetchCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]FetchCall(nil), m.calls...)
}

// CallsFor returns the recorded calls for one kind.
func (m *MockRemoteClient) CallsFor(kind domain.EntityKind) []FetchCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []FetchCall
	for _, c := range m.calls {
		if c.Kind == kind {
			result = append(result, c)
		}
	}
	return result
}
