package mocks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/custodia-labs/signpost-sync/internal/core/ports/driven"
)

// Ensure MockDistributedLock implements DistributedLock
var _ driven.DistributedLock = (*MockDistributedLock)(nil)

// MockDistributedLock is an in-memory DistributedLock with TTL tracking.
// Hooks override the default behaviour when set.
type MockDistributedLock struct {
	mu       sync.Mutex
	locks    map[string]time.Time
	acquired []string
	extends  int

	AcquireFn func(name string, ttl time.Duration) (bool, error)
	PingFn    func() error
}

// NewMockDistributedLock creates a new mock distributed lock.
func NewMockDistributedLock() *MockDistributedLock {
	return &MockDistributedLock{
		locks: make(map[string]time.Time),
	}
}

func (m *MockDistributedLock) Acquire(ctx context.Context, name string, ttl time.Duration) (bool, error) {
	if m.AcquireFn != nil {
		return m.AcquireFn(name, ttl)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if expiry, held := m.locks[name]; held && time.Now().Before(expiry) {
		return false, nil
	}
	m.locks[name] = time.Now().Add(ttl)
	m.acquired = append(m.acquired, name)
	return true, nil
}

func (m *MockDistributedLock) Release(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locks, name)
	return nil
}

func (m *MockDistributedLock) Extend(ctx context.Context, name string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	expiry, held := m.locks[name]
	if !held || time.Now().After(expiry) {
		return fmt.Errorf("lock %s not held", name)
	}
	m.locks[name] = time.Now().Add(ttl)
	m.extends++
	return nil
}

func (m *MockDistributedLock) Ping(ctx context.Context) error {
	if m.PingFn != nil {
		return m.PingFn()
	}
	return nil
}

// IsHeld checks if a lock is currently held (for test assertions).
func (m *MockDistributedLock) IsHeld(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	expiry, held := m.locks[name]
	return held && time.Now().Before(expiry)
}

// SetLockHeld simulates another instance holding the lock.
func (m *MockDistributedLock) SetLockHeld(name string, ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locks[name] = time.Now().Add(ttl)
}

// Acquired lists every successful acquisition in order.
func (m *MockDistributedLock) Acquired() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.acquired...)
}

// Extends counts successful TTL extensions.
func (m *MockDistributedLock) Extends() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.extends
}
