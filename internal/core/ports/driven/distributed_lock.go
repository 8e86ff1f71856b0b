package driven

import (
	"context"
	"time"
)

// DistributedLock serializes work across instances sharing one store.
// Sync cycles take "sync:<kind>" and the refresh scheduler takes "scheduler:refresh".
type DistributedLock interface {
	// Acquire attempts to acquire a named lock with the given TTL.
	// Returns false without error when another holder has it.
	Acquire(ctx context.Context, name string, ttl time.Duration) (acquired bool, err error)

	// Release releases a named lock.
	// Safe to call even if the lock is not held or has expired.
	Release(ctx context.Context, name string) error

	// Extend extends the TTL of a currently held lock.
	// Not all implementations support TTL extension (e.g., PostgreSQL advisory locks).
	Extend(ctx context.Context, name string, ttl time.Duration) error

	// Ping checks if the lock backend is healthy.
	Ping(ctx context.Context) error
}
