package redis

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/custodia-labs/signpost-sync/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.DistributedLock = (*Lock)(nil)

// Lock implements DistributedLock using SET NX with a TTL.
// Each instance owns its locks through a unique owner token, so an instance
// can never release or extend a lock another one holds.
type Lock struct {
	client  redis.UniversalClient
	ownerID string
}

// NewLock creates a new Redis-backed distributed lock.
func NewLock(client redis.UniversalClient) *Lock {
	hostname, _ := os.Hostname()
	return &Lock{
		client:  client,
		ownerID: fmt.Sprintf("%s:%d:%s", hostname, os.Getpid(), uuid.NewString()),
	}
}

// Acquire takes the lock when nobody holds it.
func (l *Lock) Acquire(ctx context.Context, name string, ttl time.Duration) (bool, error) {
	ok, err := l.client.SetNX(ctx, lockKey(name), l.ownerID, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire lock %s: %w", name, err)
	}
	return ok, nil
}

// compareAndDelete deletes KEYS[1] only while it still holds ARGV[1].
var compareAndDelete = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// compareAndExpire sets a new TTL on KEYS[1] only while it still holds ARGV[1].
var compareAndExpire = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("pexpire", KEYS[1], ARGV[2])
end
return 0
`)

// Release drops the lock if this instance still owns it.
func (l *Lock) Release(ctx context.Context, name string) error {
	err := compareAndDelete.Run(ctx, l.client, []string{lockKey(name)}, l.ownerID).Err()
	if err != nil && err != redis.Nil {
		return fmt.Errorf("release lock %s: %w", name, err)
	}
	return nil
}

// Extend pushes out the expiry of a lock this instance owns.
func (l *Lock) Extend(ctx context.Context, name string, ttl time.Duration) error {
	n, err := compareAndExpire.Run(ctx, l.client, []string{lockKey(name)}, l.ownerID, ttl.Milliseconds()).Int64()
	if err != nil {
		return fmt.Errorf("extend lock %s: %w", name, err)
	}
	if n == 0 {
		return fmt.Errorf("lock %s not held by this instance", name)
	}
	return nil
}

// Ping checks if the Redis backend is healthy.
func (l *Lock) Ping(ctx context.Context) error {
	return l.client.Ping(ctx).Err()
}

// OwnerID identifies this instance in lock values.
func (l *Lock) OwnerID() string {
	return l.ownerID
}
