package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/custodia-labs/signpost-sync/internal/core/ports/driven"
)

// lease is a held distributed lock whose TTL is extended in the background
// until release is called.
type lease struct {
	lock   driven.DistributedLock
	name   string
	logger *slog.Logger

	stop chan struct{}
	wg   sync.WaitGroup
	once sync.Once
}

// acquireLease takes name for ttl. When the lock is held elsewhere it
// returns nil and no error.
func acquireLease(ctx context.Context, lock driven.DistributedLock, name string, ttl time.Duration, logger *slog.Logger) (*lease, error) {
	acquired, err := lock.Acquire(ctx, name, ttl)
	if err != nil || !acquired {
		return nil, err
	}

	l := &lease{
		lock:   lock,
		name:   name,
		logger: logger,
		stop:   make(chan struct{}),
	}
	if ttl > 0 {
		l.wg.Add(1)
		go l.keepAlive(context.WithoutCancel(ctx), ttl)
	}
	return l, nil
}

func (l *lease) keepAlive(ctx context.Context, ttl time.Duration) {
	defer l.wg.Done()

	ticker := time.NewTicker(max(ttl/2, time.Millisecond))
	defer ticker.Stop()

	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
			if err := l.lock.Extend(ctx, l.name, ttl); err != nil {
				l.logger.Debug("failed to extend lock", "lock", l.name, "error", err)
			}
		}
	}
}

// release stops the keepalive and frees the lock. Safe to call twice.
func (l *lease) release(ctx context.Context) {
	l.once.Do(func() {
		close(l.stop)
		l.wg.Wait()
		if err := l.lock.Release(ctx, l.name); err != nil {
			l.logger.Warn("failed to release lock", "lock", l.name, "error", err)
		}
	})
}
