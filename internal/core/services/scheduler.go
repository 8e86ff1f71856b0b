package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/custodia-labs/signpost-sync/internal/core/ports/driven"
	"github.com/custodia-labs/signpost-sync/internal/core/ports/driving"
)

// schedulerLockName is shared by every instance refreshing the same store.
const schedulerLockName = "scheduler:refresh"

// RefreshScheduler re-runs SyncAll on a fixed interval after boot. With a
// DistributedLock only one instance refreshes per tick.
type RefreshScheduler struct {
	sync       driving.SyncService
	lock       driven.DistributedLock
	logger     *slog.Logger
	interval   time.Duration
	lockTTL    time.Duration
	runOnStart bool

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// RefreshSchedulerConfig holds configuration for the scheduler.
type RefreshSchedulerConfig struct {
	Sync       driving.SyncService
	Lock       driven.DistributedLock // Optional
	Logger     *slog.Logger
	Interval   time.Duration // 0 disables the scheduler
	LockTTL    time.Duration // default: Interval
	RunOnStart bool          // Refresh immediately instead of waiting one interval
}

// NewRefreshScheduler creates a new refresh scheduler.
func NewRefreshScheduler(cfg RefreshSchedulerConfig) *RefreshScheduler {
	s := &RefreshScheduler{
		sync:       cfg.Sync,
		lock:       cfg.Lock,
		logger:     cfg.Logger,
		interval:   cfg.Interval,
		lockTTL:    cfg.LockTTL,
		runOnStart: cfg.RunOnStart,
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.lockTTL <= 0 {
		s.lockTTL = s.interval
	}
	return s
}

// Enabled reports whether a refresh interval is configured.
func (s *RefreshScheduler) Enabled() bool {
	return s.interval > 0
}

// Running reports whether the refresh loop is active.
func (s *RefreshScheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Start launches the refresh loop. It returns immediately; the loop ends on
// Stop or when ctx is cancelled. Starting twice is a no-op.
func (s *RefreshScheduler) Start(ctx context.Context) error {
	if !s.Enabled() {
		s.logger.Info("refresh scheduler disabled")
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil
	}

	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.running = true

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop(loopCtx)

		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	s.logger.Info("refresh scheduler started", "interval", s.interval)
	return nil
}

// Stop cancels the loop and waits for an in-flight refresh to return.
func (s *RefreshScheduler) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	s.wg.Wait()
	s.logger.Info("refresh scheduler stopped")
}

func (s *RefreshScheduler) loop(ctx context.Context) {
	if s.runOnStart {
		s.refresh(ctx)
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.refresh(ctx)
		}
	}
}

// refresh runs one SyncAll. With a lock configured, a tick that cannot
// take the lock is skipped.
func (s *RefreshScheduler) refresh(ctx context.Context) {
	if s.lock != nil {
		l, err := acquireLease(ctx, s.lock, schedulerLockName, s.lockTTL, s.logger)
		if err != nil {
			s.logger.Warn("failed to acquire scheduler lock", "error", err)
			return
		}
		if l == nil {
			s.logger.Debug("scheduler lock held by another instance, skipping refresh")
			return
		}
		defer l.release(context.WithoutCancel(ctx))
	}

	start := time.Now()
	results, err := s.sync.SyncAll(ctx)
	if err != nil {
		s.logger.Error("scheduled refresh failed", "error", err)
		return
	}

	var failed, fetched int
	for _, r := range results {
		if r == nil {
			continue
		}
		if !r.Success {
			failed++
		}
		fetched += r.Stats.Fetched
	}
	s.logger.Info("scheduled refresh finished",
		"kinds", len(results),
		"failed", failed,
		"fetched", fetched,
		"duration_seconds", time.Since(start).Seconds(),
	)
}
