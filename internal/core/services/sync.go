package services

import (
	"bytes"
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/custodia-labs/signpost-sync/internal/core/domain"
	"github.com/custodia-labs/signpost-sync/internal/core/ports/driven"
	"github.com/custodia-labs/signpost-sync/internal/core/ports/driving"
)

// SiteMetaKey is the EntityStore meta key holding the cached site document.
const SiteMetaKey = "site"

// Ensure SyncCoordinator implements SyncService
var _ driving.SyncService = (*SyncCoordinator)(nil)

// SyncCoordinator keeps the local cache and AppState in step with the content API.
//
// Boot serves whatever the store already holds, then reconciles in the background:
//  1. Load every configured kind from the EntityStore
//  2. Mark the state ready when anything was cached
//  3. Fetch changes since the watermark, under the retry policy
//  4. Upsert each returned entity into the store
//  5. Re-read the kind from the store and publish it to AppState
//  6. Persist the new cursor
//
// Cycles for the same kind never overlap. A failed cycle leaves the cached
// state visible and is reported in the result, not as an error.
type SyncCoordinator struct {
	store        driven.EntityStore
	remote       driven.RemoteClient
	syncStore    driven.SyncStateStore
	lock         driven.DistributedLock
	state        *AppState
	kinds        []domain.EntityKind
	retry        RetryPolicy
	cycleTimeout time.Duration
	lockTTL      time.Duration
	concurrency  int
	logger       *slog.Logger

	booted   atomic.Bool
	inflight singleflight.Group

	phaseMu     sync.RWMutex
	phase       domain.SyncPhase
	active      int
	bootPending bool

	baseCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	done    chan struct{}

	closeMu sync.Mutex
	closed  bool
}

// SyncCoordinatorConfig holds dependencies for SyncCoordinator.
type SyncCoordinatorConfig struct {
	Store        driven.EntityStore
	Remote       driven.RemoteClient
	SyncStore    driven.SyncStateStore
	Lock         driven.DistributedLock // Optional: serializes cycles across instances
	State        *AppState              // Created when nil
	Kinds        []domain.EntityKind    // Default: domain.AllKinds()
	Retry        RetryPolicy
	CycleTimeout time.Duration // Bounds a whole cycle; 0 means no limit
	LockTTL      time.Duration // TTL for "sync:<kind>" locks (default: 10m)
	Concurrency  int           // Kinds synced in parallel by SyncAll (default: 1)
	Logger       *slog.Logger
}

// NewSyncCoordinator creates a new sync coordinator.
func NewSyncCoordinator(cfg SyncCoordinatorConfig) *SyncCoordinator {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	state := cfg.State
	if state == nil {
		state = NewAppState()
	}

	kinds := cfg.Kinds
	if len(kinds) == 0 {
		kinds = domain.AllKinds()
	}

	retryPolicy := cfg.Retry
	if retryPolicy.Logger == nil {
		retryPolicy.Logger = logger
	}

	lockTTL := cfg.LockTTL
	if lockTTL == 0 {
		lockTTL = 10 * time.Minute
	}

	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	baseCtx, cancel := context.WithCancel(context.Background())

	return &SyncCoordinator{
		store:        cfg.Store,
		remote:       cfg.Remote,
		syncStore:    cfg.SyncStore,
		lock:         cfg.Lock,
		state:        state,
		kinds:        slices.Clone(kinds),
		retry:        retryPolicy,
		cycleTimeout: cfg.CycleTimeout,
		lockTTL:      lockTTL,
		concurrency:  concurrency,
		logger:       logger,
		phase:        domain.PhaseUninitialized,
		baseCtx:      baseCtx,
		cancel:       cancel,
		done:         make(chan struct{}),
	}
}

// State returns the AppState this coordinator writes to.
func (c *SyncCoordinator) State() *AppState {
	return c.state
}

// Snapshot returns the current application state.
func (c *SyncCoordinator) Snapshot() domain.Snapshot {
	return c.state.Snapshot()
}

// Kinds returns the configured entity kinds.
func (c *SyncCoordinator) Kinds() []domain.EntityKind {
	return slices.Clone(c.kinds)
}

// Phase returns the current state machine position.
func (c *SyncCoordinator) Phase() domain.SyncPhase {
	c.phaseMu.RLock()
	defer c.phaseMu.RUnlock()
	return c.phase
}

// Done is closed once the boot cycle has finished, successful or not.
func (c *SyncCoordinator) Done() <-chan struct{} {
	return c.done
}

func (c *SyncCoordinator) setPhase(phase domain.SyncPhase) {
	c.phaseMu.Lock()
	defer c.phaseMu.Unlock()
	c.setPhaseLocked(phase)
}

func (c *SyncCoordinator) setPhaseLocked(phase domain.SyncPhase) {
	if c.phase == phase {
		return
	}
	c.logger.Debug("sync phase changed", "from", c.phase, "to", phase)
	c.phase = phase
}

func (c *SyncCoordinator) enterCycle() {
	c.phaseMu.Lock()
	defer c.phaseMu.Unlock()
	c.active++
	c.setPhaseLocked(domain.PhaseBackgroundSyncing)
}

func (c *SyncCoordinator) exitCycle() {
	c.phaseMu.Lock()
	defer c.phaseMu.Unlock()
	c.active--
	if c.active == 0 && !c.bootPending {
		c.setPhaseLocked(domain.PhaseSynced)
	}
}

// Boot loads the local cache and schedules the first background sync.
// It never waits on the network; only the first call has any effect.
func (c *SyncCoordinator) Boot(ctx context.Context) error {
	if !c.booted.CompareAndSwap(false, true) {
		return nil
	}

	c.phaseMu.Lock()
	c.bootPending = true
	c.setPhaseLocked(domain.PhaseLoadingLocal)
	c.phaseMu.Unlock()

	warm := c.loadLocal(ctx)
	if warm {
		c.state.setStatus(domain.AppStatusReady)
		c.setPhase(domain.PhaseReady)
	}

	c.logger.Info("boot loaded local cache", "warm", warm, "kinds", len(c.kinds))

	if !c.track() {
		close(c.done)
		return errCoordinatorClosed
	}
	go c.backgroundBoot()

	return nil
}

// loadLocal publishes cached entities and reports whether any kind has rows.
func (c *SyncCoordinator) loadLocal(ctx context.Context) bool {
	if site, err := c.store.GetMeta(ctx, SiteMetaKey); err == nil && len(site) > 0 {
		c.state.setSite(json.RawMessage(site))
	}

	cached := make(map[domain.EntityKind][]*domain.Entity, len(c.kinds))
	warm := false
	for _, kind := range c.kinds {
		count, err := c.store.Count(ctx, kind)
		if err != nil {
			c.logger.Warn("failed to count cached entities",
				"kind", kind,
				"error", fmt.Errorf("%w: %w", domain.ErrLocalStoreUnavailable, err),
			)
			continue
		}
		if count == 0 {
			continue
		}

		entities, err := c.store.GetAll(ctx, kind)
		if err != nil {
			c.logger.Warn("failed to load cached entities",
				"kind", kind,
				"error", fmt.Errorf("%w: %w", domain.ErrLocalStoreUnavailable, err),
			)
			continue
		}
		cached[kind] = sortByID(entities)
		warm = true
	}

	if warm {
		c.state.load(cached, domain.SourceCache)
	}
	return warm
}

// backgroundBoot runs the first reconciliation after Boot.
func (c *SyncCoordinator) backgroundBoot() {
	defer c.wg.Done()
	defer close(c.done)
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("boot sync panicked", "panic", r)
		}
		// A true cold start has finished its first fetch; show the empty state.
		c.state.setStatus(domain.AppStatusReady)

		c.phaseMu.Lock()
		c.bootPending = false
		if c.active == 0 {
			c.setPhaseLocked(domain.PhaseSynced)
		}
		c.phaseMu.Unlock()
	}()

	c.setPhase(domain.PhaseBackgroundSyncing)
	if _, err := c.SyncAll(c.baseCtx); err != nil {
		c.logger.Error("boot sync failed", "error", err)
	}
}

// Trigger starts a sync in the background and returns immediately.
// An empty kind syncs every configured kind.
func (c *SyncCoordinator) Trigger(kind domain.EntityKind) error {
	if kind != "" && !c.configured(kind) {
		return fmt.Errorf("%w: %s", domain.ErrUnknownKind, kind)
	}
	if !c.track() {
		return errCoordinatorClosed
	}

	go func() {
		defer c.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				c.logger.Error("triggered sync panicked", "kind", kind, "panic", r)
			}
		}()

		if kind == "" {
			_, _ = c.SyncAll(c.baseCtx)
			return
		}
		if _, err := c.SyncKind(c.baseCtx, kind); err != nil {
			c.logger.Warn("triggered sync not run", "kind", kind, "error", err)
		}
	}()

	return nil
}

var errCoordinatorClosed = errors.New("sync coordinator closed")

// track registers a background goroutine. It reports false once Close has
// started, so nothing is added to wg while Close waits on it.
func (c *SyncCoordinator) track() bool {
	c.closeMu.Lock()
	defer c.closeMu.Unlock()
	if c.closed {
		return false
	}
	c.wg.Add(1)
	return true
}

// Close cancels background syncs and waits for them to return.
func (c *SyncCoordinator) Close() {
	c.closeMu.Lock()
	if c.closed {
		c.closeMu.Unlock()
		return
	}
	c.closed = true
	c.closeMu.Unlock()

	c.cancel()
	c.wg.Wait()
}

// SyncAll refreshes the site document and then every configured kind.
// Per-kind failures are reported in the results.
func (c *SyncCoordinator) SyncAll(ctx context.Context) ([]*domain.SyncResult, error) {
	c.refreshSite(ctx)

	results := make([]*domain.SyncResult, len(c.kinds))

	var g errgroup.Group
	g.SetLimit(c.concurrency)
	for i, kind := range c.kinds {
		g.Go(func() error {
			result, err := c.SyncKind(ctx, kind)
			if err != nil {
				c.logger.Warn("sync skipped", "kind", kind, "error", err)
				result = &domain.SyncResult{
					Kind:    kind,
					Success: false,
					Error:   err.Error(),
				}
			}
			results[i] = result
			return nil
		})
	}
	_ = g.Wait()

	return results, nil
}

// SyncKind runs one sync cycle for a kind. Concurrent calls for the same
// kind share the in-flight cycle, which runs on the coordinator's own
// context: ctx only bounds how long this caller waits for it. The error is
// non-nil when the cycle could not start or ctx ended first.
func (c *SyncCoordinator) SyncKind(ctx context.Context, kind domain.EntityKind) (*domain.SyncResult, error) {
	if !c.configured(kind) {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownKind, kind)
	}

	ch := c.inflight.DoChan(string(kind), func() (any, error) {
		if !c.track() {
			return nil, errCoordinatorClosed
		}
		defer c.wg.Done()

		c.enterCycle()
		defer c.exitCycle()
		return c.runCycle(c.baseCtx, kind)
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return nil, fmt.Errorf("waiting for %s sync: %w", kind, ctx.Err())
	}
	if res.Err != nil {
		return nil, res.Err
	}

	// Shared results are copied so callers can't see each other's edits.
	result := *res.Val.(*domain.SyncResult)
	return &result, nil
}

// runCycle performs steps 3-6 for one kind.
func (c *SyncCoordinator) runCycle(ctx context.Context, kind domain.EntityKind) (*domain.SyncResult, error) {
	startTime := time.Now()
	runID := uuid.NewString()
	logger := c.logger.With("kind", kind, "run_id", runID)

	if c.cycleTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cycleTimeout)
		defer cancel()
	}

	if c.lock != nil {
		l, err := acquireLease(ctx, c.lock, "sync:"+string(kind), c.lockTTL, logger)
		switch {
		case err != nil:
			logger.Warn("failed to acquire sync lock, continuing unlocked", "error", err)
		case l == nil:
			logger.Info("sync lock held by another instance")
			return nil, fmt.Errorf("%w: %s", domain.ErrSyncInProgress, kind)
		default:
			defer l.release(context.WithoutCancel(ctx))
		}
	}

	syncState, err := c.syncStore.Get(ctx, kind)
	if err != nil {
		logger.Warn("failed to read sync state", "error", err)
		syncState = domain.NewSyncState(kind)
	}

	local, err := c.store.GetAll(ctx, kind)
	if err != nil {
		logger.Warn("treating local cache as empty",
			"error", fmt.Errorf("%w: %w", domain.ErrLocalStoreUnavailable, err),
		)
		local = nil
	}

	// The watermark comes from what the store holds, never from the recorded
	// cursor: a store that lost rows must be refilled by a full fetch.
	since := domain.MaxWatermark(local)
	var sinceArg *domain.Timestamp
	if since > 0 {
		sinceArg = &since
	}

	now := time.Now()
	syncState.Status = domain.SyncStatusRunning
	syncState.StartedAt = &now
	syncState.Error = ""
	c.saveState(ctx, logger, syncState)

	logger.Info("starting sync", "since", since)

	var fetched []*domain.Entity
	attempts, err := c.retry.Run(ctx, "fetch "+string(kind), func(ctx context.Context) error {
		entities, err := c.remote.FetchEntities(ctx, kind, sinceArg)
		if err != nil {
			return err
		}
		fetched = entities
		return nil
	})

	stats := domain.SyncStats{Attempts: attempts}
	if err != nil {
		return c.degrade(ctx, logger, runID, syncState, since, stats, startTime, err), nil
	}

	stats.Fetched = len(fetched)
	known := make(map[int64]*domain.Entity, len(local))
	for _, e := range local {
		known[e.ID] = e
	}

	// Remote copies always win; there is no timestamp comparison.
	for _, entity := range fetched {
		if entity == nil {
			continue
		}
		prev, exists := known[entity.ID]
		switch {
		case !exists:
			stats.Added++
		case prev.SameAs(entity):
			stats.Unchanged++
		default:
			stats.Updated++
		}
		known[entity.ID] = entity

		if err := c.store.Put(ctx, kind, entity); err != nil {
			logger.Warn("failed to store entity", "id", entity.ID, "error", err)
		}
	}

	// Publish only what the store holds after every write has returned.
	stored, err := c.store.GetAll(ctx, kind)
	if err != nil {
		logger.Warn("store unreadable after sync, publishing memory view",
			"error", fmt.Errorf("%w: %w", domain.ErrLocalStoreUnavailable, err),
		)
		stored = make([]*domain.Entity, 0, len(known))
		for _, e := range known {
			stored = append(stored, e)
		}
	}
	c.state.publish(kind, sortByID(withFetched(stored, fetched)), domain.SourceRemote)

	cursor := domain.MaxTimestamp(syncState.Cursor, since, domain.MaxWatermark(fetched))
	completedAt := time.Now()
	syncState.Status = domain.SyncStatusCompleted
	syncState.Cursor = cursor
	syncState.LastSyncAt = &completedAt
	syncState.CompletedAt = &completedAt
	syncState.Stats = stats
	syncState.Error = ""
	c.saveState(ctx, logger, syncState)

	duration := time.Since(startTime).Seconds()
	logger.Info("sync completed",
		"duration_seconds", duration,
		"since", since,
		"cursor", cursor,
		"fetched", stats.Fetched,
		"added", stats.Added,
		"updated", stats.Updated,
		"unchanged", stats.Unchanged,
		"attempts", stats.Attempts,
	)

	return &domain.SyncResult{
		RunID:    runID,
		Kind:     kind,
		Success:  true,
		Since:    since,
		Cursor:   cursor,
		Stats:    stats,
		Duration: duration,
	}, nil
}

// degrade records a failed cycle. AppState keeps its previous snapshot.
func (c *SyncCoordinator) degrade(
	ctx context.Context,
	logger *slog.Logger,
	runID string,
	syncState *domain.SyncState,
	since domain.Timestamp,
	stats domain.SyncStats,
	startTime time.Time,
	err error,
) *domain.SyncResult {
	duration := time.Since(startTime).Seconds()

	logger.Error("sync failed, keeping cached state",
		"duration_seconds", duration,
		"attempts", stats.Attempts,
		"error", err,
	)

	now := time.Now()
	syncState.Status = domain.SyncStatusFailed
	syncState.CompletedAt = &now
	syncState.Stats = stats
	syncState.Error = err.Error()
	c.saveState(context.WithoutCancel(ctx), logger, syncState)

	return &domain.SyncResult{
		RunID:    runID,
		Kind:     syncState.Kind,
		Success:  false,
		Degraded: true,
		Since:    since,
		Cursor:   syncState.Cursor,
		Stats:    stats,
		Error:    err.Error(),
		Duration: duration,
	}
}

func (c *SyncCoordinator) saveState(ctx context.Context, logger *slog.Logger, syncState *domain.SyncState) {
	if err := c.syncStore.Save(ctx, syncState); err != nil {
		logger.Warn("failed to save sync state", "status", syncState.Status, "error", err)
	}
}

// refreshSite replaces the cached site document when the remote copy differs.
func (c *SyncCoordinator) refreshSite(ctx context.Context) {
	site, err := c.remote.FetchSite(ctx)
	if err != nil {
		c.logger.Warn("failed to fetch site document", "error", err)
		return
	}
	if len(site) == 0 {
		return
	}

	var buf bytes.Buffer
	if err := json.Compact(&buf, site); err != nil {
		c.logger.Warn("discarding malformed site document", "error", err)
		return
	}
	compact := buf.Bytes()

	cached, err := c.store.GetMeta(ctx, SiteMetaKey)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		c.logger.Warn("failed to read cached site document", "error", err)
	}
	if !bytes.Equal(cached, compact) {
		if err := c.store.SetMeta(ctx, SiteMetaKey, compact); err != nil {
			c.logger.Warn("failed to cache site document", "error", err)
		}
	}
	c.state.setSite(json.RawMessage(compact))
}

// ListSyncStates retrieves sync states for all configured kinds.
func (c *SyncCoordinator) ListSyncStates(ctx context.Context) ([]*domain.SyncState, error) {
	states := make([]*domain.SyncState, 0, len(c.kinds))
	for _, kind := range c.kinds {
		state, err := c.syncStore.Get(ctx, kind)
		if err != nil {
			return nil, fmt.Errorf("failed to get sync state for %s: %w", kind, err)
		}
		states = append(states, state)
	}
	return states, nil
}

func (c *SyncCoordinator) configured(kind domain.EntityKind) bool {
	return slices.Contains(c.kinds, kind)
}

func sortByID(entities []*domain.Entity) []*domain.Entity {
	slices.SortFunc(entities, func(a, b *domain.Entity) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return entities
}

// withFetched adds the fetched entities a store read did not return, such
// as writes a degraded medium dropped.
func withFetched(stored, fetched []*domain.Entity) []*domain.Entity {
	seen := make(map[int64]struct{}, len(stored))
	for _, e := range stored {
		seen[e.ID] = struct{}{}
	}
	for _, e := range fetched {
		if e == nil {
			continue
		}
		if _, ok := seen[e.ID]; !ok {
			seen[e.ID] = struct{}{}
			stored = append(stored, e)
		}
	}
	return stored
}
