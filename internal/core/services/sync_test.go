package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/signpost-sync/internal/adapters/driven/failclosed"
	"github.com/custodia-labs/signpost-sync/internal/core/domain"
	"github.com/custodia-labs/signpost-sync/internal/core/ports/driven/mocks"
)

type syncFixture struct {
	coordinator *SyncCoordinator
	store       *mocks.MockEntityStore
	remote      *mocks.MockRemoteClient
	syncStore   *mocks.MockSyncStateStore
}

// newSyncFixture wires a coordinator over mocks. mutate may adjust the config.
func newSyncFixture(t *testing.T, mutate func(cfg *SyncCoordinatorConfig)) *syncFixture {
	t.Helper()

	f := &syncFixture{
		store:     mocks.NewMockEntityStore(),
		remote:    mocks.NewMockRemoteClient(),
		syncStore: mocks.NewMockSyncStateStore(),
	}

	cfg := SyncCoordinatorConfig{
		Store:     f.store,
		Remote:    f.remote,
		SyncStore: f.syncStore,
		Kinds:     []domain.EntityKind{domain.KindService},
		Retry:     RetryPolicy{MaxAttempts: 3, Delay: time.Millisecond},
		Logger:    quietLogger(),
	}
	if mutate != nil {
		mutate(&cfg)
	}

	f.coordinator = NewSyncCoordinator(cfg)
	t.Cleanup(f.coordinator.Close)
	return f
}

func entity(t *testing.T, id int64, updated int64, name string) *domain.Entity {
	t.Helper()
	e, err := domain.DecodeEntity([]byte(fmt.Sprintf(`{"id":%d,"date_updated":%d,"name":%q}`, id, updated, name)))
	require.NoError(t, err)
	return e
}

func nameOf(t *testing.T, e *domain.Entity) string {
	t.Helper()
	var name string
	require.NoError(t, e.Field("name", &name))
	return name
}

// blockingFetch returns a FetchFn that waits for release before answering.
func blockingFetch(release <-chan struct{}, entities ...*domain.Entity) func(context.Context, domain.EntityKind, *domain.Timestamp) ([]*domain.Entity, error) {
	return func(ctx context.Context, kind domain.EntityKind, since *domain.Timestamp) ([]*domain.Entity, error) {
		select {
		case <-release:
			return entities, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func TestSyncKind_AppliesDeltaSinceWatermark(t *testing.T) {
	f := newSyncFixture(t, nil)
	f.store.Seed(domain.KindService, entity(t, 1, 100, "old"))
	f.remote.Responses[domain.KindService] = []*domain.Entity{
		entity(t, 1, 200, "updated"),
		entity(t, 2, 150, "new"),
	}

	result, err := f.coordinator.SyncKind(context.Background(), domain.KindService)
	require.NoError(t, err)

	calls := f.remote.CallsFor(domain.KindService)
	require.Len(t, calls, 1)
	require.NotNil(t, calls[0].Since)
	assert.Equal(t, domain.Timestamp(100), *calls[0].Since)

	stored, err := f.store.GetAll(context.Background(), domain.KindService)
	require.NoError(t, err)
	require.Len(t, stored, 2)

	byID := map[int64]*domain.Entity{}
	for _, e := range stored {
		byID[e.ID] = e
	}
	assert.Equal(t, "updated", nameOf(t, byID[1]))
	assert.Equal(t, "new", nameOf(t, byID[2]))

	snap := f.coordinator.Snapshot()
	assert.Equal(t, domain.AppStatusReady, snap.Status)
	assert.Equal(t, domain.SourceRemote, snap.Source)
	require.Equal(t, 2, snap.Count(domain.KindService))
	e1, ok := snap.Find(domain.KindService, 1)
	require.True(t, ok)
	assert.Equal(t, "updated", nameOf(t, e1))
	e2, ok := snap.Find(domain.KindService, 2)
	require.True(t, ok)
	assert.Equal(t, "new", nameOf(t, e2))

	assert.True(t, result.Success)
	assert.False(t, result.Degraded)
	assert.Equal(t, domain.Timestamp(100), result.Since)
	assert.Equal(t, domain.Timestamp(200), result.Cursor)
	assert.Equal(t, domain.SyncStats{Fetched: 2, Added: 1, Updated: 1, Attempts: 1}, result.Stats)
	assert.NotEmpty(t, result.RunID)

	state, err := f.syncStore.Get(context.Background(), domain.KindService)
	require.NoError(t, err)
	assert.Equal(t, domain.SyncStatusCompleted, state.Status)
	assert.Equal(t, domain.Timestamp(200), state.Cursor)
	assert.NotNil(t, state.LastSyncAt)
}

func TestSyncKind_FullFetchOnEmptyStore(t *testing.T) {
	f := newSyncFixture(t, nil)

	_, err := f.coordinator.SyncKind(context.Background(), domain.KindService)
	require.NoError(t, err)

	calls := f.remote.CallsFor(domain.KindService)
	require.Len(t, calls, 1)
	assert.Nil(t, calls[0].Since, "empty store must request a full fetch")
}

func TestSyncKind_EmptyStoreIgnoresRecordedCursor(t *testing.T) {
	f := newSyncFixture(t, nil)
	recorded := domain.NewSyncState(domain.KindService)
	recorded.Cursor = 200
	require.NoError(t, f.syncStore.Save(context.Background(), recorded))
	f.remote.Responses[domain.KindService] = []*domain.Entity{
		entity(t, 1, 100, "a"),
		entity(t, 2, 150, "b"),
	}

	result, err := f.coordinator.SyncKind(context.Background(), domain.KindService)
	require.NoError(t, err)

	calls := f.remote.CallsFor(domain.KindService)
	require.Len(t, calls, 1)
	assert.Nil(t, calls[0].Since, "empty store must request a full fetch")
	assert.Equal(t, domain.Timestamp(0), result.Since)
	assert.Equal(t, 2, f.coordinator.Snapshot().Count(domain.KindService))

	state, _ := f.syncStore.Get(context.Background(), domain.KindService)
	assert.Equal(t, domain.Timestamp(200), state.Cursor, "recorded cursor never goes backwards")
}

func TestSyncKind_LostPrimaryStoreKeepsEntities(t *testing.T) {
	primary := mocks.NewMockEntityStore()
	store := failclosed.New(failclosed.Config{
		Store:    primary,
		Fallback: mocks.NewMockEntityStore(),
		Logger:   quietLogger(),
	})
	f := newSyncFixture(t, func(cfg *SyncCoordinatorConfig) {
		cfg.Store = store
	})

	all := []*domain.Entity{
		entity(t, 1, 100, "a"),
		entity(t, 2, 200, "b"),
		entity(t, 3, 300, "c"),
	}
	f.remote.FetchFn = func(ctx context.Context, kind domain.EntityKind, since *domain.Timestamp) ([]*domain.Entity, error) {
		var out []*domain.Entity
		for _, e := range all {
			if since == nil || e.Watermark() > *since {
				out = append(out, e.Clone())
			}
		}
		return out, nil
	}

	_, err := f.coordinator.SyncKind(context.Background(), domain.KindService)
	require.NoError(t, err)
	require.Equal(t, 3, f.coordinator.Snapshot().Count(domain.KindService))

	primary.Err = fmt.Errorf("%w: table dropped", domain.ErrLocalStoreUnavailable)

	result, err := f.coordinator.SyncKind(context.Background(), domain.KindService)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.True(t, store.Degraded())

	calls := f.remote.CallsFor(domain.KindService)
	require.Len(t, calls, 2)
	assert.Nil(t, calls[1].Since, "a store that lost its rows is refilled")
	assert.Equal(t, 3, f.coordinator.Snapshot().Count(domain.KindService))
}

func TestSyncKind_PublishesFetchedEntitiesTheStoreDropped(t *testing.T) {
	f := newSyncFixture(t, func(cfg *SyncCoordinatorConfig) {
		cfg.Store = failclosed.New(failclosed.Config{Store: failclosed.Disabled(), Logger: quietLogger()})
	})
	f.remote.Responses[domain.KindService] = []*domain.Entity{
		entity(t, 1, 10, "a"),
		entity(t, 2, 20, "b"),
	}

	_, err := f.coordinator.SyncKind(context.Background(), domain.KindService)
	require.NoError(t, err)
	assert.Equal(t, 2, f.coordinator.Snapshot().Count(domain.KindService))
}

func TestSyncKind_RemoteOverwritesNewerLocal(t *testing.T) {
	f := newSyncFixture(t, nil)
	f.store.Seed(domain.KindService, entity(t, 1, 500, "local"))
	f.remote.Responses[domain.KindService] = []*domain.Entity{entity(t, 1, 300, "remote")}

	_, err := f.coordinator.SyncKind(context.Background(), domain.KindService)
	require.NoError(t, err)

	stored, err := f.store.Get(context.Background(), domain.KindService, 1)
	require.NoError(t, err)
	assert.Equal(t, "remote", nameOf(t, stored))

	// The cursor never goes backwards even though the stored copy is older.
	state, _ := f.syncStore.Get(context.Background(), domain.KindService)
	assert.Equal(t, domain.Timestamp(500), state.Cursor)
}

func TestSyncKind_UnknownKind(t *testing.T) {
	f := newSyncFixture(t, nil)

	_, err := f.coordinator.SyncKind(context.Background(), domain.KindArticle)
	assert.ErrorIs(t, err, domain.ErrUnknownKind)
	assert.Empty(t, f.remote.Calls())
}

func TestSyncKind_RetryCeilingDegrades(t *testing.T) {
	f := newSyncFixture(t, func(cfg *SyncCoordinatorConfig) {
		cfg.Retry = RetryPolicy{MaxAttempts: 50, Delay: time.Millisecond}
	})
	f.store.Seed(domain.KindService, entity(t, 1, 100, "cached"))
	f.remote.FetchFn = func(ctx context.Context, kind domain.EntityKind, since *domain.Timestamp) ([]*domain.Entity, error) {
		return nil, fmt.Errorf("%w: status 503", domain.ErrRemoteUnavailable)
	}

	before := f.coordinator.Snapshot()
	result, err := f.coordinator.SyncKind(context.Background(), domain.KindService)

	require.NoError(t, err, "exhaustion is reported in the result")
	assert.Len(t, f.remote.CallsFor(domain.KindService), 50)
	assert.False(t, result.Success)
	assert.True(t, result.Degraded)
	assert.Equal(t, 50, result.Stats.Attempts)
	assert.Contains(t, result.Error, domain.ErrRetryBudgetExhausted.Error())
	assert.Equal(t, domain.PhaseSynced, f.coordinator.Phase())
	assert.Equal(t, before.Version, f.coordinator.Snapshot().Version, "state must stay untouched")
	assert.Equal(t, 0, f.store.Puts())

	state, _ := f.syncStore.Get(context.Background(), domain.KindService)
	assert.Equal(t, domain.SyncStatusFailed, state.Status)
	assert.NotEmpty(t, state.Error)
}

func TestSyncKind_SerializedPerKind(t *testing.T) {
	f := newSyncFixture(t, nil)
	release := make(chan struct{})
	f.remote.FetchFn = blockingFetch(release, entity(t, 1, 10, "a"))

	var wg sync.WaitGroup
	results := make([]*domain.SyncResult, 2)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r, err := f.coordinator.SyncKind(context.Background(), domain.KindService)
			assert.NoError(t, err)
			results[i] = r
		}()
	}

	require.Eventually(t, func() bool {
		return len(f.remote.Calls()) == 1
	}, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Len(t, f.remote.Calls(), 1, "concurrent cycles for one kind must share a fetch")
	assert.Equal(t, results[0].RunID, results[1].RunID)
}

func TestSyncKind_JoinedCallerOutlivesCancelledCaller(t *testing.T) {
	f := newSyncFixture(t, nil)
	release := make(chan struct{})
	f.remote.FetchFn = blockingFetch(release, entity(t, 1, 10, "a"))

	ctxA, cancelA := context.WithCancel(context.Background())
	errA := make(chan error, 1)
	go func() {
		_, err := f.coordinator.SyncKind(ctxA, domain.KindService)
		errA <- err
	}()
	require.Eventually(t, func() bool {
		return len(f.remote.Calls()) == 1
	}, time.Second, 5*time.Millisecond)

	resultB := make(chan *domain.SyncResult, 1)
	go func() {
		r, err := f.coordinator.SyncKind(context.Background(), domain.KindService)
		assert.NoError(t, err)
		resultB <- r
	}()
	time.Sleep(30 * time.Millisecond)

	cancelA()
	select {
	case err := <-errA:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("cancelled caller kept waiting")
	}

	close(release)
	select {
	case r := <-resultB:
		require.NotNil(t, r)
		assert.True(t, r.Success)
		assert.False(t, r.Degraded)
	case <-time.After(time.Second):
		t.Fatal("joined caller never got a result")
	}
	assert.Len(t, f.remote.Calls(), 1)
	assert.Equal(t, 1, f.coordinator.Snapshot().Count(domain.KindService))
}

func TestClose_RefusesNewWork(t *testing.T) {
	f := newSyncFixture(t, nil)
	f.coordinator.Close()

	assert.Error(t, f.coordinator.Trigger(""))
	assert.Error(t, f.coordinator.Boot(context.Background()))
	select {
	case <-f.coordinator.Done():
	default:
		t.Error("Done must be closed when boot cannot start")
	}

	_, err := f.coordinator.SyncKind(context.Background(), domain.KindService)
	assert.Error(t, err)
	assert.Empty(t, f.remote.Calls())
}

func TestClose_RacingTriggers(t *testing.T) {
	f := newSyncFixture(t, nil)
	f.remote.Responses[domain.KindService] = []*domain.Entity{entity(t, 1, 10, "a")}

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = f.coordinator.Trigger(domain.KindService)
		}()
	}
	f.coordinator.Close()
	after := len(f.remote.Calls())
	wg.Wait()

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, after, len(f.remote.Calls()), "no sync may start after Close returns")
}

func TestSyncKind_DistributedLockHeld(t *testing.T) {
	lock := mocks.NewMockDistributedLock()
	lock.SetLockHeld("sync:service", time.Minute)
	f := newSyncFixture(t, func(cfg *SyncCoordinatorConfig) {
		cfg.Lock = lock
	})

	_, err := f.coordinator.SyncKind(context.Background(), domain.KindService)
	assert.ErrorIs(t, err, domain.ErrSyncInProgress)
	assert.Empty(t, f.remote.Calls())
}

func TestSyncKind_ReleasesLock(t *testing.T) {
	lock := mocks.NewMockDistributedLock()
	f := newSyncFixture(t, func(cfg *SyncCoordinatorConfig) {
		cfg.Lock = lock
	})

	_, err := f.coordinator.SyncKind(context.Background(), domain.KindService)
	require.NoError(t, err)

	assert.Equal(t, []string{"sync:service"}, lock.Acquired())
	assert.False(t, lock.IsHeld("sync:service"))
}

func TestSyncKind_UnavailableStorePublishesMemoryView(t *testing.T) {
	f := newSyncFixture(t, nil)
	f.store.Err = fmt.Errorf("%w: quota exceeded", domain.ErrLocalStoreUnavailable)
	f.remote.Responses[domain.KindService] = []*domain.Entity{entity(t, 7, 70, "fresh")}

	result, err := f.coordinator.SyncKind(context.Background(), domain.KindService)
	require.NoError(t, err)
	assert.True(t, result.Success)

	calls := f.remote.CallsFor(domain.KindService)
	require.Len(t, calls, 1)
	assert.Nil(t, calls[0].Since, "unreadable store counts as empty")

	snap := f.coordinator.Snapshot()
	assert.Equal(t, domain.AppStatusReady, snap.Status)
	assert.Equal(t, 1, snap.Count(domain.KindService))
}

func TestSyncKind_CycleTimeout(t *testing.T) {
	f := newSyncFixture(t, func(cfg *SyncCoordinatorConfig) {
		cfg.CycleTimeout = 30 * time.Millisecond
		cfg.Retry = RetryPolicy{MaxAttempts: 50, Delay: time.Hour}
	})
	f.remote.FetchFn = func(ctx context.Context, kind domain.EntityKind, since *domain.Timestamp) ([]*domain.Entity, error) {
		return nil, domain.ErrRemoteUnavailable
	}

	start := time.Now()
	result, err := f.coordinator.SyncKind(context.Background(), domain.KindService)
	require.NoError(t, err)

	assert.Less(t, time.Since(start), time.Second)
	assert.True(t, result.Degraded)
	assert.Len(t, f.remote.Calls(), 1)
}

func TestBoot_WarmCacheIsReadyWithoutNetwork(t *testing.T) {
	release := make(chan struct{})
	f := newSyncFixture(t, nil)
	f.store.Seed(domain.KindService, entity(t, 1, 100, "cached"))
	f.remote.FetchFn = blockingFetch(release, entity(t, 2, 200, "remote"))

	require.NoError(t, f.coordinator.Boot(context.Background()))

	snap := f.coordinator.Snapshot()
	assert.Equal(t, domain.AppStatusReady, snap.Status, "cached data must be visible before any fetch returns")
	assert.Equal(t, domain.SourceCache, snap.Source)
	assert.Equal(t, 1, snap.Count(domain.KindService))

	close(release)
	select {
	case <-f.coordinator.Done():
	case <-time.After(time.Second):
		t.Fatal("boot cycle did not finish")
	}

	snap = f.coordinator.Snapshot()
	assert.Equal(t, domain.SourceRemote, snap.Source)
	assert.Equal(t, 2, snap.Count(domain.KindService))
	assert.Equal(t, domain.PhaseSynced, f.coordinator.Phase())
}

func TestBoot_ColdStartWaitsForFirstFetch(t *testing.T) {
	release := make(chan struct{})
	f := newSyncFixture(t, nil)
	f.remote.FetchFn = blockingFetch(release, entity(t, 1, 100, "first"))

	var statuses []domain.AppStatus
	var mu sync.Mutex
	f.coordinator.State().Subscribe(func(s domain.Snapshot) {
		mu.Lock()
		defer mu.Unlock()
		statuses = append(statuses, s.Status)
	})

	require.NoError(t, f.coordinator.Boot(context.Background()))

	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, domain.AppStatusInitializing, f.coordinator.State().Status())
	assert.Equal(t, domain.PhaseBackgroundSyncing, f.coordinator.Phase())

	close(release)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, f.coordinator.State().WaitReady(ctx))
	<-f.coordinator.Done()

	snap := f.coordinator.Snapshot()
	assert.Equal(t, 1, snap.Count(domain.KindService))

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, statuses)
	assert.Equal(t, domain.AppStatusReady, statuses[0], "no notification before the first fetch")
}

func TestBoot_ColdStartExhaustedBecomesReadyEmpty(t *testing.T) {
	f := newSyncFixture(t, nil)
	f.remote.FetchFn = func(ctx context.Context, kind domain.EntityKind, since *domain.Timestamp) ([]*domain.Entity, error) {
		return nil, domain.ErrRemoteUnavailable
	}

	require.NoError(t, f.coordinator.Boot(context.Background()))

	select {
	case <-f.coordinator.Done():
	case <-time.After(time.Second):
		t.Fatal("boot cycle did not finish")
	}

	assert.Len(t, f.remote.Calls(), 3)
	assert.Equal(t, domain.AppStatusReady, f.coordinator.State().Status())
	assert.Equal(t, 0, f.coordinator.Snapshot().Count(domain.KindService))
	assert.Equal(t, domain.PhaseSynced, f.coordinator.Phase())
}

func TestBoot_RunsOnce(t *testing.T) {
	f := newSyncFixture(t, nil)

	require.NoError(t, f.coordinator.Boot(context.Background()))
	require.NoError(t, f.coordinator.Boot(context.Background()))
	<-f.coordinator.Done()

	assert.Len(t, f.remote.Calls(), 1)
}

func TestBoot_LoadsCachedSite(t *testing.T) {
	f := newSyncFixture(t, nil)
	require.NoError(t, f.store.SetMeta(context.Background(), SiteMetaKey, []byte(`{"id":3}`)))

	require.NoError(t, f.coordinator.Boot(context.Background()))
	assert.JSONEq(t, `{"id":3}`, string(f.coordinator.Snapshot().Site))
	<-f.coordinator.Done()
}

func TestSyncAll_RefreshesSiteAndKinds(t *testing.T) {
	f := newSyncFixture(t, func(cfg *SyncCoordinatorConfig) {
		cfg.Kinds = []domain.EntityKind{domain.KindCategory, domain.KindService}
		cfg.Concurrency = 2
	})
	f.remote.Site = json.RawMessage(`{ "id": 1, "name": "Greece" }`)
	f.remote.Responses[domain.KindCategory] = []*domain.Entity{entity(t, 1, 10, "health")}
	f.remote.Responses[domain.KindService] = []*domain.Entity{entity(t, 1, 20, "clinic")}

	results, err := f.coordinator.SyncAll(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, domain.KindCategory, results[0].Kind)
	assert.Equal(t, domain.KindService, results[1].Kind)

	site, err := f.store.GetMeta(context.Background(), SiteMetaKey)
	require.NoError(t, err)
	assert.Equal(t, `{"id":1,"name":"Greece"}`, string(site))

	snap := f.coordinator.Snapshot()
	assert.Equal(t, `{"id":1,"name":"Greece"}`, string(snap.Site))
	assert.Equal(t, 1, snap.Count(domain.KindCategory))
	assert.Equal(t, 1, snap.Count(domain.KindService))
}

func TestSyncAll_SiteFailureDoesNotBlockKinds(t *testing.T) {
	f := newSyncFixture(t, nil)
	f.remote.SiteErr = errors.New("timeout")
	f.remote.Responses[domain.KindService] = []*domain.Entity{entity(t, 1, 20, "clinic")}

	results, err := f.coordinator.SyncAll(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.True(t, results[0].Success)
}

func TestTrigger(t *testing.T) {
	f := newSyncFixture(t, nil)

	assert.ErrorIs(t, f.coordinator.Trigger(domain.KindArticle), domain.ErrUnknownKind)

	require.NoError(t, f.coordinator.Trigger(domain.KindService))
	require.Eventually(t, func() bool {
		return f.coordinator.State().Status() == domain.AppStatusReady
	}, time.Second, 5*time.Millisecond)

	f.coordinator.Close()
	assert.Error(t, f.coordinator.Trigger(""), "closed coordinator rejects triggers")
}

func TestListSyncStates(t *testing.T) {
	f := newSyncFixture(t, func(cfg *SyncCoordinatorConfig) {
		cfg.Kinds = []domain.EntityKind{domain.KindCategory, domain.KindService}
	})

	_, err := f.coordinator.SyncKind(context.Background(), domain.KindService)
	require.NoError(t, err)

	states, err := f.coordinator.ListSyncStates(context.Background())
	require.NoError(t, err)
	require.Len(t, states, 2)
	assert.Equal(t, domain.SyncStatusIdle, states[0].Status)
	assert.Equal(t, domain.SyncStatusCompleted, states[1].Status)
}

func TestSyncKind_WatermarkMonotonic(t *testing.T) {
	properties := gopter.NewProperties(gopter.DefaultTestParameters())

	properties.Property("since never falls below the newest timestamp seen", prop.ForAll(
		func(stamps []int64) bool {
			f := newSyncFixture(t, nil)
			defer f.coordinator.Close()

			var maxSeen domain.Timestamp
			for i, ts := range stamps {
				f.remote.Responses[domain.KindService] = []*domain.Entity{
					{ID: int64(i%3 + 1), DateUpdated: domain.Timestamp(ts)},
				}
				if _, err := f.coordinator.SyncKind(context.Background(), domain.KindService); err != nil {
					return false
				}

				calls := f.remote.CallsFor(domain.KindService)
				last := calls[len(calls)-1]
				var since domain.Timestamp
				if last.Since != nil {
					since = *last.Since
				}
				if since < maxSeen {
					return false
				}
				maxSeen = domain.MaxTimestamp(maxSeen, domain.Timestamp(ts))
			}
			return true
		},
		gen.SliceOfN(6, gen.Int64Range(1, 1_000_000_000_000)),
	))

	properties.TestingRun(t)
}
