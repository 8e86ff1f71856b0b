// Package storetest holds the behaviour every EntityStore and SyncStateStore
// backend must share. Backend packages call it from their own tests.
package storetest

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/signpost-sync/internal/core/domain"
	"github.com/custodia-labs/signpost-sync/internal/core/ports/driven"
)

// Entity builds an entity the way the content API would send it.
func Entity(t testing.TB, id, updated int64, name string) *domain.Entity {
	t.Helper()
	e, err := domain.DecodeEntity([]byte(fmt.Sprintf(
		`{"id":%d,"date_created":1,"date_updated":%d,"status":"published","name":%q}`,
		id, updated, name,
	)))
	require.NoError(t, err)
	return e
}

// RunEntityStore exercises an EntityStore. newStore must return an empty store.
func RunEntityStore(t *testing.T, newStore func(t *testing.T) driven.EntityStore) {
	ctx := context.Background()

	t.Run("empty kind", func(t *testing.T) {
		s := newStore(t)

		all, err := s.GetAll(ctx, domain.KindService)
		require.NoError(t, err)
		assert.NotNil(t, all)
		assert.Empty(t, all)

		n, err := s.Count(ctx, domain.KindService)
		require.NoError(t, err)
		assert.Zero(t, n)

		_, err = s.Get(ctx, domain.KindService, 1)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("put then get", func(t *testing.T) {
		s := newStore(t)
		e := Entity(t, 42, 100, "clinic")

		require.NoError(t, s.Put(ctx, domain.KindService, e))

		got, err := s.Get(ctx, domain.KindService, 42)
		require.NoError(t, err)
		assert.Equal(t, e.ID, got.ID)
		assert.Equal(t, e.DateUpdated, got.DateUpdated)
		assert.Equal(t, e.Status, got.Status)
		assert.JSONEq(t, string(e.Payload), string(got.Payload))
	})

	t.Run("last write wins", func(t *testing.T) {
		s := newStore(t)

		require.NoError(t, s.Put(ctx, domain.KindService, Entity(t, 1, 500, "newer")))
		require.NoError(t, s.Put(ctx, domain.KindService, Entity(t, 1, 100, "older")))

		n, err := s.Count(ctx, domain.KindService)
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		got, err := s.Get(ctx, domain.KindService, 1)
		require.NoError(t, err)
		var name string
		require.NoError(t, got.Field("name", &name))
		assert.Equal(t, "older", name)
	})

	t.Run("kinds are separate tables", func(t *testing.T) {
		s := newStore(t)

		require.NoError(t, s.Put(ctx, domain.KindService, Entity(t, 1, 1, "service")))
		require.NoError(t, s.Put(ctx, domain.KindProvider, Entity(t, 1, 1, "provider")))
		require.NoError(t, s.Put(ctx, domain.KindProvider, Entity(t, 2, 1, "provider")))

		services, err := s.GetAll(ctx, domain.KindService)
		require.NoError(t, err)
		assert.Len(t, services, 1)

		n, err := s.Count(ctx, domain.KindProvider)
		require.NoError(t, err)
		assert.Equal(t, 2, n)
	})

	t.Run("archived rows are kept", func(t *testing.T) {
		s := newStore(t)
		e, err := domain.DecodeEntity([]byte(`{"id":9,"date_updated":5,"status":"archived"}`))
		require.NoError(t, err)

		require.NoError(t, s.Put(ctx, domain.KindService, e))

		got, err := s.Get(ctx, domain.KindService, 9)
		require.NoError(t, err)
		assert.True(t, got.Archived())
	})

	t.Run("meta", func(t *testing.T) {
		s := newStore(t)

		_, err := s.GetMeta(ctx, "site")
		assert.ErrorIs(t, err, domain.ErrNotFound)

		require.NoError(t, s.SetMeta(ctx, "site", []byte(`{"id":1}`)))
		require.NoError(t, s.SetMeta(ctx, "site", []byte(`{"id":2}`)))

		v, err := s.GetMeta(ctx, "site")
		require.NoError(t, err)
		assert.Equal(t, `{"id":2}`, string(v))
	})

	t.Run("ping", func(t *testing.T) {
		assert.NoError(t, newStore(t).Ping(ctx))
	})

	t.Run("idempotent upsert", func(t *testing.T) {
		params := gopter.DefaultTestParameters()
		params.MinSuccessfulTests = 25
		properties := gopter.NewProperties(params)

		properties.Property("putting twice equals putting once", prop.ForAll(
			func(id, updated int64, name string) bool {
				once := newStore(t)
				twice := newStore(t)
				e := Entity(t, id, updated, name)

				if err := once.Put(ctx, domain.KindService, e); err != nil {
					return false
				}
				if err := twice.Put(ctx, domain.KindService, e); err != nil {
					return false
				}
				if err := twice.Put(ctx, domain.KindService, e); err != nil {
					return false
				}

				a, errA := once.GetAll(ctx, domain.KindService)
				b, errB := twice.GetAll(ctx, domain.KindService)
				if errA != nil || errB != nil {
					return false
				}
				return reflect.DeepEqual(canonical(a), canonical(b))
			},
			gen.Int64Range(1, 1<<40),
			gen.Int64Range(0, 1<<42),
			gen.AlphaString(),
		))

		properties.TestingRun(t)
	})
}

// canonical renders entities as sorted payload strings for comparison.
func canonical(entities []*domain.Entity) []string {
	out := make([]string, 0, len(entities))
	for _, e := range entities {
		data, _ := e.MarshalJSON()
		out = append(out, string(data))
	}
	sort.Strings(out)
	return out
}

// RunSyncStateStore exercises a SyncStateStore. newStore must return an empty store.
func RunSyncStateStore(t *testing.T, newStore func(t *testing.T) driven.SyncStateStore) {
	ctx := context.Background()

	t.Run("unknown kind is idle", func(t *testing.T) {
		s := newStore(t)

		state, err := s.Get(ctx, domain.KindArticle)
		require.NoError(t, err)
		assert.Equal(t, domain.KindArticle, state.Kind)
		assert.Equal(t, domain.SyncStatusIdle, state.Status)
		assert.Zero(t, state.Cursor)
	})

	t.Run("save and list", func(t *testing.T) {
		s := newStore(t)
		now := time.Now().UTC().Truncate(time.Millisecond)

		require.NoError(t, s.Save(ctx, &domain.SyncState{
			Kind:       domain.KindService,
			Status:     domain.SyncStatusCompleted,
			Cursor:     200,
			LastSyncAt: &now,
			Stats:      domain.SyncStats{Fetched: 2, Added: 1, Updated: 1, Attempts: 1},
		}))
		require.NoError(t, s.Save(ctx, &domain.SyncState{
			Kind:   domain.KindService,
			Status: domain.SyncStatusFailed,
			Cursor: 200,
			Error:  "retry budget exhausted",
		}))
		require.NoError(t, s.Save(ctx, &domain.SyncState{
			Kind:   domain.KindCategory,
			Status: domain.SyncStatusCompleted,
			Cursor: 10,
		}))

		state, err := s.Get(ctx, domain.KindService)
		require.NoError(t, err)
		assert.Equal(t, domain.SyncStatusFailed, state.Status)
		assert.Equal(t, domain.Timestamp(200), state.Cursor)
		assert.Equal(t, "retry budget exhausted", state.Error)

		states, err := s.List(ctx)
		require.NoError(t, err)
		assert.Len(t, states, 2)
	})
}
