package failclosed

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/signpost-sync/internal/adapters/driven/memory"
	"github.com/custodia-labs/signpost-sync/internal/adapters/driven/storetest"
	"github.com/custodia-labs/signpost-sync/internal/core/domain"
	"github.com/custodia-labs/signpost-sync/internal/core/ports/driven"
	"github.com/custodia-labs/signpost-sync/internal/core/ports/driven/mocks"
)

var errDiskGone = errors.New("disk I/O error")

func bufferLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewTextHandler(&buf, nil)), &buf
}

func TestStore_HealthyPassesThrough(t *testing.T) {
	ctx := context.Background()
	inner := mocks.NewMockEntityStore()
	s := New(Config{Store: inner})

	require.NoError(t, s.Put(ctx, domain.KindService, storetest.Entity(t, 1, 10, "a")))
	require.NoError(t, s.SetMeta(ctx, "site", []byte(`{}`)))

	n, err := s.Count(ctx, domain.KindService)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, inner.Puts())

	_, err = s.Get(ctx, domain.KindService, 99)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.False(t, s.Degraded(), "not found is not a medium failure")
	assert.NoError(t, s.Ping(ctx))
}

func TestStore_DisabledWithoutFallback(t *testing.T) {
	ctx := context.Background()
	s := New(Config{Store: Disabled()})

	all, err := s.GetAll(ctx, domain.KindService)
	require.NoError(t, err)
	assert.NotNil(t, all)
	assert.Empty(t, all)

	n, err := s.Count(ctx, domain.KindService)
	require.NoError(t, err)
	assert.Zero(t, n)

	assert.NoError(t, s.Put(ctx, domain.KindService, storetest.Entity(t, 1, 10, "a")))
	assert.NoError(t, s.SetMeta(ctx, "site", []byte(`{}`)))

	_, err = s.Get(ctx, domain.KindService, 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = s.GetMeta(ctx, "site")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.True(t, s.Degraded())
	assert.ErrorIs(t, s.Ping(ctx), domain.ErrLocalStoreUnavailable)
}

func TestStore_NilStoreIsDisabled(t *testing.T) {
	s := New(Config{})

	all, err := s.GetAll(context.Background(), domain.KindArticle)
	require.NoError(t, err)
	assert.Empty(t, all)
	assert.True(t, s.Degraded())
}

func TestStore_MemoryFallback(t *testing.T) {
	storetest.RunEntityStore(t, func(t *testing.T) driven.EntityStore {
		return New(Config{
			Store:    Disabled(),
			Fallback: memory.NewEntityStore(memory.MustOpen()),
		})
	})
}

func TestStore_LogsOncePerTransition(t *testing.T) {
	ctx := context.Background()
	logger, buf := bufferLogger()
	inner := mocks.NewMockEntityStore()
	s := New(Config{Store: inner, Logger: logger})

	inner.Err = errDiskGone
	for i := 0; i < 5; i++ {
		_, _ = s.GetAll(ctx, domain.KindService)
		_, _ = s.Count(ctx, domain.KindService)
	}
	assert.Equal(t, 1, strings.Count(buf.String(), "local store unavailable"))
	assert.Contains(t, buf.String(), errDiskGone.Error())

	inner.Err = nil
	_, _ = s.GetAll(ctx, domain.KindService)
	_, _ = s.GetAll(ctx, domain.KindService)
	assert.False(t, s.Degraded())
	assert.Equal(t, 1, strings.Count(buf.String(), "local store recovered"))

	inner.Err = errDiskGone
	_, _ = s.GetAll(ctx, domain.KindService)
	assert.Equal(t, 2, strings.Count(buf.String(), "local store unavailable"))
}

func TestStore_FallbackKeepsWritesWhileDegraded(t *testing.T) {
	ctx := context.Background()
	inner := mocks.NewMockEntityStore()
	inner.Err = errDiskGone
	fallback := mocks.NewMockEntityStore()
	s := New(Config{Store: inner, Fallback: fallback})

	require.NoError(t, s.Put(ctx, domain.KindProvider, storetest.Entity(t, 3, 30, "provider")))

	got, err := s.Get(ctx, domain.KindProvider, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(3), got.ID)
	assert.Equal(t, 1, fallback.Puts())
}

func TestStore_CloseClosesBoth(t *testing.T) {
	s := New(Config{
		Store:    mocks.NewMockEntityStore(),
		Fallback: mocks.NewMockEntityStore(),
	})
	assert.NoError(t, s.Close())
}
