package memory

import (
	"context"
	"testing"

	"github.com/custodia-labs/signpost-sync/internal/adapters/driven/storetest"
	"github.com/custodia-labs/signpost-sync/internal/core/domain"
	"github.com/custodia-labs/signpost-sync/internal/core/ports/driven"
)

func TestEntityStore_Contract(t *testing.T) {
	storetest.RunEntityStore(t, func(t *testing.T) driven.EntityStore {
		return NewEntityStore(MustOpen())
	})
}

func TestSyncStateStore_Contract(t *testing.T) {
	storetest.RunSyncStateStore(t, func(t *testing.T) driven.SyncStateStore {
		return NewSyncStateStore(MustOpen())
	})
}

func TestEntityStore_ReturnsCopies(t *testing.T) {
	s := NewEntityStore(MustOpen())
	ctx := context.Background()

	e := storetest.Entity(t, 1, 10, "original")
	if err := s.Put(ctx, domain.KindService, e); err != nil {
		t.Fatalf("put: %v", err)
	}
	e.Status = "mutated after put"

	got, err := s.Get(ctx, domain.KindService, 1)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != "published" {
		t.Errorf("stored entity changed through caller's pointer: %q", got.Status)
	}

	got.Status = "mutated after get"
	again, _ := s.Get(ctx, domain.KindService, 1)
	if again.Status != "published" {
		t.Errorf("stored entity changed through returned pointer: %q", again.Status)
	}
}

func TestStores_ShareDB(t *testing.T) {
	db := MustOpen()
	entities := NewEntityStore(db)
	states := NewSyncStateStore(db)
	ctx := context.Background()

	if err := entities.Put(ctx, domain.KindService, storetest.Entity(t, 1, 10, "a")); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := states.Save(ctx, &domain.SyncState{Kind: domain.KindService, Status: domain.SyncStatusCompleted, Cursor: 10}); err != nil {
		t.Fatalf("save: %v", err)
	}

	n, _ := entities.Count(ctx, domain.KindService)
	state, _ := states.Get(ctx, domain.KindService)
	if n != 1 || state.Cursor != 10 {
		t.Errorf("expected one entity and cursor 10, got %d and %d", n, state.Cursor)
	}
}
