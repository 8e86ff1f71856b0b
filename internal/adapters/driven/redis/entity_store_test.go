package redis

import (
	"context"
	"testing"

	"github.com/custodia-labs/signpost-sync/internal/adapters/driven/storetest"
	"github.com/custodia-labs/signpost-sync/internal/core/domain"
	"github.com/custodia-labs/signpost-sync/internal/core/ports/driven"
)

func TestEntityStore_Contract(t *testing.T) {
	storetest.RunEntityStore(t, func(t *testing.T) driven.EntityStore {
		client, _ := setupTestRedis(t)
		return NewEntityStore(client)
	})
}

func TestSyncStateStore_Contract(t *testing.T) {
	storetest.RunSyncStateStore(t, func(t *testing.T) driven.SyncStateStore {
		client, _ := setupTestRedis(t)
		return NewSyncStateStore(client)
	})
}

func TestEntityStore_Layout(t *testing.T) {
	client, mr := setupTestRedis(t)
	s := NewEntityStore(client)
	ctx := context.Background()

	if err := s.Put(ctx, domain.KindService, storetest.Entity(t, 7, 100, "clinic")); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := s.SetMeta(ctx, "site", []byte(`{"id":1}`)); err != nil {
		t.Fatalf("set meta: %v", err)
	}

	if got := mr.HGet("signpost:entities:service", "7"); got == "" {
		t.Error("expected entity in signpost:entities:service hash")
	}
	if got, _ := mr.Get("signpost:meta:site"); got != `{"id":1}` {
		t.Errorf("expected meta key, got %q", got)
	}
}

func TestEntityStore_CorruptRow(t *testing.T) {
	client, mr := setupTestRedis(t)
	s := NewEntityStore(client)

	mr.HSet("signpost:entities:service", "1", "not json")

	if _, err := s.GetAll(context.Background(), domain.KindService); err == nil {
		t.Error("expected decode error for a corrupt row")
	}
}

func TestEntityStore_ServerDown(t *testing.T) {
	client, mr := setupTestRedis(t)
	s := NewEntityStore(client)
	mr.Close()

	if _, err := s.GetAll(context.Background(), domain.KindService); err == nil {
		t.Error("expected error when redis is unreachable")
	}
	if err := s.Ping(context.Background()); err == nil {
		t.Error("expected ping error when redis is unreachable")
	}
}
