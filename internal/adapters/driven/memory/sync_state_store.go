package memory

import (
	"context"
	"fmt"

	"github.com/custodia-labs/signpost-sync/internal/core/domain"
	"github.com/custodia-labs/signpost-sync/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.SyncStateStore = (*SyncStateStore)(nil)

type syncStateRow struct {
	Kind  string
	State domain.SyncState
}

// SyncStateStore implements driven.SyncStateStore in memory.
type SyncStateStore struct {
	db *DB
}

// NewSyncStateStore creates a sync state store over db.
func NewSyncStateStore(db *DB) *SyncStateStore {
	return &SyncStateStore{db: db}
}

func (s *SyncStateStore) Save(ctx context.Context, state *domain.SyncState) error {
	txn := s.db.db.Txn(true)
	defer txn.Abort()

	if err := txn.Insert(tableSyncStates, &syncStateRow{Kind: string(state.Kind), State: *state}); err != nil {
		return fmt.Errorf("save sync state %s: %w", state.Kind, err)
	}
	txn.Commit()
	return nil
}

func (s *SyncStateStore) Get(ctx context.Context, kind domain.EntityKind) (*domain.SyncState, error) {
	txn := s.db.db.Txn(false)
	defer txn.Abort()

	obj, err := txn.First(tableSyncStates, "id", string(kind))
	if err != nil {
		return nil, fmt.Errorf("get sync state %s: %w", kind, err)
	}
	if obj == nil {
		return domain.NewSyncState(kind), nil
	}
	state := obj.(*syncStateRow).State
	return &state, nil
}

func (s *SyncStateStore) List(ctx context.Context) ([]*domain.SyncState, error) {
	txn := s.db.db.Txn(false)
	defer txn.Abort()

	it, err := txn.Get(tableSyncStates, "id")
	if err != nil {
		return nil, fmt.Errorf("list sync states: %w", err)
	}

	var states []*domain.SyncState
	for obj := it.Next(); obj != nil; obj = it.Next() {
		state := obj.(*syncStateRow).State
		states = append(states, &state)
	}
	return states, nil
}
