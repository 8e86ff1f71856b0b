package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/custodia-labs/signpost-sync/internal/core/domain"
	"github.com/custodia-labs/signpost-sync/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.SyncStateStore = (*SyncStateStore)(nil)

// SyncStateStore keeps every kind's sync state in a single hash.
type SyncStateStore struct {
	client redis.UniversalClient
}

// NewSyncStateStore creates a Redis-backed sync state store.
func NewSyncStateStore(client redis.UniversalClient) *SyncStateStore {
	return &SyncStateStore{client: client}
}

func (s *SyncStateStore) Save(ctx context.Context, state *domain.SyncState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode sync state: %w", err)
	}
	if err := s.client.HSet(ctx, syncStatesKey(), string(state.Kind), data).Err(); err != nil {
		return fmt.Errorf("save sync state %s: %w", state.Kind, err)
	}
	return nil
}

func (s *SyncStateStore) Get(ctx context.Context, kind domain.EntityKind) (*domain.SyncState, error) {
	v, err := s.client.HGet(ctx, syncStatesKey(), string(kind)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.NewSyncState(kind), nil
	}
	if err != nil {
		return nil, fmt.Errorf("get sync state %s: %w", kind, err)
	}

	var state domain.SyncState
	if err := json.Unmarshal(v, &state); err != nil {
		return nil, fmt.Errorf("decode sync state %s: %w", kind, err)
	}
	return &state, nil
}

func (s *SyncStateStore) List(ctx context.Context) ([]*domain.SyncState, error) {
	values, err := s.client.HVals(ctx, syncStatesKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("list sync states: %w", err)
	}

	states := make([]*domain.SyncState, 0, len(values))
	for _, v := range values {
		var state domain.SyncState
		if err := json.Unmarshal([]byte(v), &state); err != nil {
			return nil, fmt.Errorf("decode sync state: %w", err)
		}
		states = append(states, &state)
	}
	return states, nil
}
