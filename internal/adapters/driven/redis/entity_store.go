package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/custodia-labs/signpost-sync/internal/core/domain"
	"github.com/custodia-labs/signpost-sync/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.EntityStore = (*EntityStore)(nil)

// EntityStore keeps one hash per entity kind, keyed by id.
// HSET gives last-write-wins upserts without a read.
type EntityStore struct {
	client redis.UniversalClient
}

// NewEntityStore creates a Redis-backed entity store.
// The client is owned by the caller.
func NewEntityStore(client redis.UniversalClient) *EntityStore {
	return &EntityStore{client: client}
}

func (s *EntityStore) GetAll(ctx context.Context, kind domain.EntityKind) ([]*domain.Entity, error) {
	values, err := s.client.HVals(ctx, entitiesKey(kind)).Result()
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", kind, err)
	}

	entities := make([]*domain.Entity, 0, len(values))
	for _, v := range values {
		e, err := domain.DecodeEntity([]byte(v))
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", kind, err)
		}
		entities = append(entities, e)
	}
	return entities, nil
}

func (s *EntityStore) Get(ctx context.Context, kind domain.EntityKind, id int64) (*domain.Entity, error) {
	v, err := s.client.HGet(ctx, entitiesKey(kind), strconv.FormatInt(id, 10)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s %d: %w", kind, id, err)
	}
	return domain.DecodeEntity([]byte(v))
}

func (s *EntityStore) Put(ctx context.Context, kind domain.EntityKind, entity *domain.Entity) error {
	data, err := json.Marshal(entity)
	if err != nil {
		return fmt.Errorf("encode %s %d: %w", kind, entity.ID, err)
	}
	if err := s.client.HSet(ctx, entitiesKey(kind), strconv.FormatInt(entity.ID, 10), data).Err(); err != nil {
		return fmt.Errorf("put %s %d: %w", kind, entity.ID, err)
	}
	return nil
}

func (s *EntityStore) Count(ctx context.Context, kind domain.EntityKind) (int, error) {
	n, err := s.client.HLen(ctx, entitiesKey(kind)).Result()
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", kind, err)
	}
	return int(n), nil
}

func (s *EntityStore) GetMeta(ctx context.Context, key string) ([]byte, error) {
	v, err := s.client.Get(ctx, metaKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get meta %s: %w", key, err)
	}
	return v, nil
}

func (s *EntityStore) SetMeta(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, metaKey(key), value, 0).Err(); err != nil {
		return fmt.Errorf("set meta %s: %w", key, err)
	}
	return nil
}

func (s *EntityStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close is a no-op; the shared client is closed by its owner.
func (s *EntityStore) Close() error {
	return nil
}
