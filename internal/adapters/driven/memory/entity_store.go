package memory

import (
	"context"
	"fmt"

	"github.com/custodia-labs/signpost-sync/internal/core/domain"
	"github.com/custodia-labs/signpost-sync/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.EntityStore = (*EntityStore)(nil)

type entityRow struct {
	Kind   string
	ID     int64
	Entity *domain.Entity
}

type metaRow struct {
	Key   string
	Value []byte
}

// EntityStore implements driven.EntityStore in memory.
// Rows are cloned on the way in and out; memdb objects are never mutated.
type EntityStore struct {
	db *DB
}

// NewEntityStore creates an entity store over db.
func NewEntityStore(db *DB) *EntityStore {
	return &EntityStore{db: db}
}

func (s *EntityStore) GetAll(ctx context.Context, kind domain.EntityKind) ([]*domain.Entity, error) {
	txn := s.db.db.Txn(false)
	defer txn.Abort()

	it, err := txn.Get(tableEntities, "kind", string(kind))
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", kind, err)
	}

	entities := make([]*domain.Entity, 0)
	for obj := it.Next(); obj != nil; obj = it.Next() {
		entities = append(entities, obj.(*entityRow).Entity.Clone())
	}
	return entities, nil
}

func (s *EntityStore) Get(ctx context.Context, kind domain.EntityKind, id int64) (*domain.Entity, error) {
	txn := s.db.db.Txn(false)
	defer txn.Abort()

	obj, err := txn.First(tableEntities, "id", string(kind), id)
	if err != nil {
		return nil, fmt.Errorf("get %s %d: %w", kind, id, err)
	}
	if obj == nil {
		return nil, domain.ErrNotFound
	}
	return obj.(*entityRow).Entity.Clone(), nil
}

func (s *EntityStore) Put(ctx context.Context, kind domain.EntityKind, entity *domain.Entity) error {
	txn := s.db.db.Txn(true)
	defer txn.Abort()

	row := &entityRow{Kind: string(kind), ID: entity.ID, Entity: entity.Clone()}
	if err := txn.Insert(tableEntities, row); err != nil {
		return fmt.Errorf("put %s %d: %w", kind, entity.ID, err)
	}
	txn.Commit()
	return nil
}

func (s *EntityStore) Count(ctx context.Context, kind domain.EntityKind) (int, error) {
	txn := s.db.db.Txn(false)
	defer txn.Abort()

	it, err := txn.Get(tableEntities, "kind", string(kind))
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", kind, err)
	}

	n := 0
	for obj := it.Next(); obj != nil; obj = it.Next() {
		n++
	}
	return n, nil
}

func (s *EntityStore) GetMeta(ctx context.Context, key string) ([]byte, error) {
	txn := s.db.db.Txn(false)
	defer txn.Abort()

	obj, err := txn.First(tableMeta, "id", key)
	if err != nil {
		return nil, fmt.Errorf("get meta %s: %w", key, err)
	}
	if obj == nil {
		return nil, domain.ErrNotFound
	}
	return append([]byte(nil), obj.(*metaRow).Value...), nil
}

func (s *EntityStore) SetMeta(ctx context.Context, key string, value []byte) error {
	txn := s.db.db.Txn(true)
	defer txn.Abort()

	if err := txn.Insert(tableMeta, &metaRow{Key: key, Value: append([]byte(nil), value...)}); err != nil {
		return fmt.Errorf("set meta %s: %w", key, err)
	}
	txn.Commit()
	return nil
}

func (s *EntityStore) Ping(ctx context.Context) error {
	return nil
}

func (s *EntityStore) Close() error {
	return nil
}
