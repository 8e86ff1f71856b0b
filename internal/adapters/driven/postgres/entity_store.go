package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/custodia-labs/signpost-sync/internal/core/domain"
	"github.com/custodia-labs/signpost-sync/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.EntityStore = (*EntityStore)(nil)

// EntityStore implements driven.EntityStore using PostgreSQL.
// The header columns are copies of payload fields kept for indexing.
type EntityStore struct {
	db *DB
}

// NewEntityStore creates a new EntityStore
func NewEntityStore(db *DB) *EntityStore {
	return &EntityStore{db: db}
}

// GetAll returns every row of a kind
func (s *EntityStore) GetAll(ctx context.Context, kind domain.EntityKind) ([]*domain.Entity, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT payload FROM entities WHERE kind = $1`, string(kind))
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", kind, err)
	}
	defer rows.Close()

	entities := make([]*domain.Entity, 0)
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan %s: %w", kind, err)
		}
		e, err := domain.DecodeEntity(payload)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", kind, err)
		}
		entities = append(entities, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list %s: %w", kind, err)
	}

	return entities, nil
}

// Get retrieves one entity by id
func (s *EntityStore) Get(ctx context.Context, kind domain.EntityKind, id int64) (*domain.Entity, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM entities WHERE kind = $1 AND id = $2`,
		string(kind), id,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s %d: %w", kind, id, err)
	}
	return domain.DecodeEntity(payload)
}

// Put upserts an entity; the incoming row always replaces the stored one
func (s *EntityStore) Put(ctx context.Context, kind domain.EntityKind, entity *domain.Entity) error {
	payload, err := json.Marshal(entity)
	if err != nil {
		return fmt.Errorf("encode %s %d: %w", kind, entity.ID, err)
	}

	query := `
		INSERT INTO entities (kind, id, date_created, date_updated, status, payload, stored_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (kind, id) DO UPDATE SET
			date_created = EXCLUDED.date_created,
			date_updated = EXCLUDED.date_updated,
			status = EXCLUDED.status,
			payload = EXCLUDED.payload,
			stored_at = EXCLUDED.stored_at
	`

	_, err = s.db.ExecContext(ctx, query,
		string(kind),
		entity.ID,
		int64(entity.DateCreated),
		int64(entity.DateUpdated),
		entity.Status,
		payload,
	)
	if err != nil {
		return fmt.Errorf("put %s %d: %w", kind, entity.ID, err)
	}
	return nil
}

// Count returns the number of rows of a kind
func (s *EntityStore) Count(ctx context.Context, kind domain.EntityKind) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM entities WHERE kind = $1`, string(kind)).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", kind, err)
	}
	return n, nil
}

// GetMeta retrieves a meta value
func (s *EntityStore) GetMeta(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get meta %s: %w", key, err)
	}
	return value, nil
}

// SetMeta upserts a meta value
func (s *EntityStore) SetMeta(ctx context.Context, key string, value []byte) error {
	query := `
		INSERT INTO meta (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET
			value = EXCLUDED.value,
			updated_at = EXCLUDED.updated_at
	`
	if _, err := s.db.ExecContext(ctx, query, key, value); err != nil {
		return fmt.Errorf("set meta %s: %w", key, err)
	}
	return nil
}

// Ping checks if the database is reachable
func (s *EntityStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close is a no-op; the pool is closed by its owner
func (s *EntityStore) Close() error {
	return nil
}
