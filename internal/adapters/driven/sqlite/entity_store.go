package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/signpost-sync/internal/core/domain"
	"github.com/custodia-labs/signpost-sync/internal/core/ports/driven"
)

var _ driven.EntityStore = (*EntityStore)(nil)

// EntityStore implements driven.EntityStore on a SQLite file.
type EntityStore struct {
	db *DB
}

// NewEntityStore creates a new EntityStore
func NewEntityStore(db *DB) *EntityStore {
	return &EntityStore{db: db}
}

func (s *EntityStore) GetAll(ctx context.Context, kind domain.EntityKind) ([]*domain.Entity, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT payload FROM entities WHERE kind = ?`, string(kind))
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", kind, err)
	}
	defer rows.Close()

	entities := make([]*domain.Entity, 0)
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", kind, err)
		}
		e, err := domain.DecodeEntity(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to decode %s row: %w", kind, err)
		}
		entities = append(entities, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate %s rows: %w", kind, err)
	}
	return entities, nil
}

func (s *EntityStore) Get(ctx context.Context, kind domain.EntityKind, id int64) (*domain.Entity, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM entities WHERE kind = ? AND id = ?`, string(kind), id,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s[%d]: %w", kind, id, err)
	}
	return domain.DecodeEntity(payload)
}

func (s *EntityStore) Put(ctx context.Context, kind domain.EntityKind, entity *domain.Entity) error {
	payload, err := json.Marshal(entity)
	if err != nil {
		return fmt.Errorf("failed to encode %s[%d]: %w", kind, entity.ID, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO entities (kind, id, date_created, date_updated, status, payload, stored_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(kind, id) DO UPDATE SET
			date_created = excluded.date_created,
			date_updated = excluded.date_updated,
			status = excluded.status,
			payload = excluded.payload,
			stored_at = excluded.stored_at
	`,
		string(kind),
		entity.ID,
		int64(entity.DateCreated),
		int64(entity.DateUpdated),
		entity.Status,
		payload,
		time.Now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to put %s[%d]: %w", kind, entity.ID, err)
	}
	return nil
}

func (s *EntityStore) Count(ctx context.Context, kind domain.EntityKind) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM entities WHERE kind = ?`, string(kind)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", kind, err)
	}
	return n, nil
}

func (s *EntityStore) GetMeta(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get meta[%s]: %w", key, err)
	}
	return value, nil
}

func (s *EntityStore) SetMeta(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO meta (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to set meta[%s]: %w", key, err)
	}
	return nil
}

func (s *EntityStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close is a no-op; the DB is closed by whoever opened it.
func (s *EntityStore) Close() error {
	return nil
}
