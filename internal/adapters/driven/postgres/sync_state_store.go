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
var _ driven.SyncStateStore = (*SyncStateStore)(nil)

// SyncStateStore implements driven.SyncStateStore using PostgreSQL
type SyncStateStore struct {
	db *DB
}

// NewSyncStateStore creates a new SyncStateStore
func NewSyncStateStore(db *DB) *SyncStateStore {
	return &SyncStateStore{db: db}
}

const syncStateColumns = `kind, status, cursor, last_sync_at, started_at, completed_at, stats, error`

// Save creates or updates sync state
func (s *SyncStateStore) Save(ctx context.Context, state *domain.SyncState) error {
	statsJSON, err := json.Marshal(state.Stats)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO sync_states (` + syncStateColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (kind) DO UPDATE SET
			status = EXCLUDED.status,
			cursor = EXCLUDED.cursor,
			last_sync_at = EXCLUDED.last_sync_at,
			started_at = EXCLUDED.started_at,
			completed_at = EXCLUDED.completed_at,
			stats = EXCLUDED.stats,
			error = EXCLUDED.error
	`

	_, err = s.db.ExecContext(ctx, query,
		string(state.Kind),
		string(state.Status),
		int64(state.Cursor),
		nullTime(state.LastSyncAt),
		nullTime(state.StartedAt),
		nullTime(state.CompletedAt),
		statsJSON,
		state.Error,
	)
	if err != nil {
		return fmt.Errorf("save sync state %s: %w", state.Kind, err)
	}
	return nil
}

// Get retrieves sync state for a kind
func (s *SyncStateStore) Get(ctx context.Context, kind domain.EntityKind) (*domain.SyncState, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+syncStateColumns+` FROM sync_states WHERE kind = $1`,
		string(kind),
	)

	state, err := scanSyncState(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.NewSyncState(kind), nil
	}
	if err != nil {
		return nil, fmt.Errorf("get sync state %s: %w", kind, err)
	}
	return state, nil
}

// List retrieves sync states for all kinds
func (s *SyncStateStore) List(ctx context.Context) ([]*domain.SyncState, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+syncStateColumns+` FROM sync_states ORDER BY kind`,
	)
	if err != nil {
		return nil, fmt.Errorf("list sync states: %w", err)
	}
	defer rows.Close()

	var states []*domain.SyncState
	for rows.Next() {
		state, err := scanSyncState(rows)
		if err != nil {
			return nil, fmt.Errorf("scan sync state: %w", err)
		}
		states = append(states, state)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list sync states: %w", err)
	}

	return states, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSyncState(row scanner) (*domain.SyncState, error) {
	var state domain.SyncState
	var kind, status string
	var cursor int64
	var lastSyncAt, startedAt, completedAt sql.NullTime
	var statsJSON []byte

	err := row.Scan(
		&kind,
		&status,
		&cursor,
		&lastSyncAt,
		&startedAt,
		&completedAt,
		&statsJSON,
		&state.Error,
	)
	if err != nil {
		return nil, err
	}

	state.Kind = domain.EntityKind(kind)
	state.Status = domain.SyncStatus(status)
	state.Cursor = domain.Timestamp(cursor)
	state.LastSyncAt = timePtr(lastSyncAt)
	state.StartedAt = timePtr(startedAt)
	state.CompletedAt = timePtr(completedAt)

	if len(statsJSON) > 0 {
		if err := json.Unmarshal(statsJSON, &state.Stats); err != nil {
			return nil, err
		}
	}

	return &state, nil
}
