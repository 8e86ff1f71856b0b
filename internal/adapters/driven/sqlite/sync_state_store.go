package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/custodia-labs/signpost-sync/internal/core/domain"
	"github.com/custodia-labs/signpost-sync/internal/core/ports/driven"
)

var _ driven.SyncStateStore = (*SyncStateStore)(nil)

// SyncStateStore implements driven.SyncStateStore on a SQLite file.
// Times are stored as epoch milliseconds.
type SyncStateStore struct {
	db *DB
}

// NewSyncStateStore creates a new SyncStateStore
func NewSyncStateStore(db *DB) *SyncStateStore {
	return &SyncStateStore{db: db}
}

const syncStateColumns = `kind, status, cursor, last_sync_at, started_at, completed_at, stats, error`

func (s *SyncStateStore) Save(ctx context.Context, state *domain.SyncState) error {
	stats, err := json.Marshal(state.Stats)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sync_states (`+syncStateColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(kind) DO UPDATE SET
			status = excluded.status,
			cursor = excluded.cursor,
			last_sync_at = excluded.last_sync_at,
			started_at = excluded.started_at,
			completed_at = excluded.completed_at,
			stats = excluded.stats,
			error = excluded.error
	`,
		string(state.Kind),
		string(state.Status),
		int64(state.Cursor),
		nullMillis(state.LastSyncAt),
		nullMillis(state.StartedAt),
		nullMillis(state.CompletedAt),
		string(stats),
		state.Error,
	)
	if err != nil {
		return fmt.Errorf("failed to save sync state[%s]: %w", state.Kind, err)
	}
	return nil
}

func (s *SyncStateStore) Get(ctx context.Context, kind domain.EntityKind) (*domain.SyncState, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+syncStateColumns+` FROM sync_states WHERE kind = ?`, string(kind))

	state, err := scanSyncState(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.NewSyncState(kind), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sync state[%s]: %w", kind, err)
	}
	return state, nil
}

func (s *SyncStateStore) List(ctx context.Context) ([]*domain.SyncState, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+syncStateColumns+` FROM sync_states ORDER BY kind`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sync states: %w", err)
	}
	defer rows.Close()

	var states []*domain.SyncState
	for rows.Next() {
		state, err := scanSyncState(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sync state: %w", err)
		}
		states = append(states, state)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sync states: %w", err)
	}
	return states, nil
}

func scanSyncState(row interface{ Scan(...any) error }) (*domain.SyncState, error) {
	var (
		state                              domain.SyncState
		kind, status, stats                string
		cursor                             int64
		lastSyncAt, startedAt, completedAt sql.NullInt64
	)
	if err := row.Scan(&kind, &status, &cursor, &lastSyncAt, &startedAt, &completedAt, &stats, &state.Error); err != nil {
		return nil, err
	}

	state.Kind = domain.EntityKind(kind)
	state.Status = domain.SyncStatus(status)
	state.Cursor = domain.Timestamp(cursor)
	state.LastSyncAt = timeFromMillis(lastSyncAt)
	state.StartedAt = timeFromMillis(startedAt)
	state.CompletedAt = timeFromMillis(completedAt)
	if stats != "" {
		if err := json.Unmarshal([]byte(stats), &state.Stats); err != nil {
			return nil, fmt.Errorf("decode stats: %w", err)
		}
	}
	return &state, nil
}
