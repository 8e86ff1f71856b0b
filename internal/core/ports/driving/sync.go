package driving

import (
	"context"

	"github.com/custodia-labs/signpost-sync/internal/core/domain"
)

// SyncService is what the HTTP adapter and the CLI drive.
type SyncService interface {
	// Boot loads the local cache and schedules the background refresh.
	// Runs at most once; later calls are no-ops.
	Boot(ctx context.Context) error

	// SyncKind runs one sync cycle for a kind.
	SyncKind(ctx context.Context, kind domain.EntityKind) (*domain.SyncResult, error)

	// SyncAll runs a sync cycle for every configured kind.
	SyncAll(ctx context.Context) ([]*domain.SyncResult, error)

	// Trigger starts a sync cycle in the background and returns immediately.
	// An empty kind triggers every configured kind.
	Trigger(kind domain.EntityKind) error

	// Phase returns the coordinator's state machine position
	Phase() domain.SyncPhase

	// Snapshot returns the current application state
	Snapshot() domain.Snapshot

	// Kinds returns the configured entity kinds
	Kinds() []domain.EntityKind

	// ListSyncStates retrieves sync states for all configured kinds
	ListSyncStates(ctx context.Context) ([]*domain.SyncState, error)
}
