package driven

import (
	"context"

	"github.com/custodia-labs/signpost-sync/internal/core/domain"
)

// SyncStateStore handles sync state persistence
type SyncStateStore interface {
	// Save creates or updates sync state
	Save(ctx context.Context, state *domain.SyncState) error

	// Get retrieves sync state for a kind.
	// A kind that never synced yields its idle state, not an error.
	Get(ctx context.Context, kind domain.EntityKind) (*domain.SyncState, error)

	// List retrieves sync states for all kinds
	List(ctx context.Context) ([]*domain.SyncState, error)
}
