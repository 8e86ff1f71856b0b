package driven

import (
	"context"

	"github.com/custodia-labs/signpost-sync/internal/core/domain"
)

// EntityStore is the persistent local cache, one table per entity kind.
type EntityStore interface {
	// GetAll returns every stored entity of a kind in unspecified order.
	// An empty table yields an empty slice, never an error.
	GetAll(ctx context.Context, kind domain.EntityKind) ([]*domain.Entity, error)

	// Get retrieves one entity, domain.ErrNotFound when absent
	Get(ctx context.Context, kind domain.EntityKind, id int64) (*domain.Entity, error)

	// Put upserts an entity by id (last write wins)
	Put(ctx context.Context, kind domain.EntityKind, entity *domain.Entity) error

	// Count returns the number of stored entities of a kind
	Count(ctx context.Context, kind domain.EntityKind) (int, error)

	// GetMeta retrieves a durable key/value entry, domain.ErrNotFound when absent
	GetMeta(ctx context.Context, key string) ([]byte, error)

	// SetMeta stores a durable key/value entry
	SetMeta(ctx context.Context, key string, value []byte) error

	// Ping checks if the persistence medium is reachable
	Ping(ctx context.Context) error

	// Close releases the underlying resources
	Close() error
}
