package driven

import (
	"context"
	"encoding/json"

	"github.com/custodia-labs/signpost-sync/internal/core/domain"
)

// RemoteClient reads entities from the remote content API.
// Implementations are stateless and do not run the long sync retry themselves.
type RemoteClient interface {
	// FetchEntities returns the entities of a kind changed after since.
	// A nil since requests a full fetch. An empty slice means "no updates".
	// Failures wrap domain.ErrRemoteUnavailable.
	FetchEntities(ctx context.Context, kind domain.EntityKind, since *domain.Timestamp) ([]*domain.Entity, error)

	// FetchSite returns the site (country) configuration document.
	FetchSite(ctx context.Context) (json.RawMessage, error)

	// Ping checks if the content API is reachable
	Ping(ctx context.Context) error
}
