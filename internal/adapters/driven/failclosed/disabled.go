package failclosed

import (
	"context"

	"github.com/custodia-labs/signpost-sync/internal/core/domain"
	"github.com/custodia-labs/signpost-sync/internal/core/ports/driven"
)

var _ driven.EntityStore = disabledStore{}

// Disabled returns a store whose medium could not be opened.
// Every call fails with domain.ErrLocalStoreUnavailable.
func Disabled() driven.EntityStore {
	return disabledStore{}
}

type disabledStore struct{}

func (disabledStore) GetAll(context.Context, domain.EntityKind) ([]*domain.Entity, error) {
	return nil, domain.ErrLocalStoreUnavailable
}

func (disabledStore) Get(context.Context, domain.EntityKind, int64) (*domain.Entity, error) {
	return nil, domain.ErrLocalStoreUnavailable
}

func (disabledStore) Put(context.Context, domain.EntityKind, *domain.Entity) error {
	return domain.ErrLocalStoreUnavailable
}

func (disabledStore) Count(context.Context, domain.EntityKind) (int, error) {
	return 0, domain.ErrLocalStoreUnavailable
}

func (disabledStore) GetMeta(context.Context, string) ([]byte, error) {
	return nil, domain.ErrLocalStoreUnavailable
}

func (disabledStore) SetMeta(context.Context, string, []byte) error {
	return domain.ErrLocalStoreUnavailable
}

func (disabledStore) Ping(context.Context) error {
	return domain.ErrLocalStoreUnavailable
}

func (disabledStore) Close() error { return nil }
