// Package failclosed keeps the process serving when the local cache medium
// is missing or broken. Reads degrade to empty results, writes are dropped,
// and an optional in-memory fallback takes over both.
package failclosed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/custodia-labs/signpost-sync/internal/core/domain"
	"github.com/custodia-labs/signpost-sync/internal/core/ports/driven"
)

var _ driven.EntityStore = (*Store)(nil)

// Config holds the decorator's collaborators.
type Config struct {
	// Store is the primary medium. A nil Store behaves like Disabled().
	Store driven.EntityStore

	// Fallback receives reads and writes while Store fails. Optional.
	Fallback driven.EntityStore

	Logger *slog.Logger
}

// Store wraps an EntityStore so that GetAll, Put and Count never fail.
type Store struct {
	store    driven.EntityStore
	fallback driven.EntityStore
	logger   *slog.Logger

	mu       sync.Mutex
	degraded bool
}

// New wraps cfg.Store.
func New(cfg Config) *Store {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	store := cfg.Store
	if store == nil {
		store = Disabled()
	}
	return &Store{
		store:    store,
		fallback: cfg.Fallback,
		logger:   logger,
	}
}

// Degraded reports whether the last call against the primary medium failed.
func (s *Store) Degraded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.degraded
}

// fail records a primary failure, logging only on the healthy->degraded edge.
func (s *Store) fail(op string, err error) {
	s.mu.Lock()
	first := !s.degraded
	s.degraded = true
	s.mu.Unlock()

	if first {
		s.logger.Warn("local store unavailable, degrading",
			"op", op,
			"fallback", s.fallback != nil,
			"error", fmt.Errorf("%w: %w", domain.ErrLocalStoreUnavailable, err),
		)
	}
}

func (s *Store) ok() {
	s.mu.Lock()
	recovered := s.degraded
	s.degraded = false
	s.mu.Unlock()

	if recovered {
		s.logger.Info("local store recovered")
	}
}

func (s *Store) GetAll(ctx context.Context, kind domain.EntityKind) ([]*domain.Entity, error) {
	entities, err := s.store.GetAll(ctx, kind)
	if err == nil {
		s.ok()
		if entities == nil {
			entities = []*domain.Entity{}
		}
		return entities, nil
	}
	s.fail("get_all", err)

	if s.fallback != nil {
		if entities, err := s.fallback.GetAll(ctx, kind); err == nil && entities != nil {
			return entities, nil
		}
	}
	return []*domain.Entity{}, nil
}

func (s *Store) Get(ctx context.Context, kind domain.EntityKind, id int64) (*domain.Entity, error) {
	e, err := s.store.Get(ctx, kind, id)
	if err == nil || errors.Is(err, domain.ErrNotFound) {
		s.ok()
		return e, err
	}
	s.fail("get", err)

	if s.fallback != nil {
		if e, err := s.fallback.Get(ctx, kind, id); err == nil {
			return e, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *Store) Put(ctx context.Context, kind domain.EntityKind, entity *domain.Entity) error {
	if err := s.store.Put(ctx, kind, entity); err != nil {
		s.fail("put", err)
		if s.fallback != nil {
			_ = s.fallback.Put(ctx, kind, entity)
		}
		return nil
	}
	s.ok()
	return nil
}

func (s *Store) Count(ctx context.Context, kind domain.EntityKind) (int, error) {
	n, err := s.store.Count(ctx, kind)
	if err == nil {
		s.ok()
		return n, nil
	}
	s.fail("count", err)

	if s.fallback != nil {
		if n, err := s.fallback.Count(ctx, kind); err == nil {
			return n, nil
		}
	}
	return 0, nil
}

func (s *Store) GetMeta(ctx context.Context, key string) ([]byte, error) {
	v, err := s.store.GetMeta(ctx, key)
	if err == nil || errors.Is(err, domain.ErrNotFound) {
		s.ok()
		return v, err
	}
	s.fail("get_meta", err)

	if s.fallback != nil {
		if v, err := s.fallback.GetMeta(ctx, key); err == nil {
			return v, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *Store) SetMeta(ctx context.Context, key string, value []byte) error {
	if err := s.store.SetMeta(ctx, key, value); err != nil {
		s.fail("set_meta", err)
		if s.fallback != nil {
			_ = s.fallback.SetMeta(ctx, key, value)
		}
		return nil
	}
	s.ok()
	return nil
}

// Ping fails only when neither the medium nor the fallback can serve.
// Use Degraded to tell the two apart.
func (s *Store) Ping(ctx context.Context) error {
	err := s.store.Ping(ctx)
	if err == nil {
		return nil
	}
	if s.fallback != nil && s.fallback.Ping(ctx) == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", domain.ErrLocalStoreUnavailable, err)
}

func (s *Store) Close() error {
	var errs []error
	if err := s.store.Close(); err != nil {
		errs = append(errs, err)
	}
	if s.fallback != nil {
		if err := s.fallback.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
