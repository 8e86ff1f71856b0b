package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/custodia-labs/signpost-sync/internal/adapters/driven/directus"
	"github.com/custodia-labs/signpost-sync/internal/adapters/driven/failclosed"
	"github.com/custodia-labs/signpost-sync/internal/adapters/driven/memory"
	"github.com/custodia-labs/signpost-sync/internal/adapters/driven/postgres"
	redisadapter "github.com/custodia-labs/signpost-sync/internal/adapters/driven/redis"
	"github.com/custodia-labs/signpost-sync/internal/adapters/driven/sqlite"
	"github.com/custodia-labs/signpost-sync/internal/config"
	"github.com/custodia-labs/signpost-sync/internal/core/ports/driven"
	"github.com/custodia-labs/signpost-sync/internal/core/services"
)

// backend bundles the persistence adapters chosen by STORE_BACKEND.
type backend struct {
	entities *failclosed.Store
	states   driven.SyncStateStore
	lock     driven.DistributedLock // nil when running single-instance
	closers  []func() error
}

func (b *backend) Close() error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// openBackend opens the configured store. A medium that cannot be opened
// does not stop the process: entities fall back to memory through the
// fail-closed decorator, sync states to a memory store.
func openBackend(ctx context.Context, cfg *config.Config, logger *slog.Logger) *backend {
	mem := memory.MustOpen()
	b := &backend{}

	var primary driven.EntityStore
	var states driven.SyncStateStore

	switch cfg.StoreBackend {
	case config.BackendMemory:
		primary = memory.NewEntityStore(mem)
		states = memory.NewSyncStateStore(mem)

	case config.BackendSQLite:
		db, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			logger.Error("failed to open sqlite cache", "path", cfg.SQLitePath, "error", err)
			break
		}
		b.closers = append(b.closers, db.Close)
		primary = sqlite.NewEntityStore(db)
		states = sqlite.NewSyncStateStore(db)
		logger.Info("sqlite cache opened", "path", cfg.SQLitePath)

	case config.BackendPostgres:
		db, err := postgres.Connect(ctx, postgres.DefaultConfig(cfg.DatabaseURL))
		if err == nil {
			err = db.InitSchema(ctx)
			if err != nil {
				db.Close()
			}
		}
		if err != nil {
			logger.Error("failed to open postgres cache", "error", err)
			break
		}
		b.closers = append(b.closers, db.Close)
		primary = postgres.NewEntityStore(db)
		states = postgres.NewSyncStateStore(db)
		b.lock = postgres.NewAdvisoryLock(db)
		logger.Info("postgres cache connected")

	case config.BackendRedis:
		client, err := connectRedis(ctx, cfg.RedisURL)
		if err != nil {
			logger.Error("failed to connect to redis cache", "error", err)
			break
		}
		b.closers = append(b.closers, client.Close)
		primary = redisadapter.NewEntityStore(client)
		states = redisadapter.NewSyncStateStore(client)
		b.lock = redisadapter.NewLock(client)
		logger.Info("redis cache connected")
	}

	// Redis locks are preferred whenever Redis is available.
	if cfg.RedisURL != "" && cfg.StoreBackend != config.BackendRedis {
		if client, err := connectRedis(ctx, cfg.RedisURL); err != nil {
			logger.Warn("redis unavailable, distributed locks disabled", "error", err)
		} else {
			b.closers = append(b.closers, client.Close)
			b.lock = redisadapter.NewLock(client)
		}
	}

	if states == nil {
		states = memory.NewSyncStateStore(mem)
	}
	b.states = states
	b.entities = failclosed.New(failclosed.Config{
		Store:    primary,
		Fallback: memory.NewEntityStore(mem),
		Logger:   logger,
	})
	return b
}

func connectRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}

func newRemote(cfg *config.Config, logger *slog.Logger) (*directus.Client, error) {
	if err := cfg.RequireRemote(); err != nil {
		return nil, err
	}
	return directus.NewClient(directus.Config{
		BaseURL:     cfg.RemoteURL,
		Token:       cfg.RemoteToken,
		CountryID:   cfg.CountryID,
		MaxAttempts: cfg.RateLimitMaxAttempts,
		Logger:      logger,
	})
}

func newCoordinator(cfg *config.Config, b *backend, remote driven.RemoteClient, logger *slog.Logger) (*services.SyncCoordinator, error) {
	kinds, err := cfg.Kinds()
	if err != nil {
		return nil, err
	}
	return services.NewSyncCoordinator(services.SyncCoordinatorConfig{
		Store:     b.entities,
		Remote:    remote,
		SyncStore: b.states,
		Lock:      b.lock,
		Kinds:     kinds,
		Retry: services.RetryPolicy{
			MaxAttempts: cfg.RetryMaxAttempts,
			Delay:       cfg.RetryDelay,
			Logger:      logger,
		},
		CycleTimeout: cfg.CycleTimeout,
		Concurrency:  cfg.SyncConcurrency,
		Logger:       logger,
	}), nil
}
