package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/signpost-sync/internal/adapters/driven/auth"
	httpadapter "github.com/custodia-labs/signpost-sync/internal/adapters/driving/http"
	"github.com/custodia-labs/signpost-sync/internal/core/services"
)

func newServeCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Boot from the local cache, refresh in the background and serve the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			logger.Info("starting", "version", version, "backend", cfg.StoreBackend)

			remote, err := newRemote(cfg, logger)
			if err != nil {
				return err
			}

			b := openBackend(ctx, cfg, logger)
			defer b.Close()

			coordinator, err := newCoordinator(cfg, b, remote, logger)
			if err != nil {
				return err
			}
			defer coordinator.Close()

			// Readers never wait on the network: Boot only loads the cache.
			if err := coordinator.Boot(ctx); err != nil {
				return err
			}

			scheduler := services.NewRefreshScheduler(services.RefreshSchedulerConfig{
				Sync:     coordinator,
				Lock:     b.lock,
				Interval: cfg.RefreshInterval,
				Logger:   logger,
			})
			if err := scheduler.Start(ctx); err != nil {
				return err
			}
			defer scheduler.Stop()

			authService := services.NewAuthService(services.AuthServiceConfig{
				AuthAdapter:       auth.NewAdapter(cfg.JWTSecret),
				AdminPasswordHash: cfg.AdminPasswordHash,
				TokenTTL:          cfg.TokenTTL,
			})
			if cfg.AdminPasswordHash == "" {
				logger.Warn("ADMIN_PASSWORD_HASH not set, admin endpoints are disabled")
			}

			server := httpadapter.NewServer(httpadapter.Config{
				Host:           cfg.Host,
				Port:           cfg.Port,
				Version:        version,
				AllowedOrigins: cfg.AllowedOrigins,
				Logger:         logger,
			}, coordinator, authService, b.entities, remote)

			return server.Start(ctx)
		},
	}
}
