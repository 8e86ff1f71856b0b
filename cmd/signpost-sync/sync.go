package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/signpost-sync/internal/core/domain"
)

func newSyncCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "sync [kind...]",
		Short: "Run one sync cycle and print the results",
		Long: `Runs one sync cycle against the content API, for the given kinds or for
every configured kind, and prints the per-kind results as JSON. A kind whose
fetch keeps failing is reported as degraded; the command still succeeds.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			kinds, err := domain.ParseEntityKinds(args)
			if err != nil {
				return err
			}

			remote, err := newRemote(cfg, logger)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			b := openBackend(ctx, cfg, logger)
			defer b.Close()

			coordinator, err := newCoordinator(cfg, b, remote, logger)
			if err != nil {
				return err
			}
			defer coordinator.Close()

			var results []*domain.SyncResult
			if len(kinds) == 0 {
				results, err = coordinator.SyncAll(ctx)
				if err != nil {
					return err
				}
			} else {
				for _, kind := range kinds {
					result, err := coordinator.SyncKind(ctx, kind)
					if err != nil {
						return err
					}
					results = append(results, result)
				}
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(results); err != nil {
				return fmt.Errorf("failed to print results: %w", err)
			}
			return nil
		},
	}
}
