package main

// @title           Signpost Sync API
// @version         1.0
// @description     Cache-first read model of the Signpost content API with incremental background refresh.

// @contact.name   Signpost OSS

// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:8080
// @BasePath  /api/v1
// @schemes   http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT Bearer token. Format: "Bearer {token}"

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/signpost-sync/internal/config"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// newRootCmd builds the command tree. Each subcommand loads the
// configuration itself so --config is honoured everywhere.
func newRootCmd() *cobra.Command {
	var cfgFile string

	root := &cobra.Command{
		Use:           "signpost-sync",
		Short:         "Local cache of the Signpost content API with incremental refresh",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (yaml, json or toml)")

	load := func() (*config.Config, error) {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return nil, err
		}
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		return cfg, nil
	}

	root.AddCommand(
		newServeCmd(load),
		newSyncCmd(load),
		newShowCmd(load),
		newHashPasswordCmd(load),
	)
	return root
}

type configLoader func() (*config.Config, error)

// newLogger installs the process-wide slog handler.
func newLogger(cfg *config.Config, w io.Writer) (*slog.Logger, error) {
	level, err := cfg.SlogLevel()
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch cfg.LogFormat {
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	case "text":
		handler = slog.NewTextHandler(w, opts)
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.LogFormat)
	}

	logger := slog.New(handler).With("service", "signpost-sync")
	slog.SetDefault(logger)
	return logger, nil
}
