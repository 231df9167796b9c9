// Command seed loads reference equipment, milestones and sample batches
// into the database named by DATABASE_URL.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tilsley/hgraph/apps/server/internal/batches"
	"github.com/tilsley/hgraph/apps/server/internal/batches/seed"
	"github.com/tilsley/hgraph/apps/server/internal/batches/store"
	"github.com/tilsley/hgraph/apps/server/internal/batches/store/pgmigrations"
	"github.com/tilsley/hgraph/apps/server/internal/batches/uploads"
	"github.com/tilsley/hgraph/apps/server/internal/platform/config"
	pgplatform "github.com/tilsley/hgraph/apps/server/internal/platform/postgres"
	"github.com/tilsley/hgraph/apps/server/internal/platform/redisclient"
	"github.com/tilsley/hgraph/pkg/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1) //nolint:gocritic // stop called explicitly above
	}
}

func newRootCommand() *cobra.Command {
	var (
		file   string
		dotenv string
	)
	cmd := &cobra.Command{
		Use:           "seed",
		Short:         "Load reference data and sample batches into the lab database",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), dotenv, file)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "seed YAML file (defaults to the built-in fixture)")
	cmd.Flags().StringVar(&dotenv, "env-file", ".env", "optional .env file read before the environment")
	return cmd
}

func run(ctx context.Context, dotenv, file string) error {
	cfg, err := config.Load(dotenv)
	if err != nil {
		return err
	}
	log := logging.New(logging.Options{Format: cfg.LogFormat, Level: cfg.LogLevel, Component: "seed"})

	if cfg.DatabaseURL == "" {
		return errors.New("DATABASE_URL must be set")
	}
	doc, err := loadDocument(file)
	if err != nil {
		return err
	}

	pool, err := pgplatform.New(ctx, cfg.DatabaseURL, pgmigrations.FS)
	if err != nil {
		return err
	}
	defer pool.Close()
	st := store.NewPGStore(pool)

	// Dashboards cached by a running server must see the new rows.
	var cache batches.Cache
	if cfg.RedisURL != "" {
		rdb, err := redisclient.New(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer rdb.Close()
		cache = store.NewRedisCache(rdb, cfg.CacheTTL)
	}

	svc := batches.NewService(st, cache, uploads.NewLocalStore(cfg.UploadDir), log)
	rep, err := seed.New(svc, st, log).Run(ctx, doc)
	if err != nil {
		return err
	}
	log.Info("seed complete", "created", rep.Created, "skipped", rep.Skipped)
	return nil
}

func loadDocument(path string) (*seed.Document, error) {
	if path == "" {
		return seed.Default()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()
	return seed.Parse(f)
}
