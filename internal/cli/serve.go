package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/idilsaglam/violet/internal/server"
	"github.com/idilsaglam/violet/internal/server/boltdb"
	"github.com/spf13/cobra"
)

func (a *app) serveCmd() *cobra.Command {
	var (
		addr, db, seed, token string
		maxActive             int
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the reference backend",
		Long: `Run the reference REST backend on a local bbolt file.

--seed loads a JSON (comments allowed) document with "dolls", "clientes"
and "cartas" arrays into an empty database before serving. A file written
by "violet export" works as a seed.`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := a.cfg.Server
			f := cmd.Flags()
			if f.Changed("addr") {
				cfg.Addr = addr
			}
			if f.Changed("db") {
				cfg.DB = db
			}
			if f.Changed("max-active") {
				cfg.MaxActiveLetters = maxActive
			}
			if f.Changed("token") {
				cfg.RequireToken, cfg.Token = token != "", token
			}
			if cfg.MaxActiveLetters <= 0 {
				return usagef("max-active must be positive")
			}

			store, err := boltdb.Open(cfg.DB, cfg.MaxActiveLetters)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if seed != "" {
				if err := importSeed(store, seed); err != nil {
					return err
				}
				a.logger.Info("seed imported", slog.String("file", seed))
			}

			opts := server.Options{Addr: cfg.Addr, Logger: a.logger}
			if cfg.RequireToken {
				opts.Token = cfg.Token
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, server.New(store, opts))
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	cmd.Flags().StringVar(&db, "db", "", "bbolt database file (default from config, violet.db)")
	cmd.Flags().StringVar(&seed, "seed", "", "JSON file to import into an empty database")
	cmd.Flags().StringVar(&token, "token", "", "require this bearer token")
	cmd.Flags().IntVar(&maxActive, "max-active", 0, "open letters an agent may hold before it is skipped")
	return cmd
}

func importSeed(db *boltdb.DB, path string) error {
	s, err := boltdb.ReadSeed(path)
	if err != nil {
		return err
	}
	if err := db.Import(s); err != nil {
		if errors.Is(err, boltdb.ErrNotEmpty) {
			return fmt.Errorf("seed %s: %w", path, err)
		}
		return fmt.Errorf("import seed: %w", err)
	}
	return nil
}

func serve(ctx context.Context, srv *server.Server) error {
	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}
