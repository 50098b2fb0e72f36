package main

import (
	"context"
	"database/sql"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	_ "modernc.org/sqlite"

	"github.com/sinharash/entitypick/internal/catalog"
	"github.com/sinharash/entitypick/internal/output"
	"github.com/sinharash/entitypick/internal/refcodec"
	"github.com/sinharash/entitypick/internal/seed"
	"github.com/sinharash/entitypick/internal/server"
)

func newServeCmd() *cobra.Command {
	var (
		flagAddr string
		flagDB   string
		flagSeed string
		flagDemo bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the catalog and picker protocol over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if flagAddr != "" {
				cfg.Addr = flagAddr
			}
			if flagDB != "" {
				cfg.DBPath = flagDB
			}
			if flagSeed != "" {
				cfg.SeedFile = flagSeed
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			db, err := sql.Open("sqlite", "file:"+cfg.DBPath)
			if err != nil {
				return err
			}
			defer db.Close()
			db.SetMaxOpenConns(1)
			output.Debug("opened catalog database", "path", cfg.DBPath)

			store := catalog.NewSQLiteStore(db)
			if err := store.CreateTable(ctx); err != nil {
				return err
			}

			if err := loadSeed(ctx, store, cfg.SeedFile, flagDemo); err != nil {
				return err
			}

			return server.Run(ctx, server.Config{
				Addr:  cfg.Addr,
				Store: store,
				Codec: refcodec.Options{
					Fragment:    refcodec.Fragment(cfg.IdentityFragment),
					Separator:   cfg.Separator,
					OnAmbiguous: refcodec.AmbiguousPolicy(cfg.OnAmbiguous),
				},
			})
		},
	}

	cmd.Flags().StringVar(&flagAddr, "addr", "", "listen address (default :8080)")
	cmd.Flags().StringVar(&flagDB, "db", "", "sqlite database path (default entitypick.db)")
	cmd.Flags().StringVar(&flagSeed, "seed", "", "CUE seed file to load at startup")
	cmd.Flags().BoolVar(&flagDemo, "demo", false, "load the embedded demo catalog")

	return cmd
}

func loadSeed(ctx context.Context, store catalog.Store, seedFile string, demo bool) error {
	var records []catalog.Record
	var err error
	switch {
	case seedFile != "":
		records, err = seed.LoadFile(seedFile)
	case demo:
		records, err = seed.Demo()
	default:
		return nil
	}
	if err != nil {
		return err
	}
	if err := store.UpsertRecords(ctx, records); err != nil {
		return err
	}
	output.Info("seeded catalog", "records", len(records))
	return nil
}
