package main

import (
	"database/sql"
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
	_ "modernc.org/sqlite"

	"github.com/sinharash/entitypick/internal/catalog"
	"github.com/sinharash/entitypick/internal/filter"
	"github.com/sinharash/entitypick/internal/refcodec"
	"github.com/sinharash/entitypick/internal/resolve"
)

func newResolveCmd() *cobra.Command {
	var (
		flagDisplay   string
		flagKind      string
		flagNamespace string
		flagTemplate  string
		flagDB        string
	)

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve a stored display value to its canonical reference",
		Long: `Resolve runs the decode action once against the local catalog and
prints the result as JSON. It fails when the value matches no record.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if flagDB != "" {
				cfg.DBPath = flagDB
			}

			db, err := sql.Open("sqlite", "file:"+cfg.DBPath)
			if err != nil {
				return err
			}
			defer db.Close()
			store := catalog.NewSQLiteStore(db)

			resolver := resolve.New(store, refcodec.Options{
				Fragment:    refcodec.Fragment(cfg.IdentityFragment),
				Separator:   cfg.Separator,
				OnAmbiguous: refcodec.AmbiguousPolicy(cfg.OnAmbiguous),
			})

			res, err := resolver.ResolveFromDisplay(cmd.Context(), resolve.Input{
				DisplayValue: flagDisplay,
				Filter:       []filter.Spec{{"kind": flagKind}},
				Template:     flagTemplate,
				Namespace:    flagNamespace,
			})
			if err != nil {
				return err
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		},
	}

	cmd.Flags().StringVar(&flagDisplay, "display", "", "the stored display value to resolve")
	cmd.Flags().StringVar(&flagKind, "kind", "", "entity kind the filter pins down")
	cmd.Flags().StringVar(&flagNamespace, "namespace", "", "namespace applied when the value omits one")
	cmd.Flags().StringVar(&flagTemplate, "template", "", "display template used for label matching")
	cmd.Flags().StringVar(&flagDB, "db", "", "sqlite database path (default entitypick.db)")
	cmd.MarkFlagRequired("display")
	cmd.MarkFlagRequired("kind")

	return cmd
}
