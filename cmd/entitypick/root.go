package main

import (
	"github.com/spf13/cobra"

	"github.com/sinharash/entitypick/internal/config"
	"github.com/sinharash/entitypick/internal/output"
)

var (
	// Global flags
	flagConfig  string
	flagVerbose bool
)

// rootCmd is the base command for the entitypick CLI.
var rootCmd = &cobra.Command{
	Use:   "entitypick",
	Short: "Entity selection and reference resolution service",
	Long: `entitypick serves an entity catalog with a picker protocol on top.

It provides commands to:
  - Serve the catalog, picker sessions, and the resolve action over HTTP
  - Resolve a stored display value back to its canonical entity reference
  - Preview display templates against sample records`,
	PersistentPreRunE: initializeGlobals,
	SilenceUsage:      true,
	SilenceErrors:     true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "path to config file (env: ENTITYPICK_CONFIG)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "increase output verbosity")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newResolveCmd())
	rootCmd.AddCommand(newRenderCmd())
}

// initializeGlobals sets up logging based on global flags.
func initializeGlobals(_ *cobra.Command, _ []string) error {
	output.SetupLogging(flagVerbose)
	return nil
}

// loadConfig resolves the layered configuration for a subcommand.
func loadConfig() (*config.Config, error) {
	return config.NewLoader().Load(flagConfig)
}
