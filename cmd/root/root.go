// Package root contains the root command for the application
package root

import (
	"fmt"

	"fjacquet/ticket-tracker/internal/config"
	"fjacquet/ticket-tracker/internal/logging"
	"fjacquet/ticket-tracker/internal/store"

	"github.com/spf13/cobra"
)

var (
	// Log is the shared logger instance for commands
	Log = logging.Default()

	// Cfg is the loaded configuration, available after PersistentPreRunE
	Cfg *config.Config

	// DatabasePath overrides the configured database location when set
	DatabasePath string

	// Cmd is the root command
	Cmd = &cobra.Command{
		Use:   "ticket-tracker",
		Short: "Import, categorize and analyze supermarket purchase tickets.",
		Long: `ticket-tracker ingests the text of purchase tickets into a local database,
deduplicates products across tickets, assigns them to spending families and
reports spending aggregates and price anomalies.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			config.LoadEnv()

			cfg, err := config.InitializeConfig()
			if err != nil {
				return err
			}
			Cfg = cfg
			Log = cfg.ConfigureLogging()
			return nil
		},
		SilenceUsage: true,
	}
)

// Init initializes the root command flags.
func Init() {
	Cmd.PersistentFlags().StringVarP(&DatabasePath, "database", "d", "", "Database file (defaults to the configured path)")
}

// OpenStore opens the configured database for a subcommand.
func OpenStore() (*store.Store, error) {
	path := DatabasePath
	if path == "" {
		path = Cfg.Database.Path
	}
	s, err := store.Open(path, Log)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return s, nil
}
