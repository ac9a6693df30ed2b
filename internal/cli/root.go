package cli

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/yashy10/golden-gate-quest/internal/logger"
)

// RootCmd assembles questctl. Configuration comes from the same environment
// variables and .env file as the server.
func RootCmd() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:          "questctl",
		Short:        "Operate the Golden Gate Quest catalog and curator",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cfg := logger.Config{Level: slog.LevelWarn, Service: "questctl"}
			if verbose {
				cfg.Level = slog.LevelDebug
			}
			logger.New(os.Stderr, cfg)
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log provider attempts and repairs to stderr")

	root.AddCommand(CatalogCmd())
	root.AddCommand(CurateCmd())
	root.AddCommand(MigrateCmd())
	root.AddCommand(HashPasswordCmd())
	return root
}
