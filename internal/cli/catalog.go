// Package cli implements the questctl commands.
package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/yashy10/golden-gate-quest/internal/app"
	"github.com/yashy10/golden-gate-quest/internal/catalog"
	"github.com/yashy10/golden-gate-quest/internal/config"
)

var (
	okMark   = color.New(color.FgGreen).Sprint("✓")
	failMark = color.New(color.FgRed).Sprint("✗")
)

// CatalogCmd returns the catalog command group.
func CatalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Validate, import and inspect the location catalog",
	}
	cmd.AddCommand(catalogValidateCmd())
	cmd.AddCommand(catalogImportCmd())
	cmd.AddCommand(catalogStatsCmd())
	return cmd
}

func catalogValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file>",
		Short: "Check a YAML catalog file without touching the database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			c, err := catalog.LoadFile(args[0])
			if err != nil {
				return err
			}
			return report(cmd.OutOrStdout(), c, catalog.Validate(c, cfg.Region.Catalog()))
		},
	}
}

func catalogImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Validate a YAML catalog file and upsert its rows",
		Long: `Validate every row of the file and, if all rows pass, upsert them into
the database at DB_PATH. Nothing is written when any row is rejected.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			c, err := catalog.LoadFile(args[0])
			if err != nil {
				return err
			}

			a, err := app.Open(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.Importer.Import(cmd.Context(), c)
			if err := report(cmd.OutOrStdout(), c, err); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d locations and %d food stops into %s\n",
				res.Locations, res.FoodStops, cfg.DBPath)
			return nil
		},
	}
}

func catalogStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show how many locations each category holds",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			a, err := app.Open(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			c, err := a.Catalog.Catalog(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, cc := range c.Counts() {
				count := fmt.Sprintf("%3d", cc.Count)
				if cc.Count == 0 {
					count = color.New(color.FgYellow).Sprint(count)
				}
				fmt.Fprintf(out, "  %s  %s\n", count, cc.Category)
			}
			fmt.Fprintf(out, "\n%d locations, %d food stops\n", len(c.Locations), len(c.FoodStops))
			return nil
		},
	}
}

// report prints one line per rejected row and returns err unchanged. A nil
// err prints a single success line.
func report(w io.Writer, c catalog.Catalog, err error) error {
	var ierr *catalog.ImportError
	if errors.As(err, &ierr) {
		for _, row := range ierr.Rows {
			fmt.Fprintf(w, "%s %s\n", failMark, row.Error())
		}
		return fmt.Errorf("%d of %d rows rejected", len(ierr.Rows), len(c.Locations)+len(c.FoodStops))
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%s %d locations, %d food stops valid\n", okMark, len(c.Locations), len(c.FoodStops))
	return nil
}
