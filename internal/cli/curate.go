package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/yashy10/golden-gate-quest/internal/app"
	"github.com/yashy10/golden-gate-quest/internal/config"
	"github.com/yashy10/golden-gate-quest/internal/quest"
	"github.com/yashy10/golden-gate-quest/internal/validation"
)

type curateFlags struct {
	categories []string
	prefs      quest.UserPreferences
	start      string
	options    int
}

// CurateCmd returns the curate command, which runs the provider chain
// against the local catalog and prints the result.
func CurateCmd() *cobra.Command {
	var f curateFlags

	cmd := &cobra.Command{
		Use:   "curate",
		Short: "Curate a quest from the local catalog",
		Example: `  questctl curate --categories iconic,waterfront --budget moderate
  questctl curate -c parks -c hidden-gems --options 3`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			categories, prefs, err := f.parse()
			if err != nil {
				return err
			}

			a, err := app.Open(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			cat, err := a.Catalog.Catalog(cmd.Context())
			if err != nil {
				return err
			}

			quests, err := a.Curator.Options(cmd.Context(), categories, prefs, cat, f.options)
			if err != nil {
				return err
			}
			for i, q := range quests {
				if i > 0 {
					fmt.Fprintln(cmd.OutOrStdout())
				}
				printQuest(cmd.OutOrStdout(), q)
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&f.categories, "categories", "c", nil, "categories to draw stops from (2 or 3)")
	cmd.Flags().StringVar(&f.prefs.AgeRange, "age", "", "age range ("+strings.Join(quest.AgeRanges, ", ")+")")
	cmd.Flags().StringVar(&f.prefs.Budget, "budget", "", "budget ("+strings.Join(quest.Budgets, ", ")+")")
	cmd.Flags().StringVar(&f.prefs.TimeAvailable, "time", "", "time available ("+strings.Join(quest.TimeBudgets, ", ")+")")
	cmd.Flags().StringVar(&f.prefs.Mobility, "mobility", "", "mobility ("+strings.Join(quest.Mobilities, ", ")+")")
	cmd.Flags().StringVar(&f.prefs.GroupSize, "group", "", "group size ("+strings.Join(quest.GroupSizes, ", ")+")")
	cmd.Flags().StringVar(&f.start, "start", "", "starting address; omit to start from the current location")
	cmd.Flags().IntVar(&f.options, "options", 1, "number of alternative quests (1-3)")
	_ = cmd.MarkFlagRequired("categories")

	return cmd
}

func (f curateFlags) parse() ([]quest.Category, quest.UserPreferences, error) {
	categories := make([]quest.Category, len(f.categories))
	for i, c := range f.categories {
		categories[i] = quest.Category(strings.TrimSpace(c))
		if !categories[i].Valid() {
			return nil, quest.UserPreferences{}, fmt.Errorf("unknown category %q", c)
		}
	}
	if !quest.ValidSelection(categories) {
		return nil, quest.UserPreferences{}, fmt.Errorf("choose %d to %d distinct categories", quest.MinCategories, quest.MaxCategories)
	}
	if f.options < 1 || f.options > 3 {
		return nil, quest.UserPreferences{}, fmt.Errorf("--options must be between 1 and 3")
	}

	prefs := f.prefs
	if f.start != "" {
		prefs.StartingPoint = &quest.StartingPoint{Type: quest.StartAddress, Value: f.start}
	}
	if err := validation.Struct(prefs); err != nil {
		var msgs []string
		for field, msg := range validation.Format(err) {
			msgs = append(msgs, field+": "+msg)
		}
		return nil, quest.UserPreferences{}, fmt.Errorf("invalid preferences: %s", strings.Join(msgs, "; "))
	}
	return categories, prefs, nil
}

func printQuest(w io.Writer, q quest.Quest) {
	bold := color.New(color.Bold)
	dim := color.New(color.Faint)

	bold.Fprintln(w, q.Theme)
	if q.Description != "" {
		fmt.Fprintln(w, q.Description)
	}
	dim.Fprintf(w, "%s via %s\n\n", q.ID, q.AIProvider)

	for i, loc := range q.Locations {
		fmt.Fprintf(w, "  %d. %s ", i+1, loc.Name)
		color.New(color.FgCyan).Fprintf(w, "[%s]", loc.Category)
		fmt.Fprintf(w, " %s\n", loc.Neighborhood)
	}
	if fs := q.FoodStop; fs != nil {
		fmt.Fprintf(w, "\n  Food: %s (%s, %s)\n", fs.Name, fs.Cuisine, fs.PriceRange)
	}
}
