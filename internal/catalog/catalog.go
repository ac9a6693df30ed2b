// Package catalog owns the location and food stop records quests are built
// from: their storage, validation, seeding and read-side caching.
package catalog

import (
	"slices"

	"github.com/yashy10/golden-gate-quest/internal/quest"
)

// Catalog is a read-only snapshot of every location and food stop.
type Catalog struct {
	Locations []quest.Location `json:"locations" yaml:"locations" validate:"dive"`
	FoodStops []quest.FoodStop `json:"foodStops" yaml:"foodStops" validate:"dive"`
}

// LocationsIn returns the locations tagged with any of the categories, in
// catalog order.
func (c Catalog) LocationsIn(categories []quest.Category) []quest.Location {
	var out []quest.Location
	for _, loc := range c.Locations {
		if slices.Contains(categories, loc.Category) {
			out = append(out, loc)
		}
	}
	return out
}

// FoodStopsFor returns the food stops whose price range fits the budget.
// When none fit, every food stop is returned.
func (c Catalog) FoodStopsFor(budget string) []quest.FoodStop {
	ranges := quest.PriceRanges(budget)
	var out []quest.FoodStop
	for _, fs := range c.FoodStops {
		if slices.Contains(ranges, fs.PriceRange) {
			out = append(out, fs)
		}
	}
	if len(out) == 0 {
		return slices.Clone(c.FoodStops)
	}
	return out
}

// CategoryCount is the number of locations carrying one category.
type CategoryCount struct {
	Category quest.Category `json:"category"`
	Count    int            `json:"count"`
}

// Counts tallies locations per category in display order, including
// categories with no locations.
func (c Catalog) Counts() []CategoryCount {
	tally := make(map[quest.Category]int)
	for _, loc := range c.Locations {
		tally[loc.Category]++
	}
	infos := quest.Categories()
	out := make([]CategoryCount, len(infos))
	for i, info := range infos {
		out[i] = CategoryCount{Category: info.Category, Count: tally[info.Category]}
	}
	return out
}

func (c Catalog) Empty() bool {
	return len(c.Locations) == 0 && len(c.FoodStops) == 0
}
