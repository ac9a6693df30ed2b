package quest

import "slices"

type Category string

const (
	CategoryIconic        Category = "iconic"
	CategoryArchitecture  Category = "architecture"
	CategoryNeighborhoods Category = "neighborhoods"
	CategoryHiddenGems    Category = "hidden-gems"
	CategoryWaterfront    Category = "waterfront"
	CategoryParks         Category = "parks"
	CategoryArtsCulture   Category = "arts-culture"
	CategoryLocalBusiness Category = "local-business"
	CategoryFilmHistory   Category = "film-history"
)

const (
	MinCategories = 2
	MaxCategories = 3
)

// CategoryInfo is the display metadata shown on the category picker.
type CategoryInfo struct {
	Category Category `json:"category"`
	Title    string   `json:"title"`
	Subtitle string   `json:"subtitle"`
}

var categoryInfo = []CategoryInfo{
	{CategoryIconic, "Iconic Landmarks", "The famous must-sees"},
	{CategoryArchitecture, "Historic Architecture", "Victorian gems & grand buildings"},
	{CategoryNeighborhoods, "Cultural Districts", "Chinatown, Mission & unique communities"},
	{CategoryHiddenGems, "Hidden Gems", "Secret spots locals love"},
	{CategoryWaterfront, "Waterfront & Maritime", "Bay views & nautical history"},
	{CategoryParks, "Parks & Recreation", "Green spaces & outdoor culture"},
	{CategoryArtsCulture, "Arts & Culture", "Museums, theaters & galleries"},
	{CategoryLocalBusiness, "Local Treasures", "Historic shops & community hubs"},
	{CategoryFilmHistory, "Film & Media", "Famous filming locations"},
}

// Categories returns the metadata of every recognized category in display order.
func Categories() []CategoryInfo {
	return slices.Clone(categoryInfo)
}

// Valid reports whether c belongs to the closed category set.
func (c Category) Valid() bool {
	for _, info := range categoryInfo {
		if info.Category == c {
			return true
		}
	}
	return false
}

// ToggleCategory adds c to selected when absent and removes it when present.
// Adding beyond MaxCategories leaves the selection unchanged. The input slice
// is never modified.
func ToggleCategory(selected []Category, c Category) []Category {
	if i := slices.Index(selected, c); i >= 0 {
		return slices.Delete(slices.Clone(selected), i, i+1)
	}
	if len(selected) >= MaxCategories || !c.Valid() {
		return slices.Clone(selected)
	}
	return append(slices.Clone(selected), c)
}

// ValidSelection reports whether selected holds 2 to 3 distinct known categories.
func ValidSelection(selected []Category) bool {
	if len(selected) < MinCategories || len(selected) > MaxCategories {
		return false
	}
	seen := make(map[Category]bool, len(selected))
	for _, c := range selected {
		if !c.Valid() || seen[c] {
			return false
		}
		seen[c] = true
	}
	return true
}
