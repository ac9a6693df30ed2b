// Package quest defines the core domain types of a treasure-hunt walk and the
// rules that move a quest from its first stop to the achievement screen.
// It has no external dependencies.
package quest

import "time"

// StopsPerQuest is the number of locations every curated quest visits.
const StopsPerQuest = 5

type Coordinates struct {
	Lat float64 `json:"lat" yaml:"lat" validate:"latitude"`
	Lng float64 `json:"lng" yaml:"lng" validate:"longitude"`
}

type Location struct {
	ID              string      `json:"id" yaml:"id" validate:"required"`
	Name            string      `json:"name" yaml:"name" validate:"required"`
	Neighborhood    string      `json:"neighborhood" yaml:"neighborhood"`
	Address         string      `json:"address" yaml:"address"`
	Coordinates     Coordinates `json:"coordinates" yaml:"coordinates"`
	Category        Category    `json:"category" yaml:"category" validate:"required,category"`
	HeroImage       string      `json:"heroImage" yaml:"heroImage"`
	HistoricImage   string      `json:"historicImage" yaml:"historicImage"`
	HistoricYear    string      `json:"historicYear" yaml:"historicYear"`
	ShortSummary    string      `json:"shortSummary" yaml:"shortSummary"`
	FullDescription string      `json:"fullDescription" yaml:"fullDescription"`
	Hints           []string    `json:"hints" yaml:"hints"`
}

type PriceRange string

const (
	PriceLow    PriceRange = "$"
	PriceMedium PriceRange = "$$"
	PriceHigh   PriceRange = "$$$"
)

type FoodStop struct {
	ID              string      `json:"id" yaml:"id" validate:"required"`
	Name            string      `json:"name" yaml:"name" validate:"required"`
	Cuisine         string      `json:"cuisine" yaml:"cuisine"`
	PriceRange      PriceRange  `json:"priceRange" yaml:"priceRange" validate:"oneof=$ $$ $$$"`
	Neighborhood    string      `json:"neighborhood" yaml:"neighborhood"`
	Coordinates     Coordinates `json:"coordinates" yaml:"coordinates"`
	Recommendations []string    `json:"recommendations" yaml:"recommendations"`
	Image           string      `json:"image" yaml:"image"`
}

// ItineraryOption is a provider's pick expressed as 1-based indices into the
// candidate lists that were offered for one generation call.
type ItineraryOption struct {
	Theme           string `json:"theme"`
	Description     string `json:"description"`
	LocationIndices []int  `json:"locationIndices"`
	FoodStopIndex   int    `json:"foodStopIndex"`
}

type Quest struct {
	ID          string          `json:"id"`
	CreatedAt   time.Time       `json:"createdAt"`
	Preferences UserPreferences `json:"preferences"`
	Categories  []Category      `json:"categories"`
	Theme       string          `json:"theme,omitempty"`
	Description string          `json:"description,omitempty"`
	Locations   []Location      `json:"locations"`
	FoodStop    *FoodStop       `json:"foodStop"`
	AIProvider  string          `json:"aiProvider,omitempty"`
	Progress    Progress        `json:"progress"`
}

type Progress struct {
	CurrentIndex    int        `json:"currentIndex"`
	Completed       []bool     `json:"completed"`
	Photos          []string   `json:"photos"`
	StartTime       *time.Time `json:"startTime,omitempty"`
	FoodStopVisited bool       `json:"foodStopVisited,omitempty"`
}

// NewProgress returns zeroed progress for a quest with n locations.
func NewProgress(n int) Progress {
	return Progress{
		Completed: make([]bool, n),
		Photos:    make([]string, n),
	}
}
