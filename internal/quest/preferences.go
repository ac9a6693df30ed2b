package quest

import (
	"fmt"
	"strings"
)

// Closed values accepted during onboarding.
var (
	AgeRanges     = []string{"under-18", "18-30", "31-50", "51-65", "65+"}
	Budgets       = []string{"free", "budget", "moderate", "flexible"}
	TimeBudgets   = []string{"2-3-hours", "half-day", "full-day"}
	Mobilities    = []string{"anywhere", "flat", "accessible"}
	GroupSizes    = []string{"solo", "couple", "small", "family"}
	StartingTypes = []string{StartCurrent, StartAddress}
)

const (
	StartCurrent = "current"
	StartAddress = "address"
)

type StartingPoint struct {
	Type  string `json:"type" validate:"oneof=current address"`
	Value string `json:"value,omitempty" validate:"required_if=Type address,max=200"`
}

func (s StartingPoint) String() string {
	if s.Type == StartAddress && strings.TrimSpace(s.Value) != "" {
		return s.Value
	}
	return "Current location"
}

// UserPreferences is built field by field during onboarding. An empty string
// or nil StartingPoint means the user has not answered that question yet.
type UserPreferences struct {
	AgeRange      string         `json:"ageRange,omitempty" validate:"omitempty,oneof=under-18 18-30 31-50 51-65 65+"`
	Budget        string         `json:"budget,omitempty" validate:"omitempty,oneof=free budget moderate flexible"`
	StartingPoint *StartingPoint `json:"startingPoint,omitempty" validate:"omitempty"`
	TimeAvailable string         `json:"timeAvailable,omitempty" validate:"omitempty,oneof=2-3-hours half-day full-day"`
	Mobility      string         `json:"mobility,omitempty" validate:"omitempty,oneof=anywhere flat accessible"`
	GroupSize     string         `json:"groupSize,omitempty" validate:"omitempty,oneof=solo couple small family"`
}

// Merge overlays every answered field of patch onto p.
func (p UserPreferences) Merge(patch UserPreferences) UserPreferences {
	if patch.AgeRange != "" {
		p.AgeRange = patch.AgeRange
	}
	if patch.Budget != "" {
		p.Budget = patch.Budget
	}
	if patch.StartingPoint != nil {
		sp := *patch.StartingPoint
		p.StartingPoint = &sp
	}
	if patch.TimeAvailable != "" {
		p.TimeAvailable = patch.TimeAvailable
	}
	if patch.Mobility != "" {
		p.Mobility = patch.Mobility
	}
	if patch.GroupSize != "" {
		p.GroupSize = patch.GroupSize
	}
	return p
}

// Finalize substitutes defaults for every unanswered field.
func (p UserPreferences) Finalize() UserPreferences {
	if p.AgeRange == "" {
		p.AgeRange = "18-30"
	}
	if p.Budget == "" {
		p.Budget = "moderate"
	}
	if p.StartingPoint == nil {
		p.StartingPoint = &StartingPoint{Type: StartCurrent}
	} else {
		sp := *p.StartingPoint
		p.StartingPoint = &sp
	}
	if p.TimeAvailable == "" {
		p.TimeAvailable = "half-day"
	}
	if p.Mobility == "" {
		p.Mobility = "anywhere"
	}
	if p.GroupSize == "" {
		p.GroupSize = "solo"
	}
	return p
}

// Describe renders finalized preferences as the natural-language block
// embedded in curation prompts.
func (p UserPreferences) Describe() string {
	p = p.Finalize()
	var b strings.Builder
	fmt.Fprintf(&b, "- Age Range: %s\n", p.AgeRange)
	fmt.Fprintf(&b, "- Budget: %s\n", p.Budget)
	fmt.Fprintf(&b, "- Time Available: %s\n", p.TimeAvailable)
	fmt.Fprintf(&b, "- Mobility: %s\n", p.Mobility)
	fmt.Fprintf(&b, "- Group Size: %s\n", p.GroupSize)
	fmt.Fprintf(&b, "- Starting Point: %s\n", p.StartingPoint)
	return b.String()
}

// PriceRanges returns the food stop price ranges that fit the budget.
func PriceRanges(budget string) []PriceRange {
	switch budget {
	case "free", "budget":
		return []PriceRange{PriceLow}
	case "moderate":
		return []PriceRange{PriceLow, PriceMedium}
	default:
		return []PriceRange{PriceLow, PriceMedium, PriceHigh}
	}
}

// OnboardingSteps is the number of onboarding screens.
const OnboardingSteps = 4

// StepAnswered reports whether the questions on the given onboarding step
// have all been answered.
func (p UserPreferences) StepAnswered(step int) bool {
	switch step {
	case 1:
		return p.AgeRange != ""
	case 2:
		return p.Budget != ""
	case 3:
		return p.StartingPoint != nil
	case 4:
		return p.TimeAvailable != "" && p.Mobility != "" && p.GroupSize != ""
	default:
		return false
	}
}
