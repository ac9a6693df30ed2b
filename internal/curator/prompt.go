package curator

import (
	"fmt"
	"strings"

	"github.com/yashy10/golden-gate-quest/internal/quest"
)

const systemPrompt = `You are an expert San Francisco tour guide and travel curator. Your job is to create the perfect personalized quest for visitors based on their preferences.

Given a list of available locations and user preferences, select exactly %d locations that would create the most enjoyable and cohesive experience. Consider:
- The user's age range and interests
- Budget constraints
- Time available
- Mobility requirements
- Group size and dynamics
- Geographic proximity to minimize travel time
- A good narrative flow that tells the story of San Francisco

Also select the best food stop that matches their budget and would be conveniently located along their route.`

// Prompt is the text sent to every provider for one generation call.
type Prompt struct {
	System string
	User   string
}

// BuildPrompt describes the finalized preferences and the 1-based candidate
// lists. The numbering is what provider indices refer to.
func BuildPrompt(prefs quest.UserPreferences, categories []quest.Category, locs []quest.Location, foods []quest.FoodStop) Prompt {
	var b strings.Builder
	b.WriteString("Create a personalized quest with these parameters:\n\nUser Preferences:\n")
	b.WriteString(prefs.Describe())

	names := make([]string, len(categories))
	for i, c := range categories {
		names[i] = string(c)
	}
	fmt.Fprintf(&b, "\nSelected Categories: %s\n", strings.Join(names, ", "))

	fmt.Fprintf(&b, "\nAvailable Locations (pick exactly %d):\n", quest.StopsPerQuest)
	for i, l := range locs {
		fmt.Fprintf(&b, "%d. %s (%s) - %s: %s\n", i+1, l.Name, l.Neighborhood, l.Category, l.ShortSummary)
	}

	b.WriteString("\nAvailable Food Stops (pick 1 that best matches their budget and route):\n")
	for i, f := range foods {
		fmt.Fprintf(&b, "%d. %s (%s, %s) in %s\n", i+1, f.Name, f.Cuisine, f.PriceRange, f.Neighborhood)
	}

	return Prompt{
		System: fmt.Sprintf(systemPrompt, quest.StopsPerQuest),
		User:   strings.TrimRight(b.String(), "\n"),
	}
}
