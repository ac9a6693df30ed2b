package appstate

import "github.com/yashy10/golden-gate-quest/internal/quest"

// Route names the screen a client should show for a state.
type Route string

const (
	RouteLoading     Route = "loading"
	RouteSplash      Route = "splash"
	RouteOnboarding  Route = "onboarding"
	RouteCategories  Route = "categories"
	RouteItinerary   Route = "itinerary"
	RouteAchievement Route = "achievement"
)

// Decide picks the screen for s. Until the session has hydrated the answer
// is always RouteLoading, so a slow load never bounces a returning user back
// to onboarding.
func Decide(s State, hydrated bool) Route {
	switch {
	case !hydrated:
		return RouteLoading
	case s.CurrentQuest != nil && s.CurrentQuest.Progress.IsComplete():
		return RouteAchievement
	case s.CurrentQuest != nil:
		return RouteItinerary
	case !s.HasSeenSplash:
		return RouteSplash
	case s.OnboardingStep >= quest.OnboardingSteps && onboardingAnswered(s.Preferences):
		return RouteCategories
	default:
		return RouteOnboarding
	}
}

func onboardingAnswered(p quest.UserPreferences) bool {
	for step := 1; step <= quest.OnboardingSteps; step++ {
		if !p.StepAnswered(step) {
			return false
		}
	}
	return true
}
