// Package appstate owns the per-session application state: onboarding
// answers, category picks and the current quest. State changes go through
// pure reducers and every change is persisted without blocking the caller.
package appstate

import (
	"errors"
	"slices"
	"time"

	"github.com/yashy10/golden-gate-quest/internal/quest"
)

var (
	ErrStepIncomplete    = errors.New("current onboarding step is not answered")
	ErrStaleGeneration   = errors.New("a newer quest generation superseded this one")
	ErrInvalidSession    = errors.New("invalid session id")
	ErrCategorySelection = errors.New("select between 2 and 3 categories")
)

// State is the persisted snapshot, stored under SnapshotName.
type State struct {
	CurrentQuest           *quest.Quest          `json:"currentQuest"`
	OnboardingStep         int                   `json:"onboardingStep"`
	Preferences            quest.UserPreferences `json:"preferences"`
	SelectedCategories     []quest.Category      `json:"selectedCategories"`
	HasSeenSplash          bool                  `json:"hasSeenSplash"`
	HasCompletedOnboarding bool                  `json:"hasCompletedOnboarding"`
}

// SnapshotName identifies the persisted document.
const SnapshotName = "quest-app-state"

func Initial() State {
	return State{OnboardingStep: 1, SelectedCategories: []quest.Category{}}
}

func SeeSplash(s State) State {
	s.HasSeenSplash = true
	return s
}

func UpdatePreferences(s State, patch quest.UserPreferences) State {
	s.Preferences = s.Preferences.Merge(patch)
	return s
}

// NextStep advances onboarding when the current step is answered. On the
// last step it leaves the state as is; the caller moves on to categories.
func NextStep(s State) (State, error) {
	if !s.Preferences.StepAnswered(s.OnboardingStep) {
		return s, ErrStepIncomplete
	}
	if s.OnboardingStep < quest.OnboardingSteps {
		s.OnboardingStep++
	}
	return s, nil
}

func PrevStep(s State) State {
	if s.OnboardingStep > 1 {
		s.OnboardingStep--
	}
	return s
}

func ToggleCategory(s State, c quest.Category) State {
	s.SelectedCategories = quest.ToggleCategory(s.SelectedCategories, c)
	return s
}

// SetQuest replaces the current quest wholesale.
func SetQuest(s State, q quest.Quest) State {
	s.CurrentQuest = &q
	s.HasCompletedOnboarding = true
	return s
}

func CompleteLocation(s State, index int, photo string, now time.Time) (State, error) {
	if s.CurrentQuest == nil {
		return s, quest.ErrNoCurrentQuest
	}
	q, err := s.CurrentQuest.CompleteLocation(index, photo, now)
	if err != nil {
		return s, err
	}
	s.CurrentQuest = &q
	return s, nil
}

func VisitFoodStop(s State) (State, error) {
	if s.CurrentQuest == nil {
		return s, quest.ErrNoCurrentQuest
	}
	q, err := s.CurrentQuest.VisitFoodStop()
	if err != nil {
		return s, err
	}
	s.CurrentQuest = &q
	return s, nil
}

// Reset drops the quest and every onboarding answer. The splash stays seen.
func Reset(s State) State {
	next := Initial()
	next.HasSeenSplash = s.HasSeenSplash
	return next
}

// Progress reports zero progress when there is no quest.
func Progress(s State) quest.Summary {
	if s.CurrentQuest == nil {
		return quest.Summary{}
	}
	return s.CurrentQuest.Progress.Summary()
}

func clone(s State) State {
	s.SelectedCategories = slices.Clone(s.SelectedCategories)
	if s.Preferences.StartingPoint != nil {
		sp := *s.Preferences.StartingPoint
		s.Preferences.StartingPoint = &sp
	}
	if s.CurrentQuest != nil {
		q := *s.CurrentQuest
		q.Locations = slices.Clone(q.Locations)
		q.Categories = slices.Clone(q.Categories)
		q.Progress.Completed = slices.Clone(q.Progress.Completed)
		q.Progress.Photos = slices.Clone(q.Progress.Photos)
		s.CurrentQuest = &q
	}
	return s
}
