package quest

import (
	"math"
	"slices"
	"time"
)

type LocationState string

const (
	StateLocked    LocationState = "locked"
	StateUnlocked  LocationState = "unlocked"
	StateCompleted LocationState = "completed"
)

// Summary is the progress query result shown in the itinerary header.
type Summary struct {
	Completed  int `json:"completed"`
	Total      int `json:"total"`
	Percentage int `json:"percentage"`
}

func (p Progress) clone() Progress {
	p.Completed = slices.Clone(p.Completed)
	p.Photos = slices.Clone(p.Photos)
	if p.StartTime != nil {
		t := *p.StartTime
		p.StartTime = &t
	}
	return p
}

// IsUnlocked reports whether location i can be completed: the first stop
// always can, every later stop once its predecessor is completed.
func (p Progress) IsUnlocked(i int) bool {
	if i < 0 || i >= len(p.Completed) {
		return false
	}
	return i == 0 || p.Completed[i-1]
}

func (p Progress) State(i int) LocationState {
	switch {
	case i >= 0 && i < len(p.Completed) && p.Completed[i]:
		return StateCompleted
	case p.IsUnlocked(i):
		return StateUnlocked
	default:
		return StateLocked
	}
}

// IsComplete is derived from the completed flags and never stored.
func (p Progress) IsComplete() bool {
	if len(p.Completed) == 0 {
		return false
	}
	for _, c := range p.Completed {
		if !c {
			return false
		}
	}
	return true
}

func (p Progress) Summary() Summary {
	s := Summary{Total: len(p.Completed)}
	for _, c := range p.Completed {
		if c {
			s.Completed++
		}
	}
	if s.Total > 0 {
		s.Percentage = int(math.Round(float64(s.Completed) / float64(s.Total) * 100))
	}
	return s
}

// Complete returns a copy of p with location index marked completed.
// A non-empty photo replaces any earlier one. CurrentIndex moves forward to
// the following stop and never moves back. StartTime is set on the first
// completion only.
func (p Progress) Complete(index int, photo string, now time.Time) (Progress, error) {
	if index < 0 || index >= len(p.Completed) {
		return p, ErrInvalidLocationIndex
	}
	if !p.IsUnlocked(index) {
		return p, ErrLocationLocked
	}

	next := p.clone()
	next.Completed[index] = true
	if photo != "" {
		next.Photos[index] = photo
	}
	next.CurrentIndex = max(next.CurrentIndex, min(index+1, len(next.Completed)-1))
	if next.StartTime == nil {
		t := now.UTC()
		next.StartTime = &t
	}
	return next, nil
}

// CompleteLocation applies Progress.Complete to the quest, substituting the
// location's hero image when no photo was ever captured.
func (q Quest) CompleteLocation(index int, photo string, now time.Time) (Quest, error) {
	progress, err := q.Progress.Complete(index, photo, now)
	if err != nil {
		return q, err
	}
	if progress.Photos[index] == "" && index < len(q.Locations) {
		progress.Photos[index] = q.Locations[index].HeroImage
	}
	q.Progress = progress
	return q, nil
}

// VisitFoodStop marks the quest's food stop as visited.
func (q Quest) VisitFoodStop() (Quest, error) {
	if q.FoodStop == nil {
		return q, ErrNoFoodStop
	}
	q.Progress = q.Progress.clone()
	q.Progress.FoodStopVisited = true
	return q, nil
}

// CurrentLocation returns the stop the user should head to next, or false
// once every stop is completed.
func (q Quest) CurrentLocation() (Location, bool) {
	i := q.Progress.CurrentIndex
	if i < 0 || i >= len(q.Locations) || q.Progress.IsComplete() {
		return Location{}, false
	}
	return q.Locations[i], true
}

// LocationStates lists the state of every stop in visit order.
func (q Quest) LocationStates() []LocationState {
	states := make([]LocationState, len(q.Locations))
	for i := range q.Locations {
		states[i] = q.Progress.State(i)
	}
	return states
}
