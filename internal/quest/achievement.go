package quest

import (
	"fmt"
	"time"
)

type Achievement struct {
	Title         string         `json:"title"`
	Complete      bool           `json:"complete"`
	Locations     int            `json:"locations"`
	Categories    int            `json:"categories"`
	Duration      time.Duration  `json:"-"`
	DurationLabel string         `json:"duration"`
	Stops         []AchievedStop `json:"stops"`
}

type AchievedStop struct {
	Name         string `json:"name"`
	Neighborhood string `json:"neighborhood"`
	Photo        string `json:"photo"`
}

// Achievement summarizes a quest for the closing screen. Duration runs from
// the first completion, or from quest creation if nothing was completed yet.
func (q Quest) Achievement(now time.Time) Achievement {
	start := q.CreatedAt
	if q.Progress.StartTime != nil {
		start = *q.Progress.StartTime
	}
	d := max(now.Sub(start).Round(time.Minute), 0)

	a := Achievement{
		Title:         "SF Explorer",
		Complete:      q.Progress.IsComplete(),
		Locations:     len(q.Locations),
		Categories:    len(q.Categories),
		Duration:      d,
		DurationLabel: formatDuration(d),
		Stops:         make([]AchievedStop, len(q.Locations)),
	}
	for i, loc := range q.Locations {
		photo := loc.HeroImage
		if i < len(q.Progress.Photos) && q.Progress.Photos[i] != "" {
			photo = q.Progress.Photos[i]
		}
		a.Stops[i] = AchievedStop{Name: loc.Name, Neighborhood: loc.Neighborhood, Photo: photo}
	}
	return a
}

func formatDuration(d time.Duration) string {
	minutes := int(d / time.Minute)
	if h := minutes / 60; h > 0 {
		return fmt.Sprintf("%dh %dm", h, minutes%60)
	}
	return fmt.Sprintf("%dm", minutes)
}
