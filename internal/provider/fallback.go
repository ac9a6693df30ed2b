package provider

import "context"

// Fallback always succeeds with the first candidates in list order.
type Fallback struct{}

func (Fallback) Name() string { return "fallback" }

func (Fallback) Attempt(_ context.Context, req Request) (Selection, error) {
	n := min(req.Stops, req.Candidates)
	if req.Stops <= 0 {
		n = req.Candidates
	}
	indices := make([]int, n)
	for i := range indices {
		indices[i] = i + 1
	}
	return Selection{
		LocationIndices: indices,
		FoodStopIndex:   1,
		Theme:           "San Francisco Highlights",
		Description:     "A walk through some of the city's best-loved places, picked from your favorite categories.",
	}, nil
}
