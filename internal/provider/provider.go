// Package provider turns a curation prompt into an itinerary selection by
// trying a fixed list of AI backends in order, ending with a deterministic
// pick that cannot fail.
package provider

import "context"

// Request carries one generation call. Indices in the resulting Selection
// are 1-based into the candidate lists the prompt described.
type Request struct {
	System     string
	User       string
	Candidates int
	FoodStops  int
	Stops      int
}

type Selection struct {
	LocationIndices []int
	FoodStopIndex   int
	Theme           string
	Description     string
	Source          string
}

// Provider is one link of the chain.
type Provider interface {
	Name() string
	Attempt(ctx context.Context, req Request) (Selection, error)
}
