package curator_test

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yashy10/golden-gate-quest/internal/catalog"
	"github.com/yashy10/golden-gate-quest/internal/curator"
	"github.com/yashy10/golden-gate-quest/internal/provider"
	"github.com/yashy10/golden-gate-quest/internal/quest"
)

// stubGenerator records requests and replies with a fixed selection.
type stubGenerator struct {
	mu   sync.Mutex
	reqs []provider.Request
	sel  provider.Selection
	err  error
}

func (s *stubGenerator) Generate(_ context.Context, req provider.Request) (provider.Selection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reqs = append(s.reqs, req)
	return s.sel, s.err
}

func (s *stubGenerator) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.reqs)
}

func testCatalog() catalog.Catalog {
	var c catalog.Catalog
	add := func(cat quest.Category, n int) {
		for i := range n {
			id := fmt.Sprintf("%s-%d", cat, i+1)
			c.Locations = append(c.Locations, quest.Location{
				ID:           id,
				Name:         "Place " + id,
				Neighborhood: "Somewhere",
				Category:     cat,
				HeroImage:    "/img/" + id + ".jpg",
				ShortSummary: "About " + id,
			})
		}
	}
	add(quest.CategoryIconic, 3)
	add(quest.CategoryParks, 2)
	add(quest.CategoryWaterfront, 3)
	c.FoodStops = []quest.FoodStop{
		{ID: "cheap", Name: "Cheap Eats", PriceRange: quest.PriceLow},
		{ID: "mid", Name: "Middle Bistro", PriceRange: quest.PriceMedium},
		{ID: "fancy", Name: "Fancy Place", PriceRange: quest.PriceHigh},
	}
	return c
}

var fixedNow = time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

func newCurator(gen curator.Generator, opts ...curator.Option) *curator.Curator {
	opts = append([]curator.Option{
		curator.WithClock(func() time.Time { return fixedNow }),
		curator.WithIDs(func() string { return "quest-test" }),
	}, opts...)
	return curator.New(gen, opts...)
}

func locationIDs(q quest.Quest) []string {
	out := make([]string, len(q.Locations))
	for i, l := range q.Locations {
		out[i] = l.ID
	}
	return out
}

func TestCurateInsufficientCandidates(t *testing.T) {
	gen := &stubGenerator{}
	c := newCurator(gen)

	_, err := c.Curate(context.Background(), []quest.Category{quest.CategoryParks, quest.CategoryArtsCulture}, quest.UserPreferences{}, testCatalog())
	require.ErrorIs(t, err, quest.ErrInsufficientCandidates)
	assert.Zero(t, gen.calls(), "no provider is called when candidates are short")
}

func TestCurate(t *testing.T) {
	gen := &stubGenerator{sel: provider.Selection{
		LocationIndices: []int{6, 1, 4, 2, 5},
		FoodStopIndex:   2,
		Theme:           "Bay and Bridges",
		Description:     "Water and icons.",
		Source:          "openai",
	}}
	c := newCurator(gen)

	cats := []quest.Category{quest.CategoryIconic, quest.CategoryWaterfront}
	q, err := c.Curate(context.Background(), cats, quest.UserPreferences{Budget: "moderate"}, testCatalog())
	require.NoError(t, err)

	assert.Equal(t, "quest-test", q.ID)
	assert.Equal(t, fixedNow, q.CreatedAt)
	assert.Equal(t, cats, q.Categories)
	assert.Equal(t, "Bay and Bridges", q.Theme)
	assert.Equal(t, "openai", q.AIProvider)
	assert.Equal(t, []string{"waterfront-3", "iconic-1", "waterfront-1", "iconic-2", "waterfront-2"}, locationIDs(q))
	require.NotNil(t, q.FoodStop)
	assert.Equal(t, "mid", q.FoodStop.ID)
	assert.Equal(t, quest.NewProgress(5), q.Progress)

	// Preferences are finalized before they reach the prompt and the quest.
	assert.Equal(t, "18-30", q.Preferences.AgeRange)
	assert.Equal(t, "moderate", q.Preferences.Budget)

	require.Len(t, gen.reqs, 1)
	req := gen.reqs[0]
	assert.Equal(t, 6, req.Candidates)
	assert.Equal(t, 2, req.FoodStops, "moderate budget offers $ and $$ only")
	assert.Equal(t, quest.StopsPerQuest, req.Stops)
	assert.Contains(t, req.User, "1. Place iconic-1 (Somewhere) - iconic: About iconic-1")
	assert.Contains(t, req.User, "Selected Categories: iconic, waterfront")
	assert.Contains(t, req.System, "select exactly 5 locations")
}

func TestCurateRepairsSelection(t *testing.T) {
	gen := &stubGenerator{sel: provider.Selection{
		LocationIndices: []int{1, 1, 1, 1, 1},
		FoodStopIndex:   7,
		Source:          "dgx",
	}}
	c := newCurator(gen)

	q, err := c.Curate(context.Background(), []quest.Category{quest.CategoryIconic, quest.CategoryWaterfront}, quest.UserPreferences{}, testCatalog())
	require.NoError(t, err)

	assert.Equal(t, []string{"iconic-1", "iconic-2", "iconic-3", "waterfront-1", "waterfront-2"}, locationIDs(q))
	require.NotNil(t, q.FoodStop)
	assert.Equal(t, "cheap", q.FoodStop.ID)
	assert.NotEmpty(t, q.Theme, "a missing theme gets a default")
	assert.NotEmpty(t, q.Description)
}

func TestCurateRandomFillStaysDistinct(t *testing.T) {
	gen := &stubGenerator{sel: provider.Selection{LocationIndices: []int{2, 2}, FoodStopIndex: 0, Source: "dgx"}}
	c := newCurator(gen, curator.WithRandomFill(rand.New(rand.NewPCG(1, 2))))

	for range 20 {
		q, err := c.Curate(context.Background(), []quest.Category{quest.CategoryIconic, quest.CategoryWaterfront}, quest.UserPreferences{}, testCatalog())
		require.NoError(t, err)
		ids := locationIDs(q)
		require.Len(t, ids, 5)
		assert.Equal(t, "iconic-2", ids[0])
		seen := map[string]bool{}
		for _, id := range ids {
			assert.False(t, seen[id], "duplicate %s in %v", id, ids)
			seen[id] = true
		}
		assert.NotNil(t, q.FoodStop)
	}
}

func TestCurateNoFoodStops(t *testing.T) {
	cat := testCatalog()
	cat.FoodStops = nil
	gen := &stubGenerator{sel: provider.Selection{LocationIndices: []int{1, 2, 3, 4, 5}, FoodStopIndex: 1, Source: "openai"}}

	q, err := newCurator(gen).Curate(context.Background(), []quest.Category{quest.CategoryIconic, quest.CategoryWaterfront}, quest.UserPreferences{}, cat)
	require.NoError(t, err)
	assert.Nil(t, q.FoodStop)
}

func TestCurateGeneratorError(t *testing.T) {
	for _, want := range []error{provider.ErrRateLimited, provider.ErrBillingExhausted, quest.ErrQuestGenerationFailed} {
		t.Run(want.Error(), func(t *testing.T) {
			gen := &stubGenerator{err: fmt.Errorf("upstream: %w", want)}
			_, err := newCurator(gen).Curate(context.Background(), []quest.Category{quest.CategoryIconic, quest.CategoryWaterfront}, quest.UserPreferences{}, testCatalog())
			assert.ErrorIs(t, err, want)
		})
	}
}

// reverseRanker puts the last candidate first.
type reverseRanker struct{ queries []string }

func (r *reverseRanker) Rank(_ context.Context, query string, locs []quest.Location) []quest.Location {
	r.queries = append(r.queries, query)
	out := make([]quest.Location, len(locs))
	for i, l := range locs {
		out[len(locs)-1-i] = l
	}
	return out
}

func TestCurateWithRanker(t *testing.T) {
	gen := &stubGenerator{sel: provider.Selection{LocationIndices: []int{1, 2, 3, 4, 5}, FoodStopIndex: 1, Source: "openai"}}
	r := &reverseRanker{}
	c := newCurator(gen, curator.WithRanker(r))

	q, err := c.Curate(context.Background(), []quest.Category{quest.CategoryIconic, quest.CategoryWaterfront}, quest.UserPreferences{}, testCatalog())
	require.NoError(t, err)
	assert.Equal(t, "waterfront-3", q.Locations[0].ID)
	require.Len(t, r.queries, 1)
	assert.Contains(t, r.queries[0], "iconic, waterfront")
	assert.True(t, strings.HasPrefix(gen.reqs[0].User, "Create a personalized quest"))
	assert.Contains(t, gen.reqs[0].User, "1. Place waterfront-3")
}

func TestOptions(t *testing.T) {
	gen := &stubGenerator{sel: provider.Selection{LocationIndices: []int{1, 2, 3, 4, 5}, FoodStopIndex: 1, Source: "openai"}}
	c := newCurator(gen)

	qs, err := c.Options(context.Background(), []quest.Category{quest.CategoryIconic, quest.CategoryWaterfront}, quest.UserPreferences{}, testCatalog(), 3)
	require.NoError(t, err)
	assert.Len(t, qs, 3)
	assert.Equal(t, 3, gen.calls())
	for _, r := range gen.reqs {
		assert.Contains(t, r.User, "alternative option")
	}

	gen.err = errors.New("boom")
	_, err = c.Options(context.Background(), []quest.Category{quest.CategoryIconic, quest.CategoryWaterfront}, quest.UserPreferences{}, testCatalog(), 2)
	assert.Error(t, err)
}

// End to end through the real chain: every remote provider is down, so the
// deterministic fallback produces the quest.
func TestCurateFallsBackToDeterministicPick(t *testing.T) {
	down := &failingProvider{}
	chain := provider.NewChain(time.Second, down, provider.Fallback{})
	c := newCurator(chain)

	prefs := quest.UserPreferences{
		AgeRange:      "18-30",
		Budget:        "moderate",
		TimeAvailable: "half-day",
		Mobility:      "anywhere",
		GroupSize:     "solo",
	}
	q, err := c.Curate(context.Background(), []quest.Category{quest.CategoryIconic, quest.CategoryWaterfront}, prefs, testCatalog())
	require.NoError(t, err)

	assert.Equal(t, "fallback", q.AIProvider)
	assert.Equal(t, []string{"iconic-1", "iconic-2", "iconic-3", "waterfront-1", "waterfront-2"}, locationIDs(q))
	require.NotNil(t, q.FoodStop)
	assert.Equal(t, "cheap", q.FoodStop.ID)
	assert.Equal(t, 1, down.calls)
}

type failingProvider struct{ calls int }

func (f *failingProvider) Name() string { return "openai" }

func (f *failingProvider) Attempt(context.Context, provider.Request) (provider.Selection, error) {
	f.calls++
	return provider.Selection{}, provider.ErrProviderUnreachable
}
