// Package curator builds quests: it filters the catalog by the chosen
// categories, asks the provider chain for a selection and repairs whatever
// comes back into exactly five distinct stops and one food stop.
package curator

import (
	"context"
	"fmt"
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/yashy10/golden-gate-quest/internal/catalog"
	"github.com/yashy10/golden-gate-quest/internal/logger"
	"github.com/yashy10/golden-gate-quest/internal/metrics"
	"github.com/yashy10/golden-gate-quest/internal/provider"
	"github.com/yashy10/golden-gate-quest/internal/quest"
	"github.com/yashy10/golden-gate-quest/internal/rank"
)

// Generator produces a raw selection for a prompt. *provider.Chain is the
// production implementation.
type Generator interface {
	Generate(ctx context.Context, req provider.Request) (provider.Selection, error)
}

type Ranker interface {
	Rank(ctx context.Context, query string, locs []quest.Location) []quest.Location
}

// MaxRankedCandidates caps the candidate list once it has been ranked.
const MaxRankedCandidates = 20

const (
	defaultTheme       = "Your San Francisco Quest"
	defaultDescription = "A hand-picked walk through the places that match your interests."
)

type Curator struct {
	gen    Generator
	ranker Ranker
	now    func() time.Time
	newID  func() string

	mu  sync.Mutex
	rng *rand.Rand
}

type Option func(*Curator)

// WithRanker orders candidates by similarity before prompting.
func WithRanker(r Ranker) Option {
	return func(c *Curator) { c.ranker = r }
}

// WithRandomFill makes repairs pick replacements at random instead of
// taking the first unused candidate.
func WithRandomFill(r *rand.Rand) Option {
	return func(c *Curator) { c.rng = r }
}

func WithClock(now func() time.Time) Option {
	return func(c *Curator) { c.now = now }
}

func WithIDs(newID func() string) Option {
	return func(c *Curator) { c.newID = newID }
}

func New(gen Generator, opts ...Option) *Curator {
	c := &Curator{
		gen:   gen,
		now:   time.Now,
		newID: func() string { return "quest-" + uuid.NewString() },
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Curate builds one quest. It fails with quest.ErrInsufficientCandidates,
// before any provider is called, when fewer than five locations match.
func (c *Curator) Curate(ctx context.Context, categories []quest.Category, prefs quest.UserPreferences, cat catalog.Catalog) (quest.Quest, error) {
	return c.curate(ctx, categories, prefs, cat, "")
}

// Options builds n alternative quests for the same inputs concurrently.
func (c *Curator) Options(ctx context.Context, categories []quest.Category, prefs quest.UserPreferences, cat catalog.Catalog, n int) ([]quest.Quest, error) {
	if n <= 1 {
		q, err := c.Curate(ctx, categories, prefs, cat)
		if err != nil {
			return nil, err
		}
		return []quest.Quest{q}, nil
	}

	out := make([]quest.Quest, n)
	g, gctx := errgroup.WithContext(ctx)
	for i := range n {
		hint := fmt.Sprintf("This is alternative option %d of %d. Give it its own theme and a different mix of stops from the other options.", i+1, n)
		g.Go(func() error {
			q, err := c.curate(gctx, categories, prefs, cat, hint)
			if err != nil {
				return err
			}
			out[i] = q
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Curator) curate(ctx context.Context, categories []quest.Category, prefs quest.UserPreferences, cat catalog.Catalog, hint string) (quest.Quest, error) {
	log := logger.FromContext(ctx)

	candidates := cat.LocationsIn(categories)
	if len(candidates) < quest.StopsPerQuest {
		return quest.Quest{}, fmt.Errorf("%w: %d found, %d needed", quest.ErrInsufficientCandidates, len(candidates), quest.StopsPerQuest)
	}

	prefs = prefs.Finalize()
	if c.ranker != nil {
		candidates = c.ranker.Rank(ctx, rank.Query(prefs, categories), candidates)
		if len(candidates) > MaxRankedCandidates {
			candidates = candidates[:MaxRankedCandidates]
		}
	}
	foods := cat.FoodStopsFor(prefs.Budget)

	prompt := BuildPrompt(prefs, categories, candidates, foods)
	if hint != "" {
		prompt.User += "\n\n" + hint
	}

	sel, err := c.gen.Generate(ctx, provider.Request{
		System:     prompt.System,
		User:       prompt.User,
		Candidates: len(candidates),
		FoodStops:  len(foods),
		Stops:      quest.StopsPerQuest,
	})
	if err != nil {
		return quest.Quest{}, err
	}

	picked, repaired := resolveIndices(sel.LocationIndices, len(candidates), quest.StopsPerQuest, c.picker())
	if repaired > 0 {
		metrics.IndexRepairs.WithLabelValues("location").Add(float64(repaired))
		log.Warn("repaired location indices", "source", sel.Source, "indices", sel.LocationIndices, "repaired", repaired)
	}
	locations := make([]quest.Location, len(picked))
	for i, idx := range picked {
		locations[i] = candidates[idx]
	}

	food, foodRepaired := resolveFoodStop(sel.FoodStopIndex, foods, c.picker())
	if foodRepaired {
		metrics.IndexRepairs.WithLabelValues("food_stop").Inc()
		log.Warn("repaired food stop index", "source", sel.Source, "index", sel.FoodStopIndex)
	}

	theme, description := sel.Theme, sel.Description
	if theme == "" {
		theme = defaultTheme
	}
	if description == "" {
		description = defaultDescription
	}

	metrics.QuestsGenerated.WithLabelValues(sel.Source).Inc()
	q := quest.Quest{
		ID:          c.newID(),
		CreatedAt:   c.now().UTC(),
		Preferences: prefs,
		Categories:  slices.Clone(categories),
		Theme:       theme,
		Description: description,
		Locations:   locations,
		FoodStop:    food,
		AIProvider:  sel.Source,
		Progress:    quest.NewProgress(len(locations)),
	}
	log.Info("quest curated", "quest_id", q.ID, "source", q.AIProvider, "theme", q.Theme)
	return q, nil
}

func (c *Curator) picker() Picker {
	if c.rng == nil {
		return nil
	}
	return func(n int) int {
		c.mu.Lock()
		defer c.mu.Unlock()
		return c.rng.IntN(n)
	}
}
