// Package rank orders candidate locations by semantic similarity to the
// user's preferences using an embeddings endpoint.
package rank

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/yashy10/golden-gate-quest/internal/logger"
	"github.com/yashy10/golden-gate-quest/internal/quest"
)

// Embedder turns texts into vectors, one per input, in order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float64, error)
}

// HTTPEmbedder calls an OpenAI-compatible /embeddings endpoint.
type HTTPEmbedder struct {
	URL    string
	APIKey string
	Model  string
	Client *http.Client
}

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
}

func (e *HTTPEmbedder) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	payload, err := json.Marshal(embedRequest{Model: e.Model, Input: texts})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.URL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("request creation failed: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if e.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.APIKey)
	}

	client := e.Client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("network error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("embeddings error: status %d", resp.StatusCode)
	}

	var out embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("JSON decode error: %w", err)
	}
	if len(out.Data) != len(texts) {
		return nil, fmt.Errorf("embeddings error: got %d vectors for %d inputs", len(out.Data), len(texts))
	}

	vecs := make([][]float64, len(texts))
	for _, d := range out.Data {
		if d.Index < 0 || d.Index >= len(vecs) {
			return nil, errors.New("embeddings error: index out of range")
		}
		if vecs[d.Index] != nil {
			return nil, fmt.Errorf("embeddings error: duplicate index %d", d.Index)
		}
		if len(d.Embedding) == 0 {
			return nil, fmt.Errorf("embeddings error: empty vector at index %d", d.Index)
		}
		vecs[d.Index] = d.Embedding
	}
	return vecs, nil
}

// Cosine returns the cosine similarity of a and b, or 0 when either is a
// zero vector or the lengths differ.
func Cosine(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// Ranker reorders candidates by similarity to a preference query. Location
// vectors are cached by id.
type Ranker struct {
	embedder Embedder
	cache    *expirable.LRU[string, []float64]
}

func NewRanker(e Embedder, size int, ttl time.Duration) *Ranker {
	return &Ranker{
		embedder: e,
		cache:    expirable.NewLRU[string, []float64](size, nil, ttl),
	}
}

// Rank returns locs sorted by descending similarity to query. Ties keep
// their input order. Any embedding failure returns locs unchanged.
func (r *Ranker) Rank(ctx context.Context, query string, locs []quest.Location) []quest.Location {
	if len(locs) < 2 {
		return locs
	}
	log := logger.FromContext(ctx)

	var missing []string
	var missingIdx []int
	vecs := make([][]float64, len(locs))
	for i, l := range locs {
		if v, ok := r.cache.Get(l.ID); ok {
			vecs[i] = v
			continue
		}
		missing = append(missing, Document(l))
		missingIdx = append(missingIdx, i)
	}

	got, err := r.embedder.Embed(ctx, append([]string{query}, missing...))
	if err != nil {
		log.Warn("ranking skipped", "error", err)
		return locs
	}
	q := got[0]
	for j, i := range missingIdx {
		vecs[i] = got[j+1]
		r.cache.Add(locs[i].ID, got[j+1])
	}

	type scored struct {
		loc   quest.Location
		score float64
	}
	ranked := make([]scored, len(locs))
	for i, l := range locs {
		ranked[i] = scored{loc: l, score: Cosine(q, vecs[i])}
	}
	slices.SortStableFunc(ranked, func(a, b scored) int {
		switch {
		case a.score > b.score:
			return -1
		case a.score < b.score:
			return 1
		default:
			return 0
		}
	})

	out := make([]quest.Location, len(ranked))
	for i, s := range ranked {
		out[i] = s.loc
	}
	return out
}

// Document is the text embedded for a location.
func Document(l quest.Location) string {
	return strings.Join([]string{l.Name, l.Neighborhood, string(l.Category), l.ShortSummary}, ". ")
}

// Query is the text embedded for a user's preferences and categories.
func Query(prefs quest.UserPreferences, categories []quest.Category) string {
	names := make([]string, len(categories))
	for i, c := range categories {
		names[i] = string(c)
	}
	return "Interests: " + strings.Join(names, ", ") + "\n" + prefs.Describe()
}
