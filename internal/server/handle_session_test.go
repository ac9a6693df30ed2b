package server

import (
	"bufio"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yashy10/golden-gate-quest/internal/appstate"
	"github.com/yashy10/golden-gate-quest/internal/quest"
)

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	c.t = t
	c.mu.Unlock()
}

// gatedStore holds every Load until release is closed.
type gatedStore struct {
	*appstate.MemoryStore
	release chan struct{}
}

func (g *gatedStore) Load(ctx context.Context, id string) (appstate.State, bool, error) {
	<-g.release
	return g.MemoryStore.Load(ctx, id)
}

func createSession(t *testing.T, env *testEnv) SessionResponse {
	t.Helper()
	rec := do(t, env, http.MethodPost, "/api/sessions", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	return decode[SessionResponse](t, rec)
}

// startQuest creates a session with a generated iconic and waterfront quest.
func startQuest(t *testing.T, env *testEnv) (string, SessionResponse) {
	t.Helper()
	base := "/api/sessions/" + createSession(t, env).ID
	for _, c := range []quest.Category{quest.CategoryIconic, quest.CategoryWaterfront} {
		rec := do(t, env, http.MethodPost, base+"/categories/"+string(c)+"/toggle", nil)
		require.Equal(t, http.StatusOK, rec.Code)
	}
	rec := do(t, env, http.MethodPost, base+"/quest", nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return base, decode[SessionResponse](t, rec)
}

func TestSessionFlow(t *testing.T) {
	clock := &testClock{t: testNow}
	env := newTestServer(t, func(d *Deps) { d.Now = clock.Now })

	s := createSession(t, env)
	base := "/api/sessions/" + s.ID
	assert.True(t, s.Hydrated)
	assert.Equal(t, appstate.RouteSplash, s.Route)
	assert.Equal(t, 1, s.OnboardingStep)

	rec := do(t, env, http.MethodPost, base+"/splash", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, appstate.RouteOnboarding, decode[SessionResponse](t, rec).Route)

	rec = do(t, env, http.MethodPost, base+"/onboarding/next", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "unanswered step must not advance")

	answers := []quest.UserPreferences{
		{AgeRange: "18-30"},
		{Budget: "moderate"},
		{StartingPoint: &quest.StartingPoint{Type: quest.StartCurrent}},
		{TimeAvailable: "half-day", Mobility: "anywhere", GroupSize: "solo"},
	}
	for i, patch := range answers {
		rec = do(t, env, http.MethodPatch, base+"/preferences", patch)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		rec = do(t, env, http.MethodPost, base+"/onboarding/next", nil)
		require.Equal(t, http.StatusOK, rec.Code, "step %d", i+1)
	}
	resp := decode[SessionResponse](t, rec)
	assert.Equal(t, quest.OnboardingSteps, resp.OnboardingStep)
	assert.Equal(t, appstate.RouteCategories, resp.Route)

	rec = do(t, env, http.MethodPost, base+"/quest", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "no categories selected yet")

	rec = do(t, env, http.MethodPost, base+"/categories/nightlife/toggle", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	for _, c := range []quest.Category{quest.CategoryIconic, quest.CategoryWaterfront} {
		rec = do(t, env, http.MethodPost, base+"/categories/"+string(c)+"/toggle", nil)
		require.Equal(t, http.StatusOK, rec.Code)
	}
	assert.Equal(t, []quest.Category{quest.CategoryIconic, quest.CategoryWaterfront},
		decode[SessionResponse](t, rec).SelectedCategories)

	rec = do(t, env, http.MethodPost, base+"/quest", nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	resp = decode[SessionResponse](t, rec)
	assert.Equal(t, appstate.RouteItinerary, resp.Route)
	assert.True(t, resp.HasCompletedOnboarding)
	require.NotNil(t, resp.CurrentQuest)
	assert.Equal(t, "fallback", resp.CurrentQuest.AIProvider)
	assert.Equal(t, []quest.LocationState{
		quest.StateUnlocked, quest.StateLocked, quest.StateLocked, quest.StateLocked, quest.StateLocked,
	}, resp.States)
	require.NotNil(t, resp.Current)
	assert.Equal(t, resp.CurrentQuest.Locations[0].ID, resp.Current.ID)
	locations := resp.CurrentQuest.Locations

	rec = do(t, env, http.MethodPost, base+"/quest/locations/1/complete", nil)
	assert.Equal(t, http.StatusConflict, rec.Code, "second stop is still locked")
	rec = do(t, env, http.MethodPost, base+"/quest/locations/9/complete", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = do(t, env, http.MethodPost, base+"/quest/locations/first/complete", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	start := testNow.Add(10 * time.Minute)
	for i := range quest.StopsPerQuest {
		clock.Set(start.Add(time.Duration(i) * 15 * time.Minute))
		var body any
		if i == 0 {
			body = CompleteLocationRequest{Photo: "photos/first.jpg"}
		}
		rec = do(t, env, http.MethodPost, base+"/quest/locations/"+strconv.Itoa(i)+"/complete", body)
		require.Equal(t, http.StatusOK, rec.Code, "stop %d: %s", i, rec.Body.String())
	}
	resp = decode[SessionResponse](t, rec)
	assert.Equal(t, appstate.RouteAchievement, resp.Route)
	assert.Equal(t, quest.Summary{Completed: 5, Total: 5, Percentage: 100}, resp.Progress)
	assert.Nil(t, resp.Current)

	rec = do(t, env, http.MethodPost, base+"/quest/food-stop/visit", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[SessionResponse](t, rec).CurrentQuest.Progress.FoodStopVisited)

	clock.Set(start.Add(95 * time.Minute))
	rec = do(t, env, http.MethodGet, base+"/achievement", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	ach := decode[quest.Achievement](t, rec)
	assert.True(t, ach.Complete)
	assert.Equal(t, "1h 35m", ach.DurationLabel)
	assert.Equal(t, 5, ach.Locations)
	assert.Equal(t, 2, ach.Categories)
	require.Len(t, ach.Stops, 5)
	assert.Equal(t, "photos/first.jpg", ach.Stops[0].Photo)
	assert.Equal(t, locations[1].HeroImage, ach.Stops[1].Photo)

	rec = do(t, env, http.MethodDelete, base+"/quest", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp = decode[SessionResponse](t, rec)
	assert.Nil(t, resp.CurrentQuest)
	assert.True(t, resp.HasSeenSplash)
	assert.Equal(t, 1, resp.OnboardingStep)
	assert.Equal(t, appstate.RouteOnboarding, resp.Route)

	rec = do(t, env, http.MethodGet, base+"/achievement", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSessionSurvivesRestart(t *testing.T) {
	store := appstate.NewMemoryStore()
	first := newTestServer(t, func(d *Deps) { d.Sessions = appstate.NewManager(store, nil) })

	s := createSession(t, first)
	rec := do(t, first, http.MethodPost, "/api/sessions/"+s.ID+"/splash", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, first.sessions.Close())

	second := newTestServer(t, func(d *Deps) { d.Sessions = appstate.NewManager(store, nil) })
	rec = do(t, second, http.MethodPost, "/api/sessions/"+s.ID+"/onboarding/back", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[SessionResponse](t, rec)
	assert.True(t, resp.HasSeenSplash)
	assert.Equal(t, appstate.RouteOnboarding, resp.Route)
}

func TestSessionLoadingUntilHydrated(t *testing.T) {
	store := &gatedStore{MemoryStore: appstate.NewMemoryStore(), release: make(chan struct{})}
	env := newTestServer(t, func(d *Deps) { d.Sessions = appstate.NewManager(store, nil) })
	path := "/api/sessions/" + uuid.NewString()

	rec := do(t, env, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[SessionResponse](t, rec)
	assert.False(t, resp.Hydrated)
	assert.Equal(t, appstate.RouteLoading, resp.Route)

	close(store.release)
	rec = do(t, env, http.MethodPost, path+"/splash", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp = decode[SessionResponse](t, rec)
	assert.True(t, resp.Hydrated)
	assert.Equal(t, appstate.RouteOnboarding, resp.Route)
}

func TestSessionNotFound(t *testing.T) {
	env := newTestServer(t)

	rec := do(t, env, http.MethodGet, "/api/sessions/not-a-session", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "session not found", decode[ErrorResponse](t, rec).Error)
}

func TestSessionWithoutQuest(t *testing.T) {
	env := newTestServer(t)
	base := "/api/sessions/" + createSession(t, env).ID

	for _, path := range []string{"/quest/locations/0/complete", "/quest/food-stop/visit"} {
		rec := do(t, env, http.MethodPost, base+path, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
	}
}

func TestSessionEvents(t *testing.T) {
	env := newTestServer(t)
	ts := httptest.NewServer(env)
	t.Cleanup(ts.Close)

	s := createSession(t, env)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/sessions/"+s.ID+"/events", nil)
	require.NoError(t, err)
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, "text/event-stream", res.Header.Get("Content-Type"))

	events := bufio.NewScanner(res.Body)
	next := func() string {
		for events.Scan() {
			if data, ok := strings.CutPrefix(events.Text(), "data: "); ok {
				return data
			}
		}
		return ""
	}

	assert.Contains(t, next(), `"route":"splash"`)

	rec := do(t, env, http.MethodPost, "/api/sessions/"+s.ID+"/splash", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, next(), `"route":"onboarding"`)
}

func TestCompleteLocationWithChunkedEmptyBody(t *testing.T) {
	env := newTestServer(t)
	base, _ := startQuest(t, env)

	req := httptest.NewRequest(http.MethodPost, base+"/quest/locations/0/complete", io.NopCloser(strings.NewReader("")))
	req.ContentLength = -1
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	env.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decode[SessionResponse](t, rec)
	assert.Equal(t, quest.StateCompleted, resp.States[0])
	assert.Equal(t, resp.CurrentQuest.Locations[0].HeroImage, resp.CurrentQuest.Progress.Photos[0])
}

func TestCompleteLocationRejectsMalformedBody(t *testing.T) {
	env := newTestServer(t)
	base, _ := startQuest(t, env)

	req := httptest.NewRequest(http.MethodPost, base+"/quest/locations/0/complete", strings.NewReader("{"))
	rec := httptest.NewRecorder()
	env.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSessionHidesUnreachedContent(t *testing.T) {
	env := newTestServer(t)
	base, resp := startQuest(t, env)

	locs := resp.CurrentQuest.Locations
	require.Len(t, locs, quest.StopsPerQuest)
	assert.NotEmpty(t, locs[0].Hints, "the unlocked stop keeps its hints")
	assert.Empty(t, locs[0].FullDescription)
	assert.Empty(t, locs[0].HistoricImage)
	for _, l := range locs[1:] {
		assert.NotEmpty(t, l.Name)
		assert.NotEmpty(t, l.HeroImage)
		assert.Empty(t, l.Hints, l.ID)
		assert.Empty(t, l.FullDescription, l.ID)
		assert.Empty(t, l.HistoricImage, l.ID)
		assert.Empty(t, l.HistoricYear, l.ID)
	}
	require.NotNil(t, resp.Current)
	assert.Empty(t, resp.Current.FullDescription)

	rec := do(t, env, http.MethodPost, base+"/quest/locations/0/complete", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp = decode[SessionResponse](t, rec)
	locs = resp.CurrentQuest.Locations
	assert.NotEmpty(t, locs[0].FullDescription, "completion unlocks the history")
	assert.NotEmpty(t, locs[0].HistoricImage)
	assert.NotEmpty(t, locs[1].Hints)
	assert.Empty(t, locs[1].FullDescription)

	rec = do(t, env, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[SessionResponse](t, rec).CurrentQuest.Locations[2].Hints)

	s, err := env.sessions.Get(strings.TrimPrefix(base, "/api/sessions/"))
	require.NoError(t, err)
	stored := s.Snapshot().State.CurrentQuest.Locations
	assert.NotEmpty(t, stored[2].Hints, "session state keeps the full catalog rows")
	assert.NotEmpty(t, stored[2].FullDescription)
}
