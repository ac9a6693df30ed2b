package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/yashy10/golden-gate-quest/internal/appstate"
	"github.com/yashy10/golden-gate-quest/internal/catalog"
	"github.com/yashy10/golden-gate-quest/internal/quest"
)

// SessionResponse is the snapshot returned by every session endpoint.
type SessionResponse struct {
	ID        string                `json:"id"`
	Hydrated  bool                  `json:"hydrated"`
	Route     appstate.Route        `json:"route"`
	Progress  quest.Summary         `json:"progress"`
	States    []quest.LocationState `json:"locationStates,omitempty"`
	Current   *quest.Location       `json:"currentLocation,omitempty"`
	appstate.State
}

// CompleteLocationRequest is the optional body of a completion.
type CompleteLocationRequest struct {
	Photo string `json:"photo,omitempty" validate:"omitempty,max=2048"`
}

func toSessionResponse(snap appstate.Snapshot) SessionResponse {
	resp := SessionResponse{
		ID:       snap.ID,
		Hydrated: snap.Hydrated,
		Route:    snap.Route,
		Progress: snap.Progress,
		State:    snap.State,
	}
	if snap.State.CurrentQuest != nil {
		// The snapshot's quest is shared with the pending save.
		q := *snap.State.CurrentQuest
		resp.States = q.LocationStates()
		q.Locations = make([]quest.Location, len(resp.States))
		for i, st := range resp.States {
			q.Locations[i] = visibleLocation(snap.State.CurrentQuest.Locations[i], st)
		}
		resp.CurrentQuest = &q
		if loc, ok := q.CurrentLocation(); ok {
			resp.Current = &loc
		}
	}
	return resp
}

// visibleLocation hides what a stop reveals before the player reaches it.
// Locked stops show no hints; historical content waits for completion.
func visibleLocation(l quest.Location, st quest.LocationState) quest.Location {
	switch st {
	case quest.StateLocked:
		l.Hints = nil
		fallthrough
	case quest.StateUnlocked:
		l.FullDescription = ""
		l.HistoricImage = ""
		l.HistoricYear = ""
	}
	return l
}

func handleCreateSession(sessions *appstate.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := sessions.Create(r.Context())
		if err != nil {
			writeFailure(r.Context(), w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toSessionResponse(s.Snapshot()))
	}
}

// handleGetSession never waits for hydration: an unhydrated session answers
// with route "loading".
func handleGetSession() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, toSessionResponse(sessionFrom(r).Snapshot()))
	}
}

// applyHandler runs a reducer against the request's session.
func applyHandler(reduce func(r *http.Request, st appstate.State) (appstate.State, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, err := sessionFrom(r).Apply(r.Context(), func(st appstate.State) (appstate.State, error) {
			return reduce(r, st)
		})
		if err != nil {
			writeFailure(r.Context(), w, err)
			return
		}
		writeJSON(w, http.StatusOK, toSessionResponse(snap))
	}
}

func handleSeeSplash() http.HandlerFunc {
	return applyHandler(func(_ *http.Request, st appstate.State) (appstate.State, error) {
		return appstate.SeeSplash(st), nil
	})
}

func handleUpdatePreferences() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var patch quest.UserPreferences
		if !decodeValid(w, r, &patch) {
			return
		}
		applyHandler(func(_ *http.Request, st appstate.State) (appstate.State, error) {
			return appstate.UpdatePreferences(st, patch), nil
		})(w, r)
	}
}

func handleNextStep() http.HandlerFunc {
	return applyHandler(func(_ *http.Request, st appstate.State) (appstate.State, error) {
		return appstate.NextStep(st)
	})
}

func handlePrevStep() http.HandlerFunc {
	return applyHandler(func(_ *http.Request, st appstate.State) (appstate.State, error) {
		return appstate.PrevStep(st), nil
	})
}

func handleToggleCategory() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := quest.Category(chi.URLParam(r, "category"))
		if !c.Valid() {
			writeError(w, http.StatusBadRequest, "unknown category")
			return
		}
		applyHandler(func(_ *http.Request, st appstate.State) (appstate.State, error) {
			return appstate.ToggleCategory(st, c), nil
		})(w, r)
	}
}

// handleGenerateQuest curates from the session's own answers. A generation
// that finishes after a newer one started, or after a reset, is discarded
// with 409.
func handleGenerateQuest(curator Curator, source catalog.Source) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s := sessionFrom(r)
		if err := s.WaitHydrated(r.Context()); err != nil {
			writeFailure(r.Context(), w, err)
			return
		}

		st := s.Snapshot().State
		if !quest.ValidSelection(st.SelectedCategories) {
			writeFailure(r.Context(), w, appstate.ErrCategorySelection)
			return
		}

		cat, err := source.Catalog(r.Context())
		if err != nil {
			writeFailure(r.Context(), w, err)
			return
		}

		token := s.BeginGeneration()
		q, err := curator.Curate(r.Context(), st.SelectedCategories, st.Preferences, cat)
		if err != nil {
			writeFailure(r.Context(), w, err)
			return
		}

		snap, err := s.CommitQuest(r.Context(), token, q)
		if err != nil {
			writeFailure(r.Context(), w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toSessionResponse(snap))
	}
}

func handleResetQuest() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, err := sessionFrom(r).Reset(r.Context())
		if err != nil {
			writeFailure(r.Context(), w, err)
			return
		}
		writeJSON(w, http.StatusOK, toSessionResponse(snap))
	}
}

func handleCompleteLocation(now func() time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		index, err := strconv.Atoi(chi.URLParam(r, "index"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "location index must be a number")
			return
		}

		var req CompleteLocationRequest
		if !decodeOptional(w, r, &req) {
			return
		}

		applyHandler(func(_ *http.Request, st appstate.State) (appstate.State, error) {
			return appstate.CompleteLocation(st, index, req.Photo, now())
		})(w, r)
	}
}

func handleVisitFoodStop() http.HandlerFunc {
	return applyHandler(func(_ *http.Request, st appstate.State) (appstate.State, error) {
		return appstate.VisitFoodStop(st)
	})
}

func handleAchievement(now func() time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s := sessionFrom(r)
		if err := s.WaitHydrated(r.Context()); err != nil {
			writeFailure(r.Context(), w, err)
			return
		}
		q := s.Snapshot().State.CurrentQuest
		if q == nil {
			writeFailure(r.Context(), w, quest.ErrNoCurrentQuest)
			return
		}
		writeJSON(w, http.StatusOK, q.Achievement(now()))
	}
}
