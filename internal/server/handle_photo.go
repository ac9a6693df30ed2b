package server

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/yashy10/golden-gate-quest/internal/quest"
)

// maxPhotoBody bounds an age-photo upload, base64 overhead included.
const maxPhotoBody = 12 << 20

// AgePhotoRequest carries a capture as base64 or a data: URL.
type AgePhotoRequest struct {
	Image       string `json:"imageBase64" validate:"required"`
	DecadesBack int    `json:"decadesBack,omitempty" validate:"omitempty,min=1,max=3"`
}

// handleAgePhoto restyles a capture of a reached stop. The quest state is
// left alone; the client decides whether to keep the result.
func handleAgePhoto(ager PhotoAger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ager == nil {
			writeError(w, http.StatusServiceUnavailable, "photo aging is not configured")
			return
		}
		index, err := strconv.Atoi(chi.URLParam(r, "index"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "location index must be a number")
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxPhotoBody)
		var req AgePhotoRequest
		if !decodeValid(w, r, &req) {
			return
		}
		if req.DecadesBack == 0 {
			req.DecadesBack = 2
		}

		s := sessionFrom(r)
		if err := s.WaitHydrated(r.Context()); err != nil {
			writeFailure(r.Context(), w, err)
			return
		}
		q := s.Snapshot().State.CurrentQuest
		switch {
		case q == nil:
			err = quest.ErrNoCurrentQuest
		case index < 0 || index >= len(q.Locations):
			err = quest.ErrInvalidLocationIndex
		case q.Progress.State(index) == quest.StateLocked:
			err = quest.ErrLocationLocked
		}
		if err != nil {
			writeFailure(r.Context(), w, err)
			return
		}

		aged, err := ager.Age(r.Context(), req.Image, req.DecadesBack)
		if err != nil {
			writeFailure(r.Context(), w, err)
			return
		}
		writeJSON(w, http.StatusOK, aged)
	}
}
