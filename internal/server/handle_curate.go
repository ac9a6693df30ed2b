package server

import (
	"net/http"

	"github.com/yashy10/golden-gate-quest/internal/catalog"
	"github.com/yashy10/golden-gate-quest/internal/quest"
)

// CurateRequest is the request body for POST /api/quests/curate.
type CurateRequest struct {
	Categories  []quest.Category      `json:"categories" validate:"min=2,max=3,unique,dive,category"`
	Preferences quest.UserPreferences `json:"preferences"`
	Options     int                   `json:"options,omitempty" validate:"omitempty,min=1,max=3"`
}

// CurateOptionsResponse is returned when more than one option is requested.
type CurateOptionsResponse struct {
	Options []quest.Quest `json:"options"`
}

// CategoryResponse is one entry of GET /api/categories.
type CategoryResponse struct {
	quest.CategoryInfo
	Locations int `json:"locations"`
}

func handleCurate(curator Curator, source catalog.Source) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CurateRequest
		if !decodeValid(w, r, &req) {
			return
		}

		cat, err := source.Catalog(r.Context())
		if err != nil {
			writeFailure(r.Context(), w, err)
			return
		}

		if req.Options > 1 {
			opts, err := curator.Options(r.Context(), req.Categories, req.Preferences, cat, req.Options)
			if err != nil {
				writeFailure(r.Context(), w, err)
				return
			}
			writeJSON(w, http.StatusOK, CurateOptionsResponse{Options: opts})
			return
		}

		q, err := curator.Curate(r.Context(), req.Categories, req.Preferences, cat)
		if err != nil {
			writeFailure(r.Context(), w, err)
			return
		}
		writeJSON(w, http.StatusOK, q)
	}
}

func handleCategories(source catalog.Source) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cat, err := source.Catalog(r.Context())
		if err != nil {
			writeFailure(r.Context(), w, err)
			return
		}

		counts := make(map[quest.Category]int)
		for _, c := range cat.Counts() {
			counts[c.Category] = c.Count
		}

		infos := quest.Categories()
		out := make([]CategoryResponse, len(infos))
		for i, info := range infos {
			out[i] = CategoryResponse{CategoryInfo: info, Locations: counts[info.Category]}
		}
		writeJSON(w, http.StatusOK, out)
	}
}
