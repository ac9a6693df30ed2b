package server

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"

	"github.com/yashy10/golden-gate-quest/internal/catalog"
	"github.com/yashy10/golden-gate-quest/internal/provider"
	"github.com/yashy10/golden-gate-quest/internal/quest"
)

// HealthResponse documents GET /healthz.
type HealthResponse struct {
	Status string `json:"status"`
	Checks map[string]struct {
		Status string `json:"status"`
		Error  string `json:"error,omitempty"`
	} `json:"checks"`
}

type sessionPath struct {
	ID string `path:"id"`
}

type togglePath struct {
	ID       string `path:"id"`
	Category string `path:"category"`
}

type completeRequest struct {
	ID    string `path:"id"`
	Index int    `path:"index"`
	CompleteLocationRequest
}

type agePhotoRequest struct {
	ID    string `path:"id"`
	Index int    `path:"index"`
	AgePhotoRequest
}

type preferencesRequest struct {
	ID string `path:"id"`
	quest.UserPreferences
}

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "Golden Gate Quest API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("Curates San Francisco treasure-hunt quests and tracks their progress.")

	add := func(method, path, summary, desc string, req any, resps ...any) {
		op, _ := r.NewOperationContext(method, path)
		op.SetSummary(summary)
		op.SetDescription(desc)
		if req != nil {
			op.AddReqStructure(req)
		}
		for i := 0; i+1 < len(resps); i += 2 {
			op.AddRespStructure(resps[i+1], openapi.WithHTTPStatus(resps[i].(int)))
		}
		_ = r.AddOperation(op)
	}

	add(http.MethodGet, "/healthz", "Health check",
		"Returns the health status of backend dependencies.", nil,
		http.StatusOK, HealthResponse{},
		http.StatusServiceUnavailable, HealthResponse{})

	add(http.MethodGet, "/api/categories", "List categories",
		"Returns every category with its display text and location count.", nil,
		http.StatusOK, []CategoryResponse{})

	add(http.MethodPost, "/api/quests/curate", "Curate a quest",
		"Builds a five-stop quest with one food stop. With options > 1 returns that many alternatives.",
		CurateRequest{},
		http.StatusOK, quest.Quest{},
		http.StatusBadRequest, ErrorResponse{},
		http.StatusPaymentRequired, ErrorResponse{},
		http.StatusTooManyRequests, ErrorResponse{},
		http.StatusInternalServerError, ErrorResponse{})

	add(http.MethodPost, "/api/sessions", "Create session",
		"Starts a new session with fresh state.", nil,
		http.StatusCreated, SessionResponse{})

	add(http.MethodGet, "/api/sessions/{id}", "Get session",
		"Returns the session snapshot. Route is \"loading\" until the stored state has been read.",
		sessionPath{},
		http.StatusOK, SessionResponse{},
		http.StatusNotFound, ErrorResponse{})

	add(http.MethodGet, "/api/sessions/{id}/events", "Session event stream",
		"Server-Sent Events stream of state changes for the session.", sessionPath{},
		http.StatusOK, nil)

	add(http.MethodPost, "/api/sessions/{id}/splash", "Mark splash seen", "", sessionPath{},
		http.StatusOK, SessionResponse{})

	add(http.MethodPatch, "/api/sessions/{id}/preferences", "Update preferences",
		"Merges answered onboarding fields into the stored preferences.", preferencesRequest{},
		http.StatusOK, SessionResponse{},
		http.StatusBadRequest, ErrorResponse{})

	add(http.MethodPost, "/api/sessions/{id}/onboarding/next", "Next onboarding step",
		"Advances when the current step is answered.", sessionPath{},
		http.StatusOK, SessionResponse{},
		http.StatusBadRequest, ErrorResponse{})

	add(http.MethodPost, "/api/sessions/{id}/onboarding/back", "Previous onboarding step", "", sessionPath{},
		http.StatusOK, SessionResponse{})

	add(http.MethodPost, "/api/sessions/{id}/categories/{category}/toggle", "Toggle category",
		"Selects or deselects a category. A fourth selection is ignored.", togglePath{},
		http.StatusOK, SessionResponse{},
		http.StatusBadRequest, ErrorResponse{})

	add(http.MethodPost, "/api/sessions/{id}/quest", "Generate quest",
		"Curates a quest from the session's preferences and categories and makes it current.", sessionPath{},
		http.StatusCreated, SessionResponse{},
		http.StatusBadRequest, ErrorResponse{},
		http.StatusConflict, ErrorResponse{},
		http.StatusPaymentRequired, ErrorResponse{},
		http.StatusTooManyRequests, ErrorResponse{})

	add(http.MethodDelete, "/api/sessions/{id}/quest", "Reset",
		"Drops the current quest and onboarding answers.", sessionPath{},
		http.StatusOK, SessionResponse{})

	add(http.MethodPost, "/api/sessions/{id}/quest/locations/{index}/complete", "Complete location",
		"Marks a location completed with an optional photo reference.", completeRequest{},
		http.StatusOK, SessionResponse{},
		http.StatusBadRequest, ErrorResponse{},
		http.StatusNotFound, ErrorResponse{},
		http.StatusConflict, ErrorResponse{})

	add(http.MethodPost, "/api/sessions/{id}/quest/locations/{index}/age-photo", "Age photo",
		"Restyles a capture of an unlocked or completed stop as a vintage photo, 1 to 3 decades back.",
		agePhotoRequest{},
		http.StatusOK, provider.AgedPhoto{},
		http.StatusBadRequest, ErrorResponse{},
		http.StatusConflict, ErrorResponse{},
		http.StatusTooManyRequests, ErrorResponse{},
		http.StatusBadGateway, ErrorResponse{},
		http.StatusServiceUnavailable, ErrorResponse{})

	add(http.MethodPost, "/api/sessions/{id}/quest/food-stop/visit", "Visit food stop", "", sessionPath{},
		http.StatusOK, SessionResponse{},
		http.StatusNotFound, ErrorResponse{})

	add(http.MethodGet, "/api/sessions/{id}/achievement", "Achievement",
		"Summarizes the current quest.", sessionPath{},
		http.StatusOK, quest.Achievement{},
		http.StatusNotFound, ErrorResponse{})

	add(http.MethodPut, "/api/admin/catalog/locations", "Import locations",
		"Validates and upserts locations. Requires basic auth.", []quest.Location{},
		http.StatusOK, catalog.ImportResult{},
		http.StatusUnauthorized, ErrorResponse{},
		http.StatusUnprocessableEntity, CatalogImportError{})

	add(http.MethodPut, "/api/admin/catalog/food-stops", "Import food stops",
		"Validates and upserts food stops. Requires basic auth.", []quest.FoodStop{},
		http.StatusOK, catalog.ImportResult{},
		http.StatusUnauthorized, ErrorResponse{},
		http.StatusUnprocessableEntity, CatalogImportError{})

	return r.Spec
}

func handleOpenAPI() http.HandlerFunc {
	spec := newOpenAPISpec()
	data, _ := json.MarshalIndent(spec, "", "  ")

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}
