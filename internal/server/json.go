package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/yashy10/golden-gate-quest/internal/appstate"
	"github.com/yashy10/golden-gate-quest/internal/catalog"
	"github.com/yashy10/golden-gate-quest/internal/logger"
	"github.com/yashy10/golden-gate-quest/internal/provider"
	"github.com/yashy10/golden-gate-quest/internal/quest"
	"github.com/yashy10/golden-gate-quest/internal/validation"
)

// ErrorResponse is returned for all error responses.
type ErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func readJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

// decodeValid reads the body into v and validates it. On failure it writes
// the 400 response and returns false.
func decodeValid(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := readJSON(r, v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return validBody(w, v)
}

// decodeOptional is decodeValid for endpoints whose body may be absent. An
// empty body, chunked or not, leaves v untouched.
func decodeOptional(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := readJSON(r, v); err != nil {
		if errors.Is(err, io.EOF) {
			return true
		}
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return validBody(w, v)
}

func validBody(w http.ResponseWriter, v any) bool {
	if err := validation.Struct(v); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:  "invalid request",
			Fields: validation.Format(err),
		})
		return false
	}
	return true
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// writeFailure maps err to its status and message. Unexpected errors are
// logged and reported as 500.
func writeFailure(ctx context.Context, w http.ResponseWriter, err error) {
	status, msg := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.FromContext(ctx).Error("request failed", "error", err)
	}
	writeJSON(w, status, ErrorResponse{Error: msg})
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, provider.ErrRateLimited):
		return http.StatusTooManyRequests, "Rate limit exceeded. Please try again in a moment."
	case errors.Is(err, provider.ErrBillingExhausted):
		return http.StatusPaymentRequired, "AI credits depleted. Please add credits to continue."
	case errors.Is(err, quest.ErrInsufficientCandidates),
		errors.Is(err, appstate.ErrCategorySelection),
		errors.Is(err, appstate.ErrStepIncomplete),
		errors.Is(err, quest.ErrInvalidLocationIndex):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, quest.ErrNoCurrentQuest),
		errors.Is(err, quest.ErrNoFoodStop),
		errors.Is(err, appstate.ErrInvalidSession):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, quest.ErrLocationLocked),
		errors.Is(err, appstate.ErrStaleGeneration):
		return http.StatusConflict, err.Error()
	case errors.Is(err, catalog.ErrInvalidCatalog):
		return http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, quest.ErrQuestGenerationFailed):
		return http.StatusInternalServerError, "Failed to generate quest"
	case errors.Is(err, provider.ErrNoImage),
		errors.Is(err, provider.ErrProviderUnreachable),
		errors.Is(err, provider.ErrMalformedResponse):
		return http.StatusBadGateway, "Failed to generate aged photo"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, "request cancelled"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}
