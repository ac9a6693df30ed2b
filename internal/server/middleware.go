package server

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/yashy10/golden-gate-quest/internal/appstate"
)

type ctxKey int

const (
	ctxKeySession ctxKey = iota
)

const adminRealm = `Basic realm="quest-admin"`

// sessionMiddleware resolves {id} to a session. Unknown but well-formed ids
// get a session that hydrates from the store.
func sessionMiddleware(sessions *appstate.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s, err := sessions.Get(chi.URLParam(r, "id"))
			if err != nil {
				writeError(w, http.StatusNotFound, "session not found")
				return
			}

			ctx := context.WithValue(r.Context(), ctxKeySession, s)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func sessionFrom(r *http.Request) *appstate.Session {
	return r.Context().Value(ctxKeySession).(*appstate.Session)
}

// adminAuthMiddleware checks HTTP basic auth against a bcrypt hash. Any user
// name is accepted. With no hash configured every admin request is refused.
func adminAuthMiddleware(passwordHash string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if passwordHash == "" {
				writeError(w, http.StatusForbidden, "admin access disabled")
				return
			}

			_, password, ok := r.BasicAuth()
			if !ok || bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(password)) != nil {
				w.Header().Set("WWW-Authenticate", adminRealm)
				writeError(w, http.StatusUnauthorized, "not authenticated")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
