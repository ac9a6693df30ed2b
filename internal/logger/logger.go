// Package logger builds the service's slog logger and carries request ids
// through contexts.
package logger

import (
	"context"
	"io"
	"log/slog"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

type Config struct {
	Level       slog.Level
	Service     string
	Version     string
	Environment string
}

// New returns a JSON logger tagged with the service attributes and installs
// it as the slog default.
func New(w io.Writer, cfg Config) *slog.Logger {
	l := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: cfg.Level})).With(
		"service", cfg.Service,
		"version", cfg.Version,
		"environment", cfg.Environment,
	)
	slog.SetDefault(l)
	return l
}

type ctxKey struct{}

func GenerateRequestID() string {
	return uuid.NewString()
}

// WithRequestID attaches a request id to ctx for code paths that do not pass
// through the HTTP middleware, such as CLI commands.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

func RequestIDFromContext(ctx context.Context) (string, bool) {
	if id, ok := ctx.Value(ctxKey{}).(string); ok && id != "" {
		return id, true
	}
	if id := middleware.GetReqID(ctx); id != "" {
		return id, true
	}
	return "", false
}

// FromContext returns the default logger with request_id attached when ctx
// carries one.
func FromContext(ctx context.Context) *slog.Logger {
	if id, ok := RequestIDFromContext(ctx); ok {
		return slog.Default().With("request_id", id)
	}
	return slog.Default()
}
