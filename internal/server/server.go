package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/yashy10/golden-gate-quest/internal/appstate"
	"github.com/yashy10/golden-gate-quest/internal/catalog"
	"github.com/yashy10/golden-gate-quest/internal/metrics"
	"github.com/yashy10/golden-gate-quest/internal/provider"
	"github.com/yashy10/golden-gate-quest/internal/quest"
)

// Curator builds quests from a catalog snapshot.
type Curator interface {
	Curate(ctx context.Context, categories []quest.Category, prefs quest.UserPreferences, cat catalog.Catalog) (quest.Quest, error)
	Options(ctx context.Context, categories []quest.Category, prefs quest.UserPreferences, cat catalog.Catalog, n int) ([]quest.Quest, error)
}

// CatalogImporter validates and stores uploaded catalog rows.
type CatalogImporter interface {
	Import(ctx context.Context, c catalog.Catalog) (catalog.ImportResult, error)
}

// PhotoAger restyles a captured photo as if taken decades ago.
type PhotoAger interface {
	Age(ctx context.Context, image string, decadesBack int) (provider.AgedPhoto, error)
}

// Deps are the services the HTTP layer routes to.
type Deps struct {
	Curator           Curator
	Catalog           catalog.Source
	Importer          CatalogImporter
	Sessions          *appstate.Manager
	Broker            *Broker
	PhotoAger         PhotoAger
	AdminPasswordHash string
	SPADir            string
	Now               func() time.Time
}

type Server struct {
	srv    *http.Server
	logger *slog.Logger
}

// New builds the router. mount, when set, registers extra routes such as
// the health check.
func New(addr string, logger *slog.Logger, deps Deps, mount func(r chi.Router)) *Server {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(newStructuredLogger(logger))
	r.Use(metrics.Middleware)
	r.Use(middleware.Recoverer)

	if mount != nil {
		mount(r)
	}
	addRoutes(r, logger, deps)

	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           r,
			ReadHeaderTimeout: 5 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		logger: logger,
	}
}

func (s *Server) Handler() http.Handler { return s.srv.Handler }

func (s *Server) Run(_ context.Context) error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.srv.Addr, err)
	}

	err = s.srv.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}

func newStructuredLogger(logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				logger.Info("http request",
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
					"bytes", ww.BytesWritten(),
					"duration_ms", time.Since(start).Milliseconds(),
					"request_id", middleware.GetReqID(r.Context()),
				)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
