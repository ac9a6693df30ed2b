package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/yashy10/golden-gate-quest/internal/appstate"
	"github.com/yashy10/golden-gate-quest/internal/catalog"
	"github.com/yashy10/golden-gate-quest/internal/curator"
	"github.com/yashy10/golden-gate-quest/internal/database"
	"github.com/yashy10/golden-gate-quest/internal/migrations"
	"github.com/yashy10/golden-gate-quest/internal/provider"
)

const adminPassword = "s3cret"

var testNow = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

type testEnv struct {
	handler  http.Handler
	store    *catalog.Store
	sessions *appstate.Manager
}

func (e *testEnv) ServeHTTP(w http.ResponseWriter, r *http.Request) { e.handler.ServeHTTP(w, r) }

type envOption func(*Deps)

// newTestServer wires the real curator, a fallback-only provider chain and
// the seed catalog behind an in-memory database.
func newTestServer(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()
	ctx := context.Background()

	db, err := database.Open(ctx, database.Memory)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, migrations.Run(db))

	store := catalog.NewStore(db)
	_, err = catalog.SeedIfEmpty(ctx, store, filepath.Join("..", "..", "data", "catalog.yaml"), catalog.DefaultRegion)
	require.NoError(t, err)
	cached := catalog.NewCached(store, time.Minute)

	hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.MinCost)
	require.NoError(t, err)

	broker := NewBroker()
	sessions := appstate.NewManager(appstate.NewMemoryStore(), broker.Publish)
	t.Cleanup(func() { sessions.Close() })

	deps := Deps{
		Curator: curator.New(
			provider.NewChain(time.Second, provider.Fallback{}),
			curator.WithClock(func() time.Time { return testNow }),
		),
		Catalog:           cached,
		Importer:          &catalog.Importer{Store: store, Region: catalog.DefaultRegion, OnImport: cached.Invalidate},
		Sessions:          sessions,
		Broker:            broker,
		AdminPasswordHash: string(hash),
		Now:               func() time.Time { return testNow.Add(95 * time.Minute) },
	}
	for _, opt := range opts {
		opt(&deps)
	}

	srv := New(":0", slog.New(slog.NewTextHandler(io.Discard, nil)), deps, nil)
	return &testEnv{handler: srv.Handler(), store: store, sessions: deps.Sessions}
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v), rec.Body.String())
	return v
}
