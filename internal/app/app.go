// Package app assembles the service's components from configuration. Both
// the HTTP server and the questctl CLI start from here.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/yashy10/golden-gate-quest/internal/appstate"
	"github.com/yashy10/golden-gate-quest/internal/catalog"
	"github.com/yashy10/golden-gate-quest/internal/config"
	"github.com/yashy10/golden-gate-quest/internal/curator"
	"github.com/yashy10/golden-gate-quest/internal/database"
	"github.com/yashy10/golden-gate-quest/internal/logger"
	"github.com/yashy10/golden-gate-quest/internal/migrations"
	"github.com/yashy10/golden-gate-quest/internal/provider"
	"github.com/yashy10/golden-gate-quest/internal/rank"
	"github.com/yashy10/golden-gate-quest/internal/server"
)

type App struct {
	Config   *config.Config
	DB       *sql.DB
	Store    *catalog.Store
	Catalog  *catalog.Cached
	Importer *catalog.Importer
	Chain    *provider.Chain
	Curator  *curator.Curator
	Sessions *appstate.Manager
	Broker   *server.Broker

	// PhotoAger is nil unless PHOTO_AI_URL is set.
	PhotoAger *provider.PhotoAger
}

// Open connects to the database at cfg.DBPath, applies migrations and
// seeds an empty catalog from cfg.SeedFile.
func Open(ctx context.Context, cfg *config.Config) (*App, error) {
	db, err := database.Open(ctx, cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("connecting to sqlite: %w", err)
	}
	if err := migrations.Run(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	a := New(cfg, db)

	seeded, err := catalog.SeedIfEmpty(ctx, a.Store, cfg.SeedFile, a.Importer.Region)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("seeding catalog: %w", err)
	}
	if seeded {
		logger.FromContext(ctx).Info("catalog seeded", "file", cfg.SeedFile)
	}
	return a, nil
}

// New wires every component on top of an already migrated database.
func New(cfg *config.Config, db *sql.DB) *App {
	store := catalog.NewStore(db)
	cached := catalog.NewCached(store, cfg.CatalogCacheTTL)
	broker := server.NewBroker()
	chain := provider.NewChain(cfg.ProviderTimeout, Providers(cfg)...)
	sessions := appstate.NewManager(appstate.NewSQLStore(db), broker.Publish,
		appstate.WithCapacity(cfg.SessionCacheSize, cfg.SessionIdleTTL))

	a := &App{
		Config:   cfg,
		DB:       db,
		Store:    store,
		Catalog:  cached,
		Importer: &catalog.Importer{Store: store, Region: cfg.Region.Catalog(), OnImport: cached.Invalidate},
		Chain:    chain,
		Curator:  curator.New(chain, CuratorOptions(cfg)...),
		Sessions: sessions,
		Broker:   broker,
	}
	if cfg.Photo.Enabled() {
		a.PhotoAger = provider.NewPhotoAger(endpoint(cfg.Photo, &http.Client{Timeout: cfg.PhotoTimeout}))
	}
	return a
}

// Providers returns the chain in priority order: the tool-calling primary,
// the JSON-text secondary, then the deterministic fallback, which is always
// present.
func Providers(cfg *config.Config) []provider.Provider {
	client := &http.Client{Timeout: cfg.ProviderTimeout}

	var out []provider.Provider
	if cfg.Primary.Enabled() {
		out = append(out, provider.NewToolCall(endpoint(cfg.Primary, client)))
	}
	if cfg.Secondary.Enabled() {
		out = append(out, provider.NewText(endpoint(cfg.Secondary, client)))
	}
	return append(out, provider.Fallback{})
}

func endpoint(p config.Provider, client *http.Client) provider.Endpoint {
	return provider.Endpoint{
		Name:   p.Name,
		URL:    p.URL,
		APIKey: p.Key,
		Model:  p.Model,
		Client: client,
	}
}

func CuratorOptions(cfg *config.Config) []curator.Option {
	var opts []curator.Option
	if e := cfg.Embeddings; e.Enabled() {
		embedder := &rank.HTTPEmbedder{
			URL:    e.URL,
			APIKey: e.Key,
			Model:  e.Model,
			Client: &http.Client{Timeout: cfg.ProviderTimeout},
		}
		opts = append(opts, curator.WithRanker(rank.NewRanker(embedder, e.CacheSize, e.CacheTTL)))
	}
	if cfg.RandomFill {
		seed := uint64(time.Now().UnixNano())
		opts = append(opts, curator.WithRandomFill(rand.New(rand.NewPCG(seed, seed>>1))))
	}
	return opts
}

// ServerDeps exposes the components the HTTP layer needs.
func (a *App) ServerDeps() server.Deps {
	deps := server.Deps{
		Curator:           a.Curator,
		Catalog:           a.Catalog,
		Importer:          a.Importer,
		Sessions:          a.Sessions,
		Broker:            a.Broker,
		AdminPasswordHash: a.Config.AdminPasswordHash,
		SPADir:            a.Config.SPADir,
	}
	if a.PhotoAger != nil {
		deps.PhotoAger = a.PhotoAger
	}
	return deps
}

// ReloadSeed imports the seed file again, upserting its rows.
func (a *App) ReloadSeed(ctx context.Context) error {
	c, err := catalog.LoadFile(a.Config.SeedFile)
	if err != nil {
		return err
	}
	_, err = a.Importer.Import(ctx, c)
	return err
}

// Close flushes pending session saves and closes the database.
func (a *App) Close() error {
	a.Sessions.Close()
	return a.DB.Close()
}
