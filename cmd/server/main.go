package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/yashy10/golden-gate-quest/internal/app"
	"github.com/yashy10/golden-gate-quest/internal/catalog"
	"github.com/yashy10/golden-gate-quest/internal/config"
	"github.com/yashy10/golden-gate-quest/internal/database"
	"github.com/yashy10/golden-gate-quest/internal/handler/health"
	"github.com/yashy10/golden-gate-quest/internal/logger"
	"github.com/yashy10/golden-gate-quest/internal/server"
)

var version = "dev"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, stdout io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log := logger.New(stdout, logger.Config{
		Level:       cfg.LogLevel,
		Service:     "golden-gate-quest",
		Version:     version,
		Environment: cfg.Environment,
	})

	// --- SQLite + catalog ---
	a, err := app.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()
	log.Info("connected to sqlite", "path", cfg.DBPath)
	log.Info("provider chain ready", "providers", a.Chain.Names())

	// --- HTTP Server ---
	srv := server.New(cfg.HTTPAddr, log, a.ServerDeps(), func(r chi.Router) {
		r.Mount("/healthz", health.NewHandler(log, map[string]health.Checker{
			"sqlite":  database.Checker{DB: a.DB},
			"catalog": health.CheckFunc(catalogReady(a.Catalog)),
		}).Routes())
	})

	// --- Run ---
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("starting http server", "addr", cfg.HTTPAddr)
		return srv.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down http server")
		return srv.Shutdown(context.Background())
	})

	if cfg.SeedWatch {
		g.Go(func() error {
			log.Info("watching catalog seed", "file", cfg.SeedFile)
			return catalog.Watch(gctx, cfg.SeedFile, a.ReloadSeed)
		})
	}

	return g.Wait()
}

// catalogReady fails while the catalog cannot be read or holds no locations.
func catalogReady(src catalog.Source) func(context.Context) error {
	return func(ctx context.Context) error {
		c, err := src.Catalog(ctx)
		if err != nil {
			return err
		}
		if len(c.Locations) == 0 {
			return errors.New("catalog is empty")
		}
		return nil
	}
}
