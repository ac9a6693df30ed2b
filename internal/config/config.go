package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/yashy10/golden-gate-quest/internal/catalog"
)

// Provider configures one OpenAI-compatible chat endpoint. An empty URL
// leaves the provider out of the chain.
type Provider struct {
	Name  string `env:"NAME"`
	URL   string `env:"URL"`
	Key   string `env:"KEY"`
	Model string `env:"MODEL"`
}

func (p Provider) Enabled() bool { return p.URL != "" }

type Embeddings struct {
	URL       string        `env:"URL"`
	Key       string        `env:"KEY"`
	Model     string        `env:"MODEL" envDefault:"text-embedding-3-small"`
	CacheSize int           `env:"CACHE_SIZE" envDefault:"512"`
	CacheTTL  time.Duration `env:"CACHE_TTL" envDefault:"24h"`
}

func (e Embeddings) Enabled() bool { return e.URL != "" }

type Region struct {
	MinLat float64 `env:"MIN_LAT" envDefault:"37.708"`
	MaxLat float64 `env:"MAX_LAT" envDefault:"37.835"`
	MinLng float64 `env:"MIN_LNG" envDefault:"-122.515"`
	MaxLng float64 `env:"MAX_LNG" envDefault:"-122.355"`
}

func (r Region) Catalog() catalog.Region {
	return catalog.Region{MinLat: r.MinLat, MaxLat: r.MaxLat, MinLng: r.MinLng, MaxLng: r.MaxLng}
}

type Config struct {
	HTTPAddr    string     `env:"HTTP_ADDR" envDefault:":8080"`
	DBPath      string     `env:"DB_PATH" envDefault:"data/quest.db"`
	LogLevel    slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`
	Environment string     `env:"ENVIRONMENT" envDefault:"development"`
	SPADir      string     `env:"SPA_DIR" envDefault:"../web/dist"`

	SeedFile  string `env:"SEED_FILE" envDefault:"data/catalog.yaml"`
	SeedWatch bool   `env:"SEED_WATCH" envDefault:"false"`

	Primary         Provider      `envPrefix:"PRIMARY_AI_"`
	Secondary       Provider      `envPrefix:"SECONDARY_AI_"`
	ProviderTimeout time.Duration `env:"PROVIDER_TIMEOUT" envDefault:"20s"`
	RandomFill      bool          `env:"RANDOM_FILL" envDefault:"false"`

	Embeddings Embeddings `envPrefix:"EMBEDDINGS_"`

	// Photo is an image-capable endpoint for vintage restyling of captures.
	Photo        Provider      `envPrefix:"PHOTO_AI_"`
	PhotoTimeout time.Duration `env:"PHOTO_AI_TIMEOUT" envDefault:"60s"`

	CatalogCacheTTL   time.Duration `env:"CATALOG_CACHE_TTL" envDefault:"5m"`
	AdminPasswordHash string        `env:"ADMIN_PASSWORD_HASH"`

	SessionCacheSize int           `env:"SESSION_CACHE_SIZE" envDefault:"10000"`
	SessionIdleTTL   time.Duration `env:"SESSION_IDLE_TTL" envDefault:"2h"`

	Region Region `envPrefix:"REGION_"`
}

// Load reads an optional .env file and then the process environment.
// Variables already set in the environment win over the file.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", f, err)
		}
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	if cfg.Primary.Name == "" {
		cfg.Primary.Name = "openai"
	}
	if cfg.Secondary.Name == "" {
		cfg.Secondary.Name = "dgx"
	}
	if cfg.Photo.Name == "" {
		cfg.Photo.Name = "photo"
	}
	return &cfg, nil
}
