package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Decode reads a catalog in its YAML seed form.
func Decode(r io.Reader) (Catalog, error) {
	var c Catalog
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil {
		if errors.Is(err, io.EOF) {
			return Catalog{}, nil
		}
		return Catalog{}, fmt.Errorf("decoding catalog: %w", err)
	}
	return c, nil
}

// LoadFile reads a YAML seed file.
func LoadFile(path string) (Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("opening seed: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// ImportResult reports how many rows an import wrote.
type ImportResult struct {
	Locations int `json:"locations"`
	FoodStops int `json:"foodStops"`
}

// Import validates c and upserts every row. Nothing is written when any row
// is invalid.
func Import(ctx context.Context, store *Store, c Catalog, region Region) (ImportResult, error) {
	if err := Validate(c, region); err != nil {
		return ImportResult{}, err
	}
	if err := store.UpsertCatalog(ctx, c); err != nil {
		return ImportResult{}, fmt.Errorf("storing catalog: %w", err)
	}
	return ImportResult{Locations: len(c.Locations), FoodStops: len(c.FoodStops)}, nil
}

// SeedIfEmpty imports the seed file when the store holds no rows yet.
// It reports whether anything was imported.
func SeedIfEmpty(ctx context.Context, store *Store, path string, region Region) (bool, error) {
	locs, stops, err := store.Size(ctx)
	if err != nil {
		return false, fmt.Errorf("counting catalog rows: %w", err)
	}
	if locs > 0 || stops > 0 {
		return false, nil
	}
	c, err := LoadFile(path)
	if err != nil {
		return false, err
	}
	if _, err := Import(ctx, store, c, region); err != nil {
		return false, err
	}
	return true, nil
}

// Importer validates and stores admin uploads, then runs OnImport, which
// is typically a cache invalidation.
type Importer struct {
	Store    *Store
	Region   Region
	OnImport func()
}

func (i *Importer) Import(ctx context.Context, c Catalog) (ImportResult, error) {
	res, err := Import(ctx, i.Store, c, i.Region)
	if err != nil {
		return ImportResult{}, err
	}
	if i.OnImport != nil {
		i.OnImport()
	}
	return res, nil
}
