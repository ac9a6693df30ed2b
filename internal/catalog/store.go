package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/yashy10/golden-gate-quest/internal/quest"
)

// Store keeps catalog rows in per-model tables with JSONB data columns.
// The tables are created by the migrations package.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// UpsertLocations inserts or replaces locations by id in one transaction.
func (s *Store) UpsertLocations(ctx context.Context, locs []quest.Location) error {
	return s.UpsertCatalog(ctx, Catalog{Locations: locs})
}

// UpsertFoodStops inserts or replaces food stops by id in one transaction.
func (s *Store) UpsertFoodStops(ctx context.Context, stops []quest.FoodStop) error {
	return s.UpsertCatalog(ctx, Catalog{FoodStops: stops})
}

// UpsertCatalog writes locations and food stops in a single transaction.
func (s *Store) UpsertCatalog(ctx context.Context, c Catalog) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for i, l := range c.Locations {
		if err := putRow(ctx, tx,
			`INSERT INTO locations (id, category, data) VALUES (?, ?, jsonb(?))
			 ON CONFLICT(id) DO UPDATE SET category = excluded.category, data = excluded.data`,
			l.ID, string(l.Category), l,
		); err != nil {
			return fmt.Errorf("location %d: %w", i, err)
		}
	}
	for i, f := range c.FoodStops {
		if err := putRow(ctx, tx,
			`INSERT INTO food_stops (id, price_range, data) VALUES (?, ?, jsonb(?))
			 ON CONFLICT(id) DO UPDATE SET price_range = excluded.price_range, data = excluded.data`,
			f.ID, string(f.PriceRange), f,
		); err != nil {
			return fmt.Errorf("food stop %d: %w", i, err)
		}
	}
	return tx.Commit()
}

func putRow(ctx context.Context, tx *sql.Tx, query, id, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, query, id, key, string(data))
	return err
}

// Snapshot loads the whole catalog in insertion order.
func (s *Store) Snapshot(ctx context.Context) (Catalog, error) {
	var c Catalog
	var err error

	c.Locations, err = all[quest.Location](ctx, s.db, `SELECT json(data) FROM locations ORDER BY rowid`)
	if err != nil {
		return Catalog{}, fmt.Errorf("loading locations: %w", err)
	}
	c.FoodStops, err = all[quest.FoodStop](ctx, s.db, `SELECT json(data) FROM food_stops ORDER BY rowid`)
	if err != nil {
		return Catalog{}, fmt.Errorf("loading food stops: %w", err)
	}
	return c, nil
}

// Size returns the number of stored locations and food stops.
func (s *Store) Size(ctx context.Context) (locations, foodStops int, err error) {
	err = s.db.QueryRowContext(ctx,
		`SELECT (SELECT COUNT(*) FROM locations), (SELECT COUNT(*) FROM food_stops)`,
	).Scan(&locations, &foodStops)
	return locations, foodStops, err
}

func all[T any](ctx context.Context, db *sql.DB, query string) ([]T, error) {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var v T
		if err := json.Unmarshal([]byte(data), &v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
