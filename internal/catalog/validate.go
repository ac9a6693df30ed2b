package catalog

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/yashy10/golden-gate-quest/internal/quest"
	"github.com/yashy10/golden-gate-quest/internal/validation"
)

// Region is the service area's bounding box.
type Region struct {
	MinLat, MaxLat float64
	MinLng, MaxLng float64
}

// DefaultRegion covers San Francisco plus the bridge vista points on the
// Marin side of the Golden Gate.
var DefaultRegion = Region{MinLat: 37.708, MaxLat: 37.835, MinLng: -122.515, MaxLng: -122.355}

func (r Region) Contains(c quest.Coordinates) bool {
	return c.Lat >= r.MinLat && c.Lat <= r.MaxLat && c.Lng >= r.MinLng && c.Lng <= r.MaxLng
}

// RowError describes every problem found in one imported row.
type RowError struct {
	Kind   string            `json:"kind"`
	ID     string            `json:"id"`
	Fields map[string]string `json:"fields"`
}

func (e RowError) Error() string {
	keys := slices.Sorted(maps.Keys(e.Fields))
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + e.Fields[k]
	}
	return fmt.Sprintf("%s %q: %s", e.Kind, e.ID, strings.Join(parts, "; "))
}

// ImportError collects the rows rejected by Validate.
type ImportError struct {
	Rows []RowError
}

func (e *ImportError) Error() string {
	msgs := make([]string, len(e.Rows))
	for i, r := range e.Rows {
		msgs[i] = r.Error()
	}
	return fmt.Sprintf("%d invalid catalog rows: %s", len(e.Rows), strings.Join(msgs, ", "))
}

var ErrInvalidCatalog = errors.New("invalid catalog")

func (e *ImportError) Unwrap() error { return ErrInvalidCatalog }

// Validate checks every row against the Location/FoodStop contract, the
// closed category set, the region and id uniqueness.
func Validate(c Catalog, region Region) error {
	var rows []RowError

	seen := make(map[string]bool)
	for _, loc := range c.Locations {
		fields := validation.Format(validation.Struct(loc))
		if fields == nil {
			fields = map[string]string{}
		}
		if !region.Contains(loc.Coordinates) {
			fields["coordinates"] = "Outside the service region"
		}
		if seen[loc.ID] {
			fields["id"] = "Duplicate id"
		}
		seen[loc.ID] = true
		if len(fields) > 0 {
			rows = append(rows, RowError{Kind: "location", ID: loc.ID, Fields: fields})
		}
	}

	seen = make(map[string]bool)
	for _, fs := range c.FoodStops {
		fields := validation.Format(validation.Struct(fs))
		if fields == nil {
			fields = map[string]string{}
		}
		if !region.Contains(fs.Coordinates) {
			fields["coordinates"] = "Outside the service region"
		}
		if seen[fs.ID] {
			fields["id"] = "Duplicate id"
		}
		seen[fs.ID] = true
		if len(fields) > 0 {
			rows = append(rows, RowError{Kind: "food stop", ID: fs.ID, Fields: fields})
		}
	}

	if len(rows) > 0 {
		return &ImportError{Rows: rows}
	}
	return nil
}
