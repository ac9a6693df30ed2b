package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yashy10/golden-gate-quest/internal/catalog"
	"github.com/yashy10/golden-gate-quest/internal/quest"
)

func adminPut(t *testing.T, env *testEnv, path, password string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPut, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	if password != "" {
		req.SetBasicAuth("admin", password)
	}
	rec := httptest.NewRecorder()
	env.ServeHTTP(rec, req)
	return rec
}

func newLocation(id string) quest.Location {
	return quest.Location{
		ID:           id,
		Name:         "Sutro Heights Park",
		Neighborhood: "Outer Richmond",
		Coordinates:  quest.Coordinates{Lat: 37.7784, Lng: -122.5115},
		Category:     quest.CategoryParks,
		ShortSummary: "Ruins of Adolph Sutro's estate above Ocean Beach.",
	}
}

func TestAdminImportLocations(t *testing.T) {
	env := newTestServer(t)

	rec := adminPut(t, env, "/api/admin/catalog/locations", adminPassword, []quest.Location{newLocation("sutro-heights")})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, catalog.ImportResult{Locations: 1}, decode[catalog.ImportResult](t, rec))

	rec = do(t, env, http.MethodGet, "/api/categories", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	for _, c := range decode[[]CategoryResponse](t, rec) {
		if c.Category == quest.CategoryParks {
			assert.Equal(t, 3, c.Locations, "import must invalidate the cached catalog")
		}
	}
}

func TestAdminImportFoodStops(t *testing.T) {
	env := newTestServer(t)

	stop := quest.FoodStop{
		ID:          "mitchells",
		Name:        "Mitchell's Ice Cream",
		Coordinates: quest.Coordinates{Lat: 37.7442, Lng: -122.4226},
		PriceRange:  quest.PriceLow,
	}
	rec := adminPut(t, env, "/api/admin/catalog/food-stops", adminPassword, []quest.FoodStop{stop})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, catalog.ImportResult{FoodStops: 1}, decode[catalog.ImportResult](t, rec))
}

func TestAdminImportRejectsInvalidRows(t *testing.T) {
	env := newTestServer(t)

	outside := newLocation("stinson")
	outside.Coordinates = quest.Coordinates{Lat: 37.9005, Lng: -122.6444}
	unknown := newLocation("mystery")
	unknown.Category = "nightlife"

	rec := adminPut(t, env, "/api/admin/catalog/locations", adminPassword,
		[]quest.Location{newLocation("sutro-heights"), outside, unknown})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	resp := decode[CatalogImportError](t, rec)
	require.Len(t, resp.Rows, 2)
	assert.Equal(t, "stinson", resp.Rows[0].ID)
	assert.Contains(t, resp.Rows[0].Fields, "coordinates")
	assert.Equal(t, "mystery", resp.Rows[1].ID)
	assert.Contains(t, resp.Rows[1].Fields, "category")

	locs, _, err := env.store.Size(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 26, locs, "a rejected batch writes nothing")
}

func TestAdminImportEmptyBody(t *testing.T) {
	env := newTestServer(t)

	rec := adminPut(t, env, "/api/admin/catalog/locations", adminPassword, []quest.Location{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminAuth(t *testing.T) {
	loc := []quest.Location{newLocation("sutro-heights")}

	t.Run("missing credentials", func(t *testing.T) {
		rec := adminPut(t, newTestServer(t), "/api/admin/catalog/locations", "", loc)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Header().Get("WWW-Authenticate"), "Basic")
	})

	t.Run("wrong password", func(t *testing.T) {
		rec := adminPut(t, newTestServer(t), "/api/admin/catalog/locations", "guess", loc)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("disabled", func(t *testing.T) {
		env := newTestServer(t, func(d *Deps) { d.AdminPasswordHash = "" })
		rec := adminPut(t, env, "/api/admin/catalog/locations", adminPassword, loc)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}
