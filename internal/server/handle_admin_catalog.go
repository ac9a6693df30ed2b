package server

import (
	"errors"
	"net/http"

	"github.com/yashy10/golden-gate-quest/internal/catalog"
	"github.com/yashy10/golden-gate-quest/internal/quest"
)

// CatalogImportError lists the rejected rows of an admin upload.
type CatalogImportError struct {
	Error string             `json:"error"`
	Rows  []catalog.RowError `json:"rows"`
}

func handleAdminPutLocations(importer CatalogImporter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var locs []quest.Location
		if err := readJSON(r, &locs); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		importCatalog(w, r, importer, catalog.Catalog{Locations: locs})
	}
}

func handleAdminPutFoodStops(importer CatalogImporter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var stops []quest.FoodStop
		if err := readJSON(r, &stops); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		importCatalog(w, r, importer, catalog.Catalog{FoodStops: stops})
	}
}

func importCatalog(w http.ResponseWriter, r *http.Request, importer CatalogImporter, c catalog.Catalog) {
	if c.Empty() {
		writeError(w, http.StatusBadRequest, "no rows to import")
		return
	}

	res, err := importer.Import(r.Context(), c)
	var ierr *catalog.ImportError
	if errors.As(err, &ierr) {
		writeJSON(w, http.StatusUnprocessableEntity, CatalogImportError{Error: "invalid catalog rows", Rows: ierr.Rows})
		return
	}
	if err != nil {
		writeFailure(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
