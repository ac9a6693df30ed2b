package catalog

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"

	"github.com/yashy10/golden-gate-quest/internal/metrics"
)

// Source yields the current catalog.
type Source interface {
	Catalog(ctx context.Context) (Catalog, error)
}

// Static serves a fixed catalog.
type Static Catalog

func (s Static) Catalog(context.Context) (Catalog, error) { return Catalog(s), nil }

const snapshotKey = "catalog"

// Cached serves store snapshots from an expiring cache. Concurrent misses
// share one database read.
type Cached struct {
	store *Store
	lru   *expirable.LRU[string, Catalog]
	group singleflight.Group
}

func NewCached(store *Store, ttl time.Duration) *Cached {
	return &Cached{
		store: store,
		lru:   expirable.NewLRU[string, Catalog](1, nil, ttl),
	}
}

func (c *Cached) Catalog(ctx context.Context) (Catalog, error) {
	if cat, ok := c.lru.Get(snapshotKey); ok {
		metrics.CatalogCacheLookups.WithLabelValues("hit").Inc()
		return cat, nil
	}
	metrics.CatalogCacheLookups.WithLabelValues("miss").Inc()

	v, err, _ := c.group.Do(snapshotKey, func() (any, error) {
		cat, err := c.store.Snapshot(ctx)
		if err != nil {
			return Catalog{}, err
		}
		c.lru.Add(snapshotKey, cat)
		return cat, nil
	})
	if err != nil {
		return Catalog{}, err
	}
	return v.(Catalog), nil
}

// Invalidate drops the cached snapshot so the next read hits the store.
func (c *Cached) Invalidate() {
	c.lru.Purge()
}
