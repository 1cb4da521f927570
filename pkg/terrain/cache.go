package terrain

import (
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/simplelru"
)

// Defaults for the grid cache.
const (
	DefaultCacheTTL  = 5 * time.Second
	DefaultCacheSize = 20
)

// CacheKey identifies a grid by provider and rounded position.
// Positions are rounded to 1/60 degree so sub-mile movement reuses the grid.
type CacheKey struct {
	Provider   string
	LatMin     int64 // round(lat*60)
	LonMin     int64 // round(lon*60)
	RadiusDeci int64 // round(radiusNM*10)
	Resolution int
}

// KeyFor derives the cache key for a query.
func KeyFor(provider string, lat, lon, radiusNM float64, resolution int) CacheKey {
	return CacheKey{
		Provider:   provider,
		LatMin:     int64(math.Round(lat * 60)),
		LonMin:     int64(math.Round(lon * 60)),
		RadiusDeci: int64(math.Round(radiusNM * 10)),
		Resolution: resolution,
	}
}

type cacheEntry struct {
	grid      *ElevationGrid
	createdAt time.Time
}

// GridCache memoizes elevation grids with a TTL and a bounded entry count.
// Expiry is checked lazily on access; the oldest inserted entry is evicted first.
type GridCache struct {
	mu         sync.Mutex
	lru        *simplelru.LRU[CacheKey, cacheEntry]
	ttl        time.Duration
	resolution int
	now        func() time.Time
	logger     *slog.Logger
}

// CacheOption configures a GridCache.
type CacheOption func(*GridCache)

// WithCacheClock replaces the wall clock used for expiry.
func WithCacheClock(now func() time.Time) CacheOption {
	return func(c *GridCache) { c.now = now }
}

// NewGridCache creates a cache holding at most size grids of the given resolution.
func NewGridCache(size int, ttl time.Duration, resolution int, opts ...CacheOption) (*GridCache, error) {
	if size < 1 {
		return nil, fmt.Errorf("grid cache size must be at least 1, got %d", size)
	}
	c := &GridCache{
		ttl:        ttl,
		resolution: resolution,
		now:        time.Now,
		logger:     slog.With("component", "grid_cache"),
	}
	for _, opt := range opts {
		opt(c)
	}

	lru, err := simplelru.NewLRU[CacheKey, cacheEntry](size, func(k CacheKey, _ cacheEntry) {
		c.logger.Debug("Grid evicted", "provider", k.Provider, "lat_min", k.LatMin, "lon_min", k.LonMin)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create grid cache: %w", err)
	}
	c.lru = lru
	return c, nil
}

// Resolution returns the grid resolution the cache computes.
func (c *GridCache) Resolution() int { return c.resolution }

// Get returns the cached grid for the rounded query, computing it via p on a miss or after expiry.
func (c *GridCache) Get(p ElevationProvider, lat, lon, radiusNM float64) *ElevationGrid {
	key := KeyFor(p.Name(), lat, lon, radiusNM, c.resolution)

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if e, ok := c.lru.Peek(key); ok {
		if now.Sub(e.createdAt) < c.ttl {
			return e.grid
		}
		c.lru.Remove(key)
	}

	grid := p.AreaGrid(lat, lon, radiusNM, c.resolution)
	// The provider may have switched between Name and AreaGrid; file under what was produced.
	if grid.Provider != key.Provider {
		key.Provider = grid.Provider
	}
	c.lru.Add(key, cacheEntry{grid: grid, createdAt: now})
	return grid
}

// Put stores a grid under the key derived from its own provider, center and radius.
func (c *GridCache) Put(g *ElevationGrid) {
	key := KeyFor(g.Provider, g.CenterLat, g.CenterLon, g.RadiusNM, g.Resolution)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Remove(key)
	c.lru.Add(key, cacheEntry{grid: g, createdAt: c.now()})
}

// Evict drops a single entry. It reports whether the key was present.
func (c *GridCache) Evict(key CacheKey) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Remove(key)
}

// Len returns the number of entries, expired ones included until next touched.
func (c *GridCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

// Purge drops every entry.
func (c *GridCache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Purge()
}

// Sweep drops every expired entry and returns how many were removed.
func (c *GridCache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	n := 0
	for _, k := range c.lru.Keys() {
		if e, ok := c.lru.Peek(k); ok && now.Sub(e.createdAt) >= c.ttl {
			c.lru.Remove(k)
			n++
		}
	}
	return n
}
