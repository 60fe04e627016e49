// Package eta estimates how many minutes a ride will take.
package eta

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/example/ride-guardian/internal/models"
	"github.com/example/ride-guardian/internal/observability"
)

// Estimator returns the estimated ride duration in whole minutes.
type Estimator interface {
	EstimateMinutes(ctx context.Context, pickup, dropoff models.Location, routeType models.RouteType) int
}

// Client is a routing engine returning a driving duration in seconds.
type Client interface {
	EstimateSeconds(ctx context.Context, from, to models.Coord) (float64, error)
}

// RandomEstimator draws uniformly from [Min, Max] minutes.
type RandomEstimator struct {
	Min, Max int
	Intn     func(n int) int
}

func NewRandomEstimator(lo, hi int) *RandomEstimator {
	if lo <= 0 {
		lo = 15
	}
	if hi < lo {
		hi = lo
	}
	return &RandomEstimator{Min: lo, Max: hi, Intn: rand.Intn}
}

func (r *RandomEstimator) EstimateMinutes(_ context.Context, _, _ models.Location, _ models.RouteType) int {
	intn := r.Intn
	if intn == nil {
		intn = rand.Intn
	}
	return r.Min + intn(r.Max-r.Min+1)
}

// RouteEstimator asks a routing engine first and falls back when it fails.
// Safe routes add SafeRoutePenalty minutes.
type RouteEstimator struct {
	Client           Client
	Cache            *Cache // optional
	Fallback         Estimator
	SafeRoutePenalty int
	Logger           *slog.Logger
}

func (e *RouteEstimator) EstimateMinutes(ctx context.Context, pickup, dropoff models.Location, routeType models.RouteType) int {
	secs, ok := 0.0, false
	if e.Cache != nil {
		secs, ok = e.Cache.Get(pickup.Coords, dropoff.Coords)
	}
	if !ok {
		v, err := e.Client.EstimateSeconds(ctx, pickup.Coords, dropoff.Coords)
		if err != nil {
			observability.ETAFallbacks.Inc()
			if e.Logger != nil {
				e.Logger.Warn("route estimate failed, using fallback", "pickup", pickup.Key, "dropoff", dropoff.Key, "error", err)
			}
			return e.Fallback.EstimateMinutes(ctx, pickup, dropoff, routeType)
		}
		secs = v
		if e.Cache != nil {
			e.Cache.Set(pickup.Coords, dropoff.Coords, secs)
		}
	}
	minutes := int(math.Ceil(secs / 60))
	if minutes < 1 {
		minutes = 1
	}
	if routeType == models.RouteSafe {
		minutes += e.SafeRoutePenalty
	}
	return minutes
}

// Cache is a tiny in-memory cache for route lookups keyed by coords.
type Cache struct {
	mu    sync.RWMutex
	store map[string]cacheEntry
	ttl   time.Duration
	now   func() time.Time
}

type cacheEntry struct {
	v  float64
	ts time.Time
}

// NewCache creates a cache with the provided TTL.
func NewCache(ttl time.Duration) *Cache {
	return &Cache{store: make(map[string]cacheEntry), ttl: ttl, now: time.Now}
}

func keyFor(a, b models.Coord) string {
	return fmtCoord(a) + "->" + fmtCoord(b)
}

func fmtCoord(c models.Coord) string {
	return fmt.Sprintf("%.6f,%.6f", c.Lat, c.Lon)
}

// Get returns cached value and true if present and not expired.
func (c *Cache) Get(a, b models.Coord) (float64, bool) {
	k := keyFor(a, b)
	c.mu.RLock()
	e, ok := c.store[k]
	c.mu.RUnlock()
	if !ok {
		return 0, false
	}
	if c.now().Sub(e.ts) > c.ttl {
		c.mu.Lock()
		delete(c.store, k)
		c.mu.Unlock()
		return 0, false
	}
	return e.v, true
}

// Set stores a value in the cache.
func (c *Cache) Set(a, b models.Coord, v float64) {
	k := keyFor(a, b)
	c.mu.Lock()
	c.store[k] = cacheEntry{v: v, ts: c.now()}
	c.mu.Unlock()
}
