package services

import (
	"context"
	"errors"
	"fmt"
	"pamekids-service/internal/domain"
	"pamekids-service/internal/platform/logging"
	"pamekids-service/internal/platform/metrics"
	"pamekids-service/internal/platform/obs"
	"pamekids-service/internal/ports"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultLocationsCollection = "locations"
	DefaultCacheVersion        = "1.0"
	DefaultFreshTTL            = 24 * time.Hour
	DefaultRefreshAfter        = time.Hour
)

type LocationCacheConfig struct {
	Collection string
	// CacheKey names the entry in the persistent tier; defaults to Collection.
	CacheKey string
	// Version stamps persisted snapshots; data written under another version is ignored.
	Version string
	// FreshTTL is the maximum age served without a remote fetch.
	FreshTTL time.Duration
	// RefreshAfter is the age past which a persisted snapshot is still served
	// but refreshed in the background.
	RefreshAfter time.Duration
	Logger       *zap.Logger
	Now          func() time.Time
}

// LocationCache owns the in-memory and persistent views of the locations
// collection.
//
// It guarantees:
//   - at most one remote fetch in flight per cache key; concurrent callers share its outcome
//   - a failed fetch never touches existing tiers
//   - background refreshes run detached and only log their failures
//
// The cache is safe for concurrent use. Snapshots handed out are deep copies.
type LocationCache struct {
	store   ports.DocumentStore
	persist ports.SnapshotCache
	cfg     LocationCacheConfig
	log     *zap.Logger
	now     func() time.Time

	mu     sync.Mutex
	memory *ports.Snapshot
	// gen advances on Invalidate so a fetch that started earlier does not
	// repopulate the tiers with pre-invalidation data.
	gen uint64

	flight     singleflight.Group
	background sync.WaitGroup
}

// NewLocationCache builds a cache over store. persist may be nil, in which case
// only the memory tier is used.
func NewLocationCache(store ports.DocumentStore, persist ports.SnapshotCache, cfg LocationCacheConfig) *LocationCache {
	if cfg.Collection == "" {
		cfg.Collection = DefaultLocationsCollection
	}
	if cfg.CacheKey == "" {
		cfg.CacheKey = cfg.Collection
	}
	if cfg.Version == "" {
		cfg.Version = DefaultCacheVersion
	}
	if cfg.FreshTTL <= 0 {
		cfg.FreshTTL = DefaultFreshTTL
	}
	if cfg.RefreshAfter <= 0 || cfg.RefreshAfter > cfg.FreshTTL {
		cfg.RefreshAfter = min(DefaultRefreshAfter, cfg.FreshTTL)
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &LocationCache{
		store:   store,
		persist: persist,
		cfg:     cfg,
		log:     logging.OrNop(cfg.Logger).Named("location_cache"),
		now:     now,
	}
}

// GetAll returns the full locations collection.
//
// Resolution order: memory tier while fresh, then the persistent tier while
// fresh (scheduling a background refresh once it is older than RefreshAfter),
// then a shared remote fetch. forceRefresh clears both tiers first.
func (c *LocationCache) GetAll(ctx context.Context, forceRefresh bool) (_ []domain.Location, err error) {
	defer obs.Time(ctx, "locationCache.GetAll")(&err)

	if forceRefresh {
		c.clearTiers(ctx)
		return c.fetchShared(ctx)
	}

	now := c.now()

	if snap, ok := c.memorySnapshot(); ok && now.Sub(snap.FetchedAt) < c.cfg.FreshTTL {
		metrics.CacheHitsTotal.WithLabelValues("memory").Inc()
		return domain.CloneLocations(snap.Locations), nil
	}

	if c.persist != nil {
		snap, ok, err := c.persist.Read(ctx, c.cfg.CacheKey, c.cfg.Version)
		switch {
		case err != nil:
			c.log.Warn("persistent tier read failed", zap.String("key", c.cfg.CacheKey), zap.Error(err))
		case ok && now.Sub(snap.FetchedAt) < c.cfg.FreshTTL:
			metrics.CacheHitsTotal.WithLabelValues("persistent").Inc()
			c.adopt(snap)
			if now.Sub(snap.FetchedAt) >= c.cfg.RefreshAfter {
				c.refreshInBackground(ctx)
			}
			return domain.CloneLocations(snap.Locations), nil
		}
	}

	metrics.CacheMissesTotal.Inc()
	return c.fetchShared(ctx)
}

// Invalidate clears both tiers. The next GetAll performs a remote fetch.
func (c *LocationCache) Invalidate(ctx context.Context) error {
	c.mu.Lock()
	c.memory = nil
	c.gen++
	c.mu.Unlock()

	if c.persist == nil {
		return nil
	}
	if err := c.persist.Clear(ctx, c.cfg.CacheKey); err != nil {
		return fmt.Errorf("location cache: invalidate %q: %w", c.cfg.CacheKey, err)
	}
	return nil
}

// Wait blocks until every background refresh started so far has finished.
func (c *LocationCache) Wait() {
	c.background.Wait()
}

func (c *LocationCache) memorySnapshot() (ports.Snapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.memory == nil {
		return ports.Snapshot{}, false
	}
	return *c.memory, true
}

func (c *LocationCache) adopt(snap ports.Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.memory = &snap
}

func (c *LocationCache) clearTiers(ctx context.Context) {
	c.mu.Lock()
	c.memory = nil
	c.mu.Unlock()

	if c.persist == nil {
		return
	}
	if err := c.persist.Clear(ctx, c.cfg.CacheKey); err != nil {
		c.log.Warn("persistent tier clear failed", zap.String("key", c.cfg.CacheKey), zap.Error(err))
	}
}

// fetchShared joins the in-flight fetch for the cache key or starts one.
// The fetch is detached from ctx cancellation; ctx only bounds how long
// this caller waits for it.
func (c *LocationCache) fetchShared(ctx context.Context) ([]domain.Location, error) {
	detached := context.WithoutCancel(ctx)
	ch := c.flight.DoChan(c.cfg.CacheKey, func() (any, error) {
		return c.fetch(detached)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return domain.CloneLocations(res.Val.([]domain.Location)), nil
	case <-ctx.Done():
		return nil, fmt.Errorf("location cache: waiting for fetch: %w", ctx.Err())
	}
}

// fetch loads and normalizes the collection, then writes both tiers.
// Only called through the single-flight group.
func (c *LocationCache) fetch(ctx context.Context) ([]domain.Location, error) {
	c.mu.Lock()
	gen := c.gen
	c.mu.Unlock()

	start := time.Now()
	docs, err := c.store.GetAll(ctx, c.cfg.Collection)
	metrics.StoreFetchDurationMs.Observe(float64(time.Since(start).Microseconds()) / 1000)
	if err != nil {
		metrics.StoreFetchesTotal.WithLabelValues("error").Inc()
		if !errors.Is(err, domain.ErrRemoteUnavailable) && !errors.Is(err, domain.ErrPermissionDenied) &&
			!errors.Is(err, domain.ErrNotFound) && !errors.Is(err, domain.ErrUnknown) {
			err = errors.Join(domain.ErrRemoteUnavailable, err)
		}
		return nil, fmt.Errorf("location cache: fetch %q: %w", c.cfg.Collection, err)
	}
	metrics.StoreFetchesTotal.WithLabelValues("ok").Inc()

	locations := make([]domain.Location, 0, len(docs))
	for _, doc := range docs {
		locations = append(locations, NormalizeLocation(doc))
	}
	snap := ports.Snapshot{Locations: locations, FetchedAt: c.now()}

	c.mu.Lock()
	current := c.gen == gen
	if current {
		stored := snap
		stored.Locations = domain.CloneLocations(locations)
		c.memory = &stored
	}
	c.mu.Unlock()

	if !current {
		c.log.Debug("discarding fetch result after invalidation", zap.String("key", c.cfg.CacheKey))
		return locations, nil
	}

	if c.persist != nil {
		if err := c.persist.Write(ctx, c.cfg.CacheKey, c.cfg.Version, snap); err != nil {
			c.log.Warn("persistent tier write failed", zap.String("key", c.cfg.CacheKey), zap.Error(err))
		}
	}

	c.log.Debug("locations fetched", zap.Int("count", len(locations)))
	return locations, nil
}

// refreshInBackground re-fetches without blocking the caller. A failure is
// logged and leaves the already-served tiers in place.
func (c *LocationCache) refreshInBackground(ctx context.Context) {
	detached := context.WithoutCancel(ctx)

	c.background.Add(1)
	go func() {
		defer c.background.Done()

		ch := c.flight.DoChan(c.cfg.CacheKey, func() (any, error) {
			return c.fetch(detached)
		})
		res := <-ch
		if res.Err != nil {
			metrics.BackgroundRefreshTotal.WithLabelValues("error").Inc()
			c.log.Warn("background refresh failed", zap.String("key", c.cfg.CacheKey), zap.Error(res.Err))
			return
		}
		metrics.BackgroundRefreshTotal.WithLabelValues("ok").Inc()
	}()
}
