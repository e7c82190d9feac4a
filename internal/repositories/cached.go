package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"iss-tracker/internal/models"
	"iss-tracker/pkg/logger"
	"iss-tracker/pkg/observe"
)

// CachedEphemerisRepository wraps an EphemerisRepository with a blob cache.
// The whole parsed dataset is stored as one JSON payload under a single key,
// so a cache hit skips both the download and the XML parse.
type CachedEphemerisRepository struct {
	inner   EphemerisRepository
	cache   BlobCache
	key     string
	ttl     time.Duration
	metrics *observe.Metrics
	l       *logger.Logger
}

func NewCachedEphemerisRepository(
	inner EphemerisRepository,
	cache BlobCache,
	key string,
	ttl time.Duration,
	metrics *observe.Metrics,
	l *logger.Logger,
) *CachedEphemerisRepository {
	return &CachedEphemerisRepository{
		inner:   inner,
		cache:   cache,
		key:     key,
		ttl:     ttl,
		metrics: metrics,
		l:       l,
	}
}

// FetchEphemeris serves from the cache when the blob is present and falls
// back to the origin on a miss, repopulating the cache afterwards.
func (c *CachedEphemerisRepository) FetchEphemeris(ctx context.Context) (models.Ephemeris, error) {
	ephemeris, found, err := c.Cached(ctx)
	if err != nil {
		// A broken cache should not take the service down; log and fetch.
		c.l.Warning("cache read failed", map[string]any{"key": c.key, "err": err})
	}
	if found {
		c.metrics.CacheLookups.WithLabelValues("hit").Inc()
		return ephemeris, nil
	}
	c.metrics.CacheLookups.WithLabelValues("miss").Inc()

	return c.Refresh(ctx)
}

// Cached returns the dataset from the cache only, reporting whether the blob
// was present. It never contacts the origin.
func (c *CachedEphemerisRepository) Cached(ctx context.Context) (models.Ephemeris, bool, error) {
	blob, found, err := c.cache.Get(ctx, c.key)
	if err != nil {
		return models.Ephemeris{}, false, err
	}
	if !found {
		return models.Ephemeris{}, false, nil
	}

	var ephemeris models.Ephemeris
	if err := json.Unmarshal(blob, &ephemeris); err != nil {
		return models.Ephemeris{}, false, fmt.Errorf("failed to decode cached ephemeris: %w", err)
	}

	c.l.Debug("ephemeris served from cache", map[string]any{
		"key":           c.key,
		"state_vectors": len(ephemeris.StateVectors),
	})

	return ephemeris, true, nil
}

// Refresh fetches the dataset from the origin and stores it, bypassing any
// cached copy.
func (c *CachedEphemerisRepository) Refresh(ctx context.Context) (models.Ephemeris, error) {
	start := time.Now()
	ephemeris, err := c.inner.FetchEphemeris(ctx)
	if err != nil {
		c.metrics.FeedFetches.WithLabelValues("error").Inc()
		return models.Ephemeris{}, err
	}
	c.metrics.FeedFetches.WithLabelValues("success").Inc()
	c.metrics.FetchDuration.Observe(time.Since(start).Seconds())
	c.metrics.StateVectors.Set(float64(len(ephemeris.StateVectors)))

	blob, err := json.Marshal(ephemeris)
	if err != nil {
		return models.Ephemeris{}, fmt.Errorf("failed to encode ephemeris for cache: %w", err)
	}

	if err := c.cache.Set(ctx, c.key, blob, c.ttl); err != nil {
		// Same stance as reads: a cache write failure degrades to uncached.
		c.l.Warning("cache write failed", map[string]any{"key": c.key, "err": err})
	}

	return ephemeris, nil
}
