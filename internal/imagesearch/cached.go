package imagesearch

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/vbonduro/beautytracker/internal/cache"
	"github.com/vbonduro/beautytracker/internal/metrics"
)

// CacheTTL is how long a found image is remembered.
const CacheTTL = 7 * 24 * time.Hour

// CachedFinder serves repeat lookups from a cache. Misses are not cached so
// a later search can still succeed.
type CachedFinder struct {
	next   Finder
	cache  cache.Cache
	logger *slog.Logger
}

func NewCachedFinder(next Finder, c cache.Cache, logger *slog.Logger) *CachedFinder {
	return &CachedFinder{next: next, cache: c, logger: logger}
}

// CacheKey returns the cache key for a brand and name pair.
func CacheKey(brand, name string) string {
	return "product_image:" + strings.ToLower(brand) + ":" + strings.ToLower(name)
}

func (f *CachedFinder) FindProductImage(ctx context.Context, brand, name string) (*Result, error) {
	key := CacheKey(brand, name)

	if raw, ok, err := f.cache.Get(ctx, key); err != nil {
		f.logger.Warn("image cache read failed", "key", key, "error", err)
	} else if ok {
		var r Result
		if err := json.Unmarshal([]byte(raw), &r); err == nil {
			metrics.ImageSearchCacheTotal.WithLabelValues("hit").Inc()
			return &r, nil
		}
		f.logger.Warn("discarding malformed cache entry", "key", key)
	}
	metrics.ImageSearchCacheTotal.WithLabelValues("miss").Inc()

	r, err := f.next.FindProductImage(ctx, brand, name)
	if err != nil || r == nil {
		return r, err
	}

	payload, err := json.Marshal(r)
	if err != nil {
		f.logger.Warn("failed to encode image cache entry", "key", key, "error", err)
		return r, nil
	}
	if err := f.cache.Set(ctx, key, string(payload), CacheTTL); err != nil {
		f.logger.Warn("image cache write failed", "key", key, "error", err)
	}
	return r, nil
}
