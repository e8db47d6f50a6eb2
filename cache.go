package troopstock

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/viccon/sturdyc"
)

// listCache is a time-limited cache for one full collection (all items, all
// checkouts) with single-flight semantics: concurrent callers for a cold
// collection share one underlying scan instead of each starting their own.
//
// Writes invalidate the cache synchronously before returning; the TTL is
// only a safety net against out-of-band store mutation. Each Repository owns
// its caches, so tests can construct isolated instances.
type listCache[T any] struct {
	client *sturdyc.Client[[]T]
	key    string
	ttl    time.Duration

	// gen is bumped on every invalidation so a scan that was in flight
	// when a write landed can be detected and discarded.
	gen atomic.Uint64
}

func newListCache[T any](key string, ttl time.Duration) *listCache[T] {
	return &listCache[T]{
		client: sturdyc.New[[]T](
			DefaultCacheCapacity,
			DefaultCacheShards,
			ttl,
			DefaultCacheEvictionPercentage,
		),
		key: key,
		ttl: ttl,
	}
}

// Get returns the cached collection, or fetches it through fetch on a miss.
// In-flight deduplication is handled by sturdyc's stampede protection.
//
// If an invalidation lands while the fetch is in flight, the result may
// predate the write: it is still returned to this caller (the read began
// before the write), but the cached entry is dropped so later readers
// rescan instead of being served the stale list until the TTL expires.
func (c *listCache[T]) Get(ctx context.Context, fetch func(ctx context.Context) ([]T, error)) ([]T, error) {
	before := c.gen.Load()
	result, err := c.client.GetOrFetch(ctx, c.key, fetch)
	if err != nil {
		return nil, err
	}
	if c.gen.Load() != before {
		c.client.Delete(c.key)
	}
	return result, nil
}

// Invalidate drops the cached collection. Must be called synchronously by
// every write before it returns, so readers after a write never see stale
// data.
func (c *listCache[T]) Invalidate() {
	c.gen.Add(1)
	c.client.Delete(c.key)
}
