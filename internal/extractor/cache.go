package extractor

import (
	"context"
	"fmt"
	"time"

	"github.com/drewfead/pdx-indie-showtimes/internal"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Cached returns middleware that wraps an Extractor with LRU+TTL caching of
// full extraction results, keyed by theater id and window:
//
//	extractor.NewRegistry(extractor.WithExtractor(e, extractor.Cached(8, 5*time.Minute)))
//
// maxEntries is the LRU size; ttl is how long entries stay valid (zero = no
// expiration).
func Cached(maxEntries int, ttl time.Duration) Middleware {
	return func(inner internal.Extractor) internal.Extractor {
		if inner == nil {
			return nil
		}
		if maxEntries <= 0 {
			maxEntries = 8
		}
		return &cachingExtractor{
			inner: inner,
			cache: expirable.NewLRU[string, []internal.MovieRecord](maxEntries, nil, ttl),
		}
	}
}

type cachingExtractor struct {
	inner internal.Extractor
	cache *expirable.LRU[string, []internal.MovieRecord]
}

func (c *cachingExtractor) TheaterID() string {
	return c.inner.TheaterID()
}

func (c *cachingExtractor) Extract(ctx context.Context, window internal.Window) ([]internal.MovieRecord, error) {
	key := fmt.Sprintf("%s|%s|%d", c.inner.TheaterID(), window.StartDate(), window.Days)
	if records, ok := c.cache.Get(key); ok {
		return records, nil
	}
	records, err := c.inner.Extract(ctx, window)
	if err != nil {
		return nil, err
	}
	c.cache.Add(key, records)
	return records, nil
}
