package source

import (
	"context"
	"fmt"

	"trenchwatch/internal/cache"
	"trenchwatch/internal/normalize"
	"trenchwatch/internal/telemetry/metrics"
)

// CachedFetcher memoizes trending fetches in the freshness cache so the
// consistency aggregator, the momentum detector and the deep-analysis
// trending shortcut all share one upstream call per (chain, timeframe)
// within the window. Error-free payloads only; failures are never cached.
type CachedFetcher struct {
	Fetcher
	store cache.Store
}

// NewCachedFetcher wraps a Fetcher with the freshness cache.
func NewCachedFetcher(inner Fetcher, store cache.Store) *CachedFetcher {
	return &CachedFetcher{Fetcher: inner, store: store}
}

// TrendingKey is the composite cache key for one trending fetch.
func TrendingKey(chain, timeframe string) string {
	return fmt.Sprintf("trending_tokens:%s:%s", chain, timeframe)
}

func (c *CachedFetcher) TrendingTokens(ctx context.Context, timeframe, chain string) (any, error) {
	key := TrendingKey(chain, timeframe)
	if cached, ok := c.store.Get(key); ok {
		metrics.CacheHits.Inc()
		return cached, nil
	}
	metrics.CacheMisses.Inc()

	payload, err := c.Fetcher.TrendingTokens(ctx, timeframe, chain)
	if err != nil {
		return nil, err
	}
	if _, failed := normalize.ErrorMessage(payload); !failed {
		c.store.Set(key, payload)
	}
	return payload, nil
}
