package marketdata

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/wonny/tatracker/internal/contracts"
	"github.com/wonny/tatracker/internal/metrics"
	"github.com/wonny/tatracker/pkg/config"
	"github.com/wonny/tatracker/pkg/logger"
)

// Policy controls cache behavior on a failed refresh.
type Policy struct {
	// AllowStale returns the previous entry when a refresh fails
	// instead of propagating the error.
	AllowStale bool
}

// Cache memoizes provider responses per (ticker, provider) key with a
// TTL that depends on the provider: API-backed sources refresh within
// minutes, the sheets feed updates once per day.
//
// Concurrent requests for the same key share a single in-flight fetch.
type Cache struct {
	ttls       map[string]time.Duration
	defaultTTL time.Duration
	logger     *logger.Logger

	mu      sync.RWMutex
	entries map[string]cacheEntry

	group singleflight.Group

	// now is replaceable in tests
	now func() time.Time
}

type cacheEntry struct {
	series    contracts.PriceSeries
	fetchedAt time.Time
}

// NewCache creates a cache with per-provider TTLs from config.
func NewCache(cfg *config.Config, log *logger.Logger) *Cache {
	return &Cache{
		ttls: map[string]time.Duration{
			"tcbs":   cfg.Providers.APICacheTTL,
			"vci":    cfg.Providers.APICacheTTL,
			"yahoo":  cfg.Providers.APICacheTTL,
			"sheets": cfg.Providers.SheetsCacheTTL,
		},
		defaultTTL: cfg.Providers.APICacheTTL,
		logger:     log.WithField("module", "marketdata_cache"),
		entries:    make(map[string]cacheEntry),
		now:        time.Now,
	}
}

// TTLFor returns the TTL applied to a provider's entries.
func (c *Cache) TTLFor(provider string) time.Duration {
	if ttl, ok := c.ttls[provider]; ok {
		return ttl
	}
	return c.defaultTTL
}

// GetOrFetch returns the cached series for (ticker, provider) when it
// is still within TTL; otherwise it fetches, caches and returns. At
// most one fetch per key is in flight at a time; concurrent callers
// wait for and share its result.
//
// On a failed refresh the stale entry is left untouched. The failure
// propagates unless the policy permits serving stale data.
func (c *Cache) GetOrFetch(ctx context.Context, ticker string, provider Provider, from, to time.Time, policy Policy) (contracts.PriceSeries, error) {
	key := cacheKey(ticker, provider.Name())

	if series, ok := c.lookup(key, provider.Name()); ok {
		metrics.CacheHits.Inc()
		return series, nil
	}
	metrics.CacheMisses.Inc()

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		// A waiter may arrive after the winner already refreshed.
		if series, ok := c.lookup(key, provider.Name()); ok {
			return series, nil
		}

		series, err := provider.FetchDaily(ctx, ticker, from, to)
		if err != nil {
			return nil, err
		}

		c.store(key, series)
		return series, nil
	})
	if err != nil {
		if policy.AllowStale {
			if stale, ok := c.lookupStale(key); ok {
				c.logger.WithFields(map[string]interface{}{
					"ticker":   ticker,
					"provider": provider.Name(),
				}).Warn("Serving stale cached series after refresh failure")
				return stale, nil
			}
		}
		return nil, err
	}

	return v.(contracts.PriceSeries), nil
}

// Invalidate drops every cached entry. The scheduler calls this before
// a refresh run so the batch sees provider data fetched today.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cacheEntry)
}

// InvalidateTicker drops all cached entries for one ticker.
func (c *Cache) InvalidateTicker(ticker string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.entries {
		if keyTicker(key) == ticker {
			delete(c.entries, key)
		}
	}
}

// Len returns the number of live entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *Cache) lookup(key, provider string) (contracts.PriceSeries, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().Sub(entry.fetchedAt) >= c.TTLFor(provider) {
		return nil, false
	}
	return entry.series, true
}

func (c *Cache) lookupStale(key string) (contracts.PriceSeries, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	return entry.series, true
}

func (c *Cache) store(key string, series contracts.PriceSeries) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{series: series, fetchedAt: c.now()}
}

func cacheKey(ticker, provider string) string {
	return fmt.Sprintf("%s|%s", ticker, provider)
}

func keyTicker(key string) string {
	for i := 0; i < len(key); i++ {
		if key[i] == '|' {
			return key[:i]
		}
	}
	return key
}
