package marketdata

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/wonny/tatracker/internal/contracts"
	"github.com/wonny/tatracker/pkg/config"
	"github.com/wonny/tatracker/pkg/logger"
)

// fakeProvider counts fetches and returns a canned series or error.
type fakeProvider struct {
	name   string
	series contracts.PriceSeries
	err    error
	calls  atomic.Int64

	// block, when set, holds every fetch until released.
	block chan struct{}
}

func (p *fakeProvider) Name() string { return p.name }

func (p *fakeProvider) FetchDaily(ctx context.Context, ticker string, from, to time.Time) (contracts.PriceSeries, error) {
	p.calls.Add(1)
	if p.block != nil {
		<-p.block
	}
	if p.err != nil {
		return nil, p.err
	}
	return p.series, nil
}

func testSeries(days int) contracts.PriceSeries {
	start := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	series := make(contracts.PriceSeries, 0, days)
	for i := 0; i < days; i++ {
		series = append(series, contracts.PriceBar{
			Date:  start.AddDate(0, 0, i),
			Open:  100,
			High:  101,
			Low:   99,
			Close: 100.5,
		})
	}
	return series
}

func testCache(t *testing.T) *Cache {
	t.Helper()
	cfg := &config.Config{
		Env:      "development",
		LogLevel: "error",
		Providers: config.ProviderConfig{
			APICacheTTL:    5 * time.Minute,
			SheetsCacheTTL: 30 * time.Minute,
		},
	}
	return NewCache(cfg, logger.New(cfg))
}

func TestTTLFor(t *testing.T) {
	cache := testCache(t)

	if got := cache.TTLFor("tcbs"); got != 5*time.Minute {
		t.Errorf("tcbs TTL = %v, want 5m", got)
	}
	if got := cache.TTLFor("sheets"); got != 30*time.Minute {
		t.Errorf("sheets TTL = %v, want 30m", got)
	}
	if got := cache.TTLFor("unknown"); got != 5*time.Minute {
		t.Errorf("unknown provider TTL = %v, want default 5m", got)
	}
}

func TestGetOrFetchCachesWithinTTL(t *testing.T) {
	cache := testCache(t)
	provider := &fakeProvider{name: "tcbs", series: testSeries(3)}

	ctx := context.Background()
	from, to := time.Now().AddDate(0, -1, 0), time.Now()

	for i := 0; i < 3; i++ {
		series, err := cache.GetOrFetch(ctx, "VCB", provider, from, to, Policy{})
		if err != nil {
			t.Fatalf("GetOrFetch failed: %v", err)
		}
		if len(series) != 3 {
			t.Fatalf("Expected 3 bars, got %d", len(series))
		}
	}

	if got := provider.calls.Load(); got != 1 {
		t.Errorf("Expected 1 provider call, got %d", got)
	}
}

func TestGetOrFetchRefreshesAfterTTL(t *testing.T) {
	cache := testCache(t)
	provider := &fakeProvider{name: "tcbs", series: testSeries(3)}

	now := time.Date(2025, 3, 7, 9, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }

	ctx := context.Background()
	from, to := now.AddDate(0, -1, 0), now

	if _, err := cache.GetOrFetch(ctx, "VCB", provider, from, to, Policy{}); err != nil {
		t.Fatalf("GetOrFetch failed: %v", err)
	}

	// Advance past the API TTL.
	now = now.Add(6 * time.Minute)

	if _, err := cache.GetOrFetch(ctx, "VCB", provider, from, to, Policy{}); err != nil {
		t.Fatalf("GetOrFetch failed: %v", err)
	}

	if got := provider.calls.Load(); got != 2 {
		t.Errorf("Expected 2 provider calls after TTL expiry, got %d", got)
	}
}

func TestGetOrFetchDistinctProviders(t *testing.T) {
	cache := testCache(t)
	tcbs := &fakeProvider{name: "tcbs", series: testSeries(3)}
	yahooP := &fakeProvider{name: "yahoo", series: testSeries(5)}

	ctx := context.Background()
	from, to := time.Now().AddDate(0, -1, 0), time.Now()

	a, _ := cache.GetOrFetch(ctx, "VCB", tcbs, from, to, Policy{})
	b, _ := cache.GetOrFetch(ctx, "VCB", yahooP, from, to, Policy{})

	if len(a) == len(b) {
		t.Error("Expected separate cache entries per provider")
	}
	if cache.Len() != 2 {
		t.Errorf("Expected 2 entries, got %d", cache.Len())
	}
}

func TestGetOrFetchSingleFlight(t *testing.T) {
	cache := testCache(t)
	provider := &fakeProvider{
		name:   "tcbs",
		series: testSeries(3),
		block:  make(chan struct{}),
	}

	ctx := context.Background()
	from, to := time.Now().AddDate(0, -1, 0), time.Now()

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := cache.GetOrFetch(ctx, "VCB", provider, from, to, Policy{}); err != nil {
				t.Errorf("GetOrFetch failed: %v", err)
			}
		}()
	}

	// Give the goroutines a moment to pile onto the same key.
	time.Sleep(50 * time.Millisecond)
	close(provider.block)
	wg.Wait()

	if got := provider.calls.Load(); got != 1 {
		t.Errorf("Expected 1 shared fetch, got %d", got)
	}
}

func TestGetOrFetchErrorPropagates(t *testing.T) {
	cache := testCache(t)
	provider := &fakeProvider{name: "tcbs", err: errors.New("upstream down")}

	_, err := cache.GetOrFetch(context.Background(), "VCB", provider, time.Now().AddDate(0, -1, 0), time.Now(), Policy{})
	if err == nil {
		t.Fatal("Expected error from failed fetch")
	}
	if cache.Len() != 0 {
		t.Errorf("Expected no entry stored on failure, got %d", cache.Len())
	}
}

func TestGetOrFetchServesStaleOnFailure(t *testing.T) {
	cache := testCache(t)
	provider := &fakeProvider{name: "tcbs", series: testSeries(3)}

	now := time.Date(2025, 3, 7, 9, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }

	ctx := context.Background()
	from, to := now.AddDate(0, -1, 0), now

	if _, err := cache.GetOrFetch(ctx, "VCB", provider, from, to, Policy{}); err != nil {
		t.Fatalf("GetOrFetch failed: %v", err)
	}

	// Expire the entry, then break the provider.
	now = now.Add(10 * time.Minute)
	provider.err = errors.New("upstream down")

	series, err := cache.GetOrFetch(ctx, "VCB", provider, from, to, Policy{AllowStale: true})
	if err != nil {
		t.Fatalf("Expected stale series, got error: %v", err)
	}
	if len(series) != 3 {
		t.Errorf("Expected 3 stale bars, got %d", len(series))
	}

	// Without the policy the failure propagates.
	if _, err := cache.GetOrFetch(ctx, "VCB", provider, from, to, Policy{}); err == nil {
		t.Error("Expected error without AllowStale")
	}
}

func TestInvalidate(t *testing.T) {
	cache := testCache(t)
	provider := &fakeProvider{name: "tcbs", series: testSeries(3)}

	ctx := context.Background()
	from, to := time.Now().AddDate(0, -1, 0), time.Now()

	cache.GetOrFetch(ctx, "VCB", provider, from, to, Policy{})
	cache.GetOrFetch(ctx, "FPT", provider, from, to, Policy{})

	if cache.Len() != 2 {
		t.Fatalf("Expected 2 entries, got %d", cache.Len())
	}

	cache.InvalidateTicker("VCB")
	if cache.Len() != 1 {
		t.Errorf("Expected 1 entry after InvalidateTicker, got %d", cache.Len())
	}

	cache.Invalidate()
	if cache.Len() != 0 {
		t.Errorf("Expected empty cache after Invalidate, got %d", cache.Len())
	}
}
