package marketdata

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/wonny/tatracker/internal/contracts"
	"github.com/wonny/tatracker/internal/external/yahoo"
	"github.com/wonny/tatracker/internal/metrics"
	"github.com/wonny/tatracker/pkg/config"
	"github.com/wonny/tatracker/pkg/logger"
)

// Router selects providers per symbol class and walks the fallback
// chain. Each candidate is retried a fixed number of times with a fixed
// delay before the router advances; the sheets index class is pinned to
// its single provider and never falls back.
type Router struct {
	cache     *Cache
	providers Providers
	logger    *logger.Logger

	retryCount int
	retryDelay time.Duration
}

// candidate pairs a provider with the ticker notation it expects.
type candidate struct {
	provider Provider
	ticker   string
}

// NewRouter creates a router over the given providers.
func NewRouter(cfg *config.Config, cache *Cache, providers Providers, log *logger.Logger) *Router {
	return &Router{
		cache:      cache,
		providers:  providers,
		logger:     log.WithField("module", "marketdata_router"),
		retryCount: cfg.Analysis.RetryCount,
		retryDelay: cfg.Analysis.RetryDelay,
	}
}

// candidates returns the ordered provider chain for a symbol.
func (r *Router) candidates(sym contracts.Symbol) []candidate {
	ticker := strings.ToUpper(strings.TrimSpace(sym.Ticker))

	if sym.Provider != "" {
		if p := r.providerByName(sym.Provider); p != nil {
			return []candidate{{provider: p, ticker: r.tickerFor(p, sym)}}
		}
		r.logger.WithFields(map[string]interface{}{
			"ticker":   sym.Ticker,
			"provider": sym.Provider,
		}).Warn("Unknown provider override, using class routing")
	}

	switch sym.Class() {
	case contracts.ClassSheetsIndex:
		// Exclusive: hand-maintained sheet only, never a fallback.
		return []candidate{
			{provider: r.providers.Sheets, ticker: "VNMIDCAP"},
		}

	case contracts.ClassDomesticIndex:
		return []candidate{
			{provider: r.providers.TCBS, ticker: ticker},
			{provider: r.providers.VCI, ticker: ticker},
			{provider: r.providers.Yahoo, ticker: yahoo.FormatTicker(sym.Ticker, sym.Exchange)},
		}

	case contracts.ClassDomesticStock:
		return []candidate{
			{provider: r.providers.TCBS, ticker: ticker},
			{provider: r.providers.Yahoo, ticker: yahoo.FormatTicker(sym.Ticker, sym.Exchange)},
		}

	default:
		return []candidate{
			{provider: r.providers.Yahoo, ticker: yahoo.FormatTicker(sym.Ticker, sym.Exchange)},
		}
	}
}

func (r *Router) providerByName(name string) Provider {
	switch strings.ToLower(name) {
	case "tcbs":
		return r.providers.TCBS
	case "vci":
		return r.providers.VCI
	case "sheets":
		return r.providers.Sheets
	case "yahoo":
		return r.providers.Yahoo
	default:
		return nil
	}
}

func (r *Router) tickerFor(p Provider, sym contracts.Symbol) string {
	switch p {
	case r.providers.Yahoo:
		return yahoo.FormatTicker(sym.Ticker, sym.Exchange)
	case r.providers.Sheets:
		return "VNMIDCAP"
	default:
		return strings.ToUpper(strings.TrimSpace(sym.Ticker))
	}
}

// Fetch returns a valid daily series for a symbol or a terminal
// DataUnavailableError once every candidate is exhausted. A provider
// attempt succeeds only when it yields a non-empty, date-valid series;
// empty or malformed responses feed the fallback chain.
func (r *Router) Fetch(ctx context.Context, sym contracts.Symbol, from, to time.Time) (contracts.PriceSeries, error) {
	cands := r.candidates(sym)

	var tried []string
	var lastErr error

	for _, cand := range cands {
		tried = append(tried, cand.provider.Name())

		series, err := r.fetchWithRetry(ctx, cand, from, to)
		if err == nil {
			metrics.ProviderFetches.WithLabelValues(cand.provider.Name(), "ok").Inc()
			return series, nil
		}

		metrics.ProviderFetches.WithLabelValues(cand.provider.Name(), "error").Inc()
		lastErr = err

		r.logger.WithError(err).WithFields(map[string]interface{}{
			"ticker":   sym.Ticker,
			"provider": cand.provider.Name(),
		}).Warn("Provider failed, advancing fallback chain")

		if ctx.Err() != nil {
			break
		}
	}

	return nil, &contracts.DataUnavailableError{
		Ticker:    sym.Ticker,
		Providers: tried,
		Last:      lastErr,
	}
}

// fetchWithRetry attempts one candidate up to the retry limit with a
// fixed delay between attempts.
func (r *Router) fetchWithRetry(ctx context.Context, cand candidate, from, to time.Time) (contracts.PriceSeries, error) {
	var lastErr error

	for attempt := 1; attempt <= r.retryCount; attempt++ {
		series, err := r.cache.GetOrFetch(ctx, cand.ticker, cand.provider, from, to, Policy{})
		if err == nil {
			if len(series) == 0 {
				lastErr = fmt.Errorf("%s returned empty series for %s", cand.provider.Name(), cand.ticker)
			} else if !series.Valid() {
				lastErr = fmt.Errorf("%s returned invalid series for %s", cand.provider.Name(), cand.ticker)
			} else {
				return series, nil
			}
		} else {
			lastErr = err
		}

		if attempt < r.retryCount {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(r.retryDelay):
			}
		}
	}

	return nil, lastErr
}
