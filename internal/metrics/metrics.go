package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Prometheus metrics for the analysis pipeline.
var (
	ProviderFetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tatracker_provider_fetches_total",
		Help: "Provider fetch outcomes after retries, per provider",
	}, []string{"provider", "status"})

	CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tatracker_cache_hits_total",
		Help: "Market data cache hits",
	})

	CacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tatracker_cache_misses_total",
		Help: "Market data cache misses",
	})

	BatchRuns = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tatracker_batch_runs_total",
		Help: "Completed analysis batch runs",
	})

	BatchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tatracker_batch_duration_seconds",
		Help:    "Wall time of a full analysis batch",
		Buckets: prometheus.ExponentialBuckets(1, 2, 10),
	})

	SymbolsAnalyzed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tatracker_symbols_analyzed_total",
		Help: "Symbols that produced a rating",
	})

	SymbolsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tatracker_symbols_failed_total",
		Help: "Symbols whose pipeline ended in an error",
	})
)

// Handler returns the HTTP handler serving the metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
