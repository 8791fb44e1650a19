// Package jobs holds the scheduled job implementations.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/tatracker/internal/contracts"
	"github.com/wonny/tatracker/pkg/logger"
)

// BatchRunner runs the analysis pipeline over a symbol list.
type BatchRunner interface {
	Run(ctx context.Context, syms []contracts.Symbol, date time.Time, progress contracts.ProgressFunc) []contracts.AnalysisResult
}

// CacheInvalidator clears cached price series before the refresh.
type CacheInvalidator interface {
	Invalidate()
}

// RatingStore persists the per-symbol rating records. Optional.
type RatingStore interface {
	SaveBatch(ctx context.Context, ticker string, recs []contracts.RatingRecord) error
}

// RefreshJob re-analyzes the whole watchlist once per trading day,
// persists the ratings and publishes the results to the API layer.
type RefreshJob struct {
	runner   BatchRunner
	cache    CacheInvalidator
	store    RatingStore
	symbols  []contracts.Symbol
	publish  func([]contracts.AnalysisResult)
	schedule string
	logger   *logger.Logger
}

func NewRefreshJob(runner BatchRunner, cache CacheInvalidator, store RatingStore,
	symbols []contracts.Symbol, publish func([]contracts.AnalysisResult),
	schedule string, log *logger.Logger) *RefreshJob {
	return &RefreshJob{
		runner:   runner,
		cache:    cache,
		store:    store,
		symbols:  symbols,
		publish:  publish,
		schedule: schedule,
		logger:   log.WithField("job", "daily_refresh"),
	}
}

func (j *RefreshJob) Name() string { return "daily_refresh" }

func (j *RefreshJob) Schedule() string { return j.schedule }

// Run performs the refresh. A batch where every symbol failed is
// treated as a job failure so the scheduler retries it; partial
// failures are logged and published as-is.
func (j *RefreshJob) Run(ctx context.Context) error {
	j.cache.Invalidate()

	results := j.runner.Run(ctx, j.symbols, time.Now(), nil)

	failed := 0
	for _, res := range results {
		if res.Failed() {
			failed++
			continue
		}
		if j.store != nil {
			if err := j.store.SaveBatch(ctx, res.Symbol.Ticker, res.Ratings); err != nil {
				j.logger.WithField("ticker", res.Symbol.Ticker).WithError(err).
					Error("failed to persist ratings")
			}
		}
	}

	if len(results) > 0 && failed == len(results) {
		return fmt.Errorf("refresh failed for all %d symbols", failed)
	}

	if j.publish != nil {
		j.publish(results)
	}

	j.logger.WithFields(map[string]interface{}{
		"symbols": len(results),
		"failed":  failed,
	}).Info("watchlist refresh completed")

	return nil
}
