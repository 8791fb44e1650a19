package analysis

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/wonny/tatracker/internal/contracts"
	"github.com/wonny/tatracker/internal/metrics"
	"github.com/wonny/tatracker/pkg/config"
	"github.com/wonny/tatracker/pkg/logger"
)

// SymbolAnalyzer is the per-symbol pipeline the orchestrator fans out.
type SymbolAnalyzer interface {
	Analyze(ctx context.Context, sym contracts.Symbol, date time.Time) contracts.AnalysisResult
}

// Orchestrator fans a watchlist out over a bounded worker pool. Results
// come back in watchlist order regardless of completion order, and one
// symbol failing never takes down the batch.
type Orchestrator struct {
	analyzer SymbolAnalyzer
	workers  int
	logger   *logger.Logger
}

func NewOrchestrator(cfg *config.Config, analyzer SymbolAnalyzer, log *logger.Logger) *Orchestrator {
	workers := cfg.Analysis.Workers
	if workers < 1 {
		workers = 1
	}
	return &Orchestrator{
		analyzer: analyzer,
		workers:  workers,
		logger:   log.WithField("component", "orchestrator"),
	}
}

type job struct {
	index int
	sym   contracts.Symbol
}

// Run analyzes every symbol as of the given date. The progress callback
// may be nil. The returned slice has one entry per input symbol, in
// input order; failed symbols carry their error in the Err field.
func (o *Orchestrator) Run(ctx context.Context, syms []contracts.Symbol, date time.Time, progress contracts.ProgressFunc) []contracts.AnalysisResult {
	runID := uuid.NewString()
	started := time.Now()

	log := o.logger.WithFields(map[string]interface{}{
		"run_id":  runID,
		"symbols": len(syms),
		"workers": o.workers,
	})
	log.Info("starting batch analysis")
	metrics.BatchRuns.Inc()

	results := make([]contracts.AnalysisResult, len(syms))
	jobs := make(chan job, len(syms))

	var completed atomic.Int64
	total := len(syms)

	var wg sync.WaitGroup
	for w := 0; w < o.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				select {
				case <-ctx.Done():
					results[j.index] = contracts.AnalysisResult{
						Symbol: j.sym,
						Err:    ctx.Err().Error(),
					}
				default:
					results[j.index] = o.analyzer.Analyze(ctx, j.sym, date)
				}

				done := int(completed.Add(1))
				if progress != nil {
					progress(j.sym.Ticker, done, total)
				}
			}
		}()
	}

	for i, sym := range syms {
		jobs <- job{index: i, sym: sym}
	}
	close(jobs)
	wg.Wait()

	failed := 0
	for _, r := range results {
		if r.Failed() {
			failed++
		}
	}
	metrics.SymbolsAnalyzed.Add(float64(total - failed))
	metrics.SymbolsFailed.Add(float64(failed))
	metrics.BatchDuration.Observe(time.Since(started).Seconds())

	log.WithFields(map[string]interface{}{
		"failed":   failed,
		"duration": time.Since(started).String(),
	}).Info("batch analysis completed")

	return results
}
