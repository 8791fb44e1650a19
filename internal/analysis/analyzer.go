// Package analysis runs the per-symbol pipeline and fans it out over a
// bounded worker pool for batch runs.
package analysis

import (
	"context"
	"time"

	"github.com/wonny/tatracker/internal/contracts"
	"github.com/wonny/tatracker/internal/indicators"
	"github.com/wonny/tatracker/internal/marketdata"
	"github.com/wonny/tatracker/internal/rating"
	"github.com/wonny/tatracker/internal/signals"
	"github.com/wonny/tatracker/pkg/config"
	"github.com/wonny/tatracker/pkg/logger"
)

// Analyzer evaluates one symbol end to end: fetch bars, compute
// indicators, derive signals and build the rating history.
type Analyzer struct {
	router   *marketdata.Router
	engine   *indicators.Engine
	logger   *logger.Logger
	lookback time.Duration
}

func NewAnalyzer(cfg *config.Config, router *marketdata.Router, log *logger.Logger) *Analyzer {
	return &Analyzer{
		router:   router,
		engine:   indicators.NewEngine(log),
		logger:   log.WithField("component", "analysis"),
		lookback: time.Duration(cfg.Analysis.PeriodDays) * 24 * time.Hour,
	}
}

// Analyze runs the pipeline for one symbol as of the requested date.
// The date is clamped to the last trading day first. A series whose
// newest bar predates the evaluation date is analyzed anyway and the
// result is flagged stale.
func (a *Analyzer) Analyze(ctx context.Context, sym contracts.Symbol, requested time.Time) contracts.AnalysisResult {
	result := contracts.AnalysisResult{Symbol: sym}

	evalDate := contracts.ValidTradingDate(requested, time.Now())
	from := evalDate.Add(-a.lookback)

	series, err := a.router.Fetch(ctx, sym, from, evalDate)
	if err != nil {
		a.logger.WithField("ticker", sym.Ticker).WithError(err).Error("fetch failed")
		result.Err = err.Error()
		return result
	}

	series = series.Through(evalDate)
	last, ok := series.Last()
	if !ok {
		result.Err = contracts.ErrDataUnavailable.Error()
		return result
	}

	effective := evalDate
	if !series.Covers(evalDate) {
		warn := &contracts.StaleDataWarning{
			Ticker:    sym.Ticker,
			Requested: evalDate.Format("2006-01-02"),
			Latest:    last.Date.Format("2006-01-02"),
		}
		a.logger.WithField("ticker", sym.Ticker).Warn(warn.Error())
		result.Stale = true
		effective = last.Date
	}

	snapshots := a.engine.Compute(series)

	snap, ok := indicators.SnapshotAt(snapshots, effective)
	if !ok {
		result.Err = contracts.ErrDataUnavailable.Error()
		return result
	}

	result.Snapshot = &snap
	result.Signals = signals.Evaluate(snap)
	result.Ratings = rating.History(snapshots, effective)
	result.PriceChangePct = rating.PriceChange(series.Through(effective))

	return result
}
