// Package handlers contains the HTTP endpoint implementations.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/tatracker/internal/contracts"
	"github.com/wonny/tatracker/internal/rating"
	"github.com/wonny/tatracker/internal/stocklist"
	"github.com/wonny/tatracker/pkg/logger"
)

// BatchRunner runs the analysis pipeline over a symbol list.
type BatchRunner interface {
	Run(ctx context.Context, syms []contracts.Symbol, date time.Time, progress contracts.ProgressFunc) []contracts.AnalysisResult
}

// CacheInvalidator clears cached price series before a forced refresh.
type CacheInvalidator interface {
	Invalidate()
}

// HistoryStore reads persisted rating history. Optional; nil when no
// database is configured.
type HistoryStore interface {
	GetHistory(ctx context.Context, ticker string, before time.Time, limit int) ([]contracts.RatingRecord, error)
}

// AnalysisHandler serves analysis results and drives refresh runs.
type AnalysisHandler struct {
	runner   BatchRunner
	list     *stocklist.List
	cache    CacheInvalidator
	history  HistoryStore
	progress contracts.ProgressFunc
	logger   *logger.Logger

	mu      sync.RWMutex
	results []contracts.AnalysisResult
	lastRun time.Time
	running bool
}

func NewAnalysisHandler(runner BatchRunner, list *stocklist.List, cache CacheInvalidator,
	history HistoryStore, progress contracts.ProgressFunc, log *logger.Logger) *AnalysisHandler {
	return &AnalysisHandler{
		runner:   runner,
		list:     list,
		cache:    cache,
		history:  history,
		progress: progress,
		logger:   log.WithField("component", "api"),
	}
}

// GetAnalysis returns the most recent batch results, optionally
// filtered by sector or ticker.
func (h *AnalysisHandler) GetAnalysis(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	results, lastRun := h.results, h.lastRun
	h.mu.RUnlock()

	if results == nil {
		respondError(w, http.StatusNotFound, "no analysis run yet")
		return
	}

	sector := r.URL.Query().Get("sector")
	ticker := strings.ToUpper(r.URL.Query().Get("ticker"))

	filtered := make([]contracts.AnalysisResult, 0, len(results))
	for _, res := range results {
		if sector != "" && sector != "All" && res.Symbol.Sector != sector {
			continue
		}
		if ticker != "" && res.Symbol.Ticker != ticker {
			continue
		}
		filtered = append(filtered, res)
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"as_of":   lastRun,
		"count":   len(filtered),
		"results": filtered,
	})
}

// Refresh invalidates the price cache and starts a new batch run in the
// background. A run already in flight is reported, not duplicated.
func (h *AnalysisHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	if h.running {
		h.mu.Unlock()
		respondError(w, http.StatusConflict, "refresh already running")
		return
	}
	h.running = true
	h.mu.Unlock()

	h.cache.Invalidate()

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
		defer cancel()

		results := h.runner.Run(ctx, h.list.Symbols, time.Now(), h.progress)

		h.mu.Lock()
		h.results = results
		h.lastRun = time.Now()
		h.running = false
		h.mu.Unlock()
	}()

	respondJSON(w, http.StatusAccepted, map[string]interface{}{
		"status":  "started",
		"symbols": len(h.list.Symbols),
	})
}

// GetStockList returns the tracked universe grouped by sector.
func (h *AnalysisHandler) GetStockList(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"sectors": h.list.Sectors(),
		"symbols": h.list.Symbols,
	})
}

// GetHistory returns the rating history for one ticker. It prefers the
// persisted store and falls back to the last in-memory run.
func (h *AnalysisHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	ticker := strings.ToUpper(mux.Vars(r)["ticker"])
	if _, ok := h.list.Find(ticker); !ok {
		respondError(w, http.StatusNotFound, "unknown ticker")
		return
	}

	if h.history != nil {
		records, err := h.history.GetHistory(r.Context(), ticker, time.Now(), rating.HistoryDays)
		if err == nil && len(records) > 0 {
			respondJSON(w, http.StatusOK, map[string]interface{}{
				"ticker":  ticker,
				"ratings": records,
			})
			return
		}
		if err != nil {
			h.logger.WithField("ticker", ticker).WithError(err).Warn("history store read failed")
		}
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, res := range h.results {
		if res.Symbol.Ticker == ticker {
			respondJSON(w, http.StatusOK, map[string]interface{}{
				"ticker":  ticker,
				"ratings": res.Ratings,
			})
			return
		}
	}

	respondError(w, http.StatusNotFound, "no history for ticker")
}

// SeedResults installs batch results produced outside the HTTP surface,
// such as the scheduled refresh job.
func (h *AnalysisHandler) SeedResults(results []contracts.AnalysisResult) {
	h.mu.Lock()
	h.results = results
	h.lastRun = time.Now()
	h.mu.Unlock()
}

func respondJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}
