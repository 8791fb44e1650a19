package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/tatracker/internal/contracts"
	"github.com/wonny/tatracker/internal/stocklist"
	"github.com/wonny/tatracker/pkg/config"
	"github.com/wonny/tatracker/pkg/logger"
)

type stubRunner struct {
	block   chan struct{}
	results []contracts.AnalysisResult
}

func (s *stubRunner) Run(ctx context.Context, syms []contracts.Symbol, date time.Time, progress contracts.ProgressFunc) []contracts.AnalysisResult {
	if s.block != nil {
		<-s.block
	}
	if progress != nil {
		for i, sym := range syms {
			progress(sym.Ticker, i+1, len(syms))
		}
	}
	return s.results
}

type stubCache struct{ invalidated int }

func (s *stubCache) Invalidate() { s.invalidated++ }

func testList() *stocklist.List {
	return &stocklist.List{Symbols: []contracts.Symbol{
		{Ticker: "VCB", Sector: "Banking", Exchange: "HOSE"},
		{Ticker: "FPT", Sector: "Tech", Exchange: "HOSE"},
	}}
}

func testHandler(runner BatchRunner, cache CacheInvalidator) *AnalysisHandler {
	log := logger.New(&config.Config{LogLevel: "error"})
	return NewAnalysisHandler(runner, testList(), cache, nil, nil, log)
}

func seededResults() []contracts.AnalysisResult {
	return []contracts.AnalysisResult{
		{
			Symbol:  contracts.Symbol{Ticker: "VCB", Sector: "Banking", Exchange: "HOSE"},
			Ratings: []contracts.RatingRecord{{Rating1: 5, Rating2: 7}},
		},
		{
			Symbol: contracts.Symbol{Ticker: "FPT", Sector: "Tech", Exchange: "HOSE"},
			Err:    "no data",
		},
	}
}

func TestGetAnalysisBeforeFirstRun(t *testing.T) {
	h := testHandler(&stubRunner{}, &stubCache{})

	rec := httptest.NewRecorder()
	h.GetAnalysis(rec, httptest.NewRequest("GET", "/api/analysis", nil))

	if rec.Code != http.StatusNotFound {
		t.Errorf("GetAnalysis() status = %d, want 404", rec.Code)
	}
}

func TestGetAnalysisSectorFilter(t *testing.T) {
	h := testHandler(&stubRunner{}, &stubCache{})
	h.SeedResults(seededResults())

	rec := httptest.NewRecorder()
	h.GetAnalysis(rec, httptest.NewRequest("GET", "/api/analysis?sector=Banking", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("GetAnalysis() status = %d, want 200", rec.Code)
	}

	var body struct {
		Count   int                        `json:"count"`
		Results []contracts.AnalysisResult `json:"results"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Count != 1 || body.Results[0].Symbol.Ticker != "VCB" {
		t.Errorf("GetAnalysis(sector=Banking) = %+v", body)
	}
}

func TestRefreshInvalidatesAndRuns(t *testing.T) {
	cache := &stubCache{}
	h := testHandler(&stubRunner{results: seededResults()}, cache)

	rec := httptest.NewRecorder()
	h.Refresh(rec, httptest.NewRequest("POST", "/api/analysis/refresh", nil))

	if rec.Code != http.StatusAccepted {
		t.Fatalf("Refresh() status = %d, want 202", rec.Code)
	}
	if cache.invalidated != 1 {
		t.Errorf("Refresh() invalidated cache %d times, want 1", cache.invalidated)
	}

	// The run is async; wait for the results to land.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		rec := httptest.NewRecorder()
		h.GetAnalysis(rec, httptest.NewRequest("GET", "/api/analysis", nil))
		if rec.Code == http.StatusOK {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Error("Refresh() results never became available")
}

func TestRefreshConflict(t *testing.T) {
	block := make(chan struct{})
	h := testHandler(&stubRunner{block: block}, &stubCache{})

	first := httptest.NewRecorder()
	h.Refresh(first, httptest.NewRequest("POST", "/api/analysis/refresh", nil))
	if first.Code != http.StatusAccepted {
		t.Fatalf("first Refresh() status = %d, want 202", first.Code)
	}

	second := httptest.NewRecorder()
	h.Refresh(second, httptest.NewRequest("POST", "/api/analysis/refresh", nil))
	if second.Code != http.StatusConflict {
		t.Errorf("second Refresh() status = %d, want 409", second.Code)
	}

	close(block)
}

func TestGetStockList(t *testing.T) {
	h := testHandler(&stubRunner{}, &stubCache{})

	rec := httptest.NewRecorder()
	h.GetStockList(rec, httptest.NewRequest("GET", "/api/stocklist", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("GetStockList() status = %d, want 200", rec.Code)
	}

	var body struct {
		Sectors []string           `json:"sectors"`
		Symbols []contracts.Symbol `json:"symbols"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if len(body.Sectors) != 2 || len(body.Symbols) != 2 {
		t.Errorf("GetStockList() = %+v", body)
	}
}

func TestGetHistoryFromMemory(t *testing.T) {
	h := testHandler(&stubRunner{}, &stubCache{})
	h.SeedResults(seededResults())

	req := mux.SetURLVars(httptest.NewRequest("GET", "/api/history/vcb", nil),
		map[string]string{"ticker": "vcb"})
	rec := httptest.NewRecorder()
	h.GetHistory(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("GetHistory() status = %d, want 200", rec.Code)
	}

	var body struct {
		Ticker  string                   `json:"ticker"`
		Ratings []contracts.RatingRecord `json:"ratings"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Ticker != "VCB" || len(body.Ratings) != 1 || body.Ratings[0].Rating1 != 5 {
		t.Errorf("GetHistory() = %+v", body)
	}
}

func TestGetHistoryUnknownTicker(t *testing.T) {
	h := testHandler(&stubRunner{}, &stubCache{})

	req := mux.SetURLVars(httptest.NewRequest("GET", "/api/history/ZZZ", nil),
		map[string]string{"ticker": "ZZZ"})
	rec := httptest.NewRecorder()
	h.GetHistory(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("GetHistory(unknown) status = %d, want 404", rec.Code)
	}
}
