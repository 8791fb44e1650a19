package analysis

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/wonny/tatracker/internal/contracts"
	"github.com/wonny/tatracker/pkg/config"
	"github.com/wonny/tatracker/pkg/logger"
)

type stubAnalyzer struct {
	mu    sync.Mutex
	seen  []string
	fail  map[string]error
	delay time.Duration
}

func (s *stubAnalyzer) Analyze(ctx context.Context, sym contracts.Symbol, date time.Time) contracts.AnalysisResult {
	if s.delay > 0 {
		time.Sleep(s.delay)
	}

	s.mu.Lock()
	s.seen = append(s.seen, sym.Ticker)
	s.mu.Unlock()

	if err, ok := s.fail[sym.Ticker]; ok {
		return contracts.AnalysisResult{Symbol: sym, Err: err.Error()}
	}
	return contracts.AnalysisResult{
		Symbol:  sym,
		Ratings: []contracts.RatingRecord{{Date: date, Rating1: 1}},
	}
}

func testOrchestrator(workers int, analyzer SymbolAnalyzer) *Orchestrator {
	cfg := &config.Config{LogLevel: "error"}
	cfg.Analysis.Workers = workers
	return NewOrchestrator(cfg, analyzer, logger.New(cfg))
}

func symbolList(n int) []contracts.Symbol {
	syms := make([]contracts.Symbol, n)
	for i := range syms {
		syms[i] = contracts.Symbol{Ticker: fmt.Sprintf("T%03d", i), Exchange: "HOSE"}
	}
	return syms
}

func TestRunPreservesOrder(t *testing.T) {
	syms := symbolList(40)
	o := testOrchestrator(15, &stubAnalyzer{delay: time.Millisecond})

	results := o.Run(context.Background(), syms, time.Now(), nil)

	if len(results) != len(syms) {
		t.Fatalf("Run() returned %d results, want %d", len(results), len(syms))
	}
	for i, r := range results {
		if r.Symbol.Ticker != syms[i].Ticker {
			t.Errorf("Run() result[%d] = %s, want %s", i, r.Symbol.Ticker, syms[i].Ticker)
		}
	}
}

func TestRunIsolatesFailures(t *testing.T) {
	syms := symbolList(10)
	stub := &stubAnalyzer{fail: map[string]error{
		"T003": errors.New("no data"),
		"T007": errors.New("timeout"),
	}}

	results := testOrchestrator(4, stub).Run(context.Background(), syms, time.Now(), nil)

	for i, r := range results {
		wantFail := i == 3 || i == 7
		if r.Failed() != wantFail {
			t.Errorf("Run() result[%d] Failed() = %v, want %v (err=%q)", i, r.Failed(), wantFail, r.Err)
		}
	}
}

func TestRunProgress(t *testing.T) {
	syms := symbolList(20)

	var mu sync.Mutex
	var counts []int
	progress := func(ticker string, completed, total int) {
		mu.Lock()
		defer mu.Unlock()
		if total != len(syms) {
			t.Errorf("progress total = %d, want %d", total, len(syms))
		}
		counts = append(counts, completed)
	}

	testOrchestrator(5, &stubAnalyzer{delay: time.Millisecond}).
		Run(context.Background(), syms, time.Now(), progress)

	if len(counts) != len(syms) {
		t.Fatalf("progress called %d times, want %d", len(counts), len(syms))
	}

	seen := make(map[int]bool)
	max := 0
	for _, c := range counts {
		if c < 1 || c > len(syms) {
			t.Errorf("progress count %d out of range", c)
		}
		if seen[c] {
			t.Errorf("progress count %d reported twice", c)
		}
		seen[c] = true
		if c > max {
			max = c
		}
	}
	if max != len(syms) {
		t.Errorf("progress never reached total: max %d", max)
	}
}

func TestRunCancelledContext(t *testing.T) {
	syms := symbolList(8)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := testOrchestrator(2, &stubAnalyzer{}).Run(ctx, syms, time.Now(), nil)

	for i, r := range results {
		if !r.Failed() {
			t.Errorf("Run() result[%d] did not fail under a cancelled context", i)
		}
	}
}

func TestRunBoundedConcurrency(t *testing.T) {
	var active, peak int64
	var mu sync.Mutex

	analyzer := analyzeFunc(func(ctx context.Context, sym contracts.Symbol, date time.Time) contracts.AnalysisResult {
		mu.Lock()
		active++
		if active > peak {
			peak = active
		}
		mu.Unlock()

		time.Sleep(2 * time.Millisecond)

		mu.Lock()
		active--
		mu.Unlock()
		return contracts.AnalysisResult{Symbol: sym}
	})

	testOrchestrator(3, analyzer).Run(context.Background(), symbolList(30), time.Now(), nil)

	if peak > 3 {
		t.Errorf("worker pool ran %d analyses at once, want at most 3", peak)
	}
}

type analyzeFunc func(ctx context.Context, sym contracts.Symbol, date time.Time) contracts.AnalysisResult

func (f analyzeFunc) Analyze(ctx context.Context, sym contracts.Symbol, date time.Time) contracts.AnalysisResult {
	return f(ctx, sym, date)
}
