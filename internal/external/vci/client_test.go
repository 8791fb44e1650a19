package vci

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/wonny/tatracker/internal/contracts"
	"github.com/wonny/tatracker/pkg/config"
	"github.com/wonny/tatracker/pkg/httputil"
	"github.com/wonny/tatracker/pkg/logger"
)

func newTestClient(baseURL string) *Client {
	cfg := &config.Config{
		Env:      "development",
		LogLevel: "error",
		Providers: config.ProviderConfig{
			VCIBaseURL:    baseURL,
			RatePerSecond: 100,
		},
	}
	log := logger.New(cfg)
	return NewClient(cfg, httputil.New(cfg, log).DisableRetry(), log)
}

func TestFetchDaily(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Expected POST, got %s", r.Method)
		}

		var req chartRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("Failed to decode request body: %v", err)
		}
		if req.TimeFrame != "ONE_DAY" {
			t.Errorf("Expected timeFrame ONE_DAY, got %s", req.TimeFrame)
		}
		if len(req.Symbols) != 1 || req.Symbols[0] != "VNINDEX" {
			t.Errorf("Unexpected symbols: %v", req.Symbols)
		}

		day1 := time.Date(2025, 3, 6, 0, 0, 0, 0, time.UTC).Unix()
		day2 := time.Date(2025, 3, 7, 0, 0, 0, 0, time.UTC).Unix()
		resp := []chartSeries{{
			Symbol: "VNINDEX",
			O:      []float64{1300.1, 1305.4},
			H:      []float64{1310.0, 1312.2},
			L:      []float64{1295.5, 1301.0},
			C:      []float64{1305.4, 1308.8},
			V:      []float64{500000, 620000},
			T:      []int64{day1, day2},
		}}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	from := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 3, 8, 0, 0, 0, 0, time.UTC)

	series, err := client.FetchDaily(context.Background(), "VNINDEX", from, to)
	if err != nil {
		t.Fatalf("FetchDaily failed: %v", err)
	}

	if len(series) != 2 {
		t.Fatalf("Expected 2 bars, got %d", len(series))
	}
	if series[1].Close != 1308.8 {
		t.Errorf("Expected latest close 1308.8, got %v", series[1].Close)
	}
}

func TestParseChartRaggedArrays(t *testing.T) {
	client := newTestClient("http://unused")

	body := `[{"symbol":"VNINDEX","o":[1,2],"h":[1,2],"l":[1,2],"c":[1,2],"v":[1],"t":[100,200]}]`
	_, err := client.parseChart([]byte(body), "VNINDEX")

	var parseErr *contracts.ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("Expected ParseError for ragged arrays, got %v", err)
	}
}

func TestParseChartNoMatchingSymbol(t *testing.T) {
	client := newTestClient("http://unused")

	// A response without the requested symbol must fail rather than
	// yield an empty series the cache would hold for a full TTL.
	body := `[{"symbol":"HNXINDEX","o":[1],"h":[1],"l":[1],"c":[1],"v":[1],"t":[100]}]`
	_, err := client.parseChart([]byte(body), "VNINDEX")

	var parseErr *contracts.ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("Expected ParseError for missing symbol, got %v", err)
	}
}

func TestParseChartEmptySymbolMatchesAny(t *testing.T) {
	client := newTestClient("http://unused")

	body := `[{"o":[1.5],"h":[2.0],"l":[1.0],"c":[1.8],"v":[100],"t":[1741219200]}]`
	series, err := client.parseChart([]byte(body), "VNINDEX")
	if err != nil {
		t.Fatalf("parseChart failed: %v", err)
	}
	if len(series) != 1 {
		t.Fatalf("Expected 1 bar, got %d", len(series))
	}
}

func TestFixFutureDates(t *testing.T) {
	future := time.Now().AddDate(1, 0, 0)
	futureDay := time.Date(future.Year(), future.Month(), future.Day(), 0, 0, 0, 0, time.UTC)

	series := contracts.PriceSeries{
		{Date: futureDay.AddDate(0, 0, -1), Close: 100},
		{Date: futureDay, Close: 101},
	}

	fixed := fixFutureDates(series)
	last, _ := fixed.Last()
	if last.Date.After(time.Now()) {
		t.Errorf("Expected dates shifted back a year, got %v", last.Date)
	}
	if last.Date.Year() != futureDay.Year()-1 {
		t.Errorf("Expected year %d, got %d", futureDay.Year()-1, last.Date.Year())
	}
}

func TestFixFutureDatesLeavesPastAlone(t *testing.T) {
	day := time.Date(2025, 3, 7, 0, 0, 0, 0, time.UTC)
	series := contracts.PriceSeries{{Date: day, Close: 100}}

	fixed := fixFutureDates(series)
	if !fixed[0].Date.Equal(day) {
		t.Errorf("Expected date unchanged, got %v", fixed[0].Date)
	}
}
