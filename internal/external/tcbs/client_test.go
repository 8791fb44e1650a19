package tcbs

import (
	"context"
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
			TCBSBaseURL:   baseURL,
			RatePerSecond: 100,
		},
	}
	log := logger.New(cfg)
	return NewClient(cfg, httputil.New(cfg, log).DisableRetry(), log)
}

func TestFetchDaily(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("ticker") != "VCB" {
			t.Errorf("Expected ticker=VCB, got %s", q.Get("ticker"))
		}
		if q.Get("resolution") != "D" {
			t.Errorf("Expected resolution=D, got %s", q.Get("resolution"))
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"ticker": "VCB",
			"data": [
				{"open": 91.5, "high": 92.0, "low": 90.8, "close": 91.9, "volume": 1200000, "tradingDate": "2025-03-07T00:00:00.000Z"},
				{"open": 90.0, "high": 91.6, "low": 89.9, "close": 91.5, "volume": 980000, "tradingDate": "2025-03-06T00:00:00.000Z"}
			]
		}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	from := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 3, 8, 0, 0, 0, 0, time.UTC)

	series, err := client.FetchDaily(context.Background(), "VCB", from, to)
	if err != nil {
		t.Fatalf("FetchDaily failed: %v", err)
	}

	if len(series) != 2 {
		t.Fatalf("Expected 2 bars, got %d", len(series))
	}

	// Normalize sorts ascending regardless of payload order.
	if !series[0].Date.Before(series[1].Date) {
		t.Errorf("Expected ascending dates, got %v then %v", series[0].Date, series[1].Date)
	}
	if series[1].Close != 91.9 {
		t.Errorf("Expected latest close 91.9, got %v", series[1].Close)
	}
}

func TestFetchDailyErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	_, err := client.FetchDaily(context.Background(), "VCB", time.Now().AddDate(0, -1, 0), time.Now())
	if err == nil {
		t.Fatal("Expected error for non-200 status")
	}
}

func TestParseBarsInvalidJSON(t *testing.T) {
	client := newTestClient("http://unused")

	_, err := client.parseBars([]byte("not json"))
	var parseErr *contracts.ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("Expected ParseError, got %v", err)
	}
}

func TestParseBarsBadDate(t *testing.T) {
	client := newTestClient("http://unused")

	_, err := client.parseBars([]byte(`{"ticker":"VCB","data":[{"close":1,"tradingDate":"07/03/2025"}]}`))
	var parseErr *contracts.ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("Expected ParseError, got %v", err)
	}
	if parseErr.Row != 1 {
		t.Errorf("Expected row 1, got %d", parseErr.Row)
	}
}

func TestParseTradingDate(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"millis UTC", "2025-03-07T00:00:00.000Z", false},
		{"rfc3339", "2025-03-07T00:00:00+07:00", false},
		{"date only", "2025-03-07", false},
		{"slash format", "07/03/2025", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseTradingDate(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Expected error for %q", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseTradingDate(%q) failed: %v", tt.input, err)
			}

			want := time.Date(2025, 3, 7, 0, 0, 0, 0, time.UTC)
			if !got.Equal(want) {
				t.Errorf("got %v, want %v", got, want)
			}
		})
	}
}
