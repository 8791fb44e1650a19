package yahoo

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
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
			YahooBaseURL:  baseURL,
			RatePerSecond: 100,
		},
	}
	log := logger.New(cfg)
	return NewClient(cfg, httputil.New(cfg, log).DisableRetry(), log)
}

func TestFormatTicker(t *testing.T) {
	tests := []struct {
		ticker   string
		exchange string
		want     string
	}{
		{"VCB", "HOSE", "VCB.VN"},
		{"SHS", "HNX", "SHS.VN"},
		{"BSR", "UPCOM", "BSR.VN"},
		{"VCB", "hose", "VCB.VN"},
		{"^GSPC", "INDEX", "^GSPC"},
		{"^N225", "", "^N225"},
	}

	for _, tt := range tests {
		t.Run(tt.ticker+"_"+tt.exchange, func(t *testing.T) {
			got := FormatTicker(tt.ticker, tt.exchange)
			if got != tt.want {
				t.Errorf("FormatTicker(%q, %q) = %q, want %q", tt.ticker, tt.exchange, got, tt.want)
			}
		})
	}
}

func TestFetchDaily(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/v8/finance/chart/VCB.VN") {
			t.Errorf("Unexpected path: %s", r.URL.Path)
		}
		if r.URL.Query().Get("interval") != "1d" {
			t.Errorf("Expected interval=1d, got %s", r.URL.Query().Get("interval"))
		}

		day1 := time.Date(2025, 3, 6, 0, 0, 0, 0, time.UTC).Unix()
		day2 := time.Date(2025, 3, 7, 0, 0, 0, 0, time.UTC).Unix()
		body := `{
			"chart": {
				"result": [{
					"timestamp": [` + itoa(day1) + `,` + itoa(day2) + `],
					"indicators": {"quote": [{
						"open":  [91.0, 91.5],
						"high":  [92.0, 92.5],
						"low":   [90.5, 91.0],
						"close": [91.5, 92.2],
						"volume": [1000000, 1200000]
					}]}
				}],
				"error": null
			}
		}`
		w.Write([]byte(body))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	from := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 3, 8, 0, 0, 0, 0, time.UTC)

	series, err := client.FetchDaily(context.Background(), "VCB.VN", from, to)
	if err != nil {
		t.Fatalf("FetchDaily failed: %v", err)
	}

	if len(series) != 2 {
		t.Fatalf("Expected 2 bars, got %d", len(series))
	}
	if series[1].Close != 92.2 {
		t.Errorf("Expected latest close 92.2, got %v", series[1].Close)
	}
}

func TestParseChartSkipsNullCloses(t *testing.T) {
	client := newTestClient("http://unused")

	body := `{
		"chart": {
			"result": [{
				"timestamp": [1741219200, 1741305600, 1741392000],
				"indicators": {"quote": [{
					"open":  [1.0, null, 3.0],
					"high":  [1.5, null, 3.5],
					"low":   [0.9, null, 2.9],
					"close": [1.2, null, 3.2],
					"volume": [100, null, 300]
				}]}
			}],
			"error": null
		}
	}`

	series, err := client.parseChart([]byte(body))
	if err != nil {
		t.Fatalf("parseChart failed: %v", err)
	}
	if len(series) != 2 {
		t.Fatalf("Expected 2 bars after skipping null close, got %d", len(series))
	}
}

func TestParseChartAPIError(t *testing.T) {
	client := newTestClient("http://unused")

	body := `{"chart": {"result": null, "error": {"code": "Not Found", "description": "No data found, symbol may be delisted"}}}`

	_, err := client.parseChart([]byte(body))
	if err == nil {
		t.Fatal("Expected error for chart API error payload")
	}
	if !strings.Contains(err.Error(), "Not Found") {
		t.Errorf("Expected error to carry API code, got %v", err)
	}
}

func TestParseChartEmptyResult(t *testing.T) {
	client := newTestClient("http://unused")

	// An empty result must fail rather than yield an empty series the
	// cache would hold for a full TTL.
	_, err := client.parseChart([]byte(`{"chart": {"result": [], "error": null}}`))

	var parseErr *contracts.ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("Expected ParseError for empty result, got %v", err)
	}
}

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}
