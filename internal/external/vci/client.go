package vci

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/wonny/tatracker/internal/contracts"
	"github.com/wonny/tatracker/pkg/config"
	"github.com/wonny/tatracker/pkg/httputil"
	"github.com/wonny/tatracker/pkg/logger"
)

// ProviderName identifies this adapter in routing tables and metrics.
const ProviderName = "vci"

// Client handles communication with the VCI (Vietcap) chart API.
// It is the first choice for domestic indices, where the TCBS endpoint
// returns no data.
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
}

// NewClient creates a new VCI client
func NewClient(cfg *config.Config, httpClient *httputil.Client, log *logger.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     log.WithField("provider", ProviderName),
		baseURL:    cfg.Providers.VCIBaseURL,
	}
}

// Name returns the provider name
func (c *Client) Name() string { return ProviderName }

// chartRequest is the gap-chart request body
type chartRequest struct {
	TimeFrame string   `json:"timeFrame"`
	Symbols   []string `json:"symbols"`
	From      int64    `json:"from"`
	To        int64    `json:"to"`
}

// chartSeries is one symbol's OHLCV arrays in the gap-chart response
type chartSeries struct {
	Symbol string    `json:"symbol"`
	O      []float64 `json:"o"`
	H      []float64 `json:"h"`
	L      []float64 `json:"l"`
	C      []float64 `json:"c"`
	V      []float64 `json:"v"`
	T      []int64   `json:"t"`
}

// FetchDaily fetches daily bars for a symbol from the VCI chart API.
func (c *Client) FetchDaily(ctx context.Context, ticker string, from, to time.Time) (contracts.PriceSeries, error) {
	fullURL := fmt.Sprintf("%s/api/chart/OHLCChart/gap-chart", c.baseURL)

	reqBody := chartRequest{
		TimeFrame: "ONE_DAY",
		Symbols:   []string{ticker},
		From:      from.Unix(),
		To:        to.Unix(),
	}

	resp, err := c.httpClient.PostJSON(ctx, fullURL, reqBody)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body failed: %w", err)
	}

	series, err := c.parseChart(body, ticker)
	if err != nil {
		return nil, err
	}

	c.logger.WithFields(map[string]interface{}{
		"ticker": ticker,
		"count":  len(series),
	}).Debug("Fetched daily bars")
	return series, nil
}

// parseChart decodes the gap-chart arrays into a normalized series.
func (c *Client) parseChart(body []byte, ticker string) (contracts.PriceSeries, error) {
	var payload []chartSeries
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &contracts.ParseError{Provider: ProviderName, Detail: fmt.Sprintf("invalid JSON: %v", err)}
	}

	var chart *chartSeries
	for i := range payload {
		if payload[i].Symbol == "" || payload[i].Symbol == ticker {
			chart = &payload[i]
			break
		}
	}
	// No-data is an error, not an empty series: an empty series would be
	// cached for a full TTL and starve the fallback chain.
	if chart == nil {
		return nil, &contracts.ParseError{
			Provider: ProviderName,
			Detail:   fmt.Sprintf("no series for %s in response", ticker),
		}
	}

	n := len(chart.T)
	if len(chart.O) != n || len(chart.H) != n || len(chart.L) != n || len(chart.C) != n || len(chart.V) != n {
		return nil, &contracts.ParseError{
			Provider: ProviderName,
			Detail:   fmt.Sprintf("ragged OHLCV arrays for %s", ticker),
		}
	}

	series := make(contracts.PriceSeries, 0, n)
	for i := 0; i < n; i++ {
		t := time.Unix(chart.T[i], 0).UTC()
		series = append(series, contracts.PriceBar{
			Date:   time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC),
			Open:   chart.O[i],
			High:   chart.H[i],
			Low:    chart.L[i],
			Close:  chart.C[i],
			Volume: chart.V[i],
		})
	}

	return fixFutureDates(series.Normalize()), nil
}

// fixFutureDates works around an API defect where index bars come back
// dated one year ahead. If the newest bar is in the future the whole
// series is shifted back a year.
func fixFutureDates(series contracts.PriceSeries) contracts.PriceSeries {
	last, ok := series.Last()
	if !ok || !last.Date.After(time.Now()) {
		return series
	}

	for i := range series {
		series[i].Date = series[i].Date.AddDate(-1, 0, 0)
	}
	return series.Normalize()
}
