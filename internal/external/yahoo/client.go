package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/wonny/tatracker/internal/contracts"
	"github.com/wonny/tatracker/pkg/config"
	"github.com/wonny/tatracker/pkg/httputil"
	"github.com/wonny/tatracker/pkg/logger"
)

// ProviderName identifies this adapter in routing tables and metrics.
const ProviderName = "yahoo"

// Client handles communication with the Yahoo Finance chart API.
// It serves foreign indices and acts as the terminal fallback for
// domestic symbols.
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
}

// NewClient creates a new Yahoo Finance client
func NewClient(cfg *config.Config, httpClient *httputil.Client, log *logger.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     log.WithField("provider", ProviderName),
		baseURL:    cfg.Providers.YahooBaseURL,
	}
}

// Name returns the provider name
func (c *Client) Name() string { return ProviderName }

// FormatTicker converts a watchlist ticker to Yahoo notation.
// Domestic exchange listings carry a .VN suffix.
func FormatTicker(ticker, exchange string) string {
	switch strings.ToUpper(exchange) {
	case "HOSE", "HNX", "UPCOM":
		return ticker + ".VN"
	default:
		return ticker
	}
}

// chartResponse mirrors the subset of the v8 chart payload we consume
type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// FetchDaily fetches daily bars for a ticker from the v8 chart endpoint.
// The ticker must already be in Yahoo notation (see FormatTicker).
func (c *Client) FetchDaily(ctx context.Context, ticker string, from, to time.Time) (contracts.PriceSeries, error) {
	fullURL := fmt.Sprintf(
		"%s/v8/finance/chart/%s?period1=%d&period2=%d&interval=1d&events=history",
		c.baseURL, ticker, from.Unix(), to.Add(24*time.Hour).Unix(),
	)

	resp, err := c.httpClient.Get(ctx, fullURL)
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

	series, err := c.parseChart(body)
	if err != nil {
		return nil, err
	}

	c.logger.WithFields(map[string]interface{}{
		"ticker": ticker,
		"count":  len(series),
	}).Debug("Fetched daily bars")
	return series, nil
}

// parseChart decodes the chart payload into a normalized series.
// Bars with missing OHLC values (halted sessions) are skipped.
func (c *Client) parseChart(body []byte) (contracts.PriceSeries, error) {
	var payload chartResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &contracts.ParseError{Provider: ProviderName, Detail: fmt.Sprintf("invalid JSON: %v", err)}
	}

	if payload.Chart.Error != nil {
		return nil, fmt.Errorf("chart API error: %s (%s)",
			payload.Chart.Error.Code, payload.Chart.Error.Description)
	}

	// No-data is an error, not an empty series: an empty series would be
	// cached for a full TTL and starve the fallback chain.
	if len(payload.Chart.Result) == 0 || len(payload.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, &contracts.ParseError{Provider: ProviderName, Detail: "empty chart result"}
	}

	result := payload.Chart.Result[0]
	quote := result.Indicators.Quote[0]

	series := make(contracts.PriceSeries, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(quote.Close) || quote.Close[i] == nil {
			continue
		}

		t := time.Unix(ts, 0).UTC()
		bar := contracts.PriceBar{
			Date:  time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC),
			Close: *quote.Close[i],
		}
		if i < len(quote.Open) && quote.Open[i] != nil {
			bar.Open = *quote.Open[i]
		}
		if i < len(quote.High) && quote.High[i] != nil {
			bar.High = *quote.High[i]
		}
		if i < len(quote.Low) && quote.Low[i] != nil {
			bar.Low = *quote.Low[i]
		}
		if i < len(quote.Volume) && quote.Volume[i] != nil {
			bar.Volume = *quote.Volume[i]
		}

		series = append(series, bar)
	}

	return series.Normalize(), nil
}
