package tcbs

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
const ProviderName = "tcbs"

// Client handles communication with the TCBS public market data API.
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
}

// NewClient creates a new TCBS client
func NewClient(cfg *config.Config, httpClient *httputil.Client, log *logger.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     log.WithField("provider", ProviderName),
		baseURL:    cfg.Providers.TCBSBaseURL,
	}
}

// Name returns the provider name
func (c *Client) Name() string { return ProviderName }

// barsResponse is the bars-long-term payload
type barsResponse struct {
	Ticker string   `json:"ticker"`
	Data   []barRow `json:"data"`
}

type barRow struct {
	Open        float64 `json:"open"`
	High        float64 `json:"high"`
	Low         float64 `json:"low"`
	Close       float64 `json:"close"`
	Volume      float64 `json:"volume"`
	TradingDate string  `json:"tradingDate"`
}

// FetchDaily fetches daily bars for a ticker from the TCBS long-term
// bars endpoint. VNMID is mapped to VNMIDCAP by the router before it
// gets here; this client takes tickers verbatim.
func (c *Client) FetchDaily(ctx context.Context, ticker string, from, to time.Time) (contracts.PriceSeries, error) {
	fullURL := fmt.Sprintf(
		"%s/stock-insight/v1/stock/bars-long-term?ticker=%s&type=stock&resolution=D&from=%d&to=%d",
		c.baseURL, ticker, from.Unix(), to.Unix(),
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

	series, err := c.parseBars(body)
	if err != nil {
		return nil, err
	}

	c.logger.WithFields(map[string]interface{}{
		"ticker": ticker,
		"count":  len(series),
	}).Debug("Fetched daily bars")
	return series, nil
}

// parseBars decodes the bars payload into a normalized series.
func (c *Client) parseBars(body []byte) (contracts.PriceSeries, error) {
	var payload barsResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &contracts.ParseError{Provider: ProviderName, Detail: fmt.Sprintf("invalid JSON: %v", err)}
	}

	series := make(contracts.PriceSeries, 0, len(payload.Data))
	for i, row := range payload.Data {
		date, err := parseTradingDate(row.TradingDate)
		if err != nil {
			return nil, &contracts.ParseError{
				Provider: ProviderName,
				Detail:   fmt.Sprintf("bad tradingDate %q", row.TradingDate),
				Row:      i + 1,
			}
		}

		series = append(series, contracts.PriceBar{
			Date:   date,
			Open:   row.Open,
			High:   row.High,
			Low:    row.Low,
			Close:  row.Close,
			Volume: row.Volume,
		})
	}

	return series.Normalize(), nil
}

// tradingDateLayouts covers the formats the API has been observed to
// return for tradingDate.
var tradingDateLayouts = []string{
	"2006-01-02T15:04:05.000Z",
	time.RFC3339,
	"2006-01-02",
}

func parseTradingDate(s string) (time.Time, error) {
	for _, layout := range tradingDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date format: %s", s)
}
