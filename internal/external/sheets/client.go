package sheets

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/wonny/tatracker/internal/contracts"
	"github.com/wonny/tatracker/pkg/config"
	"github.com/wonny/tatracker/pkg/httputil"
	"github.com/wonny/tatracker/pkg/logger"
)

// ProviderName identifies this adapter in routing tables and metrics.
const ProviderName = "sheets"

// Client fetches VNMIDCAP history from a Google Sheets document.
// This is the exclusive provider for the sheets index class: a failure
// here is terminal, never a fallback to lower-quality data.
//
// The sheet is maintained by hand in Vietnamese locale: decimal commas,
// dot thousand separators, m/d/yyyy dates, no header row, and a percent
// change column between date and open that must be skipped.
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	sheetID    string

	// staleAfter controls the freshness warning on the sheet's newest row.
	staleAfter time.Duration
}

// NewClient creates a new Google Sheets client
func NewClient(cfg *config.Config, httpClient *httputil.Client, log *logger.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     log.WithField("provider", ProviderName),
		sheetID:    cfg.Providers.SheetID,
		staleAfter: 30 * 24 * time.Hour,
	}
}

// Name returns the provider name
func (c *Client) Name() string { return ProviderName }

// FetchDaily fetches the sheet and returns bars in the requested window.
// The CSV export is tried first; if it fails or yields nothing, the
// published HTML view is parsed instead.
func (c *Client) FetchDaily(ctx context.Context, ticker string, from, to time.Time) (contracts.PriceSeries, error) {
	series, csvErr := c.fetchCSV(ctx)
	if csvErr != nil || len(series) == 0 {
		var htmlErr error
		series, htmlErr = c.fetchHTML(ctx)
		if htmlErr != nil {
			if csvErr != nil {
				return nil, fmt.Errorf("csv export failed (%v); html fallback failed: %w", csvErr, htmlErr)
			}
			return nil, htmlErr
		}
	}

	if last, ok := series.Last(); ok && time.Since(last.Date) > c.staleAfter {
		c.logger.WithFields(map[string]interface{}{
			"ticker": ticker,
			"latest": last.Date.Format("2006-01-02"),
		}).Warn("Sheet data may be outdated")
	}

	// The sheet holds the full history; trim to the requested window.
	out := series[:0]
	for _, bar := range series {
		if bar.Date.Before(from) || bar.Date.After(to.Add(24*time.Hour)) {
			continue
		}
		out = append(out, bar)
	}

	c.logger.WithFields(map[string]interface{}{
		"ticker": ticker,
		"count":  len(out),
	}).Debug("Fetched daily bars")
	return out, nil
}

// fetchCSV downloads and parses the CSV export of the sheet.
func (c *Client) fetchCSV(ctx context.Context) (contracts.PriceSeries, error) {
	url := fmt.Sprintf("https://docs.google.com/spreadsheets/d/%s/export?format=csv", c.sheetID)

	body, err := c.download(ctx, url)
	if err != nil {
		return nil, err
	}

	return parseCSV(body)
}

// fetchHTML downloads the published HTML view and extracts the first
// table. Used when the CSV export is unavailable.
func (c *Client) fetchHTML(ctx context.Context) (contracts.PriceSeries, error) {
	url := fmt.Sprintf("https://docs.google.com/spreadsheets/d/%s/pubhtml", c.sheetID)

	body, err := c.download(ctx, url)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, &contracts.ParseError{Provider: ProviderName, Detail: fmt.Sprintf("invalid HTML: %v", err)}
	}

	var rows [][]string
	doc.Find("table tr").Each(func(_ int, tr *goquery.Selection) {
		var cells []string
		tr.Find("td, th").Each(func(_ int, td *goquery.Selection) {
			cells = append(cells, strings.TrimSpace(td.Text()))
		})
		if len(cells) > 0 {
			rows = append(rows, cells)
		}
	})

	return parseRows(rows)
}

func (c *Client) download(ctx context.Context, url string) (string, error) {
	resp, err := c.httpClient.Get(ctx, url)
	if err != nil {
		return "", fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response body failed: %w", err)
	}

	return string(body), nil
}
