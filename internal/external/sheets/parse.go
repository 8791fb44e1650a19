package sheets

import (
	"encoding/csv"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/wonny/tatracker/internal/contracts"
)

// Sheet layout: no header row, data starts at the first row whose first
// cell is an m/d/yyyy date. Column 1 holds a percent change and is
// skipped when mapping into bars.
const (
	colDate   = 0
	colOpen   = 2
	colHigh   = 3
	colLow    = 4
	colClose  = 5
	colVolume = 6

	minColumns = 7

	// How many leading rows to scan for the first data row.
	headerScanLimit = 50
)

var dateCellRe = regexp.MustCompile(`^\d{1,2}/\d{1,2}/\d{4}$`)

// parseCSV parses the raw CSV export into a normalized series.
func parseCSV(body string) (contracts.PriceSeries, error) {
	reader := csv.NewReader(strings.NewReader(body))
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, &contracts.ParseError{Provider: ProviderName, Detail: fmt.Sprintf("invalid CSV: %v", err)}
	}

	return parseRows(records)
}

// parseRows maps raw sheet rows into bars. Rows before the first
// date-shaped row are header noise and skipped; after that, a malformed
// row is a ParseError rather than being silently dropped.
func parseRows(rows [][]string) (contracts.PriceSeries, error) {
	start := -1
	for i, row := range rows {
		if i >= headerScanLimit {
			break
		}
		if len(row) > colDate && dateCellRe.MatchString(strings.TrimSpace(row[colDate])) {
			start = i
			break
		}
	}
	if start < 0 {
		return nil, &contracts.ParseError{Provider: ProviderName, Detail: "could not find data starting row"}
	}

	series := make(contracts.PriceSeries, 0, len(rows)-start)
	for i := start; i < len(rows); i++ {
		row := rows[i]

		if blankRow(row) {
			continue
		}

		bar, err := parseRow(row, i+1)
		if err != nil {
			return nil, err
		}

		series = append(series, bar)
	}

	return series.Normalize(), nil
}

func parseRow(row []string, rowNum int) (contracts.PriceBar, error) {
	if len(row) < minColumns {
		return contracts.PriceBar{}, &contracts.ParseError{
			Provider: ProviderName,
			Detail:   fmt.Sprintf("expected %d columns, got %d", minColumns, len(row)),
			Row:      rowNum,
		}
	}

	date, err := parseSheetDate(strings.TrimSpace(row[colDate]))
	if err != nil {
		return contracts.PriceBar{}, &contracts.ParseError{
			Provider: ProviderName,
			Detail:   fmt.Sprintf("bad date %q", row[colDate]),
			Row:      rowNum,
		}
	}

	bar := contracts.PriceBar{Date: date}
	fields := []struct {
		col  int
		name string
		dst  *float64
	}{
		{colOpen, "open", &bar.Open},
		{colHigh, "high", &bar.High},
		{colLow, "low", &bar.Low},
		{colClose, "close", &bar.Close},
		{colVolume, "volume", &bar.Volume},
	}

	for _, f := range fields {
		v, err := parseLocaleNumber(row[f.col])
		if err != nil {
			return contracts.PriceBar{}, &contracts.ParseError{
				Provider: ProviderName,
				Detail:   fmt.Sprintf("bad %s value %q", f.name, row[f.col]),
				Row:      rowNum,
			}
		}
		*f.dst = v
	}

	// Sparse index rows sometimes omit OHL; fall back to close.
	if bar.Open == 0 {
		bar.Open = bar.Close
	}
	if bar.High == 0 {
		bar.High = bar.Close
	}
	if bar.Low == 0 {
		bar.Low = bar.Close
	}

	return bar, nil
}

// parseSheetDate parses the sheet's m/d/yyyy dates.
func parseSheetDate(s string) (time.Time, error) {
	t, err := time.Parse("1/2/2006", s)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}

// thousandsDotsRe matches numbers where every dot groups exactly three
// digits, i.e. dots are thousand separators ("2.492" or "1.234.567").
var thousandsDotsRe = regexp.MustCompile(`^\d{1,3}(\.\d{3})+$`)

// parseLocaleNumber converts Vietnamese-formatted numbers to float64.
// "2.492,45" -> 2492.45; "1.234.567" -> 1234567; plain "42.5" stays 42.5.
func parseLocaleNumber(s string) (float64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), " ", "")
	if s == "" || s == "-" {
		return 0, nil
	}

	switch {
	case strings.Contains(s, ","):
		// Comma is the decimal separator; dots group thousands.
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	case thousandsDotsRe.MatchString(s):
		s = strings.ReplaceAll(s, ".", "")
	}

	return strconv.ParseFloat(s, 64)
}

func blankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
