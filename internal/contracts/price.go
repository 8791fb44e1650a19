package contracts

import (
	"sort"
	"time"
)

// PriceBar represents a single daily OHLCV bar.
type PriceBar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// PriceSeries is an ordered sequence of daily bars.
// Consumers may assume strictly increasing, unique dates after Normalize.
type PriceSeries []PriceBar

// Normalize sorts bars by date ascending and removes duplicate dates,
// keeping the last bar seen for a date. Provider responses are never
// trusted to be ordered or unique.
func (s PriceSeries) Normalize() PriceSeries {
	if len(s) == 0 {
		return s
	}

	sorted := make(PriceSeries, len(s))
	copy(sorted, s)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	out := sorted[:0]
	for _, bar := range sorted {
		if len(out) > 0 && sameDay(out[len(out)-1].Date, bar.Date) {
			out[len(out)-1] = bar
			continue
		}
		out = append(out, bar)
	}
	return out
}

// Valid reports whether the series is non-empty, sorted and free of
// duplicate dates.
func (s PriceSeries) Valid() bool {
	if len(s) == 0 {
		return false
	}
	for i := 1; i < len(s); i++ {
		if !s[i-1].Date.Before(s[i].Date) {
			return false
		}
	}
	return true
}

// Through returns the prefix of the series with dates at or before the
// given date. The series must be normalized.
func (s PriceSeries) Through(date time.Time) PriceSeries {
	end := date.Add(24 * time.Hour)
	idx := sort.Search(len(s), func(i int) bool {
		return !s[i].Date.Before(truncateDay(end))
	})
	return s[:idx]
}

// Last returns the most recent bar. The second return value is false
// for an empty series.
func (s PriceSeries) Last() (PriceBar, bool) {
	if len(s) == 0 {
		return PriceBar{}, false
	}
	return s[len(s)-1], true
}

// Covers reports whether the series includes a bar for the given date.
func (s PriceSeries) Covers(date time.Time) bool {
	for i := len(s) - 1; i >= 0; i-- {
		if sameDay(s[i].Date, date) {
			return true
		}
		if s[i].Date.Before(truncateDay(date)) {
			return false
		}
	}
	return false
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// LastTradingDate rolls a date back to the most recent weekday.
// Saturday maps to Friday, Sunday maps to Friday.
func LastTradingDate(t time.Time) time.Time {
	switch t.Weekday() {
	case time.Saturday:
		return t.AddDate(0, 0, -1)
	case time.Sunday:
		return t.AddDate(0, 0, -2)
	default:
		return t
	}
}

// ValidTradingDate clamps a requested evaluation date: future dates are
// pulled back to the last trading date, weekends roll back to Friday.
func ValidTradingDate(requested, now time.Time) time.Time {
	last := LastTradingDate(now)
	if requested.After(last) {
		return last
	}
	return LastTradingDate(requested)
}
