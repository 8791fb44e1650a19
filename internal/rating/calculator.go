// Package rating aggregates per-indicator signals into the two
// composite scores and the short rating history used for trend reads.
package rating

import (
	"math"
	"time"

	"github.com/wonny/tatracker/internal/contracts"
	"github.com/wonny/tatracker/internal/indicators"
	"github.com/wonny/tatracker/internal/signals"
)

// oscillatorRules are the signal names counted into the oscillator
// buckets. Everything in maRules goes into the moving average buckets;
// a signal outside both sets is ignored.
var oscillatorRules = map[string]bool{
	signals.SignalRSI:       true,
	signals.SignalStoch:     true,
	signals.SignalCCI:       true,
	signals.SignalADX:       true,
	signals.SignalAO:        true,
	signals.SignalMomentum:  true,
	signals.SignalMACD:      true,
	signals.SignalStochRSI:  true,
	signals.SignalWilliamsR: true,
	signals.SignalBBP:       true,
	signals.SignalUO:        true,
}

var maRules = map[string]bool{
	signals.SignalMA10:     true,
	signals.SignalMA20:     true,
	signals.SignalMA30:     true,
	signals.SignalMA50:     true,
	signals.SignalMA100:    true,
	signals.SignalMA200:    true,
	signals.SignalEMA10:    true,
	signals.SignalEMA20:    true,
	signals.SignalEMA30:    true,
	signals.SignalEMA50:    true,
	signals.SignalEMA100:   true,
	signals.SignalEMA200:   true,
	signals.SignalVWMA:     true,
	signals.SignalHullMA:   true,
	signals.SignalIchimoku: true,
}

// Count tallies Buy and Sell signals per category.
func Count(sigs map[string]contracts.Signal) (oscBuy, oscSell, maBuy, maSell int) {
	for name, sig := range sigs {
		switch {
		case oscillatorRules[name]:
			if sig == contracts.SignalBuy {
				oscBuy++
			} else if sig == contracts.SignalSell {
				oscSell++
			}
		case maRules[name]:
			if sig == contracts.SignalBuy {
				maBuy++
			} else if sig == contracts.SignalSell {
				maSell++
			}
		}
	}
	return oscBuy, oscSell, maBuy, maSell
}

// Scores computes the two composite ratings from the category counts.
// Rating 1 nets sells against buys with oscillator buys double
// weighted; Rating 2 counts buys only.
func Scores(oscBuy, oscSell, maBuy, maSell int) (rating1, rating2 int) {
	rating1 = oscBuy*2 - oscSell + maBuy - maSell
	rating2 = oscBuy*2 + maBuy
	return rating1, rating2
}

// Record evaluates one snapshot into a dated rating record.
func Record(snap contracts.IndicatorSnapshot) contracts.RatingRecord {
	oscBuy, oscSell, maBuy, maSell := Count(signals.Evaluate(snap))
	r1, r2 := Scores(oscBuy, oscSell, maBuy, maSell)

	return contracts.RatingRecord{
		Date:    snap.Date,
		OscBuy:  oscBuy,
		OscSell: oscSell,
		MABuy:   maBuy,
		MASell:  maSell,
		Rating1: r1,
		Rating2: r2,
	}
}

// HistoryDays is how many trailing sessions a rating history covers.
const HistoryDays = 3

// History returns rating records for the snapshot at the given date and
// the sessions immediately before it, most recent first. A symbol with
// fewer prior sessions yields a shorter history. The record for day
// T-1 here is identical to what an evaluation run on T-1 would have
// produced for its own day T, because each record only reads values at
// or before its snapshot date.
func History(snaps []contracts.IndicatorSnapshot, date time.Time) []contracts.RatingRecord {
	idx := -1
	for i := len(snaps) - 1; i >= 0; i-- {
		if sameDay(snaps[i].Date, date) {
			idx = i
			break
		}
		if snaps[i].Date.Before(date) {
			break
		}
	}
	if idx < 0 {
		return nil
	}

	records := make([]contracts.RatingRecord, 0, HistoryDays)
	for i := idx; i > idx-HistoryDays && i >= 0; i-- {
		records = append(records, Record(snaps[i]))
	}
	return records
}

// PriceChange returns the percent close-over-close change between the
// last two bars of the series, 0 when there is no prior bar.
func PriceChange(series contracts.PriceSeries) float64 {
	if len(series) < 2 {
		return 0
	}
	prev := series[len(series)-2].Close
	cur := series[len(series)-1].Close
	if prev == 0 || math.IsNaN(prev) {
		return 0
	}
	return (cur - prev) / prev * 100
}

// SnapshotFor is a convenience wrapper over the indicator engine's
// date lookup.
func SnapshotFor(snaps []contracts.IndicatorSnapshot, date time.Time) (contracts.IndicatorSnapshot, bool) {
	return indicators.SnapshotAt(snaps, date)
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
