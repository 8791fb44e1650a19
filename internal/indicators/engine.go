package indicators

import (
	"math"
	"time"

	"github.com/wonny/tatracker/internal/contracts"
	"github.com/wonny/tatracker/pkg/logger"
)

// MinBars is the number of daily bars needed before the slowest
// indicator (SMA200, plus one prior value) produces a finite result.
const MinBars = 201

// Engine computes the full indicator set for a normalized price series.
type Engine struct {
	logger *logger.Logger
}

func NewEngine(log *logger.Logger) *Engine {
	return &Engine{logger: log.WithField("component", "indicators")}
}

// Compute returns one snapshot per bar, aligned with the input series.
// Early snapshots carry NaN for indicators whose warm-up window is not
// yet filled. The series must be normalized.
func (e *Engine) Compute(series contracts.PriceSeries) []contracts.IndicatorSnapshot {
	n := len(series)
	if n == 0 {
		return nil
	}

	high := make([]float64, n)
	low := make([]float64, n)
	close := make([]float64, n)
	volume := make([]float64, n)
	dates := make([]time.Time, n)
	for i, bar := range series {
		high[i] = bar.High
		low[i] = bar.Low
		close[i] = bar.Close
		volume[i] = bar.Volume
		dates[i] = bar.Date
	}

	sma5 := sma(close, 5)
	sma10 := sma(close, 10)
	sma20 := sma(close, 20)
	sma30 := sma(close, 30)
	sma50 := sma(close, 50)
	sma100 := sma(close, 100)
	sma200 := sma(close, 200)

	ema10 := ema(close, 10)
	ema13 := ema(close, 13)
	ema20 := ema(close, 20)
	ema30 := ema(close, 30)
	ema50 := ema(close, 50)
	ema100 := ema(close, 100)
	ema200 := ema(close, 200)

	vwma20 := vwma(high, low, close, volume, 20)
	hullMA := hull(close, 9)
	cloud := ichimoku(high, low, 9, 26, 52)

	rsi14 := rsi(close, 14)
	stochK, stochD := stochastic(high, low, close, 14, 3)
	srsiK, srsiD := stochRSI(close, 14, 14, 3)
	cci20 := cci(high, low, close, 20)
	plusDI, minusDI, adx14 := dmi(high, low, close, 14)
	willR := williamsR(high, low, close, 14)
	uo := ultimate(high, low, close, 7, 14, 28)
	ao := awesome(high, low)
	mom10 := momentum(close, 10)
	macdLine, macdSignal := macd(close, 12, 26, 9)
	bull, bear := bullBearPower(high, low, close, 13)

	rsiPrev := shift(rsi14)
	cciPrev := shift(cci20)
	adxPrev := shift(adx14)
	momPrev := shift(mom10)
	willPrev := shift(willR)
	bullPrev := shift(bull)
	bearPrev := shift(bear)
	ema13Prev := shift(ema13)
	aoPrev := shift(ao)

	snapshots := make([]contracts.IndicatorSnapshot, n)
	for i := 0; i < n; i++ {
		snap := contracts.IndicatorSnapshot{
			Date:  dates[i],
			Price: close[i],
			High:  high[i],
			Low:   low[i],

			IchimokuConversion: cloud.conversion[i],
			IchimokuBase:       cloud.base[i],
			IchimokuA:          cloud.spanA[i],
			IchimokuB:          cloud.spanB[i],

			SMA5:   sma5[i],
			SMA10:  sma10[i],
			SMA20:  sma20[i],
			SMA30:  sma30[i],
			SMA50:  sma50[i],
			SMA100: sma100[i],
			SMA200: sma200[i],

			EMA10:  ema10[i],
			EMA13:  ema13[i],
			EMA20:  ema20[i],
			EMA30:  ema30[i],
			EMA50:  ema50[i],
			EMA100: ema100[i],
			EMA200: ema200[i],

			VWMA20: vwma20[i],
			HullMA: hullMA[i],

			RSI14:      rsi14[i],
			StochK:     stochK[i],
			StochD:     stochD[i],
			StochRSIK:  srsiK[i],
			StochRSID:  srsiD[i],
			CCI20:      cci20[i],
			ADX14:      adx14[i],
			DMIPlus:    plusDI[i],
			DMIMinus:   minusDI[i],
			WilliamsR:  willR[i],
			Ultimate:   uo[i],
			Awesome:    ao[i],
			Momentum10: mom10[i],
			MACD:       macdLine[i],
			MACDSignal: macdSignal[i],
			BullPower:  bull[i],
			BearPower:  bear[i],

			RSIPrev:       rsiPrev[i],
			CCIPrev:       cciPrev[i],
			ADXPrev:       adxPrev[i],
			MomentumPrev:  momPrev[i],
			WilliamsRPrev: willPrev[i],
			BullPowerPrev: bullPrev[i],
			BearPowerPrev: bearPrev[i],
			EMA13Prev:     ema13Prev[i],
			AwesomePrev:   aoPrev[i],

			CloseVsMA5:   closeVsMA(close[i], sma5[i]),
			CloseVsMA10:  closeVsMA(close[i], sma10[i]),
			CloseVsMA20:  closeVsMA(close[i], sma20[i]),
			CloseVsMA50:  closeVsMA(close[i], sma50[i]),
			CloseVsMA200: closeVsMA(close[i], sma200[i]),
		}

		snap.StrengthST = mean3(snap.CloseVsMA5, snap.CloseVsMA10, snap.CloseVsMA20)
		snap.StrengthLT = mean5(snap.CloseVsMA5, snap.CloseVsMA10, snap.CloseVsMA20,
			snap.CloseVsMA50, snap.CloseVsMA200)
		snap.MA50AboveMA200 = !math.IsNaN(sma50[i]) && !math.IsNaN(sma200[i]) &&
			sma50[i] > sma200[i]

		snapshots[i] = snap
	}

	if n < MinBars {
		e.logger.WithFields(map[string]interface{}{
			"bars": n,
			"need": MinBars,
		}).Debug("series shorter than slowest indicator window")
	}

	return snapshots
}

// SnapshotAt returns the snapshot for the given calendar date.
func SnapshotAt(snapshots []contracts.IndicatorSnapshot, date time.Time) (contracts.IndicatorSnapshot, bool) {
	y, m, d := date.Date()
	for i := len(snapshots) - 1; i >= 0; i-- {
		sy, sm, sd := snapshots[i].Date.Date()
		if sy == y && sm == m && sd == d {
			return snapshots[i], true
		}
		if snapshots[i].Date.Before(date) {
			break
		}
	}
	return contracts.IndicatorSnapshot{}, false
}

// closeVsMA returns the percent distance of the close above the MA.
func closeVsMA(close, ma float64) float64 {
	if math.IsNaN(ma) || ma == 0 {
		return math.NaN()
	}
	return (close - ma) / ma * 100
}

func mean3(a, b, c float64) float64 {
	return (a + b + c) / 3
}

func mean5(a, b, c, d, e float64) float64 {
	return (a + b + c + d + e) / 5
}
