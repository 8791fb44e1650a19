package contracts

import "time"

// Signal is a categorical trading signal for one indicator at one date.
type Signal string

const (
	SignalBuy     Signal = "Buy"
	SignalSell    Signal = "Sell"
	SignalNeutral Signal = "Neutral"
)

// IndicatorSnapshot holds every indicator value for a single date.
// Oscillators additionally carry their prior-day value so signal rules
// can test direction. Values that cannot be computed yet (warm-up
// window not filled) are NaN.
type IndicatorSnapshot struct {
	Date time.Time `json:"date"`

	// Price data for the snapshot date
	Price float64 `json:"price"`
	High  float64 `json:"high"`
	Low   float64 `json:"low"`

	// Ichimoku Cloud (9, 26, 52)
	IchimokuConversion float64 `json:"ichimoku_conversion"`
	IchimokuBase       float64 `json:"ichimoku_base"`
	IchimokuA          float64 `json:"ichimoku_a"`
	IchimokuB          float64 `json:"ichimoku_b"`

	// Simple moving averages
	SMA5   float64 `json:"sma_5"`
	SMA10  float64 `json:"sma_10"`
	SMA20  float64 `json:"sma_20"`
	SMA30  float64 `json:"sma_30"`
	SMA50  float64 `json:"sma_50"`
	SMA100 float64 `json:"sma_100"`
	SMA200 float64 `json:"sma_200"`

	// Exponential moving averages
	EMA10  float64 `json:"ema_10"`
	EMA13  float64 `json:"ema_13"`
	EMA20  float64 `json:"ema_20"`
	EMA30  float64 `json:"ema_30"`
	EMA50  float64 `json:"ema_50"`
	EMA100 float64 `json:"ema_100"`
	EMA200 float64 `json:"ema_200"`

	VWMA20 float64 `json:"vwma_20"`
	HullMA float64 `json:"hull_ma_9"`

	// Oscillators
	RSI14      float64 `json:"rsi_14"`
	StochK     float64 `json:"stoch_k"`
	StochD     float64 `json:"stoch_d"`
	StochRSIK  float64 `json:"stochrsi_k"` // scaled x100
	StochRSID  float64 `json:"stochrsi_d"` // scaled x100
	CCI20      float64 `json:"cci_20"`
	ADX14      float64 `json:"adx_14"`
	DMIPlus    float64 `json:"dmi_plus"`
	DMIMinus   float64 `json:"dmi_minus"`
	WilliamsR  float64 `json:"williams_r"`
	Ultimate   float64 `json:"uo"`
	Awesome    float64 `json:"ao"` // unscaled
	Momentum10 float64 `json:"momentum_10"`
	MACD       float64 `json:"macd"`        // scaled x1000
	MACDSignal float64 `json:"macd_signal"` // scaled x1000
	BullPower  float64 `json:"bull_power"`  // scaled x1000
	BearPower  float64 `json:"bear_power"`  // scaled x1000

	// Prior-day values for direction rules
	RSIPrev       float64 `json:"rsi_prev"`
	CCIPrev       float64 `json:"cci_prev"`
	ADXPrev       float64 `json:"adx_prev"`
	MomentumPrev  float64 `json:"momentum_prev"`
	WilliamsRPrev float64 `json:"williams_r_prev"`
	BullPowerPrev float64 `json:"bull_power_prev"`
	BearPowerPrev float64 `json:"bear_power_prev"`
	EMA13Prev     float64 `json:"ema_13_prev"`
	AwesomePrev   float64 `json:"ao_prev"`

	// Close vs moving average, percent
	CloseVsMA5   float64 `json:"close_vs_ma5"`
	CloseVsMA10  float64 `json:"close_vs_ma10"`
	CloseVsMA20  float64 `json:"close_vs_ma20"`
	CloseVsMA50  float64 `json:"close_vs_ma50"`
	CloseVsMA200 float64 `json:"close_vs_ma200"`

	// Strength composites (averages of the close-vs-MA percentages)
	StrengthST float64 `json:"strength_st"`
	StrengthLT float64 `json:"strength_lt"`

	// Golden cross state
	MA50AboveMA200 bool `json:"ma50_gt_ma200"`
}

// RatingRecord aggregates categorical signals for one evaluated date.
type RatingRecord struct {
	Date    time.Time `json:"date"`
	OscBuy  int       `json:"osc_buy"`
	OscSell int       `json:"osc_sell"`
	MABuy   int       `json:"ma_buy"`
	MASell  int       `json:"ma_sell"`
	Rating1 int       `json:"rating1"`
	Rating2 int       `json:"rating2"`
}

// AnalysisResult is the per-symbol outcome of one batch run.
// Ratings holds up to three records ordered T, T-1, T-2.
type AnalysisResult struct {
	Symbol   Symbol             `json:"symbol"`
	Ratings  []RatingRecord     `json:"ratings,omitempty"`
	Snapshot *IndicatorSnapshot `json:"snapshot,omitempty"`
	Signals  map[string]Signal  `json:"signals,omitempty"`

	// PriceChangePct is the close-over-close change against the prior bar.
	PriceChangePct float64 `json:"price_change_pct"`

	// Stale is set when the fetched series does not include the
	// requested evaluation date as its most recent bar.
	Stale bool `json:"stale,omitempty"`

	// Err carries the terminal failure for this symbol, if any.
	// A failed symbol still occupies its slot in the batch output.
	Err string `json:"error,omitempty"`
}

// Failed reports whether the symbol's pipeline ended in an error.
func (r AnalysisResult) Failed() bool {
	return r.Err != ""
}

// Current returns the rating for the evaluation date, if present.
func (r AnalysisResult) Current() (RatingRecord, bool) {
	if len(r.Ratings) == 0 {
		return RatingRecord{}, false
	}
	return r.Ratings[0], true
}

// ProgressFunc is invoked after each symbol completes. completed is
// monotonically non-decreasing and reaches total exactly once.
type ProgressFunc func(ticker string, completed, total int)
