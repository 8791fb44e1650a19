package indicators

import "math"

// rsi computes the Relative Strength Index with Wilder smoothing.
func rsi(close []float64, window int) []float64 {
	out := nanSlice(len(close))
	if len(close) < window+1 {
		return out
	}

	alpha := 1.0 / float64(window)

	var avgGain, avgLoss float64
	for i := 1; i < len(close); i++ {
		change := close[i] - close[i-1]
		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}

		if i == 1 {
			avgGain, avgLoss = gain, loss
		} else {
			avgGain = alpha*gain + (1-alpha)*avgGain
			avgLoss = alpha*loss + (1-alpha)*avgLoss
		}

		if i >= window {
			if avgLoss == 0 {
				out[i] = 100
			} else {
				rs := avgGain / avgLoss
				out[i] = 100 - 100/(1+rs)
			}
		}
	}
	return out
}

// stochastic computes %K and %D (window, smooth, smooth).
func stochastic(high, low, close []float64, window, smooth int) (k, d []float64) {
	raw := nanSlice(len(close))

	hh := rollingMax(high, window)
	ll := rollingMin(low, window)

	for i := range close {
		spread := hh[i] - ll[i]
		if math.IsNaN(spread) || spread == 0 {
			continue
		}
		raw[i] = 100 * (close[i] - ll[i]) / spread
	}

	k = smaIgnoringLeadingNaN(raw, smooth)
	d = smaIgnoringLeadingNaN(k, smooth)
	return k, d
}

// stochRSI computes the stochastic oscillator applied to RSI, smoothed
// twice, scaled to 0-100.
func stochRSI(close []float64, rsiWindow, stochWindow, smooth int) (k, d []float64) {
	rsiVals := rsi(close, rsiWindow)

	raw := nanSlice(len(close))
	for i := stochWindow - 1; i < len(rsiVals); i++ {
		lo, hi := math.Inf(1), math.Inf(-1)
		ok := true
		for j := i - stochWindow + 1; j <= i; j++ {
			v := rsiVals[j]
			if math.IsNaN(v) {
				ok = false
				break
			}
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
		if !ok || hi == lo {
			continue
		}
		raw[i] = (rsiVals[i] - lo) / (hi - lo)
	}

	k = smaIgnoringLeadingNaN(raw, smooth)
	d = smaIgnoringLeadingNaN(k, smooth)

	// Display contract: reported on a 0-100 scale.
	for i := range k {
		k[i] *= 100
		d[i] *= 100
	}
	return k, d
}

// cci computes the Commodity Channel Index over the typical price.
func cci(high, low, close []float64, window int) []float64 {
	out := nanSlice(len(close))
	if len(close) < window {
		return out
	}

	tp := make([]float64, len(close))
	for i := range close {
		tp[i] = (high[i] + low[i] + close[i]) / 3
	}

	tpSMA := sma(tp, window)

	for i := window - 1; i < len(tp); i++ {
		var dev float64
		for j := i - window + 1; j <= i; j++ {
			dev += math.Abs(tp[j] - tpSMA[i])
		}
		dev /= float64(window)
		if dev == 0 {
			continue
		}
		out[i] = (tp[i] - tpSMA[i]) / (0.015 * dev)
	}
	return out
}

// dmi computes the directional movement system: +DI, -DI and ADX, all
// Wilder-smoothed.
func dmi(high, low, close []float64, window int) (plusDI, minusDI, adx []float64) {
	n := len(close)
	plusDI, minusDI, adx = nanSlice(n), nanSlice(n), nanSlice(n)
	if n < window+1 {
		return plusDI, minusDI, adx
	}

	tr := make([]float64, n)
	plusDM := make([]float64, n)
	minusDM := make([]float64, n)
	for i := 1; i < n; i++ {
		tr[i] = math.Max(high[i]-low[i],
			math.Max(math.Abs(high[i]-close[i-1]), math.Abs(low[i]-close[i-1])))

		up := high[i] - high[i-1]
		down := low[i-1] - low[i]
		if up > down && up > 0 {
			plusDM[i] = up
		}
		if down > up && down > 0 {
			minusDM[i] = down
		}
	}

	// Wilder smoothing seeded with the first n-period sum.
	var strTR, strPlus, strMinus float64
	for i := 1; i <= window; i++ {
		strTR += tr[i]
		strPlus += plusDM[i]
		strMinus += minusDM[i]
	}

	dx := nanSlice(n)
	w := float64(window)

	for i := window; i < n; i++ {
		if i > window {
			strTR = strTR - strTR/w + tr[i]
			strPlus = strPlus - strPlus/w + plusDM[i]
			strMinus = strMinus - strMinus/w + minusDM[i]
		}

		if strTR == 0 {
			continue
		}
		plusDI[i] = 100 * strPlus / strTR
		minusDI[i] = 100 * strMinus / strTR

		sum := plusDI[i] + minusDI[i]
		if sum == 0 {
			dx[i] = 0
			continue
		}
		dx[i] = 100 * math.Abs(plusDI[i]-minusDI[i]) / sum
	}

	// ADX: mean of the first window DX values, then Wilder recursion.
	if n < 2*window {
		return plusDI, minusDI, adx
	}

	var dxSum float64
	for i := window; i < 2*window; i++ {
		dxSum += dx[i]
	}
	adx[2*window-1] = dxSum / w
	for i := 2 * window; i < n; i++ {
		adx[i] = (adx[i-1]*(w-1) + dx[i]) / w
	}

	return plusDI, minusDI, adx
}

// williamsR computes Williams %R (bounded -100..0).
func williamsR(high, low, close []float64, window int) []float64 {
	out := nanSlice(len(close))

	hh := rollingMax(high, window)
	ll := rollingMin(low, window)

	for i := range close {
		spread := hh[i] - ll[i]
		if math.IsNaN(spread) || spread == 0 {
			continue
		}
		out[i] = -100 * (hh[i] - close[i]) / spread
	}
	return out
}

// ultimate computes the Ultimate Oscillator over three windows.
func ultimate(high, low, close []float64, w1, w2, w3 int) []float64 {
	n := len(close)
	out := nanSlice(n)
	if n < w3+1 {
		return out
	}

	bp := nanSlice(n)
	tr := nanSlice(n)
	for i := 1; i < n; i++ {
		trueLow := math.Min(low[i], close[i-1])
		trueHigh := math.Max(high[i], close[i-1])
		bp[i] = close[i] - trueLow
		tr[i] = trueHigh - trueLow
	}

	bp1, tr1 := rollingSum(bp[1:], w1), rollingSum(tr[1:], w1)
	bp2, tr2 := rollingSum(bp[1:], w2), rollingSum(tr[1:], w2)
	bp3, tr3 := rollingSum(bp[1:], w3), rollingSum(tr[1:], w3)

	for i := w3; i < n; i++ {
		j := i - 1 // offset into the diff-based slices
		if tr1[j] == 0 || tr2[j] == 0 || tr3[j] == 0 {
			continue
		}
		avg1 := bp1[j] / tr1[j]
		avg2 := bp2[j] / tr2[j]
		avg3 := bp3[j] / tr3[j]
		out[i] = 100 * (4*avg1 + 2*avg2 + avg3) / 7
	}
	return out
}

// awesome computes the Awesome Oscillator (median price SMA5 - SMA34).
// Reported unscaled.
func awesome(high, low []float64) []float64 {
	median := make([]float64, len(high))
	for i := range high {
		median[i] = (high[i] + low[i]) / 2
	}

	fast := sma(median, 5)
	slow := sma(median, 34)

	out := nanSlice(len(high))
	for i := range out {
		out[i] = fast[i] - slow[i]
	}
	return out
}

// momentum computes the absolute price difference over the lookback.
func momentum(close []float64, window int) []float64 {
	out := nanSlice(len(close))
	for i := window; i < len(close); i++ {
		out[i] = close[i] - close[i-window]
	}
	return out
}

// macd computes the MACD line and its signal line. Both are reported
// scaled by 1000, a display contract shared with the charting layer.
func macd(close []float64, fast, slow, signalWindow int) (line, signal []float64) {
	emaFast := ema(close, fast)
	emaSlow := ema(close, slow)

	line = nanSlice(len(close))
	for i := range close {
		line[i] = emaFast[i] - emaSlow[i]
	}

	signal = ema(line, signalWindow)

	for i := range line {
		line[i] *= 1000
		signal[i] *= 1000
	}
	return line, signal
}

// bullBearPower computes Elder's Bull and Bear Power against EMA13,
// scaled by 1000.
func bullBearPower(high, low, close []float64, window int) (bull, bear []float64) {
	e := ema(close, window)

	bull, bear = nanSlice(len(close)), nanSlice(len(close))
	for i := range close {
		bull[i] = (high[i] - e[i]) * 1000
		bear[i] = (low[i] - e[i]) * 1000
	}
	return bull, bear
}

// smaIgnoringLeadingNaN applies an SMA that starts once the underlying
// series has produced its first finite value.
func smaIgnoringLeadingNaN(values []float64, window int) []float64 {
	out := nanSlice(len(values))

	start := -1
	for i, v := range values {
		if !math.IsNaN(v) {
			start = i
			break
		}
	}
	if start < 0 || len(values)-start < window {
		return out
	}

	for i := start + window - 1; i < len(values); i++ {
		var sum float64
		ok := true
		for j := i - window + 1; j <= i; j++ {
			if math.IsNaN(values[j]) {
				ok = false
				break
			}
			sum += values[j]
		}
		if ok {
			out[i] = sum / float64(window)
		}
	}
	return out
}
