package indicators

import "math"

// Series helpers operate on full value arrays and return one output per
// input, with NaN for positions whose warm-up window is not yet filled.
// Each position uses only values at or before it, so there is no
// look-ahead anywhere in the engine.

// sma computes a simple moving average.
func sma(values []float64, window int) []float64 {
	out := nanSlice(len(values))
	if window <= 0 || len(values) < window {
		return out
	}

	var sum float64
	for i, v := range values {
		sum += v
		if i >= window {
			sum -= values[i-window]
		}
		if i >= window-1 {
			out[i] = sum / float64(window)
		}
	}
	return out
}

// ema computes an exponential moving average seeded at the first finite
// value, reported once the warm-up window is filled.
func ema(values []float64, window int) []float64 {
	out := nanSlice(len(values))
	if window <= 0 {
		return out
	}

	alpha := 2.0 / (float64(window) + 1.0)

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

	e := values[start]
	for i := start + 1; i < len(values); i++ {
		e = alpha*values[i] + (1-alpha)*e
		if i >= start+window-1 {
			out[i] = e
		}
	}
	if window == 1 {
		out[start] = values[start]
	}
	return out
}

// wma computes a linearly weighted moving average (weights 1..window).
func wma(values []float64, window int) []float64 {
	out := nanSlice(len(values))
	if window <= 0 || len(values) < window {
		return out
	}

	denom := float64(window*(window+1)) / 2
	for i := window - 1; i < len(values); i++ {
		var acc float64
		ok := true
		for j := 0; j < window; j++ {
			v := values[i-window+1+j]
			if math.IsNaN(v) {
				ok = false
				break
			}
			acc += v * float64(j+1)
		}
		if ok {
			out[i] = acc / denom
		}
	}
	return out
}

// hull computes the Hull moving average: a WMA of length sqrt(n) over
// (2 x WMA(n/2) - WMA(n)).
func hull(values []float64, window int) []float64 {
	half := window / 2
	sqrtw := int(math.Sqrt(float64(window)))

	wmaHalf := wma(values, half)
	wmaFull := wma(values, window)

	raw := nanSlice(len(values))
	for i := range values {
		raw[i] = 2*wmaHalf[i] - wmaFull[i]
	}

	return wma(raw, sqrtw)
}

// vwma computes a rolling volume weighted average of the typical price.
func vwma(high, low, close, volume []float64, window int) []float64 {
	out := nanSlice(len(close))
	if window <= 0 || len(close) < window {
		return out
	}

	for i := window - 1; i < len(close); i++ {
		var pv, v float64
		for j := i - window + 1; j <= i; j++ {
			tp := (high[j] + low[j] + close[j]) / 3
			pv += tp * volume[j]
			v += volume[j]
		}
		if v == 0 {
			continue
		}
		out[i] = pv / v
	}
	return out
}

// rollingMax computes the highest value over a trailing window.
func rollingMax(values []float64, window int) []float64 {
	out := nanSlice(len(values))
	for i := window - 1; i < len(values); i++ {
		m := math.Inf(-1)
		for j := i - window + 1; j <= i; j++ {
			if values[j] > m {
				m = values[j]
			}
		}
		out[i] = m
	}
	return out
}

// rollingMin computes the lowest value over a trailing window.
func rollingMin(values []float64, window int) []float64 {
	out := nanSlice(len(values))
	for i := window - 1; i < len(values); i++ {
		m := math.Inf(1)
		for j := i - window + 1; j <= i; j++ {
			if values[j] < m {
				m = values[j]
			}
		}
		out[i] = m
	}
	return out
}

// rollingSum computes the sum over a trailing window.
func rollingSum(values []float64, window int) []float64 {
	out := nanSlice(len(values))
	if window <= 0 || len(values) < window {
		return out
	}

	var sum float64
	for i, v := range values {
		sum += v
		if i >= window {
			sum -= values[i-window]
		}
		if i >= window-1 {
			out[i] = sum
		}
	}
	return out
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

// shift returns the series delayed by one position (prior-day values).
func shift(values []float64) []float64 {
	out := nanSlice(len(values))
	for i := 1; i < len(values); i++ {
		out[i] = values[i-1]
	}
	return out
}
