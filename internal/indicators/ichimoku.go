package indicators

import "math"

// ichimokuLines holds the non-displaced Ichimoku components. Spans are
// computed at the bar that produced them, without the forward shift
// used in chart overlays, so signal logic compares like-for-like dates.
type ichimokuLines struct {
	conversion []float64
	base       []float64
	spanA      []float64
	spanB      []float64
}

func ichimoku(high, low []float64, conv, base, span int) ichimokuLines {
	lines := ichimokuLines{
		conversion: midpoint(high, low, conv),
		base:       midpoint(high, low, base),
		spanB:      midpoint(high, low, span),
	}

	lines.spanA = nanSlice(len(high))
	for i := range lines.spanA {
		lines.spanA[i] = (lines.conversion[i] + lines.base[i]) / 2
	}
	return lines
}

// midpoint returns (rolling max high + rolling min low) / 2.
func midpoint(high, low []float64, window int) []float64 {
	hh := rollingMax(high, window)
	ll := rollingMin(low, window)

	out := nanSlice(len(high))
	for i := range out {
		if math.IsNaN(hh[i]) || math.IsNaN(ll[i]) {
			continue
		}
		out[i] = (hh[i] + ll[i]) / 2
	}
	return out
}
