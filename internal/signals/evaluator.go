// Package signals turns an indicator snapshot into categorical
// Buy/Sell/Neutral signals, one per indicator rule.
package signals

import (
	"math"

	"github.com/wonny/tatracker/internal/contracts"
)

// Signal rule names. These are the stable keys of the Evaluate result
// and the names rating aggregation groups on.
const (
	SignalMA10     = "MA_10_Signal"
	SignalMA20     = "MA_20_Signal"
	SignalMA30     = "MA_30_Signal"
	SignalMA50     = "MA_50_Signal"
	SignalMA100    = "MA_100_Signal"
	SignalMA200    = "MA_200_Signal"
	SignalEMA10    = "EMA_10_Signal"
	SignalEMA20    = "EMA_20_Signal"
	SignalEMA30    = "EMA_30_Signal"
	SignalEMA50    = "EMA_50_Signal"
	SignalEMA100   = "EMA_100_Signal"
	SignalEMA200   = "EMA_200_Signal"
	SignalVWMA     = "VWMA_Signal"
	SignalHullMA   = "Hull_MA_Signal"
	SignalIchimoku = "Ichimoku_Signal"

	SignalRSI       = "RSI_Signal"
	SignalStoch     = "Stochastic_Signal"
	SignalCCI       = "CCI_Signal"
	SignalADX       = "ADX_Signal"
	SignalAO        = "AO_Signal"
	SignalMomentum  = "Momentum_Signal"
	SignalMACD      = "MACD_Signal"
	SignalStochRSI  = "StochRSI_Signal"
	SignalWilliamsR = "Williams_R_Signal"
	SignalBBP       = "BBP_Signal"
	SignalUO        = "UO_Signal"
)

// Evaluate computes every signal for one snapshot. A rule whose inputs
// are NaN always yields Neutral, as do exact ties.
func Evaluate(snap contracts.IndicatorSnapshot) map[string]contracts.Signal {
	out := make(map[string]contracts.Signal, 26)

	price := snap.Price

	out[SignalMA10] = priceVsLine(price, snap.SMA10)
	out[SignalMA20] = priceVsLine(price, snap.SMA20)
	out[SignalMA30] = priceVsLine(price, snap.SMA30)
	out[SignalMA50] = priceVsLine(price, snap.SMA50)
	out[SignalMA100] = priceVsLine(price, snap.SMA100)
	out[SignalMA200] = priceVsLine(price, snap.SMA200)

	out[SignalEMA10] = priceVsLine(price, snap.EMA10)
	out[SignalEMA20] = priceVsLine(price, snap.EMA20)
	out[SignalEMA30] = priceVsLine(price, snap.EMA30)
	out[SignalEMA50] = priceVsLine(price, snap.EMA50)
	out[SignalEMA100] = priceVsLine(price, snap.EMA100)
	out[SignalEMA200] = priceVsLine(price, snap.EMA200)

	out[SignalVWMA] = priceVsLine(price, snap.VWMA20)
	out[SignalHullMA] = priceVsLine(price, snap.HullMA)
	out[SignalIchimoku] = ichimokuSignal(snap)

	out[SignalRSI] = rsiSignal(snap)
	out[SignalStoch] = stochPairSignal(snap.StochK, snap.StochD)
	out[SignalCCI] = cciSignal(snap)
	out[SignalADX] = adxSignal(snap)
	out[SignalAO] = aoSignal(snap)
	out[SignalMomentum] = momentumSignal(snap)
	out[SignalMACD] = macdSignal(snap)
	out[SignalStochRSI] = stochPairSignal(snap.StochRSIK, snap.StochRSID)
	out[SignalWilliamsR] = williamsRSignal(snap)
	out[SignalBBP] = bbpSignal(snap)
	out[SignalUO] = uoSignal(snap)

	return out
}

// priceVsLine is the shared rule for every moving average variant.
func priceVsLine(price, line float64) contracts.Signal {
	if anyNaN(price, line) {
		return contracts.SignalNeutral
	}
	switch {
	case price > line:
		return contracts.SignalBuy
	case price < line:
		return contracts.SignalSell
	default:
		return contracts.SignalNeutral
	}
}

// ichimokuSignal requires the full stacked alignment of both spans,
// the base line, the conversion line and price.
func ichimokuSignal(s contracts.IndicatorSnapshot) contracts.Signal {
	if anyNaN(s.IchimokuA, s.IchimokuB, s.IchimokuBase, s.IchimokuConversion, s.Price) {
		return contracts.SignalNeutral
	}

	buy := s.IchimokuA > s.IchimokuB &&
		s.IchimokuBase > s.IchimokuA &&
		s.IchimokuConversion > s.IchimokuBase &&
		s.Price > s.IchimokuConversion
	sell := s.IchimokuA < s.IchimokuB &&
		s.IchimokuBase < s.IchimokuA &&
		s.IchimokuConversion < s.IchimokuBase &&
		s.Price < s.IchimokuConversion

	switch {
	case buy:
		return contracts.SignalBuy
	case sell:
		return contracts.SignalSell
	default:
		return contracts.SignalNeutral
	}
}

// rsiSignal: oversold and turning up, or overbought and turning down.
func rsiSignal(s contracts.IndicatorSnapshot) contracts.Signal {
	if anyNaN(s.RSI14, s.RSIPrev) {
		return contracts.SignalNeutral
	}
	switch {
	case s.RSI14 < 30 && s.RSI14 > s.RSIPrev:
		return contracts.SignalBuy
	case s.RSI14 > 70 && s.RSI14 < s.RSIPrev:
		return contracts.SignalSell
	default:
		return contracts.SignalNeutral
	}
}

// stochPairSignal is shared by Stochastic and StochRSI: both lines in
// the extreme zone with %K crossed to the favorable side of %D.
func stochPairSignal(k, d float64) contracts.Signal {
	if anyNaN(k, d) {
		return contracts.SignalNeutral
	}
	switch {
	case k < 20 && d < 20 && k > d:
		return contracts.SignalBuy
	case k > 80 && d > 80 && k < d:
		return contracts.SignalSell
	default:
		return contracts.SignalNeutral
	}
}

func cciSignal(s contracts.IndicatorSnapshot) contracts.Signal {
	if anyNaN(s.CCI20, s.CCIPrev) {
		return contracts.SignalNeutral
	}
	switch {
	case s.CCI20 < -100 && s.CCI20 > s.CCIPrev:
		return contracts.SignalBuy
	case s.CCI20 > 100 && s.CCI20 < s.CCIPrev:
		return contracts.SignalSell
	default:
		return contracts.SignalNeutral
	}
}

// adxSignal fires only while the trend is strengthening (ADX above 20
// and rising); direction comes from the DI lines.
func adxSignal(s contracts.IndicatorSnapshot) contracts.Signal {
	if anyNaN(s.DMIPlus, s.DMIMinus, s.ADX14, s.ADXPrev) {
		return contracts.SignalNeutral
	}
	if s.ADX14 <= 20 || s.ADX14 <= s.ADXPrev {
		return contracts.SignalNeutral
	}
	switch {
	case s.DMIPlus > s.DMIMinus:
		return contracts.SignalBuy
	case s.DMIPlus < s.DMIMinus:
		return contracts.SignalSell
	default:
		return contracts.SignalNeutral
	}
}

func aoSignal(s contracts.IndicatorSnapshot) contracts.Signal {
	if anyNaN(s.Awesome, s.AwesomePrev) {
		return contracts.SignalNeutral
	}
	switch {
	case s.Awesome > 0 && s.Awesome > s.AwesomePrev:
		return contracts.SignalBuy
	case s.Awesome < 0 && s.Awesome < s.AwesomePrev:
		return contracts.SignalSell
	default:
		return contracts.SignalNeutral
	}
}

func momentumSignal(s contracts.IndicatorSnapshot) contracts.Signal {
	if anyNaN(s.Momentum10, s.MomentumPrev) {
		return contracts.SignalNeutral
	}
	switch {
	case s.Momentum10 > s.MomentumPrev:
		return contracts.SignalBuy
	case s.Momentum10 < s.MomentumPrev:
		return contracts.SignalSell
	default:
		return contracts.SignalNeutral
	}
}

func macdSignal(s contracts.IndicatorSnapshot) contracts.Signal {
	if anyNaN(s.MACD, s.MACDSignal) {
		return contracts.SignalNeutral
	}
	switch {
	case s.MACD > s.MACDSignal:
		return contracts.SignalBuy
	case s.MACD < s.MACDSignal:
		return contracts.SignalSell
	default:
		return contracts.SignalNeutral
	}
}

func williamsRSignal(s contracts.IndicatorSnapshot) contracts.Signal {
	if anyNaN(s.WilliamsR, s.WilliamsRPrev) {
		return contracts.SignalNeutral
	}
	switch {
	case s.WilliamsR < -80 && s.WilliamsR > s.WilliamsRPrev:
		return contracts.SignalBuy
	case s.WilliamsR > -20 && s.WilliamsR < s.WilliamsRPrev:
		return contracts.SignalSell
	default:
		return contracts.SignalNeutral
	}
}

// bbpSignal is Elder's Bull/Bear Power rule: buy when the trend (EMA13)
// turns up while bear power is negative but improving, sell on the
// mirror image.
func bbpSignal(s contracts.IndicatorSnapshot) contracts.Signal {
	if anyNaN(s.EMA13, s.EMA13Prev, s.BullPower, s.BearPower,
		s.BullPowerPrev, s.BearPowerPrev) {
		return contracts.SignalNeutral
	}
	switch {
	case s.EMA13 > s.EMA13Prev && s.BearPower < 0 && s.BearPower > s.BearPowerPrev:
		return contracts.SignalBuy
	case s.EMA13 < s.EMA13Prev && s.BullPower > 0 && s.BullPower < s.BullPowerPrev:
		return contracts.SignalSell
	default:
		return contracts.SignalNeutral
	}
}

func uoSignal(s contracts.IndicatorSnapshot) contracts.Signal {
	if math.IsNaN(s.Ultimate) {
		return contracts.SignalNeutral
	}
	switch {
	case s.Ultimate > 70:
		return contracts.SignalBuy
	case s.Ultimate < 30:
		return contracts.SignalSell
	default:
		return contracts.SignalNeutral
	}
}

func anyNaN(values ...float64) bool {
	for _, v := range values {
		if math.IsNaN(v) {
			return true
		}
	}
	return false
}
