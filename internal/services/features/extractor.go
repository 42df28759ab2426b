// Package features builds the numeric feature vector handed to the external
// prediction model.
package features

import (
	"math"

	"TradePulse/internal/domain/models"
	drepo "TradePulse/internal/domain/repository"
)

// volWindow is the realized-volatility lookback in bars.
const volWindow = 20

// LogReturns computes r_t = ln(C_t / C_{t-1}) over the series. Returns a
// slice of length len(candles)-1, nil on insufficient data.
func LogReturns(candles models.Series) []float64 {
	if len(candles) < 2 {
		return nil
	}
	out := make([]float64, 0, len(candles)-1)
	for i := 1; i < len(candles); i++ {
		prev := candles[i-1].Close
		cur := candles[i].Close
		if prev <= 0 || cur <= 0 {
			out = append(out, 0)
			continue
		}
		out = append(out, math.Log(cur/prev))
	}
	return out
}

// RealizedVolatility computes the annualized realized volatility of the last
// window returns. Zero when the series is too short.
func RealizedVolatility(logReturns []float64, window int, barsPerYear float64) float64 {
	if window <= 1 || len(logReturns) < window {
		return 0
	}
	sum := 0.0
	sum2 := 0.0
	for i := len(logReturns) - window; i < len(logReturns); i++ {
		r := logReturns[i]
		sum += r
		sum2 += r * r
	}
	n := float64(window)
	mean := sum / n
	variance := (sum2 - n*mean*mean) / (n - 1)
	if variance < 0 {
		variance = 0
	}
	return math.Sqrt(variance * barsPerYear)
}

// BarsPerYear returns the approximate bar count per year for a timeframe.
func BarsPerYear(tf drepo.Timeframe) float64 {
	switch tf {
	case drepo.TFM1:
		return 365 * 24 * 60
	case drepo.TFM5:
		return 365 * 24 * 12
	case drepo.TFM15:
		return 365 * 24 * 4
	case drepo.TFH1:
		return 365 * 24
	case drepo.TFH4:
		return 365 * 6
	case drepo.TFD1:
		return 365
	default:
		return 365 * 24 * 12
	}
}

// Vector assembles the model input from the indicator snapshot and the
// candle series. Keys are stable; the model service depends on them.
func Vector(ind models.IndicatorSet, candles models.Series, price float64, tf drepo.Timeframe) map[string]float64 {
	rv := RealizedVolatility(LogReturns(candles), volWindow, BarsPerYear(tf))
	return map[string]float64{
		"close":         price,
		"ema_12":        ind.EMA12,
		"ema_21":        ind.EMA21,
		"ema_50":        ind.EMA50,
		"rsi_14":        ind.RSI14,
		"atr_14":        ind.ATR14,
		"adx_14":        ind.ADX14,
		"choppiness_14": ind.Chop14,
		"vwap":          ind.VWAP,
		"macd":          ind.MACD,
		"macd_signal":   ind.MACDSignal,
		"bb_upper":      ind.BBUpper,
		"bb_lower":      ind.BBLower,
		"stoch_k":       ind.StochK,
		"stoch_d":       ind.StochD,
		"realized_vol":  rv,
	}
}
