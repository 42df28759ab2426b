package indicator

import (
	"math"

	"TradePulse/internal/domain/models"
)

// Default lookbacks. The snapshot builder needs history at least as long as
// the largest of these.
const (
	FastEMAPeriod = 12
	SlowEMAPeriod = 21
	LongEMAPeriod = 50
	RSIPeriod     = 14
	ATRPeriod     = 14
	ADXPeriod     = 14
	ChopPeriod    = 14
)

// MinHistory is the candle count required by Snapshot.
const MinHistory = LongEMAPeriod

// SMA returns the simple average of the trailing period values.
func SMA(values []float64, period int) (float64, error) {
	if len(values) < period || period <= 0 {
		return 0, models.InsufficientDataError(period, len(values))
	}
	var sum float64
	for _, v := range values[len(values)-period:] {
		sum += v
	}
	return sum / float64(period), nil
}

// EMA returns the exponential average over the full series, seeded from the
// first sample with smoothing 2/(period+1).
func EMA(values []float64, period int) (float64, error) {
	if len(values) < period || period <= 0 {
		return 0, models.InsufficientDataError(period, len(values))
	}
	alpha := 2.0 / (float64(period) + 1.0)
	ema := values[0]
	for _, v := range values[1:] {
		ema = v*alpha + ema*(1-alpha)
	}
	return ema, nil
}

// RSI computes the relative strength index from simple averages of gains and
// losses over the trailing period deltas. A zero average loss returns 100.
func RSI(closes []float64, period int) (float64, error) {
	if len(closes) < period+1 {
		return 0, models.InsufficientDataError(period+1, len(closes))
	}
	var gains, losses float64
	start := len(closes) - period
	for i := start; i < len(closes); i++ {
		d := closes[i] - closes[i-1]
		if d > 0 {
			gains += d
		} else {
			losses -= d
		}
	}
	avgGain := gains / float64(period)
	avgLoss := losses / float64(period)
	if avgLoss == 0 {
		return 100, nil
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs), nil
}

// TrueRanges returns the true-range series; element i covers candle i+1.
func TrueRanges(highs, lows, closes []float64) []float64 {
	if len(highs) < 2 {
		return nil
	}
	trs := make([]float64, 0, len(highs)-1)
	for i := 1; i < len(highs); i++ {
		tr := highs[i] - lows[i]
		if v := math.Abs(highs[i] - closes[i-1]); v > tr {
			tr = v
		}
		if v := math.Abs(lows[i] - closes[i-1]); v > tr {
			tr = v
		}
		trs = append(trs, tr)
	}
	return trs
}

// ATR is the simple mean of the trailing period true ranges.
func ATR(highs, lows, closes []float64, period int) (float64, error) {
	if len(closes) < period+1 {
		return 0, models.InsufficientDataError(period+1, len(closes))
	}
	trs := TrueRanges(highs, lows, closes)
	var sum float64
	for _, tr := range trs[len(trs)-period:] {
		sum += tr
	}
	return sum / float64(period), nil
}

// ADX combines window-smoothed directional movement into a directional
// index. With fewer than period+1 samples it returns 0, read downstream as
// "no trend evidence" rather than an error.
func ADX(highs, lows, closes []float64, period int) float64 {
	if len(closes) < period+1 {
		return 0
	}
	trs := TrueRanges(highs, lows, closes)
	plusDM := make([]float64, len(trs))
	minusDM := make([]float64, len(trs))
	for i := 1; i < len(highs); i++ {
		up := highs[i] - highs[i-1]
		down := lows[i-1] - lows[i]
		if up > down && up > 0 {
			plusDM[i-1] = up
		}
		if down > up && down > 0 {
			minusDM[i-1] = down
		}
	}

	// Rolling window means from index period-1 onward.
	var dx []float64
	for i := period - 1; i < len(trs); i++ {
		var atr, pdm, mdm float64
		for j := i - period + 1; j <= i; j++ {
			atr += trs[j]
			pdm += plusDM[j]
			mdm += minusDM[j]
		}
		if atr == 0 {
			continue
		}
		plusDI := 100 * pdm / atr
		minusDI := 100 * mdm / atr
		if plusDI+minusDI == 0 {
			continue
		}
		dx = append(dx, 100*math.Abs(plusDI-minusDI)/(plusDI+minusDI))
	}
	if len(dx) == 0 {
		return 0
	}
	n := period
	if len(dx) < n {
		n = len(dx)
	}
	var sum float64
	for _, v := range dx[len(dx)-n:] {
		sum += v
	}
	return sum / float64(n)
}

// Choppiness computes the choppiness index over the trailing period. A zero
// high-low range degenerates to 100 (fully choppy), never an error; callers
// record the substitution.
func Choppiness(highs, lows, closes []float64, period int) float64 {
	v, _ := ChoppinessChecked(highs, lows, closes, period)
	return v
}

// ChoppinessChecked also reports whether the 100 came from a degenerate
// flat range rather than genuinely choppy price action.
func ChoppinessChecked(highs, lows, closes []float64, period int) (float64, bool) {
	if len(closes) < period+1 {
		return 100, false
	}
	trs := TrueRanges(highs, lows, closes)
	var sumTR float64
	for _, tr := range trs[len(trs)-period:] {
		sumTR += tr
	}
	hi := highs[len(highs)-period]
	lo := lows[len(lows)-period]
	for i := len(highs) - period; i < len(highs); i++ {
		if highs[i] > hi {
			hi = highs[i]
		}
		if lows[i] < lo {
			lo = lows[i]
		}
	}
	rng := hi - lo
	if rng <= 0 || sumTR <= 0 {
		return 100, true
	}
	return 100 * math.Log10(sumTR/rng) / math.Log10(float64(period)), false
}

// VWAP is the volume-weighted average of the typical price (H+L+C)/3 over
// the supplied subset, commonly the current session. With zero total volume
// it degrades to the last close.
func VWAP(candles models.Series) float64 {
	var pv, vol float64
	for _, c := range candles {
		tp := (c.High + c.Low + c.Close) / 3
		pv += tp * c.Volume
		vol += c.Volume
	}
	if vol == 0 {
		if last, ok := candles.Last(); ok {
			return last.Close
		}
		return 0
	}
	return pv / vol
}

// Snapshot computes the full indicator set as of the last candle. The
// session subset (for VWAP anchoring) may equal the whole series when no
// session boundary is known.
func Snapshot(candles, session models.Series) (models.IndicatorSet, error) {
	if len(candles) < MinHistory {
		return models.IndicatorSet{}, models.InsufficientDataError(MinHistory, len(candles))
	}
	closes := candles.Closes()
	highs := candles.Highs()
	lows := candles.Lows()

	var set models.IndicatorSet
	var err error
	if set.EMA12, err = EMA(closes, FastEMAPeriod); err != nil {
		return set, err
	}
	if set.EMA21, err = EMA(closes, SlowEMAPeriod); err != nil {
		return set, err
	}
	if set.EMA50, err = EMA(closes, LongEMAPeriod); err != nil {
		return set, err
	}
	if set.RSI14, err = RSI(closes, RSIPeriod); err != nil {
		return set, err
	}
	if set.ATR14, err = ATR(highs, lows, closes, ATRPeriod); err != nil {
		return set, err
	}
	set.ADX14 = ADX(highs, lows, closes, ADXPeriod)
	set.Chop14, set.ChopDegenerate = ChoppinessChecked(highs, lows, closes, ChopPeriod)
	if len(session) == 0 {
		session = candles
	}
	set.VWAP = VWAP(session)

	fillExtras(&set, highs, lows, closes)
	return set, nil
}
