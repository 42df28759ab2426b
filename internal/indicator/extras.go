package indicator

import (
	"github.com/markcheno/go-talib"

	"TradePulse/internal/domain/models"
)

// Confluence lookbacks, consumed only by the confidence scoring.
const (
	macdFast   = 12
	macdSlow   = 26
	macdSignal = 9
	bbPeriod   = 20
	bbDev      = 2.0
	stochK     = 14
	stochD     = 3
)

// fillExtras adds MACD, Bollinger and Stochastic to the snapshot. These
// feed the technical-quality score, never the regime/strategy path, so
// talib's own seeding/smoothing is acceptable here; the documented formulas
// in indicator.go stay hand-rolled because talib smooths differently.
func fillExtras(set *models.IndicatorSet, highs, lows, closes []float64) {
	if len(closes) < macdSlow+macdSignal {
		return
	}
	macd, signal, _ := talib.Macd(closes, macdFast, macdSlow, macdSignal)
	set.MACD = last(macd)
	set.MACDSignal = last(signal)

	if len(closes) >= bbPeriod {
		upper, _, lower := talib.BBands(closes, bbPeriod, bbDev, bbDev, talib.SMA)
		set.BBUpper = last(upper)
		set.BBLower = last(lower)
	}

	if len(closes) >= stochK+stochD {
		k, d := talib.Stoch(highs, lows, closes, stochK, stochD, talib.SMA, stochD, talib.SMA)
		set.StochK = last(k)
		set.StochD = last(d)
	}
}

func last(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return xs[len(xs)-1]
}
