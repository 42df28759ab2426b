package features

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TradePulse/internal/domain/models"
	drepo "TradePulse/internal/domain/repository"
)

func candles(closes ...float64) models.Series {
	start := time.Date(2024, 3, 14, 10, 0, 0, 0, time.UTC)
	out := make(models.Series, len(closes))
	for i, c := range closes {
		out[i] = models.Candle{Timestamp: start.Add(time.Duration(i) * 5 * time.Minute), Close: c}
	}
	return out
}

func TestLogReturns(t *testing.T) {
	got := LogReturns(candles(100, 110, 99))
	require.Len(t, got, 2)
	assert.InDelta(t, math.Log(1.1), got[0], 1e-12)
	assert.InDelta(t, math.Log(99.0/110.0), got[1], 1e-12)
}

func TestLogReturnsGuards(t *testing.T) {
	assert.Nil(t, LogReturns(candles(100)))

	// Non-positive closes contribute a zero return instead of NaN.
	got := LogReturns(candles(100, 0, 50))
	require.Len(t, got, 2)
	assert.Zero(t, got[0])
	assert.Zero(t, got[1])
}

func TestRealizedVolatilityConstantSeriesIsZero(t *testing.T) {
	rets := make([]float64, 30)
	assert.Zero(t, RealizedVolatility(rets, 20, 365*24*12))
}

func TestRealizedVolatilityShortSeriesIsZero(t *testing.T) {
	assert.Zero(t, RealizedVolatility([]float64{0.01, -0.01}, 20, 365*24*12))
}

func TestRealizedVolatilityAlternatingReturns(t *testing.T) {
	rets := make([]float64, 20)
	for i := range rets {
		if i%2 == 0 {
			rets[i] = 0.01
		} else {
			rets[i] = -0.01
		}
	}
	// Sample stddev of +-0.01 around mean 0 is ~0.010259, annualized by sqrt.
	got := RealizedVolatility(rets, 20, 252)
	want := math.Sqrt(0.01 * 0.01 * 20 / 19 * 252)
	assert.InDelta(t, want, got, 1e-9)
}

func TestVectorCarriesIndicatorKeys(t *testing.T) {
	ind := models.IndicatorSet{
		EMA12: 1.089, EMA21: 1.088, EMA50: 1.085,
		RSI14: 55, ATR14: 0.001, ADX14: 28, Chop14: 45, VWAP: 1.0885,
	}
	v := Vector(ind, candles(1.08, 1.081, 1.082), 1.0825, drepo.TFM5)

	for _, key := range []string{
		"close", "ema_12", "ema_21", "ema_50", "rsi_14",
		"atr_14", "adx_14", "choppiness_14", "vwap", "realized_vol",
		"macd", "macd_signal", "bb_upper", "bb_lower", "stoch_k", "stoch_d",
	} {
		_, ok := v[key]
		assert.True(t, ok, "missing key %s", key)
	}
	assert.Equal(t, 1.0825, v["close"])
	assert.Equal(t, 55.0, v["rsi_14"])
}

func TestBarsPerYearOrdering(t *testing.T) {
	assert.Greater(t, BarsPerYear(drepo.TFM1), BarsPerYear(drepo.TFM5))
	assert.Greater(t, BarsPerYear(drepo.TFH1), BarsPerYear(drepo.TFD1))
	assert.Equal(t, 365.0, BarsPerYear(drepo.TFD1))
}
