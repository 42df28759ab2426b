package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TradePulse/internal/domain/models"
)

func trendBuyInput() Input {
	return Input{
		Symbol: "EURUSD",
		Price:  1.0900,
		Indicators: models.IndicatorSet{
			EMA12: 1.0890,
			EMA21: 1.0880,
			EMA50: 1.0850,
			RSI14: 55,
			ATR14: 0.0010,
			VWAP:  1.0885,
		},
		Regime: models.RegimeClassification{Regime: models.RegimeTrend, ADX: 30, Choppiness: 40},
	}
}

func TestTrendBuyBaseConfidence(t *testing.T) {
	got := Select(trendBuyInput(), DefaultConfig())
	assert.Equal(t, models.Buy, got.Direction)
	assert.Equal(t, 60.0, got.BaseConfidence)
	assert.False(t, got.Fallback)
	require.NotEmpty(t, got.Reasons)
	assert.Equal(t, "regime=TREND", got.Reasons[0])
}

func TestTrendBuyAllBonuses(t *testing.T) {
	in := trendBuyInput()
	in.Price = 1.0882 // within 0.3*ATR of ema21, above the IB high
	in.Indicators.VWAP = 1.0870
	in.Levels.InitialBalance = &models.IBRange{High: 1.0875, Low: 1.0850}
	in.InPostOpen = true
	in.HigherTF = []models.MTFSignal{
		{Timeframe: "H1", Trend: models.TrendBullish},
		{Timeframe: "H4", Trend: models.TrendBullish},
	}

	got := Select(in, DefaultConfig())
	require.Equal(t, models.Buy, got.Direction)
	// 60 base +10 pullback +15 IB break +20 post-open +10 MTF.
	assert.Equal(t, 115.0, got.BaseConfidence)
	assert.Contains(t, got.Reasons, "pullback near ema21: +10")
	assert.Contains(t, got.Reasons, "initial balance break: +15")
	assert.Contains(t, got.Reasons, "break inside post-open window: +20")
	assert.Contains(t, got.Reasons, "multi-timeframe alignment: +10")
}

func TestTrendBuyResistancePenalties(t *testing.T) {
	in := trendBuyInput()
	in.Levels.PrevDayHigh = 1.0902
	in.Levels.RoundNumberAbove = 1.0901

	got := Select(in, DefaultConfig())
	require.Equal(t, models.Buy, got.Direction)
	assert.Equal(t, 45.0, got.BaseConfidence)
	assert.Contains(t, got.Reasons, "previous day high overhead: -10")
	assert.Contains(t, got.Reasons, "round number overhead: -5")
}

func TestTrendSell(t *testing.T) {
	in := trendBuyInput()
	in.Indicators.EMA12 = 1.0870
	in.Indicators.EMA21 = 1.0880
	in.Indicators.RSI14 = 42
	in.Price = 1.0860
	in.Indicators.VWAP = 1.0875

	got := Select(in, DefaultConfig())
	assert.Equal(t, models.Sell, got.Direction)
	assert.Equal(t, 60.0, got.BaseConfidence)
}

func TestTrendBlockedByHigherTFDisagreement(t *testing.T) {
	in := trendBuyInput()
	in.HigherTF = []models.MTFSignal{{Timeframe: "H1", Trend: models.TrendBearish}}

	got := Select(in, DefaultConfig())
	assert.True(t, got.Fallback)
}

func TestRangeBuyAtIBLow(t *testing.T) {
	in := Input{
		Symbol: "EURUSD",
		Price:  1.0851,
		Indicators: models.IndicatorSet{
			RSI14: 25,
			ATR14: 0.0010,
			VWAP:  1.0875,
		},
		Levels: models.SessionLevels{
			InitialBalance: &models.IBRange{High: 1.0900, Low: 1.0850},
			PrevDayLow:     1.0850,
		},
		Regime: models.RegimeClassification{Regime: models.RegimeRange, Choppiness: 70},
	}

	got := Select(in, DefaultConfig())
	require.Equal(t, models.Buy, got.Direction)
	// 55 base +10 previous-day-low confluence.
	assert.Equal(t, 65.0, got.BaseConfidence)
	assert.Equal(t, 1.0875, got.TargetHint) // reversion to VWAP
	assert.Equal(t, 1.0850, got.StopHint)
	assert.Contains(t, got.Reasons, "previous day low confluence: +10")
}

func TestRangeSellAtIBHigh(t *testing.T) {
	in := Input{
		Symbol: "EURUSD",
		Price:  1.0899,
		Indicators: models.IndicatorSet{
			RSI14: 75,
			ATR14: 0.0010,
			VWAP:  1.0875,
		},
		Levels: models.SessionLevels{InitialBalance: &models.IBRange{High: 1.0900, Low: 1.0850}},
		Regime: models.RegimeClassification{Regime: models.RegimeRange, Choppiness: 70},
	}

	got := Select(in, DefaultConfig())
	assert.Equal(t, models.Sell, got.Direction)
	assert.Equal(t, 55.0, got.BaseConfidence)
}

func TestRangeWithoutIBFallsBack(t *testing.T) {
	in := Input{
		Symbol:     "EURUSD",
		Price:      1.0875,
		Indicators: models.IndicatorSet{RSI14: 50, ATR14: 0.0010, VWAP: 1.0875},
		Regime:     models.RegimeClassification{Regime: models.RegimeRange, Choppiness: 70},
	}
	got := Select(in, DefaultConfig())
	assert.True(t, got.Fallback)
}

func TestFallbackNeverHolds(t *testing.T) {
	in := Input{
		Symbol: "EURUSD",
		Price:  1.10,
		Indicators: models.IndicatorSet{
			EMA12: 1.0990,
			EMA21: 1.0980,
			RSI14: 80, // blocks the trend buy band
			ATR14: 0.0010,
			VWAP:  1.0950,
		},
		Regime: models.RegimeClassification{Regime: models.RegimeTrend, ADX: 30, Choppiness: 40},
	}

	got := Select(in, DefaultConfig())
	assert.NotEqual(t, models.Hold, got.Direction)
	assert.Equal(t, models.Buy, got.Direction)
	assert.True(t, got.Fallback)
	assert.GreaterOrEqual(t, got.BaseConfidence, 40.0)
	assert.LessOrEqual(t, got.BaseConfidence, 45.0)
	assert.Contains(t, got.Reasons, "fallback path, wider risk multiples apply")
}

func TestFallbackSellOnBearishVotes(t *testing.T) {
	in := Input{
		Symbol: "EURUSD",
		Price:  1.0850,
		Indicators: models.IndicatorSet{
			EMA12: 1.0860,
			EMA21: 1.0870,
			RSI14: 40,
			ATR14: 0.0001, // below the volatility floor, trend states skip
			VWAP:  1.0880,
		},
		Regime: models.RegimeClassification{Regime: models.RegimeUncertain},
	}

	got := Select(in, DefaultConfig())
	assert.Equal(t, models.Sell, got.Direction)
	assert.True(t, got.Fallback)
	assert.GreaterOrEqual(t, got.BaseConfidence, 40.0)
	assert.LessOrEqual(t, got.BaseConfidence, 45.0)
}

func TestDegenerateChoppinessRecorded(t *testing.T) {
	in := trendBuyInput()
	in.Indicators.ChopDegenerate = true
	got := Select(in, DefaultConfig())
	assert.Contains(t, got.Reasons, "choppiness degenerate (flat range), substituted 100")
}

func TestSelectDeterministic(t *testing.T) {
	in := trendBuyInput()
	in.Levels.PrevDayHigh = 1.0950
	a := Select(in, DefaultConfig())
	b := Select(in, DefaultConfig())
	assert.Equal(t, a, b)
}
