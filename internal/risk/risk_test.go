package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TradePulse/internal/domain/models"
)

func fxInput(dir models.Direction) Input {
	return Input{
		Direction: dir,
		Entry:     1.0900,
		ATR:       0.0010,
		Spread:    0.0001,
		Spec:      models.DefaultSpec(models.ClassMajorFX),
		Regime:    models.RegimeTrend,
	}
}

func TestTrendBuyLevels(t *testing.T) {
	got, reasons := Calculate(fxInput(models.Buy), DefaultConfig())

	// stop = ATR*2 + spread = 21 pips, reward 2:1.
	assert.InDelta(t, 1.0879, got.StopLoss, 1e-9)
	assert.InDelta(t, 1.0942, got.TakeProfit, 1e-9)
	assert.InDelta(t, 2.0, got.RiskReward, 1e-9)
	assert.InDelta(t, 21.0, got.StopDistancePips, 1e-9)
	assert.False(t, got.Corrected)
	assert.Empty(t, reasons)
}

func TestTrendSellLevels(t *testing.T) {
	got, _ := Calculate(fxInput(models.Sell), DefaultConfig())
	assert.InDelta(t, 1.0921, got.StopLoss, 1e-9)
	assert.InDelta(t, 1.0858, got.TakeProfit, 1e-9)
	assert.Less(t, got.TakeProfit, got.EntryPrice)
	assert.Greater(t, got.StopLoss, got.EntryPrice)
}

func TestMinimumStopFloor(t *testing.T) {
	in := fxInput(models.Buy)
	in.ATR = 0.0002 // 2*ATR + spread under the 10 pip class minimum

	got, reasons := Calculate(in, DefaultConfig())
	assert.InDelta(t, 10.0, got.StopDistancePips, 1e-9)
	assert.Contains(t, reasons, "stop widened to minimum distance")
}

func TestSpreadFloorDominatesWidePips(t *testing.T) {
	in := fxInput(models.Buy)
	in.ATR = 0.0002
	in.Spread = 0.0010 // 1.5x spread beats the pip minimum

	got, _ := Calculate(in, DefaultConfig())
	assert.InDelta(t, 15.0, got.StopDistancePips, 1e-9)
}

func TestMaximumStopCap(t *testing.T) {
	in := fxInput(models.Buy)
	in.ATR = 0.0040

	got, reasons := Calculate(in, DefaultConfig())
	assert.InDelta(t, 50.0, got.StopDistancePips, 1e-9)
	assert.Contains(t, reasons, "stop capped at class maximum")
}

func TestRangeBuyTargetsVWAP(t *testing.T) {
	in := Input{
		Direction: models.Buy,
		Entry:     1.0850,
		ATR:       0.0010,
		Spread:    0.0001,
		Spec:      models.DefaultSpec(models.ClassMajorFX),
		Regime:    models.RegimeRange,
		VWAP:      1.0890,
	}
	got, reasons := Calculate(in, DefaultConfig())
	assert.InDelta(t, 1.0890, got.TakeProfit, 1e-9)
	assert.Contains(t, reasons, "take profit targets session VWAP")
	assert.InDelta(t, 2.5, got.RiskReward, 1e-9)
}

func TestRangeRewardClampedAtMax(t *testing.T) {
	in := Input{
		Direction: models.Buy,
		Entry:     1.0850,
		ATR:       0.0010,
		Spread:    0.0001,
		Spec:      models.DefaultSpec(models.ClassMajorFX),
		Regime:    models.RegimeRange,
		VWAP:      1.0950, // far beyond 3 stop multiples
	}
	got, _ := Calculate(in, DefaultConfig())
	assert.InDelta(t, 3.0, got.RiskReward, 1e-9)
}

func TestRangeFallsBackToStructuralTarget(t *testing.T) {
	in := Input{
		Direction:        models.Buy,
		Entry:            1.0850,
		ATR:              0.0010,
		Spread:           0.0001,
		Spec:             models.DefaultSpec(models.ClassMajorFX),
		Regime:           models.RegimeRange,
		VWAP:             1.0840, // adverse side, unusable for a buy
		StructuralTarget: 1.0880,
	}
	got, reasons := Calculate(in, DefaultConfig())
	assert.InDelta(t, 1.0880, got.TakeProfit, 1e-9)
	assert.Contains(t, reasons, "take profit targets structural level")
}

func TestRangeNoReachableTarget(t *testing.T) {
	in := Input{
		Direction: models.Buy,
		Entry:     1.0850,
		ATR:       0.0010,
		Spread:    0.0001,
		Spec:      models.DefaultSpec(models.ClassMajorFX),
		Regime:    models.RegimeRange,
		VWAP:      1.0840,
	}
	got, reasons := Calculate(in, DefaultConfig())
	assert.Greater(t, got.TakeProfit, got.EntryPrice)
	assert.InDelta(t, 1.5, got.RiskReward, 1e-9)
	assert.Contains(t, reasons, "no reachable reversion target, reward ratio fallback")
}

func TestFallbackUsesWiderMultiples(t *testing.T) {
	in := fxInput(models.Sell)
	in.Regime = models.RegimeUncertain
	in.Fallback = true

	got, _ := Calculate(in, DefaultConfig())
	// stop = ATR*2.5 + spread = 26 pips, reward 1.5:1.
	assert.InDelta(t, 26.0, got.StopDistancePips, 1e-9)
	assert.InDelta(t, 1.5, got.RiskReward, 1e-9)
}

func TestDirectionConsistencyCorrection(t *testing.T) {
	// Degenerate inputs collapse sl/tp onto entry; the corrector must fire
	// and flag the record rather than ship the pair silently.
	in := Input{Direction: models.Buy, Entry: 1.0850, Regime: models.RegimeTrend}
	got, reasons := Calculate(in, DefaultConfig())
	assert.True(t, got.Corrected)
	assert.Contains(t, reasons, "sl/tp recomputed from ATR multiples: direction consistency")
}

func TestLevelsAlwaysOnCorrectSide(t *testing.T) {
	specs := []models.SymbolClass{models.ClassMajorFX, models.ClassJPY, models.ClassMetal, models.ClassCrypto}
	entries := map[models.SymbolClass]float64{
		models.ClassMajorFX: 1.0900,
		models.ClassJPY:     157.20,
		models.ClassMetal:   2350.0,
		models.ClassCrypto:  64000.0,
	}
	for _, class := range specs {
		for _, dir := range []models.Direction{models.Buy, models.Sell} {
			for _, regime := range []models.Regime{models.RegimeTrend, models.RegimeRange, models.RegimeUncertain} {
				in := Input{
					Direction: dir,
					Entry:     entries[class],
					ATR:       entries[class] * 0.001,
					Spread:    entries[class] * 0.0001,
					Spec:      models.DefaultSpec(class),
					Regime:    regime,
					Fallback:  regime == models.RegimeUncertain,
					VWAP:      entries[class] * 1.002,
				}
				got, _ := Calculate(in, DefaultConfig())
				require.NotZero(t, got.StopLoss)
				if dir == models.Buy {
					assert.Less(t, got.StopLoss, got.EntryPrice, "%s %s %s", class, dir, regime)
					assert.Greater(t, got.TakeProfit, got.EntryPrice, "%s %s %s", class, dir, regime)
				} else {
					assert.Greater(t, got.StopLoss, got.EntryPrice, "%s %s %s", class, dir, regime)
					assert.Less(t, got.TakeProfit, got.EntryPrice, "%s %s %s", class, dir, regime)
				}
			}
		}
	}
}
