// Package strategy implements the regime-gated entry selector. Evaluation
// walks a fixed state order and always terminates in an emission; the
// fallback state converts a would-be HOLD into a low-confidence directional
// read so downstream consumers always receive BUY or SELL.
package strategy

import (
	"fmt"

	"TradePulse/internal/domain/models"
)

// State identifies one evaluation step of the selector.
type State string

const (
	StateTrendBuy  State = "TREND_BUY_EVAL"
	StateTrendSell State = "TREND_SELL_EVAL"
	StateRangeBuy  State = "RANGE_BUY_EVAL"
	StateRangeSell State = "RANGE_SELL_EVAL"
	StateFallback  State = "FALLBACK_EVAL"
)

// Config holds the selector's tunable gates, bonuses and penalties.
type Config struct {
	TrendBase    float64 `yaml:"trend_base_confidence" default:"60"`
	RangeBase    float64 `yaml:"range_base_confidence" default:"55"`
	FallbackBase float64 `yaml:"fallback_base_confidence" default:"40"`

	// Moderate momentum bands for trend entries. A buy wants RSI rising but
	// not yet overbought; a sell the mirror image.
	RSIBuyFloor    float64 `yaml:"rsi_buy_floor" default:"45"`
	RSIBuyCeiling  float64 `yaml:"rsi_buy_ceiling" default:"70"`
	RSISellFloor   float64 `yaml:"rsi_sell_floor" default:"30"`
	RSISellCeiling float64 `yaml:"rsi_sell_ceiling" default:"55"`

	// Exhaustion gates for mean-reversion entries at the IB extremes.
	RSIOversold   float64 `yaml:"rsi_oversold" default:"30"`
	RSIOverbought float64 `yaml:"rsi_overbought" default:"70"`

	// MinVolatilityPct is the ATR floor as a percentage of price.
	MinVolatilityPct float64 `yaml:"min_volatility_pct" default:"0.03"`

	// Proximity tolerances expressed as fractions of ATR.
	PullbackATRFrac float64 `yaml:"pullback_atr_fraction" default:"0.3"`
	LevelATRFrac    float64 `yaml:"level_atr_fraction" default:"0.25"`

	BonusPullback      float64 `yaml:"bonus_pullback" default:"10"`
	BonusIBBreak       float64 `yaml:"bonus_ib_break" default:"15"`
	BonusIBBreakOpen   float64 `yaml:"bonus_ib_break_post_open" default:"20"`
	BonusMTFAlign      float64 `yaml:"bonus_mtf_alignment" default:"10"`
	BonusLevelConflux  float64 `yaml:"bonus_level_confluence" default:"10"`
	BonusRoundConflux  float64 `yaml:"bonus_round_confluence" default:"5"`
	PenaltyPrevDay     float64 `yaml:"penalty_prev_day_level" default:"10"`
	PenaltyRoundNumber float64 `yaml:"penalty_round_number" default:"5"`
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		TrendBase:          60,
		RangeBase:          55,
		FallbackBase:       40,
		RSIBuyFloor:        45,
		RSIBuyCeiling:      70,
		RSISellFloor:       30,
		RSISellCeiling:     55,
		RSIOversold:        30,
		RSIOverbought:      70,
		MinVolatilityPct:   0.03,
		PullbackATRFrac:    0.3,
		LevelATRFrac:       0.25,
		BonusPullback:      10,
		BonusIBBreak:       15,
		BonusIBBreakOpen:   20,
		BonusMTFAlign:      10,
		BonusLevelConflux:  10,
		BonusRoundConflux:  5,
		PenaltyPrevDay:     10,
		PenaltyRoundNumber: 5,
	}
}

// Input is everything one selector evaluation reads. Immutable.
type Input struct {
	Symbol     string
	Price      float64
	Indicators models.IndicatorSet
	Levels     models.SessionLevels
	Regime     models.RegimeClassification
	HigherTF   []models.MTFSignal
	// InPostOpen marks the bonus window after a major session open.
	InPostOpen bool
}

// Select runs the state machine to its terminal emission.
func Select(in Input, cfg Config) models.CandidateSignal {
	sig := run(in, cfg)
	if in.Indicators.ChopDegenerate {
		sig.Reasons = append(sig.Reasons, "choppiness degenerate (flat range), substituted 100")
	}
	return sig
}

func run(in Input, cfg Config) models.CandidateSignal {
	state := StateTrendBuy
	for {
		switch state {
		case StateTrendBuy:
			if in.Regime.Regime != models.RegimeTrend {
				state = StateRangeBuy
				continue
			}
			if sig, ok := trendEntry(in, cfg, models.Buy); ok {
				return sig
			}
			state = StateTrendSell
		case StateTrendSell:
			if sig, ok := trendEntry(in, cfg, models.Sell); ok {
				return sig
			}
			state = StateFallback
		case StateRangeBuy:
			if in.Regime.Regime != models.RegimeRange || in.Levels.InitialBalance == nil {
				state = StateFallback
				continue
			}
			if sig, ok := rangeEntry(in, cfg, models.Buy); ok {
				return sig
			}
			state = StateRangeSell
		case StateRangeSell:
			if sig, ok := rangeEntry(in, cfg, models.Sell); ok {
				return sig
			}
			state = StateFallback
		default:
			return fallbackEntry(in, cfg)
		}
	}
}

// trendEntry evaluates a directional continuation setup under TREND regime.
func trendEntry(in Input, cfg Config, dir models.Direction) (models.CandidateSignal, bool) {
	ind := in.Indicators
	bull := dir == models.Buy

	if bull && ind.EMA12 <= ind.EMA21 {
		return models.CandidateSignal{}, false
	}
	if !bull && ind.EMA12 >= ind.EMA21 {
		return models.CandidateSignal{}, false
	}
	if bull && in.Price <= ind.VWAP {
		return models.CandidateSignal{}, false
	}
	if !bull && in.Price >= ind.VWAP {
		return models.CandidateSignal{}, false
	}
	if bull && (ind.RSI14 < cfg.RSIBuyFloor || ind.RSI14 > cfg.RSIBuyCeiling) {
		return models.CandidateSignal{}, false
	}
	if !bull && (ind.RSI14 < cfg.RSISellFloor || ind.RSI14 > cfg.RSISellCeiling) {
		return models.CandidateSignal{}, false
	}
	if !higherTFAgrees(in.HigherTF, dir) {
		return models.CandidateSignal{}, false
	}
	if in.Price <= 0 || ind.ATR14/in.Price*100 < cfg.MinVolatilityPct {
		return models.CandidateSignal{}, false
	}

	side := "above"
	if !bull {
		side = "below"
	}
	conf := cfg.TrendBase
	reasons := []string{
		"regime=TREND",
		fmt.Sprintf("ema12 %s ema21", side),
		fmt.Sprintf("price %s session VWAP", side),
		fmt.Sprintf("RSI %.1f in momentum band", ind.RSI14),
		"higher timeframe trend agrees",
		"volatility above floor",
	}

	if ind.ATR14 > 0 && abs(in.Price-ind.EMA21) <= cfg.PullbackATRFrac*ind.ATR14 {
		conf += cfg.BonusPullback
		reasons = append(reasons, fmt.Sprintf("pullback near ema21: +%.0f", cfg.BonusPullback))
	}
	if ib := in.Levels.InitialBalance; ib != nil {
		broke := (bull && in.Price > ib.High) || (!bull && in.Price < ib.Low)
		if broke {
			conf += cfg.BonusIBBreak
			reasons = append(reasons, fmt.Sprintf("initial balance break: +%.0f", cfg.BonusIBBreak))
			if in.InPostOpen {
				conf += cfg.BonusIBBreakOpen
				reasons = append(reasons, fmt.Sprintf("break inside post-open window: +%.0f", cfg.BonusIBBreakOpen))
			}
		}
	}
	if fullyAligned(in.HigherTF, dir) {
		conf += cfg.BonusMTFAlign
		reasons = append(reasons, fmt.Sprintf("multi-timeframe alignment: +%.0f", cfg.BonusMTFAlign))
	}

	prox := cfg.LevelATRFrac * ind.ATR14
	if bull {
		if h := in.Levels.PrevDayHigh; h > 0 && h >= in.Price && h-in.Price <= prox {
			conf -= cfg.PenaltyPrevDay
			reasons = append(reasons, fmt.Sprintf("previous day high overhead: -%.0f", cfg.PenaltyPrevDay))
		}
		if r := in.Levels.RoundNumberAbove; r > 0 && r-in.Price <= prox {
			conf -= cfg.PenaltyRoundNumber
			reasons = append(reasons, fmt.Sprintf("round number overhead: -%.0f", cfg.PenaltyRoundNumber))
		}
	} else {
		if l := in.Levels.PrevDayLow; l > 0 && l <= in.Price && in.Price-l <= prox {
			conf -= cfg.PenaltyPrevDay
			reasons = append(reasons, fmt.Sprintf("previous day low underfoot: -%.0f", cfg.PenaltyPrevDay))
		}
		if r := in.Levels.RoundNumberBelow; r > 0 && in.Price-r <= prox {
			conf -= cfg.PenaltyRoundNumber
			reasons = append(reasons, fmt.Sprintf("round number underfoot: -%.0f", cfg.PenaltyRoundNumber))
		}
	}

	sig := models.CandidateSignal{
		Symbol:         in.Symbol,
		Direction:      dir,
		BaseConfidence: conf,
		Reasons:        reasons,
	}
	sig.StopHint, sig.TargetHint = trendHints(in, bull)
	return sig, true
}

func trendHints(in Input, bull bool) (stop, target float64) {
	ib := in.Levels.InitialBalance
	if bull {
		if ib != nil {
			stop = ib.Low
		} else {
			stop = in.Levels.PrevDayLow
		}
		if h := in.Levels.PrevDayHigh; h > in.Price {
			target = h
		} else {
			target = in.Levels.RoundNumberAbove
		}
		return stop, target
	}
	if ib != nil {
		stop = ib.High
	} else {
		stop = in.Levels.PrevDayHigh
	}
	if l := in.Levels.PrevDayLow; l > 0 && l < in.Price {
		target = l
	} else {
		target = in.Levels.RoundNumberBelow
	}
	return stop, target
}

// rangeEntry evaluates mean reversion at the initial-balance extremes. The
// caller guarantees an IB exists.
func rangeEntry(in Input, cfg Config, dir models.Direction) (models.CandidateSignal, bool) {
	ind := in.Indicators
	ib := in.Levels.InitialBalance
	bull := dir == models.Buy
	tol := cfg.LevelATRFrac * ind.ATR14

	if bull {
		if in.Price > ib.Low+tol || ind.RSI14 > cfg.RSIOversold {
			return models.CandidateSignal{}, false
		}
	} else {
		if in.Price < ib.High-tol || ind.RSI14 < cfg.RSIOverbought {
			return models.CandidateSignal{}, false
		}
	}

	conf := cfg.RangeBase
	var reasons []string
	if bull {
		reasons = []string{
			"regime=RANGE",
			"price at initial balance low",
			fmt.Sprintf("RSI %.1f oversold", ind.RSI14),
		}
	} else {
		reasons = []string{
			"regime=RANGE",
			"price at initial balance high",
			fmt.Sprintf("RSI %.1f overbought", ind.RSI14),
		}
	}

	if bull {
		if l := in.Levels.PrevDayLow; l > 0 && abs(in.Price-l) <= tol {
			conf += cfg.BonusLevelConflux
			reasons = append(reasons, fmt.Sprintf("previous day low confluence: +%.0f", cfg.BonusLevelConflux))
		}
		if r := in.Levels.RoundNumberBelow; r > 0 && abs(in.Price-r) <= tol {
			conf += cfg.BonusRoundConflux
			reasons = append(reasons, fmt.Sprintf("round number confluence: +%.0f", cfg.BonusRoundConflux))
		}
	} else {
		if h := in.Levels.PrevDayHigh; h > 0 && abs(in.Price-h) <= tol {
			conf += cfg.BonusLevelConflux
			reasons = append(reasons, fmt.Sprintf("previous day high confluence: +%.0f", cfg.BonusLevelConflux))
		}
		if r := in.Levels.RoundNumberAbove; r > 0 && abs(in.Price-r) <= tol {
			conf += cfg.BonusRoundConflux
			reasons = append(reasons, fmt.Sprintf("round number confluence: +%.0f", cfg.BonusRoundConflux))
		}
	}

	sig := models.CandidateSignal{
		Symbol:         in.Symbol,
		Direction:      dir,
		BaseConfidence: conf,
		Reasons:        reasons,
		// Mean reversion targets the session VWAP.
		TargetHint: ind.VWAP,
	}
	if bull {
		sig.StopHint = ib.Low
	} else {
		sig.StopHint = ib.High
	}
	return sig, true
}

// fallbackEntry always emits. Direction comes from four coarse momentum
// votes; confidence scales with how one-sided the vote is, capped inside
// the documented 40-45 band.
func fallbackEntry(in Input, cfg Config) models.CandidateSignal {
	ind := in.Indicators
	votes := 0
	if ind.EMA12 > ind.EMA21 {
		votes++
	}
	if in.Price > ind.VWAP {
		votes++
	}
	if ind.RSI14 >= 50 {
		votes++
	}
	if majorityBullish(in.HigherTF) {
		votes++
	}

	dir := models.Sell
	favor := 4 - votes
	if votes >= 2 {
		dir = models.Buy
		favor = votes
	}
	conf := cfg.FallbackBase + 1.25*float64(favor)
	if conf > cfg.FallbackBase+5 {
		conf = cfg.FallbackBase + 5
	}

	return models.CandidateSignal{
		Symbol:         in.Symbol,
		Direction:      dir,
		BaseConfidence: conf,
		Reasons: []string{
			"no trend or range setup fired",
			fmt.Sprintf("fallback momentum vote %d/4 bullish", votes),
			"fallback path, wider risk multiples apply",
		},
		Fallback: true,
	}
}

// higherTFAgrees is permissive with no data: absent reads do not veto.
func higherTFAgrees(sigs []models.MTFSignal, dir models.Direction) bool {
	if len(sigs) == 0 {
		return true
	}
	want := models.TrendBullish
	if dir == models.Sell {
		want = models.TrendBearish
	}
	for _, s := range sigs {
		if s.Trend == want {
			return true
		}
	}
	return false
}

// fullyAligned requires every higher timeframe to agree, and at least one.
func fullyAligned(sigs []models.MTFSignal, dir models.Direction) bool {
	if len(sigs) == 0 {
		return false
	}
	want := models.TrendBullish
	if dir == models.Sell {
		want = models.TrendBearish
	}
	for _, s := range sigs {
		if s.Trend != want {
			return false
		}
	}
	return true
}

func majorityBullish(sigs []models.MTFSignal) bool {
	if len(sigs) == 0 {
		return false
	}
	bull := 0
	for _, s := range sigs {
		if s.Trend == models.TrendBullish {
			bull++
		}
	}
	return bull*2 > len(sigs)
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
