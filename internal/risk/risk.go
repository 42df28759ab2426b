// Package risk derives stop-loss and take-profit levels with minimum
// distance and spread safety guarantees. The final correction step makes an
// inverted SL/TP pair impossible to ship.
package risk

import (
	"fmt"

	"TradePulse/internal/domain/models"
)

// Config holds the regime multiples and reward ratios.
type Config struct {
	TrendATRMult    float64 `yaml:"trend_atr_multiple" default:"2.0"`
	RangeATRMult    float64 `yaml:"range_atr_multiple" default:"1.5"`
	FallbackATRMult float64 `yaml:"fallback_atr_multiple" default:"2.5"`

	TrendRR    float64 `yaml:"trend_reward_ratio" default:"2.0"`
	FallbackRR float64 `yaml:"fallback_reward_ratio" default:"1.5"`

	// Reward distance is clamped into [MinRR, MaxRR] stop multiples so a
	// structural target can neither choke the trade nor overpromise.
	MinRR float64 `yaml:"min_reward_ratio" default:"1.5"`
	MaxRR float64 `yaml:"max_reward_ratio" default:"3.0"`

	// SpreadSafetyMult scales the observed spread into the stop floor.
	SpreadSafetyMult float64 `yaml:"spread_safety_multiple" default:"1.5"`
}

// DefaultConfig returns the documented multiples.
func DefaultConfig() Config {
	return Config{
		TrendATRMult:     2.0,
		RangeATRMult:     1.5,
		FallbackATRMult:  2.5,
		TrendRR:          2.0,
		FallbackRR:       1.5,
		MinRR:            1.5,
		MaxRR:            3.0,
		SpreadSafetyMult: 1.5,
	}
}

// Input is one risk computation. VWAP and StructuralTarget feed the
// range-mode take-profit; StructuralTarget is optional (zero = absent).
type Input struct {
	Direction        models.Direction
	Entry            float64
	ATR              float64
	Spread           float64
	Spec             models.SymbolSpec
	Regime           models.Regime
	Fallback         bool
	VWAP             float64
	StructuralTarget float64
}

// Calculate computes the final risk levels and the reasons trail for any
// adjustment it applied.
func Calculate(in Input, cfg Config) (models.RiskLevels, []string) {
	var reasons []string
	buy := in.Direction == models.Buy

	minStop := in.Spec.MinStopPips * in.Spec.PipSize
	if floor := cfg.SpreadSafetyMult * in.Spread; floor > minStop {
		minStop = floor
	}

	mult := cfg.TrendATRMult
	switch {
	case in.Fallback:
		mult = cfg.FallbackATRMult
	case in.Regime == models.RegimeRange:
		mult = cfg.RangeATRMult
	}

	stopDist := in.ATR*mult + in.Spread
	if stopDist < minStop {
		stopDist = minStop
		reasons = append(reasons, "stop widened to minimum distance")
	}
	if maxStop := in.Spec.MaxStopPips * in.Spec.PipSize; maxStop > 0 && stopDist > maxStop {
		stopDist = maxStop
		if stopDist < minStop {
			stopDist = minStop
		}
		reasons = append(reasons, "stop capped at class maximum")
	}

	var sl float64
	if buy {
		sl = in.Entry - stopDist
	} else {
		sl = in.Entry + stopDist
	}

	tp, tpReason := takeProfit(in, cfg, stopDist)
	if tpReason != "" {
		reasons = append(reasons, tpReason)
	}

	out := models.RiskLevels{
		EntryPrice: in.Entry,
		StopLoss:   sl,
		TakeProfit: tp,
	}

	// Direction consistency is mandatory: a stop on the profitable side or
	// a target on the adverse side is recomputed from the ATR multiples.
	if inverted(buy, out) {
		rr := cfg.TrendRR
		if in.Fallback {
			rr = cfg.FallbackRR
		}
		if buy {
			out.StopLoss = in.Entry - stopDist
			out.TakeProfit = in.Entry + rr*stopDist
		} else {
			out.StopLoss = in.Entry + stopDist
			out.TakeProfit = in.Entry - rr*stopDist
		}
		out.Corrected = true
		reasons = append(reasons, "sl/tp recomputed from ATR multiples: direction consistency")
	}

	risk := abs(in.Entry - out.StopLoss)
	if risk > 0 {
		out.RiskReward = abs(out.TakeProfit-in.Entry) / risk
	}
	if in.Spec.PipSize > 0 {
		out.StopDistancePips = abs(in.Entry-out.StopLoss) / in.Spec.PipSize
	}
	return out, reasons
}

// takeProfit picks the mode-specific target before the consistency check.
func takeProfit(in Input, cfg Config, stopDist float64) (float64, string) {
	buy := in.Direction == models.Buy
	sign := 1.0
	if !buy {
		sign = -1
	}

	if in.Fallback {
		return in.Entry + sign*cfg.FallbackRR*stopDist, ""
	}
	if in.Regime == models.RegimeRange {
		target := in.VWAP
		profitable := (buy && target > in.Entry) || (!buy && target < in.Entry)
		reason := "take profit targets session VWAP"
		if !profitable && in.StructuralTarget > 0 {
			target = in.StructuralTarget
			profitable = (buy && target > in.Entry) || (!buy && target < in.Entry)
			reason = "take profit targets structural level"
		}
		if !profitable {
			return in.Entry + sign*cfg.FallbackRR*stopDist, "no reachable reversion target, reward ratio fallback"
		}
		return clampReward(in.Entry, target, stopDist, sign, cfg), reason
	}
	return in.Entry + sign*cfg.TrendRR*stopDist, ""
}

// clampReward bounds the reward distance into [MinRR, MaxRR] stop multiples.
func clampReward(entry, target, stopDist, sign float64, cfg Config) float64 {
	dist := (target - entry) * sign
	if dist < cfg.MinRR*stopDist {
		dist = cfg.MinRR * stopDist
	}
	if dist > cfg.MaxRR*stopDist {
		dist = cfg.MaxRR * stopDist
	}
	return entry + sign*dist
}

func inverted(buy bool, lv models.RiskLevels) bool {
	if buy {
		return !(lv.StopLoss < lv.EntryPrice && lv.TakeProfit > lv.EntryPrice)
	}
	return !(lv.StopLoss > lv.EntryPrice && lv.TakeProfit < lv.EntryPrice)
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// Describe renders the levels for logs and reason trails.
func Describe(lv models.RiskLevels) string {
	return fmt.Sprintf("entry %.5f sl %.5f tp %.5f rr %.2f", lv.EntryPrice, lv.StopLoss, lv.TakeProfit, lv.RiskReward)
}
