// Package regime labels market state from trend strength and
// range-boundedness. ADX measures directional strength while the
// choppiness index measures range-boundedness independently; checked
// jointly they disambiguate the weak-trend/choppy overlap.
package regime

import "TradePulse/internal/domain/models"

// Thresholds are configuration, never hard-coded at call sites.
type Thresholds struct {
	ADXTrend  float64 `yaml:"adx_trend" default:"25"`
	ChopTrend float64 `yaml:"choppiness_trend_ceiling" default:"50"`
	ChopRange float64 `yaml:"choppiness_range_floor" default:"61.8"`
}

// DefaultThresholds returns the documented defaults.
func DefaultThresholds() Thresholds {
	return Thresholds{ADXTrend: 25, ChopTrend: 50, ChopRange: 61.8}
}

// Classify is a pure function of (adx, choppiness).
func Classify(adx, choppiness float64, th Thresholds) models.RegimeClassification {
	out := models.RegimeClassification{ADX: adx, Choppiness: choppiness, Regime: models.RegimeUncertain}
	switch {
	case choppiness > th.ChopRange:
		out.Regime = models.RegimeRange
	case adx > th.ADXTrend && choppiness < th.ChopTrend:
		out.Regime = models.RegimeTrend
	}
	return out
}
