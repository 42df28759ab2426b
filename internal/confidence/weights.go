// Package confidence turns a candidate signal into a final confidence,
// recommendation tier and position-size multiplier via multi-factor
// weighting, with an optional sentiment/risk overlay on intensity.
package confidence

import (
	"fmt"

	"TradePulse/internal/domain/models"
	"TradePulse/internal/domain/repository"
)

// Weights are the five component coefficients. They must sum to 1.
type Weights struct {
	MLConfidence     float64 `yaml:"ml_confidence" default:"0.30"`
	TechnicalQuality float64 `yaml:"technical_quality" default:"0.25"`
	MarketConditions float64 `yaml:"market_conditions" default:"0.20"`
	MTFConfirmation  float64 `yaml:"mtf_confirmation" default:"0.15"`
	RiskFactors      float64 `yaml:"risk_factors" default:"0.10"`
}

// DefaultWeights returns the production coefficients.
func DefaultWeights() Weights {
	return Weights{
		MLConfidence:     0.30,
		TechnicalQuality: 0.25,
		MarketConditions: 0.20,
		MTFConfirmation:  0.15,
		RiskFactors:      0.10,
	}
}

// RiskMetrics are account-level inputs to the risk-factor component.
// Zero values read as "unknown" and score neutrally.
type RiskMetrics struct {
	DrawdownPct   float64
	SymbolWinRate float64
}

// Inputs collects everything one modulation reads.
type Inputs struct {
	Candidate  models.CandidateSignal
	Prediction *models.Prediction
	Sentiment  *models.SentimentAssessment
	Indicators models.IndicatorSet
	Price      float64
	Timeframe  repository.Timeframe
	MultiTF    []models.MTFSignal
	Class      models.SymbolClass
	Risk       RiskMetrics
}

// Modulate computes the final confidence artifact. Pure and idempotent.
func Modulate(in Inputs, w Weights) models.ModulatedSignal {
	out := models.ModulatedSignal{CandidateSignal: in.Candidate}

	// The model component is selected exactly once: external prediction when
	// the collaborator reported one, otherwise the technical base confidence.
	mlConf := in.Candidate.BaseConfidence
	out.Source = models.SourceTechnicalFallback
	if in.Prediction != nil && in.Prediction.Available {
		mlConf = in.Prediction.Confidence
		out.Source = models.SourceExternalModel
	}
	out.Reasons = append(out.Reasons, fmt.Sprintf("prediction source: %s (%.1f)", out.Source, mlConf))

	out.Components = models.ModulationFactors{
		MLConfidence:     ScoreMLConfidence(mlConf),
		TechnicalQuality: ScoreTechnicalQuality(in.Indicators, in.Candidate.Direction),
		MarketConditions: ScoreMarketConditions(in.Indicators, in.Price, in.Timeframe),
		MTFConfirmation:  ScoreMTFConfirmation(in.Candidate.Direction, in.MultiTF),
		RiskFactors:      ScoreRiskFactors(in.Class, in.Risk),
	}

	total := out.Components.MLConfidence*w.MLConfidence +
		out.Components.TechnicalQuality*w.TechnicalQuality +
		out.Components.MarketConditions*w.MarketConditions +
		out.Components.MTFConfirmation*w.MTFConfirmation +
		out.Components.RiskFactors*w.RiskFactors

	out.FinalConfidence = clamp(total, 0, 100)
	out.Recommendation = RecommendationFor(out.FinalConfidence)
	out.PositionSize = PositionMultiplier(out.FinalConfidence)

	out.FinalIntensity = out.PositionSize
	if in.Sentiment != nil {
		out.FinalIntensity = Overlay(out.PositionSize, in.Candidate.BaseConfidence, *in.Sentiment)
		out.Reasons = append(out.Reasons, fmt.Sprintf("sentiment overlay applied: intensity %.2f", out.FinalIntensity))
	}
	return out
}

// ScoreMLConfidence maps raw model confidence through four quality bands.
func ScoreMLConfidence(confidence float64) float64 {
	c := clamp(confidence, 0, 100)
	switch {
	case c < 50:
		return c * 0.8
	case c < 70:
		return 40 + (c-50)*1.5
	case c < 85:
		return 70 + (c-70)*1.33
	default:
		return clamp(90+(c-85)*0.67, 0, 100)
	}
}

// ScoreTechnicalQuality rates indicator alignment with the signal direction
// from a neutral 50 baseline.
func ScoreTechnicalQuality(ind models.IndicatorSet, dir models.Direction) float64 {
	score := 50.0
	buy := dir == models.Buy

	// RSI alignment.
	switch {
	case buy && ind.RSI14 < 30:
		score += 15
	case buy && ind.RSI14 < 50:
		score += 10
	case buy && ind.RSI14 > 70:
		score -= 15
	case !buy && ind.RSI14 > 70:
		score += 15
	case !buy && ind.RSI14 > 50:
		score += 10
	case !buy && ind.RSI14 < 30:
		score -= 15
	}

	// EMA trend alignment.
	bullish := ind.EMA12 > ind.EMA21
	if buy == bullish {
		score += 20
	} else {
		score -= 10
	}

	// ADX momentum.
	switch {
	case ind.ADX14 > 25:
		score += 15
	case ind.ADX14 > 20:
		score += 10
	case ind.ADX14 < 15:
		score -= 10
	}

	return clamp(score, 0, 100)
}

// ScoreMarketConditions rates volatility appropriateness and timeframe
// liquidity.
func ScoreMarketConditions(ind models.IndicatorSet, price float64, tf repository.Timeframe) float64 {
	score := 50.0

	if price > 0 {
		volPct := ind.ATR14 / price * 100
		switch {
		case volPct >= 0.05 && volPct <= 0.15:
			score += 20
		case volPct >= 0.03 && volPct <= 0.20:
			score += 10
		case volPct > 0.30:
			score -= 15
		case volPct < 0.02:
			score -= 10
		}
	}

	switch tf {
	case repository.TFM5, repository.TFM15, repository.TFH1:
		score += 15
	case repository.TFH4:
		score += 10
	case repository.TFM1:
		score -= 5
	}

	return clamp(score, 0, 100)
}

// ScoreMTFConfirmation rewards agreement across timeframes, with an extra
// bonus when the slow timeframes agree. Neutral 50 without data.
func ScoreMTFConfirmation(dir models.Direction, sigs []models.MTFSignal) float64 {
	if len(sigs) == 0 {
		return 50
	}
	score := 50.0
	for _, s := range sigs {
		if s.Direction == dir {
			score += 15
			if s.Timeframe == "H1" || s.Timeframe == "H4" {
				score += 10
			}
		} else {
			score -= 10
		}
	}
	return clamp(score, 0, 100)
}

// ScoreRiskFactors rates instrument stability and account state.
func ScoreRiskFactors(class models.SymbolClass, m RiskMetrics) float64 {
	score := 50.0

	switch class {
	case models.ClassMajorFX:
		score += 20
	case models.ClassJPY:
		score += 10
	case models.ClassMetal:
		score += 5
	}

	switch {
	case m.DrawdownPct > 10:
		score -= 20
	case m.DrawdownPct > 5:
		score -= 10
	}

	switch {
	case m.SymbolWinRate > 60:
		score += 15
	case m.SymbolWinRate > 0 && m.SymbolWinRate < 40:
		score -= 15
	}

	return clamp(score, 0, 100)
}

// RecommendationFor maps a total weight to its tier.
func RecommendationFor(total float64) models.Recommendation {
	switch {
	case total >= 75:
		return models.RecStrongBuy
	case total >= 60:
		return models.RecBuy
	case total >= 40:
		return models.RecWeak
	default:
		return models.RecAvoid
	}
}

// PositionMultiplier steps the size multiplier by total weight, 0.25 to 2.0.
func PositionMultiplier(total float64) float64 {
	switch {
	case total >= 80:
		return 2.0
	case total >= 70:
		return 1.5
	case total >= 60:
		return 1.0
	case total >= 50:
		return 0.75
	case total >= 40:
		return 0.5
	default:
		return 0.25
	}
}

// Overlay adjusts intensity by external sentiment and risk assessments.
// Neutral sentiment (score 3) leaves the base intensity untouched.
func Overlay(baseIntensity, baseConfidence float64, s models.SentimentAssessment) float64 {
	sentMult := (s.Score - 3) * 0.1 * (0.5 + 0.5*s.Confidence)

	riskPenalty := 0.0
	if s.Risk > 3 {
		riskPenalty = -0.15 * s.RiskConfidence
	}

	bonus := 0.0
	if baseConfidence > 70 {
		bonus += 0.05
	}
	if s.Confidence > 0.7 {
		bonus += 0.03
	}

	return clamp(baseIntensity*(1+sentMult)*(1+riskPenalty+bonus), 0.1, 2.0)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
