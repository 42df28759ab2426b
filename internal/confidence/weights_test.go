package confidence

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"TradePulse/internal/domain/models"
	"TradePulse/internal/domain/repository"
)

func TestScoreMLConfidenceBands(t *testing.T) {
	cases := []struct {
		in, want float64
	}{
		{40, 32},    // poor band, scaled 0.8
		{50, 40},    // band boundary
		{60, 55},    // moderate, linear 40-70
		{70, 70},    // band boundary
		{85, 90},    // band boundary
		{100, 100},  // capped
	}
	for _, tc := range cases {
		assert.InDelta(t, tc.want, ScoreMLConfidence(tc.in), 1e-9, "confidence %v", tc.in)
	}
	assert.InDelta(t, 79.975, ScoreMLConfidence(77.5), 1e-9)
}

func TestScoreTechnicalQuality(t *testing.T) {
	aligned := models.IndicatorSet{RSI14: 35, EMA12: 1.0855, EMA21: 1.0850, ADX14: 28}
	assert.Equal(t, 95.0, ScoreTechnicalQuality(aligned, models.Buy))
	// Same market read against a SELL: counter-trend EMA penalty applies.
	assert.Equal(t, 55.0, ScoreTechnicalQuality(aligned, models.Sell))

	hostile := models.IndicatorSet{RSI14: 80, EMA12: 1.0840, EMA21: 1.0850, ADX14: 10}
	assert.Equal(t, 15.0, ScoreTechnicalQuality(hostile, models.Buy))
}

func TestScoreMarketConditions(t *testing.T) {
	optimal := models.IndicatorSet{ATR14: 0.0011}
	assert.Equal(t, 85.0, ScoreMarketConditions(optimal, 1.0860, repository.TFM5))

	wild := models.IndicatorSet{ATR14: 0.0055}
	assert.Equal(t, 30.0, ScoreMarketConditions(wild, 1.0860, repository.TFM1))
}

func TestScoreMTFConfirmation(t *testing.T) {
	assert.Equal(t, 50.0, ScoreMTFConfirmation(models.Buy, nil))

	agreeing := []models.MTFSignal{
		{Timeframe: "H1", Direction: models.Buy},
		{Timeframe: "M5", Direction: models.Buy},
	}
	assert.Equal(t, 90.0, ScoreMTFConfirmation(models.Buy, agreeing))

	split := []models.MTFSignal{{Timeframe: "M5", Direction: models.Sell}}
	assert.Equal(t, 40.0, ScoreMTFConfirmation(models.Buy, split))
}

func TestScoreRiskFactors(t *testing.T) {
	got := ScoreRiskFactors(models.ClassMajorFX, RiskMetrics{DrawdownPct: 3, SymbolWinRate: 58})
	assert.Equal(t, 70.0, got)

	got = ScoreRiskFactors(models.ClassCrypto, RiskMetrics{DrawdownPct: 12, SymbolWinRate: 30})
	assert.Equal(t, 15.0, got)
}

func TestRecommendationTiers(t *testing.T) {
	assert.Equal(t, models.RecStrongBuy, RecommendationFor(75))
	assert.Equal(t, models.RecBuy, RecommendationFor(60))
	assert.Equal(t, models.RecWeak, RecommendationFor(40))
	assert.Equal(t, models.RecAvoid, RecommendationFor(39.9))
}

func TestPositionMultiplierSteps(t *testing.T) {
	assert.Equal(t, 2.0, PositionMultiplier(81))
	assert.Equal(t, 1.5, PositionMultiplier(72))
	assert.Equal(t, 1.0, PositionMultiplier(60))
	assert.Equal(t, 0.75, PositionMultiplier(55))
	assert.Equal(t, 0.5, PositionMultiplier(41))
	assert.Equal(t, 0.25, PositionMultiplier(20))
}

func modulateInputs() Inputs {
	return Inputs{
		Candidate: models.CandidateSignal{
			Symbol:         "EURUSD",
			Direction:      models.Buy,
			BaseConfidence: 60,
		},
		Prediction: &models.Prediction{Direction: models.Buy, Confidence: 68, Available: true},
		Indicators: models.IndicatorSet{RSI14: 35, EMA12: 1.0855, EMA21: 1.0850, ADX14: 28, ATR14: 0.0015},
		Price:      1.0860,
		Timeframe:  repository.TFM15,
		MultiTF: []models.MTFSignal{
			{Timeframe: "H1", Direction: models.Buy},
			{Timeframe: "M5", Direction: models.Buy},
		},
		Class: models.ClassMajorFX,
		Risk:  RiskMetrics{DrawdownPct: 3, SymbolWinRate: 58},
	}
}

func TestModulateExternalModel(t *testing.T) {
	got := Modulate(modulateInputs(), DefaultWeights())

	assert.Equal(t, models.SourceExternalModel, got.Source)
	assert.InDelta(t, 67.0, got.Components.MLConfidence, 1e-9)
	assert.Equal(t, 95.0, got.Components.TechnicalQuality)
	assert.Equal(t, 85.0, got.Components.MarketConditions)
	assert.Equal(t, 90.0, got.Components.MTFConfirmation)
	assert.Equal(t, 70.0, got.Components.RiskFactors)
	assert.InDelta(t, 81.35, got.FinalConfidence, 1e-9)
	assert.Equal(t, models.RecStrongBuy, got.Recommendation)
	assert.Equal(t, 2.0, got.PositionSize)
	assert.Contains(t, got.Reasons[0], "external_model")
}

func TestModulateTechnicalFallbackSource(t *testing.T) {
	in := modulateInputs()
	in.Prediction = &models.Prediction{Available: false}
	got := Modulate(in, DefaultWeights())

	assert.Equal(t, models.SourceTechnicalFallback, got.Source)
	// The model component falls back to the candidate's base confidence.
	assert.InDelta(t, ScoreMLConfidence(60), got.Components.MLConfidence, 1e-9)
	assert.Contains(t, got.Reasons[0], "technical_fallback")
}

func TestModulateIdempotent(t *testing.T) {
	a := Modulate(modulateInputs(), DefaultWeights())
	b := Modulate(modulateInputs(), DefaultWeights())
	assert.Equal(t, a, b)
}

func TestOverlayPositiveSentiment(t *testing.T) {
	s := models.SentimentAssessment{Score: 4, Confidence: 0.8, Risk: 2}
	got := Overlay(1.0, 60, s)
	// (1 + 0.09) * (1 + 0.03)
	assert.InDelta(t, 1.1227, got, 1e-9)
}

func TestOverlayRiskPenalty(t *testing.T) {
	s := models.SentimentAssessment{Score: 2, Confidence: 1, Risk: 5, RiskConfidence: 1}
	got := Overlay(1.0, 75, s)
	// (1 - 0.1) * (1 - 0.15 + 0.05 + 0.03)
	assert.InDelta(t, 0.837, got, 1e-9)
}

func TestOverlayClampsUnconditionally(t *testing.T) {
	bearish := models.SentimentAssessment{Score: 1, Confidence: 1, Risk: 5, RiskConfidence: 1}
	assert.Equal(t, 0.1, Overlay(0.1, 10, bearish))

	euphoric := models.SentimentAssessment{Score: 5, Confidence: 1, Risk: 1}
	assert.Equal(t, 2.0, Overlay(2.0, 90, euphoric))
}
