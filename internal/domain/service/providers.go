package service

import (
	"context"

	"TradePulse/internal/domain/models"
)

// PredictionProvider serves the optional external model prediction. A nil
// provider or Available=false selects the technical fallback path.
type PredictionProvider interface {
	Predict(ctx context.Context, symbol string, features map[string]float64) (models.Prediction, error)
}

// SentimentProvider serves the optional sentiment/risk assessment.
type SentimentProvider interface {
	Assess(ctx context.Context, symbol string) (models.SentimentAssessment, error)
}
