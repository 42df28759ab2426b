package providers

import (
	"context"
	"fmt"
	"time"

	"TradePulse/internal/domain/models"
	domsvc "TradePulse/internal/domain/service"
)

// HTTPSentimentProvider calls the external sentiment/risk analysis
// service. The overlay is optional; callers skip it on error.
type HTTPSentimentProvider struct {
	base *httpBase
}

// NewHTTPSentimentProvider creates the client.
func NewHTTPSentimentProvider(baseURL string, timeout time.Duration) *HTTPSentimentProvider {
	return &HTTPSentimentProvider{base: newHTTPBase(baseURL, timeout)}
}

type sentimentReq struct {
	Symbol string `json:"symbol"`
}

type sentimentResp struct {
	Score          float64 `json:"score"`
	Confidence     float64 `json:"confidence"`
	Risk           float64 `json:"risk"`
	RiskConfidence float64 `json:"risk_confidence"`
}

func (p *HTTPSentimentProvider) Assess(ctx context.Context, symbol string) (models.SentimentAssessment, error) {
	var sr sentimentResp
	if err := p.base.postJSON(ctx, "/sentiment/assess", sentimentReq{Symbol: symbol}, &sr); err != nil {
		return models.SentimentAssessment{}, fmt.Errorf("assess %s: %w", symbol, err)
	}
	return models.SentimentAssessment{
		Score:          sr.Score,
		Confidence:     sr.Confidence,
		Risk:           sr.Risk,
		RiskConfidence: sr.RiskConfidence,
	}, nil
}

var _ domsvc.SentimentProvider = (*HTTPSentimentProvider)(nil)
