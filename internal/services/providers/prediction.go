package providers

import (
	"context"
	"fmt"
	"time"

	"TradePulse/internal/domain/models"
	domsvc "TradePulse/internal/domain/service"
)

// HTTPPredictionProvider calls the external model service. Any transport
// or service failure reads as "model unavailable"; the pipeline then takes
// the technical fallback path.
type HTTPPredictionProvider struct {
	base *httpBase
}

// NewHTTPPredictionProvider creates the client.
func NewHTTPPredictionProvider(baseURL string, timeout time.Duration) *HTTPPredictionProvider {
	return &HTTPPredictionProvider{base: newHTTPBase(baseURL, timeout)}
}

type predictReq struct {
	Symbol   string             `json:"symbol"`
	Features map[string]float64 `json:"features"`
}

type predictResp struct {
	Prediction     string  `json:"prediction"`
	Confidence     float64 `json:"confidence"`
	ModelAvailable bool    `json:"model_available"`
}

func (p *HTTPPredictionProvider) Predict(ctx context.Context, symbol string, features map[string]float64) (models.Prediction, error) {
	var pr predictResp
	if err := p.base.postJSONWithRetry(ctx, "/predict", predictReq{Symbol: symbol, Features: features}, &pr, 2); err != nil {
		return models.Prediction{}, fmt.Errorf("predict %s: %w", symbol, err)
	}
	return models.Prediction{
		Direction:  models.Direction(pr.Prediction),
		Confidence: pr.Confidence,
		Available:  pr.ModelAvailable,
	}, nil
}

var _ domsvc.PredictionProvider = (*HTTPPredictionProvider)(nil)
