package models

// GenerateSignalRequest is the HTTP request payload for signal generation.
// Candles per timeframe are supplied by the market-data collaborator; the
// engine validates shape here and never branches on field presence later.
type GenerateSignalRequest struct {
	Symbol string `json:"symbol" validate:"required,min=6,max=12"`
	// Candles keys are timeframes ("M5", "M15", "H1", "H4", "D1"); the
	// primary timeframe must be present.
	Candles map[string]Series `json:"candles" validate:"required,min=1"`
	// Primary is the decision timeframe. Defaults to M5.
	Primary string `json:"primary" default:"M5" validate:"oneof=M1 M5 M15 H1 H4 D1"`
	// Spread in price units as observed by the caller; optional, the quote
	// stream value wins when fresher.
	Spread float64 `json:"spread" validate:"gte=0"`

	Prediction *Prediction          `json:"prediction,omitempty"`
	Sentiment  *SentimentAssessment `json:"sentiment,omitempty"`
}

// CalibrationResponse wraps the active record for the HTTP API.
type CalibrationResponse struct {
	Active *CalibrationRecord `json:"active"`
}
