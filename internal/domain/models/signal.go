package models

import "time"

// Direction of a trading signal.
type Direction string

const (
	Buy  Direction = "BUY"
	Sell Direction = "SELL"
	// Hold never leaves the strategy selector: the fallback state converts
	// it into a low-confidence BUY or SELL before emission.
	Hold Direction = "HOLD"
)

// Regime labels for market state.
type Regime string

const (
	RegimeTrend     Regime = "TREND"
	RegimeRange     Regime = "RANGE"
	RegimeUncertain Regime = "UNCERTAIN"
)

// RegimeClassification is a pure function result of (adx, choppiness).
type RegimeClassification struct {
	Regime     Regime  `json:"regime"`
	ADX        float64 `json:"adx_value"`
	Choppiness float64 `json:"choppiness_value"`
}

// Recommendation tiers produced by the confidence weighting.
type Recommendation string

const (
	RecStrongBuy Recommendation = "STRONG_BUY"
	RecBuy       Recommendation = "BUY"
	RecWeak      Recommendation = "WEAK"
	RecAvoid     Recommendation = "AVOID"
)

// TrendBias is a per-timeframe directional read (close vs close 10 bars back).
type TrendBias string

const (
	TrendBullish TrendBias = "BULLISH"
	TrendBearish TrendBias = "BEARISH"
)

// IndicatorSet holds the indicator snapshot for one (symbol, timeframe)
// as of the last candle. Derived, never mutated.
type IndicatorSet struct {
	EMA12      float64 `json:"ema_12"`
	EMA21      float64 `json:"ema_21"`
	EMA50      float64 `json:"ema_50"`
	RSI14      float64 `json:"rsi_14"`
	ATR14      float64 `json:"atr_14"`
	ADX14      float64 `json:"adx_14"`
	Chop14     float64 `json:"choppiness_14"`
	VWAP       float64 `json:"vwap"`
	MACD       float64 `json:"macd"`
	MACDSignal float64 `json:"macd_signal"`
	BBUpper    float64 `json:"bb_upper"`
	BBLower    float64 `json:"bb_lower"`
	StochK     float64 `json:"stoch_k"`
	StochD     float64 `json:"stoch_d"`

	// ChopDegenerate marks a choppiness value substituted for a flat range.
	ChopDegenerate bool `json:"choppiness_degenerate,omitempty"`
}

// SessionLevels are the structural levels valid for the current session only.
type SessionLevels struct {
	InitialBalance   *IBRange `json:"initial_balance,omitempty"`
	PrevDayHigh      float64  `json:"previous_period_high"`
	PrevDayLow       float64  `json:"previous_period_low"`
	RoundNumberAbove float64  `json:"round_number_above"`
	RoundNumberBelow float64  `json:"round_number_below"`
}

// IBRange is the high/low of the first hour after a session open.
type IBRange struct {
	High float64 `json:"high"`
	Low  float64 `json:"low"`
}

// MTFSignal is one higher/lower timeframe read used for confirmation scoring.
type MTFSignal struct {
	Timeframe string    `json:"timeframe"`
	Direction Direction `json:"direction"`
	Trend     TrendBias `json:"trend"`
}

// CandidateSignal is the strategy selector's terminal output. Immutable.
type CandidateSignal struct {
	Symbol         string    `json:"symbol"`
	Direction      Direction `json:"direction"`
	BaseConfidence float64   `json:"base_confidence"`
	Reasons        []string  `json:"reasons"`
	// Structural hints the risk calculator may cap targets against.
	StopHint   float64 `json:"structural_stop_hint,omitempty"`
	TargetHint float64 `json:"structural_target_hint,omitempty"`
	Fallback   bool    `json:"fallback"`
}

// PredictionSource tags where the model confidence came from.
type PredictionSource string

const (
	SourceExternalModel     PredictionSource = "external_model"
	SourceTechnicalFallback PredictionSource = "technical_fallback"
)

// Prediction is the optional external model output.
type Prediction struct {
	Direction  Direction `json:"direction"`
	Confidence float64   `json:"confidence"`
	Available  bool      `json:"model_available"`
}

// SentimentAssessment is the optional external sentiment/risk overlay input.
type SentimentAssessment struct {
	Score          float64 `json:"score"`           // 1..5, 3 neutral
	Confidence     float64 `json:"confidence"`      // 0..1
	Risk           float64 `json:"risk"`            // 1..5
	RiskConfidence float64 `json:"risk_confidence"` // 0..1
}

// ModulationFactors are the five component scores, each 0-100.
type ModulationFactors struct {
	MLConfidence     float64 `json:"ml_confidence"`
	TechnicalQuality float64 `json:"technical_quality"`
	MarketConditions float64 `json:"market_conditions"`
	MTFConfirmation  float64 `json:"mtf_confirmation"`
	RiskFactors      float64 `json:"risk_factors"`
}

// ModulatedSignal is the candidate after confidence weighting and overlays.
type ModulatedSignal struct {
	CandidateSignal
	FinalConfidence float64           `json:"final_confidence"`
	Recommendation  Recommendation    `json:"recommendation"`
	PositionSize    float64           `json:"position_size_multiplier"`
	FinalIntensity  float64           `json:"final_intensity"`
	Source          PredictionSource  `json:"prediction_source"`
	Components      ModulationFactors `json:"components"`
}

// RiskLevels is the final risk artifact. Stop and target are guaranteed to
// sit on the correct side of entry for the direction.
type RiskLevels struct {
	EntryPrice       float64 `json:"entry_price"`
	StopLoss         float64 `json:"stop_loss"`
	TakeProfit       float64 `json:"take_profit"`
	RiskReward       float64 `json:"risk_reward_ratio"`
	StopDistancePips float64 `json:"stop_distance_pips"`
	Corrected        bool    `json:"corrected"`
}

// SignalRecord is the full output artifact handed to persistence, Kafka and
// the HTTP response.
type SignalRecord struct {
	Symbol         string         `json:"symbol"`
	Direction      Direction      `json:"direction"`
	Confidence     float64        `json:"confidence"`
	Recommendation Recommendation `json:"recommendation"`
	PositionSize   float64        `json:"position_size_multiplier"`
	EntryPrice     float64        `json:"entry_price"`
	StopLoss       float64        `json:"stop_loss"`
	TakeProfit     float64        `json:"take_profit"`
	RiskReward     float64        `json:"risk_reward_ratio"`
	Regime         Regime         `json:"regime"`
	Reasons        []string       `json:"reasons"`
	GeneratedAt    time.Time      `json:"generated_at"`
}

// SignalOutcome is a realized result reported back by the execution
// collaborator, keyed by symbol and generation time.
type SignalOutcome struct {
	Symbol      string    `json:"symbol"`
	GeneratedAt time.Time `json:"generated_at"`
	Win         bool      `json:"win"`
	Pips        float64   `json:"pips"`
	ClosedAt    time.Time `json:"closed_at"`
}

// LabeledSignal is a historical signal joined with its realized outcome,
// the calibrator's input row.
type LabeledSignal struct {
	Confidence float64 `json:"confidence"`
	Win        bool    `json:"win"`
	Pips       float64 `json:"pips"`
}

// CalibrationRecord is the one active confidence-threshold record. A
// calibration run supersedes it atomically; readers see old or new, never
// a partial write.
type CalibrationRecord struct {
	Threshold      float64   `json:"threshold"`
	QualifiedCount int       `json:"qualified_signal_count"`
	BlendedScore   float64   `json:"blended_score"`
	ComputedAt     time.Time `json:"computed_at"`
}
