// Package usecase wires the engine stages into the operations the transport
// layer exposes: signal generation, outcome ingestion and threshold
// calibration.
package usecase

import (
	"context"
	"fmt"
	"time"

	"TradePulse/internal/confidence"
	"TradePulse/internal/domain/models"
	drepo "TradePulse/internal/domain/repository"
	domsvc "TradePulse/internal/domain/service"
	"TradePulse/internal/indicator"
	"TradePulse/internal/levels"
	"TradePulse/internal/regime"
	"TradePulse/internal/risk"
	"TradePulse/internal/services/features"
	"TradePulse/internal/strategy"
	"TradePulse/pkg/logger"
)

// trendBiasLookback is how many bars back the per-timeframe bias compares
// against.
const trendBiasLookback = 10

// PipelineDeps are the injected collaborators. Prediction and Sentiment may
// be nil; the pipeline then runs purely on the technical path.
type PipelineDeps struct {
	History    drepo.SignalHistory
	Publisher  drepo.Publisher
	Calib      drepo.CalibrationStore
	Quotes     drepo.QuoteBook
	Prediction domsvc.PredictionProvider
	Sentiment  domsvc.SentimentProvider
	Metrics    drepo.Metrics
	Log        *logger.Logger
}

// PipelineParams are the engine stage configurations plus the per-symbol
// overrides from config.
type PipelineParams struct {
	Symbols  map[string]models.SymbolSpec
	Levels   levels.Config
	Regime   regime.Thresholds
	Strategy strategy.Config
	Weights  confidence.Weights
	Risk     risk.Config
}

// SignalPipeline runs one full evaluation per request: indicators, levels,
// regime, strategy, confidence, risk, then persistence and publication.
type SignalPipeline struct {
	deps   PipelineDeps
	params PipelineParams
	now    func() time.Time
}

// NewSignalPipeline constructs the pipeline.
func NewSignalPipeline(deps PipelineDeps, params PipelineParams) *SignalPipeline {
	return &SignalPipeline{deps: deps, params: params, now: time.Now}
}

// Generate evaluates the request and returns the emitted signal record.
// Persistence and publication failures are logged and counted but do not
// fail the request; the caller still receives the signal.
func (p *SignalPipeline) Generate(ctx context.Context, req *models.GenerateSignalRequest) (*models.SignalRecord, error) {
	start := time.Now()
	now := p.now()

	primary := drepo.NormalizeTimeframe(req.Primary)
	series := req.Candles[string(primary)]
	if len(series) < indicator.MinHistory {
		return nil, models.InsufficientDataError(indicator.MinHistory, len(series))
	}
	last, _ := series.Last()
	price := last.Close
	spec := p.symbolSpec(req.Symbol)

	session := p.params.Levels.SessionCandles(series, now)
	ind, err := indicator.Snapshot(series, session)
	if err != nil {
		p.deps.Metrics.RecordError("indicator_snapshot")
		return nil, err
	}

	lv := levels.Calc(series, price, spec, now, p.params.Levels)
	reg := regime.Classify(ind.ADX14, ind.Chop14, p.params.Regime)
	mtf := multiTimeframe(req.Candles, primary)

	cand := strategy.Select(strategy.Input{
		Symbol:     req.Symbol,
		Price:      price,
		Indicators: ind,
		Levels:     lv,
		Regime:     reg,
		HigherTF:   mtf,
		InPostOpen: p.params.Levels.InPostOpenWindow(now),
	}, p.params.Strategy)

	pred := p.resolvePrediction(ctx, req, ind, series, price, primary)
	sent := p.resolveSentiment(ctx, req)

	mod := confidence.Modulate(confidence.Inputs{
		Candidate:  cand,
		Prediction: pred,
		Sentiment:  sent,
		Indicators: ind,
		Price:      price,
		Timeframe:  primary,
		MultiTF:    mtf,
		Class:      spec.Class,
	}, p.params.Weights)

	spread := p.spreadFor(req.Symbol, req.Spread, spec)
	riskLevels, riskReasons := risk.Calculate(risk.Input{
		Direction:        cand.Direction,
		Entry:            price,
		ATR:              ind.ATR14,
		Spread:           spread,
		Spec:             spec,
		Regime:           reg.Regime,
		Fallback:         cand.Fallback,
		VWAP:             ind.VWAP,
		StructuralTarget: p.structuralTarget(req, cand, series, primary, price),
	}, p.params.Risk)

	// mod.Reasons already carries the strategy trail as its prefix.
	reasons := make([]string, 0, len(mod.Reasons)+len(riskReasons)+1)
	reasons = append(reasons, mod.Reasons...)
	reasons = append(reasons, riskReasons...)
	if active, aerr := p.deps.Calib.Active(ctx); aerr == nil && active != nil && mod.FinalConfidence < active.Threshold {
		reasons = append(reasons, fmt.Sprintf("confidence below calibrated threshold %.0f", active.Threshold))
	}

	rec := &models.SignalRecord{
		Symbol:         req.Symbol,
		Direction:      cand.Direction,
		Confidence:     mod.FinalConfidence,
		Recommendation: mod.Recommendation,
		PositionSize:   mod.FinalIntensity,
		EntryPrice:     riskLevels.EntryPrice,
		StopLoss:       riskLevels.StopLoss,
		TakeProfit:     riskLevels.TakeProfit,
		RiskReward:     riskLevels.RiskReward,
		Regime:         reg.Regime,
		Reasons:        reasons,
		GeneratedAt:    now.UTC(),
	}

	p.deps.Metrics.RecordSignal(rec.Symbol, string(rec.Direction), string(rec.Regime))
	p.deps.Metrics.RecordLastConfidence(rec.Symbol, rec.Confidence)
	if cand.Fallback {
		p.deps.Metrics.RecordFallback(rec.Symbol)
	}
	if riskLevels.Corrected {
		p.deps.Metrics.RecordCorrection(rec.Symbol)
	}

	if err := p.deps.History.Store(ctx, rec); err != nil {
		p.deps.Metrics.RecordError("history_store")
		p.deps.Log.Error("signal store failed", logger.String("symbol", rec.Symbol), logger.Error(err))
	}
	if err := p.deps.Publisher.Publish(ctx, rec); err != nil {
		p.deps.Metrics.RecordError("signal_publish")
		p.deps.Log.Error("signal publish failed", logger.String("symbol", rec.Symbol), logger.Error(err))
	}

	p.deps.Metrics.RecordLatency("generate_signal", time.Since(start).Seconds())
	p.deps.Log.Info("signal generated",
		logger.String("symbol", rec.Symbol),
		logger.String("direction", string(rec.Direction)),
		logger.String("regime", string(rec.Regime)),
		logger.Any("confidence", rec.Confidence),
	)
	return rec, nil
}

// ActiveCalibration reads the current threshold record, nil when none has
// been computed yet.
func (p *SignalPipeline) ActiveCalibration(ctx context.Context) (*models.CalibrationRecord, error) {
	return p.deps.Calib.Active(ctx)
}

// LabeledHistory returns outcome-labeled signals since the given time,
// capped at limit rows. This is the calibrator's input, exposed for
// inspection.
func (p *SignalPipeline) LabeledHistory(ctx context.Context, since time.Time, limit int) ([]models.LabeledSignal, error) {
	rows, err := p.deps.History.LabeledSince(ctx, since)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

// Health reports whether the signal store is reachable.
func (p *SignalPipeline) Health(ctx context.Context) error {
	return p.deps.History.Health(ctx)
}

func (p *SignalPipeline) symbolSpec(symbol string) models.SymbolSpec {
	if spec, ok := p.params.Symbols[symbol]; ok {
		return spec
	}
	return models.DefaultSpec(models.ClassifySymbol(symbol))
}

// spreadFor prefers the live quote, then the caller-observed spread, then
// the class-typical spread.
func (p *SignalPipeline) spreadFor(symbol string, observed float64, spec models.SymbolSpec) float64 {
	if p.deps.Quotes != nil {
		if q, ok := p.deps.Quotes.Latest(symbol); ok && q.Spread() > 0 {
			return q.Spread()
		}
	}
	if observed > 0 {
		return observed
	}
	return spec.TypicalSpread * spec.PipSize
}

// structuralTarget prefers the selector's hint, then the nearest swing
// level on the profitable side, read from the nearest higher timeframe
// that has candles.
func (p *SignalPipeline) structuralTarget(req *models.GenerateSignalRequest, cand models.CandidateSignal, series models.Series, primary drepo.Timeframe, entry float64) float64 {
	if cand.TargetHint != 0 {
		return cand.TargetHint
	}
	source := series
	for _, tf := range drepo.HigherTimeframes(primary) {
		if s, ok := req.Candles[string(tf)]; ok && len(s) >= 5 {
			source = s
			break
		}
	}
	highs, lows := levels.SwingLevels(source, 3)
	return nearestBeyond(cand.Direction, entry, highs, lows)
}

// nearestBeyond picks the closest structural level past entry in the trade
// direction, zero when none exists.
func nearestBeyond(dir models.Direction, entry float64, highs, lows []float64) float64 {
	var best float64
	if dir == models.Buy {
		for _, h := range highs {
			if h > entry && (best == 0 || h < best) {
				best = h
			}
		}
		return best
	}
	for _, l := range lows {
		if l < entry && (best == 0 || l > best) {
			best = l
		}
	}
	return best
}

func (p *SignalPipeline) resolvePrediction(ctx context.Context, req *models.GenerateSignalRequest, ind models.IndicatorSet, series models.Series, price float64, tf drepo.Timeframe) *models.Prediction {
	if req.Prediction != nil {
		return req.Prediction
	}
	if p.deps.Prediction == nil {
		return nil
	}
	got, err := p.deps.Prediction.Predict(ctx, req.Symbol, features.Vector(ind, series, price, tf))
	if err != nil {
		p.deps.Metrics.RecordError("prediction_provider")
		p.deps.Log.Warn("prediction provider unavailable", logger.String("symbol", req.Symbol), logger.Error(err))
		return nil
	}
	return &got
}

func (p *SignalPipeline) resolveSentiment(ctx context.Context, req *models.GenerateSignalRequest) *models.SentimentAssessment {
	if req.Sentiment != nil {
		return req.Sentiment
	}
	if p.deps.Sentiment == nil {
		return nil
	}
	got, err := p.deps.Sentiment.Assess(ctx, req.Symbol)
	if err != nil {
		p.deps.Metrics.RecordError("sentiment_provider")
		p.deps.Log.Warn("sentiment provider unavailable", logger.String("symbol", req.Symbol), logger.Error(err))
		return nil
	}
	return &got
}

// multiTimeframe derives one directional read per supplied higher timeframe,
// nearest first. Series too short for the EMA cross or the bias lookback are
// skipped rather than guessed at.
func multiTimeframe(candles map[string]models.Series, primary drepo.Timeframe) []models.MTFSignal {
	var out []models.MTFSignal
	for _, tf := range drepo.HigherTimeframes(primary) {
		series, ok := candles[string(tf)]
		if !ok || len(series) <= trendBiasLookback {
			continue
		}
		closes := series.Closes()
		ema12, err12 := indicator.EMA(closes, 12)
		ema21, err21 := indicator.EMA(closes, 21)
		if err12 != nil || err21 != nil {
			continue
		}

		dir := models.Sell
		if ema12 > ema21 {
			dir = models.Buy
		}
		bias := models.TrendBearish
		if closes[len(closes)-1] > closes[len(closes)-1-trendBiasLookback] {
			bias = models.TrendBullish
		}
		out = append(out, models.MTFSignal{Timeframe: string(tf), Direction: dir, Trend: bias})
	}
	return out
}
