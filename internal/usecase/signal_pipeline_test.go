package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TradePulse/internal/confidence"
	"TradePulse/internal/domain/models"
	drepo "TradePulse/internal/domain/repository"
	"TradePulse/internal/levels"
	"TradePulse/internal/regime"
	"TradePulse/internal/risk"
	"TradePulse/internal/strategy"
	"TradePulse/pkg/logger"
)

type memHistory struct {
	mu       sync.Mutex
	stored   []*models.SignalRecord
	outcomes []*models.SignalOutcome
	labeled  []models.LabeledSignal
	storeErr error
	applyErr error
	readErr  error
}

func (h *memHistory) Init(ctx context.Context) error { return nil }

func (h *memHistory) Store(ctx context.Context, rec *models.SignalRecord) error {
	if h.storeErr != nil {
		return h.storeErr
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.stored = append(h.stored, rec)
	return nil
}

func (h *memHistory) ApplyOutcome(ctx context.Context, out *models.SignalOutcome) error {
	if h.applyErr != nil {
		return h.applyErr
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.outcomes = append(h.outcomes, out)
	return nil
}

func (h *memHistory) LabeledSince(ctx context.Context, since time.Time) ([]models.LabeledSignal, error) {
	if h.readErr != nil {
		return nil, h.readErr
	}
	return h.labeled, nil
}

func (h *memHistory) Health(ctx context.Context) error { return nil }
func (h *memHistory) Close() error                     { return nil }

type memPublisher struct {
	mu        sync.Mutex
	published []*models.SignalRecord
	err       error
}

func (p *memPublisher) Publish(ctx context.Context, rec *models.SignalRecord) error {
	if p.err != nil {
		return p.err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, rec)
	return nil
}

func (p *memPublisher) Close() error { return nil }

type memCalibStore struct {
	mu  sync.Mutex
	rec *models.CalibrationRecord
}

func (s *memCalibStore) Active(ctx context.Context) (*models.CalibrationRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rec, nil
}

func (s *memCalibStore) Supersede(ctx context.Context, rec *models.CalibrationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rec = rec
	return nil
}

type memBook struct {
	quotes map[string]models.Quote
}

func (b *memBook) Latest(symbol string) (models.Quote, bool) {
	q, ok := b.quotes[symbol]
	return q, ok
}

type countingMetrics struct {
	mu     sync.Mutex
	counts map[string]int
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{counts: make(map[string]int)}
}

func (m *countingMetrics) bump(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts[key]++
}

func (m *countingMetrics) count(key string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counts[key]
}

func (m *countingMetrics) RecordSignal(symbol, direction, regime string) { m.bump("signal") }
func (m *countingMetrics) RecordCorrection(symbol string)                { m.bump("correction") }
func (m *countingMetrics) RecordFallback(symbol string)                  { m.bump("fallback") }
func (m *countingMetrics) RecordCalibration(result string)               { m.bump("calibration_" + result) }
func (m *countingMetrics) RecordError(kind string)                       { m.bump("error_" + kind) }
func (m *countingMetrics) RecordLastConfidence(symbol string, confidence float64) {
	m.bump("last_confidence")
}
func (m *countingMetrics) RecordLatency(op string, seconds float64) { m.bump("latency_" + op) }

type stubPrediction struct {
	pred models.Prediction
	err  error
}

func (s *stubPrediction) Predict(ctx context.Context, symbol string, features map[string]float64) (models.Prediction, error) {
	if s.err != nil {
		return models.Prediction{}, s.err
	}
	return s.pred, nil
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	l, err := logger.New(&logger.Config{Level: "error", Format: "console", Output: "stdout"})
	require.NoError(t, err)
	return l
}

// evalTime is a Thursday 14:30 UTC, inside the New York post-open window.
var evalTime = time.Date(2024, 3, 14, 14, 30, 0, 0, time.UTC)

func defaultParams() PipelineParams {
	return PipelineParams{
		Symbols:  map[string]models.SymbolSpec{},
		Levels:   levels.DefaultConfig(),
		Regime:   regime.DefaultThresholds(),
		Strategy: strategy.DefaultConfig(),
		Weights:  confidence.DefaultWeights(),
		Risk:     risk.DefaultConfig(),
	}
}

// m5Series builds an M5 uptrend with periodic pullbacks ending at end.
func m5Series(n int, end time.Time) models.Series {
	series := make(models.Series, n)
	start := end.Add(-time.Duration(n-1) * 5 * time.Minute)
	price := 1.0800
	for i := 0; i < n; i++ {
		drift := 0.0004
		if i%5 == 0 {
			drift = -0.0006
		}
		price += drift
		series[i] = models.Candle{
			Timestamp: start.Add(time.Duration(i) * 5 * time.Minute),
			Open:      price - 0.0002,
			High:      price + 0.0004,
			Low:       price - 0.0005,
			Close:     price,
			Volume:    1000,
		}
	}
	return series
}

type pipelineFixture struct {
	pipeline *SignalPipeline
	history  *memHistory
	pub      *memPublisher
	calib    *memCalibStore
	metrics  *countingMetrics
}

func newPipelineFixture(t *testing.T) *pipelineFixture {
	t.Helper()
	f := &pipelineFixture{
		history: &memHistory{},
		pub:     &memPublisher{},
		calib:   &memCalibStore{},
		metrics: newCountingMetrics(),
	}
	f.pipeline = NewSignalPipeline(PipelineDeps{
		History:   f.history,
		Publisher: f.pub,
		Calib:     f.calib,
		Quotes:    &memBook{quotes: map[string]models.Quote{}},
		Metrics:   f.metrics,
		Log:       testLogger(t),
	}, defaultParams())
	f.pipeline.now = func() time.Time { return evalTime }
	return f
}

func validRequest() *models.GenerateSignalRequest {
	return &models.GenerateSignalRequest{
		Symbol:  "EURUSD",
		Primary: "M5",
		Candles: map[string]models.Series{
			"M5": m5Series(80, evalTime),
		},
	}
}

func TestGeneratePersistsAndPublishes(t *testing.T) {
	f := newPipelineFixture(t)

	rec, err := f.pipeline.Generate(context.Background(), validRequest())
	require.NoError(t, err)
	require.NotNil(t, rec)

	assert.Equal(t, "EURUSD", rec.Symbol)
	assert.Contains(t, []models.Direction{models.Buy, models.Sell}, rec.Direction)
	assert.GreaterOrEqual(t, rec.Confidence, 0.0)
	assert.LessOrEqual(t, rec.Confidence, 100.0)
	assert.NotEmpty(t, rec.Reasons)
	assert.Equal(t, evalTime.UTC(), rec.GeneratedAt)

	// Stop and target on the correct sides of entry.
	if rec.Direction == models.Buy {
		assert.Less(t, rec.StopLoss, rec.EntryPrice)
		assert.Greater(t, rec.TakeProfit, rec.EntryPrice)
	} else {
		assert.Greater(t, rec.StopLoss, rec.EntryPrice)
		assert.Less(t, rec.TakeProfit, rec.EntryPrice)
	}
	assert.Greater(t, rec.RiskReward, 0.0)

	require.Len(t, f.history.stored, 1)
	require.Len(t, f.pub.published, 1)
	assert.Equal(t, rec, f.history.stored[0])
	assert.Equal(t, rec, f.pub.published[0])

	assert.Equal(t, 1, f.metrics.count("signal"))
	assert.Equal(t, 1, f.metrics.count("last_confidence"))
}

func TestGenerateInsufficientHistory(t *testing.T) {
	f := newPipelineFixture(t)
	req := validRequest()
	req.Candles["M5"] = m5Series(10, evalTime)

	_, err := f.pipeline.Generate(context.Background(), req)
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrInsufficientData)
	assert.Empty(t, f.history.stored)
	assert.Empty(t, f.pub.published)
}

func TestGenerateMissingPrimarySeries(t *testing.T) {
	f := newPipelineFixture(t)
	req := validRequest()
	delete(req.Candles, "M5")
	req.Candles["H1"] = m5Series(80, evalTime)

	_, err := f.pipeline.Generate(context.Background(), req)
	assert.ErrorIs(t, err, models.ErrInsufficientData)
}

func TestGenerateToleratesPredictionFailure(t *testing.T) {
	f := newPipelineFixture(t)
	f.pipeline.deps.Prediction = &stubPrediction{err: errors.New("model service down")}

	rec, err := f.pipeline.Generate(context.Background(), validRequest())
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, 1, f.metrics.count("error_prediction_provider"))
}

func TestGenerateUsesExternalPrediction(t *testing.T) {
	f := newPipelineFixture(t)
	f.pipeline.deps.Prediction = &stubPrediction{
		pred: models.Prediction{Direction: models.Buy, Confidence: 82, Available: true},
	}

	rec, err := f.pipeline.Generate(context.Background(), validRequest())
	require.NoError(t, err)

	found := false
	for _, r := range rec.Reasons {
		if r == "prediction source: external_model (82.0)" {
			found = true
		}
	}
	assert.True(t, found, "reasons should name the external model source: %v", rec.Reasons)
}

func TestGenerateAnnotatesBelowThreshold(t *testing.T) {
	f := newPipelineFixture(t)
	f.calib.rec = &models.CalibrationRecord{Threshold: 100, ComputedAt: evalTime}

	rec, err := f.pipeline.Generate(context.Background(), validRequest())
	require.NoError(t, err)

	found := false
	for _, r := range rec.Reasons {
		if r == "confidence below calibrated threshold 100" {
			found = true
		}
	}
	assert.True(t, found, "reasons: %v", rec.Reasons)
}

func TestGenerateSurvivesStoreFailure(t *testing.T) {
	f := newPipelineFixture(t)
	f.history.storeErr = errors.New("clickhouse unavailable")

	rec, err := f.pipeline.Generate(context.Background(), validRequest())
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, 1, f.metrics.count("error_history_store"))
	require.Len(t, f.pub.published, 1)
}

func TestSpreadPrefersLiveQuote(t *testing.T) {
	f := newPipelineFixture(t)
	spec := models.DefaultSpec(models.ClassMajorFX)

	f.pipeline.deps.Quotes = &memBook{quotes: map[string]models.Quote{
		"EURUSD": {Symbol: "EURUSD", Bid: 1.0899, Ask: 1.0901, Time: evalTime},
	}}
	assert.InDelta(t, 0.0002, f.pipeline.spreadFor("EURUSD", 0.0005, spec), 1e-9)

	// No quote: caller-observed spread wins.
	f.pipeline.deps.Quotes = &memBook{quotes: map[string]models.Quote{}}
	assert.InDelta(t, 0.0005, f.pipeline.spreadFor("EURUSD", 0.0005, spec), 1e-9)

	// Nothing observed: class-typical spread.
	assert.InDelta(t, spec.TypicalSpread*spec.PipSize, f.pipeline.spreadFor("EURUSD", 0, spec), 1e-9)
}

func TestNearestBeyond(t *testing.T) {
	highs := []float64{1.0950, 1.0920, 1.0990}
	lows := []float64{1.0850, 1.0880, 1.0810}

	assert.InDelta(t, 1.0920, nearestBeyond(models.Buy, 1.0900, highs, lows), 1e-9)
	assert.InDelta(t, 1.0880, nearestBeyond(models.Sell, 1.0900, highs, lows), 1e-9)
	assert.Zero(t, nearestBeyond(models.Buy, 1.1000, highs, lows))
	assert.Zero(t, nearestBeyond(models.Sell, 1.0800, highs, lows))
}

func TestMultiTimeframeReadsHigherFrames(t *testing.T) {
	up := m5Series(40, evalTime)
	short := m5Series(5, evalTime)

	out := multiTimeframe(map[string]models.Series{
		"M5": m5Series(80, evalTime),
		"H1": up,
		"H4": short, // too short, skipped
		"M1": up,    // below the primary, ignored
	}, drepo.TFM5)

	require.Len(t, out, 1)
	assert.Equal(t, "H1", out[0].Timeframe)
	assert.Equal(t, models.Buy, out[0].Direction)
	assert.Equal(t, models.TrendBullish, out[0].Trend)
}
