package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TradePulse/internal/confidence"
	"TradePulse/internal/domain/models"
	"TradePulse/internal/levels"
	"TradePulse/internal/regime"
	"TradePulse/internal/risk"
	"TradePulse/internal/strategy"
	"TradePulse/internal/usecase"
	"TradePulse/pkg/cache"
	"TradePulse/pkg/logger"
)

type fakeHistory struct {
	healthErr error
	labeled   []models.LabeledSignal
}

func (fakeHistory) Init(ctx context.Context) error                                  { return nil }
func (fakeHistory) Store(ctx context.Context, rec *models.SignalRecord) error       { return nil }
func (fakeHistory) ApplyOutcome(ctx context.Context, o *models.SignalOutcome) error { return nil }
func (f fakeHistory) LabeledSince(ctx context.Context, s time.Time) ([]models.LabeledSignal, error) {
	return f.labeled, nil
}
func (f fakeHistory) Health(ctx context.Context) error { return f.healthErr }
func (fakeHistory) Close() error                       { return nil }

type fakePublisher struct{ published int }

func (f *fakePublisher) Publish(ctx context.Context, rec *models.SignalRecord) error {
	f.published++
	return nil
}
func (f *fakePublisher) Close() error { return nil }

type fakeCalib struct{ rec *models.CalibrationRecord }

func (f *fakeCalib) Active(ctx context.Context) (*models.CalibrationRecord, error) {
	return f.rec, nil
}
func (f *fakeCalib) Supersede(ctx context.Context, rec *models.CalibrationRecord) error {
	f.rec = rec
	return nil
}

type fakeBook struct{}

func (fakeBook) Latest(symbol string) (models.Quote, bool) { return models.Quote{}, false }

type nopMetrics struct{}

func (nopMetrics) RecordSignal(symbol, direction, regime string)         {}
func (nopMetrics) RecordCorrection(symbol string)                        {}
func (nopMetrics) RecordFallback(symbol string)                          {}
func (nopMetrics) RecordCalibration(result string)                       {}
func (nopMetrics) RecordError(kind string)                               {}
func (nopMetrics) RecordLastConfidence(symbol string, confidence float64) {}
func (nopMetrics) RecordLatency(op string, seconds float64)              {}

type handlerFixture struct {
	history   fakeHistory
	publisher *fakePublisher
	cache     cache.Service
}

func newTestHandler(t *testing.T, calib *fakeCalib) *SignalsEchoHandler {
	t.Helper()
	return newTestHandlerWith(t, calib, handlerFixture{publisher: &fakePublisher{}})
}

func newTestHandlerWith(t *testing.T, calib *fakeCalib, fx handlerFixture) *SignalsEchoHandler {
	t.Helper()
	l, err := logger.New(&logger.Config{Level: "error", Format: "console", Output: "stdout"})
	require.NoError(t, err)

	if fx.publisher == nil {
		fx.publisher = &fakePublisher{}
	}
	pipeline := usecase.NewSignalPipeline(usecase.PipelineDeps{
		History:   fx.history,
		Publisher: fx.publisher,
		Calib:     calib,
		Quotes:    fakeBook{},
		Metrics:   nopMetrics{},
		Log:       l,
	}, usecase.PipelineParams{
		Symbols:  map[string]models.SymbolSpec{},
		Levels:   levels.DefaultConfig(),
		Regime:   regime.DefaultThresholds(),
		Strategy: strategy.DefaultConfig(),
		Weights:  confidence.DefaultWeights(),
		Risk:     risk.DefaultConfig(),
	})
	return NewSignalsEchoHandler(l, pipeline, fx.cache)
}

func testSeries(n int) models.Series {
	end := time.Now().UTC().Truncate(5 * time.Minute)
	start := end.Add(-time.Duration(n-1) * 5 * time.Minute)
	series := make(models.Series, n)
	price := 1.0800
	for i := 0; i < n; i++ {
		price += 0.0003
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

func doJSON(t *testing.T, e *echo.Echo, method, path string, payload interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var body bytes.Buffer
	if payload != nil {
		require.NoError(t, json.NewEncoder(&body).Encode(payload))
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var parsed map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &parsed))
	return rec, parsed
}

func TestGenerateSignalEndpoint(t *testing.T) {
	h := newTestHandler(t, &fakeCalib{})
	e := echo.New()
	h.RegisterRoutes(e)

	req := models.GenerateSignalRequest{
		Symbol:  "EURUSD",
		Primary: "M5",
		Candles: map[string]models.Series{"M5": testSeries(80)},
	}
	rec, parsed := doJSON(t, e, http.MethodPost, "/api/signal", req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 200, parsed["status"])
	data, ok := parsed["data"].(map[string]interface{})
	require.True(t, ok, "body: %s", rec.Body.String())
	assert.Equal(t, "EURUSD", data["symbol"])
	assert.Contains(t, []interface{}{"BUY", "SELL"}, data["direction"])
	assert.NotEmpty(t, data["reasons"])
}

func TestGenerateSignalRejectsMissingCandles(t *testing.T) {
	h := newTestHandler(t, &fakeCalib{})
	e := echo.New()
	h.RegisterRoutes(e)

	_, parsed := doJSON(t, e, http.MethodPost, "/api/signal", map[string]interface{}{
		"symbol": "EURUSD",
	})
	assert.EqualValues(t, 400, parsed["status"])
}

func TestGenerateSignalRejectsPrimaryWithoutSeries(t *testing.T) {
	h := newTestHandler(t, &fakeCalib{})
	e := echo.New()
	h.RegisterRoutes(e)

	req := models.GenerateSignalRequest{
		Symbol:  "EURUSD",
		Primary: "H1",
		Candles: map[string]models.Series{"M5": testSeries(80)},
	}
	_, parsed := doJSON(t, e, http.MethodPost, "/api/signal", req)
	assert.EqualValues(t, 400, parsed["status"])
}

func TestCalibrationEndpoint(t *testing.T) {
	calib := &fakeCalib{rec: &models.CalibrationRecord{
		Threshold:      65,
		QualifiedCount: 240,
		BlendedScore:   48.2,
		ComputedAt:     time.Now().UTC(),
	}}
	h := newTestHandler(t, calib)
	e := echo.New()
	h.RegisterRoutes(e)

	rec, parsed := doJSON(t, e, http.MethodGet, "/api/calibration", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	data, ok := parsed["data"].(map[string]interface{})
	require.True(t, ok)
	active, ok := data["active"].(map[string]interface{})
	require.True(t, ok)
	assert.EqualValues(t, 65, active["threshold"])
	assert.EqualValues(t, 240, active["qualified_signal_count"])
}

func TestGenerateSignalServesCachedResponse(t *testing.T) {
	pub := &fakePublisher{}
	h := newTestHandlerWith(t, &fakeCalib{}, handlerFixture{publisher: pub, cache: cache.NewMemoryCache()})
	e := echo.New()
	h.RegisterRoutes(e)

	req := models.GenerateSignalRequest{
		Symbol:  "EURUSD",
		Primary: "M5",
		Candles: map[string]models.Series{"M5": testSeries(80)},
	}
	_, first := doJSON(t, e, http.MethodPost, "/api/signal", req)
	_, second := doJSON(t, e, http.MethodPost, "/api/signal", req)

	assert.EqualValues(t, 200, second["status"])
	assert.Equal(t, first["data"], second["data"])
	assert.Equal(t, 1, pub.published, "second call should come from cache")
}

func TestCalibrationSamplesEndpoint(t *testing.T) {
	labeled := []models.LabeledSignal{
		{Confidence: 72, Win: true, Pips: 18.5},
		{Confidence: 55, Win: false, Pips: -12.0},
		{Confidence: 81, Win: true, Pips: 24.0},
	}
	fx := handlerFixture{history: fakeHistory{labeled: labeled}}
	h := newTestHandlerWith(t, &fakeCalib{}, fx)
	e := echo.New()
	h.RegisterRoutes(e)

	rec, parsed := doJSON(t, e, http.MethodGet, "/api/calibration/samples?limit=2", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	data, ok := parsed["data"].([]interface{})
	require.True(t, ok, "body: %s", rec.Body.String())
	require.Len(t, data, 2)
	first, ok := data[0].(map[string]interface{})
	require.True(t, ok)
	assert.EqualValues(t, 72, first["confidence"])
	assert.Equal(t, true, first["win"])
}

func TestHealthEndpoint(t *testing.T) {
	h := newTestHandler(t, &fakeCalib{})
	e := echo.New()
	h.RegisterRoutes(e)

	rec, parsed := doJSON(t, e, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", parsed["status"])
}

func TestHealthEndpointDegraded(t *testing.T) {
	fx := handlerFixture{history: fakeHistory{healthErr: errors.New("clickhouse down")}}
	h := newTestHandlerWith(t, &fakeCalib{}, fx)
	e := echo.New()
	h.RegisterRoutes(e)

	rec, parsed := doJSON(t, e, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "degraded", parsed["status"])
}
