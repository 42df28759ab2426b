// Package api exposes the signal engine over HTTP.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"TradePulse/internal/domain/models"
	"TradePulse/internal/service/ratelimit"
	"TradePulse/internal/usecase"
	"TradePulse/pkg/cache"
	xhttp "TradePulse/pkg/http"
	xlogger "TradePulse/pkg/logger"
)

// signalRateCapacity / signalRateRefill bound one client to a burst of 10
// evaluations and 5 sustained per second.
const (
	signalRateCapacity = 10
	signalRateRefill   = 5
)

// signalCacheTTL absorbs duplicate evaluations inside one candle interval.
const signalCacheTTL = 5 * time.Second

// SignalsEchoHandler registers the engine's HTTP surface.
type SignalsEchoHandler struct {
	logger   *xlogger.Logger
	pipeline *usecase.SignalPipeline
	limiter  *ratelimit.Limiter
	cache    cache.Service
}

// NewSignalsEchoHandler creates the handler. The cache is optional.
func NewSignalsEchoHandler(logger *xlogger.Logger, pipeline *usecase.SignalPipeline, c cache.Service) *SignalsEchoHandler {
	return &SignalsEchoHandler{logger: logger, pipeline: pipeline, limiter: ratelimit.New(), cache: c}
}

// RegisterRoutes mounts the API routes.
func (h *SignalsEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)
	g := e.Group("/api")
	g.POST("/signal", h.GenerateSignal, ratelimit.Middleware(h.limiter, signalRateCapacity, signalRateRefill))
	g.GET("/calibration", h.Calibration)
	g.GET("/calibration/samples", h.CalibrationSamples)
}

// GenerateSignal runs one full pipeline evaluation for the posted candles.
func (h *SignalsEchoHandler) GenerateSignal(c echo.Context) error {
	req := &models.GenerateSignalRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if _, ok := req.Candles[req.Primary]; !ok {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestErrorf("primary timeframe %s has no candles", req.Primary))
	}

	ctx := c.Request().Context()
	key := fmt.Sprintf("signal:%s:%s", req.Symbol, req.Primary)
	if h.cache != nil {
		var raw string
		if err := h.cache.Get(ctx, key, &raw); err == nil {
			var cached models.SignalRecord
			if err := json.Unmarshal([]byte(raw), &cached); err == nil {
				return xhttp.SuccessResponse(c, &cached)
			}
		}
	}

	rec, err := h.pipeline.Generate(ctx, req)
	if err != nil {
		if errors.Is(err, models.ErrInsufficientData) {
			return xhttp.AppErrorResponse(c, xhttp.BadRequestError(err.Error()))
		}
		h.logger.Error("signal pipeline error", xlogger.String("symbol", req.Symbol), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}

	if h.cache != nil {
		if raw, merr := json.Marshal(rec); merr == nil {
			if err := h.cache.Set(ctx, key, string(raw), signalCacheTTL); err != nil {
				h.logger.Warn("signal cache write failed", xlogger.Error(err))
			}
		}
	}
	return xhttp.SuccessResponse(c, rec)
}

// Calibration returns the active confidence threshold record. Active is nil
// until the first successful calibration run.
func (h *SignalsEchoHandler) Calibration(c echo.Context) error {
	active, err := h.pipeline.ActiveCalibration(c.Request().Context())
	if err != nil {
		h.logger.Error("calibration read error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, models.CalibrationResponse{Active: active})
}

// CalibrationSamples returns the outcome-labeled rows the calibrator scans,
// defaulting to the last 24 hours capped at 500.
func (h *SignalsEchoHandler) CalibrationSamples(c echo.Context) error {
	limit := xhttp.ParseIntDefault(c.QueryParam("limit"), 500)
	since := xhttp.ParseTimeDefault(c.QueryParam("since"), time.Now().UTC().Add(-24*time.Hour))

	rows, err := h.pipeline.LabeledHistory(c.Request().Context(), since, limit)
	if err != nil {
		h.logger.Error("labeled history read error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, rows)
}

// Health reports readiness of the signal store.
func (h *SignalsEchoHandler) Health(c echo.Context) error {
	if err := h.pipeline.Health(c.Request().Context()); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "degraded", "error": err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
