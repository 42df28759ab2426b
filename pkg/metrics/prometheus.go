package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	signalsTotal     *prometheus.CounterVec
	correctionsTotal *prometheus.CounterVec
	fallbacksTotal   *prometheus.CounterVec
	calibrationRuns  *prometheus.CounterVec
	errorsTotal      *prometheus.CounterVec
	lastConfidence   *prometheus.GaugeVec
	latency          *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		signalsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradepulse_signals_total",
				Help: "Total number of signals emitted",
			},
			[]string{"symbol", "direction", "regime"},
		),
		correctionsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradepulse_sl_tp_corrections_total",
				Help: "Total number of direction-consistency corrections applied",
			},
			[]string{"symbol"},
		),
		fallbacksTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradepulse_fallback_signals_total",
				Help: "Total number of signals emitted by the fallback state",
			},
			[]string{"symbol"},
		),
		calibrationRuns: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradepulse_calibration_runs_total",
				Help: "Total number of calibration runs by result",
			},
			[]string{"result"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradepulse_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		lastConfidence: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "tradepulse_last_confidence",
				Help: "Final confidence of the last signal per symbol",
			},
			[]string{"symbol"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tradepulse_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordSignal records one emitted signal.
func (r *Recorder) RecordSignal(symbol, direction, regime string) {
	r.signalsTotal.WithLabelValues(symbol, direction, regime).Inc()
}

// RecordCorrection records one SL/TP consistency correction.
func (r *Recorder) RecordCorrection(symbol string) {
	r.correctionsTotal.WithLabelValues(symbol).Inc()
}

// RecordFallback records one fallback-state emission.
func (r *Recorder) RecordFallback(symbol string) {
	r.fallbacksTotal.WithLabelValues(symbol).Inc()
}

// RecordCalibration records a calibration run outcome.
func (r *Recorder) RecordCalibration(result string) {
	r.calibrationRuns.WithLabelValues(result).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLastConfidence records the final confidence for a symbol.
func (r *Recorder) RecordLastConfidence(symbol string, confidence float64) {
	r.lastConfidence.WithLabelValues(symbol).Set(confidence)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
