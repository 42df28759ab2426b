package repository

import (
	"context"
	"time"

	"TradePulse/internal/domain/models"
)

// SignalHistory stores emitted signals and their realized outcomes. The
// calibrator reads the labeled trailing window from here.
type SignalHistory interface {
	Init(ctx context.Context) error
	Store(ctx context.Context, rec *models.SignalRecord) error
	ApplyOutcome(ctx context.Context, out *models.SignalOutcome) error
	LabeledSince(ctx context.Context, since time.Time) ([]models.LabeledSignal, error)
	Health(ctx context.Context) error
	Close() error
}

// Publisher hands emitted signals to downstream execution/notification
// consumers.
type Publisher interface {
	Publish(ctx context.Context, rec *models.SignalRecord) error
	Close() error
}

// CalibrationStore holds the single active calibration record. Supersede
// must be atomic with respect to Active readers.
type CalibrationStore interface {
	Active(ctx context.Context) (*models.CalibrationRecord, error)
	Supersede(ctx context.Context, rec *models.CalibrationRecord) error
}

// QuoteStream is the live bid/ask feed from the market-data collaborator.
type QuoteStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan *models.Quote, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// QuoteBook exposes the latest quote per symbol.
type QuoteBook interface {
	Latest(symbol string) (models.Quote, bool)
}

// Locker provides the calibrator's non-overlap guarantee.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context, key string) error
}

// Metrics is the engine-facing metrics recorder.
type Metrics interface {
	RecordSignal(symbol string, direction, regime string)
	RecordCorrection(symbol string)
	RecordFallback(symbol string)
	RecordCalibration(result string)
	RecordError(kind string)
	RecordLastConfidence(symbol string, confidence float64)
	RecordLatency(op string, seconds float64)
}
