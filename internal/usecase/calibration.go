package usecase

import (
	"context"
	"errors"
	"time"

	"TradePulse/internal/calibration"
	"TradePulse/internal/domain/models"
	drepo "TradePulse/internal/domain/repository"
	"TradePulse/pkg/logger"
)

// calibrationLockKey serializes runs across replicas.
const calibrationLockKey = "calibration:run"

// CalibrationRunner executes one threshold scan over the labeled trailing
// window and atomically supersedes the active record on success. A
// distributed lock guarantees runs never overlap.
type CalibrationRunner struct {
	history drepo.SignalHistory
	store   drepo.CalibrationStore
	locker  drepo.Locker
	metrics drepo.Metrics
	log     *logger.Logger
	cfg     calibration.Config
	now     func() time.Time
}

// NewCalibrationRunner constructs the runner.
func NewCalibrationRunner(
	history drepo.SignalHistory,
	store drepo.CalibrationStore,
	locker drepo.Locker,
	metrics drepo.Metrics,
	log *logger.Logger,
	cfg calibration.Config,
) *CalibrationRunner {
	return &CalibrationRunner{
		history: history,
		store:   store,
		locker:  locker,
		metrics: metrics,
		log:     log,
		cfg:     cfg,
		now:     time.Now,
	}
}

// Run performs one calibration pass. Insufficient labeled data is a normal
// outcome, not an error: the active record stays in force.
func (r *CalibrationRunner) Run(ctx context.Context) error {
	locked, err := r.locker.TryLock(ctx, calibrationLockKey, r.cfg.Timeout)
	if err != nil {
		r.metrics.RecordError("calibration_lock")
		return err
	}
	if !locked {
		r.log.Info("calibration already running on another replica, skipping")
		return nil
	}
	defer func() {
		if uerr := r.locker.Unlock(context.WithoutCancel(ctx), calibrationLockKey); uerr != nil {
			r.log.Warn("calibration unlock failed", logger.Error(uerr))
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	now := r.now()
	rows, err := r.history.LabeledSince(ctx, now.UTC().Add(-r.cfg.Window))
	if err != nil {
		r.metrics.RecordCalibration("error")
		r.log.Error("calibration history read failed", logger.Error(err))
		return err
	}

	rec, stats, err := calibration.Scan(rows, now, r.cfg)
	if errors.Is(err, models.ErrCalibrationInsufficientData) {
		r.metrics.RecordCalibration("insufficient_data")
		r.log.Warn("calibration skipped, keeping active threshold",
			logger.Int("labeled", len(rows)),
			logger.Int("min_samples", r.cfg.MinSamples),
		)
		return nil
	}
	if err != nil {
		r.metrics.RecordCalibration("error")
		return err
	}

	if err := r.store.Supersede(ctx, &rec); err != nil {
		r.metrics.RecordCalibration("error")
		r.log.Error("calibration supersede failed", logger.Error(err))
		return err
	}

	r.metrics.RecordCalibration("ok")
	r.log.Info("calibration complete",
		logger.Any("threshold", rec.Threshold),
		logger.Int("qualified", rec.QualifiedCount),
		logger.Any("score", rec.BlendedScore),
		logger.Int("thresholds_scanned", len(stats)),
	)
	return nil
}
