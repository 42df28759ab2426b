package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TradePulse/internal/calibration"
	"TradePulse/internal/domain/models"
)

type memLocker struct {
	mu       sync.Mutex
	denied   bool
	err      error
	locked   int
	unlocked int
}

func (l *memLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return false, l.err
	}
	if l.denied {
		return false, nil
	}
	l.locked++
	return true, nil
}

func (l *memLocker) Unlock(ctx context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.unlocked++
	return nil
}

func labeledRows(n int, confidence float64, win bool, pips float64) []models.LabeledSignal {
	rows := make([]models.LabeledSignal, n)
	for i := range rows {
		rows[i] = models.LabeledSignal{Confidence: confidence, Win: win, Pips: pips}
	}
	return rows
}

func newRunnerFixture(t *testing.T, rows []models.LabeledSignal) (*CalibrationRunner, *memHistory, *memCalibStore, *memLocker, *countingMetrics) {
	t.Helper()
	history := &memHistory{labeled: rows}
	store := &memCalibStore{}
	locker := &memLocker{}
	metrics := newCountingMetrics()
	r := NewCalibrationRunner(history, store, locker, metrics, testLogger(t), calibration.DefaultConfig())
	r.now = func() time.Time { return evalTime }
	return r, history, store, locker, metrics
}

func TestCalibrationRunSupersedesRecord(t *testing.T) {
	rows := append(labeledRows(80, 72, true, 12), labeledRows(40, 55, false, -8)...)
	r, _, store, locker, metrics := newRunnerFixture(t, rows)

	require.NoError(t, r.Run(context.Background()))

	require.NotNil(t, store.rec)
	assert.Equal(t, evalTime.UTC(), store.rec.ComputedAt)
	assert.GreaterOrEqual(t, store.rec.Threshold, 50.0)
	assert.Equal(t, 1, metrics.count("calibration_ok"))
	assert.Equal(t, 1, locker.locked)
	assert.Equal(t, 1, locker.unlocked)
}

func TestCalibrationRunSkipsWhenLockHeld(t *testing.T) {
	r, _, store, _, metrics := newRunnerFixture(t, labeledRows(200, 70, true, 10))
	r.locker.(*memLocker).denied = true

	require.NoError(t, r.Run(context.Background()))
	assert.Nil(t, store.rec)
	assert.Equal(t, 0, metrics.count("calibration_ok"))
}

func TestCalibrationRunKeepsRecordOnInsufficientData(t *testing.T) {
	r, _, store, locker, metrics := newRunnerFixture(t, labeledRows(10, 70, true, 10))
	existing := &models.CalibrationRecord{Threshold: 65, ComputedAt: evalTime.Add(-24 * time.Hour)}
	store.rec = existing

	require.NoError(t, r.Run(context.Background()))
	assert.Equal(t, existing, store.rec)
	assert.Equal(t, 1, metrics.count("calibration_insufficient_data"))
	assert.Equal(t, 1, locker.unlocked)
}

func TestCalibrationRunReportsHistoryError(t *testing.T) {
	r, history, store, locker, metrics := newRunnerFixture(t, nil)
	history.readErr = errors.New("clickhouse unavailable")

	err := r.Run(context.Background())
	require.Error(t, err)
	assert.Nil(t, store.rec)
	assert.Equal(t, 1, metrics.count("calibration_error"))
	assert.Equal(t, 1, locker.unlocked)
}

func TestCalibrationRunReportsLockError(t *testing.T) {
	r, _, _, _, metrics := newRunnerFixture(t, nil)
	r.locker.(*memLocker).err = errors.New("redis unavailable")

	require.Error(t, r.Run(context.Background()))
	assert.Equal(t, 1, metrics.count("error_calibration_lock"))
}
