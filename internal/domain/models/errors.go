package models

import (
	"errors"
	"fmt"
)

var (
	// ErrInsufficientData means the candle history is shorter than the
	// largest indicator lookback. Callers retry with a longer window or
	// skip the symbol; the engine never retries internally.
	ErrInsufficientData = errors.New("insufficient candle history")

	// ErrCalibrationInsufficientData aborts a calibration run without
	// superseding the active record.
	ErrCalibrationInsufficientData = errors.New("calibration: insufficient labeled signals")

	// ErrNoQuote means no live quote is available for the symbol; the
	// risk calculator falls back to the class-typical spread.
	ErrNoQuote = errors.New("no quote available")
)

// InsufficientDataError wraps ErrInsufficientData with the sizes involved.
func InsufficientDataError(need, have int) error {
	return fmt.Errorf("%w: need %d candles, have %d", ErrInsufficientData, need, have)
}
