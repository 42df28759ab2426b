// Package calibration selects the active confidence threshold from
// historically labeled signals. The scan is pure; scheduling, locking and
// persistence live with the caller.
package calibration

import (
	"time"

	"TradePulse/internal/domain/models"
)

// Config bounds the grid and the blend.
type Config struct {
	GridStart     float64       `yaml:"grid_start" default:"50"`
	GridEnd       float64       `yaml:"grid_end" default:"95"`
	GridStep      float64       `yaml:"grid_step" default:"5"`
	WinRateWeight float64       `yaml:"win_rate_weight" default:"0.6"`
	AvgPipsWeight float64       `yaml:"avg_pips_weight" default:"0.4"`
	MinSamples    int           `yaml:"min_samples" default:"100"`
	Window        time.Duration `yaml:"window" default:"2160h"`
	Timeout       time.Duration `yaml:"timeout" default:"2m"`
}

// DefaultConfig returns the documented grid over a trailing 90 day window.
func DefaultConfig() Config {
	return Config{
		GridStart:     50,
		GridEnd:       95,
		GridStep:      5,
		WinRateWeight: 0.6,
		AvgPipsWeight: 0.4,
		MinSamples:    100,
		Window:        90 * 24 * time.Hour,
		Timeout:       2 * time.Minute,
	}
}

// ThresholdStats is the per-threshold scan row, kept for reporting.
type ThresholdStats struct {
	Threshold float64 `json:"threshold"`
	Samples   int     `json:"samples"`
	WinRate   float64 `json:"win_rate"`
	AvgPips   float64 `json:"avg_pips"`
	Score     float64 `json:"score"`
}

// Scan evaluates every grid threshold against the labeled history and
// returns the winning record. Ties on the blended score go to the larger
// sample. Below MinSamples the scan reports insufficient data.
func Scan(signals []models.LabeledSignal, now time.Time, cfg Config) (models.CalibrationRecord, []ThresholdStats, error) {
	if len(signals) < cfg.MinSamples {
		return models.CalibrationRecord{}, nil, models.ErrCalibrationInsufficientData
	}

	var rows []ThresholdStats
	var best *ThresholdStats
	for th := cfg.GridStart; th <= cfg.GridEnd; th += cfg.GridStep {
		row := evaluate(signals, th)
		if row.Samples == 0 {
			continue
		}
		row.Score = row.WinRate*cfg.WinRateWeight + row.AvgPips*cfg.AvgPipsWeight
		rows = append(rows, row)
		if best == nil || row.Score > best.Score || (row.Score == best.Score && row.Samples > best.Samples) {
			r := row
			best = &r
		}
	}
	if best == nil {
		return models.CalibrationRecord{}, rows, models.ErrCalibrationInsufficientData
	}

	return models.CalibrationRecord{
		Threshold:      best.Threshold,
		QualifiedCount: best.Samples,
		BlendedScore:   best.Score,
		ComputedAt:     now.UTC(),
	}, rows, nil
}

func evaluate(signals []models.LabeledSignal, threshold float64) ThresholdStats {
	row := ThresholdStats{Threshold: threshold}
	var wins int
	var pips float64
	for _, s := range signals {
		if s.Confidence < threshold {
			continue
		}
		row.Samples++
		if s.Win {
			wins++
		}
		pips += s.Pips
	}
	if row.Samples > 0 {
		row.WinRate = float64(wins) / float64(row.Samples) * 100
		row.AvgPips = pips / float64(row.Samples)
	}
	return row
}
