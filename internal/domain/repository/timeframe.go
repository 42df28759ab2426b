package repository

// Timeframe represents candle resolution buckets.
type Timeframe string

const (
	TFM1 Timeframe = "M1"
	TFM5 Timeframe = "M5"
	TFM15 Timeframe = "M15"
	TFH1 Timeframe = "H1"
	TFH4 Timeframe = "H4"
	TFD1 Timeframe = "D1"
)

// IsValidTimeframe returns true if tf is a supported timeframe.
func IsValidTimeframe(tf Timeframe) bool {
	switch tf {
	case TFM1, TFM5, TFM15, TFH1, TFH4, TFD1:
		return true
	default:
		return false
	}
}

// DefaultTimeframe returns the decision timeframe used when none is given.
func DefaultTimeframe() Timeframe { return TFM5 }

// NormalizeTimeframe converts a raw string to a valid timeframe (or default).
func NormalizeTimeframe(s string) Timeframe {
	if s == "" {
		return DefaultTimeframe()
	}
	tf := Timeframe(s)
	if IsValidTimeframe(tf) {
		return tf
	}
	return DefaultTimeframe()
}

// HigherTimeframes lists timeframes above tf, nearest first. Used by the
// multi-timeframe confirmation scoring.
func HigherTimeframes(tf Timeframe) []Timeframe {
	order := []Timeframe{TFM1, TFM5, TFM15, TFH1, TFH4, TFD1}
	for i, t := range order {
		if t == tf {
			return order[i+1:]
		}
	}
	return nil
}
