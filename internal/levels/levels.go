// Package levels extracts session-structural price levels: the initial
// balance of the active session, the previous day's extremes and the round
// number grid around price.
package levels

import (
	"math"
	"time"

	"TradePulse/internal/domain/models"
)

// Config holds the session schedule. Hours are UTC.
type Config struct {
	SessionOpenHours []int         // e.g. [8, 13] for London and New York
	IBWindow         time.Duration // initial-balance window after the open
	PostOpenWindow   time.Duration // window in which an IB break earns the session bonus
}

// DefaultConfig mirrors the London/New York schedule.
func DefaultConfig() Config {
	return Config{
		SessionOpenHours: []int{8, 13},
		IBWindow:         time.Hour,
		PostOpenWindow:   2 * time.Hour,
	}
}

// ActiveSessionOpen returns the most recent session open at or before now
// on the same UTC day. ok is false before the first open of the day.
func (c Config) ActiveSessionOpen(now time.Time) (time.Time, bool) {
	now = now.UTC()
	var open time.Time
	var ok bool
	for _, h := range c.SessionOpenHours {
		candidate := time.Date(now.Year(), now.Month(), now.Day(), h, 0, 0, 0, time.UTC)
		if !candidate.After(now) && (!ok || candidate.After(open)) {
			open = candidate
			ok = true
		}
	}
	return open, ok
}

// InPostOpenWindow reports whether now falls inside the bonus window after
// the active session open.
func (c Config) InPostOpenWindow(now time.Time) bool {
	open, ok := c.ActiveSessionOpen(now)
	if !ok {
		return false
	}
	return now.UTC().Sub(open) <= c.PostOpenWindow
}

// InitialBalance computes the high/low of candles in the first IBWindow of
// the active session. Returns nil when no candle falls in the window.
func (c Config) InitialBalance(candles models.Series, now time.Time) *models.IBRange {
	open, ok := c.ActiveSessionOpen(now)
	if !ok {
		return nil
	}
	window := candles.Between(open, open.Add(c.IBWindow))
	if len(window) == 0 {
		return nil
	}
	ib := &models.IBRange{High: window[0].High, Low: window[0].Low}
	for _, cd := range window[1:] {
		if cd.High > ib.High {
			ib.High = cd.High
		}
		if cd.Low < ib.Low {
			ib.Low = cd.Low
		}
	}
	return ib
}

// SessionCandles returns the candles of the active session, for VWAP
// anchoring. Falls back to the whole series before the first open.
func (c Config) SessionCandles(candles models.Series, now time.Time) models.Series {
	open, ok := c.ActiveSessionOpen(now)
	if !ok {
		return candles
	}
	session := candles.Between(open, now.UTC().Add(time.Second))
	if len(session) == 0 {
		return candles
	}
	return session
}

// PrevDayRange returns yesterday's high/low relative to now. Zeroes when no
// candle carries yesterday's date.
func PrevDayRange(candles models.Series, now time.Time) (high, low float64) {
	y := now.UTC().AddDate(0, 0, -1)
	yy, ym, yd := y.Date()
	for _, cd := range candles {
		cy, cm, cdd := cd.Timestamp.UTC().Date()
		if cy != yy || cm != ym || cdd != yd {
			continue
		}
		if high == 0 || cd.High > high {
			high = cd.High
		}
		if low == 0 || cd.Low < low {
			low = cd.Low
		}
	}
	return high, low
}

// SwingLevels returns the most recent swing highs and lows, newest first,
// capped at n each. A swing is a local extreme against its two neighbors on
// both sides.
func SwingLevels(candles models.Series, n int) (highs, lows []float64) {
	for i := len(candles) - 3; i >= 2 && (len(highs) < n || len(lows) < n); i-- {
		c := candles[i]
		if len(highs) < n &&
			c.High > candles[i-1].High && c.High > candles[i-2].High &&
			c.High > candles[i+1].High && c.High > candles[i+2].High {
			highs = append(highs, c.High)
		}
		if len(lows) < n &&
			c.Low < candles[i-1].Low && c.Low < candles[i-2].Low &&
			c.Low < candles[i+1].Low && c.Low < candles[i+2].Low {
			lows = append(lows, c.Low)
		}
	}
	return highs, lows
}

// RoundNumbers returns the nearest grid levels below and above price.
func RoundNumbers(price, step float64) (below, above float64) {
	if step <= 0 {
		return 0, 0
	}
	ratio := price / step
	n := math.Floor(ratio)
	// Treat near-integer ratios as on-grid to absorb float rounding.
	if ratio-n > 1-1e-9 {
		n++
	}
	return n * step, (n + 1) * step
}

// Calc assembles the full session-level set for one evaluation.
func Calc(candles models.Series, price float64, spec models.SymbolSpec, now time.Time, cfg Config) models.SessionLevels {
	pdh, pdl := PrevDayRange(candles, now)
	below, above := RoundNumbers(price, spec.RoundStep)
	return models.SessionLevels{
		InitialBalance:   cfg.InitialBalance(candles, now),
		PrevDayHigh:      pdh,
		PrevDayLow:       pdl,
		RoundNumberBelow: below,
		RoundNumberAbove: above,
	}
}
