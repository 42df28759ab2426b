package models

import "time"

// Candle is one OHLCV bar. Candles arrive from the market-data collaborator
// already validated and ordered oldest-first; the engine never mutates them.
type Candle struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
}

// Series is an ordered candle sequence for one (symbol, timeframe).
type Series []Candle

func (s Series) Closes() []float64 {
	out := make([]float64, len(s))
	for i, c := range s {
		out[i] = c.Close
	}
	return out
}

func (s Series) Highs() []float64 {
	out := make([]float64, len(s))
	for i, c := range s {
		out[i] = c.High
	}
	return out
}

func (s Series) Lows() []float64 {
	out := make([]float64, len(s))
	for i, c := range s {
		out[i] = c.Low
	}
	return out
}

func (s Series) Volumes() []float64 {
	out := make([]float64, len(s))
	for i, c := range s {
		out[i] = c.Volume
	}
	return out
}

// Last returns the most recent candle and false when the series is empty.
func (s Series) Last() (Candle, bool) {
	if len(s) == 0 {
		return Candle{}, false
	}
	return s[len(s)-1], true
}

// Between returns the candles whose timestamp lies in [from, to).
func (s Series) Between(from, to time.Time) Series {
	var out Series
	for _, c := range s {
		if !c.Timestamp.Before(from) && c.Timestamp.Before(to) {
			out = append(out, c)
		}
	}
	return out
}

// Quote is the latest bid/ask observed on the quote stream.
type Quote struct {
	Symbol string    `json:"symbol"`
	Bid    float64   `json:"bid"`
	Ask    float64   `json:"ask"`
	Time   time.Time `json:"time"`
}

// Spread returns the ask-bid distance in price units.
func (q Quote) Spread() float64 { return q.Ask - q.Bid }

// Mid returns the mid price.
func (q Quote) Mid() float64 { return (q.Bid + q.Ask) / 2 }
