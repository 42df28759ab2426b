// Package middleware sits between the WebSocket quote stream and the quote
// book. It validates and throttles the raw feed so a misbehaving provider
// cannot flood the book or poison the spread the risk calculator reads.
package middleware

import (
	"fmt"
	"sync"
	"time"

	"TradePulse/internal/domain/models"
	drepo "TradePulse/internal/domain/repository"
)

// QuoteSink receives accepted quotes.
type QuoteSink interface {
	Update(q models.Quote)
}

// QuotePipeline validates and per-symbol throttles quotes before forwarding.
type QuotePipeline struct {
	sink    QuoteSink
	metrics drepo.Metrics
	maxRPS  int

	mu       sync.Mutex
	lastSeen map[string]time.Time
}

// PipelineOption configures the pipeline.
type PipelineOption func(*QuotePipeline)

// WithMaxRPS caps accepted quotes per second per symbol.
func WithMaxRPS(n int) PipelineOption {
	return func(p *QuotePipeline) {
		if n > 0 {
			p.maxRPS = n
		}
	}
}

// NewQuotePipeline creates the pipeline in front of sink.
func NewQuotePipeline(sink QuoteSink, metrics drepo.Metrics, opts ...PipelineOption) *QuotePipeline {
	p := &QuotePipeline{
		sink:     sink,
		metrics:  metrics,
		maxRPS:   20,
		lastSeen: make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process validates and forwards one quote. Throttled quotes are dropped
// silently; the book keeps its previous value.
func (p *QuotePipeline) Process(q *models.Quote) error {
	if err := validateQuote(q); err != nil {
		p.metrics.RecordError("quote_validate")
		return err
	}
	if !p.allow(q.Symbol, time.Now()) {
		p.metrics.RecordError("quote_throttle")
		return nil
	}
	p.sink.Update(*q)
	return nil
}

func validateQuote(q *models.Quote) error {
	if q == nil {
		return fmt.Errorf("quote nil")
	}
	if q.Symbol == "" {
		return fmt.Errorf("symbol empty")
	}
	if q.Bid <= 0 || q.Ask <= 0 {
		return fmt.Errorf("non-positive bid/ask")
	}
	if q.Ask < q.Bid {
		return fmt.Errorf("crossed quote: bid %.5f > ask %.5f", q.Bid, q.Ask)
	}
	return nil
}

func (p *QuotePipeline) allow(symbol string, now time.Time) bool {
	if p.maxRPS <= 0 {
		return true
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	last := p.lastSeen[symbol]
	if !last.IsZero() && now.Sub(last) < time.Second/time.Duration(p.maxRPS) {
		return false
	}
	p.lastSeen[symbol] = now
	return true
}
