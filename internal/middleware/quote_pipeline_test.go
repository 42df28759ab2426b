package middleware

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TradePulse/internal/domain/models"
)

type recordingSink struct {
	mu     sync.Mutex
	quotes []models.Quote
}

func (s *recordingSink) Update(q models.Quote) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quotes = append(s.quotes, q)
}

func (s *recordingSink) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.quotes)
}

type stubMetrics struct {
	mu     sync.Mutex
	errors map[string]int
}

func newStubMetrics() *stubMetrics { return &stubMetrics{errors: make(map[string]int)} }

func (m *stubMetrics) RecordSignal(symbol, direction, regime string)          {}
func (m *stubMetrics) RecordCorrection(symbol string)                         {}
func (m *stubMetrics) RecordFallback(symbol string)                           {}
func (m *stubMetrics) RecordCalibration(result string)                        {}
func (m *stubMetrics) RecordLastConfidence(symbol string, confidence float64) {}
func (m *stubMetrics) RecordLatency(op string, seconds float64)               {}

func (m *stubMetrics) RecordError(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[kind]++
}

func (m *stubMetrics) errorCount(kind string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.errors[kind]
}

func validQuote() *models.Quote {
	return &models.Quote{Symbol: "EURUSD", Bid: 1.0899, Ask: 1.0901, Time: time.Now()}
}

func TestQuotePipelineForwardsValidQuote(t *testing.T) {
	sink := &recordingSink{}
	p := NewQuotePipeline(sink, newStubMetrics())

	require.NoError(t, p.Process(validQuote()))
	require.Equal(t, 1, sink.len())
	assert.Equal(t, "EURUSD", sink.quotes[0].Symbol)
}

func TestQuotePipelineRejectsBadQuotes(t *testing.T) {
	sink := &recordingSink{}
	metrics := newStubMetrics()
	p := NewQuotePipeline(sink, metrics)

	cases := []*models.Quote{
		nil,
		{Symbol: "", Bid: 1, Ask: 1.1},
		{Symbol: "EURUSD", Bid: 0, Ask: 1.1},
		{Symbol: "EURUSD", Bid: 1.1, Ask: 1.0}, // crossed
	}
	for _, q := range cases {
		assert.Error(t, p.Process(q))
	}
	assert.Equal(t, 0, sink.len())
	assert.Equal(t, len(cases), metrics.errorCount("quote_validate"))
}

func TestQuotePipelineThrottlesPerSymbol(t *testing.T) {
	sink := &recordingSink{}
	metrics := newStubMetrics()
	p := NewQuotePipeline(sink, metrics, WithMaxRPS(1))

	require.NoError(t, p.Process(validQuote()))
	// Immediate repeat for the same symbol is dropped without error.
	require.NoError(t, p.Process(validQuote()))
	assert.Equal(t, 1, sink.len())
	assert.Equal(t, 1, metrics.errorCount("quote_throttle"))

	// A different symbol is not affected.
	other := &models.Quote{Symbol: "GBPUSD", Bid: 1.27, Ask: 1.2702, Time: time.Now()}
	require.NoError(t, p.Process(other))
	assert.Equal(t, 2, sink.len())
}
