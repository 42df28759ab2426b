package marketdata

import (
	"context"
	"sync"
	"time"

	"TradePulse/internal/domain/models"
	drepo "TradePulse/internal/domain/repository"
	"TradePulse/pkg/logger"
)

// Book keeps the latest quote per symbol. Readers tolerate staleness; the
// signal path falls back to a typical spread when no quote arrived yet.
type Book struct {
	mu     sync.RWMutex
	quotes map[string]models.Quote
}

// NewBook creates an empty quote book.
func NewBook() *Book {
	return &Book{quotes: make(map[string]models.Quote)}
}

// Latest returns the most recent quote for symbol.
func (b *Book) Latest(symbol string) (models.Quote, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	q, ok := b.quotes[symbol]
	return q, ok
}

// Update records a quote.
func (b *Book) Update(q models.Quote) {
	b.mu.Lock()
	b.quotes[q.Symbol] = q
	b.mu.Unlock()
}

var _ drepo.QuoteBook = (*Book)(nil)

// QuoteProcessor accepts raw quotes off the stream. The validating pipeline
// implements it in front of the book.
type QuoteProcessor interface {
	Process(q *models.Quote) error
}

// Feeder pumps a QuoteStream through a processor, reconnecting on stream
// errors.
type Feeder struct {
	stream drepo.QuoteStream
	proc   QuoteProcessor
	log    *logger.Logger
}

// NewFeeder creates a feeder.
func NewFeeder(stream drepo.QuoteStream, proc QuoteProcessor, log *logger.Logger) *Feeder {
	return &Feeder{stream: stream, proc: proc, log: log}
}

// Run blocks until ctx is done, keeping the book current.
func (f *Feeder) Run(ctx context.Context) error {
	if err := f.stream.Connect(ctx); err != nil {
		return err
	}
	if err := f.stream.Subscribe(ctx); err != nil {
		return err
	}

	for {
		quotes, errs := f.stream.Read(ctx)
	consume:
		for {
			select {
			case <-ctx.Done():
				return f.stream.Close()
			case q, ok := <-quotes:
				if !ok {
					break consume
				}
				if err := f.proc.Process(q); err != nil {
					f.log.Debug("quote rejected", logger.Error(err))
				}
			case err, ok := <-errs:
				if !ok {
					break consume
				}
				f.log.Warn("quote stream error", logger.Error(err))
				break consume
			}
		}

		select {
		case <-ctx.Done():
			return f.stream.Close()
		case <-time.After(time.Second):
		}
		if err := f.stream.Reconnect(ctx); err != nil {
			f.log.Error("quote stream reconnect failed", logger.Error(err))
		}
	}
}
