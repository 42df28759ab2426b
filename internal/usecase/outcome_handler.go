package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"TradePulse/internal/domain/models"
	drepo "TradePulse/internal/domain/repository"
	pkgkafka "TradePulse/pkg/kafka"
	"TradePulse/pkg/logger"
)

// OutcomeHandler consumes realized trade outcomes from Kafka and labels the
// originating signals. Labeled history is what the calibrator scans.
type OutcomeHandler struct {
	topic   string
	history drepo.SignalHistory
	metrics drepo.Metrics
	log     *logger.Logger
}

// NewOutcomeHandler creates the handler for the given topic.
func NewOutcomeHandler(topic string, history drepo.SignalHistory, metrics drepo.Metrics, log *logger.Logger) *OutcomeHandler {
	return &OutcomeHandler{topic: topic, history: history, metrics: metrics, log: log}
}

// Topic returns the Kafka topic this handler consumes.
func (h *OutcomeHandler) Topic() string { return h.topic }

// Handle applies one outcome message. Unmarshal failures are terminal (the
// message is malformed, retrying cannot help); apply failures return the
// error so the consumer's retry and DLQ policy takes over.
func (h *OutcomeHandler) Handle(ctx context.Context, payload []byte) error {
	start := time.Now()

	var out models.SignalOutcome
	if err := json.Unmarshal(payload, &out); err != nil {
		h.metrics.RecordError("outcome_unmarshal")
		h.log.Error("outcome unmarshal failed", logger.Error(err))
		return nil
	}
	if out.Symbol == "" || out.GeneratedAt.IsZero() {
		h.metrics.RecordError("outcome_invalid")
		h.log.Warn("outcome missing signal key", logger.String("symbol", out.Symbol))
		return nil
	}

	if err := h.history.ApplyOutcome(ctx, &out); err != nil {
		h.metrics.RecordError("outcome_apply")
		return fmt.Errorf("apply outcome %s@%s: %w", out.Symbol, out.GeneratedAt.Format(time.RFC3339), err)
	}

	h.metrics.RecordLatency("apply_outcome", time.Since(start).Seconds())
	h.log.Debug("outcome applied",
		logger.String("symbol", out.Symbol),
		logger.Any("win", out.Win),
		logger.Any("pips", out.Pips),
	)
	return nil
}

var _ pkgkafka.MessageHandler = (*OutcomeHandler)(nil)
