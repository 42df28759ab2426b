package repository

import (
	"context"

	"TradePulse/internal/domain/models"
	"TradePulse/internal/domain/repository"
	pkgkafka "TradePulse/pkg/kafka"
)

// KafkaSignalPublisher implements repository.Publisher over the shared
// producer. Signals are keyed by symbol so per-symbol ordering holds.
type KafkaSignalPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaSignalPublisher creates the Kafka publisher.
func NewKafkaSignalPublisher(producer *pkgkafka.Producer, topic string) repository.Publisher {
	return &KafkaSignalPublisher{producer: producer, topic: topic}
}

func (p *KafkaSignalPublisher) Publish(ctx context.Context, rec *models.SignalRecord) error {
	return p.producer.Publish(ctx, p.topic, []byte(rec.Symbol), rec)
}

func (p *KafkaSignalPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
