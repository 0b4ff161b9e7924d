package repository

import (
	"context"

	"FinInfer/internal/domain/models"
	domrepo "FinInfer/internal/domain/repository"
	"FinInfer/pkg/kafka"
)

// KafkaPublisher emits completed decisions to a Kafka topic, keyed by symbol
// so consumers see per-symbol ordering.
type KafkaPublisher struct {
	producer *kafka.Producer
	topic    string
}

func NewKafkaPublisher(producer *kafka.Producer, topic string) *KafkaPublisher {
	if topic == "" {
		topic = "inference.decisions"
	}
	return &KafkaPublisher{producer: producer, topic: topic}
}

func (p *KafkaPublisher) Publish(ctx context.Context, rec models.DecisionRecord) error {
	return p.producer.Publish(ctx, p.topic, []byte(rec.Symbol), rec)
}

func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}

var _ domrepo.DecisionPublisher = (*KafkaPublisher)(nil)
