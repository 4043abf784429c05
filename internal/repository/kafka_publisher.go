package repository

import (
	"context"

	"MandiPulse/internal/domain/models"
	pkgk "MandiPulse/pkg/kafka"
)

// KafkaPublisher emits refreshed observations to a Kafka topic, keyed by
// commodity so a partition sees every update for a given commodity in order.
type KafkaPublisher struct {
	producer *pkgk.Producer
	topic    string
}

func NewKafkaPublisher(producer *pkgk.Producer, topic string) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

func (p *KafkaPublisher) PublishBatch(ctx context.Context, records []models.PriceObservation) error {
	if len(records) == 0 {
		return nil
	}
	msgs := make([]pkgk.Message, 0, len(records))
	for _, r := range records {
		msgs = append(msgs, pkgk.Message{
			Key:   []byte(r.CommodityKey()),
			Value: r,
		})
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}
