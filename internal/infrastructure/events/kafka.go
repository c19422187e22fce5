// Package events publishes outbox messages to the Kafka broker.
package events

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"hidesync/internal/infrastructure/storage/postgres"
	"hidesync/pkg/logger"
)

// KafkaPublisher implements postgres.OutboxHandler by writing each outbox
// message to a Kafka topic. Messages are keyed by aggregate so events of one
// aggregate stay ordered within a partition.
type KafkaPublisher struct {
	writer *kafka.Writer
}

var _ postgres.OutboxHandler = (*KafkaPublisher)(nil)

// NewKafkaPublisher creates a publisher writing to topic on brokers.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			BatchTimeout: 50 * time.Millisecond,
		},
	}
}

// Handle writes one outbox message to the broker.
func (p *KafkaPublisher) Handle(ctx context.Context, msg *postgres.OutboxMessage) error {
	err := p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(msg.Aggregate),
		Value: msg.Payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(msg.EventType)},
			{Key: "message_id", Value: []byte(msg.ID.String())},
		},
	})
	if err != nil {
		return fmt.Errorf("write kafka message: %w", err)
	}

	logger.Debug(ctx, "event published",
		"event", msg.EventType, "message", msg.ID)
	return nil
}

// Close flushes and closes the underlying writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
