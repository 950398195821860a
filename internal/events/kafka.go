package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"dispatch/internal/domain"
)

const (
	kafkaWriteTimeout = 2 * time.Second
	kafkaBatchTimeout = 10 * time.Millisecond
)

// KafkaPublisher publishes events to a Kafka topic keyed by order ID,
// so every event of one order lands on the same partition. Writes are
// asynchronous; delivery failures are logged from the completion callback.
type KafkaPublisher struct {
	writer *kafka.Writer
}

// NewKafkaPublisher creates a publisher for the given brokers and topic.
func NewKafkaPublisher(brokers []string, topic string, logger *zap.Logger) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: kafkaBatchTimeout,
		WriteTimeout: kafkaWriteTimeout,
		Async:        true,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				logger.Warn("kafka delivery failed",
					zap.String("topic", topic),
					zap.Int("messages", len(messages)),
					zap.Error(err),
				)
			}
		},
	}
	return &KafkaPublisher{writer: w}
}

// Notify queues the event for the topic. The write outlives the caller's
// context since the state it describes is already committed.
func (k *KafkaPublisher) Notify(ctx context.Context, e domain.Event) error {
	b, err := json.Marshal(NewMessage(e))
	if err != nil {
		return err
	}
	return k.writer.WriteMessages(context.WithoutCancel(ctx), kafka.Message{Key: []byte(messageKey(e)), Value: b})
}

// Close flushes pending writes and closes the writer.
func (k *KafkaPublisher) Close() error {
	if k.writer == nil {
		return nil
	}
	return k.writer.Close()
}

func messageKey(e domain.Event) string {
	switch {
	case e.OrderID != "":
		return e.OrderID
	case e.RiderID != "":
		return e.RiderID
	default:
		return e.CompanyID
	}
}
