package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"netdiag/internal/models"
)

// MessageWriter is the subset of *kafka.Writer the notifier needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Kafka publishes alerts keyed by host so a host's alerts stay ordered
// within one partition.
type Kafka struct {
	writer MessageWriter
}

func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
	}
}

// NewKafka returns nil when writer is nil.
func NewKafka(writer MessageWriter) *Kafka {
	if writer == nil {
		return nil
	}
	return &Kafka{writer: writer}
}

func (k *Kafka) Send(ctx context.Context, event models.AlertEvent) error {
	if k == nil {
		return fmt.Errorf("Kafka.Send: kafka disabled")
	}
	b, err := json.Marshal(NewPayload(event))
	if err != nil {
		return fmt.Errorf("Kafka.Send: %w", err)
	}
	err = k.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.Host),
		Value: b,
	})
	if err != nil {
		return fmt.Errorf("Kafka.Send: %w", err)
	}
	return nil
}

func (k *Kafka) Close() error {
	if k == nil {
		return nil
	}
	return k.writer.Close()
}
