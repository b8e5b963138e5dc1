package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Producer struct {
	writer messageWriter
}

func NewProducer(brokers []string, topic string) *Producer {
	return &Producer{writer: &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Topic:    topic, // "orders"
		Balancer: &kafka.LeastBytes{},
	}}
}

func (p *Producer) Publish(ctx context.Context, e Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	if err := p.writer.WriteMessages(ctx, kafka.Message{Key: []byte(e.Key()), Value: data}); err != nil {
		return fmt.Errorf("failed to write event %s: %w", e.Type, err)
	}
	slog.Info("Event published to Kafka", "type", e.Type, "key", e.Key())
	return nil
}

func (p *Producer) Close() error {
	return p.writer.Close()
}
