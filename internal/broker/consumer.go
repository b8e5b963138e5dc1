package broker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/segmentio/kafka-go"
)

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

type Consumer struct {
	reader  messageReader
	handler Handler
}

func NewConsumer(brokers []string, topic, groupID string, handler Handler) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers, // e.g. "localhost:9092" брокеры, которые подключены к кластеру
		Topic:    topic,   // "orders"
		GroupID:  groupID, // "lattkia-store"
		MaxBytes: 10e6,    // 10MB
	})
	return &Consumer{reader: reader, handler: handler}
}

// Consume запускаем в отдельной горутине: читает события из Kafka и отдаёт их обработчику.
// Возвращает nil, когда ctx отменён
func (c *Consumer) Consume(ctx context.Context) error {
	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("failed to read message: %w", err)
		}

		var e Event
		if err := json.Unmarshal(msg.Value, &e); err != nil || e.Type == "" {
			slog.Error("failed to parse event JSON", "offset", msg.Offset, "error", err)
			continue // Пропускаем некорректное сообщение, предварительно логируя
		}

		if err := c.handler.Handle(ctx, e); err != nil {
			slog.Error("failed to handle event", "type", e.Type, "key", e.Key(), "error", err)
			continue
		}

		slog.Info("Event processed from Kafka", "type", e.Type, "key", e.Key())
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
