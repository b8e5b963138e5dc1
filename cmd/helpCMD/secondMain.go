package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/Asus/lattkia_store/internal/broker"
)

// это мини "скрипт" для отправки тестового события в kafka:
// go run ./cmd/helpCMD [путь к json]
func main() {
	path := "cmd/helpCMD/event.json"
	if len(os.Args) > 1 {
		path = os.Args[1]
	}
	brokers := []string{"localhost:9092"}
	if env := os.Getenv("KAFKA_BROKERS"); env != "" {
		brokers = strings.Split(env, ",")
	}

	jsonData, err := os.ReadFile(path)
	if err != nil {
		fmt.Println("failed to read json", err)
		os.Exit(1)
	}

	var e broker.Event
	if err := json.Unmarshal(jsonData, &e); err != nil {
		fmt.Println("failed to parse event", err)
		os.Exit(1)
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}

	producer := broker.NewProducer(brokers, "orders")
	defer producer.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := producer.Publish(ctx, e); err != nil {
		fmt.Println("failed to write", err)
		return
	}
	fmt.Println("Message sent:", e.Type, e.Key())
}
