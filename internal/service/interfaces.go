package service

import (
	"context"

	"github.com/Asus/lattkia_store/internal/broker"
	"github.com/Asus/lattkia_store/internal/storage"
)

// Publisher - куда сервисы отправляют события (Kafka или обработчики в процессе)
type Publisher = broker.Publisher

type nopPublisher struct{}

func (nopPublisher) Publish(ctx context.Context, e broker.Event) error { return nil }

type catalogStore interface {
	storage.CategoryRepository
	storage.SubcategoryRepository
	storage.ProductRepository
}

type orderStore interface {
	storage.OrderRepository
	storage.ProductRepository
	storage.UserRepository
}
