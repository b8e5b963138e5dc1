package broker

import (
	"context"
	"time"

	"github.com/Asus/lattkia_store/internal/entity"
)

type EventType string

const (
	OrderPlaced        EventType = "order.placed"
	OrderStatusChanged EventType = "order.status_changed"
	ProductLowStock    EventType = "product.low_stock"
	UserRegistered     EventType = "user.registered"
)

// Event - сообщение об изменении в магазине. Заполнено только поле, относящееся к типу
type Event struct {
	Type           EventType          `json:"type"`
	Order          *entity.Order      `json:"order,omitempty"`
	PreviousStatus entity.OrderStatus `json:"previousStatus,omitempty"`
	Product        *entity.Product    `json:"product,omitempty"`
	User           *entity.User       `json:"user,omitempty"`
	OccurredAt     time.Time          `json:"occurredAt"`
}

// Key - ключ сообщения в Kafka, события одной сущности попадают в одну партицию
func (e Event) Key() string {
	switch {
	case e.Order != nil:
		return e.Order.ID
	case e.Product != nil:
		return e.Product.ID
	case e.User != nil:
		return e.User.ID
	}
	return string(e.Type)
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

type Handler interface {
	Handle(ctx context.Context, e Event) error
}

type HandlerFunc func(ctx context.Context, e Event) error

func (f HandlerFunc) Handle(ctx context.Context, e Event) error {
	return f(ctx, e)
}
