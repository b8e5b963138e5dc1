package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Asus/lattkia_store/internal/broker"
	"github.com/Asus/lattkia_store/internal/entity"
	"github.com/Asus/lattkia_store/internal/pricing"
	"github.com/Asus/lattkia_store/internal/storage"
)

// DeliveryWindow - срок доставки, который выставляется при отправке заказа
const DeliveryWindow = 72 * time.Hour

type LineRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type Orders struct {
	store     orderStore
	cache     *OrderCache
	publisher Publisher
	lowStock  int
	now       func() time.Time

	// placeMu: проверка остатков, расчёт цен и запись заказа идут без гонок с другими оформлениями
	placeMu sync.Mutex
}

func NewOrders(store orderStore, cache *OrderCache, publisher Publisher, lowStockThreshold int) *Orders {
	if publisher == nil {
		publisher = nopPublisher{}
	}
	return &Orders{
		store:     store,
		cache:     cache,
		publisher: publisher,
		lowStock:  lowStockThreshold,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// mergeLines складывает количества повторяющихся товаров, порядок первых вхождений сохраняется
func mergeLines(lines []LineRequest) ([]LineRequest, error) {
	if len(lines) == 0 {
		return nil, NewInvalidArgument("order must contain at least one item")
	}
	index := make(map[string]int, len(lines))
	out := make([]LineRequest, 0, len(lines))
	for _, l := range lines {
		if l.ProductID == "" {
			return nil, NewInvalidArgument("productId is required")
		}
		if l.Quantity <= 0 {
			return nil, NewInvalidArgument("%s", pricing.ErrInvalidQuantity.Error())
		}
		if i, ok := index[l.ProductID]; ok {
			out[i].Quantity += l.Quantity
			continue
		}
		index[l.ProductID] = len(out)
		out = append(out, l)
	}
	return out, nil
}

// Place оформляет заказ: цены фиксируются по текущим ступеням скидок, остатки списываются
func (s *Orders) Place(ctx context.Context, userID string, lines []LineRequest) (entity.Order, error) {
	merged, err := mergeLines(lines)
	if err != nil {
		return entity.Order{}, err
	}
	if _, err := s.store.GetUser(ctx, userID); err != nil {
		return entity.Order{}, notFound(err, "user")
	}

	order, lowStock, err := s.place(ctx, userID, merged)
	if err != nil {
		return entity.Order{}, err
	}
	s.cache.Put(order)
	slog.Info("Order placed", "order_id", order.ID, "user_id", userID, "total", pricing.Round(order.Total).String())

	s.publish(ctx, broker.Event{Type: broker.OrderPlaced, Order: &order, OccurredAt: s.now()})
	for i := range lowStock {
		s.publish(ctx, broker.Event{Type: broker.ProductLowStock, Product: &lowStock[i], OccurredAt: s.now()})
	}
	return order, nil
}

func (s *Orders) place(ctx context.Context, userID string, lines []LineRequest) (entity.Order, []entity.Product, error) {
	s.placeMu.Lock()
	defer s.placeMu.Unlock()

	order := entity.Order{
		UserID:    userID,
		Status:    entity.StatusPending,
		CreatedAt: s.now(),
		Items:     make([]entity.OrderItem, 0, len(lines)),
	}
	products := make([]entity.Product, 0, len(lines))
	priced := make([]pricing.Line, 0, len(lines))

	for _, l := range lines {
		p, err := s.store.GetProduct(ctx, l.ProductID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return entity.Order{}, nil, NewNotFound("product %s not found", l.ProductID)
			}
			return entity.Order{}, nil, err
		}
		if p.Stock < l.Quantity {
			return entity.Order{}, nil, NewFailedPrecondition("insufficient stock for %s: %d left", p.Name, p.Stock)
		}
		unit, err := pricing.ResolveProduct(p, l.Quantity)
		if err != nil {
			return entity.Order{}, nil, NewInvalidArgument("%s", err.Error())
		}
		order.Items = append(order.Items, entity.OrderItem{
			ProductID:   p.ID,
			ProductName: p.Name,
			Quantity:    l.Quantity,
			Price:       unit,
			CostPrice:   p.CostPrice,
		})
		priced = append(priced, pricing.Line{UnitPrice: unit, Quantity: l.Quantity})
		products = append(products, p)
	}
	order.Total = pricing.Total(priced)

	if err := entity.Validate.Struct(order); err != nil {
		return entity.Order{}, nil, invalid(err)
	}

	saved, err := s.store.CreateOrder(ctx, order)
	if err != nil {
		return entity.Order{}, nil, fmt.Errorf("error occurred while trying to save order: %w", err)
	}

	var lowStock []entity.Product
	for i, p := range products {
		left, err := s.store.AdjustStock(ctx, p.ID, -lines[i].Quantity)
		if err != nil {
			// остаток проверен под блокировкой, сюда попадаем только при сбое хранилища
			slog.Error("failed to decrement stock", "order_id", saved.ID, "product_id", p.ID, "error", err)
			continue
		}
		if left <= s.lowStock {
			p.Stock = left
			lowStock = append(lowStock, p)
		}
	}
	return saved, lowStock, nil
}

func (s *Orders) publish(ctx context.Context, e broker.Event) {
	if err := s.publisher.Publish(ctx, e); err != nil {
		slog.Error("failed to publish event", "type", e.Type, "key", e.Key(), "error", err)
	}
}

func (s *Orders) Get(ctx context.Context, id string) (entity.Order, error) {
	return s.cache.Get(ctx, id)
}

// GetFor отдаёт заказ его владельцу или администратору
func (s *Orders) GetFor(ctx context.Context, user entity.User, id string) (entity.Order, error) {
	o, err := s.Get(ctx, id)
	if err != nil {
		return entity.Order{}, err
	}
	if user.Role != entity.RoleAdmin && o.UserID != user.ID {
		return entity.Order{}, NewNotFound("order not found")
	}
	return o, nil
}

func (s *Orders) List(ctx context.Context) ([]entity.Order, error) {
	return s.store.ListOrders(ctx)
}

func (s *Orders) ListByUser(ctx context.Context, userID string) ([]entity.Order, error) {
	return s.store.ListOrdersByUser(ctx, userID)
}

// UpdateStatus переводит заказ по машине состояний; при отправке выставляется срок доставки
func (s *Orders) UpdateStatus(ctx context.Context, id, status string) (entity.Order, error) {
	to, err := entity.ParseOrderStatus(status)
	if err != nil {
		return entity.Order{}, NewInvalidArgument("%s", err.Error())
	}

	current, err := s.store.GetOrder(ctx, id)
	if err != nil {
		return entity.Order{}, notFound(err, "order")
	}
	from := current.Status
	if !from.CanTransition(to) {
		return entity.Order{}, NewFailedPrecondition("cannot change order status from %s to %s", from, to)
	}

	current.Status = to
	if to == entity.StatusShipped && current.ExpectedDeliveryTime == nil {
		eta := s.now().Add(DeliveryWindow)
		current.ExpectedDeliveryTime = &eta
	}
	updated, err := s.store.UpdateOrder(ctx, current)
	if err != nil {
		return entity.Order{}, notFound(err, "order")
	}
	s.cache.Put(updated)
	slog.Info("Order status changed", "order_id", id, "from", from, "to", to)

	s.publish(ctx, broker.Event{Type: broker.OrderStatusChanged, Order: &updated, PreviousStatus: from, OccurredAt: s.now()})
	return updated, nil
}

// Delete убирает заказ из хранилища и кэша
func (s *Orders) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteOrder(ctx, id); err != nil {
		return notFound(err, "order")
	}
	s.cache.Forget(id)
	return nil
}
