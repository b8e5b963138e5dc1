package service

import (
	"container/heap"
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Asus/lattkia_store/internal/entity"
)

type orderSource interface {
	GetOrder(ctx context.Context, id string) (entity.Order, error)
	ListOrders(ctx context.Context) ([]entity.Order, error)
}

// OrderCache - LRU кэш заказов поверх хранилища
type OrderCache struct {
	mu       sync.Mutex
	orders   map[string]entity.Order
	entries  map[string]*entry
	queue    accessQueue // приоритетная очередь, для реализации LRU
	source   orderSource
	capacity int
	clock    uint64
	writes   uint64 // растёт при каждом Put и Forget
}

func NewOrderCache(source orderSource, capacity int) *OrderCache {
	if capacity <= 0 {
		capacity = 1
	}
	return &OrderCache{
		orders:   make(map[string]entity.Order, capacity),
		entries:  make(map[string]*entry, capacity),
		queue:    make(accessQueue, 0, capacity),
		source:   source,
		capacity: capacity,
	}
}

// Load загружает в кэш capacity самых новых заказов при запуске сервиса
func (c *OrderCache) Load(ctx context.Context) error {
	orders, err := c.source.ListOrders(ctx)
	if err != nil {
		return fmt.Errorf("error occurred while loading order cache: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	// ListOrders отдаёт новые первыми, кладём с конца, чтобы новые были "свежее"
	n := min(len(orders), c.capacity)
	for i := n - 1; i >= 0; i-- {
		c.put(orders[i])
	}
	slog.Info("Order cache warmed", "orders", n, "capacity", c.capacity)
	return nil
}

// Get возвращает заказ из кэша, при промахе идёт в хранилище.
// Если за время чтения из хранилища кэш менялся, прочитанная версия в кэш не кладётся
func (c *OrderCache) Get(ctx context.Context, id string) (entity.Order, error) {
	c.mu.Lock()
	if o, ok := c.orders[id]; ok {
		c.touch(id)
		c.mu.Unlock()
		return o.Clone(), nil
	}
	writes := c.writes
	c.mu.Unlock()

	o, err := c.source.GetOrder(ctx, id)
	if err != nil {
		return entity.Order{}, notFound(err, "order")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if cached, ok := c.orders[id]; ok {
		c.touch(id)
		return cached.Clone(), nil
	}
	if c.writes != writes {
		return o.Clone(), nil
	}
	c.put(o)
	slog.Info("Order loaded from storage to cache", "order_id", id)
	return o.Clone(), nil
}

// Put кладёт свежую версию заказа (после создания или смены статуса)
func (c *OrderCache) Put(o entity.Order) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writes++
	c.put(o)
}

func (c *OrderCache) Forget(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writes++
	if e, ok := c.entries[id]; ok {
		heap.Remove(&c.queue, e.index)
		delete(c.entries, id)
		delete(c.orders, id)
	}
}

func (c *OrderCache) Contains(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.orders[id]
	return ok
}

func (c *OrderCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.orders)
}

func (c *OrderCache) touch(id string) {
	c.clock++
	e := c.entries[id]
	e.lastUsed = c.clock
	heap.Fix(&c.queue, e.index)
}

// put вызывается под c.mu
func (c *OrderCache) put(o entity.Order) {
	if _, ok := c.entries[o.ID]; ok {
		c.orders[o.ID] = o.Clone()
		c.touch(o.ID)
		return
	}
	for len(c.orders) >= c.capacity {
		oldest := heap.Pop(&c.queue).(*entry)
		delete(c.entries, oldest.orderID)
		delete(c.orders, oldest.orderID)
		slog.Debug("Order evicted from cache", "order_id", oldest.orderID)
	}
	c.clock++
	e := &entry{orderID: o.ID, lastUsed: c.clock}
	heap.Push(&c.queue, e)
	c.entries[o.ID] = e
	c.orders[o.ID] = o.Clone()
}
