package storage

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/Asus/lattkia_store/internal/entity"
	"github.com/google/uuid"
)

// Memory - хранилище в памяти процесса. Всё, что уходит наружу, копируется
type Memory struct {
	mu            sync.RWMutex
	categories    map[string]entity.Category
	subcategories map[string]entity.Subcategory
	products      map[string]entity.Product
	orders        map[string]entity.Order
	users         map[string]entity.User
	now           func() time.Time
}

func NewMemory(seed *Seed) *Memory {
	m := &Memory{
		categories:    make(map[string]entity.Category),
		subcategories: make(map[string]entity.Subcategory),
		products:      make(map[string]entity.Product),
		orders:        make(map[string]entity.Order),
		users:         make(map[string]entity.User),
		now:           func() time.Time { return time.Now().UTC() },
	}
	if seed != nil {
		for _, c := range seed.Categories {
			m.categories[c.ID] = c
		}
		for _, s := range seed.Subcategories {
			m.subcategories[s.ID] = s
		}
		for _, p := range seed.Products {
			m.products[p.ID] = p.Clone()
		}
		for _, o := range seed.Orders {
			m.orders[o.ID] = o.Clone()
		}
		for _, u := range seed.Users {
			m.users[u.ID] = u
		}
	}
	return m
}

func (m *Memory) Close() {}

func newID(id string) string {
	if id != "" {
		return id
	}
	return uuid.NewString()
}

func sortedValues[T any](src map[string]T, less func(a, b T) int) []T {
	out := make([]T, 0, len(src))
	for _, v := range src {
		out = append(out, v)
	}
	slices.SortFunc(out, less)
	return out
}

func byCreated(a, b time.Time, idA, idB string) int {
	if c := a.Compare(b); c != 0 {
		return c
	}
	return cmp.Compare(idA, idB)
}

// --- categories ---

func (m *Memory) GetCategory(ctx context.Context, id string) (entity.Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.categories[id]
	if !ok {
		return entity.Category{}, fmt.Errorf("category %s: %w", id, ErrNotFound)
	}
	return c, nil
}

func (m *Memory) ListCategories(ctx context.Context) ([]entity.Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return sortedValues(m.categories, func(a, b entity.Category) int {
		return byCreated(a.CreatedAt, b.CreatedAt, a.ID, b.ID)
	}), nil
}

func (m *Memory) CreateCategory(ctx context.Context, c entity.Category) (entity.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.ID = newID(c.ID)
	if _, exists := m.categories[c.ID]; exists {
		return entity.Category{}, fmt.Errorf("category %s: %w", c.ID, ErrConflict)
	}
	c.CreatedAt = m.now()
	c.UpdatedAt = c.CreatedAt
	m.categories[c.ID] = c
	return c, nil
}

func (m *Memory) UpdateCategory(ctx context.Context, c entity.Category) (entity.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	old, ok := m.categories[c.ID]
	if !ok {
		return entity.Category{}, fmt.Errorf("category %s: %w", c.ID, ErrNotFound)
	}
	c.CreatedAt = old.CreatedAt
	c.UpdatedAt = m.now()
	m.categories[c.ID] = c
	return c, nil
}

func (m *Memory) DeleteCategory(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.categories[id]; !ok {
		return fmt.Errorf("category %s: %w", id, ErrNotFound)
	}
	delete(m.categories, id)
	return nil
}

// --- subcategories ---

func (m *Memory) GetSubcategory(ctx context.Context, id string) (entity.Subcategory, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.subcategories[id]
	if !ok {
		return entity.Subcategory{}, fmt.Errorf("subcategory %s: %w", id, ErrNotFound)
	}
	return s, nil
}

func (m *Memory) ListSubcategories(ctx context.Context) ([]entity.Subcategory, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return sortedValues(m.subcategories, func(a, b entity.Subcategory) int {
		return byCreated(a.CreatedAt, b.CreatedAt, a.ID, b.ID)
	}), nil
}

func (m *Memory) ListSubcategoriesByCategory(ctx context.Context, categoryID string) ([]entity.Subcategory, error) {
	all, _ := m.ListSubcategories(ctx)
	return slices.DeleteFunc(all, func(s entity.Subcategory) bool { return s.CategoryID != categoryID }), nil
}

func (m *Memory) CreateSubcategory(ctx context.Context, s entity.Subcategory) (entity.Subcategory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.ID = newID(s.ID)
	if _, exists := m.subcategories[s.ID]; exists {
		return entity.Subcategory{}, fmt.Errorf("subcategory %s: %w", s.ID, ErrConflict)
	}
	s.CreatedAt = m.now()
	s.UpdatedAt = s.CreatedAt
	m.subcategories[s.ID] = s
	return s, nil
}

func (m *Memory) UpdateSubcategory(ctx context.Context, s entity.Subcategory) (entity.Subcategory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	old, ok := m.subcategories[s.ID]
	if !ok {
		return entity.Subcategory{}, fmt.Errorf("subcategory %s: %w", s.ID, ErrNotFound)
	}
	s.CreatedAt = old.CreatedAt
	s.UpdatedAt = m.now()
	m.subcategories[s.ID] = s
	return s, nil
}

func (m *Memory) DeleteSubcategory(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.subcategories[id]; !ok {
		return fmt.Errorf("subcategory %s: %w", id, ErrNotFound)
	}
	delete(m.subcategories, id)
	return nil
}

// --- products ---

func (m *Memory) GetProduct(ctx context.Context, id string) (entity.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.products[id]
	if !ok {
		return entity.Product{}, fmt.Errorf("product %s: %w", id, ErrNotFound)
	}
	return p.Clone(), nil
}

func (m *Memory) ListProducts(ctx context.Context) ([]entity.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := sortedValues(m.products, func(a, b entity.Product) int {
		return byCreated(a.CreatedAt, b.CreatedAt, a.ID, b.ID)
	})
	for i := range out {
		out[i] = out[i].Clone()
	}
	return out, nil
}

func (m *Memory) ListProductsBySubcategory(ctx context.Context, subcategoryID string) ([]entity.Product, error) {
	all, _ := m.ListProducts(ctx)
	return slices.DeleteFunc(all, func(p entity.Product) bool { return p.SubcategoryID != subcategoryID }), nil
}

func prepareDiscounts(p *entity.Product) {
	for i := range p.Discounts {
		p.Discounts[i].ID = newID(p.Discounts[i].ID)
		p.Discounts[i].ProductID = p.ID
	}
}

func (m *Memory) CreateProduct(ctx context.Context, p entity.Product) (entity.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p = p.Clone()
	p.ID = newID(p.ID)
	if _, exists := m.products[p.ID]; exists {
		return entity.Product{}, fmt.Errorf("product %s: %w", p.ID, ErrConflict)
	}
	prepareDiscounts(&p)
	p.CreatedAt = m.now()
	p.UpdatedAt = p.CreatedAt
	m.products[p.ID] = p
	return p.Clone(), nil
}

func (m *Memory) UpdateProduct(ctx context.Context, p entity.Product) (entity.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	old, ok := m.products[p.ID]
	if !ok {
		return entity.Product{}, fmt.Errorf("product %s: %w", p.ID, ErrNotFound)
	}
	p = p.Clone()
	prepareDiscounts(&p)
	p.Stock = old.Stock
	p.CreatedAt = old.CreatedAt
	p.UpdatedAt = m.now()
	m.products[p.ID] = p
	return p.Clone(), nil
}

func (m *Memory) DeleteProduct(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[id]; !ok {
		return fmt.Errorf("product %s: %w", id, ErrNotFound)
	}
	delete(m.products, id)
	return nil
}

func (m *Memory) AdjustStock(ctx context.Context, id string, delta int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return 0, fmt.Errorf("product %s: %w", id, ErrNotFound)
	}
	if p.Stock+delta < 0 {
		return p.Stock, fmt.Errorf("product %s: %w", id, ErrInsufficientStock)
	}
	p.Stock += delta
	p.UpdatedAt = m.now()
	m.products[id] = p
	return p.Stock, nil
}

// --- orders ---

func (m *Memory) GetOrder(ctx context.Context, id string) (entity.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.orders[id]
	if !ok {
		return entity.Order{}, fmt.Errorf("order %s: %w", id, ErrNotFound)
	}
	return o.Clone(), nil
}

// ListOrders отдаёт заказы от новых к старым
func (m *Memory) ListOrders(ctx context.Context) ([]entity.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := sortedValues(m.orders, func(a, b entity.Order) int {
		return byCreated(b.CreatedAt, a.CreatedAt, b.ID, a.ID)
	})
	for i := range out {
		out[i] = out[i].Clone()
	}
	return out, nil
}

func (m *Memory) ListOrdersByUser(ctx context.Context, userID string) ([]entity.Order, error) {
	all, _ := m.ListOrders(ctx)
	return slices.DeleteFunc(all, func(o entity.Order) bool { return o.UserID != userID }), nil
}

func (m *Memory) CreateOrder(ctx context.Context, o entity.Order) (entity.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o = o.Clone()
	o.ID = newID(o.ID)
	if _, exists := m.orders[o.ID]; exists {
		return entity.Order{}, fmt.Errorf("order %s: %w", o.ID, ErrConflict)
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = m.now()
	}
	o.UpdatedAt = o.CreatedAt
	for i := range o.Items {
		o.Items[i].ID = newID(o.Items[i].ID)
		o.Items[i].OrderID = o.ID
	}
	m.orders[o.ID] = o
	return o.Clone(), nil
}

// UpdateOrder меняет только статус и срок доставки, позиции заказа неизменны
func (m *Memory) UpdateOrder(ctx context.Context, o entity.Order) (entity.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.orders[o.ID]
	if !ok {
		return entity.Order{}, fmt.Errorf("order %s: %w", o.ID, ErrNotFound)
	}
	stored.Status = o.Status
	if o.ExpectedDeliveryTime != nil {
		t := *o.ExpectedDeliveryTime
		stored.ExpectedDeliveryTime = &t
	}
	stored.UpdatedAt = m.now()
	m.orders[o.ID] = stored
	return stored.Clone(), nil
}

func (m *Memory) DeleteOrder(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orders[id]; !ok {
		return fmt.Errorf("order %s: %w", id, ErrNotFound)
	}
	delete(m.orders, id)
	return nil
}

// --- users ---

func (m *Memory) GetUser(ctx context.Context, id string) (entity.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return entity.User{}, fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	return u, nil
}

func (m *Memory) GetUserByEmail(ctx context.Context, email string) (entity.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return entity.User{}, fmt.Errorf("user %s: %w", email, ErrNotFound)
}

func (m *Memory) ListUsers(ctx context.Context) ([]entity.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return sortedValues(m.users, func(a, b entity.User) int {
		return byCreated(a.CreatedAt, b.CreatedAt, a.ID, b.ID)
	}), nil
}

func (m *Memory) CreateUser(ctx context.Context, u entity.User) (entity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return entity.User{}, fmt.Errorf("user %s: %w", u.Email, ErrConflict)
		}
	}
	u.ID = newID(u.ID)
	if _, exists := m.users[u.ID]; exists {
		return entity.User{}, fmt.Errorf("user %s: %w", u.ID, ErrConflict)
	}
	u.CreatedAt = m.now()
	m.users[u.ID] = u
	return u, nil
}

func (m *Memory) UpdateUser(ctx context.Context, u entity.User) (entity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	old, ok := m.users[u.ID]
	if !ok {
		return entity.User{}, fmt.Errorf("user %s: %w", u.ID, ErrNotFound)
	}
	for id, existing := range m.users {
		if id != u.ID && strings.EqualFold(existing.Email, u.Email) {
			return entity.User{}, fmt.Errorf("user %s: %w", u.Email, ErrConflict)
		}
	}
	u.CreatedAt = old.CreatedAt
	if u.PasswordHash == "" {
		u.PasswordHash = old.PasswordHash
	}
	m.users[u.ID] = u
	return u, nil
}

func (m *Memory) DeleteUser(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	delete(m.users, id)
	return nil
}
