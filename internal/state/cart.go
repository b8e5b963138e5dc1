package state

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/Asus/lattkia_store/internal/pricing"

	"github.com/shopspring/decimal"
)

const KeyCart = "cart"

var ErrNotInCart = errors.New("product is not in the cart")

// CartItem - снимок товара на момент добавления в корзину
type CartItem struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	Image     string          `json:"image"`
	Discounts []pricing.Tier  `json:"discounts,omitempty"`
}

type Cart struct {
	Items []CartItem `json:"items"`
}

// Total считает сумму корзины по ступеням скидок каждой позиции, без округления
func (c Cart) Total() (decimal.Decimal, error) {
	lines := make([]pricing.Line, 0, len(c.Items))
	for _, it := range c.Items {
		unit, err := pricing.Resolve(it.Price, it.Discounts, it.Quantity)
		if err != nil {
			return decimal.Zero, err
		}
		lines = append(lines, pricing.Line{UnitPrice: unit, Quantity: it.Quantity})
	}
	return pricing.Total(lines), nil
}

// Validate проверяет корзину, пришедшую от клиента целиком: ступени скидок и количества
func (c Cart) Validate() error {
	for _, it := range c.Items {
		if err := pricing.ValidateTiers(it.Discounts); err != nil {
			return fmt.Errorf("cart item %s: %w", it.ProductID, err)
		}
	}
	_, err := c.Total()
	return err
}

func (c Cart) Count() int {
	n := 0
	for _, it := range c.Items {
		n += it.Quantity
	}
	return n
}

func (s *Store) Cart(ctx context.Context, owner string) (Cart, error) {
	return load(ctx, s, owner, KeyCart, Cart{Items: []CartItem{}})
}

// AddToCart добавляет позицию; если товар уже есть, количества складываются
func (s *Store) AddToCart(ctx context.Context, owner string, item CartItem) (Cart, error) {
	if item.Quantity <= 0 {
		return Cart{}, pricing.ErrInvalidQuantity
	}
	return mutate(ctx, s, owner, KeyCart, Cart{Items: []CartItem{}}, func(c *Cart) error {
		i := slices.IndexFunc(c.Items, func(it CartItem) bool { return it.ProductID == item.ProductID })
		if i >= 0 {
			c.Items[i].Quantity += item.Quantity
			return nil
		}
		c.Items = append(c.Items, item)
		return nil
	})
}

func (s *Store) RemoveFromCart(ctx context.Context, owner, productID string) (Cart, error) {
	return mutate(ctx, s, owner, KeyCart, Cart{Items: []CartItem{}}, func(c *Cart) error {
		c.Items = slices.DeleteFunc(c.Items, func(it CartItem) bool { return it.ProductID == productID })
		return nil
	})
}

// UpdateCartQuantity задаёт количество; ноль и меньше убирают позицию
func (s *Store) UpdateCartQuantity(ctx context.Context, owner, productID string, quantity int) (Cart, error) {
	return mutate(ctx, s, owner, KeyCart, Cart{Items: []CartItem{}}, func(c *Cart) error {
		i := slices.IndexFunc(c.Items, func(it CartItem) bool { return it.ProductID == productID })
		if i < 0 {
			return ErrNotInCart
		}
		if quantity <= 0 {
			c.Items = slices.Delete(c.Items, i, i+1)
			return nil
		}
		c.Items[i].Quantity = quantity
		return nil
	})
}

func (s *Store) ClearCart(ctx context.Context, owner string) error {
	return s.Put(ctx, owner, KeyCart, Cart{Items: []CartItem{}})
}
