package pricing

import (
	"fmt"

	"github.com/Asus/lattkia_store/internal/entity"
	"github.com/shopspring/decimal"
)

// Line - уже посчитанная цена за единицу и количество
type Line struct {
	UnitPrice decimal.Decimal
	Quantity  int
}

// Total суммирует строки без промежуточного округления
func Total(lines []Line) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return total
}

// Round округляет до копеек. Вызывается только при выводе
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

func ItemLines(items []entity.OrderItem) []Line {
	lines := make([]Line, 0, len(items))
	for _, it := range items {
		lines = append(lines, Line{UnitPrice: it.Price, Quantity: it.Quantity})
	}
	return lines
}

type Quote struct {
	ProductID      string          `json:"productId"`
	Quantity       int             `json:"quantity"`
	UnitPrice      decimal.Decimal `json:"unitPrice"`
	EffectivePrice decimal.Decimal `json:"effectivePrice"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	Tier           *Tier           `json:"tier,omitempty"`
}

func QuoteProduct(p entity.Product, quantity int) (Quote, error) {
	tiers, err := NewTiers(p.Discounts)
	if err != nil {
		return Quote{}, fmt.Errorf("product %s: %w", p.ID, err)
	}
	price, err := Resolve(p.Price, tiers, quantity)
	if err != nil {
		return Quote{}, err
	}
	q := Quote{
		ProductID:      p.ID,
		Quantity:       quantity,
		UnitPrice:      p.Price,
		EffectivePrice: Round(price),
		Subtotal:       Round(Total([]Line{{UnitPrice: price, Quantity: quantity}})),
	}
	if t, ok := Applicable(tiers, quantity); ok {
		q.Tier = &t
	}
	return q, nil
}
