// пакет pricing считает цену с учётом ступенчатых скидок за количество и итог заказа

package pricing

import (
	"errors"
	"fmt"
	"slices"

	"github.com/Asus/lattkia_store/internal/entity"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidQuantity   = errors.New("quantity must be positive")
	ErrInvalidThreshold  = errors.New("discount min quantity must be positive")
	ErrInvalidPercentage = errors.New("discount percentage must be between 0 and 100")
	ErrDuplicateTier     = errors.New("discount min quantities must be distinct")
	ErrDecreasingTier    = errors.New("discount percentage must not decrease as min quantity grows")
	ErrNegativePrice     = errors.New("price must not be negative")
)

var hundred = decimal.NewFromInt(100)

// Tier - одна ступень скидки. Ступени, пришедшие не через NewTier (например, из JSON), проверяются ValidateTiers
type Tier struct {
	MinQuantity int             `json:"minQuantity"`
	Percentage  decimal.Decimal `json:"discountPercentage"`
}

func NewTier(minQuantity int, percentage decimal.Decimal) (Tier, error) {
	if minQuantity <= 0 {
		return Tier{}, ErrInvalidThreshold
	}
	if percentage.IsNegative() || percentage.GreaterThan(hundred) {
		return Tier{}, fmt.Errorf("%w: got %s", ErrInvalidPercentage, percentage)
	}
	return Tier{MinQuantity: minQuantity, Percentage: percentage}, nil
}

// NewTiers собирает ступени товара; пороги различны, а скидка с ростом порога не уменьшается
func NewTiers(discounts []entity.Discount) ([]Tier, error) {
	tiers := make([]Tier, 0, len(discounts))
	for _, d := range discounts {
		tiers = append(tiers, Tier{MinQuantity: d.MinQuantity, Percentage: d.DiscountPercentage})
	}
	if err := ValidateTiers(tiers); err != nil {
		return nil, err
	}
	return tiers, nil
}

// ValidateTiers проверяет набор ступеней по тем же правилам, что NewTier и NewTiers.
// Без неубывающих скидок цена за штуку могла бы расти с количеством
func ValidateTiers(tiers []Tier) error {
	seen := make(map[int]struct{}, len(tiers))
	for _, t := range tiers {
		if _, err := NewTier(t.MinQuantity, t.Percentage); err != nil {
			return err
		}
		if _, dup := seen[t.MinQuantity]; dup {
			return fmt.Errorf("%w: %d", ErrDuplicateTier, t.MinQuantity)
		}
		seen[t.MinQuantity] = struct{}{}
	}

	sorted := slices.Clone(tiers)
	slices.SortFunc(sorted, func(a, b Tier) int {
		return a.MinQuantity - b.MinQuantity
	})
	for i := 1; i < len(sorted); i++ {
		if sorted[i].Percentage.LessThan(sorted[i-1].Percentage) {
			return fmt.Errorf("%w: %s%% from %d units after %s%% from %d units", ErrDecreasingTier,
				sorted[i].Percentage, sorted[i].MinQuantity, sorted[i-1].Percentage, sorted[i-1].MinQuantity)
		}
	}
	return nil
}

// Applicable возвращает ступень с наибольшим порогом, который не больше quantity
func Applicable(tiers []Tier, quantity int) (Tier, bool) {
	sorted := slices.Clone(tiers)
	slices.SortFunc(sorted, func(a, b Tier) int {
		return b.MinQuantity - a.MinQuantity
	})
	for _, t := range sorted {
		if t.MinQuantity <= quantity {
			return t, true
		}
	}
	return Tier{}, false
}

// Resolve считает цену за единицу при заказе quantity штук
func Resolve(basePrice decimal.Decimal, tiers []Tier, quantity int) (decimal.Decimal, error) {
	if quantity <= 0 {
		return decimal.Decimal{}, ErrInvalidQuantity
	}
	if basePrice.IsNegative() {
		return decimal.Decimal{}, ErrNegativePrice
	}
	tier, ok := Applicable(tiers, quantity)
	if !ok {
		return basePrice, nil
	}
	factor := decimal.NewFromInt(1).Sub(tier.Percentage.Div(hundred))
	return basePrice.Mul(factor), nil
}

// ResolveProduct - то же самое, но ступени берутся прямо из товара
func ResolveProduct(p entity.Product, quantity int) (decimal.Decimal, error) {
	tiers, err := NewTiers(p.Discounts)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("product %s: %w", p.ID, err)
	}
	return Resolve(p.Price, tiers, quantity)
}
