package pricing

import (
	"testing"

	"github.com/Asus/lattkia_store/internal/entity"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTotalConcreteScenario(t *testing.T) {
	tiers := mustTiers(t, [2]int{10, 5}, [2]int{20, 10}, [2]int{50, 15})
	price, err := Resolve(d("25"), tiers, 15)
	require.NoError(t, err)

	total := Total([]Line{{UnitPrice: price, Quantity: 15}})
	assert.Equal(t, "356.25", Round(total).StringFixed(2))
}

func TestTotalRoundsOnlyOnce(t *testing.T) {
	// построчное округление даёт 2.01, округление суммы 2.0048 даёт 2.00
	lines := []Line{
		{UnitPrice: d("0.3333"), Quantity: 3},
		{UnitPrice: d("0.3333"), Quantity: 3},
		{UnitPrice: d("0.005"), Quantity: 1},
	}
	total := Total(lines)
	assert.True(t, total.Equal(d("2.0048")))
	assert.Equal(t, "2.00", Round(total).StringFixed(2))

	perLine := d("0")
	for _, l := range lines {
		perLine = perLine.Add(Round(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))))
	}
	assert.Equal(t, "2.01", perLine.StringFixed(2))
}

func TestTotalEmpty(t *testing.T) {
	assert.True(t, Total(nil).IsZero())
}

func TestItemLines(t *testing.T) {
	items := []entity.OrderItem{
		{ProductID: "a", Quantity: 2, Price: d("10.10")},
		{ProductID: "b", Quantity: 1, Price: d("0.80")},
	}
	assert.Equal(t, "21.00", Round(Total(ItemLines(items))).StringFixed(2))
}

func TestQuoteProduct(t *testing.T) {
	p := entity.Product{
		ID:    "case-1",
		Price: d("25"),
		Discounts: []entity.Discount{
			{MinQuantity: 10, DiscountPercentage: d("5")},
			{MinQuantity: 20, DiscountPercentage: d("10")},
			{MinQuantity: 50, DiscountPercentage: d("15")},
		},
	}
	q, err := QuoteProduct(p, 15)
	require.NoError(t, err)
	assert.Equal(t, "23.75", q.EffectivePrice.StringFixed(2))
	assert.Equal(t, "356.25", q.Subtotal.StringFixed(2))
	require.NotNil(t, q.Tier)
	assert.Equal(t, 10, q.Tier.MinQuantity)

	q, err = QuoteProduct(p, 3)
	require.NoError(t, err)
	assert.Nil(t, q.Tier)
	assert.Equal(t, "75.00", q.Subtotal.StringFixed(2))

	_, err = QuoteProduct(p, 0)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}
