package state

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/Asus/lattkia_store/internal/pricing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestRawRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.GetRaw(ctx, "client-1", "anything")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.PutRaw(ctx, "client-1", "anything", json.RawMessage(`{"a":1}`)))
	require.NoError(t, s.PutRaw(ctx, "client-1", "anything", json.RawMessage(`{"a":2}`)))

	raw, err := s.GetRaw(ctx, "client-1", "anything")
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":2}`, string(raw))

	require.NoError(t, s.Delete(ctx, "client-1", "anything"))
	_, err = s.GetRaw(ctx, "client-1", "anything")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCartMergesAndTotals(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	tiers := []pricing.Tier{{MinQuantity: 10, Percentage: d("5")}, {MinQuantity: 20, Percentage: d("10")}}

	empty, err := s.Cart(ctx, "c1")
	require.NoError(t, err)
	assert.Empty(t, empty.Items)

	_, err = s.AddToCart(ctx, "c1", CartItem{ProductID: "case", Price: d("25"), Quantity: 6, Discounts: tiers})
	require.NoError(t, err)
	cart, err := s.AddToCart(ctx, "c1", CartItem{ProductID: "case", Price: d("25"), Quantity: 6, Discounts: tiers})
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 12, cart.Items[0].Quantity)

	total, err := cart.Total()
	require.NoError(t, err)
	assert.True(t, total.Equal(d("285")), "12 x 23.75, got %s", total)

	cart, err = s.AddToCart(ctx, "c1", CartItem{ProductID: "cable", Price: d("12.99"), Quantity: 1})
	require.NoError(t, err)
	assert.Equal(t, 13, cart.Count())

	_, err = s.AddToCart(ctx, "c1", CartItem{ProductID: "cable", Price: d("12.99"), Quantity: 0})
	assert.ErrorIs(t, err, pricing.ErrInvalidQuantity)
}

func TestCartUpdateAndRemove(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.AddToCart(ctx, "c1", CartItem{ProductID: "a", Price: d("1"), Quantity: 1})
	require.NoError(t, err)
	_, err = s.AddToCart(ctx, "c1", CartItem{ProductID: "b", Price: d("2"), Quantity: 1})
	require.NoError(t, err)

	cart, err := s.UpdateCartQuantity(ctx, "c1", "a", 4)
	require.NoError(t, err)
	assert.Equal(t, 4, cart.Items[0].Quantity)

	cart, err = s.UpdateCartQuantity(ctx, "c1", "a", 0)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, "b", cart.Items[0].ProductID)

	_, err = s.UpdateCartQuantity(ctx, "c1", "missing", 2)
	assert.ErrorIs(t, err, ErrNotInCart)

	cart, err = s.RemoveFromCart(ctx, "c1", "b")
	require.NoError(t, err)
	assert.Empty(t, cart.Items)

	// корзины разных клиентов не пересекаются
	_, err = s.AddToCart(ctx, "c2", CartItem{ProductID: "a", Price: d("1"), Quantity: 1})
	require.NoError(t, err)
	require.NoError(t, s.ClearCart(ctx, "c1"))
	other, err := s.Cart(ctx, "c2")
	require.NoError(t, err)
	assert.Len(t, other.Items, 1)
}

func TestWishlistDeduplicates(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.AddToWishlist(ctx, "c1", WishlistItem{ProductID: "a", Name: "A"})
	require.NoError(t, err)
	w, err := s.AddToWishlist(ctx, "c1", WishlistItem{ProductID: "a", Name: "A again"})
	require.NoError(t, err)
	require.Len(t, w.Items, 1)
	assert.Equal(t, "A", w.Items[0].Name)

	w, err = s.RemoveFromWishlist(ctx, "c1", "a")
	require.NoError(t, err)
	assert.Empty(t, w.Items)
}

func TestPreferences(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	theme, err := s.Theme(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, ThemeLight, theme)

	theme, err = s.SetTheme(ctx, "c1", "Dark")
	require.NoError(t, err)
	assert.Equal(t, ThemeDark, theme)

	_, err = s.SetTheme(ctx, "c1", "neon")
	assert.ErrorIs(t, err, ErrInvalidTheme)

	lang, err := s.SetLanguage(ctx, "c1", "ar-EG")
	require.NoError(t, err)
	assert.Equal(t, "ar", lang)

	_, err = s.SetLanguage(ctx, "c1", "not a tag!")
	assert.ErrorIs(t, err, ErrInvalidLanguage)
}

func TestSettings(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	st, err := s.Settings(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, DefaultSettings(), st)
	assert.True(t, st.Notifications.Email)
	assert.False(t, st.Notifications.Telegram)

	st.Timezone = "Asia/Riyadh"
	saved, err := s.SaveSettings(ctx, "c1", st)
	require.NoError(t, err)
	assert.Equal(t, "Asia/Riyadh", saved.Location().String())

	st.Timezone = "Mars/Olympus"
	_, err = s.SaveSettings(ctx, "c1", st)
	assert.ErrorIs(t, err, ErrInvalidTimezone)

	st.Timezone = "UTC"
	st.Currency = "usd"
	_, err = s.SaveSettings(ctx, "c1", st)
	assert.ErrorIs(t, err, ErrInvalidCurrency)
}

func TestPutClientValue(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	v, err := s.PutClientValue(ctx, "c1", KeySettings, json.RawMessage(`{"currency":"EUR"}`))
	require.NoError(t, err)
	st := v.(Settings)
	assert.Equal(t, "EUR", st.Currency)
	assert.Equal(t, "UTC", st.Timezone, "fields not sent keep their values")

	v, err = s.PutClientValue(ctx, "c1", KeyWishlist, json.RawMessage(`{"items":[{"productId":"a"},{"productId":"a"}]}`))
	require.NoError(t, err)
	assert.Len(t, v.(Wishlist).Items, 1)

	_, err = s.PutClientValue(ctx, "c1", KeyCart, json.RawMessage(`{"items":[{"productId":"a","price":"1","quantity":0}]}`))
	assert.ErrorIs(t, err, pricing.ErrInvalidQuantity)

	_, err = s.PutClientValue(ctx, "c1", KeyCart, json.RawMessage(`{"items":[{"productId":"a","price":"10","quantity":1,"discounts":[{"minQuantity":1,"discountPercentage":"150"}]}]}`))
	assert.ErrorIs(t, err, pricing.ErrInvalidPercentage)

	_, err = s.PutClientValue(ctx, "c1", KeyCart, json.RawMessage(`{"items":[{"productId":"a","price":"10","quantity":1,"discounts":[{"minQuantity":1,"discountPercentage":"20"},{"minQuantity":5,"discountPercentage":"10"}]}]}`))
	assert.ErrorIs(t, err, pricing.ErrDecreasingTier)

	cart, err := s.Cart(ctx, "c1")
	require.NoError(t, err)
	assert.Empty(t, cart.Items)

	_, err = s.PutClientValue(ctx, "c1", "secrets", json.RawMessage(`{}`))
	assert.ErrorIs(t, err, ErrUnknownKey)

	got, err := s.ClientValue(ctx, "c1", KeyTheme)
	require.NoError(t, err)
	assert.Equal(t, ThemeLight, got)
}

func TestMarquee(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	m, err := s.Marquee(ctx)
	require.NoError(t, err)
	assert.Equal(t, DefaultMarqueeSpeed, m.Speed)
	require.Len(t, m.Items, 4)
	first, second := m.Items[0], m.Items[1]

	m, err = s.MoveMarqueeItem(ctx, 1, -1)
	require.NoError(t, err)
	assert.Equal(t, []string{second, first}, m.Items[:2])

	// верхнюю строку выше не поднять
	m, err = s.MoveMarqueeItem(ctx, 0, -1)
	require.NoError(t, err)
	assert.Equal(t, second, m.Items[0])

	_, err = s.MoveMarqueeItem(ctx, 10, 1)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)

	m, err = s.AddMarqueeItem(ctx, "  New arrivals  ")
	require.NoError(t, err)
	assert.Equal(t, "New arrivals", m.Items[len(m.Items)-1])

	m, err = s.RemoveMarqueeItem(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, m.Items, 4)

	_, err = s.SaveMarquee(ctx, Marquee{Items: []string{"x"}, Speed: 2})
	assert.ErrorIs(t, err, ErrInvalidSpeed)
}
