package service

import (
	"context"
	"testing"
	"time"

	"github.com/Asus/lattkia_store/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRange(t *testing.T) {
	r, err := ParseRange("")
	require.NoError(t, err)
	assert.Equal(t, RangeMonth, r)

	r, err = ParseRange("Quarter")
	require.NoError(t, err)
	assert.Equal(t, RangeQuarter, r)

	_, err = ParseRange("decade")
	assert.Equal(t, CodeInvalidArgument, CodeOf(err))
}

func TestDashboard(t *testing.T) {
	store := seededStore(t)
	ctx := context.Background()
	now := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)

	orders := []entity.Order{
		{
			ID: "a1", UserID: "user-customer", Status: entity.StatusDelivered, CreatedAt: now.AddDate(0, 0, -2),
			Items: []entity.OrderItem{
				{ProductID: "prod-silicone-case", ProductName: "Slim Silicone Case", Quantity: 10, Price: d("23.75"), CostPrice: d("9.50")},
			},
			Total: d("237.5"),
		},
		{
			ID: "a2", UserID: "user-customer", Status: entity.StatusPending, CreatedAt: now.AddDate(0, 0, -1),
			Items: []entity.OrderItem{
				{ProductID: "prod-gan-charger", ProductName: "65W GaN Wall Charger", Quantity: 2, Price: d("37.905"), CostPrice: d("18")},
			},
			Total: d("75.81"),
		},
		{
			ID: "a3", UserID: "user-customer", Status: entity.StatusCancelled, CreatedAt: now.AddDate(0, 0, -1),
			Items: []entity.OrderItem{
				{ProductID: "prod-earbuds", ProductName: "Wireless Earbuds Pro", Quantity: 1, Price: d("79"), CostPrice: d("41")},
			},
			Total: d("79"),
		},
	}
	for _, o := range orders {
		_, err := store.CreateOrder(ctx, o)
		require.NoError(t, err)
	}

	a := NewAnalytics(store)
	a.now = func() time.Time { return now }

	dash, err := a.Dashboard(ctx, RangeWeek)
	require.NoError(t, err)

	// seed order-1 (май) вне недели, отменённый заказ не считается
	assert.Equal(t, 2, dash.Orders)
	assert.True(t, dash.TotalSales.Equal(d("313.31")), "sales %s", dash.TotalSales)
	assert.True(t, dash.TotalProfit.Equal(d("182.31")), "profit %s", dash.TotalProfit)
	assert.True(t, dash.AverageMargin.Equal(d("58.19")), "margin %s", dash.AverageMargin)

	require.Len(t, dash.TopProducts, 2)
	assert.Equal(t, "prod-silicone-case", dash.TopProducts[0].ProductID)
	assert.True(t, dash.TopProducts[0].Profit.Equal(d("142.5")))

	require.Len(t, dash.CategoryProfits, 2)
	assert.Equal(t, "Protection", dash.CategoryProfits[0].Name)
	assert.Equal(t, "Charging", dash.CategoryProfits[1].Name)
	require.Len(t, dash.CategoryDistribution, 2)
	assert.True(t, dash.CategoryDistribution[1].Value.Equal(d("75.81")))

	require.Len(t, dash.ProfitTrend, 2)
	assert.Equal(t, "2024-06-08", dash.ProfitTrend[0].Date)
	assert.Equal(t, "2024-06-09", dash.ProfitTrend[1].Date)

	all, err := a.Dashboard(ctx, RangeAll)
	require.NoError(t, err)
	assert.Equal(t, 3, all.Orders)
	assert.Nil(t, all.From)
}

func TestDashboardEmpty(t *testing.T) {
	store := seededStore(t)
	require.NoError(t, store.DeleteOrder(context.Background(), "order-1"))

	dash, err := NewAnalytics(store).Dashboard(context.Background(), RangeAll)
	require.NoError(t, err)
	assert.True(t, dash.TotalSales.IsZero())
	assert.True(t, dash.AverageMargin.IsZero())
	assert.Empty(t, dash.TopProducts)
	assert.Empty(t, dash.ProfitTrend)
}
