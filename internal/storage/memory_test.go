package storage

import (
	"context"
	"testing"
	"time"

	"github.com/Asus/lattkia_store/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func seededMemory(t *testing.T) *Memory {
	t.Helper()
	SeedPasswordCost = bcrypt.MinCost
	seed, err := DefaultSeed()
	require.NoError(t, err)
	return NewMemory(seed)
}

func TestMemorySeedIsConsistent(t *testing.T) {
	m := seededMemory(t)
	ctx := context.Background()

	subs, err := m.ListSubcategories(ctx)
	require.NoError(t, err)
	for _, s := range subs {
		_, err := m.GetCategory(ctx, s.CategoryID)
		assert.NoError(t, err, "subcategory %s points to missing category", s.ID)
	}

	products, err := m.ListProducts(ctx)
	require.NoError(t, err)
	for _, p := range products {
		_, err := m.GetSubcategory(ctx, p.SubcategoryID)
		assert.NoError(t, err, "product %s points to missing subcategory", p.ID)
	}
}

func TestMemoryReturnsCopies(t *testing.T) {
	m := seededMemory(t)
	ctx := context.Background()

	p, err := m.GetProduct(ctx, "prod-silicone-case")
	require.NoError(t, err)
	p.Discounts[0].MinQuantity = 999

	again, err := m.GetProduct(ctx, "prod-silicone-case")
	require.NoError(t, err)
	assert.Equal(t, 10, again.Discounts[0].MinQuantity)
}

func TestMemoryCategoryCRUD(t *testing.T) {
	m := NewMemory(nil)
	ctx := context.Background()

	c, err := m.CreateCategory(ctx, entity.Category{Name: "Cases"})
	require.NoError(t, err)
	assert.NotEmpty(t, c.ID)

	c.Name = "Phone cases"
	updated, err := m.UpdateCategory(ctx, c)
	require.NoError(t, err)
	assert.Equal(t, c.CreatedAt, updated.CreatedAt)
	assert.Equal(t, "Phone cases", updated.Name)

	require.NoError(t, m.DeleteCategory(ctx, c.ID))
	_, err = m.GetCategory(ctx, c.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, m.DeleteCategory(ctx, c.ID), ErrNotFound)
}

func TestMemoryAdjustStock(t *testing.T) {
	m := seededMemory(t)
	ctx := context.Background()

	left, err := m.AdjustStock(ctx, "prod-earbuds", -5)
	require.NoError(t, err)
	assert.Equal(t, 10, left)

	_, err = m.AdjustStock(ctx, "prod-earbuds", -11)
	assert.ErrorIs(t, err, ErrInsufficientStock)

	p, err := m.GetProduct(ctx, "prod-earbuds")
	require.NoError(t, err)
	assert.Equal(t, 10, p.Stock)

	_, err = m.AdjustStock(ctx, "missing", 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryOrders(t *testing.T) {
	m := seededMemory(t)
	ctx := context.Background()

	o, err := m.CreateOrder(ctx, entity.Order{
		UserID: "user-customer",
		Status: entity.StatusPending,
		Items:  []entity.OrderItem{{ProductID: "prod-earbuds", ProductName: "Wireless Earbuds Pro", Quantity: 1, Price: dec("79"), CostPrice: dec("41")}},
		Total:  dec("79"),
	})
	require.NoError(t, err)
	assert.Equal(t, o.ID, o.Items[0].OrderID)

	all, err := m.ListOrders(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, o.ID, all[0].ID, "newest order comes first")

	eta := time.Now().Add(72 * time.Hour)
	updated, err := m.UpdateOrder(ctx, entity.Order{ID: o.ID, Status: entity.StatusShipped, ExpectedDeliveryTime: &eta})
	require.NoError(t, err)
	assert.Equal(t, entity.StatusShipped, updated.Status)
	assert.Len(t, updated.Items, 1, "items survive a status update")
	require.NotNil(t, updated.ExpectedDeliveryTime)

	mine, err := m.ListOrdersByUser(ctx, "user-customer")
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	none, err := m.ListOrdersByUser(ctx, "user-admin")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestMemoryUsers(t *testing.T) {
	m := seededMemory(t)
	ctx := context.Background()

	u, err := m.GetUserByEmail(ctx, "USER@example.com")
	require.NoError(t, err)
	assert.Equal(t, "user-customer", u.ID)

	_, err = m.CreateUser(ctx, entity.User{Name: "Dup", Email: "user@EXAMPLE.com", Role: entity.RoleCustomer})
	assert.ErrorIs(t, err, ErrConflict)

	u.Name = "Renamed"
	u.PasswordHash = ""
	updated, err := m.UpdateUser(ctx, u)
	require.NoError(t, err)
	assert.NotEmpty(t, updated.PasswordHash, "empty hash keeps the old password")
}
