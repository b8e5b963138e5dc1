package storage

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/Asus/lattkia_store/internal/entity"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	orderCols = []string{"id", "user_id", "status", "created_at", "updated_at", "expected_delivery_time", "total"}
	itemCols  = []string{"id", "order_id", "product_id", "product_name", "quantity", "price", "cost_price"}
)

func newMockStore(t *testing.T) (*Postgres, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool() // создаём виртуальное подключение к БД
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	fixed := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	s := newPostgres(mock)
	s.now = func() time.Time { return fixed }
	return s, mock
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestGetOrder(t *testing.T) {
	created := time.Date(2024, 5, 15, 9, 0, 0, 0, time.UTC)
	eta := created.Add(72 * time.Hour)

	testCases := []struct {
		name        string
		orderID     string
		mockSetup   func(mock pgxmock.PgxPoolIface)
		expected    entity.Order
		expectedErr error
	}{
		{
			name:    "Success: order with two items",
			orderID: "order-1",
			mockSetup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`SELECT .* FROM orders WHERE id = \$1`).
					WithArgs("order-1").
					WillReturnRows(pgxmock.NewRows(orderCols).
						AddRow("order-1", "user-customer", "shipped", created, created, &eta, dec("60.073")))
				mock.ExpectQuery(`SELECT .* FROM order_items WHERE order_id = ANY\(\$1\)`).
					WithArgs([]string{"order-1"}).
					WillReturnRows(pgxmock.NewRows(itemCols).
						AddRow("i1", "order-1", "prod-silicone-case", "Slim Silicone Case", 1, dec("25"), dec("9.5")).
						AddRow("i2", "order-1", "prod-usb-c-cable", "Braided USB-C Cable 2m", 3, dec("11.691"), dec("3.2")))
			},
			expected: entity.Order{
				ID: "order-1", UserID: "user-customer", Status: entity.StatusShipped,
				CreatedAt: created, UpdatedAt: created, ExpectedDeliveryTime: &eta, Total: dec("60.073"),
				Items: []entity.OrderItem{
					{ID: "i1", OrderID: "order-1", ProductID: "prod-silicone-case", ProductName: "Slim Silicone Case", Quantity: 1, Price: dec("25"), CostPrice: dec("9.5")},
					{ID: "i2", OrderID: "order-1", ProductID: "prod-usb-c-cable", ProductName: "Braided USB-C Cable 2m", Quantity: 3, Price: dec("11.691"), CostPrice: dec("3.2")},
				},
			},
		},
		{
			name:    "Failure: order not found",
			orderID: "missing",
			mockSetup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`SELECT .* FROM orders WHERE id = \$1`).
					WithArgs("missing").
					WillReturnRows(pgxmock.NewRows(orderCols))
			},
			expectedErr: ErrNotFound,
		},
		{
			name:    "Failure: database error",
			orderID: "order-1",
			mockSetup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`SELECT .* FROM orders WHERE id = \$1`).
					WithArgs("order-1").
					WillReturnError(fmt.Errorf("something went wrong"))
			},
			expectedErr: errors.New("failed to query order: something went wrong"),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s, mock := newMockStore(t)
			tc.mockSetup(mock)

			order, err := s.GetOrder(context.Background(), tc.orderID)

			switch {
			case errors.Is(tc.expectedErr, ErrNotFound):
				assert.ErrorIs(t, err, ErrNotFound)
			case tc.expectedErr != nil:
				require.Error(t, err)
				assert.Equal(t, tc.expectedErr.Error(), err.Error())
			default:
				require.NoError(t, err)
				assert.Equal(t, tc.expected, order)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestCreateOrder(t *testing.T) {
	order := entity.Order{
		ID: "order-9", UserID: "user-customer", Status: entity.StatusPending,
		Total: dec("50"),
		Items: []entity.OrderItem{
			{ID: "i1", ProductID: "prod-silicone-case", ProductName: "Slim Silicone Case", Quantity: 2, Price: dec("25"), CostPrice: dec("9.5")},
		},
	}

	t.Run("Success: order and items in one transaction", func(t *testing.T) {
		s, mock := newMockStore(t)
		mock.ExpectBegin()
		mock.ExpectExec(`INSERT INTO orders`).
			WithArgs("order-9", "user-customer", "pending", pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mock.ExpectCopyFrom(pgx.Identifier{"order_items"}, itemCols).WillReturnResult(1)
		mock.ExpectCommit()

		saved, err := s.CreateOrder(context.Background(), order)
		require.NoError(t, err)
		assert.Equal(t, "order-9", saved.Items[0].OrderID)
		assert.False(t, saved.CreatedAt.IsZero())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Failure: copy error rolls back", func(t *testing.T) {
		s, mock := newMockStore(t)
		mock.ExpectBegin()
		mock.ExpectExec(`INSERT INTO orders`).
			WithArgs("order-9", "user-customer", "pending", pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mock.ExpectCopyFrom(pgx.Identifier{"order_items"}, itemCols).WillReturnError(errors.New("disk full"))
		mock.ExpectRollback()

		_, err := s.CreateOrder(context.Background(), order)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to copy into order_items")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Failure: duplicate id", func(t *testing.T) {
		s, mock := newMockStore(t)
		mock.ExpectBegin()
		mock.ExpectExec(`INSERT INTO orders`).
			WithArgs("order-9", "user-customer", "pending", pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnError(&pgconn.PgError{Code: "23505"})
		mock.ExpectRollback()

		_, err := s.CreateOrder(context.Background(), order)
		assert.ErrorIs(t, err, ErrConflict)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUpdateOrderNotFound(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec(`UPDATE orders SET status`).
		WithArgs("nope", "processing", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	_, err := s.UpdateOrder(context.Background(), entity.Order{ID: "nope", Status: entity.StatusProcessing})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListProductsAttachesDiscounts(t *testing.T) {
	s, mock := newMockStore(t)
	created := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	productCols := []string{"id", "name", "description", "price", "cost_price", "stock", "subcategory_id", "image", "featured", "created_at", "updated_at"}
	mock.ExpectQuery(`SELECT .* FROM products ORDER BY`).
		WillReturnRows(pgxmock.NewRows(productCols).
			AddRow("p1", "Case", "", dec("25"), dec("9.5"), 400, "sub-cases", "", true, created, created).
			AddRow("p2", "Cable", "", dec("12.99"), dec("3.2"), 250, "sub-cables", "", false, created, created))
	mock.ExpectQuery(`SELECT .* FROM product_discounts WHERE product_id = ANY\(\$1\)`).
		WithArgs([]string{"p1", "p2"}).
		WillReturnRows(pgxmock.NewRows([]string{"id", "product_id", "min_quantity", "discount_percentage"}).
			AddRow("d1", "p1", 10, dec("5")).
			AddRow("d2", "p1", 20, dec("10")))

	products, err := s.ListProducts(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Len(t, products[0].Discounts, 2)
	assert.Empty(t, products[1].Discounts)
	assert.True(t, products[0].Discounts[1].DiscountPercentage.Equal(dec("10")))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateProductCopiesDiscounts(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO products`).
		WithArgs("p1", "Case", "", pgxmock.AnyArg(), pgxmock.AnyArg(), 10, "sub-cases", "", false, pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCopyFrom(pgx.Identifier{"product_discounts"}, []string{"id", "product_id", "min_quantity", "discount_percentage"}).
		WillReturnResult(1)
	mock.ExpectCommit()

	p, err := s.CreateProduct(context.Background(), entity.Product{
		ID: "p1", Name: "Case", Price: dec("25"), CostPrice: dec("9.5"), Stock: 10, SubcategoryID: "sub-cases",
		Discounts: []entity.Discount{{MinQuantity: 10, DiscountPercentage: dec("5")}},
	})
	require.NoError(t, err)
	assert.Equal(t, "p1", p.Discounts[0].ProductID)
	assert.NotEmpty(t, p.Discounts[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdjustStock(t *testing.T) {
	t.Run("decrement", func(t *testing.T) {
		s, mock := newMockStore(t)
		mock.ExpectQuery(`UPDATE products SET stock = stock \+ \$2`).
			WithArgs("p1", -3, pgxmock.AnyArg()).
			WillReturnRows(pgxmock.NewRows([]string{"stock"}).AddRow(7))

		left, err := s.AdjustStock(context.Background(), "p1", -3)
		require.NoError(t, err)
		assert.Equal(t, 7, left)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("would go negative", func(t *testing.T) {
		s, mock := newMockStore(t)
		mock.ExpectQuery(`UPDATE products SET stock = stock \+ \$2`).
			WithArgs("p1", -30, pgxmock.AnyArg()).
			WillReturnRows(pgxmock.NewRows([]string{"stock"}))

		_, err := s.AdjustStock(context.Background(), "p1", -30)
		assert.ErrorIs(t, err, ErrInsufficientStock)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestCreateUserConflict(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec(`INSERT INTO users`).
		WithArgs("u1", "Ann", "ann@example.com", "", "customer", "", "hash", pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	_, err := s.CreateUser(context.Background(), entity.User{
		ID: "u1", Name: "Ann", Email: "ann@example.com", Role: entity.RoleCustomer, PasswordHash: "hash",
	})
	assert.ErrorIs(t, err, ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteCategoryNotFound(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec(`DELETE FROM categories WHERE id = \$1`).
		WithArgs("cat-x").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	err := s.DeleteCategory(context.Background(), "cat-x")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureSchema(t *testing.T) {
	s, mock := newMockStore(t)
	for range schema {
		mock.ExpectExec(`CREATE TABLE IF NOT EXISTS`).WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))
	}
	for range numericColumns {
		mock.ExpectExec(`ALTER TABLE \w+ ALTER COLUMN`).WillReturnResult(pgxmock.NewResult("ALTER TABLE", 0))
	}
	require.NoError(t, s.EnsureSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// цены и итоги хранятся без округления, иначе итог заказа разойдётся с суммой строк
func TestSchemaKeepsFullPrecision(t *testing.T) {
	scaled := regexp.MustCompile(`NUMERIC\(\d+,\s*\d+\)`)
	for _, stmt := range schema {
		assert.False(t, scaled.MatchString(stmt), "scaled numeric column in:\n%s", stmt)
	}

	// 9.99 со скидкой 7.5% даёт шесть знаков после запятой
	unit := dec("9.99").Mul(dec("1").Sub(dec("7.5").Div(dec("100"))))
	assert.Equal(t, "9.24075", unit.String())
}
