package storage

import (
	"context"
	"errors"

	"github.com/Asus/lattkia_store/internal/entity"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("already exists")
	// ErrInsufficientStock - AdjustStock увёл бы остаток в минус
	ErrInsufficientStock = errors.New("stock would become negative")
)

type CategoryRepository interface {
	GetCategory(ctx context.Context, id string) (entity.Category, error)
	ListCategories(ctx context.Context) ([]entity.Category, error)
	CreateCategory(ctx context.Context, c entity.Category) (entity.Category, error)
	UpdateCategory(ctx context.Context, c entity.Category) (entity.Category, error)
	DeleteCategory(ctx context.Context, id string) error
}

type SubcategoryRepository interface {
	GetSubcategory(ctx context.Context, id string) (entity.Subcategory, error)
	ListSubcategories(ctx context.Context) ([]entity.Subcategory, error)
	ListSubcategoriesByCategory(ctx context.Context, categoryID string) ([]entity.Subcategory, error)
	CreateSubcategory(ctx context.Context, s entity.Subcategory) (entity.Subcategory, error)
	UpdateSubcategory(ctx context.Context, s entity.Subcategory) (entity.Subcategory, error)
	DeleteSubcategory(ctx context.Context, id string) error
}

type ProductRepository interface {
	GetProduct(ctx context.Context, id string) (entity.Product, error)
	ListProducts(ctx context.Context) ([]entity.Product, error)
	ListProductsBySubcategory(ctx context.Context, subcategoryID string) ([]entity.Product, error)
	CreateProduct(ctx context.Context, p entity.Product) (entity.Product, error)
	// UpdateProduct не трогает остаток, он меняется только через AdjustStock
	UpdateProduct(ctx context.Context, p entity.Product) (entity.Product, error)
	DeleteProduct(ctx context.Context, id string) error
	// AdjustStock прибавляет delta к остатку и возвращает новый остаток
	AdjustStock(ctx context.Context, id string, delta int) (int, error)
}

type OrderRepository interface {
	GetOrder(ctx context.Context, id string) (entity.Order, error)
	ListOrders(ctx context.Context) ([]entity.Order, error)
	ListOrdersByUser(ctx context.Context, userID string) ([]entity.Order, error)
	CreateOrder(ctx context.Context, o entity.Order) (entity.Order, error)
	UpdateOrder(ctx context.Context, o entity.Order) (entity.Order, error)
	DeleteOrder(ctx context.Context, id string) error
}

type UserRepository interface {
	GetUser(ctx context.Context, id string) (entity.User, error)
	GetUserByEmail(ctx context.Context, email string) (entity.User, error)
	ListUsers(ctx context.Context) ([]entity.User, error)
	CreateUser(ctx context.Context, u entity.User) (entity.User, error)
	UpdateUser(ctx context.Context, u entity.User) (entity.User, error)
	DeleteUser(ctx context.Context, id string) error
}

// Store - всё хранилище целиком, реализуется Memory и Postgres
type Store interface {
	CategoryRepository
	SubcategoryRepository
	ProductRepository
	OrderRepository
	UserRepository
	Close()
}
