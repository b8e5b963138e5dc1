// сущности общие для всех слоёв: storage, service, server и broker работают с одними и теми же структурами

package entity

import (
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var Validate *validator.Validate

func init() {
	Validate = validator.New()
}

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleCustomer Role = "customer"
)

type Category struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name" validate:"required,max=120"`
	Image     string    `json:"image" db:"image" validate:"omitempty,url"`
	Slug      string    `json:"slug" db:"slug" validate:"omitempty,max=140"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

type Subcategory struct {
	ID         string    `json:"id" db:"id"`
	Name       string    `json:"name" db:"name" validate:"required,max=120"`
	CategoryID string    `json:"categoryId" db:"category_id" validate:"required"`
	Image      string    `json:"image" db:"image" validate:"omitempty,url"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt  time.Time `json:"updatedAt" db:"updated_at"`
}

type Product struct {
	ID            string          `json:"id" db:"id"`
	Name          string          `json:"name" db:"name" validate:"required,max=200"`
	Description   string          `json:"description" db:"description"`
	Price         decimal.Decimal `json:"price" db:"price"`
	CostPrice     decimal.Decimal `json:"costPrice" db:"cost_price"`
	Stock         int             `json:"stock" db:"stock" validate:"gte=0"`
	SubcategoryID string          `json:"subcategoryId" db:"subcategory_id" validate:"required"`
	Image         string          `json:"image" db:"image" validate:"omitempty,url"`
	Featured      bool            `json:"featured" db:"featured"`
	Discounts     []Discount      `json:"discounts" db:"-" validate:"dive"`
	CreatedAt     time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time       `json:"updatedAt" db:"updated_at"`
}

// Discount - ступень скидки: от MinQuantity штук цена падает на DiscountPercentage процентов
type Discount struct {
	ID                 string          `json:"id" db:"id"`
	ProductID          string          `json:"productId" db:"product_id"`
	MinQuantity        int             `json:"minQuantity" db:"min_quantity" validate:"gt=0"`
	DiscountPercentage decimal.Decimal `json:"discountPercentage" db:"discount_percentage"`
}

type Order struct {
	ID                   string          `json:"id" db:"id"`
	UserID               string          `json:"userId" db:"user_id" validate:"required"`
	Status               OrderStatus     `json:"status" db:"status" validate:"required"`
	CreatedAt            time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt            time.Time       `json:"updatedAt" db:"updated_at"`
	ExpectedDeliveryTime *time.Time      `json:"expectedDeliveryTime,omitempty" db:"expected_delivery_time"`
	Items                []OrderItem     `json:"items" db:"-" validate:"required,min=1,dive"`
	Total                decimal.Decimal `json:"total" db:"total"`
}

// OrderItem хранит цену на момент оформления заказа, а не ссылку на текущую цену товара
type OrderItem struct {
	ID          string          `json:"id" db:"id"`
	OrderID     string          `json:"orderId" db:"order_id"`
	ProductID   string          `json:"productId" db:"product_id" validate:"required"`
	ProductName string          `json:"productName" db:"product_name"`
	Quantity    int             `json:"quantity" db:"quantity" validate:"gt=0"`
	Price       decimal.Decimal `json:"price" db:"price"`
	CostPrice   decimal.Decimal `json:"-" db:"cost_price"`
}

type User struct {
	ID           string    `json:"id" db:"id"`
	Name         string    `json:"name" db:"name" validate:"required,max=120"`
	Email        string    `json:"email" db:"email" validate:"required,email"`
	Phone        string    `json:"phone,omitempty" db:"phone" validate:"omitempty,max=32"`
	Role         Role      `json:"role" db:"role" validate:"required,oneof=admin customer"`
	TelegramID   string    `json:"telegramId,omitempty" db:"telegram_id"`
	PasswordHash string    `json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}

var nonSlug = regexp.MustCompile(`[^\p{L}\p{N}]+`)

// Slugify делает из названия категории slug для URL
func Slugify(name string) string {
	s := nonSlug.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "-")
	return strings.Trim(s, "-")
}
