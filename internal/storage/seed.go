package storage

import (
	"fmt"
	"time"

	"github.com/Asus/lattkia_store/internal/entity"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

// SeedPasswordCost - стоимость bcrypt для демо-пользователей, тесты её понижают
var SeedPasswordCost = bcrypt.DefaultCost

const SeedPassword = "password"

// Seed - стартовый каталог магазина, которым заполняется хранилище при первом запуске
type Seed struct {
	Categories    []entity.Category
	Subcategories []entity.Subcategory
	Products      []entity.Product
	Orders        []entity.Order
	Users         []entity.User
}

func price(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func tiers(productID string, pairs ...[2]int64) []entity.Discount {
	out := make([]entity.Discount, 0, len(pairs))
	for i, p := range pairs {
		out = append(out, entity.Discount{
			ID:                 fmt.Sprintf("%s-d%d", productID, i+1),
			ProductID:          productID,
			MinQuantity:        int(p[0]),
			DiscountPercentage: decimal.NewFromInt(p[1]),
		})
	}
	return out
}

func DefaultSeed() (*Seed, error) {
	base := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	at := func(days int) time.Time { return base.Add(time.Duration(days) * 24 * time.Hour) }

	adminHash, err := bcrypt.GenerateFromPassword([]byte(SeedPassword), SeedPasswordCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash seed password: %w", err)
	}
	userHash, err := bcrypt.GenerateFromPassword([]byte(SeedPassword), SeedPasswordCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash seed password: %w", err)
	}

	s := &Seed{
		Categories: []entity.Category{
			{ID: "cat-charging", Name: "Charging", Slug: "charging", Image: "https://images.example.com/categories/charging.jpg", CreatedAt: at(0), UpdatedAt: at(0)},
			{ID: "cat-protection", Name: "Protection", Slug: "protection", Image: "https://images.example.com/categories/protection.jpg", CreatedAt: at(1), UpdatedAt: at(1)},
			{ID: "cat-audio", Name: "Audio", Slug: "audio", Image: "https://images.example.com/categories/audio.jpg", CreatedAt: at(2), UpdatedAt: at(2)},
		},
		Subcategories: []entity.Subcategory{
			{ID: "sub-cables", Name: "Cables", CategoryID: "cat-charging", Image: "https://images.example.com/subcategories/cables.jpg", CreatedAt: at(0), UpdatedAt: at(0)},
			{ID: "sub-wall-chargers", Name: "Wall chargers", CategoryID: "cat-charging", Image: "https://images.example.com/subcategories/wall.jpg", CreatedAt: at(0), UpdatedAt: at(0)},
			{ID: "sub-cases", Name: "Cases", CategoryID: "cat-protection", Image: "https://images.example.com/subcategories/cases.jpg", CreatedAt: at(1), UpdatedAt: at(1)},
			{ID: "sub-screen", Name: "Screen protectors", CategoryID: "cat-protection", Image: "https://images.example.com/subcategories/screen.jpg", CreatedAt: at(1), UpdatedAt: at(1)},
			{ID: "sub-earbuds", Name: "Earbuds", CategoryID: "cat-audio", Image: "https://images.example.com/subcategories/earbuds.jpg", CreatedAt: at(2), UpdatedAt: at(2)},
		},
		Products: []entity.Product{
			{
				ID: "prod-silicone-case", Name: "Slim Silicone Case", Description: "Soft-touch silicone case with raised camera lip",
				Price: price("25.00"), CostPrice: price("9.50"), Stock: 400, SubcategoryID: "sub-cases", Featured: true,
				Image:     "https://images.example.com/products/silicone-case.jpg",
				Discounts: tiers("prod-silicone-case", [2]int64{10, 5}, [2]int64{20, 10}, [2]int64{50, 15}),
				CreatedAt: at(3), UpdatedAt: at(3),
			},
			{
				ID: "prod-usb-c-cable", Name: "Braided USB-C Cable 2m", Description: "60W braided USB-C to USB-C cable",
				Price: price("12.99"), CostPrice: price("3.20"), Stock: 250, SubcategoryID: "sub-cables", Featured: true,
				Image:     "https://images.example.com/products/usb-c-cable.jpg",
				Discounts: tiers("prod-usb-c-cable", [2]int64{3, 10}, [2]int64{5, 15}),
				CreatedAt: at(3), UpdatedAt: at(3),
			},
			{
				ID: "prod-gan-charger", Name: "65W GaN Wall Charger", Description: "Dual-port compact GaN charger",
				Price: price("39.90"), CostPrice: price("18.00"), Stock: 60, SubcategoryID: "sub-wall-chargers", Featured: true,
				Image:     "https://images.example.com/products/gan-charger.jpg",
				Discounts: tiers("prod-gan-charger", [2]int64{2, 5}, [2]int64{4, 12}),
				CreatedAt: at(4), UpdatedAt: at(4),
			},
			{
				ID: "prod-tempered-glass", Name: "Tempered Glass Protector", Description: "9H tempered glass, two-pack",
				Price: price("9.99"), CostPrice: price("1.80"), Stock: 800, SubcategoryID: "sub-screen",
				Image:     "https://images.example.com/products/tempered-glass.jpg",
				Discounts: tiers("prod-tempered-glass", [2]int64{3, 10}),
				CreatedAt: at(4), UpdatedAt: at(4),
			},
			{
				ID: "prod-earbuds", Name: "Wireless Earbuds Pro", Description: "ANC earbuds with wireless charging case",
				Price: price("79.00"), CostPrice: price("41.00"), Stock: 15, SubcategoryID: "sub-earbuds",
				Image:     "https://images.example.com/products/earbuds.jpg",
				CreatedAt: at(5), UpdatedAt: at(5),
			},
		},
		Users: []entity.User{
			{ID: "user-admin", Name: "Admin User", Email: "admin@example.com", Phone: "+15550100", Role: entity.RoleAdmin, PasswordHash: string(adminHash), CreatedAt: at(0)},
			{ID: "user-customer", Name: "Regular User", Email: "user@example.com", Phone: "+15550101", Role: entity.RoleCustomer, PasswordHash: string(userHash), CreatedAt: at(0)},
		},
	}

	eta := at(17)
	s.Orders = []entity.Order{
		{
			ID: "order-1", UserID: "user-customer", Status: entity.StatusDelivered,
			CreatedAt: at(14), UpdatedAt: at(17), ExpectedDeliveryTime: &eta,
			Items: []entity.OrderItem{
				{ID: "order-1-i1", OrderID: "order-1", ProductID: "prod-silicone-case", ProductName: "Slim Silicone Case", Quantity: 1, Price: price("25.00"), CostPrice: price("9.50")},
				{ID: "order-1-i2", OrderID: "order-1", ProductID: "prod-usb-c-cable", ProductName: "Braided USB-C Cable 2m", Quantity: 3, Price: price("11.691"), CostPrice: price("3.20")},
			},
			Total: price("60.073"),
		},
	}
	return s, nil
}
