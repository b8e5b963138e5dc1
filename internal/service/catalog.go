// пакет сервис реализует слой бизнес логики

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Asus/lattkia_store/internal/entity"
	"github.com/Asus/lattkia_store/internal/pricing"
	"github.com/Asus/lattkia_store/internal/storage"

	"github.com/go-playground/validator/v10"
)

type Catalog struct {
	store catalogStore
}

func NewCatalog(store catalogStore) *Catalog {
	return &Catalog{store: store}
}

// invalid переводит ошибки validator в InvalidArgument с перечнем полей
func invalid(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return NewInvalidArgument("%s", err.Error())
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := fe.Namespace()
		if i := strings.Index(field, "."); i >= 0 {
			field = field[i+1:]
		}
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, field+" is required")
		case "email":
			msgs = append(msgs, field+" must be a valid email")
		case "url":
			msgs = append(msgs, field+" must be a valid URL")
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s=%s", field, fe.Tag(), fe.Param()))
		}
	}
	return NewInvalidArgument("%s", strings.Join(msgs, "; "))
}

// --- categories ---

func (c *Catalog) Categories(ctx context.Context) ([]entity.Category, error) {
	return c.store.ListCategories(ctx)
}

func (c *Catalog) Category(ctx context.Context, id string) (entity.Category, error) {
	cat, err := c.store.GetCategory(ctx, id)
	if err != nil {
		return entity.Category{}, notFound(err, "category")
	}
	return cat, nil
}

func (c *Catalog) CreateCategory(ctx context.Context, cat entity.Category) (entity.Category, error) {
	cat.Name = strings.TrimSpace(cat.Name)
	if cat.Slug == "" {
		cat.Slug = entity.Slugify(cat.Name)
	}
	if err := entity.Validate.Struct(cat); err != nil {
		return entity.Category{}, invalid(err)
	}
	return c.store.CreateCategory(ctx, cat)
}

func (c *Catalog) UpdateCategory(ctx context.Context, cat entity.Category) (entity.Category, error) {
	if _, err := c.Category(ctx, cat.ID); err != nil {
		return entity.Category{}, err
	}
	cat.Name = strings.TrimSpace(cat.Name)
	if cat.Slug == "" {
		cat.Slug = entity.Slugify(cat.Name)
	}
	if err := entity.Validate.Struct(cat); err != nil {
		return entity.Category{}, invalid(err)
	}
	updated, err := c.store.UpdateCategory(ctx, cat)
	return updated, notFound(err, "category")
}

// DeleteCategory не удаляет категорию, пока в ней есть подкатегории
func (c *Catalog) DeleteCategory(ctx context.Context, id string) error {
	if _, err := c.Category(ctx, id); err != nil {
		return err
	}
	subs, err := c.store.ListSubcategoriesByCategory(ctx, id)
	if err != nil {
		return err
	}
	if len(subs) > 0 {
		return NewFailedPrecondition("category has %d subcategories", len(subs))
	}
	return notFound(c.store.DeleteCategory(ctx, id), "category")
}

// --- subcategories ---

func (c *Catalog) Subcategories(ctx context.Context) ([]entity.Subcategory, error) {
	return c.store.ListSubcategories(ctx)
}

func (c *Catalog) SubcategoriesOf(ctx context.Context, categoryID string) ([]entity.Subcategory, error) {
	if _, err := c.Category(ctx, categoryID); err != nil {
		return nil, err
	}
	return c.store.ListSubcategoriesByCategory(ctx, categoryID)
}

func (c *Catalog) Subcategory(ctx context.Context, id string) (entity.Subcategory, error) {
	s, err := c.store.GetSubcategory(ctx, id)
	if err != nil {
		return entity.Subcategory{}, notFound(err, "subcategory")
	}
	return s, nil
}

func (c *Catalog) checkSubcategory(ctx context.Context, s entity.Subcategory) error {
	s.Name = strings.TrimSpace(s.Name)
	if err := entity.Validate.Struct(s); err != nil {
		return invalid(err)
	}
	if _, err := c.store.GetCategory(ctx, s.CategoryID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return NewInvalidArgument("category %s does not exist", s.CategoryID)
		}
		return err
	}
	return nil
}

func (c *Catalog) CreateSubcategory(ctx context.Context, s entity.Subcategory) (entity.Subcategory, error) {
	if err := c.checkSubcategory(ctx, s); err != nil {
		return entity.Subcategory{}, err
	}
	s.Name = strings.TrimSpace(s.Name)
	return c.store.CreateSubcategory(ctx, s)
}

func (c *Catalog) UpdateSubcategory(ctx context.Context, s entity.Subcategory) (entity.Subcategory, error) {
	if _, err := c.Subcategory(ctx, s.ID); err != nil {
		return entity.Subcategory{}, err
	}
	if err := c.checkSubcategory(ctx, s); err != nil {
		return entity.Subcategory{}, err
	}
	s.Name = strings.TrimSpace(s.Name)
	updated, err := c.store.UpdateSubcategory(ctx, s)
	return updated, notFound(err, "subcategory")
}

// DeleteSubcategory не удаляет подкатегорию, пока в ней есть товары
func (c *Catalog) DeleteSubcategory(ctx context.Context, id string) error {
	if _, err := c.Subcategory(ctx, id); err != nil {
		return err
	}
	products, err := c.store.ListProductsBySubcategory(ctx, id)
	if err != nil {
		return err
	}
	if len(products) > 0 {
		return NewFailedPrecondition("subcategory has %d products", len(products))
	}
	return notFound(c.store.DeleteSubcategory(ctx, id), "subcategory")
}

// --- products ---

type ProductFilter struct {
	Query       string
	Featured    bool
	CategoryID  string
	Subcategory string
}

func (c *Catalog) Product(ctx context.Context, id string) (entity.Product, error) {
	p, err := c.store.GetProduct(ctx, id)
	if err != nil {
		return entity.Product{}, notFound(err, "product")
	}
	return p, nil
}

// Products отдаёт товары по фильтру: подкатегория, категория, избранные и поиск по тексту
func (c *Catalog) Products(ctx context.Context, f ProductFilter) ([]entity.Product, error) {
	var (
		products []entity.Product
		err      error
	)
	switch {
	case f.Subcategory != "":
		if _, err := c.Subcategory(ctx, f.Subcategory); err != nil {
			return nil, err
		}
		products, err = c.store.ListProductsBySubcategory(ctx, f.Subcategory)
	case f.CategoryID != "":
		products, err = c.productsOfCategory(ctx, f.CategoryID)
	default:
		products, err = c.store.ListProducts(ctx)
	}
	if err != nil {
		return nil, err
	}

	q := strings.ToLower(strings.TrimSpace(f.Query))
	out := make([]entity.Product, 0, len(products))
	for _, p := range products {
		if f.Featured && !p.Featured {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(p.Name), q) && !strings.Contains(strings.ToLower(p.Description), q) {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (c *Catalog) productsOfCategory(ctx context.Context, categoryID string) ([]entity.Product, error) {
	subs, err := c.SubcategoriesOf(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	var out []entity.Product
	for _, s := range subs {
		products, err := c.store.ListProductsBySubcategory(ctx, s.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, products...)
	}
	return out, nil
}

func (c *Catalog) Featured(ctx context.Context) ([]entity.Product, error) {
	return c.Products(ctx, ProductFilter{Featured: true})
}

func (c *Catalog) Search(ctx context.Context, query string) ([]entity.Product, error) {
	return c.Products(ctx, ProductFilter{Query: query})
}

func (c *Catalog) checkProduct(ctx context.Context, p entity.Product) error {
	if err := entity.Validate.Struct(p); err != nil {
		return invalid(err)
	}
	if p.Price.IsNegative() {
		return NewInvalidArgument("price must not be negative")
	}
	if p.CostPrice.IsNegative() {
		return NewInvalidArgument("cost price must not be negative")
	}
	if _, err := pricing.NewTiers(p.Discounts); err != nil {
		return NewInvalidArgument("%s", err.Error())
	}
	if _, err := c.store.GetSubcategory(ctx, p.SubcategoryID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return NewInvalidArgument("subcategory %s does not exist", p.SubcategoryID)
		}
		return err
	}
	return nil
}

func (c *Catalog) CreateProduct(ctx context.Context, p entity.Product) (entity.Product, error) {
	p.Name = strings.TrimSpace(p.Name)
	if err := c.checkProduct(ctx, p); err != nil {
		return entity.Product{}, err
	}
	return c.store.CreateProduct(ctx, p)
}

// UpdateProduct меняет карточку товара. Остаток из p не берётся: без stock он остаётся прежним,
// а заданный stock применяется разницей через AdjustStock, чтобы не затереть списания заказов
func (c *Catalog) UpdateProduct(ctx context.Context, p entity.Product, stock *int) (entity.Product, error) {
	current, err := c.Product(ctx, p.ID)
	if err != nil {
		return entity.Product{}, err
	}
	p.Name = strings.TrimSpace(p.Name)
	p.Stock = current.Stock
	if stock != nil {
		p.Stock = *stock
	}
	if err := c.checkProduct(ctx, p); err != nil {
		return entity.Product{}, err
	}
	updated, err := c.store.UpdateProduct(ctx, p)
	if err != nil {
		return entity.Product{}, notFound(err, "product")
	}
	if stock == nil {
		return updated, nil
	}
	if delta := *stock - current.Stock; delta != 0 {
		left, err := c.store.AdjustStock(ctx, p.ID, delta)
		if errors.Is(err, storage.ErrInsufficientStock) {
			return entity.Product{}, NewFailedPrecondition("stock of product %s would become negative", p.ID)
		}
		if err != nil {
			return entity.Product{}, notFound(err, "product")
		}
		updated.Stock = left
	}
	return updated, nil
}

func (c *Catalog) DeleteProduct(ctx context.Context, id string) error {
	return notFound(c.store.DeleteProduct(ctx, id), "product")
}

// Quote считает цену товара для количества по текущим ступеням скидок
func (c *Catalog) Quote(ctx context.Context, productID string, quantity int) (pricing.Quote, error) {
	if quantity <= 0 {
		return pricing.Quote{}, NewInvalidArgument("%s", pricing.ErrInvalidQuantity.Error())
	}
	p, err := c.Product(ctx, productID)
	if err != nil {
		return pricing.Quote{}, err
	}
	q, err := pricing.QuoteProduct(p, quantity)
	if err != nil {
		return pricing.Quote{}, NewInvalidArgument("%s", err.Error())
	}
	return q, nil
}
