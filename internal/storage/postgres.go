package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Asus/lattkia_store/internal/entity"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	categoryColumns    = `id, name, image, slug, created_at, updated_at`
	subcategoryColumns = `id, name, category_id, image, created_at, updated_at`
	productColumns     = `id, name, description, price, cost_price, stock, subcategory_id, image, featured, created_at, updated_at`
	discountColumns    = `id, product_id, min_quantity, discount_percentage`
	orderColumns       = `id, user_id, status, created_at, updated_at, expected_delivery_time, total`
	itemColumns        = `id, order_id, product_id, product_name, quantity, price, cost_price`
	userColumns        = `id, name, email, phone, role, telegram_id, password_hash, created_at`
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS categories (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		image TEXT NOT NULL DEFAULT '',
		slug TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS subcategories (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		category_id TEXT NOT NULL REFERENCES categories(id),
		image TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS products (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		price NUMERIC NOT NULL,
		cost_price NUMERIC NOT NULL DEFAULT 0,
		stock INTEGER NOT NULL DEFAULT 0,
		subcategory_id TEXT NOT NULL REFERENCES subcategories(id),
		image TEXT NOT NULL DEFAULT '',
		featured BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS product_discounts (
		id TEXT PRIMARY KEY,
		product_id TEXT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
		min_quantity INTEGER NOT NULL CHECK (min_quantity > 0),
		discount_percentage NUMERIC NOT NULL CHECK (discount_percentage BETWEEN 0 AND 100),
		UNIQUE (product_id, min_quantity)
	)`,
	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		phone TEXT NOT NULL DEFAULT '',
		role TEXT NOT NULL,
		telegram_id TEXT NOT NULL DEFAULT '',
		password_hash TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS orders (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id),
		status TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL,
		expected_delivery_time TIMESTAMPTZ,
		total NUMERIC NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS order_items (
		id TEXT PRIMARY KEY,
		order_id TEXT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
		product_id TEXT NOT NULL,
		product_name TEXT NOT NULL,
		quantity INTEGER NOT NULL,
		price NUMERIC NOT NULL,
		cost_price NUMERIC NOT NULL
	)`,
}

// снимает масштаб с денежных колонок в базах, созданных со старой схемой NUMERIC(p,s).
// Итог заказа должен совпадать с суммой строк, поэтому Postgres не должен округлять цены
var numericColumns = []string{
	`ALTER TABLE products ALTER COLUMN price TYPE NUMERIC, ALTER COLUMN cost_price TYPE NUMERIC`,
	`ALTER TABLE product_discounts ALTER COLUMN discount_percentage TYPE NUMERIC`,
	`ALTER TABLE orders ALTER COLUMN total TYPE NUMERIC`,
	`ALTER TABLE order_items ALTER COLUMN price TYPE NUMERIC, ALTER COLUMN cost_price TYPE NUMERIC`,
}

// интерфейс, для того чтобы можно было запускать тесты с pgxmock
type DBPool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
	Ping(ctx context.Context) error
	Close()
}

type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

type Postgres struct {
	pool DBPool
	now  func() time.Time
}

func NewPostgres(ctx context.Context, cfg PostgresConfig) (*Postgres, error) {
	connStr := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.DBName,
	)

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to reach database: %w", err)
	}

	return newPostgres(pool), nil
}

func newPostgres(pool DBPool) *Postgres {
	return &Postgres{pool: pool, now: func() time.Time { return time.Now().UTC() }}
}

func (s *Postgres) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *Postgres) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// EnsureSchema создаёт таблицы, если их ещё нет
func (s *Postgres) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	for _, stmt := range numericColumns {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to migrate numeric columns: %w", err)
		}
	}
	return nil
}

// Bootstrap заливает стартовые данные в пустую базу
func (s *Postgres) Bootstrap(ctx context.Context, seed *Seed) error {
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM categories`).Scan(&n); err != nil {
		return fmt.Errorf("failed to count categories: %w", err)
	}
	if n > 0 {
		return nil
	}
	for _, c := range seed.Categories {
		if _, err := s.CreateCategory(ctx, c); err != nil {
			return err
		}
	}
	for _, sc := range seed.Subcategories {
		if _, err := s.CreateSubcategory(ctx, sc); err != nil {
			return err
		}
	}
	for _, p := range seed.Products {
		if _, err := s.CreateProduct(ctx, p); err != nil {
			return err
		}
	}
	for _, u := range seed.Users {
		if _, err := s.CreateUser(ctx, u); err != nil {
			return err
		}
	}
	for _, o := range seed.Orders {
		if _, err := s.CreateOrder(ctx, o); err != nil {
			return err
		}
	}
	slog.Info("Database bootstrapped with seed data", "categories", len(seed.Categories), "products", len(seed.Products))
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// inTx выполняет fn в транзакции: при ошибке откат, иначе коммит
func (s *Postgres) inTx(ctx context.Context, fn func(tx pgx.Tx) error) (err error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("error while starting transaction %w", err)
	}

	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				slog.Error("failed to rollback transaction", "error", rbErr)
			}
		}
	}() // если возникла ошибка, во время выполнения транзакции - откат

	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// --- categories ---

func scanCategory(row pgx.Row) (entity.Category, error) {
	var c entity.Category
	err := row.Scan(&c.ID, &c.Name, &c.Image, &c.Slug, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func (s *Postgres) GetCategory(ctx context.Context, id string) (entity.Category, error) {
	c, err := scanCategory(s.pool.QueryRow(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return entity.Category{}, fmt.Errorf("category %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return entity.Category{}, fmt.Errorf("failed to query category: %w", err)
	}
	return c, nil
}

func (s *Postgres) ListCategories(ctx context.Context) ([]entity.Category, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+categoryColumns+` FROM categories ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	var out []entity.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during rows iteration: %w", err)
	}
	return out, nil
}

func (s *Postgres) CreateCategory(ctx context.Context, c entity.Category) (entity.Category, error) {
	c.ID = newID(c.ID)
	if c.CreatedAt.IsZero() {
		c.CreatedAt = s.now()
	}
	c.UpdatedAt = c.CreatedAt
	_, err := s.pool.Exec(ctx,
		`INSERT INTO categories (`+categoryColumns+`) VALUES ($1, $2, $3, $4, $5, $6)`,
		c.ID, c.Name, c.Image, c.Slug, c.CreatedAt, c.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return entity.Category{}, fmt.Errorf("category %s: %w", c.ID, ErrConflict)
	}
	if err != nil {
		return entity.Category{}, fmt.Errorf("failed to insert into categories: %w", err)
	}
	return c, nil
}

func (s *Postgres) UpdateCategory(ctx context.Context, c entity.Category) (entity.Category, error) {
	c.UpdatedAt = s.now()
	updated, err := scanCategory(s.pool.QueryRow(ctx,
		`UPDATE categories SET name = $2, image = $3, slug = $4, updated_at = $5 WHERE id = $1 RETURNING `+categoryColumns,
		c.ID, c.Name, c.Image, c.Slug, c.UpdatedAt,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return entity.Category{}, fmt.Errorf("category %s: %w", c.ID, ErrNotFound)
	}
	if err != nil {
		return entity.Category{}, fmt.Errorf("failed to update category: %w", err)
	}
	return updated, nil
}

func (s *Postgres) DeleteCategory(ctx context.Context, id string) error {
	return s.deleteByID(ctx, "categories", "category", id)
}

// deleteByID: имя таблицы всегда константа из этого файла, а не пользовательский ввод
func (s *Postgres) deleteByID(ctx context.Context, table, kind, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM `+table+` WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete from %s: %w", table, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
	}
	return nil
}

// --- subcategories ---

func scanSubcategory(row pgx.Row) (entity.Subcategory, error) {
	var sc entity.Subcategory
	err := row.Scan(&sc.ID, &sc.Name, &sc.CategoryID, &sc.Image, &sc.CreatedAt, &sc.UpdatedAt)
	return sc, err
}

func (s *Postgres) GetSubcategory(ctx context.Context, id string) (entity.Subcategory, error) {
	sc, err := scanSubcategory(s.pool.QueryRow(ctx, `SELECT `+subcategoryColumns+` FROM subcategories WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return entity.Subcategory{}, fmt.Errorf("subcategory %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return entity.Subcategory{}, fmt.Errorf("failed to query subcategory: %w", err)
	}
	return sc, nil
}

func (s *Postgres) listSubcategories(ctx context.Context, query string, args ...any) ([]entity.Subcategory, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query subcategories: %w", err)
	}
	defer rows.Close()

	var out []entity.Subcategory
	for rows.Next() {
		sc, err := scanSubcategory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		out = append(out, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during rows iteration: %w", err)
	}
	return out, nil
}

func (s *Postgres) ListSubcategories(ctx context.Context) ([]entity.Subcategory, error) {
	return s.listSubcategories(ctx, `SELECT `+subcategoryColumns+` FROM subcategories ORDER BY created_at, id`)
}

func (s *Postgres) ListSubcategoriesByCategory(ctx context.Context, categoryID string) ([]entity.Subcategory, error) {
	return s.listSubcategories(ctx, `SELECT `+subcategoryColumns+` FROM subcategories WHERE category_id = $1 ORDER BY created_at, id`, categoryID)
}

func (s *Postgres) CreateSubcategory(ctx context.Context, sc entity.Subcategory) (entity.Subcategory, error) {
	sc.ID = newID(sc.ID)
	if sc.CreatedAt.IsZero() {
		sc.CreatedAt = s.now()
	}
	sc.UpdatedAt = sc.CreatedAt
	_, err := s.pool.Exec(ctx,
		`INSERT INTO subcategories (`+subcategoryColumns+`) VALUES ($1, $2, $3, $4, $5, $6)`,
		sc.ID, sc.Name, sc.CategoryID, sc.Image, sc.CreatedAt, sc.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return entity.Subcategory{}, fmt.Errorf("subcategory %s: %w", sc.ID, ErrConflict)
	}
	if err != nil {
		return entity.Subcategory{}, fmt.Errorf("failed to insert into subcategories: %w", err)
	}
	return sc, nil
}

func (s *Postgres) UpdateSubcategory(ctx context.Context, sc entity.Subcategory) (entity.Subcategory, error) {
	sc.UpdatedAt = s.now()
	updated, err := scanSubcategory(s.pool.QueryRow(ctx,
		`UPDATE subcategories SET name = $2, category_id = $3, image = $4, updated_at = $5 WHERE id = $1 RETURNING `+subcategoryColumns,
		sc.ID, sc.Name, sc.CategoryID, sc.Image, sc.UpdatedAt,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return entity.Subcategory{}, fmt.Errorf("subcategory %s: %w", sc.ID, ErrNotFound)
	}
	if err != nil {
		return entity.Subcategory{}, fmt.Errorf("failed to update subcategory: %w", err)
	}
	return updated, nil
}

func (s *Postgres) DeleteSubcategory(ctx context.Context, id string) error {
	return s.deleteByID(ctx, "subcategories", "subcategory", id)
}

// --- products ---

func scanProduct(row pgx.Row) (entity.Product, error) {
	var p entity.Product
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.CostPrice, &p.Stock,
		&p.SubcategoryID, &p.Image, &p.Featured, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

// attachDiscounts подтягивает ступени скидок одним запросом на все товары
func (s *Postgres) attachDiscounts(ctx context.Context, products []entity.Product) error {
	if len(products) == 0 {
		return nil
	}
	ids := make([]string, 0, len(products))
	index := make(map[string]int, len(products))
	for i, p := range products {
		ids = append(ids, p.ID)
		index[p.ID] = i
	}

	rows, err := s.pool.Query(ctx,
		`SELECT `+discountColumns+` FROM product_discounts WHERE product_id = ANY($1) ORDER BY product_id, min_quantity`, ids)
	if err != nil {
		return fmt.Errorf("failed to query discounts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var d entity.Discount
		if err := rows.Scan(&d.ID, &d.ProductID, &d.MinQuantity, &d.DiscountPercentage); err != nil {
			return fmt.Errorf("failed to scan row: %w", err)
		}
		if i, ok := index[d.ProductID]; ok {
			products[i].Discounts = append(products[i].Discounts, d)
		}
	}
	return rows.Err()
}

func (s *Postgres) GetProduct(ctx context.Context, id string) (entity.Product, error) {
	p, err := scanProduct(s.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return entity.Product{}, fmt.Errorf("product %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return entity.Product{}, fmt.Errorf("failed to query product: %w", err)
	}
	out := []entity.Product{p}
	if err := s.attachDiscounts(ctx, out); err != nil {
		return entity.Product{}, err
	}
	return out[0], nil
}

func (s *Postgres) listProducts(ctx context.Context, query string, args ...any) ([]entity.Product, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}

	var out []entity.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		out = append(out, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during rows iteration: %w", err)
	}

	if err := s.attachDiscounts(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Postgres) ListProducts(ctx context.Context) ([]entity.Product, error) {
	return s.listProducts(ctx, `SELECT `+productColumns+` FROM products ORDER BY created_at, id`)
}

func (s *Postgres) ListProductsBySubcategory(ctx context.Context, subcategoryID string) ([]entity.Product, error) {
	return s.listProducts(ctx, `SELECT `+productColumns+` FROM products WHERE subcategory_id = $1 ORDER BY created_at, id`, subcategoryID)
}

func copyDiscounts(ctx context.Context, tx pgx.Tx, p entity.Product) error {
	if len(p.Discounts) == 0 {
		return nil
	}
	cols := []string{"id", "product_id", "min_quantity", "discount_percentage"}
	rows := make([][]any, 0, len(p.Discounts))
	for _, d := range p.Discounts {
		rows = append(rows, []any{d.ID, p.ID, d.MinQuantity, d.DiscountPercentage})
	}
	if _, err := tx.CopyFrom(ctx, pgx.Identifier{"product_discounts"}, cols, pgx.CopyFromRows(rows)); err != nil {
		return fmt.Errorf("failed to copy into product_discounts: %w", err)
	}
	return nil
}

// CreateProduct сохраняет товар и его скидки в одной транзакции
func (s *Postgres) CreateProduct(ctx context.Context, p entity.Product) (entity.Product, error) {
	p = p.Clone()
	p.ID = newID(p.ID)
	prepareDiscounts(&p)
	if p.CreatedAt.IsZero() {
		p.CreatedAt = s.now()
	}
	p.UpdatedAt = p.CreatedAt

	err := s.inTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`INSERT INTO products (`+productColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			p.ID, p.Name, p.Description, p.Price, p.CostPrice, p.Stock, p.SubcategoryID, p.Image, p.Featured, p.CreatedAt, p.UpdatedAt,
		)
		if isUniqueViolation(err) {
			return fmt.Errorf("product %s: %w", p.ID, ErrConflict)
		}
		if err != nil {
			return fmt.Errorf("failed to insert into products: %w", err)
		}
		return copyDiscounts(ctx, tx, p)
	})
	if err != nil {
		return entity.Product{}, err
	}
	return p, nil
}

// UpdateProduct переписывает товар и заменяет набор скидок целиком
func (s *Postgres) UpdateProduct(ctx context.Context, p entity.Product) (entity.Product, error) {
	p = p.Clone()
	prepareDiscounts(&p)
	p.UpdatedAt = s.now()

	err := s.inTx(ctx, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`UPDATE products SET name = $2, description = $3, price = $4, cost_price = $5,
			 subcategory_id = $6, image = $7, featured = $8, updated_at = $9 WHERE id = $1 RETURNING created_at, stock`,
			p.ID, p.Name, p.Description, p.Price, p.CostPrice, p.SubcategoryID, p.Image, p.Featured, p.UpdatedAt,
		).Scan(&p.CreatedAt, &p.Stock)
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("product %s: %w", p.ID, ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("failed to update product: %w", err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM product_discounts WHERE product_id = $1`, p.ID); err != nil {
			return fmt.Errorf("failed to clear discounts: %w", err)
		}
		return copyDiscounts(ctx, tx, p)
	})
	if err != nil {
		return entity.Product{}, err
	}
	return p, nil
}

func (s *Postgres) DeleteProduct(ctx context.Context, id string) error {
	return s.deleteByID(ctx, "products", "product", id)
}

func (s *Postgres) AdjustStock(ctx context.Context, id string, delta int) (int, error) {
	var stock int
	err := s.pool.QueryRow(ctx,
		`UPDATE products SET stock = stock + $2, updated_at = $3 WHERE id = $1 AND stock + $2 >= 0 RETURNING stock`,
		id, delta, s.now(),
	).Scan(&stock)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("product %s: missing or %w", id, ErrInsufficientStock)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to adjust stock: %w", err)
	}
	return stock, nil
}

// --- orders ---

func scanOrder(row pgx.Row) (entity.Order, error) {
	var (
		o      entity.Order
		status string
	)
	err := row.Scan(&o.ID, &o.UserID, &status, &o.CreatedAt, &o.UpdatedAt, &o.ExpectedDeliveryTime, &o.Total)
	o.Status = entity.OrderStatus(status)
	return o, err
}

// attachItems собирает позиции заказов через map, как при восстановлении кэша
func (s *Postgres) attachItems(ctx context.Context, orders []entity.Order) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]string, 0, len(orders))
	index := make(map[string]int, len(orders))
	for i, o := range orders {
		ids = append(ids, o.ID)
		index[o.ID] = i
	}

	rows, err := s.pool.Query(ctx, `SELECT `+itemColumns+` FROM order_items WHERE order_id = ANY($1) ORDER BY order_id, id`, ids)
	if err != nil {
		return fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var it entity.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.ProductName, &it.Quantity, &it.Price, &it.CostPrice); err != nil {
			return fmt.Errorf("failed to scan row: %w", err)
		}
		if i, ok := index[it.OrderID]; ok {
			orders[i].Items = append(orders[i].Items, it)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error during rows iteration: %w", err)
	}
	return nil
}

// GetOrder находит один заказ по его ID
func (s *Postgres) GetOrder(ctx context.Context, id string) (entity.Order, error) {
	o, err := scanOrder(s.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return entity.Order{}, fmt.Errorf("order %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return entity.Order{}, fmt.Errorf("failed to query order: %w", err)
	}
	out := []entity.Order{o}
	if err := s.attachItems(ctx, out); err != nil {
		return entity.Order{}, err
	}
	return out[0], nil
}

func (s *Postgres) listOrders(ctx context.Context, query string, args ...any) ([]entity.Order, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query all orders: %w", err)
	}

	var orders []entity.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		orders = append(orders, o)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during rows iteration: %w", err)
	}

	if err := s.attachItems(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// ListOrders загружает все заказы, например для восстановления кэша
func (s *Postgres) ListOrders(ctx context.Context) ([]entity.Order, error) {
	return s.listOrders(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC, id DESC`)
}

func (s *Postgres) ListOrdersByUser(ctx context.Context, userID string) ([]entity.Order, error) {
	return s.listOrders(ctx, `SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY created_at DESC, id DESC`, userID)
}

// CreateOrder сохраняет заказ в БД в рамках одной транзакции
func (s *Postgres) CreateOrder(ctx context.Context, o entity.Order) (entity.Order, error) {
	o = o.Clone()
	o.ID = newID(o.ID)
	if o.CreatedAt.IsZero() {
		o.CreatedAt = s.now()
	}
	if o.UpdatedAt.IsZero() {
		o.UpdatedAt = o.CreatedAt
	}
	for i := range o.Items {
		o.Items[i].ID = newID(o.Items[i].ID)
		o.Items[i].OrderID = o.ID
	}

	err := s.inTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`INSERT INTO orders (`+orderColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			o.ID, o.UserID, string(o.Status), o.CreatedAt, o.UpdatedAt, o.ExpectedDeliveryTime, o.Total,
		)
		if isUniqueViolation(err) {
			return fmt.Errorf("order %s: %w", o.ID, ErrConflict)
		}
		if err != nil {
			return fmt.Errorf("failed to insert into orders: %w", err)
		}

		// позиции грузим через CopyFrom
		cols := []string{"id", "order_id", "product_id", "product_name", "quantity", "price", "cost_price"}
		rows := make([][]any, 0, len(o.Items))
		for _, it := range o.Items {
			rows = append(rows, []any{it.ID, o.ID, it.ProductID, it.ProductName, it.Quantity, it.Price, it.CostPrice})
		}
		if _, err := tx.CopyFrom(ctx, pgx.Identifier{"order_items"}, cols, pgx.CopyFromRows(rows)); err != nil {
			return fmt.Errorf("failed to copy into order_items: %w", err)
		}
		return nil
	})
	if err != nil {
		return entity.Order{}, err
	}
	slog.Info("Order successfully saved to database", "order_id", o.ID)
	return o, nil
}

// UpdateOrder меняет статус и срок доставки, позиции не трогаются
func (s *Postgres) UpdateOrder(ctx context.Context, o entity.Order) (entity.Order, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE orders SET status = $2, expected_delivery_time = COALESCE($3, expected_delivery_time), updated_at = $4 WHERE id = $1`,
		o.ID, string(o.Status), o.ExpectedDeliveryTime, s.now(),
	)
	if err != nil {
		return entity.Order{}, fmt.Errorf("failed to update order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return entity.Order{}, fmt.Errorf("order %s: %w", o.ID, ErrNotFound)
	}
	return s.GetOrder(ctx, o.ID)
}

func (s *Postgres) DeleteOrder(ctx context.Context, id string) error {
	return s.deleteByID(ctx, "orders", "order", id)
}

// --- users ---

func scanUser(row pgx.Row) (entity.User, error) {
	var (
		u    entity.User
		role string
	)
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &role, &u.TelegramID, &u.PasswordHash, &u.CreatedAt)
	u.Role = entity.Role(role)
	return u, err
}

func (s *Postgres) getUserBy(ctx context.Context, column, value string) (entity.User, error) {
	u, err := scanUser(s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE `+column+` = $1`, value))
	if errors.Is(err, pgx.ErrNoRows) {
		return entity.User{}, fmt.Errorf("user %s: %w", value, ErrNotFound)
	}
	if err != nil {
		return entity.User{}, fmt.Errorf("failed to query user: %w", err)
	}
	return u, nil
}

func (s *Postgres) GetUser(ctx context.Context, id string) (entity.User, error) {
	return s.getUserBy(ctx, "id", id)
}

func (s *Postgres) GetUserByEmail(ctx context.Context, email string) (entity.User, error) {
	return s.getUserBy(ctx, "lower(email)", strings.ToLower(email))
}

func (s *Postgres) ListUsers(ctx context.Context) ([]entity.User, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var out []entity.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during rows iteration: %w", err)
	}
	return out, nil
}

func (s *Postgres) CreateUser(ctx context.Context, u entity.User) (entity.User, error) {
	u.ID = newID(u.ID)
	if u.CreatedAt.IsZero() {
		u.CreatedAt = s.now()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		u.ID, u.Name, u.Email, u.Phone, string(u.Role), u.TelegramID, u.PasswordHash, u.CreatedAt,
	)
	if isUniqueViolation(err) {
		return entity.User{}, fmt.Errorf("user %s: %w", u.Email, ErrConflict)
	}
	if err != nil {
		return entity.User{}, fmt.Errorf("failed to insert into users: %w", err)
	}
	return u, nil
}

func (s *Postgres) UpdateUser(ctx context.Context, u entity.User) (entity.User, error) {
	updated, err := scanUser(s.pool.QueryRow(ctx,
		`UPDATE users SET name = $2, email = $3, phone = $4, role = $5, telegram_id = $6,
		 password_hash = COALESCE(NULLIF($7, ''), password_hash) WHERE id = $1 RETURNING `+userColumns,
		u.ID, u.Name, u.Email, u.Phone, string(u.Role), u.TelegramID, u.PasswordHash,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return entity.User{}, fmt.Errorf("user %s: %w", u.ID, ErrNotFound)
	}
	if isUniqueViolation(err) {
		return entity.User{}, fmt.Errorf("user %s: %w", u.Email, ErrConflict)
	}
	if err != nil {
		return entity.User{}, fmt.Errorf("failed to update user: %w", err)
	}
	return updated, nil
}

func (s *Postgres) DeleteUser(ctx context.Context, id string) error {
	return s.deleteByID(ctx, "users", "user", id)
}
