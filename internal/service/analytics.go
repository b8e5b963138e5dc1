package service

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/Asus/lattkia_store/internal/entity"
	"github.com/Asus/lattkia_store/internal/pricing"
	"github.com/Asus/lattkia_store/internal/storage"

	"github.com/shopspring/decimal"
)

type Range string

const (
	RangeDay     Range = "day"
	RangeWeek    Range = "week"
	RangeMonth   Range = "month"
	RangeQuarter Range = "quarter"
	RangeYear    Range = "year"
	RangeAll     Range = "all"
)

const (
	topProductsLimit = 5
	uncategorized    = "Uncategorized"
)

// ParseRange: пустая строка значит месяц, как на странице прибыли
func ParseRange(s string) (Range, error) {
	switch r := Range(strings.ToLower(strings.TrimSpace(s))); r {
	case "":
		return RangeMonth, nil
	case RangeDay, RangeWeek, RangeMonth, RangeQuarter, RangeYear, RangeAll:
		return r, nil
	}
	return "", NewInvalidArgument("unknown range %q", s)
}

// Since - начало периода; для all нулевое время
func (r Range) Since(now time.Time) time.Time {
	switch r {
	case RangeDay:
		return now.AddDate(0, 0, -1)
	case RangeWeek:
		return now.AddDate(0, 0, -7)
	case RangeMonth:
		return now.AddDate(0, -1, 0)
	case RangeQuarter:
		return now.AddDate(0, -3, 0)
	case RangeYear:
		return now.AddDate(-1, 0, 0)
	}
	return time.Time{}
}

type ProductProfit struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	Sales     decimal.Decimal `json:"sales"`
	Profit    decimal.Decimal `json:"profit"`
}

type CategoryProfit struct {
	CategoryID string          `json:"categoryId"`
	Name       string          `json:"name"`
	Sales      decimal.Decimal `json:"sales"`
	Profit     decimal.Decimal `json:"profit"`
}

type TrendPoint struct {
	Date   string          `json:"date"`
	Profit decimal.Decimal `json:"profit"`
}

type Share struct {
	Name  string          `json:"name"`
	Value decimal.Decimal `json:"value"`
}

// Dashboard - сводка прибыли за период. Суммы округлены до копеек
type Dashboard struct {
	Range                Range            `json:"range"`
	From                 *time.Time       `json:"from,omitempty"`
	To                   time.Time        `json:"to"`
	Orders               int              `json:"orders"`
	TotalSales           decimal.Decimal  `json:"totalSales"`
	TotalProfit          decimal.Decimal  `json:"totalProfit"`
	AverageMargin        decimal.Decimal  `json:"averageMargin"`
	TopProducts          []ProductProfit  `json:"topProducts"`
	CategoryProfits      []CategoryProfit `json:"categoryProfits"`
	ProfitTrend          []TrendPoint     `json:"profitTrend"`
	CategoryDistribution []Share          `json:"categoryDistribution"`
}

type analyticsStore interface {
	storage.OrderRepository
	storage.ProductRepository
	storage.SubcategoryRepository
	storage.CategoryRepository
}

type Analytics struct {
	store analyticsStore
	now   func() time.Time
}

func NewAnalytics(store analyticsStore) *Analytics {
	return &Analytics{store: store, now: func() time.Time { return time.Now().UTC() }}
}

// categoryIndex: товар -> категория через подкатегорию
func (a *Analytics) categoryIndex(ctx context.Context) (map[string]entity.Category, error) {
	products, err := a.store.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	subs, err := a.store.ListSubcategories(ctx)
	if err != nil {
		return nil, err
	}
	cats, err := a.store.ListCategories(ctx)
	if err != nil {
		return nil, err
	}

	catByID := make(map[string]entity.Category, len(cats))
	for _, c := range cats {
		catByID[c.ID] = c
	}
	catBySub := make(map[string]entity.Category, len(subs))
	for _, s := range subs {
		if c, ok := catByID[s.CategoryID]; ok {
			catBySub[s.ID] = c
		}
	}
	out := make(map[string]entity.Category, len(products))
	for _, p := range products {
		if c, ok := catBySub[p.SubcategoryID]; ok {
			out[p.ID] = c
		}
	}
	return out, nil
}

func (a *Analytics) Dashboard(ctx context.Context, r Range) (Dashboard, error) {
	orders, err := a.store.ListOrders(ctx)
	if err != nil {
		return Dashboard{}, fmt.Errorf("failed to load orders: %w", err)
	}
	categories, err := a.categoryIndex(ctx)
	if err != nil {
		return Dashboard{}, fmt.Errorf("failed to load catalog: %w", err)
	}

	now := a.now()
	since := r.Since(now)
	d := Dashboard{Range: r, To: now}
	if !since.IsZero() {
		d.From = &since
	}

	var (
		sales, profit = decimal.Zero, decimal.Zero
		byProduct     = map[string]*ProductProfit{}
		byCategory    = map[string]*CategoryProfit{}
		byDay         = map[string]decimal.Decimal{}
	)
	for _, o := range orders {
		if o.Status == entity.StatusCancelled || o.CreatedAt.Before(since) || o.CreatedAt.After(now) {
			continue
		}
		d.Orders++
		day := o.CreatedAt.UTC().Format(time.DateOnly)
		for _, it := range o.Items {
			qty := decimal.NewFromInt(int64(it.Quantity))
			lineSales := it.Price.Mul(qty)
			lineProfit := it.Price.Sub(it.CostPrice).Mul(qty)
			sales = sales.Add(lineSales)
			profit = profit.Add(lineProfit)
			byDay[day] = byDay[day].Add(lineProfit)

			pp, ok := byProduct[it.ProductID]
			if !ok {
				pp = &ProductProfit{ProductID: it.ProductID, Name: it.ProductName}
				byProduct[it.ProductID] = pp
			}
			pp.Quantity += it.Quantity
			pp.Sales = pp.Sales.Add(lineSales)
			pp.Profit = pp.Profit.Add(lineProfit)

			cat, ok := categories[it.ProductID]
			if !ok {
				cat = entity.Category{ID: "", Name: uncategorized}
			}
			cp, ok := byCategory[cat.ID]
			if !ok {
				cp = &CategoryProfit{CategoryID: cat.ID, Name: cat.Name}
				byCategory[cat.ID] = cp
			}
			cp.Sales = cp.Sales.Add(lineSales)
			cp.Profit = cp.Profit.Add(lineProfit)
		}
	}

	d.TotalSales = pricing.Round(sales)
	d.TotalProfit = pricing.Round(profit)
	d.AverageMargin = decimal.Zero
	if sales.IsPositive() {
		d.AverageMargin = pricing.Round(profit.Div(sales).Mul(decimal.NewFromInt(100)))
	}

	d.TopProducts = make([]ProductProfit, 0, len(byProduct))
	for _, pp := range byProduct {
		d.TopProducts = append(d.TopProducts, *pp)
	}
	slices.SortFunc(d.TopProducts, func(x, y ProductProfit) int {
		if c := y.Profit.Cmp(x.Profit); c != 0 {
			return c
		}
		return cmp.Compare(x.ProductID, y.ProductID)
	})
	if len(d.TopProducts) > topProductsLimit {
		d.TopProducts = d.TopProducts[:topProductsLimit]
	}
	for i := range d.TopProducts {
		d.TopProducts[i].Sales = pricing.Round(d.TopProducts[i].Sales)
		d.TopProducts[i].Profit = pricing.Round(d.TopProducts[i].Profit)
	}

	d.CategoryProfits = make([]CategoryProfit, 0, len(byCategory))
	for _, cp := range byCategory {
		d.CategoryProfits = append(d.CategoryProfits, *cp)
	}
	slices.SortFunc(d.CategoryProfits, func(x, y CategoryProfit) int {
		if c := y.Profit.Cmp(x.Profit); c != 0 {
			return c
		}
		return cmp.Compare(x.Name, y.Name)
	})
	d.CategoryDistribution = make([]Share, 0, len(d.CategoryProfits))
	for i := range d.CategoryProfits {
		d.CategoryDistribution = append(d.CategoryDistribution, Share{
			Name:  d.CategoryProfits[i].Name,
			Value: pricing.Round(d.CategoryProfits[i].Sales),
		})
		d.CategoryProfits[i].Sales = pricing.Round(d.CategoryProfits[i].Sales)
		d.CategoryProfits[i].Profit = pricing.Round(d.CategoryProfits[i].Profit)
	}

	d.ProfitTrend = make([]TrendPoint, 0, len(byDay))
	for day, p := range byDay {
		d.ProfitTrend = append(d.ProfitTrend, TrendPoint{Date: day, Profit: pricing.Round(p)})
	}
	slices.SortFunc(d.ProfitTrend, func(x, y TrendPoint) int { return cmp.Compare(x.Date, y.Date) })

	return d, nil
}
