package report

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/Asus/lattkia_store/internal/entity"
	"github.com/Asus/lattkia_store/internal/service"

	"github.com/xuri/excelize/v2"
)

const (
	SheetSummary    = "Summary"
	SheetTop        = "Top Products"
	SheetCategories = "Categories"
	SheetTrend      = "Trend"
	SheetOrders     = "Orders"
)

const dateLayout = "2006-01-02 15:04"

// WriteWorkbook выгружает сводку и список заказов в xlsx
func WriteWorkbook(w io.Writer, dash service.Dashboard, orders []entity.Order) error {
	f := excelize.NewFile()
	defer f.Close()

	// у новой книги уже есть Sheet1
	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}
	for _, name := range []string{SheetTop, SheetCategories, SheetTrend, SheetOrders} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", name, err)
		}
	}

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	from := "all time"
	if dash.From != nil {
		from = dash.From.Format(dateLayout)
	}
	summary := [][]any{
		{"Metric", "Value"},
		{"Range", string(dash.Range)},
		{"From", from},
		{"To", dash.To.Format(dateLayout)},
		{"Orders", dash.Orders},
		{"Total sales", dash.TotalSales.InexactFloat64()},
		{"Total profit", dash.TotalProfit.InexactFloat64()},
		{"Average margin, %", dash.AverageMargin.InexactFloat64()},
	}

	top := [][]any{{"Product ID", "Name", "Quantity", "Sales", "Profit"}}
	for _, p := range dash.TopProducts {
		top = append(top, []any{p.ProductID, p.Name, p.Quantity, p.Sales.InexactFloat64(), p.Profit.InexactFloat64()})
	}

	categories := [][]any{{"Category ID", "Name", "Sales", "Profit"}}
	for _, c := range dash.CategoryProfits {
		categories = append(categories, []any{c.CategoryID, c.Name, c.Sales.InexactFloat64(), c.Profit.InexactFloat64()})
	}

	trend := [][]any{{"Date", "Profit"}}
	for _, p := range dash.ProfitTrend {
		trend = append(trend, []any{p.Date, p.Profit.InexactFloat64()})
	}

	rows := [][]any{{"Order ID", "User ID", "Status", "Created", "Items", "Total"}}
	for _, o := range orders {
		items := 0
		for _, it := range o.Items {
			items += it.Quantity
		}
		rows = append(rows, []any{o.ID, o.UserID, string(o.Status), o.CreatedAt.Format(dateLayout), items, o.Total.Round(2).InexactFloat64()})
	}

	sheets := []struct {
		name string
		rows [][]any
	}{
		{SheetSummary, summary},
		{SheetTop, top},
		{SheetCategories, categories},
		{SheetTrend, trend},
		{SheetOrders, rows},
	}
	for _, s := range sheets {
		if err := writeRows(f, s.name, s.rows, header); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	slog.Info("Dashboard workbook written", "range", dash.Range, "orders", len(orders))
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any, headerStyle int) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to fill %s: %w", sheet, err)
		}
	}
	if len(rows) == 0 {
		return nil
	}

	last, err := excelize.ColumnNumberToName(len(rows[0]))
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last+"1", headerStyle); err != nil {
		return err
	}
	return f.SetColWidth(sheet, "A", last, 18)
}
