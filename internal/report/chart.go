package report

import (
	"errors"
	"fmt"
	"io"

	"github.com/Asus/lattkia_store/internal/service"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

type ChartKind string

const (
	ChartProfitTrend          ChartKind = "profit-trend"
	ChartTopProducts          ChartKind = "top-products"
	ChartCategoryDistribution ChartKind = "category-distribution"
)

var ErrUnknownChart = errors.New("unknown chart")

// Point - одна точка серии графика
type Point struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// Series строит серию графика из сводки
func Series(kind ChartKind, dash service.Dashboard) ([]Point, error) {
	var points []Point
	switch kind {
	case ChartProfitTrend:
		for _, p := range dash.ProfitTrend {
			points = append(points, Point{Label: p.Date, Value: p.Profit.InexactFloat64()})
		}
	case ChartTopProducts:
		for _, p := range dash.TopProducts {
			points = append(points, Point{Label: p.Name, Value: p.Profit.InexactFloat64()})
		}
	case ChartCategoryDistribution:
		for _, s := range dash.CategoryDistribution {
			points = append(points, Point{Label: s.Name, Value: s.Value.InexactFloat64()})
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownChart, kind)
	}
	return points, nil
}

// RenderChart пишет html страницу с графиком
func RenderChart(w io.Writer, kind ChartKind, dash service.Dashboard) error {
	points, err := Series(kind, dash)
	if err != nil {
		return err
	}
	title := charts.WithTitleOpts(opts.Title{Title: chartTitle(kind), Subtitle: string(dash.Range)})

	labels := make([]string, len(points))
	for i, p := range points {
		labels[i] = p.Label
	}

	switch kind {
	case ChartProfitTrend:
		line := charts.NewLine()
		line.SetGlobalOptions(title)
		data := make([]opts.LineData, len(points))
		for i, p := range points {
			data[i] = opts.LineData{Value: p.Value}
		}
		line.SetXAxis(labels).AddSeries("Profit", data)
		return line.Render(w)

	case ChartTopProducts:
		bar := charts.NewBar()
		bar.SetGlobalOptions(title)
		data := make([]opts.BarData, len(points))
		for i, p := range points {
			data[i] = opts.BarData{Value: p.Value}
		}
		bar.SetXAxis(labels).AddSeries("Profit", data)
		return bar.Render(w)
	}

	pie := charts.NewPie()
	pie.SetGlobalOptions(title)
	data := make([]opts.PieData, len(points))
	for i, p := range points {
		data[i] = opts.PieData{Name: p.Label, Value: p.Value}
	}
	pie.AddSeries("Sales", data)
	return pie.Render(w)
}

func chartTitle(kind ChartKind) string {
	switch kind {
	case ChartProfitTrend:
		return "Profit trend"
	case ChartTopProducts:
		return "Top products by profit"
	}
	return "Sales by category"
}
