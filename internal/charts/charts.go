// Package charts renders PNG visualizations of ledger statistics: a
// monthly income/expense trend line and a category breakdown pie.
package charts

import (
	"bytes"
	"fmt"
	"time"

	"github.com/wcharczuk/go-chart/v2"

	"github.com/zhangyujiu/HouseKeeper/internal/core"
	"github.com/zhangyujiu/HouseKeeper/internal/dates"
	"github.com/zhangyujiu/HouseKeeper/internal/stats"
)

type Renderer struct{}

func NewRenderer() *Renderer {
	return &Renderer{}
}

// MonthlyTrend renders income and expense per month as two time series.
// Returns nil bytes when the series has fewer than two points, which is
// not enough to draw a line.
func (r *Renderer) MonthlyTrend(series []stats.MonthPoint) ([]byte, error) {
	if len(series) < 2 {
		return nil, nil
	}

	xValues := make([]time.Time, len(series))
	incomeValues := make([]float64, len(series))
	expenseValues := make([]float64, len(series))
	for i, point := range series {
		month, err := time.Parse(dates.MonthKeyLayout, point.Month)
		if err != nil {
			return nil, fmt.Errorf("parse month key %q: %w", point.Month, err)
		}
		xValues[i] = month
		incomeValues[i] = point.Income.Units()
		expenseValues[i] = point.Expense.Units()
	}

	graph := chart.Chart{
		Width:  1200,
		Height: 500,
		Background: chart.Style{
			Padding: chart.Box{
				Top:    50,
				Left:   25,
				Right:  25,
				Bottom: 10,
			},
			FillColor: chart.ColorWhite,
		},
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeValueFormatterWithFormat(dates.MonthKeyLayout),
			Style: chart.Style{
				FontColor: chart.ColorBlack,
			},
		},
		YAxis: chart.YAxis{
			Style: chart.Style{
				FontColor: chart.ColorBlack,
			},
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    "收入",
				XValues: xValues,
				YValues: incomeValues,
				Style: chart.Style{
					StrokeColor: chart.ColorGreen,
					StrokeWidth: 2,
				},
			},
			chart.TimeSeries{
				Name:    "支出",
				XValues: xValues,
				YValues: expenseValues,
				Style: chart.Style{
					StrokeColor: chart.ColorRed,
					StrokeWidth: 2,
				},
			},
		},
	}

	graph.Elements = []chart.Renderable{
		chart.Legend(&graph, chart.Style{
			FontColor: chart.ColorBlack,
		}),
	}

	buffer := bytes.NewBuffer([]byte{})
	if err := graph.Render(chart.PNG, buffer); err != nil {
		return nil, fmt.Errorf("render monthly trend: %w", err)
	}
	return buffer.Bytes(), nil
}

// CategoryPie renders the share of each category as a pie chart. Returns
// nil bytes when every share is zero.
func (r *Renderer) CategoryPie(shares []stats.CategoryShare) ([]byte, error) {
	values := make([]chart.Value, 0, len(shares))
	for _, share := range shares {
		if share.Amount.Cents <= 0 {
			continue
		}
		values = append(values, chart.Value{
			Label: fmt.Sprintf("%s %s: %s (%.1f%%)",
				share.Category.Icon, share.Category.Name,
				core.FormatCents(share.Amount.Cents), share.Percentage),
			Value: share.Amount.Units(),
		})
	}
	if len(values) == 0 {
		return nil, nil
	}

	pie := chart.PieChart{
		Width:  800,
		Height: 600,
		Values: values,
		Background: chart.Style{
			Padding: chart.Box{
				Top:    50,
				Left:   50,
				Right:  50,
				Bottom: 50,
			},
			FillColor: chart.ColorWhite,
		},
	}

	buffer := bytes.NewBuffer([]byte{})
	if err := pie.Render(chart.PNG, buffer); err != nil {
		return nil, fmt.Errorf("render category pie: %w", err)
	}
	return buffer.Bytes(), nil
}
