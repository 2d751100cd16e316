// Package charts renders the dashboard's spending trend and category
// breakdown as PNG images.
package charts

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/wcharczuk/go-chart/v2"

	"fintrack/internal/analytics"
)

// ErrNoData means there is nothing to draw; callers should show an empty
// state instead of an image.
var ErrNoData = errors.New("no data to chart")

const (
	width  = 900
	height = 400
)

// Trend draws income and expense per month as two lines.
func Trend(series []analytics.MonthTotals) ([]byte, error) {
	if len(series) < 2 || !hasActivity(series) {
		return nil, ErrNoData
	}

	xValues := make([]time.Time, len(series))
	income := make([]float64, len(series))
	expense := make([]float64, len(series))
	for i, m := range series {
		xValues[i] = time.Date(m.Year, time.Month(m.Month), 1, 0, 0, 0, 0, time.UTC)
		income[i] = m.Income.Float()
		expense[i] = m.Expense.Float()
	}

	graph := chart.Chart{
		Width:  width,
		Height: height,
		Background: chart.Style{
			Padding: chart.Box{
				Top:    20,
				Left:   20,
				Right:  20,
				Bottom: 20,
			},
			FillColor: chart.ColorWhite,
		},
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeValueFormatterWithFormat("Jan 2006"),
		},
		YAxis: chart.YAxis{
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("$%.0f", f)
				}
				return ""
			},
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    "Income",
				XValues: xValues,
				YValues: income,
				Style: chart.Style{
					StrokeColor: chart.ColorGreen,
					StrokeWidth: 2,
				},
			},
			chart.TimeSeries{
				Name:    "Expense",
				XValues: xValues,
				YValues: expense,
				Style: chart.Style{
					StrokeColor: chart.ColorRed,
					StrokeWidth: 2,
				},
			},
		},
	}
	graph.Elements = []chart.Renderable{
		chart.Legend(&graph),
	}

	buffer := bytes.NewBuffer([]byte{})
	if err := graph.Render(chart.PNG, buffer); err != nil {
		return nil, fmt.Errorf("render trend chart: %w", err)
	}
	return buffer.Bytes(), nil
}

// Categories draws the expense share of each category as a pie.
func Categories(categories []analytics.CategoryAmount) ([]byte, error) {
	values := make([]chart.Value, 0, len(categories))
	for _, c := range categories {
		if c.Amount.Cents <= 0 {
			continue
		}
		values = append(values, chart.Value{
			Label: fmt.Sprintf("%s (%.1f%%)", c.Category, c.Percentage),
			Value: c.Amount.Float(),
		})
	}
	if len(values) == 0 {
		return nil, ErrNoData
	}

	pie := chart.PieChart{
		Width:  height,
		Height: height,
		Values: values,
		Background: chart.Style{
			Padding: chart.Box{
				Top:    20,
				Left:   20,
				Right:  20,
				Bottom: 20,
			},
			FillColor: chart.ColorWhite,
		},
	}

	buffer := bytes.NewBuffer([]byte{})
	if err := pie.Render(chart.PNG, buffer); err != nil {
		return nil, fmt.Errorf("render category chart: %w", err)
	}
	return buffer.Bytes(), nil
}

func hasActivity(series []analytics.MonthTotals) bool {
	for _, m := range series {
		if m.Income.Cents != 0 || m.Expense.Cents != 0 {
			return true
		}
	}
	return false
}
