// Package charts renders report data as PNG images.
package charts

import (
	"bytes"
	"fmt"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"registru/internal/core"
)

// IncomeExpenseBars draws one bar per operation type. Both types are always
// drawn so an empty period renders two zero bars instead of failing.
func IncomeExpenseBars(title string, totals []core.TypeTotal) ([]byte, error) {
	amounts := map[core.TransactionType]float64{}
	for _, t := range totals {
		amounts[t.Type] = t.Total.InexactFloat64()
	}

	income, expense := amounts[core.Income], amounts[core.Expense]
	top := max(income, expense)
	if top <= 0 {
		top = 1
	}

	graph := chart.BarChart{
		Title: title,
		TitleStyle: chart.Style{
			FontSize:  14,
			FontColor: chart.ColorBlack,
		},
		Width:    800,
		Height:   500,
		BarWidth: 120,
		Background: chart.Style{
			Padding:   chart.Box{Top: 50, Left: 50, Right: 50, Bottom: 50},
			FillColor: chart.ColorWhite,
		},
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: top * 1.1},
			ValueFormatter: func(v interface{}) string {
				return fmt.Sprintf("%.0f %s", v.(float64), core.Currency)
			},
			Style: chart.Style{FontSize: 12, FontColor: chart.ColorBlack},
		},
		Bars: []chart.Value{
			bar(string(core.Income), income, chart.ColorGreen),
			bar(string(core.Expense), expense, chart.ColorRed),
		},
	}

	buf := bytes.NewBuffer(nil)
	if err := graph.Render(chart.PNG, buf); err != nil {
		return nil, fmt.Errorf("render income/expense chart: %w", err)
	}
	return buf.Bytes(), nil
}

func bar(label string, value float64, color drawing.Color) chart.Value {
	return chart.Value{
		Label: fmt.Sprintf("%s: %.2f", label, value),
		Value: value,
		Style: chart.Style{
			StrokeColor: color,
			FillColor:   color.WithAlpha(160),
			FontSize:    12,
			FontColor:   chart.ColorBlack,
		},
	}
}
