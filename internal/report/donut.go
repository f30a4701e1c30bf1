package report

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"drb-balance-bot/internal/balance"
)

// DonutOptions size the rendered chart.
type DonutOptions struct {
	Width  int
	Height int
}

// Donut renders the balance breakdown as a PNG donut chart. Every slice is
// labeled with the token amount and USD value so the image stands on its own.
func Donut(summary Summary, opts DonutOptions) ([]byte, error) {
	if len(summary.Entries) == 0 {
		return nil, errors.New("nothing to chart")
	}
	if summary.TotalUSD().Sign() <= 0 {
		return nil, errors.New("total balance is zero; donut would be empty")
	}

	width := opts.Width
	if width <= 0 {
		width = 900
	}
	height := opts.Height
	if height <= 0 {
		height = 900
	}

	values := make([]chart.Value, 0, len(summary.Entries))
	for _, entry := range summary.Entries {
		value := chart.Value{
			Value: entry.USD.InexactFloat64(),
			Label: fmt.Sprintf("%s: %s (%s)", entry.Symbol, entry.AmountText, entry.USDText),
		}
		if color, ok := parseHexColor(entry.Color); ok {
			value.Style = chart.Style{FillColor: color, StrokeColor: color}
		}
		values = append(values, value)
	}

	graph := chart.DonutChart{
		Title:  fmt.Sprintf("%s (%s)", summary.Title, balance.FormatUSD(summary.TotalUSD())),
		Width:  width,
		Height: height,
		Values: values,
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render donut: %w", err)
	}
	return buf.Bytes(), nil
}

func parseHexColor(hex string) (drawing.Color, bool) {
	trimmed := strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if len(trimmed) != 6 {
		return drawing.Color{}, false
	}
	return drawing.ColorFromHex(trimmed), true
}
