// Package charts renders dashboard metrics as SVG images.
package charts

import (
	"errors"
	"fmt"
	"html"
	"io"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// ErrNoData is returned when a chart has nothing to plot.
var ErrNoData = errors.New("no data to chart")

// Size is the rendered image size in pixels.
type Size struct {
	Width  int
	Height int
}

// DefaultSize fits the dashboard's chart panels.
var DefaultSize = Size{Width: 720, Height: 360}

var palette = []drawing.Color{
	drawing.ColorFromHex("1f77b4"),
	drawing.ColorFromHex("ff7f0e"),
	drawing.ColorFromHex("2ca02c"),
	drawing.ColorFromHex("d62728"),
	drawing.ColorFromHex("9467bd"),
	drawing.ColorFromHex("8c564b"),
	drawing.ColorFromHex("e377c2"),
	drawing.ColorFromHex("7f7f7f"),
	drawing.ColorFromHex("bcbd22"),
	drawing.ColorFromHex("17becf"),
}

func colorAt(i int) drawing.Color { return palette[i%len(palette)] }

func lineStyle(col drawing.Color) chart.Style {
	return chart.Style{
		StrokeColor: col,
		StrokeWidth: 2,
		DotColor:    col,
		DotWidth:    2,
	}
}

func (s Size) orDefault() Size {
	if s.Width <= 0 || s.Height <= 0 {
		return DefaultSize
	}
	return s
}

func background() chart.Style {
	return chart.Style{Padding: chart.Box{Top: 24, Left: 16, Right: 16, Bottom: 16}}
}

func monthFormatter(v interface{}) string {
	if f, ok := v.(float64); ok {
		return chart.TimeFromFloat64(f).UTC().Format("2006-01")
	}
	return ""
}

func percentFormatter(v interface{}) string {
	if f, ok := v.(float64); ok {
		return fmt.Sprintf("%.0f%%", f)
	}
	return ""
}

func countFormatter(v interface{}) string {
	if f, ok := v.(float64); ok {
		return fmt.Sprintf("%.0f", f)
	}
	return ""
}

// timeSeries builds a series, widening a single point into a one-day segment
// since the x range may not be empty.
func timeSeries(name string, xs []time.Time, ys []float64, col drawing.Color) chart.TimeSeries {
	if len(xs) == 1 {
		xs = []time.Time{xs[0], xs[0].AddDate(0, 0, 1)}
		ys = []float64{ys[0], ys[0]}
	}
	return chart.TimeSeries{Name: name, XValues: xs, YValues: ys, Style: lineStyle(col)}
}

// Placeholder writes a minimal SVG carrying msg, used where a chart cannot be drawn.
func Placeholder(w io.Writer, msg string, size Size) error {
	size = size.orDefault()
	_, err := fmt.Fprintf(w,
		`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d"><text x="50%%" y="50%%" text-anchor="middle" font-family="sans-serif" font-size="14" fill="#666">%s</text></svg>`,
		size.Width, size.Height, html.EscapeString(msg))
	return err
}
