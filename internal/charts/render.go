package charts

import (
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/wcharczuk/go-chart/v2"

	"regdash/internal/core"
	"regdash/internal/metrics"
)

// CategoryTrend draws one line per vehicle type over time.
func CategoryTrend(w io.Writer, points []metrics.CategoryPoint, size Size) error {
	if len(points) == 0 {
		return ErrNoData
	}
	size = size.orDefault()

	var order []string
	xs := map[string][]time.Time{}
	ys := map[string][]float64{}
	for _, p := range points {
		if _, ok := xs[p.VehicleType]; !ok {
			order = append(order, p.VehicleType)
		}
		xs[p.VehicleType] = append(xs[p.VehicleType], p.Date)
		ys[p.VehicleType] = append(ys[p.VehicleType], float64(p.Registrations))
	}

	series := make([]chart.Series, 0, len(order))
	for i, vt := range order {
		series = append(series, timeSeries(vt, xs[vt], ys[vt], colorAt(i)))
	}

	ch := chart.Chart{
		Title:      "Registrations by vehicle type",
		Width:      size.Width,
		Height:     size.Height,
		Background: background(),
		XAxis:      chart.XAxis{Name: "Date", ValueFormatter: monthFormatter},
		YAxis:      chart.YAxis{Name: "Registrations", ValueFormatter: countFormatter},
		Series:     series,
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}
	return ch.Render(chart.SVG, w)
}

// MarketShare draws each manufacturer's monthly share of registrations.
// Months without a defined share are skipped.
func MarketShare(w io.Writer, rows []metrics.ShareRow, size Size) error {
	size = size.orDefault()

	var order []string
	xs := map[string][]time.Time{}
	ys := map[string][]float64{}
	for _, r := range rows {
		if !r.Share.Valid {
			continue
		}
		if _, ok := xs[r.Manufacturer]; !ok {
			order = append(order, r.Manufacturer)
		}
		xs[r.Manufacturer] = append(xs[r.Manufacturer], r.Month)
		ys[r.Manufacturer] = append(ys[r.Manufacturer], r.Share.Value)
	}
	if len(order) == 0 {
		return ErrNoData
	}
	// Rows arrive month-major, so legend order follows names.
	slices.Sort(order)

	series := make([]chart.Series, 0, len(order))
	for i, m := range order {
		series = append(series, timeSeries(m, xs[m], ys[m], colorAt(i)))
	}

	ch := chart.Chart{
		Title:      "Market share over time",
		Width:      size.Width,
		Height:     size.Height,
		Background: background(),
		XAxis:      chart.XAxis{Name: "Month", ValueFormatter: monthFormatter},
		YAxis: chart.YAxis{
			Name:           "Share",
			ValueFormatter: percentFormatter,
			Range:          &chart.ContinuousRange{Min: 0, Max: 100},
		},
		Series: series,
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}
	return ch.Render(chart.SVG, w)
}

// Snapshot draws the share of total registrations per manufacturer as a donut.
func Snapshot(w io.Writer, totals []metrics.ManufacturerTotal, size Size) error {
	size = size.orDefault()

	values := make([]chart.Value, 0, len(totals))
	for i, t := range totals {
		if t.Registrations <= 0 {
			continue
		}
		label := t.Manufacturer
		if t.Share.Valid {
			label = fmt.Sprintf("%s (%.1f%%)", t.Manufacturer, t.Share.Value)
		}
		values = append(values, chart.Value{
			Label: label,
			Value: float64(t.Registrations),
			Style: chart.Style{FillColor: colorAt(i), StrokeColor: colorAt(i)},
		})
	}
	if len(values) == 0 {
		return ErrNoData
	}

	donut := chart.DonutChart{
		Title:  "Current market share",
		Width:  size.Width,
		Height: size.Height,
		Values: values,
	}
	return donut.Render(chart.SVG, w)
}

// Growth draws the latest growth per manufacturer as bars around zero.
func Growth(w io.Writer, growth []metrics.ManufacturerGrowth, kind core.PeriodKind, size Size) error {
	if len(growth) == 0 {
		return ErrNoData
	}
	if err := kind.Validate(); err != nil {
		return err
	}
	size = size.orDefault()

	bars := make([]chart.Value, len(growth))
	for i, g := range growth {
		col := colorAt(2)
		if g.Growth < 0 {
			col = colorAt(3)
		}
		bars[i] = chart.Value{
			Label: g.Manufacturer,
			Value: g.Growth,
			Style: chart.Style{FillColor: col, StrokeColor: col},
		}
	}

	bc := chart.BarChart{
		Title:        fmt.Sprintf("%s growth by manufacturer", kind),
		Width:        size.Width,
		Height:       size.Height,
		Background:   background(),
		BarWidth:     max(8, size.Width/(2*len(bars)+2)),
		Bars:         bars,
		UseBaseValue: true,
		BaseValue:    0,
		YAxis: chart.YAxis{
			ValueFormatter: percentFormatter,
			Range:          growthRange(growth),
		},
	}
	return bc.Render(chart.SVG, w)
}

// growthRange spans every bar and zero, padded by a tenth of the span. The
// bar chart cannot derive a range from bars that all share one value.
func growthRange(growth []metrics.ManufacturerGrowth) *chart.ContinuousRange {
	lo, hi := 0.0, 0.0
	for _, g := range growth {
		lo = min(lo, g.Growth)
		hi = max(hi, g.Growth)
	}
	span := hi - lo
	if span == 0 {
		return &chart.ContinuousRange{Min: -1, Max: 1}
	}
	pad := span / 10
	if lo < 0 {
		lo -= pad
	}
	if hi > 0 {
		hi += pad
	}
	return &chart.ContinuousRange{Min: lo, Max: hi}
}
