package charts

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"regdash/internal/core"
	"regdash/internal/metrics"
)

func month(m time.Month) time.Time { return core.NewDate(2024, m, 1) }

func TestRender_SVG(t *testing.T) {
	trend := []metrics.CategoryPoint{
		{Date: month(1), VehicleType: "2W", Registrations: 10},
		{Date: month(1), VehicleType: "4W", Registrations: 4},
		{Date: month(2), VehicleType: "2W", Registrations: 12},
		{Date: month(2), VehicleType: "4W", Registrations: 6},
	}
	share := []metrics.ShareRow{
		{Month: month(1), Manufacturer: "Acme", Registrations: 10, Share: core.Some(71.4)},
		{Month: month(1), Manufacturer: "Zeta", Registrations: 4, Share: core.Some(28.6)},
		{Month: month(2), Manufacturer: "Acme", Registrations: 12, Share: core.Some(66.7)},
		{Month: month(2), Manufacturer: "Zeta", Registrations: 6, Share: core.Some(33.3)},
	}
	totals := []metrics.ManufacturerTotal{
		{Manufacturer: "Acme", Registrations: 22, Share: core.Some(68.75)},
		{Manufacturer: "Zeta", Registrations: 10, Share: core.Some(31.25)},
	}
	growth := []metrics.ManufacturerGrowth{
		{Manufacturer: "Acme", Growth: 20},
		{Manufacturer: "Zeta", Growth: -5},
	}

	tests := []struct {
		name   string
		render func(*bytes.Buffer) error
		want   []string
	}{
		{"category trend", func(b *bytes.Buffer) error { return CategoryTrend(b, trend, DefaultSize) }, []string{"2W", "4W"}},
		{"market share", func(b *bytes.Buffer) error { return MarketShare(b, share, DefaultSize) }, []string{"Acme", "Zeta"}},
		{"snapshot", func(b *bytes.Buffer) error { return Snapshot(b, totals, DefaultSize) }, []string{"Acme (68.8%)"}},
		{"growth", func(b *bytes.Buffer) error { return Growth(b, growth, core.QoQ, Size{}) }, []string{"Acme", "QoQ growth"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := tt.render(&buf); err != nil {
				t.Fatalf("render: %v", err)
			}
			out := buf.String()
			if !strings.Contains(out, "<svg") {
				t.Fatalf("not an SVG: %.80s", out)
			}
			for _, w := range tt.want {
				if !strings.Contains(out, w) {
					t.Errorf("missing %q", w)
				}
			}
		})
	}
}

func TestRender_SinglePointSeries(t *testing.T) {
	var buf bytes.Buffer
	err := CategoryTrend(&buf, []metrics.CategoryPoint{
		{Date: month(3), VehicleType: "3W", Registrations: 5},
		{Date: month(3), VehicleType: "2W", Registrations: 9},
	}, DefaultSize)
	if err != nil {
		t.Fatalf("single date should still render: %v", err)
	}
}

func TestGrowth_FlatBars(t *testing.T) {
	tests := []struct {
		name   string
		growth []metrics.ManufacturerGrowth
		min    float64
		max    float64
	}{
		{"single bar", []metrics.ManufacturerGrowth{{Manufacturer: "Acme", Growth: 50}}, 0, 55},
		{"equal bars", []metrics.ManufacturerGrowth{{Manufacturer: "Acme", Growth: 10}, {Manufacturer: "Zeta", Growth: 10}}, 0, 11},
		{"single decline", []metrics.ManufacturerGrowth{{Manufacturer: "Acme", Growth: -20}}, -22, 0},
		{"all zero", []metrics.ManufacturerGrowth{{Manufacturer: "Acme"}, {Manufacturer: "Zeta"}}, -1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := growthRange(tt.growth)
			if math.Abs(r.Min-tt.min) > 1e-9 || math.Abs(r.Max-tt.max) > 1e-9 {
				t.Errorf("range = [%v, %v], want [%v, %v]", r.Min, r.Max, tt.min, tt.max)
			}

			var buf bytes.Buffer
			if err := Growth(&buf, tt.growth, core.QoQ, DefaultSize); err != nil {
				t.Fatalf("Growth: %v", err)
			}
			if !strings.Contains(buf.String(), "Acme") {
				t.Error("bar label missing")
			}
		})
	}
}

func TestRender_NoData(t *testing.T) {
	var buf bytes.Buffer
	checks := map[string]error{
		"trend":  CategoryTrend(&buf, nil, DefaultSize),
		"share":  MarketShare(&buf, []metrics.ShareRow{{Month: month(1), Manufacturer: "Acme", Share: core.None()}}, DefaultSize),
		"donut":  Snapshot(&buf, []metrics.ManufacturerTotal{{Manufacturer: "Acme"}}, DefaultSize),
		"growth": Growth(&buf, nil, core.YoY, DefaultSize),
	}
	for name, err := range checks {
		if !errors.Is(err, ErrNoData) {
			t.Errorf("%s: expected ErrNoData, got %v", name, err)
		}
	}
	if err := Growth(&buf, []metrics.ManufacturerGrowth{{Manufacturer: "A", Growth: 1}}, "MoM", DefaultSize); !errors.Is(err, core.ErrInvalidPeriod) {
		t.Errorf("expected ErrInvalidPeriod, got %v", err)
	}
}

func TestPlaceholder(t *testing.T) {
	var buf bytes.Buffer
	if err := Placeholder(&buf, "No data for <selection>", Size{Width: 100, Height: 50}); err != nil {
		t.Fatalf("Placeholder: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, `width="100"`) || !strings.Contains(out, "&lt;selection&gt;") {
		t.Errorf("placeholder=%s", out)
	}
}
