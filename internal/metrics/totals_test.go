package metrics

import (
	"testing"

	"regdash/internal/core"
)

func TestTotalsAndCategoryTrend(t *testing.T) {
	recs := []core.Registration{
		reg(core.NewDate(2024, 1, 2), "A", "4W", 10),
		reg(core.NewDate(2024, 1, 1), "B", "2W", 5),
		reg(core.NewDate(2024, 1, 1), "A", "4W", 7),
		reg(core.NewDate(2024, 1, 1), "C", "2W", 3),
	}

	if got := TotalRegistrations(recs); got != 25 {
		t.Fatalf("total=%d", got)
	}

	trend := CategoryTrend(recs)
	want := []CategoryPoint{
		{Date: core.NewDate(2024, 1, 1), VehicleType: "4W", Registrations: 7},
		{Date: core.NewDate(2024, 1, 1), VehicleType: "2W", Registrations: 8},
		{Date: core.NewDate(2024, 1, 2), VehicleType: "4W", Registrations: 10},
	}
	if len(trend) != len(want) {
		t.Fatalf("trend=%+v", trend)
	}
	for i := range want {
		if !trend[i].Date.Equal(want[i].Date) || trend[i].VehicleType != want[i].VehicleType || trend[i].Registrations != want[i].Registrations {
			t.Fatalf("trend[%d]=%+v want %+v", i, trend[i], want[i])
		}
	}

	totals := ManufacturerTotals(recs)
	if totals[0].Manufacturer != "A" || totals[0].Registrations != 17 || !approx(totals[0].Share.Value, 68) {
		t.Fatalf("top manufacturer = %+v", totals[0])
	}
	if totals[1].Manufacturer != "B" || totals[2].Manufacturer != "C" {
		t.Fatalf("order=%+v", totals)
	}
}

func TestTotalsEmpty(t *testing.T) {
	if TotalRegistrations(nil) != 0 {
		t.Fatal("empty total must be 0")
	}
	if got := CategoryTrend(nil); got == nil || len(got) != 0 {
		t.Fatalf("CategoryTrend(nil)=%#v", got)
	}
	if got := ManufacturerTotals(nil); len(got) != 0 {
		t.Fatalf("ManufacturerTotals(nil)=%#v", got)
	}
}
