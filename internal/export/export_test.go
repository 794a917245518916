package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"regdash/internal/core"
	"regdash/internal/metrics"
	"regdash/internal/services"
)

func sampleView() *services.DashboardView {
	d := func(m time.Month, day int) time.Time { return core.NewDate(2024, m, day) }
	recs := []core.Registration{
		{Date: d(1, 15), Manufacturer: "Acme", VehicleType: "2W", Registrations: 10},
		{Date: d(4, 15), Manufacturer: "Acme", VehicleType: "2W", Registrations: 15},
		{Date: d(4, 20), Manufacturer: "Zeta", VehicleType: "4W", Registrations: 5},
	}
	return &services.DashboardView{
		Criteria:        core.Criteria{Start: d(1, 1), End: d(6, 30), Manufacturers: []string{"Acme", "Zeta"}},
		Records:         recs,
		Headline:        services.Headline{TotalRegistrations: 30, QoQ: core.Some(100), YoY: core.None()},
		MarketShare:     metrics.MarketShareOverTime(recs),
		ManufacturerQoQ: metrics.PerManufacturerGrowth(recs, core.QoQ),
	}
}

func TestWriteWorkbook(t *testing.T) {
	v := sampleView()
	var buf bytes.Buffer
	if err := WriteWorkbook(&buf, v); err != nil {
		t.Fatalf("WriteWorkbook: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer f.Close()

	want := []string{SheetData, SheetSummary, SheetShare, SheetGrowth}
	got := f.GetSheetList()
	if len(got) != len(want) {
		t.Fatalf("sheets=%v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sheet %d = %q want %q", i, got[i], want[i])
		}
	}

	rows, err := f.GetRows(SheetData)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("data rows=%d", len(rows))
	}
	if rows[0][2] != "Vehicle_Type" {
		t.Errorf("header=%v", rows[0])
	}
	if rows[1][0] != "2024-01-15" || rows[3][1] != "Zeta" || rows[2][3] != "15" {
		t.Errorf("data=%v", rows[1:])
	}

	yoy, _ := f.GetCellValue(SheetSummary, "B9")
	if yoy != "" {
		t.Errorf("undefined YoY should be blank, got %q", yoy)
	}
	manufacturers, _ := f.GetCellValue(SheetSummary, "B5")
	if manufacturers != "Acme, Zeta" {
		t.Errorf("manufacturers=%q", manufacturers)
	}

	growth, _ := f.GetRows(SheetGrowth)
	if len(growth) != 2 || growth[1][0] != "Acme" || growth[1][1] != "QoQ" {
		t.Errorf("growth=%v", growth)
	}
}

func TestWriteWorkbook_EmptyView(t *testing.T) {
	v := &services.DashboardView{Criteria: core.Criteria{Start: core.NewDate(2024, 1, 1), End: core.NewDate(2024, 1, 31)}}
	var buf bytes.Buffer
	if err := WriteWorkbook(&buf, v); err != nil {
		t.Fatalf("WriteWorkbook: %v", err)
	}
	if got := Filename(v); got != "registrations_2024-01-01_2024-01-31.xlsx" {
		t.Errorf("Filename()=%q", got)
	}
}
