package xlsx

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"regdash/internal/core"
	"regdash/internal/source"
)

func buildWorkbook(t *testing.T, sheet string, rows [][]any) *excelize.File {
	t.Helper()
	f := excelize.NewFile()
	if sheet != "Sheet1" {
		if err := f.SetSheetName("Sheet1", sheet); err != nil {
			t.Fatalf("rename sheet: %v", err)
		}
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatalf("set row: %v", err)
		}
	}
	return f
}

func TestWorkbook_ReadTable(t *testing.T) {
	f := buildWorkbook(t, "Registrations", [][]any{
		{"Date", "Manufacturer", "Vehicle_Type", "Registrations"},
		{time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), "Acme", "2W", 10},
		{"2024-02-20", "Zeta", "4W", 25},
	})
	p := filepath.Join(t.TempDir(), "regs.xlsx")
	if err := f.SaveAs(p); err != nil {
		t.Fatalf("save: %v", err)
	}

	recs, err := source.Read(context.Background(), New(p, ""))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("got %d records", len(recs))
	}
	if !recs[0].Date.Equal(core.NewDate(2024, time.January, 15)) {
		t.Errorf("serial date converted to %v", recs[0].Date)
	}
	if !recs[1].Date.Equal(core.NewDate(2024, time.February, 20)) {
		t.Errorf("text date parsed to %v", recs[1].Date)
	}
	if recs[1].Registrations != 25 || recs[1].Manufacturer != "Zeta" {
		t.Errorf("unexpected record %+v", recs[1])
	}
}

func TestParse_NamedSheet(t *testing.T) {
	f := buildWorkbook(t, "Data", [][]any{
		{"Date", "Manufacturer", "Vehicle_Type", "Registrations"},
		{"2024-03-01", "Acme", "3W", 7},
	})
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("write: %v", err)
	}

	tbl, err := Parse(context.Background(), bytes.NewReader(buf.Bytes()), "Data")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(tbl.Rows) != 1 || tbl.Rows[0][3] != "7" {
		t.Fatalf("rows=%v", tbl.Rows)
	}

	if _, err := Parse(context.Background(), bytes.NewReader(buf.Bytes()), "Missing"); err == nil {
		t.Fatal("expected error for unknown sheet")
	}
}
