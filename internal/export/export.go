// Package export writes a dashboard view to an Excel workbook.
package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"regdash/internal/core"
	"regdash/internal/services"
)

const (
	SheetData    = "Data"
	SheetSummary = "Summary"
	SheetShare   = "Market Share"
	SheetGrowth  = "Growth"
)

// ContentType is the MIME type of the produced workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Filename suggests a download name for the view's date range.
func Filename(v *services.DashboardView) string {
	return fmt.Sprintf("registrations_%s_%s.xlsx",
		core.FormatDate(v.Criteria.Start), core.FormatDate(v.Criteria.End))
}

// WriteWorkbook writes the filtered rows and the computed metrics of v as an
// xlsx document.
func WriteWorkbook(w io.Writer, v *services.DashboardView) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetData); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	dateFmt := "yyyy-mm-dd"
	dateStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &dateFmt})
	if err != nil {
		return fmt.Errorf("date style: %w", err)
	}
	pctFmt := "0.00"
	pctStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &pctFmt})
	if err != nil {
		return fmt.Errorf("percent style: %w", err)
	}
	headStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}

	if err := writeData(f, v, dateStyle, headStyle); err != nil {
		return err
	}

	for _, name := range []string{SheetSummary, SheetShare, SheetGrowth} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("new sheet %s: %w", name, err)
		}
	}
	tables := []struct {
		sheet  string
		header []string
		rows   [][]any
	}{
		{SheetSummary, []string{"Metric", "Value"}, summaryRows(v)},
		{SheetShare, []string{"Month", "Manufacturer", "Registrations", "Share %"}, shareRows(v)},
		{SheetGrowth, []string{"Manufacturer", "Period", "Growth %"}, growthRows(v)},
	}
	for _, t := range tables {
		if err := writeTable(f, t.sheet, t.header, t.rows, headStyle); err != nil {
			return err
		}
	}
	if err := styleColumn(f, SheetShare, 1, len(v.MarketShare), dateStyle); err != nil {
		return err
	}
	if err := styleColumn(f, SheetShare, 4, len(v.MarketShare), pctStyle); err != nil {
		return err
	}
	if err := styleColumn(f, SheetGrowth, 3, len(v.ManufacturerQoQ)+len(v.ManufacturerYoY), pctStyle); err != nil {
		return err
	}

	f.SetActiveSheet(0)
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// writeData streams the raw rows since they are the bulk of the workbook.
func writeData(f *excelize.File, v *services.DashboardView, dateStyle, headStyle int) error {
	sw, err := f.NewStreamWriter(SheetData)
	if err != nil {
		return fmt.Errorf("stream writer: %w", err)
	}
	if err := sw.SetColWidth(1, 4, 18); err != nil {
		return err
	}

	header := make([]any, 0, 4)
	for _, c := range core.RequiredColumns() {
		header = append(header, excelize.Cell{StyleID: headStyle, Value: string(c)})
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, r := range v.Records {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := []any{
			excelize.Cell{StyleID: dateStyle, Value: r.Date},
			r.Manufacturer,
			r.VehicleType,
			r.Registrations,
		}
		if err := sw.SetRow(cell, row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}
	return sw.Flush()
}

func writeTable(f *excelize.File, sheet string, header []string, rows [][]any, headStyle int) error {
	for i, h := range header {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}
	first, _ := excelize.CoordinatesToCellName(1, 1)
	last, _ := excelize.CoordinatesToCellName(len(header), 1)
	if err := f.SetCellStyle(sheet, first, last, headStyle); err != nil {
		return err
	}
	lastCol, _ := excelize.ColumnNumberToName(len(header))
	if err := f.SetColWidth(sheet, "A", lastCol, 20); err != nil {
		return err
	}

	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+2, err)
		}
	}
	return nil
}

func styleColumn(f *excelize.File, sheet string, col, rows, style int) error {
	if rows == 0 {
		return nil
	}
	first, _ := excelize.CoordinatesToCellName(col, 2)
	last, _ := excelize.CoordinatesToCellName(col, rows+1)
	return f.SetCellStyle(sheet, first, last, style)
}

func summaryRows(v *services.DashboardView) [][]any {
	return [][]any{
		{"Start", core.FormatDate(v.Criteria.Start)},
		{"End", core.FormatDate(v.Criteria.End)},
		{"Vehicle types", setLabel(v.Criteria.Categories)},
		{"Manufacturers", setLabel(v.Criteria.Manufacturers)},
		{"Rows", len(v.Records)},
		{"Total registrations", v.Headline.TotalRegistrations},
		{"Latest QoQ growth %", percentCell(v.Headline.QoQ)},
		{"Latest YoY growth %", percentCell(v.Headline.YoY)},
	}
}

func shareRows(v *services.DashboardView) [][]any {
	out := make([][]any, len(v.MarketShare))
	for i, r := range v.MarketShare {
		out[i] = []any{r.Month, r.Manufacturer, r.Registrations, percentCell(r.Share)}
	}
	return out
}

func growthRows(v *services.DashboardView) [][]any {
	out := make([][]any, 0, len(v.ManufacturerQoQ)+len(v.ManufacturerYoY))
	for _, g := range v.ManufacturerQoQ {
		out = append(out, []any{g.Manufacturer, string(core.QoQ), g.Growth})
	}
	for _, g := range v.ManufacturerYoY {
		out = append(out, []any{g.Manufacturer, string(core.YoY), g.Growth})
	}
	return out
}

// percentCell leaves undefined values blank.
func percentCell(p core.Percent) any {
	if !p.Valid {
		return nil
	}
	return p.Value
}

func setLabel(values []string) string {
	if len(values) == 0 {
		return "All"
	}
	return strings.Join(values, ", ")
}
