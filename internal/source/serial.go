package source

import (
	"math"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"regdash/internal/core"
)

// NormalizeSerialDates rewrites spreadsheet date serials in the Date column
// as ISO dates. Excel and Google Sheets share the 1899-12-30 epoch. Cells that
// are not numbers are left for core.ParseTable to judge.
func NormalizeSerialDates(t *core.Table) {
	col := -1
	for i, h := range t.Header {
		if strings.EqualFold(strings.TrimSpace(h), string(core.ColumnDate)) {
			col = i
			break
		}
	}
	if col < 0 {
		return
	}
	for _, row := range t.Rows {
		if col < len(row) {
			row[col] = serialToDate(row[col])
		}
	}
}

func serialToDate(v string) string {
	v = strings.TrimSpace(v)
	serial, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return v
	}
	// Drop the time-of-day fraction before converting.
	t, err := excelize.ExcelDateToTime(math.Floor(serial+1e-6), false)
	if err != nil {
		return v
	}
	return core.FormatDate(t)
}
