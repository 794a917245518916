// Package xlsx reads the registrations dataset from an Excel workbook.
package xlsx

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"regdash/internal/core"
	"regdash/internal/source"
)

type Workbook struct {
	path  string
	sheet string
}

var _ source.Source = (*Workbook)(nil)

// New returns a workbook source. An empty sheet selects the first sheet.
func New(path, sheet string) *Workbook {
	return &Workbook{path: path, sheet: sheet}
}

func (w *Workbook) Name() string {
	if w.sheet == "" {
		return "xlsx:" + w.path
	}
	return "xlsx:" + w.path + "#" + w.sheet
}

func (w *Workbook) ReadTable(ctx context.Context) (core.Table, error) {
	f, err := excelize.OpenFile(w.path)
	if err != nil {
		return core.Table{}, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()
	return readSheet(ctx, f, w.sheet)
}

// Parse reads a workbook stream.
func Parse(ctx context.Context, r io.Reader, sheet string) (core.Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return core.Table{}, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()
	return readSheet(ctx, f, sheet)
}

func readSheet(ctx context.Context, f *excelize.File, sheet string) (core.Table, error) {
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return core.Table{}, errors.New("workbook has no sheets")
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return core.Table{}, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return core.Table{}, fmt.Errorf("sheet %q is empty", sheet)
	}
	if err := ctx.Err(); err != nil {
		return core.Table{}, err
	}

	t := core.Table{Header: rows[0], Rows: rows[1:]}
	source.NormalizeSerialDates(&t)
	return t, nil
}
