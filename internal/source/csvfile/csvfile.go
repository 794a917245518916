// Package csvfile reads the registrations dataset from a comma-separated file.
package csvfile

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"regdash/internal/core"
	"regdash/internal/source"
)

type File struct {
	path string
}

var _ source.Source = (*File)(nil)

func New(path string) *File {
	return &File{path: path}
}

func (f *File) Name() string { return "csv:" + f.path }

// ReadTable reads the whole file. The first record is the header.
func (f *File) ReadTable(ctx context.Context) (core.Table, error) {
	fh, err := os.Open(f.path)
	if err != nil {
		return core.Table{}, fmt.Errorf("open csv: %w", err)
	}
	defer fh.Close()
	return Parse(ctx, fh)
}

// Parse reads a CSV stream into a table. Ragged rows are accepted here and
// judged later by core.ParseTable.
func Parse(ctx context.Context, r io.Reader) (core.Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return core.Table{}, errors.New("csv file is empty")
	}
	if err != nil {
		return core.Table{}, fmt.Errorf("read csv header: %w", err)
	}

	var rows [][]string
	for {
		if err := ctx.Err(); err != nil {
			return core.Table{}, err
		}
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return core.Table{}, fmt.Errorf("read csv: %w", err)
		}
		rows = append(rows, rec)
	}
	return core.Table{Header: header, Rows: rows}, nil
}
