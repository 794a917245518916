package core

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrEmptyDataset is returned when the dataset holds no rows, so no date range exists.
	ErrEmptyDataset  = errors.New("dataset has no rows")
	ErrMissingColumn = errors.New("missing required column")
	ErrMalformedRow  = errors.New("malformed row")
)

// Table is the raw tabular form every dataset source produces: a header row and
// string cells.
type Table struct {
	Header []string
	Rows   [][]string
}

// LoadError reports a dataset that could not be loaded. It is fatal at startup.
type LoadError struct {
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load dataset from %s: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// ParseTable converts a raw table into registrations. Header names are matched
// case-insensitively; extra columns are ignored. Rows whose cells are all blank
// are skipped, any other invalid row fails the whole table.
func ParseTable(t Table) ([]Registration, error) {
	idx, err := columnIndex(t.Header)
	if err != nil {
		return nil, err
	}

	out := make([]Registration, 0, len(t.Rows))
	for i, row := range t.Rows {
		if blankRow(row) {
			continue
		}
		// Row numbers are 1-based and count the header line.
		line := i + 2
		rec, err := parseRow(row, idx)
		if err != nil {
			return nil, fmt.Errorf("%w at line %d: %v", ErrMalformedRow, line, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

func columnIndex(header []string) (map[Column]int, error) {
	idx := make(map[Column]int, 4)
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		for _, c := range RequiredColumns() {
			if _, seen := idx[c]; !seen && strings.EqualFold(h, string(c)) {
				idx[c] = i
			}
		}
	}

	var missing []string
	for _, c := range RequiredColumns() {
		if _, ok := idx[c]; !ok {
			missing = append(missing, string(c))
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s; got header=%v", ErrMissingColumn, strings.Join(missing, ","), header)
	}
	return idx, nil
}

func parseRow(row []string, idx map[Column]int) (Registration, error) {
	date, err := ParseDate(cell(row, idx[ColumnDate]))
	if err != nil {
		return Registration{}, err
	}

	manufacturer := cell(row, idx[ColumnManufacturer])
	if manufacturer == "" {
		return Registration{}, errors.New("empty manufacturer")
	}
	vehicleType := cell(row, idx[ColumnVehicleType])
	if vehicleType == "" {
		return Registration{}, errors.New("empty vehicle type")
	}

	raw := cell(row, idx[ColumnRegistrations])
	n, err := parseCount(raw)
	if err != nil {
		return Registration{}, fmt.Errorf("registrations %q: %w", raw, err)
	}

	return Registration{
		Date:          date,
		Manufacturer:  manufacturer,
		VehicleType:   vehicleType,
		Registrations: n,
	}, nil
}

// parseCount accepts plain integers and integral decimals such as "120.0",
// which spreadsheet exports commonly produce.
func parseCount(s string) (int64, error) {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		if n < 0 {
			return 0, errors.New("negative count")
		}
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, errors.New("not a number")
	}
	if f < 0 {
		return 0, errors.New("negative count")
	}
	if f != float64(int64(f)) {
		return 0, errors.New("not an integer")
	}
	return int64(f), nil
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func blankRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
