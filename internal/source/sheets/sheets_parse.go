package sheets

import (
	"errors"
	"fmt"
	"strconv"

	"regdash/internal/core"
	"regdash/internal/source"
)

// valuesToTable converts a values matrix as returned by the Sheets API into
// a table. The first row is the header.
func valuesToTable(values [][]interface{}) (core.Table, error) {
	if len(values) == 0 {
		return core.Table{}, errors.New("sheet range is empty")
	}
	t := core.Table{
		Header: toStrings(values[0]),
		Rows:   make([][]string, 0, len(values)-1),
	}
	for _, row := range values[1:] {
		t.Rows = append(t.Rows, toStrings(row))
	}
	source.NormalizeSerialDates(&t)
	return t, nil
}

func toStrings(row []interface{}) []string {
	out := make([]string, len(row))
	for i, v := range row {
		out[i] = cellString(v)
	}
	return out
}

func cellString(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}
