package core

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
)

const (
	ColumnDate          Column = "Date"
	ColumnManufacturer  Column = "Manufacturer"
	ColumnVehicleType   Column = "Vehicle_Type"
	ColumnRegistrations Column = "Registrations"
)

const (
	QoQ PeriodKind = "QoQ"
	YoY PeriodKind = "YoY"
)

type (
	// Column names a field of the registrations dataset as it appears in the source header.
	Column string

	// PeriodKind selects the comparison used for growth: the previous quarter or the same
	// quarter one year earlier.
	PeriodKind string

	// Registration is one row of the dataset. Rows are never mutated after load.
	Registration struct {
		Date          time.Time
		Manufacturer  string
		VehicleType   string
		Registrations int64
	}

	// Criteria selects a filtered view of the dataset. Start and End are inclusive.
	// An empty Categories or Manufacturers slice places no restriction on that dimension.
	Criteria struct {
		Start         time.Time
		End           time.Time
		Categories    []string
		Manufacturers []string
	}

	// Percent is a percentage that may be absent, e.g. growth over a zero base.
	Percent struct {
		Value float64
		Valid bool
	}
)

var (
	ErrInvalidColumn = errors.New("invalid column")
	ErrInvalidPeriod = errors.New("invalid period kind")
	ErrInvalidDate   = errors.New("invalid date")
)

// RequiredColumns lists the header names every source must provide.
func RequiredColumns() []Column {
	return []Column{ColumnDate, ColumnManufacturer, ColumnVehicleType, ColumnRegistrations}
}

func (c Column) String() string { return string(c) }

// Distinct reports whether the column can be used for a distinct-value lookup.
func (c Column) Distinct() bool {
	return c == ColumnManufacturer || c == ColumnVehicleType
}

// Validate checks the period kind is QoQ or YoY.
func (k PeriodKind) Validate() error {
	switch k {
	case QoQ, YoY:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidPeriod, string(k))
	}
}

// Lag returns how many quarters back the comparison bucket sits.
func (k PeriodKind) Lag() int {
	if k == YoY {
		return 4
	}
	return 1
}

// Some returns a valid percentage.
func Some(v float64) Percent { return Percent{Value: v, Valid: true} }

// None returns an absent percentage.
func None() Percent { return Percent{} }

// OrZero returns the value, or 0 when absent.
func (p Percent) OrZero() float64 {
	if !p.Valid {
		return 0
	}
	return p.Value
}

// Matches reports whether r belongs to the filtered view selected by c.
func (c Criteria) Matches(r Registration) bool {
	d := Day(r.Date)
	if d.Before(Day(c.Start)) || d.After(Day(c.End)) {
		return false
	}
	if len(c.Categories) > 0 && !slices.Contains(c.Categories, r.VehicleType) {
		return false
	}
	if len(c.Manufacturers) > 0 && !slices.Contains(c.Manufacturers, r.Manufacturer) {
		return false
	}
	return true
}

// Normalized returns a copy with dates truncated to days and the sets trimmed,
// de-duplicated and sorted.
func (c Criteria) Normalized() Criteria {
	return Criteria{
		Start:         Day(c.Start),
		End:           Day(c.End),
		Categories:    normalizeSet(c.Categories),
		Manufacturers: normalizeSet(c.Manufacturers),
	}
}

// Key returns a stable identifier for the normalized criteria, used for caching.
func (c Criteria) Key() string {
	n := c.Normalized()
	var b strings.Builder
	b.WriteString(FormatDate(n.Start))
	b.WriteByte('|')
	b.WriteString(FormatDate(n.End))
	b.WriteByte('|')
	b.WriteString(strings.Join(n.Categories, "\x1f"))
	b.WriteByte('|')
	b.WriteString(strings.Join(n.Manufacturers, "\x1f"))
	return b.String()
}

func normalizeSet(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	slices.Sort(out)
	return slices.Compact(out)
}
