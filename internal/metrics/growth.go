package metrics

import (
	"slices"
	"time"

	"regdash/internal/core"
)

// QuarterTotal is the summed registrations of one calendar quarter.
type QuarterTotal struct {
	PeriodEnd     time.Time
	Registrations int64
}

// GrowthPoint is the growth of one quarter against its comparison quarter.
// Growth is absent for the first buckets of the series and when the comparison
// quarter sums to zero.
type GrowthPoint struct {
	PeriodEnd     time.Time
	Registrations int64
	Growth        core.Percent
}

// ManufacturerGrowth is the latest defined growth of a single manufacturer.
type ManufacturerGrowth struct {
	Manufacturer string
	Growth       float64
}

// QuarterlyTotals buckets records into contiguous calendar quarters labelled by
// their end date. Quarters between the first and last record that hold no
// records are kept with a zero total so that the lag between buckets always
// equals the calendar distance.
func QuarterlyTotals(records []core.Registration) []QuarterTotal {
	if len(records) == 0 {
		return nil
	}

	sums := make(map[time.Time]int64)
	first := core.QuarterEnd(records[0].Date)
	last := first
	for _, r := range records {
		qe := core.QuarterEnd(r.Date)
		sums[qe] += r.Registrations
		if qe.Before(first) {
			first = qe
		}
		if qe.After(last) {
			last = qe
		}
	}

	var out []QuarterTotal
	for qe := first; !qe.After(last); qe = core.NextQuarterEnd(qe) {
		out = append(out, QuarterTotal{PeriodEnd: qe, Registrations: sums[qe]})
	}
	return out
}

// PeriodGrowth returns the quarter series with each bucket's growth against the
// bucket kind.Lag() positions earlier.
func PeriodGrowth(records []core.Registration, kind core.PeriodKind) []GrowthPoint {
	totals := QuarterlyTotals(records)
	if len(totals) == 0 {
		return []GrowthPoint{}
	}

	lag := kind.Lag()
	out := make([]GrowthPoint, len(totals))
	for i, q := range totals {
		out[i] = GrowthPoint{PeriodEnd: q.PeriodEnd, Registrations: q.Registrations}
		if i < lag {
			continue
		}
		out[i].Growth = percentChange(totals[i-lag].Registrations, q.Registrations)
	}
	return out
}

// LatestGrowth returns the growth of the chronologically last bucket that has one.
func LatestGrowth(records []core.Registration, kind core.PeriodKind) core.Percent {
	return LatestOf(PeriodGrowth(records, kind))
}

// PerManufacturerGrowth computes LatestGrowth for every manufacturer present in
// records. Manufacturers without a defined value are left out. The result is
// sorted by growth, highest first; equal values keep first-seen order.
func PerManufacturerGrowth(records []core.Registration, kind core.PeriodKind) []ManufacturerGrowth {
	order, parts := partitionByManufacturer(records)

	out := make([]ManufacturerGrowth, 0, len(order))
	for _, m := range order {
		g := LatestGrowth(parts[m], kind)
		if !g.Valid {
			continue
		}
		out = append(out, ManufacturerGrowth{Manufacturer: m, Growth: g.Value})
	}

	slices.SortStableFunc(out, func(a, b ManufacturerGrowth) int {
		switch {
		case a.Growth > b.Growth:
			return -1
		case a.Growth < b.Growth:
			return 1
		default:
			return 0
		}
	})
	return out
}

// LatestOf returns the last defined growth of an already computed series.
func LatestOf(points []GrowthPoint) core.Percent {
	for i := len(points) - 1; i >= 0; i-- {
		if points[i].Growth.Valid {
			return points[i].Growth
		}
	}
	return core.None()
}

func percentChange(base, current int64) core.Percent {
	if base == 0 {
		return core.None()
	}
	return core.Some(float64(current-base) / float64(base) * 100)
}

// partitionByManufacturer splits records per manufacturer, keeping the order in
// which manufacturers first appear.
func partitionByManufacturer(records []core.Registration) ([]string, map[string][]core.Registration) {
	var order []string
	parts := make(map[string][]core.Registration)
	for _, r := range records {
		if _, ok := parts[r.Manufacturer]; !ok {
			order = append(order, r.Manufacturer)
		}
		parts[r.Manufacturer] = append(parts[r.Manufacturer], r)
	}
	return order, parts
}
