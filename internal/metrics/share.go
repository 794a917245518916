package metrics

import (
	"cmp"
	"slices"
	"time"

	"regdash/internal/core"
)

// ShareRow is one manufacturer's registrations in one month and its share of
// that month's total.
type ShareRow struct {
	Month         time.Time
	Manufacturer  string
	Registrations int64
	Share         core.Percent
}

// MarketShareOverTime sums registrations per (month start, manufacturer) and
// computes each manufacturer's share of the month. Months without records are
// absent. A month whose records all carry zero registrations has no defined share.
func MarketShareOverTime(records []core.Registration) []ShareRow {
	if len(records) == 0 {
		return []ShareRow{}
	}

	type key struct {
		month        time.Time
		manufacturer string
	}
	sums := make(map[key]int64)
	monthTotals := make(map[time.Time]int64)
	for _, r := range records {
		m := core.MonthStart(r.Date)
		sums[key{m, r.Manufacturer}] += r.Registrations
		monthTotals[m] += r.Registrations
	}

	out := make([]ShareRow, 0, len(sums))
	for k, n := range sums {
		row := ShareRow{Month: k.month, Manufacturer: k.manufacturer, Registrations: n}
		if total := monthTotals[k.month]; total > 0 {
			row.Share = core.Some(float64(n) / float64(total) * 100)
		}
		out = append(out, row)
	}

	slices.SortFunc(out, func(a, b ShareRow) int {
		if c := a.Month.Compare(b.Month); c != 0 {
			return c
		}
		return cmp.Compare(a.Manufacturer, b.Manufacturer)
	})
	return out
}
