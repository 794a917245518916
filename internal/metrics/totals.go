package metrics

import (
	"slices"
	"time"

	"regdash/internal/core"
)

// CategoryPoint is the registrations of one vehicle type on one date.
type CategoryPoint struct {
	Date          time.Time
	VehicleType   string
	Registrations int64
}

// ManufacturerTotal is a manufacturer's registrations over the whole view.
type ManufacturerTotal struct {
	Manufacturer  string
	Registrations int64
	Share         core.Percent
}

// TotalRegistrations sums the registrations of every record.
func TotalRegistrations(records []core.Registration) int64 {
	var total int64
	for _, r := range records {
		total += r.Registrations
	}
	return total
}

// CategoryTrend sums registrations per (date, vehicle type), ordered by date and
// then by the order in which vehicle types first appear.
func CategoryTrend(records []core.Registration) []CategoryPoint {
	if len(records) == 0 {
		return []CategoryPoint{}
	}

	type key struct {
		date        time.Time
		vehicleType string
	}
	rank := make(map[string]int)
	sums := make(map[key]int64)
	for _, r := range records {
		if _, ok := rank[r.VehicleType]; !ok {
			rank[r.VehicleType] = len(rank)
		}
		sums[key{core.Day(r.Date), r.VehicleType}] += r.Registrations
	}

	out := make([]CategoryPoint, 0, len(sums))
	for k, n := range sums {
		out = append(out, CategoryPoint{Date: k.date, VehicleType: k.vehicleType, Registrations: n})
	}
	slices.SortFunc(out, func(a, b CategoryPoint) int {
		if c := a.Date.Compare(b.Date); c != 0 {
			return c
		}
		return rank[a.VehicleType] - rank[b.VehicleType]
	})
	return out
}

// ManufacturerTotals sums registrations per manufacturer, highest first, with
// each manufacturer's share of the view total.
func ManufacturerTotals(records []core.Registration) []ManufacturerTotal {
	order, parts := partitionByManufacturer(records)
	total := TotalRegistrations(records)

	out := make([]ManufacturerTotal, 0, len(order))
	for _, m := range order {
		row := ManufacturerTotal{Manufacturer: m, Registrations: TotalRegistrations(parts[m])}
		if total > 0 {
			row.Share = core.Some(float64(row.Registrations) / float64(total) * 100)
		}
		out = append(out, row)
	}
	slices.SortStableFunc(out, func(a, b ManufacturerTotal) int {
		switch {
		case a.Registrations > b.Registrations:
			return -1
		case a.Registrations < b.Registrations:
			return 1
		default:
			return 0
		}
	})
	return out
}
