package http

import (
	"time"

	"regdash/internal/core"
	"regdash/internal/metrics"
	"regdash/internal/services"
)

// JSON shapes of the API. Dates are YYYY-MM-DD; absent growth is null.

type criteriaJSON struct {
	Start         string   `json:"start"`
	End           string   `json:"end"`
	Categories    []string `json:"categories"`
	Manufacturers []string `json:"manufacturers"`
}

type optionsJSON struct {
	Start                string   `json:"start"`
	End                  string   `json:"end"`
	Categories           []string `json:"categories"`
	Manufacturers        []string `json:"manufacturers"`
	DefaultManufacturers []string `json:"default_manufacturers"`
}

type headlineJSON struct {
	TotalRegistrations int64    `json:"total_registrations"`
	QoQGrowth          *float64 `json:"qoq_growth"`
	YoYGrowth          *float64 `json:"yoy_growth"`
}

type registrationJSON struct {
	Date          string `json:"date"`
	Manufacturer  string `json:"manufacturer"`
	VehicleType   string `json:"vehicle_type"`
	Registrations int64  `json:"registrations"`
}

type categoryPointJSON struct {
	Date          string `json:"date"`
	VehicleType   string `json:"vehicle_type"`
	Registrations int64  `json:"registrations"`
}

type manufacturerTotalJSON struct {
	Manufacturer  string   `json:"manufacturer"`
	Registrations int64    `json:"registrations"`
	Share         *float64 `json:"share"`
}

type shareRowJSON struct {
	Month         string   `json:"month"`
	Manufacturer  string   `json:"manufacturer"`
	Registrations int64    `json:"registrations"`
	Share         *float64 `json:"share"`
}

type growthPointJSON struct {
	PeriodEnd     string   `json:"period_end"`
	Quarter       string   `json:"quarter"`
	Registrations int64    `json:"registrations"`
	Growth        *float64 `json:"growth"`
}

type manufacturerGrowthJSON struct {
	Manufacturer string  `json:"manufacturer"`
	Growth       float64 `json:"growth"`
}

type dashboardJSON struct {
	Criteria           criteriaJSON             `json:"criteria"`
	Empty              bool                     `json:"empty"`
	Headline           headlineJSON             `json:"headline"`
	CategoryTrend      []categoryPointJSON      `json:"category_trend"`
	ManufacturerTotals []manufacturerTotalJSON  `json:"manufacturer_totals"`
	MarketShare        []shareRowJSON           `json:"market_share"`
	QoQ                []growthPointJSON        `json:"qoq"`
	YoY                []growthPointJSON        `json:"yoy"`
	ManufacturerQoQ    []manufacturerGrowthJSON `json:"manufacturer_qoq"`
	ManufacturerYoY    []manufacturerGrowthJSON `json:"manufacturer_yoy"`
	Records            []registrationJSON       `json:"records,omitempty"`
	GeneratedAt        time.Time                `json:"generated_at"`
}

func percentJSON(p core.Percent) *float64 {
	if !p.Valid {
		return nil
	}
	v := p.Value
	return &v
}

func toCriteriaJSON(c core.Criteria) criteriaJSON {
	return criteriaJSON{
		Start:         core.FormatDate(c.Start),
		End:           core.FormatDate(c.End),
		Categories:    nonNil(c.Categories),
		Manufacturers: nonNil(c.Manufacturers),
	}
}

func toOptionsJSON(o services.Options) optionsJSON {
	return optionsJSON{
		Start:                core.FormatDate(o.Start),
		End:                  core.FormatDate(o.End),
		Categories:           nonNil(o.Categories),
		Manufacturers:        nonNil(o.Manufacturers),
		DefaultManufacturers: nonNil(o.DefaultManufacturers),
	}
}

// toDashboardJSON converts a view. Raw records are included only on request
// since they dominate the payload.
func toDashboardJSON(v *services.DashboardView, withRecords bool) dashboardJSON {
	out := dashboardJSON{
		Criteria: toCriteriaJSON(v.Criteria),
		Empty:    v.Empty(),
		Headline: headlineJSON{
			TotalRegistrations: v.Headline.TotalRegistrations,
			QoQGrowth:          percentJSON(v.Headline.QoQ),
			YoYGrowth:          percentJSON(v.Headline.YoY),
		},
		CategoryTrend:      make([]categoryPointJSON, 0, len(v.CategoryTrend)),
		ManufacturerTotals: make([]manufacturerTotalJSON, 0, len(v.ManufacturerTotals)),
		MarketShare:        make([]shareRowJSON, 0, len(v.MarketShare)),
		QoQ:                growthJSON(v.QoQ),
		YoY:                growthJSON(v.YoY),
		ManufacturerQoQ:    manufacturerGrowthList(v.ManufacturerQoQ),
		ManufacturerYoY:    manufacturerGrowthList(v.ManufacturerYoY),
		GeneratedAt:        v.GeneratedAt,
	}
	for _, p := range v.CategoryTrend {
		out.CategoryTrend = append(out.CategoryTrend, categoryPointJSON{
			Date: core.FormatDate(p.Date), VehicleType: p.VehicleType, Registrations: p.Registrations,
		})
	}
	for _, t := range v.ManufacturerTotals {
		out.ManufacturerTotals = append(out.ManufacturerTotals, manufacturerTotalJSON{
			Manufacturer: t.Manufacturer, Registrations: t.Registrations, Share: percentJSON(t.Share),
		})
	}
	for _, r := range v.MarketShare {
		out.MarketShare = append(out.MarketShare, shareRowJSON{
			Month: core.FormatDate(r.Month), Manufacturer: r.Manufacturer, Registrations: r.Registrations, Share: percentJSON(r.Share),
		})
	}
	if withRecords {
		out.Records = make([]registrationJSON, 0, len(v.Records))
		for _, r := range v.Records {
			out.Records = append(out.Records, registrationJSON{
				Date: core.FormatDate(r.Date), Manufacturer: r.Manufacturer, VehicleType: r.VehicleType, Registrations: r.Registrations,
			})
		}
	}
	return out
}

func growthJSON(points []metrics.GrowthPoint) []growthPointJSON {
	out := make([]growthPointJSON, 0, len(points))
	for _, p := range points {
		out = append(out, growthPointJSON{
			PeriodEnd:     core.FormatDate(p.PeriodEnd),
			Quarter:       core.QuarterLabel(p.PeriodEnd),
			Registrations: p.Registrations,
			Growth:        percentJSON(p.Growth),
		})
	}
	return out
}

func manufacturerGrowthList(in []metrics.ManufacturerGrowth) []manufacturerGrowthJSON {
	out := make([]manufacturerGrowthJSON, 0, len(in))
	for _, g := range in {
		out = append(out, manufacturerGrowthJSON(g))
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
