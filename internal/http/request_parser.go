// Package http serves the registrations dashboard: the HTML page, chart
// images, JSON endpoints and the workbook export.
//
// This file turns query parameters into dashboard criteria.

package http

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"regdash/internal/core"
	"regdash/internal/services"
)

// Query parameter names shared by the page form, chart URLs and the API.
const (
	ParamStart        = "start"
	ParamEnd          = "end"
	ParamCategory     = "category"
	ParamManufacturer = "manufacturer"
	ParamApplied      = "applied"
	ParamKind         = "kind"
)

// ParseCriteria builds criteria from query values using opts for defaults.
//
// Missing dates fall back to the dataset bounds. A single date, given as
// either start or end, selects that one day. Until the filter form has been
// submitted (no "applied" parameter) and no manufacturer is named, the
// default manufacturer selection applies; after that, no manufacturer means
// all manufacturers.
func ParseCriteria(q url.Values, opts services.Options) (core.Criteria, error) {
	start, err := parseOptionalDate(q, ParamStart)
	if err != nil {
		return core.Criteria{}, err
	}
	end, err := parseOptionalDate(q, ParamEnd)
	if err != nil {
		return core.Criteria{}, err
	}

	switch {
	case start.IsZero() && end.IsZero():
		start, end = opts.Start, opts.End
	case start.IsZero():
		start = end
	case end.IsZero():
		end = start
	}

	c := core.Criteria{
		Start:         start,
		End:           end,
		Categories:    multiValue(q, ParamCategory),
		Manufacturers: multiValue(q, ParamManufacturer),
	}
	if len(c.Manufacturers) == 0 && !q.Has(ParamApplied) {
		c.Manufacturers = opts.DefaultManufacturers
	}
	return c, nil
}

// ParseKind reads the growth comparison, defaulting to QoQ. Matching is case-insensitive.
func ParseKind(q url.Values) (core.PeriodKind, error) {
	v := strings.TrimSpace(q.Get(ParamKind))
	switch strings.ToLower(v) {
	case "", "qoq":
		return core.QoQ, nil
	case "yoy":
		return core.YoY, nil
	default:
		return "", core.PeriodKind(v).Validate()
	}
}

// EncodeCriteria is the inverse of ParseCriteria, used to build chart and
// export links that reproduce the current view.
func EncodeCriteria(c core.Criteria) url.Values {
	q := url.Values{}
	q.Set(ParamStart, core.FormatDate(c.Start))
	q.Set(ParamEnd, core.FormatDate(c.End))
	q.Set(ParamApplied, "1")
	for _, v := range c.Categories {
		q.Add(ParamCategory, v)
	}
	for _, v := range c.Manufacturers {
		q.Add(ParamManufacturer, v)
	}
	return q
}

func parseOptionalDate(q url.Values, key string) (time.Time, error) {
	v := strings.TrimSpace(q.Get(key))
	if v == "" {
		return time.Time{}, nil
	}
	t, err := core.ParseDate(v)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: %w", key, err)
	}
	return t, nil
}

// multiValue collects a repeated parameter, dropping blank values.
func multiValue(q url.Values, key string) []string {
	var out []string
	for _, raw := range q[key] {
		if v := sanitizeInput(raw); v != "" {
			out = append(out, v)
		}
	}
	return out
}
