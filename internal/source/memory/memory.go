// Package memory serves the dataset from process memory. It backs tests and
// the demo mode.
package memory

import (
	"context"
	"strconv"
	"sync"
	"time"

	"regdash/internal/core"
	"regdash/internal/source"
)

type Store struct {
	mu    sync.Mutex
	name  string
	table core.Table
	reads int
}

var _ source.Source = (*Store)(nil)

func New(name string, t core.Table) *Store {
	return &Store{name: name, table: t}
}

// FromRegistrations renders records back into a table.
func FromRegistrations(name string, recs []core.Registration) *Store {
	t := core.Table{Header: columnNames()}
	for _, r := range recs {
		t.Rows = append(t.Rows, []string{
			core.FormatDate(r.Date),
			r.Manufacturer,
			r.VehicleType,
			strconv.FormatInt(r.Registrations, 10),
		})
	}
	return New(name, t)
}

func (s *Store) Name() string { return "memory:" + s.name }

// ReadTable returns a copy of the table so callers cannot mutate the store.
func (s *Store) ReadTable(_ context.Context) (core.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads++
	out := core.Table{
		Header: append([]string(nil), s.table.Header...),
		Rows:   make([][]string, len(s.table.Rows)),
	}
	for i, r := range s.table.Rows {
		out.Rows[i] = append([]string(nil), r...)
	}
	return out, nil
}

// Reads reports how many times the table was read.
func (s *Store) Reads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reads
}

func columnNames() []string {
	cols := core.RequiredColumns()
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = string(c)
	}
	return out
}

var (
	sampleManufacturers = []string{"Hero MotoCorp", "Honda", "TVS", "Bajaj", "Maruti Suzuki", "Tata Motors", "Mahindra", "Piaggio"}
	sampleTypes         = map[string][]string{
		"Hero MotoCorp": {"2W"},
		"Honda":         {"2W", "4W"},
		"TVS":           {"2W", "3W"},
		"Bajaj":         {"2W", "3W"},
		"Maruti Suzuki": {"4W"},
		"Tata Motors":   {"4W"},
		"Mahindra":      {"3W", "4W"},
		"Piaggio":       {"3W"},
	}
)

// Sample builds a deterministic demo dataset: one row per month, manufacturer
// and vehicle type from January 2022 to December 2024.
func Sample() []core.Registration {
	var out []core.Registration
	start := core.NewDate(2022, time.January, 15)
	for m := 0; m < 36; m++ {
		date := start.AddDate(0, m, 0)
		for mi, name := range sampleManufacturers {
			for ti, vt := range sampleTypes[name] {
				base := int64(1000 * (len(sampleManufacturers) - mi))
				trend := int64(m * (40 + 15*mi))
				season := int64(((m + ti) % 4) * 120)
				out = append(out, core.Registration{
					Date:          date,
					Manufacturer:  name,
					VehicleType:   vt,
					Registrations: base + trend + season,
				})
			}
		}
	}
	return out
}
