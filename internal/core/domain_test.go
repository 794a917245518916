package core

import (
	"errors"
	"testing"
	"time"
)

func TestCriteriaMatches(t *testing.T) {
	rec := Registration{
		Date:          NewDate(2024, time.March, 15),
		Manufacturer:  "Tata",
		VehicleType:   "4W",
		Registrations: 10,
	}

	cases := []struct {
		name string
		c    Criteria
		want bool
	}{
		{"inside range, no sets", Criteria{Start: NewDate(2024, 1, 1), End: NewDate(2024, 12, 31)}, true},
		{"inclusive start", Criteria{Start: NewDate(2024, 3, 15), End: NewDate(2024, 3, 20)}, true},
		{"inclusive end", Criteria{Start: NewDate(2024, 3, 1), End: NewDate(2024, 3, 15)}, true},
		{"before range", Criteria{Start: NewDate(2024, 3, 16), End: NewDate(2024, 4, 1)}, false},
		{"category selected", Criteria{Start: NewDate(2024, 1, 1), End: NewDate(2024, 12, 31), Categories: []string{"2W", "4W"}}, true},
		{"category excluded", Criteria{Start: NewDate(2024, 1, 1), End: NewDate(2024, 12, 31), Categories: []string{"2W"}}, false},
		{"manufacturer excluded", Criteria{Start: NewDate(2024, 1, 1), End: NewDate(2024, 12, 31), Manufacturers: []string{"Honda"}}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.c.Matches(rec); got != tc.want {
				t.Fatalf("Matches()=%v want %v", got, tc.want)
			}
		})
	}
}

func TestCriteriaKeyIgnoresOrderAndDuplicates(t *testing.T) {
	a := Criteria{
		Start:         time.Date(2024, 1, 1, 13, 0, 0, 0, time.UTC),
		End:           NewDate(2024, 6, 30),
		Categories:    []string{"4W", "2W", "4W"},
		Manufacturers: []string{" Tata", "Honda"},
	}
	b := Criteria{
		Start:         NewDate(2024, 1, 1),
		End:           NewDate(2024, 6, 30),
		Categories:    []string{"2W", "4W"},
		Manufacturers: []string{"Honda", "Tata"},
	}
	if a.Key() != b.Key() {
		t.Fatalf("keys differ: %q vs %q", a.Key(), b.Key())
	}
	c := b
	c.Manufacturers = nil
	if c.Key() == b.Key() {
		t.Fatalf("empty manufacturer set must produce a different key")
	}
}

func TestPeriodKind(t *testing.T) {
	if QoQ.Lag() != 1 || YoY.Lag() != 4 {
		t.Fatalf("unexpected lags: QoQ=%d YoY=%d", QoQ.Lag(), YoY.Lag())
	}
	if err := PeriodKind("MoM").Validate(); !errors.Is(err, ErrInvalidPeriod) {
		t.Fatalf("expected ErrInvalidPeriod, got %v", err)
	}
}

func TestQuarterEnd(t *testing.T) {
	cases := []struct {
		in, want time.Time
	}{
		{NewDate(2024, 1, 1), NewDate(2024, 3, 31)},
		{NewDate(2024, 5, 17), NewDate(2024, 6, 30)},
		{NewDate(2024, 9, 30), NewDate(2024, 9, 30)},
		{NewDate(2024, 12, 2), NewDate(2024, 12, 31)},
	}
	for _, tc := range cases {
		if got := QuarterEnd(tc.in); !got.Equal(tc.want) {
			t.Errorf("QuarterEnd(%s)=%s want %s", FormatDate(tc.in), FormatDate(got), FormatDate(tc.want))
		}
	}
	if got := NextQuarterEnd(NewDate(2024, 12, 31)); !got.Equal(NewDate(2025, 3, 31)) {
		t.Errorf("NextQuarterEnd across year = %s", FormatDate(got))
	}
	if got := QuarterLabel(NewDate(2024, 8, 1)); got != "2024-Q3" {
		t.Errorf("QuarterLabel=%s", got)
	}
}

func TestParseDate(t *testing.T) {
	for _, s := range []string{"2024-02-29", "2024-02-29 00:00:00", "2024-02-29T10:11:12Z", "2024/02/29"} {
		d, err := ParseDate(s)
		if err != nil {
			t.Fatalf("ParseDate(%q): %v", s, err)
		}
		if !d.Equal(NewDate(2024, 2, 29)) {
			t.Fatalf("ParseDate(%q)=%s", s, d)
		}
	}
	if _, err := ParseDate("29.02.2024"); !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}
}

func TestPercentOrZero(t *testing.T) {
	if None().OrZero() != 0 || None().Valid {
		t.Fatalf("None must be invalid and fall back to 0")
	}
	if Some(12.5).OrZero() != 12.5 {
		t.Fatalf("Some value lost")
	}
}
