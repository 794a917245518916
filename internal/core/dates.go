package core

import (
	"fmt"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

var acceptedLayouts = []string{
	dateLayout,
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006/01/02",
}

// ParseDate reads an ISO-like date string. Any time of day is dropped.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range acceptedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Day(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

// FormatDate renders a date as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

// NewDate builds a UTC date at midnight.
func NewDate(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Day truncates t to midnight UTC of its calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return NewDate(y, m, d)
}

// MonthStart returns the first day of t's month.
func MonthStart(t time.Time) time.Time {
	return NewDate(t.Year(), t.Month(), 1)
}

// QuarterEnd returns the last day of the calendar quarter containing t.
func QuarterEnd(t time.Time) time.Time {
	q := (int(t.Month()) - 1) / 3
	firstOfNext := NewDate(t.Year(), time.Month(q*3+4), 1)
	return firstOfNext.AddDate(0, 0, -1)
}

// NextQuarterEnd returns the end of the quarter following the one ending at qe.
func NextQuarterEnd(qe time.Time) time.Time {
	return QuarterEnd(qe.AddDate(0, 0, 1))
}

// QuarterLabel formats the quarter containing t, e.g. "2024-Q3".
func QuarterLabel(t time.Time) string {
	return fmt.Sprintf("%d-Q%d", t.Year(), (int(t.Month())-1)/3+1)
}
