package http

import (
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"regdash/internal/core"
)

const maxParamLength = 128

// formatter renders numbers for the page in one locale.
type formatter struct {
	p           *message.Printer
	undefAsZero bool
}

func newFormatter(tag language.Tag, undefAsZero bool) formatter {
	return formatter{p: message.NewPrinter(tag), undefAsZero: undefAsZero}
}

// Count formats a registration count with digit grouping, e.g. "1,234,567".
func (f formatter) Count(n int64) string {
	return f.p.Sprintf("%d", n)
}

// Percent formats a share or growth value with one decimal.
func (f formatter) Percent(v float64) string {
	return f.p.Sprintf("%.1f%%", v)
}

// Growth formats a growth value with its sign, or "n/a" when absent.
func (f formatter) Growth(p core.Percent) string {
	if !p.Valid {
		return "n/a"
	}
	if p.Value > 0 {
		return "+" + f.Percent(p.Value)
	}
	return f.Percent(p.Value)
}

// headlineGrowth is a growth figure as the headline shows it.
type headlineGrowth struct {
	Text   string
	NoData bool
	Trend  string
}

// Headline applies the headline policy: an absent value is shown as 0% and
// flagged, or as "n/a" when zero substitution is disabled.
func (f formatter) Headline(p core.Percent) headlineGrowth {
	if !p.Valid {
		text := "n/a"
		if f.undefAsZero {
			text = f.Growth(core.Some(0))
		}
		return headlineGrowth{Text: text, NoData: true, Trend: "neutral"}
	}
	trend := "neutral"
	switch {
	case p.Value > 0:
		trend = "up"
	case p.Value < 0:
		trend = "down"
	}
	return headlineGrowth{Text: f.Growth(p), Trend: trend}
}

func formatMonth(t time.Time) string {
	return t.Format("Jan 2006")
}

// sanitizeInput removes control characters, trims whitespace and caps the length.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	result := strings.Map(func(r rune) rune {
		if r < 32 || r == 127 {
			return -1
		}
		return r
	}, s)
	if utf8.RuneCountInString(result) > maxParamLength {
		result = string([]rune(result)[:maxParamLength])
	}
	return result
}
