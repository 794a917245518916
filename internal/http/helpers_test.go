package http

import (
	"strings"
	"testing"

	"golang.org/x/text/language"

	"regdash/internal/core"
)

func TestFormatter(t *testing.T) {
	f := newFormatter(language.English, true)

	if got := f.Count(1234567); got != "1,234,567" {
		t.Errorf("Count = %q", got)
	}
	tests := []struct {
		in   core.Percent
		want string
	}{
		{core.Some(12.34), "+12.3%"},
		{core.Some(-5), "-5.0%"},
		{core.Some(0), "0.0%"},
		{core.None(), "n/a"},
	}
	for _, tt := range tests {
		if got := f.Growth(tt.in); got != tt.want {
			t.Errorf("Growth(%+v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatter_Headline(t *testing.T) {
	tests := []struct {
		name        string
		undefAsZero bool
		in          core.Percent
		want        headlineGrowth
	}{
		{"absent shown as zero", true, core.None(), headlineGrowth{Text: "0.0%", NoData: true, Trend: "neutral"}},
		{"absent shown as n/a", false, core.None(), headlineGrowth{Text: "n/a", NoData: true, Trend: "neutral"}},
		{"positive", true, core.Some(50), headlineGrowth{Text: "+50.0%", Trend: "up"}},
		{"negative", true, core.Some(-25), headlineGrowth{Text: "-25.0%", Trend: "down"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := newFormatter(language.English, tt.undefAsZero).Headline(tt.in)
			if got != tt.want {
				t.Errorf("Headline = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestSanitizeInput(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  Honda  ", "Honda"},
		{"Ta\x00ta\x1b Motors", "Tata Motors"},
		{strings.Repeat("é", 200), strings.Repeat("é", maxParamLength)},
	}
	for _, tt := range tests {
		if got := sanitizeInput(tt.in); got != tt.want {
			t.Errorf("sanitizeInput(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
