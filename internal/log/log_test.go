package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestNew_JSONFormatCarriesComponent(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelInfo, Format: "json", Component: ComponentDashboard, Output: &buf})

	l.Info("built", FieldRows, 3)
	l.Debug("hidden")

	var rec map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &rec); err != nil {
		t.Fatalf("expected one JSON record, got %q: %v", buf.String(), err)
	}
	if rec[FieldComponent] != ComponentDashboard {
		t.Errorf("component=%v", rec[FieldComponent])
	}
	if rec[FieldRows] != float64(3) {
		t.Errorf("rows=%v", rec[FieldRows])
	}
}

func TestLogger_WithComponentDoesNotDuplicate(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Output: &buf}).WithComponent(ComponentStorage)
	l.Info("loaded")
	if got := strings.Count(buf.String(), "component="); got != 1 {
		t.Errorf("component logged %d times: %s", got, buf.String())
	}
	if !strings.Contains(buf.String(), "component=storage") {
		t.Errorf("missing component: %s", buf.String())
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"", "text", false},
		{"text", "text", false},
		{"json", "json", false},
		{"xml", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseFormat(%q)=%q,%v", tt.in, got, err)
		}
	}
}

func TestLogFields_WithFilter(t *testing.T) {
	f := NewFields().WithFilter(
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
		nil,
		[]string{"Acme", "Zeta"},
	)
	if f[FieldStart] != "2024-01-01" || f[FieldEnd] != "2024-03-31" {
		t.Errorf("dates %v %v", f[FieldStart], f[FieldEnd])
	}
	if f[FieldCategories] != "all" || f[FieldManufacturers] != "Acme,Zeta" {
		t.Errorf("sets %v %v", f[FieldCategories], f[FieldManufacturers])
	}
}

func TestFromContext_Default(t *testing.T) {
	if l := FromContext(context.Background()); l.Component() != "unknown" {
		t.Errorf("component=%q", l.Component())
	}
}

func TestStructuredLogger_LevelsByStatus(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(New(Config{Output: &buf}))
	r := httptest.NewRequest(http.MethodGet, "/api/dashboard?start=x", nil)

	sl.LogHTTPEnd(context.Background(), r, http.StatusBadRequest, 4, "10.0.0.1")
	sl.LogHTTPEnd(context.Background(), r, http.StatusInternalServerError, 4, "10.0.0.1")
	sl.LogError(context.Background(), "render failed", errors.New("boom"), ComponentChart, OpRender, nil)

	out := buf.String()
	for _, want := range []string{"level=WARN", "level=ERROR", "error=boom", "operation=render"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in %s", want, out)
		}
	}
}
