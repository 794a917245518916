package http

import (
	"bytes"
	"html/template"
	"net/http"

	"regdash/internal/core"
	"regdash/internal/log"
	"regdash/internal/metrics"
	"regdash/internal/services"
)

type pageData struct {
	Options       services.Options
	Criteria      core.Criteria
	Categories    []choice
	Manufacturers []choice
	Empty         bool

	Total string
	QoQ   headlineGrowth
	YoY   headlineGrowth

	// Query reproduces the current filter in chart and export links.
	Query template.URL

	Snapshot        []metrics.ManufacturerTotal
	ManufacturerQoQ []metrics.ManufacturerGrowth
	ManufacturerYoY []metrics.ManufacturerGrowth

	Rows      []core.Registration
	RowsTotal int64
	Truncated bool
}

// choice is one checkbox of the filter form.
type choice struct {
	Value    string
	Selected bool
}

func choices(all, selected []string) []choice {
	sel := make(map[string]bool, len(selected))
	for _, v := range selected {
		sel[v] = true
	}
	out := make([]choice, 0, len(all))
	for _, v := range all {
		out = append(out, choice{Value: v, Selected: sel[v]})
	}
	return out
}

func (s *Server) newPageData(v *services.DashboardView, opts services.Options) pageData {
	rows := v.Records
	truncated := false
	if len(rows) > s.cfg.MaxTableRows {
		rows = rows[:s.cfg.MaxTableRows]
		truncated = true
	}
	return pageData{
		Options:         opts,
		Criteria:        v.Criteria,
		Categories:      choices(opts.Categories, v.Criteria.Categories),
		Manufacturers:   choices(opts.Manufacturers, v.Criteria.Manufacturers),
		Empty:           v.Empty(),
		Total:           s.format.Count(v.Headline.TotalRegistrations),
		QoQ:             s.format.Headline(v.Headline.QoQ),
		YoY:             s.format.Headline(v.Headline.YoY),
		Query:           template.URL(EncodeCriteria(v.Criteria).Encode()),
		Snapshot:        v.ManufacturerTotals,
		ManufacturerQoQ: v.ManufacturerQoQ,
		ManufacturerYoY: v.ManufacturerYoY,
		Rows:            rows,
		RowsTotal:       int64(len(v.Records)),
		Truncated:       truncated,
	}
}

type errorPage struct {
	Status  int
	Title   string
	Message string
}

func (s *Server) renderError(w http.ResponseWriter, r *http.Request, status int, message string) {
	s.render(w, r, status, "error.html", errorPage{
		Status:  status,
		Title:   http.StatusText(status),
		Message: message,
	})
}

// render executes a template into a buffer first so a failing template never
// leaves a half-written page.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		log.FromContext(r.Context()).WithComponent(log.ComponentTemplate).ErrorContext(r.Context(), "Template execution failed",
			log.FieldError, err, "template", name)
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	NewResponse().Status(status).Body("text/html; charset=utf-8", buf.Bytes()).Write(w)
}
