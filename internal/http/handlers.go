package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"regdash/internal/charts"
	"regdash/internal/core"
	"regdash/internal/export"
	"regdash/internal/log"
	"regdash/internal/services"
)

// errorStatus maps dashboard errors to HTTP status codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, core.ErrEmptyDataset):
		return http.StatusServiceUnavailable
	case errors.Is(err, core.ErrInvalidDate), errors.Is(err, core.ErrInvalidPeriod):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// errorMessage is the user-facing text for err.
func errorMessage(err error) string {
	switch errorStatus(err) {
	case http.StatusServiceUnavailable:
		return "The dataset contains no registrations, so there is no date range to show."
	case http.StatusBadRequest:
		return err.Error()
	case http.StatusGatewayTimeout:
		return "The query took too long. Try a narrower filter."
	default:
		return "Something went wrong while building the dashboard."
	}
}

// view resolves the request's criteria against the dataset and builds the view.
func (s *Server) view(ctx context.Context, r *http.Request) (*services.DashboardView, services.Options, error) {
	opts, err := s.dashboard.Options(ctx)
	if err != nil {
		return nil, opts, err
	}
	c, err := ParseCriteria(r.URL.Query(), opts)
	if err != nil {
		return nil, opts, err
	}
	v, err := s.dashboard.Build(ctx, c)
	if err != nil {
		return nil, opts, err
	}
	return v, opts, nil
}

func (s *Server) logFailure(ctx context.Context, msg string, err error, op string) {
	l := log.FromContext(ctx)
	if errors.Is(err, core.ErrInvalidDate) || errors.Is(err, core.ErrInvalidPeriod) {
		op = log.OpParse
	}
	if errorStatus(err) >= http.StatusInternalServerError && !errors.Is(err, core.ErrEmptyDataset) {
		l.ErrorContext(ctx, msg, log.FieldError, err, log.FieldOperation, op)
		return
	}
	l.WarnContext(ctx, msg, log.FieldError, err, log.FieldOperation, op)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.QueryTimeout)
	defer cancel()

	v, opts, err := s.view(ctx, r)
	if err != nil {
		s.logFailure(ctx, "Dashboard page failed", err, log.OpBuild)
		s.renderError(w, r, errorStatus(err), errorMessage(err))
		return
	}

	s.render(w, r, http.StatusOK, "dashboard.html", s.newPageData(v, opts))
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	render, ok := s.chartRenderer(name)
	if !ok {
		http.NotFound(w, r)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.QueryTimeout)
	defer cancel()

	kind, err := ParseKind(r.URL.Query())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var buf bytes.Buffer
	v, _, err := s.view(ctx, r)
	switch {
	case err != nil && errorStatus(err) == http.StatusBadRequest:
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	case err != nil:
		s.logFailure(ctx, "Chart data unavailable", err, log.OpRender)
		err = charts.Placeholder(&buf, "Data unavailable", charts.DefaultSize)
	default:
		err = render(&buf, v, kind)
		if err != nil {
			msg := "No data for the current filters"
			if !errors.Is(err, charts.ErrNoData) {
				log.FromContext(ctx).WarnContext(ctx, "Chart rendering failed",
					log.FieldChart, name, log.FieldError, err)
				msg = "Chart could not be drawn"
			}
			buf.Reset()
			err = charts.Placeholder(&buf, msg, charts.DefaultSize)
		}
	}
	if err != nil {
		http.Error(w, "chart unavailable", http.StatusInternalServerError)
		return
	}

	NewResponse().
		Header("Cache-Control", "private, max-age=60").
		Body("image/svg+xml", buf.Bytes()).
		Write(w)
}

type chartFunc func(buf *bytes.Buffer, v *services.DashboardView, kind core.PeriodKind) error

func (s *Server) chartRenderer(name string) (chartFunc, bool) {
	switch name {
	case "category-trend.svg":
		return func(buf *bytes.Buffer, v *services.DashboardView, _ core.PeriodKind) error {
			return charts.CategoryTrend(buf, v.CategoryTrend, charts.DefaultSize)
		}, true
	case "market-share.svg":
		return func(buf *bytes.Buffer, v *services.DashboardView, _ core.PeriodKind) error {
			return charts.MarketShare(buf, v.MarketShare, charts.DefaultSize)
		}, true
	case "snapshot.svg":
		return func(buf *bytes.Buffer, v *services.DashboardView, _ core.PeriodKind) error {
			return charts.Snapshot(buf, v.ManufacturerTotals, charts.DefaultSize)
		}, true
	case "growth.svg":
		return func(buf *bytes.Buffer, v *services.DashboardView, kind core.PeriodKind) error {
			growth := v.ManufacturerQoQ
			if kind == core.YoY {
				growth = v.ManufacturerYoY
			}
			return charts.Growth(buf, growth, kind, charts.DefaultSize)
		}, true
	default:
		return nil, false
	}
}

func (s *Server) handleAPIOptions(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.QueryTimeout)
	defer cancel()

	opts, err := s.dashboard.Options(ctx)
	if err != nil {
		s.logFailure(ctx, "Options lookup failed", err, log.OpFilter)
		ErrorResponse(errorStatus(err), errorCode(err), errorMessage(err)).Write(w)
		return
	}
	NewResponse().JSON(toOptionsJSON(opts)).Write(w)
}

func (s *Server) handleAPIDashboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.QueryTimeout)
	defer cancel()

	v, _, err := s.view(ctx, r)
	if err != nil {
		s.logFailure(ctx, "Dashboard API failed", err, log.OpBuild)
		ErrorResponse(errorStatus(err), errorCode(err), errorMessage(err)).Write(w)
		return
	}
	withRecords := r.URL.Query().Get("records") == "1"
	NewResponse().JSON(toDashboardJSON(v, withRecords)).Write(w)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.QueryTimeout)
	defer cancel()

	v, _, err := s.view(ctx, r)
	if err != nil {
		s.logFailure(ctx, "Export failed", err, log.OpExport)
		ErrorResponse(errorStatus(err), errorCode(err), errorMessage(err)).Write(w)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteWorkbook(&buf, v); err != nil {
		s.logFailure(ctx, "Workbook export failed", err, log.OpExport)
		InternalServerError("export failed").Write(w)
		return
	}

	fields := log.NewFields().
		WithOperation(log.OpExport).
		WithFilter(v.Criteria.Start, v.Criteria.End, v.Criteria.Categories, v.Criteria.Manufacturers)
	fields[log.FieldRows] = len(v.Records)
	log.FromContext(ctx).WithComponent(log.ComponentExport).InfoContext(ctx, "Workbook exported", fields.ToSlice()...)

	NewResponse().
		NoStore().
		Attachment(export.Filename(v)).
		Body(export.ContentType, buf.Bytes()).
		Write(w)
}

func errorCode(err error) string {
	switch errorStatus(err) {
	case http.StatusServiceUnavailable:
		return "empty_dataset"
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusGatewayTimeout:
		return "timeout"
	default:
		return "internal"
	}
}

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewResponse().NoStore().JSON(map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	}).Write(w)
}

// handleReady reports ready once the dataset is loaded and templates parsed.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{"templates": "ok", "dataset": "ok"}
	status, code := "ready", http.StatusOK
	if s.templates == nil {
		checks["templates"] = "not loaded"
		status, code = "not_ready", http.StatusServiceUnavailable
	}
	if !s.ready() {
		checks["dataset"] = "loading"
		status, code = "not_ready", http.StatusServiceUnavailable
	}
	NewResponse().Status(code).NoStore().JSON(map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	}).Write(w)
}

// handleMetrics exposes counters in the Prometheus text format.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	tm := s.tracer.GetMetrics()

	writeMetric(&buf, "http_requests_total", "counter", "Total number of HTTP requests", tm.TotalRequests)
	writeMetric(&buf, "http_server_errors_total", "counter", "Responses with a 5xx status", tm.ServerErrors)
	writeMetric(&buf, "rate_limit_hits_total", "counter", "Requests rejected by the export rate limit", s.limiter.Hits())
	writeMetric(&buf, "suspicious_requests_total", "counter", "Probe requests rejected", s.detector.Probes())
	if cr, ok := s.dashboard.(cacheReporter); ok {
		st := cr.Cache().Stats()
		writeMetric(&buf, "dashboard_cache_hits_total", "counter", "Dashboard view cache hits", int64(st.Hits))
		writeMetric(&buf, "dashboard_cache_misses_total", "counter", "Dashboard view cache misses", int64(st.Misses))
		writeMetric(&buf, "dashboard_cache_entries", "gauge", "Cached dashboard views", int64(cr.Cache().Size()))
	}
	writeMetric(&buf, "uptime_seconds", "gauge", "Application uptime in seconds", int64(time.Since(s.started).Seconds()))

	NewResponse().Body("text/plain; version=0.0.4; charset=utf-8", buf.Bytes()).Write(w)
}

func writeMetric(buf *bytes.Buffer, name, kind, help string, value int64) {
	fmt.Fprintf(buf, "# HELP %s %s\n# TYPE %s %s\n%s %d\n", name, help, name, kind, name, value)
}
