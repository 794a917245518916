package http

import (
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"golang.org/x/text/language"

	"regdash/internal/cache"
	"regdash/internal/core"
	"regdash/internal/log"
	"regdash/internal/middleware/ratelimit"
	"regdash/internal/middleware/security"
	"regdash/internal/middleware/trace"
	"regdash/internal/services"
	appweb "regdash/web"
)

// Dashboard is the query side the server renders.
type Dashboard interface {
	Options(ctx context.Context) (services.Options, error)
	Build(ctx context.Context, c core.Criteria) (*services.DashboardView, error)
}

// cacheReporter is implemented by dashboards that cache their views.
type cacheReporter interface {
	Cache() *cache.LRUCache[*services.DashboardView]
}

// Config tunes the HTTP layer.
type Config struct {
	Addr                    string
	QueryTimeout            time.Duration
	ExportRateLimit         int
	HeadlineUndefinedAsZero bool
	Language                language.Tag
	MaxTableRows            int
}

type Server struct {
	http.Server
	dashboard Dashboard
	ready     func() bool
	templates *template.Template
	logger    *log.Logger
	cfg       Config
	format    formatter

	detector *security.Detector
	limiter  *ratelimit.Limiter
	tracer   *trace.Middleware

	started      time.Time
	shutdownOnce sync.Once
}

// NewServer configures routes, middleware and templates, returning a
// ready-to-run server. ready reports whether the dataset has been loaded.
func NewServer(cfg Config, dash Dashboard, ready func() bool, logger *log.Logger) (*Server, error) {
	if cfg.QueryTimeout <= 0 {
		cfg.QueryTimeout = 7 * time.Second
	}
	if cfg.MaxTableRows <= 0 {
		cfg.MaxTableRows = 500
	}
	if cfg.Language == language.Und {
		cfg.Language = language.English
	}
	if ready == nil {
		ready = func() bool { return true }
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	s := &Server{
		dashboard: dash,
		ready:     ready,
		logger:    logger,
		cfg:       cfg,
		format:    newFormatter(cfg.Language, cfg.HeadlineUndefinedAsZero),
		detector:  security.NewDetector(),
		limiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerWindow: cfg.ExportRateLimit,
			Window:            time.Minute,
		}),
		started: time.Now(),
	}
	s.tracer = trace.NewMiddleware(logger, s.detector.ClientIP)

	t, err := template.New("").Funcs(s.templateFuncs()).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		s.limiter.Stop()
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	s.templates = t

	mux := http.NewServeMux()

	sub, err := fs.Sub(appweb.StaticFS, "static")
	if err != nil {
		s.limiter.Stop()
		return nil, fmt.Errorf("mount static assets: %w", err)
	}
	mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(http.StripPrefix("/static/", http.FileServerFS(sub))))

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /charts/{name}", s.handleChart)
	mux.HandleFunc("GET /api/options", s.handleAPIOptions)
	mux.HandleFunc("GET /api/dashboard", s.handleAPIDashboard)
	mux.Handle("GET /export.xlsx", s.limiter.Middleware(s.detector.ClientIP, s.onExportLimit)(http.HandlerFunc(s.handleExport)))
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	var handler http.Handler = mux
	handler = headers.Middleware(handler)
	handler = s.tracer.Middleware(handler)
	handler = s.detector.Middleware(logger.Slog())(handler)

	s.Server = http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.QueryTimeout + 10*time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s, nil
}

func (s *Server) templateFuncs() template.FuncMap {
	return template.FuncMap{
		"count":   s.format.Count,
		"percent": s.format.Percent,
		"growth":  s.format.Growth,
		"signed":  func(v float64) string { return s.format.Growth(core.Some(v)) },
		"date":    core.FormatDate,
		"month":   formatMonth,
		"quarter": core.QuarterLabel,
	}
}

// Shutdown stops background work and gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func (s *Server) onExportLimit(w http.ResponseWriter, r *http.Request) {
	s.logger.WithComponent(log.ComponentRateLimit).WarnContext(r.Context(), "Export rate limit exceeded",
		log.FieldClientIP, s.detector.ClientIP(r))
	ErrorResponse(http.StatusTooManyRequests, "rate_limited", "too many exports, try again in a minute").Write(w)
}
