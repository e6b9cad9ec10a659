package http

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/middleware/security"
	"fintrack/internal/middleware/trace"
	"fintrack/internal/reporting"
	appweb "fintrack/web"
)

// pageTimeout bounds the store reads behind a rendered page.
const pageTimeout = 7 * time.Second

// TransactionService is the write and lookup side used by the API and the forms.
type TransactionService interface {
	List(ctx context.Context) ([]core.Transaction, error)
	Get(ctx context.Context, id string) (core.Transaction, error)
	Create(ctx context.Context, p core.TransactionPatch) (core.Transaction, error)
	Update(ctx context.Context, id string, p core.TransactionPatch) (core.Transaction, error)
	Delete(ctx context.Context, id string) error
}

// DashboardReader computes the aggregate views.
type DashboardReader interface {
	Dashboard(ctx context.Context) (reporting.Dashboard, error)
}

// HealthChecker reports whether the store is reachable.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Config holds the server settings that do not come from its dependencies.
type Config struct {
	Addr               string
	RateLimitPerMinute int
	Logger             *log.Logger
}

type Server struct {
	http.Server
	templates map[string]*template.Template
	txs       TransactionService
	dash      DashboardReader
	health    HealthChecker

	rateLimiter     *ratelimit.Limiter
	traceMiddleware *trace.Middleware
	appMetrics      *appMetrics
	now             func() time.Time

	shutdownOnce sync.Once
}

// appMetrics counts successful mutations since start.
type appMetrics struct {
	started time.Time
	created atomic.Int64
	updated atomic.Int64
	deleted atomic.Int64
}

func (m *appMetrics) record(action core.ChangeAction) {
	switch action {
	case core.ActionCreated:
		m.created.Add(1)
	case core.ActionUpdated:
		m.updated.Add(1)
	case core.ActionDeleted:
		m.deleted.Add(1)
	}
}

// pageFiles lists the templates rendered as full pages. Each is parsed
// together with the shared layout and partials.
var pageFiles = []string{
	"dashboard.html",
	"transactions.html",
	"transaction_form.html",
	"transaction_delete.html",
}

// NewServer configures routes, middleware and templates, returning a
// ready-to-run server. health may be nil.
func NewServer(cfg Config, txs TransactionService, dash DashboardReader, health HealthChecker) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	limits := ratelimit.DefaultConfig()
	if cfg.RateLimitPerMinute > 0 {
		limits.RequestsPerMinute = cfg.RateLimitPerMinute
	}

	s := &Server{
		Server: http.Server{
			Addr:              cfg.Addr,
			ReadTimeout:       10 * time.Second,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      10 * time.Second,
			IdleTimeout:       60 * time.Second,
			MaxHeaderBytes:    1 << 16,
		},
		txs:             txs,
		dash:            dash,
		health:          health,
		rateLimiter:     ratelimit.NewLimiter(limits),
		traceMiddleware: trace.NewMiddleware(clientIP),
		appMetrics:      &appMetrics{started: time.Now()},
		now:             time.Now,
	}

	templates, err := parseTemplates()
	if err != nil {
		logger.Error("Failed parsing templates", log.FieldError, err)
	}
	s.templates = templates

	mux := http.NewServeMux()
	s.routes(mux)

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	var h http.Handler = mux
	h = s.rateLimiter.Middleware(clientIP, s.onRateLimited)(h)
	h = headers.Middleware(h)
	h = s.traceMiddleware.Middleware(h)
	h = log.Middleware(logger)(h)
	s.Handler = h

	return s
}

func (s *Server) routes(mux *http.ServeMux) {
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(static))
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	// JSON API
	mux.HandleFunc("GET /api/transactions", s.handleListTransactions)
	mux.HandleFunc("POST /api/transactions", s.handleCreateTransaction)
	mux.HandleFunc("GET /api/transactions/{id}", s.handleGetTransaction)
	mux.HandleFunc("PUT /api/transactions/{id}", s.handleUpdateTransaction)
	mux.HandleFunc("DELETE /api/transactions/{id}", s.handleDeleteTransaction)
	mux.HandleFunc("GET /api/stats", s.handleStats)

	// Pages
	mux.HandleFunc("GET /{$}", s.handleDashboardPage)
	mux.HandleFunc("GET /transactions", s.handleTransactionsPage)
	mux.HandleFunc("GET /transactions/new", s.handleNewTransactionForm)
	mux.HandleFunc("POST /transactions/new", s.handleCreateTransactionForm)
	mux.HandleFunc("GET /transactions/{id}/edit", s.handleEditTransactionForm)
	mux.HandleFunc("POST /transactions/{id}/edit", s.handleUpdateTransactionForm)
	mux.HandleFunc("GET /transactions/{id}/delete", s.handleDeleteConfirm)
	mux.HandleFunc("POST /transactions/{id}/delete", s.handleDeleteTransactionForm)
}

func parseTemplates() (map[string]*template.Template, error) {
	set := make(map[string]*template.Template, len(pageFiles))
	for _, name := range pageFiles {
		t, err := template.ParseFS(appweb.TemplatesFS,
			"templates/layout.html",
			"templates/partials.html",
			"templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		set[name] = t
	}
	return set, nil
}

// render executes the page into a buffer first so a failing template never
// leaves a half-written response.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	ctx := r.Context()
	t, ok := s.templates[name]
	if !ok {
		log.FromContext(ctx).ErrorContext(ctx, "Template not loaded", log.FieldTemplate, name)
		InternalServerError("Templates not loaded").Write(w)
		return
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		log.LogError(ctx, "Template execution failed", err, log.ComponentTemplate, log.OpRender,
			log.LogFields{log.FieldTemplate: name})
		InternalServerError("Error rendering page").Write(w)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (s *Server) onRateLimited(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log.FromContext(ctx).WarnContext(ctx, "Rate limit exceeded",
		log.FieldComponent, log.ComponentRateLimit,
		log.FieldClientIP, clientIP(r),
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)

	w.Header().Set("Retry-After", "60")
	writeJSONError(w, r, http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.")
}

// Shutdown stops the rate limiter and then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}
