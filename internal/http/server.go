package http

import (
	"context"
	"errors"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"fintrack/internal/auth"
	"fintrack/internal/cache"
	applog "fintrack/internal/log"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/middleware/security"
	"fintrack/internal/middleware/trace"
	"fintrack/internal/services"
	appweb "fintrack/web"
)

// Options wires a Server. Finance and Identity are required; nil Detector and
// Logger get defaults.
type Options struct {
	Addr      string
	Finance   *services.FinanceService
	Identity  auth.Provider
	Detector  *security.Detector
	RateLimit ratelimit.Config
	Logger    *applog.Logger
	Now       func() time.Time
}

type Server struct {
	http.Server
	finance   *services.FinanceService
	templates *template.Template
	logger    *applog.Logger
	now       func() time.Time

	rateLimiter      *ratelimit.Limiter
	securityDetector *security.Detector
	traceMiddleware  *trace.Middleware
	cacheManager     *cache.Manager
	appMetrics       *appMetrics

	shutdownOnce sync.Once
}

type appMetrics struct {
	transactionsCreated int64
	budgetsSet          int64
	quickAddFailures    int64
	uptime              time.Time
}

// NewServer configures routes and templates, returning a ready-to-run server.
func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = applog.FromContext(context.Background())
	}
	logger = logger.WithComponent(applog.ComponentHTTP)
	detector := opts.Detector
	if detector == nil {
		detector = security.NewDetector()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	s := &Server{
		Server: http.Server{
			Addr:              opts.Addr,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      60 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		finance:          opts.Finance,
		logger:           logger,
		now:              now,
		rateLimiter:      ratelimit.NewLimiter(opts.RateLimit),
		securityDetector: detector,
		traceMiddleware:  trace.NewMiddleware(detector.ExtractClientIP, logger),
		cacheManager:     cache.NewManager(),
		appMetrics:       &appMetrics{uptime: now()},
	}

	for _, c := range opts.Finance.Caches() {
		s.cacheManager.Register(c)
	}
	s.cacheManager.StartCleanup(5 * time.Minute)

	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		logger.Warn("Failed parsing templates", applog.FieldError, err)
	}
	s.templates = t

	mux := http.NewServeMux()

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", security.CacheStatic(time.Hour)(static))
	} else {
		logger.Warn("Failed to mount embedded static FS", applog.FieldError, err)
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	app := http.NewServeMux()
	app.HandleFunc("GET /{$}", s.handleIndex)

	app.HandleFunc("GET /api/transactions", s.handleListTransactions)
	app.HandleFunc("POST /api/transactions", s.handleCreateTransaction)
	app.HandleFunc("DELETE /api/transactions/{id}", s.handleDeleteTransaction)
	app.HandleFunc("POST /api/transactions/quick", s.handleQuickAdd)
	app.HandleFunc("POST /api/categorize", s.handleCategorize)
	app.HandleFunc("GET /api/balance", s.handleBalance)
	app.HandleFunc("GET /api/dashboard", s.handleDashboard)

	app.HandleFunc("GET /api/budgets", s.handleListBudgets)
	app.HandleFunc("POST /api/budgets", s.handleSetBudget)
	app.HandleFunc("DELETE /api/budgets/{id}", s.handleDeleteBudget)
	app.HandleFunc("GET /api/budgets/status", s.handleBudgetStatus)
	app.HandleFunc("GET /api/budgets/recommendations", s.handleRecommendations)
	app.HandleFunc("POST /api/budgets/recommendations/apply", s.handleApplyRecommendation)

	app.HandleFunc("GET /api/insights", s.handleInsights)
	app.HandleFunc("GET /export.csv", s.handleExportCSV)
	app.HandleFunc("GET /charts/trend.png", s.handleTrendChart)
	app.HandleFunc("GET /charts/categories.png", s.handleCategoryChart)

	limitWrites := s.rateLimiter.Middleware(detector.ExtractClientIP, s.handleRateLimited)
	var appHandler http.Handler = app
	appHandler = onlyWrites(limitWrites, appHandler)
	appHandler = auth.Middleware(opts.Identity, opts.Finance)(appHandler)
	appHandler = security.NoStore(appHandler)
	mux.Handle("/", appHandler)

	headers := security.Headers(security.DefaultHeaderPolicy())
	s.Handler = s.traceMiddleware.Middleware(detector.Middleware(headers(mux)))

	return s
}

// onlyWrites applies mw to requests that change state; reads pass straight
// through.
func onlyWrites(mw func(http.Handler) http.Handler, next http.Handler) http.Handler {
	limited := mw(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			next.ServeHTTP(w, r)
		default:
			limited.ServeHTTP(w, r)
		}
	})
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	s.logger.WarnContext(r.Context(), "Rate limit exceeded",
		applog.FieldClientIP, s.securityDetector.ExtractClientIP(r),
		applog.FieldMethod, r.Method,
		applog.FieldPath, r.URL.Path)
	s.respondError(w, r, http.StatusTooManyRequests, "Too many requests. Please slow down.")
}

// Shutdown stops background cleanup and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// ListenAndServe treats a graceful shutdown as success.
func (s *Server) ListenAndServe() error {
	err := s.Server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) countTransaction() { atomic.AddInt64(&s.appMetrics.transactionsCreated, 1) }
func (s *Server) countBudget()      { atomic.AddInt64(&s.appMetrics.budgetsSet, 1) }
