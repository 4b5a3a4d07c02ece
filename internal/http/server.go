package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"budgie/internal/cache"
	"budgie/internal/core"
	"budgie/internal/event"
	applog "budgie/internal/log"
	"budgie/internal/middleware/ratelimit"
	"budgie/internal/middleware/security"
	"budgie/internal/middleware/trace"
	"budgie/internal/services"
)

// Options tunes a Server. Zero values take the defaults of NewServer.
type Options struct {
	Logger    *applog.Logger
	CacheSize int
	CacheTTL  time.Duration
	RateLimit ratelimit.Config
	// TrustedProxies extend the private ranges allowed to set X-Forwarded-For.
	TrustedProxies []string
	// Today resolves the default date of queries and commands.
	Today func() (core.Date, error)
}

type Server struct {
	http.Server
	service *services.BudgetService
	logger  *applog.Logger
	today   func() (core.Date, error)

	// Projections keyed by log length and query. The log is append-only,
	// so an entry can only ever be superseded, never wrong.
	projections  *cache.LRUCache[[]byte]
	cacheManager *cache.Manager
	// logLength is the longest log seen; shorter generations are purged.
	logLength atomic.Int64

	rateLimiter      *ratelimit.Limiter
	securityDetector *security.Detector
	traceMiddleware  *trace.Middleware

	started      time.Time
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run http.Server.
func NewServer(addr string, service *services.BudgetService, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = applog.New(applog.DefaultConfig())
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = 256
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 5 * time.Minute
	}
	if opts.Today == nil {
		opts.Today = func() (core.Date, error) { return core.Today(), nil }
	}

	logger := opts.Logger.WithComponent(applog.ComponentHTTP)
	detector := security.NewDetector()
	for _, cidr := range opts.TrustedProxies {
		if err := detector.AddTrustedProxy(cidr); err != nil {
			logger.Warn("Ignoring trusted proxy", applog.FieldError, err)
		}
	}

	s := &Server{
		service:          service,
		logger:           logger,
		today:            opts.Today,
		projections:      cache.NewLRUCache[[]byte](opts.CacheSize, opts.CacheTTL),
		cacheManager:     cache.NewManager(),
		rateLimiter:      ratelimit.NewLimiter(opts.RateLimit),
		securityDetector: detector,
		traceMiddleware:  trace.NewMiddleware(opts.Logger, detector.ExtractClientIP),
		started:          time.Now(),
	}
	s.cacheManager.Register(s.projections)
	s.cacheManager.StartCleanup(10 * time.Minute)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.HandleFunc("GET /api/accounts", s.handleAccounts)
	mux.HandleFunc("POST /api/accounts", s.handleCreateAccount)
	mux.HandleFunc("GET /api/accounts/{name}/transactions", s.handleTransactions)
	mux.HandleFunc("GET /api/balances", s.handleBalances)
	mux.HandleFunc("POST /api/transactions", s.handleTransact)
	mux.HandleFunc("POST /api/transfers", s.handleTransfer)
	mux.HandleFunc("GET /api/targets", s.handleTargets)
	mux.HandleFunc("POST /api/targets", s.handleCreateTarget)
	mux.HandleFunc("GET /api/budgets", s.handleBudgets)
	mux.HandleFunc("GET /api/runway", s.handleRunway)
	mux.HandleFunc("GET /api/runway/trend", s.handleRunwayTrend)
	mux.HandleFunc("GET /api/rate", s.handleRate)
	mux.HandleFunc("GET /api/expenses", s.handleExpenses)
	mux.HandleFunc("GET /api/snapshot", s.handleSnapshot)

	// Outermost first: trace sees every request, including rejected ones.
	var handler http.Handler = mux
	handler = s.rateLimiter.Middleware(detector.ExtractClientIP, s.onRateLimited)(handler)
	handler = detector.Middleware(s.onSuspicious)(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = applog.RequestIDMiddleware(trace.RequestID)(handler)
	handler = applog.Middleware(logger)(handler)
	handler = s.traceMiddleware.Middleware(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
	return s
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func (s *Server) onRateLimited(w http.ResponseWriter, r *http.Request) {
	applog.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		applog.FieldComponent, applog.ComponentRateLimit,
		applog.FieldMethod, r.Method,
		applog.FieldPath, r.URL.Path)
	TooManyRequestsError().RequestID(trace.GetRequestID(r.Context())).Write(w)
}

func (s *Server) onSuspicious(w http.ResponseWriter, r *http.Request) {
	applog.FromContext(r.Context()).WarnContext(r.Context(), "Suspicious request rejected",
		applog.FieldComponent, applog.ComponentSecurity,
		applog.FieldMethod, r.Method,
		applog.FieldPath, r.URL.Path)
	ForbiddenError().RequestID(trace.GetRequestID(r.Context())).Write(w)
}

// fail writes err as a JSON error. Server-side failures are logged.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	status, _ := StatusFor(err)
	if status >= http.StatusInternalServerError {
		applog.FromContext(ctx).ErrorContext(ctx, "Request failed",
			applog.FieldError, err.Error(),
			applog.FieldPath, r.URL.Path)
	}
	DomainError(err).RequestID(trace.GetRequestID(ctx)).Write(w)
}

func (s *Server) badRequest(w http.ResponseWriter, r *http.Request, err error) {
	BadRequestError(err.Error()).RequestID(trace.GetRequestID(r.Context())).Write(w)
}

// project answers a read query from the projection cache. compute runs
// at most once per (log length, key) even under concurrent requests.
func (s *Server) project(ctx context.Context, key string, compute func([]event.Event) (any, error)) ([]byte, error) {
	events, err := s.service.Events(ctx)
	if err != nil {
		return nil, err
	}
	s.purgeSuperseded(len(events))
	cacheKey := fmt.Sprintf("%d|%s", len(events), key)
	return s.projections.GetOrLoad(cacheKey, func() ([]byte, error) {
		v, err := compute(events)
		if err != nil {
			return nil, err
		}
		return json.Marshal(v)
	})
}

// purgeSuperseded drops projections of shorter logs once the log grows.
func (s *Server) purgeSuperseded(n int) {
	for {
		seen := s.logLength.Load()
		if int64(n) <= seen {
			return
		}
		if s.logLength.CompareAndSwap(seen, int64(n)) {
			break
		}
	}
	removed := s.projections.RemoveIf(func(key string) bool {
		prefix, _, _ := strings.Cut(key, "|")
		length, err := strconv.Atoi(prefix)
		return err == nil && length < n
	})
	if removed > 0 {
		s.logger.Debug("Purged superseded projections", "count", removed, "log_length", n)
	}
}

// serveProjection writes a cached projection or the error that prevented it.
func (s *Server) serveProjection(w http.ResponseWriter, r *http.Request, key string, compute func([]event.Event) (any, error)) {
	body, err := s.project(r.Context(), key, compute)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	NewJSONResponse().Raw(body).Write(w)
}
