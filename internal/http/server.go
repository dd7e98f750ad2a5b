package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"bilancio/internal/log"
	"bilancio/internal/middleware/ratelimit"
	"bilancio/internal/middleware/security"
	"bilancio/internal/middleware/trace"
	"bilancio/internal/services"
)

const readyTimeout = 2 * time.Second

// Config configures the API server.
type Config struct {
	Addr               string
	RateLimitPerMinute int
	// TrustedProxies are CIDRs whose forwarded headers are honoured on top
	// of loopback and private networks.
	TrustedProxies []string
	Logger         *log.Logger
}

// Server is the JSON API over a FinanceService.
type Server struct {
	http.Server
	finance      *services.FinanceService
	limiter      *ratelimit.Limiter
	detector     *security.Detector
	tracer       *trace.Middleware
	logger       *log.Logger
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(cfg Config, finance *services.FinanceService) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	detector := security.NewDetector()
	for _, cidr := range cfg.TrustedProxies {
		if err := detector.AddTrustedProxy(cidr); err != nil {
			logger.Warn("Ignoring trusted proxy", log.FieldError, err)
		}
	}

	s := &Server{
		finance:  finance,
		limiter:  ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: cfg.RateLimitPerMinute}),
		detector: detector,
		tracer:   trace.NewMiddleware(logger, detector.ExtractClientIP),
		logger:   logger,
	}

	mux := http.NewServeMux()
	s.routes(mux)

	s.Server = http.Server{
		Addr: cfg.Addr,
		Handler: chain(mux,
			s.tracer.Middleware,
			detector.Middleware,
			security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware,
			s.limiter.Middleware(detector.ExtractClientIP, ratelimit.Mutating, s.rateLimited),
		),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /api/accounts", s.handleListAccounts)
	mux.HandleFunc("POST /api/accounts", s.handleCreateAccount)
	mux.HandleFunc("DELETE /api/accounts/{id}", s.handleDeleteAccount)

	mux.HandleFunc("GET /api/transactions", s.handleListTransactions)
	mux.HandleFunc("POST /api/transactions", s.handleCreateEntry)
	mux.HandleFunc("DELETE /api/transactions/{id}", s.handleDeleteTransaction)
	mux.HandleFunc("POST /api/transfers", s.handleCreateTransfer)

	mux.HandleFunc("GET /api/categories", s.handleGetCategories)
	mux.HandleFunc("PUT /api/categories", s.handleReplaceCategories)
	mux.HandleFunc("POST /api/categories/reset", s.handleResetCategories)
	mux.HandleFunc("POST /api/categories/{kind}/labels", s.handleAddLabel)
	mux.HandleFunc("DELETE /api/categories/{kind}/labels", s.handleRemoveLabel)
	mux.HandleFunc("POST /api/categories/{kind}/groups", s.handleAddGroup)
	mux.HandleFunc("DELETE /api/categories/{kind}/groups", s.handleRemoveGroup)

	mux.HandleFunc("GET /api/charts", s.handleListCharts)
	mux.HandleFunc("POST /api/charts", s.handleCreateChart)
	mux.HandleFunc("POST /api/charts/preview", s.handlePreviewChart)
	mux.HandleFunc("PUT /api/charts/{id}", s.handleUpdateChart)
	mux.HandleFunc("DELETE /api/charts/{id}", s.handleDeleteChart)
	mux.HandleFunc("GET /api/charts/{id}/series", s.handleChartSeries)

	mux.HandleFunc("GET /api/dashboard", s.handleDashboard)
	mux.HandleFunc("GET /api/analysis", s.handleAnalysis)
	mux.HandleFunc("GET /api/trend", s.handleTrend)
}

// chain wraps h so that the first middleware is the outermost.
func chain(h http.Handler, middleware ...func(http.Handler) http.Handler) http.Handler {
	for i := len(middleware) - 1; i >= 0; i-- {
		h = middleware[i](h)
	}
	return h
}

func (s *Server) rateLimited(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WithComponent(log.ComponentRateLimit).WarnContext(r.Context(),
		"Rate limit exceeded",
		log.FieldClientIP, s.detector.ExtractClientIP(r),
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)
	ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded, please try again later").Write(w)
}

// Shutdown gracefully shuts down the server and its background routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(map[string]string{"status": "ok"}).Write(w)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	if err := s.finance.Ping(ctx); err != nil {
		s.logger.WarnContext(ctx, "Readiness check failed", log.FieldError, err)
		ErrorResponse(http.StatusServiceUnavailable, "backend unavailable").Write(w)
		return
	}
	NewJSONResponse().Body(map[string]any{
		"status":   "ready",
		"revision": s.finance.Revision(),
	}).Write(w)
}
