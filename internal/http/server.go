package http

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"pennywise/internal/advisory"
	"pennywise/internal/log"
	"pennywise/internal/middleware/auth"
	"pennywise/internal/middleware/ratelimit"
	"pennywise/internal/middleware/security"
	"pennywise/internal/middleware/trace"
	"pennywise/internal/services"
)

// Advisor produces rate-limited financial advice for an owner.
type Advisor interface {
	RequestAdvice(ctx context.Context, ownerID int64) (advisory.Result, error)
}

// Services are the use cases the handlers call. Ping may be nil.
type Services struct {
	Transactions *services.TransactionService
	Budgets      *services.BudgetService
	Dashboard    *services.DashboardService
	Goals        *services.GoalService
	Categories   *services.CategoryService
	Advisor      Advisor
	Ping         func(ctx context.Context) error
}

// Options tune the middleware stack.
type Options struct {
	JWTSecret          string
	RateLimitPerMinute int
	Logger             *log.Logger
	// RequestTimeout bounds handler run time; advice generation must fit.
	RequestTimeout time.Duration
}

type Server struct {
	http.Server
	svc      Services
	logger   *log.StructuredLogger
	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware
	authn    *auth.Authenticator
	started  time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run http.Server.
func NewServer(addr string, svc Services, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.New(log.DefaultConfig())
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 60 * time.Second
	}

	httpLogger := opts.Logger.WithComponent(log.ComponentHTTP)
	structured := log.NewStructuredLogger(httpLogger)
	detector := security.NewDetector()

	s := &Server{
		svc:      svc,
		logger:   structured,
		limiter:  ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		detector: detector,
		tracer:   trace.NewMiddleware(detector.ExtractClientIP, structured),
		authn:    auth.New(opts.JWTSecret),
		started:  time.Now(),
	}

	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.routes(httpLogger, opts.RequestTimeout),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      opts.RequestTimeout + 5*time.Second,
		IdleTimeout:       2 * time.Minute,
	}
	return s
}

func (s *Server) routes(logger *log.Logger, timeout time.Duration) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.Recoverer)
	r.Use(log.Middleware(logger))
	r.Use(s.tracer.Middleware)
	r.Use(log.RequestIDMiddleware(trace.RequestIDFromRequest))
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)
	r.Use(s.detector.Middleware)
	r.Use(s.limiter.Middleware(s.detector.ExtractClientIP, s.onRateLimited))
	r.Use(chimw.Timeout(timeout))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		NotFoundError("route not found").Write(w)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		ErrorResponse(http.StatusMethodNotAllowed, "method not allowed").Write(w)
	})

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)

	r.Route("/api", func(r chi.Router) {
		r.Use(s.authn.Middleware(s.onUnauthorized))

		r.Route("/transactions", func(r chi.Router) {
			r.Get("/", s.handleListTransactions)
			r.Post("/", s.handleCreateTransaction)
			r.Get("/{id}", s.handleGetTransaction)
			r.Put("/{id}", s.handleUpdateTransaction)
			r.Delete("/{id}", s.handleDeleteTransaction)
		})

		r.Route("/budgets", func(r chi.Router) {
			r.Get("/", s.handleListBudgets)
			r.Post("/", s.handleCreateBudget)
			r.Get("/category-month", s.handleBudgetByCategoryAndMonth)
			r.Get("/{id}", s.handleGetBudget)
			r.Put("/{id}", s.handleUpdateBudget)
			r.Delete("/{id}", s.handleDeleteBudget)
		})

		r.Route("/dashboard", func(r chi.Router) {
			r.Get("/summary", s.handleDashboardSummary)
			r.Get("/expense-breakdown", s.handleExpenseBreakdown)
			r.Get("/spending-trends", s.handleSpendingTrends)
			r.Get("/current-month-overview", s.handleCurrentMonthOverview)
			r.Post("/ai-advice", s.handleAdvice)
		})

		r.Route("/goals", func(r chi.Router) {
			r.Get("/", s.handleListGoals)
			r.Post("/", s.handleCreateGoal)
			r.Get("/{id}", s.handleGetGoal)
			r.Put("/{id}", s.handleUpdateGoal)
			r.Delete("/{id}", s.handleDeleteGoal)
		})

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", s.handleListCategories)
			r.Post("/", s.handleCreateCategory)
			r.Put("/{id}", s.handleRenameCategory)
			r.Delete("/{id}", s.handleDeleteCategory)
		})
	})

	return r
}

func (s *Server) onRateLimited(w http.ResponseWriter, r *http.Request) {
	s.logger.LogError(r.Context(), "Rate limit exceeded", errors.New("rate limit exceeded"),
		log.ComponentRateLimit, log.OpValidate,
		log.NewFields().WithClientIP(s.detector.ExtractClientIP(r)))
	ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded, please try again later").Write(w)
}

func (s *Server) onUnauthorized(w http.ResponseWriter, r *http.Request, err error) {
	log.FromContext(r.Context()).WarnContext(r.Context(), "Authentication failed",
		log.FieldErrorType, log.ErrorTypeAuth,
		log.FieldError, err.Error(),
		log.FieldPath, r.URL.Path)
	UnauthorizedError("authentication required").Write(w)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
