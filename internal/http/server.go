package http

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"expensetracker/internal/log"
	"expensetracker/internal/middleware/ratelimit"
	"expensetracker/internal/middleware/security"
	"expensetracker/internal/middleware/trace"
	"expensetracker/internal/services"
)

// Services bundles the application services behind the API.
type Services struct {
	Auth          *services.AuthService
	Ledger        *services.LedgerService
	Categories    *services.CategoryService
	Goals         *services.GoalService
	Notifications *services.NotificationService
	Stats         *services.StatsService
	Recurring     *services.RecurringProcessor
}

// Options tunes the server. Zero values fall back to defaults.
type Options struct {
	RateLimitPerMinute int
	TrustedProxies     []string
	// Location decides "today" for the recurring trigger.
	Location *time.Location
	// Ready reports whether backing stores are reachable.
	Ready  func(context.Context) error
	Logger *log.Logger
}

// appMetrics are counters served by /metrics.
type appMetrics struct {
	entriesCreated int64
	uptime         time.Time
}

type Server struct {
	http.Server
	svc    Services
	logger *log.Logger
	ready  func(context.Context) error
	loc    *time.Location
	now    func() time.Time

	rateLimiter      *ratelimit.Limiter
	securityDetector *security.Detector
	traceMiddleware  *trace.Middleware
	appMetrics       *appMetrics

	shutdownOnce sync.Once
}

// NewServer wires the JSON API on addr.
func NewServer(addr string, svc Services, opts Options) (*Server, error) {
	detector := security.NewDetector()
	for _, cidr := range opts.TrustedProxies {
		if err := detector.AddTrustedProxy(cidr); err != nil {
			return nil, fmt.Errorf("trusted proxy: %w", err)
		}
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}

	rlConfig := ratelimit.DefaultConfig()
	if opts.RateLimitPerMinute > 0 {
		rlConfig.RequestsPerMinute = opts.RateLimitPerMinute
	}

	s := &Server{
		svc:              svc,
		logger:           logger.WithComponent(log.ComponentHTTP),
		ready:            opts.Ready,
		loc:              loc,
		now:              time.Now,
		rateLimiter:      ratelimit.NewLimiter(rlConfig),
		securityDetector: detector,
		traceMiddleware:  trace.NewMiddleware(detector.ExtractClientIP),
		appMetrics:       &appMetrics{uptime: time.Now()},
	}

	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s, nil
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(s.traceMiddleware.Middleware)
	r.Use(log.Middleware(s.logger))
	r.Use(log.RequestIDMiddleware(func(r *http.Request) string {
		return trace.GetRequestID(r.Context())
	}))
	r.Use(chimiddleware.Recoverer)
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)
	r.Use(s.securityDetector.Middleware)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		NotFoundError("route not found").Write(w)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		ErrorResponse(http.StatusMethodNotAllowed, "method not allowed").Write(w)
	})

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", s.handleMetrics)

	r.Route("/api", func(r chi.Router) {
		r.Use(s.rateLimiter.Middleware(s.securityDetector.ExtractClientIP, s.handleRateLimited))

		r.Post("/register", s.handleRegister)
		r.Post("/login", s.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)

			r.Get("/me", s.handleMe)

			r.Route("/ledger", func(r chi.Router) {
				r.Use(log.ComponentMiddleware(log.ComponentLedger))
				r.Get("/", s.handleListEntries)
				r.Post("/", s.handleCreateEntry)
				r.Get("/{id}", s.handleGetEntry)
				r.Put("/{id}", s.handleUpdateEntry)
				r.Delete("/{id}", s.handleDeleteEntry)
			})

			r.Route("/categories", func(r chi.Router) {
				r.Use(log.ComponentMiddleware(log.ComponentCategory))
				r.Get("/", s.handleListCategories)
				r.Post("/", s.handleCreateCategory)
				r.Get("/totals", s.handleCategoryTotals)
				r.Get("/{id}", s.handleGetCategory)
				r.Put("/{id}", s.handleUpdateCategory)
				r.Delete("/{id}", s.handleDeleteCategory)
				r.Put("/{id}/rule", s.handleUpdateCategoryRule)
				r.Post("/{id}/auto", s.handleSetCategoryAuto)
				r.Get("/{id}/entries", s.handleCategoryEntries)
			})

			r.Route("/goals", func(r chi.Router) {
				r.Use(log.ComponentMiddleware(log.ComponentGoal))
				r.Get("/", s.handleListGoals)
				r.Post("/", s.handleCreateGoal)
				r.Get("/{id}", s.handleGetGoal)
				r.Put("/{id}", s.handleUpdateGoal)
				r.Delete("/{id}", s.handleDeleteGoal)
				r.Get("/{id}/contributions", s.handleGoalContributions)
				r.Post("/{id}/contributions", s.handleContribute)
			})

			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", s.handleListNotifications)
				r.Delete("/", s.handleClearNotifications)
				r.Get("/unread", s.handleUnreadCount)
				r.Post("/read", s.handleMarkAllRead)
				r.Delete("/{id}", s.handleDeleteNotification)
			})

			r.Route("/stats", func(r chi.Router) {
				r.Use(log.ComponentMiddleware(log.ComponentStats))
				r.Get("/top", s.handleTopExpenses)
				r.Get("/daily", s.handleDailyTotals)
				r.Get("/month", s.handleMonthOverview)
			})

			r.Post("/recurring/run", s.handleRunRecurring)
		})
	})

	return r
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	s.logger.WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.securityDetector.ExtractClientIP(r),
		"path", r.URL.Path)
	ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded, try again later").Write(w)
}

// handleError logs unexpected failures and writes the mapped error response.
func (s *Server) handleError(w http.ResponseWriter, r *http.Request, err error, component, operation string) {
	status := errorStatus(err)
	if status >= http.StatusInternalServerError {
		log.NewStructuredLogger(log.FromContext(r.Context())).
			LogError(r.Context(), "Request failed", err, component, operation,
				log.NewFields().WithRequestID(trace.GetRequestID(r.Context())))
	}
	ErrorFor(err).Write(w)
}

// today is the current calendar day in the server's location.
func (s *Server) today() time.Time {
	return s.now().In(s.loc)
}

// Shutdown stops background helpers and gracefully shuts the listener down.
func (s *Server) Shutdown(ctx context.Context) error {
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
	})
	return s.Server.Shutdown(ctx)
}
