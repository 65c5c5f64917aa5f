package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"budget/internal/core"
	"budget/internal/log"
	"budget/internal/metrics"
	"budget/internal/middleware/ratelimit"
	"budget/internal/middleware/security"
	"budget/internal/middleware/trace"
	"budget/internal/services"
)

// Budget is the slice of services.BudgetService the handlers need.
type Budget interface {
	Load(ctx context.Context) (core.State, error)
	Update(ctx context.Context, fn func(tx services.Tx, st core.State) (core.State, error)) (core.State, error)
}

// ReadyFunc reports whether the server's dependencies can serve traffic.
type ReadyFunc func(ctx context.Context) error

// Options carries the server's optional collaborators.
type Options struct {
	Logger  *log.Logger
	Metrics *metrics.Metrics
	// RateLimit is the number of mutating requests allowed per client per minute.
	RateLimit int
	// AllowedOrigins enables CORS for a front end served elsewhere.
	AllowedOrigins []string
	Ready          ReadyFunc
	// RequestTimeout bounds each request's context.
	RequestTimeout time.Duration
}

type Server struct {
	http.Server
	budget   Budget
	logger   *log.Logger
	metrics  *metrics.Metrics
	ready    ReadyFunc
	limiter  *ratelimit.Limiter
	detector *security.Detector

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, budget Budget, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default(log.ComponentHTTP)
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 15 * time.Second
	}

	limitCfg := ratelimit.DefaultConfig()
	if opts.RateLimit > 0 {
		limitCfg.RequestsPerMinute = opts.RateLimit
	}

	s := &Server{
		budget:   budget,
		logger:   logger.WithComponent(log.ComponentHTTP),
		metrics:  opts.Metrics,
		ready:    opts.Ready,
		limiter:  ratelimit.NewLimiter(limitCfg),
		detector: security.NewDetector(),
	}
	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.routes(opts),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      opts.RequestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) routes(opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(trace.NewMiddleware(s.logger, s.detector.ClientIP, s.metrics).Handler)
	r.Use(middleware.Recoverer)
	r.Use(security.Headers(security.DefaultHeadersConfig()))
	r.Use(s.detector.Middleware(s.logger))
	if len(opts.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: opts.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type", trace.HeaderRequestID},
			ExposedHeaders: []string{"HX-Trigger", trace.HeaderRequestID},
			MaxAge:         300,
		}))
	}

	r.Get("/healthz", handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Handle("/metrics", s.metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(opts.RequestTimeout))
		r.Use(s.limiter.Middleware(s.detector.ClientIP, func(w http.ResponseWriter, r *http.Request) {
			s.metrics.IncrRateLimited()
			log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
				log.FieldClientIP, s.detector.ClientIP(r), log.FieldPath, r.URL.Path)
			TooManyRequestsError().Write(w)
		}))

		r.Get("/dashboard", s.handleDashboard)
		r.Get("/categories/{name}/history", s.handleHistory)
		r.Post("/categories", s.handleAddCategory)
		r.Post("/transactions", s.handleAddTransaction)
		r.Put("/income", s.handleSetIncome)
		r.Put("/global", s.handleSaveGlobal)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		NotFoundError("Not found").Write(w)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		ErrorResponse(http.StatusMethodNotAllowed, "Method not allowed").Write(w)
	})

	return r
}

// Shutdown gracefully shuts down the server and the rate limiter.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		if err := s.ready(r.Context()); err != nil {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", log.FieldError, err)
			ServiceUnavailableError("not ready").Write(w)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
