package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/turtacn/molscope/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/molscope/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/molscope/internal/interfaces/http/handlers"
	"github.com/turtacn/molscope/internal/interfaces/http/middleware"
)

// RouterConfig aggregates the handler and middleware dependencies of the
// route tree. Nil handlers leave their routes unregistered.
type RouterConfig struct {
	// Handlers
	SceneHandler   *handlers.SceneHandler
	SessionHandler *handlers.SessionHandler
	HealthHandler  *handlers.HealthHandler

	// Middleware
	CORS        *middleware.CORSConfig
	RateLimiter middleware.RateLimiter
	Logging     *middleware.LoggingConfig

	// Infrastructure
	Logger           logging.Logger
	Metrics          *prometheus.AppMetrics
	MetricsCollector prometheus.MetricsCollector
}

// NewRouter builds the complete route tree.
func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	logCfg := middleware.DefaultLoggingConfig()
	if cfg.Logging != nil {
		logCfg = *cfg.Logging
	}

	r := chi.NewRouter()

	// Global middleware. Recoverer sits inside logging and metrics so a
	// panic is still recorded as a 500.
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogging(logger, logCfg))
	r.Use(middleware.Metrics(cfg.Metrics))
	r.Use(chimw.Recoverer)
	if cfg.CORS != nil {
		r.Use(middleware.CORS(*cfg.CORS))
	}
	if cfg.RateLimiter != nil {
		r.Use(middleware.RateLimit(cfg.RateLimiter, middleware.DefaultRateLimitConfig()))
	}

	if cfg.HealthHandler != nil {
		cfg.HealthHandler.RegisterRoutes(r)
	}
	if cfg.MetricsCollector != nil {
		r.Handle("/metrics", cfg.MetricsCollector.Handler())
	}

	r.Route("/api/v1", func(api chi.Router) {
		if cfg.SceneHandler != nil {
			cfg.SceneHandler.RegisterRoutes(api)
		}
		if cfg.SessionHandler != nil {
			cfg.SessionHandler.RegisterRoutes(api)
		}
	})

	return r
}

//Personal.AI order the ending
