// Package middleware holds the net/http middleware chain of the molscope API:
// request logging, metrics, CORS and per-client rate limiting.
package middleware

import (
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/turtacn/molscope/internal/infrastructure/monitoring/logging"
)

// LoggingConfig holds configuration for the request logging middleware.
type LoggingConfig struct {
	// SkipPaths are not logged (probes, scrapes).
	SkipPaths []string
	// SlowThreshold promotes successful requests to warn when exceeded.
	SlowThreshold time.Duration
}

// DefaultLoggingConfig skips the probe and scrape endpoints.
func DefaultLoggingConfig() LoggingConfig {
	return LoggingConfig{
		SkipPaths:     []string{"/healthz", "/readyz", "/metrics"},
		SlowThreshold: 2 * time.Second,
	}
}

// statusOf reports the status a handler produced; a handler that never
// wrote anything answered 200.
func statusOf(ww chimw.WrapResponseWriter) int {
	if code := ww.Status(); code != 0 {
		return code
	}
	return http.StatusOK
}

// RequestLogging logs one line per request and copies chi's request id into
// the context for the logging package, so service logs and published events
// carry the same id. The id is echoed in X-Request-ID.
func RequestLogging(logger logging.Logger, config LoggingConfig) func(http.Handler) http.Handler {
	skipSet := make(map[string]bool, len(config.SkipPaths))
	for _, p := range config.SkipPaths {
		skipSet[p] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := chimw.GetReqID(r.Context())
			if requestID == "" {
				requestID = r.Header.Get(chimw.RequestIDHeader)
			}
			if requestID != "" {
				w.Header().Set(chimw.RequestIDHeader, requestID)
				r = r.WithContext(logging.WithRequestID(r.Context(), requestID))
			}

			if skipSet[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			elapsed := time.Since(start)
			status := statusOf(ww)

			target := r.URL.Path
			if r.URL.RawQuery != "" {
				target += "?" + r.URL.RawQuery
			}
			fields := []logging.Field{
				logging.String("method", r.Method),
				logging.String("path", target),
				logging.Int("status", status),
				logging.Float64("duration_ms", float64(elapsed.Microseconds())/1000),
				logging.Int64("bytes", int64(ww.BytesWritten())),
				logging.String("remote_addr", r.RemoteAddr),
				logging.String(logging.FieldRequestID, requestID),
			}
			if ua := r.UserAgent(); ua != "" {
				fields = append(fields, logging.String("user_agent", ua))
			}

			log := logger.Info
			msg := "api request"
			switch {
			case status >= http.StatusInternalServerError:
				log, msg = logger.Error, "api request failed"
			case status >= http.StatusBadRequest:
				log, msg = logger.Warn, "api request rejected"
			case config.SlowThreshold > 0 && elapsed >= config.SlowThreshold:
				log, msg = logger.Warn, "api request slow"
			}
			log(msg, fields...)
		})
	}
}

//Personal.AI order the ending
