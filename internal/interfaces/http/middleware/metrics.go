package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/turtacn/molscope/internal/infrastructure/monitoring/prometheus"
)

// unmatchedRoute labels requests no route matched, keeping path cardinality
// bounded.
const unmatchedRoute = "unmatched"

// Metrics records request count, latency and in-flight gauge per method and
// chi route pattern (e.g. /api/v1/sessions/{id}/scene, never the raw path).
func Metrics(m *prometheus.AppMetrics) func(http.Handler) http.Handler {
	if m == nil {
		m = prometheus.NewNoopAppMetrics()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			active := m.HTTPActiveRequests.WithLabelValues(r.Method)
			active.Inc()
			defer active.Dec()

			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			m.RecordHTTPRequest(r.Method, routePattern(r), statusOf(ww), time.Since(start))
		})
	}
}

func routePattern(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return unmatchedRoute
	}
	if p := rctx.RoutePattern(); p != "" {
		return p
	}
	return unmatchedRoute
}

//Personal.AI order the ending
