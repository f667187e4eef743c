package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/molscope/internal/application/viewer"
	"github.com/turtacn/molscope/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/molscope/internal/interfaces/http/handlers"
	"github.com/turtacn/molscope/internal/interfaces/http/middleware"
	"github.com/turtacn/molscope/internal/testutil"
)

func newFullRouter(t *testing.T, extra func(*RouterConfig)) http.Handler {
	t.Helper()
	svc := viewer.NewService(viewer.DefaultOptions(), viewer.Deps{})
	reg := viewer.NewSessionRegistry(viewer.RegistryConfig{}, svc, nil, nil, nil)
	t.Cleanup(reg.Stop)
	cfg := RouterConfig{
		SceneHandler:   handlers.NewSceneHandler(svc, 0, nil),
		SessionHandler: handlers.NewSessionHandler(reg, svc, 0, nil),
		HealthHandler:  handlers.NewHealthHandler("test"),
		Logger:         testutil.NewMockLogger(),
	}
	if extra != nil {
		extra(&cfg)
	}
	return NewRouter(cfg)
}

func serve(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestNewRouter_HealthEndpoints(t *testing.T) {
	router := newFullRouter(t, nil)

	assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/healthz", "").Code)
	assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/readyz", "").Code)
}

func TestNewRouter_APIRoutes_Registered(t *testing.T) {
	router := newFullRouter(t, nil)

	routes := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/v1/scenes"},
		{http.MethodPost, "/api/v1/scenes/abc/export"},
		{http.MethodPost, "/api/v1/sessions"},
		{http.MethodGet, "/api/v1/sessions/s-1"},
		{http.MethodDelete, "/api/v1/sessions/s-1"},
		{http.MethodPut, "/api/v1/sessions/s-1/molecule"},
		{http.MethodGet, "/api/v1/sessions/s-1/scene"},
		{http.MethodPost, "/api/v1/sessions/s-1/export"},
	}

	for _, rt := range routes {
		t.Run(rt.method+" "+rt.path, func(t *testing.T) {
			rec := serve(router, rt.method, rt.path, "")
			assert.NotEqual(t, http.StatusMethodNotAllowed, rec.Code)
			if rec.Code == http.StatusNotFound {
				// Handler-level 404s carry a JSON error code; unrouted paths do not.
				assert.Contains(t, rec.Body.String(), `"code"`)
			}
		})
	}
}

func TestNewRouter_UnknownRoute(t *testing.T) {
	router := newFullRouter(t, nil)

	rec := serve(router, http.MethodGet, "/api/v1/molecules", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NotContains(t, rec.Body.String(), `"code"`)
}

func TestNewRouter_NilHandlers_NoPanic(t *testing.T) {
	assert.NotPanics(t, func() {
		router := NewRouter(RouterConfig{})
		rec := serve(router, http.MethodGet, "/healthz", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestNewRouter_BuildsSceneEndToEnd(t *testing.T) {
	router := newFullRouter(t, nil)

	rec := serve(router, http.MethodPost, "/api/v1/scenes", testutil.WaterRecord())

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"formula":"H2O"`)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestNewRouter_RequestLogged(t *testing.T) {
	logger := testutil.NewMockLogger()
	router := newFullRouter(t, func(cfg *RouterConfig) { cfg.Logger = logger })

	serve(router, http.MethodGet, "/api/v1/sessions/missing", "")

	msg, ok := logger.Find("warn", "api request rejected")
	require.True(t, ok)
	status, _ := msg.Field("status")
	assert.Equal(t, http.StatusNotFound, status)
	requestID, _ := msg.Field("request_id")
	assert.NotEmpty(t, requestID)
}

func TestNewRouter_MetricsEndpoint(t *testing.T) {
	collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{Namespace: "molscope"}, nil)
	require.NoError(t, err)
	router := newFullRouter(t, func(cfg *RouterConfig) {
		cfg.MetricsCollector = collector
		cfg.Metrics = prometheus.NewAppMetrics(collector)
	})

	serve(router, http.MethodPost, "/api/v1/sessions", "")
	rec := serve(router, http.MethodGet, "/metrics", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `molscope_http_requests_total{method="POST",path="/api/v1/sessions",status_code="201"} 1`)
}

func TestNewRouter_CORSAndRateLimit(t *testing.T) {
	cors := middleware.DefaultCORSConfig()
	cors.AllowedOrigins = []string{"https://viewer.example.com"}
	limiter := middleware.NewTokenBucketLimiter(0.001, 1, 0)
	t.Cleanup(limiter.Stop)
	router := newFullRouter(t, func(cfg *RouterConfig) {
		cfg.CORS = &cors
		cfg.RateLimiter = limiter
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions", nil)
	req.Header.Set("Origin", "https://viewer.example.com")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "https://viewer.example.com", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = serve(router, http.MethodPost, "/api/v1/sessions", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	// Probes bypass the limiter.
	assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/healthz", "").Code)
}

//Personal.AI order the ending
