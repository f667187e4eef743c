package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/molscope/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/molscope/internal/testutil"
)

func statusHandler(code int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(code)
		_, _ = w.Write([]byte("body"))
	})
}

func TestRequestLogging_LevelsByStatus(t *testing.T) {
	tests := []struct {
		code  int
		level string
		msg   string
	}{
		{http.StatusOK, "info", "api request"},
		{http.StatusUnprocessableEntity, "warn", "api request rejected"},
		{http.StatusBadGateway, "error", "api request failed"},
	}
	for _, tt := range tests {
		logger := testutil.NewMockLogger()
		h := RequestLogging(logger, DefaultLoggingConfig())(statusHandler(tt.code))

		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/scenes?fov=60", nil))

		entry, ok := logger.Find(tt.level, tt.msg)
		require.True(t, ok, "status %d", tt.code)
		status, _ := entry.Field("status")
		assert.Equal(t, tt.code, status)
		path, _ := entry.Field("path")
		assert.Equal(t, "/api/v1/scenes?fov=60", path)
		bytes, _ := entry.Field("bytes")
		assert.Equal(t, int64(4), bytes)
	}
}

func TestRequestLogging_SkipPaths(t *testing.T) {
	logger := testutil.NewMockLogger()
	h := RequestLogging(logger, DefaultLoggingConfig())(statusHandler(http.StatusOK))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, logger.GetMessages())
}

func TestRequestLogging_Slow(t *testing.T) {
	logger := testutil.NewMockLogger()
	slow := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(5 * time.Millisecond)
	})
	h := RequestLogging(logger, LoggingConfig{SlowThreshold: time.Millisecond})(slow)

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/sessions/x/scene", nil))

	assert.True(t, logger.HasMessage("warn", "api request slow"))
}

func TestRequestLogging_PropagatesRequestID(t *testing.T) {
	logger := testutil.NewMockLogger()
	var seen string
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = logging.RequestIDFromContext(r.Context())
	})
	h := chimw.RequestID(RequestLogging(logger, DefaultLoggingConfig())(inner))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/scenes", nil)
	req.Header.Set(chimw.RequestIDHeader, "req-42")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, "req-42", seen)
	assert.Equal(t, "req-42", w.Header().Get(chimw.RequestIDHeader))
	entry, ok := logger.Find("info", "api request")
	require.True(t, ok)
	id, _ := entry.Field(logging.FieldRequestID)
	assert.Equal(t, "req-42", id)
}

func TestRequestLogging_NoRequestID(t *testing.T) {
	logger := testutil.NewMockLogger()
	var seen string
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = logging.RequestIDFromContext(r.Context())
	})
	h := RequestLogging(logger, DefaultLoggingConfig())(inner)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/scenes", nil))

	assert.Empty(t, seen)
	assert.Empty(t, w.Header().Get(chimw.RequestIDHeader))
}

func TestStatusOf(t *testing.T) {
	ww := chimw.NewWrapResponseWriter(httptest.NewRecorder(), 1)
	assert.Equal(t, http.StatusOK, statusOf(ww))

	ww.WriteHeader(http.StatusCreated)
	_, err := ww.Write([]byte("abc"))
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, statusOf(ww))
	assert.Equal(t, 3, ww.BytesWritten())
}

//Personal.AI order the ending
