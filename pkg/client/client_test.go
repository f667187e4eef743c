package client

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/molscope/pkg/errors"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	opts = append([]Option{WithRetryWait(time.Millisecond, 2*time.Millisecond)}, opts...)
	c, err := NewClient(server.URL, opts...)
	require.NoError(t, err)
	return c
}

type testLogger struct {
	mu      sync.Mutex
	lastMsg string
	count   int32
}

func (l *testLogger) Debugf(format string, args ...interface{}) { l.log(format, args...) }
func (l *testLogger) Infof(format string, args ...interface{})  { l.log(format, args...) }
func (l *testLogger) Errorf(format string, args ...interface{}) { l.log(format, args...) }

func (l *testLogger) log(format string, args ...interface{}) {
	atomic.AddInt32(&l.count, 1)
	l.mu.Lock()
	l.lastMsg = fmt.Sprintf(format, args...)
	l.mu.Unlock()
}

func TestNewClient_Success(t *testing.T) {
	c, err := NewClient("http://api.example.com/")
	require.NoError(t, err)
	assert.Equal(t, "http://api.example.com", c.baseURL)
	assert.Equal(t, 3, c.retryMax)
	assert.Contains(t, c.userAgent, "molscope-go-sdk/")
}

func TestNewClient_InvalidBaseURL(t *testing.T) {
	for _, u := range []string{"", "ftp://invalid", "invalid-url", "://"} {
		_, err := NewClient(u)
		assert.True(t, errors.IsCode(err, errors.ErrCodeValidation), u)
	}
}

func TestClient_SubClients_ConcurrentAccess(t *testing.T) {
	c, _ := NewClient("http://api.example.com")
	assert.Nil(t, c.scenes)

	var wg sync.WaitGroup
	got := make([]*SessionsClient, 50)
	for i := range got {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			got[idx] = c.Sessions()
		}(i)
	}
	wg.Wait()
	for _, s := range got[1:] {
		assert.Same(t, got[0], s)
	}
	assert.Same(t, c.Scenes(), c.Scenes())
}

func TestClient_Do_RequestHeaders(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Contains(t, r.Header.Get("User-Agent"), "molscope-go-sdk/")
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		w.WriteHeader(http.StatusOK)
	})
	require.NoError(t, c.do(context.Background(), http.MethodPost, "test", map[string]string{"a": "b"}, nil))
}

func TestClient_Do_NoBodyNoContentType(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Content-Type"))
		assert.Equal(t, int64(0), r.ContentLength)
		w.WriteHeader(http.StatusOK)
	})
	require.NoError(t, c.do(context.Background(), http.MethodGet, "/test", nil, nil))
}

func TestClient_Do_4xxError(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"code":"MOL_016","message":"malformed structure record","detail":"line 4"}`))
	})

	err := c.do(context.Background(), http.MethodGet, "/test", nil, nil)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.StatusCode)
	assert.True(t, apiErr.IsMalformedRecord())
	assert.Equal(t, "line 4", apiErr.Detail)
	assert.NotEmpty(t, apiErr.RequestID)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestClient_Do_NonJSONError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	err := c.do(context.Background(), http.MethodGet, "/nope", nil, nil)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.IsNotFound())
	assert.Equal(t, "404 page not found", apiErr.Message)
}

func TestClient_Do_5xxRetry(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	require.NoError(t, c.do(context.Background(), http.MethodGet, "/test", nil, nil))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestClient_Do_5xxRetryExhausted(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}, WithRetryMax(2))

	err := c.do(context.Background(), http.MethodGet, "/test", nil, nil)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.IsServerError())
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestClient_Do_429RetryAfter(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	require.NoError(t, c.do(context.Background(), http.MethodGet, "/test", nil, nil))
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestClient_Do_429WithoutRetryAfter(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	err := c.do(context.Background(), http.MethodGet, "/test", nil, nil)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.IsRateLimited())
}

func TestClient_Do_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()
	logger := &testLogger{}
	c, err := NewClient(server.URL, WithRetryMax(1), WithRetryWait(time.Millisecond, 2*time.Millisecond), WithLogger(logger))
	require.NoError(t, err)

	assert.Error(t, c.do(context.Background(), http.MethodGet, "/test", nil, nil))
	assert.GreaterOrEqual(t, atomic.LoadInt32(&logger.count), int32(2))
}

func TestClient_Do_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})

	assert.ErrorIs(t, c.do(ctx, http.MethodGet, "/test", nil, nil), context.Canceled)
}

func TestClient_Do_ContextTimeout(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	})
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	assert.ErrorIs(t, c.do(ctx, http.MethodGet, "/test", nil, nil), context.DeadlineExceeded)
}

func TestClient_Ping(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/healthz", r.URL.Path)
		_, _ = w.Write([]byte(`{"status":"alive"}`))
	})
	assert.NoError(t, c.Ping(context.Background()))
}

func TestAPIError_Methods(t *testing.T) {
	assert.True(t, (&APIError{StatusCode: 404}).IsNotFound())
	assert.True(t, (&APIError{StatusCode: 429}).IsRateLimited())
	assert.True(t, (&APIError{StatusCode: 503}).IsServerError())
	assert.False(t, (&APIError{StatusCode: 400}).IsServerError())
	assert.False(t, (&APIError{Code: "COMMON_010"}).IsMalformedRecord())

	assert.Equal(t, "molscope: ERR (HTTP 400): Msg [request_id=ID]",
		(&APIError{Code: "ERR", StatusCode: 400, Message: "Msg", RequestID: "ID"}).Error())
	assert.Equal(t, "molscope: ERR (HTTP 400): Msg: more [request_id=ID]",
		(&APIError{Code: "ERR", StatusCode: 400, Message: "Msg", Detail: "more", RequestID: "ID"}).Error())
}

func TestCalculateBackoff_Capped(t *testing.T) {
	c, _ := NewClient("http://x", WithRetryWait(100*time.Millisecond, 300*time.Millisecond))
	for attempt := 1; attempt <= 40; attempt++ {
		d := c.calculateBackoff(attempt)
		assert.GreaterOrEqual(t, d, 100*time.Millisecond)
		assert.LessOrEqual(t, d, 375*time.Millisecond)
	}
}

//Personal.AI order the ending
