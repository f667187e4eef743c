package prometheus

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/molscope/internal/infrastructure/monitoring/logging"
)

func newTestCollector(t *testing.T) MetricsCollector {
	t.Helper()
	c, err := NewMetricsCollector(CollectorConfig{Namespace: "test", Subsystem: "unit"}, logging.NewNopLogger())
	require.NoError(t, err)
	return c
}

func scrapeMetrics(t *testing.T, collector MetricsCollector) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	collector.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	return w.Body.String()
}

func TestNewMetricsCollector_EmptyNamespace(t *testing.T) {
	_, err := NewMetricsCollector(CollectorConfig{Subsystem: "unit"}, nil)
	assert.Error(t, err)
}

func TestNewMetricsCollector_WithProcessAndGoMetrics(t *testing.T) {
	c, err := NewMetricsCollector(CollectorConfig{Namespace: "test", EnableGoMetrics: true}, nil)
	require.NoError(t, err)
	assert.Contains(t, scrapeMetrics(t, c), "go_goroutines")
}

func TestRegisterCounter(t *testing.T) {
	c := newTestCollector(t)
	vec := c.RegisterCounter("parsed_total", "help", "status")
	vec.WithLabelValues("success").Inc()
	vec.WithLabelValues("success").Add(2)

	assert.Contains(t, scrapeMetrics(t, c), `test_unit_parsed_total{status="success"} 3`)
}

func TestRegisterCounter_Idempotent(t *testing.T) {
	c := newTestCollector(t)
	a := c.RegisterCounter("dup_total", "help", "k")
	b := c.RegisterCounter("dup_total", "help", "k")
	a.WithLabelValues("x").Inc()
	b.WithLabelValues("x").Inc()
	assert.Contains(t, scrapeMetrics(t, c), `test_unit_dup_total{k="x"} 2`)
}

func TestRegister_TypeMismatchFallsBackToNoop(t *testing.T) {
	c := newTestCollector(t)
	c.RegisterCounter("mixed", "help")
	g := c.RegisterGauge("mixed", "help")
	assert.IsType(t, noopGaugeVec{}, g)
	assert.NotPanics(t, func() { g.WithLabelValues().Set(1) })
}

func TestRegisterGaugeAndHistogram(t *testing.T) {
	c := newTestCollector(t)
	c.RegisterGauge("open", "help").WithLabelValues().Set(4)
	h := c.RegisterHistogram("latency_seconds", "help", nil, "stage")
	h.WithLabelValues("plan").Observe(0.2)

	out := scrapeMetrics(t, c)
	assert.Contains(t, out, "test_unit_open 4")
	assert.Contains(t, out, `test_unit_latency_seconds_count{stage="plan"} 1`)
}

func TestMustRegisterAndUnregister(t *testing.T) {
	c := newTestCollector(t)
	g := prometheus.NewGauge(prometheus.GaugeOpts{Name: "external_gauge", Help: "h"})
	c.MustRegister(g)
	assert.Contains(t, scrapeMetrics(t, c), "external_gauge")
	assert.True(t, c.Unregister(g))
}

func TestNoopCollector(t *testing.T) {
	c := NewNoopCollector()
	assert.NotPanics(t, func() {
		c.RegisterCounter("a", "h").WithLabelValues("x").Inc()
		c.RegisterGauge("b", "h").WithLabelValues().Dec()
		c.RegisterHistogram("c", "h", nil).WithLabelValues().Observe(1)
		c.MustRegister()
	})
	w := httptest.NewRecorder()
	c.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.False(t, c.Unregister(nil))
}

func TestTimer(t *testing.T) {
	c := newTestCollector(t)
	h := c.RegisterHistogram("timer_seconds", "help", nil)
	d := NewTimer(h.WithLabelValues()).ObserveDuration()
	assert.GreaterOrEqual(t, d, time.Duration(0))
	assert.Contains(t, scrapeMetrics(t, c), "test_unit_timer_seconds_count 1")

	assert.NotPanics(t, func() { NewTimer(nil).ObserveDuration() })
}

//Personal.AI order the ending
