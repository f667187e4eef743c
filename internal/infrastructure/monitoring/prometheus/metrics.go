package prometheus

import (
	"strconv"
	"time"
)

// AppMetrics holds every metric molscope records.
type AppMetrics struct {
	// HTTP
	HTTPRequestsTotal   CounterVec
	HTTPRequestDuration HistogramVec
	HTTPActiveRequests  GaugeVec

	// Pipeline
	RecordsParsedTotal CounterVec
	SceneBuildDuration HistogramVec
	SceneShapes        HistogramVec
	ConversionsTotal   CounterVec
	ConversionDuration HistogramVec
	SceneExportsTotal  CounterVec
	EventsPublished    CounterVec

	// Sessions
	SessionsActive  GaugeVec
	SessionsEvicted CounterVec

	// Infrastructure
	CacheHitsTotal   CounterVec
	CacheMissesTotal CounterVec
	ErrorsTotal      CounterVec
}

var (
	DefaultHTTPDurationBuckets  = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5}
	DefaultStageDurationBuckets = []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1}
	DefaultShapeCountBuckets    = []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 5000}
)

// Pipeline stages, used as the "stage" label.
const (
	StageParse   = "parse"
	StagePlan    = "plan"
	StageFrame   = "frame"
	StageConvert = "convert"
	StageTotal   = "total"
)

// NewAppMetrics registers all metrics on collector.
func NewAppMetrics(collector MetricsCollector) *AppMetrics {
	m := &AppMetrics{}

	m.HTTPRequestsTotal = collector.RegisterCounter("http_requests_total", "Total HTTP requests", "method", "path", "status_code")
	m.HTTPRequestDuration = collector.RegisterHistogram("http_request_duration_seconds", "HTTP request duration", DefaultHTTPDurationBuckets, "method", "path")
	m.HTTPActiveRequests = collector.RegisterGauge("http_active_requests", "In-flight HTTP requests", "method")

	m.RecordsParsedTotal = collector.RegisterCounter("records_parsed_total", "Structure records parsed", "status")
	m.SceneBuildDuration = collector.RegisterHistogram("scene_build_duration_seconds", "Scene pipeline stage duration", DefaultStageDurationBuckets, "stage")
	m.SceneShapes = collector.RegisterHistogram("scene_shapes", "Shapes per built scene", DefaultShapeCountBuckets, "kind")
	m.ConversionsTotal = collector.RegisterCounter("conversions_total", "SMILES conversions", "status")
	m.ConversionDuration = collector.RegisterHistogram("conversion_duration_seconds", "SMILES conversion round trip", DefaultHTTPDurationBuckets)
	m.SceneExportsTotal = collector.RegisterCounter("scene_exports_total", "Scene archive exports", "status")
	m.EventsPublished = collector.RegisterCounter("events_published_total", "Scene events published", "topic", "status")

	m.SessionsActive = collector.RegisterGauge("sessions_active", "Open viewer sessions")
	m.SessionsEvicted = collector.RegisterCounter("sessions_evicted_total", "Viewer sessions evicted", "reason")

	m.CacheHitsTotal = collector.RegisterCounter("cache_hits_total", "Cache hits", "cache")
	m.CacheMissesTotal = collector.RegisterCounter("cache_misses_total", "Cache misses", "cache")
	m.ErrorsTotal = collector.RegisterCounter("errors_total", "Errors by component and code", "component", "code")

	return m
}

// NewNoopAppMetrics returns AppMetrics that record nothing.
func NewNoopAppMetrics() *AppMetrics { return NewAppMetrics(NewNoopCollector()) }

func statusLabel(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}

// RecordHTTPRequest records one served request.
func (m *AppMetrics) RecordHTTPRequest(method, path string, statusCode int, d time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(statusCode)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(d.Seconds())
}

// RecordParse counts one parse attempt.
func (m *AppMetrics) RecordParse(ok bool) {
	m.RecordsParsedTotal.WithLabelValues(statusLabel(ok)).Inc()
}

// RecordStage observes one pipeline stage.
func (m *AppMetrics) RecordStage(stage string, d time.Duration) {
	m.SceneBuildDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// RecordShapes observes the shape counts of a built scene.
func (m *AppMetrics) RecordShapes(spheres, cylinders int) {
	m.SceneShapes.WithLabelValues("sphere").Observe(float64(spheres))
	m.SceneShapes.WithLabelValues("cylinder").Observe(float64(cylinders))
}

// RecordConversion records one remote SMILES conversion.
func (m *AppMetrics) RecordConversion(ok bool, d time.Duration) {
	m.ConversionsTotal.WithLabelValues(statusLabel(ok)).Inc()
	m.ConversionDuration.WithLabelValues().Observe(d.Seconds())
}

// RecordExport records one archive export.
func (m *AppMetrics) RecordExport(ok bool) {
	m.SceneExportsTotal.WithLabelValues(statusLabel(ok)).Inc()
}

// RecordEvent records one published event.
func (m *AppMetrics) RecordEvent(topic string, ok bool) {
	m.EventsPublished.WithLabelValues(topic, statusLabel(ok)).Inc()
}

// RecordCacheAccess records a hit or a miss on cache.
func (m *AppMetrics) RecordCacheAccess(cache string, hit bool) {
	if hit {
		m.CacheHitsTotal.WithLabelValues(cache).Inc()
		return
	}
	m.CacheMissesTotal.WithLabelValues(cache).Inc()
}

// RecordError counts an error by component and error code.
func (m *AppMetrics) RecordError(component, code string) {
	m.ErrorsTotal.WithLabelValues(component, code).Inc()
}

// SetSessions sets the open-session gauge.
func (m *AppMetrics) SetSessions(n int) {
	m.SessionsActive.WithLabelValues().Set(float64(n))
}

// RecordEviction counts evicted sessions.
func (m *AppMetrics) RecordEviction(reason string, n int) {
	if n > 0 {
		m.SessionsEvicted.WithLabelValues(reason).Add(float64(n))
	}
}

//Personal.AI order the ending
