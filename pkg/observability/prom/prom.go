// Package prom implements the observability hooks with Prometheus metrics.
package prom

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/matzehuels/influencegraph/pkg/observability"
)

const namespace = "influencegraph"

// Metrics records graph, cache and HTTP events. It implements
// observability.GraphHooks, observability.CacheHooks and
// observability.HTTPHooks.
type Metrics struct {
	loads        *prometheus.CounterVec
	loadDuration *prometheus.HistogramVec
	graphNodes   prometheus.Histogram
	graphEdges   prometheus.Histogram

	layouts        *prometheus.CounterVec
	layoutDuration *prometheus.HistogramVec

	renders      *prometheus.CounterVec
	renderBytes  *prometheus.HistogramVec
	renderTiming *prometheus.HistogramVec

	cacheHits   *prometheus.CounterVec
	cacheMisses *prometheus.CounterVec
	cacheWrites *prometheus.CounterVec

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	httpErrors   *prometheus.CounterVec
}

var sizeBuckets = []float64{1, 5, 10, 50, 100, 500, 1000, 5000}

// New registers the metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		loads: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "graph_loads_total",
			Help:      "Graph loads by filter mode and outcome",
		}, []string{"mode", "status"}),
		loadDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "graph_load_duration_seconds",
			Help:      "Graph load latency including the search request",
			Buckets:   prometheus.DefBuckets,
		}, []string{"mode"}),
		graphNodes: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "graph_nodes",
			Help:      "Nodes per loaded graph",
			Buckets:   sizeBuckets,
		}),
		graphEdges: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "graph_edges",
			Help:      "Edges per loaded graph",
			Buckets:   sizeBuckets,
		}),
		layouts: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "layouts_total",
			Help:      "Layout runs by algorithm and outcome",
		}, []string{"layout", "status"}),
		layoutDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "layout_duration_seconds",
			Help:      "Layout run time",
			Buckets:   prometheus.DefBuckets,
		}, []string{"layout"}),
		renders: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "renders_total",
			Help:      "Renders by output format and outcome",
		}, []string{"format", "status"}),
		renderBytes: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "render_size_bytes",
			Help:      "Rendered output size",
			Buckets:   prometheus.ExponentialBuckets(1024, 4, 8),
		}, []string{"format"}),
		renderTiming: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "render_duration_seconds",
			Help:      "Render time",
			Buckets:   prometheus.DefBuckets,
		}, []string{"format"}),
		cacheHits: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Cache hits by key type",
		}, []string{"type"}),
		cacheMisses: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_misses_total",
			Help:      "Cache misses by key type",
		}, []string{"type"}),
		cacheWrites: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_writes_total",
			Help:      "Cache writes by key type",
		}, []string{"type"}),
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, path and status",
		}, []string{"method", "path", "status"}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
		httpErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_errors_total",
			Help:      "HTTP requests that failed without a response",
		}, []string{"method", "path"}),
	}
}

// Register creates metrics on reg and installs them as the global hooks.
func Register(reg prometheus.Registerer) *Metrics {
	m := New(reg)
	observability.SetGraphHooks(m)
	observability.SetCacheHooks(m)
	observability.SetHTTPHooks(m)
	return m
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func (m *Metrics) OnLoadStart(context.Context, string) {}

func (m *Metrics) OnLoadComplete(_ context.Context, _ string, mode string, nodeCount, edgeCount int, d time.Duration, err error) {
	m.loads.WithLabelValues(mode, status(err)).Inc()
	m.loadDuration.WithLabelValues(mode).Observe(d.Seconds())
	if err == nil {
		m.graphNodes.Observe(float64(nodeCount))
		m.graphEdges.Observe(float64(edgeCount))
	}
}

func (m *Metrics) OnLayoutStart(context.Context, string, int) {}

func (m *Metrics) OnLayoutComplete(_ context.Context, layout string, d time.Duration, err error) {
	m.layouts.WithLabelValues(layout, status(err)).Inc()
	m.layoutDuration.WithLabelValues(layout).Observe(d.Seconds())
}

func (m *Metrics) OnRenderComplete(_ context.Context, format string, size int, d time.Duration, err error) {
	m.renders.WithLabelValues(format, status(err)).Inc()
	m.renderTiming.WithLabelValues(format).Observe(d.Seconds())
	if err == nil {
		m.renderBytes.WithLabelValues(format).Observe(float64(size))
	}
}

func (m *Metrics) OnCacheHit(_ context.Context, keyType string) {
	m.cacheHits.WithLabelValues(keyType).Inc()
}

func (m *Metrics) OnCacheMiss(_ context.Context, keyType string) {
	m.cacheMisses.WithLabelValues(keyType).Inc()
}

func (m *Metrics) OnCacheSet(_ context.Context, keyType string, _ int) {
	m.cacheWrites.WithLabelValues(keyType).Inc()
}

func (m *Metrics) OnRequest(context.Context, string, string, string) {}

// OnResponse counts by route pattern; host is not a label to keep
// cardinality bounded.
func (m *Metrics) OnResponse(_ context.Context, method, _, path string, code int, d time.Duration) {
	m.httpRequests.WithLabelValues(method, path, strconv.Itoa(code)).Inc()
	m.httpDuration.WithLabelValues(method, path).Observe(d.Seconds())
}

func (m *Metrics) OnError(_ context.Context, method, _, path string, _ error) {
	m.httpErrors.WithLabelValues(method, path).Inc()
}

var (
	_ observability.GraphHooks = (*Metrics)(nil)
	_ observability.CacheHooks = (*Metrics)(nil)
	_ observability.HTTPHooks  = (*Metrics)(nil)
)
