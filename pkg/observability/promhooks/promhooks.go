// Package promhooks implements the observability hook interfaces on top of
// Prometheus collectors.
//
// Each Collector owns its registry, so several collectors can coexist in
// one process (tests, embedded servers) without duplicate registration.
package promhooks

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/giftgraph/pkg/observability"
)

// Namespace prefixes every metric name.
const Namespace = "giftgraph"

// Collector records pipeline, cache and HTTP events as Prometheus metrics.
type Collector struct {
	registry *prometheus.Registry

	stageDuration *prometheus.HistogramVec
	stageErrors   *prometheus.CounterVec
	graphSize     *prometheus.GaugeVec
	layoutTicks   prometheus.Histogram
	layoutRunning prometheus.Gauge
	artifacts     *prometheus.CounterVec

	cacheOps    *prometheus.CounterVec
	cacheBytes  prometheus.Counter
	cacheErrors *prometheus.CounterVec

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	httpErrors   *prometheus.CounterVec
	httpInFlight prometheus.Gauge
}

// New creates a collector with a fresh registry.
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "pipeline_stage_duration_seconds",
			Help:      "Duration of pipeline stages in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"stage"}),
		stageErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "pipeline_stage_errors_total",
			Help:      "Total number of failed pipeline stages",
		}, []string{"stage"}),
		graphSize: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "graph_size",
			Help:      "Size of the most recently built circulation graph",
		}, []string{"kind"}),
		layoutTicks: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "layout_ticks",
			Help:      "Number of simulation ticks until a layout settled",
			Buckets:   []float64{50, 100, 200, 300, 400, 600, 1000},
		}),
		layoutRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "layouts_running",
			Help:      "Number of layouts currently being simulated",
		}),
		artifacts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "artifacts_rendered_total",
			Help:      "Total number of rendered artifacts by format",
		}, []string{"format"}),
		cacheOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "cache_operations_total",
			Help:      "Total number of cache lookups and writes",
		}, []string{"key_type", "result"}),
		cacheBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "cache_written_bytes_total",
			Help:      "Total number of bytes written to the cache",
		}),
		cacheErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "cache_backend_errors_total",
			Help:      "Total number of cache backend failures degraded to misses",
		}, []string{"backend"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		httpErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "http_errors_total",
			Help:      "Total number of requests that failed with a server error",
		}, []string{"method", "route"}),
		httpInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "http_requests_in_flight",
			Help:      "Number of HTTP requests being served",
		}),
	}

	c.registry.MustRegister(
		c.stageDuration, c.stageErrors, c.graphSize, c.layoutTicks, c.layoutRunning, c.artifacts,
		c.cacheOps, c.cacheBytes, c.cacheErrors,
		c.httpRequests, c.httpDuration, c.httpErrors, c.httpInFlight,
	)
	return c
}

// Register installs c as the pipeline, cache and HTTP hooks.
func (c *Collector) Register() {
	observability.SetPipelineHooks(c)
	observability.SetCacheHooks(c)
	observability.SetHTTPHooks(c)
}

// Registry returns the collector's registry.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// Handler serves the collector's metrics in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func (c *Collector) stage(name string, d time.Duration, err error) {
	c.stageDuration.WithLabelValues(name).Observe(d.Seconds())
	if err != nil {
		c.stageErrors.WithLabelValues(name).Inc()
	}
}

// OnLoadComplete implements observability.PipelineHooks.
func (c *Collector) OnLoadComplete(_ context.Context, users, gifts int, d time.Duration, err error) {
	c.stage("load", d, err)
	if err == nil {
		c.graphSize.WithLabelValues("users").Set(float64(users))
		c.graphSize.WithLabelValues("gifts").Set(float64(gifts))
	}
}

// OnBuildComplete implements observability.PipelineHooks.
func (c *Collector) OnBuildComplete(_ context.Context, nodes, edges int, d time.Duration) {
	c.stage("build", d, nil)
	c.graphSize.WithLabelValues("nodes").Set(float64(nodes))
	c.graphSize.WithLabelValues("edges").Set(float64(edges))
}

// OnLayoutStart implements observability.PipelineHooks.
func (c *Collector) OnLayoutStart(context.Context, int) {
	c.layoutRunning.Inc()
}

// OnLayoutComplete implements observability.PipelineHooks.
func (c *Collector) OnLayoutComplete(_ context.Context, ticks int, d time.Duration, err error) {
	c.layoutRunning.Dec()
	c.stage("layout", d, err)
	if err == nil {
		c.layoutTicks.Observe(float64(ticks))
	}
}

// OnRenderStart implements observability.PipelineHooks.
func (c *Collector) OnRenderStart(context.Context, []string) {}

// OnRenderComplete implements observability.PipelineHooks.
func (c *Collector) OnRenderComplete(_ context.Context, formats []string, d time.Duration, err error) {
	c.stage("render", d, err)
	if err == nil {
		for _, f := range formats {
			c.artifacts.WithLabelValues(f).Inc()
		}
	}
}

// OnCacheHit implements observability.CacheHooks.
func (c *Collector) OnCacheHit(_ context.Context, keyType string) {
	c.cacheOps.WithLabelValues(keyType, "hit").Inc()
}

// OnCacheMiss implements observability.CacheHooks.
func (c *Collector) OnCacheMiss(_ context.Context, keyType string) {
	c.cacheOps.WithLabelValues(keyType, "miss").Inc()
}

// OnCacheSet implements observability.CacheHooks.
func (c *Collector) OnCacheSet(_ context.Context, keyType string, size int) {
	c.cacheOps.WithLabelValues(keyType, "set").Inc()
	c.cacheBytes.Add(float64(size))
}

// OnCacheError implements observability.CacheHooks.
func (c *Collector) OnCacheError(_ context.Context, backend string, _ error) {
	c.cacheErrors.WithLabelValues(backend).Inc()
}

// OnRequest implements observability.HTTPHooks.
func (c *Collector) OnRequest(context.Context, string, string) {
	c.httpInFlight.Inc()
}

// OnResponse implements observability.HTTPHooks.
func (c *Collector) OnResponse(_ context.Context, method, route string, status int, d time.Duration) {
	c.httpInFlight.Dec()
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// OnError implements observability.HTTPHooks.
func (c *Collector) OnError(_ context.Context, method, route string, _ error) {
	c.httpErrors.WithLabelValues(method, route).Inc()
}

var (
	_ observability.PipelineHooks = (*Collector)(nil)
	_ observability.CacheHooks    = (*Collector)(nil)
	_ observability.HTTPHooks     = (*Collector)(nil)
)
