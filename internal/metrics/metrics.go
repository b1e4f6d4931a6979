// Package metrics exports resolver, cache and upstream HTTP events as
// Prometheus metrics.
//
// [Metrics] implements the hook interfaces of the observability package.
// Install it once at startup:
//
//	m, err := metrics.New(prometheus.DefaultRegisterer)
//	if err != nil {
//	    return err
//	}
//	m.Install()
//	mux.Handle("/metrics", metrics.Handler(prometheus.DefaultGatherer))
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/tagresolver/pkg/observability"
)

const namespace = "tagresolver"

// Metrics holds the collectors fed by observability hooks.
type Metrics struct {
	resolveTotal    *prometheus.CounterVec
	resolveDuration *prometheus.HistogramVec
	resolveShared   *prometheus.CounterVec
	inflight        prometheus.Gauge
	forbiddenTotal  prometheus.Counter

	cacheLookups *prometheus.CounterVec
	cacheWrites  *prometheus.CounterVec
	cacheErrors  *prometheus.CounterVec

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	httpErrors   *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		resolveTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "resolve",
			Name:      "total",
			Help:      "Upstream resolutions by spec kind and outcome.",
		}, []string{"kind", "outcome"}),
		resolveDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "resolve",
			Name:      "duration_seconds",
			Help:      "Duration of upstream resolutions.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),
		resolveShared: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "resolve",
			Name:      "shared_total",
			Help:      "Requests that reused an in-flight resolution.",
		}, []string{"kind"}),
		inflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "resolve",
			Name:      "inflight",
			Help:      "Upstream resolutions currently running.",
		}),
		forbiddenTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "resolve",
			Name:      "forbidden_total",
			Help:      "Requests rejected by the allow-list.",
		}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Cache lookups by spec kind and result.",
		}, []string{"kind", "result"}),
		cacheWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "writes_total",
			Help:      "Cache writes by spec kind.",
		}, []string{"kind"}),
		cacheErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "errors_total",
			Help:      "Failed store operations.",
		}, []string{"op"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "requests_total",
			Help:      "Upstream HTTP responses by host and status code.",
		}, []string{"host", "code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "request_duration_seconds",
			Help:      "Upstream HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"host"}),
		httpErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "errors_total",
			Help:      "Upstream HTTP transport failures by host.",
		}, []string{"host"}),
	}

	for _, c := range []prometheus.Collector{
		m.resolveTotal, m.resolveDuration, m.resolveShared, m.inflight, m.forbiddenTotal,
		m.cacheLookups, m.cacheWrites, m.cacheErrors,
		m.httpRequests, m.httpDuration, m.httpErrors,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Install registers m as the process-wide resolve, cache and HTTP hooks.
func (m *Metrics) Install() {
	observability.SetResolveHooks(m)
	observability.SetCacheHooks(m)
	observability.SetHTTPHooks(m)
}

// Handler serves the metrics gathered by g in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

func (m *Metrics) OnResolveStart(_ context.Context, _ string) {
	m.inflight.Inc()
}

func (m *Metrics) OnResolveComplete(_ context.Context, kind, outcome string, d time.Duration) {
	m.inflight.Dec()
	m.resolveTotal.WithLabelValues(kind, outcome).Inc()
	m.resolveDuration.WithLabelValues(kind).Observe(d.Seconds())
}

func (m *Metrics) OnResolveShared(_ context.Context, kind string) {
	m.resolveShared.WithLabelValues(kind).Inc()
}

func (m *Metrics) OnForbidden(context.Context) {
	m.forbiddenTotal.Inc()
}

func (m *Metrics) OnCacheHit(_ context.Context, kind string) {
	m.cacheLookups.WithLabelValues(kind, "hit").Inc()
}

func (m *Metrics) OnCacheMiss(_ context.Context, kind string) {
	m.cacheLookups.WithLabelValues(kind, "miss").Inc()
}

func (m *Metrics) OnCacheSet(_ context.Context, kind string, _ int) {
	m.cacheWrites.WithLabelValues(kind).Inc()
}

func (m *Metrics) OnCacheError(_ context.Context, op string, _ error) {
	m.cacheErrors.WithLabelValues(op).Inc()
}

func (m *Metrics) OnRequest(context.Context, string, string, string) {}

func (m *Metrics) OnResponse(_ context.Context, _, host, _ string, code int, d time.Duration) {
	m.httpRequests.WithLabelValues(host, strconv.Itoa(code)).Inc()
	m.httpDuration.WithLabelValues(host).Observe(d.Seconds())
}

func (m *Metrics) OnError(_ context.Context, _, host, _ string, _ error) {
	m.httpErrors.WithLabelValues(host).Inc()
}

var (
	_ observability.ResolveHooks = (*Metrics)(nil)
	_ observability.CacheHooks   = (*Metrics)(nil)
	_ observability.HTTPHooks    = (*Metrics)(nil)
)
