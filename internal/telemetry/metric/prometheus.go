package metric

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Namespace prefixes every metric name.
const Namespace = "ispstatus"

// Registry holds all application metrics on a dedicated Prometheus registry.
type Registry struct {
	registry *prometheus.Registry

	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	OperationsTotal *prometheus.CounterVec
	GateDenials     prometheus.Counter
	RateLimited     prometheus.Counter
	ConfigReloads   *prometheus.CounterVec
	BuildInfo       *prometheus.GaugeVec
}

// NewRegistry creates a registry with the Go and process collectors and all
// service instruments registered.
func NewRegistry() *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "code"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"method", "route"}),
		OperationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "registry_operations_total",
			Help:      "Registry operations by operation and outcome. Backfill counts entries.",
		}, []string{"operation", "outcome"}),
		GateDenials: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "gate_denials_total",
			Help:      "Requests rejected by the API key gate.",
		}),
		RateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the per-client rate limiter.",
		}),
		ConfigReloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "config_reloads_total",
			Help:      "Hot reloads of the config file and TLS certificate by result.",
		}, []string{"source", "result"}),
		BuildInfo: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "build_info",
			Help:      "Build information; the value is always 1.",
		}, []string{"version", "commit", "go_version"}),
	}

	r.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.RequestsTotal,
		r.RequestDuration,
		r.OperationsTotal,
		r.GateDenials,
		r.RateLimited,
		r.ConfigReloads,
		r.BuildInfo,
	)

	return r
}

// MustRegister registers additional collectors. It panics on conflicts.
func (r *Registry) MustRegister(cs ...prometheus.Collector) {
	r.registry.MustRegister(cs...)
}

// Handler returns the HTTP handler for the /metrics endpoint.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{
		Registry: r.registry,
	})
}

// ObserveRequest records one completed HTTP request.
func (r *Registry) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	r.RequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	r.RequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// ObserveOperation implements service.OperationObserver.
func (r *Registry) ObserveOperation(op, outcome string, count int) {
	r.OperationsTotal.WithLabelValues(op, outcome).Add(float64(count))
}

// Reload sources.
const (
	ReloadConfig      = "config"
	ReloadCertificate = "certificate"
)

// ObserveReload records the result of a hot reload from source.
func (r *Registry) ObserveReload(source string, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	r.ConfigReloads.WithLabelValues(source, result).Inc()
}

// SetBuildInfo publishes the build information gauge.
func (r *Registry) SetBuildInfo(version, commit, goVersion string) {
	r.BuildInfo.WithLabelValues(version, commit, goVersion).Set(1)
}
