// Package metric provides the service's own Prometheus metrics.
//
// These describe the service itself (request rates, latencies, operation
// outcomes, registry size) and are served on /metrics. They are separate from
// the isp_status exposition, which is produced by the registry.
//
//   - prometheus.go: registry, instruments and HTTP handler
//   - collector.go: collector reporting the size of the status registry
package metric
