// Package main provides the entry point for ispstatus-server.
//
// The server keeps the latest status and last-update timestamp reported
// for each (node, isp) pair in memory. It exposes them in the Prometheus
// text format at the configured prefix:
//
//   - GET    <prefix>  exposition of isp_status and isp_status_lastupdate
//   - POST   <prefix>  report {node, isp, status}
//   - PATCH  <prefix>  backfill [{node, isp, lastupdate}, ...]
//   - DELETE <prefix>  remove ?node=&isp=
//
// Routes under the configured protected prefixes require an X-API-Key
// header. /health, /ready and the service's own /metrics sit beside the
// registry routes.
//
// Usage:
//
//	ispstatus-server [flags]
//	ispstatus-server -config /etc/ispstatus/config.yaml
//
// When a config file is given, changes to its API keys, protected routes
// and log level are applied without a restart.
package main
