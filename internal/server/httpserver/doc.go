// Package httpserver provides the HTTP/HTTPS server of the ISP status service.
//
// Every request passes the same middleware chain:
//
//	RequestID -> Recover -> Instrument -> Audit -> RateLimit -> Gate -> handler
//
// The Gate enforces API keys on the configured protected path prefixes; the
// handler package serves the registry root, /health, /ready and /metrics.
package httpserver
