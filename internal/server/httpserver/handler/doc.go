// Package handler provides the HTTP handlers of the ISP status service.
//
//   - status.go: GET/POST/PATCH/DELETE on the registry root
//   - health.go: health and readiness checks
//   - request.go: request bodies and strict JSON decoding
//   - respond.go: plain-text, JSON and error responses
//
// Handlers parse and validate the request, call the status service and map
// domain errors to HTTP status codes. Access control happens before a
// request reaches this package.
package handler
