// Package logger provides structured logging for the ISP status service.
//
// It wraps log/slog:
//
//   - logger.go: JSON/text handlers and a process-wide dynamic level
//   - context.go: request IDs carried through the context
//   - redact.go: masking of credentials in log attributes
package logger
