// Package service provides domain services for the ISP status service.
//
// Domain services validate input, orchestrate operations on the registry and
// report outcomes to an optional observer. They define interfaces for their
// storage dependencies, allowing for dependency injection and testability.
//
// This package contains:
//
//   - StatusService: report, backfill, remove and export of (node, isp) status
package service
