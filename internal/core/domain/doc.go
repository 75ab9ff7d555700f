// Package domain defines the core domain models for the ISP status service.
//
// Domain models are pure value objects without any IO dependencies or
// framework coupling. This package contains:
//
//   - LabelSet: the (node, isp) identity and its canonical key
//   - BackfillEntry: a validated conditional backfill seed
//   - Exposition: formatting and parsing of scrape lines
//   - Errors: domain error definitions with stable codes
package domain
