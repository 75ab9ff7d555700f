// Package connection provides the HTTP client ispstatus-cli uses to talk
// to the status endpoint.
package connection
