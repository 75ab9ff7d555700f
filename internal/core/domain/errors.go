package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a business domain error with a structured error code.
//
// Codes have the form IS-<AREA>-<NNNN>, where the numeric suffix starts with
// the HTTP status class the error maps to.
type DomainError struct {
	Code    string // Error code (e.g., "IS-ARG-4001")
	Message string // Human-readable message
	Details string // Optional additional details
	Cause   error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap() support.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a DomainError with the same code.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new DomainError with the given code and message.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *DomainError) WithDetails(details string) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		Cause:   e.Cause,
	}
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *DomainError) WithCause(cause error) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		Cause:   cause,
	}
}

// PublicMessage returns the message without the code prefix, suitable for
// response bodies.
func (e *DomainError) PublicMessage() string {
	if e.Details != "" {
		return e.Message + ": " + e.Details
	}
	return e.Message
}

// IsDomainError checks if an error is a DomainError with the given code.
// If code is empty, it only checks if the error is a DomainError.
func IsDomainError(err error, code string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		if code == "" {
			return true
		}
		return de.Code == code
	}
	return false
}

// GetErrorCode extracts the error code from an error if it's a DomainError.
func GetErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// ============================================================================
// Argument Errors (ARG)
// ============================================================================

var (
	// ErrMalformedBody indicates the request body could not be decoded.
	ErrMalformedBody = NewDomainError("IS-ARG-4000", "malformed request body")

	// ErrInvalidLabel indicates a node or isp label is missing or unusable.
	ErrInvalidLabel = NewDomainError("IS-ARG-4001", "invalid label")

	// ErrInvalidValue indicates a status or lastupdate value is out of range.
	ErrInvalidValue = NewDomainError("IS-ARG-4002", "invalid value")

	// ErrMissingArgument indicates a required field or query parameter is absent.
	ErrMissingArgument = NewDomainError("IS-ARG-4003", "missing required argument")

	// ErrBodyTooLarge indicates the request body exceeded the size limit.
	ErrBodyTooLarge = NewDomainError("IS-ARG-4130", "request body too large")
)

// ============================================================================
// Authentication Errors (AUTH)
// ============================================================================

var (
	// ErrUnauthorized is returned by the access gate for a missing or unknown key.
	// The message is part of the public contract and must not change.
	ErrUnauthorized = NewDomainError("IS-AUTH-4010", "Unauthorized: Invalid API Key")
)

// ============================================================================
// System Errors (SYS)
// ============================================================================

var (
	// ErrInternalServer indicates an internal server error.
	ErrInternalServer = NewDomainError("IS-SYS-5000", "internal server error")

	// ErrRateLimited indicates too many requests.
	ErrRateLimited = NewDomainError("IS-SYS-4290", "too many requests")
)
