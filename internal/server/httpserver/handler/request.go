package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/yndnr/ispstatus-go/internal/core/domain"
)

// MaxBodyBytes limits POST and PATCH request bodies.
const MaxBodyBytes = 1 << 20

// ReportRequest is the body of POST <prefix>.
// Pointer fields distinguish a missing field from a zero value.
type ReportRequest struct {
	Node   *string `json:"node"`
	ISP    *string `json:"isp"`
	Status *int    `json:"status"`
}

func (r *ReportRequest) validate() error {
	switch {
	case r.Node == nil:
		return domain.ErrMissingArgument.WithDetails("node is required")
	case r.ISP == nil:
		return domain.ErrMissingArgument.WithDetails("isp is required")
	case r.Status == nil:
		return domain.ErrMissingArgument.WithDetails("status is required")
	}
	return nil
}

// BackfillItem is one element of the PATCH <prefix> body.
type BackfillItem struct {
	Node       *string `json:"node"`
	ISP        *string `json:"isp"`
	LastUpdate *int64  `json:"lastupdate"`
}

func (b *BackfillItem) validate() error {
	switch {
	case b.Node == nil:
		return domain.ErrMissingArgument.WithDetails("node is required")
	case b.ISP == nil:
		return domain.ErrMissingArgument.WithDetails("isp is required")
	case b.LastUpdate == nil:
		return domain.ErrMissingArgument.WithDetails("lastupdate is required")
	}
	return nil
}

// decodeJSON decodes exactly one JSON value from the request body into v.
// Unknown fields and trailing data are rejected.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		return decodeError(err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err != nil {
			if tooLarge := decodeError(err); domain.IsDomainError(tooLarge, domain.ErrBodyTooLarge.Code) {
				return tooLarge
			}
		}
		return domain.ErrMalformedBody.WithDetails("unexpected data after JSON value")
	}
	return nil
}

func decodeError(err error) error {
	var maxErr *http.MaxBytesError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &maxErr):
		return domain.ErrBodyTooLarge.WithDetails(fmt.Sprintf("limit is %d bytes", maxErr.Limit)).WithCause(err)
	case errors.Is(err, io.EOF):
		return domain.ErrMalformedBody.WithDetails("empty body")
	case errors.As(err, &typeErr):
		if typeErr.Field != "" {
			return domain.ErrMalformedBody.WithDetails(fmt.Sprintf("field %s must be %s", typeErr.Field, typeErr.Type)).WithCause(err)
		}
		return domain.ErrMalformedBody.WithDetails(fmt.Sprintf("expected %s", typeErr.Type)).WithCause(err)
	default:
		return domain.ErrMalformedBody.WithDetails(err.Error()).WithCause(err)
	}
}
