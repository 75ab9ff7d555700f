package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/yndnr/ispstatus-go/internal/core/domain"
	"github.com/yndnr/ispstatus-go/internal/telemetry/logger"
)

// ErrorResponse is the body of every error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

const contentTypeText = "text/plain; charset=utf-8"

func writeOK(w http.ResponseWriter) {
	w.Header().Set("Content-Type", contentTypeText)
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	body, err := json.Marshal(data)
	if err != nil {
		logger.L(r.Context()).Error("failed to encode response", "error", err)
		WriteError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(body)
}

// WriteError writes err as a JSON error response. Domain errors map to a
// status by their code; anything else is logged and reported as a 500.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	var de *domain.DomainError
	if !errors.As(err, &de) {
		logger.L(r.Context()).Error("internal error", "error", err)
		de = domain.ErrInternalServer
		err = de
	}

	body, _ := json.Marshal(ErrorResponse{Error: publicMessage(err, de)})

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Error-Code", de.Code)
	w.WriteHeader(errorCodeToHTTPStatus(de.Code))
	w.Write(body)
}

// publicMessage strips the bracketed code from de while keeping any context
// added by wrapping, e.g. "entry 2: invalid label: node must not be empty".
func publicMessage(err error, de *domain.DomainError) string {
	msg := de.PublicMessage()
	if outer := err.Error(); outer != de.Error() {
		if context, ok := strings.CutSuffix(outer, de.Error()); ok {
			return context + msg
		}
	}
	return msg
}

// errorCodeToHTTPStatus maps error codes to HTTP status codes.
func errorCodeToHTTPStatus(code string) int {
	switch {
	case strings.HasSuffix(code, "-4130"):
		return http.StatusRequestEntityTooLarge
	case strings.HasSuffix(code, "-4290"):
		return http.StatusTooManyRequests
	case strings.HasSuffix(code, "-4010"), strings.HasSuffix(code, "-4011"):
		return http.StatusUnauthorized
	case strings.HasSuffix(code, "-4030"):
		return http.StatusForbidden
	case strings.HasSuffix(code, "-4040"):
		return http.StatusNotFound
	case strings.HasPrefix(code, "IS-ARG-"):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
