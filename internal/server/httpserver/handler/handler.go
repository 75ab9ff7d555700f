package handler

import (
	"net/http"
	"strings"

	"github.com/yndnr/ispstatus-go/internal/core/service"
)

// Handler routes requests to the status and health handlers.
type Handler struct {
	status *service.StatusService
	prefix string
	mux    *http.ServeMux
}

// New creates a Handler serving the registry under prefix.
func New(status *service.StatusService, prefix string) *Handler {
	h := &Handler{
		status: status,
		prefix: strings.TrimSuffix(prefix, "/"),
		mux:    http.NewServeMux(),
	}

	h.registerRoutes()
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// Mount registers an additional handler, e.g. the metrics endpoint.
func (h *Handler) Mount(pattern string, handler http.Handler) {
	h.mux.Handle(pattern, handler)
}

// Route returns the pattern that would serve r, or "" if none matches.
func (h *Handler) Route(r *http.Request) string {
	_, pattern := h.mux.Handler(r)
	return pattern
}

func (h *Handler) registerRoutes() {
	h.mux.HandleFunc("GET /health", h.handleHealth)
	h.mux.HandleFunc("GET /ready", h.handleReady)

	for _, root := range h.rootPatterns() {
		h.mux.HandleFunc("GET "+root, h.handleExport)
		h.mux.HandleFunc("POST "+root, h.handleReport)
		h.mux.HandleFunc("PATCH "+root, h.handleBackfill)
		h.mux.HandleFunc("DELETE "+root, h.handleRemove)
	}
}

// rootPatterns returns the paths that address the registry root: the prefix
// itself and the prefix with a trailing slash.
func (h *Handler) rootPatterns() []string {
	if h.prefix == "" {
		return []string{"/{$}"}
	}
	return []string{h.prefix, h.prefix + "/{$}"}
}
