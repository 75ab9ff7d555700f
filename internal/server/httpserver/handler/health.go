package handler

import (
	"net/http"
	"time"

	"github.com/yndnr/ispstatus-go/internal/infra/buildinfo"
)

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Time    string `json:"time"`
}

// ReadyResponse is the body of GET /ready.
type ReadyResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, HealthResponse{
		Status:  "healthy",
		Version: buildinfo.Version,
		Time:    time.Now().UTC().Format(time.RFC3339),
	})
}

// The registry is in memory and usable as soon as the handler exists, so
// readiness only reports that the process is serving.
func (h *Handler) handleReady(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, ReadyResponse{
		Status: "ready",
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
}
