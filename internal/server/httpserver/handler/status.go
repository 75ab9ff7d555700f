package handler

import (
	"fmt"
	"net/http"

	"github.com/yndnr/ispstatus-go/internal/core/domain"
	"github.com/yndnr/ispstatus-go/internal/core/service"
	"github.com/yndnr/ispstatus-go/internal/telemetry/logger"
)

// handleExport handles GET <prefix>.
func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", contentTypeText)
	w.WriteHeader(http.StatusOK)

	// Headers are already sent, so a write error can only be logged.
	if err := h.status.Export(r.Context(), w); err != nil {
		logger.L(r.Context()).Warn("export interrupted", "error", err)
	}
}

// handleReport handles POST <prefix>.
func (h *Handler) handleReport(w http.ResponseWriter, r *http.Request) {
	var req ReportRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, r, err)
		return
	}
	if err := req.validate(); err != nil {
		WriteError(w, r, err)
		return
	}

	if _, err := h.status.ReportStatus(r.Context(), *req.Node, *req.ISP, *req.Status); err != nil {
		WriteError(w, r, err)
		return
	}

	writeOK(w)
}

// handleBackfill handles PATCH <prefix>.
func (h *Handler) handleBackfill(w http.ResponseWriter, r *http.Request) {
	var items []BackfillItem
	if err := decodeJSON(w, r, &items); err != nil {
		WriteError(w, r, err)
		return
	}
	if items == nil {
		WriteError(w, r, domain.ErrMalformedBody.WithDetails("expected a JSON array"))
		return
	}

	inputs := make([]service.BackfillInput, len(items))
	for i := range items {
		if err := items[i].validate(); err != nil {
			WriteError(w, r, fmt.Errorf("entry %d: %w", i, err))
			return
		}
		inputs[i] = service.BackfillInput{
			Node:       *items[i].Node,
			ISP:        *items[i].ISP,
			LastUpdate: *items[i].LastUpdate,
		}
	}

	if _, err := h.status.Backfill(r.Context(), inputs); err != nil {
		WriteError(w, r, err)
		return
	}

	writeOK(w)
}

// handleRemove handles DELETE <prefix>?node=..&isp=..
func (h *Handler) handleRemove(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	for _, name := range []string{"node", "isp"} {
		if !q.Has(name) {
			WriteError(w, r, domain.ErrMissingArgument.WithDetails("query parameter "+name+" is required"))
			return
		}
	}

	if _, err := h.status.Remove(r.Context(), q.Get("node"), q.Get("isp")); err != nil {
		WriteError(w, r, err)
		return
	}

	writeOK(w)
}
