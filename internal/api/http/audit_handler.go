package http

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"invofin-backend/internal/domain"
	"invofin-backend/internal/service"
)

// AuditHandler reads the append-only audit trail for one entity.
type AuditHandler struct {
	audit service.AuditService
}

func NewAuditHandler(audit service.AuditService) *AuditHandler {
	return &AuditHandler{audit: audit}
}

type auditPage struct {
	Events []domain.AuditEvent `json:"events"`
	Total  int32               `json:"total"`
}

func (h *AuditHandler) ListByEntity(w http.ResponseWriter, r *http.Request) {
	entityType := mux.Vars(r)["entityType"]
	entityID, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	q := r.URL.Query()
	page := queryInt(q.Get("page"), 1)
	pageSize := queryInt(q.Get("page_size"), 20)

	events, total, err := h.audit.ListByEntity(r.Context(), entityType, entityID, page, pageSize)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, auditPage{Events: events, Total: total})
}

func queryInt(raw string, fallback int32) int32 {
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return fallback
	}
	return int32(v)
}
