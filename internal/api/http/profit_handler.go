package http

import (
	"net/http"

	"invofin-backend/internal/service"
)

// ProfitHandler runs and lists investor profit allocations on a deal.
type ProfitHandler struct {
	profits service.ProfitService
}

func NewProfitHandler(profits service.ProfitService) *ProfitHandler {
	return &ProfitHandler{profits: profits}
}

func (h *ProfitHandler) Allocate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	allocations, err := h.profits.AllocateProfit(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, allocations)
}

func (h *ProfitHandler) List(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	allocations, err := h.profits.ListAllocations(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, allocations)
}
