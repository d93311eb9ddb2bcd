package http

import (
	"net/http"

	"github.com/shopspring/decimal"

	"invofin-backend/internal/domain"
	"invofin-backend/internal/service"
)

// BatchHandler drives the funding batch lifecycle: create, approve by a
// second actor, execute.
type BatchHandler struct {
	batches service.FundingBatchService
	limit   int32
}

func NewBatchHandler(batches service.FundingBatchService, defaultLimit int32) *BatchHandler {
	return &BatchHandler{batches: batches, limit: defaultLimit}
}

type createBatchRequest struct {
	Limit    int32  `json:"limit,omitempty"`
	MaxTotal string `json:"max_total,omitempty"`
}

func (h *BatchHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createBatchRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	limit := req.Limit
	if limit <= 0 {
		limit = h.limit
	}
	maxTotal := decimal.Zero
	if req.MaxTotal != "" {
		var err error
		maxTotal, err = decimal.NewFromString(req.MaxTotal)
		if err != nil {
			writeError(w, &domain.ValidationError{Field: "max_total", Reason: "must be a decimal number"})
			return
		}
	}

	result, err := h.batches.CreateBatch(r.Context(), limit, maxTotal)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (h *BatchHandler) Approve(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	batch, err := h.batches.ApproveBatch(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, batch)
}

func (h *BatchHandler) Execute(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	batch, err := h.batches.ExecuteBatch(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, batch)
}

type batchResponse struct {
	Batch    *domain.FundingBatch `json:"batch"`
	Fundings []domain.Funding     `json:"fundings"`
}

func (h *BatchHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	batch, fundings, err := h.batches.GetBatch(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, batchResponse{Batch: batch, Fundings: fundings})
}
