package http

import (
	"net/http"
	"strconv"
	"time"

	"invofin-backend/internal/domain"
	"invofin-backend/internal/service"
)

// ReviewHandler exposes the review queue: listing, claiming and deciding
// items.
type ReviewHandler struct {
	reviews service.ReviewQueueService
}

func NewReviewHandler(reviews service.ReviewQueueService) *ReviewHandler {
	return &ReviewHandler{reviews: reviews}
}

type enqueueRequest struct {
	Kind       string `json:"kind"`
	SubjectID  int32  `json:"subject_id"`
	SupplierID *int32 `json:"supplier_id,omitempty"`
	Priority   int32  `json:"priority"`
}

func (h *ReviewHandler) Enqueue(w http.ResponseWriter, r *http.Request) {
	var req enqueueRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	kind := domain.ReviewKind(req.Kind)
	switch kind {
	case domain.ReviewKindKYBDocument, domain.ReviewKindInvoice, domain.ReviewKindCollectionsCase:
	default:
		writeError(w, &domain.ValidationError{Field: "kind", Reason: "unknown review kind"})
		return
	}

	item, err := h.reviews.Enqueue(r.Context(), kind, req.SubjectID, req.SupplierID, req.Priority)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

// List supports filtering by kind, status, assignee, a minimum age in hours
// and a vip-only flag, all via query parameters.
func (h *ReviewHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := domain.ReviewFilter{
		Kind:   domain.ReviewKind(q.Get("kind")),
		Status: domain.ReviewStatus(q.Get("status")),
	}
	if raw := q.Get("assigned_to"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 32)
		if err != nil {
			writeError(w, &domain.ValidationError{Field: "assigned_to", Reason: "must be an integer"})
			return
		}
		assignee := int32(id)
		filter.AssignedTo = &assignee
	}
	if raw := q.Get("min_age_hours"); raw != "" {
		hours, err := strconv.Atoi(raw)
		if err != nil || hours < 0 {
			writeError(w, &domain.ValidationError{Field: "min_age_hours", Reason: "must be a non-negative integer"})
			return
		}
		filter.MinAge = time.Duration(hours) * time.Hour
	}
	filter.VIPOnly = q.Get("vip_only") == "true"

	items, err := h.reviews.List(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *ReviewHandler) Claim(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	item, err := h.reviews.Claim(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

type reassignRequest struct {
	AssigneeID int32 `json:"assignee_id"`
}

func (h *ReviewHandler) Reassign(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	var req reassignRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.AssigneeID <= 0 {
		writeError(w, &domain.ValidationError{Field: "assignee_id", Reason: "must be a positive integer"})
		return
	}

	item, err := h.reviews.Reassign(r.Context(), id, req.AssigneeID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

type decisionRequest struct {
	Notes  string `json:"notes,omitempty"`
	Reason string `json:"reason,omitempty"`
}

func (h *ReviewHandler) Approve(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	var req decisionRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	item, err := h.reviews.Approve(r.Context(), id, req.Notes)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *ReviewHandler) Reject(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	var req decisionRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	item, err := h.reviews.Reject(r.Context(), id, req.Reason)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}
