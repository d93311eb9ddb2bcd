package http

import (
	"net/http"

	"invofin-backend/internal/service"
)

// OfferHandler exposes offer issuance and the supplier's accept/decline
// response over HTTP.
type OfferHandler struct {
	offers service.OfferService
}

func NewOfferHandler(offers service.OfferService) *OfferHandler {
	return &OfferHandler{offers: offers}
}

type issueOfferRequest struct {
	InvoiceID int32 `json:"invoice_id"`
}

func (h *OfferHandler) Issue(w http.ResponseWriter, r *http.Request) {
	var req issueOfferRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	offer, err := h.offers.IssueOffer(r.Context(), req.InvoiceID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, offer)
}

func (h *OfferHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	offer, err := h.offers.GetOffer(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, offer)
}

func (h *OfferHandler) Accept(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	offer, err := h.offers.AcceptOffer(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, offer)
}

func (h *OfferHandler) Decline(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	offer, err := h.offers.DeclineOffer(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, offer)
}
