package http

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"invofin-backend/internal/domain"
	"invofin-backend/internal/service"
)

// RepaymentHandler records incoming buyer payments and exposes the resulting
// allocation breakdown.
type RepaymentHandler struct {
	repayments service.RepaymentService
}

func NewRepaymentHandler(repayments service.RepaymentService) *RepaymentHandler {
	return &RepaymentHandler{repayments: repayments}
}

type recordRepaymentRequest struct {
	BuyerID       int32  `json:"buyer_id"`
	Amount        string `json:"amount"`
	ReceivedDate  string `json:"received_date"`
	BankReference string `json:"bank_reference"`
}

func (h *RepaymentHandler) Record(w http.ResponseWriter, r *http.Request) {
	var req recordRepaymentRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		writeError(w, &domain.ValidationError{Field: "amount", Reason: "must be a decimal number"})
		return
	}
	receivedDate, err := time.Parse("2006-01-02", req.ReceivedDate)
	if err != nil {
		writeError(w, &domain.ValidationError{Field: "received_date", Reason: "must be YYYY-MM-DD"})
		return
	}

	result, err := h.repayments.RecordRepayment(r.Context(), service.RecordRepaymentInput{
		BuyerID:       req.BuyerID,
		Amount:        amount,
		ReceivedDate:  receivedDate,
		BankReference: req.BankReference,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (h *RepaymentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	result, err := h.repayments.GetRepayment(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
