package http

import (
	"net/http"

	"github.com/shopspring/decimal"

	"invofin-backend/internal/domain"
	"invofin-backend/internal/service"
)

// DealHandler manages forfaiting transactions, their investments and
// expenses.
type DealHandler struct {
	deals service.DealService
}

func NewDealHandler(deals service.DealService) *DealHandler {
	return &DealHandler{deals: deals}
}

type createTransactionRequest struct {
	Number              string `json:"number"`
	Customer            string `json:"customer"`
	NetAmount           string `json:"net_amount"`
	ProfitMarginPct     string `json:"profit_margin_pct"`
	DisbursementCharges string `json:"disbursement_charges,omitempty"`
	TenorDays           int32  `json:"tenor_days"`
}

func (h *DealHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createTransactionRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	netAmount, err := decimal.NewFromString(req.NetAmount)
	if err != nil {
		writeError(w, &domain.ValidationError{Field: "net_amount", Reason: "must be a decimal number"})
		return
	}
	margin, err := decimal.NewFromString(req.ProfitMarginPct)
	if err != nil {
		writeError(w, &domain.ValidationError{Field: "profit_margin_pct", Reason: "must be a decimal number"})
		return
	}
	charges := decimal.Zero
	if req.DisbursementCharges != "" {
		charges, err = decimal.NewFromString(req.DisbursementCharges)
		if err != nil {
			writeError(w, &domain.ValidationError{Field: "disbursement_charges", Reason: "must be a decimal number"})
			return
		}
	}

	txn, err := h.deals.CreateTransaction(r.Context(), service.CreateTransactionInput{
		Number:              req.Number,
		Customer:            req.Customer,
		NetAmount:           netAmount,
		ProfitMarginPct:     margin,
		DisbursementCharges: charges,
		TenorDays:           req.TenorDays,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, txn)
}

func (h *DealHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	txn, err := h.deals.GetTransaction(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, txn)
}

func (h *DealHandler) Disburse(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	txn, err := h.deals.DisburseTransaction(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, txn)
}

func (h *DealHandler) End(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	txn, err := h.deals.EndTransaction(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, txn)
}

type addInvestmentRequest struct {
	InvestorID int32  `json:"investor_id"`
	Amount     string `json:"amount"`
}

func (h *DealHandler) AddInvestment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	var req addInvestmentRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		writeError(w, &domain.ValidationError{Field: "amount", Reason: "must be a decimal number"})
		return
	}

	investment, err := h.deals.AddInvestment(r.Context(), id, req.InvestorID, amount)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, investment)
}

type addExpenseRequest struct {
	Description string `json:"description"`
	Amount      string `json:"amount"`
}

func (h *DealHandler) AddExpense(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	var req addExpenseRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		writeError(w, &domain.ValidationError{Field: "amount", Reason: "must be a decimal number"})
		return
	}

	expense, err := h.deals.AddExpense(r.Context(), id, req.Description, amount)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, expense)
}
