package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"invofin-backend/internal/domain"
	"invofin-backend/internal/service"
)

// InvoiceHandler accepts supplier invoice submissions and lists them for the
// back office.
type InvoiceHandler struct {
	invoices service.InvoiceService
}

func NewInvoiceHandler(invoices service.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{invoices: invoices}
}

type submitInvoiceRequest struct {
	Number     string `json:"number"`
	SupplierID int32  `json:"supplier_id"`
	BuyerID    int32  `json:"buyer_id"`
	Amount     string `json:"amount"`
	Currency   string `json:"currency,omitempty"`
	DueDate    string `json:"due_date"`
	Priority   int32  `json:"priority,omitempty"`
}

func (h *InvoiceHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req submitInvoiceRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		writeError(w, &domain.ValidationError{Field: "amount", Reason: "must be a decimal number"})
		return
	}
	dueDate, err := time.Parse("2006-01-02", req.DueDate)
	if err != nil {
		writeError(w, &domain.ValidationError{Field: "due_date", Reason: "must be YYYY-MM-DD"})
		return
	}

	inv, err := h.invoices.SubmitInvoice(r.Context(), service.SubmitInvoiceInput{
		Number:     req.Number,
		SupplierID: req.SupplierID,
		BuyerID:    req.BuyerID,
		Amount:     amount,
		Currency:   req.Currency,
		DueDate:    dueDate,
		Priority:   req.Priority,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, inv)
}

func (h *InvoiceHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	inv, err := h.invoices.GetInvoice(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

type invoicePage struct {
	Invoices []domain.Invoice `json:"invoices"`
	Total    int32            `json:"total"`
}

// List filters by either status or supplier_id; supplier_id wins when both
// are present.
func (h *InvoiceHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page := queryInt(q.Get("page"), 1)
	pageSize := queryInt(q.Get("page_size"), 20)

	if raw := q.Get("supplier_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 32)
		if err != nil {
			writeError(w, &domain.ValidationError{Field: "supplier_id", Reason: "must be an integer"})
			return
		}
		invoices, total, err := h.invoices.ListBySupplier(r.Context(), int32(id), page, pageSize)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, invoicePage{Invoices: invoices, Total: total})
		return
	}

	status := domain.InvoiceStatus(q.Get("status"))
	if status == "" {
		writeError(w, &domain.ValidationError{Field: "status", Reason: "status or supplier_id is required"})
		return
	}
	invoices, total, err := h.invoices.ListByStatus(r.Context(), status, page, pageSize)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, invoicePage{Invoices: invoices, Total: total})
}
