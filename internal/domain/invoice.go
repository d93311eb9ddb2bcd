package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type InvoiceStatus string

const (
	InvoiceStatusDraft       InvoiceStatus = "DRAFT"
	InvoiceStatusUnderReview InvoiceStatus = "UNDER_REVIEW"
	InvoiceStatusApproved    InvoiceStatus = "APPROVED"
	InvoiceStatusRejected    InvoiceStatus = "REJECTED"
	InvoiceStatusAccepted    InvoiceStatus = "ACCEPTED"
	InvoiceStatusFunded      InvoiceStatus = "FUNDED"
	InvoiceStatusSettled     InvoiceStatus = "SETTLED"
	InvoiceStatusOverdue     InvoiceStatus = "OVERDUE"
	InvoiceStatusDisputed    InvoiceStatus = "DISPUTED"
	InvoiceStatusWrittenOff  InvoiceStatus = "WRITTEN_OFF"
)

// Invoice is the receivable a supplier submits for discounting. Version is an
// optimistic-lock counter: every mutation must carry the version it read, and
// the repository rejects stale writes with ErrStaleVersion.
type Invoice struct {
	ID         int32           `json:"id"`
	Number     string          `json:"number"`
	SupplierID int32           `json:"supplier_id"`
	BuyerID    int32           `json:"buyer_id"`
	Amount     decimal.Decimal `json:"amount"`
	Currency   string          `json:"currency"`
	DueDate    time.Time       `json:"due_date"`
	Status     InvoiceStatus   `json:"status"`
	AssignedTo *int32          `json:"assigned_to,omitempty"`
	Priority   int32           `json:"priority"`
	Version    int32           `json:"version"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}
