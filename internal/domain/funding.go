package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type FundingStatus string

const (
	FundingStatusQueued    FundingStatus = "QUEUED"
	FundingStatusValidated FundingStatus = "VALIDATED"
	FundingStatusApproved  FundingStatus = "APPROVED"
	FundingStatusExecuted  FundingStatus = "EXECUTED"
	FundingStatusFailed    FundingStatus = "FAILED"
)

// Funding is a payout instruction created when an offer is accepted. Its
// amount never exceeds the offer's net amount.
type Funding struct {
	ID        int32           `json:"id"`
	InvoiceID int32           `json:"invoice_id"`
	OfferID   int32           `json:"offer_id"`
	BatchID   *int32          `json:"batch_id,omitempty"`
	Amount    decimal.Decimal `json:"amount"`
	Status    FundingStatus   `json:"status"`
	FundedAt  *time.Time      `json:"funded_at,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

type BatchStatus string

const (
	BatchStatusCreated  BatchStatus = "CREATED"
	BatchStatusApproved BatchStatus = "APPROVED"
	BatchStatusExecuted BatchStatus = "EXECUTED"
)

// FundingBatch invariant: TotalAmount equals the sum of member funding
// amounts at batch-creation time.
type FundingBatch struct {
	ID          int32           `json:"id"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Status      BatchStatus     `json:"status"`
	CreatedBy   int32           `json:"created_by"`
	ApprovedBy  *int32          `json:"approved_by,omitempty"`
	ExecutedBy  *int32          `json:"executed_by,omitempty"`
	ExecutedAt  *time.Time      `json:"executed_at,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}
