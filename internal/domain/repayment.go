package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type ExpectedRepaymentStatus string

const (
	ExpectedRepaymentStatusOpen    ExpectedRepaymentStatus = "OPEN"
	ExpectedRepaymentStatusPartial ExpectedRepaymentStatus = "PARTIAL"
	ExpectedRepaymentStatusOverdue ExpectedRepaymentStatus = "OVERDUE"
	ExpectedRepaymentStatusSettled ExpectedRepaymentStatus = "SETTLED"
)

// ExpectedRepayment is the obligation a buyer owes once an invoice is funded.
// Amount is fixed at creation; settlement status is always derived from the
// sum of allocations, never from a cached counter.
type ExpectedRepayment struct {
	ID        int32                   `json:"id"`
	InvoiceID int32                   `json:"invoice_id"`
	BuyerID   int32                   `json:"buyer_id"`
	Amount    decimal.Decimal         `json:"amount"`
	DueDate   time.Time               `json:"due_date"`
	Status    ExpectedRepaymentStatus `json:"status"`
	CreatedAt time.Time               `json:"created_at"`
}

// ReceivedRepayment invariant: AllocatedAmount + UnallocatedAmount == Amount
// at all times.
type ReceivedRepayment struct {
	ID                int32           `json:"id"`
	BuyerID           int32           `json:"buyer_id"`
	Amount            decimal.Decimal `json:"amount"`
	ReceivedDate      time.Time       `json:"received_date"`
	BankReference     string          `json:"bank_reference"`
	AllocatedAmount   decimal.Decimal `json:"allocated_amount"`
	UnallocatedAmount decimal.Decimal `json:"unallocated_amount"`
	CreatedAt         time.Time       `json:"created_at"`
}

// RepaymentAllocation joins a received payment to an expected obligation.
// Rows are append-only; the sum per expected repayment never exceeds its
// amount.
type RepaymentAllocation struct {
	ID         int32           `json:"id"`
	ReceivedID int32           `json:"received_id"`
	ExpectedID int32           `json:"expected_id"`
	Amount     decimal.Decimal `json:"amount"`
	CreatedAt  time.Time       `json:"created_at"`
}
