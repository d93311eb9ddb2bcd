package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type DealStatus string

const (
	DealStatusNotDisbursed DealStatus = "NOT_DISBURSED"
	DealStatusOngoing      DealStatus = "ONGOING"
	DealStatusEnded        DealStatus = "ENDED"
)

// Transaction is a forfaiting-style deal whose profit is distributed across
// the investors funding it.
type Transaction struct {
	ID                  int32           `json:"id"`
	Number              string          `json:"number"`
	Customer            string          `json:"customer"`
	NetAmount           decimal.Decimal `json:"net_amount"`
	ProfitMarginPct     decimal.Decimal `json:"profit_margin_pct"`
	DisbursementCharges decimal.Decimal `json:"disbursement_charges"`
	TenorDays           int32           `json:"tenor_days"`
	Status              DealStatus      `json:"status"`
	CreatedAt           time.Time       `json:"created_at"`
}

type InvestmentStatus string

const (
	InvestmentStatusActive    InvestmentStatus = "ACTIVE"
	InvestmentStatusWithdrawn InvestmentStatus = "WITHDRAWN"
)

type Investment struct {
	ID            int32            `json:"id"`
	InvestorID    int32            `json:"investor_id"`
	Amount        decimal.Decimal  `json:"amount"`
	InvestedOn    time.Time        `json:"invested_on"`
	TransactionID *int32           `json:"transaction_id,omitempty"`
	Status        InvestmentStatus `json:"status"`
}

type ExpenseStatus string

const (
	ExpenseStatusPending  ExpenseStatus = "PENDING"
	ExpenseStatusApproved ExpenseStatus = "APPROVED"
	ExpenseStatusRejected ExpenseStatus = "REJECTED"
)

// Expense is linked to its transaction by an explicit foreign key. Only
// APPROVED expenses reduce deal profit.
type Expense struct {
	ID            int32           `json:"id"`
	TransactionID int32           `json:"transaction_id"`
	Description   string          `json:"description"`
	Amount        decimal.Decimal `json:"amount"`
	Status        ExpenseStatus   `json:"status"`
	CreatedAt     time.Time       `json:"created_at"`
}

type ProfitStatus string

const (
	ProfitStatusPending  ProfitStatus = "PENDING"
	ProfitStatusRealized ProfitStatus = "REALIZED"
)

// ProfitAllocation invariant: individual profits across investors for one
// transaction sum exactly to the deal's net profit, with the rounding
// remainder assigned to the largest weightage.
type ProfitAllocation struct {
	ID               int32           `json:"id"`
	TransactionID    int32           `json:"transaction_id"`
	InvestorID       int32           `json:"investor_id"`
	IndividualProfit decimal.Decimal `json:"individual_profit"`
	Weightage        decimal.Decimal `json:"weightage"`
	DealStatus       ProfitStatus    `json:"deal_status"`
	AllocatedAt      time.Time       `json:"allocated_at"`
}
