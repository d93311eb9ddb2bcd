package domain

import "time"

type Grade string

const (
	GradeA   Grade = "A"
	GradeB   Grade = "B"
	GradeC   Grade = "C"
	GradeVIP Grade = "VIP"
)

// IsVIP reports whether the grade earns the configured VIP rate adjustment
// and priority boost in the review queue.
func (g Grade) IsVIP() bool { return g == GradeVIP }

type KYBStatus string

const (
	KYBStatusPending  KYBStatus = "PENDING"
	KYBStatusApproved KYBStatus = "APPROVED"
	KYBStatusRejected KYBStatus = "REJECTED"
)

type Supplier struct {
	ID        int32     `json:"id"`
	Name      string    `json:"name"`
	Grade     Grade     `json:"grade"`
	KYBStatus KYBStatus `json:"kyb_status"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

type Buyer struct {
	ID        int32     `json:"id"`
	Name      string    `json:"name"`
	Grade     Grade     `json:"grade"`
	CreatedAt time.Time `json:"created_at"`
}

// PayoutAccount is the destination a supplier is paid into. Funding batch
// execution refuses to run unless every member supplier has one.
type PayoutAccount struct {
	ID            int32  `json:"id"`
	SupplierID    int32  `json:"supplier_id"`
	BankName      string `json:"bank_name"`
	AccountNumber string `json:"account_number"`
	AccountHolder string `json:"account_holder"`
}

type Investor struct {
	ID    int32  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}
