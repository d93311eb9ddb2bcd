package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OfferStatus string

const (
	OfferStatusIssued   OfferStatus = "ISSUED"
	OfferStatusAccepted OfferStatus = "ACCEPTED"
	OfferStatusDeclined OfferStatus = "DECLINED"
	OfferStatusExpired  OfferStatus = "EXPIRED"
)

// PricingSnapshot is an immutable copy of the inputs and the matched rule the
// pricing engine used, stored with the offer for later audit and
// reproducibility. Stored as JSONB.
type PricingSnapshot struct {
	Amount        decimal.Decimal `json:"amount"`
	DueDate       time.Time       `json:"due_date"`
	PricedAt      time.Time       `json:"priced_at"`
	SupplierGrade Grade           `json:"supplier_grade"`
	BuyerGrade    Grade           `json:"buyer_grade"`
	ReferenceRate decimal.Decimal `json:"reference_rate"`
	RuleID        int32           `json:"rule_id"`
	SpreadRate    decimal.Decimal `json:"spread_rate"`
	VIPAdjustment decimal.Decimal `json:"vip_adjustment"`
	VIPApplied    bool            `json:"vip_applied"`
}

// Offer invariant: NetAmount = Amount - DiscountAmount - AdminFee, and at most
// one non-expired ISSUED offer exists per invoice.
type Offer struct {
	ID              int32           `json:"id"`
	InvoiceID       int32           `json:"invoice_id"`
	Amount          decimal.Decimal `json:"amount"`
	TenorDays       int32           `json:"tenor_days"`
	DiscountRate    decimal.Decimal `json:"discount_rate"`
	DiscountAmount  decimal.Decimal `json:"discount_amount"`
	AdminFee        decimal.Decimal `json:"admin_fee"`
	NetAmount       decimal.Decimal `json:"net_amount"`
	PricingSnapshot PricingSnapshot `json:"pricing_snapshot"`
	Status          OfferStatus     `json:"status"`
	IssuedAt        time.Time       `json:"issued_at"`
	ExpiresAt       time.Time       `json:"expires_at"`
	RespondedAt     *time.Time      `json:"responded_at,omitempty"`
}
