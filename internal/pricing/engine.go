// Package pricing computes financing quotes for approved invoices. The engine
// is pure: the same input always yields the same quote, and nothing here
// touches the database or the clock.
package pricing

import (
	"time"

	"github.com/shopspring/decimal"

	"invofin-backend/internal/domain"
)

var daysPerYear = decimal.NewFromInt(360)

// QuoteInput carries everything a quote depends on. AsOf is the pricing date;
// the caller passes it in explicitly so quotes are reproducible.
type QuoteInput struct {
	Amount        decimal.Decimal
	DueDate       time.Time
	AsOf          time.Time
	SupplierGrade domain.Grade
	BuyerGrade    domain.Grade
	ReferenceRate decimal.Decimal
	Rules         []domain.PricingRule
}

// Quote is the priced outcome. NetAmount = Amount - DiscountAmount - AdminFee.
type Quote struct {
	TenorDays      int32
	DiscountRate   decimal.Decimal
	DiscountAmount decimal.Decimal
	AdminFee       decimal.Decimal
	NetAmount      decimal.Decimal
	Snapshot       domain.PricingSnapshot
}

type Engine struct {
	vipAdjustment decimal.Decimal
	adminFeeFlat  decimal.Decimal
	adminFeePct   decimal.Decimal
}

// NewEngine builds an engine from configured fee and adjustment parameters.
// vipAdjustment and adminFeePct are annualized / fractional rates, e.g. -0.005
// and 0.001.
func NewEngine(vipAdjustment, adminFeeFlat, adminFeePct decimal.Decimal) *Engine {
	return &Engine{
		vipAdjustment: vipAdjustment,
		adminFeeFlat:  adminFeeFlat,
		adminFeePct:   adminFeePct,
	}
}

// Price computes a quote. Tenor is the whole number of days from AsOf to the
// due date; a tenor below one day is rejected rather than clamped.
func (e *Engine) Price(in QuoteInput) (*Quote, error) {
	if !in.Amount.IsPositive() {
		return nil, &domain.ValidationError{Field: "amount", Reason: "must be positive"}
	}

	tenorDays := int32(in.DueDate.Sub(in.AsOf).Hours() / 24)
	if tenorDays <= 0 {
		return nil, domain.ErrInvalidTenor
	}

	rule, ok := matchRule(in.Rules, tenorDays, in.Amount)
	if !ok {
		return nil, domain.ErrNoPricingRule
	}

	rate := in.ReferenceRate.Add(rule.SpreadRate)
	vipApplied := in.SupplierGrade.IsVIP() || in.BuyerGrade.IsVIP()
	if vipApplied {
		rate = rate.Add(e.vipAdjustment)
	}

	tenor := decimal.NewFromInt32(tenorDays)
	discount := in.Amount.Mul(rate).Mul(tenor).Div(daysPerYear).Round(2)
	adminFee := e.adminFeeFlat.Add(in.Amount.Mul(e.adminFeePct)).Round(2)
	net := in.Amount.Sub(discount).Sub(adminFee)
	if !net.IsPositive() {
		return nil, domain.ErrNegativeNetAmount
	}

	return &Quote{
		TenorDays:      tenorDays,
		DiscountRate:   rate,
		DiscountAmount: discount,
		AdminFee:       adminFee,
		NetAmount:      net,
		Snapshot: domain.PricingSnapshot{
			Amount:        in.Amount,
			DueDate:       in.DueDate,
			PricedAt:      in.AsOf,
			SupplierGrade: in.SupplierGrade,
			BuyerGrade:    in.BuyerGrade,
			ReferenceRate: in.ReferenceRate,
			RuleID:        rule.ID,
			SpreadRate:    rule.SpreadRate,
			VIPAdjustment: e.vipAdjustment,
			VIPApplied:    vipApplied,
		},
	}, nil
}

// matchRule returns the first active rule covering the tenor and amount.
// Rules are expected to be non-overlapping; ordering is the rule table's.
func matchRule(rules []domain.PricingRule, tenorDays int32, amount decimal.Decimal) (domain.PricingRule, bool) {
	for _, rule := range rules {
		if rule.Active && rule.Matches(tenorDays, amount) {
			return rule, true
		}
	}
	return domain.PricingRule{}, false
}
