package domain

import "github.com/shopspring/decimal"

// PricingRule maps a tenor range and an amount range to the spread charged on
// top of the reference rate. Ranges are inclusive.
type PricingRule struct {
	ID           int32           `json:"id"`
	MinTenorDays int32           `json:"min_tenor_days"`
	MaxTenorDays int32           `json:"max_tenor_days"`
	MinAmount    decimal.Decimal `json:"min_amount"`
	MaxAmount    decimal.Decimal `json:"max_amount"`
	SpreadRate   decimal.Decimal `json:"spread_rate"`
	Active       bool            `json:"active"`
}

// Matches reports whether the rule covers the given tenor and amount.
func (r PricingRule) Matches(tenorDays int32, amount decimal.Decimal) bool {
	if tenorDays < r.MinTenorDays || tenorDays > r.MaxTenorDays {
		return false
	}
	return amount.GreaterThanOrEqual(r.MinAmount) && amount.LessThanOrEqual(r.MaxAmount)
}
