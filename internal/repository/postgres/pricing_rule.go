package postgres

import (
	"context"

	"invofin-backend/internal/domain"
	"invofin-backend/internal/repository"
)

type pricingRuleRepository struct {
	db DBTX
}

func NewPricingRuleRepository(db DBTX) repository.PricingRuleRepository {
	return &pricingRuleRepository{db: db}
}

func (r *pricingRuleRepository) ListActive(ctx context.Context) ([]domain.PricingRule, error) {
	query := `SELECT id, min_tenor_days, max_tenor_days, min_amount, max_amount, spread_rate, active
	          FROM pricing_rules WHERE active = TRUE ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []domain.PricingRule
	for rows.Next() {
		var rule domain.PricingRule
		if err := rows.Scan(&rule.ID, &rule.MinTenorDays, &rule.MaxTenorDays,
			&rule.MinAmount, &rule.MaxAmount, &rule.SpreadRate, &rule.Active); err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}
