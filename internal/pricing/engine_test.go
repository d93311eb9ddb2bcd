package pricing

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invofin-backend/internal/domain"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func testRules() []domain.PricingRule {
	return []domain.PricingRule{
		{ID: 1, MinTenorDays: 1, MaxTenorDays: 60, MinAmount: dec("1000"), MaxAmount: dec("50000"), SpreadRate: dec("0.015"), Active: true},
		{ID: 2, MinTenorDays: 61, MaxTenorDays: 180, MinAmount: dec("1000"), MaxAmount: dec("50000"), SpreadRate: dec("0.02"), Active: true},
		{ID: 3, MinTenorDays: 1, MaxTenorDays: 180, MinAmount: dec("50000.01"), MaxAmount: dec("500000"), SpreadRate: dec("0.01"), Active: true},
	}
}

func baseInput() QuoteInput {
	return QuoteInput{
		Amount:        dec("10000"),
		AsOf:          time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		DueDate:       time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
		SupplierGrade: domain.GradeB,
		BuyerGrade:    domain.GradeA,
		ReferenceRate: dec("0.08"),
		Rules:         testRules(),
	}
}

func TestPrice(t *testing.T) {
	engine := NewEngine(dec("-0.005"), dec("50"), dec("0.001"))

	t.Run("standard quote", func(t *testing.T) {
		quote, err := engine.Price(baseInput())
		require.NoError(t, err)

		assert.Equal(t, int32(90), quote.TenorDays)
		assert.True(t, quote.DiscountRate.Equal(dec("0.10")), "rate %s", quote.DiscountRate)
		// 10000 * 0.10 * 90/360
		assert.True(t, quote.DiscountAmount.Equal(dec("250.00")), "discount %s", quote.DiscountAmount)
		// 50 flat + 0.001 * 10000
		assert.True(t, quote.AdminFee.Equal(dec("60.00")), "fee %s", quote.AdminFee)
		assert.True(t, quote.NetAmount.Equal(dec("9690.00")), "net %s", quote.NetAmount)
		assert.Equal(t, int32(2), quote.Snapshot.RuleID)
		assert.False(t, quote.Snapshot.VIPApplied)
	})

	t.Run("net amount identity holds", func(t *testing.T) {
		quote, err := engine.Price(baseInput())
		require.NoError(t, err)
		assert.True(t, quote.NetAmount.Equal(quote.Snapshot.Amount.Sub(quote.DiscountAmount).Sub(quote.AdminFee)))
	})

	t.Run("vip supplier lowers the rate", func(t *testing.T) {
		in := baseInput()
		in.SupplierGrade = domain.GradeVIP
		quote, err := engine.Price(in)
		require.NoError(t, err)

		assert.True(t, quote.DiscountRate.Equal(dec("0.095")), "rate %s", quote.DiscountRate)
		assert.True(t, quote.DiscountAmount.Equal(dec("237.50")), "discount %s", quote.DiscountAmount)
		assert.True(t, quote.NetAmount.Equal(dec("9702.50")), "net %s", quote.NetAmount)
		assert.True(t, quote.Snapshot.VIPApplied)
	})

	t.Run("vip buyer also triggers the adjustment", func(t *testing.T) {
		in := baseInput()
		in.BuyerGrade = domain.GradeVIP
		quote, err := engine.Price(in)
		require.NoError(t, err)
		assert.True(t, quote.Snapshot.VIPApplied)
	})

	t.Run("deterministic for equal inputs", func(t *testing.T) {
		first, err := engine.Price(baseInput())
		require.NoError(t, err)
		second, err := engine.Price(baseInput())
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})

	t.Run("longer tenor costs more within a rule band", func(t *testing.T) {
		short := baseInput()
		short.DueDate = short.AsOf.AddDate(0, 0, 90)
		long := baseInput()
		long.DueDate = long.AsOf.AddDate(0, 0, 120)

		shortQuote, err := engine.Price(short)
		require.NoError(t, err)
		longQuote, err := engine.Price(long)
		require.NoError(t, err)

		assert.True(t, longQuote.DiscountAmount.GreaterThan(shortQuote.DiscountAmount))
		assert.True(t, longQuote.NetAmount.LessThan(shortQuote.NetAmount))
	})
}

func TestPriceErrors(t *testing.T) {
	engine := NewEngine(dec("-0.005"), dec("50"), dec("0.001"))

	t.Run("due date in the past", func(t *testing.T) {
		in := baseInput()
		in.DueDate = in.AsOf.AddDate(0, 0, -1)
		_, err := engine.Price(in)
		assert.ErrorIs(t, err, domain.ErrInvalidTenor)
	})

	t.Run("due date same day", func(t *testing.T) {
		in := baseInput()
		in.DueDate = in.AsOf
		_, err := engine.Price(in)
		assert.ErrorIs(t, err, domain.ErrInvalidTenor)
	})

	t.Run("no matching rule", func(t *testing.T) {
		in := baseInput()
		in.Amount = dec("500")
		_, err := engine.Price(in)
		assert.ErrorIs(t, err, domain.ErrNoPricingRule)
	})

	t.Run("inactive rules never match", func(t *testing.T) {
		in := baseInput()
		for i := range in.Rules {
			in.Rules[i].Active = false
		}
		_, err := engine.Price(in)
		assert.ErrorIs(t, err, domain.ErrNoPricingRule)
	})

	t.Run("non-positive amount", func(t *testing.T) {
		in := baseInput()
		in.Amount = decimal.Zero
		_, err := engine.Price(in)
		assert.True(t, domain.IsValidation(err))
	})

	t.Run("discount swallowing the invoice", func(t *testing.T) {
		in := baseInput()
		in.ReferenceRate = dec("4.5")
		_, err := engine.Price(in)
		assert.ErrorIs(t, err, domain.ErrNegativeNetAmount)
	})
}
