package service

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invofin-backend/internal/domain"
	"invofin-backend/internal/security"
)

func seedDeal(store *fakeStore, netAmount, charges string, status domain.DealStatus) domain.Transaction {
	return store.seedTransaction(domain.Transaction{
		Number: "TXN-1", Customer: "MegaCorp",
		NetAmount:           dec(netAmount),
		ProfitMarginPct:     dec("12"),
		DisbursementCharges: dec(charges),
		TenorDays:           90,
		Status:              status,
	})
}

func seedInvestmentFor(store *fakeStore, txnID, investorID int32, amount string) {
	store.seedInvestment(domain.Investment{
		InvestorID: investorID, Amount: dec(amount), InvestedOn: store.clock,
		TransactionID: &txnID, Status: domain.InvestmentStatusActive,
	})
}

func TestAllocateProfit(t *testing.T) {
	ctx := actorCtx(21, security.RoleTreasury)

	t.Run("pro rata split", func(t *testing.T) {
		store := newFakeStore()
		svc := NewProfitService(store, store.Deals(), ProfitFormulaNetMinusCharges)
		txn := seedDeal(store, "9300", "0", domain.DealStatusOngoing)
		seedInvestmentFor(store, txn.ID, 1, "6000")
		seedInvestmentFor(store, txn.ID, 2, "4000")

		allocations, err := svc.AllocateProfit(ctx, txn.ID)
		require.NoError(t, err)
		require.Len(t, allocations, 2)

		assert.True(t, allocations[0].Weightage.Equal(dec("0.6")), "weightage %s", allocations[0].Weightage)
		assert.True(t, allocations[0].IndividualProfit.Equal(dec("5580.00")), "profit %s", allocations[0].IndividualProfit)
		assert.True(t, allocations[1].Weightage.Equal(dec("0.4")))
		assert.True(t, allocations[1].IndividualProfit.Equal(dec("3720.00")))
		assert.Equal(t, domain.ProfitStatusPending, allocations[0].DealStatus)
	})

	t.Run("shares sum exactly to net profit", func(t *testing.T) {
		store := newFakeStore()
		svc := NewProfitService(store, store.Deals(), ProfitFormulaNetMinusCharges)
		txn := seedDeal(store, "100", "0", domain.DealStatusOngoing)
		seedInvestmentFor(store, txn.ID, 1, "1000")
		seedInvestmentFor(store, txn.ID, 2, "1000")
		seedInvestmentFor(store, txn.ID, 3, "1000")

		allocations, err := svc.AllocateProfit(ctx, txn.ID)
		require.NoError(t, err)
		require.Len(t, allocations, 3)

		total := decimal.Zero
		for _, a := range allocations {
			total = total.Add(a.IndividualProfit)
		}
		assert.True(t, total.Equal(dec("100")), "total %s", total)
	})

	t.Run("charges and approved expenses reduce profit", func(t *testing.T) {
		store := newFakeStore()
		svc := NewProfitService(store, store.Deals(), ProfitFormulaNetMinusCharges)
		txn := seedDeal(store, "10000", "300", domain.DealStatusOngoing)
		seedInvestmentFor(store, txn.ID, 1, "5000")
		store.seedExpense(domain.Expense{TransactionID: txn.ID, Description: "legal", Amount: dec("200"), Status: domain.ExpenseStatusApproved})
		store.seedExpense(domain.Expense{TransactionID: txn.ID, Description: "courier", Amount: dec("999"), Status: domain.ExpenseStatusPending})

		allocations, err := svc.AllocateProfit(ctx, txn.ID)
		require.NoError(t, err)
		require.Len(t, allocations, 1)
		// 10000 - 300 - 200; the pending expense does not count
		assert.True(t, allocations[0].IndividualProfit.Equal(dec("9500.00")), "profit %s", allocations[0].IndividualProfit)
	})

	t.Run("margin based formula", func(t *testing.T) {
		store := newFakeStore()
		svc := NewProfitService(store, store.Deals(), ProfitFormulaMarginBased)
		txn := seedDeal(store, "10000", "100", domain.DealStatusOngoing)
		seedInvestmentFor(store, txn.ID, 1, "5000")

		allocations, err := svc.AllocateProfit(ctx, txn.ID)
		require.NoError(t, err)
		// 10000 * 12% - 100
		assert.True(t, allocations[0].IndividualProfit.Equal(dec("1100.00")), "profit %s", allocations[0].IndividualProfit)
	})

	t.Run("multiple investments by one investor collapse", func(t *testing.T) {
		store := newFakeStore()
		svc := NewProfitService(store, store.Deals(), ProfitFormulaNetMinusCharges)
		txn := seedDeal(store, "1000", "0", domain.DealStatusOngoing)
		seedInvestmentFor(store, txn.ID, 1, "3000")
		seedInvestmentFor(store, txn.ID, 1, "3000")
		seedInvestmentFor(store, txn.ID, 2, "4000")

		allocations, err := svc.AllocateProfit(ctx, txn.ID)
		require.NoError(t, err)
		require.Len(t, allocations, 2)
		assert.True(t, allocations[0].Weightage.Equal(dec("0.6")))
	})

	t.Run("rerun replaces the previous allocation set", func(t *testing.T) {
		store := newFakeStore()
		svc := NewProfitService(store, store.Deals(), ProfitFormulaNetMinusCharges)
		txn := seedDeal(store, "9300", "0", domain.DealStatusOngoing)
		seedInvestmentFor(store, txn.ID, 1, "6000")
		seedInvestmentFor(store, txn.ID, 2, "4000")

		_, err := svc.AllocateProfit(ctx, txn.ID)
		require.NoError(t, err)
		_, err = svc.AllocateProfit(ctx, txn.ID)
		require.NoError(t, err)

		stored, err := svc.ListAllocations(ctx, txn.ID)
		require.NoError(t, err)
		assert.Len(t, stored, 2)
	})

	t.Run("ended deal realizes the profit", func(t *testing.T) {
		store := newFakeStore()
		svc := NewProfitService(store, store.Deals(), ProfitFormulaNetMinusCharges)
		txn := seedDeal(store, "9300", "0", domain.DealStatusEnded)
		seedInvestmentFor(store, txn.ID, 1, "6000")

		allocations, err := svc.AllocateProfit(ctx, txn.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.ProfitStatusRealized, allocations[0].DealStatus)
	})

	t.Run("no active investments", func(t *testing.T) {
		store := newFakeStore()
		svc := NewProfitService(store, store.Deals(), ProfitFormulaNetMinusCharges)
		txn := seedDeal(store, "9300", "0", domain.DealStatusOngoing)
		withdrawnID := txn.ID
		store.seedInvestment(domain.Investment{
			InvestorID: 1, Amount: dec("1000"), InvestedOn: store.clock,
			TransactionID: &withdrawnID, Status: domain.InvestmentStatusWithdrawn,
		})

		_, err := svc.AllocateProfit(ctx, txn.ID)
		assert.ErrorIs(t, err, domain.ErrNoActiveInvestments)
	})
}
