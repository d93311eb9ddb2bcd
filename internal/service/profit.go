package service

import (
	"context"

	"github.com/shopspring/decimal"

	"invofin-backend/internal/domain"
	"invofin-backend/internal/logger"
	"invofin-backend/internal/repository"
)

// Profit formula names accepted in configuration.
const (
	ProfitFormulaNetMinusCharges = "net_minus_charges"
	ProfitFormulaMarginBased     = "margin_based"
)

type profitService struct {
	store    repository.TxRunner
	dealRepo repository.DealRepository
	formula  string
}

func NewProfitService(store repository.TxRunner, dealRepo repository.DealRepository, formula string) ProfitService {
	if formula == "" {
		formula = ProfitFormulaNetMinusCharges
	}
	return &profitService{store: store, dealRepo: dealRepo, formula: formula}
}

// AllocateProfit splits the deal's net profit pro rata by invested amount.
// Weightages round to four decimals, shares to two; the cent-level remainder
// goes to the largest weightage so the shares sum exactly to the profit.
// Rerunning replaces the previous allocation set.
func (s *profitService) AllocateProfit(ctx context.Context, transactionID int32) ([]domain.ProfitAllocation, error) {
	logger.EnterMethod("ProfitService.AllocateProfit", "transaction_id", transactionID)

	var allocations []domain.ProfitAllocation
	err := s.store.WithinTx(ctx, func(tx repository.Tx) error {
		txn, err := tx.Deals().GetTransactionByIDForUpdate(ctx, transactionID)
		if err != nil {
			return err
		}

		investments, err := tx.Deals().ListActiveInvestments(ctx, transactionID)
		if err != nil {
			return err
		}
		if len(investments) == 0 {
			return domain.ErrNoActiveInvestments
		}

		expenses, err := tx.Deals().SumApprovedExpenses(ctx, transactionID)
		if err != nil {
			return err
		}
		netProfit := s.netProfit(txn, expenses).Round(2)

		// Multiple investments from one investor collapse into a single
		// allocation row. Order of first appearance is preserved (ascending
		// investment id).
		var investorOrder []int32
		perInvestor := make(map[int32]decimal.Decimal)
		pool := decimal.Zero
		for _, inv := range investments {
			if _, seen := perInvestor[inv.InvestorID]; !seen {
				investorOrder = append(investorOrder, inv.InvestorID)
			}
			perInvestor[inv.InvestorID] = perInvestor[inv.InvestorID].Add(inv.Amount)
			pool = pool.Add(inv.Amount)
		}
		if !pool.IsPositive() {
			return &domain.InvariantError{Op: "AllocateProfit", Err: domain.ErrNoActiveInvestments}
		}

		status := domain.ProfitStatusPending
		if txn.Status == domain.DealStatusEnded {
			status = domain.ProfitStatusRealized
		}

		allocations = allocations[:0]
		distributed := decimal.Zero
		largest := 0
		for i, investorID := range investorOrder {
			weightage := perInvestor[investorID].Div(pool).Round(4)
			share := netProfit.Mul(weightage).Round(2)
			allocations = append(allocations, domain.ProfitAllocation{
				TransactionID:    transactionID,
				InvestorID:       investorID,
				IndividualProfit: share,
				Weightage:        weightage,
				DealStatus:       status,
			})
			distributed = distributed.Add(share)
			if weightage.GreaterThan(allocations[largest].Weightage) {
				largest = i
			}
		}

		remainder := netProfit.Sub(distributed)
		if !remainder.IsZero() {
			allocations[largest].IndividualProfit = allocations[largest].IndividualProfit.Add(remainder)
		}

		if err := tx.Deals().ReplaceProfitAllocations(ctx, transactionID, allocations); err != nil {
			return err
		}
		return recordAudit(ctx, tx, domain.EntityTransaction, transactionID, "profit.allocated",
			domain.NewDiff().
				Change("net_profit", nil, netProfit.String()).
				Change("investors", nil, len(allocations)))
	})
	if err != nil {
		logger.ExitMethodWithError("ProfitService.AllocateProfit", err)
		return nil, err
	}

	logger.ExitMethod("ProfitService.AllocateProfit", "transaction_id", transactionID, "allocations", len(allocations))
	return allocations, nil
}

func (s *profitService) netProfit(txn *domain.Transaction, approvedExpenses decimal.Decimal) decimal.Decimal {
	switch s.formula {
	case ProfitFormulaMarginBased:
		gross := txn.NetAmount.Mul(txn.ProfitMarginPct).Div(decimal.NewFromInt(100))
		return gross.Sub(txn.DisbursementCharges).Sub(approvedExpenses)
	default:
		return txn.NetAmount.Sub(txn.DisbursementCharges).Sub(approvedExpenses)
	}
}

func (s *profitService) ListAllocations(ctx context.Context, transactionID int32) ([]domain.ProfitAllocation, error) {
	return s.dealRepo.ListProfitAllocations(ctx, transactionID)
}
