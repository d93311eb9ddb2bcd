package service

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"invofin-backend/internal/domain"
	"invofin-backend/internal/logger"
	"invofin-backend/internal/repository"
)

type dealService struct {
	store    repository.TxRunner
	dealRepo repository.DealRepository
	now      func() time.Time
}

func NewDealService(store repository.TxRunner, dealRepo repository.DealRepository) DealService {
	return &dealService{
		store:    store,
		dealRepo: dealRepo,
		now:      time.Now,
	}
}

func (s *dealService) CreateTransaction(ctx context.Context, in CreateTransactionInput) (*domain.Transaction, error) {
	logger.EnterMethod("DealService.CreateTransaction", "number", in.Number)

	if strings.TrimSpace(in.Number) == "" {
		return nil, &domain.ValidationError{Field: "number", Reason: "must not be empty"}
	}
	if !in.NetAmount.IsPositive() {
		return nil, &domain.ValidationError{Field: "net_amount", Reason: "must be positive"}
	}
	if in.TenorDays <= 0 {
		return nil, &domain.ValidationError{Field: "tenor_days", Reason: "must be at least one day"}
	}

	var txn *domain.Transaction
	err := s.store.WithinTx(ctx, func(tx repository.Tx) error {
		txn = &domain.Transaction{
			Number:              in.Number,
			Customer:            in.Customer,
			NetAmount:           in.NetAmount,
			ProfitMarginPct:     in.ProfitMarginPct,
			DisbursementCharges: in.DisbursementCharges,
			TenorDays:           in.TenorDays,
			Status:              domain.DealStatusNotDisbursed,
		}
		if err := tx.Deals().CreateTransaction(ctx, txn); err != nil {
			return err
		}
		return recordAudit(ctx, tx, domain.EntityTransaction, txn.ID, "transaction.created",
			domain.NewDiff().
				Change("status", nil, txn.Status).
				Change("net_amount", nil, txn.NetAmount.String()))
	})
	if err != nil {
		logger.ExitMethodWithError("DealService.CreateTransaction", err)
		return nil, err
	}

	logger.ExitMethod("DealService.CreateTransaction", "transaction_id", txn.ID)
	return txn, nil
}

func (s *dealService) GetTransaction(ctx context.Context, transactionID int32) (*domain.Transaction, error) {
	return s.dealRepo.GetTransactionByID(ctx, transactionID)
}

func (s *dealService) DisburseTransaction(ctx context.Context, transactionID int32) (*domain.Transaction, error) {
	logger.EnterMethod("DealService.DisburseTransaction", "transaction_id", transactionID)
	txn, err := s.transition(ctx, transactionID, domain.DealStatusOngoing, "transaction.disbursed")
	if err != nil {
		logger.ExitMethodWithError("DealService.DisburseTransaction", err)
		return nil, err
	}
	logger.ExitMethod("DealService.DisburseTransaction", "transaction_id", transactionID)
	return txn, nil
}

func (s *dealService) EndTransaction(ctx context.Context, transactionID int32) (*domain.Transaction, error) {
	logger.EnterMethod("DealService.EndTransaction", "transaction_id", transactionID)
	txn, err := s.transition(ctx, transactionID, domain.DealStatusEnded, "transaction.ended")
	if err != nil {
		logger.ExitMethodWithError("DealService.EndTransaction", err)
		return nil, err
	}
	logger.ExitMethod("DealService.EndTransaction", "transaction_id", transactionID)
	return txn, nil
}

func (s *dealService) transition(ctx context.Context, transactionID int32, next domain.DealStatus, action string) (*domain.Transaction, error) {
	var txn *domain.Transaction
	err := s.store.WithinTx(ctx, func(tx repository.Tx) error {
		var err error
		txn, err = tx.Deals().GetTransactionByIDForUpdate(ctx, transactionID)
		if err != nil {
			return err
		}
		if err := domain.DealLifecycle.Transition(txn.Status, next); err != nil {
			return err
		}

		prev := txn.Status
		txn.Status = next
		if err := tx.Deals().UpdateTransactionStatus(ctx, transactionID, next); err != nil {
			return err
		}
		return recordAudit(ctx, tx, domain.EntityTransaction, transactionID, action,
			domain.NewDiff().Change("status", prev, next))
	})
	if err != nil {
		return nil, err
	}
	return txn, nil
}

func (s *dealService) AddInvestment(ctx context.Context, transactionID, investorID int32, amount decimal.Decimal) (*domain.Investment, error) {
	logger.EnterMethod("DealService.AddInvestment", "transaction_id", transactionID, "investor_id", investorID)

	if !amount.IsPositive() {
		return nil, &domain.ValidationError{Field: "amount", Reason: "must be positive"}
	}

	var investment *domain.Investment
	err := s.store.WithinTx(ctx, func(tx repository.Tx) error {
		txn, err := tx.Deals().GetTransactionByIDForUpdate(ctx, transactionID)
		if err != nil {
			return err
		}
		// Closed deals cannot take new money.
		if txn.Status == domain.DealStatusEnded {
			return &domain.TransitionError{Entity: "transaction", From: string(txn.Status), To: "funded"}
		}

		txnID := transactionID
		investment = &domain.Investment{
			InvestorID:    investorID,
			Amount:        amount,
			InvestedOn:    s.now(),
			TransactionID: &txnID,
			Status:        domain.InvestmentStatusActive,
		}
		if err := tx.Deals().CreateInvestment(ctx, investment); err != nil {
			return err
		}
		return recordAudit(ctx, tx, domain.EntityTransaction, transactionID, "investment.added",
			domain.NewDiff().
				Change("investor_id", nil, investorID).
				Change("amount", nil, amount.String()))
	})
	if err != nil {
		logger.ExitMethodWithError("DealService.AddInvestment", err)
		return nil, err
	}

	logger.ExitMethod("DealService.AddInvestment", "investment_id", investment.ID)
	return investment, nil
}

func (s *dealService) AddExpense(ctx context.Context, transactionID int32, description string, amount decimal.Decimal) (*domain.Expense, error) {
	logger.EnterMethod("DealService.AddExpense", "transaction_id", transactionID)

	if strings.TrimSpace(description) == "" {
		return nil, &domain.ValidationError{Field: "description", Reason: "must not be empty"}
	}
	if !amount.IsPositive() {
		return nil, &domain.ValidationError{Field: "amount", Reason: "must be positive"}
	}

	var expense *domain.Expense
	err := s.store.WithinTx(ctx, func(tx repository.Tx) error {
		if _, err := tx.Deals().GetTransactionByID(ctx, transactionID); err != nil {
			return err
		}

		expense = &domain.Expense{
			TransactionID: transactionID,
			Description:   description,
			Amount:        amount,
			Status:        domain.ExpenseStatusPending,
		}
		if err := tx.Deals().CreateExpense(ctx, expense); err != nil {
			return err
		}
		return recordAudit(ctx, tx, domain.EntityTransaction, transactionID, "expense.added",
			domain.NewDiff().
				Change("description", nil, description).
				Change("amount", nil, amount.String()))
	})
	if err != nil {
		logger.ExitMethodWithError("DealService.AddExpense", err)
		return nil, err
	}

	logger.ExitMethod("DealService.AddExpense", "expense_id", expense.ID)
	return expense, nil
}
