package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/shopspring/decimal"

	"invofin-backend/internal/domain"
	"invofin-backend/internal/repository"
)

type dealRepository struct {
	db DBTX
}

func NewDealRepository(db DBTX) repository.DealRepository {
	return &dealRepository{db: db}
}

const transactionColumns = `id, number, customer, net_amount, profit_margin_pct, disbursement_charges, tenor_days, status, created_at`

func (r *dealRepository) CreateTransaction(ctx context.Context, t *domain.Transaction) error {
	query := `INSERT INTO transactions (number, customer, net_amount, profit_margin_pct, disbursement_charges, tenor_days, status, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, NOW()) RETURNING id, created_at`
	return r.db.QueryRowContext(ctx, query,
		t.Number, t.Customer, t.NetAmount, t.ProfitMarginPct, t.DisbursementCharges, t.TenorDays, t.Status,
	).Scan(&t.ID, &t.CreatedAt)
}

func (r *dealRepository) GetTransactionByID(ctx context.Context, id int32) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`
	return r.scanTransaction(r.db.QueryRowContext(ctx, query, id))
}

func (r *dealRepository) GetTransactionByIDForUpdate(ctx context.Context, id int32) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1 FOR UPDATE`
	return r.scanTransaction(r.db.QueryRowContext(ctx, query, id))
}

func (r *dealRepository) scanTransaction(row *sql.Row) (*domain.Transaction, error) {
	var t domain.Transaction
	err := row.Scan(&t.ID, &t.Number, &t.Customer, &t.NetAmount, &t.ProfitMarginPct,
		&t.DisbursementCharges, &t.TenorDays, &t.Status, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *dealRepository) UpdateTransactionStatus(ctx context.Context, id int32, status domain.DealStatus) error {
	result, err := r.db.ExecContext(ctx, `UPDATE transactions SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *dealRepository) CreateInvestment(ctx context.Context, inv *domain.Investment) error {
	query := `INSERT INTO investments (investor_id, amount, invested_on, transaction_id, status)
	          VALUES ($1, $2, $3, $4, $5) RETURNING id`
	return r.db.QueryRowContext(ctx, query,
		inv.InvestorID, inv.Amount, inv.InvestedOn, inv.TransactionID, inv.Status,
	).Scan(&inv.ID)
}

func (r *dealRepository) ListActiveInvestments(ctx context.Context, transactionID int32) ([]domain.Investment, error) {
	query := `SELECT id, investor_id, amount, invested_on, transaction_id, status
	          FROM investments WHERE transaction_id = $1 AND status = $2 ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, transactionID, domain.InvestmentStatusActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var investments []domain.Investment
	for rows.Next() {
		var inv domain.Investment
		if err := rows.Scan(&inv.ID, &inv.InvestorID, &inv.Amount, &inv.InvestedOn, &inv.TransactionID, &inv.Status); err != nil {
			return nil, err
		}
		investments = append(investments, inv)
	}
	return investments, rows.Err()
}

func (r *dealRepository) CreateExpense(ctx context.Context, e *domain.Expense) error {
	query := `INSERT INTO expenses (transaction_id, description, amount, status, created_at)
	          VALUES ($1, $2, $3, $4, NOW()) RETURNING id, created_at`
	return r.db.QueryRowContext(ctx, query, e.TransactionID, e.Description, e.Amount, e.Status).
		Scan(&e.ID, &e.CreatedAt)
}

func (r *dealRepository) SumApprovedExpenses(ctx context.Context, transactionID int32) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM expenses WHERE transaction_id = $1 AND status = $2`,
		transactionID, domain.ExpenseStatusApproved).Scan(&sum)
	if err != nil {
		return decimal.Zero, err
	}
	return sum, nil
}

// ReplaceProfitAllocations rewrites the allocation set in one shot so that
// re-running the allocation never leaves stale rows behind.
func (r *dealRepository) ReplaceProfitAllocations(ctx context.Context, transactionID int32, rows []domain.ProfitAllocation) error {
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM profit_allocations WHERE transaction_id = $1`, transactionID); err != nil {
		return err
	}
	query := `INSERT INTO profit_allocations (transaction_id, investor_id, individual_profit, weightage, deal_status, allocated_at)
	          VALUES ($1, $2, $3, $4, $5, NOW()) RETURNING id, allocated_at`
	for i := range rows {
		row := &rows[i]
		err := r.db.QueryRowContext(ctx, query,
			transactionID, row.InvestorID, row.IndividualProfit, row.Weightage, row.DealStatus,
		).Scan(&row.ID, &row.AllocatedAt)
		if err != nil {
			return err
		}
		row.TransactionID = transactionID
	}
	return nil
}

func (r *dealRepository) ListProfitAllocations(ctx context.Context, transactionID int32) ([]domain.ProfitAllocation, error) {
	query := `SELECT id, transaction_id, investor_id, individual_profit, weightage, deal_status, allocated_at
	          FROM profit_allocations WHERE transaction_id = $1 ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, transactionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var allocations []domain.ProfitAllocation
	for rows.Next() {
		var a domain.ProfitAllocation
		if err := rows.Scan(&a.ID, &a.TransactionID, &a.InvestorID, &a.IndividualProfit, &a.Weightage, &a.DealStatus, &a.AllocatedAt); err != nil {
			return nil, err
		}
		allocations = append(allocations, a)
	}
	return allocations, rows.Err()
}
