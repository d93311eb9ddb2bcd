package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"invofin-backend/internal/domain"
	"invofin-backend/internal/repository"
)

type repaymentRepository struct {
	db DBTX
}

func NewRepaymentRepository(db DBTX) repository.RepaymentRepository {
	return &repaymentRepository{db: db}
}

const expectedColumns = `id, invoice_id, buyer_id, amount, due_date, status, created_at`

func (r *repaymentRepository) CreateExpected(ctx context.Context, e *domain.ExpectedRepayment) error {
	query := `INSERT INTO expected_repayments (invoice_id, buyer_id, amount, due_date, status, created_at)
	          VALUES ($1, $2, $3, $4, $5, NOW()) RETURNING id, created_at`
	return r.db.QueryRowContext(ctx, query, e.InvoiceID, e.BuyerID, e.Amount, e.DueDate, e.Status).
		Scan(&e.ID, &e.CreatedAt)
}

func (r *repaymentRepository) GetExpectedByID(ctx context.Context, id int32) (*domain.ExpectedRepayment, error) {
	query := `SELECT ` + expectedColumns + ` FROM expected_repayments WHERE id = $1`
	var e domain.ExpectedRepayment
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&e.ID, &e.InvoiceID, &e.BuyerID, &e.Amount, &e.DueDate, &e.Status, &e.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// ListUnsettledByBuyer is the allocation order source: oldest due date first,
// ties broken by id. FOR UPDATE keeps two concurrent payments from the same
// buyer from allocating against the same obligation.
func (r *repaymentRepository) ListUnsettledByBuyer(ctx context.Context, buyerID int32) ([]domain.ExpectedRepayment, error) {
	query := `SELECT ` + expectedColumns + ` FROM expected_repayments
	          WHERE buyer_id = $1 AND status <> $2
	          ORDER BY due_date ASC, id ASC FOR UPDATE`
	rows, err := r.db.QueryContext(ctx, query, buyerID, domain.ExpectedRepaymentStatusSettled)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.scanExpectedRows(rows)
}

func (r *repaymentRepository) ListExpectedByInvoice(ctx context.Context, invoiceID int32) ([]domain.ExpectedRepayment, error) {
	query := `SELECT ` + expectedColumns + ` FROM expected_repayments WHERE invoice_id = $1 ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, invoiceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.scanExpectedRows(rows)
}

func (r *repaymentRepository) UpdateExpectedStatus(ctx context.Context, id int32, status domain.ExpectedRepaymentStatus) error {
	result, err := r.db.ExecContext(ctx, `UPDATE expected_repayments SET status = $1 WHERE id = $2`, status, id)
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

func (r *repaymentRepository) ListOverdueCandidates(ctx context.Context, asOf time.Time) ([]domain.ExpectedRepayment, error) {
	query := `SELECT ` + expectedColumns + ` FROM expected_repayments
	          WHERE due_date < $1 AND status IN ($2, $3)
	          ORDER BY due_date ASC, id ASC`
	rows, err := r.db.QueryContext(ctx, query, asOf,
		domain.ExpectedRepaymentStatusOpen, domain.ExpectedRepaymentStatusPartial)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.scanExpectedRows(rows)
}

func (r *repaymentRepository) scanExpectedRows(rows *sql.Rows) ([]domain.ExpectedRepayment, error) {
	var expected []domain.ExpectedRepayment
	for rows.Next() {
		var e domain.ExpectedRepayment
		if err := rows.Scan(&e.ID, &e.InvoiceID, &e.BuyerID, &e.Amount, &e.DueDate, &e.Status, &e.CreatedAt); err != nil {
			return nil, err
		}
		expected = append(expected, e)
	}
	return expected, rows.Err()
}

const receivedColumns = `id, buyer_id, amount, received_date, bank_reference, allocated_amount, unallocated_amount, created_at`

func (r *repaymentRepository) CreateReceived(ctx context.Context, rec *domain.ReceivedRepayment) error {
	query := `INSERT INTO received_repayments (buyer_id, amount, received_date, bank_reference, allocated_amount, unallocated_amount, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, NOW()) RETURNING id, created_at`
	return r.db.QueryRowContext(ctx, query,
		rec.BuyerID, rec.Amount, rec.ReceivedDate, rec.BankReference, rec.AllocatedAmount, rec.UnallocatedAmount,
	).Scan(&rec.ID, &rec.CreatedAt)
}

func (r *repaymentRepository) GetReceivedByID(ctx context.Context, id int32) (*domain.ReceivedRepayment, error) {
	query := `SELECT ` + receivedColumns + ` FROM received_repayments WHERE id = $1`
	return r.scanReceived(r.db.QueryRowContext(ctx, query, id))
}

func (r *repaymentRepository) GetReceivedByIDForUpdate(ctx context.Context, id int32) (*domain.ReceivedRepayment, error) {
	query := `SELECT ` + receivedColumns + ` FROM received_repayments WHERE id = $1 FOR UPDATE`
	return r.scanReceived(r.db.QueryRowContext(ctx, query, id))
}

func (r *repaymentRepository) scanReceived(row *sql.Row) (*domain.ReceivedRepayment, error) {
	var rec domain.ReceivedRepayment
	err := row.Scan(&rec.ID, &rec.BuyerID, &rec.Amount, &rec.ReceivedDate, &rec.BankReference,
		&rec.AllocatedAmount, &rec.UnallocatedAmount, &rec.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *repaymentRepository) UpdateReceivedAmounts(ctx context.Context, id int32, allocated, unallocated decimal.Decimal) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE received_repayments SET allocated_amount = $1, unallocated_amount = $2 WHERE id = $3`,
		allocated, unallocated, id)
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

func (r *repaymentRepository) CreateAllocation(ctx context.Context, a *domain.RepaymentAllocation) error {
	query := `INSERT INTO repayment_allocations (received_id, expected_id, amount, created_at)
	          VALUES ($1, $2, $3, NOW()) RETURNING id, created_at`
	return r.db.QueryRowContext(ctx, query, a.ReceivedID, a.ExpectedID, a.Amount).Scan(&a.ID, &a.CreatedAt)
}

func (r *repaymentRepository) SumAllocationsByExpected(ctx context.Context, expectedID int32) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM repayment_allocations WHERE expected_id = $1`, expectedID).Scan(&sum)
	if err != nil {
		return decimal.Zero, err
	}
	return sum, nil
}

func (r *repaymentRepository) ListAllocationsByReceived(ctx context.Context, receivedID int32) ([]domain.RepaymentAllocation, error) {
	query := `SELECT id, received_id, expected_id, amount, created_at
	          FROM repayment_allocations WHERE received_id = $1 ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, receivedID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var allocations []domain.RepaymentAllocation
	for rows.Next() {
		var a domain.RepaymentAllocation
		if err := rows.Scan(&a.ID, &a.ReceivedID, &a.ExpectedID, &a.Amount, &a.CreatedAt); err != nil {
			return nil, err
		}
		allocations = append(allocations, a)
	}
	return allocations, rows.Err()
}
