package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"invofin-backend/internal/domain"
	"invofin-backend/internal/repository"
)

type fundingRepository struct {
	db DBTX
}

func NewFundingRepository(db DBTX) repository.FundingRepository {
	return &fundingRepository{db: db}
}

const fundingColumns = `id, invoice_id, offer_id, batch_id, amount, status, funded_at, created_at`

func (r *fundingRepository) Create(ctx context.Context, f *domain.Funding) error {
	query := `INSERT INTO fundings (invoice_id, offer_id, amount, status, created_at)
	          VALUES ($1, $2, $3, $4, NOW()) RETURNING id, created_at`
	return r.db.QueryRowContext(ctx, query, f.InvoiceID, f.OfferID, f.Amount, f.Status).Scan(&f.ID, &f.CreatedAt)
}

func (r *fundingRepository) GetByID(ctx context.Context, id int32) (*domain.Funding, error) {
	query := `SELECT ` + fundingColumns + ` FROM fundings WHERE id = $1`
	var f domain.Funding
	err := r.db.QueryRowContext(ctx, query, id).Scan(&f.ID, &f.InvoiceID, &f.OfferID, &f.BatchID,
		&f.Amount, &f.Status, &f.FundedAt, &f.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *fundingRepository) Update(ctx context.Context, f *domain.Funding) error {
	query := `UPDATE fundings SET status = $1, batch_id = $2, funded_at = $3 WHERE id = $4`
	result, err := r.db.ExecContext(ctx, query, f.Status, f.BatchID, f.FundedAt, f.ID)
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

func (r *fundingRepository) ListQueuedUnbatched(ctx context.Context, limit int32) ([]domain.Funding, error) {
	query := `SELECT ` + fundingColumns + ` FROM fundings
	          WHERE status = $1 AND batch_id IS NULL
	          ORDER BY created_at DESC, id DESC LIMIT $2`
	rows, err := r.db.QueryContext(ctx, query, domain.FundingStatusQueued, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.scanMany(rows)
}

// ClaimForBatch is the batch-creation race guard: the status and batch_id
// predicates make the first writer win, and the caller compares the claimed
// count against what it selected.
func (r *fundingRepository) ClaimForBatch(ctx context.Context, fundingIDs []int32, batchID int32) (int64, error) {
	query := `UPDATE fundings SET status = $1, batch_id = $2
	          WHERE id = ANY($3) AND status = $4 AND batch_id IS NULL`
	result, err := r.db.ExecContext(ctx, query,
		domain.FundingStatusValidated, batchID, pq.Array(fundingIDs), domain.FundingStatusQueued)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *fundingRepository) ListByBatch(ctx context.Context, batchID int32) ([]domain.Funding, error) {
	query := `SELECT ` + fundingColumns + ` FROM fundings WHERE batch_id = $1 ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, batchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.scanMany(rows)
}

func (r *fundingRepository) scanMany(rows *sql.Rows) ([]domain.Funding, error) {
	var fundings []domain.Funding
	for rows.Next() {
		var f domain.Funding
		if err := rows.Scan(&f.ID, &f.InvoiceID, &f.OfferID, &f.BatchID, &f.Amount, &f.Status, &f.FundedAt, &f.CreatedAt); err != nil {
			return nil, err
		}
		fundings = append(fundings, f)
	}
	return fundings, rows.Err()
}

type fundingBatchRepository struct {
	db DBTX
}

func NewFundingBatchRepository(db DBTX) repository.FundingBatchRepository {
	return &fundingBatchRepository{db: db}
}

const batchColumns = `id, total_amount, status, created_by, approved_by, executed_by, executed_at, created_at`

func (r *fundingBatchRepository) Create(ctx context.Context, b *domain.FundingBatch) error {
	query := `INSERT INTO funding_batches (total_amount, status, created_by, created_at)
	          VALUES ($1, $2, $3, NOW()) RETURNING id, created_at`
	return r.db.QueryRowContext(ctx, query, b.TotalAmount, b.Status, b.CreatedBy).Scan(&b.ID, &b.CreatedAt)
}

func (r *fundingBatchRepository) GetByID(ctx context.Context, id int32) (*domain.FundingBatch, error) {
	query := `SELECT ` + batchColumns + ` FROM funding_batches WHERE id = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *fundingBatchRepository) GetByIDForUpdate(ctx context.Context, id int32) (*domain.FundingBatch, error) {
	query := `SELECT ` + batchColumns + ` FROM funding_batches WHERE id = $1 FOR UPDATE`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *fundingBatchRepository) scanOne(row *sql.Row) (*domain.FundingBatch, error) {
	var b domain.FundingBatch
	err := row.Scan(&b.ID, &b.TotalAmount, &b.Status, &b.CreatedBy, &b.ApprovedBy, &b.ExecutedBy, &b.ExecutedAt, &b.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *fundingBatchRepository) Update(ctx context.Context, b *domain.FundingBatch) error {
	query := `UPDATE funding_batches SET status = $1, approved_by = $2, executed_by = $3, executed_at = $4 WHERE id = $5`
	result, err := r.db.ExecContext(ctx, query, b.Status, b.ApprovedBy, b.ExecutedBy, b.ExecutedAt, b.ID)
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
