package postgres

import (
	"context"
	"database/sql"
	"errors"

	"invofin-backend/internal/domain"
	"invofin-backend/internal/repository"
)

type invoiceRepository struct {
	db DBTX
}

func NewInvoiceRepository(db DBTX) repository.InvoiceRepository {
	return &invoiceRepository{db: db}
}

const invoiceColumns = `id, number, supplier_id, buyer_id, amount, currency, due_date, status, assigned_to, priority, version, created_at, updated_at`

func (r *invoiceRepository) Create(ctx context.Context, inv *domain.Invoice) error {
	query := `INSERT INTO invoices (number, supplier_id, buyer_id, amount, currency, due_date, status, priority, version, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 1, NOW(), NOW()) RETURNING id, version, created_at, updated_at`
	return r.db.QueryRowContext(ctx, query,
		inv.Number, inv.SupplierID, inv.BuyerID, inv.Amount, inv.Currency, inv.DueDate, inv.Status, inv.Priority,
	).Scan(&inv.ID, &inv.Version, &inv.CreatedAt, &inv.UpdatedAt)
}

func (r *invoiceRepository) GetByID(ctx context.Context, id int32) (*domain.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE id = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *invoiceRepository) GetByIDForUpdate(ctx context.Context, id int32) (*domain.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE id = $1 FOR UPDATE`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *invoiceRepository) scanOne(row *sql.Row) (*domain.Invoice, error) {
	var inv domain.Invoice
	err := row.Scan(&inv.ID, &inv.Number, &inv.SupplierID, &inv.BuyerID, &inv.Amount, &inv.Currency,
		&inv.DueDate, &inv.Status, &inv.AssignedTo, &inv.Priority, &inv.Version, &inv.CreatedAt, &inv.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

// Update writes only if the caller still holds the current version; the
// version predicate makes concurrent writers fail with ErrStaleVersion
// instead of overwriting each other.
func (r *invoiceRepository) Update(ctx context.Context, inv *domain.Invoice) error {
	query := `UPDATE invoices
	          SET status = $1, assigned_to = $2, priority = $3, version = version + 1, updated_at = NOW()
	          WHERE id = $4 AND version = $5`
	result, err := r.db.ExecContext(ctx, query, inv.Status, inv.AssignedTo, inv.Priority, inv.ID, inv.Version)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrStaleVersion
	}
	inv.Version++
	return nil
}

func (r *invoiceRepository) ListByStatus(ctx context.Context, status domain.InvoiceStatus, page, pageSize int32) ([]domain.Invoice, int32, error) {
	offset := (page - 1) * pageSize
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE status = $1 ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3`
	rows, err := r.db.QueryContext(ctx, query, status, pageSize, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	invoices, err := r.scanMany(rows)
	if err != nil {
		return nil, 0, err
	}

	var count int32
	err = r.db.QueryRowContext(ctx, `SELECT count(*) FROM invoices WHERE status = $1`, status).Scan(&count)
	if err != nil {
		return nil, 0, err
	}
	return invoices, count, nil
}

func (r *invoiceRepository) ListBySupplier(ctx context.Context, supplierID int32, page, pageSize int32) ([]domain.Invoice, int32, error) {
	offset := (page - 1) * pageSize
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE supplier_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3`
	rows, err := r.db.QueryContext(ctx, query, supplierID, pageSize, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	invoices, err := r.scanMany(rows)
	if err != nil {
		return nil, 0, err
	}

	var count int32
	err = r.db.QueryRowContext(ctx, `SELECT count(*) FROM invoices WHERE supplier_id = $1`, supplierID).Scan(&count)
	if err != nil {
		return nil, 0, err
	}
	return invoices, count, nil
}

func (r *invoiceRepository) scanMany(rows *sql.Rows) ([]domain.Invoice, error) {
	var invoices []domain.Invoice
	for rows.Next() {
		var inv domain.Invoice
		if err := rows.Scan(&inv.ID, &inv.Number, &inv.SupplierID, &inv.BuyerID, &inv.Amount, &inv.Currency,
			&inv.DueDate, &inv.Status, &inv.AssignedTo, &inv.Priority, &inv.Version, &inv.CreatedAt, &inv.UpdatedAt); err != nil {
			return nil, err
		}
		invoices = append(invoices, inv)
	}
	return invoices, rows.Err()
}
