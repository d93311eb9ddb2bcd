package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"invofin-backend/internal/domain"
	"invofin-backend/internal/repository"
)

type reviewRepository struct {
	db DBTX
}

func NewReviewRepository(db DBTX) repository.ReviewRepository {
	return &reviewRepository{db: db}
}

const reviewColumns = `id, kind, subject_id, supplier_id, status, assigned_to, reviewed_by, reviewed_at, priority, vip, notes, created_at`

func (r *reviewRepository) Create(ctx context.Context, item *domain.ReviewItem) error {
	query := `INSERT INTO review_items (kind, subject_id, supplier_id, status, priority, vip, notes, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, NOW()) RETURNING id, created_at`
	return r.db.QueryRowContext(ctx, query,
		item.Kind, item.SubjectID, item.SupplierID, item.Status, item.Priority, item.VIP, item.Notes,
	).Scan(&item.ID, &item.CreatedAt)
}

func (r *reviewRepository) GetByID(ctx context.Context, id int32) (*domain.ReviewItem, error) {
	query := `SELECT ` + reviewColumns + ` FROM review_items WHERE id = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *reviewRepository) GetByIDForUpdate(ctx context.Context, id int32) (*domain.ReviewItem, error) {
	query := `SELECT ` + reviewColumns + ` FROM review_items WHERE id = $1 FOR UPDATE`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *reviewRepository) scanOne(row *sql.Row) (*domain.ReviewItem, error) {
	var item domain.ReviewItem
	err := row.Scan(&item.ID, &item.Kind, &item.SubjectID, &item.SupplierID, &item.Status,
		&item.AssignedTo, &item.ReviewedBy, &item.ReviewedAt, &item.Priority, &item.VIP,
		&item.Notes, &item.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *reviewRepository) Update(ctx context.Context, item *domain.ReviewItem) error {
	query := `UPDATE review_items
	          SET status = $1, assigned_to = $2, reviewed_by = $3, reviewed_at = $4, priority = $5, notes = $6
	          WHERE id = $7`
	result, err := r.db.ExecContext(ctx, query,
		item.Status, item.AssignedTo, item.ReviewedBy, item.ReviewedAt, item.Priority, item.Notes, item.ID)
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

// List orders the queue VIP suppliers first, then by priority descending, then
// oldest first so long-waiting items surface.
func (r *reviewRepository) List(ctx context.Context, filter domain.ReviewFilter) ([]domain.ReviewItem, error) {
	query := `SELECT ` + reviewColumns + ` FROM review_items WHERE 1=1`
	var args []any

	if filter.Kind != "" {
		args = append(args, filter.Kind)
		query += fmt.Sprintf(" AND kind = $%d", len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filter.AssignedTo != nil {
		args = append(args, *filter.AssignedTo)
		query += fmt.Sprintf(" AND assigned_to = $%d", len(args))
	}
	if filter.MinAge > 0 {
		args = append(args, filter.MinAge.Seconds())
		query += fmt.Sprintf(" AND created_at <= NOW() - make_interval(secs => $%d)", len(args))
	}
	if filter.VIPOnly {
		query += " AND vip = TRUE"
	}
	query += " ORDER BY vip DESC, priority DESC, created_at ASC, id ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.ReviewItem
	for rows.Next() {
		var item domain.ReviewItem
		if err := rows.Scan(&item.ID, &item.Kind, &item.SubjectID, &item.SupplierID, &item.Status,
			&item.AssignedTo, &item.ReviewedBy, &item.ReviewedAt, &item.Priority, &item.VIP,
			&item.Notes, &item.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
