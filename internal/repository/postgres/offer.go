package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"invofin-backend/internal/domain"
	"invofin-backend/internal/repository"
)

type offerRepository struct {
	db DBTX
}

func NewOfferRepository(db DBTX) repository.OfferRepository {
	return &offerRepository{db: db}
}

const offerColumns = `id, invoice_id, amount, tenor_days, discount_rate, discount_amount, admin_fee, net_amount, pricing_snapshot, status, issued_at, expires_at, responded_at`

func (r *offerRepository) Create(ctx context.Context, offer *domain.Offer) error {
	snapshot, err := json.Marshal(offer.PricingSnapshot)
	if err != nil {
		return fmt.Errorf("marshal pricing snapshot: %w", err)
	}
	query := `INSERT INTO offers (invoice_id, amount, tenor_days, discount_rate, discount_amount, admin_fee, net_amount, pricing_snapshot, status, issued_at, expires_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11) RETURNING id`
	return r.db.QueryRowContext(ctx, query,
		offer.InvoiceID, offer.Amount, offer.TenorDays, offer.DiscountRate, offer.DiscountAmount,
		offer.AdminFee, offer.NetAmount, snapshot, offer.Status, offer.IssuedAt, offer.ExpiresAt,
	).Scan(&offer.ID)
}

func (r *offerRepository) GetByID(ctx context.Context, id int32) (*domain.Offer, error) {
	query := `SELECT ` + offerColumns + ` FROM offers WHERE id = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *offerRepository) GetByIDForUpdate(ctx context.Context, id int32) (*domain.Offer, error) {
	query := `SELECT ` + offerColumns + ` FROM offers WHERE id = $1 FOR UPDATE`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *offerRepository) GetActiveByInvoice(ctx context.Context, invoiceID int32) (*domain.Offer, error) {
	query := `SELECT ` + offerColumns + ` FROM offers WHERE invoice_id = $1 AND status = $2 AND expires_at > NOW()`
	return r.scanOne(r.db.QueryRowContext(ctx, query, invoiceID, domain.OfferStatusIssued))
}

func (r *offerRepository) scanOne(row *sql.Row) (*domain.Offer, error) {
	var offer domain.Offer
	var snapshot []byte
	err := row.Scan(&offer.ID, &offer.InvoiceID, &offer.Amount, &offer.TenorDays, &offer.DiscountRate,
		&offer.DiscountAmount, &offer.AdminFee, &offer.NetAmount, &snapshot, &offer.Status,
		&offer.IssuedAt, &offer.ExpiresAt, &offer.RespondedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(snapshot, &offer.PricingSnapshot); err != nil {
		return nil, fmt.Errorf("unmarshal pricing snapshot: %w", err)
	}
	return &offer, nil
}

func (r *offerRepository) Update(ctx context.Context, offer *domain.Offer) error {
	query := `UPDATE offers SET status = $1, responded_at = $2 WHERE id = $3`
	result, err := r.db.ExecContext(ctx, query, offer.Status, offer.RespondedAt, offer.ID)
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

func (r *offerRepository) ListExpiredIssued(ctx context.Context, asOf time.Time) ([]domain.Offer, error) {
	query := `SELECT ` + offerColumns + ` FROM offers WHERE status = $1 AND expires_at <= $2 ORDER BY expires_at, id`
	rows, err := r.db.QueryContext(ctx, query, domain.OfferStatusIssued, asOf)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var offers []domain.Offer
	for rows.Next() {
		var offer domain.Offer
		var snapshot []byte
		if err := rows.Scan(&offer.ID, &offer.InvoiceID, &offer.Amount, &offer.TenorDays, &offer.DiscountRate,
			&offer.DiscountAmount, &offer.AdminFee, &offer.NetAmount, &snapshot, &offer.Status,
			&offer.IssuedAt, &offer.ExpiresAt, &offer.RespondedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(snapshot, &offer.PricingSnapshot); err != nil {
			return nil, fmt.Errorf("unmarshal pricing snapshot: %w", err)
		}
		offers = append(offers, offer)
	}
	return offers, rows.Err()
}
