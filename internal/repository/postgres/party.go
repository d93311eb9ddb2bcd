package postgres

import (
	"context"
	"database/sql"
	"errors"

	"invofin-backend/internal/domain"
	"invofin-backend/internal/repository"
)

type partyRepository struct {
	db DBTX
}

func NewPartyRepository(db DBTX) repository.PartyRepository {
	return &partyRepository{db: db}
}

func (r *partyRepository) GetSupplier(ctx context.Context, id int32) (*domain.Supplier, error) {
	query := `SELECT id, name, grade, kyb_status, email, created_at FROM suppliers WHERE id = $1`
	var s domain.Supplier
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&s.ID, &s.Name, &s.Grade, &s.KYBStatus, &s.Email, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *partyRepository) GetBuyer(ctx context.Context, id int32) (*domain.Buyer, error) {
	query := `SELECT id, name, grade, created_at FROM buyers WHERE id = $1`
	var b domain.Buyer
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&b.ID, &b.Name, &b.Grade, &b.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *partyRepository) UpdateSupplierKYB(ctx context.Context, supplierID int32, status domain.KYBStatus) error {
	result, err := r.db.ExecContext(ctx, `UPDATE suppliers SET kyb_status = $1 WHERE id = $2`, status, supplierID)
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

func (r *partyRepository) GetPayoutAccount(ctx context.Context, supplierID int32) (*domain.PayoutAccount, error) {
	query := `SELECT id, supplier_id, bank_name, account_number, account_holder
	          FROM payout_accounts WHERE supplier_id = $1`
	var acct domain.PayoutAccount
	err := r.db.QueryRowContext(ctx, query, supplierID).
		Scan(&acct.ID, &acct.SupplierID, &acct.BankName, &acct.AccountNumber, &acct.AccountHolder)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &acct, nil
}
