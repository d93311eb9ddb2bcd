package postgres

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"invofin-backend/internal/repository"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx so every repository can run
// standalone or inside a transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Store struct {
	db *sql.DB
	repository.InvoiceRepository
	repository.OfferRepository
	repository.FundingRepository
	repository.FundingBatchRepository
	repository.RepaymentRepository
	repository.DealRepository
	repository.ReviewRepository
	repository.PartyRepository
	repository.PricingRuleRepository
	repository.AuditRepository
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		db:                     db,
		InvoiceRepository:      NewInvoiceRepository(db),
		OfferRepository:        NewOfferRepository(db),
		FundingRepository:      NewFundingRepository(db),
		FundingBatchRepository: NewFundingBatchRepository(db),
		RepaymentRepository:    NewRepaymentRepository(db),
		DealRepository:         NewDealRepository(db),
		ReviewRepository:       NewReviewRepository(db),
		PartyRepository:        NewPartyRepository(db),
		PricingRuleRepository:  NewPricingRuleRepository(db),
		AuditRepository:        NewAuditRepository(db),
	}
}

// txBundle exposes transaction-bound repositories.
type txBundle struct {
	invoices     repository.InvoiceRepository
	offers       repository.OfferRepository
	fundings     repository.FundingRepository
	batches      repository.FundingBatchRepository
	repayments   repository.RepaymentRepository
	deals        repository.DealRepository
	reviews      repository.ReviewRepository
	parties      repository.PartyRepository
	pricingRules repository.PricingRuleRepository
	audit        repository.AuditRepository
}

func newTxBundle(tx *sql.Tx) *txBundle {
	return &txBundle{
		invoices:     NewInvoiceRepository(tx),
		offers:       NewOfferRepository(tx),
		fundings:     NewFundingRepository(tx),
		batches:      NewFundingBatchRepository(tx),
		repayments:   NewRepaymentRepository(tx),
		deals:        NewDealRepository(tx),
		reviews:      NewReviewRepository(tx),
		parties:      NewPartyRepository(tx),
		pricingRules: NewPricingRuleRepository(tx),
		audit:        NewAuditRepository(tx),
	}
}

func (b *txBundle) Invoices() repository.InvoiceRepository         { return b.invoices }
func (b *txBundle) Offers() repository.OfferRepository             { return b.offers }
func (b *txBundle) Fundings() repository.FundingRepository         { return b.fundings }
func (b *txBundle) Batches() repository.FundingBatchRepository     { return b.batches }
func (b *txBundle) Repayments() repository.RepaymentRepository     { return b.repayments }
func (b *txBundle) Deals() repository.DealRepository               { return b.deals }
func (b *txBundle) Reviews() repository.ReviewRepository           { return b.reviews }
func (b *txBundle) Parties() repository.PartyRepository            { return b.parties }
func (b *txBundle) PricingRules() repository.PricingRuleRepository { return b.pricingRules }
func (b *txBundle) Audit() repository.AuditRepository              { return b.audit }

// WithinTx runs fn inside one database transaction. Any error (including the
// audit write) rolls back every mutation made by fn.
func (s *Store) WithinTx(ctx context.Context, fn func(tx repository.Tx) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(newTxBundle(sqlTx)); err != nil {
		if rbErr := sqlTx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback after %w: %v", err, rbErr)
		}
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
