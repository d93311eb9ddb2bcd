package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"invofin-backend/internal/domain"
)

type InvoiceRepository interface {
	Create(ctx context.Context, inv *domain.Invoice) error
	GetByID(ctx context.Context, id int32) (*domain.Invoice, error)
	// GetByIDForUpdate takes a row lock; only valid inside a transaction.
	GetByIDForUpdate(ctx context.Context, id int32) (*domain.Invoice, error)
	// Update writes the invoice only if its version is unchanged, bumping the
	// version on success. Returns domain.ErrStaleVersion otherwise.
	Update(ctx context.Context, inv *domain.Invoice) error
	ListByStatus(ctx context.Context, status domain.InvoiceStatus, page, pageSize int32) ([]domain.Invoice, int32, error)
	ListBySupplier(ctx context.Context, supplierID int32, page, pageSize int32) ([]domain.Invoice, int32, error)
}

type OfferRepository interface {
	Create(ctx context.Context, offer *domain.Offer) error
	GetByID(ctx context.Context, id int32) (*domain.Offer, error)
	GetByIDForUpdate(ctx context.Context, id int32) (*domain.Offer, error)
	// GetActiveByInvoice returns the non-expired ISSUED offer for an invoice,
	// or domain.ErrNotFound when there is none.
	GetActiveByInvoice(ctx context.Context, invoiceID int32) (*domain.Offer, error)
	Update(ctx context.Context, offer *domain.Offer) error
	ListExpiredIssued(ctx context.Context, asOf time.Time) ([]domain.Offer, error)
}

type FundingRepository interface {
	Create(ctx context.Context, f *domain.Funding) error
	GetByID(ctx context.Context, id int32) (*domain.Funding, error)
	Update(ctx context.Context, f *domain.Funding) error
	// ListQueuedUnbatched returns QUEUED fundings with no batch, newest first
	// (created_at DESC, id DESC).
	ListQueuedUnbatched(ctx context.Context, limit int32) ([]domain.Funding, error)
	// ClaimForBatch assigns the batch to the given fundings only where they
	// are still QUEUED and unbatched, transitioning them to VALIDATED.
	// Returns the number of rows claimed; first writer wins.
	ClaimForBatch(ctx context.Context, fundingIDs []int32, batchID int32) (int64, error)
	ListByBatch(ctx context.Context, batchID int32) ([]domain.Funding, error)
}

type FundingBatchRepository interface {
	Create(ctx context.Context, b *domain.FundingBatch) error
	GetByID(ctx context.Context, id int32) (*domain.FundingBatch, error)
	GetByIDForUpdate(ctx context.Context, id int32) (*domain.FundingBatch, error)
	Update(ctx context.Context, b *domain.FundingBatch) error
}

type RepaymentRepository interface {
	CreateExpected(ctx context.Context, e *domain.ExpectedRepayment) error
	GetExpectedByID(ctx context.Context, id int32) (*domain.ExpectedRepayment, error)
	// ListUnsettledByBuyer returns the buyer's non-settled obligations in
	// ascending due-date order (oldest first), ties broken by id.
	ListUnsettledByBuyer(ctx context.Context, buyerID int32) ([]domain.ExpectedRepayment, error)
	ListExpectedByInvoice(ctx context.Context, invoiceID int32) ([]domain.ExpectedRepayment, error)
	UpdateExpectedStatus(ctx context.Context, id int32, status domain.ExpectedRepaymentStatus) error
	ListOverdueCandidates(ctx context.Context, asOf time.Time) ([]domain.ExpectedRepayment, error)

	CreateReceived(ctx context.Context, r *domain.ReceivedRepayment) error
	GetReceivedByID(ctx context.Context, id int32) (*domain.ReceivedRepayment, error)
	GetReceivedByIDForUpdate(ctx context.Context, id int32) (*domain.ReceivedRepayment, error)
	UpdateReceivedAmounts(ctx context.Context, id int32, allocated, unallocated decimal.Decimal) error

	CreateAllocation(ctx context.Context, a *domain.RepaymentAllocation) error
	SumAllocationsByExpected(ctx context.Context, expectedID int32) (decimal.Decimal, error)
	ListAllocationsByReceived(ctx context.Context, receivedID int32) ([]domain.RepaymentAllocation, error)
}

type DealRepository interface {
	CreateTransaction(ctx context.Context, t *domain.Transaction) error
	GetTransactionByID(ctx context.Context, id int32) (*domain.Transaction, error)
	GetTransactionByIDForUpdate(ctx context.Context, id int32) (*domain.Transaction, error)
	UpdateTransactionStatus(ctx context.Context, id int32, status domain.DealStatus) error

	CreateInvestment(ctx context.Context, inv *domain.Investment) error
	// ListActiveInvestments returns ACTIVE investments for the transaction's
	// funding pool in ascending id order.
	ListActiveInvestments(ctx context.Context, transactionID int32) ([]domain.Investment, error)

	CreateExpense(ctx context.Context, e *domain.Expense) error
	SumApprovedExpenses(ctx context.Context, transactionID int32) (decimal.Decimal, error)

	// ReplaceProfitAllocations deletes prior rows for the transaction and
	// inserts the given set, making re-allocation idempotent.
	ReplaceProfitAllocations(ctx context.Context, transactionID int32, rows []domain.ProfitAllocation) error
	ListProfitAllocations(ctx context.Context, transactionID int32) ([]domain.ProfitAllocation, error)
}

type ReviewRepository interface {
	Create(ctx context.Context, item *domain.ReviewItem) error
	GetByID(ctx context.Context, id int32) (*domain.ReviewItem, error)
	GetByIDForUpdate(ctx context.Context, id int32) (*domain.ReviewItem, error)
	Update(ctx context.Context, item *domain.ReviewItem) error
	// List applies the filter and sorts VIP first, then priority descending,
	// then oldest first.
	List(ctx context.Context, filter domain.ReviewFilter) ([]domain.ReviewItem, error)
}

type PartyRepository interface {
	GetSupplier(ctx context.Context, id int32) (*domain.Supplier, error)
	GetBuyer(ctx context.Context, id int32) (*domain.Buyer, error)
	UpdateSupplierKYB(ctx context.Context, supplierID int32, status domain.KYBStatus) error
	// GetPayoutAccount returns nil, domain.ErrNotFound when the supplier has
	// no payout destination on file.
	GetPayoutAccount(ctx context.Context, supplierID int32) (*domain.PayoutAccount, error)
}

type PricingRuleRepository interface {
	ListActive(ctx context.Context) ([]domain.PricingRule, error)
}

type AuditRepository interface {
	// Record appends one event. There are no update or delete operations.
	Record(ctx context.Context, ev *domain.AuditEvent) error
	ListByEntity(ctx context.Context, entityType string, entityID int32, page, pageSize int32) ([]domain.AuditEvent, int32, error)
}

// Tx bundles the repositories bound to one database transaction. All
// mutations inside a top-level operation go through the same Tx so that the
// entity writes and their audit events commit together or not at all.
type Tx interface {
	Invoices() InvoiceRepository
	Offers() OfferRepository
	Fundings() FundingRepository
	Batches() FundingBatchRepository
	Repayments() RepaymentRepository
	Deals() DealRepository
	Reviews() ReviewRepository
	Parties() PartyRepository
	PricingRules() PricingRuleRepository
	Audit() AuditRepository
}

// TxRunner executes a closure inside a single database transaction. An error
// from the closure rolls everything back.
type TxRunner interface {
	WithinTx(ctx context.Context, fn func(tx Tx) error) error
}
