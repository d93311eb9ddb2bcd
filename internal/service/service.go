package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"invofin-backend/internal/domain"
	"invofin-backend/internal/repository"
	"invofin-backend/internal/security"
)

type SubmitInvoiceInput struct {
	Number     string
	SupplierID int32
	BuyerID    int32
	Amount     decimal.Decimal
	Currency   string
	DueDate    time.Time
	Priority   int32
}

type InvoiceService interface {
	// SubmitInvoice creates the invoice in UNDER_REVIEW and enqueues it on the
	// review queue in the same transaction.
	SubmitInvoice(ctx context.Context, in SubmitInvoiceInput) (*domain.Invoice, error)
	GetInvoice(ctx context.Context, invoiceID int32) (*domain.Invoice, error)
	ListByStatus(ctx context.Context, status domain.InvoiceStatus, page, pageSize int32) ([]domain.Invoice, int32, error)
	ListBySupplier(ctx context.Context, supplierID int32, page, pageSize int32) ([]domain.Invoice, int32, error)
}

type OfferService interface {
	// IssueOffer prices an approved invoice and issues a financing offer. At
	// most one non-expired ISSUED offer may exist per invoice.
	IssueOffer(ctx context.Context, invoiceID int32) (*domain.Offer, error)
	// AcceptOffer moves the invoice to ACCEPTED and queues a funding for the
	// offer's net amount.
	AcceptOffer(ctx context.Context, offerID int32) (*domain.Offer, error)
	DeclineOffer(ctx context.Context, offerID int32) (*domain.Offer, error)
	GetOffer(ctx context.Context, offerID int32) (*domain.Offer, error)
	// ExpireOffers marks every ISSUED offer past its expiry as EXPIRED and
	// returns how many were expired. Called by the scheduler.
	ExpireOffers(ctx context.Context, asOf time.Time) (int, error)
}

// BatchCreateResult reports what a batch run selected and what it skipped.
type BatchCreateResult struct {
	Batch    *domain.FundingBatch
	Fundings []domain.Funding
	Skipped  []SkippedFunding
}

type SkippedFunding struct {
	FundingID int32
	Reason    string
}

type FundingBatchService interface {
	// CreateBatch collects queued fundings into a new batch, skipping
	// ineligible ones rather than aborting. A positive maxTotal caps the
	// batch's total amount. Returns ErrNoEligibleItems when nothing qualifies.
	CreateBatch(ctx context.Context, limit int32, maxTotal decimal.Decimal) (*BatchCreateResult, error)
	// ApproveBatch requires a different actor than the batch creator.
	ApproveBatch(ctx context.Context, batchID int32) (*domain.FundingBatch, error)
	// ExecuteBatch disburses every funding in the batch inside one
	// transaction. Any failure, including a missing payout destination, rolls
	// the whole batch back.
	ExecuteBatch(ctx context.Context, batchID int32) (*domain.FundingBatch, error)
	GetBatch(ctx context.Context, batchID int32) (*domain.FundingBatch, []domain.Funding, error)
}

type RecordRepaymentInput struct {
	BuyerID       int32
	Amount        decimal.Decimal
	ReceivedDate  time.Time
	BankReference string
}

// RepaymentResult reports how an incoming payment was spread across the
// buyer's obligations.
type RepaymentResult struct {
	Received    *domain.ReceivedRepayment
	Allocations []domain.RepaymentAllocation
	Unallocated decimal.Decimal
}

type RepaymentService interface {
	// RecordRepayment allocates an incoming buyer payment across that buyer's
	// unsettled obligations, oldest due date first. Any surplus stays on the
	// payment as unallocated.
	RecordRepayment(ctx context.Context, in RecordRepaymentInput) (*RepaymentResult, error)
	GetRepayment(ctx context.Context, receivedID int32) (*RepaymentResult, error)
	// MarkOverdue flags expected repayments past due as OVERDUE and cascades
	// to their invoices. Returns how many were marked. Called by the scheduler.
	MarkOverdue(ctx context.Context, asOf time.Time) (int, error)
}

type CreateTransactionInput struct {
	Number              string
	Customer            string
	NetAmount           decimal.Decimal
	ProfitMarginPct     decimal.Decimal
	DisbursementCharges decimal.Decimal
	TenorDays           int32
}

// DealService manages forfaiting deals and the investments funding them.
type DealService interface {
	CreateTransaction(ctx context.Context, in CreateTransactionInput) (*domain.Transaction, error)
	GetTransaction(ctx context.Context, transactionID int32) (*domain.Transaction, error)
	// DisburseTransaction moves the deal to ONGOING once funds have gone out.
	DisburseTransaction(ctx context.Context, transactionID int32) (*domain.Transaction, error)
	// EndTransaction closes the deal; subsequent profit allocations are
	// REALIZED.
	EndTransaction(ctx context.Context, transactionID int32) (*domain.Transaction, error)
	AddInvestment(ctx context.Context, transactionID, investorID int32, amount decimal.Decimal) (*domain.Investment, error)
	// AddExpense books a PENDING expense against the deal; only approved
	// expenses reduce profit.
	AddExpense(ctx context.Context, transactionID int32, description string, amount decimal.Decimal) (*domain.Expense, error)
}

type ProfitService interface {
	// AllocateProfit splits a transaction's profit across its active
	// investors pro rata by invested amount. Re-running replaces the previous
	// allocation set.
	AllocateProfit(ctx context.Context, transactionID int32) ([]domain.ProfitAllocation, error)
	ListAllocations(ctx context.Context, transactionID int32) ([]domain.ProfitAllocation, error)
}

type ReviewQueueService interface {
	Enqueue(ctx context.Context, kind domain.ReviewKind, subjectID int32, supplierID *int32, priority int32) (*domain.ReviewItem, error)
	// Claim assigns the item to the calling reviewer. Claiming an item you
	// already hold is a no-op; claiming another reviewer's item fails when
	// exclusive claims are on.
	Claim(ctx context.Context, itemID int32) (*domain.ReviewItem, error)
	// Reassign hands the item to another reviewer, overriding any existing
	// claim.
	Reassign(ctx context.Context, itemID int32, toReviewer int32) (*domain.ReviewItem, error)
	Approve(ctx context.Context, itemID int32, notes string) (*domain.ReviewItem, error)
	// Reject requires a non-empty reason.
	Reject(ctx context.Context, itemID int32, reason string) (*domain.ReviewItem, error)
	List(ctx context.Context, filter domain.ReviewFilter) ([]domain.ReviewItem, error)
}

type AuditService interface {
	ListByEntity(ctx context.Context, entityType string, entityID int32, page, pageSize int32) ([]domain.AuditEvent, int32, error)
}

// Notifier delivers messages to parties outside the system. Delivery is best
// effort and never part of a database transaction.
type Notifier interface {
	Send(ctx context.Context, to, subject, body string) error
}

// actorID resolves the acting operator, falling back to 0 for scheduler-run
// operations.
func actorID(ctx context.Context) int32 {
	if actor, ok := security.ActorFromContext(ctx); ok {
		return actor.ID
	}
	return 0
}

// recordAudit appends an audit event through the transaction's audit
// repository so the event commits with the mutation it describes.
func recordAudit(ctx context.Context, tx repository.Tx, entityType string, entityID int32, action string, diff domain.Diff) error {
	meta := security.RequestMetaFromContext(ctx)
	return tx.Audit().Record(ctx, &domain.AuditEvent{
		ActorID:       actorID(ctx),
		EntityType:    entityType,
		EntityID:      entityID,
		Action:        action,
		Diff:          diff,
		IP:            meta.IP,
		UserAgent:     meta.UserAgent,
		CorrelationID: meta.CorrelationID,
	})
}
