package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"invofin-backend/internal/domain"
	"invofin-backend/internal/logger"
	"invofin-backend/internal/repository"
)

type fundingBatchService struct {
	store       repository.TxRunner
	batchRepo   repository.FundingBatchRepository
	fundingRepo repository.FundingRepository
	now         func() time.Time
}

func NewFundingBatchService(
	store repository.TxRunner,
	batchRepo repository.FundingBatchRepository,
	fundingRepo repository.FundingRepository,
) FundingBatchService {
	return &fundingBatchService{
		store:       store,
		batchRepo:   batchRepo,
		fundingRepo: fundingRepo,
		now:         time.Now,
	}
}

// CreateBatch is greedy: an ineligible funding is skipped with a reason, not
// a reason to abort. A positive maxTotal caps the batch; a funding that would
// push the running total past it is skipped and later candidates still get a
// chance. The claim at the end re-checks every selected row so two concurrent
// batch runs cannot share a funding.
func (s *fundingBatchService) CreateBatch(ctx context.Context, limit int32, maxTotal decimal.Decimal) (*BatchCreateResult, error) {
	logger.EnterMethod("FundingBatchService.CreateBatch", "limit", limit, "max_total", maxTotal)

	result := &BatchCreateResult{}
	err := s.store.WithinTx(ctx, func(tx repository.Tx) error {
		candidates, err := tx.Fundings().ListQueuedUnbatched(ctx, limit)
		if err != nil {
			return err
		}

		var eligible []domain.Funding
		total := decimal.Zero
		for _, funding := range candidates {
			reason, err := s.checkEligibility(ctx, tx, funding)
			if err != nil {
				return err
			}
			if reason == "" && maxTotal.IsPositive() && total.Add(funding.Amount).GreaterThan(maxTotal) {
				reason = "exceeds batch total budget"
			}
			if reason != "" {
				result.Skipped = append(result.Skipped, SkippedFunding{FundingID: funding.ID, Reason: reason})
				continue
			}
			eligible = append(eligible, funding)
			total = total.Add(funding.Amount)
		}
		if len(eligible) == 0 {
			return domain.ErrNoEligibleItems
		}

		batch := &domain.FundingBatch{
			TotalAmount: total,
			Status:      domain.BatchStatusCreated,
			CreatedBy:   actorID(ctx),
		}
		if err := tx.Batches().Create(ctx, batch); err != nil {
			return err
		}

		ids := make([]int32, len(eligible))
		for i, funding := range eligible {
			ids[i] = funding.ID
		}
		claimed, err := tx.Fundings().ClaimForBatch(ctx, ids, batch.ID)
		if err != nil {
			return err
		}
		if claimed != int64(len(ids)) {
			return domain.ErrAlreadyBatched
		}

		result.Batch = batch
		result.Fundings, err = tx.Fundings().ListByBatch(ctx, batch.ID)
		if err != nil {
			return err
		}

		return recordAudit(ctx, tx, domain.EntityFundingBatch, batch.ID, "batch.created",
			domain.NewDiff().
				Change("status", nil, batch.Status).
				Change("total_amount", nil, total.String()).
				Change("funding_count", nil, len(ids)))
	})
	if err != nil {
		logger.ExitMethodWithError("FundingBatchService.CreateBatch", err)
		return nil, err
	}

	logger.ExitMethod("FundingBatchService.CreateBatch",
		"batch_id", result.Batch.ID, "selected", len(result.Fundings), "skipped", len(result.Skipped))
	return result, nil
}

// checkEligibility returns a skip reason, or "" when the funding can be
// batched.
func (s *fundingBatchService) checkEligibility(ctx context.Context, tx repository.Tx, funding domain.Funding) (string, error) {
	inv, err := tx.Invoices().GetByID(ctx, funding.InvoiceID)
	if err != nil {
		if err == domain.ErrNotFound {
			return "invoice not found", nil
		}
		return "", err
	}
	if inv.Status != domain.InvoiceStatusAccepted {
		return "invoice not in ACCEPTED status", nil
	}

	supplier, err := tx.Parties().GetSupplier(ctx, inv.SupplierID)
	if err != nil {
		if err == domain.ErrNotFound {
			return "supplier not found", nil
		}
		return "", err
	}
	if supplier.KYBStatus != domain.KYBStatusApproved {
		return "supplier KYB not approved", nil
	}
	return "", nil
}

// ApproveBatch enforces a second pair of eyes: the approver must differ from
// the batch creator.
func (s *fundingBatchService) ApproveBatch(ctx context.Context, batchID int32) (*domain.FundingBatch, error) {
	logger.EnterMethod("FundingBatchService.ApproveBatch", "batch_id", batchID)

	var batch *domain.FundingBatch
	err := s.store.WithinTx(ctx, func(tx repository.Tx) error {
		var err error
		batch, err = tx.Batches().GetByIDForUpdate(ctx, batchID)
		if err != nil {
			return err
		}
		if err := domain.BatchLifecycle.Transition(batch.Status, domain.BatchStatusApproved); err != nil {
			return err
		}

		approver := actorID(ctx)
		if approver == batch.CreatedBy {
			return domain.ErrUnauthorized
		}

		prev := batch.Status
		batch.Status = domain.BatchStatusApproved
		batch.ApprovedBy = &approver
		if err := tx.Batches().Update(ctx, batch); err != nil {
			return err
		}

		fundings, err := tx.Fundings().ListByBatch(ctx, batchID)
		if err != nil {
			return err
		}
		for i := range fundings {
			funding := &fundings[i]
			if err := domain.FundingLifecycle.Transition(funding.Status, domain.FundingStatusApproved); err != nil {
				return err
			}
			funding.Status = domain.FundingStatusApproved
			if err := tx.Fundings().Update(ctx, funding); err != nil {
				return err
			}
		}

		return recordAudit(ctx, tx, domain.EntityFundingBatch, batch.ID, "batch.approved",
			domain.NewDiff().Change("status", prev, batch.Status))
	})
	if err != nil {
		logger.ExitMethodWithError("FundingBatchService.ApproveBatch", err)
		return nil, err
	}

	logger.ExitMethod("FundingBatchService.ApproveBatch", "batch_id", batchID)
	return batch, nil
}

// ExecuteBatch disburses the whole batch in one transaction. The payout
// destination pre-check runs before any mutation so a failure names every
// offending invoice and leaves nothing half-funded.
func (s *fundingBatchService) ExecuteBatch(ctx context.Context, batchID int32) (*domain.FundingBatch, error) {
	logger.EnterMethod("FundingBatchService.ExecuteBatch", "batch_id", batchID)

	var batch *domain.FundingBatch
	err := s.store.WithinTx(ctx, func(tx repository.Tx) error {
		var err error
		batch, err = tx.Batches().GetByIDForUpdate(ctx, batchID)
		if err != nil {
			return err
		}
		if err := domain.BatchLifecycle.Transition(batch.Status, domain.BatchStatusExecuted); err != nil {
			return err
		}

		fundings, err := tx.Fundings().ListByBatch(ctx, batchID)
		if err != nil {
			return err
		}

		var missing []int32
		for _, funding := range fundings {
			inv, err := tx.Invoices().GetByID(ctx, funding.InvoiceID)
			if err != nil {
				return err
			}
			if _, err := tx.Parties().GetPayoutAccount(ctx, inv.SupplierID); err != nil {
				if err == domain.ErrNotFound {
					missing = append(missing, inv.ID)
					continue
				}
				return err
			}
		}
		if len(missing) > 0 {
			return &domain.MissingPayoutDestinationError{InvoiceIDs: missing}
		}

		now := s.now()
		for i := range fundings {
			funding := &fundings[i]
			if err := domain.FundingLifecycle.Transition(funding.Status, domain.FundingStatusExecuted); err != nil {
				return err
			}

			inv, err := tx.Invoices().GetByIDForUpdate(ctx, funding.InvoiceID)
			if err != nil {
				return err
			}
			if err := domain.InvoiceLifecycle.Transition(inv.Status, domain.InvoiceStatusFunded); err != nil {
				return err
			}
			prevInvoice := inv.Status
			inv.Status = domain.InvoiceStatusFunded
			if err := tx.Invoices().Update(ctx, inv); err != nil {
				return err
			}

			funding.Status = domain.FundingStatusExecuted
			funding.FundedAt = &now
			if err := tx.Fundings().Update(ctx, funding); err != nil {
				return err
			}

			// The buyer owes back what went out, which is the offer's net
			// amount, not the invoice face value.
			expected := &domain.ExpectedRepayment{
				InvoiceID: inv.ID,
				BuyerID:   inv.BuyerID,
				Amount:    funding.Amount,
				DueDate:   inv.DueDate,
				Status:    domain.ExpectedRepaymentStatusOpen,
			}
			if err := tx.Repayments().CreateExpected(ctx, expected); err != nil {
				return err
			}

			if err := recordAudit(ctx, tx, domain.EntityInvoice, inv.ID, "invoice.funded",
				domain.NewDiff().Change("status", prevInvoice, inv.Status)); err != nil {
				return err
			}
			if err := recordAudit(ctx, tx, domain.EntityFunding, funding.ID, "funding.executed",
				domain.NewDiff().Change("status", domain.FundingStatusApproved, funding.Status)); err != nil {
				return err
			}
		}

		executor := actorID(ctx)
		prev := batch.Status
		batch.Status = domain.BatchStatusExecuted
		batch.ExecutedBy = &executor
		batch.ExecutedAt = &now
		if err := tx.Batches().Update(ctx, batch); err != nil {
			return err
		}
		return recordAudit(ctx, tx, domain.EntityFundingBatch, batch.ID, "batch.executed",
			domain.NewDiff().Change("status", prev, batch.Status))
	})
	if err != nil {
		logger.ExitMethodWithError("FundingBatchService.ExecuteBatch", err)
		return nil, err
	}

	logger.ExitMethod("FundingBatchService.ExecuteBatch", "batch_id", batchID)
	return batch, nil
}

func (s *fundingBatchService) GetBatch(ctx context.Context, batchID int32) (*domain.FundingBatch, []domain.Funding, error) {
	batch, err := s.batchRepo.GetByID(ctx, batchID)
	if err != nil {
		return nil, nil, err
	}
	fundings, err := s.fundingRepo.ListByBatch(ctx, batchID)
	if err != nil {
		return nil, nil, err
	}
	return batch, fundings, nil
}
