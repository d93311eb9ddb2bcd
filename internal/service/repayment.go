package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"invofin-backend/internal/domain"
	"invofin-backend/internal/logger"
	"invofin-backend/internal/repository"
)

type repaymentService struct {
	store         repository.TxRunner
	repaymentRepo repository.RepaymentRepository
}

func NewRepaymentService(store repository.TxRunner, repaymentRepo repository.RepaymentRepository) RepaymentService {
	return &repaymentService{store: store, repaymentRepo: repaymentRepo}
}

// RecordRepayment runs the allocation waterfall: the payment is spread across
// the buyer's unsettled obligations oldest due date first, each one paid down
// as far as the remaining money goes. A surplus after the last obligation
// stays on the payment as unallocated, never negative.
func (s *repaymentService) RecordRepayment(ctx context.Context, in RecordRepaymentInput) (*RepaymentResult, error) {
	logger.EnterMethod("RepaymentService.RecordRepayment", "buyer_id", in.BuyerID, "amount", in.Amount)

	if !in.Amount.IsPositive() {
		return nil, &domain.ValidationError{Field: "amount", Reason: "must be positive"}
	}
	if in.BankReference == "" {
		return nil, &domain.ValidationError{Field: "bank_reference", Reason: "must not be empty"}
	}

	result := &RepaymentResult{}
	err := s.store.WithinTx(ctx, func(tx repository.Tx) error {
		received := &domain.ReceivedRepayment{
			BuyerID:           in.BuyerID,
			Amount:            in.Amount,
			ReceivedDate:      in.ReceivedDate,
			BankReference:     in.BankReference,
			AllocatedAmount:   decimal.Zero,
			UnallocatedAmount: in.Amount,
		}
		if err := tx.Repayments().CreateReceived(ctx, received); err != nil {
			return err
		}

		obligations, err := tx.Repayments().ListUnsettledByBuyer(ctx, in.BuyerID)
		if err != nil {
			return err
		}

		remaining := in.Amount
		for i := range obligations {
			if !remaining.IsPositive() {
				break
			}
			expected := &obligations[i]

			alreadyPaid, err := tx.Repayments().SumAllocationsByExpected(ctx, expected.ID)
			if err != nil {
				return err
			}
			outstanding := expected.Amount.Sub(alreadyPaid)
			if !outstanding.IsPositive() {
				continue
			}

			portion := decimal.Min(remaining, outstanding)
			allocation := &domain.RepaymentAllocation{
				ReceivedID: received.ID,
				ExpectedID: expected.ID,
				Amount:     portion,
			}
			if err := tx.Repayments().CreateAllocation(ctx, allocation); err != nil {
				return err
			}
			result.Allocations = append(result.Allocations, *allocation)
			remaining = remaining.Sub(portion)

			if err := s.settleOrPartial(ctx, tx, expected, portion.Equal(outstanding)); err != nil {
				return err
			}

			if err := recordAudit(ctx, tx, domain.EntityExpectedRepayment, expected.ID, "repayment.allocated",
				domain.NewDiff().Change("allocated", alreadyPaid.String(), alreadyPaid.Add(portion).String())); err != nil {
				return err
			}
		}

		allocated := in.Amount.Sub(remaining)
		if err := tx.Repayments().UpdateReceivedAmounts(ctx, received.ID, allocated, remaining); err != nil {
			return err
		}
		received.AllocatedAmount = allocated
		received.UnallocatedAmount = remaining
		result.Received = received
		result.Unallocated = remaining

		return recordAudit(ctx, tx, domain.EntityReceivedRepayment, received.ID, "repayment.recorded",
			domain.NewDiff().
				Change("amount", nil, in.Amount.String()).
				Change("unallocated", nil, remaining.String()))
	})
	if err != nil {
		logger.ExitMethodWithError("RepaymentService.RecordRepayment", err)
		return nil, err
	}

	logger.ExitMethod("RepaymentService.RecordRepayment",
		"received_id", result.Received.ID, "allocations", len(result.Allocations), "unallocated", result.Unallocated)
	return result, nil
}

// settleOrPartial advances the obligation's status after an allocation. A
// fully covered obligation settles and may cascade to its invoice; a partly
// covered OVERDUE obligation stays OVERDUE.
func (s *repaymentService) settleOrPartial(ctx context.Context, tx repository.Tx, expected *domain.ExpectedRepayment, covered bool) error {
	var next domain.ExpectedRepaymentStatus
	switch {
	case covered:
		next = domain.ExpectedRepaymentStatusSettled
	case expected.Status == domain.ExpectedRepaymentStatusOpen:
		next = domain.ExpectedRepaymentStatusPartial
	default:
		return nil
	}

	if err := domain.ExpectedRepaymentLifecycle.Transition(expected.Status, next); err != nil {
		return err
	}
	if err := tx.Repayments().UpdateExpectedStatus(ctx, expected.ID, next); err != nil {
		return err
	}
	prev := expected.Status
	expected.Status = next
	if err := recordAudit(ctx, tx, domain.EntityExpectedRepayment, expected.ID, "repayment.status_changed",
		domain.NewDiff().Change("status", prev, next)); err != nil {
		return err
	}

	if next == domain.ExpectedRepaymentStatusSettled {
		return s.settleInvoiceIfDone(ctx, tx, expected.InvoiceID)
	}
	return nil
}

// settleInvoiceIfDone moves the invoice to SETTLED once every obligation
// against it is settled.
func (s *repaymentService) settleInvoiceIfDone(ctx context.Context, tx repository.Tx, invoiceID int32) error {
	obligations, err := tx.Repayments().ListExpectedByInvoice(ctx, invoiceID)
	if err != nil {
		return err
	}
	for _, o := range obligations {
		if o.Status != domain.ExpectedRepaymentStatusSettled {
			return nil
		}
	}

	inv, err := tx.Invoices().GetByIDForUpdate(ctx, invoiceID)
	if err != nil {
		return err
	}
	if err := domain.InvoiceLifecycle.Transition(inv.Status, domain.InvoiceStatusSettled); err != nil {
		return err
	}
	prev := inv.Status
	inv.Status = domain.InvoiceStatusSettled
	if err := tx.Invoices().Update(ctx, inv); err != nil {
		return err
	}
	return recordAudit(ctx, tx, domain.EntityInvoice, inv.ID, "invoice.settled",
		domain.NewDiff().Change("status", prev, inv.Status))
}

func (s *repaymentService) GetRepayment(ctx context.Context, receivedID int32) (*RepaymentResult, error) {
	received, err := s.repaymentRepo.GetReceivedByID(ctx, receivedID)
	if err != nil {
		return nil, err
	}
	allocations, err := s.repaymentRepo.ListAllocationsByReceived(ctx, receivedID)
	if err != nil {
		return nil, err
	}
	return &RepaymentResult{
		Received:    received,
		Allocations: allocations,
		Unallocated: received.UnallocatedAmount,
	}, nil
}

// MarkOverdue processes each candidate in its own transaction so one failure
// does not abort the sweep.
func (s *repaymentService) MarkOverdue(ctx context.Context, asOf time.Time) (int, error) {
	logger.EnterMethod("RepaymentService.MarkOverdue", "as_of", asOf)

	candidates, err := s.repaymentRepo.ListOverdueCandidates(ctx, asOf)
	if err != nil {
		logger.ExitMethodWithError("RepaymentService.MarkOverdue", err)
		return 0, err
	}

	marked := 0
	for _, candidate := range candidates {
		err := s.store.WithinTx(ctx, func(tx repository.Tx) error {
			expected, err := tx.Repayments().GetExpectedByID(ctx, candidate.ID)
			if err != nil {
				return err
			}
			if err := domain.ExpectedRepaymentLifecycle.Transition(expected.Status, domain.ExpectedRepaymentStatusOverdue); err != nil {
				return err
			}
			if err := tx.Repayments().UpdateExpectedStatus(ctx, expected.ID, domain.ExpectedRepaymentStatusOverdue); err != nil {
				return err
			}
			if err := recordAudit(ctx, tx, domain.EntityExpectedRepayment, expected.ID, "repayment.overdue",
				domain.NewDiff().Change("status", expected.Status, domain.ExpectedRepaymentStatusOverdue)); err != nil {
				return err
			}

			inv, err := tx.Invoices().GetByIDForUpdate(ctx, expected.InvoiceID)
			if err != nil {
				return err
			}
			if !domain.InvoiceLifecycle.CanTransition(inv.Status, domain.InvoiceStatusOverdue) {
				return nil
			}
			prev := inv.Status
			inv.Status = domain.InvoiceStatusOverdue
			if err := tx.Invoices().Update(ctx, inv); err != nil {
				return err
			}
			return recordAudit(ctx, tx, domain.EntityInvoice, inv.ID, "invoice.overdue",
				domain.NewDiff().Change("status", prev, inv.Status))
		})
		if err != nil {
			logger.Error("failed to mark repayment overdue", "expected_id", candidate.ID, "error", err)
			continue
		}
		marked++
	}

	logger.ExitMethod("RepaymentService.MarkOverdue", "marked", marked)
	return marked, nil
}
