package service

import (
	"context"
	"fmt"
	"time"

	"invofin-backend/internal/domain"
	"invofin-backend/internal/logger"
	"invofin-backend/internal/repository"
)

type reviewQueueService struct {
	store           repository.TxRunner
	reviewRepo      repository.ReviewRepository
	partyRepo       repository.PartyRepository
	notifier        Notifier
	exclusiveClaims bool
	now             func() time.Time
}

func NewReviewQueueService(
	store repository.TxRunner,
	reviewRepo repository.ReviewRepository,
	partyRepo repository.PartyRepository,
	notifier Notifier,
	exclusiveClaims bool,
) ReviewQueueService {
	return &reviewQueueService{
		store:           store,
		reviewRepo:      reviewRepo,
		partyRepo:       partyRepo,
		notifier:        notifier,
		exclusiveClaims: exclusiveClaims,
		now:             time.Now,
	}
}

func (s *reviewQueueService) Enqueue(ctx context.Context, kind domain.ReviewKind, subjectID int32, supplierID *int32, priority int32) (*domain.ReviewItem, error) {
	logger.EnterMethod("ReviewQueueService.Enqueue", "kind", kind, "subject_id", subjectID)

	var item *domain.ReviewItem
	err := s.store.WithinTx(ctx, func(tx repository.Tx) error {
		vip := false
		if supplierID != nil {
			supplier, err := tx.Parties().GetSupplier(ctx, *supplierID)
			if err != nil {
				return err
			}
			vip = supplier.Grade.IsVIP()
		}

		item = &domain.ReviewItem{
			Kind:       kind,
			SubjectID:  subjectID,
			SupplierID: supplierID,
			Status:     domain.ReviewStatusPendingReview,
			Priority:   priority,
			VIP:        vip,
		}
		if err := tx.Reviews().Create(ctx, item); err != nil {
			return err
		}
		return recordAudit(ctx, tx, domain.EntityReviewItem, item.ID, "review.enqueued",
			domain.NewDiff().Change("status", nil, item.Status))
	})
	if err != nil {
		logger.ExitMethodWithError("ReviewQueueService.Enqueue", err)
		return nil, err
	}

	logger.ExitMethod("ReviewQueueService.Enqueue", "item_id", item.ID)
	return item, nil
}

// Claim is idempotent for the current holder. With exclusive claims on,
// claiming an item another reviewer holds fails with ErrAlreadyAssigned; with
// them off the claim is transferred.
func (s *reviewQueueService) Claim(ctx context.Context, itemID int32) (*domain.ReviewItem, error) {
	logger.EnterMethod("ReviewQueueService.Claim", "item_id", itemID)

	reviewer := actorID(ctx)
	var item *domain.ReviewItem
	err := s.store.WithinTx(ctx, func(tx repository.Tx) error {
		var err error
		item, err = tx.Reviews().GetByIDForUpdate(ctx, itemID)
		if err != nil {
			return err
		}

		if item.Status == domain.ReviewStatusUnderReview && item.AssignedTo != nil {
			if *item.AssignedTo == reviewer {
				return nil
			}
			if s.exclusiveClaims {
				return domain.ErrAlreadyAssigned
			}
		}
		// A non-exclusive transfer stays UNDER_REVIEW; only a fresh claim
		// moves the item through the lifecycle.
		if item.Status != domain.ReviewStatusUnderReview {
			if err := domain.ReviewLifecycle.Transition(item.Status, domain.ReviewStatusUnderReview); err != nil {
				return err
			}
		}

		prev := item.Status
		item.Status = domain.ReviewStatusUnderReview
		item.AssignedTo = &reviewer
		if err := tx.Reviews().Update(ctx, item); err != nil {
			return err
		}
		return recordAudit(ctx, tx, domain.EntityReviewItem, item.ID, "review.claimed",
			domain.NewDiff().
				Change("status", prev, item.Status).
				Change("assigned_to", nil, reviewer))
	})
	if err != nil {
		logger.ExitMethodWithError("ReviewQueueService.Claim", err)
		return nil, err
	}

	logger.ExitMethod("ReviewQueueService.Claim", "item_id", itemID)
	return item, nil
}

// Reassign hands an item to another reviewer regardless of who holds it. The
// exclusive-claim policy does not apply; this is the supervisor override.
func (s *reviewQueueService) Reassign(ctx context.Context, itemID int32, toReviewer int32) (*domain.ReviewItem, error) {
	logger.EnterMethod("ReviewQueueService.Reassign", "item_id", itemID, "to", toReviewer)

	var item *domain.ReviewItem
	err := s.store.WithinTx(ctx, func(tx repository.Tx) error {
		var err error
		item, err = tx.Reviews().GetByIDForUpdate(ctx, itemID)
		if err != nil {
			return err
		}

		if item.Status != domain.ReviewStatusUnderReview {
			if err := domain.ReviewLifecycle.Transition(item.Status, domain.ReviewStatusUnderReview); err != nil {
				return err
			}
		}

		var prev any
		if item.AssignedTo != nil {
			prev = *item.AssignedTo
		}
		item.Status = domain.ReviewStatusUnderReview
		item.AssignedTo = &toReviewer
		if err := tx.Reviews().Update(ctx, item); err != nil {
			return err
		}
		return recordAudit(ctx, tx, domain.EntityReviewItem, item.ID, "review.reassigned",
			domain.NewDiff().Change("assigned_to", prev, toReviewer))
	})
	if err != nil {
		logger.ExitMethodWithError("ReviewQueueService.Reassign", err)
		return nil, err
	}

	logger.ExitMethod("ReviewQueueService.Reassign", "item_id", itemID)
	return item, nil
}

func (s *reviewQueueService) Approve(ctx context.Context, itemID int32, notes string) (*domain.ReviewItem, error) {
	logger.EnterMethod("ReviewQueueService.Approve", "item_id", itemID)
	item, err := s.decide(ctx, itemID, domain.ReviewStatusApproved, notes)
	if err != nil {
		logger.ExitMethodWithError("ReviewQueueService.Approve", err)
		return nil, err
	}
	logger.ExitMethod("ReviewQueueService.Approve", "item_id", itemID)
	return item, nil
}

func (s *reviewQueueService) Reject(ctx context.Context, itemID int32, reason string) (*domain.ReviewItem, error) {
	logger.EnterMethod("ReviewQueueService.Reject", "item_id", itemID)
	if reason == "" {
		logger.ExitMethodWithError("ReviewQueueService.Reject", domain.ErrMissingReason)
		return nil, domain.ErrMissingReason
	}
	item, err := s.decide(ctx, itemID, domain.ReviewStatusRejected, reason)
	if err != nil {
		logger.ExitMethodWithError("ReviewQueueService.Reject", err)
		return nil, err
	}
	logger.ExitMethod("ReviewQueueService.Reject", "item_id", itemID)
	return item, nil
}

func (s *reviewQueueService) decide(ctx context.Context, itemID int32, decision domain.ReviewStatus, notes string) (*domain.ReviewItem, error) {
	reviewer := actorID(ctx)
	var item *domain.ReviewItem
	var notify func()

	err := s.store.WithinTx(ctx, func(tx repository.Tx) error {
		var err error
		item, err = tx.Reviews().GetByIDForUpdate(ctx, itemID)
		if err != nil {
			return err
		}
		if item.AssignedTo == nil || *item.AssignedTo != reviewer {
			return domain.ErrAlreadyAssigned
		}
		if err := domain.ReviewLifecycle.Transition(item.Status, decision); err != nil {
			return err
		}

		now := s.now()
		prev := item.Status
		item.Status = decision
		item.ReviewedBy = &reviewer
		item.ReviewedAt = &now
		item.Notes = notes
		if err := tx.Reviews().Update(ctx, item); err != nil {
			return err
		}
		if err := recordAudit(ctx, tx, domain.EntityReviewItem, item.ID, "review.decided",
			domain.NewDiff().
				Change("status", prev, decision).
				Change("notes", nil, notes)); err != nil {
			return err
		}

		notify, err = s.cascade(ctx, tx, item, decision, notes)
		return err
	})
	if err != nil {
		return nil, err
	}

	// Notification goes out only after the decision is committed; a delivery
	// failure never unwinds the decision.
	if notify != nil {
		notify()
	}
	return item, nil
}

// cascade propagates a review decision to the entity under review. The
// returned closure, if any, sends the post-commit notification.
func (s *reviewQueueService) cascade(ctx context.Context, tx repository.Tx, item *domain.ReviewItem, decision domain.ReviewStatus, notes string) (func(), error) {
	switch item.Kind {
	case domain.ReviewKindKYBDocument:
		if item.SupplierID == nil {
			return nil, &domain.InvariantError{Op: "review cascade", Err: fmt.Errorf("KYB review %d has no supplier", item.ID)}
		}
		kyb := domain.KYBStatusApproved
		if decision == domain.ReviewStatusRejected {
			kyb = domain.KYBStatusRejected
		}
		if err := tx.Parties().UpdateSupplierKYB(ctx, *item.SupplierID, kyb); err != nil {
			return nil, err
		}
		if err := recordAudit(ctx, tx, domain.EntitySupplier, *item.SupplierID, "supplier.kyb_decided",
			domain.NewDiff().Change("kyb_status", nil, kyb)); err != nil {
			return nil, err
		}

		supplier, err := tx.Parties().GetSupplier(ctx, *item.SupplierID)
		if err != nil {
			return nil, err
		}
		return func() {
			subject := fmt.Sprintf("KYB verification %s", kyb)
			body := fmt.Sprintf("Hello %s,\n\nYour business verification has been %s.", supplier.Name, kyb)
			if notes != "" {
				body += fmt.Sprintf("\n\nNotes: %s", notes)
			}
			if err := s.notifier.Send(context.WithoutCancel(ctx), supplier.Email, subject, body); err != nil {
				logger.Error("failed to send KYB notification", "supplier_id", supplier.ID, "error", err)
			}
		}, nil

	case domain.ReviewKindInvoice:
		inv, err := tx.Invoices().GetByIDForUpdate(ctx, item.SubjectID)
		if err != nil {
			return nil, err
		}
		next := domain.InvoiceStatusApproved
		if decision == domain.ReviewStatusRejected {
			next = domain.InvoiceStatusRejected
		}
		if err := domain.InvoiceLifecycle.Transition(inv.Status, next); err != nil {
			return nil, err
		}
		prev := inv.Status
		inv.Status = next
		if err := tx.Invoices().Update(ctx, inv); err != nil {
			return nil, err
		}
		return nil, recordAudit(ctx, tx, domain.EntityInvoice, inv.ID, "invoice.reviewed",
			domain.NewDiff().Change("status", prev, next))

	default:
		// Collections cases have no subject entity to update; the decision
		// itself is the outcome.
		return nil, nil
	}
}

func (s *reviewQueueService) List(ctx context.Context, filter domain.ReviewFilter) ([]domain.ReviewItem, error) {
	return s.reviewRepo.List(ctx, filter)
}
