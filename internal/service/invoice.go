package service

import (
	"context"
	"strings"
	"time"

	"invofin-backend/internal/domain"
	"invofin-backend/internal/logger"
	"invofin-backend/internal/repository"
)

type invoiceService struct {
	store       repository.TxRunner
	invoiceRepo repository.InvoiceRepository
	now         func() time.Time
}

func NewInvoiceService(store repository.TxRunner, invoiceRepo repository.InvoiceRepository) InvoiceService {
	return &invoiceService{
		store:       store,
		invoiceRepo: invoiceRepo,
		now:         time.Now,
	}
}

func (s *invoiceService) SubmitInvoice(ctx context.Context, in SubmitInvoiceInput) (*domain.Invoice, error) {
	logger.EnterMethod("InvoiceService.SubmitInvoice", "number", in.Number, "supplier_id", in.SupplierID)

	if strings.TrimSpace(in.Number) == "" {
		return nil, &domain.ValidationError{Field: "number", Reason: "must not be empty"}
	}
	if !in.Amount.IsPositive() {
		return nil, &domain.ValidationError{Field: "amount", Reason: "must be positive"}
	}
	if !in.DueDate.After(s.now()) {
		return nil, &domain.ValidationError{Field: "due_date", Reason: "must be in the future"}
	}
	currency := in.Currency
	if currency == "" {
		currency = "USD"
	}

	var inv *domain.Invoice
	err := s.store.WithinTx(ctx, func(tx repository.Tx) error {
		supplier, err := tx.Parties().GetSupplier(ctx, in.SupplierID)
		if err != nil {
			return err
		}
		if _, err := tx.Parties().GetBuyer(ctx, in.BuyerID); err != nil {
			return err
		}

		inv = &domain.Invoice{
			Number:     in.Number,
			SupplierID: in.SupplierID,
			BuyerID:    in.BuyerID,
			Amount:     in.Amount,
			Currency:   currency,
			DueDate:    in.DueDate,
			Status:     domain.InvoiceStatusUnderReview,
			Priority:   in.Priority,
		}
		if err := tx.Invoices().Create(ctx, inv); err != nil {
			return err
		}

		// The review item rides the same transaction; an invoice is never
		// UNDER_REVIEW without a queue entry.
		supplierID := in.SupplierID
		item := &domain.ReviewItem{
			Kind:       domain.ReviewKindInvoice,
			SubjectID:  inv.ID,
			SupplierID: &supplierID,
			Status:     domain.ReviewStatusPendingReview,
			Priority:   in.Priority,
			VIP:        supplier.Grade.IsVIP(),
		}
		if err := tx.Reviews().Create(ctx, item); err != nil {
			return err
		}

		if err := recordAudit(ctx, tx, domain.EntityInvoice, inv.ID, "invoice.submitted",
			domain.NewDiff().
				Change("status", nil, inv.Status).
				Change("amount", nil, inv.Amount.String())); err != nil {
			return err
		}
		return recordAudit(ctx, tx, domain.EntityReviewItem, item.ID, "review.enqueued",
			domain.NewDiff().Change("kind", nil, item.Kind))
	})
	if err != nil {
		logger.ExitMethodWithError("InvoiceService.SubmitInvoice", err)
		return nil, err
	}

	logger.ExitMethod("InvoiceService.SubmitInvoice", "invoice_id", inv.ID)
	return inv, nil
}

func (s *invoiceService) GetInvoice(ctx context.Context, invoiceID int32) (*domain.Invoice, error) {
	return s.invoiceRepo.GetByID(ctx, invoiceID)
}

func (s *invoiceService) ListByStatus(ctx context.Context, status domain.InvoiceStatus, page, pageSize int32) ([]domain.Invoice, int32, error) {
	page, pageSize = clampPage(page, pageSize)
	return s.invoiceRepo.ListByStatus(ctx, status, page, pageSize)
}

func (s *invoiceService) ListBySupplier(ctx context.Context, supplierID int32, page, pageSize int32) ([]domain.Invoice, int32, error) {
	page, pageSize = clampPage(page, pageSize)
	return s.invoiceRepo.ListBySupplier(ctx, supplierID, page, pageSize)
}

func clampPage(page, pageSize int32) (int32, int32) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return page, pageSize
}
