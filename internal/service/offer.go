package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"invofin-backend/internal/domain"
	"invofin-backend/internal/logger"
	"invofin-backend/internal/pricing"
	"invofin-backend/internal/repository"
)

type offerService struct {
	store         repository.TxRunner
	offerRepo     repository.OfferRepository
	engine        *pricing.Engine
	referenceRate decimal.Decimal
	offerTTL      time.Duration
	now           func() time.Time
}

func NewOfferService(
	store repository.TxRunner,
	offerRepo repository.OfferRepository,
	engine *pricing.Engine,
	referenceRate decimal.Decimal,
	offerTTL time.Duration,
) OfferService {
	return &offerService{
		store:         store,
		offerRepo:     offerRepo,
		engine:        engine,
		referenceRate: referenceRate,
		offerTTL:      offerTTL,
		now:           time.Now,
	}
}

func (s *offerService) IssueOffer(ctx context.Context, invoiceID int32) (*domain.Offer, error) {
	logger.EnterMethod("OfferService.IssueOffer", "invoice_id", invoiceID)

	var offer *domain.Offer
	err := s.store.WithinTx(ctx, func(tx repository.Tx) error {
		inv, err := tx.Invoices().GetByIDForUpdate(ctx, invoiceID)
		if err != nil {
			return err
		}
		if inv.Status != domain.InvoiceStatusApproved {
			return &domain.TransitionError{Entity: "invoice", From: string(inv.Status), To: "priced"}
		}

		if _, err := tx.Offers().GetActiveByInvoice(ctx, invoiceID); err == nil {
			return domain.ErrOfferAlreadyIssued
		} else if err != domain.ErrNotFound {
			return err
		}

		supplier, err := tx.Parties().GetSupplier(ctx, inv.SupplierID)
		if err != nil {
			return err
		}
		buyer, err := tx.Parties().GetBuyer(ctx, inv.BuyerID)
		if err != nil {
			return err
		}
		rules, err := tx.PricingRules().ListActive(ctx)
		if err != nil {
			return err
		}

		asOf := s.now()
		quote, err := s.engine.Price(pricing.QuoteInput{
			Amount:        inv.Amount,
			DueDate:       inv.DueDate,
			AsOf:          asOf,
			SupplierGrade: supplier.Grade,
			BuyerGrade:    buyer.Grade,
			ReferenceRate: s.referenceRate,
			Rules:         rules,
		})
		if err != nil {
			return err
		}

		offer = &domain.Offer{
			InvoiceID:       invoiceID,
			Amount:          inv.Amount,
			TenorDays:       quote.TenorDays,
			DiscountRate:    quote.DiscountRate,
			DiscountAmount:  quote.DiscountAmount,
			AdminFee:        quote.AdminFee,
			NetAmount:       quote.NetAmount,
			PricingSnapshot: quote.Snapshot,
			Status:          domain.OfferStatusIssued,
			IssuedAt:        asOf,
			ExpiresAt:       asOf.Add(s.offerTTL),
		}
		if err := tx.Offers().Create(ctx, offer); err != nil {
			return err
		}

		diff := domain.NewDiff().
			Change("status", nil, offer.Status).
			Change("net_amount", nil, offer.NetAmount.String())
		return recordAudit(ctx, tx, domain.EntityOffer, offer.ID, "offer.issued", diff)
	})
	if err != nil {
		logger.ExitMethodWithError("OfferService.IssueOffer", err)
		return nil, err
	}

	logger.ExitMethod("OfferService.IssueOffer", "offer_id", offer.ID)
	return offer, nil
}

func (s *offerService) AcceptOffer(ctx context.Context, offerID int32) (*domain.Offer, error) {
	logger.EnterMethod("OfferService.AcceptOffer", "offer_id", offerID)

	var offer *domain.Offer
	err := s.store.WithinTx(ctx, func(tx repository.Tx) error {
		var err error
		offer, err = tx.Offers().GetByIDForUpdate(ctx, offerID)
		if err != nil {
			return err
		}
		if err := domain.OfferLifecycle.Transition(offer.Status, domain.OfferStatusAccepted); err != nil {
			return err
		}
		now := s.now()
		if !offer.ExpiresAt.After(now) {
			return &domain.TransitionError{Entity: "offer", From: string(domain.OfferStatusExpired), To: string(domain.OfferStatusAccepted)}
		}

		inv, err := tx.Invoices().GetByIDForUpdate(ctx, offer.InvoiceID)
		if err != nil {
			return err
		}
		if err := domain.InvoiceLifecycle.Transition(inv.Status, domain.InvoiceStatusAccepted); err != nil {
			return err
		}

		prevOffer := offer.Status
		offer.Status = domain.OfferStatusAccepted
		offer.RespondedAt = &now
		if err := tx.Offers().Update(ctx, offer); err != nil {
			return err
		}

		prevInvoice := inv.Status
		inv.Status = domain.InvoiceStatusAccepted
		if err := tx.Invoices().Update(ctx, inv); err != nil {
			return err
		}

		funding := &domain.Funding{
			InvoiceID: inv.ID,
			OfferID:   offer.ID,
			Amount:    offer.NetAmount,
			Status:    domain.FundingStatusQueued,
		}
		if err := tx.Fundings().Create(ctx, funding); err != nil {
			return err
		}

		if err := recordAudit(ctx, tx, domain.EntityOffer, offer.ID, "offer.accepted",
			domain.NewDiff().Change("status", prevOffer, offer.Status)); err != nil {
			return err
		}
		if err := recordAudit(ctx, tx, domain.EntityInvoice, inv.ID, "invoice.accepted",
			domain.NewDiff().Change("status", prevInvoice, inv.Status)); err != nil {
			return err
		}
		return recordAudit(ctx, tx, domain.EntityFunding, funding.ID, "funding.queued",
			domain.NewDiff().Change("status", nil, funding.Status))
	})
	if err != nil {
		logger.ExitMethodWithError("OfferService.AcceptOffer", err)
		return nil, err
	}

	logger.ExitMethod("OfferService.AcceptOffer", "offer_id", offerID)
	return offer, nil
}

func (s *offerService) DeclineOffer(ctx context.Context, offerID int32) (*domain.Offer, error) {
	logger.EnterMethod("OfferService.DeclineOffer", "offer_id", offerID)

	var offer *domain.Offer
	err := s.store.WithinTx(ctx, func(tx repository.Tx) error {
		var err error
		offer, err = tx.Offers().GetByIDForUpdate(ctx, offerID)
		if err != nil {
			return err
		}
		if err := domain.OfferLifecycle.Transition(offer.Status, domain.OfferStatusDeclined); err != nil {
			return err
		}

		now := s.now()
		prev := offer.Status
		offer.Status = domain.OfferStatusDeclined
		offer.RespondedAt = &now
		if err := tx.Offers().Update(ctx, offer); err != nil {
			return err
		}
		return recordAudit(ctx, tx, domain.EntityOffer, offer.ID, "offer.declined",
			domain.NewDiff().Change("status", prev, offer.Status))
	})
	if err != nil {
		logger.ExitMethodWithError("OfferService.DeclineOffer", err)
		return nil, err
	}

	logger.ExitMethod("OfferService.DeclineOffer", "offer_id", offerID)
	return offer, nil
}

func (s *offerService) GetOffer(ctx context.Context, offerID int32) (*domain.Offer, error) {
	return s.offerRepo.GetByID(ctx, offerID)
}

// ExpireOffers processes each expired offer in its own transaction so one bad
// row cannot block the rest of the sweep.
func (s *offerService) ExpireOffers(ctx context.Context, asOf time.Time) (int, error) {
	logger.EnterMethod("OfferService.ExpireOffers", "as_of", asOf)

	candidates, err := s.offerRepo.ListExpiredIssued(ctx, asOf)
	if err != nil {
		logger.ExitMethodWithError("OfferService.ExpireOffers", err)
		return 0, err
	}

	expired := 0
	for _, candidate := range candidates {
		err := s.store.WithinTx(ctx, func(tx repository.Tx) error {
			offer, err := tx.Offers().GetByIDForUpdate(ctx, candidate.ID)
			if err != nil {
				return err
			}
			if offer.Status != domain.OfferStatusIssued {
				return nil
			}
			prev := offer.Status
			offer.Status = domain.OfferStatusExpired
			if err := tx.Offers().Update(ctx, offer); err != nil {
				return err
			}
			return recordAudit(ctx, tx, domain.EntityOffer, offer.ID, "offer.expired",
				domain.NewDiff().Change("status", prev, offer.Status))
		})
		if err != nil {
			logger.Error("failed to expire offer", "offer_id", candidate.ID, "error", err)
			continue
		}
		expired++
	}

	logger.ExitMethod("OfferService.ExpireOffers", "expired", expired)
	return expired, nil
}
