package jobs

import (
	"context"
	"time"

	"invofin-backend/internal/logger"
)

// ExpireOffers marks every ISSUED offer past its expiry as EXPIRED
func (jr *JobRunner) ExpireOffers() {
	jr.runWithRecovery("ExpireOffers", func() {
		ctx := context.Background()

		count, err := jr.services.Offers.ExpireOffers(ctx, time.Now().UTC())
		if err != nil {
			logger.Error("Failed to expire offers", "error", err)
			return
		}
		logger.Info("Expired offers", "count", count)
	})
}

// MarkOverdueRepayments flags expected repayments past their due date as
// OVERDUE and cascades the status to their invoices
func (jr *JobRunner) MarkOverdueRepayments() {
	jr.runWithRecovery("MarkOverdueRepayments", func() {
		ctx := context.Background()

		count, err := jr.services.Repayments.MarkOverdue(ctx, time.Now().UTC())
		if err != nil {
			logger.Error("Failed to mark overdue repayments", "error", err)
			return
		}
		logger.Info("Marked repayments as overdue", "count", count)
	})
}
