package domain

// Lifecycle enforces the valid status transitions for one entity kind.
// Every status mutation in the system goes through a Lifecycle so that the
// transition rules live in one table instead of being re-checked per call
// site.
type Lifecycle[S ~string] struct {
	entity  string
	allowed map[S][]S
}

func NewLifecycle[S ~string](entity string, allowed map[S][]S) *Lifecycle[S] {
	return &Lifecycle[S]{entity: entity, allowed: allowed}
}

// CanTransition checks if a status transition is allowed.
func (l *Lifecycle[S]) CanTransition(from, to S) bool {
	for _, next := range l.allowed[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition returns a TransitionError if from→to is not in the table.
func (l *Lifecycle[S]) Transition(from, to S) error {
	if !l.CanTransition(from, to) {
		return &TransitionError{Entity: l.entity, From: string(from), To: string(to)}
	}
	return nil
}

// AllowedFrom returns the statuses reachable from the given status.
func (l *Lifecycle[S]) AllowedFrom(from S) []S {
	return l.allowed[from]
}

var InvoiceLifecycle = NewLifecycle("invoice", map[InvoiceStatus][]InvoiceStatus{
	InvoiceStatusDraft:       {InvoiceStatusUnderReview},
	InvoiceStatusUnderReview: {InvoiceStatusApproved, InvoiceStatusRejected},
	InvoiceStatusApproved:    {InvoiceStatusAccepted, InvoiceStatusRejected},
	InvoiceStatusAccepted:    {InvoiceStatusFunded},
	InvoiceStatusFunded:      {InvoiceStatusSettled, InvoiceStatusOverdue, InvoiceStatusDisputed},
	InvoiceStatusOverdue:     {InvoiceStatusSettled, InvoiceStatusDisputed, InvoiceStatusWrittenOff},
	InvoiceStatusDisputed:    {InvoiceStatusSettled, InvoiceStatusWrittenOff},
	InvoiceStatusRejected:    {},
	InvoiceStatusSettled:     {},
	InvoiceStatusWrittenOff:  {},
})

var OfferLifecycle = NewLifecycle("offer", map[OfferStatus][]OfferStatus{
	OfferStatusIssued:   {OfferStatusAccepted, OfferStatusDeclined, OfferStatusExpired},
	OfferStatusAccepted: {},
	OfferStatusDeclined: {},
	OfferStatusExpired:  {},
})

var FundingLifecycle = NewLifecycle("funding", map[FundingStatus][]FundingStatus{
	FundingStatusQueued:    {FundingStatusValidated},
	FundingStatusValidated: {FundingStatusApproved},
	FundingStatusApproved:  {FundingStatusExecuted, FundingStatusFailed},
	FundingStatusExecuted:  {},
	FundingStatusFailed:    {},
})

var BatchLifecycle = NewLifecycle("funding_batch", map[BatchStatus][]BatchStatus{
	BatchStatusCreated:  {BatchStatusApproved},
	BatchStatusApproved: {BatchStatusExecuted},
	BatchStatusExecuted: {},
})

var ExpectedRepaymentLifecycle = NewLifecycle("expected_repayment", map[ExpectedRepaymentStatus][]ExpectedRepaymentStatus{
	ExpectedRepaymentStatusOpen:    {ExpectedRepaymentStatusPartial, ExpectedRepaymentStatusOverdue, ExpectedRepaymentStatusSettled},
	ExpectedRepaymentStatusPartial: {ExpectedRepaymentStatusOverdue, ExpectedRepaymentStatusSettled},
	ExpectedRepaymentStatusOverdue: {ExpectedRepaymentStatusPartial, ExpectedRepaymentStatusSettled},
	ExpectedRepaymentStatusSettled: {},
})

var ReviewLifecycle = NewLifecycle("review_item", map[ReviewStatus][]ReviewStatus{
	ReviewStatusPending:       {ReviewStatusPendingReview},
	ReviewStatusPendingReview: {ReviewStatusUnderReview},
	ReviewStatusUnderReview:   {ReviewStatusApproved, ReviewStatusRejected, ReviewStatusPendingReview},
	ReviewStatusApproved:      {},
	ReviewStatusRejected:      {},
})

var DealLifecycle = NewLifecycle("transaction", map[DealStatus][]DealStatus{
	DealStatusNotDisbursed: {DealStatusOngoing},
	DealStatusOngoing:      {DealStatusEnded},
	DealStatusEnded:        {},
})
