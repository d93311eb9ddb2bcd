package domain

import "time"

type ReviewKind string

const (
	ReviewKindKYBDocument     ReviewKind = "KYB_DOCUMENT"
	ReviewKindInvoice         ReviewKind = "INVOICE"
	ReviewKindCollectionsCase ReviewKind = "COLLECTIONS_CASE"
)

type ReviewStatus string

const (
	ReviewStatusPending       ReviewStatus = "PENDING"
	ReviewStatusPendingReview ReviewStatus = "PENDING_REVIEW"
	ReviewStatusUnderReview   ReviewStatus = "UNDER_REVIEW"
	ReviewStatusApproved      ReviewStatus = "APPROVED"
	ReviewStatusRejected      ReviewStatus = "REJECTED"
)

// ReviewItem is a unit of work in the review queue: a supplier's KYB
// document, an invoice awaiting approval, or a collections case. SubjectID
// points at the entity under review for the given kind.
type ReviewItem struct {
	ID         int32        `json:"id"`
	Kind       ReviewKind   `json:"kind"`
	SubjectID  int32        `json:"subject_id"`
	SupplierID *int32       `json:"supplier_id,omitempty"`
	Status     ReviewStatus `json:"status"`
	AssignedTo *int32       `json:"assigned_to,omitempty"`
	ReviewedBy *int32       `json:"reviewed_by,omitempty"`
	ReviewedAt *time.Time   `json:"reviewed_at,omitempty"`
	Priority   int32        `json:"priority"`
	VIP        bool         `json:"vip"`
	Notes      string       `json:"notes"`
	CreatedAt  time.Time    `json:"created_at"`
}

// ReviewFilter narrows review queue listings. Zero values mean "no filter".
type ReviewFilter struct {
	Kind       ReviewKind
	Status     ReviewStatus
	AssignedTo *int32
	MinAge     time.Duration
	VIPOnly    bool
}
