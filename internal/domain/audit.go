package domain

import "time"

// FieldChange is one before/after pair inside an audit diff.
type FieldChange struct {
	Old any `json:"old"`
	New any `json:"new"`
}

// Diff carries structured old/new snapshots, never free text.
type Diff map[string]FieldChange

// NewDiff builds a diff from alternating field, old, new triples.
func NewDiff() Diff { return Diff{} }

func (d Diff) Change(field string, oldValue, newValue any) Diff {
	d[field] = FieldChange{Old: oldValue, New: newValue}
	return d
}

// AuditEvent is the append-only record of a state-changing operation. Events
// are written in the same transaction as the mutation they describe and are
// never updated or deleted.
type AuditEvent struct {
	ID            int64     `json:"id"`
	ActorID       int32     `json:"actor_id"`
	EntityType    string    `json:"entity_type"`
	EntityID      int32     `json:"entity_id"`
	Action        string    `json:"action"`
	Diff          Diff      `json:"diff"`
	IP            string    `json:"ip,omitempty"`
	UserAgent     string    `json:"user_agent,omitempty"`
	CorrelationID string    `json:"correlation_id"`
	CreatedAt     time.Time `json:"created_at"`
}

// Entity type names used in audit events.
const (
	EntityInvoice           = "invoice"
	EntityOffer             = "offer"
	EntityFunding           = "funding"
	EntityFundingBatch      = "funding_batch"
	EntityExpectedRepayment = "expected_repayment"
	EntityReceivedRepayment = "received_repayment"
	EntityTransaction       = "transaction"
	EntityReviewItem        = "review_item"
	EntitySupplier          = "supplier"
)
