package domain

import (
	"errors"
	"fmt"
)

// Business-rule violations. Surfaced to the caller with enough context to fix
// and resubmit; never silently defaulted.
var (
	ErrInvalidTenor        = errors.New("tenor must be at least one day")
	ErrNoPricingRule       = errors.New("no pricing rule matches tenor and amount")
	ErrNegativeNetAmount   = errors.New("net amount after discount and fee is not positive")
	ErrMissingReason       = errors.New("rejection requires a non-empty reason")
	ErrNoEligibleItems     = errors.New("no fundings eligible for batching")
	ErrOfferAlreadyIssued  = errors.New("invoice already has an active offer")
	ErrNoActiveInvestments = errors.New("transaction has no active investments")
	ErrUnauthorized        = errors.New("actor is not permitted to perform this action")
	ErrNotFound            = errors.New("entity not found")
)

// Concurrency conflicts. Safe to retry the whole operation.
var (
	ErrStaleVersion    = errors.New("entity was modified concurrently")
	ErrAlreadyBatched  = errors.New("funding was claimed by a concurrent batch")
	ErrAlreadyAssigned = errors.New("review item is assigned to another reviewer")
)

// ValidationError reports bad input shape. Caller's fault, never retried.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// MissingPayoutDestinationError aborts an entire batch execution and names
// every invoice whose supplier has no payout destination on file.
type MissingPayoutDestinationError struct {
	InvoiceIDs []int32
}

func (e *MissingPayoutDestinationError) Error() string {
	return fmt.Sprintf("payout destination missing for invoices %v", e.InvoiceIDs)
}

// TransitionError is returned when a status change is not in the entity's
// transition table.
type TransitionError struct {
	Entity string
	From   string
	To     string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s cannot transition from %s to %s", e.Entity, e.From, e.To)
}

// InvariantError marks a fatal internal inconsistency (sums not reconciling,
// audit write failing mid-operation). The enclosing transaction must roll
// back in full.
type InvariantError struct {
	Op  string
	Err error
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("invariant violated in %s: %v", e.Op, e.Err)
}

func (e *InvariantError) Unwrap() error { return e.Err }

// IsConflict reports whether err is a concurrency conflict the caller may
// retry.
func IsConflict(err error) bool {
	return errors.Is(err, ErrStaleVersion) ||
		errors.Is(err, ErrAlreadyBatched) ||
		errors.Is(err, ErrAlreadyAssigned)
}

// IsBusinessRule reports whether err is a business-rule violation.
func IsBusinessRule(err error) bool {
	var mpd *MissingPayoutDestinationError
	var tr *TransitionError
	return errors.Is(err, ErrInvalidTenor) ||
		errors.Is(err, ErrNoPricingRule) ||
		errors.Is(err, ErrNegativeNetAmount) ||
		errors.Is(err, ErrMissingReason) ||
		errors.Is(err, ErrNoEligibleItems) ||
		errors.Is(err, ErrOfferAlreadyIssued) ||
		errors.Is(err, ErrNoActiveInvestments) ||
		errors.As(err, &mpd) ||
		errors.As(err, &tr)
}

// IsValidation reports whether err is a validation error.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
