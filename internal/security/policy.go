package security

// Role names recognized by the policy.
const (
	RoleOps        = "ops"
	RoleReviewer   = "reviewer"
	RoleApprover   = "approver"
	RoleTreasury   = "treasury"
	RoleCollection = "collections"
	RoleAdmin      = "admin"
)

// Actions gated by the policy. Handlers ask the policy before invoking the
// service layer; the services trust the caller was already authorized.
const (
	ActionSubmitInvoice   = "invoice.submit"
	ActionIssueOffer      = "offer.issue"
	ActionRespondOffer    = "offer.respond"
	ActionCreateBatch     = "batch.create"
	ActionApproveBatch    = "batch.approve"
	ActionExecuteBatch    = "batch.execute"
	ActionRecordRepayment = "repayment.record"
	ActionManageDeals     = "deal.manage"
	ActionAllocateProfit  = "profit.allocate"
	ActionEnqueueReview   = "review.enqueue"
	ActionClaimReview     = "review.claim"
	ActionDecideReview    = "review.decide"
	ActionReadAudit       = "audit.read"
)

// Decision explains an authorization outcome; the reason goes into the audit
// trail for denials.
type Decision struct {
	Allowed bool
	Reason  string
}

// RolePolicy maps each action to the roles allowed to perform it. Admin is
// implicitly allowed everything.
type RolePolicy struct {
	allowed map[string][]string
}

func NewRolePolicy() *RolePolicy {
	return &RolePolicy{
		allowed: map[string][]string{
			ActionSubmitInvoice:   {RoleOps},
			ActionIssueOffer:      {RoleOps},
			ActionRespondOffer:    {RoleOps},
			ActionCreateBatch:     {RoleTreasury},
			ActionApproveBatch:    {RoleApprover, RoleTreasury},
			ActionExecuteBatch:    {RoleTreasury},
			ActionRecordRepayment: {RoleCollection, RoleOps},
			ActionManageDeals:     {RoleTreasury},
			ActionAllocateProfit:  {RoleTreasury},
			ActionEnqueueReview:   {RoleOps, RoleReviewer},
			ActionClaimReview:     {RoleReviewer},
			ActionDecideReview:    {RoleReviewer},
			ActionReadAudit:       {RoleOps, RoleReviewer, RoleApprover, RoleTreasury, RoleCollection},
		},
	}
}

func (p *RolePolicy) Authorize(actor Actor, action string) Decision {
	if actor.HasRole(RoleAdmin) {
		return Decision{Allowed: true}
	}
	roles, ok := p.allowed[action]
	if !ok {
		return Decision{Allowed: false, Reason: "unknown action"}
	}
	for _, role := range roles {
		if actor.HasRole(role) {
			return Decision{Allowed: true}
		}
	}
	return Decision{Allowed: false, Reason: "role not permitted for " + action}
}
