package service

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"invofin-backend/internal/domain"
	"invofin-backend/internal/repository"
)

// fakeStore is an in-memory stand-in for the postgres store. WithinTx
// snapshots all state up front and restores it when the closure errors, so
// rollback semantics match the real thing.
type fakeStore struct {
	clock time.Time

	invoices          map[int32]domain.Invoice
	offers            map[int32]domain.Offer
	fundings          map[int32]domain.Funding
	batches           map[int32]domain.FundingBatch
	expected          map[int32]domain.ExpectedRepayment
	received          map[int32]domain.ReceivedRepayment
	allocations       map[int32]domain.RepaymentAllocation
	transactions      map[int32]domain.Transaction
	investments       map[int32]domain.Investment
	expenses          map[int32]domain.Expense
	profitAllocations map[int32]domain.ProfitAllocation
	reviews           map[int32]domain.ReviewItem
	suppliers         map[int32]domain.Supplier
	buyers            map[int32]domain.Buyer
	payoutAccounts    map[int32]domain.PayoutAccount
	rules             []domain.PricingRule
	auditEvents       []domain.AuditEvent

	nextID int32
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		clock:             time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC),
		invoices:          map[int32]domain.Invoice{},
		offers:            map[int32]domain.Offer{},
		fundings:          map[int32]domain.Funding{},
		batches:           map[int32]domain.FundingBatch{},
		expected:          map[int32]domain.ExpectedRepayment{},
		received:          map[int32]domain.ReceivedRepayment{},
		allocations:       map[int32]domain.RepaymentAllocation{},
		transactions:      map[int32]domain.Transaction{},
		investments:       map[int32]domain.Investment{},
		expenses:          map[int32]domain.Expense{},
		profitAllocations: map[int32]domain.ProfitAllocation{},
		reviews:           map[int32]domain.ReviewItem{},
		suppliers:         map[int32]domain.Supplier{},
		buyers:            map[int32]domain.Buyer{},
		payoutAccounts:    map[int32]domain.PayoutAccount{},
	}
}

func (f *fakeStore) id() int32 {
	f.nextID++
	return f.nextID
}

func copyMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (f *fakeStore) snapshot() fakeStore {
	cp := *f
	cp.invoices = copyMap(f.invoices)
	cp.offers = copyMap(f.offers)
	cp.fundings = copyMap(f.fundings)
	cp.batches = copyMap(f.batches)
	cp.expected = copyMap(f.expected)
	cp.received = copyMap(f.received)
	cp.allocations = copyMap(f.allocations)
	cp.transactions = copyMap(f.transactions)
	cp.investments = copyMap(f.investments)
	cp.expenses = copyMap(f.expenses)
	cp.profitAllocations = copyMap(f.profitAllocations)
	cp.reviews = copyMap(f.reviews)
	cp.suppliers = copyMap(f.suppliers)
	cp.buyers = copyMap(f.buyers)
	cp.payoutAccounts = copyMap(f.payoutAccounts)
	cp.rules = append([]domain.PricingRule(nil), f.rules...)
	cp.auditEvents = append([]domain.AuditEvent(nil), f.auditEvents...)
	return cp
}

func (f *fakeStore) WithinTx(ctx context.Context, fn func(tx repository.Tx) error) error {
	saved := f.snapshot()
	if err := fn(f); err != nil {
		*f = saved
		return err
	}
	return nil
}

func (f *fakeStore) Invoices() repository.InvoiceRepository         { return &fakeInvoiceRepo{f} }
func (f *fakeStore) Offers() repository.OfferRepository             { return &fakeOfferRepo{f} }
func (f *fakeStore) Fundings() repository.FundingRepository         { return &fakeFundingRepo{f} }
func (f *fakeStore) Batches() repository.FundingBatchRepository     { return &fakeBatchRepo{f} }
func (f *fakeStore) Repayments() repository.RepaymentRepository     { return &fakeRepaymentRepo{f} }
func (f *fakeStore) Deals() repository.DealRepository               { return &fakeDealRepo{f} }
func (f *fakeStore) Reviews() repository.ReviewRepository           { return &fakeReviewRepo{f} }
func (f *fakeStore) Parties() repository.PartyRepository            { return &fakePartyRepo{f} }
func (f *fakeStore) PricingRules() repository.PricingRuleRepository { return &fakeRuleRepo{f} }
func (f *fakeStore) Audit() repository.AuditRepository              { return &fakeAuditRepo{f} }

func (f *fakeStore) auditActions(entityType string, entityID int32) []string {
	var out []string
	for _, ev := range f.auditEvents {
		if ev.EntityType == entityType && ev.EntityID == entityID {
			out = append(out, ev.Action)
		}
	}
	return out
}

// Seed helpers keep test setup terse.

func (f *fakeStore) seedSupplier(s domain.Supplier) domain.Supplier {
	if s.ID == 0 {
		s.ID = f.id()
	}
	f.suppliers[s.ID] = s
	return s
}

func (f *fakeStore) seedBuyer(b domain.Buyer) domain.Buyer {
	if b.ID == 0 {
		b.ID = f.id()
	}
	f.buyers[b.ID] = b
	return b
}

func (f *fakeStore) seedInvoice(inv domain.Invoice) domain.Invoice {
	if inv.ID == 0 {
		inv.ID = f.id()
	}
	if inv.Version == 0 {
		inv.Version = 1
	}
	f.invoices[inv.ID] = inv
	return inv
}

func (f *fakeStore) seedOffer(o domain.Offer) domain.Offer {
	if o.ID == 0 {
		o.ID = f.id()
	}
	f.offers[o.ID] = o
	return o
}

func (f *fakeStore) seedFunding(fd domain.Funding) domain.Funding {
	if fd.ID == 0 {
		fd.ID = f.id()
	}
	f.fundings[fd.ID] = fd
	return fd
}

func (f *fakeStore) seedExpected(e domain.ExpectedRepayment) domain.ExpectedRepayment {
	if e.ID == 0 {
		e.ID = f.id()
	}
	f.expected[e.ID] = e
	return e
}

func (f *fakeStore) seedPayoutAccount(a domain.PayoutAccount) domain.PayoutAccount {
	if a.ID == 0 {
		a.ID = f.id()
	}
	f.payoutAccounts[a.ID] = a
	return a
}

func (f *fakeStore) seedTransaction(t domain.Transaction) domain.Transaction {
	if t.ID == 0 {
		t.ID = f.id()
	}
	f.transactions[t.ID] = t
	return t
}

func (f *fakeStore) seedInvestment(inv domain.Investment) domain.Investment {
	if inv.ID == 0 {
		inv.ID = f.id()
	}
	f.investments[inv.ID] = inv
	return inv
}

func (f *fakeStore) seedExpense(e domain.Expense) domain.Expense {
	if e.ID == 0 {
		e.ID = f.id()
	}
	f.expenses[e.ID] = e
	return e
}

func (f *fakeStore) seedReviewItem(item domain.ReviewItem) domain.ReviewItem {
	if item.ID == 0 {
		item.ID = f.id()
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = f.clock
	}
	f.reviews[item.ID] = item
	return item
}

// --- invoices ---

type fakeInvoiceRepo struct{ s *fakeStore }

func (r *fakeInvoiceRepo) Create(ctx context.Context, inv *domain.Invoice) error {
	inv.ID = r.s.id()
	inv.Version = 1
	inv.CreatedAt = r.s.clock
	inv.UpdatedAt = r.s.clock
	r.s.invoices[inv.ID] = *inv
	return nil
}

func (r *fakeInvoiceRepo) GetByID(ctx context.Context, id int32) (*domain.Invoice, error) {
	inv, ok := r.s.invoices[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &inv, nil
}

func (r *fakeInvoiceRepo) GetByIDForUpdate(ctx context.Context, id int32) (*domain.Invoice, error) {
	return r.GetByID(ctx, id)
}

func (r *fakeInvoiceRepo) Update(ctx context.Context, inv *domain.Invoice) error {
	stored, ok := r.s.invoices[inv.ID]
	if !ok || stored.Version != inv.Version {
		return domain.ErrStaleVersion
	}
	inv.Version++
	inv.UpdatedAt = r.s.clock
	r.s.invoices[inv.ID] = *inv
	return nil
}

func (r *fakeInvoiceRepo) ListByStatus(ctx context.Context, status domain.InvoiceStatus, page, pageSize int32) ([]domain.Invoice, int32, error) {
	var out []domain.Invoice
	for _, inv := range r.s.invoices {
		if inv.Status == status {
			out = append(out, inv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int32(len(out)), nil
}

func (r *fakeInvoiceRepo) ListBySupplier(ctx context.Context, supplierID int32, page, pageSize int32) ([]domain.Invoice, int32, error) {
	var out []domain.Invoice
	for _, inv := range r.s.invoices {
		if inv.SupplierID == supplierID {
			out = append(out, inv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int32(len(out)), nil
}

// --- offers ---

type fakeOfferRepo struct{ s *fakeStore }

func (r *fakeOfferRepo) Create(ctx context.Context, offer *domain.Offer) error {
	offer.ID = r.s.id()
	r.s.offers[offer.ID] = *offer
	return nil
}

func (r *fakeOfferRepo) GetByID(ctx context.Context, id int32) (*domain.Offer, error) {
	offer, ok := r.s.offers[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &offer, nil
}

func (r *fakeOfferRepo) GetByIDForUpdate(ctx context.Context, id int32) (*domain.Offer, error) {
	return r.GetByID(ctx, id)
}

func (r *fakeOfferRepo) GetActiveByInvoice(ctx context.Context, invoiceID int32) (*domain.Offer, error) {
	for _, offer := range r.s.offers {
		if offer.InvoiceID == invoiceID && offer.Status == domain.OfferStatusIssued && offer.ExpiresAt.After(r.s.clock) {
			o := offer
			return &o, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *fakeOfferRepo) Update(ctx context.Context, offer *domain.Offer) error {
	if _, ok := r.s.offers[offer.ID]; !ok {
		return domain.ErrNotFound
	}
	r.s.offers[offer.ID] = *offer
	return nil
}

func (r *fakeOfferRepo) ListExpiredIssued(ctx context.Context, asOf time.Time) ([]domain.Offer, error) {
	var out []domain.Offer
	for _, offer := range r.s.offers {
		if offer.Status == domain.OfferStatusIssued && !offer.ExpiresAt.After(asOf) {
			out = append(out, offer)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// --- fundings ---

type fakeFundingRepo struct{ s *fakeStore }

func (r *fakeFundingRepo) Create(ctx context.Context, fd *domain.Funding) error {
	fd.ID = r.s.id()
	fd.CreatedAt = r.s.clock
	r.s.fundings[fd.ID] = *fd
	return nil
}

func (r *fakeFundingRepo) GetByID(ctx context.Context, id int32) (*domain.Funding, error) {
	fd, ok := r.s.fundings[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &fd, nil
}

func (r *fakeFundingRepo) Update(ctx context.Context, fd *domain.Funding) error {
	if _, ok := r.s.fundings[fd.ID]; !ok {
		return domain.ErrNotFound
	}
	r.s.fundings[fd.ID] = *fd
	return nil
}

func (r *fakeFundingRepo) ListQueuedUnbatched(ctx context.Context, limit int32) ([]domain.Funding, error) {
	var out []domain.Funding
	for _, fd := range r.s.fundings {
		if fd.Status == domain.FundingStatusQueued && fd.BatchID == nil {
			out = append(out, fd)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if limit > 0 && int32(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeFundingRepo) ClaimForBatch(ctx context.Context, fundingIDs []int32, batchID int32) (int64, error) {
	var claimed int64
	for _, id := range fundingIDs {
		fd, ok := r.s.fundings[id]
		if !ok || fd.Status != domain.FundingStatusQueued || fd.BatchID != nil {
			continue
		}
		fd.Status = domain.FundingStatusValidated
		fd.BatchID = &batchID
		r.s.fundings[id] = fd
		claimed++
	}
	return claimed, nil
}

func (r *fakeFundingRepo) ListByBatch(ctx context.Context, batchID int32) ([]domain.Funding, error) {
	var out []domain.Funding
	for _, fd := range r.s.fundings {
		if fd.BatchID != nil && *fd.BatchID == batchID {
			out = append(out, fd)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// --- batches ---

type fakeBatchRepo struct{ s *fakeStore }

func (r *fakeBatchRepo) Create(ctx context.Context, b *domain.FundingBatch) error {
	b.ID = r.s.id()
	b.CreatedAt = r.s.clock
	r.s.batches[b.ID] = *b
	return nil
}

func (r *fakeBatchRepo) GetByID(ctx context.Context, id int32) (*domain.FundingBatch, error) {
	b, ok := r.s.batches[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &b, nil
}

func (r *fakeBatchRepo) GetByIDForUpdate(ctx context.Context, id int32) (*domain.FundingBatch, error) {
	return r.GetByID(ctx, id)
}

func (r *fakeBatchRepo) Update(ctx context.Context, b *domain.FundingBatch) error {
	if _, ok := r.s.batches[b.ID]; !ok {
		return domain.ErrNotFound
	}
	r.s.batches[b.ID] = *b
	return nil
}

// --- repayments ---

type fakeRepaymentRepo struct{ s *fakeStore }

func (r *fakeRepaymentRepo) CreateExpected(ctx context.Context, e *domain.ExpectedRepayment) error {
	e.ID = r.s.id()
	e.CreatedAt = r.s.clock
	r.s.expected[e.ID] = *e
	return nil
}

func (r *fakeRepaymentRepo) GetExpectedByID(ctx context.Context, id int32) (*domain.ExpectedRepayment, error) {
	e, ok := r.s.expected[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &e, nil
}

func (r *fakeRepaymentRepo) ListUnsettledByBuyer(ctx context.Context, buyerID int32) ([]domain.ExpectedRepayment, error) {
	var out []domain.ExpectedRepayment
	for _, e := range r.s.expected {
		if e.BuyerID == buyerID && e.Status != domain.ExpectedRepaymentStatusSettled {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DueDate.Equal(out[j].DueDate) {
			return out[i].ID < out[j].ID
		}
		return out[i].DueDate.Before(out[j].DueDate)
	})
	return out, nil
}

func (r *fakeRepaymentRepo) ListExpectedByInvoice(ctx context.Context, invoiceID int32) ([]domain.ExpectedRepayment, error) {
	var out []domain.ExpectedRepayment
	for _, e := range r.s.expected {
		if e.InvoiceID == invoiceID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeRepaymentRepo) UpdateExpectedStatus(ctx context.Context, id int32, status domain.ExpectedRepaymentStatus) error {
	e, ok := r.s.expected[id]
	if !ok {
		return domain.ErrNotFound
	}
	e.Status = status
	r.s.expected[id] = e
	return nil
}

func (r *fakeRepaymentRepo) ListOverdueCandidates(ctx context.Context, asOf time.Time) ([]domain.ExpectedRepayment, error) {
	var out []domain.ExpectedRepayment
	for _, e := range r.s.expected {
		if e.DueDate.Before(asOf) &&
			(e.Status == domain.ExpectedRepaymentStatusOpen || e.Status == domain.ExpectedRepaymentStatusPartial) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeRepaymentRepo) CreateReceived(ctx context.Context, rec *domain.ReceivedRepayment) error {
	rec.ID = r.s.id()
	rec.CreatedAt = r.s.clock
	r.s.received[rec.ID] = *rec
	return nil
}

func (r *fakeRepaymentRepo) GetReceivedByID(ctx context.Context, id int32) (*domain.ReceivedRepayment, error) {
	rec, ok := r.s.received[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &rec, nil
}

func (r *fakeRepaymentRepo) GetReceivedByIDForUpdate(ctx context.Context, id int32) (*domain.ReceivedRepayment, error) {
	return r.GetReceivedByID(ctx, id)
}

func (r *fakeRepaymentRepo) UpdateReceivedAmounts(ctx context.Context, id int32, allocated, unallocated decimal.Decimal) error {
	rec, ok := r.s.received[id]
	if !ok {
		return domain.ErrNotFound
	}
	rec.AllocatedAmount = allocated
	rec.UnallocatedAmount = unallocated
	r.s.received[id] = rec
	return nil
}

func (r *fakeRepaymentRepo) CreateAllocation(ctx context.Context, a *domain.RepaymentAllocation) error {
	a.ID = r.s.id()
	a.CreatedAt = r.s.clock
	r.s.allocations[a.ID] = *a
	return nil
}

func (r *fakeRepaymentRepo) SumAllocationsByExpected(ctx context.Context, expectedID int32) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, a := range r.s.allocations {
		if a.ExpectedID == expectedID {
			sum = sum.Add(a.Amount)
		}
	}
	return sum, nil
}

func (r *fakeRepaymentRepo) ListAllocationsByReceived(ctx context.Context, receivedID int32) ([]domain.RepaymentAllocation, error) {
	var out []domain.RepaymentAllocation
	for _, a := range r.s.allocations {
		if a.ReceivedID == receivedID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// --- deals ---

type fakeDealRepo struct{ s *fakeStore }

func (r *fakeDealRepo) CreateTransaction(ctx context.Context, t *domain.Transaction) error {
	t.ID = r.s.id()
	t.CreatedAt = r.s.clock
	r.s.transactions[t.ID] = *t
	return nil
}

func (r *fakeDealRepo) GetTransactionByID(ctx context.Context, id int32) (*domain.Transaction, error) {
	t, ok := r.s.transactions[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &t, nil
}

func (r *fakeDealRepo) GetTransactionByIDForUpdate(ctx context.Context, id int32) (*domain.Transaction, error) {
	return r.GetTransactionByID(ctx, id)
}

func (r *fakeDealRepo) UpdateTransactionStatus(ctx context.Context, id int32, status domain.DealStatus) error {
	t, ok := r.s.transactions[id]
	if !ok {
		return domain.ErrNotFound
	}
	t.Status = status
	r.s.transactions[id] = t
	return nil
}

func (r *fakeDealRepo) CreateInvestment(ctx context.Context, inv *domain.Investment) error {
	inv.ID = r.s.id()
	r.s.investments[inv.ID] = *inv
	return nil
}

func (r *fakeDealRepo) ListActiveInvestments(ctx context.Context, transactionID int32) ([]domain.Investment, error) {
	var out []domain.Investment
	for _, inv := range r.s.investments {
		if inv.TransactionID != nil && *inv.TransactionID == transactionID && inv.Status == domain.InvestmentStatusActive {
			out = append(out, inv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeDealRepo) CreateExpense(ctx context.Context, e *domain.Expense) error {
	e.ID = r.s.id()
	e.CreatedAt = r.s.clock
	r.s.expenses[e.ID] = *e
	return nil
}

func (r *fakeDealRepo) SumApprovedExpenses(ctx context.Context, transactionID int32) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, e := range r.s.expenses {
		if e.TransactionID == transactionID && e.Status == domain.ExpenseStatusApproved {
			sum = sum.Add(e.Amount)
		}
	}
	return sum, nil
}

func (r *fakeDealRepo) ReplaceProfitAllocations(ctx context.Context, transactionID int32, rows []domain.ProfitAllocation) error {
	for id, a := range r.s.profitAllocations {
		if a.TransactionID == transactionID {
			delete(r.s.profitAllocations, id)
		}
	}
	for i := range rows {
		rows[i].ID = r.s.id()
		rows[i].TransactionID = transactionID
		rows[i].AllocatedAt = r.s.clock
		r.s.profitAllocations[rows[i].ID] = rows[i]
	}
	return nil
}

func (r *fakeDealRepo) ListProfitAllocations(ctx context.Context, transactionID int32) ([]domain.ProfitAllocation, error) {
	var out []domain.ProfitAllocation
	for _, a := range r.s.profitAllocations {
		if a.TransactionID == transactionID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// --- reviews ---

type fakeReviewRepo struct{ s *fakeStore }

func (r *fakeReviewRepo) Create(ctx context.Context, item *domain.ReviewItem) error {
	item.ID = r.s.id()
	item.CreatedAt = r.s.clock
	r.s.reviews[item.ID] = *item
	return nil
}

func (r *fakeReviewRepo) GetByID(ctx context.Context, id int32) (*domain.ReviewItem, error) {
	item, ok := r.s.reviews[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &item, nil
}

func (r *fakeReviewRepo) GetByIDForUpdate(ctx context.Context, id int32) (*domain.ReviewItem, error) {
	return r.GetByID(ctx, id)
}

func (r *fakeReviewRepo) Update(ctx context.Context, item *domain.ReviewItem) error {
	if _, ok := r.s.reviews[item.ID]; !ok {
		return domain.ErrNotFound
	}
	r.s.reviews[item.ID] = *item
	return nil
}

func (r *fakeReviewRepo) List(ctx context.Context, filter domain.ReviewFilter) ([]domain.ReviewItem, error) {
	var out []domain.ReviewItem
	for _, item := range r.s.reviews {
		if filter.Kind != "" && item.Kind != filter.Kind {
			continue
		}
		if filter.Status != "" && item.Status != filter.Status {
			continue
		}
		if filter.AssignedTo != nil && (item.AssignedTo == nil || *item.AssignedTo != *filter.AssignedTo) {
			continue
		}
		if filter.MinAge > 0 && r.s.clock.Sub(item.CreatedAt) < filter.MinAge {
			continue
		}
		if filter.VIPOnly && !item.VIP {
			continue
		}
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].VIP != out[j].VIP {
			return out[i].VIP
		}
		if out[i].Priority != out[j].Priority {
			return out[i].Priority > out[j].Priority
		}
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// --- parties ---

type fakePartyRepo struct{ s *fakeStore }

func (r *fakePartyRepo) GetSupplier(ctx context.Context, id int32) (*domain.Supplier, error) {
	s, ok := r.s.suppliers[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &s, nil
}

func (r *fakePartyRepo) GetBuyer(ctx context.Context, id int32) (*domain.Buyer, error) {
	b, ok := r.s.buyers[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &b, nil
}

func (r *fakePartyRepo) UpdateSupplierKYB(ctx context.Context, supplierID int32, status domain.KYBStatus) error {
	s, ok := r.s.suppliers[supplierID]
	if !ok {
		return domain.ErrNotFound
	}
	s.KYBStatus = status
	r.s.suppliers[supplierID] = s
	return nil
}

func (r *fakePartyRepo) GetPayoutAccount(ctx context.Context, supplierID int32) (*domain.PayoutAccount, error) {
	for _, acct := range r.s.payoutAccounts {
		if acct.SupplierID == supplierID {
			a := acct
			return &a, nil
		}
	}
	return nil, domain.ErrNotFound
}

// --- pricing rules ---

type fakeRuleRepo struct{ s *fakeStore }

func (r *fakeRuleRepo) ListActive(ctx context.Context) ([]domain.PricingRule, error) {
	var out []domain.PricingRule
	for _, rule := range r.s.rules {
		if rule.Active {
			out = append(out, rule)
		}
	}
	return out, nil
}

// --- audit ---

type fakeAuditRepo struct{ s *fakeStore }

func (r *fakeAuditRepo) Record(ctx context.Context, ev *domain.AuditEvent) error {
	ev.ID = int64(len(r.s.auditEvents) + 1)
	ev.CreatedAt = r.s.clock
	r.s.auditEvents = append(r.s.auditEvents, *ev)
	return nil
}

func (r *fakeAuditRepo) ListByEntity(ctx context.Context, entityType string, entityID int32, page, pageSize int32) ([]domain.AuditEvent, int32, error) {
	var out []domain.AuditEvent
	for _, ev := range r.s.auditEvents {
		if ev.EntityType == entityType && ev.EntityID == entityID {
			out = append(out, ev)
		}
	}
	return out, int32(len(out)), nil
}
