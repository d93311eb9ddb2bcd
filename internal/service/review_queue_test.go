package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invofin-backend/internal/domain"
	"invofin-backend/internal/security"
)

type recordingNotifier struct {
	sent []struct{ To, Subject, Body string }
}

func (n *recordingNotifier) Send(ctx context.Context, to, subject, body string) error {
	n.sent = append(n.sent, struct{ To, Subject, Body string }{to, subject, body})
	return nil
}

func newReviewFixture(t *testing.T, exclusive bool) (*fakeStore, ReviewQueueService, *recordingNotifier) {
	t.Helper()
	store := newFakeStore()
	notifier := &recordingNotifier{}
	svc := NewReviewQueueService(store, store.Reviews(), store.Parties(), notifier, exclusive)
	return store, svc, notifier
}

func TestReviewClaim(t *testing.T) {
	alice := actorCtx(41, security.RoleReviewer)
	bob := actorCtx(42, security.RoleReviewer)

	t.Run("claim assigns the reviewer", func(t *testing.T) {
		store, svc, _ := newReviewFixture(t, true)
		item := store.seedReviewItem(domain.ReviewItem{
			Kind: domain.ReviewKindCollectionsCase, SubjectID: 1, Status: domain.ReviewStatusPendingReview,
		})

		claimed, err := svc.Claim(alice, item.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.ReviewStatusUnderReview, claimed.Status)
		require.NotNil(t, claimed.AssignedTo)
		assert.Equal(t, int32(41), *claimed.AssignedTo)
	})

	t.Run("claiming your own item again is a no-op", func(t *testing.T) {
		store, svc, _ := newReviewFixture(t, true)
		item := store.seedReviewItem(domain.ReviewItem{
			Kind: domain.ReviewKindCollectionsCase, SubjectID: 1, Status: domain.ReviewStatusPendingReview,
		})

		_, err := svc.Claim(alice, item.ID)
		require.NoError(t, err)
		again, err := svc.Claim(alice, item.ID)
		require.NoError(t, err)
		assert.Equal(t, int32(41), *again.AssignedTo)
	})

	t.Run("exclusive claims block other reviewers", func(t *testing.T) {
		store, svc, _ := newReviewFixture(t, true)
		item := store.seedReviewItem(domain.ReviewItem{
			Kind: domain.ReviewKindCollectionsCase, SubjectID: 1, Status: domain.ReviewStatusPendingReview,
		})

		_, err := svc.Claim(alice, item.ID)
		require.NoError(t, err)
		_, err = svc.Claim(bob, item.ID)
		assert.ErrorIs(t, err, domain.ErrAlreadyAssigned)
		assert.Equal(t, int32(41), *store.reviews[item.ID].AssignedTo)
	})

	t.Run("reassign overrides an exclusive claim", func(t *testing.T) {
		store, svc, _ := newReviewFixture(t, true)
		item := store.seedReviewItem(domain.ReviewItem{
			Kind: domain.ReviewKindCollectionsCase, SubjectID: 1, Status: domain.ReviewStatusPendingReview,
		})

		_, err := svc.Claim(alice, item.ID)
		require.NoError(t, err)
		reassigned, err := svc.Reassign(alice, item.ID, 42)
		require.NoError(t, err)
		assert.Equal(t, int32(42), *reassigned.AssignedTo)

		// The new holder can decide.
		_, err = svc.Approve(bob, item.ID, "done")
		require.NoError(t, err)
	})

	t.Run("non-exclusive claims transfer", func(t *testing.T) {
		store, svc, _ := newReviewFixture(t, false)
		item := store.seedReviewItem(domain.ReviewItem{
			Kind: domain.ReviewKindCollectionsCase, SubjectID: 1, Status: domain.ReviewStatusPendingReview,
		})

		_, err := svc.Claim(alice, item.ID)
		require.NoError(t, err)
		claimed, err := svc.Claim(bob, item.ID)
		require.NoError(t, err)
		assert.Equal(t, int32(42), *claimed.AssignedTo)
	})
}

func TestReviewDecisions(t *testing.T) {
	alice := actorCtx(41, security.RoleReviewer)
	bob := actorCtx(42, security.RoleReviewer)

	t.Run("reject requires a reason", func(t *testing.T) {
		store, svc, _ := newReviewFixture(t, true)
		item := store.seedReviewItem(domain.ReviewItem{
			Kind: domain.ReviewKindCollectionsCase, SubjectID: 1, Status: domain.ReviewStatusPendingReview,
		})
		_, err := svc.Claim(alice, item.ID)
		require.NoError(t, err)

		_, err = svc.Reject(alice, item.ID, "")
		assert.ErrorIs(t, err, domain.ErrMissingReason)
	})

	t.Run("only the assignee can decide", func(t *testing.T) {
		store, svc, _ := newReviewFixture(t, true)
		item := store.seedReviewItem(domain.ReviewItem{
			Kind: domain.ReviewKindCollectionsCase, SubjectID: 1, Status: domain.ReviewStatusPendingReview,
		})
		_, err := svc.Claim(alice, item.ID)
		require.NoError(t, err)

		_, err = svc.Approve(bob, item.ID, "looks fine")
		assert.ErrorIs(t, err, domain.ErrAlreadyAssigned)
	})

	t.Run("approving a KYB document approves the supplier and notifies them", func(t *testing.T) {
		store, svc, notifier := newReviewFixture(t, true)
		supplier := store.seedSupplier(domain.Supplier{Name: "Acme", KYBStatus: domain.KYBStatusPending, Email: "kyb@acme.test"})
		item := store.seedReviewItem(domain.ReviewItem{
			Kind: domain.ReviewKindKYBDocument, SubjectID: supplier.ID, SupplierID: &supplier.ID,
			Status: domain.ReviewStatusPendingReview,
		})
		_, err := svc.Claim(alice, item.ID)
		require.NoError(t, err)

		decided, err := svc.Approve(alice, item.ID, "documents verified")
		require.NoError(t, err)
		assert.Equal(t, domain.ReviewStatusApproved, decided.Status)
		assert.Equal(t, domain.KYBStatusApproved, store.suppliers[supplier.ID].KYBStatus)

		require.Len(t, notifier.sent, 1)
		assert.Equal(t, "kyb@acme.test", notifier.sent[0].To)
	})

	t.Run("rejecting a KYB document rejects the supplier", func(t *testing.T) {
		store, svc, notifier := newReviewFixture(t, true)
		supplier := store.seedSupplier(domain.Supplier{Name: "Acme", KYBStatus: domain.KYBStatusPending, Email: "kyb@acme.test"})
		item := store.seedReviewItem(domain.ReviewItem{
			Kind: domain.ReviewKindKYBDocument, SubjectID: supplier.ID, SupplierID: &supplier.ID,
			Status: domain.ReviewStatusPendingReview,
		})
		_, err := svc.Claim(alice, item.ID)
		require.NoError(t, err)

		_, err = svc.Reject(alice, item.ID, "registration certificate expired")
		require.NoError(t, err)
		assert.Equal(t, domain.KYBStatusRejected, store.suppliers[supplier.ID].KYBStatus)
		require.Len(t, notifier.sent, 1)
		assert.Contains(t, notifier.sent[0].Body, "registration certificate expired")
	})

	t.Run("invoice review decision moves the invoice", func(t *testing.T) {
		store, svc, _ := newReviewFixture(t, true)
		invoice := store.seedInvoice(domain.Invoice{
			Number: "INV-9", SupplierID: 1, BuyerID: 2,
			Amount: dec("4000"), DueDate: store.clock.AddDate(0, 0, 45),
			Status: domain.InvoiceStatusUnderReview,
		})
		item := store.seedReviewItem(domain.ReviewItem{
			Kind: domain.ReviewKindInvoice, SubjectID: invoice.ID, Status: domain.ReviewStatusPendingReview,
		})
		_, err := svc.Claim(alice, item.ID)
		require.NoError(t, err)

		_, err = svc.Approve(alice, item.ID, "")
		require.NoError(t, err)
		assert.Equal(t, domain.InvoiceStatusApproved, store.invoices[invoice.ID].Status)
	})
}

func TestReviewQueueOrdering(t *testing.T) {
	store, svc, _ := newReviewFixture(t, true)

	plain := store.seedReviewItem(domain.ReviewItem{
		Kind: domain.ReviewKindInvoice, SubjectID: 1, Status: domain.ReviewStatusPendingReview, Priority: 5,
	})
	vip := store.seedReviewItem(domain.ReviewItem{
		Kind: domain.ReviewKindInvoice, SubjectID: 2, Status: domain.ReviewStatusPendingReview, Priority: 1, VIP: true,
	})
	urgent := store.seedReviewItem(domain.ReviewItem{
		Kind: domain.ReviewKindInvoice, SubjectID: 3, Status: domain.ReviewStatusPendingReview, Priority: 9,
	})

	items, err := svc.List(context.Background(), domain.ReviewFilter{Status: domain.ReviewStatusPendingReview})
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, vip.ID, items[0].ID)
	assert.Equal(t, urgent.ID, items[1].ID)
	assert.Equal(t, plain.ID, items[2].ID)
}

func TestEnqueue(t *testing.T) {
	ctx := actorCtx(41, security.RoleReviewer)

	store, svc, _ := newReviewFixture(t, true)
	supplier := store.seedSupplier(domain.Supplier{Name: "Lux Trading", Grade: domain.GradeVIP, KYBStatus: domain.KYBStatusPending, Email: "lux@test"})

	item, err := svc.Enqueue(ctx, domain.ReviewKindKYBDocument, supplier.ID, &supplier.ID, 3)
	require.NoError(t, err)
	assert.True(t, item.VIP)
	assert.Equal(t, domain.ReviewStatusPendingReview, item.Status)
	assert.Equal(t, []string{"review.enqueued"}, store.auditActions(domain.EntityReviewItem, item.ID))
}
