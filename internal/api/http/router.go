package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"invofin-backend/internal/security"
	"invofin-backend/internal/service"
)

// Services bundles everything the HTTP layer serves.
type Services struct {
	Invoices   service.InvoiceService
	Offers     service.OfferService
	Deals      service.DealService
	Batches    service.FundingBatchService
	Repayments service.RepaymentService
	Profits    service.ProfitService
	Reviews    service.ReviewQueueService
	Audit      service.AuditService
}

// NewRouter builds the API router. Every route under /api/v1 requires a valid
// access token; mutating routes additionally pass the role policy.
func NewRouter(mw *AuthMiddleware, svcs Services, batchLimit int32) *mux.Router {
	root := mux.NewRouter()
	root.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods("GET")

	api := root.PathPrefix("/api/v1").Subrouter()
	api.Use(mw.Wrap)

	invoices := NewInvoiceHandler(svcs.Invoices)
	api.HandleFunc("/invoices", mw.Require(security.ActionSubmitInvoice, invoices.Submit)).Methods("POST")
	api.HandleFunc("/invoices", invoices.List).Methods("GET")
	api.HandleFunc("/invoices/{id}", invoices.Get).Methods("GET")

	offers := NewOfferHandler(svcs.Offers)
	api.HandleFunc("/offers", mw.Require(security.ActionIssueOffer, offers.Issue)).Methods("POST")
	api.HandleFunc("/offers/{id}", offers.Get).Methods("GET")
	api.HandleFunc("/offers/{id}/accept", mw.Require(security.ActionRespondOffer, offers.Accept)).Methods("POST")
	api.HandleFunc("/offers/{id}/decline", mw.Require(security.ActionRespondOffer, offers.Decline)).Methods("POST")

	batches := NewBatchHandler(svcs.Batches, batchLimit)
	api.HandleFunc("/funding-batches", mw.Require(security.ActionCreateBatch, batches.Create)).Methods("POST")
	api.HandleFunc("/funding-batches/{id}", batches.Get).Methods("GET")
	api.HandleFunc("/funding-batches/{id}/approve", mw.Require(security.ActionApproveBatch, batches.Approve)).Methods("POST")
	api.HandleFunc("/funding-batches/{id}/execute", mw.Require(security.ActionExecuteBatch, batches.Execute)).Methods("POST")

	repayments := NewRepaymentHandler(svcs.Repayments)
	api.HandleFunc("/repayments", mw.Require(security.ActionRecordRepayment, repayments.Record)).Methods("POST")
	api.HandleFunc("/repayments/{id}", repayments.Get).Methods("GET")

	deals := NewDealHandler(svcs.Deals)
	api.HandleFunc("/transactions", mw.Require(security.ActionManageDeals, deals.Create)).Methods("POST")
	api.HandleFunc("/transactions/{id}", deals.Get).Methods("GET")
	api.HandleFunc("/transactions/{id}/disburse", mw.Require(security.ActionManageDeals, deals.Disburse)).Methods("POST")
	api.HandleFunc("/transactions/{id}/end", mw.Require(security.ActionManageDeals, deals.End)).Methods("POST")
	api.HandleFunc("/transactions/{id}/investments", mw.Require(security.ActionManageDeals, deals.AddInvestment)).Methods("POST")
	api.HandleFunc("/transactions/{id}/expenses", mw.Require(security.ActionManageDeals, deals.AddExpense)).Methods("POST")

	profits := NewProfitHandler(svcs.Profits)
	api.HandleFunc("/transactions/{id}/profit-allocations", mw.Require(security.ActionAllocateProfit, profits.Allocate)).Methods("POST")
	api.HandleFunc("/transactions/{id}/profit-allocations", profits.List).Methods("GET")

	reviews := NewReviewHandler(svcs.Reviews)
	api.HandleFunc("/reviews", mw.Require(security.ActionEnqueueReview, reviews.Enqueue)).Methods("POST")
	api.HandleFunc("/reviews", reviews.List).Methods("GET")
	api.HandleFunc("/reviews/{id}/claim", mw.Require(security.ActionClaimReview, reviews.Claim)).Methods("POST")
	api.HandleFunc("/reviews/{id}/reassign", mw.Require(security.ActionClaimReview, reviews.Reassign)).Methods("POST")
	api.HandleFunc("/reviews/{id}/approve", mw.Require(security.ActionDecideReview, reviews.Approve)).Methods("POST")
	api.HandleFunc("/reviews/{id}/reject", mw.Require(security.ActionDecideReview, reviews.Reject)).Methods("POST")

	audit := NewAuditHandler(svcs.Audit)
	api.HandleFunc("/audit/{entityType}/{id}", mw.Require(security.ActionReadAudit, audit.ListByEntity)).Methods("GET")

	return root
}
