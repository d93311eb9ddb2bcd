package main

import (
	"database/sql"
	"flag"
	"log"
	"net/http"
	"time"

	_ "github.com/lib/pq"

	httpapi "invofin-backend/internal/api/http"
	"invofin-backend/internal/config"
	"invofin-backend/internal/logger"
	"invofin-backend/internal/pricing"
	"invofin-backend/internal/repository/postgres"
	"invofin-backend/internal/security"
	"invofin-backend/internal/service"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting Invofin Backend...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("Server configuration", "address", cfg.GetServerAddress())
	logger.Info("Database configuration", "host", cfg.Database.Host, "port", cfg.Database.Port, "database", cfg.Database.Database, "user", cfg.Database.User)

	// Initialize Database
	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Test database connection
	if err := db.Ping(); err != nil {
		logger.Error("Failed to ping database", "error", err)
		log.Fatalf("Failed to ping database: %v", err)
	}
	logger.Info("Database connection established")

	// Initialize Repositories
	store := postgres.NewStore(db)

	// Initialize Security
	tokenManager := security.NewTokenManager(cfg.JWT.Secret, time.Duration(cfg.JWT.AccessTokenExpiry)*time.Minute)
	policy := security.NewRolePolicy()

	// Initialize Notifier
	var notifier service.Notifier
	if cfg.SendGrid.APIKey == "" {
		logger.Info("SendGrid not configured, outbound notifications disabled")
		notifier = service.NewNoopNotifier()
	} else {
		notifier = service.NewSendGridNotifier(cfg.SendGrid.APIKey, cfg.SendGrid.FromEmail, cfg.SendGrid.FromName)
	}

	// Initialize Pricing Engine
	engine := pricing.NewEngine(
		config.PricingDecimal(cfg.Pricing.VIPAdjustment),
		config.PricingDecimal(cfg.Pricing.AdminFeeFlat),
		config.PricingDecimal(cfg.Pricing.AdminFeePct),
	)

	// Initialize Services
	invoiceSvc := service.NewInvoiceService(store, store.InvoiceRepository)
	offerSvc := service.NewOfferService(
		store,
		store.OfferRepository,
		engine,
		config.PricingDecimal(cfg.Pricing.ReferenceRate),
		time.Duration(cfg.Pricing.OfferExpiryHours)*time.Hour,
	)
	batchSvc := service.NewFundingBatchService(store, store.FundingBatchRepository, store.FundingRepository)
	repaymentSvc := service.NewRepaymentService(store, store.RepaymentRepository)
	dealSvc := service.NewDealService(store, store.DealRepository)
	profitSvc := service.NewProfitService(store, store.DealRepository, cfg.Profit.Formula)
	reviewSvc := service.NewReviewQueueService(
		store,
		store.ReviewRepository,
		store.PartyRepository,
		notifier,
		cfg.Review.ExclusiveClaims,
	)
	auditSvc := service.NewAuditService(store.AuditRepository)

	// Set up HTTP server
	mw := httpapi.NewAuthMiddleware(tokenManager, policy)
	router := httpapi.NewRouter(mw, httpapi.Services{
		Invoices:   invoiceSvc,
		Offers:     offerSvc,
		Deals:      dealSvc,
		Batches:    batchSvc,
		Repayments: repaymentSvc,
		Profits:    profitSvc,
		Reviews:    reviewSvc,
		Audit:      auditSvc,
	}, int32(cfg.Funding.BatchSizeLimit))

	srv := &http.Server{
		Addr:              cfg.GetServerAddress(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("HTTP server listening", "address", cfg.GetServerAddress())
	if err := srv.ListenAndServe(); err != nil {
		logger.Error("Failed to serve HTTP", "error", err)
		log.Fatalf("Failed to serve: %v", err)
	}
}
