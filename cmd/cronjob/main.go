package main

import (
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"invofin-backend/internal/config"
	"invofin-backend/internal/jobs"
	"invofin-backend/internal/logger"
	"invofin-backend/internal/pricing"
	"invofin-backend/internal/repository/postgres"
	"invofin-backend/internal/scheduler"
	"invofin-backend/internal/service"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	runOnce := flag.String("run-once", "", "Run a specific job once and exit (e.g., 'expire-offers', 'mark-overdue-repayments', 'all-nightly')")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting Invofin Cronjob Runner...", "log_level", cfg.Log.Level)

	// Initialize Database
	logger.Info("Connecting to database...", "host", cfg.Database.Host, "port", cfg.Database.Port)
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

	// Initialize Services
	engine := pricing.NewEngine(
		config.PricingDecimal(cfg.Pricing.VIPAdjustment),
		config.PricingDecimal(cfg.Pricing.AdminFeeFlat),
		config.PricingDecimal(cfg.Pricing.AdminFeePct),
	)
	offerService := service.NewOfferService(
		store,
		store.OfferRepository,
		engine,
		config.PricingDecimal(cfg.Pricing.ReferenceRate),
		time.Duration(cfg.Pricing.OfferExpiryHours)*time.Hour,
	)
	repaymentService := service.NewRepaymentService(store, store.RepaymentRepository)

	jobServices := &jobs.Services{
		Offers:     offerService,
		Repayments: repaymentService,
	}

	// Initialize Job Runner
	jobRunner := jobs.NewJobRunner(db, store, jobServices, cfg)

	// Check if running a single job
	if *runOnce != "" {
		logger.Info("Running job once", "job", *runOnce)
		runJobOnce(jobRunner, *runOnce)
		logger.Info("Job execution completed", "job", *runOnce)
		return
	}

	// Initialize Scheduler
	cronScheduler := scheduler.NewScheduler(jobRunner)

	// Start scheduler
	cronScheduler.Start()
	logger.Info("Cronjob scheduler is running. Press Ctrl+C to stop.")

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	// Graceful shutdown
	logger.Info("Shutting down cronjob scheduler...")
	cronScheduler.Stop()
	logger.Info("Cronjob scheduler stopped. Goodbye!")
}

// runJobOnce runs a specific job once and exits
func runJobOnce(jobRunner *jobs.JobRunner, jobName string) {
	switch jobName {
	case "expire-offers":
		jobRunner.ExpireOffers()
	case "mark-overdue-repayments":
		jobRunner.MarkOverdueRepayments()
	case "all-nightly":
		jobRunner.RunAllNightlyJobs()
	default:
		logger.Error("Unknown job name", "job", jobName)
		fmt.Printf("Available jobs:\n")
		fmt.Printf("  - expire-offers\n")
		fmt.Printf("  - mark-overdue-repayments\n")
		fmt.Printf("  - all-nightly\n")
		os.Exit(1)
	}
}
