package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"grant-governance/internal/auth"
	"grant-governance/internal/config"
	"grant-governance/internal/database"
	"grant-governance/internal/handlers"
	"grant-governance/internal/jobs"
	"grant-governance/internal/models"
	"grant-governance/internal/repository"
	"grant-governance/internal/services"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize JWT
	auth.InitJWT(cfg.App.JWTSecret, cfg.App.JWTLifetime)

	// Connect to database
	db, err := database.Connect(cfg.Database.Driver, cfg.GetDSN())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run migrations
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Redis backs login nonces and the event stream when configured
	var rdb *redis.Client
	var nonces auth.NonceStore = auth.NewMemoryNonceStore()
	var publisher services.EventPublisher = services.LogPublisher{}
	if cfg.Redis.URL != "" {
		rdb, err = database.ConnectRedis(cfg.Redis.URL)
		if err != nil {
			log.Fatalf("Failed to connect to redis: %v", err)
		}
		nonces = auth.NewRedisNonceStore(rdb)
		publisher = services.NewRedisPublisher(rdb)
	} else {
		log.Println("REDIS_URL not set, using in-memory nonces and log event publisher")
	}

	// Initialize repository
	repo := repository.NewRepository(db)

	// Initialize collaborators
	clock := services.SystemClock{}
	ledgerService := services.NewLedgerService(repo)
	beneficiaryService := services.NewBeneficiaryService(repo)
	stakingService := services.NewStakingService(repo, ledgerService, clock, cfg.Governance.StakingCustodyAddress)
	eventService := services.NewEventService(repo, publisher)
	deps := services.Collaborators{
		Ledger:    ledgerService,
		Credits:   stakingService,
		Directory: beneficiaryService,
		Oracle:    services.NewDeferredOracle(repo),
		Events:    eventService,
		Clock:     clock,
	}
	roles := services.Roles{
		Governance: cfg.Governance.GovernanceAddress,
		Custody:    cfg.Governance.CustodyAddress,
	}

	// Initialize registries
	proposalService := services.NewProposalService(repo, deps, roles, models.ProposalSettings{
		VotingPeriod:  int64(cfg.Governance.VotingPeriod.Seconds()),
		VetoPeriod:    int64(cfg.Governance.VetoPeriod.Seconds()),
		ProposalBond:  cfg.Governance.ProposalBond,
		RewardBudget:  cfg.Governance.RewardBudget,
		RewardBalance: decimal.Zero,
	})
	electionService := services.NewElectionService(repo, deps, roles)

	ctx := context.Background()
	if _, err := proposalService.EnsureSettings(ctx); err != nil {
		log.Fatalf("Failed to seed proposal settings: %v", err)
	}
	if err := electionService.EnsureConfigurations(ctx); err != nil {
		log.Fatalf("Failed to seed election configurations: %v", err)
	}

	// Start governance keeper
	var keeper *jobs.GovernanceKeeper
	if cfg.Keeper.Enabled {
		keeper = jobs.NewGovernanceKeeper(proposalService, electionService, eventService, cfg.Keeper.Address, cfg.Keeper.Interval)
		go keeper.Start()
		log.Println("Governance keeper started")
	}

	// Set up Gin router
	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	handlers.RegisterRoutes(router, handlers.Handlers{
		Auth:        handlers.NewAuthHandler(nonces, stakingService, cfg.Governance.GovernanceAddress),
		Proposal:    handlers.NewProposalHandler(proposalService),
		Election:    handlers.NewElectionHandler(electionService),
		Ledger:      handlers.NewLedgerHandler(ledgerService, stakingService),
		Beneficiary: handlers.NewBeneficiaryHandler(beneficiaryService),
		Admin:       handlers.NewAdminHandler(proposalService, electionService, ledgerService),
		Event:       handlers.NewEventHandler(eventService),
	}, cfg.Governance.GovernanceAddress)

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Server starting on port %s", cfg.Server.Port)
		log.Printf("Health check: http://localhost:%s/health", cfg.Server.Port)
		log.Printf("Governance address: %s", cfg.Governance.GovernanceAddress.Hex())

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	if keeper != nil {
		keeper.Stop()
	}

	// Graceful shutdown with 5 second timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	if rdb != nil {
		if err := rdb.Close(); err != nil {
			log.Printf("Failed to close redis: %v", err)
		}
	}

	log.Println("Server exited")
}
