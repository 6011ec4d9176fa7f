package main

import (
	"context"
	"log"

	"github.com/shopspring/decimal"

	"grant-governance/internal/config"
	"grant-governance/internal/database"
	"grant-governance/internal/models"
	"grant-governance/internal/repository"
	"grant-governance/internal/services"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Connect to database
	db, err := database.Connect(cfg.Database.Driver, cfg.GetDSN())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Seed settings so the registries start from the configured defaults
	repo := repository.NewRepository(db)
	deps := services.Collaborators{Events: services.NewEventService(repo, services.LogPublisher{})}
	roles := services.Roles{
		Governance: cfg.Governance.GovernanceAddress,
		Custody:    cfg.Governance.CustodyAddress,
	}

	ctx := context.Background()
	proposals := services.NewProposalService(repo, deps, roles, models.ProposalSettings{
		VotingPeriod:  int64(cfg.Governance.VotingPeriod.Seconds()),
		VetoPeriod:    int64(cfg.Governance.VetoPeriod.Seconds()),
		ProposalBond:  cfg.Governance.ProposalBond,
		RewardBudget:  cfg.Governance.RewardBudget,
		RewardBalance: decimal.Zero,
	})
	settings, err := proposals.EnsureSettings(ctx)
	if err != nil {
		log.Fatalf("Failed to seed proposal settings: %v", err)
	}
	log.Printf("Proposal settings: voting=%ds veto=%ds bond=%s",
		settings.VotingPeriod, settings.VetoPeriod, settings.ProposalBond)

	if err := services.NewElectionService(repo, deps, roles).EnsureConfigurations(ctx); err != nil {
		log.Fatalf("Failed to seed election configurations: %v", err)
	}

	log.Println("✅ Migration applied successfully!")
}
