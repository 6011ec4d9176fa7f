package database

import (
	"fmt"
	"log"

	"grant-governance/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect opens the database for the given driver ("postgres" or "sqlite")
func Connect(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "postgres":
		dialector = postgres.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Error),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	log.Printf("Database connection established successfully (%s)", driver)
	return db, nil
}

// Models lists every persisted model, grouped by concern
func Models() []interface{} {
	return []interface{}{
		// Proposal registry
		&models.Proposal{},
		&models.ProposalVote{},
		&models.ProposalSettings{},
		&models.RewardVault{},

		// Election registry
		&models.ElectionConfiguration{},
		&models.Election{},
		&models.ElectionRegistration{},
		&models.ElectionVote{},
		&models.ElectionAwardee{},
		&models.ElectionTreasury{},
		&models.RandomnessRequest{},

		// Collaborators
		&models.LedgerAccount{},
		&models.LedgerAllowance{},
		&models.LedgerTransfer{},
		&models.StakeLock{},
		&models.Beneficiary{},
		&models.GovernanceEvent{},
	}
}

// AutoMigrate runs automatic migrations for all models
func AutoMigrate(db *gorm.DB) error {
	for _, model := range Models() {
		if err := db.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate %T: %w", model, err)
		}
	}

	log.Println("Database migrations completed successfully")
	return nil
}
