package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config holds all application configuration
type Config struct {
	Database   DatabaseConfig
	Server     ServerConfig
	App        AppConfig
	Governance GovernanceConfig
	Redis      RedisConfig
	Keeper     KeeperConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Driver     string // postgres or sqlite
	Host       string
	Port       string
	User       string
	Password   string
	DBName     string
	SQLitePath string
}

// ServerConfig holds server settings
type ServerConfig struct {
	Port        string
	CORSOrigins []string
}

// AppConfig holds application-specific settings
type AppConfig struct {
	JWTSecret   string
	JWTLifetime time.Duration
}

// GovernanceConfig holds the privileged addresses and the defaults used to seed
// the proposal settings on first start.
type GovernanceConfig struct {
	GovernanceAddress     common.Address
	CustodyAddress        common.Address
	StakingCustodyAddress common.Address
	VotingPeriod          time.Duration
	VetoPeriod            time.Duration
	ProposalBond          decimal.Decimal
	RewardBudget          decimal.Decimal
}

// RedisConfig holds redis settings. An empty URL disables redis.
type RedisConfig struct {
	URL string
}

// KeeperConfig holds background keeper settings
type KeeperConfig struct {
	Enabled  bool
	Address  common.Address
	Interval time.Duration
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	config := &Config{
		Database: DatabaseConfig{
			Driver:     getEnv("DB_DRIVER", "postgres"),
			Host:       getEnv("DB_HOST", "localhost"),
			Port:       getEnv("DB_PORT", "5432"),
			User:       getEnv("DB_USER", "postgres"),
			Password:   getEnv("DB_PASSWORD", ""),
			DBName:     getEnv("DB_NAME", "grant_governance"),
			SQLitePath: getEnv("SQLITE_PATH", "grant_governance.db"),
		},
		Server: ServerConfig{
			Port:        getEnv("SERVER_PORT", "8080"),
			CORSOrigins: strings.Split(getEnv("CORS_ORIGINS", "http://localhost:3000"), ","),
		},
		App: AppConfig{
			JWTSecret:   getEnv("JWT_SECRET", ""),
			JWTLifetime: getEnvDuration("JWT_LIFETIME", 24*time.Hour),
		},
		Governance: GovernanceConfig{
			GovernanceAddress:     getEnvAddress("GOVERNANCE_ADDRESS"),
			CustodyAddress:        getEnvAddress("CUSTODY_ADDRESS"),
			StakingCustodyAddress: getEnvAddress("STAKING_CUSTODY_ADDRESS"),
			VotingPeriod:          getEnvDuration("PROPOSAL_VOTING_PERIOD", 48*time.Hour),
			VetoPeriod:            getEnvDuration("PROPOSAL_VETO_PERIOD", 48*time.Hour),
			ProposalBond:          getEnvDecimal("PROPOSAL_BOND", decimal.NewFromInt(2000)),
			RewardBudget:          getEnvDecimal("PROPOSAL_REWARD_BUDGET", decimal.NewFromInt(500)),
		},
		Redis: RedisConfig{
			URL: getEnv("REDIS_URL", ""),
		},
		Keeper: KeeperConfig{
			Enabled:  getEnv("KEEPER_ENABLED", "true") == "true",
			Address:  getEnvAddress("KEEPER_ADDRESS"),
			Interval: getEnvDuration("KEEPER_INTERVAL", time.Minute),
		},
	}

	// Validate required fields
	if config.App.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	if config.Governance.GovernanceAddress == (common.Address{}) {
		return nil, fmt.Errorf("GOVERNANCE_ADDRESS is required")
	}

	if config.Governance.CustodyAddress == (common.Address{}) {
		return nil, fmt.Errorf("CUSTODY_ADDRESS is required")
	}

	// Staked tokens share the bond custody unless configured separately
	if config.Governance.StakingCustodyAddress == (common.Address{}) {
		config.Governance.StakingCustodyAddress = config.Governance.CustodyAddress
	}

	if config.Keeper.Address == (common.Address{}) {
		config.Keeper.Address = config.Governance.GovernanceAddress
	}

	if config.Database.Driver != "postgres" && config.Database.Driver != "sqlite" {
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", config.Database.Driver)
	}

	return config, nil
}

// GetDSN returns the connection string for the configured driver
func (c *Config) GetDSN() string {
	if c.Database.Driver == "sqlite" {
		return c.Database.SQLitePath
	}
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
	)
}

// getEnv gets an environment variable with a fallback default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	d, err := time.ParseDuration(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return d
}

func getEnvDecimal(key string, defaultValue decimal.Decimal) decimal.Decimal {
	d, err := decimal.NewFromString(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return d
}

// getEnvAddress returns the zero address when the variable is unset or malformed
func getEnvAddress(key string) common.Address {
	value := getEnv(key, "")
	if !common.IsHexAddress(value) {
		return common.Address{}
	}
	return common.HexToAddress(value)
}
