package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type ElectionTerm string

const (
	ElectionTermMonth   ElectionTerm = "MONTH"
	ElectionTermQuarter ElectionTerm = "QUARTER"
	ElectionTermYear    ElectionTerm = "YEAR"
)

// ElectionTerms lists every term in a stable order
var ElectionTerms = []ElectionTerm{ElectionTermMonth, ElectionTermQuarter, ElectionTermYear}

func (t ElectionTerm) Valid() bool {
	return t == ElectionTermMonth || t == ElectionTermQuarter || t == ElectionTermYear
}

type ElectionState string

const (
	ElectionStateRegistration ElectionState = "REGISTRATION"
	ElectionStateVoting       ElectionState = "VOTING"
	ElectionStateClosed       ElectionState = "CLOSED"
)

// Rank orders states so transitions can be checked for monotonicity
func (s ElectionState) Rank() int {
	switch s {
	case ElectionStateRegistration:
		return 0
	case ElectionStateVoting:
		return 1
	case ElectionStateClosed:
		return 2
	}
	return -1
}

type ShareType string

const (
	ShareTypeEqualWeight   ShareType = "EQUAL_WEIGHT"
	ShareTypeDynamicWeight ShareType = "DYNAMIC_WEIGHT"
)

// ElectionSettings are the per-term parameters. Periods are in seconds.
type ElectionSettings struct {
	Ranking               int             `gorm:"not null" json:"ranking"`
	Awardees              int             `gorm:"not null" json:"awardees"`
	RegistrationPeriod    int64           `gorm:"not null" json:"registration_period"`
	VotingPeriod          int64           `gorm:"not null" json:"voting_period"`
	CooldownPeriod        int64           `gorm:"not null" json:"cooldown_period"`
	UseOracle             bool            `gorm:"not null" json:"use_oracle"`
	BondRequired          bool            `gorm:"not null" json:"bond_required"`
	BondAmount            decimal.Decimal `gorm:"type:decimal(38,18);not null" json:"bond_amount"`
	FinalizationIncentive decimal.Decimal `gorm:"type:decimal(38,18);not null" json:"finalization_incentive"`
	Enabled               bool            `gorm:"not null" json:"enabled"`
	ShareType             ShareType       `gorm:"size:20;not null" json:"share_type"`
}

// ElectionConfiguration holds the current settings for one term
type ElectionConfiguration struct {
	ID               uint         `gorm:"primaryKey" json:"-"`
	Term             ElectionTerm `gorm:"uniqueIndex;size:10;not null" json:"term"`
	ElectionSettings `gorm:"embedded"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func (ElectionConfiguration) TableName() string {
	return "election_configurations"
}

// Election is one round of a term. Settings are a snapshot taken when the
// round was initialized.
type Election struct {
	ID                  uint          `gorm:"primaryKey" json:"id"`
	Term                ElectionTerm  `gorm:"uniqueIndex:idx_election_term_round;size:10;not null" json:"term"`
	Round               int           `gorm:"uniqueIndex:idx_election_term_round;not null" json:"round"`
	StartedAt           int64         `gorm:"not null" json:"started_at"`
	State               ElectionState `gorm:"size:20;not null;index" json:"state"`
	ElectionSettings    `gorm:"embedded;embeddedPrefix:cfg_" json:"configuration"`
	AwardeesSelected    bool       `gorm:"not null" json:"awardees_selected"`
	RandomnessRequestID *string    `gorm:"size:64" json:"randomness_request_id"`
	RandomnessValue     *string    `gorm:"size:66" json:"randomness_value"`
	FinalizedAt         *time.Time `json:"finalized_at"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

func (Election) TableName() string {
	return "elections"
}

// ElectionRegistration is a beneficiary registered in a round with its tally
type ElectionRegistration struct {
	ID           uint            `gorm:"primaryKey" json:"-"`
	ElectionID   uint            `gorm:"uniqueIndex:idx_registration;not null" json:"election_id"`
	Beneficiary  string          `gorm:"uniqueIndex:idx_registration;size:42;not null" json:"beneficiary"`
	Votes        decimal.Decimal `gorm:"type:decimal(38,18);not null" json:"votes"`
	BondPaid     decimal.Decimal `gorm:"type:decimal(38,18);not null" json:"bond_paid"`
	RegisteredAt int64           `gorm:"not null" json:"registered_at"`
}

func (ElectionRegistration) TableName() string {
	return "election_registrations"
}

// ElectionVote is one (beneficiary, weight) allocation of a ballot
type ElectionVote struct {
	ID          uint            `gorm:"primaryKey" json:"-"`
	BallotID    string          `gorm:"size:36;not null;index" json:"ballot_id"`
	ElectionID  uint            `gorm:"not null;index:idx_election_voter" json:"election_id"`
	Voter       string          `gorm:"size:42;not null;index:idx_election_voter" json:"voter"`
	Beneficiary string          `gorm:"size:42;not null" json:"beneficiary"`
	Weight      decimal.Decimal `gorm:"type:decimal(38,18);not null" json:"weight"`
	CastAt      int64           `gorm:"not null" json:"cast_at"`
}

func (ElectionVote) TableName() string {
	return "election_votes"
}

// ElectionAwardee is a selected beneficiary with its share in basis points
type ElectionAwardee struct {
	ID          uint            `gorm:"primaryKey" json:"-"`
	ElectionID  uint            `gorm:"not null;index" json:"election_id"`
	Rank        int             `gorm:"not null" json:"rank"`
	Beneficiary string          `gorm:"size:42;not null" json:"beneficiary"`
	Votes       decimal.Decimal `gorm:"type:decimal(38,18);not null" json:"votes"`
	ShareBps    int             `gorm:"not null" json:"share_bps"`
}

func (ElectionAwardee) TableName() string {
	return "election_awardees"
}

// ElectionTreasury funds finalization incentives
type ElectionTreasury struct {
	ID               uint            `gorm:"primaryKey" json:"-"`
	IncentiveBalance decimal.Decimal `gorm:"type:decimal(38,18);not null" json:"incentive_balance"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

func (ElectionTreasury) TableName() string {
	return "election_treasury"
}

type RandomnessStatus string

const (
	RandomnessStatusPending   RandomnessStatus = "PENDING"
	RandomnessStatusFulfilled RandomnessStatus = "FULFILLED"
)

// RandomnessRequest tracks a request made to the randomness oracle
type RandomnessRequest struct {
	ID          uint             `gorm:"primaryKey" json:"-"`
	RequestID   string           `gorm:"uniqueIndex;size:64;not null" json:"request_id"`
	Seed        string           `gorm:"size:66;not null" json:"seed"`
	Status      RandomnessStatus `gorm:"size:20;not null" json:"status"`
	Value       *string          `gorm:"size:66" json:"value"`
	CreatedAt   time.Time        `json:"created_at"`
	FulfilledAt *time.Time       `json:"fulfilled_at"`
}

func (RandomnessRequest) TableName() string {
	return "randomness_requests"
}
