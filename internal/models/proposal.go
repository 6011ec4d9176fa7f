package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type ProposalKind string

const (
	ProposalKindNomination ProposalKind = "NOMINATION"
	ProposalKindTakedown   ProposalKind = "TAKEDOWN"
)

func (k ProposalKind) Valid() bool {
	return k == ProposalKindNomination || k == ProposalKindTakedown
}

type ProposalStatus string

const (
	ProposalStatusNew                 ProposalStatus = "NEW"
	ProposalStatusChallengePeriod     ProposalStatus = "CHALLENGE_PERIOD"
	ProposalStatusPendingFinalization ProposalStatus = "PENDING_FINALIZATION"
	ProposalStatusPassed              ProposalStatus = "PASSED"
	ProposalStatusFailed              ProposalStatus = "FAILED"
)

// IsTerminal reports whether the status can never change again
func (s ProposalStatus) IsTerminal() bool {
	return s == ProposalStatusPassed || s == ProposalStatusFailed
}

type VoteChoice string

const (
	VoteChoiceYes VoteChoice = "YES"
	VoteChoiceNo  VoteChoice = "NO"
)

func (c VoteChoice) Valid() bool {
	return c == VoteChoiceYes || c == VoteChoiceNo
}

// Proposal is a bonded request to add (nomination) or remove (takedown) a
// beneficiary. Periods and bond are copied from the settings at creation.
type Proposal struct {
	ID           uint            `gorm:"primaryKey" json:"-"`
	ProposalID   uint64          `gorm:"uniqueIndex;not null" json:"proposal_id"`
	Beneficiary  string          `gorm:"size:42;not null;index" json:"beneficiary"`
	ContentRef   string          `gorm:"size:66;not null" json:"content_ref"`
	Proposer     string          `gorm:"size:42;not null;index" json:"proposer"`
	Kind         ProposalKind    `gorm:"size:20;not null;index" json:"kind"`
	Status       ProposalStatus  `gorm:"size:30;not null;index" json:"status"`
	StartedAt    int64           `gorm:"not null" json:"started_at"`
	VotingPeriod int64           `gorm:"not null" json:"voting_period"`
	VetoPeriod   int64           `gorm:"not null" json:"veto_period"`
	Bond         decimal.Decimal `gorm:"type:decimal(38,18);not null" json:"bond"`
	YesCount     decimal.Decimal `gorm:"type:decimal(38,18);not null" json:"yes_count"`
	NoCount      decimal.Decimal `gorm:"type:decimal(38,18);not null" json:"no_count"`
	VoterCount   int             `gorm:"not null" json:"voter_count"`
	BondClaimed  bool            `gorm:"not null" json:"bond_claimed"`
	FinalizedAt  *time.Time      `json:"finalized_at"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`

	// Phase is the status evaluated against the current time. Not persisted.
	Phase ProposalStatus `gorm:"-" json:"phase"`
}

func (Proposal) TableName() string {
	return "proposals"
}

// ProposalVote marks that an address voted on a proposal
type ProposalVote struct {
	ID         uint            `gorm:"primaryKey" json:"-"`
	ProposalID uint64          `gorm:"uniqueIndex:idx_proposal_voter;not null" json:"proposal_id"`
	Voter      string          `gorm:"uniqueIndex:idx_proposal_voter;size:42;not null" json:"voter"`
	Choice     VoteChoice      `gorm:"size:10;not null" json:"choice"`
	Weight     decimal.Decimal `gorm:"type:decimal(38,18);not null" json:"weight"`
	CastAt     int64           `gorm:"not null" json:"cast_at"`
}

func (ProposalVote) TableName() string {
	return "proposal_votes"
}

// ProposalSettings is the single row of governance-controlled proposal
// parameters together with the rewards pool used for vaults.
type ProposalSettings struct {
	ID            uint            `gorm:"primaryKey" json:"-"`
	VotingPeriod  int64           `gorm:"not null" json:"voting_period"`
	VetoPeriod    int64           `gorm:"not null" json:"veto_period"`
	ProposalBond  decimal.Decimal `gorm:"type:decimal(38,18);not null" json:"proposal_bond"`
	RewardBudget  decimal.Decimal `gorm:"type:decimal(38,18);not null" json:"reward_budget"`
	RewardBalance decimal.Decimal `gorm:"type:decimal(38,18);not null" json:"reward_balance"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func (ProposalSettings) TableName() string {
	return "proposal_settings"
}

// RewardVault is the reward reservation made for a proposal at creation
type RewardVault struct {
	ID         uint            `gorm:"primaryKey" json:"-"`
	VaultID    string          `gorm:"uniqueIndex;size:66;not null" json:"vault_id"`
	ProposalID uint64          `gorm:"uniqueIndex;not null" json:"proposal_id"`
	Amount     decimal.Decimal `gorm:"type:decimal(38,18);not null" json:"amount"`
	CreatedAt  time.Time       `json:"created_at"`
}

func (RewardVault) TableName() string {
	return "reward_vaults"
}
