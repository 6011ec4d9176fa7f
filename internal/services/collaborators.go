package services

import (
	"context"
	"time"

	"grant-governance/internal/models"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// Ledger moves tokens between accounts. Amounts carry 18 fractional digits.
type Ledger interface {
	BalanceOf(ctx context.Context, owner common.Address) (decimal.Decimal, error)
	Allowance(ctx context.Context, owner, spender common.Address) (decimal.Decimal, error)
	Transfer(ctx context.Context, from, to common.Address, amount decimal.Decimal) error
	TransferFrom(ctx context.Context, spender, from, to common.Address, amount decimal.Decimal) error
}

// VoiceCreditSource returns the current voting power of an address
type VoiceCreditSource interface {
	GetVoiceCredits(ctx context.Context, addr common.Address) (decimal.Decimal, error)
}

// BeneficiaryDirectory is the set of recognized beneficiaries
type BeneficiaryDirectory interface {
	BeneficiaryExists(ctx context.Context, addr common.Address) (bool, error)
	AddBeneficiary(ctx context.Context, addr common.Address, contentRef common.Hash) error
	RemoveBeneficiary(ctx context.Context, addr common.Address) error
}

// RandomnessOracle accepts a request now and fulfills it later through
// ElectionService.FulfillRandomness
type RandomnessOracle interface {
	RequestRandomness(ctx context.Context, seed common.Hash) (string, error)
}

// EventPublisher delivers committed events to off-chain observers
type EventPublisher interface {
	Publish(ctx context.Context, event *models.GovernanceEvent) error
}

// Clock supplies the time every phase comparison uses
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}

// Roles are the privileged addresses of the registries
type Roles struct {
	Governance common.Address
	Custody    common.Address
}

// Collaborators groups what the registries depend on
type Collaborators struct {
	Ledger    Ledger
	Credits   VoiceCreditSource
	Directory BeneficiaryDirectory
	Oracle    RandomnessOracle
	Events    *EventService
	Clock     Clock
}
