package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"grant-governance/internal/models"
	"grant-governance/internal/repository"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ProposalService is the registry of beneficiary nomination and takedown
// proposals. Mutating calls are serialized and each runs in one transaction.
type ProposalService struct {
	repo      *repository.Repository
	ledger    Ledger
	credits   VoiceCreditSource
	directory BeneficiaryDirectory
	events    *EventService
	clock     Clock
	roles     Roles
	defaults  models.ProposalSettings

	mu sync.Mutex
}

func NewProposalService(
	repo *repository.Repository,
	deps Collaborators,
	roles Roles,
	defaults models.ProposalSettings,
) *ProposalService {
	clock := deps.Clock
	if clock == nil {
		clock = SystemClock{}
	}
	return &ProposalService{
		repo:      repo,
		ledger:    deps.Ledger,
		credits:   deps.Credits,
		directory: deps.Directory,
		events:    deps.Events,
		clock:     clock,
		roles:     roles,
		defaults:  defaults,
	}
}

// CreateProposal takes the bond from the proposer and opens a new proposal
func (s *ProposalService) CreateProposal(
	ctx context.Context,
	proposer common.Address,
	beneficiary common.Address,
	contentRef common.Hash,
	kind models.ProposalKind,
) (*models.Proposal, error) {
	if !kind.Valid() {
		return nil, ErrInvalidProposalKind
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now().Unix()
	batch := s.events.Batch()
	var proposal *models.Proposal

	err := s.repo.Transaction(ctx, func(ctx context.Context) error {
		settings, err := s.settings(ctx)
		if err != nil {
			return err
		}

		if err := s.checkBond(ctx, proposer, settings.ProposalBond); err != nil {
			return err
		}

		exists, err := s.directory.BeneficiaryExists(ctx, beneficiary)
		if err != nil {
			return fmt.Errorf("failed to check beneficiary: %w", err)
		}
		switch kind {
		case models.ProposalKindNomination:
			if exists {
				return ErrBeneficiaryAlreadyPendingOrExists
			}
			pending, err := s.hasOpenNomination(ctx, beneficiary, now, batch)
			if err != nil {
				return err
			}
			if pending {
				return ErrBeneficiaryAlreadyPendingOrExists
			}
		case models.ProposalKindTakedown:
			if !exists {
				return ErrBeneficiaryDoesNotExist
			}
		}

		if err := s.ledger.TransferFrom(ctx, s.roles.Custody, proposer, s.roles.Custody, settings.ProposalBond); err != nil {
			return fmt.Errorf("failed to deposit proposal bond: %w", err)
		}

		count, err := s.repo.CountProposals(ctx)
		if err != nil {
			return fmt.Errorf("failed to count proposals: %w", err)
		}

		proposal = &models.Proposal{
			ProposalID:   uint64(count),
			Beneficiary:  beneficiary.Hex(),
			ContentRef:   contentRef.Hex(),
			Proposer:     proposer.Hex(),
			Kind:         kind,
			Status:       models.ProposalStatusNew,
			StartedAt:    now,
			VotingPeriod: settings.VotingPeriod,
			VetoPeriod:   settings.VetoPeriod,
			Bond:         settings.ProposalBond,
			YesCount:     decimal.Zero,
			NoCount:      decimal.Zero,
		}
		if err := s.repo.CreateProposal(ctx, proposal); err != nil {
			return fmt.Errorf("failed to create proposal: %w", err)
		}

		if err := batch.Record(ctx, EventProposalCreated, map[string]interface{}{
			"proposal_id": proposal.ProposalID,
			"proposer":    proposal.Proposer,
			"beneficiary": proposal.Beneficiary,
			"content_ref": proposal.ContentRef,
			"kind":        proposal.Kind,
		}); err != nil {
			return err
		}

		return s.reserveVault(ctx, settings, proposal, now, batch)
	})
	if err != nil {
		return nil, err
	}

	batch.Flush(ctx)
	proposal.Phase = proposal.Status
	log.Printf("[ProposalService] Proposal %d created: %s %s by %s",
		proposal.ProposalID, proposal.Kind, proposal.Beneficiary, proposal.Proposer)
	return proposal, nil
}

// Vote adds the caller's voice credits to one side of a proposal
func (s *ProposalService) Vote(ctx context.Context, voter common.Address, proposalID uint64, choice models.VoteChoice) (*models.Proposal, error) {
	if !choice.Valid() {
		return nil, ErrInvalidVoteChoice
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now().Unix()
	batch := s.events.Batch()
	var proposal *models.Proposal

	err := s.repo.Transaction(ctx, func(ctx context.Context) error {
		p, err := s.loadProposal(ctx, proposalID)
		if err != nil {
			return err
		}

		voted, err := s.repo.HasVoted(ctx, proposalID, voter)
		if err != nil {
			return fmt.Errorf("failed to check vote: %w", err)
		}
		if voted {
			return ErrDuplicateVote
		}

		weight, err := s.credits.GetVoiceCredits(ctx, voter)
		if err != nil {
			return fmt.Errorf("failed to get voice credits: %w", err)
		}
		if !weight.IsPositive() {
			return ErrNoVoiceCredits
		}

		phase := EvaluatePhase(p, now)
		if phase != models.ProposalStatusNew && phase != models.ProposalStatusChallengePeriod {
			return ErrVotingClosed
		}

		previous := p.Status
		p.Status = phase
		if choice == models.VoteChoiceYes {
			p.YesCount = p.YesCount.Add(weight)
		} else {
			p.NoCount = p.NoCount.Add(weight)
		}
		p.VoterCount++

		if err := s.repo.UpdateProposal(ctx, p); err != nil {
			return fmt.Errorf("failed to update proposal: %w", err)
		}
		if err := s.repo.CreateProposalVote(ctx, &models.ProposalVote{
			ProposalID: proposalID,
			Voter:      voter.Hex(),
			Choice:     choice,
			Weight:     weight,
			CastAt:     now,
		}); err != nil {
			return fmt.Errorf("failed to record vote: %w", err)
		}

		if previous != p.Status {
			if err := recordStatusChange(ctx, batch, p, previous); err != nil {
				return err
			}
		}
		if err := batch.Record(ctx, EventVoteCast, map[string]interface{}{
			"proposal_id": proposalID,
			"voter":       voter.Hex(),
			"choice":      choice,
			"weight":      weight.String(),
		}); err != nil {
			return err
		}

		proposal = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	batch.Flush(ctx)
	proposal.Phase = proposal.Status
	return proposal, nil
}

// Finalize resolves a proposal whose initial window is over. A yes-majority
// proposal still stored as New is moved into its challenge window.
func (s *ProposalService) Finalize(ctx context.Context, caller common.Address, proposalID uint64) (*models.Proposal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now().Unix()
	batch := s.events.Batch()
	var proposal *models.Proposal

	err := s.repo.Transaction(ctx, func(ctx context.Context) error {
		p, err := s.loadProposal(ctx, proposalID)
		if err != nil {
			return err
		}
		if p.Status.IsTerminal() {
			return ErrAlreadyFinalized
		}
		if now-p.StartedAt < p.VotingPeriod {
			return ErrFinalizationNotAllowed
		}

		switch EvaluatePhase(p, now) {
		case models.ProposalStatusFailed:
			err = s.conclude(ctx, p, models.ProposalStatusFailed, batch)
		case models.ProposalStatusChallengePeriod:
			switch {
			case p.Status == models.ProposalStatusNew:
				p.Status = models.ProposalStatusChallengePeriod
				if err := s.repo.UpdateProposal(ctx, p); err != nil {
					return fmt.Errorf("failed to update proposal: %w", err)
				}
				err = recordStatusChange(ctx, batch, p, models.ProposalStatusNew)
			case !p.YesCount.GreaterThan(p.NoCount):
				err = s.conclude(ctx, p, models.ProposalStatusFailed, batch)
			default:
				return ErrFinalizationNotAllowed
			}
		case models.ProposalStatusPendingFinalization:
			if p.YesCount.GreaterThan(p.NoCount) {
				err = s.conclude(ctx, p, models.ProposalStatusPassed, batch)
			} else {
				err = s.conclude(ctx, p, models.ProposalStatusFailed, batch)
			}
		default:
			return ErrFinalizationNotAllowed
		}
		if err != nil {
			return err
		}

		proposal = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	batch.Flush(ctx)
	proposal.Phase = proposal.Status
	log.Printf("[ProposalService] Proposal %d finalized by %s: %s", proposalID, caller.Hex(), proposal.Status)
	return proposal, nil
}

// ClaimBond returns the bond of a passed proposal to its proposer, once
func (s *ProposalService) ClaimBond(ctx context.Context, caller common.Address, proposalID uint64) (*models.Proposal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	batch := s.events.Batch()
	var proposal *models.Proposal

	err := s.repo.Transaction(ctx, func(ctx context.Context) error {
		p, err := s.loadProposal(ctx, proposalID)
		if err != nil {
			return err
		}
		if p.Proposer != caller.Hex() {
			return ErrOnlyProposer
		}
		if p.Status != models.ProposalStatusPassed {
			return ErrProposalNotPassedOrStillProcessing
		}
		if p.BondClaimed {
			return ErrBondAlreadyClaimed
		}

		if err := s.ledger.Transfer(ctx, s.roles.Custody, caller, p.Bond); err != nil {
			return fmt.Errorf("failed to return bond: %w", err)
		}
		p.BondClaimed = true
		if err := s.repo.UpdateProposal(ctx, p); err != nil {
			return fmt.Errorf("failed to update proposal: %w", err)
		}

		proposal = p
		return batch.Record(ctx, EventBondWithdrawn, map[string]interface{}{
			"proposal_id": proposalID,
			"proposer":    p.Proposer,
			"amount":      p.Bond.String(),
		})
	})
	if err != nil {
		return nil, err
	}

	batch.Flush(ctx)
	proposal.Phase = proposal.Status
	log.Printf("[ProposalService] Bond of proposal %d returned to %s", proposalID, caller.Hex())
	return proposal, nil
}

// FinalizeDue finalizes every open proposal whose initial window has elapsed
// and returns how many were advanced
func (s *ProposalService) FinalizeDue(ctx context.Context, caller common.Address, limit int) (int, error) {
	due, err := s.repo.ListOpenProposalsPastVoting(ctx, s.clock.Now().Unix(), limit)
	if err != nil {
		return 0, fmt.Errorf("failed to list due proposals: %w", err)
	}

	advanced := 0
	for _, p := range due {
		if _, err := s.Finalize(ctx, caller, p.ProposalID); err != nil {
			if !errors.Is(err, ErrFinalizationNotAllowed) && !errors.Is(err, ErrAlreadyFinalized) {
				log.Printf("[ProposalService] Failed to finalize proposal %d: %v", p.ProposalID, err)
			}
			continue
		}
		advanced++
	}
	return advanced, nil
}

// SetConfiguration changes the parameters used by proposals created afterwards
func (s *ProposalService) SetConfiguration(
	ctx context.Context,
	caller common.Address,
	votingPeriod, vetoPeriod time.Duration,
	bond decimal.Decimal,
) (*models.ProposalSettings, error) {
	if caller != s.roles.Governance {
		return nil, ErrUnauthorized
	}
	if votingPeriod < time.Second || vetoPeriod < time.Second {
		return nil, fmt.Errorf("periods must be at least one second: %w", ErrInvalidConfiguration)
	}
	bond, err := NormalizeAmount(bond)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batch := s.events.Batch()
	var settings *models.ProposalSettings
	err = s.repo.Transaction(ctx, func(ctx context.Context) error {
		current, err := s.settings(ctx)
		if err != nil {
			return err
		}
		current.VotingPeriod = int64(votingPeriod / time.Second)
		current.VetoPeriod = int64(vetoPeriod / time.Second)
		current.ProposalBond = bond
		if err := s.repo.SaveProposalSettings(ctx, current); err != nil {
			return fmt.Errorf("failed to save settings: %w", err)
		}
		settings = current
		return batch.Record(ctx, EventProposalSettingsUpdated, map[string]interface{}{
			"voting_period": current.VotingPeriod,
			"veto_period":   current.VetoPeriod,
			"proposal_bond": current.ProposalBond.String(),
		})
	})
	if err != nil {
		return nil, err
	}

	batch.Flush(ctx)
	return settings, nil
}

// SetRewardsBudget sets the amount reserved for each new proposal's vault
func (s *ProposalService) SetRewardsBudget(ctx context.Context, caller common.Address, budget decimal.Decimal) (*models.ProposalSettings, error) {
	if caller != s.roles.Governance {
		return nil, ErrUnauthorized
	}
	budget, err := NormalizeAmount(budget)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var settings *models.ProposalSettings
	err = s.repo.Transaction(ctx, func(ctx context.Context) error {
		current, err := s.settings(ctx)
		if err != nil {
			return err
		}
		current.RewardBudget = budget
		settings = current
		return s.repo.SaveProposalSettings(ctx, current)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to set rewards budget: %w", err)
	}
	return settings, nil
}

// ContributeReward moves tokens from the contributor into the rewards pool
func (s *ProposalService) ContributeReward(ctx context.Context, contributor common.Address, amount decimal.Decimal) (*models.ProposalSettings, error) {
	amount, err := NormalizeAmount(amount)
	if err != nil {
		return nil, err
	}
	if amount.IsZero() {
		return nil, ErrInvalidAmount
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batch := s.events.Batch()
	var settings *models.ProposalSettings
	err = s.repo.Transaction(ctx, func(ctx context.Context) error {
		current, err := s.settings(ctx)
		if err != nil {
			return err
		}
		if err := s.ledger.TransferFrom(ctx, s.roles.Custody, contributor, s.roles.Custody, amount); err != nil {
			return fmt.Errorf("failed to transfer reward: %w", err)
		}
		current.RewardBalance = current.RewardBalance.Add(amount)
		if err := s.repo.SaveProposalSettings(ctx, current); err != nil {
			return fmt.Errorf("failed to save settings: %w", err)
		}
		settings = current
		return batch.Record(ctx, EventRewardContributed, map[string]interface{}{
			"contributor": contributor.Hex(),
			"amount":      amount.String(),
		})
	})
	if err != nil {
		return nil, err
	}

	batch.Flush(ctx)
	return settings, nil
}

// GetProposal returns a proposal with its phase evaluated at the current time
func (s *ProposalService) GetProposal(ctx context.Context, proposalID uint64) (*models.Proposal, error) {
	p, err := s.loadProposal(ctx, proposalID)
	if err != nil {
		return nil, err
	}
	p.Phase = EvaluatePhase(p, s.clock.Now().Unix())
	return p, nil
}

// ListProposals returns proposals with their phases evaluated
func (s *ProposalService) ListProposals(ctx context.Context, filter repository.ProposalFilter) ([]models.Proposal, error) {
	proposals, err := s.repo.ListProposals(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list proposals: %w", err)
	}
	now := s.clock.Now().Unix()
	for i := range proposals {
		proposals[i].Phase = EvaluatePhase(&proposals[i], now)
	}
	return proposals, nil
}

// CountProposals returns the number of proposals ever created
func (s *ProposalService) CountProposals(ctx context.Context) (int64, error) {
	return s.repo.CountProposals(ctx)
}

// HasVoted reports whether an address voted on a proposal
func (s *ProposalService) HasVoted(ctx context.Context, proposalID uint64, voter common.Address) (bool, error) {
	if _, err := s.loadProposal(ctx, proposalID); err != nil {
		return false, err
	}
	return s.repo.HasVoted(ctx, proposalID, voter)
}

// GetSettings returns the current proposal settings
func (s *ProposalService) GetSettings(ctx context.Context) (*models.ProposalSettings, error) {
	return s.settings(ctx)
}

// GetRewardVault returns the vault reserved for a proposal, if any
func (s *ProposalService) GetRewardVault(ctx context.Context, proposalID uint64) (*models.RewardVault, error) {
	vault, err := s.repo.GetRewardVault(ctx, proposalID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return vault, err
}

// EnsureSettings writes the default settings if none are stored
func (s *ProposalService) EnsureSettings(ctx context.Context) (*models.ProposalSettings, error) {
	return s.settings(ctx)
}

func (s *ProposalService) settings(ctx context.Context) (*models.ProposalSettings, error) {
	settings, err := s.repo.GetProposalSettings(ctx)
	if err == nil {
		return settings, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to get proposal settings: %w", err)
	}

	seeded := s.defaults
	seeded.ID = 0
	if err := s.repo.SaveProposalSettings(ctx, &seeded); err != nil {
		return nil, fmt.Errorf("failed to seed proposal settings: %w", err)
	}
	return &seeded, nil
}

func (s *ProposalService) loadProposal(ctx context.Context, proposalID uint64) (*models.Proposal, error) {
	p, err := s.repo.GetProposal(ctx, proposalID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProposalNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get proposal: %w", err)
	}
	return p, nil
}

func (s *ProposalService) checkBond(ctx context.Context, proposer common.Address, bond decimal.Decimal) error {
	allowance, err := s.ledger.Allowance(ctx, proposer, s.roles.Custody)
	if err != nil {
		return fmt.Errorf("failed to get allowance: %w", err)
	}
	balance, err := s.ledger.BalanceOf(ctx, proposer)
	if err != nil {
		return fmt.Errorf("failed to get balance: %w", err)
	}
	if allowance.LessThan(bond) || balance.LessThan(bond) {
		return ErrProposalBondInsufficient
	}
	return nil
}

// hasOpenNomination settles stale nominations whose initial window already
// failed them, then reports whether one is still open
func (s *ProposalService) hasOpenNomination(ctx context.Context, beneficiary common.Address, now int64, batch *EventBatch) (bool, error) {
	open, err := s.repo.GetOpenNominations(ctx, beneficiary)
	if err != nil {
		return false, fmt.Errorf("failed to check pending nominations: %w", err)
	}
	for i := range open {
		p := &open[i]
		if EvaluatePhase(p, now) != models.ProposalStatusFailed {
			return true, nil
		}
		if err := s.conclude(ctx, p, models.ProposalStatusFailed, batch); err != nil {
			return false, err
		}
	}
	return false, nil
}

// conclude moves a proposal into a terminal status and applies the directory
// change of a passed proposal
func (s *ProposalService) conclude(ctx context.Context, p *models.Proposal, status models.ProposalStatus, batch *EventBatch) error {
	if status == models.ProposalStatusPassed {
		if err := s.applyOutcome(ctx, p); err != nil {
			return err
		}
	}

	previous := p.Status
	finalizedAt := s.clock.Now()
	p.Status = status
	p.FinalizedAt = &finalizedAt
	if err := s.repo.UpdateProposal(ctx, p); err != nil {
		return fmt.Errorf("failed to update proposal: %w", err)
	}

	if err := recordStatusChange(ctx, batch, p, previous); err != nil {
		return err
	}
	return batch.Record(ctx, EventProposalFinalized, map[string]interface{}{
		"proposal_id": p.ProposalID,
		"status":      p.Status,
		"yes_count":   p.YesCount.String(),
		"no_count":    p.NoCount.String(),
	})
}

func (s *ProposalService) applyOutcome(ctx context.Context, p *models.Proposal) error {
	beneficiary := common.HexToAddress(p.Beneficiary)
	exists, err := s.directory.BeneficiaryExists(ctx, beneficiary)
	if err != nil {
		return fmt.Errorf("failed to check beneficiary: %w", err)
	}

	switch p.Kind {
	case models.ProposalKindNomination:
		if exists {
			log.Printf("[ProposalService] Beneficiary %s already present, nothing to add", p.Beneficiary)
			return nil
		}
		if err := s.directory.AddBeneficiary(ctx, beneficiary, common.HexToHash(p.ContentRef)); err != nil {
			return fmt.Errorf("failed to add beneficiary: %w", err)
		}
	case models.ProposalKindTakedown:
		if !exists {
			log.Printf("[ProposalService] Beneficiary %s already removed", p.Beneficiary)
			return nil
		}
		if err := s.directory.RemoveBeneficiary(ctx, beneficiary); err != nil {
			return fmt.Errorf("failed to remove beneficiary: %w", err)
		}
	}
	return nil
}

// reserveVault reserves the reward budget for a new proposal. An empty or
// insufficient pool skips the vault without failing the caller.
func (s *ProposalService) reserveVault(
	ctx context.Context,
	settings *models.ProposalSettings,
	p *models.Proposal,
	now int64,
	batch *EventBatch,
) error {
	budget := settings.RewardBudget
	if !budget.IsPositive() || settings.RewardBalance.LessThan(budget) {
		log.Printf("[ProposalService] Vault for proposal %d skipped: budget %s, pool %s",
			p.ProposalID, budget, settings.RewardBalance)
		return nil
	}

	settings.RewardBalance = settings.RewardBalance.Sub(budget)
	if err := s.repo.SaveProposalSettings(ctx, settings); err != nil {
		return fmt.Errorf("failed to reserve reward budget: %w", err)
	}

	vaultID := VaultID(p.ProposalID, now)
	if err := s.repo.CreateRewardVault(ctx, &models.RewardVault{
		VaultID:    vaultID.Hex(),
		ProposalID: p.ProposalID,
		Amount:     budget,
	}); err != nil {
		return fmt.Errorf("failed to create reward vault: %w", err)
	}
	return batch.Record(ctx, EventVaultInitialized, map[string]interface{}{
		"vault_id":    vaultID.Hex(),
		"proposal_id": p.ProposalID,
		"amount":      budget.String(),
	})
}

func recordStatusChange(ctx context.Context, batch *EventBatch, p *models.Proposal, previous models.ProposalStatus) error {
	return batch.Record(ctx, EventProposalStatusChanged, map[string]interface{}{
		"proposal_id": p.ProposalID,
		"from":        previous,
		"to":          p.Status,
	})
}
