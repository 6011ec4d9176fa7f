package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"grant-governance/internal/models"
	"grant-governance/internal/repository"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ElectionService runs the term-scoped grant elections. State transitions are
// evaluated lazily at the top of every entry point.
type ElectionService struct {
	repo      *repository.Repository
	ledger    Ledger
	credits   VoiceCreditSource
	directory BeneficiaryDirectory
	oracle    RandomnessOracle
	events    *EventService
	clock     Clock
	roles     Roles

	mu sync.Mutex
}

// ElectionMetadata is the read model of the latest round of a term
type ElectionMetadata struct {
	Election                *models.Election          `json:"election"`
	RegisteredBeneficiaries []string                  `json:"registered_beneficiaries"`
	Awardees                []models.ElectionAwardee `json:"awardees"`
}

func NewElectionService(repo *repository.Repository, deps Collaborators, roles Roles) *ElectionService {
	clock := deps.Clock
	if clock == nil {
		clock = SystemClock{}
	}
	return &ElectionService{
		repo:      repo,
		ledger:    deps.Ledger,
		credits:   deps.Credits,
		directory: deps.Directory,
		oracle:    deps.Oracle,
		events:    deps.Events,
		clock:     clock,
		roles:     roles,
	}
}

// EnsureConfigurations stores the default configuration of every term that
// has none yet
func (s *ElectionService) EnsureConfigurations(ctx context.Context) error {
	for _, term := range models.ElectionTerms {
		if _, err := s.configuration(ctx, term); err != nil {
			return err
		}
	}
	return nil
}

// SetConfiguration replaces the configuration of a term. Rounds already
// initialized keep their snapshot.
func (s *ElectionService) SetConfiguration(
	ctx context.Context,
	caller common.Address,
	term models.ElectionTerm,
	settings models.ElectionSettings,
) (*models.ElectionConfiguration, error) {
	if caller != s.roles.Governance {
		return nil, ErrUnauthorized
	}
	if !term.Valid() {
		return nil, ErrInvalidTerm
	}
	settings.BondAmount = settings.BondAmount.Truncate(TokenDecimals)
	settings.FinalizationIncentive = settings.FinalizationIncentive.Truncate(TokenDecimals)
	if err := ValidateElectionSettings(settings); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batch := s.events.Batch()
	cfg := &models.ElectionConfiguration{Term: term, ElectionSettings: settings}
	err := s.repo.Transaction(ctx, func(ctx context.Context) error {
		if err := s.repo.UpsertElectionConfiguration(ctx, cfg); err != nil {
			return fmt.Errorf("failed to save configuration: %w", err)
		}
		return batch.Record(ctx, EventElectionConfigured, map[string]interface{}{
			"term":     term,
			"ranking":  settings.Ranking,
			"awardees": settings.Awardees,
			"enabled":  settings.Enabled,
		})
	})
	if err != nil {
		return nil, err
	}

	batch.Flush(ctx)
	return cfg, nil
}

// GetConfiguration returns the current configuration of a term
func (s *ElectionService) GetConfiguration(ctx context.Context, term models.ElectionTerm) (*models.ElectionConfiguration, error) {
	if !term.Valid() {
		return nil, ErrInvalidTerm
	}
	return s.configuration(ctx, term)
}

// ListConfigurations returns the configurations of all terms
func (s *ElectionService) ListConfigurations(ctx context.Context) ([]models.ElectionConfiguration, error) {
	if err := s.EnsureConfigurations(ctx); err != nil {
		return nil, err
	}
	return s.repo.ListElectionConfigurations(ctx)
}

// Initialize opens a new round of a term in the registration state
func (s *ElectionService) Initialize(ctx context.Context, term models.ElectionTerm) (*models.Election, error) {
	if !term.Valid() {
		return nil, ErrInvalidTerm
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now().Unix()
	batch := s.events.Batch()
	var election *models.Election

	err := s.repo.Transaction(ctx, func(ctx context.Context) error {
		cfg, err := s.configuration(ctx, term)
		if err != nil {
			return err
		}
		if !cfg.Enabled {
			return ErrElectionDisabled
		}

		round := 1
		latest, err := s.repo.GetLatestElection(ctx, term)
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
		case err != nil:
			return fmt.Errorf("failed to get election: %w", err)
		default:
			if err := s.refresh(ctx, latest, now, batch); err != nil {
				return err
			}
			if latest.State != models.ElectionStateClosed {
				return ErrElectionNotYetClosed
			}
			if now-latest.StartedAt < latest.CooldownPeriod {
				return ErrCooldownNotElapsed
			}
			round = latest.Round + 1
		}

		election = &models.Election{
			Term:             term,
			Round:            round,
			StartedAt:        now,
			State:            models.ElectionStateRegistration,
			ElectionSettings: cfg.ElectionSettings,
		}
		if err := s.repo.CreateElection(ctx, election); err != nil {
			return fmt.Errorf("failed to create election: %w", err)
		}
		return batch.Record(ctx, EventElectionInitialized, map[string]interface{}{
			"term":       term,
			"round":      round,
			"start_time": now,
		})
	})
	if err != nil {
		return nil, err
	}

	batch.Flush(ctx)
	log.Printf("[ElectionService] %s election round %d initialized at %d", term, election.Round, now)
	return election, nil
}

// RegisterForElection adds a directory member to the current round of a term.
// A bond is taken from the caller when the round requires one.
func (s *ElectionService) RegisterForElection(
	ctx context.Context,
	caller common.Address,
	beneficiary common.Address,
	term models.ElectionTerm,
) (*models.ElectionRegistration, error) {
	if !term.Valid() {
		return nil, ErrInvalidTerm
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now().Unix()
	batch := s.events.Batch()
	var registration *models.ElectionRegistration

	err := s.repo.Transaction(ctx, func(ctx context.Context) error {
		election, err := s.currentElection(ctx, term, now, batch)
		if err != nil {
			return err
		}
		if election.State != models.ElectionStateRegistration {
			return ErrElectionNotOpenForRegistration
		}

		exists, err := s.directory.BeneficiaryExists(ctx, beneficiary)
		if err != nil {
			return fmt.Errorf("failed to check beneficiary: %w", err)
		}
		if !exists {
			return ErrBeneficiaryDoesNotExist
		}

		registered, err := s.repo.IsRegistered(ctx, election.ID, beneficiary)
		if err != nil {
			return fmt.Errorf("failed to check registration: %w", err)
		}
		if registered {
			return ErrAlreadyRegistered
		}

		bond := decimal.Zero
		if election.BondRequired {
			bond = election.BondAmount
			if err := s.ledger.TransferFrom(ctx, s.roles.Custody, caller, s.roles.Custody, bond); err != nil {
				return fmt.Errorf("failed to deposit registration bond: %w", err)
			}
		}

		registration = &models.ElectionRegistration{
			ElectionID:   election.ID,
			Beneficiary:  beneficiary.Hex(),
			Votes:        decimal.Zero,
			BondPaid:     bond,
			RegisteredAt: now,
		}
		if err := s.repo.CreateRegistration(ctx, registration); err != nil {
			return fmt.Errorf("failed to register beneficiary: %w", err)
		}
		return batch.Record(ctx, EventBeneficiaryRegistered, map[string]interface{}{
			"term":        term,
			"round":       election.Round,
			"beneficiary": beneficiary.Hex(),
		})
	})
	if err != nil {
		return nil, err
	}

	batch.Flush(ctx)
	return registration, nil
}

// Vote allocates voice credits across registered beneficiaries. Repeated
// beneficiaries in one call add up. A voter may vote more than once while the
// total stays within their credits.
func (s *ElectionService) Vote(
	ctx context.Context,
	voter common.Address,
	beneficiaries []common.Address,
	weights []decimal.Decimal,
	term models.ElectionTerm,
) ([]models.ElectionVote, error) {
	if len(weights) == 0 {
		return nil, ErrVoiceCreditsRequired
	}
	if len(beneficiaries) == 0 {
		return nil, ErrBeneficiariesRequired
	}
	if len(beneficiaries) != len(weights) {
		return nil, ErrVoteArityMismatch
	}
	weights = lo.Map(weights, func(w decimal.Decimal, _ int) decimal.Decimal {
		return w.Truncate(TokenDecimals)
	})
	for _, w := range weights {
		if !w.IsPositive() {
			return nil, ErrInvalidVoteWeight
		}
	}
	if !term.Valid() {
		return nil, ErrInvalidTerm
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now().Unix()
	batch := s.events.Batch()
	var votes []models.ElectionVote

	err := s.repo.Transaction(ctx, func(ctx context.Context) error {
		election, err := s.currentElection(ctx, term, now, batch)
		if err != nil {
			return err
		}
		if election.State != models.ElectionStateVoting {
			return ErrElectionNotOpenForVoting
		}

		credits, err := s.credits.GetVoiceCredits(ctx, voter)
		if err != nil {
			return fmt.Errorf("failed to get voice credits: %w", err)
		}
		if !credits.IsPositive() {
			return ErrNoVoiceCredits
		}

		cast, err := s.repo.ListVoterVotes(ctx, election.ID, voter)
		if err != nil {
			return fmt.Errorf("failed to list votes: %w", err)
		}
		used := sumWeights(cast)
		requested := lo.Reduce(weights, func(acc decimal.Decimal, w decimal.Decimal, _ int) decimal.Decimal {
			return acc.Add(w)
		}, decimal.Zero)
		if used.Add(requested).GreaterThan(credits) {
			return ErrInsufficientVoiceCredits
		}

		regs, err := s.repo.ListRegistrations(ctx, election.ID)
		if err != nil {
			return fmt.Errorf("failed to list registrations: %w", err)
		}
		byAddress := lo.KeyBy(regs, func(r models.ElectionRegistration) string {
			return r.Beneficiary
		})
		for _, b := range beneficiaries {
			if _, ok := byAddress[b.Hex()]; !ok {
				return ErrIneligibleBeneficiary
			}
		}

		ballotID := uuid.NewString()
		votes = make([]models.ElectionVote, len(beneficiaries))
		for i, b := range beneficiaries {
			reg := byAddress[b.Hex()]
			reg.Votes = reg.Votes.Add(weights[i])
			byAddress[b.Hex()] = reg
			votes[i] = models.ElectionVote{
				BallotID:    ballotID,
				ElectionID:  election.ID,
				Voter:       voter.Hex(),
				Beneficiary: b.Hex(),
				Weight:      weights[i],
				CastAt:      now,
			}
		}
		for _, addr := range lo.Uniq(lo.Map(beneficiaries, func(b common.Address, _ int) string { return b.Hex() })) {
			reg := byAddress[addr]
			if err := s.repo.UpdateRegistration(ctx, &reg); err != nil {
				return fmt.Errorf("failed to update tally: %w", err)
			}
		}
		if err := s.repo.CreateElectionVotes(ctx, votes); err != nil {
			return fmt.Errorf("failed to record votes: %w", err)
		}

		return batch.Record(ctx, EventElectionVoteCast, map[string]interface{}{
			"term":      term,
			"round":     election.Round,
			"voter":     voter.Hex(),
			"ballot_id": ballotID,
			"total":     requested.String(),
		})
	})
	if err != nil {
		return nil, err
	}

	batch.Flush(ctx)
	return votes, nil
}

// RefreshElectionState persists any time-driven transition of the current
// round of a term
func (s *ElectionService) RefreshElectionState(ctx context.Context, term models.ElectionTerm) (*models.Election, error) {
	if !term.Valid() {
		return nil, ErrInvalidTerm
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now().Unix()
	batch := s.events.Batch()
	var election *models.Election

	err := s.repo.Transaction(ctx, func(ctx context.Context) error {
		e, err := s.currentElection(ctx, term, now, batch)
		election = e
		return err
	})
	if err != nil {
		return nil, err
	}

	batch.Flush(ctx)
	return election, nil
}

// GetElection returns the current round of a term with its state evaluated
func (s *ElectionService) GetElection(ctx context.Context, term models.ElectionTerm) (*models.Election, error) {
	if !term.Valid() {
		return nil, ErrInvalidTerm
	}
	election, err := s.repo.GetLatestElection(ctx, term)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrElectionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get election: %w", err)
	}
	election.State = EvaluateElectionState(election, s.clock.Now().Unix())
	return election, nil
}

// GetElectionMetadata returns the current round, its registrations and awardees
func (s *ElectionService) GetElectionMetadata(ctx context.Context, term models.ElectionTerm) (*ElectionMetadata, error) {
	election, err := s.GetElection(ctx, term)
	if err != nil {
		return nil, err
	}
	regs, err := s.repo.ListRegistrations(ctx, election.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list registrations: %w", err)
	}
	awardees, err := s.repo.ListAwardees(ctx, election.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list awardees: %w", err)
	}
	return &ElectionMetadata{
		Election: election,
		RegisteredBeneficiaries: lo.Map(regs, func(r models.ElectionRegistration, _ int) string {
			return r.Beneficiary
		}),
		Awardees: awardees,
	}, nil
}

// GetTallies returns every registration of the current round ordered by votes
func (s *ElectionService) GetTallies(ctx context.Context, term models.ElectionTerm) ([]models.ElectionRegistration, error) {
	election, err := s.GetElection(ctx, term)
	if err != nil {
		return nil, err
	}
	regs, err := s.repo.ListRegistrations(ctx, election.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list registrations: %w", err)
	}
	return RankRegistrations(regs, len(regs)), nil
}

// GetAwardees returns the selected awardees of the current round
func (s *ElectionService) GetAwardees(ctx context.Context, term models.ElectionTerm) ([]models.ElectionAwardee, error) {
	election, err := s.GetElection(ctx, term)
	if err != nil {
		return nil, err
	}
	return s.repo.ListAwardees(ctx, election.ID)
}

func (s *ElectionService) configuration(ctx context.Context, term models.ElectionTerm) (*models.ElectionConfiguration, error) {
	cfg, err := s.repo.GetElectionConfiguration(ctx, term)
	if err == nil {
		return cfg, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to get configuration: %w", err)
	}

	cfg = &models.ElectionConfiguration{Term: term, ElectionSettings: DefaultElectionSettings(term)}
	if err := s.repo.UpsertElectionConfiguration(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to seed configuration: %w", err)
	}
	return cfg, nil
}

// currentElection loads the latest round of a term and persists its
// time-driven transitions
func (s *ElectionService) currentElection(ctx context.Context, term models.ElectionTerm, now int64, batch *EventBatch) (*models.Election, error) {
	election, err := s.repo.GetLatestElection(ctx, term)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrElectionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get election: %w", err)
	}
	if err := s.refresh(ctx, election, now, batch); err != nil {
		return nil, err
	}
	return election, nil
}

func (s *ElectionService) refresh(ctx context.Context, e *models.Election, now int64, batch *EventBatch) error {
	next := EvaluateElectionState(e, now)
	if next == e.State {
		return nil
	}

	previous := e.State
	e.State = next
	if err := s.repo.UpdateElection(ctx, e); err != nil {
		return fmt.Errorf("failed to update election state: %w", err)
	}
	return batch.Record(ctx, EventElectionStateChanged, map[string]interface{}{
		"term":  e.Term,
		"round": e.Round,
		"from":  previous,
		"to":    next,
	})
}

func sumWeights(votes []models.ElectionVote) decimal.Decimal {
	return lo.Reduce(votes, func(acc decimal.Decimal, v models.ElectionVote, _ int) decimal.Decimal {
		return acc.Add(v.Weight)
	}, decimal.Zero)
}
