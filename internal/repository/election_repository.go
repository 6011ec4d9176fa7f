package repository

import (
	"context"

	"grant-governance/internal/models"

	"github.com/ethereum/go-ethereum/common"
	"gorm.io/gorm/clause"
)

// GetElectionConfiguration retrieves the configuration of a term
func (r *Repository) GetElectionConfiguration(ctx context.Context, term models.ElectionTerm) (*models.ElectionConfiguration, error) {
	var cfg models.ElectionConfiguration
	err := r.conn(ctx).Where("term = ?", term).First(&cfg).Error
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ListElectionConfigurations returns every stored configuration
func (r *Repository) ListElectionConfigurations(ctx context.Context) ([]models.ElectionConfiguration, error) {
	var cfgs []models.ElectionConfiguration
	err := r.conn(ctx).Order("id ASC").Find(&cfgs).Error
	return cfgs, err
}

// UpsertElectionConfiguration writes the configuration of a term, replacing
// any existing row for it
func (r *Repository) UpsertElectionConfiguration(ctx context.Context, cfg *models.ElectionConfiguration) error {
	return r.conn(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "term"}},
		UpdateAll: true,
	}).Create(cfg).Error
}

// CreateElection creates a new election round
func (r *Repository) CreateElection(ctx context.Context, election *models.Election) error {
	return r.conn(ctx).Create(election).Error
}

// UpdateElection saves all election fields
func (r *Repository) UpdateElection(ctx context.Context, election *models.Election) error {
	return r.conn(ctx).Save(election).Error
}

// GetLatestElection retrieves the most recent round of a term
func (r *Repository) GetLatestElection(ctx context.Context, term models.ElectionTerm) (*models.Election, error) {
	var election models.Election
	err := r.conn(ctx).Where("term = ?", term).Order("round DESC").First(&election).Error
	if err != nil {
		return nil, err
	}
	return &election, nil
}

// GetElectionByID retrieves an election by primary key
func (r *Repository) GetElectionByID(ctx context.Context, id uint) (*models.Election, error) {
	var election models.Election
	err := r.conn(ctx).First(&election, id).Error
	if err != nil {
		return nil, err
	}
	return &election, nil
}

// GetElectionByRandomnessRequest retrieves the election waiting on a request
func (r *Repository) GetElectionByRandomnessRequest(ctx context.Context, requestID string) (*models.Election, error) {
	var election models.Election
	err := r.conn(ctx).Where("randomness_request_id = ?", requestID).First(&election).Error
	if err != nil {
		return nil, err
	}
	return &election, nil
}

// CreateRegistration registers a beneficiary in an election
func (r *Repository) CreateRegistration(ctx context.Context, reg *models.ElectionRegistration) error {
	return r.conn(ctx).Create(reg).Error
}

// IsRegistered reports whether a beneficiary is registered in an election
func (r *Repository) IsRegistered(ctx context.Context, electionID uint, beneficiary common.Address) (bool, error) {
	var count int64
	err := r.conn(ctx).Model(&models.ElectionRegistration{}).
		Where("election_id = ? AND beneficiary = ?", electionID, beneficiary.Hex()).
		Count(&count).Error
	return count > 0, err
}

// ListRegistrations returns the registrations of an election in registration order
func (r *Repository) ListRegistrations(ctx context.Context, electionID uint) ([]models.ElectionRegistration, error) {
	var regs []models.ElectionRegistration
	err := r.conn(ctx).Where("election_id = ?", electionID).Order("id ASC").Find(&regs).Error
	return regs, err
}

// UpdateRegistration saves a registration and its tally
func (r *Repository) UpdateRegistration(ctx context.Context, reg *models.ElectionRegistration) error {
	return r.conn(ctx).Save(reg).Error
}

// CreateElectionVotes stores the allocations of a ballot
func (r *Repository) CreateElectionVotes(ctx context.Context, votes []models.ElectionVote) error {
	return r.conn(ctx).Create(&votes).Error
}

// ListVoterVotes returns the allocations a voter cast in an election
func (r *Repository) ListVoterVotes(ctx context.Context, electionID uint, voter common.Address) ([]models.ElectionVote, error) {
	var votes []models.ElectionVote
	err := r.conn(ctx).Where("election_id = ? AND voter = ?", electionID, voter.Hex()).Find(&votes).Error
	return votes, err
}

// CreateAwardees stores the selected awardees of an election
func (r *Repository) CreateAwardees(ctx context.Context, awardees []models.ElectionAwardee) error {
	if len(awardees) == 0 {
		return nil
	}
	return r.conn(ctx).Create(&awardees).Error
}

// ListAwardees returns the awardees of an election by rank
func (r *Repository) ListAwardees(ctx context.Context, electionID uint) ([]models.ElectionAwardee, error) {
	var awardees []models.ElectionAwardee
	err := r.conn(ctx).Where("election_id = ?", electionID).Order("rank ASC").Find(&awardees).Error
	return awardees, err
}

// GetElectionTreasury returns the treasury row, or a zero row when none exists yet
func (r *Repository) GetElectionTreasury(ctx context.Context) (*models.ElectionTreasury, error) {
	var treasury models.ElectionTreasury
	err := r.conn(ctx).Order("id ASC").Limit(1).Find(&treasury).Error
	if err != nil {
		return nil, err
	}
	return &treasury, nil
}

// SaveElectionTreasury creates or updates the treasury row
func (r *Repository) SaveElectionTreasury(ctx context.Context, treasury *models.ElectionTreasury) error {
	return r.conn(ctx).Save(treasury).Error
}

// CreateRandomnessRequest stores an oracle request
func (r *Repository) CreateRandomnessRequest(ctx context.Context, req *models.RandomnessRequest) error {
	return r.conn(ctx).Create(req).Error
}

// GetRandomnessRequest retrieves an oracle request by id
func (r *Repository) GetRandomnessRequest(ctx context.Context, requestID string) (*models.RandomnessRequest, error) {
	var req models.RandomnessRequest
	err := r.conn(ctx).Where("request_id = ?", requestID).First(&req).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// UpdateRandomnessRequest saves an oracle request
func (r *Repository) UpdateRandomnessRequest(ctx context.Context, req *models.RandomnessRequest) error {
	return r.conn(ctx).Save(req).Error
}
