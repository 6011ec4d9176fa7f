package repository

import (
	"context"

	"grant-governance/internal/models"

	"github.com/ethereum/go-ethereum/common"
)

// ProposalFilter narrows ListProposals. Zero values match everything.
type ProposalFilter struct {
	Status      models.ProposalStatus
	Kind        models.ProposalKind
	Beneficiary *common.Address
	Proposer    *common.Address
	Limit       int
	Offset      int
}

// CreateProposal creates a new proposal
func (r *Repository) CreateProposal(ctx context.Context, proposal *models.Proposal) error {
	return r.conn(ctx).Create(proposal).Error
}

// GetProposal retrieves a proposal by its sequential id
func (r *Repository) GetProposal(ctx context.Context, proposalID uint64) (*models.Proposal, error) {
	var proposal models.Proposal
	err := r.conn(ctx).Where("proposal_id = ?", proposalID).First(&proposal).Error
	if err != nil {
		return nil, err
	}
	return &proposal, nil
}

// UpdateProposal saves all proposal fields
func (r *Repository) UpdateProposal(ctx context.Context, proposal *models.Proposal) error {
	return r.conn(ctx).Save(proposal).Error
}

// CountProposals returns the number of proposals ever created
func (r *Repository) CountProposals(ctx context.Context) (int64, error) {
	var count int64
	err := r.conn(ctx).Model(&models.Proposal{}).Count(&count).Error
	return count, err
}

// GetOpenNominations returns non-terminal nominations for a beneficiary
func (r *Repository) GetOpenNominations(ctx context.Context, beneficiary common.Address) ([]models.Proposal, error) {
	var proposals []models.Proposal
	err := r.conn(ctx).
		Where("beneficiary = ? AND kind = ? AND status NOT IN ?",
			beneficiary.Hex(), models.ProposalKindNomination,
			[]models.ProposalStatus{models.ProposalStatusPassed, models.ProposalStatusFailed}).
		Order("proposal_id ASC").
		Find(&proposals).Error
	return proposals, err
}

// ListProposals returns proposals ordered by id
func (r *Repository) ListProposals(ctx context.Context, filter ProposalFilter) ([]models.Proposal, error) {
	query := r.conn(ctx).Model(&models.Proposal{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Kind != "" {
		query = query.Where("kind = ?", filter.Kind)
	}
	if filter.Beneficiary != nil {
		query = query.Where("beneficiary = ?", filter.Beneficiary.Hex())
	}
	if filter.Proposer != nil {
		query = query.Where("proposer = ?", filter.Proposer.Hex())
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var proposals []models.Proposal
	err := query.Order("proposal_id ASC").Find(&proposals).Error
	return proposals, err
}

// ListOpenProposalsPastVoting returns non-terminal proposals whose initial
// voting window has elapsed at now
func (r *Repository) ListOpenProposalsPastVoting(ctx context.Context, now int64, limit int) ([]models.Proposal, error) {
	var proposals []models.Proposal
	err := r.conn(ctx).
		Where("status NOT IN ? AND started_at + voting_period <= ?",
			[]models.ProposalStatus{models.ProposalStatusPassed, models.ProposalStatusFailed}, now).
		Order("proposal_id ASC").
		Limit(limit).
		Find(&proposals).Error
	return proposals, err
}

// CreateProposalVote records a voter on a proposal
func (r *Repository) CreateProposalVote(ctx context.Context, vote *models.ProposalVote) error {
	return r.conn(ctx).Create(vote).Error
}

// HasVoted reports whether voter already voted on the proposal
func (r *Repository) HasVoted(ctx context.Context, proposalID uint64, voter common.Address) (bool, error) {
	var count int64
	err := r.conn(ctx).Model(&models.ProposalVote{}).
		Where("proposal_id = ? AND voter = ?", proposalID, voter.Hex()).
		Count(&count).Error
	return count > 0, err
}

// GetProposalSettings returns the settings row
func (r *Repository) GetProposalSettings(ctx context.Context) (*models.ProposalSettings, error) {
	var settings models.ProposalSettings
	err := r.conn(ctx).Order("id ASC").First(&settings).Error
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

// SaveProposalSettings creates or updates the settings row
func (r *Repository) SaveProposalSettings(ctx context.Context, settings *models.ProposalSettings) error {
	return r.conn(ctx).Save(settings).Error
}

// CreateRewardVault stores a vault reservation
func (r *Repository) CreateRewardVault(ctx context.Context, vault *models.RewardVault) error {
	return r.conn(ctx).Create(vault).Error
}

// GetRewardVault retrieves the vault reserved for a proposal
func (r *Repository) GetRewardVault(ctx context.Context, proposalID uint64) (*models.RewardVault, error) {
	var vault models.RewardVault
	err := r.conn(ctx).Where("proposal_id = ?", proposalID).First(&vault).Error
	if err != nil {
		return nil, err
	}
	return &vault, nil
}
