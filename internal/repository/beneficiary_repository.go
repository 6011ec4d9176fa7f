package repository

import (
	"context"

	"grant-governance/internal/models"

	"github.com/ethereum/go-ethereum/common"
)

// GetBeneficiary retrieves a directory member by address
func (r *Repository) GetBeneficiary(ctx context.Context, addr common.Address) (*models.Beneficiary, error) {
	var beneficiary models.Beneficiary
	err := r.conn(ctx).Where("address = ?", addr.Hex()).First(&beneficiary).Error
	if err != nil {
		return nil, err
	}
	return &beneficiary, nil
}

// BeneficiaryExists reports whether the address is a directory member
func (r *Repository) BeneficiaryExists(ctx context.Context, addr common.Address) (bool, error) {
	var count int64
	err := r.conn(ctx).Model(&models.Beneficiary{}).Where("address = ?", addr.Hex()).Count(&count).Error
	return count > 0, err
}

// CreateBeneficiary adds a directory member
func (r *Repository) CreateBeneficiary(ctx context.Context, beneficiary *models.Beneficiary) error {
	return r.conn(ctx).Create(beneficiary).Error
}

// DeleteBeneficiary removes a directory member and returns the number of rows removed
func (r *Repository) DeleteBeneficiary(ctx context.Context, addr common.Address) (int64, error) {
	result := r.conn(ctx).Where("address = ?", addr.Hex()).Delete(&models.Beneficiary{})
	return result.RowsAffected, result.Error
}

// ListBeneficiaries returns directory members in insertion order
func (r *Repository) ListBeneficiaries(ctx context.Context, limit, offset int) ([]models.Beneficiary, error) {
	query := r.conn(ctx).Order("id ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var beneficiaries []models.Beneficiary
	err := query.Find(&beneficiaries).Error
	return beneficiaries, err
}
