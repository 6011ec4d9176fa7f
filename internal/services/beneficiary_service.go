package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"grant-governance/internal/models"
	"grant-governance/internal/repository"

	"github.com/ethereum/go-ethereum/common"
	"gorm.io/gorm"
)

// BeneficiaryService is the database-backed beneficiary directory
type BeneficiaryService struct {
	repo *repository.Repository
}

func NewBeneficiaryService(repo *repository.Repository) *BeneficiaryService {
	return &BeneficiaryService{repo: repo}
}

func (s *BeneficiaryService) BeneficiaryExists(ctx context.Context, addr common.Address) (bool, error) {
	exists, err := s.repo.BeneficiaryExists(ctx, addr)
	if err != nil {
		return false, fmt.Errorf("failed to check beneficiary: %w", err)
	}
	return exists, nil
}

func (s *BeneficiaryService) AddBeneficiary(ctx context.Context, addr common.Address, contentRef common.Hash) error {
	exists, err := s.BeneficiaryExists(ctx, addr)
	if err != nil {
		return err
	}
	if exists {
		return ErrBeneficiaryExists
	}
	if err := s.repo.CreateBeneficiary(ctx, &models.Beneficiary{
		Address:    addr.Hex(),
		ContentRef: contentRef.Hex(),
	}); err != nil {
		return fmt.Errorf("failed to add beneficiary: %w", err)
	}
	log.Printf("[Directory] Added beneficiary %s", addr.Hex())
	return nil
}

func (s *BeneficiaryService) RemoveBeneficiary(ctx context.Context, addr common.Address) error {
	removed, err := s.repo.DeleteBeneficiary(ctx, addr)
	if err != nil {
		return fmt.Errorf("failed to remove beneficiary: %w", err)
	}
	if removed == 0 {
		return ErrBeneficiaryDoesNotExist
	}
	log.Printf("[Directory] Removed beneficiary %s", addr.Hex())
	return nil
}

func (s *BeneficiaryService) GetBeneficiary(ctx context.Context, addr common.Address) (*models.Beneficiary, error) {
	beneficiary, err := s.repo.GetBeneficiary(ctx, addr)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrBeneficiaryDoesNotExist
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get beneficiary: %w", err)
	}
	return beneficiary, nil
}

func (s *BeneficiaryService) ListBeneficiaries(ctx context.Context, limit, offset int) ([]models.Beneficiary, error) {
	return s.repo.ListBeneficiaries(ctx, limit, offset)
}
