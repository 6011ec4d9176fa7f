package services

import (
	"context"
	"fmt"
	"log"

	"grant-governance/internal/models"
	"grant-governance/internal/repository"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
)

// DeferredOracle records randomness requests for an external provider. The
// provider answers through the governance randomness endpoint, which calls
// ElectionService.FulfillRandomness.
type DeferredOracle struct {
	repo *repository.Repository
}

func NewDeferredOracle(repo *repository.Repository) *DeferredOracle {
	return &DeferredOracle{repo: repo}
}

func (o *DeferredOracle) RequestRandomness(ctx context.Context, seed common.Hash) (string, error) {
	req := &models.RandomnessRequest{
		RequestID: uuid.NewString(),
		Seed:      seed.Hex(),
		Status:    models.RandomnessStatusPending,
	}
	if err := o.repo.CreateRandomnessRequest(ctx, req); err != nil {
		return "", fmt.Errorf("failed to store randomness request: %w", err)
	}
	log.Printf("[Oracle] Randomness requested: %s (seed %s)", req.RequestID, req.Seed)
	return req.RequestID, nil
}
