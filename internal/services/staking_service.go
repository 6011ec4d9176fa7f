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

// MaxLockPeriod is the lock length that yields one voice credit per token
const MaxLockPeriod = 4 * 365 * 24 * time.Hour

// StakingService locks tokens and derives voice credits from the locks.
// Credits decay linearly to zero at the end of the lock.
type StakingService struct {
	repo    *repository.Repository
	ledger  Ledger
	clock   Clock
	custody common.Address

	mu sync.Mutex
}

func NewStakingService(repo *repository.Repository, ledger Ledger, clock Clock, custody common.Address) *StakingService {
	return &StakingService{repo: repo, ledger: ledger, clock: clock, custody: custody}
}

// Lock adds amount to the caller's lock and extends it to at least now+duration
func (s *StakingService) Lock(ctx context.Context, owner common.Address, amount decimal.Decimal, duration time.Duration) (*models.StakeLock, error) {
	amount, err := NormalizeAmount(amount)
	if err != nil {
		return nil, err
	}
	if duration <= 0 || duration > MaxLockPeriod {
		return nil, ErrInvalidLockDuration
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now().Unix()
	var lock *models.StakeLock
	err = s.repo.Transaction(ctx, func(ctx context.Context) error {
		existing, err := s.repo.LockStakeLock(ctx, owner)
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			existing = &models.StakeLock{Address: owner.Hex(), Amount: decimal.Zero}
		case err != nil:
			return fmt.Errorf("failed to get stake lock: %w", err)
		}

		if err := s.ledger.Transfer(ctx, owner, s.custody, amount); err != nil {
			return fmt.Errorf("failed to lock tokens: %w", err)
		}

		existing.Amount = existing.Amount.Add(amount)
		until := now + int64(duration/time.Second)
		if until > existing.LockedUntil {
			existing.LockedUntil = until
		}
		if err := s.repo.SaveStakeLock(ctx, existing); err != nil {
			return fmt.Errorf("failed to save stake lock: %w", err)
		}
		lock = existing
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[Staking] %s locked %s until %d", owner.Hex(), amount, lock.LockedUntil)
	return lock, nil
}

// Withdraw returns an expired lock to its owner
func (s *StakingService) Withdraw(ctx context.Context, owner common.Address) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now().Unix()
	var amount decimal.Decimal
	err := s.repo.Transaction(ctx, func(ctx context.Context) error {
		lock, err := s.repo.LockStakeLock(ctx, owner)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNoStakeLock
		}
		if err != nil {
			return fmt.Errorf("failed to get stake lock: %w", err)
		}
		if now < lock.LockedUntil {
			return ErrStakeLocked
		}

		// Delete first so a concurrent withdraw of the same lock releases nothing
		if err := s.repo.DeleteStakeLock(ctx, lock); err != nil {
			if errors.Is(err, repository.ErrStakeLockReleased) {
				return ErrNoStakeLock
			}
			return fmt.Errorf("failed to release stake lock: %w", err)
		}
		if err := s.ledger.Transfer(ctx, s.custody, owner, lock.Amount); err != nil {
			return fmt.Errorf("failed to release tokens: %w", err)
		}
		amount = lock.Amount
		return nil
	})
	return amount, err
}

// GetStakeLock returns the lock of an address
func (s *StakingService) GetStakeLock(ctx context.Context, owner common.Address) (*models.StakeLock, error) {
	lock, err := s.repo.GetStakeLock(ctx, owner)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNoStakeLock
	}
	return lock, err
}

// GetVoiceCredits is floor(amount * remaining / MaxLockPeriod)
func (s *StakingService) GetVoiceCredits(ctx context.Context, addr common.Address) (decimal.Decimal, error) {
	lock, err := s.repo.GetStakeLock(ctx, addr)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to get stake lock: %w", err)
	}
	return VoiceCredits(lock, s.clock.Now().Unix()), nil
}

// VoiceCredits computes the credits a lock yields at now
func VoiceCredits(lock *models.StakeLock, now int64) decimal.Decimal {
	remaining := lock.LockedUntil - now
	if remaining <= 0 {
		return decimal.Zero
	}
	maxLock := decimal.NewFromInt(int64(MaxLockPeriod / time.Second))
	return lock.Amount.Mul(decimal.NewFromInt(remaining)).Div(maxLock).Floor()
}
