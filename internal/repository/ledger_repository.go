package repository

import (
	"context"
	"errors"

	"grant-governance/internal/models"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrStakeLockReleased is returned when a lock was removed by a concurrent call
var ErrStakeLockReleased = errors.New("stake lock already released")

// forUpdate row-locks the selected rows until the transaction on ctx ends.
// sqlite ignores the clause and relies on its database-wide write lock.
func (r *Repository) forUpdate(ctx context.Context) *gorm.DB {
	return r.conn(ctx).Clauses(clause.Locking{Strength: "UPDATE"})
}

// GetLedgerAccount returns the account of an address, or an unsaved zero
// account when it has never held tokens
func (r *Repository) GetLedgerAccount(ctx context.Context, addr common.Address) (*models.LedgerAccount, error) {
	var accounts []models.LedgerAccount
	err := r.conn(ctx).Where("address = ?", addr.Hex()).Limit(1).Find(&accounts).Error
	if err != nil {
		return nil, err
	}
	if len(accounts) == 0 {
		return &models.LedgerAccount{Address: addr.Hex(), Balance: decimal.Zero}, nil
	}
	return &accounts[0], nil
}

// LockLedgerAccount is GetLedgerAccount holding a row lock for the rest of
// the transaction
func (r *Repository) LockLedgerAccount(ctx context.Context, addr common.Address) (*models.LedgerAccount, error) {
	var accounts []models.LedgerAccount
	err := r.forUpdate(ctx).Where("address = ?", addr.Hex()).Limit(1).Find(&accounts).Error
	if err != nil {
		return nil, err
	}
	if len(accounts) == 0 {
		return &models.LedgerAccount{Address: addr.Hex(), Balance: decimal.Zero}, nil
	}
	return &accounts[0], nil
}

// SaveLedgerAccount creates or updates an account
func (r *Repository) SaveLedgerAccount(ctx context.Context, account *models.LedgerAccount) error {
	return r.conn(ctx).Save(account).Error
}

// GetLedgerAllowance returns the allowance of spender over owner, or an
// unsaved zero allowance
func (r *Repository) GetLedgerAllowance(ctx context.Context, owner, spender common.Address) (*models.LedgerAllowance, error) {
	var allowances []models.LedgerAllowance
	err := r.conn(ctx).
		Where("owner = ? AND spender = ?", owner.Hex(), spender.Hex()).
		Limit(1).
		Find(&allowances).Error
	if err != nil {
		return nil, err
	}
	if len(allowances) == 0 {
		return &models.LedgerAllowance{Owner: owner.Hex(), Spender: spender.Hex(), Amount: decimal.Zero}, nil
	}
	return &allowances[0], nil
}

// LockLedgerAllowance is GetLedgerAllowance holding a row lock
func (r *Repository) LockLedgerAllowance(ctx context.Context, owner, spender common.Address) (*models.LedgerAllowance, error) {
	var allowances []models.LedgerAllowance
	err := r.forUpdate(ctx).
		Where("owner = ? AND spender = ?", owner.Hex(), spender.Hex()).
		Limit(1).
		Find(&allowances).Error
	if err != nil {
		return nil, err
	}
	if len(allowances) == 0 {
		return &models.LedgerAllowance{Owner: owner.Hex(), Spender: spender.Hex(), Amount: decimal.Zero}, nil
	}
	return &allowances[0], nil
}

// SaveLedgerAllowance creates or updates an allowance
func (r *Repository) SaveLedgerAllowance(ctx context.Context, allowance *models.LedgerAllowance) error {
	return r.conn(ctx).Save(allowance).Error
}

// CreateLedgerTransfer records a balance movement
func (r *Repository) CreateLedgerTransfer(ctx context.Context, transfer *models.LedgerTransfer) error {
	return r.conn(ctx).Create(transfer).Error
}

// ListLedgerTransfers returns the most recent movements touching an address
func (r *Repository) ListLedgerTransfers(ctx context.Context, addr common.Address, limit int) ([]models.LedgerTransfer, error) {
	var transfers []models.LedgerTransfer
	err := r.conn(ctx).
		Where("sender = ? OR recipient = ?", addr.Hex(), addr.Hex()).
		Order("id DESC").
		Limit(limit).
		Find(&transfers).Error
	return transfers, err
}

// GetStakeLock returns the lock of an address
func (r *Repository) GetStakeLock(ctx context.Context, addr common.Address) (*models.StakeLock, error) {
	var lock models.StakeLock
	err := r.conn(ctx).Where("address = ?", addr.Hex()).First(&lock).Error
	if err != nil {
		return nil, err
	}
	return &lock, nil
}

// LockStakeLock is GetStakeLock holding a row lock
func (r *Repository) LockStakeLock(ctx context.Context, addr common.Address) (*models.StakeLock, error) {
	var lock models.StakeLock
	err := r.forUpdate(ctx).Where("address = ?", addr.Hex()).First(&lock).Error
	if err != nil {
		return nil, err
	}
	return &lock, nil
}

// SaveStakeLock creates or updates a lock
func (r *Repository) SaveStakeLock(ctx context.Context, lock *models.StakeLock) error {
	return r.conn(ctx).Save(lock).Error
}

// DeleteStakeLock removes a lock. It fails with ErrStakeLockReleased when the
// row is already gone.
func (r *Repository) DeleteStakeLock(ctx context.Context, lock *models.StakeLock) error {
	result := r.conn(ctx).Where("id = ?", lock.ID).Delete(&models.StakeLock{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrStakeLockReleased
	}
	return nil
}
