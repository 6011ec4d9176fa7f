package services

import (
	"bytes"
	"context"
	"fmt"
	"sort"

	"grant-governance/internal/models"
	"grant-governance/internal/repository"

	"github.com/ethereum/go-ethereum/common"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// TokenDecimals is the number of fractional digits every amount carries
const TokenDecimals = 18

// LedgerService is a database-backed token ledger with allowances
type LedgerService struct {
	repo *repository.Repository
}

func NewLedgerService(repo *repository.Repository) *LedgerService {
	return &LedgerService{repo: repo}
}

// NormalizeAmount truncates an amount to the ledger precision and rejects
// negative values
func NormalizeAmount(amount decimal.Decimal) (decimal.Decimal, error) {
	if amount.IsNegative() {
		return decimal.Zero, ErrInvalidAmount
	}
	return amount.Truncate(TokenDecimals), nil
}

func (s *LedgerService) BalanceOf(ctx context.Context, owner common.Address) (decimal.Decimal, error) {
	account, err := s.repo.GetLedgerAccount(ctx, owner)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to get balance: %w", err)
	}
	return account.Balance, nil
}

func (s *LedgerService) Allowance(ctx context.Context, owner, spender common.Address) (decimal.Decimal, error) {
	allowance, err := s.repo.GetLedgerAllowance(ctx, owner, spender)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to get allowance: %w", err)
	}
	return allowance.Amount, nil
}

// Approve sets the amount spender may move out of owner's account
func (s *LedgerService) Approve(ctx context.Context, owner, spender common.Address, amount decimal.Decimal) error {
	amount, err := NormalizeAmount(amount)
	if err != nil {
		return err
	}
	return s.repo.Transaction(ctx, func(ctx context.Context) error {
		allowance, err := s.repo.LockLedgerAllowance(ctx, owner, spender)
		if err != nil {
			return fmt.Errorf("failed to get allowance: %w", err)
		}
		allowance.Amount = amount
		if err := s.repo.SaveLedgerAllowance(ctx, allowance); err != nil {
			return fmt.Errorf("failed to save allowance: %w", err)
		}
		return nil
	})
}

// Mint credits new tokens to an account
func (s *LedgerService) Mint(ctx context.Context, to common.Address, amount decimal.Decimal) error {
	amount, err := NormalizeAmount(amount)
	if err != nil {
		return err
	}
	return s.repo.Transaction(ctx, func(ctx context.Context) error {
		account, err := s.repo.LockLedgerAccount(ctx, to)
		if err != nil {
			return fmt.Errorf("failed to get account: %w", err)
		}
		account.Balance = account.Balance.Add(amount)
		if err := s.repo.SaveLedgerAccount(ctx, account); err != nil {
			return fmt.Errorf("failed to credit account: %w", err)
		}
		return s.repo.CreateLedgerTransfer(ctx, &models.LedgerTransfer{
			Recipient: to.Hex(),
			Amount:    amount,
		})
	})
}

// Transfer moves tokens from one account to another
func (s *LedgerService) Transfer(ctx context.Context, from, to common.Address, amount decimal.Decimal) error {
	amount, err := NormalizeAmount(amount)
	if err != nil {
		return err
	}
	return s.repo.Transaction(ctx, func(ctx context.Context) error {
		return s.move(ctx, from, to, amount)
	})
}

// TransferFrom moves tokens out of from's account on behalf of spender,
// consuming spender's allowance
func (s *LedgerService) TransferFrom(ctx context.Context, spender, from, to common.Address, amount decimal.Decimal) error {
	amount, err := NormalizeAmount(amount)
	if err != nil {
		return err
	}
	return s.repo.Transaction(ctx, func(ctx context.Context) error {
		allowance, err := s.repo.LockLedgerAllowance(ctx, from, spender)
		if err != nil {
			return fmt.Errorf("failed to get allowance: %w", err)
		}
		if allowance.Amount.LessThan(amount) {
			return ErrInsufficientAllowance
		}
		allowance.Amount = allowance.Amount.Sub(amount)
		if err := s.repo.SaveLedgerAllowance(ctx, allowance); err != nil {
			return fmt.Errorf("failed to save allowance: %w", err)
		}
		return s.move(ctx, from, to, amount)
	})
}

// ListTransfers returns recent movements touching an address
func (s *LedgerService) ListTransfers(ctx context.Context, addr common.Address, limit int) ([]models.LedgerTransfer, error) {
	return s.repo.ListLedgerTransfers(ctx, addr, limit)
}

func (s *LedgerService) move(ctx context.Context, from, to common.Address, amount decimal.Decimal) error {
	accounts, err := s.lockAccounts(ctx, from, to)
	if err != nil {
		return err
	}
	source, dest := accounts[from], accounts[to]
	if source.Balance.LessThan(amount) {
		return ErrInsufficientBalance
	}
	if from == to {
		return nil
	}

	source.Balance = source.Balance.Sub(amount)
	dest.Balance = dest.Balance.Add(amount)
	if err := s.repo.SaveLedgerAccount(ctx, source); err != nil {
		return fmt.Errorf("failed to debit account: %w", err)
	}
	if err := s.repo.SaveLedgerAccount(ctx, dest); err != nil {
		return fmt.Errorf("failed to credit account: %w", err)
	}
	return s.repo.CreateLedgerTransfer(ctx, &models.LedgerTransfer{
		Sender:    from.Hex(),
		Recipient: to.Hex(),
		Amount:    amount,
	})
}

// lockAccounts row-locks the accounts in address order so two opposite
// transfers cannot deadlock
func (s *LedgerService) lockAccounts(ctx context.Context, addrs ...common.Address) (map[common.Address]*models.LedgerAccount, error) {
	ordered := lo.Uniq(addrs)
	sort.Slice(ordered, func(i, j int) bool {
		return bytes.Compare(ordered[i].Bytes(), ordered[j].Bytes()) < 0
	})

	accounts := make(map[common.Address]*models.LedgerAccount, len(ordered))
	for _, addr := range ordered {
		account, err := s.repo.LockLedgerAccount(ctx, addr)
		if err != nil {
			return nil, fmt.Errorf("failed to get account: %w", err)
		}
		accounts[addr] = account
	}
	return accounts, nil
}
