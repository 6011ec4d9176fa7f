package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// LedgerAccount is a token balance
type LedgerAccount struct {
	ID        uint            `gorm:"primaryKey" json:"-"`
	Address   string          `gorm:"uniqueIndex;size:42;not null" json:"address"`
	Balance   decimal.Decimal `gorm:"type:decimal(38,18);not null" json:"balance"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (LedgerAccount) TableName() string {
	return "ledger_accounts"
}

// LedgerAllowance is the amount spender may move out of owner's account
type LedgerAllowance struct {
	ID        uint            `gorm:"primaryKey" json:"-"`
	Owner     string          `gorm:"uniqueIndex:idx_allowance;size:42;not null" json:"owner"`
	Spender   string          `gorm:"uniqueIndex:idx_allowance;size:42;not null" json:"spender"`
	Amount    decimal.Decimal `gorm:"type:decimal(38,18);not null" json:"amount"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (LedgerAllowance) TableName() string {
	return "ledger_allowances"
}

// LedgerTransfer records every balance movement. Mints have an empty Sender.
type LedgerTransfer struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	Sender    string          `gorm:"size:42;index" json:"sender"`
	Recipient string          `gorm:"size:42;not null;index" json:"recipient"`
	Amount    decimal.Decimal `gorm:"type:decimal(38,18);not null" json:"amount"`
	CreatedAt time.Time       `json:"created_at"`
}

func (LedgerTransfer) TableName() string {
	return "ledger_transfers"
}

// StakeLock is a token lock that yields voice credits until it expires
type StakeLock struct {
	ID          uint            `gorm:"primaryKey" json:"-"`
	Address     string          `gorm:"uniqueIndex;size:42;not null" json:"address"`
	Amount      decimal.Decimal `gorm:"type:decimal(38,18);not null" json:"amount"`
	LockedUntil int64           `gorm:"not null" json:"locked_until"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func (StakeLock) TableName() string {
	return "stake_locks"
}
