package services

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"grant-governance/internal/database"
	"grant-governance/internal/models"
	"grant-governance/internal/repository"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const day = 24 * time.Hour

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "governance.db")), &gorm.Config{
		Logger: logger.Discard,
	})
	require.NoError(t, err, "failed to connect database")
	require.NoError(t, database.AutoMigrate(db), "failed to migrate database")
	return db
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

type creditMap map[common.Address]decimal.Decimal

func (m creditMap) GetVoiceCredits(_ context.Context, addr common.Address) (decimal.Decimal, error) {
	return m[addr], nil
}

type fakeOracle struct {
	seeds []common.Hash
	err   error
}

func (o *fakeOracle) RequestRandomness(_ context.Context, seed common.Hash) (string, error) {
	if o.err != nil {
		return "", o.err
	}
	o.seeds = append(o.seeds, seed)
	return fmt.Sprintf("request-%d", len(o.seeds)), nil
}

// failingLedger fails TransferFrom after the bond checks have passed
type failingLedger struct {
	Ledger
	err error
}

func (l failingLedger) TransferFrom(context.Context, common.Address, common.Address, common.Address, decimal.Decimal) error {
	return l.err
}

type testEnv struct {
	ctx        context.Context
	repo       *repository.Repository
	ledger     *LedgerService
	directory  *BeneficiaryService
	credits    creditMap
	clock      *fakeClock
	oracle     *fakeOracle
	events     *EventService
	proposals  *ProposalService
	elections  *ElectionService
	governance common.Address
	custody    common.Address
}

func defaultProposalSettings() models.ProposalSettings {
	return models.ProposalSettings{
		VotingPeriod:  int64(2 * day / time.Second),
		VetoPeriod:    int64(2 * day / time.Second),
		ProposalBond:  amount(2000),
		RewardBudget:  amount(500),
		RewardBalance: decimal.Zero,
	}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	repo := repository.NewRepository(setupTestDB(t))

	env := &testEnv{
		ctx:        context.Background(),
		repo:       repo,
		ledger:     NewLedgerService(repo),
		directory:  NewBeneficiaryService(repo),
		credits:    creditMap{},
		clock:      &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)},
		oracle:     &fakeOracle{},
		events:     NewEventService(repo, nil),
		governance: addr(0xA0),
		custody:    addr(0xC0),
	}
	roles := Roles{Governance: env.governance, Custody: env.custody}
	env.proposals = NewProposalService(repo, env.deps(), roles, defaultProposalSettings())
	env.elections = NewElectionService(repo, env.deps(), roles)
	return env
}

func (e *testEnv) deps() Collaborators {
	return Collaborators{
		Ledger:    e.ledger,
		Credits:   e.credits,
		Directory: e.directory,
		Oracle:    e.oracle,
		Events:    e.events,
		Clock:     e.clock,
	}
}

// fund mints tokens to owner and approves the custody address to pull them
func (e *testEnv) fund(t *testing.T, owner common.Address, value int64) {
	t.Helper()
	require.NoError(t, e.ledger.Mint(e.ctx, owner, amount(value)))
	require.NoError(t, e.ledger.Approve(e.ctx, owner, e.custody, amount(value)))
}

func (e *testEnv) balance(t *testing.T, owner common.Address) decimal.Decimal {
	t.Helper()
	b, err := e.ledger.BalanceOf(e.ctx, owner)
	require.NoError(t, err)
	return b
}

func (e *testEnv) eventCount(t *testing.T, name string) int {
	t.Helper()
	events, err := e.events.ListEvents(e.ctx, name, 0)
	require.NoError(t, err)
	return len(events)
}

func (e *testEnv) addBeneficiary(t *testing.T, beneficiary common.Address) {
	t.Helper()
	require.NoError(t, e.directory.AddBeneficiary(e.ctx, beneficiary, common.HexToHash("0x01")))
}

func addr(b byte) common.Address {
	return common.BytesToAddress([]byte{b})
}

func amount(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

func assertAmount(t *testing.T, want int64, got decimal.Decimal) {
	t.Helper()
	require.Truef(t, got.Equal(amount(want)), "expected %d, got %s", want, got)
}
