package services

import (
	"errors"
	"testing"
	"time"

	"grant-governance/internal/models"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	proposer    = addr(0x01)
	beneficiary = addr(0x02)
	contentRef  = common.HexToHash("0xabcdef")
)

func (e *testEnv) createNomination(t *testing.T) *models.Proposal {
	t.Helper()
	e.fund(t, proposer, 2000)
	p, err := e.proposals.CreateProposal(e.ctx, proposer, beneficiary, contentRef, models.ProposalKindNomination)
	require.NoError(t, err)
	return p
}

func (e *testEnv) castVotes(t *testing.T, id uint64, yes, no []int64) {
	t.Helper()
	voter := byte(0x10)
	for _, weights := range []struct {
		choice models.VoteChoice
		values []int64
	}{{models.VoteChoiceYes, yes}, {models.VoteChoiceNo, no}} {
		for _, w := range weights.values {
			v := addr(voter)
			voter++
			e.credits[v] = amount(w)
			_, err := e.proposals.Vote(e.ctx, v, id, weights.choice)
			require.NoError(t, err)
		}
	}
}

func TestCreateProposalTakesBond(t *testing.T) {
	env := newTestEnv(t)

	p := env.createNomination(t)

	assert.Equal(t, uint64(0), p.ProposalID)
	assert.Equal(t, models.ProposalStatusNew, p.Status)
	assert.Equal(t, beneficiary.Hex(), p.Beneficiary)
	assert.Equal(t, contentRef.Hex(), p.ContentRef)
	assertAmount(t, 0, env.balance(t, proposer))
	assertAmount(t, 2000, env.balance(t, env.custody))
	assert.Equal(t, 1, env.eventCount(t, EventProposalCreated))

	// No reward pool, so no vault
	assert.Equal(t, 0, env.eventCount(t, EventVaultInitialized))
	vault, err := env.proposals.GetRewardVault(env.ctx, p.ProposalID)
	require.NoError(t, err)
	assert.Nil(t, vault)
}

func TestCreateProposalInsufficientBondChangesNothing(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.ledger.Mint(env.ctx, proposer, amount(2000)))
	require.NoError(t, env.ledger.Approve(env.ctx, proposer, env.custody, amount(1500)))

	_, err := env.proposals.CreateProposal(env.ctx, proposer, beneficiary, contentRef, models.ProposalKindNomination)
	assert.ErrorIs(t, err, ErrProposalBondInsufficient)

	count, err := env.proposals.CountProposals(env.ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
	assertAmount(t, 2000, env.balance(t, proposer))
	allowance, err := env.ledger.Allowance(env.ctx, proposer, env.custody)
	require.NoError(t, err)
	assertAmount(t, 1500, allowance)

	// Balance short of the bond fails the same way
	poor := addr(0x03)
	require.NoError(t, env.ledger.Mint(env.ctx, poor, amount(100)))
	require.NoError(t, env.ledger.Approve(env.ctx, poor, env.custody, amount(5000)))
	_, err = env.proposals.CreateProposal(env.ctx, poor, beneficiary, contentRef, models.ProposalKindNomination)
	assert.ErrorIs(t, err, ErrProposalBondInsufficient)
}

func TestCreateProposalLedgerFailureLeavesNoProposal(t *testing.T) {
	env := newTestEnv(t)
	env.fund(t, proposer, 2000)

	ledgerErr := errors.New("ledger unavailable")
	deps := env.deps()
	deps.Ledger = failingLedger{Ledger: env.ledger, err: ledgerErr}
	svc := NewProposalService(env.repo, deps, Roles{Governance: env.governance, Custody: env.custody}, defaultProposalSettings())

	_, err := svc.CreateProposal(env.ctx, proposer, beneficiary, contentRef, models.ProposalKindNomination)
	assert.ErrorIs(t, err, ledgerErr)

	count, err := svc.CountProposals(env.ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
	assertAmount(t, 2000, env.balance(t, proposer))
	assert.Equal(t, 0, env.eventCount(t, EventProposalCreated))
}

func TestCreateProposalSingleOpenNomination(t *testing.T) {
	env := newTestEnv(t)
	env.createNomination(t)

	other := addr(0x04)
	env.fund(t, other, 2000)
	_, err := env.proposals.CreateProposal(env.ctx, other, beneficiary, contentRef, models.ProposalKindNomination)
	assert.ErrorIs(t, err, ErrBeneficiaryAlreadyPendingOrExists)
	assertAmount(t, 2000, env.balance(t, other))

	// Once the first nomination has failed its initial window, a new one may open
	env.clock.Advance(2 * day)
	p, err := env.proposals.CreateProposal(env.ctx, other, beneficiary, contentRef, models.ProposalKindNomination)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), p.ProposalID)

	first, err := env.proposals.GetProposal(env.ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, models.ProposalStatusFailed, first.Status)
}

func TestCreateProposalBeneficiaryChecks(t *testing.T) {
	env := newTestEnv(t)
	env.fund(t, proposer, 4000)

	_, err := env.proposals.CreateProposal(env.ctx, proposer, beneficiary, contentRef, models.ProposalKindTakedown)
	assert.ErrorIs(t, err, ErrBeneficiaryDoesNotExist)

	env.addBeneficiary(t, beneficiary)
	_, err = env.proposals.CreateProposal(env.ctx, proposer, beneficiary, contentRef, models.ProposalKindNomination)
	assert.ErrorIs(t, err, ErrBeneficiaryAlreadyPendingOrExists)

	p, err := env.proposals.CreateProposal(env.ctx, proposer, beneficiary, contentRef, models.ProposalKindTakedown)
	require.NoError(t, err)
	assert.Equal(t, models.ProposalKindTakedown, p.Kind)

	_, err = env.proposals.CreateProposal(env.ctx, proposer, beneficiary, contentRef, "BOGUS")
	assert.ErrorIs(t, err, ErrInvalidProposalKind)
}

func TestFinalizeMovesYesMajorityIntoChallengePeriod(t *testing.T) {
	env := newTestEnv(t)
	p := env.createNomination(t)
	env.castVotes(t, p.ProposalID, []int64{20, 30, 40}, []int64{30, 20})

	env.clock.Advance(2 * day)
	p, err := env.proposals.Finalize(env.ctx, proposer, p.ProposalID)
	require.NoError(t, err)

	assert.Equal(t, models.ProposalStatusChallengePeriod, p.Status)
	assertAmount(t, 90, p.YesCount)
	assertAmount(t, 50, p.NoCount)
	assert.Equal(t, 5, p.VoterCount)

	// Still favorable inside the challenge window
	_, err = env.proposals.Finalize(env.ctx, proposer, p.ProposalID)
	assert.ErrorIs(t, err, ErrFinalizationNotAllowed)
}

func TestFinalizePassesAfterChallengeWindow(t *testing.T) {
	env := newTestEnv(t)
	p := env.createNomination(t)
	env.castVotes(t, p.ProposalID, []int64{20, 30, 40}, []int64{30, 20})

	env.clock.Advance(4 * day)
	p, err := env.proposals.Finalize(env.ctx, proposer, p.ProposalID)
	require.NoError(t, err)
	assert.Equal(t, models.ProposalStatusPassed, p.Status)
	assert.NotNil(t, p.FinalizedAt)

	exists, err := env.directory.BeneficiaryExists(env.ctx, beneficiary)
	require.NoError(t, err)
	assert.True(t, exists)

	member, err := env.directory.GetBeneficiary(env.ctx, beneficiary)
	require.NoError(t, err)
	assert.Equal(t, contentRef.Hex(), member.ContentRef)
}

func TestVoteWithoutVoiceCredits(t *testing.T) {
	env := newTestEnv(t)
	p := env.createNomination(t)

	_, err := env.proposals.Vote(env.ctx, addr(0x20), p.ProposalID, models.VoteChoiceYes)
	assert.ErrorIs(t, err, ErrNoVoiceCredits)

	p, err = env.proposals.GetProposal(env.ctx, p.ProposalID)
	require.NoError(t, err)
	assert.True(t, p.YesCount.IsZero())
	assert.Zero(t, p.VoterCount)
}

func TestVoteOnlyOncePerAddress(t *testing.T) {
	env := newTestEnv(t)
	p := env.createNomination(t)
	voter := addr(0x21)
	env.credits[voter] = amount(10)

	_, err := env.proposals.Vote(env.ctx, voter, p.ProposalID, models.VoteChoiceYes)
	require.NoError(t, err)
	_, err = env.proposals.Vote(env.ctx, voter, p.ProposalID, models.VoteChoiceNo)
	assert.ErrorIs(t, err, ErrDuplicateVote)

	p, err = env.proposals.GetProposal(env.ctx, p.ProposalID)
	require.NoError(t, err)
	assertAmount(t, 10, p.YesCount)
	assert.True(t, p.NoCount.IsZero())

	voted, err := env.proposals.HasVoted(env.ctx, p.ProposalID, voter)
	require.NoError(t, err)
	assert.True(t, voted)

	_, err = env.proposals.Vote(env.ctx, voter, 42, models.VoteChoiceYes)
	assert.ErrorIs(t, err, ErrProposalNotFound)
}

func TestVoteWeightIsFixedAtVoteTime(t *testing.T) {
	env := newTestEnv(t)
	p := env.createNomination(t)
	voter := addr(0x22)
	env.credits[voter] = amount(10)

	_, err := env.proposals.Vote(env.ctx, voter, p.ProposalID, models.VoteChoiceYes)
	require.NoError(t, err)
	env.credits[voter] = amount(1000)

	p, err = env.proposals.GetProposal(env.ctx, p.ProposalID)
	require.NoError(t, err)
	assertAmount(t, 10, p.YesCount)
}

func TestVotePhaseBoundaries(t *testing.T) {
	env := newTestEnv(t)
	p := env.createNomination(t)
	vote := func(b byte, choice models.VoteChoice) error {
		env.credits[addr(b)] = amount(10)
		_, err := env.proposals.Vote(env.ctx, addr(b), p.ProposalID, choice)
		return err
	}

	env.clock.Advance(2*day - time.Second)
	require.NoError(t, vote(0x30, models.VoteChoiceYes))
	got, err := env.proposals.GetProposal(env.ctx, p.ProposalID)
	require.NoError(t, err)
	assert.Equal(t, models.ProposalStatusNew, got.Status)

	// The first vote after the initial window moves the proposal into the
	// challenge window; both sides are still accepted
	env.clock.Advance(time.Second)
	require.NoError(t, vote(0x31, models.VoteChoiceNo))
	got, err = env.proposals.GetProposal(env.ctx, p.ProposalID)
	require.NoError(t, err)
	assert.Equal(t, models.ProposalStatusChallengePeriod, got.Status)
	assert.Equal(t, 1, env.eventCount(t, EventProposalStatusChanged))

	env.clock.Advance(2*day - time.Second)
	require.NoError(t, vote(0x32, models.VoteChoiceYes))

	env.clock.Advance(time.Second)
	assert.ErrorIs(t, vote(0x33, models.VoteChoiceYes), ErrVotingClosed)

	got, err = env.proposals.GetProposal(env.ctx, p.ProposalID)
	require.NoError(t, err)
	assertAmount(t, 20, got.YesCount)
	assertAmount(t, 10, got.NoCount)
	assert.Equal(t, models.ProposalStatusPendingFinalization, got.Phase)
}

func TestTieAtEndOfInitialWindowFails(t *testing.T) {
	env := newTestEnv(t)
	p := env.createNomination(t)
	env.castVotes(t, p.ProposalID, []int64{25}, []int64{25})

	env.clock.Advance(2 * day)
	env.credits[addr(0x40)] = amount(100)
	_, err := env.proposals.Vote(env.ctx, addr(0x40), p.ProposalID, models.VoteChoiceYes)
	assert.ErrorIs(t, err, ErrVotingClosed)

	p, err = env.proposals.Finalize(env.ctx, proposer, p.ProposalID)
	require.NoError(t, err)
	assert.Equal(t, models.ProposalStatusFailed, p.Status)

	exists, err := env.directory.BeneficiaryExists(env.ctx, beneficiary)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestChallengeWindowCanOverturnProposal(t *testing.T) {
	env := newTestEnv(t)
	p := env.createNomination(t)
	env.castVotes(t, p.ProposalID, []int64{30}, []int64{10})

	env.clock.Advance(2 * day)
	_, err := env.proposals.Finalize(env.ctx, proposer, p.ProposalID)
	require.NoError(t, err)

	env.credits[addr(0x50)] = amount(40)
	_, err = env.proposals.Vote(env.ctx, addr(0x50), p.ProposalID, models.VoteChoiceNo)
	require.NoError(t, err)

	env.clock.Advance(time.Hour)
	p, err = env.proposals.Finalize(env.ctx, proposer, p.ProposalID)
	require.NoError(t, err)
	assert.Equal(t, models.ProposalStatusFailed, p.Status)
}

func TestFinalizeTiming(t *testing.T) {
	env := newTestEnv(t)
	p := env.createNomination(t)

	_, err := env.proposals.Finalize(env.ctx, proposer, p.ProposalID)
	assert.ErrorIs(t, err, ErrFinalizationNotAllowed)

	env.clock.Advance(2 * day)
	first, err := env.proposals.Finalize(env.ctx, proposer, p.ProposalID)
	require.NoError(t, err)
	assert.Equal(t, models.ProposalStatusFailed, first.Status)

	_, err = env.proposals.Finalize(env.ctx, proposer, p.ProposalID)
	assert.ErrorIs(t, err, ErrAlreadyFinalized)

	second, err := env.proposals.GetProposal(env.ctx, p.ProposalID)
	require.NoError(t, err)
	assert.Equal(t, first.Status, second.Status)
	assert.True(t, first.YesCount.Equal(second.YesCount))
	assert.True(t, first.NoCount.Equal(second.NoCount))

	// Terminal proposals take no more votes
	env.credits[addr(0x60)] = amount(5)
	_, err = env.proposals.Vote(env.ctx, addr(0x60), p.ProposalID, models.VoteChoiceYes)
	assert.ErrorIs(t, err, ErrVotingClosed)
}

func TestTakedownRemovesBeneficiary(t *testing.T) {
	env := newTestEnv(t)
	env.addBeneficiary(t, beneficiary)
	env.fund(t, proposer, 2000)

	p, err := env.proposals.CreateProposal(env.ctx, proposer, beneficiary, contentRef, models.ProposalKindTakedown)
	require.NoError(t, err)
	env.castVotes(t, p.ProposalID, []int64{50}, nil)

	env.clock.Advance(4 * day)
	p, err = env.proposals.Finalize(env.ctx, proposer, p.ProposalID)
	require.NoError(t, err)
	assert.Equal(t, models.ProposalStatusPassed, p.Status)

	exists, err := env.directory.BeneficiaryExists(env.ctx, beneficiary)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestClaimBond(t *testing.T) {
	env := newTestEnv(t)
	p := env.createNomination(t)
	env.castVotes(t, p.ProposalID, []int64{10}, nil)

	_, err := env.proposals.ClaimBond(env.ctx, proposer, p.ProposalID)
	assert.ErrorIs(t, err, ErrProposalNotPassedOrStillProcessing)

	env.clock.Advance(4 * day)
	_, err = env.proposals.Finalize(env.ctx, addr(0x99), p.ProposalID)
	require.NoError(t, err)

	_, err = env.proposals.ClaimBond(env.ctx, addr(0x99), p.ProposalID)
	assert.ErrorIs(t, err, ErrOnlyProposer)

	p, err = env.proposals.ClaimBond(env.ctx, proposer, p.ProposalID)
	require.NoError(t, err)
	assert.True(t, p.BondClaimed)
	assertAmount(t, 2000, env.balance(t, proposer))
	assertAmount(t, 0, env.balance(t, env.custody))
	assert.Equal(t, 1, env.eventCount(t, EventBondWithdrawn))

	_, err = env.proposals.ClaimBond(env.ctx, proposer, p.ProposalID)
	assert.ErrorIs(t, err, ErrBondAlreadyClaimed)
	assertAmount(t, 2000, env.balance(t, proposer))
}

func TestRewardVaultReservation(t *testing.T) {
	env := newTestEnv(t)
	donor := addr(0x70)
	env.fund(t, donor, 700)

	settings, err := env.proposals.ContributeReward(env.ctx, donor, amount(700))
	require.NoError(t, err)
	assertAmount(t, 700, settings.RewardBalance)

	p := env.createNomination(t)
	assert.Equal(t, 1, env.eventCount(t, EventVaultInitialized))

	vault, err := env.proposals.GetRewardVault(env.ctx, p.ProposalID)
	require.NoError(t, err)
	require.NotNil(t, vault)
	assertAmount(t, 500, vault.Amount)
	assert.Equal(t, VaultID(p.ProposalID, p.StartedAt).Hex(), vault.VaultID)

	settings, err = env.proposals.GetSettings(env.ctx)
	require.NoError(t, err)
	assertAmount(t, 200, settings.RewardBalance)

	// 200 left in the pool is not enough for the next vault; creation still succeeds
	other := addr(0x05)
	env.fund(t, proposer, 2000)
	_, err = env.proposals.CreateProposal(env.ctx, proposer, other, contentRef, models.ProposalKindNomination)
	require.NoError(t, err)
	assert.Equal(t, 1, env.eventCount(t, EventVaultInitialized))
}

func TestSetConfiguration(t *testing.T) {
	env := newTestEnv(t)
	p := env.createNomination(t)

	_, err := env.proposals.SetConfiguration(env.ctx, proposer, time.Hour, time.Hour, amount(1))
	assert.ErrorIs(t, err, ErrUnauthorized)

	settings, err := env.proposals.SetConfiguration(env.ctx, env.governance, time.Hour, 30*time.Minute, amount(100))
	require.NoError(t, err)
	assert.Equal(t, int64(3600), settings.VotingPeriod)
	assert.Equal(t, int64(1800), settings.VetoPeriod)
	assertAmount(t, 100, settings.ProposalBond)

	// The open proposal keeps the parameters it was created with
	p, err = env.proposals.GetProposal(env.ctx, p.ProposalID)
	require.NoError(t, err)
	assert.Equal(t, int64(2*24*3600), p.VotingPeriod)
	assertAmount(t, 2000, p.Bond)

	_, err = env.proposals.SetRewardsBudget(env.ctx, proposer, amount(1))
	assert.ErrorIs(t, err, ErrUnauthorized)
	settings, err = env.proposals.SetRewardsBudget(env.ctx, env.governance, amount(42))
	require.NoError(t, err)
	assertAmount(t, 42, settings.RewardBudget)
}

func TestFinalizeDue(t *testing.T) {
	env := newTestEnv(t)
	p := env.createNomination(t)
	env.castVotes(t, p.ProposalID, []int64{10}, nil)

	advanced, err := env.proposals.FinalizeDue(env.ctx, env.governance, 10)
	require.NoError(t, err)
	assert.Zero(t, advanced)

	env.clock.Advance(2 * day)
	advanced, err = env.proposals.FinalizeDue(env.ctx, env.governance, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, advanced)

	// Still inside the challenge window with a yes majority
	advanced, err = env.proposals.FinalizeDue(env.ctx, env.governance, 10)
	require.NoError(t, err)
	assert.Zero(t, advanced)

	env.clock.Advance(2 * day)
	advanced, err = env.proposals.FinalizeDue(env.ctx, env.governance, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, advanced)

	p, err = env.proposals.GetProposal(env.ctx, p.ProposalID)
	require.NoError(t, err)
	assert.Equal(t, models.ProposalStatusPassed, p.Status)
}
