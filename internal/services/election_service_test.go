package services

import (
	"errors"
	"testing"

	"grant-governance/internal/models"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	registrationDays = 1
	votingDays       = 1
	cooldownDays     = 3
)

func testElectionSettings(useOracle bool) models.ElectionSettings {
	return models.ElectionSettings{
		Ranking:               3,
		Awardees:              2,
		RegistrationPeriod:    int64(registrationDays * day.Seconds()),
		VotingPeriod:          int64(votingDays * day.Seconds()),
		CooldownPeriod:        int64(cooldownDays * day.Seconds()),
		UseOracle:             useOracle,
		BondAmount:            decimal.Zero,
		FinalizationIncentive: decimal.Zero,
		Enabled:               true,
		ShareType:             models.ShareTypeEqualWeight,
	}
}

func (e *testEnv) configure(t *testing.T, term models.ElectionTerm, settings models.ElectionSettings) {
	t.Helper()
	_, err := e.elections.SetConfiguration(e.ctx, e.governance, term, settings)
	require.NoError(t, err)
}

// openVoting initializes a round, registers the given beneficiaries and moves
// the clock into the voting window
func (e *testEnv) openVoting(t *testing.T, term models.ElectionTerm, beneficiaries ...common.Address) *models.Election {
	t.Helper()
	election, err := e.elections.Initialize(e.ctx, term)
	require.NoError(t, err)
	for _, b := range beneficiaries {
		e.addBeneficiary(t, b)
		_, err := e.elections.RegisterForElection(e.ctx, b, b, term)
		require.NoError(t, err)
	}
	e.clock.Advance(registrationDays * day)
	return election
}

func (e *testEnv) electionVote(t *testing.T, voter common.Address, term models.ElectionTerm, alloc map[common.Address]int64) {
	t.Helper()
	var beneficiaries []common.Address
	var weights []decimal.Decimal
	for b, w := range alloc {
		beneficiaries = append(beneficiaries, b)
		weights = append(weights, amount(w))
	}
	_, err := e.elections.Vote(e.ctx, voter, beneficiaries, weights, term)
	require.NoError(t, err)
}

func TestQuarterElectionRegistrationThenVoting(t *testing.T) {
	env := newTestEnv(t)
	term := models.ElectionTermQuarter
	candidate := addr(0x31)
	env.addBeneficiary(t, candidate)

	election, err := env.elections.Initialize(env.ctx, term)
	require.NoError(t, err)
	assert.Equal(t, 1, election.Round)
	assert.Equal(t, models.ElectionStateRegistration, election.State)

	reg, err := env.elections.RegisterForElection(env.ctx, candidate, candidate, term)
	require.NoError(t, err)
	assert.Equal(t, candidate.Hex(), reg.Beneficiary)

	env.clock.Advance(14 * day)
	election, err = env.elections.RefreshElectionState(env.ctx, term)
	require.NoError(t, err)
	assert.Equal(t, models.ElectionStateVoting, election.State)
	assert.Equal(t, 1, env.eventCount(t, EventElectionStateChanged))

	voter := addr(0x50)
	env.credits[voter] = amount(100)
	_, err = env.elections.Vote(env.ctx, voter, []common.Address{addr(0x32)}, []decimal.Decimal{amount(10)}, term)
	assert.ErrorIs(t, err, ErrIneligibleBeneficiary)

	votes, err := env.elections.Vote(env.ctx, voter, []common.Address{candidate}, []decimal.Decimal{amount(10)}, term)
	require.NoError(t, err)
	require.Len(t, votes, 1)

	tallies, err := env.elections.GetTallies(env.ctx, term)
	require.NoError(t, err)
	require.Len(t, tallies, 1)
	assertAmount(t, 10, tallies[0].Votes)
}

func TestElectionVoteArgumentChecks(t *testing.T) {
	env := newTestEnv(t)
	term := models.ElectionTermMonth
	one := []common.Address{addr(0x31)}

	_, err := env.elections.Vote(env.ctx, addr(0x50), one, nil, term)
	assert.ErrorIs(t, err, ErrVoiceCreditsRequired)

	_, err = env.elections.Vote(env.ctx, addr(0x50), nil, []decimal.Decimal{amount(1)}, term)
	assert.ErrorIs(t, err, ErrBeneficiariesRequired)

	_, err = env.elections.Vote(env.ctx, addr(0x50), one, []decimal.Decimal{amount(1), amount(2)}, term)
	assert.ErrorIs(t, err, ErrVoteArityMismatch)

	_, err = env.elections.Vote(env.ctx, addr(0x50), one, []decimal.Decimal{amount(0)}, term)
	assert.ErrorIs(t, err, ErrInvalidVoteWeight)

	_, err = env.elections.Vote(env.ctx, addr(0x50), one, []decimal.Decimal{amount(1)}, "DECADE")
	assert.ErrorIs(t, err, ErrInvalidTerm)

	_, err = env.elections.Vote(env.ctx, addr(0x50), one, []decimal.Decimal{amount(1)}, term)
	assert.ErrorIs(t, err, ErrElectionNotFound)
}

func TestElectionVoteStateAndCredits(t *testing.T) {
	env := newTestEnv(t)
	term := models.ElectionTermMonth
	env.configure(t, term, testElectionSettings(false))
	a, b := addr(0x31), addr(0x32)
	voter := addr(0x50)
	env.credits[voter] = amount(100)

	_, err := env.elections.Initialize(env.ctx, term)
	require.NoError(t, err)
	env.addBeneficiary(t, a)
	_, err = env.elections.RegisterForElection(env.ctx, a, a, term)
	require.NoError(t, err)

	_, err = env.elections.Vote(env.ctx, voter, []common.Address{a}, []decimal.Decimal{amount(10)}, term)
	assert.ErrorIs(t, err, ErrElectionNotOpenForVoting)

	env.clock.Advance(registrationDays * day)

	_, err = env.elections.Vote(env.ctx, addr(0x51), []common.Address{a}, []decimal.Decimal{amount(10)}, term)
	assert.ErrorIs(t, err, ErrNoVoiceCredits)

	// Credits are checked before eligibility
	_, err = env.elections.Vote(env.ctx, voter, []common.Address{b}, []decimal.Decimal{amount(101)}, term)
	assert.ErrorIs(t, err, ErrInsufficientVoiceCredits)
	_, err = env.elections.Vote(env.ctx, voter, []common.Address{b}, []decimal.Decimal{amount(1)}, term)
	assert.ErrorIs(t, err, ErrIneligibleBeneficiary)

	// Registration closes with the voting window
	env.addBeneficiary(t, b)
	_, err = env.elections.RegisterForElection(env.ctx, b, b, term)
	assert.ErrorIs(t, err, ErrElectionNotOpenForRegistration)

	// Duplicates within one ballot add up, and ballots accumulate against the
	// voter's credits
	_, err = env.elections.Vote(env.ctx, voter, []common.Address{a, a}, []decimal.Decimal{amount(30), amount(20)}, term)
	require.NoError(t, err)
	_, err = env.elections.Vote(env.ctx, voter, []common.Address{a}, []decimal.Decimal{amount(40)}, term)
	require.NoError(t, err)
	_, err = env.elections.Vote(env.ctx, voter, []common.Address{a}, []decimal.Decimal{amount(11)}, term)
	assert.ErrorIs(t, err, ErrInsufficientVoiceCredits)
	_, err = env.elections.Vote(env.ctx, voter, []common.Address{a}, []decimal.Decimal{amount(10)}, term)
	require.NoError(t, err)

	tallies, err := env.elections.GetTallies(env.ctx, term)
	require.NoError(t, err)
	require.Len(t, tallies, 1)
	assertAmount(t, 100, tallies[0].Votes)

	env.clock.Advance(votingDays * day)
	_, err = env.elections.Vote(env.ctx, addr(0x52), []common.Address{a}, []decimal.Decimal{amount(1)}, term)
	assert.ErrorIs(t, err, ErrElectionNotOpenForVoting)

	election, err := env.elections.GetElection(env.ctx, term)
	require.NoError(t, err)
	assert.Equal(t, models.ElectionStateClosed, election.State)
}

func TestRegisterForElectionChecks(t *testing.T) {
	env := newTestEnv(t)
	term := models.ElectionTermMonth
	settings := testElectionSettings(false)
	settings.BondRequired = true
	settings.BondAmount = amount(50)
	env.configure(t, term, settings)
	candidate := addr(0x31)

	_, err := env.elections.RegisterForElection(env.ctx, candidate, candidate, term)
	assert.ErrorIs(t, err, ErrElectionNotFound)

	_, err = env.elections.Initialize(env.ctx, term)
	require.NoError(t, err)

	_, err = env.elections.RegisterForElection(env.ctx, candidate, candidate, term)
	assert.ErrorIs(t, err, ErrBeneficiaryDoesNotExist)

	env.addBeneficiary(t, candidate)
	_, err = env.elections.RegisterForElection(env.ctx, candidate, candidate, term)
	assert.ErrorIs(t, err, ErrInsufficientAllowance)

	env.fund(t, candidate, 50)
	reg, err := env.elections.RegisterForElection(env.ctx, candidate, candidate, term)
	require.NoError(t, err)
	assertAmount(t, 50, reg.BondPaid)
	assertAmount(t, 0, env.balance(t, candidate))
	assertAmount(t, 50, env.balance(t, env.custody))

	_, err = env.elections.RegisterForElection(env.ctx, candidate, candidate, term)
	assert.ErrorIs(t, err, ErrAlreadyRegistered)

	meta, err := env.elections.GetElectionMetadata(env.ctx, term)
	require.NoError(t, err)
	assert.Equal(t, []string{candidate.Hex()}, meta.RegisteredBeneficiaries)
	assert.Empty(t, meta.Awardees)
}

func TestInitializeRounds(t *testing.T) {
	env := newTestEnv(t)
	term := models.ElectionTermYear
	env.configure(t, term, testElectionSettings(false))

	first, err := env.elections.Initialize(env.ctx, term)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Round)

	_, err = env.elections.Initialize(env.ctx, term)
	assert.ErrorIs(t, err, ErrElectionNotYetClosed)

	// Closed after two days, cooldown runs three days from the start
	env.clock.Advance((registrationDays + votingDays) * day)
	_, err = env.elections.Initialize(env.ctx, term)
	assert.ErrorIs(t, err, ErrCooldownNotElapsed)

	env.clock.Advance((cooldownDays - registrationDays - votingDays) * day)
	second, err := env.elections.Initialize(env.ctx, term)
	require.NoError(t, err)
	assert.Equal(t, 2, second.Round)
	assert.Equal(t, env.clock.Now().Unix(), second.StartedAt)

	current, err := env.elections.GetElection(env.ctx, term)
	require.NoError(t, err)
	assert.Equal(t, second.ID, current.ID)
	assert.Equal(t, 2, env.eventCount(t, EventElectionInitialized))
}

func TestCooldownUsesRoundSnapshot(t *testing.T) {
	env := newTestEnv(t)
	term := models.ElectionTermQuarter
	env.configure(t, term, testElectionSettings(false))

	first, err := env.elections.Initialize(env.ctx, term)
	require.NoError(t, err)

	longer := testElectionSettings(false)
	longer.CooldownPeriod = int64((30 * day).Seconds())
	env.configure(t, term, longer)

	// The first round keeps the cooldown it was initialized with
	env.clock.Advance(cooldownDays * day)
	second, err := env.elections.Initialize(env.ctx, term)
	require.NoError(t, err)
	assert.Equal(t, first.Round+1, second.Round)
	assert.Equal(t, longer.CooldownPeriod, second.CooldownPeriod)

	// The second round carries the new one
	env.clock.Advance(cooldownDays * day)
	_, err = env.elections.Initialize(env.ctx, term)
	assert.ErrorIs(t, err, ErrCooldownNotElapsed)

	env.clock.Advance((30 - cooldownDays) * day)
	third, err := env.elections.Initialize(env.ctx, term)
	require.NoError(t, err)
	assert.Equal(t, 3, third.Round)
}

func TestInitializeDisabledTerm(t *testing.T) {
	env := newTestEnv(t)
	settings := testElectionSettings(false)
	settings.Enabled = false
	env.configure(t, models.ElectionTermMonth, settings)

	_, err := env.elections.Initialize(env.ctx, models.ElectionTermMonth)
	assert.ErrorIs(t, err, ErrElectionDisabled)

	_, err = env.elections.Initialize(env.ctx, "DECADE")
	assert.ErrorIs(t, err, ErrInvalidTerm)
}

func TestElectionConfiguration(t *testing.T) {
	env := newTestEnv(t)
	term := models.ElectionTermMonth

	_, err := env.elections.SetConfiguration(env.ctx, addr(0x01), term, testElectionSettings(false))
	assert.ErrorIs(t, err, ErrUnauthorized)

	bad := testElectionSettings(false)
	bad.Ranking = 1
	_, err = env.elections.SetConfiguration(env.ctx, env.governance, term, bad)
	assert.ErrorIs(t, err, ErrInvalidConfiguration)

	require.NoError(t, env.elections.EnsureConfigurations(env.ctx))
	configs, err := env.elections.ListConfigurations(env.ctx)
	require.NoError(t, err)
	assert.Len(t, configs, len(models.ElectionTerms))

	defaults, err := env.elections.GetConfiguration(env.ctx, term)
	require.NoError(t, err)
	assert.Equal(t, DefaultElectionSettings(term).Ranking, defaults.Ranking)

	// A running round keeps its snapshot
	election, err := env.elections.Initialize(env.ctx, term)
	require.NoError(t, err)
	changed := testElectionSettings(false)
	changed.Awardees = 3
	env.configure(t, term, changed)

	current, err := env.elections.GetElection(env.ctx, term)
	require.NoError(t, err)
	assert.Equal(t, election.Awardees, current.Awardees)
	assert.Equal(t, DefaultElectionSettings(term).Awardees, current.Awardees)

	updated, err := env.elections.GetConfiguration(env.ctx, term)
	require.NoError(t, err)
	assert.Equal(t, 3, updated.Awardees)
}

func TestFinalizeElectionWithoutOracle(t *testing.T) {
	env := newTestEnv(t)
	term := models.ElectionTermMonth
	settings := testElectionSettings(false)
	settings.FinalizationIncentive = amount(5)
	env.configure(t, term, settings)
	a, b, c, d := addr(0x31), addr(0x32), addr(0x33), addr(0x34)
	env.openVoting(t, term, a, b, c, d)

	voter := addr(0x50)
	env.credits[voter] = amount(100)
	env.electionVote(t, voter, term, map[common.Address]int64{a: 10, b: 30, c: 30, d: 20})

	_, err := env.elections.FinalizeElection(env.ctx, voter, term)
	assert.ErrorIs(t, err, ErrElectionNotClosed)

	env.clock.Advance(votingDays * day)
	keeper := addr(0x60)
	election, err := env.elections.FinalizeElection(env.ctx, keeper, term)
	require.NoError(t, err)
	assert.True(t, election.AwardeesSelected)
	assert.Nil(t, election.RandomnessRequestID)
	assert.Empty(t, env.oracle.seeds)

	// Tied b and c are ordered by address
	awardees, err := env.elections.GetAwardees(env.ctx, term)
	require.NoError(t, err)
	require.Len(t, awardees, 2)
	assert.Equal(t, b.Hex(), awardees[0].Beneficiary)
	assert.Equal(t, c.Hex(), awardees[1].Beneficiary)
	assert.Equal(t, 5000, awardees[0].ShareBps)
	assert.Equal(t, 5000, awardees[1].ShareBps)

	// Empty treasury, so no incentive
	assertAmount(t, 0, env.balance(t, keeper))
	assert.Equal(t, 0, env.eventCount(t, EventFinalizationIncentivePaid))

	_, err = env.elections.FinalizeElection(env.ctx, keeper, term)
	assert.ErrorIs(t, err, ErrElectionAlreadyFinalized)
}

func TestFinalizeElectionPaysIncentive(t *testing.T) {
	env := newTestEnv(t)
	term := models.ElectionTermMonth
	settings := testElectionSettings(false)
	settings.FinalizationIncentive = amount(5)
	settings.ShareType = models.ShareTypeDynamicWeight
	env.configure(t, term, settings)

	donor := addr(0x70)
	env.fund(t, donor, 8)
	treasury, err := env.elections.ContributeIncentive(env.ctx, donor, amount(8))
	require.NoError(t, err)
	assertAmount(t, 8, treasury.IncentiveBalance)

	a, b := addr(0x31), addr(0x32)
	env.openVoting(t, term, a, b)
	voter := addr(0x50)
	env.credits[voter] = amount(100)
	env.electionVote(t, voter, term, map[common.Address]int64{a: 30, b: 60})

	env.clock.Advance(votingDays * day)
	keeper := addr(0x60)
	_, err = env.elections.FinalizeElection(env.ctx, keeper, term)
	require.NoError(t, err)

	assertAmount(t, 5, env.balance(t, keeper))
	treasury, err = env.elections.GetTreasury(env.ctx)
	require.NoError(t, err)
	assertAmount(t, 3, treasury.IncentiveBalance)
	assert.Equal(t, 1, env.eventCount(t, EventFinalizationIncentivePaid))

	awardees, err := env.elections.GetAwardees(env.ctx, term)
	require.NoError(t, err)
	require.Len(t, awardees, 2)
	assert.Equal(t, b.Hex(), awardees[0].Beneficiary)
	assert.Equal(t, 6667, awardees[0].ShareBps)
	assert.Equal(t, 3333, awardees[1].ShareBps)
}

func TestFinalizeElectionWithOracle(t *testing.T) {
	env := newTestEnv(t)
	term := models.ElectionTermMonth
	env.configure(t, term, testElectionSettings(true))
	a, b, c, d := addr(0x31), addr(0x32), addr(0x33), addr(0x34)
	env.openVoting(t, term, a, b, c, d)

	voter := addr(0x50)
	env.credits[voter] = amount(100)
	env.electionVote(t, voter, term, map[common.Address]int64{a: 40, b: 30, c: 20, d: 10})
	env.clock.Advance(votingDays * day)

	election, err := env.elections.FinalizeElection(env.ctx, voter, term)
	require.NoError(t, err)
	require.NotNil(t, election.RandomnessRequestID)
	assert.Equal(t, "request-1", *election.RandomnessRequestID)
	assert.False(t, election.AwardeesSelected)
	require.Len(t, env.oracle.seeds, 1)

	// Closed tallies stay readable while the oracle is pending
	tallies, err := env.elections.GetTallies(env.ctx, term)
	require.NoError(t, err)
	assert.Len(t, tallies, 4)

	_, err = env.elections.FinalizeElection(env.ctx, voter, term)
	assert.ErrorIs(t, err, ErrRandomnessPending)

	value := common.HexToHash("0x1234")
	_, err = env.elections.FulfillRandomness(env.ctx, voter, "request-1", value)
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = env.elections.FulfillRandomness(env.ctx, env.governance, "request-9", value)
	assert.ErrorIs(t, err, ErrRandomnessRequestNotFound)

	election, err = env.elections.FulfillRandomness(env.ctx, env.governance, "request-1", value)
	require.NoError(t, err)
	assert.True(t, election.AwardeesSelected)
	require.NotNil(t, election.RandomnessValue)
	assert.Equal(t, value.Hex(), *election.RandomnessValue)

	ranking := RankRegistrations([]models.ElectionRegistration{
		{Beneficiary: a.Hex(), Votes: amount(40)},
		{Beneficiary: b.Hex(), Votes: amount(30)},
		{Beneficiary: c.Hex(), Votes: amount(20)},
		{Beneficiary: d.Hex(), Votes: amount(10)},
	}, 3)
	expected := SelectWeighted(ranking, 2, value)

	awardees, err := env.elections.GetAwardees(env.ctx, term)
	require.NoError(t, err)
	require.Len(t, awardees, 2)
	for i := range expected {
		assert.Equal(t, expected[i].Beneficiary, awardees[i].Beneficiary)
		assert.NotEqual(t, d.Hex(), awardees[i].Beneficiary)
	}

	_, err = env.elections.FulfillRandomness(env.ctx, env.governance, "request-1", value)
	assert.ErrorIs(t, err, ErrRandomnessAlreadyFulfilled)
}

func TestFinalizeElectionOracleFailureRollsBack(t *testing.T) {
	env := newTestEnv(t)
	term := models.ElectionTermMonth
	env.configure(t, term, testElectionSettings(true))
	a, b, c := addr(0x31), addr(0x32), addr(0x33)
	env.openVoting(t, term, a, b, c)
	env.clock.Advance(votingDays * day)

	env.oracle.err = errors.New("oracle down")
	_, err := env.elections.FinalizeElection(env.ctx, addr(0x60), term)
	assert.ErrorIs(t, err, env.oracle.err)

	election, err := env.elections.GetElection(env.ctx, term)
	require.NoError(t, err)
	assert.Nil(t, election.RandomnessRequestID)
	assert.False(t, election.AwardeesSelected)

	env.oracle.err = nil
	election, err = env.elections.FinalizeElection(env.ctx, addr(0x60), term)
	require.NoError(t, err)
	assert.NotNil(t, election.RandomnessRequestID)
}

func TestEvaluateElectionState(t *testing.T) {
	e := &models.Election{
		StartedAt:        100,
		State:            models.ElectionStateRegistration,
		ElectionSettings: models.ElectionSettings{RegistrationPeriod: 10, VotingPeriod: 20},
	}

	assert.Equal(t, models.ElectionStateRegistration, EvaluateElectionState(e, 109))
	assert.Equal(t, models.ElectionStateVoting, EvaluateElectionState(e, 110))
	assert.Equal(t, models.ElectionStateVoting, EvaluateElectionState(e, 129))
	assert.Equal(t, models.ElectionStateClosed, EvaluateElectionState(e, 130))

	e.State = models.ElectionStateClosed
	assert.Equal(t, models.ElectionStateClosed, EvaluateElectionState(e, 105))
}

func TestRankRegistrations(t *testing.T) {
	regs := []models.ElectionRegistration{
		{Beneficiary: addr(0x03).Hex(), Votes: amount(5)},
		{Beneficiary: addr(0x02).Hex(), Votes: amount(5)},
		{Beneficiary: addr(0x01).Hex(), Votes: amount(1)},
		{Beneficiary: addr(0x04).Hex(), Votes: amount(9)},
	}

	ranked := RankRegistrations(regs, 3)
	require.Len(t, ranked, 3)
	assert.Equal(t, addr(0x04).Hex(), ranked[0].Beneficiary)
	assert.Equal(t, addr(0x02).Hex(), ranked[1].Beneficiary)
	assert.Equal(t, addr(0x03).Hex(), ranked[2].Beneficiary)

	// Input is left untouched
	assert.Equal(t, addr(0x03).Hex(), regs[0].Beneficiary)
	assert.Len(t, RankRegistrations(regs, 10), 4)
}

func TestSelectWeighted(t *testing.T) {
	regs := []models.ElectionRegistration{
		{Beneficiary: addr(0x01).Hex(), Votes: amount(50)},
		{Beneficiary: addr(0x02).Hex(), Votes: amount(30)},
		{Beneficiary: addr(0x03).Hex(), Votes: amount(20)},
	}
	seed := common.HexToHash("0xfeed")

	first := SelectWeighted(regs, 2, seed)
	second := SelectWeighted(regs, 2, seed)
	require.Len(t, first, 2)
	assert.Equal(t, first, second)
	assert.NotEqual(t, first[0].Beneficiary, first[1].Beneficiary)

	all := SelectWeighted(regs, 5, seed)
	assert.Len(t, all, 3)

	// Zero-vote registrations are drawn in order
	zero := []models.ElectionRegistration{
		{Beneficiary: addr(0x01).Hex(), Votes: decimal.Zero},
		{Beneficiary: addr(0x02).Hex(), Votes: decimal.Zero},
	}
	picked := SelectWeighted(zero, 1, seed)
	require.Len(t, picked, 1)
	assert.Equal(t, addr(0x01).Hex(), picked[0].Beneficiary)
}

func TestComputeShares(t *testing.T) {
	three := []models.ElectionRegistration{
		{Votes: amount(1)}, {Votes: amount(1)}, {Votes: amount(1)},
	}
	assert.Equal(t, []int{3334, 3333, 3333}, ComputeShares(three, models.ShareTypeEqualWeight))
	assert.Equal(t, []int{3334, 3333, 3333}, ComputeShares(three, models.ShareTypeDynamicWeight))

	weighted := []models.ElectionRegistration{{Votes: amount(75)}, {Votes: amount(25)}}
	assert.Equal(t, []int{7500, 2500}, ComputeShares(weighted, models.ShareTypeDynamicWeight))

	noVotes := []models.ElectionRegistration{{Votes: decimal.Zero}, {Votes: decimal.Zero}}
	assert.Equal(t, []int{5000, 5000}, ComputeShares(noVotes, models.ShareTypeDynamicWeight))

	assert.Empty(t, ComputeShares(nil, models.ShareTypeEqualWeight))
}
