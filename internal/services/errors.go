package services

import "errors"

// Proposal errors
var (
	ErrProposalNotFound                   = errors.New("proposal not found")
	ErrInvalidProposalKind                = errors.New("invalid proposal kind")
	ErrInvalidVoteChoice                  = errors.New("invalid vote choice")
	ErrProposalBondInsufficient           = errors.New("proposal bond is not enough")
	ErrBeneficiaryAlreadyPendingOrExists  = errors.New("beneficiary proposal is pending or already exists")
	ErrBeneficiaryDoesNotExist            = errors.New("beneficiary does not exist")
	ErrDuplicateVote                      = errors.New("address already voted for the proposal")
	ErrNoVoiceCredits                     = errors.New("must have voice credits from staking")
	ErrVotingClosed                       = errors.New("proposal is no longer in voting period")
	ErrFinalizationNotAllowed             = errors.New("finalization not allowed")
	ErrAlreadyFinalized                   = errors.New("proposal already finalized")
	ErrOnlyProposer                       = errors.New("only the proposer may call this function")
	ErrProposalNotPassedOrStillProcessing = errors.New("proposal failed or is processing")
	ErrBondAlreadyClaimed                 = errors.New("bond already claimed")
)

// Election errors
var (
	ErrInvalidTerm                    = errors.New("invalid election term")
	ErrInvalidConfiguration           = errors.New("invalid election configuration")
	ErrElectionNotFound               = errors.New("election not found")
	ErrElectionDisabled               = errors.New("election term is disabled")
	ErrElectionNotYetClosed           = errors.New("election not yet closed")
	ErrCooldownNotElapsed             = errors.New("cooldown period has not elapsed")
	ErrElectionNotOpenForRegistration = errors.New("election not open for registration")
	ErrAlreadyRegistered              = errors.New("beneficiary already registered")
	ErrVoiceCreditsRequired           = errors.New("voice credits are required")
	ErrBeneficiariesRequired          = errors.New("beneficiaries are required")
	ErrVoteArityMismatch              = errors.New("beneficiaries and weights must have the same length")
	ErrInvalidVoteWeight              = errors.New("vote weights must be positive")
	ErrElectionNotOpenForVoting       = errors.New("election not open for voting")
	ErrInsufficientVoiceCredits       = errors.New("insufficient voice credits")
	ErrIneligibleBeneficiary          = errors.New("ineligible beneficiary")
	ErrElectionNotClosed              = errors.New("election is not closed")
	ErrElectionAlreadyFinalized       = errors.New("election awardees already selected")
	ErrRandomnessPending              = errors.New("randomness request is pending")
	ErrRandomnessRequestNotFound      = errors.New("randomness request not found")
	ErrRandomnessAlreadyFulfilled     = errors.New("randomness request already fulfilled")
)

// Ledger and staking errors
var (
	ErrInvalidAmount          = errors.New("amount must not be negative")
	ErrInsufficientBalance    = errors.New("insufficient balance")
	ErrInsufficientAllowance  = errors.New("insufficient allowance")
	ErrInvalidLockDuration    = errors.New("invalid lock duration")
	ErrNoStakeLock            = errors.New("no stake lock")
	ErrStakeLocked            = errors.New("stake is still locked")
	ErrBeneficiaryExists      = errors.New("beneficiary already exists")
	ErrUnauthorized           = errors.New("caller is not authorized")
)
