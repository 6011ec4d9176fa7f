package services

import (
	"math/big"

	"grant-governance/internal/models"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// EvaluatePhase returns the status a proposal is in at now (unix seconds).
//
// The initial window decides the fate of a New proposal: a tie or a no
// majority fails it outright, a yes majority moves it into the challenge
// window. Once the challenge window is over the proposal waits for
// finalization.
func EvaluatePhase(p *models.Proposal, now int64) models.ProposalStatus {
	if p.Status.IsTerminal() {
		return p.Status
	}
	elapsed := now - p.StartedAt
	if elapsed < p.VotingPeriod {
		return models.ProposalStatusNew
	}

	status := p.Status
	if status == models.ProposalStatusNew {
		if !p.YesCount.GreaterThan(p.NoCount) {
			return models.ProposalStatusFailed
		}
		status = models.ProposalStatusChallengePeriod
	}
	if status == models.ProposalStatusPendingFinalization || elapsed >= p.VotingPeriod+p.VetoPeriod {
		return models.ProposalStatusPendingFinalization
	}
	return models.ProposalStatusChallengePeriod
}

// VaultID is keccak256(uint256 proposalID ‖ uint256 timestamp)
func VaultID(proposalID uint64, timestamp int64) common.Hash {
	id := common.BigToHash(new(big.Int).SetUint64(proposalID))
	ts := common.BigToHash(big.NewInt(timestamp))
	return crypto.Keccak256Hash(id.Bytes(), ts.Bytes())
}
