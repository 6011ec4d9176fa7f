package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"math/big"
	"sort"

	"grant-governance/internal/models"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const totalShareBps = 10000

// RankRegistrations orders registrations by votes, highest first, breaking ties
// by address, and keeps the first n
func RankRegistrations(regs []models.ElectionRegistration, n int) []models.ElectionRegistration {
	ranked := make([]models.ElectionRegistration, len(regs))
	copy(ranked, regs)
	sort.SliceStable(ranked, func(i, j int) bool {
		if c := ranked[i].Votes.Cmp(ranked[j].Votes); c != 0 {
			return c > 0
		}
		a := common.HexToAddress(ranked[i].Beneficiary)
		b := common.HexToAddress(ranked[j].Beneficiary)
		return bytes.Compare(a.Bytes(), b.Bytes()) < 0
	})
	if n < len(ranked) {
		ranked = ranked[:n]
	}
	return ranked
}

// SelectWeighted draws n registrations without replacement, each draw weighted
// by votes. Draw i uses keccak256(seed ‖ uint256 i) mod remaining weight, so the
// result is reproducible from the oracle value.
func SelectWeighted(ranking []models.ElectionRegistration, n int, seed common.Hash) []models.ElectionRegistration {
	remaining := make([]models.ElectionRegistration, len(ranking))
	copy(remaining, ranking)

	selected := make([]models.ElectionRegistration, 0, n)
	for i := 0; i < n && len(remaining) > 0; i++ {
		total := new(big.Int)
		weights := make([]*big.Int, len(remaining))
		for j, reg := range remaining {
			weights[j] = reg.Votes.Shift(TokenDecimals).BigInt()
			total.Add(total, weights[j])
		}

		pick := 0
		if total.Sign() > 0 {
			draw := new(big.Int).SetBytes(crypto.Keccak256(
				seed.Bytes(),
				common.BigToHash(big.NewInt(int64(i))).Bytes(),
			))
			draw.Mod(draw, total)

			cumulative := new(big.Int)
			for j, w := range weights {
				cumulative.Add(cumulative, w)
				if draw.Cmp(cumulative) < 0 {
					pick = j
					break
				}
			}
		}

		selected = append(selected, remaining[pick])
		remaining = append(remaining[:pick], remaining[pick+1:]...)
	}
	return selected
}

// ComputeShares splits totalShareBps among awardees. Rounding dust goes to the
// first awardee.
func ComputeShares(awardees []models.ElectionRegistration, shareType models.ShareType) []int {
	shares := make([]int, len(awardees))
	if len(awardees) == 0 {
		return shares
	}

	total := decimal.Zero
	for _, a := range awardees {
		total = total.Add(a.Votes)
	}

	assigned := 0
	for i, a := range awardees {
		if shareType == models.ShareTypeDynamicWeight && total.IsPositive() {
			shares[i] = int(a.Votes.Mul(decimal.NewFromInt(totalShareBps)).Div(total).IntPart())
		} else {
			shares[i] = totalShareBps / len(awardees)
		}
		assigned += shares[i]
	}
	shares[0] += totalShareBps - assigned
	return shares
}

// FinalizeElection starts awardee selection for a closed round. With an oracle
// the selection completes in FulfillRandomness. The caller receives the
// finalization incentive when the treasury can cover it.
func (s *ElectionService) FinalizeElection(ctx context.Context, caller common.Address, term models.ElectionTerm) (*models.Election, error) {
	if !term.Valid() {
		return nil, ErrInvalidTerm
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now().Unix()
	batch := s.events.Batch()
	var election *models.Election

	err := s.repo.Transaction(ctx, func(ctx context.Context) error {
		e, err := s.currentElection(ctx, term, now, batch)
		if err != nil {
			return err
		}
		if e.State != models.ElectionStateClosed {
			return ErrElectionNotClosed
		}
		if e.AwardeesSelected {
			return ErrElectionAlreadyFinalized
		}
		if e.RandomnessRequestID != nil {
			return ErrRandomnessPending
		}

		regs, err := s.repo.ListRegistrations(ctx, e.ID)
		if err != nil {
			return fmt.Errorf("failed to list registrations: %w", err)
		}
		ranking := RankRegistrations(regs, e.Ranking)

		if e.UseOracle && len(ranking) > e.Awardees {
			if s.oracle == nil {
				return fmt.Errorf("randomness oracle not configured")
			}
			seed := crypto.Keccak256Hash(
				[]byte(e.Term),
				common.BigToHash(big.NewInt(int64(e.Round))).Bytes(),
				common.BigToHash(big.NewInt(e.StartedAt)).Bytes(),
			)
			requestID, err := s.oracle.RequestRandomness(ctx, seed)
			if err != nil {
				return fmt.Errorf("failed to request randomness: %w", err)
			}
			e.RandomnessRequestID = &requestID
			if err := s.repo.UpdateElection(ctx, e); err != nil {
				return fmt.Errorf("failed to update election: %w", err)
			}
			if err := batch.Record(ctx, EventRandomnessRequested, map[string]interface{}{
				"term":       term,
				"round":      e.Round,
				"request_id": requestID,
				"seed":       seed.Hex(),
			}); err != nil {
				return err
			}
		} else {
			if err := s.storeAwardees(ctx, e, RankRegistrations(ranking, e.Awardees), batch); err != nil {
				return err
			}
		}

		if err := s.payIncentive(ctx, caller, e, batch); err != nil {
			return err
		}
		election = e
		return nil
	})
	if err != nil {
		return nil, err
	}

	batch.Flush(ctx)
	return election, nil
}

// FulfillRandomness completes a pending selection with the oracle's value
func (s *ElectionService) FulfillRandomness(ctx context.Context, caller common.Address, requestID string, value common.Hash) (*models.Election, error) {
	if caller != s.roles.Governance {
		return nil, ErrUnauthorized
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batch := s.events.Batch()
	var election *models.Election

	err := s.repo.Transaction(ctx, func(ctx context.Context) error {
		e, err := s.repo.GetElectionByRandomnessRequest(ctx, requestID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRandomnessRequestNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to get election: %w", err)
		}
		if e.AwardeesSelected {
			return ErrRandomnessAlreadyFulfilled
		}

		regs, err := s.repo.ListRegistrations(ctx, e.ID)
		if err != nil {
			return fmt.Errorf("failed to list registrations: %w", err)
		}
		ranking := RankRegistrations(regs, e.Ranking)

		valueHex := value.Hex()
		e.RandomnessValue = &valueHex
		if err := s.storeAwardees(ctx, e, SelectWeighted(ranking, e.Awardees, value), batch); err != nil {
			return err
		}

		req, err := s.repo.GetRandomnessRequest(ctx, requestID)
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
		case err != nil:
			return fmt.Errorf("failed to get randomness request: %w", err)
		default:
			fulfilledAt := s.clock.Now()
			req.Status = models.RandomnessStatusFulfilled
			req.Value = &valueHex
			req.FulfilledAt = &fulfilledAt
			if err := s.repo.UpdateRandomnessRequest(ctx, req); err != nil {
				return fmt.Errorf("failed to update randomness request: %w", err)
			}
		}

		election = e
		return nil
	})
	if err != nil {
		return nil, err
	}

	batch.Flush(ctx)
	return election, nil
}

// ContributeIncentive funds the finalization incentive treasury
func (s *ElectionService) ContributeIncentive(ctx context.Context, contributor common.Address, amount decimal.Decimal) (*models.ElectionTreasury, error) {
	amount, err := NormalizeAmount(amount)
	if err != nil {
		return nil, err
	}
	if amount.IsZero() {
		return nil, ErrInvalidAmount
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batch := s.events.Batch()
	var treasury *models.ElectionTreasury
	err = s.repo.Transaction(ctx, func(ctx context.Context) error {
		t, err := s.repo.GetElectionTreasury(ctx)
		if err != nil {
			return fmt.Errorf("failed to get treasury: %w", err)
		}
		if err := s.ledger.TransferFrom(ctx, s.roles.Custody, contributor, s.roles.Custody, amount); err != nil {
			return fmt.Errorf("failed to transfer incentive: %w", err)
		}
		t.IncentiveBalance = t.IncentiveBalance.Add(amount)
		if err := s.repo.SaveElectionTreasury(ctx, t); err != nil {
			return fmt.Errorf("failed to save treasury: %w", err)
		}
		treasury = t
		return batch.Record(ctx, EventIncentiveContributed, map[string]interface{}{
			"contributor": contributor.Hex(),
			"amount":      amount.String(),
		})
	})
	if err != nil {
		return nil, err
	}

	batch.Flush(ctx)
	return treasury, nil
}

// GetTreasury returns the incentive treasury
func (s *ElectionService) GetTreasury(ctx context.Context) (*models.ElectionTreasury, error) {
	return s.repo.GetElectionTreasury(ctx)
}

func (s *ElectionService) storeAwardees(ctx context.Context, e *models.Election, selected []models.ElectionRegistration, batch *EventBatch) error {
	shares := ComputeShares(selected, e.ShareType)
	awardees := make([]models.ElectionAwardee, len(selected))
	addresses := make([]string, len(selected))
	for i, reg := range selected {
		awardees[i] = models.ElectionAwardee{
			ElectionID:  e.ID,
			Rank:        i + 1,
			Beneficiary: reg.Beneficiary,
			Votes:       reg.Votes,
			ShareBps:    shares[i],
		}
		addresses[i] = reg.Beneficiary
	}
	if err := s.repo.CreateAwardees(ctx, awardees); err != nil {
		return fmt.Errorf("failed to store awardees: %w", err)
	}

	finalizedAt := s.clock.Now()
	e.AwardeesSelected = true
	e.FinalizedAt = &finalizedAt
	if err := s.repo.UpdateElection(ctx, e); err != nil {
		return fmt.Errorf("failed to update election: %w", err)
	}

	log.Printf("[ElectionService] %s round %d awardees: %v", e.Term, e.Round, addresses)
	return batch.Record(ctx, EventAwardeesSelected, map[string]interface{}{
		"term":     e.Term,
		"round":    e.Round,
		"awardees": addresses,
		"shares":   shares,
	})
}

func (s *ElectionService) payIncentive(ctx context.Context, caller common.Address, e *models.Election, batch *EventBatch) error {
	incentive := e.FinalizationIncentive
	if !incentive.IsPositive() {
		return nil
	}

	treasury, err := s.repo.GetElectionTreasury(ctx)
	if err != nil {
		return fmt.Errorf("failed to get treasury: %w", err)
	}
	if treasury.IncentiveBalance.LessThan(incentive) {
		log.Printf("[ElectionService] Incentive of %s skipped: treasury holds %s", incentive, treasury.IncentiveBalance)
		return nil
	}

	if err := s.ledger.Transfer(ctx, s.roles.Custody, caller, incentive); err != nil {
		return fmt.Errorf("failed to pay incentive: %w", err)
	}
	treasury.IncentiveBalance = treasury.IncentiveBalance.Sub(incentive)
	if err := s.repo.SaveElectionTreasury(ctx, treasury); err != nil {
		return fmt.Errorf("failed to save treasury: %w", err)
	}
	return batch.Record(ctx, EventFinalizationIncentivePaid, map[string]interface{}{
		"term":   e.Term,
		"round":  e.Round,
		"caller": caller.Hex(),
		"amount": incentive.String(),
	})
}
