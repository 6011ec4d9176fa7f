package jobs

import (
	"context"
	"errors"
	"log"
	"time"

	"grant-governance/internal/models"
	"grant-governance/internal/services"

	"github.com/ethereum/go-ethereum/common"
)

const (
	keeperBatchSize = 100
	keeperTimeout   = 30 * time.Second
)

// KeeperReport counts what one keeper pass changed
type KeeperReport struct {
	ProposalsAdvanced  int
	ElectionsFinalized int
	EventsRepublished  int
}

// GovernanceKeeper advances proposals and elections whose windows have
// elapsed. It only calls public registry operations.
type GovernanceKeeper struct {
	proposalService *services.ProposalService
	electionService *services.ElectionService
	eventService    *services.EventService
	address         common.Address
	interval        time.Duration
	stopChan        chan struct{}
}

// NewGovernanceKeeper creates a new keeper job acting as address
func NewGovernanceKeeper(
	proposalService *services.ProposalService,
	electionService *services.ElectionService,
	eventService *services.EventService,
	address common.Address,
	interval time.Duration,
) *GovernanceKeeper {
	return &GovernanceKeeper{
		proposalService: proposalService,
		electionService: electionService,
		eventService:    eventService,
		address:         address,
		interval:        interval,
		stopChan:        make(chan struct{}),
	}
}

// Start begins the keeper loop
func (k *GovernanceKeeper) Start() {
	log.Printf("[GovernanceKeeper] Starting keeper job as %s (interval: %v)", k.address.Hex(), k.interval)

	ticker := time.NewTicker(k.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), keeperTimeout)
			report := k.RunOnce(ctx)
			cancel()
			if report.ProposalsAdvanced > 0 || report.ElectionsFinalized > 0 {
				log.Printf("[GovernanceKeeper] Advanced %d proposals, finalized %d elections",
					report.ProposalsAdvanced, report.ElectionsFinalized)
			}
		case <-k.stopChan:
			log.Println("[GovernanceKeeper] Stopping keeper job")
			return
		}
	}
}

// Stop stops the keeper loop
func (k *GovernanceKeeper) Stop() {
	close(k.stopChan)
}

// RunOnce performs a single keeper pass
func (k *GovernanceKeeper) RunOnce(ctx context.Context) KeeperReport {
	var report KeeperReport

	advanced, err := k.proposalService.FinalizeDue(ctx, k.address, keeperBatchSize)
	if err != nil {
		log.Printf("[GovernanceKeeper] Error finalizing proposals: %v", err)
	}
	report.ProposalsAdvanced = advanced

	for _, term := range models.ElectionTerms {
		if k.finalizeElection(ctx, term) {
			report.ElectionsFinalized++
		}
	}

	republished, err := k.eventService.RepublishPending(ctx, keeperBatchSize)
	if err != nil {
		log.Printf("[GovernanceKeeper] Error republishing events: %v", err)
	}
	report.EventsRepublished = republished

	return report
}

// finalizeElection refreshes the current round of a term and starts awardee
// selection once it has closed
func (k *GovernanceKeeper) finalizeElection(ctx context.Context, term models.ElectionTerm) bool {
	election, err := k.electionService.RefreshElectionState(ctx, term)
	if errors.Is(err, services.ErrElectionNotFound) {
		return false
	}
	if err != nil {
		log.Printf("[GovernanceKeeper] Error refreshing %s election: %v", term, err)
		return false
	}
	if election.State != models.ElectionStateClosed || election.AwardeesSelected || election.RandomnessRequestID != nil {
		return false
	}

	if _, err := k.electionService.FinalizeElection(ctx, k.address, term); err != nil {
		log.Printf("[GovernanceKeeper] Error finalizing %s round %d: %v", term, election.Round, err)
		return false
	}
	log.Printf("[GovernanceKeeper] Finalized %s round %d", term, election.Round)
	return true
}
