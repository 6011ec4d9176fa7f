package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"grant-governance/internal/models"
	"grant-governance/internal/repository"

	"github.com/redis/go-redis/v9"
)

const (
	EventProposalCreated           = "ProposalCreated"
	EventVaultInitialized          = "VaultInitialized"
	EventVoteCast                  = "VoteCast"
	EventProposalStatusChanged     = "ProposalStatusChanged"
	EventProposalFinalized         = "ProposalFinalized"
	EventBondWithdrawn             = "BondWithdrawn"
	EventProposalSettingsUpdated   = "ProposalSettingsUpdated"
	EventRewardContributed         = "RewardContributed"
	EventElectionConfigured        = "ElectionConfigured"
	EventElectionInitialized       = "ElectionInitialized"
	EventBeneficiaryRegistered     = "BeneficiaryRegistered"
	EventElectionVoteCast          = "ElectionVoteCast"
	EventElectionStateChanged      = "ElectionStateChanged"
	EventRandomnessRequested       = "RandomnessRequested"
	EventAwardeesSelected          = "AwardeesSelected"
	EventFinalizationIncentivePaid = "FinalizationIncentivePaid"
	EventIncentiveContributed      = "IncentiveContributed"
)

const eventStream = "governance.events"

// EventService keeps the event outbox. Events are recorded inside the caller's
// transaction and handed to the publisher once it has committed.
type EventService struct {
	repo      *repository.Repository
	publisher EventPublisher
}

func NewEventService(repo *repository.Repository, publisher EventPublisher) *EventService {
	if publisher == nil {
		publisher = LogPublisher{}
	}
	return &EventService{repo: repo, publisher: publisher}
}

// Batch starts collecting events for one registry call
func (s *EventService) Batch() *EventBatch {
	return &EventBatch{svc: s}
}

// Publish delivers events and marks the delivered ones
func (s *EventService) Publish(ctx context.Context, events []*models.GovernanceEvent) {
	published := make([]uint, 0, len(events))
	for _, event := range events {
		if err := s.publisher.Publish(ctx, event); err != nil {
			log.Printf("[Events] Failed to publish %s #%d: %v", event.Name, event.ID, err)
			continue
		}
		published = append(published, event.ID)
	}
	if err := s.repo.MarkEventsPublished(ctx, published); err != nil {
		log.Printf("[Events] Failed to mark events published: %v", err)
	}
}

// RepublishPending retries events that were committed but never delivered
func (s *EventService) RepublishPending(ctx context.Context, limit int) (int, error) {
	events, err := s.repo.ListUnpublishedEvents(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("failed to list unpublished events: %w", err)
	}
	batch := make([]*models.GovernanceEvent, len(events))
	for i := range events {
		batch[i] = &events[i]
	}
	s.Publish(ctx, batch)
	return len(batch), nil
}

// ListEvents returns recorded events, optionally filtered by name
func (s *EventService) ListEvents(ctx context.Context, name string, limit int) ([]models.GovernanceEvent, error) {
	return s.repo.ListEvents(ctx, name, limit)
}

// EventBatch collects the events of a single call
type EventBatch struct {
	svc    *EventService
	events []*models.GovernanceEvent
}

// Record stores an event in the transaction carried by ctx
func (b *EventBatch) Record(ctx context.Context, name string, fields map[string]interface{}) error {
	payload, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", name, err)
	}
	event := &models.GovernanceEvent{Name: name, Payload: string(payload)}
	if err := b.svc.repo.CreateEvent(ctx, event); err != nil {
		return fmt.Errorf("failed to record %s event: %w", name, err)
	}
	b.events = append(b.events, event)
	return nil
}

// Flush publishes the collected events. Call only after commit.
func (b *EventBatch) Flush(ctx context.Context) {
	if len(b.events) == 0 {
		return
	}
	b.svc.Publish(ctx, b.events)
	b.events = nil
}

// LogPublisher writes events to the standard logger
type LogPublisher struct{}

func (LogPublisher) Publish(_ context.Context, event *models.GovernanceEvent) error {
	log.Printf("[Events] %s %s", event.Name, event.Payload)
	return nil
}

// RedisPublisher appends events to a redis stream
type RedisPublisher struct {
	rdb    *redis.Client
	stream string
}

func NewRedisPublisher(rdb *redis.Client) *RedisPublisher {
	return &RedisPublisher{rdb: rdb, stream: eventStream}
}

func (p *RedisPublisher) Publish(ctx context.Context, event *models.GovernanceEvent) error {
	_, err := p.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]interface{}{
			"id":      event.ID,
			"name":    event.Name,
			"payload": event.Payload,
		},
	}).Result()
	return err
}
