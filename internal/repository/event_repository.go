package repository

import (
	"context"

	"grant-governance/internal/models"
)

// CreateEvent stores an outbox event
func (r *Repository) CreateEvent(ctx context.Context, event *models.GovernanceEvent) error {
	return r.conn(ctx).Create(event).Error
}

// MarkEventsPublished flags events as delivered
func (r *Repository) MarkEventsPublished(ctx context.Context, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	return r.conn(ctx).Model(&models.GovernanceEvent{}).
		Where("id IN ?", ids).
		Update("published", true).Error
}

// ListEvents returns events in emission order. An empty name matches all events.
func (r *Repository) ListEvents(ctx context.Context, name string, limit int) ([]models.GovernanceEvent, error) {
	query := r.conn(ctx).Order("id ASC")
	if name != "" {
		query = query.Where("name = ?", name)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	var events []models.GovernanceEvent
	err := query.Find(&events).Error
	return events, err
}

// ListUnpublishedEvents returns events that were committed but not delivered
func (r *Repository) ListUnpublishedEvents(ctx context.Context, limit int) ([]models.GovernanceEvent, error) {
	var events []models.GovernanceEvent
	err := r.conn(ctx).Where("published = ?", false).Order("id ASC").Limit(limit).Find(&events).Error
	return events, err
}
