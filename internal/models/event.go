package models

import "time"

// GovernanceEvent is an outbox row for a signal emitted by the registries.
// Payload is a JSON object.
type GovernanceEvent struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:64;not null;index" json:"name"`
	Payload   string    `gorm:"type:text;not null" json:"payload"`
	Published bool      `gorm:"not null;index" json:"published"`
	CreatedAt time.Time `json:"created_at"`
}

func (GovernanceEvent) TableName() string {
	return "governance_events"
}
