package models

import "time"

// Beneficiary is a member of the beneficiary directory
type Beneficiary struct {
	ID         uint      `gorm:"primaryKey" json:"-"`
	Address    string    `gorm:"uniqueIndex;size:42;not null" json:"address"`
	ContentRef string    `gorm:"size:66;not null" json:"content_ref"`
	CreatedAt  time.Time `json:"created_at"`
}

func (Beneficiary) TableName() string {
	return "beneficiaries"
}
