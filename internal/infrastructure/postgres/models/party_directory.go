package models

import "time"

// PartyDirectoryModel is the local projection of registered parties used to
// match a counterparty email at dispute creation.
type PartyDirectoryModel struct {
	PartyID   string `gorm:"primaryKey"`
	Email     string `gorm:"uniqueIndex;not null"`
	UpdatedAt time.Time
}

func (PartyDirectoryModel) TableName() string {
	return "party_directory"
}
