package models

import (
	"time"

	"github.com/LavaJover/shvark-settlement-service/internal/domain"
	"gorm.io/datatypes"
)

type ParticipantModel struct {
	ID                      string `gorm:"primaryKey;type:uuid"`
	DisputeID               string `gorm:"not null;uniqueIndex:idx_participants_dispute_party"`
	PartyID                 string `gorm:"not null;uniqueIndex:idx_participants_dispute_party;index"`
	ReactionStatus          string `gorm:"not null"`
	PositionDescription     string
	PositionDocuments       datatypes.JSONSlice[domain.Document] `gorm:"type:jsonb;not null;default:'[]'"`
	AcceptedAt              *time.Time
	ModificationRequestedAt *time.Time
	CreatedAt               time.Time
	UpdatedAt               time.Time
}

func (ParticipantModel) TableName() string {
	return "participants"
}
