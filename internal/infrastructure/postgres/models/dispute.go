package models

import (
	"time"

	"github.com/LavaJover/shvark-settlement-service/internal/domain"
	"gorm.io/datatypes"
)

// ProposalDocument is the stored body of a generated proposal. Whether a
// proposal exists is decided by DisputeModel.ProposalGeneratedAt.
type ProposalDocument struct {
	AgreementPoints  []domain.Point    `json:"agreementPoints"`
	NegotiablePoints []domain.Point    `json:"negotiablePoints"`
	DisputedPoints   []domain.Point    `json:"disputedPoints"`
	Settlement       domain.Settlement `json:"settlement"`
}

type DisputeModel struct {
	ID                string `gorm:"primaryKey"`
	Description       string `gorm:"not null"`
	ValueAmount       *float64
	ValueCurrency     string
	Documents         datatypes.JSONSlice[domain.Document] `gorm:"type:jsonb;not null;default:'[]'"`
	CreatorID         string                               `gorm:"index;not null"`
	CounterpartyID    *string                              `gorm:"index"`
	CounterpartyEmail string
	InvitationToken   *string `gorm:"uniqueIndex"`

	NegotiationStatus   string                               `gorm:"not null;default:''"`
	Proposal            datatypes.JSONType[ProposalDocument] `gorm:"type:jsonb;not null;default:'{}'"`
	ProposalGeneratedAt *time.Time

	PendingModificationRequests datatypes.JSONSlice[domain.ModificationRequest] `gorm:"type:jsonb;not null;default:'[]'"`
	RegenerationFeedback        datatypes.JSONSlice[string]                     `gorm:"type:jsonb;not null;default:'[]'"`
	InputRevision               int64                                           `gorm:"not null;default:0"`

	// Lease columns are written only by the generation lease queries.
	Generating          bool `gorm:"not null;default:false"`
	GenerationStartedAt *time.Time
	GenerationLeaseID   *string

	Participants []ParticipantModel `gorm:"foreignKey:DisputeID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (DisputeModel) TableName() string {
	return "disputes"
}
