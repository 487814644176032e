package domain

import (
	"strings"
	"time"
)

type ReactionStatus string

const (
	ReactionNeeded  ReactionStatus = "NEEDS_REACTION"
	ReactionWaiting ReactionStatus = "WAITING"
	ReactionDone    ReactionStatus = "DONE"
)

type Position struct {
	Description string
	Documents   []Document
}

func (p Position) IsEmpty() bool {
	return strings.TrimSpace(p.Description) == "" && len(p.Documents) == 0
}

type Participant struct {
	ID                      string
	DisputeID               string
	PartyID                 string
	ReactionStatus          ReactionStatus
	Position                Position
	AcceptedAt              *time.Time
	ModificationRequestedAt *time.Time
	CreatedAt               time.Time
	UpdatedAt               time.Time
}

func (p *Participant) HasPosition() bool {
	return p != nil && !p.Position.IsEmpty()
}

func (p *Participant) HasAccepted() bool {
	return p != nil && p.AcceptedAt != nil
}

func (p *Participant) HasPendingModification() bool {
	return p != nil && p.ModificationRequestedAt != nil
}
