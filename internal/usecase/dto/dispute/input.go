package disputedto

import "github.com/LavaJover/shvark-settlement-service/internal/domain"

type CreateDisputeInput struct {
	CreatorID         string
	Description       string
	Value             *domain.Money
	Documents         []domain.Document
	CounterpartyEmail string
	// Optional position submitted together with the dispute.
	Position *domain.Position
}

type SubmitPositionInput struct {
	DisputeID   string
	PartyID     string
	Description string
	Documents   []domain.Document
}

type RequestModificationInput struct {
	DisputeID string
	PartyID   string
	Feedback  string
}

type GetPartyDisputesInput struct {
	PartyID string
	Status  *domain.NegotiationStatus
	Page    int
	Limit   int
}

type RegisterPartyInput struct {
	PartyID         string
	Email           string
	InvitationToken string
}
