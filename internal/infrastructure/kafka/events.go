package publisher

import "time"

type NegotiationEventMessage struct {
	EventID           string    `json:"event_id"`
	Type              string    `json:"type"`
	DisputeID         string    `json:"dispute_id"`
	ActorID           string    `json:"actor_id,omitempty"`
	NegotiationStatus string    `json:"negotiation_status"`
	NeedsReaction     []string  `json:"needs_reaction"`
	OccurredAt        time.Time `json:"occurred_at"`
}

type InvitationMessage struct {
	EventID   string    `json:"event_id"`
	Type      string    `json:"type"`
	DisputeID string    `json:"dispute_id"`
	CreatorID string    `json:"creator_id"`
	Email     string    `json:"email"`
	Token     string    `json:"token"`
	CreatedAt time.Time `json:"created_at"`
}

// PartyRegisteredMessage arrives on the party events topic when the identity
// service registers a party. InvitationToken is set when the party signed up
// through an invitation link.
type PartyRegisteredMessage struct {
	Type            string `json:"type"`
	PartyID         string `json:"party_id"`
	Email           string `json:"email"`
	InvitationToken string `json:"invitation_token,omitempty"`
}
