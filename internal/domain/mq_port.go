package domain

import (
	"context"
	"time"
)

type Message struct {
	Key   []byte
	Value []byte
}

type PublisherPort interface {
	Publish(ctx context.Context, topic string, msgs ...Message) error
}

type SubscriberPort interface {
	Subscribe(ctx context.Context, topic, groupID string) (<-chan Message, error)
}

type NegotiationEventType string

const (
	EventDisputeCreated        NegotiationEventType = "dispute.created"
	EventPositionSubmitted     NegotiationEventType = "position.submitted"
	EventProposalAccepted      NegotiationEventType = "proposal.accepted"
	EventModificationRequested NegotiationEventType = "modification.requested"
	EventProposalGenerated     NegotiationEventType = "proposal.generated"
	EventGenerationFailed      NegotiationEventType = "proposal.generation_failed"
	EventCounterpartyJoined    NegotiationEventType = "counterparty.joined"
)

// NegotiationEvent tells downstream consumers (notifications, UI push)
// whose turn it is after a committed state change.
type NegotiationEvent struct {
	Type              NegotiationEventType
	DisputeID         string
	ActorID           string
	NegotiationStatus NegotiationStatus
	NeedsReaction     []string
	OccurredAt        time.Time
}

type Invitation struct {
	DisputeID string
	CreatorID string
	Email     string
	Token     string
	CreatedAt time.Time
}

type EventPublisher interface {
	PublishNegotiationEvent(ctx context.Context, event NegotiationEvent) error
	PublishInvitation(ctx context.Context, invitation Invitation) error
}
