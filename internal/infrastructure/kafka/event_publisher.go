package publisher

import (
	"context"
	"encoding/json"

	"github.com/LavaJover/shvark-settlement-service/internal/domain"
	"github.com/google/uuid"
)

type Topics struct {
	Negotiation string
	Invitation  string
}

// EventPublisher serializes domain events onto their topics. Messages are
// keyed by dispute id so one dispute's events stay ordered.
type EventPublisher struct {
	port   domain.PublisherPort
	topics Topics
}

func NewEventPublisher(port domain.PublisherPort, topics Topics) *EventPublisher {
	return &EventPublisher{port: port, topics: topics}
}

func (p *EventPublisher) PublishNegotiationEvent(ctx context.Context, event domain.NegotiationEvent) error {
	needsReaction := event.NeedsReaction
	if needsReaction == nil {
		needsReaction = []string{}
	}
	v, err := json.Marshal(NegotiationEventMessage{
		EventID:           uuid.New().String(),
		Type:              string(event.Type),
		DisputeID:         event.DisputeID,
		ActorID:           event.ActorID,
		NegotiationStatus: string(event.NegotiationStatus),
		NeedsReaction:     needsReaction,
		OccurredAt:        event.OccurredAt,
	})
	if err != nil {
		return err
	}
	return p.port.Publish(ctx, p.topics.Negotiation, domain.Message{Key: []byte(event.DisputeID), Value: v})
}

func (p *EventPublisher) PublishInvitation(ctx context.Context, invitation domain.Invitation) error {
	v, err := json.Marshal(InvitationMessage{
		EventID:   uuid.New().String(),
		Type:      "invitation.created",
		DisputeID: invitation.DisputeID,
		CreatorID: invitation.CreatorID,
		Email:     invitation.Email,
		Token:     invitation.Token,
		CreatedAt: invitation.CreatedAt,
	})
	if err != nil {
		return err
	}
	return p.port.Publish(ctx, p.topics.Invitation, domain.Message{Key: []byte(invitation.DisputeID), Value: v})
}
