package consumer

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/LavaJover/shvark-settlement-service/internal/domain"
	publisher "github.com/LavaJover/shvark-settlement-service/internal/infrastructure/kafka"
	disputeUsecase "github.com/LavaJover/shvark-settlement-service/internal/usecase/dispute"
	disputedto "github.com/LavaJover/shvark-settlement-service/internal/usecase/dto/dispute"
	"go.uber.org/zap"
)

const partyRegistered = "party.registered"

// PartyConsumer keeps the party directory in sync with the identity service
// and redeems invitation tokens carried by registrations.
type PartyConsumer struct {
	subscriber domain.SubscriberPort
	uc         disputeUsecase.DisputeUsecase
	topic      string
	groupID    string
	logger     *zap.Logger
}

func NewPartyConsumer(subscriber domain.SubscriberPort, uc disputeUsecase.DisputeUsecase, topic, groupID string, logger *zap.Logger) *PartyConsumer {
	return &PartyConsumer{
		subscriber: subscriber,
		uc:         uc,
		topic:      topic,
		groupID:    groupID,
		logger:     logger.Named("party-consumer"),
	}
}

// Run consumes until ctx is cancelled or the subscription ends.
func (c *PartyConsumer) Run(ctx context.Context) error {
	msgs, err := c.subscriber.Subscribe(ctx, c.topic, c.groupID)
	if err != nil {
		return err
	}
	c.logger.Info("consuming party events", zap.String("topic", c.topic))
	for msg := range msgs {
		c.handle(ctx, msg)
	}
	return ctx.Err()
}

func (c *PartyConsumer) handle(ctx context.Context, msg domain.Message) {
	var event publisher.PartyRegisteredMessage
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		c.logger.Warn("skipping undecodable party event", zap.ByteString("key", msg.Key), zap.Error(err))
		return
	}
	if event.Type != "" && event.Type != partyRegistered {
		return
	}

	err := c.uc.RegisterParty(ctx, &disputedto.RegisterPartyInput{
		PartyID:         event.PartyID,
		Email:           event.Email,
		InvitationToken: event.InvitationToken,
	})
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrInvitationConsumed), errors.Is(err, domain.ErrInvalidInput):
		// redelivered or stale; nothing to retry
		c.logger.Warn("party event rejected",
			zap.String("party_id", event.PartyID),
			zap.Error(err),
		)
	default:
		c.logger.Error("failed to register party",
			zap.String("party_id", event.PartyID),
			zap.Error(err),
		)
	}
}
