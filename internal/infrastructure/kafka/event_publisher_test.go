package publisher

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/LavaJover/shvark-settlement-service/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedBatch struct {
	topic string
	msgs  []domain.Message
}

type recordingPort struct {
	batches []recordedBatch
}

func (p *recordingPort) Publish(ctx context.Context, topic string, msgs ...domain.Message) error {
	p.batches = append(p.batches, recordedBatch{topic: topic, msgs: msgs})
	return nil
}

func TestPublishNegotiationEvent(t *testing.T) {
	port := &recordingPort{}
	pub := NewEventPublisher(port, Topics{Negotiation: "negotiation-events", Invitation: "invitation-events"})

	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, pub.PublishNegotiationEvent(context.Background(), domain.NegotiationEvent{
		Type:              domain.EventProposalAccepted,
		DisputeID:         "d1",
		ActorID:           "alice",
		NegotiationStatus: domain.NegotiationAwaitingCounterparty,
		NeedsReaction:     []string{"bob"},
		OccurredAt:        at,
	}))

	require.Len(t, port.batches, 1)
	assert.Equal(t, "negotiation-events", port.batches[0].topic)
	require.Len(t, port.batches[0].msgs, 1)
	msg := port.batches[0].msgs[0]
	assert.Equal(t, []byte("d1"), msg.Key)

	var decoded NegotiationEventMessage
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	_, err := uuid.Parse(decoded.EventID)
	assert.NoError(t, err)
	assert.Equal(t, string(domain.EventProposalAccepted), decoded.Type)
	assert.Equal(t, "AWAITING_COUNTERPARTY", decoded.NegotiationStatus)
	assert.Equal(t, []string{"bob"}, decoded.NeedsReaction)
	assert.True(t, at.Equal(decoded.OccurredAt))
}

func TestPublishNegotiationEventEncodesEmptyReactionList(t *testing.T) {
	port := &recordingPort{}
	pub := NewEventPublisher(port, Topics{Negotiation: "n", Invitation: "i"})

	require.NoError(t, pub.PublishNegotiationEvent(context.Background(), domain.NegotiationEvent{
		Type:      domain.EventGenerationFailed,
		DisputeID: "d1",
	}))
	assert.Contains(t, string(port.batches[0].msgs[0].Value), `"needs_reaction":[]`)
}

func TestPublishInvitation(t *testing.T) {
	port := &recordingPort{}
	pub := NewEventPublisher(port, Topics{Negotiation: "negotiation-events", Invitation: "invitation-events"})

	require.NoError(t, pub.PublishInvitation(context.Background(), domain.Invitation{
		DisputeID: "d1",
		CreatorID: "alice",
		Email:     "carol@example.com",
		Token:     "tok",
		CreatedAt: time.Now(),
	}))

	require.Len(t, port.batches, 1)
	assert.Equal(t, "invitation-events", port.batches[0].topic)
	var decoded InvitationMessage
	require.NoError(t, json.Unmarshal(port.batches[0].msgs[0].Value, &decoded))
	assert.Equal(t, "invitation.created", decoded.Type)
	assert.Equal(t, "carol@example.com", decoded.Email)
	assert.Equal(t, "tok", decoded.Token)
}

func TestKafkaConfigMechanism(t *testing.T) {
	m, err := KafkaConfig{}.mechanism()
	require.NoError(t, err)
	assert.Nil(t, m)

	m, err = KafkaConfig{Username: "u", Password: "p"}.mechanism()
	require.NoError(t, err)
	assert.Equal(t, "PLAIN", m.Name())

	m, err = KafkaConfig{Username: "u", Password: "p", Mechanism: "SCRAM-SHA-512"}.mechanism()
	require.NoError(t, err)
	assert.Equal(t, "SCRAM-SHA-512", m.Name())

	_, err = KafkaConfig{Username: "u", Mechanism: "GSSAPI"}.mechanism()
	assert.Error(t, err)
}
