package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVisibleToHidesCounterpartyPosition(t *testing.T) {
	d := newTestDispute(t)
	d.InvitationToken = "secret"
	_, err := d.SubmitPosition(creatorID, Position{Description: "creator account"}, t0)
	require.NoError(t, err)

	view, err := d.VisibleTo(counterpartyID)
	require.NoError(t, err)
	assert.Empty(t, view.InvitationToken)
	assert.True(t, view.Participant(creatorID).Position.IsEmpty())

	view, err = d.VisibleTo(creatorID)
	require.NoError(t, err)
	assert.Equal(t, "creator account", view.Participant(creatorID).Position.Description)

	// the stored aggregate is untouched
	assert.Equal(t, "creator account", d.Participant(creatorID).Position.Description)
	assert.Equal(t, "secret", d.InvitationToken)
}

func TestVisibleToRevealsOnceBothSubmitted(t *testing.T) {
	d := newTestDispute(t)
	_, err := d.SubmitPosition(creatorID, Position{Description: "a"}, t0)
	require.NoError(t, err)
	_, err = d.SubmitPosition(counterpartyID, Position{Description: "b"}, t0)
	require.NoError(t, err)

	view, err := d.VisibleTo(counterpartyID)
	require.NoError(t, err)
	assert.Equal(t, "a", view.Participant(creatorID).Position.Description)
}

func TestVisibleToStranger(t *testing.T) {
	d := newTestDispute(t)
	_, err := d.VisibleTo("stranger")
	assert.ErrorIs(t, err, ErrForbidden)
}
