package domain

// VisibleTo returns the dispute as the given party may see it. The
// counterparty's position stays hidden until both sides have submitted, and
// the invitation token is never exposed.
func (d *Dispute) VisibleTo(partyID string) (*Dispute, error) {
	own := d.Participant(partyID)
	if own == nil && !d.IsDesignatedParty(partyID) {
		return nil, ErrForbidden
	}

	view := *d
	view.InvitationToken = ""
	view.Participants = make([]*Participant, 0, len(d.Participants))

	counterpart := d.Counterpart(partyID)
	reveal := own.HasPosition() && counterpart.HasPosition()
	for _, p := range d.Participants {
		cp := *p
		if p.PartyID != partyID && !reveal {
			cp.Position = Position{}
		}
		view.Participants = append(view.Participants, &cp)
	}
	return &view, nil
}
