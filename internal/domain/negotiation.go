package domain

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	MaxDescriptionLength = 20000
	MaxFeedbackLength    = 5000
	MaxDocuments         = 20
)

func (p Position) Validate() error {
	if p.IsEmpty() {
		return fmt.Errorf("%w: position needs a description or at least one document", ErrInvalidInput)
	}
	if utf8.RuneCountInString(p.Description) > MaxDescriptionLength {
		return fmt.Errorf("%w: description exceeds %d characters", ErrInvalidInput, MaxDescriptionLength)
	}
	return ValidateDocuments(p.Documents)
}

func ValidateDocuments(docs []Document) error {
	if len(docs) > MaxDocuments {
		return fmt.Errorf("%w: at most %d documents allowed", ErrInvalidInput, MaxDocuments)
	}
	for i, doc := range docs {
		if strings.TrimSpace(doc.ID) == "" || strings.TrimSpace(doc.Name) == "" {
			return fmt.Errorf("%w: document %d needs an id and a name", ErrInvalidInput, i)
		}
		if doc.Size < 0 {
			return fmt.Errorf("%w: document %d has a negative size", ErrInvalidInput, i)
		}
	}
	return nil
}

func NormalizeFeedback(feedback string) (string, error) {
	feedback = strings.TrimSpace(feedback)
	if feedback == "" {
		return "", fmt.Errorf("%w: feedback is required", ErrInvalidInput)
	}
	if utf8.RuneCountInString(feedback) > MaxFeedbackLength {
		return "", fmt.Errorf("%w: feedback exceeds %d characters", ErrInvalidInput, MaxFeedbackLength)
	}
	return feedback, nil
}

func (d *Dispute) Participant(partyID string) *Participant {
	for _, p := range d.Participants {
		if p.PartyID == partyID {
			return p
		}
	}
	return nil
}

func (d *Dispute) IsDesignatedParty(partyID string) bool {
	return partyID != "" && (partyID == d.CreatorID || partyID == d.CounterpartyID)
}

// OtherPartyID returns the party on the opposite side, or "" while the
// counterparty has not registered yet.
func (d *Dispute) OtherPartyID(partyID string) string {
	if partyID == d.CreatorID {
		return d.CounterpartyID
	}
	return d.CreatorID
}

func (d *Dispute) Counterpart(partyID string) *Participant {
	other := d.OtherPartyID(partyID)
	if other == "" {
		return nil
	}
	return d.Participant(other)
}

func (d *Dispute) ensureParticipant(partyID string, now time.Time) *Participant {
	if p := d.Participant(partyID); p != nil {
		return p
	}
	p := &Participant{
		DisputeID:      d.ID,
		PartyID:        partyID,
		ReactionStatus: ReactionNeeded,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	d.Participants = append(d.Participants, p)
	return p
}

// AcceptedBy is derived from the participants' acceptance markers.
func (d *Dispute) AcceptedBy() []string {
	var parties []string
	for _, p := range d.Participants {
		if p.HasAccepted() {
			parties = append(parties, p.PartyID)
		}
	}
	return parties
}

func (d *Dispute) IsGenerationEligible() bool {
	if d.Status != NegotiationAwaitingBoth || d.Proposal != nil || d.CounterpartyID == "" {
		return false
	}
	return d.Participant(d.CreatorID).HasPosition() && d.Participant(d.CounterpartyID).HasPosition()
}

func (d *Dispute) awaitingStatusFor(partyID string) NegotiationStatus {
	if partyID == d.CreatorID {
		return NegotiationAwaitingCreator
	}
	return NegotiationAwaitingCounterparty
}

// SubmitPosition stores the party's position and applies the position
// transition. It returns the counterparty id, if known.
func (d *Dispute) SubmitPosition(partyID string, pos Position, now time.Time) (string, error) {
	p := d.Participant(partyID)
	if p == nil {
		if !d.IsDesignatedParty(partyID) {
			return "", ErrForbidden
		}
		p = d.ensureParticipant(partyID, now)
	}
	if d.Status == NegotiationAcceptedAll {
		return "", ErrSettled
	}
	if err := pos.Validate(); err != nil {
		return "", err
	}

	p.Position = pos
	p.UpdatedAt = now
	d.InputRevision++
	if d.Proposal != nil {
		d.discardProposal()
	}

	otherID := d.OtherPartyID(partyID)
	counterpart := d.Counterpart(partyID)
	if counterpart.HasPosition() {
		d.Status = NegotiationAwaitingBoth
	} else {
		p.ReactionStatus = ReactionWaiting
		if otherID != "" {
			counterpart = d.ensureParticipant(otherID, now)
			counterpart.ReactionStatus = ReactionNeeded
			counterpart.UpdatedAt = now
		}
	}
	d.UpdatedAt = now
	return otherID, nil
}

func (d *Dispute) Accept(partyID string, now time.Time) error {
	p := d.Participant(partyID)
	if p == nil {
		return ErrForbidden
	}
	if p.HasAccepted() {
		return ErrAlreadyAccepted
	}
	if d.Status == NegotiationAcceptedAll {
		return ErrSettled
	}
	if d.Proposal == nil {
		return ErrNoProposal
	}
	if p.ReactionStatus != ReactionNeeded {
		return ErrNotYourTurn
	}

	p.AcceptedAt = &now
	p.ModificationRequestedAt = nil
	p.UpdatedAt = now

	other := d.Counterpart(partyID)
	if other.HasAccepted() {
		d.Status = NegotiationAcceptedAll
		p.ReactionStatus = ReactionDone
		other.ReactionStatus = ReactionDone
		other.UpdatedAt = now
	} else {
		d.Status = d.awaitingStatusFor(d.OtherPartyID(partyID))
		p.ReactionStatus = ReactionWaiting
		if other != nil {
			other.ReactionStatus = ReactionNeeded
			other.UpdatedAt = now
		}
	}
	d.UpdatedAt = now
	return nil
}

// RequestModification records feedback on the current proposal. It reports
// true when the request upgrades to a full regeneration cycle.
func (d *Dispute) RequestModification(partyID, feedback string, now time.Time) (bool, error) {
	p := d.Participant(partyID)
	if p == nil {
		return false, ErrForbidden
	}
	feedback, err := NormalizeFeedback(feedback)
	if err != nil {
		return false, err
	}
	if d.Status == NegotiationAcceptedAll {
		return false, ErrSettled
	}
	if d.Proposal == nil {
		return false, ErrNoProposal
	}
	if p.ReactionStatus != ReactionNeeded {
		return false, ErrNotYourTurn
	}

	d.PendingModificationRequests = append(d.PendingModificationRequests, ModificationRequest{
		PartyID:     partyID,
		Feedback:    feedback,
		RequestedAt: now,
	})
	p.ModificationRequestedAt = &now
	p.ReactionStatus = ReactionWaiting
	p.UpdatedAt = now
	d.UpdatedAt = now

	other := d.Counterpart(partyID)
	if other.HasAccepted() || other.HasPendingModification() {
		d.discardProposal()
		d.InputRevision++
		d.Status = NegotiationAwaitingBoth
		return true, nil
	}

	d.Status = NegotiationModificationRequested
	if other != nil {
		other.ReactionStatus = ReactionNeeded
		other.UpdatedAt = now
	}
	return false, nil
}

// discardProposal drops the current proposal together with everything that
// referred to it. Pending modification feedback moves to the regeneration
// queue so the next generation sees it.
func (d *Dispute) discardProposal() {
	d.Proposal = nil
	for _, req := range d.PendingModificationRequests {
		d.RegenerationFeedback = append(d.RegenerationFeedback, req.Feedback)
	}
	d.PendingModificationRequests = nil
	for _, p := range d.Participants {
		p.AcceptedAt = nil
	}
}

// CompleteGeneration installs a freshly generated proposal and resets both
// participants to review it.
func (d *Dispute) CompleteGeneration(proposal *Proposal, now time.Time) {
	proposal.GeneratedAt = now
	d.Proposal = proposal
	d.Status = NegotiationAwaitingBoth
	d.PendingModificationRequests = nil
	d.RegenerationFeedback = nil
	for _, p := range d.Participants {
		p.ReactionStatus = ReactionNeeded
		p.AcceptedAt = nil
		p.ModificationRequestedAt = nil
		p.UpdatedAt = now
	}
	d.UpdatedAt = now
}

func (d *Dispute) GenerationInput() GenerationInput {
	input := GenerationInput{
		DisputeID:            d.ID,
		Description:          d.Description,
		ModificationFeedback: append([]string(nil), d.RegenerationFeedback...),
	}
	if creator := d.Participant(d.CreatorID); creator != nil {
		input.CreatorPosition = creator.Position.Description
		input.CreatorDocuments = documentNames(creator.Position.Documents)
	}
	if counterparty := d.Participant(d.CounterpartyID); counterparty != nil && d.CounterpartyID != "" {
		input.CounterpartyPosition = counterparty.Position.Description
		input.CounterpartyDocuments = documentNames(counterparty.Position.Documents)
	}
	return input
}

func documentNames(docs []Document) []string {
	names := make([]string, 0, len(docs))
	for _, doc := range docs {
		names = append(names, doc.Name)
	}
	return names
}

// AssignCounterparty attaches the invited party to the dispute and creates
// its participant row.
func (d *Dispute) AssignCounterparty(partyID string, now time.Time) error {
	if d.CounterpartyID != "" {
		return ErrInvitationConsumed
	}
	if partyID == "" || partyID == d.CreatorID {
		return fmt.Errorf("%w: counterparty must differ from the creator", ErrInvalidInput)
	}
	d.CounterpartyID = partyID
	d.InvitationToken = ""
	p := d.ensureParticipant(partyID, now)
	p.ReactionStatus = ReactionNeeded
	d.UpdatedAt = now
	return nil
}

// PartiesNeedingReaction lists the parties whose turn it is.
func (d *Dispute) PartiesNeedingReaction() []string {
	var parties []string
	for _, p := range d.Participants {
		if p.ReactionStatus == ReactionNeeded {
			parties = append(parties, p.PartyID)
		}
	}
	return parties
}
