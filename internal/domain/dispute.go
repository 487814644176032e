package domain

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

type NegotiationStatus string

const (
	NegotiationNone                  NegotiationStatus = ""
	NegotiationAwaitingBoth          NegotiationStatus = "AWAITING_BOTH"
	NegotiationAwaitingCreator       NegotiationStatus = "AWAITING_CREATOR"
	NegotiationAwaitingCounterparty  NegotiationStatus = "AWAITING_COUNTERPARTY"
	NegotiationModificationRequested NegotiationStatus = "MODIFICATION_REQUESTED"
	NegotiationAcceptedAll           NegotiationStatus = "ACCEPTED_ALL"
)

type Document struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Size        int64  `json:"size"`
	MimeType    string `json:"mimeType"`
	Category    string `json:"category"`
	StoragePath string `json:"path,omitempty"`
}

type Money struct {
	Amount   float64
	Currency string
}

type ModificationRequest struct {
	PartyID     string    `json:"partyId"`
	Feedback    string    `json:"feedback"`
	RequestedAt time.Time `json:"requestedAt"`
}

// Dispute is the negotiation aggregate. Participants are loaded together
// with the dispute and saved with it in one transaction.
type Dispute struct {
	ID                string
	Description       string
	Value             *Money
	Documents         []Document
	CreatorID         string
	CounterpartyID    string
	CounterpartyEmail string
	InvitationToken   string

	Status       NegotiationStatus
	Proposal     *Proposal
	Participants []*Participant

	PendingModificationRequests []ModificationRequest
	RegenerationFeedback        []string
	InputRevision               int64

	// Lease state as last read from storage. Only GenerationLease and the
	// stale reaper change it; SaveDispute never writes it back.
	Generating          bool
	GenerationStartedAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

type DisputeFilter struct {
	PartyID string
	Status  *NegotiationStatus
	Page    int
	Limit   int
}

// DisputeRepository persists dispute aggregates. State-changing operations
// go through BeginTx so every row of one event commits together.
type DisputeRepository interface {
	BeginTx(ctx context.Context) (DisputeTxRepository, error)
	GetDisputeByID(ctx context.Context, disputeID string) (*Dispute, error)
	GetDisputesByParty(ctx context.Context, filter DisputeFilter) ([]*Dispute, int64, error)
	ReleaseStaleGenerationLeases(ctx context.Context, staleAfter time.Duration) (int64, error)
	LogGeneration(ctx context.Context, entry *GenerationLogEntry) error
}

type DisputeTxRepository interface {
	CreateDispute(dispute *Dispute) error
	GetDisputeForUpdate(disputeID string) (*Dispute, error)
	GetDisputeByInvitationTokenForUpdate(token string) (*Dispute, error)
	SaveDispute(dispute *Dispute) error
	FindPartyByEmail(email string) (string, error)
	UpsertPartyDirectory(partyID, email string) error
	Commit() error
	Rollback() error
}

// GenerationLease serializes proposal generation per dispute. Acquire
// reports false when another worker holds a live lease or the dispute is
// no longer waiting for a proposal.
type GenerationLease interface {
	Acquire(ctx context.Context, disputeID string) (bool, error)
	Release(ctx context.Context, disputeID string) error
}

type GenerationOutcome string

const (
	GenerationSucceeded GenerationOutcome = "success"
	GenerationTimedOut  GenerationOutcome = "timeout"
	GenerationErrored   GenerationOutcome = "failed"
	GenerationMalformed GenerationOutcome = "malformed"
	GenerationStale     GenerationOutcome = "stale"
)

type GenerationLogEntry struct {
	DisputeID     string
	Outcome       GenerationOutcome
	InputRevision int64
	Duration      time.Duration
	Error         string
	CreatedAt     time.Time
}

// NewDispute opens a dispute for its creator. The creator's participant row
// exists from the start; the counterparty is attached separately.
func NewDispute(id, creatorID, description string, value *Money, documents []Document, now time.Time) (*Dispute, error) {
	if strings.TrimSpace(creatorID) == "" {
		return nil, fmt.Errorf("%w: creator is required", ErrInvalidInput)
	}
	if strings.TrimSpace(description) == "" {
		return nil, fmt.Errorf("%w: description is required", ErrInvalidInput)
	}
	if utf8.RuneCountInString(description) > MaxDescriptionLength {
		return nil, fmt.Errorf("%w: description exceeds %d characters", ErrInvalidInput, MaxDescriptionLength)
	}
	if value != nil && value.Amount < 0 {
		return nil, fmt.Errorf("%w: dispute value must not be negative", ErrInvalidInput)
	}
	if err := ValidateDocuments(documents); err != nil {
		return nil, err
	}
	d := &Dispute{
		ID:          id,
		Description: description,
		Value:       value,
		Documents:   documents,
		CreatorID:   creatorID,
		Status:      NegotiationNone,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	d.ensureParticipant(creatorID, now)
	return d, nil
}
