package response

import "time"

type ErrorResponse struct {
	Error string `json:"error"`
}

type DocumentResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Size     int64  `json:"size"`
	MimeType string `json:"mimeType"`
	Category string `json:"category"`
	Path     string `json:"path,omitempty"`
}

type MoneyResponse struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

type PositionResponse struct {
	Description string             `json:"description"`
	Documents   []DocumentResponse `json:"documents"`
}

type ParticipantResponse struct {
	PartyID                 string            `json:"partyId"`
	ReactionStatus          string            `json:"reactionStatus"`
	Position                *PositionResponse `json:"position"`
	AcceptedAt              *time.Time        `json:"acceptedAt"`
	ModificationRequestedAt *time.Time        `json:"modificationRequestedAt"`
}

type PointResponse struct {
	Reference string `json:"reference"`
	Summary   string `json:"summary"`
	Rationale string `json:"rationale"`
}

type ProposalResponse struct {
	AgreementPoints  []PointResponse `json:"agreementPoints"`
	NegotiablePoints []PointResponse `json:"negotiablePoints"`
	DisputedPoints   []PointResponse `json:"disputedPoints"`
	Settlement       struct {
		Content string `json:"content"`
		Status  string `json:"status"`
	} `json:"settlement"`
	GeneratedAt time.Time `json:"generatedAt"`
}

type ModificationRequestResponse struct {
	PartyID     string    `json:"partyId"`
	Feedback    string    `json:"feedback"`
	RequestedAt time.Time `json:"requestedAt"`
}

type DisputeResponse struct {
	ID                   string                        `json:"id"`
	Description          string                        `json:"description"`
	Value                *MoneyResponse                `json:"value"`
	Documents            []DocumentResponse            `json:"documents"`
	CreatorID            string                        `json:"creatorId"`
	CounterpartyID       string                        `json:"counterpartyId,omitempty"`
	CounterpartyEmail    string                        `json:"counterpartyEmail,omitempty"`
	NegotiationStatus    string                        `json:"negotiationStatus"`
	Proposal             *ProposalResponse             `json:"proposal"`
	Participants         []ParticipantResponse         `json:"participants"`
	AcceptedBy           []string                      `json:"acceptedBy"`
	ModificationRequests []ModificationRequestResponse `json:"modificationRequests"`
	GenerationPending    bool                          `json:"generationPending"`
	CreatedAt            time.Time                     `json:"createdAt"`
	UpdatedAt            time.Time                     `json:"updatedAt"`
}

type Pagination struct {
	CurrentPage  int32 `json:"currentPage"`
	TotalPages   int32 `json:"totalPages"`
	TotalItems   int32 `json:"totalItems"`
	ItemsPerPage int32 `json:"itemsPerPage"`
}

type ListDisputesResponse struct {
	Disputes   []DisputeResponse `json:"disputes"`
	Pagination Pagination        `json:"pagination"`
}
