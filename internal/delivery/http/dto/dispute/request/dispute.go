package request

type DocumentRequest struct {
	ID       string `json:"id" validate:"required"`
	Name     string `json:"name" validate:"required"`
	Size     int64  `json:"size" validate:"gte=0"`
	MimeType string `json:"mimeType"`
	Category string `json:"category"`
	Path     string `json:"path"`
}

type MoneyRequest struct {
	Amount   float64 `json:"amount" validate:"gte=0"`
	Currency string  `json:"currency" validate:"required,len=3"`
}

type PositionRequest struct {
	Description string            `json:"description"`
	Documents   []DocumentRequest `json:"documents" validate:"omitempty,dive"`
}

type CreateDisputeRequest struct {
	Description       string            `json:"description" validate:"required"`
	Value             *MoneyRequest     `json:"value" validate:"omitempty"`
	Documents         []DocumentRequest `json:"documents" validate:"omitempty,dive"`
	CounterpartyEmail string            `json:"counterpartyEmail" validate:"omitempty,email"`
	Position          *PositionRequest  `json:"position" validate:"omitempty"`
}

type ModificationRequest struct {
	Feedback string `json:"feedback" validate:"required"`
}

type ListDisputesQuery struct {
	Status string `query:"status" validate:"omitempty,oneof=AWAITING_BOTH AWAITING_CREATOR AWAITING_COUNTERPARTY MODIFICATION_REQUESTED ACCEPTED_ALL"`
	Page   int    `query:"page" validate:"gte=0"`
	Limit  int    `query:"limit" validate:"gte=0,lte=100"`
}
