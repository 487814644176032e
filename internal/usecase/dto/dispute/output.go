package disputedto

import "github.com/LavaJover/shvark-settlement-service/internal/domain"

// DisputeOutput is a dispute as seen by one party.
type DisputeOutput struct {
	Dispute           *domain.Dispute
	AcceptedBy        []string
	GenerationPending bool
}

type GetPartyDisputesOutput struct {
	Disputes   []*DisputeOutput
	Pagination Pagination
}

type Pagination struct {
	CurrentPage  int32
	TotalPages   int32
	TotalItems   int32
	ItemsPerPage int32
}
