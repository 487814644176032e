package dispute

import (
	"context"

	"github.com/LavaJover/shvark-settlement-service/internal/domain"
	disputedto "github.com/LavaJover/shvark-settlement-service/internal/usecase/dto/dispute"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

func (uc *DefaultDisputeUsecase) GetDispute(ctx context.Context, disputeID, partyID string) (*disputedto.DisputeOutput, error) {
	d, err := uc.disputeRepo.GetDisputeByID(ctx, disputeID)
	if err != nil {
		return nil, err
	}
	return uc.output(d, partyID)
}

func (uc *DefaultDisputeUsecase) GetPartyDisputes(ctx context.Context, input *disputedto.GetPartyDisputesInput) (*disputedto.GetPartyDisputesOutput, error) {
	page, limit := input.Page, input.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	disputes, total, err := uc.disputeRepo.GetDisputesByParty(ctx, domain.DisputeFilter{
		PartyID: input.PartyID,
		Status:  input.Status,
		Page:    page,
		Limit:   limit,
	})
	if err != nil {
		return nil, err
	}

	outputs := make([]*disputedto.DisputeOutput, 0, len(disputes))
	for _, d := range disputes {
		out, err := uc.output(d, input.PartyID)
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, out)
	}

	totalPages := total / int64(limit)
	if total%int64(limit) != 0 {
		totalPages++
	}

	return &disputedto.GetPartyDisputesOutput{
		Disputes: outputs,
		Pagination: disputedto.Pagination{
			CurrentPage:  int32(page),
			TotalPages:   int32(totalPages),
			TotalItems:   int32(total),
			ItemsPerPage: int32(limit),
		},
	}, nil
}
