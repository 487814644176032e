package dispute

import (
	"context"

	"github.com/LavaJover/shvark-settlement-service/internal/domain"
	disputedto "github.com/LavaJover/shvark-settlement-service/internal/usecase/dto/dispute"
	"go.uber.org/zap"
)

// SubmitPosition stores the caller's position. Once both sides have one the
// dispute becomes eligible and generation is dispatched after commit.
func (uc *DefaultDisputeUsecase) SubmitPosition(ctx context.Context, input *disputedto.SubmitPositionInput) (*disputedto.DisputeOutput, error) {
	position := domain.Position{
		Description: input.Description,
		Documents:   input.Documents,
	}
	d, err := uc.processDisputeOperation(ctx, &disputeOperation{
		DisputeID: input.DisputeID,
		PartyID:   input.PartyID,
		Event:     domain.EventPositionSubmitted,
		Apply: func(_ domain.DisputeTxRepository, d *domain.Dispute) error {
			_, err := d.SubmitPosition(input.PartyID, position, uc.now())
			return err
		},
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("position submitted",
		zap.String("dispute_id", d.ID),
		zap.String("party_id", input.PartyID),
		zap.String("status", string(d.Status)),
	)
	return uc.output(d, input.PartyID)
}
