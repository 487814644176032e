package dispute

import (
	"context"

	"github.com/LavaJover/shvark-settlement-service/internal/domain"
	disputedto "github.com/LavaJover/shvark-settlement-service/internal/usecase/dto/dispute"
	"go.uber.org/zap"
)

// RequestModification records feedback on the current proposal. When the
// other side already accepted or asked for changes too, the proposal is
// dropped and regeneration is dispatched with all queued feedback.
func (uc *DefaultDisputeUsecase) RequestModification(ctx context.Context, input *disputedto.RequestModificationInput) (*disputedto.DisputeOutput, error) {
	var regenerate bool
	d, err := uc.processDisputeOperation(ctx, &disputeOperation{
		DisputeID: input.DisputeID,
		PartyID:   input.PartyID,
		Event:     domain.EventModificationRequested,
		Apply: func(_ domain.DisputeTxRepository, d *domain.Dispute) error {
			var err error
			regenerate, err = d.RequestModification(input.PartyID, input.Feedback, uc.now())
			return err
		},
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("modification requested",
		zap.String("dispute_id", d.ID),
		zap.String("party_id", input.PartyID),
		zap.Bool("regenerate", regenerate),
	)
	return uc.output(d, input.PartyID)
}
