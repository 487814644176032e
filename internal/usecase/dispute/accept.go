package dispute

import (
	"context"

	"github.com/LavaJover/shvark-settlement-service/internal/domain"
	disputedto "github.com/LavaJover/shvark-settlement-service/internal/usecase/dto/dispute"
	"go.uber.org/zap"
)

func (uc *DefaultDisputeUsecase) AcceptProposal(ctx context.Context, disputeID, partyID string) (*disputedto.DisputeOutput, error) {
	d, err := uc.processDisputeOperation(ctx, &disputeOperation{
		DisputeID: disputeID,
		PartyID:   partyID,
		Event:     domain.EventProposalAccepted,
		Apply: func(_ domain.DisputeTxRepository, d *domain.Dispute) error {
			return d.Accept(partyID, uc.now())
		},
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("proposal accepted",
		zap.String("dispute_id", d.ID),
		zap.String("party_id", partyID),
		zap.String("status", string(d.Status)),
	)
	return uc.output(d, partyID)
}
