package dispute

import (
	"context"
	"errors"
	"fmt"

	"github.com/LavaJover/shvark-settlement-service/internal/domain"
	"go.uber.org/zap"
)

// disputeOperation is one party action applied to a locked dispute.
type disputeOperation struct {
	DisputeID string
	PartyID   string
	Event     domain.NegotiationEventType
	Apply     func(tx domain.DisputeTxRepository, d *domain.Dispute) error
}

// processDisputeOperation runs op in a single transaction with the dispute
// row locked. Everything the operation changes commits together.
func (uc *DefaultDisputeUsecase) processDisputeOperation(ctx context.Context, op *disputeOperation) (*domain.Dispute, error) {
	txRepo, err := uc.disputeRepo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	var committed bool
	defer func() {
		if !committed {
			if rollbackErr := txRepo.Rollback(); rollbackErr != nil {
				uc.logger.Error("failed to rollback transaction",
					zap.String("dispute_id", op.DisputeID),
					zap.Error(rollbackErr),
				)
			}
		}
	}()

	d, err := txRepo.GetDisputeForUpdate(op.DisputeID)
	if err != nil {
		return nil, err
	}
	if err := op.Apply(txRepo, d); err != nil {
		uc.metrics.RecordRejected(string(op.Event), rejectionReason(err))
		return nil, err
	}
	if err := txRepo.SaveDispute(d); err != nil {
		return nil, fmt.Errorf("failed to save dispute: %w", err)
	}
	if err := txRepo.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}
	committed = true

	uc.afterCommit(d, op.Event, op.PartyID)
	return d, nil
}

// afterCommit runs the non-critical side effects of a committed event:
// metrics, the negotiation event and, when the dispute became eligible,
// proposal generation.
func (uc *DefaultDisputeUsecase) afterCommit(d *domain.Dispute, event domain.NegotiationEventType, actorID string) {
	uc.metrics.RecordEvent(string(event), string(d.Status))
	if event == domain.EventProposalAccepted && d.Status == domain.NegotiationAcceptedAll {
		uc.metrics.RecordSettled()
	}

	uc.publishNegotiationEvent(domain.NegotiationEvent{
		Type:              event,
		DisputeID:         d.ID,
		ActorID:           actorID,
		NegotiationStatus: d.Status,
		NeedsReaction:     d.PartiesNeedingReaction(),
		OccurredAt:        uc.now(),
	})

	if d.IsGenerationEligible() {
		uc.dispatchGeneration(d.ID)
	}
}

func (uc *DefaultDisputeUsecase) publishNegotiationEvent(event domain.NegotiationEvent) {
	if uc.publisher == nil {
		return
	}
	uc.goBackground(func(ctx context.Context) {
		if err := uc.publisher.PublishNegotiationEvent(ctx, event); err != nil {
			uc.metrics.RecordPublishError("negotiation")
			uc.logger.Error("failed to publish negotiation event",
				zap.String("dispute_id", event.DisputeID),
				zap.String("event", string(event.Type)),
				zap.Error(err),
			)
		}
	})
}

func (uc *DefaultDisputeUsecase) publishInvitation(invitation domain.Invitation) {
	if uc.publisher == nil {
		return
	}
	uc.goBackground(func(ctx context.Context) {
		if err := uc.publisher.PublishInvitation(ctx, invitation); err != nil {
			uc.metrics.RecordPublishError("invitation")
			uc.logger.Error("failed to publish invitation",
				zap.String("dispute_id", invitation.DisputeID),
				zap.Error(err),
			)
		}
	})
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrForbidden):
		return "forbidden"
	case errors.Is(err, domain.ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, domain.ErrAlreadyAccepted):
		return "already_accepted"
	case errors.Is(err, domain.ErrNotYourTurn):
		return "not_your_turn"
	case errors.Is(err, domain.ErrNoProposal):
		return "no_proposal"
	case errors.Is(err, domain.ErrSettled):
		return "settled"
	default:
		return "other"
	}
}
