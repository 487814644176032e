package dispute

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/LavaJover/shvark-settlement-service/internal/domain"
	disputedto "github.com/LavaJover/shvark-settlement-service/internal/usecase/dto/dispute"
	"go.uber.org/zap"
)

// RegisterParty records a newly registered party in the local directory and
// redeems the invitation token it registered with, if any. Redemption is
// single-use: the token is cleared in the same transaction that attaches
// the counterparty. A token that cannot be redeemed is reported, but the
// directory entry is committed anyway.
func (uc *DefaultDisputeUsecase) RegisterParty(ctx context.Context, input *disputedto.RegisterPartyInput) error {
	partyID := strings.TrimSpace(input.PartyID)
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if partyID == "" || email == "" {
		return fmt.Errorf("%w: party id and email are required", domain.ErrInvalidInput)
	}

	txRepo, err := uc.disputeRepo.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	var committed bool
	defer func() {
		if !committed {
			if rollbackErr := txRepo.Rollback(); rollbackErr != nil {
				uc.logger.Error("failed to rollback transaction", zap.Error(rollbackErr))
			}
		}
	}()

	if err := txRepo.UpsertPartyDirectory(partyID, email); err != nil {
		return fmt.Errorf("failed to update party directory: %w", err)
	}

	var joined *domain.Dispute
	var redeemErr error
	if input.InvitationToken != "" {
		joined, redeemErr = redeemInvitation(txRepo, input.InvitationToken, partyID, uc.now())
		if redeemErr != nil && !isRejectedInvitation(redeemErr) {
			return redeemErr
		}
	}

	if err := txRepo.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	committed = true

	if redeemErr != nil {
		uc.logger.Warn("invitation not redeemed",
			zap.String("party_id", partyID),
			zap.Error(redeemErr),
		)
		return redeemErr
	}

	if joined != nil {
		uc.logger.Info("counterparty joined",
			zap.String("dispute_id", joined.ID),
			zap.String("party_id", partyID),
		)
		uc.metrics.RecordCounterpartyJoined()
		uc.afterCommit(joined, domain.EventCounterpartyJoined, partyID)
	}
	return nil
}

func redeemInvitation(txRepo domain.DisputeTxRepository, token, partyID string, now time.Time) (*domain.Dispute, error) {
	d, err := txRepo.GetDisputeByInvitationTokenForUpdate(token)
	if err != nil {
		return nil, fmt.Errorf("failed to redeem invitation: %w", err)
	}
	if err := d.AssignCounterparty(partyID, now); err != nil {
		return nil, err
	}
	if err := txRepo.SaveDispute(d); err != nil {
		return nil, fmt.Errorf("failed to save dispute: %w", err)
	}
	return d, nil
}

// isRejectedInvitation reports whether the token itself was refused, as
// opposed to the store failing. Nothing of the dispute was written then.
func isRejectedInvitation(err error) bool {
	return errors.Is(err, domain.ErrNotFound) ||
		errors.Is(err, domain.ErrInvitationConsumed) ||
		errors.Is(err, domain.ErrInvalidInput)
}
