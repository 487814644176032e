package dispute

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/LavaJover/shvark-settlement-service/internal/domain"
	disputedto "github.com/LavaJover/shvark-settlement-service/internal/usecase/dto/dispute"
	"go.uber.org/zap"
)

// CreateDispute opens a dispute. A counterparty email that matches a known
// party attaches that party right away; otherwise an invitation token is
// minted and handed to the notification channel after commit.
func (uc *DefaultDisputeUsecase) CreateDispute(ctx context.Context, input *disputedto.CreateDisputeInput) (*disputedto.DisputeOutput, error) {
	now := uc.now()
	d, err := domain.NewDispute(uc.newID(), input.CreatorID, strings.TrimSpace(input.Description), input.Value, input.Documents, now)
	if err != nil {
		return nil, err
	}

	email := strings.ToLower(strings.TrimSpace(input.CounterpartyEmail))
	if email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			return nil, fmt.Errorf("%w: counterparty email is invalid", domain.ErrInvalidInput)
		}
	}
	d.CounterpartyEmail = email

	txRepo, err := uc.disputeRepo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	var committed bool
	defer func() {
		if !committed {
			if rollbackErr := txRepo.Rollback(); rollbackErr != nil {
				uc.logger.Error("failed to rollback transaction", zap.Error(rollbackErr))
			}
		}
	}()

	if email != "" {
		partyID, err := txRepo.FindPartyByEmail(email)
		switch {
		case err == nil:
			if err := d.AssignCounterparty(partyID, now); err != nil {
				return nil, err
			}
		case errors.Is(err, domain.ErrNotFound):
			d.InvitationToken = uc.newToken()
		default:
			return nil, fmt.Errorf("failed to look up counterparty: %w", err)
		}
	}

	if input.Position != nil && !input.Position.IsEmpty() {
		if _, err := d.SubmitPosition(d.CreatorID, *input.Position, now); err != nil {
			return nil, err
		}
	}

	if err := txRepo.CreateDispute(d); err != nil {
		return nil, fmt.Errorf("failed to create dispute: %w", err)
	}
	if err := txRepo.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}
	committed = true

	uc.logger.Info("dispute created",
		zap.String("dispute_id", d.ID),
		zap.String("party_id", d.CreatorID),
		zap.Bool("counterparty_known", d.CounterpartyID != ""),
	)
	switch {
	case d.CounterpartyID != "":
		uc.metrics.RecordDisputeCreated("known")
	case d.InvitationToken != "":
		uc.metrics.RecordDisputeCreated("invited")
		uc.metrics.RecordInvitationIssued()
		uc.publishInvitation(domain.Invitation{
			DisputeID: d.ID,
			CreatorID: d.CreatorID,
			Email:     d.CounterpartyEmail,
			Token:     d.InvitationToken,
			CreatedAt: now,
		})
	default:
		uc.metrics.RecordDisputeCreated("none")
	}

	uc.afterCommit(d, domain.EventDisputeCreated, d.CreatorID)
	return uc.output(d, d.CreatorID)
}
