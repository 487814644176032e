package dispute

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/LavaJover/shvark-settlement-service/internal/domain"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// maxGenerationRounds bounds how often one dispatch re-runs generation
// because the inputs changed while the generator was working.
const maxGenerationRounds = 3

var tracer = otel.Tracer("github.com/LavaJover/shvark-settlement-service/internal/usecase/dispute")

// RetryGeneration re-triggers generation for a dispute that is waiting for
// a proposal, typically after a failed attempt.
func (uc *DefaultDisputeUsecase) RetryGeneration(ctx context.Context, disputeID, partyID string) error {
	d, err := uc.disputeRepo.GetDisputeByID(ctx, disputeID)
	if err != nil {
		return err
	}
	if d.Participant(partyID) == nil {
		return domain.ErrForbidden
	}
	if !d.IsGenerationEligible() {
		return domain.ErrNotEligible
	}
	uc.logger.Info("generation retry requested",
		zap.String("dispute_id", disputeID),
		zap.String("party_id", partyID),
	)
	uc.dispatchGeneration(disputeID)
	return nil
}

func (uc *DefaultDisputeUsecase) ReleaseStaleGenerationLeases(ctx context.Context) (int64, error) {
	released, err := uc.disputeRepo.ReleaseStaleGenerationLeases(ctx, uc.cfg.StaleAfter)
	if err != nil {
		return 0, fmt.Errorf("failed to release stale leases: %w", err)
	}
	if released > 0 {
		uc.metrics.RecordStaleLeasesReleased(released)
		uc.logger.Warn("released stale generation leases", zap.Int64("count", released))
	}
	return released, nil
}

// dispatchGeneration starts generation for the dispute on a background
// goroutine. Concurrent dispatches inside this process collapse into one
// call; across processes the generation lease decides.
func (uc *DefaultDisputeUsecase) dispatchGeneration(disputeID string) {
	started := uc.goBackground(func(ctx context.Context) {
		for round := 0; round < maxGenerationRounds; round++ {
			v, _, _ := uc.inflight.Do(disputeID, func() (interface{}, error) {
				return uc.generateProposal(ctx, disputeID), nil
			})
			if outcome, _ := v.(domain.GenerationOutcome); !uc.shouldRerun(ctx, disputeID, outcome) {
				return
			}
		}
		uc.logger.Warn("generation inputs kept changing, giving up until the next event",
			zap.String("dispute_id", disputeID),
		)
	})
	if !started {
		uc.metrics.RecordGenerationSkipped("shutdown")
	}
}

// shouldRerun reports whether the dispute still needs a proposal after a
// run that either succeeded or was discarded as stale. Failures are never
// re-run automatically.
func (uc *DefaultDisputeUsecase) shouldRerun(ctx context.Context, disputeID string, outcome domain.GenerationOutcome) bool {
	if outcome != domain.GenerationSucceeded && outcome != domain.GenerationStale {
		return false
	}
	if ctx.Err() != nil {
		return false
	}
	d, err := uc.disputeRepo.GetDisputeByID(ctx, disputeID)
	if err != nil {
		return false
	}
	return d.IsGenerationEligible()
}

// generateProposal is one eligibility window: lease, call the generator
// under a hard timeout, validate, store. It returns "" when the generator
// was not called at all.
func (uc *DefaultDisputeUsecase) generateProposal(ctx context.Context, disputeID string) domain.GenerationOutcome {
	log := uc.logger.With(zap.String("dispute_id", disputeID))

	acquired, err := uc.lease.Acquire(ctx, disputeID)
	if err != nil {
		log.Error("failed to acquire generation lease", zap.Error(err))
		uc.metrics.RecordGenerationSkipped("lease_error")
		return ""
	}
	if !acquired {
		log.Debug("generation already running or not needed")
		uc.metrics.RecordGenerationSkipped("lease_held")
		return ""
	}
	defer func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := uc.lease.Release(releaseCtx, disputeID); err != nil {
			log.Error("failed to release generation lease", zap.Error(err))
		}
	}()

	d, err := uc.disputeRepo.GetDisputeByID(ctx, disputeID)
	if err != nil {
		log.Error("failed to load dispute for generation", zap.Error(err))
		uc.metrics.RecordGenerationSkipped("load_error")
		return ""
	}
	if !d.IsGenerationEligible() {
		uc.metrics.RecordGenerationSkipped("not_eligible")
		return ""
	}

	ctx, span := tracer.Start(ctx, "proposal.generate", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		attribute.String("dispute.id", disputeID),
		attribute.Int64("dispute.input_revision", d.InputRevision),
		attribute.Int("dispute.feedback_count", len(d.RegenerationFeedback)),
	)

	uc.metrics.GenerationStarted()
	started := time.Now()
	outcome, err := uc.runGenerator(ctx, d)
	took := time.Since(started)
	uc.metrics.GenerationFinished(string(outcome), took)

	entry := &domain.GenerationLogEntry{
		DisputeID:     disputeID,
		Outcome:       outcome,
		InputRevision: d.InputRevision,
		Duration:      took,
		CreatedAt:     uc.now(),
	}
	if err != nil {
		entry.Error = err.Error()
		span.RecordError(err)
		span.SetStatus(codes.Error, string(outcome))
	}
	span.SetAttributes(attribute.String("generation.outcome", string(outcome)))
	if logErr := uc.disputeRepo.LogGeneration(context.WithoutCancel(ctx), entry); logErr != nil {
		log.Error("failed to write generation log", zap.Error(logErr))
	}

	switch outcome {
	case domain.GenerationSucceeded:
		log.Info("proposal generated", zap.Duration("duration", took))
	case domain.GenerationStale:
		log.Info("discarded proposal generated from outdated input", zap.Duration("duration", took))
	default:
		log.Error("proposal generation failed",
			zap.String("outcome", string(outcome)),
			zap.Duration("duration", took),
			zap.Error(err),
		)
		uc.publishNegotiationEvent(domain.NegotiationEvent{
			Type:              domain.EventGenerationFailed,
			DisputeID:         disputeID,
			NegotiationStatus: d.Status,
			OccurredAt:        uc.now(),
		})
	}
	return outcome
}

// runGenerator calls the external generator and stores its result. The
// dispute snapshot d is what the generator saw; the result is only stored
// if the locked row still has the same input revision.
//
// The timeout is enforced through genCtx, so a generator that ignores its
// context keeps the lease until it returns. Whatever it returns after the
// deadline is recorded as a timeout and never stored.
func (uc *DefaultDisputeUsecase) runGenerator(ctx context.Context, d *domain.Dispute) (domain.GenerationOutcome, error) {
	genCtx, cancel := context.WithTimeout(ctx, uc.cfg.Timeout)
	defer cancel()

	raw, err := uc.generator.Generate(genCtx, d.GenerationInput())
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(genCtx.Err(), context.DeadlineExceeded) {
			return domain.GenerationTimedOut, fmt.Errorf("%w: %v", domain.ErrGenerationTimeout, err)
		}
		return domain.GenerationErrored, fmt.Errorf("%w: %v", domain.ErrGenerationFailed, err)
	}
	if genCtx.Err() != nil {
		return domain.GenerationTimedOut, domain.ErrGenerationTimeout
	}

	proposal, err := domain.ParseProposal(raw)
	if err != nil {
		return domain.GenerationMalformed, err
	}

	stored, err := uc.storeProposal(ctx, d.ID, d.InputRevision, proposal)
	if err != nil {
		return domain.GenerationErrored, fmt.Errorf("%w: %v", domain.ErrGenerationFailed, err)
	}
	if !stored {
		return domain.GenerationStale, nil
	}
	return domain.GenerationSucceeded, nil
}

// storeProposal applies "generation completed" in one transaction. It
// reports false when the dispute moved on while the generator was running.
func (uc *DefaultDisputeUsecase) storeProposal(ctx context.Context, disputeID string, revision int64, proposal *domain.Proposal) (bool, error) {
	txRepo, err := uc.disputeRepo.BeginTx(context.WithoutCancel(ctx))
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	var committed bool
	defer func() {
		if !committed {
			if rollbackErr := txRepo.Rollback(); rollbackErr != nil {
				uc.logger.Error("failed to rollback transaction",
					zap.String("dispute_id", disputeID),
					zap.Error(rollbackErr),
				)
			}
		}
	}()

	d, err := txRepo.GetDisputeForUpdate(disputeID)
	if err != nil {
		return false, err
	}
	if !d.IsGenerationEligible() || d.InputRevision != revision {
		return false, nil
	}

	d.CompleteGeneration(proposal, uc.now())
	if err := txRepo.SaveDispute(d); err != nil {
		return false, fmt.Errorf("failed to save proposal: %w", err)
	}
	if err := txRepo.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit: %w", err)
	}
	committed = true

	uc.metrics.RecordEvent(string(domain.EventProposalGenerated), string(d.Status))
	uc.publishNegotiationEvent(domain.NegotiationEvent{
		Type:              domain.EventProposalGenerated,
		DisputeID:         d.ID,
		NegotiationStatus: d.Status,
		NeedsReaction:     d.PartiesNeedingReaction(),
		OccurredAt:        uc.now(),
	})
	return true, nil
}
