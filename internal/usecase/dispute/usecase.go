package dispute

import (
	"context"
	"sync"
	"time"

	"github.com/LavaJover/shvark-settlement-service/internal/domain"
	"github.com/LavaJover/shvark-settlement-service/internal/infrastructure/metrics"
	disputedto "github.com/LavaJover/shvark-settlement-service/internal/usecase/dto/dispute"
	nanoid "github.com/jaevor/go-nanoid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

type DisputeUsecase interface {
	CreateDispute(ctx context.Context, input *disputedto.CreateDisputeInput) (*disputedto.DisputeOutput, error)
	SubmitPosition(ctx context.Context, input *disputedto.SubmitPositionInput) (*disputedto.DisputeOutput, error)
	AcceptProposal(ctx context.Context, disputeID, partyID string) (*disputedto.DisputeOutput, error)
	RequestModification(ctx context.Context, input *disputedto.RequestModificationInput) (*disputedto.DisputeOutput, error)
	RetryGeneration(ctx context.Context, disputeID, partyID string) error

	GetDispute(ctx context.Context, disputeID, partyID string) (*disputedto.DisputeOutput, error)
	GetPartyDisputes(ctx context.Context, input *disputedto.GetPartyDisputesInput) (*disputedto.GetPartyDisputesOutput, error)

	RegisterParty(ctx context.Context, input *disputedto.RegisterPartyInput) error
	ReleaseStaleGenerationLeases(ctx context.Context) (int64, error)
}

type GenerationConfig struct {
	Timeout    time.Duration
	StaleAfter time.Duration
}

type DefaultDisputeUsecase struct {
	disputeRepo domain.DisputeRepository
	generator   domain.ProposalGenerator
	lease       domain.GenerationLease
	publisher   domain.EventPublisher
	metrics     *metrics.NegotiationMetrics
	logger      *zap.Logger
	cfg         GenerationConfig

	now      func() time.Time
	newID    func() string
	newToken func() string

	inflight singleflight.Group
	mu       sync.Mutex
	closed   bool
	wg       sync.WaitGroup
	baseCtx  context.Context
	cancel   context.CancelFunc
}

func NewDefaultDisputeUsecase(
	disputeRepo domain.DisputeRepository,
	generator domain.ProposalGenerator,
	lease domain.GenerationLease,
	publisher domain.EventPublisher,
	negotiationMetrics *metrics.NegotiationMetrics,
	logger *zap.Logger,
	cfg GenerationConfig,
) (*DefaultDisputeUsecase, error) {
	idGenerator, err := nanoid.Standard(15)
	if err != nil {
		return nil, err
	}
	tokenGenerator, err := nanoid.Standard(32)
	if err != nil {
		return nil, err
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Minute
	}
	if cfg.StaleAfter <= cfg.Timeout {
		cfg.StaleAfter = 2 * cfg.Timeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	baseCtx, cancel := context.WithCancel(context.Background())
	return &DefaultDisputeUsecase{
		disputeRepo: disputeRepo,
		generator:   generator,
		lease:       lease,
		publisher:   publisher,
		metrics:     negotiationMetrics,
		logger:      logger.Named("dispute"),
		cfg:         cfg,
		now:         func() time.Time { return time.Now().UTC() },
		newID:       idGenerator,
		newToken:    tokenGenerator,
		baseCtx:     baseCtx,
		cancel:      cancel,
	}, nil
}

// StaleAfter is the age after which a generation lease counts as abandoned.
func (uc *DefaultDisputeUsecase) StaleAfter() time.Duration {
	return uc.cfg.StaleAfter
}

// Shutdown stops accepting background work, cancels in-flight generations
// and waits for them to unwind or for ctx to expire.
func (uc *DefaultDisputeUsecase) Shutdown(ctx context.Context) error {
	uc.mu.Lock()
	uc.closed = true
	uc.mu.Unlock()
	uc.cancel()
	done := make(chan struct{})
	go func() {
		uc.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// goBackground runs fn on a tracked goroutine bound to the service
// lifetime. It reports false once Shutdown has been called.
func (uc *DefaultDisputeUsecase) goBackground(fn func(ctx context.Context)) bool {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	if uc.closed {
		return false
	}
	uc.wg.Add(1)
	go func() {
		defer uc.wg.Done()
		fn(uc.baseCtx)
	}()
	return true
}

func (uc *DefaultDisputeUsecase) output(d *domain.Dispute, partyID string) (*disputedto.DisputeOutput, error) {
	view, err := d.VisibleTo(partyID)
	if err != nil {
		return nil, err
	}
	return &disputedto.DisputeOutput{
		Dispute:           view,
		AcceptedBy:        d.AcceptedBy(),
		GenerationPending: d.IsGenerationEligible(),
	}, nil
}
