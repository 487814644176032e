package setup

import (
	"fmt"

	"github.com/LavaJover/shvark-settlement-service/internal/usecase/dispute"
)

type UseCases struct {
	DisputeUsecase *dispute.DefaultDisputeUsecase
}

func InitializeUseCases(deps *Dependencies) (*UseCases, error) {
	generation := deps.Config.Generation.Normalize()
	disputeUsecase, err := dispute.NewDefaultDisputeUsecase(
		deps.Repositories.DisputeRepo,
		deps.Generator,
		deps.Lease,
		deps.EventPublisher,
		deps.Metrics,
		deps.Logger,
		dispute.GenerationConfig{
			Timeout:    generation.Timeout,
			StaleAfter: generation.StaleAfter,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("dispute usecase: %w", err)
	}

	return &UseCases{
		DisputeUsecase: disputeUsecase,
	}, nil
}
