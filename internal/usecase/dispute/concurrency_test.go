package dispute

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/LavaJover/shvark-settlement-service/internal/domain"
	disputedto "github.com/LavaJover/shvark-settlement-service/internal/usecase/dto/dispute"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/sync/errgroup"
)

// Two service instances share one store: singleflight cannot help across
// them, so only the lease keeps generation to a single call.
func TestConcurrentTriggersGenerateOncePerWindow(t *testing.T) {
	h := newHarness(t, GenerationConfig{})
	other, err := NewDefaultDisputeUsecase(h.repo, h.gen, &memoryLease{repo: h.repo, staleAfter: time.Minute}, h.pub, nil, zaptest.NewLogger(t), GenerationConfig{Timeout: 5 * time.Second})
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = other.Shutdown(ctx)
	})

	id := h.openDispute(t)
	block := make(chan struct{})
	h.gen.mu.Lock()
	h.gen.block = block
	h.gen.mu.Unlock()

	ctx := context.Background()
	var g errgroup.Group
	g.Go(func() error {
		_, err := h.uc.SubmitPosition(ctx, &disputedto.SubmitPositionInput{DisputeID: id, PartyID: alice, Description: "a"})
		return err
	})
	g.Go(func() error {
		_, err := other.SubmitPosition(ctx, &disputedto.SubmitPositionInput{DisputeID: id, PartyID: bob, Description: "b"})
		return err
	})
	require.NoError(t, g.Wait())

	// hammer both instances with retries while the first generation is held
	var retries errgroup.Group
	for i := 0; i < 20; i++ {
		uc := h.uc
		if i%2 == 1 {
			uc = other
		}
		retries.Go(func() error {
			err := uc.RetryGeneration(ctx, id, alice)
			if err != nil && !errors.Is(err, domain.ErrNotEligible) {
				return err
			}
			return nil
		})
	}
	require.NoError(t, retries.Wait())

	require.Eventually(t, func() bool { return h.gen.calls.Load() >= 1 }, time.Second, 5*time.Millisecond)
	close(block)
	h.wait()
	other.wg.Wait()

	assert.EqualValues(t, 1, h.gen.calls.Load())
	d, err := h.repo.get(id)
	require.NoError(t, err)
	require.NotNil(t, d.Proposal)
	assert.Equal(t, []domain.GenerationOutcome{domain.GenerationSucceeded}, h.outcomes())
}
