package setup

import (
	"context"
	"testing"
	"time"

	"github.com/LavaJover/shvark-settlement-service/internal/config"
	"github.com/LavaJover/shvark-settlement-service/internal/infrastructure/postgres/repository"
	redislease "github.com/LavaJover/shvark-settlement-service/internal/infrastructure/redis"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// A stale threshold below the generation timeout would let a second worker
// take over a lease whose generator call is still running.
func TestNewGenerationLeaseRaisesStaleThreshold(t *testing.T) {
	misconfigured := config.Generation{Timeout: 5 * time.Minute, StaleAfter: time.Minute}

	t.Run("postgres", func(t *testing.T) {
		misconfigured.LockBackend = "postgres"
		lease, err := newGenerationLease(misconfigured, nil, nil)
		require.NoError(t, err)
		dbLease, ok := lease.(*repository.GenerationLease)
		require.True(t, ok)
		assert.Equal(t, 10*time.Minute, dbLease.StaleAfter())
	})

	t.Run("redis", func(t *testing.T) {
		rdb := goredis.NewClient(&goredis.Options{Addr: "127.0.0.1:0"})
		t.Cleanup(func() { _ = rdb.Close() })

		misconfigured.LockBackend = "Redis"
		lease, err := newGenerationLease(misconfigured, nil, rdb)
		require.NoError(t, err)
		redisLease, ok := lease.(*redislease.GenerationLease)
		require.True(t, ok)
		assert.Equal(t, 10*time.Minute, redisLease.TTL())
	})
}

func TestNewGenerationLeaseUnknownBackend(t *testing.T) {
	_, err := newGenerationLease(config.Generation{LockBackend: "etcd"}, nil, nil)
	assert.Error(t, err)
}

func TestInitializeUseCasesSharesStaleThreshold(t *testing.T) {
	cfg := &config.SettlementConfig{
		Generation: config.Generation{Timeout: 5 * time.Minute, StaleAfter: time.Minute},
	}
	lease, err := newGenerationLease(cfg.Generation, nil, nil)
	require.NoError(t, err)

	ucs, err := InitializeUseCases(&Dependencies{
		Config:       cfg,
		Lease:        lease,
		Repositories: &Repositories{},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = ucs.DisputeUsecase.Shutdown(context.Background()) })
	assert.Equal(t, 10*time.Minute, ucs.DisputeUsecase.StaleAfter())
	assert.Equal(t, lease.(*repository.GenerationLease).StaleAfter(), ucs.DisputeUsecase.StaleAfter())
}
