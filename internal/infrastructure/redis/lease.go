package redis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var releaseScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`)

// GenerationLease is a per-dispute SET NX lease. The key expires after ttl,
// so a crashed holder never blocks a dispute for longer than that.
type GenerationLease struct {
	rdb       *redis.Client
	keyPrefix string
	ttl       time.Duration

	mu    sync.Mutex
	owned map[string]string
}

func NewGenerationLease(rdb *redis.Client, keyPrefix string, ttl time.Duration) *GenerationLease {
	if keyPrefix == "" {
		keyPrefix = "settlement:generation:"
	}
	return &GenerationLease{
		rdb:       rdb,
		keyPrefix: keyPrefix,
		ttl:       ttl,
		owned:     make(map[string]string),
	}
}

func (l *GenerationLease) TTL() time.Duration {
	return l.ttl
}

func (l *GenerationLease) Acquire(ctx context.Context, disputeID string) (bool, error) {
	value := uuid.New().String()
	ok, err := l.rdb.SetNX(ctx, l.keyPrefix+disputeID, value, l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire generation lease: %w", err)
	}
	if !ok {
		return false, nil
	}
	l.mu.Lock()
	l.owned[disputeID] = value
	l.mu.Unlock()
	return true, nil
}

// Release deletes the key only if it still carries the value written by
// Acquire; an expired lease taken over by someone else is left alone.
func (l *GenerationLease) Release(ctx context.Context, disputeID string) error {
	l.mu.Lock()
	value, ok := l.owned[disputeID]
	delete(l.owned, disputeID)
	l.mu.Unlock()
	if !ok {
		return nil
	}
	if err := releaseScript.Run(ctx, l.rdb, []string{l.keyPrefix + disputeID}, value).Err(); err != nil {
		return fmt.Errorf("failed to release generation lease: %w", err)
	}
	return nil
}

func NewClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return rdb, nil
}
