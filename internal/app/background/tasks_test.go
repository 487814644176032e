package background

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"
)

type countingReaper struct {
	calls atomic.Int32
	err   error
}

func (r *countingReaper) ReleaseStaleGenerationLeases(ctx context.Context) (int64, error) {
	r.calls.Add(1)
	return 0, r.err
}

type blockingConsumer struct {
	started atomic.Int32
}

func (c *blockingConsumer) Run(ctx context.Context) error {
	c.started.Add(1)
	<-ctx.Done()
	return ctx.Err()
}

func TestReaperRunsOnTicker(t *testing.T) {
	reaper := &countingReaper{err: errors.New("db down")}
	bt := NewBackgroundTasks(reaper, 10*time.Millisecond, zaptest.NewLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	bt.StartAll(ctx)

	assert.Eventually(t, func() bool { return reaper.calls.Load() >= 3 }, 2*time.Second, 5*time.Millisecond,
		"reaper keeps running after errors")
	cancel()

	time.Sleep(50 * time.Millisecond)
	stopped := reaper.calls.Load()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, stopped, reaper.calls.Load(), "reaper stops with the context")
}

func TestConsumersStartWithTasks(t *testing.T) {
	consumer := &blockingConsumer{}
	bt := NewBackgroundTasks(&countingReaper{}, time.Hour, zaptest.NewLogger(t), consumer)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	bt.StartAll(ctx)

	assert.Eventually(t, func() bool { return consumer.started.Load() == 1 }, time.Second, 5*time.Millisecond)
}
