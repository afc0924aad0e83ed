package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubSweeper struct {
	calls   int32
	expired int
	err     error
	sawDL   atomic.Bool
}

func (s *stubSweeper) AutoCancelPendingOrders(ctx context.Context) (int, error) {
	atomic.AddInt32(&s.calls, 1)
	if _, ok := ctx.Deadline(); ok {
		s.sawDL.Store(true)
	}
	return s.expired, s.err
}

func TestNewScheduler_RejectsInvalidSpec(t *testing.T) {
	t.Parallel()

	_, err := NewScheduler(&stubSweeper{}, "not a cron spec", time.Second, zap.NewNop())
	require.Error(t, err)
}

func TestNewScheduler_RejectsFiveFieldSpec(t *testing.T) {
	t.Parallel()

	// Seconds are required.
	_, err := NewScheduler(&stubSweeper{}, "* * * * *", time.Second, zap.NewNop())
	require.Error(t, err)
}

func TestSweepPendingOrders_CallsSweeperWithDeadline(t *testing.T) {
	t.Parallel()

	sweeper := &stubSweeper{expired: 3}
	s, err := NewScheduler(sweeper, "0 * * * * *", time.Second, zap.NewNop())
	require.NoError(t, err)

	s.sweepPendingOrders()

	assert.Equal(t, int32(1), atomic.LoadInt32(&sweeper.calls))
	assert.True(t, sweeper.sawDL.Load())
}

func TestSweepPendingOrders_SweeperErrorIsSwallowed(t *testing.T) {
	t.Parallel()

	sweeper := &stubSweeper{err: errors.New("database down")}
	s, err := NewScheduler(sweeper, "0 * * * * *", 0, zap.NewNop())
	require.NoError(t, err)

	assert.NotPanics(t, s.sweepPendingOrders)
	assert.Equal(t, int32(1), atomic.LoadInt32(&sweeper.calls))
	assert.False(t, sweeper.sawDL.Load())
}

func TestScheduler_RunsSweepOnSchedule(t *testing.T) {
	t.Parallel()

	sweeper := &stubSweeper{}
	s, err := NewScheduler(sweeper, "* * * * * *", time.Second, zap.NewNop())
	require.NoError(t, err)

	s.Start()
	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&sweeper.calls) > 0
	}, 3*time.Second, 50*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
}
