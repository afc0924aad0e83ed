// Package scheduler runs the periodic background jobs of the rental backend.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// PendingOrderSweeper expires unpaid orders.
type PendingOrderSweeper interface {
	AutoCancelPendingOrders(ctx context.Context) (int, error)
}

// Scheduler manages cron job scheduling.
type Scheduler struct {
	cron    *cron.Cron
	sweeper PendingOrderSweeper
	timeout time.Duration
	logger  *zap.Logger
}

// NewScheduler creates a scheduler that runs the pending order sweep on
// sweepSpec, a six-field cron expression with seconds, in UTC. A sweep still
// running when the next one is due causes that tick to be skipped.
func NewScheduler(sweeper PendingOrderSweeper, sweepSpec string, timeout time.Duration, logger *zap.Logger) (*Scheduler, error) {
	cronLogger := cron.PrintfLogger(zap.NewStdLog(logger.Named("cron")))
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithSeconds(),
		cron.WithChain(
			cron.Recover(cronLogger),
			cron.SkipIfStillRunning(cronLogger),
		),
	)

	s := &Scheduler{
		cron:    c,
		sweeper: sweeper,
		timeout: timeout,
		logger:  logger,
	}

	if _, err := s.cron.AddFunc(sweepSpec, s.sweepPendingOrders); err != nil {
		return nil, fmt.Errorf("register pending order sweep %q: %w", sweepSpec, err)
	}
	return s, nil
}

// Start begins the cron scheduler.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("scheduler started", zap.Int("jobs", len(s.cron.Entries())))
}

// Stop stops scheduling and waits for running jobs to finish or ctx to end.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.logger.Info("scheduler stopped")
	case <-ctx.Done():
		s.logger.Warn("scheduler stop timed out with jobs still running")
	}
}

func (s *Scheduler) sweepPendingOrders() {
	ctx := context.Background()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	expired, err := s.sweeper.AutoCancelPendingOrders(ctx)
	if err != nil {
		s.logger.Error("pending order sweep failed", zap.Error(err))
		return
	}
	s.logger.Debug("pending order sweep finished",
		zap.Int("expired", expired),
		zap.Duration("took", time.Since(start)),
	)
}
