// Package scheduler owns the two timer-driven background jobs: the sweeper
// that expires stale waitlist entries and the nightly aggregator that rolls
// up the prior day. Both go through the same engine operations as interactive
// callers; failures are logged per run and never stop the loops.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"waitlist-backend/config"
	"waitlist-backend/internal/engine"
)

// Scheduler runs the sweeper and aggregator loops until Stop or context
// cancellation.
type Scheduler struct {
	cfg    config.SchedulerConfig
	engine *engine.Engine
	log    *logrus.Logger
	now    func() time.Time

	stopOnce sync.Once
	stop     chan struct{}
	done     sync.WaitGroup
}

// New creates a scheduler for the given engine.
func New(cfg config.SchedulerConfig, eng *engine.Engine, log *logrus.Logger) *Scheduler {
	return &Scheduler{
		cfg:    cfg,
		engine: eng,
		log:    log,
		now:    func() time.Time { return time.Now().UTC() },
		stop:   make(chan struct{}),
	}
}

// SetClock replaces the scheduler clock, for deterministic tests.
func (s *Scheduler) SetClock(now func() time.Time) {
	s.now = now
}

// Start launches the sweeper and aggregator goroutines. It is a no-op when
// the scheduler is disabled in configuration.
func (s *Scheduler) Start(ctx context.Context) {
	if !s.cfg.Enabled {
		s.log.Info("scheduler is disabled, background jobs will not run")
		return
	}

	s.done.Add(2)
	go s.runSweeper(ctx)
	go s.runAggregator(ctx)
	s.log.Infof("scheduler started: sweep every %s, aggregate daily at %02d:%02d",
		s.cfg.SweepInterval, s.cfg.AggregateHour, s.cfg.AggregateMinute)
}

// Stop signals both loops and waits for them to exit.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
	s.done.Wait()
}

func (s *Scheduler) runSweeper(ctx context.Context) {
	defer s.done.Done()

	timer := time.NewTimer(s.cfg.SweepInterval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stop:
			return
		case <-timer.C:
			s.RunSweepOnce(ctx)
			timer.Reset(s.cfg.SweepInterval)
		}
	}
}

func (s *Scheduler) runAggregator(ctx context.Context) {
	defer s.done.Done()

	for {
		wait := s.untilNextAggregation()
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-s.stop:
			timer.Stop()
			return
		case <-timer.C:
			s.RunAggregateOnce(ctx)
		}
	}
}

// untilNextAggregation returns the duration until the next configured
// aggregation time (a fixed offset past midnight).
func (s *Scheduler) untilNextAggregation() time.Duration {
	now := s.now()
	next := time.Date(now.Year(), now.Month(), now.Day(),
		s.cfg.AggregateHour, s.cfg.AggregateMinute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next.Sub(now)
}

// RunSweepOnce executes a single sweep cycle. Exposed so tests can drive the
// sweeper without timers.
func (s *Scheduler) RunSweepOnce(ctx context.Context) {
	result, err := s.engine.CleanupExpiredEntries(ctx)
	if err != nil {
		s.log.Errorf("sweep cycle failed: %v", err)
		return
	}
	s.log.Infof("sweep cycle finished: %d expired (%d waiting, %d called)",
		result.Total, result.ExpiredWaiting, result.ExpiredCalled)
}

// RunAggregateOnce aggregates yesterday's stats and then applies the
// retention sweep. Exposed so tests can drive the aggregator without timers.
func (s *Scheduler) RunAggregateOnce(ctx context.Context) {
	yesterday := s.now().AddDate(0, 0, -1)
	if _, err := s.engine.AggregateDailyStats(ctx, yesterday); err != nil {
		s.log.Errorf("daily aggregation failed: %v", err)
	}

	deleted, err := s.engine.DeleteOldFinishedEntries(ctx)
	if err != nil {
		s.log.Errorf("retention sweep failed: %v", err)
		return
	}
	s.log.Infof("aggregation cycle finished: %d old entries deleted", deleted)
}
