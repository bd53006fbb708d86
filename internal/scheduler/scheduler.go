package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Sweeper evicts expired state
type Sweeper interface {
	Sweep(ctx context.Context) error
}

// Scheduler runs the TTL sweep on a cron schedule
type Scheduler struct {
	cron    *cron.Cron
	sweeper Sweeper
	log     *logrus.Logger
	timeout time.Duration
}

// New registers the sweep on schedule. The schedule uses the standard
// five-field syntax or descriptors such as "@every 10m".
func New(schedule string, sweeper Sweeper, log *logrus.Logger) (*Scheduler, error) {
	s := &Scheduler{
		cron:    cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		sweeper: sweeper,
		log:     log,
		timeout: time.Minute,
	}
	if _, err := s.cron.AddFunc(schedule, s.RunOnce); err != nil {
		return nil, fmt.Errorf("invalid sweep schedule %q: %w", schedule, err)
	}
	return s, nil
}

// RunOnce performs a single sweep and logs its outcome
func (s *Scheduler) RunOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if err := s.sweeper.Sweep(ctx); err != nil {
		s.log.Errorf("Sweep failed: %v", err)
		return
	}
	s.log.Debug("Sweep finished")
}

// Start runs the schedule in the background
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Infof("Sweep scheduler started with %d job(s)", len(s.cron.Entries()))
}

// Stop halts the schedule and waits for a running sweep to finish or ctx to end
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
