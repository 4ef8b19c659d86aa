package application

import (
	"context"
	"log"
	"sync/atomic"
	"time"

	"sensor-cloud/internal/observability/metrics"
)

const (
	defaultInterval     = time.Minute
	defaultCycleTimeout = 50 * time.Second
)

// Scheduler drives one evaluation cycle per tick. Cycles never overlap: a
// tick arriving while the previous cycle still runs is skipped entirely,
// which is the mutual-exclusion guard for the shared tracker and debouncer
// state.
type Scheduler struct {
	service      *Service
	interval     time.Duration
	cycleTimeout time.Duration
	running      atomic.Bool
	logger       *log.Logger
}

// SchedulerOption customizes the scheduler.
type SchedulerOption func(*Scheduler)

// WithInterval overrides the tick interval.
func WithInterval(interval time.Duration) SchedulerOption {
	return func(s *Scheduler) {
		if interval > 0 {
			s.interval = interval
		}
	}
}

// WithCycleTimeout bounds how long a single cycle may run. In-flight
// branches are abandoned when the budget is exceeded; an abandoned send
// never updates the debouncer.
func WithCycleTimeout(timeout time.Duration) SchedulerOption {
	return func(s *Scheduler) {
		if timeout > 0 {
			s.cycleTimeout = timeout
		}
	}
}

// NewScheduler constructs a Scheduler.
func NewScheduler(service *Service, logger *log.Logger, opts ...SchedulerOption) *Scheduler {
	scheduler := &Scheduler{
		service:      service,
		interval:     defaultInterval,
		cycleTimeout: defaultCycleTimeout,
		logger:       logger,
	}
	for _, opt := range opts {
		opt(scheduler)
	}
	return scheduler
}

// Start begins the scheduler loop and blocks until the context is done.
func (s *Scheduler) Start(ctx context.Context) {
	if s == nil || s.service == nil {
		return
	}
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.tick(ctx, now.UTC())
		}
	}
}

func (s *Scheduler) tick(ctx context.Context, now time.Time) {
	if !s.running.CompareAndSwap(false, true) {
		metrics.IncCycle("skipped")
		if s.logger != nil {
			s.logger.Printf("evaluation cycle still running, skipping tick at %s", now.Format(time.RFC3339))
		}
		return
	}
	go func() {
		defer s.running.Store(false)

		cycleCtx, cancel := context.WithTimeout(ctx, s.cycleTimeout)
		defer cancel()

		started := time.Now()
		err := s.service.RunCycle(cycleCtx, now)
		elapsed := time.Since(started)
		if err != nil {
			metrics.IncCycle("error")
			metrics.ObserveCycleDuration(elapsed.Seconds(), "error")
			if s.logger != nil {
				s.logger.Printf("evaluation cycle error: %v", err)
			}
			return
		}
		metrics.IncCycle("success")
		metrics.ObserveCycleDuration(elapsed.Seconds(), "success")
	}()
}
