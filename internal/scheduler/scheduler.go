// Package scheduler triggers background jobs on fixed intervals. Jobs are
// plain functions; they know nothing about the scheduler.
package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

type job struct {
	name          string
	interval      time.Duration
	fn            func(ctx context.Context)
	nonConcurrent bool
	running       atomic.Bool
}

type Option func(*job)

// NonConcurrent makes a tick skip while the previous run of the same job is
// still in flight. Required for the outbox dispatcher so two runs never race
// on the same rows.
func NonConcurrent() Option {
	return func(j *job) { j.nonConcurrent = true }
}

type Scheduler struct {
	jobs     []*job
	log      *zap.Logger
	inFlight sync.WaitGroup
}

func New(log *zap.Logger) *Scheduler {
	return &Scheduler{log: log}
}

func (s *Scheduler) Add(name string, interval time.Duration, fn func(ctx context.Context), opts ...Option) {
	j := &job{name: name, interval: interval, fn: fn}
	for _, opt := range opts {
		opt(j)
	}
	s.jobs = append(s.jobs, j)
}

// Run starts every job on its own ticker and blocks until ctx is cancelled.
// In-flight runs finish before Run returns.
func (s *Scheduler) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for _, j := range s.jobs {
		wg.Add(1)
		go func(j *job) {
			defer wg.Done()
			s.runJob(ctx, j)
		}(j)
	}
	wg.Wait()
	s.inFlight.Wait()
}

func (s *Scheduler) runJob(ctx context.Context, j *job) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	s.log.Info("scheduler: job started",
		zap.String("job", j.name),
		zap.Duration("interval", j.interval),
	)

	for {
		select {
		case <-ctx.Done():
			s.log.Info("scheduler: job stopped", zap.String("job", j.name))
			return
		case <-ticker.C:
			s.tick(ctx, j)
		}
	}
}

// tick launches one run of the job. Runs of one job may overlap unless the
// job was added with NonConcurrent, in which case a tick arriving while the
// previous run is still in flight is dropped.
func (s *Scheduler) tick(ctx context.Context, j *job) {
	if j.nonConcurrent && !j.running.CompareAndSwap(false, true) {
		s.log.Warn("scheduler: previous run still in flight, skipping tick", zap.String("job", j.name))
		return
	}

	s.inFlight.Add(1)
	go func() {
		defer s.inFlight.Done()
		if j.nonConcurrent {
			defer j.running.Store(false)
		}
		defer func() {
			if r := recover(); r != nil {
				s.log.Error("scheduler: job panicked", zap.String("job", j.name), zap.Any("panic", r))
			}
		}()
		j.fn(ctx)
	}()
}
