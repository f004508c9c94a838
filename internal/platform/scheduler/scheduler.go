// Package scheduler runs periodic maintenance jobs on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Job is a unit of periodic work. Returned errors are logged, never retried.
type Job func(ctx context.Context) error

// Scheduler manages all cron tasks.
type Scheduler struct {
	cron *cron.Cron
	ctx  context.Context
}

// NewScheduler creates a Scheduler that accepts six-field (seconds) specs.
func NewScheduler(ctx context.Context) *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithSeconds()),
		ctx:  ctx,
	}
}

// Register adds job under name with the given cron spec.
func (s *Scheduler) Register(name, spec string, job Job) error {
	if _, err := s.cron.AddFunc(spec, s.wrap(name, job)); err != nil {
		return fmt.Errorf("register %s task: %w", name, err)
	}
	slog.Info("scheduled task registered", "task", name, "spec", spec)
	return nil
}

// Len returns the number of registered tasks.
func (s *Scheduler) Len() int {
	return len(s.cron.Entries())
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.cron.Start()
	slog.Info("scheduler started")
}

// Stop stops the scheduler and waits for running tasks to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	slog.Info("scheduler stopped")
}

func (s *Scheduler) wrap(name string, job Job) func() {
	return func() {
		start := time.Now()
		if err := job(s.ctx); err != nil {
			slog.Error("scheduled task failed", "task", name, "error", err)
			return
		}
		slog.Info("scheduled task done", "task", name, "elapsed", time.Since(start))
	}
}
