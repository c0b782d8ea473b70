// Package scheduler runs the pipeline on a cron schedule for creators who
// want a steady stream of content ideas.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Job is one scheduled unit of work.
type Job func(ctx context.Context) error

const jobTimeout = 30 * time.Minute

// Scheduler wraps a cron runner with named jobs and per-run timeouts.
type Scheduler struct {
	cron   *cron.Cron
	jobs   map[string]cron.EntryID
	logger *slog.Logger
}

func New(logger *slog.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		jobs:   make(map[string]cron.EntryID),
		logger: logger,
	}
}

// AddJob registers a job under a cron expression like "0 7 * * *".
func (s *Scheduler) AddJob(name, expression string, job Job) error {
	entryID, err := s.cron.AddFunc(expression, func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()

		s.logger.Info("Starting scheduled job", "job", name)
		started := time.Now()

		if err := job(ctx); err != nil {
			s.logger.Error("Scheduled job failed", "job", name, "error", err)

			return
		}

		s.logger.Info("Scheduled job completed", "job", name, "duration", time.Since(started))
	})
	if err != nil {
		return fmt.Errorf("schedule job %s: %w", name, err)
	}

	s.jobs[name] = entryID
	s.logger.Info("Scheduled job", "job", name, "expression", expression)

	return nil
}

// RemoveJob unschedules a job by name.
func (s *Scheduler) RemoveJob(name string) {
	if entryID, ok := s.jobs[name]; ok {
		s.cron.Remove(entryID)
		delete(s.jobs, name)
	}
}

// Start begins running scheduled jobs.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts scheduling and returns a context that closes when in-flight
// jobs finish.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}
