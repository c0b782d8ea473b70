package scheduler

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestScheduler() *Scheduler {
	return New(slog.New(slog.DiscardHandler))
}

func TestAddJobAcceptsValidExpression(t *testing.T) {
	s := newTestScheduler()

	err := s.AddJob("daily-ideas", "0 7 * * *", func(ctx context.Context) error {
		return nil
	})
	require.NoError(t, err)

	assert.Contains(t, s.jobs, "daily-ideas")
}

func TestAddJobRejectsInvalidExpression(t *testing.T) {
	s := newTestScheduler()

	err := s.AddJob("broken", "not a cron line", func(ctx context.Context) error {
		return nil
	})
	assert.Error(t, err)
}

func TestRemoveJob(t *testing.T) {
	s := newTestScheduler()

	require.NoError(t, s.AddJob("daily-ideas", "@hourly", func(ctx context.Context) error {
		return nil
	}))

	s.RemoveJob("daily-ideas")
	assert.NotContains(t, s.jobs, "daily-ideas")

	// Removing twice is a no-op.
	s.RemoveJob("daily-ideas")
}

func TestStartAndStop(t *testing.T) {
	s := newTestScheduler()

	s.Start()

	done := s.Stop()
	<-done.Done()
}
