// Package persistence defines run-state checkpointing. Every stage completion
// writes the state snapshot so a run can be inspected or handed off across
// processes.
package persistence

import (
	"context"
	"errors"
)

// ErrNotFound indicates no checkpoint exists for a run.
var ErrNotFound = errors.New("checkpoint not found")

// Checkpointer stores and retrieves run-state snapshots keyed by run ID.
type Checkpointer interface {
	Save(ctx context.Context, runID string, snapshot map[string]any) error
	Load(ctx context.Context, runID string) (map[string]any, error)
	Close() error
}

// Noop discards checkpoints, used when no data path is configured.
type Noop struct{}

func (Noop) Save(_ context.Context, _ string, _ map[string]any) error {
	return nil
}

func (Noop) Load(_ context.Context, _ string) (map[string]any, error) {
	return nil, ErrNotFound
}

func (Noop) Close() error {
	return nil
}
