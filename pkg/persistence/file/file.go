// Package file provides file-based checkpoint persistence. Each run snapshot
// lives at <root>/runs/<run-id>.json and is rewritten on every save.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/postpilot/postpilot/pkg/persistence"
)

// Checkpointer implements persistence.Checkpointer on the file system.
type Checkpointer struct {
	root string
	mu   sync.Mutex
}

func NewCheckpointer(root string) (*Checkpointer, error) {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	if err := os.MkdirAll(filepath.Join(cleanRoot, "runs"), 0o755); err != nil {
		return nil, fmt.Errorf("create checkpoint directory: %w", err)
	}

	return &Checkpointer{root: cleanRoot}, nil
}

func (c *Checkpointer) path(runID string) string {
	return filepath.Join(c.root, "runs", runID+".json")
}

// Save writes the snapshot atomically by renaming over the previous file.
func (c *Checkpointer) Save(_ context.Context, runID string, snapshot map[string]any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	payload, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal checkpoint for %s: %w", runID, err)
	}

	target := c.path(runID)
	tmp := target + ".tmp"

	if err := os.WriteFile(tmp, payload, 0o644); err != nil {
		return fmt.Errorf("write checkpoint for %s: %w", runID, err)
	}

	if err := os.Rename(tmp, target); err != nil {
		return fmt.Errorf("commit checkpoint for %s: %w", runID, err)
	}

	return nil
}

func (c *Checkpointer) Load(_ context.Context, runID string) (map[string]any, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	payload, err := os.ReadFile(c.path(runID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, persistence.ErrNotFound
		}

		return nil, fmt.Errorf("read checkpoint for %s: %w", runID, err)
	}

	var snapshot map[string]any

	if err := json.Unmarshal(payload, &snapshot); err != nil {
		return nil, fmt.Errorf("decode checkpoint for %s: %w", runID, err)
	}

	return snapshot, nil
}

func (c *Checkpointer) Close() error {
	return nil
}
