package workflow

import "sync"

// Coordinator tracks branch arrivals at AND-join stages. A join fires exactly
// once, when the last distinct predecessor of a run arrives; duplicate
// arrivals from the same predecessor are ignored.
type Coordinator struct {
	mu       sync.Mutex
	arrivals map[string]map[string]bool
}

func NewCoordinator() *Coordinator {
	return &Coordinator{
		arrivals: make(map[string]map[string]bool),
	}
}

// Arrive records that source completed for the given run and join. It returns
// true when this arrival completes the fan-in.
func (c *Coordinator) Arrive(runID, joinID, source string, required int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := runID + "/" + joinID

	seen, ok := c.arrivals[key]
	if !ok {
		seen = make(map[string]bool, required)
		c.arrivals[key] = seen
	}

	if seen[source] {
		return false
	}

	seen[source] = true

	if len(seen) < required {
		return false
	}

	delete(c.arrivals, key)

	return true
}

// Forget drops any pending arrivals for a run, used when a run finishes early.
func (c *Coordinator) Forget(runID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	prefix := runID + "/"
	for key := range c.arrivals {
		if len(key) > len(prefix) && key[:len(prefix)] == prefix {
			delete(c.arrivals, key)
		}
	}
}
