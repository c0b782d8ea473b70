// Package workflow contains the stage graph and the event-driven executor
// that drives a run from keyword generation to the final artifact.
package workflow

import (
	"fmt"

	"github.com/postpilot/postpilot/pkg/models"
	"github.com/postpilot/postpilot/pkg/stages"
)

// Router picks the next stage for a conditional edge based on the state after
// the owning stage ran.
type Router func(state *models.WorkflowState) string

// Graph is the static wiring of a pipeline: stages, directed edges, AND-join
// fan-ins, conditional routers, and the terminal set.
type Graph struct {
	stages    map[string]stages.Stage
	edges     map[string][]string
	joins     map[string]int
	routers   map[string]Router
	terminals map[string]bool
	entry     string
}

func NewGraph() *Graph {
	return &Graph{
		stages:    make(map[string]stages.Stage),
		edges:     make(map[string][]string),
		joins:     make(map[string]int),
		routers:   make(map[string]Router),
		terminals: make(map[string]bool),
	}
}

func (g *Graph) AddStage(stage stages.Stage) *Graph {
	g.stages[stage.ID()] = stage

	return g
}

// AddEdge wires an unconditional edge from one stage to another.
func (g *Graph) AddEdge(from, to string) *Graph {
	g.edges[from] = append(g.edges[from], to)

	return g
}

// AddJoin wires every listed predecessor to the join stage and records the
// fan-in size. The join activates only after all predecessors complete.
func (g *Graph) AddJoin(to string, froms ...string) *Graph {
	for _, from := range froms {
		g.edges[from] = append(g.edges[from], to)
	}

	g.joins[to] = len(froms)

	return g
}

// AddConditionalEdges routes the successor of a stage through a predicate
// instead of static edges.
func (g *Graph) AddConditionalEdges(from string, router Router) *Graph {
	g.routers[from] = router

	return g
}

// AddTerminal marks a stage as a run endpoint.
func (g *Graph) AddTerminal(id string) *Graph {
	g.terminals[id] = true

	return g
}

func (g *Graph) SetEntryPoint(id string) *Graph {
	g.entry = id

	return g
}

func (g *Graph) Entry() string {
	return g.entry
}

// Stage returns the registered stage for an ID.
func (g *Graph) Stage(id string) (stages.Stage, bool) {
	stage, ok := g.stages[id]

	return stage, ok
}

// Successors returns the static successors of a stage, or the router when the
// stage has a conditional edge.
func (g *Graph) Successors(id string) ([]string, Router) {
	if router, ok := g.routers[id]; ok {
		return nil, router
	}

	return g.edges[id], nil
}

// JoinSize returns the fan-in size of a join stage, or 0 for ordinary stages.
func (g *Graph) JoinSize(id string) int {
	return g.joins[id]
}

func (g *Graph) IsTerminal(id string) bool {
	return g.terminals[id]
}

// Validate checks that the wiring is internally consistent before any run.
func (g *Graph) Validate() error {
	if g.entry == "" {
		return fmt.Errorf("graph has no entry point")
	}

	if _, ok := g.stages[g.entry]; !ok {
		return fmt.Errorf("entry stage %q is not registered", g.entry)
	}

	for from, tos := range g.edges {
		if _, ok := g.stages[from]; !ok {
			return fmt.Errorf("edge source %q is not registered", from)
		}

		for _, to := range tos {
			if _, ok := g.stages[to]; !ok {
				return fmt.Errorf("edge target %q is not registered", to)
			}
		}
	}

	for from := range g.routers {
		if _, ok := g.stages[from]; !ok {
			return fmt.Errorf("conditional source %q is not registered", from)
		}
	}

	for join, size := range g.joins {
		if size < 2 {
			return fmt.Errorf("join %q has fan-in %d, need at least 2", join, size)
		}
	}

	if len(g.terminals) == 0 {
		return fmt.Errorf("graph has no terminal stage")
	}

	for terminal := range g.terminals {
		if _, ok := g.stages[terminal]; !ok {
			return fmt.Errorf("terminal stage %q is not registered", terminal)
		}
	}

	return nil
}
