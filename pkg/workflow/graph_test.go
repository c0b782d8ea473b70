package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/postpilot/postpilot/pkg/testutil"
)

func TestBuildGraphValidates(t *testing.T) {
	graph := BuildGraph(Dependencies{
		LLM:    &testutil.StubLLM{Default: "x"},
		Source: &testutil.StubSource{},
	})

	require.NoError(t, graph.Validate())
	assert.Equal(t, "keyword_generation", graph.Entry())
	assert.True(t, graph.IsTerminal("content_generation"))
	assert.True(t, graph.IsTerminal("end_no_posts"))
	assert.Equal(t, 2, graph.JoinSize("combine_topic_results"))
	assert.Equal(t, 2, graph.JoinSize("combine_post_results"))
}

func TestGraphValidateRejectsMissingEntry(t *testing.T) {
	graph := NewGraph()

	assert.Error(t, graph.Validate())
}

func TestGraphValidateRejectsDanglingEdge(t *testing.T) {
	deps := Dependencies{LLM: &testutil.StubLLM{Default: "x"}, Source: &testutil.StubSource{}}

	graph := BuildGraph(deps)
	graph.AddEdge("content_generation", "nowhere")

	assert.Error(t, graph.Validate())
}

func TestCoordinatorFiresOnLastArrival(t *testing.T) {
	coordinator := NewCoordinator()

	assert.False(t, coordinator.Arrive("run-1", "join", "a", 2))
	assert.True(t, coordinator.Arrive("run-1", "join", "b", 2))
}

func TestCoordinatorIgnoresDuplicateArrivals(t *testing.T) {
	coordinator := NewCoordinator()

	assert.False(t, coordinator.Arrive("run-1", "join", "a", 2))
	assert.False(t, coordinator.Arrive("run-1", "join", "a", 2))
	assert.True(t, coordinator.Arrive("run-1", "join", "b", 2))
}

func TestCoordinatorIsolatesRuns(t *testing.T) {
	coordinator := NewCoordinator()

	assert.False(t, coordinator.Arrive("run-1", "join", "a", 2))
	assert.False(t, coordinator.Arrive("run-2", "join", "b", 2))
	assert.True(t, coordinator.Arrive("run-1", "join", "b", 2))
	assert.True(t, coordinator.Arrive("run-2", "join", "a", 2))
}

func TestCoordinatorForget(t *testing.T) {
	coordinator := NewCoordinator()

	assert.False(t, coordinator.Arrive("run-1", "join", "a", 2))
	coordinator.Forget("run-1")

	// After forgetting, the join needs both arrivals again.
	assert.False(t, coordinator.Arrive("run-1", "join", "b", 2))
	assert.True(t, coordinator.Arrive("run-1", "join", "a", 2))
}
