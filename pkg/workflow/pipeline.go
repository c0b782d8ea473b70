package workflow

import (
	"context"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"

	"github.com/postpilot/postpilot/pkg/channels/gochannel"
	"github.com/postpilot/postpilot/pkg/eventbus"
	"github.com/postpilot/postpilot/pkg/llm"
	"github.com/postpilot/postpilot/pkg/models"
	"github.com/postpilot/postpilot/pkg/persistence"
	"github.com/postpilot/postpilot/pkg/source"
	"github.com/postpilot/postpilot/pkg/stages"
)

// Dependencies carries everything the content-ideation graph needs.
type Dependencies struct {
	LLM    llm.Client
	Source source.ContentSource
	// Strategy picks the hitpoint for generation; nil means first option.
	Strategy stages.SelectionStrategy

	SourceLimit       int
	MaxSelectedPosts  int
	FilterConcurrency int

	Logger *slog.Logger
}

// BuildGraph wires the content-ideation pipeline: two fan-out/fan-in pairs
// (topic search, post retrieval) and the no-posts conditional after the post
// join.
func BuildGraph(deps Dependencies) *Graph {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	graph := NewGraph().
		AddStage(stages.NewKeywordGeneration(deps.LLM, logger)).
		AddStage(stages.NewExtractInitialKeywords()).
		AddStage(stages.NewTopicSearch(1, deps.LLM, deps.Source, deps.SourceLimit, logger)).
		AddStage(stages.NewTopicSearch(2, deps.LLM, deps.Source, deps.SourceLimit, logger)).
		AddStage(stages.NewFormatTopics(1)).
		AddStage(stages.NewFormatTopics(2)).
		AddStage(stages.NewCombineTopicResults()).
		AddStage(stages.NewTopicRefinement(deps.LLM, logger)).
		AddStage(stages.NewExtractRefinedKeywords()).
		AddStage(stages.NewPostRetrieval(1, deps.LLM, deps.Source, deps.SourceLimit, logger)).
		AddStage(stages.NewPostRetrieval(2, deps.LLM, deps.Source, deps.SourceLimit, logger)).
		AddStage(stages.NewParsePosts(1)).
		AddStage(stages.NewParsePosts(2)).
		AddStage(stages.NewCombinePostResults()).
		AddStage(stages.NewContentFiltering(deps.LLM, deps.MaxSelectedPosts, deps.FilterConcurrency, logger)).
		AddStage(stages.NewEndNoPosts(logger)).
		AddStage(stages.NewHitpointAnalysis(deps.LLM, logger)).
		AddStage(stages.NewExtractHitpoints()).
		AddStage(stages.NewUserSelection(deps.Strategy, logger)).
		AddStage(stages.NewContentGeneration(deps.LLM, logger))

	graph.SetEntryPoint(stages.StageKeywordGeneration).
		AddEdge(stages.StageKeywordGeneration, stages.StageExtractInitialKeywords).
		AddEdge(stages.StageExtractInitialKeywords, stages.StageTopicSearch1).
		AddEdge(stages.StageExtractInitialKeywords, stages.StageTopicSearch2).
		AddEdge(stages.StageTopicSearch1, stages.StageFormatTopics1).
		AddEdge(stages.StageTopicSearch2, stages.StageFormatTopics2).
		AddJoin(stages.StageCombineTopicResults, stages.StageFormatTopics1, stages.StageFormatTopics2).
		AddEdge(stages.StageCombineTopicResults, stages.StageTopicRefinement).
		AddEdge(stages.StageTopicRefinement, stages.StageExtractRefinedKeywords).
		AddEdge(stages.StageExtractRefinedKeywords, stages.StagePostRetrieval1).
		AddEdge(stages.StageExtractRefinedKeywords, stages.StagePostRetrieval2).
		AddEdge(stages.StagePostRetrieval1, stages.StageParsePosts1).
		AddEdge(stages.StagePostRetrieval2, stages.StageParsePosts2).
		AddJoin(stages.StageCombinePostResults, stages.StageParsePosts1, stages.StageParsePosts2).
		AddConditionalEdges(stages.StageCombinePostResults, routeAfterPostJoin).
		AddEdge(stages.StageContentFiltering, stages.StageHitpointAnalysis).
		AddEdge(stages.StageHitpointAnalysis, stages.StageExtractHitpoints).
		AddEdge(stages.StageExtractHitpoints, stages.StageUserSelection).
		AddEdge(stages.StageUserSelection, stages.StageContentGeneration).
		AddTerminal(stages.StageContentGeneration).
		AddTerminal(stages.StageEndNoPosts)

	return graph
}

// routeAfterPostJoin short-circuits a run that retrieved nothing so no model
// calls are wasted on empty input.
func routeAfterPostJoin(state *models.WorkflowState) string {
	if len(state.RetrievedPosts) == 0 {
		return stages.StageEndNoPosts
	}

	return stages.StageContentFiltering
}

// Pipeline bundles a local executor with its in-memory channel so callers get
// a single Run/Close pair.
type Pipeline struct {
	executor *Executor
	bus      eventbus.EventBus
}

// NewPipeline builds a ready-to-run local pipeline on the in-memory channel.
func NewPipeline(ctx context.Context, deps Dependencies, checkpointer persistence.Checkpointer) (*Pipeline, error) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	publisher, subscriber, err := gochannel.CreateChannel(watermill.NewSlogLogger(logger))
	if err != nil {
		return nil, err
	}

	bus := eventbus.NewWatermillEventBus(publisher, subscriber)

	executor, err := NewExecutor(BuildGraph(deps), bus, checkpointer, logger)
	if err != nil {
		return nil, err
	}

	if err := executor.Start(ctx); err != nil {
		return nil, err
	}

	return &Pipeline{executor: executor, bus: bus}, nil
}

// Run executes one pipeline run and blocks until it terminates.
func (p *Pipeline) Run(ctx context.Context, userInput, runID string) (FinalResult, error) {
	return p.executor.Run(ctx, userInput, runID)
}

func (p *Pipeline) Close() error {
	return p.bus.Close()
}
