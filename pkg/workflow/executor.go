package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/postpilot/postpilot/pkg/eventbus"
	"github.com/postpilot/postpilot/pkg/events"
	"github.com/postpilot/postpilot/pkg/models"
	"github.com/postpilot/postpilot/pkg/persistence"
	"github.com/postpilot/postpilot/pkg/stages"
)

// Executor drives runs across the stage graph. Stage activations travel over
// the event bus; parallel branches are separate activations executing
// concurrently, and AND-joins are resolved by the Coordinator.
type Executor struct {
	graph        *Graph
	bus          eventbus.EventBus
	checkpointer persistence.Checkpointer
	coordinator  *Coordinator
	logger       *slog.Logger
	workerID     string

	mu   sync.Mutex
	runs map[string]*run
}

type run struct {
	state   *models.WorkflowState
	started time.Time
	done    chan struct{}
	finish  sync.Once
}

func NewExecutor(graph *Graph, bus eventbus.EventBus, checkpointer persistence.Checkpointer, logger *slog.Logger) (*Executor, error) {
	if err := graph.Validate(); err != nil {
		return nil, fmt.Errorf("invalid graph: %w", err)
	}

	if checkpointer == nil {
		checkpointer = persistence.Noop{}
	}

	executor := &Executor{
		graph:        graph,
		bus:          bus,
		checkpointer: checkpointer,
		coordinator:  NewCoordinator(),
		logger:       logger,
		workerID:     "worker-" + uuid.New().String()[:8],
		runs:         make(map[string]*run),
	}

	if err := bus.Handle(events.StageActivationEvent, executor.handleActivation); err != nil {
		return nil, err
	}

	return executor, nil
}

// Start begins consuming stage activations. It must be called once before Run.
func (e *Executor) Start(ctx context.Context) error {
	return e.bus.Subscribe(ctx)
}

// Run executes the pipeline for one user input and blocks until the run
// reaches a terminal stage or the context is cancelled.
func (e *Executor) Run(ctx context.Context, userInput, runID string) (FinalResult, error) {
	if runID == "" {
		runID = "run-" + uuid.New().String()[:8]
	}

	current := &run{
		state:   models.NewWorkflowState(userInput),
		started: time.Now().UTC(),
		done:    make(chan struct{}),
	}

	e.mu.Lock()
	if _, exists := e.runs[runID]; exists {
		e.mu.Unlock()

		return FinalResult{}, fmt.Errorf("run %q is already active", runID)
	}

	e.runs[runID] = current
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		delete(e.runs, runID)
		e.mu.Unlock()
		e.coordinator.Forget(runID)
	}()

	e.logger.Info("Starting run", "run_id", runID, "user_input", userInput)

	startEvent := events.RunStarted{
		BaseEvent:    events.NewBaseEvent(events.RunStartedEvent, runID),
		PipelineName: "content-ideation",
		UserInput:    userInput,
	}
	startEvent.WorkerID = e.workerID

	if err := e.bus.Publish(ctx, runID, startEvent); err != nil {
		return FinalResult{}, fmt.Errorf("publish run start: %w", err)
	}

	if err := e.activate(ctx, runID, e.graph.Entry(), ""); err != nil {
		return FinalResult{}, fmt.Errorf("activate entry stage: %w", err)
	}

	select {
	case <-current.done:
	case <-ctx.Done():
		current.state.SetError(fmt.Sprintf("run cancelled: %v", ctx.Err()))

		return resultFromState(runID, current.state), ctx.Err()
	}

	result := resultFromState(runID, current.state)
	e.publishRunEnd(ctx, runID, current, result)

	return result, nil
}

func (e *Executor) publishRunEnd(ctx context.Context, runID string, current *run, result FinalResult) {
	duration := time.Since(current.started)

	if result.Success || result.CurrentState == string(models.StatusEndNoPosts) {
		event := events.RunFinished{
			BaseEvent:  events.NewBaseEvent(events.RunFinishedEvent, runID),
			FinalState: result.CurrentState,
			Duration:   duration,
		}
		event.WorkerID = e.workerID

		if err := e.bus.Publish(ctx, runID, event); err != nil {
			e.logger.Warn("Failed to publish run finish", "run_id", runID, "error", err)
		}

		return
	}

	event := events.RunFailed{
		BaseEvent: events.NewBaseEvent(events.RunFailedEvent, runID),
		Error:     result.ErrorMessage,
		Duration:  duration,
	}
	event.WorkerID = e.workerID

	if err := e.bus.Publish(ctx, runID, event); err != nil {
		e.logger.Warn("Failed to publish run failure", "run_id", runID, "error", err)
	}
}

func (e *Executor) activate(ctx context.Context, runID, stageID, source string) error {
	activation := events.StageActivation{
		BaseEvent:   events.NewBaseEvent(events.StageActivationEvent, runID),
		StageID:     stageID,
		SourceStage: source,
	}
	activation.WorkerID = e.workerID

	return e.bus.Publish(ctx, runID, activation)
}

// handleActivation dispatches one stage activation. The actual work runs in
// its own goroutine so sibling branches of the same run execute concurrently.
func (e *Executor) handleActivation(ctx context.Context, event any) error {
	activation, ok := event.(*events.StageActivation)
	if !ok {
		return fmt.Errorf("unexpected event payload %T", event)
	}

	e.mu.Lock()
	current, active := e.runs[activation.RunID]
	e.mu.Unlock()

	if !active {
		e.logger.Debug("Dropping activation for inactive run",
			"run_id", activation.RunID, "stage", activation.StageID)

		return nil
	}

	go e.executeStage(ctx, activation.RunID, current, activation.StageID)

	return nil
}

func (e *Executor) executeStage(ctx context.Context, runID string, current *run, stageID string) {
	stage, ok := e.graph.Stage(stageID)
	if !ok {
		current.state.SetError(fmt.Sprintf("unknown stage %q", stageID))
		e.finish(current)

		return
	}

	started := time.Now()

	err := e.runStage(ctx, stage, current.state)
	if err != nil {
		current.state.SetError(fmt.Sprintf("stage %s: %v", stageID, err))
	}

	if saveErr := e.checkpointer.Save(ctx, runID, current.state.Snapshot()); saveErr != nil {
		e.logger.Warn("Checkpoint save failed", "run_id", runID, "stage", stageID, "error", saveErr)
	}

	e.publishStageEnd(ctx, runID, stageID, current.state, time.Since(started))

	if current.state.Failed() {
		e.finish(current)

		return
	}

	if e.graph.IsTerminal(stageID) {
		e.completeTerminal(current, stageID)

		return
	}

	e.route(ctx, runID, current, stageID)
}

// runStage invokes a stage with a panic boundary so an unexpected crash in
// one branch becomes a run error instead of taking the process down.
func (e *Executor) runStage(ctx context.Context, stage stages.Stage, state *models.WorkflowState) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	return stage.Run(ctx, state)
}

func (e *Executor) completeTerminal(current *run, stageID string) {
	// The generation terminal marks the run completed; the no-posts terminal
	// keeps its own status.
	if current.state.Status() != models.StatusEndNoPosts {
		current.state.SetStatus(models.StatusCompleted)
	}

	e.logger.Info("Run reached terminal stage", "stage", stageID, "state", current.state.Status())
	e.finish(current)
}

func (e *Executor) route(ctx context.Context, runID string, current *run, stageID string) {
	successors, router := e.graph.Successors(stageID)

	if router != nil {
		next := router(current.state)
		if next == "" {
			current.state.SetError(fmt.Sprintf("conditional after %s produced no target", stageID))
			e.finish(current)

			return
		}

		e.dispatch(ctx, runID, current, stageID, next)

		return
	}

	for _, next := range successors {
		e.dispatch(ctx, runID, current, stageID, next)
	}
}

func (e *Executor) dispatch(ctx context.Context, runID string, current *run, from, to string) {
	if required := e.graph.JoinSize(to); required > 1 {
		if !e.coordinator.Arrive(runID, to, from, required) {
			return
		}
	}

	if err := e.activate(ctx, runID, to, from); err != nil {
		current.state.SetError(fmt.Sprintf("activate stage %s: %v", to, err))
		e.finish(current)
	}
}

func (e *Executor) publishStageEnd(ctx context.Context, runID, stageID string, state *models.WorkflowState, duration time.Duration) {
	var event eventbus.Event

	if state.Failed() {
		failed := events.StageFailed{
			BaseEvent: events.NewBaseEvent(events.StageFailedEvent, runID),
			StageID:   stageID,
			Error:     state.ErrorMessage,
			Duration:  duration,
		}
		failed.WorkerID = e.workerID
		event = failed
	} else {
		completed := events.StageCompleted{
			BaseEvent:  events.NewBaseEvent(events.StageCompletedEvent, runID),
			StageID:    stageID,
			Duration:   duration,
			FinalState: string(state.Status()),
		}
		completed.WorkerID = e.workerID
		event = completed
	}

	if err := e.bus.Publish(ctx, runID, event); err != nil {
		e.logger.Warn("Failed to publish stage event", "run_id", runID, "stage", stageID, "error", err)
	}
}

func (e *Executor) finish(current *run) {
	current.finish.Do(func() {
		close(current.done)
	})
}
