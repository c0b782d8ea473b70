// Package events defines event types and structures for pipeline run notifications.
package events

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

// Topic carries every pipeline event.
const Topic = "postpilot.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	// Run lifecycle events.
	RunStartedEvent  EventType = "run.started"
	RunFinishedEvent EventType = "run.finished"
	RunFailedEvent   EventType = "run.failed"

	// Stage events.
	StageActivationEvent EventType = "stage.activation"
	StageCompletedEvent  EventType = "stage.completed"
	StageFailedEvent     EventType = "stage.failed"
)

type BaseEvent struct {
	ID        string         `json:"id"`
	Type      EventType      `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	RunID     string         `json:"run_id"`
	WorkerID  string         `json:"worker_id,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

type RunStarted struct {
	BaseEvent

	PipelineName string `json:"pipeline_name"`
	UserInput    string `json:"user_input"`
}

func (r RunStarted) GetType() EventType {
	return RunStartedEvent
}

type RunFinished struct {
	BaseEvent

	FinalState string        `json:"final_state"`
	Duration   time.Duration `json:"duration"`
}

func (r RunFinished) GetType() EventType {
	return RunFinishedEvent
}

type RunFailed struct {
	BaseEvent

	FailedStage string        `json:"failed_stage"`
	Error       string        `json:"error"`
	Duration    time.Duration `json:"duration"`
}

func (r RunFailed) GetType() EventType {
	return RunFailedEvent
}

// StageActivation asks a worker to execute one stage of a run. Joins receive
// one activation per predecessor and fire the stage only once.
type StageActivation struct {
	BaseEvent

	StageID     string `json:"stage_id"`
	SourceStage string `json:"source_stage,omitempty"`
}

func (s StageActivation) GetType() EventType {
	return StageActivationEvent
}

type StageCompleted struct {
	BaseEvent

	StageID    string        `json:"stage_id"`
	Duration   time.Duration `json:"duration"`
	FinalState string        `json:"final_state"`
}

func (s StageCompleted) GetType() EventType {
	return StageCompletedEvent
}

type StageFailed struct {
	BaseEvent

	StageID  string        `json:"stage_id"`
	Error    string        `json:"error"`
	Duration time.Duration `json:"duration"`
}

func (s StageFailed) GetType() EventType {
	return StageFailedEvent
}

func NewBaseEvent(eventType EventType, runID string) BaseEvent {
	return BaseEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		RunID:     runID,
		Metadata:  make(map[string]any),
	}
}
