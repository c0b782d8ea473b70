package events

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBaseEvent(t *testing.T) {
	base := NewBaseEvent(StageActivationEvent, "run-1")

	assert.NotEmpty(t, base.ID)
	assert.Equal(t, StageActivationEvent, base.Type)
	assert.Equal(t, "run-1", base.RunID)
	assert.False(t, base.Timestamp.IsZero())
	assert.NotNil(t, base.Metadata)
}

func TestEventTypes(t *testing.T) {
	assert.Equal(t, RunStartedEvent, RunStarted{}.GetType())
	assert.Equal(t, RunFinishedEvent, RunFinished{}.GetType())
	assert.Equal(t, RunFailedEvent, RunFailed{}.GetType())
	assert.Equal(t, StageActivationEvent, StageActivation{}.GetType())
	assert.Equal(t, StageCompletedEvent, StageCompleted{}.GetType())
	assert.Equal(t, StageFailedEvent, StageFailed{}.GetType())
}

func TestStageActivationRoundTrip(t *testing.T) {
	activation := StageActivation{
		BaseEvent:   NewBaseEvent(StageActivationEvent, "run-42"),
		StageID:     "topic_search_1",
		SourceStage: "extract_initial_keywords",
	}

	payload, err := json.Marshal(activation)
	require.NoError(t, err)

	var decoded StageActivation

	require.NoError(t, json.Unmarshal(payload, &decoded))
	assert.Equal(t, activation.RunID, decoded.RunID)
	assert.Equal(t, activation.StageID, decoded.StageID)
	assert.Equal(t, activation.SourceStage, decoded.SourceStage)
}
