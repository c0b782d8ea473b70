package eventbus

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/postpilot/postpilot/pkg/channels/gochannel"
	"github.com/postpilot/postpilot/pkg/events"
)

func newTestBus(t *testing.T) EventBus {
	t.Helper()

	publisher, subscriber, err := gochannel.CreateTestChannel(watermill.NopLogger{})
	require.NoError(t, err)

	bus := NewWatermillEventBus(publisher, subscriber)
	t.Cleanup(func() {
		_ = bus.Close()
	})

	return bus
}

func TestPublishAndHandleRoundTrip(t *testing.T) {
	bus := newTestBus(t)

	received := make(chan *events.StageActivation, 1)

	require.NoError(t, bus.Handle(events.StageActivationEvent, func(ctx context.Context, event interface{}) error {
		activation, ok := event.(*events.StageActivation)
		require.True(t, ok)

		received <- activation

		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, bus.Subscribe(ctx))

	activation := events.StageActivation{
		BaseEvent:   events.NewBaseEvent(events.StageActivationEvent, "run-1"),
		StageID:     "keyword_generation",
		SourceStage: "",
	}

	require.NoError(t, bus.Publish(ctx, "run-1", activation))

	select {
	case got := <-received:
		assert.Equal(t, "run-1", got.RunID)
		assert.Equal(t, "keyword_generation", got.StageID)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for activation")
	}
}

func TestUnhandledEventTypesAreIgnored(t *testing.T) {
	bus := newTestBus(t)

	received := make(chan struct{}, 2)

	require.NoError(t, bus.Handle(events.RunFinishedEvent, func(ctx context.Context, event interface{}) error {
		received <- struct{}{}

		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, bus.Subscribe(ctx))

	// No handler registered for run.started; it should be acked and dropped.
	require.NoError(t, bus.Publish(ctx, "run-1", events.RunStarted{
		BaseEvent: events.NewBaseEvent(events.RunStartedEvent, "run-1"),
	}))

	require.NoError(t, bus.Publish(ctx, "run-1", events.RunFinished{
		BaseEvent:  events.NewBaseEvent(events.RunFinishedEvent, "run-1"),
		FinalState: "completed",
	}))

	select {
	case <-received:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for run finish event")
	}

	assert.Empty(t, received)
}

func TestGenerateID(t *testing.T) {
	bus := newTestBus(t)

	first := bus.GenerateID()
	second := bus.GenerateID()

	assert.NotEmpty(t, first)
	assert.NotEqual(t, first, second)
}
