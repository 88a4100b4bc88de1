package eventbus_test

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldkit/cascade/pkg/channels/gochannel"
	"github.com/fieldkit/cascade/pkg/eventbus"
	"github.com/fieldkit/cascade/pkg/events"
	"github.com/fieldkit/cascade/pkg/models"
)

func newTestBus(t *testing.T) eventbus.EventBus {
	t.Helper()

	pub, sub, err := gochannel.CreateTestChannel(watermill.NopLogger{})
	require.NoError(t, err)

	bus := eventbus.NewWatermillEventBus(pub, sub)

	t.Cleanup(func() {
		_ = bus.Close()
	})

	return bus
}

func TestPublishSubscribe_TriggerReceived(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	bus := newTestBus(t)

	received := make(chan *events.TriggerReceived, 1)

	err := bus.Handle(events.TriggerReceivedEvent, func(_ context.Context, event any) error {
		trigger, ok := event.(*events.TriggerReceived)
		require.True(t, ok)
		received <- trigger

		return nil
	})
	require.NoError(t, err)

	require.NoError(t, bus.Subscribe(ctx))

	published := &events.TriggerReceived{
		BaseEvent:    events.NewBaseEvent(events.TriggerReceivedEvent),
		ObjectType:   "Opportunity",
		TriggerEvent: models.TriggerEventUpdate,
		Record:       map[string]any{"id": "rec-1", "stage": "CLOSED_WON"},
		UserID:       "user-1",
	}

	require.NoError(t, bus.Publish(ctx, "Opportunity:rec-1", published))

	select {
	case trigger := <-received:
		assert.Equal(t, "Opportunity", trigger.ObjectType)
		assert.Equal(t, models.TriggerEventUpdate, trigger.TriggerEvent)
		assert.Equal(t, "rec-1", trigger.Record["id"])
	case <-ctx.Done():
		t.Fatal("timed out waiting for event")
	}
}

func TestPublishSubscribe_UnhandledTypesAreAcked(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	bus := newTestBus(t)

	completed := make(chan *events.ExecutionCompleted, 1)

	err := bus.Handle(events.ExecutionCompletedEvent, func(_ context.Context, event any) error {
		completed <- event.(*events.ExecutionCompleted)

		return nil
	})
	require.NoError(t, err)

	require.NoError(t, bus.Subscribe(ctx))

	// No handler registered for this one: it must be dropped, not wedge the
	// subscription.
	require.NoError(t, bus.Publish(ctx, "wf-1", &events.ExecutionStarted{
		BaseEvent:   events.NewBaseEvent(events.ExecutionStartedEvent),
		ExecutionID: "exec-1",
		WorkflowID:  "wf-1",
	}))

	require.NoError(t, bus.Publish(ctx, "wf-1", &events.ExecutionCompleted{
		BaseEvent:       events.NewBaseEvent(events.ExecutionCompletedEvent),
		ExecutionID:     "exec-1",
		WorkflowID:      "wf-1",
		ActionsExecuted: 3,
	}))

	select {
	case event := <-completed:
		assert.Equal(t, 3, event.ActionsExecuted)
	case <-ctx.Done():
		t.Fatal("timed out waiting for event")
	}
}

func TestGenerateID(t *testing.T) {
	bus := newTestBus(t)

	a := bus.GenerateID()
	b := bus.GenerateID()

	assert.NotEmpty(t, a)
	assert.NotEqual(t, a, b)
}
