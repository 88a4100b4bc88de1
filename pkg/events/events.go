// Package events defines event types and structures for trigger delivery and
// execution lifecycle notifications.
package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/fieldkit/cascade/pkg/models"
)

type EventType string

// Topic is the bus topic every automation event travels on.
const Topic = "cascade.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	// Trigger delivery.
	TriggerReceivedEvent EventType = "trigger.received"

	// Execution lifecycle events.
	ExecutionStartedEvent   EventType = "execution.started"
	ExecutionCompletedEvent EventType = "execution.completed"
	ExecutionFailedEvent    EventType = "execution.failed"
	ExecutionPausedEvent    EventType = "execution.paused"
	ExecutionResumedEvent   EventType = "execution.resumed"
)

type BaseEvent struct {
	ID        string         `json:"id"`
	Type      EventType      `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

func NewBaseEvent(eventType EventType) BaseEvent {
	return BaseEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Metadata:  make(map[string]any),
	}
}

// TriggerReceived is published by the CRM edge (or the API's trigger
// endpoint) when a record mutation happens. The worker consumes these and
// runs the matching workflows.
type TriggerReceived struct {
	BaseEvent

	ObjectType   string              `json:"object_type"`
	TriggerEvent models.TriggerEvent `json:"trigger_event"`
	Record       map[string]any      `json:"record"`
	Previous     map[string]any      `json:"previous,omitempty"`
	UserID       string              `json:"user_id,omitempty"`
}

func (t TriggerReceived) GetType() EventType {
	return TriggerReceivedEvent
}

// ExecutionStarted marks the beginning of one workflow run.
type ExecutionStarted struct {
	BaseEvent

	ExecutionID  string `json:"execution_id"`
	WorkflowID   string `json:"workflow_id"`
	WorkflowName string `json:"workflow_name"`
	RecordID     string `json:"record_id"`
}

func (e ExecutionStarted) GetType() EventType {
	return ExecutionStartedEvent
}

type ExecutionCompleted struct {
	BaseEvent

	ExecutionID     string        `json:"execution_id"`
	WorkflowID      string        `json:"workflow_id"`
	ActionsExecuted int           `json:"actions_executed"`
	Duration        time.Duration `json:"duration"`
}

func (e ExecutionCompleted) GetType() EventType {
	return ExecutionCompletedEvent
}

type ExecutionFailed struct {
	BaseEvent

	ExecutionID string        `json:"execution_id"`
	WorkflowID  string        `json:"workflow_id"`
	Error       string        `json:"error"`
	Duration    time.Duration `json:"duration"`
}

func (e ExecutionFailed) GetType() EventType {
	return ExecutionFailedEvent
}

// ExecutionPaused is published when a DELAY action parks the pipeline.
type ExecutionPaused struct {
	BaseEvent

	ExecutionID    string    `json:"execution_id"`
	WorkflowID     string    `json:"workflow_id"`
	ContinuationID string    `json:"continuation_id"`
	ResumeAt       time.Time `json:"resume_at"`
}

func (e ExecutionPaused) GetType() EventType {
	return ExecutionPausedEvent
}

// ExecutionResumed is published when the activator re-enters a paused
// pipeline.
type ExecutionResumed struct {
	BaseEvent

	ExecutionID    string `json:"execution_id"`
	WorkflowID     string `json:"workflow_id"`
	ContinuationID string `json:"continuation_id"`
}

func (e ExecutionResumed) GetType() EventType {
	return ExecutionResumedEvent
}
