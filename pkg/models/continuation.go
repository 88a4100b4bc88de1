package models

import (
	"time"

	"github.com/google/uuid"
)

// ContinuationStatus tracks a scheduled continuation's consumption.
type ContinuationStatus string

const (
	ContinuationStatusPending  ContinuationStatus = "PENDING"
	ContinuationStatusConsumed ContinuationStatus = "CONSUMED"
	ContinuationStatusFailed   ContinuationStatus = "FAILED"
)

// ContinuationPayload carries everything a later invocation needs to resume
// a paused pipeline deterministically: the record snapshot taken when the
// DELAY action ran, and the index of the first action still to execute.
type ContinuationPayload struct {
	ObjectType      string         `json:"object_type"`
	TriggerEvent    TriggerEvent   `json:"trigger_event"`
	Record          map[string]any `json:"record"`
	Previous        map[string]any `json:"previous,omitempty"`
	UserID          string         `json:"user_id,omitempty"`
	NextActionIndex int            `json:"next_action_index"`
}

// ScheduledContinuation is the persisted marker a DELAY action leaves behind.
// The engine only writes these; a time-based invoker finds due rows and
// re-enters the engine with the payload. Consumption is best-effort
// exactly-once: the invoker marks rows CONSUMED after resuming.
type ScheduledContinuation struct {
	ID           string              `json:"id"`
	ExecutionID  string              `json:"execution_id"`
	WorkflowID   string              `json:"workflow_id"`
	ActionID     string              `json:"action_id"`
	ScheduledFor time.Time           `json:"scheduled_for"`
	Status       ContinuationStatus  `json:"status"`
	Payload      ContinuationPayload `json:"payload"`
	CreatedAt    time.Time           `json:"created_at"`
}

// NewScheduledContinuation creates a pending continuation due at scheduledFor.
func NewScheduledContinuation(executionID, workflowID, actionID string, scheduledFor time.Time, payload ContinuationPayload) *ScheduledContinuation {
	return &ScheduledContinuation{
		ID:           uuid.New().String(),
		ExecutionID:  executionID,
		WorkflowID:   workflowID,
		ActionID:     actionID,
		ScheduledFor: scheduledFor,
		Status:       ContinuationStatusPending,
		Payload:      payload,
		CreatedAt:    time.Now().UTC(),
	}
}

// IsDue reports whether the continuation should be resumed at the given time.
func (c *ScheduledContinuation) IsDue(now time.Time) bool {
	return c.Status == ContinuationStatusPending && !c.ScheduledFor.After(now)
}
