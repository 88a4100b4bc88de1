package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ExecutionStatus is the lifecycle state of a workflow run.
type ExecutionStatus string

const (
	ExecutionStatusRunning   ExecutionStatus = "RUNNING"
	ExecutionStatusCompleted ExecutionStatus = "COMPLETED"
	ExecutionStatusFailed    ExecutionStatus = "FAILED"
)

// OutcomeStatus is the per-action result within a run.
type OutcomeStatus string

const (
	OutcomeCompleted OutcomeStatus = "COMPLETED"
	OutcomeFailed    OutcomeStatus = "FAILED"
	OutcomeSkipped   OutcomeStatus = "SKIPPED"
	OutcomeScheduled OutcomeStatus = "SCHEDULED"
)

// ActionOutcome records what one action produced.
type ActionOutcome struct {
	ActionID string         `json:"action_id"`
	Type     ActionType     `json:"type"`
	Status   OutcomeStatus  `json:"status"`
	Output   map[string]any `json:"output,omitempty"`
	Error    string         `json:"error,omitempty"`
}

// WorkflowExecution is the run record for one (workflow, triggering event)
// instance. Once the status reaches COMPLETED or FAILED it never changes.
type WorkflowExecution struct {
	ID              string          `json:"id"`
	WorkflowID      string          `json:"workflow_id"`
	TriggerRecordID string          `json:"trigger_record_id"`
	TriggerData     map[string]any  `json:"trigger_data,omitempty"`
	Status          ExecutionStatus `json:"status"`
	StartedAt       time.Time       `json:"started_at"`
	CompletedAt     *time.Time      `json:"completed_at,omitempty"`
	Results         []ActionOutcome `json:"results,omitempty"`
	ErrorMessage    string          `json:"error_message,omitempty"`
}

// NewWorkflowExecution starts a run record in RUNNING state.
func NewWorkflowExecution(workflowID, triggerRecordID string, triggerData map[string]any) *WorkflowExecution {
	return &WorkflowExecution{
		ID:              GenerateExecutionID(),
		WorkflowID:      workflowID,
		TriggerRecordID: triggerRecordID,
		TriggerData:     triggerData,
		Status:          ExecutionStatusRunning,
		StartedAt:       time.Now().UTC(),
	}
}

// Finish moves the execution to its terminal state. Calling Finish on an
// already-terminal execution is a no-op so the terminal status is immutable.
func (e *WorkflowExecution) Finish(status ExecutionStatus, results []ActionOutcome, errorMessage string) {
	if e.Status != ExecutionStatusRunning {
		return
	}

	now := time.Now().UTC()
	e.Status = status
	e.CompletedAt = &now
	e.Results = results
	e.ErrorMessage = errorMessage
}

// WorkflowResult is the per-workflow entry returned to the caller of
// ProcessTrigger. Failures are reported here, never raised.
type WorkflowResult struct {
	WorkflowID   string          `json:"workflow_id"`
	WorkflowName string          `json:"workflow_name"`
	ExecutionID  string          `json:"execution_id"`
	Status       ExecutionStatus `json:"status"`
	Actions      []ActionOutcome `json:"actions,omitempty"`
	Error        string          `json:"error,omitempty"`
}

// GenerateExecutionID returns a short, prefixed unique run id.
func GenerateExecutionID() string {
	return fmt.Sprintf("exec-%s", uuid.New().String()[:8])
}
