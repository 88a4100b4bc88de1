// Package persistence provides standardized error types for persistence operations.
package persistence

import (
	"errors"
	"fmt"
)

// Standard persistence error types that all implementations should use.
var (
	// ErrWorkflowNotFound indicates a workflow was not found by the given identifier.
	ErrWorkflowNotFound = errors.New("workflow not found")

	// ErrExecutionNotFound indicates an execution was not found by the given identifier.
	ErrExecutionNotFound = errors.New("execution not found")

	// ErrContinuationNotFound indicates a scheduled continuation was not found.
	ErrContinuationNotFound = errors.New("continuation not found")

	// ErrInvalidWorkflow indicates a workflow failed validation on save.
	ErrInvalidWorkflow = errors.New("invalid workflow")
)

// WorkflowError wraps workflow-related errors with additional context.
type WorkflowError struct {
	Op         string // Operation being performed (e.g., "GetByID", "Save", "Delete")
	WorkflowID string // Workflow ID if applicable
	Err        error  // Underlying error
}

func (e *WorkflowError) Error() string {
	return fmt.Sprintf("%s operation failed for workflow %s: %v", e.Op, e.WorkflowID, e.Err)
}

func (e *WorkflowError) Unwrap() error {
	return e.Err
}

// Is implements error comparison for workflow errors.
func (e *WorkflowError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewWorkflowError creates a new workflow error with context.
func NewWorkflowError(op, workflowID string, err error) *WorkflowError {
	return &WorkflowError{
		Op:         op,
		WorkflowID: workflowID,
		Err:        err,
	}
}

// ContinuationError wraps continuation-related errors with additional context.
type ContinuationError struct {
	Op             string // Operation being performed
	ContinuationID string // Continuation ID
	Err            error  // Underlying error
}

func (e *ContinuationError) Error() string {
	return fmt.Sprintf("%s operation failed for continuation %s: %v", e.Op, e.ContinuationID, e.Err)
}

func (e *ContinuationError) Unwrap() error {
	return e.Err
}

func (e *ContinuationError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// IsWorkflowNotFound checks if an error indicates a workflow was not found.
func IsWorkflowNotFound(err error) bool {
	return errors.Is(err, ErrWorkflowNotFound)
}

// IsExecutionNotFound checks if an error indicates an execution was not found.
func IsExecutionNotFound(err error) bool {
	return errors.Is(err, ErrExecutionNotFound)
}

// IsContinuationNotFound checks if an error indicates a continuation was not found.
func IsContinuationNotFound(err error) bool {
	return errors.Is(err, ErrContinuationNotFound)
}
