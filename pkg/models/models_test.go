package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldkit/cascade/pkg/conditions"
)

func validWorkflow() *Workflow {
	return &Workflow{
		ID:            "wf-1",
		Name:          "Closed-won commission",
		TriggerObject: "Opportunity",
		TriggerEvent:  TriggerEventUpdate,
		TriggerConditions: &conditions.Tree{
			Operator: conditions.CombinatorAnd,
			Rules: []conditions.Rule{
				{Field: "stage", Operator: conditions.OpChangedTo, Value: "CLOSED_WON"},
			},
		},
		Active: true,
		Actions: []Action{
			{ID: "a-1", Type: ActionTypeCreateCommission, Order: 1},
		},
	}
}

func TestWorkflowValidate(t *testing.T) {
	require.NoError(t, validWorkflow().Validate())
}

func TestWorkflowValidate_ShortName(t *testing.T) {
	wf := validWorkflow()
	wf.Name = "ab"

	assert.Error(t, wf.Validate())
}

func TestWorkflowValidate_UnknownTriggerEvent(t *testing.T) {
	wf := validWorkflow()
	wf.TriggerEvent = "ON_SAVE"

	assert.Error(t, wf.Validate())
}

func TestWorkflowValidate_ScheduledNeedsCron(t *testing.T) {
	wf := validWorkflow()
	wf.TriggerEvent = TriggerEventScheduled

	assert.Error(t, wf.Validate())

	wf.TriggerSchedule = "0 9 * * 1"

	assert.NoError(t, wf.Validate())
}

func TestWorkflowValidate_ActionConfig(t *testing.T) {
	tests := []struct {
		name    string
		action  Action
		wantErr bool
	}{
		{
			name:   "valid update field",
			action: Action{Type: ActionTypeUpdateField, Config: map[string]any{"target_object": "Opportunity", "target_field": "status", "value": "WON"}},
		},
		{
			name:    "update field missing target",
			action:  Action{Type: ActionTypeUpdateField, Config: map[string]any{"value": "WON"}},
			wantErr: true,
		},
		{
			name:   "valid sms",
			action: Action{Type: ActionTypeSendSMS, Config: map[string]any{"message": "Hi {{contact.firstName}}"}},
		},
		{
			name:    "sms without message",
			action:  Action{Type: ActionTypeSendSMS, Config: map[string]any{}},
			wantErr: true,
		},
		{
			name:    "webhook without url",
			action:  Action{Type: ActionTypeCallWebhook, Config: map[string]any{"method": "POST"}},
			wantErr: true,
		},
		{
			name:    "webhook with bad method",
			action:  Action{Type: ActionTypeCallWebhook, Config: map[string]any{"url": "https://x", "method": "TRACE"}},
			wantErr: true,
		},
		{
			name:    "unknown action type",
			action:  Action{Type: "LAUNCH_ROCKET"},
			wantErr: true,
		},
		{
			name:    "negative delay",
			action:  Action{Type: ActionTypeDelay, DelayMinutes: -5},
			wantErr: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			wf := validWorkflow()
			wf.Actions = []Action{tc.action}

			err := wf.Validate()
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSortActions(t *testing.T) {
	actions := []Action{
		{ID: "c", Order: 2},
		{ID: "a", Order: 1},
		{ID: "b", Order: 2},
		{ID: "d", Order: 1},
	}

	sorted := SortActions(actions)

	ids := make([]string, 0, len(sorted))
	for _, a := range sorted {
		ids = append(ids, a.ID)
	}

	// Equal orders keep declaration order.
	assert.Equal(t, []string{"a", "d", "c", "b"}, ids)
	// Input slice untouched.
	assert.Equal(t, "c", actions[0].ID)
}

func TestActionAbortsOnFailure(t *testing.T) {
	continueOn := false
	stopOn := true

	assert.True(t, (&Action{}).AbortsOnFailure(), "default is stop on failure")
	assert.False(t, (&Action{StopOnFailure: &continueOn}).AbortsOnFailure())
	assert.True(t, (&Action{StopOnFailure: &stopOn}).AbortsOnFailure())
}

func TestWorkflowExecutionFinish_TerminalStatusImmutable(t *testing.T) {
	exec := NewWorkflowExecution("wf-1", "rec-1", map[string]any{"stage": "CLOSED_WON"})

	assert.Equal(t, ExecutionStatusRunning, exec.Status)
	assert.NotEmpty(t, exec.ID)

	exec.Finish(ExecutionStatusCompleted, []ActionOutcome{{ActionID: "a-1", Status: OutcomeCompleted}}, "")

	require.Equal(t, ExecutionStatusCompleted, exec.Status)
	require.NotNil(t, exec.CompletedAt)

	completedAt := *exec.CompletedAt

	exec.Finish(ExecutionStatusFailed, nil, "late failure")

	assert.Equal(t, ExecutionStatusCompleted, exec.Status, "terminal status must never change")
	assert.Equal(t, completedAt, *exec.CompletedAt)
	assert.Empty(t, exec.ErrorMessage)
}

func TestScheduledContinuationIsDue(t *testing.T) {
	now := time.Now().UTC()

	cont := NewScheduledContinuation("exec-1", "wf-1", "a-2", now.Add(-time.Minute), ContinuationPayload{NextActionIndex: 2})

	assert.True(t, cont.IsDue(now))

	cont.Status = ContinuationStatusConsumed
	assert.False(t, cont.IsDue(now), "consumed continuations are never due")

	future := NewScheduledContinuation("exec-1", "wf-1", "a-2", now.Add(time.Hour), ContinuationPayload{})
	assert.False(t, future.IsDue(now))
}

func TestMatchesTrigger(t *testing.T) {
	wf := validWorkflow()

	assert.True(t, wf.MatchesTrigger("Opportunity", TriggerEventUpdate))
	assert.False(t, wf.MatchesTrigger("Opportunity", TriggerEventCreate))
	assert.False(t, wf.MatchesTrigger("Customer", TriggerEventUpdate))

	wf.Active = false
	assert.False(t, wf.MatchesTrigger("Opportunity", TriggerEventUpdate))
}
