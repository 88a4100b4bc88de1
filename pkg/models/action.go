package models

import (
	"fmt"
	"sort"

	"github.com/fieldkit/cascade/pkg/conditions"
)

// ActionType identifies one kind of side effect an action performs.
type ActionType string

const (
	ActionTypeSendSMS             ActionType = "SEND_SMS"
	ActionTypeSendEmail           ActionType = "SEND_EMAIL"
	ActionTypeUpdateField         ActionType = "UPDATE_FIELD"
	ActionTypeCreateRecord        ActionType = "CREATE_RECORD"
	ActionTypeCreateTask          ActionType = "CREATE_TASK"
	ActionTypeCreateCommission    ActionType = "CREATE_COMMISSION"
	ActionTypeCallWebhook         ActionType = "CALL_WEBHOOK"
	ActionTypeScheduleAppointment ActionType = "SCHEDULE_APPOINTMENT"
	ActionTypeSendAgreement       ActionType = "SEND_AGREEMENT"
	ActionTypeDelay               ActionType = "DELAY"
)

// Action is one step of a workflow's side-effect pipeline. It belongs to
// exactly one workflow and has no lifecycle of its own.
type Action struct {
	ID     string         `json:"id"`
	Type   ActionType     `json:"type"  validate:"required"`
	Order  int            `json:"order"`
	Config map[string]any `json:"config,omitempty"`
	// Condition is evaluated against the same record pair as the workflow
	// trigger; a false result skips this action without aborting the pipeline.
	Condition *conditions.Tree `json:"condition,omitempty"`
	// StopOnFailure defaults to true: a nil pointer means "abort the pipeline
	// when this action fails".
	StopOnFailure *bool `json:"stop_on_failure,omitempty"`
	// DelayMinutes is only meaningful for DELAY actions.
	DelayMinutes int `json:"delay_minutes,omitempty"`
}

// AbortsOnFailure resolves the StopOnFailure default.
func (a *Action) AbortsOnFailure() bool {
	return a.StopOnFailure == nil || *a.StopOnFailure
}

// Validate checks the action's type and its type-specific configuration
// against the config schema for that type.
func (a *Action) Validate() error {
	if _, known := configSchemas[a.Type]; !known {
		return fmt.Errorf("unknown action type %q", a.Type)
	}

	if a.Type == ActionTypeDelay && a.DelayMinutes < 0 {
		return fmt.Errorf("DELAY action: delay_minutes must not be negative")
	}

	return validateConfig(a.Type, a.Config)
}

// SortActions orders actions for execution: ascending Order, ties broken by
// their stable declaration order.
func SortActions(actions []Action) []Action {
	sorted := make([]Action, len(actions))
	copy(sorted, actions)

	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Order < sorted[j].Order
	})

	return sorted
}
