// Package models defines the core domain models for record-triggered automation.
package models

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/fieldkit/cascade/pkg/conditions"
)

// TriggerEvent is the record lifecycle event a workflow listens for.
type TriggerEvent string

const (
	TriggerEventCreate      TriggerEvent = "CREATE"
	TriggerEventUpdate      TriggerEvent = "UPDATE"
	TriggerEventDelete      TriggerEvent = "DELETE"
	TriggerEventFieldChange TriggerEvent = "FIELD_CHANGE"
	TriggerEventScheduled   TriggerEvent = "SCHEDULED"
)

// Valid reports whether e is one of the known trigger events.
func (e TriggerEvent) Valid() bool {
	switch e {
	case TriggerEventCreate, TriggerEventUpdate, TriggerEventDelete,
		TriggerEventFieldChange, TriggerEventScheduled:
		return true
	default:
		return false
	}
}

// Workflow is a stored automation rule: a trigger plus an ordered action list.
// Workflows are authored through the management API and read-only to the
// engine; deactivation takes effect on the next trigger because the engine
// loads workflows at call time and never caches them.
type Workflow struct {
	ID                string           `json:"id"`
	Name              string           `json:"name"               validate:"required,min=3"`
	Description       string           `json:"description"`
	TriggerObject     string           `json:"trigger_object"     validate:"required"`
	TriggerEvent      TriggerEvent     `json:"trigger_event"      validate:"required"`
	TriggerConditions *conditions.Tree `json:"trigger_conditions,omitempty"`
	// TriggerSchedule is a cron expression, only meaningful for SCHEDULED
	// trigger workflows; the activator turns it into timer firings.
	TriggerSchedule string    `json:"trigger_schedule,omitempty"`
	Active          bool      `json:"active"`
	Actions         []Action  `json:"actions"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the workflow definition, including every action's
// type-specific configuration, so malformed workflows are rejected when they
// are saved instead of blowing up mid-pipeline.
func (w *Workflow) Validate() error {
	if err := validate.Struct(w); err != nil {
		return fmt.Errorf("invalid workflow %q: %w", w.Name, err)
	}

	if !w.TriggerEvent.Valid() {
		return fmt.Errorf("invalid workflow %q: unknown trigger event %q", w.Name, w.TriggerEvent)
	}

	if w.TriggerEvent == TriggerEventScheduled && w.TriggerSchedule == "" {
		return fmt.Errorf("invalid workflow %q: SCHEDULED trigger requires a cron expression", w.Name)
	}

	for i := range w.Actions {
		if err := w.Actions[i].Validate(); err != nil {
			return fmt.Errorf("invalid workflow %q: action %d: %w", w.Name, i, err)
		}
	}

	return nil
}

// MatchesTrigger reports whether this workflow listens for the given
// object-type/event pair.
func (w *Workflow) MatchesTrigger(objectType string, event TriggerEvent) bool {
	return w.Active && w.TriggerObject == objectType && w.TriggerEvent == event
}
