// Package web provides HTTP request and response types for the automation API.
package web

import (
	"github.com/fieldkit/cascade/pkg/conditions"
	"github.com/fieldkit/cascade/pkg/models"
)

// CreateWorkflowRequest represents the request body for creating a new workflow.
type CreateWorkflowRequest struct {
	Name              string              `json:"name"               validate:"required,min=3"`
	Description       string              `json:"description"`
	TriggerObject     string              `json:"trigger_object"     validate:"required"`
	TriggerEvent      models.TriggerEvent `json:"trigger_event"      validate:"required"`
	TriggerConditions *conditions.Tree    `json:"trigger_conditions,omitempty"`
	TriggerSchedule   string              `json:"trigger_schedule,omitempty"`
	Active            bool                `json:"active"`
	Actions           []models.Action     `json:"actions"            validate:"required,min=1"`
}

// UpdateWorkflowRequest represents the request body for updating an existing
// workflow. All fields are optional to support partial updates.
type UpdateWorkflowRequest struct {
	Name              *string             `json:"name,omitempty"        validate:"omitempty,min=3"`
	Description       *string             `json:"description,omitempty"`
	TriggerObject     *string             `json:"trigger_object,omitempty"`
	TriggerEvent      models.TriggerEvent `json:"trigger_event,omitempty"`
	TriggerConditions *conditions.Tree    `json:"trigger_conditions,omitempty"`
	TriggerSchedule   *string             `json:"trigger_schedule,omitempty"`
	Active            *bool               `json:"active,omitempty"`
	Actions           []models.Action     `json:"actions,omitempty"`
}

// TriggerRequest represents one record mutation reported by a CRM client.
type TriggerRequest struct {
	ObjectType string              `json:"object_type" validate:"required"`
	Event      models.TriggerEvent `json:"event"       validate:"required"`
	Record     map[string]any      `json:"record"      validate:"required"`
	Previous   map[string]any      `json:"previous,omitempty"`
	UserID     string              `json:"user_id,omitempty"`
}

// TriggerAccepted is the response for an accepted trigger.
type TriggerAccepted struct {
	TriggerID string `json:"trigger_id"`
	Status    string `json:"status"`
}
