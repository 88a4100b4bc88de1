package models

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// Per-type JSON Schemas for action configuration. Validated when a workflow
// is saved so configuration mistakes surface to the author, not at execution
// time in the middle of a pipeline.
var configSchemas = map[ActionType]string{
	ActionTypeSendSMS: `{
		"type": "object",
		"properties": {
			"message": {"type": "string", "minLength": 1},
			"recipient_field": {"type": "string"}
		},
		"required": ["message"]
	}`,
	ActionTypeSendEmail: `{
		"type": "object",
		"properties": {
			"subject": {"type": "string"},
			"message": {"type": "string", "minLength": 1},
			"recipient_field": {"type": "string"}
		},
		"required": ["message"]
	}`,
	ActionTypeUpdateField: `{
		"type": "object",
		"properties": {
			"target_object": {"type": "string", "minLength": 1},
			"target_field": {"type": "string", "minLength": 1},
			"value": {}
		},
		"required": ["target_object", "target_field", "value"]
	}`,
	ActionTypeCreateRecord: `{
		"type": "object",
		"properties": {
			"target_object": {"type": "string", "minLength": 1},
			"field_mappings": {"type": "object"}
		},
		"required": ["target_object", "field_mappings"]
	}`,
	ActionTypeCreateTask: `{
		"type": "object",
		"properties": {
			"subject": {"type": "string", "minLength": 1},
			"description": {"type": "string"},
			"due_in_days": {"type": "number", "minimum": 0},
			"assignee_field": {"type": "string"}
		},
		"required": ["subject"]
	}`,
	ActionTypeCreateCommission: `{
		"type": "object",
		"properties": {
			"rate_field": {"type": "string"}
		}
	}`,
	ActionTypeCallWebhook: `{
		"type": "object",
		"properties": {
			"url": {"type": "string", "minLength": 1},
			"method": {"type": "string", "enum": ["GET", "POST", "PUT", "PATCH", "DELETE"]},
			"body_template": {"type": "string"},
			"headers": {"type": "object"}
		},
		"required": ["url"]
	}`,
	ActionTypeScheduleAppointment: `{
		"type": "object",
		"properties": {
			"title": {"type": "string"},
			"duration_minutes": {"type": "number", "minimum": 1},
			"preferred_date_field": {"type": "string"}
		}
	}`,
	ActionTypeSendAgreement: `{
		"type": "object",
		"properties": {
			"template_id": {"type": "string"},
			"recipient_field": {"type": "string"}
		}
	}`,
	ActionTypeDelay: `{
		"type": "object",
		"properties": {}
	}`,
}

func validateConfig(actionType ActionType, config map[string]any) error {
	schema := configSchemas[actionType]

	if config == nil {
		config = map[string]any{}
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(schema),
		gojsonschema.NewGoLoader(config),
	)
	if err != nil {
		return fmt.Errorf("validating %s config: %w", actionType, err)
	}

	if !result.Valid() {
		return fmt.Errorf("%s config: %s", actionType, result.Errors()[0].String())
	}

	return nil
}
