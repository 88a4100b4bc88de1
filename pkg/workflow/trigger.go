package workflow

import (
	"errors"
	"fmt"

	"github.com/fieldkit/cascade/pkg/fieldpath"
	"github.com/fieldkit/cascade/pkg/models"
)

// ErrInvalidTrigger marks a trigger the engine refuses to process.
var ErrInvalidTrigger = errors.New("invalid trigger")

// Trigger is one record mutation delivered to the engine.
type Trigger struct {
	ObjectType string              `json:"object_type"`
	Event      models.TriggerEvent `json:"event"`
	Record     map[string]any      `json:"record"`
	// Previous is the record state before the mutation. Nil for CREATE.
	Previous map[string]any `json:"previous,omitempty"`
	UserID   string         `json:"user_id,omitempty"`
}

// RecordID extracts the triggering record's id.
func (t Trigger) RecordID() string {
	return fieldpath.Stringify(t.Record["id"])
}

// Validate rejects triggers the engine cannot act on.
func (t Trigger) Validate() error {
	if t.ObjectType == "" {
		return fmt.Errorf("%w: object type is required", ErrInvalidTrigger)
	}

	if !t.Event.Valid() {
		return fmt.Errorf("%w: unknown event %q", ErrInvalidTrigger, t.Event)
	}

	if t.Record == nil {
		return fmt.Errorf("%w: record is required", ErrInvalidTrigger)
	}

	return nil
}
