package actions

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/fieldkit/cascade/pkg/fieldpath"
	"github.com/fieldkit/cascade/pkg/models"
)

type updateFieldHandler struct {
	targetObject string
	targetField  string
	value        any
	deps         Deps
}

type UpdateFieldFactory struct{}

func (UpdateFieldFactory) Type() models.ActionType { return models.ActionTypeUpdateField }

func (UpdateFieldFactory) Create(config map[string]any, deps Deps) (Handler, error) {
	targetObject := stringConfig(config, "target_object")
	targetField := stringConfig(config, "target_field")

	if targetObject == "" || targetField == "" {
		return nil, configErrorf("UPDATE_FIELD: target_object and target_field are required")
	}

	return &updateFieldHandler{
		targetObject: targetObject,
		targetField:  targetField,
		value:        config["value"],
		deps:         deps,
	}, nil
}

func (h *updateFieldHandler) Execute(ctx context.Context, ectx ExecutionContext, logger *slog.Logger) (map[string]any, error) {
	recordID := ectx.RecordID()
	if recordID == "" {
		return nil, fmt.Errorf("UPDATE_FIELD: triggering record has no id")
	}

	resolved := resolveValue(h.value, ectx.Record, h.deps.now())
	oldValue, _ := fieldpath.Resolve(ectx.Record, h.targetField)

	if _, err := h.deps.Objects.Update(ctx, h.targetObject, recordID, map[string]any{h.targetField: resolved}); err != nil {
		return nil, fmt.Errorf("UPDATE_FIELD on %s/%s: %w", h.targetObject, recordID, err)
	}

	entry := models.NewAuditLogEntry(h.targetObject, recordID, "field_update")
	entry.UserID = ectx.UserID
	entry.OldValues = map[string]any{h.targetField: oldValue}
	entry.NewValues = map[string]any{h.targetField: resolved}
	h.deps.audit(ctx, entry)

	logger.InfoContext(ctx, "Field updated",
		"object_type", h.targetObject,
		"record_id", recordID,
		"field", h.targetField)

	return map[string]any{
		"field":     h.targetField,
		"old_value": oldValue,
		"new_value": resolved,
	}, nil
}
