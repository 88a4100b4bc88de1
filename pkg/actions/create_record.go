package actions

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/fieldkit/cascade/pkg/fieldpath"
	"github.com/fieldkit/cascade/pkg/models"
)

type createRecordHandler struct {
	targetObject  string
	fieldMappings map[string]any
	deps          Deps
}

type CreateRecordFactory struct{}

func (CreateRecordFactory) Type() models.ActionType { return models.ActionTypeCreateRecord }

func (CreateRecordFactory) Create(config map[string]any, deps Deps) (Handler, error) {
	targetObject := stringConfig(config, "target_object")
	if targetObject == "" {
		return nil, configErrorf("CREATE_RECORD: target_object is required")
	}

	mappings, _ := config["field_mappings"].(map[string]any)
	if len(mappings) == 0 {
		return nil, configErrorf("CREATE_RECORD: field_mappings is required")
	}

	return &createRecordHandler{
		targetObject:  targetObject,
		fieldMappings: mappings,
		deps:          deps,
	}, nil
}

func (h *createRecordHandler) Execute(ctx context.Context, ectx ExecutionContext, logger *slog.Logger) (map[string]any, error) {
	now := h.deps.now()

	data := make(map[string]any, len(h.fieldMappings))
	for field, configured := range h.fieldMappings {
		data[field] = resolveValue(configured, ectx.Record, now)
	}

	created, err := h.deps.Objects.Create(ctx, h.targetObject, data)
	if err != nil {
		return nil, fmt.Errorf("CREATE_RECORD on %s: %w", h.targetObject, err)
	}

	createdID := fieldpath.Stringify(created["id"])

	entry := models.NewAuditLogEntry(h.targetObject, createdID, "create")
	entry.UserID = ectx.UserID
	entry.NewValues = created
	h.deps.audit(ctx, entry)

	logger.InfoContext(ctx, "Record created",
		"object_type", h.targetObject,
		"record_id", createdID)

	return map[string]any{
		"object_type": h.targetObject,
		"record_id":   createdID,
	}, nil
}
