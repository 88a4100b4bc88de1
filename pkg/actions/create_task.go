package actions

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/fieldkit/cascade/pkg/fieldpath"
	"github.com/fieldkit/cascade/pkg/models"
	"github.com/fieldkit/cascade/pkg/template"
)

// TaskObjectType is the logical object type tasks are created under.
const TaskObjectType = "Task"

type createTaskHandler struct {
	subjectTmpl     string
	descriptionTmpl string
	dueInDays       float64
	assigneeField   string
	deps            Deps
}

type CreateTaskFactory struct{}

func (CreateTaskFactory) Type() models.ActionType { return models.ActionTypeCreateTask }

func (CreateTaskFactory) Create(config map[string]any, deps Deps) (Handler, error) {
	subject := stringConfig(config, "subject")
	if subject == "" {
		return nil, configErrorf("CREATE_TASK: subject is required")
	}

	return &createTaskHandler{
		subjectTmpl:     subject,
		descriptionTmpl: stringConfig(config, "description"),
		dueInDays:       numberConfig(config, "due_in_days", 1),
		assigneeField:   stringConfig(config, "assignee_field"),
		deps:            deps,
	}, nil
}

func (h *createTaskHandler) Execute(ctx context.Context, ectx ExecutionContext, logger *slog.Logger) (map[string]any, error) {
	assignee := ectx.UserID
	if h.assigneeField != "" {
		value, _ := fieldpath.Resolve(ectx.Record, h.assigneeField)
		assignee = fieldpath.Stringify(value)
	}

	dueAt := h.deps.now().Add(time.Duration(h.dueInDays * 24 * float64(time.Hour)))

	task := map[string]any{
		"subject":           template.Interpolate(h.subjectTmpl, ectx.Record),
		"description":       template.Interpolate(h.descriptionTmpl, ectx.Record),
		"assignee_id":       assignee,
		"due_at":            dueAt.UTC().Format(time.RFC3339),
		"related_object":    ectx.ObjectType,
		"related_record_id": ectx.RecordID(),
	}

	created, err := h.deps.Objects.Create(ctx, TaskObjectType, task)
	if err != nil {
		return nil, fmt.Errorf("CREATE_TASK: %w", err)
	}

	taskID := fieldpath.Stringify(created["id"])

	logger.InfoContext(ctx, "Task created", "task_id", taskID, "assignee", assignee)

	return map[string]any{
		"task_id":  taskID,
		"assignee": assignee,
		"due_at":   task["due_at"],
	}, nil
}
