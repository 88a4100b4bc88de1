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

// AppointmentObjectType is the logical object type appointments are created under.
const AppointmentObjectType = "Appointment"

type appointmentHandler struct {
	titleTmpl          string
	durationMinutes    float64
	preferredDateField string
	deps               Deps
}

type AppointmentFactory struct{}

func (AppointmentFactory) Type() models.ActionType { return models.ActionTypeScheduleAppointment }

func (AppointmentFactory) Create(config map[string]any, deps Deps) (Handler, error) {
	return &appointmentHandler{
		titleTmpl:          stringConfig(config, "title"),
		durationMinutes:    numberConfig(config, "duration_minutes", 60),
		preferredDateField: stringConfig(config, "preferred_date_field"),
		deps:               deps,
	}, nil
}

func (h *appointmentHandler) Execute(ctx context.Context, ectx ExecutionContext, logger *slog.Logger) (map[string]any, error) {
	start := h.deps.now()

	if h.preferredDateField != "" {
		if value, found := fieldpath.Resolve(ectx.Record, h.preferredDateField); found {
			if parsed, err := time.Parse(time.RFC3339, fieldpath.Stringify(value)); err == nil {
				start = parsed
			}
		}
	}

	end := start.Add(time.Duration(h.durationMinutes) * time.Minute)

	appointment := map[string]any{
		"title":             template.Interpolate(h.titleTmpl, ectx.Record),
		"starts_at":         start.UTC().Format(time.RFC3339),
		"ends_at":           end.UTC().Format(time.RFC3339),
		"related_object":    ectx.ObjectType,
		"related_record_id": ectx.RecordID(),
		"created_by":        ectx.UserID,
	}

	created, err := h.deps.Objects.Create(ctx, AppointmentObjectType, appointment)
	if err != nil {
		return nil, fmt.Errorf("SCHEDULE_APPOINTMENT: %w", err)
	}

	appointmentID := fieldpath.Stringify(created["id"])

	logger.InfoContext(ctx, "Appointment scheduled",
		"appointment_id", appointmentID,
		"starts_at", appointment["starts_at"])

	return map[string]any{
		"appointment_id": appointmentID,
		"starts_at":      appointment["starts_at"],
		"ends_at":        appointment["ends_at"],
	}, nil
}
