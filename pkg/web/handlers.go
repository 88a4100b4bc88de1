// Package web provides HTTP handlers and REST API endpoints for workflow
// management and trigger intake.
package web

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/fieldkit/cascade/pkg/eventbus"
	"github.com/fieldkit/cascade/pkg/events"
	"github.com/fieldkit/cascade/pkg/models"
	"github.com/fieldkit/cascade/pkg/persistence"
)

type APIHandlers struct {
	persist   persistence.Persistence
	publisher eventbus.EventPublisher
	validator *validator.Validate
}

func NewAPIHandlers(
	persist persistence.Persistence,
	publisher eventbus.EventPublisher,
	validator *validator.Validate,
) *APIHandlers {
	return &APIHandlers{
		persist:   persist,
		publisher: publisher,
		validator: validator,
	}
}

// RegisterRoutes mounts every API route on the app.
func (h *APIHandlers) RegisterRoutes(app *fiber.App) {
	app.Get("/health", h.HealthCheck)

	w := app.Group("/workflows")
	w.Get("/", h.GetWorkflows)
	w.Post("/", h.CreateWorkflow)
	w.Get("/:id", h.GetWorkflow)
	w.Patch("/:id", h.UpdateWorkflow)
	w.Delete("/:id", h.DeleteWorkflow)
	w.Get("/:id/executions", h.GetWorkflowExecutions)

	app.Post("/triggers", h.ReportTrigger)
	app.Get("/audit/:table/:recordId", h.GetAuditLog)
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	status := "healthy"
	message := "Cascade API is healthy"
	httpStatus := http.StatusOK

	if err := h.persist.HealthCheck(c.Context()); err != nil {
		status = "unhealthy"
		message = "Cascade API is unhealthy: " + err.Error()
		httpStatus = http.StatusInternalServerError
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":    status,
		"message":   message,
		"timestamp": time.Now().UTC(),
	})
}

func (h *APIHandlers) GetWorkflows(c fiber.Ctx) error {
	workflows, err := h.persist.WorkflowRepository().GetAll(c.Context())
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(fiber.Map{
		"workflows":   workflows,
		"total_count": len(workflows),
	})
}

func (h *APIHandlers) GetWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	workflow, err := h.persist.WorkflowRepository().GetByID(c.Context(), id)
	if err != nil {
		return handlePersistenceError(c, err)
	}

	if workflow == nil {
		return notFound(c, "Workflow not found")
	}

	return c.JSON(workflow)
}

func (h *APIHandlers) CreateWorkflow(c fiber.Ctx) error {
	var req CreateWorkflowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	if !req.TriggerEvent.Valid() {
		return badRequest(c, "Unknown trigger event: "+string(req.TriggerEvent))
	}

	workflow := &models.Workflow{
		Name:              req.Name,
		Description:       req.Description,
		TriggerObject:     req.TriggerObject,
		TriggerEvent:      req.TriggerEvent,
		TriggerConditions: req.TriggerConditions,
		TriggerSchedule:   req.TriggerSchedule,
		Active:            req.Active,
		Actions:           req.Actions,
	}

	if err := h.persist.WorkflowRepository().Save(c.Context(), workflow); err != nil {
		return handlePersistenceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(workflow)
}

func (h *APIHandlers) UpdateWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	var req UpdateWorkflowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	existing, err := h.persist.WorkflowRepository().GetByID(c.Context(), id)
	if err != nil {
		return handlePersistenceError(c, err)
	}

	if existing == nil {
		return notFound(c, "Workflow not found")
	}

	if req.Name != nil {
		existing.Name = *req.Name
	}

	if req.Description != nil {
		existing.Description = *req.Description
	}

	if req.TriggerObject != nil {
		existing.TriggerObject = *req.TriggerObject
	}

	if req.TriggerEvent != "" {
		if !req.TriggerEvent.Valid() {
			return badRequest(c, "Unknown trigger event: "+string(req.TriggerEvent))
		}

		existing.TriggerEvent = req.TriggerEvent
	}

	if req.TriggerConditions != nil {
		existing.TriggerConditions = req.TriggerConditions
	}

	if req.TriggerSchedule != nil {
		existing.TriggerSchedule = *req.TriggerSchedule
	}

	if req.Active != nil {
		existing.Active = *req.Active
	}

	if req.Actions != nil {
		existing.Actions = req.Actions
	}

	if err := h.persist.WorkflowRepository().Save(c.Context(), existing); err != nil {
		return handlePersistenceError(c, err)
	}

	return c.JSON(existing)
}

func (h *APIHandlers) DeleteWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	existing, err := h.persist.WorkflowRepository().GetByID(c.Context(), id)
	if err != nil {
		return handlePersistenceError(c, err)
	}

	if existing == nil {
		return notFound(c, "Workflow not found")
	}

	if err := h.persist.WorkflowRepository().Delete(c.Context(), id); err != nil {
		return handlePersistenceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// ReportTrigger accepts a record mutation and hands it to the automation
// pipeline over the event bus. Processing is asynchronous: a 202 means the
// trigger was accepted, not that any workflow ran.
func (h *APIHandlers) ReportTrigger(c fiber.Ctx) error {
	var req TriggerRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	if !req.Event.Valid() {
		return badRequest(c, "Unknown trigger event: "+string(req.Event))
	}

	event := &events.TriggerReceived{
		BaseEvent:    events.NewBaseEvent(events.TriggerReceivedEvent),
		ObjectType:   req.ObjectType,
		TriggerEvent: req.Event,
		Record:       req.Record,
		Previous:     req.Previous,
		UserID:       req.UserID,
	}

	if err := h.publisher.Publish(c.Context(), req.ObjectType, event); err != nil {
		return internalError(c, err)
	}

	return c.Status(fiber.StatusAccepted).JSON(TriggerAccepted{
		TriggerID: event.ID,
		Status:    "accepted",
	})
}

func (h *APIHandlers) GetWorkflowExecutions(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	limit := queryInt(c, "limit", 20)

	executions, err := h.persist.ExecutionRepository().ListByWorkflow(c.Context(), id, limit)
	if err != nil {
		return handlePersistenceError(c, err)
	}

	return c.JSON(fiber.Map{"executions": executions})
}

func (h *APIHandlers) GetAuditLog(c fiber.Ctx) error {
	table := c.Params("table")
	recordID := c.Params("recordId")

	if table == "" || recordID == "" {
		return badRequest(c, "Table and record ID are required")
	}

	limit := queryInt(c, "limit", 50)

	entries, err := h.persist.AuditRepository().ListByRecord(c.Context(), table, recordID, limit)
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(fiber.Map{"entries": entries})
}

func queryInt(c fiber.Ctx, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}

	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return fallback
	}

	return value
}
