package web

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/moogar0880/problems"

	"github.com/fieldkit/cascade/pkg/persistence"
)

func badRequest(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(400).
		WithInstance(c.Path()).
		WithType("validation_error").
		WithDetail(detail)

	return c.Status(fiber.StatusBadRequest).JSON(problem)
}

func notFound(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(404).
		WithInstance(c.Path()).
		WithType("not_found").
		WithDetail(detail)

	return c.Status(fiber.StatusNotFound).JSON(problem)
}

func internalError(c fiber.Ctx, err error) error {
	problem := problems.NewStatusProblem(500).
		WithInstance(c.Path()).
		WithType("internal_error").
		WithError(err)

	return c.Status(fiber.StatusInternalServerError).JSON(problem)
}

// handlePersistenceError maps storage errors to problem responses.
func handlePersistenceError(c fiber.Ctx, err error) error {
	switch {
	case persistence.IsWorkflowNotFound(err):
		return notFound(c, "Workflow not found")
	case persistence.IsExecutionNotFound(err):
		return notFound(c, "Execution not found")
	case errors.Is(err, persistence.ErrInvalidWorkflow):
		return badRequest(c, err.Error())
	default:
		return internalError(c, err)
	}
}
