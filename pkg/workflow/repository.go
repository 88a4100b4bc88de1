// Package workflow contains the automation engine: it matches triggers to
// stored workflows and drives their action pipelines.
package workflow

import (
	"context"
	"fmt"

	"github.com/fieldkit/cascade/pkg/models"
	"github.com/fieldkit/cascade/pkg/persistence"
)

// Repository reads workflow definitions for the engine. Every fetch goes to
// the persistence layer: nothing is cached, so saving a workflow with
// Active=false takes effect on the very next trigger.
type Repository struct {
	persistence persistence.Persistence
}

func NewRepository(persistence persistence.Persistence) *Repository {
	return &Repository{persistence: persistence}
}

// FetchActiveByTrigger returns the active workflows listening for the given
// object-type/event pair.
func (r *Repository) FetchActiveByTrigger(ctx context.Context, objectType string, event models.TriggerEvent) ([]*models.Workflow, error) {
	workflows, err := r.persistence.WorkflowRepository().ActiveByTrigger(ctx, objectType, event)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch workflows for %s/%s: %w", objectType, event, err)
	}

	return workflows, nil
}

// FetchByID returns one workflow, or ErrWorkflowNotFound.
func (r *Repository) FetchByID(ctx context.Context, id string) (*models.Workflow, error) {
	workflow, err := r.persistence.WorkflowRepository().GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch workflow %s: %w", id, err)
	}

	if workflow == nil {
		return nil, persistence.NewWorkflowError("FetchByID", id, persistence.ErrWorkflowNotFound)
	}

	return workflow, nil
}
