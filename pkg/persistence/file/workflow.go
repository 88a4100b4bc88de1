package file

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fieldkit/cascade/pkg/models"
	"github.com/fieldkit/cascade/pkg/persistence"
)

// WorkflowRepository handles workflow-related file operations.
type WorkflowRepository struct {
	mu   sync.RWMutex
	root string
}

// NewWorkflowRepository creates a new workflow repository.
func NewWorkflowRepository(root string) *WorkflowRepository {
	return &WorkflowRepository{root: root}
}

// GetAll returns every stored workflow, newest first.
func (wr *WorkflowRepository) GetAll(ctx context.Context) ([]*models.Workflow, error) {
	wr.mu.RLock()
	defer wr.mu.RUnlock()

	return wr.loadAll(ctx)
}

func (wr *WorkflowRepository) loadAll(ctx context.Context) ([]*models.Workflow, error) {
	root := os.DirFS(path.Join(wr.root, "workflows"))

	jsonFiles, err := fs.Glob(root, "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list workflow files: %w", err)
	}

	workflows := make([]*models.Workflow, 0, len(jsonFiles))

	for _, file := range jsonFiles {
		workflowID := file[:len(file)-5] // Remove .json extension

		workflow, err := wr.load(ctx, workflowID)
		if err != nil {
			return nil, fmt.Errorf("failed to load workflow %s: %w", workflowID, err)
		}

		if workflow != nil {
			workflows = append(workflows, workflow)
		}
	}

	sort.Slice(workflows, func(i, j int) bool {
		return workflows[i].CreatedAt.After(workflows[j].CreatedAt)
	})

	return workflows, nil
}

// GetByID retrieves a workflow by its ID from the file system. A missing
// workflow returns nil, nil.
func (wr *WorkflowRepository) GetByID(ctx context.Context, workflowID string) (*models.Workflow, error) {
	wr.mu.RLock()
	defer wr.mu.RUnlock()

	return wr.load(ctx, workflowID)
}

func (wr *WorkflowRepository) load(_ context.Context, workflowID string) (*models.Workflow, error) {
	filePath := filepath.Clean(path.Join(wr.root, "workflows", workflowID+".json"))

	body, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to fetch workflow %s: %w", workflowID, err)
	}

	var workflow models.Workflow

	err = json.Unmarshal(body, &workflow)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal workflow %s: %w", workflowID, err)
	}

	return &workflow, nil
}

// ActiveByTrigger scans all workflows and keeps the active ones listening for
// the object-type/event pair. Reads straight from disk on every call so a
// deactivation is honored on the very next trigger.
func (wr *WorkflowRepository) ActiveByTrigger(ctx context.Context, objectType string, event models.TriggerEvent) ([]*models.Workflow, error) {
	wr.mu.RLock()
	defer wr.mu.RUnlock()

	all, err := wr.loadAll(ctx)
	if err != nil {
		return nil, err
	}

	matched := make([]*models.Workflow, 0)

	for _, workflow := range all {
		if workflow.MatchesTrigger(objectType, event) {
			matched = append(matched, workflow)
		}
	}

	return matched, nil
}

// ActiveScheduled returns active workflows with a SCHEDULED trigger.
func (wr *WorkflowRepository) ActiveScheduled(ctx context.Context) ([]*models.Workflow, error) {
	wr.mu.RLock()
	defer wr.mu.RUnlock()

	all, err := wr.loadAll(ctx)
	if err != nil {
		return nil, err
	}

	matched := make([]*models.Workflow, 0)

	for _, workflow := range all {
		if workflow.Active && workflow.TriggerEvent == models.TriggerEventScheduled {
			matched = append(matched, workflow)
		}
	}

	return matched, nil
}

// Save validates and writes a workflow to the file system.
func (wr *WorkflowRepository) Save(_ context.Context, workflow *models.Workflow) error {
	if workflow.ID == "" {
		workflow.ID = uuid.New().String()
	}

	if err := workflow.Validate(); err != nil {
		return fmt.Errorf("%w: %w", persistence.ErrInvalidWorkflow, err)
	}

	wr.mu.Lock()
	defer wr.mu.Unlock()

	err := os.MkdirAll(path.Join(wr.root, "workflows"), 0750)
	if err != nil {
		return fmt.Errorf("failed to create workflows directory: %w", err)
	}

	now := time.Now().UTC()
	if workflow.CreatedAt.IsZero() {
		workflow.CreatedAt = now
	}

	workflow.UpdatedAt = now

	data, err := json.MarshalIndent(workflow, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal workflow %s: %w", workflow.ID, err)
	}

	filePath := path.Join(wr.root, "workflows", workflow.ID+".json")

	return os.WriteFile(filePath, data, 0600)
}

// Delete removes a workflow by its ID. Deleting a missing workflow is a no-op.
func (wr *WorkflowRepository) Delete(_ context.Context, id string) error {
	wr.mu.Lock()
	defer wr.mu.Unlock()

	filePath := path.Join(wr.root, "workflows", id+".json")

	err := os.Remove(filePath)

	if err != nil && os.IsNotExist(err) {
		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to delete workflow %s: %w", id, err)
	}

	return nil
}
