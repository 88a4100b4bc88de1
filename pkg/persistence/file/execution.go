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

	"github.com/fieldkit/cascade/pkg/models"
	"github.com/fieldkit/cascade/pkg/persistence"
)

// ExecutionRepository stores run records as one JSON file per execution.
type ExecutionRepository struct {
	mu   sync.RWMutex
	root string
}

func NewExecutionRepository(root string) *ExecutionRepository {
	return &ExecutionRepository{root: root}
}

func (er *ExecutionRepository) dir() string {
	return path.Join(er.root, "executions")
}

// Save writes the execution, overwriting any previous snapshot of the same run.
func (er *ExecutionRepository) Save(_ context.Context, execution *models.WorkflowExecution) error {
	er.mu.Lock()
	defer er.mu.Unlock()

	if err := os.MkdirAll(er.dir(), 0750); err != nil {
		return fmt.Errorf("failed to create executions directory: %w", err)
	}

	data, err := json.MarshalIndent(execution, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal execution %s: %w", execution.ID, err)
	}

	return os.WriteFile(path.Join(er.dir(), execution.ID+".json"), data, 0600)
}

func (er *ExecutionRepository) GetByID(_ context.Context, id string) (*models.WorkflowExecution, error) {
	er.mu.RLock()
	defer er.mu.RUnlock()

	filePath := filepath.Clean(path.Join(er.dir(), id+".json"))

	body, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", persistence.ErrExecutionNotFound, id)
		}

		return nil, fmt.Errorf("failed to fetch execution %s: %w", id, err)
	}

	var execution models.WorkflowExecution

	if err := json.Unmarshal(body, &execution); err != nil {
		return nil, fmt.Errorf("failed to unmarshal execution %s: %w", id, err)
	}

	return &execution, nil
}

// ListByWorkflow returns executions for a workflow, newest first.
func (er *ExecutionRepository) ListByWorkflow(ctx context.Context, workflowID string, limit int) ([]*models.WorkflowExecution, error) {
	er.mu.RLock()
	defer er.mu.RUnlock()

	root := os.DirFS(er.dir())

	jsonFiles, err := fs.Glob(root, "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list execution files: %w", err)
	}

	executions := make([]*models.WorkflowExecution, 0)

	for _, file := range jsonFiles {
		body, err := os.ReadFile(path.Join(er.dir(), file))
		if err != nil {
			return nil, fmt.Errorf("failed to read execution file %s: %w", file, err)
		}

		var execution models.WorkflowExecution
		if err := json.Unmarshal(body, &execution); err != nil {
			return nil, fmt.Errorf("failed to unmarshal execution file %s: %w", file, err)
		}

		if execution.WorkflowID == workflowID {
			executions = append(executions, &execution)
		}
	}

	sort.Slice(executions, func(i, j int) bool {
		return executions[i].StartedAt.After(executions[j].StartedAt)
	})

	if limit > 0 && len(executions) > limit {
		executions = executions[:limit]
	}

	return executions, nil
}
