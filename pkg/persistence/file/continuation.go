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

	"github.com/fieldkit/cascade/pkg/models"
	"github.com/fieldkit/cascade/pkg/persistence"
)

// ContinuationRepository stores scheduled continuations as one JSON file each.
type ContinuationRepository struct {
	mu   sync.RWMutex
	root string
}

func NewContinuationRepository(root string) *ContinuationRepository {
	return &ContinuationRepository{root: root}
}

func (cr *ContinuationRepository) dir() string {
	return path.Join(cr.root, "continuations")
}

func (cr *ContinuationRepository) Save(_ context.Context, continuation *models.ScheduledContinuation) error {
	cr.mu.Lock()
	defer cr.mu.Unlock()

	if err := os.MkdirAll(cr.dir(), 0750); err != nil {
		return fmt.Errorf("failed to create continuations directory: %w", err)
	}

	data, err := json.MarshalIndent(continuation, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal continuation %s: %w", continuation.ID, err)
	}

	return os.WriteFile(path.Join(cr.dir(), continuation.ID+".json"), data, 0600)
}

func (cr *ContinuationRepository) GetByID(_ context.Context, id string) (*models.ScheduledContinuation, error) {
	cr.mu.RLock()
	defer cr.mu.RUnlock()

	return cr.load(id)
}

func (cr *ContinuationRepository) load(id string) (*models.ScheduledContinuation, error) {
	filePath := filepath.Clean(path.Join(cr.dir(), id+".json"))

	body, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", persistence.ErrContinuationNotFound, id)
		}

		return nil, fmt.Errorf("failed to fetch continuation %s: %w", id, err)
	}

	var continuation models.ScheduledContinuation

	if err := json.Unmarshal(body, &continuation); err != nil {
		return nil, fmt.Errorf("failed to unmarshal continuation %s: %w", id, err)
	}

	return &continuation, nil
}

// ListDue returns pending continuations due at or before now, oldest first.
func (cr *ContinuationRepository) ListDue(_ context.Context, now time.Time) ([]*models.ScheduledContinuation, error) {
	cr.mu.RLock()
	defer cr.mu.RUnlock()

	root := os.DirFS(cr.dir())

	jsonFiles, err := fs.Glob(root, "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list continuation files: %w", err)
	}

	due := make([]*models.ScheduledContinuation, 0)

	for _, file := range jsonFiles {
		continuation, err := cr.load(file[:len(file)-5])
		if err != nil {
			return nil, err
		}

		if continuation.IsDue(now) {
			due = append(due, continuation)
		}
	}

	sort.Slice(due, func(i, j int) bool {
		return due[i].ScheduledFor.Before(due[j].ScheduledFor)
	})

	return due, nil
}

func (cr *ContinuationRepository) UpdateStatus(_ context.Context, id string, status models.ContinuationStatus) error {
	cr.mu.Lock()
	defer cr.mu.Unlock()

	continuation, err := cr.load(id)
	if err != nil {
		return &persistence.ContinuationError{Op: "UpdateStatus", ContinuationID: id, Err: err}
	}

	continuation.Status = status

	data, err := json.MarshalIndent(continuation, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal continuation %s: %w", id, err)
	}

	return os.WriteFile(path.Join(cr.dir(), id+".json"), data, 0600)
}
