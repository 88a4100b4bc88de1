package objects

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore keeps records in process memory. Used by tests and file-mode
// deployments where the CRM's own persistence is not wired in.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]map[string]map[string]any
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]map[string]map[string]any)}
}

func (s *MemoryStore) Create(_ context.Context, objectType string, data map[string]any) (map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record := make(map[string]any, len(data)+1)
	for k, v := range data {
		record[k] = v
	}

	id, _ := record["id"].(string)
	if id == "" {
		id = uuid.New().String()
		record["id"] = id
	}

	if s.records[objectType] == nil {
		s.records[objectType] = make(map[string]map[string]any)
	}

	s.records[objectType][id] = record

	return cloneRecord(record), nil
}

func (s *MemoryStore) Update(_ context.Context, objectType, id string, data map[string]any) (map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, exists := s.records[objectType][id]
	if !exists {
		return nil, fmt.Errorf("%w: %s/%s", ErrRecordNotFound, objectType, id)
	}

	for k, v := range data {
		record[k] = v
	}

	return cloneRecord(record), nil
}

// Get returns a copy of a stored record, mostly for tests.
func (s *MemoryStore) Get(objectType, id string) (map[string]any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, exists := s.records[objectType][id]
	if !exists {
		return nil, false
	}

	return cloneRecord(record), true
}

func cloneRecord(record map[string]any) map[string]any {
	clone := make(map[string]any, len(record))
	for k, v := range record {
		clone[k] = v
	}

	return clone
}
