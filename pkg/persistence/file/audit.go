package file

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path"
	"sort"
	"sync"

	"github.com/fieldkit/cascade/pkg/models"
)

// AuditRepository stores audit entries as an append-only JSON-lines file.
// Entries are never rewritten, matching the append-only contract.
type AuditRepository struct {
	mu   sync.Mutex
	root string
}

func NewAuditRepository(root string) *AuditRepository {
	return &AuditRepository{root: root}
}

func (ar *AuditRepository) logPath() string {
	return path.Join(ar.root, "audit", "audit_log.jsonl")
}

func (ar *AuditRepository) Append(_ context.Context, entry *models.AuditLogEntry) error {
	ar.mu.Lock()
	defer ar.mu.Unlock()

	if err := os.MkdirAll(path.Join(ar.root, "audit"), 0750); err != nil {
		return fmt.Errorf("failed to create audit directory: %w", err)
	}

	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal audit entry %s: %w", entry.ID, err)
	}

	file, err := os.OpenFile(ar.logPath(), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("failed to open audit log: %w", err)
	}
	defer file.Close()

	if _, err := file.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("failed to append audit entry %s: %w", entry.ID, err)
	}

	return nil
}

// ListByRecord returns entries for one record, newest first.
func (ar *AuditRepository) ListByRecord(_ context.Context, tableName, recordID string, limit int) ([]*models.AuditLogEntry, error) {
	ar.mu.Lock()
	defer ar.mu.Unlock()

	file, err := os.Open(ar.logPath())
	if err != nil {
		if os.IsNotExist(err) {
			return []*models.AuditLogEntry{}, nil
		}

		return nil, fmt.Errorf("failed to open audit log: %w", err)
	}
	defer file.Close()

	entries := make([]*models.AuditLogEntry, 0)

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)

	for scanner.Scan() {
		var entry models.AuditLogEntry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			return nil, fmt.Errorf("failed to unmarshal audit entry: %w", err)
		}

		if entry.TableName == tableName && entry.RecordID == recordID {
			entries = append(entries, &entry)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan audit log: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})

	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}

	return entries, nil
}
