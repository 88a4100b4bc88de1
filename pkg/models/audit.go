package models

import (
	"time"

	"github.com/google/uuid"
)

// AuditSource identifies what wrote an audit entry.
const AuditSourceAutomation = "automation"

// AuditLogEntry is one append-only row in the mutation history. The engine
// writes one per trigger invocation and one per field mutation it performs;
// entries are never updated or deleted.
type AuditLogEntry struct {
	ID        string         `json:"id"`
	TableName string         `json:"table_name"`
	RecordID  string         `json:"record_id"`
	Action    string         `json:"action"`
	OldValues map[string]any `json:"old_values,omitempty"`
	NewValues map[string]any `json:"new_values,omitempty"`
	UserID    string         `json:"user_id,omitempty"`
	Source    string         `json:"source"`
	Timestamp time.Time      `json:"timestamp"`
}

// NewAuditLogEntry stamps an entry with an id, the automation source and the
// current time.
func NewAuditLogEntry(tableName, recordID, action string) *AuditLogEntry {
	return &AuditLogEntry{
		ID:        uuid.New().String(),
		TableName: tableName,
		RecordID:  recordID,
		Action:    action,
		Source:    AuditSourceAutomation,
		Timestamp: time.Now().UTC(),
	}
}
