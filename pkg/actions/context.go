// Package actions implements the side-effect handlers a workflow pipeline
// dispatches to, one handler type per action type.
package actions

import (
	"context"
	"net/http"
	"time"

	"github.com/fieldkit/cascade/pkg/fieldpath"
	"github.com/fieldkit/cascade/pkg/models"
	"github.com/fieldkit/cascade/pkg/objects"
	"github.com/fieldkit/cascade/pkg/protocol"
)

// ExecutionContext carries the triggering state an action executes against.
type ExecutionContext struct {
	ExecutionID string
	WorkflowID  string
	ObjectType  string
	Event       models.TriggerEvent
	Record      map[string]any
	Previous    map[string]any
	UserID      string
}

// RecordID extracts the triggering record's id, empty when absent.
func (e ExecutionContext) RecordID() string {
	id, _ := fieldpath.Resolve(e.Record, "id")

	return fieldpath.Stringify(id)
}

// AuditFunc appends an audit entry. Implementations are best-effort: they
// log failures and never return them.
type AuditFunc func(ctx context.Context, entry *models.AuditLogEntry)

// Deps are the collaborators handlers call out to. They are injected at
// construction so tests can substitute doubles for every side effect.
type Deps struct {
	Objects     *objects.Registry
	Messenger   protocol.Messenger
	Commissions protocol.Commissions
	Signer      protocol.Signer
	Audit       AuditFunc
	HTTPClient  *http.Client
	Now         func() time.Time
}

func (d Deps) now() time.Time {
	if d.Now == nil {
		return time.Now().UTC()
	}

	return d.Now()
}

func (d Deps) audit(ctx context.Context, entry *models.AuditLogEntry) {
	if d.Audit == nil {
		return
	}

	d.Audit(ctx, entry)
}

func (d Deps) httpClient() *http.Client {
	if d.HTTPClient == nil {
		return &http.Client{Timeout: 30 * time.Second}
	}

	return d.HTTPClient
}
