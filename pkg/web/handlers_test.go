package web_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldkit/cascade/pkg/conditions"
	"github.com/fieldkit/cascade/pkg/eventbus"
	"github.com/fieldkit/cascade/pkg/events"
	"github.com/fieldkit/cascade/pkg/models"
	"github.com/fieldkit/cascade/pkg/persistence/file"
	"github.com/fieldkit/cascade/pkg/web"
)

type capturePublisher struct {
	published []eventbus.Event
	err       error
}

func (p *capturePublisher) Publish(_ context.Context, _ string, event eventbus.Event) error {
	if p.err != nil {
		return p.err
	}

	p.published = append(p.published, event)

	return nil
}

func setupTestApp(t *testing.T) (*fiber.App, *file.Persistence, *capturePublisher) {
	t.Helper()

	persist := file.NewPersistence(t.TempDir())
	publisher := &capturePublisher{}

	handlers := web.NewAPIHandlers(persist, publisher, validator.New(validator.WithRequiredStructEnabled()))

	app := fiber.New()
	handlers.RegisterRoutes(app)

	return app, persist, publisher
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body any) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader

	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)

		reader = bytes.NewReader(encoded)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp, raw
}

func validCreateRequest() web.CreateWorkflowRequest {
	return web.CreateWorkflowRequest{
		Name:          "Closed won follow-up",
		Description:   "Notify the rep when a deal closes",
		TriggerObject: "Opportunity",
		TriggerEvent:  models.TriggerEventUpdate,
		TriggerConditions: &conditions.Tree{
			Operator: conditions.CombinatorAnd,
			Rules: []conditions.Rule{
				{Field: "stage", Operator: conditions.OpChangedTo, Value: "CLOSED_WON"},
			},
		},
		Active: true,
		Actions: []models.Action{
			{ID: "a1", Type: models.ActionTypeSendSMS, Order: 1, Config: map[string]any{"message": "Deal closed!"}},
		},
	}
}

func TestCreateWorkflow(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		mutate         func(*web.CreateWorkflowRequest)
		expectedStatus int
	}{
		{
			name:           "successful creation",
			mutate:         func(*web.CreateWorkflowRequest) {},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "name too short",
			mutate:         func(r *web.CreateWorkflowRequest) { r.Name = "ab" },
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "missing trigger object",
			mutate:         func(r *web.CreateWorkflowRequest) { r.TriggerObject = "" },
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "unknown trigger event",
			mutate:         func(r *web.CreateWorkflowRequest) { r.TriggerEvent = "EXPLODE" },
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "no actions",
			mutate:         func(r *web.CreateWorkflowRequest) { r.Actions = nil },
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			app, _, _ := setupTestApp(t)

			req := validCreateRequest()
			tt.mutate(&req)

			resp, body := doJSON(t, app, http.MethodPost, "/workflows", req)
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			if tt.expectedStatus == http.StatusCreated {
				var workflow models.Workflow
				require.NoError(t, json.Unmarshal(body, &workflow))
				assert.NotEmpty(t, workflow.ID)
				assert.Equal(t, "Closed won follow-up", workflow.Name)
				assert.True(t, workflow.Active)
			}
		})
	}
}

func TestWorkflowLifecycle(t *testing.T) {
	t.Parallel()

	app, _, _ := setupTestApp(t)

	// Create.
	resp, body := doJSON(t, app, http.MethodPost, "/workflows", validCreateRequest())
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created models.Workflow
	require.NoError(t, json.Unmarshal(body, &created))

	// Read back.
	resp, body = doJSON(t, app, http.MethodGet, "/workflows/"+created.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var fetched models.Workflow
	require.NoError(t, json.Unmarshal(body, &fetched))
	assert.Equal(t, created.ID, fetched.ID)

	// Deactivate via partial update.
	inactive := false
	resp, body = doJSON(t, app, http.MethodPatch, "/workflows/"+created.ID, web.UpdateWorkflowRequest{
		Active: &inactive,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var updated models.Workflow
	require.NoError(t, json.Unmarshal(body, &updated))
	assert.False(t, updated.Active)
	assert.Equal(t, created.Name, updated.Name, "untouched fields survive")

	// List.
	resp, body = doJSON(t, app, http.MethodGet, "/workflows/", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var list struct {
		TotalCount int `json:"total_count"`
	}
	require.NoError(t, json.Unmarshal(body, &list))
	assert.Equal(t, 1, list.TotalCount)

	// Delete.
	resp, _ = doJSON(t, app, http.MethodDelete, "/workflows/"+created.ID, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodGet, "/workflows/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodDelete, "/workflows/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestReportTrigger(t *testing.T) {
	t.Parallel()

	t.Run("accepted and published", func(t *testing.T) {
		t.Parallel()

		app, _, publisher := setupTestApp(t)

		resp, body := doJSON(t, app, http.MethodPost, "/triggers", web.TriggerRequest{
			ObjectType: "Opportunity",
			Event:      models.TriggerEventUpdate,
			Record:     map[string]any{"id": "opp-1", "stage": "CLOSED_WON"},
			Previous:   map[string]any{"id": "opp-1", "stage": "PROPOSAL"},
			UserID:     "user-1",
		})
		require.Equal(t, http.StatusAccepted, resp.StatusCode)

		var accepted web.TriggerAccepted
		require.NoError(t, json.Unmarshal(body, &accepted))
		assert.NotEmpty(t, accepted.TriggerID)
		assert.Equal(t, "accepted", accepted.Status)

		require.Len(t, publisher.published, 1)

		event, ok := publisher.published[0].(*events.TriggerReceived)
		require.True(t, ok)
		assert.Equal(t, "Opportunity", event.ObjectType)
		assert.Equal(t, models.TriggerEventUpdate, event.TriggerEvent)
		assert.Equal(t, "opp-1", event.Record["id"])
	})

	t.Run("unknown event rejected", func(t *testing.T) {
		t.Parallel()

		app, _, publisher := setupTestApp(t)

		resp, _ := doJSON(t, app, http.MethodPost, "/triggers", web.TriggerRequest{
			ObjectType: "Opportunity",
			Event:      "EXPLODE",
			Record:     map[string]any{"id": "opp-1"},
		})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Empty(t, publisher.published)
	})

	t.Run("missing record rejected", func(t *testing.T) {
		t.Parallel()

		app, _, publisher := setupTestApp(t)

		resp, _ := doJSON(t, app, http.MethodPost, "/triggers", web.TriggerRequest{
			ObjectType: "Opportunity",
			Event:      models.TriggerEventUpdate,
		})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Empty(t, publisher.published)
	})
}

func TestGetWorkflowExecutions(t *testing.T) {
	t.Parallel()

	app, persist, _ := setupTestApp(t)

	execution := models.NewWorkflowExecution("wf-1", "opp-1", map[string]any{"id": "opp-1"})
	require.NoError(t, persist.ExecutionRepository().Save(context.Background(), execution))

	resp, body := doJSON(t, app, http.MethodGet, "/workflows/wf-1/executions", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result struct {
		Executions []models.WorkflowExecution `json:"executions"`
	}
	require.NoError(t, json.Unmarshal(body, &result))
	require.Len(t, result.Executions, 1)
	assert.Equal(t, execution.ID, result.Executions[0].ID)
}

func TestGetAuditLog(t *testing.T) {
	t.Parallel()

	app, persist, _ := setupTestApp(t)

	entry := models.NewAuditLogEntry("Opportunity", "opp-1", "field_update")
	require.NoError(t, persist.AuditRepository().Append(context.Background(), entry))

	resp, body := doJSON(t, app, http.MethodGet, "/audit/Opportunity/opp-1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result struct {
		Entries []models.AuditLogEntry `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(body, &result))
	require.Len(t, result.Entries, 1)
	assert.Equal(t, "field_update", result.Entries[0].Action)
}

func TestHealthCheck(t *testing.T) {
	t.Parallel()

	app, _, _ := setupTestApp(t)

	resp, _ := doJSON(t, app, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
