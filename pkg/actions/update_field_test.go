package actions

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldkit/cascade/pkg/objects"
)

func TestUpdateField(t *testing.T) {
	h := newTestHarness("Opportunity")

	created, err := h.store.Create(context.Background(), "Opportunity", map[string]any{
		"id":     "opp-1",
		"stage":  "PROPOSAL",
		"amount": 200.0,
	})
	require.NoError(t, err)

	handler, err := UpdateFieldFactory{}.Create(map[string]any{
		"target_object": "Opportunity",
		"target_field":  "stage",
		"value":         "CLOSED_WON",
	}, h.deps)
	require.NoError(t, err)

	output, err := handler.Execute(context.Background(), testExecutionContext(created), testLogger)

	require.NoError(t, err)
	assert.Equal(t, "PROPOSAL", output["old_value"])
	assert.Equal(t, "CLOSED_WON", output["new_value"])

	stored, _ := h.store.Get("Opportunity", "opp-1")
	assert.Equal(t, "CLOSED_WON", stored["stage"])

	require.Len(t, h.audited, 1)
	assert.Equal(t, "field_update", h.audited[0].Action)
	assert.Equal(t, map[string]any{"stage": "PROPOSAL"}, h.audited[0].OldValues)
	assert.Equal(t, map[string]any{"stage": "CLOSED_WON"}, h.audited[0].NewValues)
}

func TestUpdateField_FormulaValue(t *testing.T) {
	h := newTestHarness("Opportunity")

	created, err := h.store.Create(context.Background(), "Opportunity", map[string]any{
		"id":     "opp-1",
		"amount": 200.0,
	})
	require.NoError(t, err)

	handler, err := UpdateFieldFactory{}.Create(map[string]any{
		"target_object": "Opportunity",
		"target_field":  "commission",
		"value":         "{{amount}} * 0.1",
	}, h.deps)
	require.NoError(t, err)

	_, err = handler.Execute(context.Background(), testExecutionContext(created), testLogger)
	require.NoError(t, err)

	stored, _ := h.store.Get("Opportunity", "opp-1")
	assert.Equal(t, 20.0, stored["commission"])
}

func TestUpdateField_NowValue(t *testing.T) {
	h := newTestHarness("Opportunity")

	created, err := h.store.Create(context.Background(), "Opportunity", map[string]any{"id": "opp-1"})
	require.NoError(t, err)

	handler, err := UpdateFieldFactory{}.Create(map[string]any{
		"target_object": "Opportunity",
		"target_field":  "closed_at",
		"value":         "now",
	}, h.deps)
	require.NoError(t, err)

	_, err = handler.Execute(context.Background(), testExecutionContext(created), testLogger)
	require.NoError(t, err)

	stored, _ := h.store.Get("Opportunity", "opp-1")
	assert.Equal(t, "2025-06-01T12:00:00Z", stored["closed_at"])
}

func TestUpdateField_UnregisteredObjectType(t *testing.T) {
	h := newTestHarness() // nothing registered

	handler, err := UpdateFieldFactory{}.Create(map[string]any{
		"target_object": "Opportunity",
		"target_field":  "stage",
		"value":         "X",
	}, h.deps)
	require.NoError(t, err)

	_, err = handler.Execute(context.Background(), testExecutionContext(map[string]any{"id": "opp-1"}), testLogger)

	assert.True(t, objects.IsObjectTypeNotRegistered(err))
}

func TestUpdateField_MissingConfigIsConfigError(t *testing.T) {
	h := newTestHarness()

	_, err := UpdateFieldFactory{}.Create(map[string]any{"value": "X"}, h.deps)

	require.Error(t, err)
	assert.True(t, IsConfigError(err))
}
