package actions

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldkit/cascade/pkg/models"
)

func TestRegistryCreate_UnknownTypeIsConfigError(t *testing.T) {
	registry := NewRegistry(Deps{})

	_, err := registry.Create(models.Action{Type: "TELEPORT_CUSTOMER"})

	require.Error(t, err)
	assert.True(t, IsConfigError(err))
}

func TestRegisterDefaults(t *testing.T) {
	h := newTestHarness()
	registry := NewRegistry(h.deps)
	RegisterDefaults(registry)

	tests := []struct {
		actionType models.ActionType
		config     map[string]any
	}{
		{models.ActionTypeSendSMS, map[string]any{"message": "hi"}},
		{models.ActionTypeSendEmail, map[string]any{"message": "hi"}},
		{models.ActionTypeUpdateField, map[string]any{"target_object": "O", "target_field": "f", "value": "v"}},
		{models.ActionTypeCreateRecord, map[string]any{"target_object": "O", "field_mappings": map[string]any{"a": "b"}}},
		{models.ActionTypeCreateTask, map[string]any{"subject": "s"}},
		{models.ActionTypeCreateCommission, nil},
		{models.ActionTypeCallWebhook, map[string]any{"url": "http://example.com"}},
		{models.ActionTypeScheduleAppointment, map[string]any{}},
		{models.ActionTypeSendAgreement, map[string]any{}},
	}

	for _, tc := range tests {
		t.Run(string(tc.actionType), func(t *testing.T) {
			handler, err := registry.Create(models.Action{Type: tc.actionType, Config: tc.config})
			require.NoError(t, err)
			assert.NotNil(t, handler)
		})
	}
}
