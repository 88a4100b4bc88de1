package objects

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_ResolveUnregistered(t *testing.T) {
	registry := NewRegistry()

	_, err := registry.Resolve("Opportunity")

	require.Error(t, err)
	assert.True(t, IsObjectTypeNotRegistered(err))
}

func TestRegistry_CreateAndUpdate(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	registry := NewRegistry()
	registry.Register("Opportunity", store)
	registry.Register("Task", store)

	created, err := registry.Create(ctx, "Opportunity", map[string]any{"stage": "PROPOSAL"})
	require.NoError(t, err)
	require.NotEmpty(t, created["id"])

	id := created["id"].(string)

	updated, err := registry.Update(ctx, "Opportunity", id, map[string]any{"stage": "CLOSED_WON"})
	require.NoError(t, err)
	assert.Equal(t, "CLOSED_WON", updated["stage"])

	stored, found := store.Get("Opportunity", id)
	require.True(t, found)
	assert.Equal(t, "CLOSED_WON", stored["stage"])

	assert.Equal(t, []string{"Opportunity", "Task"}, registry.Types())
}

func TestMemoryStore_UpdateMissingRecord(t *testing.T) {
	store := NewMemoryStore()

	_, err := store.Update(context.Background(), "Opportunity", "nope", map[string]any{"stage": "X"})

	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestMemoryStore_CreateKeepsProvidedID(t *testing.T) {
	store := NewMemoryStore()

	created, err := store.Create(context.Background(), "Task", map[string]any{"id": "task-7", "subject": "Call"})

	require.NoError(t, err)
	assert.Equal(t, "task-7", created["id"])
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	store := NewMemoryStore()

	created, err := store.Create(context.Background(), "Task", map[string]any{"subject": "Call"})
	require.NoError(t, err)

	created["subject"] = "mutated"

	stored, found := store.Get("Task", created["id"].(string))
	require.True(t, found)
	assert.Equal(t, "Call", stored["subject"])
}
