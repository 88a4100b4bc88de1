// Package objects maps logical record-type names to persistence handles.
package objects

import (
	"context"
	"fmt"
	"sort"
)

// Creator creates records of a logical object type.
type Creator interface {
	Create(ctx context.Context, objectType string, data map[string]any) (map[string]any, error)
}

// Updater applies a partial update to an existing record.
type Updater interface {
	Update(ctx context.Context, objectType, id string, data map[string]any) (map[string]any, error)
}

// Store is a persistence handle supporting both capabilities.
type Store interface {
	Creator
	Updater
}

// Registry resolves logical object-type names ("Opportunity", "Task", ...)
// to concrete stores. It is populated at startup; resolving an unregistered
// type is a configuration error, never a nil dereference at execution time.
type Registry struct {
	stores map[string]Store
}

func NewRegistry() *Registry {
	return &Registry{stores: make(map[string]Store)}
}

// Register binds an object type to a store. Later registrations for the same
// type replace earlier ones.
func (r *Registry) Register(objectType string, store Store) {
	r.stores[objectType] = store
}

// Resolve returns the store for objectType or ErrObjectTypeNotRegistered.
func (r *Registry) Resolve(objectType string) (Store, error) {
	store, ok := r.stores[objectType]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrObjectTypeNotRegistered, objectType)
	}

	return store, nil
}

// Create resolves and creates in one step.
func (r *Registry) Create(ctx context.Context, objectType string, data map[string]any) (map[string]any, error) {
	store, err := r.Resolve(objectType)
	if err != nil {
		return nil, err
	}

	return store.Create(ctx, objectType, data)
}

// Update resolves and updates in one step.
func (r *Registry) Update(ctx context.Context, objectType, id string, data map[string]any) (map[string]any, error) {
	store, err := r.Resolve(objectType)
	if err != nil {
		return nil, err
	}

	return store.Update(ctx, objectType, id, data)
}

// Types lists the registered object types, sorted for stable output.
func (r *Registry) Types() []string {
	types := make([]string, 0, len(r.stores))
	for objectType := range r.stores {
		types = append(types, objectType)
	}

	sort.Strings(types)

	return types
}
