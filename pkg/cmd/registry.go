package cmd

import (
	"fmt"

	redis "github.com/redis/go-redis/v9"

	"github.com/fieldkit/cascade/pkg/actions"
	"github.com/fieldkit/cascade/pkg/objects"
)

// NewObjectRegistry builds the CRM object registry. With a Redis URL the
// records live in Redis and survive restarts; without one they live in
// process memory. Every listed object type shares the same store.
func NewObjectRegistry(redisURL string, objectTypes []string) *objects.Registry {
	registry := objects.NewRegistry()

	var store objects.Store

	if redisURL != "" {
		opts, err := redis.ParseURL(redisURL)
		if err != nil {
			panic(fmt.Errorf("invalid redis url: %w", err))
		}

		store = objects.NewRedisStore(redis.NewClient(opts))
	} else {
		store = objects.NewMemoryStore()
	}

	for _, objectType := range objectTypes {
		registry.Register(objectType, store)
	}

	return registry
}

// NewActionRegistry builds the action registry with every built-in action
// handler registered.
func NewActionRegistry(deps actions.Deps) *actions.Registry {
	registry := actions.NewRegistry(deps)
	actions.RegisterDefaults(registry)

	return registry
}
