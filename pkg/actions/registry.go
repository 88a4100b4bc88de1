package actions

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/fieldkit/cascade/pkg/models"
)

// Handler executes one configured action against a triggering record.
type Handler interface {
	Execute(ctx context.Context, ectx ExecutionContext, logger *slog.Logger) (map[string]any, error)
}

// HandlerFactory builds a handler from an action's raw configuration.
type HandlerFactory interface {
	Type() models.ActionType
	Create(config map[string]any, deps Deps) (Handler, error)
}

// ConfigError marks a misconfigured action. The pipeline treats these as
// fatal regardless of the action's stop_on_failure flag because retrying a
// bad configuration can never succeed.
type ConfigError struct {
	Err error
}

func (e *ConfigError) Error() string { return e.Err.Error() }

func (e *ConfigError) Unwrap() error { return e.Err }

func configErrorf(format string, args ...any) error {
	return &ConfigError{Err: fmt.Errorf(format, args...)}
}

// IsConfigError reports whether err marks an action configuration problem.
func IsConfigError(err error) bool {
	var ce *ConfigError

	return errors.As(err, &ce)
}

// Registry maps action types to handler factories.
type Registry struct {
	deps      Deps
	factories map[models.ActionType]HandlerFactory
}

func NewRegistry(deps Deps) *Registry {
	return &Registry{
		deps:      deps,
		factories: make(map[models.ActionType]HandlerFactory),
	}
}

func (r *Registry) Register(factory HandlerFactory) {
	r.factories[factory.Type()] = factory
}

// Create builds a handler for the action. An unregistered type is a
// configuration error, never silently skipped.
func (r *Registry) Create(action models.Action) (Handler, error) {
	factory, ok := r.factories[action.Type]
	if !ok {
		return nil, configErrorf("action type %q not registered", action.Type)
	}

	handler, err := factory.Create(action.Config, r.deps)
	if err != nil {
		return nil, err
	}

	return handler, nil
}

// RegisterDefaults wires every built-in action type.
func RegisterDefaults(registry *Registry) {
	registry.Register(SendSMSFactory{})
	registry.Register(SendEmailFactory{})
	registry.Register(UpdateFieldFactory{})
	registry.Register(CreateRecordFactory{})
	registry.Register(CreateTaskFactory{})
	registry.Register(CommissionFactory{})
	registry.Register(WebhookFactory{})
	registry.Register(AppointmentFactory{})
	registry.Register(AgreementFactory{})
}
