package eventing

import (
	"context"
	"fmt"
)

// Handler processes the payload of one delivered event type. Handlers are
// expected to be idempotent: the broker redelivers under at-least-once
// semantics.
type Handler func(ctx context.Context, data []byte) error

// Registry is an explicit event-type → handler table built at process startup.
type Registry struct {
	handlers map[string]Handler
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

// Register binds a handler to a canonical event type tag. The tag is
// normalized first; registering the same tag twice is a wiring bug and fails.
func (r *Registry) Register(eventType string, handler Handler) error {
	eventType = NormalizeType(eventType)
	if _, exists := r.handlers[eventType]; exists {
		return fmt.Errorf("handler already registered for event type %q", eventType)
	}
	r.handlers[eventType] = handler
	return nil
}

// Handler looks up the handler for an event type tag, normalizing it first.
func (r *Registry) Handler(eventType string) (Handler, bool) {
	handler, ok := r.handlers[NormalizeType(eventType)]
	return handler, ok
}

// Types returns the registered canonical type tags.
func (r *Registry) Types() []string {
	types := make([]string, 0, len(r.handlers))
	for eventType := range r.handlers {
		types = append(types, eventType)
	}
	return types
}
