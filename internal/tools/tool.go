// Package tools provides tool registration and the fitness toolsets the
// chat pipeline can dispatch.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
)

// Tool is a named server-side function the model can request. Tools carry
// their own metadata so they can be declared to the model provider.
type Tool interface {
	// Name returns the unique identifier of the tool.
	Name() string

	// Description tells the model what the tool does and when to call it.
	Description() string

	// Parameters returns a JSON schema for the tool's arguments.
	Parameters() map[string]any

	// Call invokes the tool with already-validated arguments.
	Call(ctx context.Context, args map[string]any) (any, error)
}

// executableTool implements Tool with a type-erased handler so tools with
// different input/output types share one registry.
type executableTool struct {
	name        string
	description string
	parameters  map[string]any
	handler     func(ctx context.Context, args map[string]any) (any, error)
}

func (t *executableTool) Name() string               { return t.name }
func (t *executableTool) Description() string        { return t.description }
func (t *executableTool) Parameters() map[string]any { return t.parameters }

func (t *executableTool) Call(ctx context.Context, args map[string]any) (any, error) {
	return t.handler(ctx, args)
}

// New creates a tool with type-safe input handling. The generic handler is
// erased internally; arguments arrive as a map and are coerced into In via
// a JSON round-trip, which matches how the model serializes them anyway.
func New[In, Out any](name, description string, parameters map[string]any, handler func(ctx context.Context, input In) (Out, error)) Tool {
	return &executableTool{
		name:        name,
		description: description,
		parameters:  parameters,
		handler: func(ctx context.Context, args map[string]any) (any, error) {
			var input In
			raw, err := json.Marshal(args)
			if err != nil {
				return nil, fmt.Errorf("marshaling arguments: %w", err)
			}
			if err := json.Unmarshal(raw, &input); err != nil {
				return nil, fmt.Errorf("invalid arguments for %s: %w", name, err)
			}
			return handler(ctx, input)
		},
	}
}
