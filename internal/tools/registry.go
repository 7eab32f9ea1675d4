package tools

import (
	"fmt"
	"sync"

	"github.com/coachly/coachly/internal/chat"
	"github.com/coachly/coachly/internal/transport"
)

// Registry manages tool lookup by name. Safe for concurrent use; writes
// happen at startup, reads on every dispatched turn.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds a tool. Registering a duplicate name is a wiring bug and
// returns an error rather than silently replacing the earlier tool.
func (r *Registry) Register(t Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[t.Name()]; exists {
		return fmt.Errorf("tool %q already registered", t.Name())
	}
	r.tools[t.Name()] = t
	return nil
}

// Get resolves a tool by name for the chat pipeline.
func (r *Registry) Get(name string) (chat.Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	if !ok {
		return nil, false
	}
	return t, true
}

// Names returns all registered tool names. Order is not significant.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for n := range r.tools {
		names = append(names, n)
	}
	return names
}

// Declarations describes every registered tool for the model provider.
func (r *Registry) Declarations() []transport.ToolDeclaration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	decls := make([]transport.ToolDeclaration, 0, len(r.tools))
	for _, t := range r.tools {
		decls = append(decls, transport.ToolDeclaration{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.Parameters(),
		})
	}
	return decls
}
