package tool

import (
	"errors"
	"fmt"
	"sync"

	"github.com/hupe1980/agenthive/core"
	"github.com/hupe1980/agenthive/internal/util"
)

var (
	// ErrDuplicateToolset is returned when a toolset id is registered twice.
	ErrDuplicateToolset = errors.New("duplicate toolset")
	// ErrInvalidSchema is returned when a toolset's schema table is malformed.
	ErrInvalidSchema = errors.New("invalid tool schema")
)

// Registry maps toolset ids to toolsets. Registration validates the schema
// table once so malformed tables fail at startup rather than mid-pass.
type Registry struct {
	mu      sync.RWMutex
	order   []string
	sets    map[string]Toolset
	schemas map[string]map[string]core.ToolSchema
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		sets:    make(map[string]Toolset),
		schemas: make(map[string]map[string]core.ToolSchema),
	}
}

// Register validates and adds toolsets in order. It stops at the first failure.
func (r *Registry) Register(toolsets ...Toolset) error {
	for _, ts := range toolsets {
		if err := ValidateToolset(ts); err != nil {
			return err
		}
		id := ts.Describe().ToolsetID

		r.mu.Lock()
		if _, exists := r.sets[id]; exists {
			r.mu.Unlock()
			return fmt.Errorf("%w: %s", ErrDuplicateToolset, id)
		}
		byName := make(map[string]core.ToolSchema)
		for _, s := range ts.Schemas() {
			byName[s.Name] = s
		}
		r.sets[id] = ts
		r.schemas[id] = byName
		r.order = append(r.order, id)
		r.mu.Unlock()
	}
	return nil
}

// Lookup returns the toolset registered under id.
func (r *Registry) Lookup(id string) (Toolset, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ts, ok := r.sets[id]
	return ts, ok
}

// Schema returns the declared schema of one tool.
func (r *Registry) Schema(toolsetID, name string) (core.ToolSchema, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.schemas[toolsetID][name]
	return s, ok
}

// Toolsets returns all toolsets in registration order.
func (r *Registry) Toolsets() []Toolset {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Toolset, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.sets[id])
	}
	return out
}

// ValidateToolset checks a toolset's descriptor and schema table.
func ValidateToolset(ts Toolset) error {
	if ts == nil {
		return fmt.Errorf("%w: nil toolset", ErrInvalidSchema)
	}
	details := ts.Describe()
	if details.ToolsetID == "" {
		return fmt.Errorf("%w: empty toolset id", ErrInvalidSchema)
	}
	seen := make(map[string]struct{})
	for _, s := range ts.Schemas() {
		if s.Name == "" {
			return fmt.Errorf("%w: %s: tool with empty name", ErrInvalidSchema, details.ToolsetID)
		}
		if s.ToolsetID != details.ToolsetID {
			return fmt.Errorf("%w: %s.%s: toolset id %q does not match", ErrInvalidSchema, details.ToolsetID, s.Name, s.ToolsetID)
		}
		if _, dup := seen[s.Name]; dup {
			return fmt.Errorf("%w: %s.%s: duplicate tool name", ErrInvalidSchema, details.ToolsetID, s.Name)
		}
		seen[s.Name] = struct{}{}

		argSeen := make(map[string]struct{})
		for _, a := range s.Arguments {
			if a.Name == "" {
				return fmt.Errorf("%w: %s.%s: argument with empty name", ErrInvalidSchema, details.ToolsetID, s.Name)
			}
			if _, dup := argSeen[a.Name]; dup {
				return fmt.Errorf("%w: %s.%s: duplicate argument %s", ErrInvalidSchema, details.ToolsetID, s.Name, a.Name)
			}
			argSeen[a.Name] = struct{}{}
			if _, ok := util.NormalizeType(a.Type); !ok {
				return fmt.Errorf("%w: %s.%s: argument %s has unknown type %q", ErrInvalidSchema, details.ToolsetID, s.Name, a.Name, a.Type)
			}
		}
	}
	return nil
}
