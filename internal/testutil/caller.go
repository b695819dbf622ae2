package testutil

import "sync"

// Caller is a tool.Caller stand-in that records name and persona changes.
type Caller struct {
	id string

	mu      sync.Mutex
	name    string
	persona string
}

// NewCaller creates a caller with a fixed id.
func NewCaller(id, name string) *Caller { return &Caller{id: id, name: name} }

func (c *Caller) ID() string { return c.id }

func (c *Caller) Name() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.name
}

func (c *Caller) SetName(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.name = name
}

func (c *Caller) SetPersona(persona string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.persona = persona
}

// Persona returns the last persona set.
func (c *Caller) Persona() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.persona
}
