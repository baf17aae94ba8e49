package sable

import "sync"

// BindingTable holds the ambient global bindings the engine mirrors into
// guest global scope. Entries are created at bootstrap and keep their
// identity for the lifetime of the host instance; two reads of the same
// name always yield the same instance.
type BindingTable struct {
	mu     sync.RWMutex
	byName map[string]Module
	order  []string
}

// NewBindingTable constructs an empty BindingTable.
func NewBindingTable() *BindingTable {
	return &BindingTable{byName: make(map[string]Module)}
}

// Bind assigns mod to name. Binding the same instance again is a no-op.
// Assignment always wins over an existing divergent value (capabilities
// take precedence over guest-declared globals); replaced reports whether a
// different instance was shadowed so callers can signal it.
func (t *BindingTable) Bind(name string, mod Module) (replaced bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	prev, exists := t.byName[name]
	if !exists {
		t.order = append(t.order, name)
	}
	t.byName[name] = mod
	return exists && prev != mod
}

// Lookup returns the instance bound to name.
func (t *BindingTable) Lookup(name string) (Module, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	mod, ok := t.byName[name]
	return mod, ok
}

// Names lists bound globals in binding order.
func (t *BindingTable) Names() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]string(nil), t.order...)
}

// Len reports the number of bound globals.
func (t *BindingTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.byName)
}
