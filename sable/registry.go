package sable

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/sablescript/sable/sable/internal/ctxlog"
)

// Registry maps reserved module specifiers to capability factories and owns
// the lazy singleton cache. One Registry serves one host instance.
type Registry struct {
	mu      sync.Mutex
	entries map[string]*registryEntry
}

type registryEntry struct {
	specifier string
	contract  Contract
	factory   Factory

	// buildMu serializes construction per specifier; entries for different
	// specifiers build independently.
	buildMu  sync.Mutex
	instance Module
}

// NewRegistry constructs an empty Registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*registryEntry)}
}

// Register adds a factory under a specifier. The specifier must lie in the
// reserved capability namespace and the contract must name an interface the
// factory's product will satisfy. A second registration for the same
// specifier fails with DuplicateRegistrationError.
func (r *Registry) Register(specifier string, contract Contract, factory Factory) error {
	if !InReservedNamespace(specifier) {
		return fmt.Errorf("sable: cannot register %q: not a %s specifier", specifier, specifierScheme)
	}
	if factory == nil {
		return fmt.Errorf("sable: cannot register %q: factory must be non-nil", specifier)
	}
	if err := contract.validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[specifier]; exists {
		return &DuplicateRegistrationError{Specifier: specifier}
	}
	r.entries[specifier] = &registryEntry{specifier: specifier, contract: contract, factory: factory}
	return nil
}

// MustRegister registers a factory or panics. Intended for host build time,
// where a duplicate registration is a programming error.
func (r *Registry) MustRegister(specifier string, contract Contract, factory Factory) {
	if err := r.Register(specifier, contract, factory); err != nil {
		panic(err)
	}
}

// Resolve returns the capability instance for specifier, constructing it on
// first use. Construction runs at most once per specifier even under
// concurrent callers; a failed construction is not cached, so a later call
// may retry.
func (r *Registry) Resolve(ctx context.Context, specifier string) (Module, error) {
	r.mu.Lock()
	entry, ok := r.entries[specifier]
	r.mu.Unlock()
	if !ok {
		return nil, &UnknownModuleError{Specifier: specifier}
	}

	entry.buildMu.Lock()
	defer entry.buildMu.Unlock()

	if entry.instance != nil {
		return entry.instance, nil
	}

	ctxlog.FromContext(ctx).Debug("constructing capability", "specifier", specifier)
	mod, err := entry.factory(ctx)
	if err != nil {
		var initErr *CapabilityInitError
		if errors.As(err, &initErr) {
			return nil, err
		}
		return nil, &CapabilityInitError{Specifier: specifier, Cause: err}
	}
	if err := entry.contract.check(mod); err != nil {
		return nil, &CapabilityInitError{Specifier: specifier, Cause: err}
	}

	entry.instance = mod
	return mod, nil
}

// Resolved reports the cached instance for specifier without constructing.
func (r *Registry) Resolved(specifier string) (Module, bool) {
	r.mu.Lock()
	entry, ok := r.entries[specifier]
	r.mu.Unlock()
	if !ok {
		return nil, false
	}
	entry.buildMu.Lock()
	defer entry.buildMu.Unlock()
	if entry.instance == nil {
		return nil, false
	}
	return entry.instance, true
}

// Specifiers lists every registered specifier in sorted order.
func (r *Registry) Specifiers() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	specs := make([]string, 0, len(r.entries))
	for spec := range r.entries {
		specs = append(specs, spec)
	}
	sort.Strings(specs)
	return specs
}
