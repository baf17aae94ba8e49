package sable

import (
	"context"
	"fmt"
	"sync"

	"github.com/sablescript/sable/sable/internal/ctxlog"
)

// Sequencer walks a bootstrap manifest, resolving each specifier and
// binding the resulting singleton onto the binding table. It holds no state
// beyond a run counter kept for diagnostics; re-entry is not prevented,
// only made observably safe.
type Sequencer struct {
	resolver *Resolver
	globals  *BindingTable
	manifest Manifest

	mu   sync.Mutex
	runs int
}

// NewSequencer constructs a Sequencer for one host instance.
func NewSequencer(resolver *Resolver, globals *BindingTable, manifest Manifest) (*Sequencer, error) {
	if resolver == nil {
		return nil, fmt.Errorf("sable: sequencer requires a resolver")
	}
	if globals == nil {
		return nil, fmt.Errorf("sable: sequencer requires a binding table")
	}
	if err := manifest.Validate(); err != nil {
		return nil, err
	}
	return &Sequencer{resolver: resolver, globals: globals, manifest: manifest}, nil
}

// Run executes the manifest in order. On the first failing entry it stops
// and returns a BootstrapError naming the specifier and global; bindings
// established by earlier entries remain in place. A second Run re-binds the
// same identities: registry memoization guarantees no re-construction, so
// re-entry is an identity-preserving no-op.
func (s *Sequencer) Run(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	logger := ctxlog.FromContext(ctx)
	s.runs++
	if s.runs > 1 {
		logger.Debug("bootstrap re-entered", "runs", s.runs)
	}

	for _, binding := range s.manifest {
		mod, err := s.resolver.Resolve(ctx, binding.Specifier)
		if err != nil {
			logger.Error("capability bootstrap failed",
				"specifier", binding.Specifier, "global", binding.Global, "error", err)
			return &BootstrapError{Specifier: binding.Specifier, Global: binding.Global, Cause: err}
		}
		if replaced := s.globals.Bind(binding.Global, mod); replaced {
			// A divergent value was sitting under this global. Capabilities
			// take precedence, but never shadow silently.
			logger.Warn("global rebound to capability",
				"global", binding.Global, "specifier", binding.Specifier)
		}
		logger.Debug("capability bound", "global", binding.Global, "specifier", binding.Specifier)
	}
	return nil
}

// Runs reports how many times Run has been invoked.
func (s *Sequencer) Runs() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runs
}

// Manifest returns the manifest this sequencer executes.
func (s *Sequencer) Manifest() Manifest {
	return append(Manifest(nil), s.manifest...)
}
