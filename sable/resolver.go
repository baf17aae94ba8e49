package sable

import (
	"context"
	"fmt"
	"strings"
)

// specifierScheme is the reserved namespace prefix. Any import using it is
// host-owned and never satisfied from guest-supplied sources.
const specifierScheme = "cap:"

// ImportHook is the module-resolution interface the scripting engine
// consumes. The engine asks CanResolve before falling back to its own
// source-file loader.
type ImportHook interface {
	CanResolve(specifier string) bool
	Resolve(ctx context.Context, specifier string) (Module, error)
}

// Resolver routes reserved-namespace imports to a Registry. It performs no
// filesystem or network resolution of its own: a file that happens to share
// a reserved specifier's name can never shadow a host capability.
type Resolver struct {
	registry *Registry
}

// NewResolver constructs a Resolver backed by the given registry.
func NewResolver(registry *Registry) (*Resolver, error) {
	if registry == nil {
		return nil, fmt.Errorf("sable: resolver requires a registry")
	}
	return &Resolver{registry: registry}, nil
}

// CanResolve reports whether specifier lies in the reserved capability
// namespace. Structural only: it does not consult registration state.
func (r *Resolver) CanResolve(specifier string) bool {
	return InReservedNamespace(specifier)
}

// Resolve returns the capability instance for a reserved specifier; a guest
// import of the specifier yields this instance, not source text. Foreign
// specifiers are declined with ErrForeignSpecifier so the engine's normal
// loading path handles them.
func (r *Resolver) Resolve(ctx context.Context, specifier string) (Module, error) {
	if !InReservedNamespace(specifier) {
		return nil, ErrForeignSpecifier
	}
	return r.registry.Resolve(ctx, specifier)
}

// InReservedNamespace reports whether specifier has the structural form
// cap:<package>/<module>.
func InReservedNamespace(specifier string) bool {
	_, _, err := parseSpecifier(specifier)
	return err == nil
}

func parseSpecifier(specifier string) (pkg, mod string, err error) {
	rest, ok := strings.CutPrefix(specifier, specifierScheme)
	if !ok {
		return "", "", fmt.Errorf("specifier %q lacks the %s scheme", specifier, specifierScheme)
	}
	pkg, mod, ok = strings.Cut(rest, "/")
	if !ok {
		return "", "", fmt.Errorf("specifier %q must have the form %s<package>/<module>", specifier, specifierScheme)
	}
	if !isSpecifierSegment(pkg) || !isSpecifierSegment(mod) {
		return "", "", fmt.Errorf("specifier %q has malformed segments", specifier)
	}
	return pkg, mod, nil
}

// Segments are lowercase identifiers: letters, digits, '_' and '-', not
// starting with a digit. No nesting below <package>/<module>.
func isSpecifierSegment(segment string) bool {
	if segment == "" {
		return false
	}
	for idx, r := range segment {
		switch {
		case r >= 'a' && r <= 'z':
		case r == '_':
		case r == '-' && idx > 0:
		case r >= '0' && r <= '9' && idx > 0:
		default:
			return false
		}
	}
	return true
}
