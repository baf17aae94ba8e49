package sable

import (
	"errors"
	"fmt"
)

// ErrForeignSpecifier is returned by Resolver.Resolve for specifiers outside
// the reserved capability namespace. The engine's own loader handles those.
var ErrForeignSpecifier = errors.New("sable: specifier outside capability namespace")

// DuplicateRegistrationError reports a second registration for a specifier.
// This is a build-time misconfiguration and should fail host startup.
type DuplicateRegistrationError struct {
	Specifier string
}

func (e *DuplicateRegistrationError) Error() string {
	return fmt.Sprintf("sable: capability %q already registered", e.Specifier)
}

// UnknownModuleError reports a resolve attempt for a specifier that was
// never registered.
type UnknownModuleError struct {
	Specifier string
}

func (e *UnknownModuleError) Error() string {
	return fmt.Sprintf("sable: no capability registered for %q", e.Specifier)
}

// CapabilityInitError reports that a capability factory failed. The failed
// attempt is not cached; a later resolve may retry.
type CapabilityInitError struct {
	Specifier string
	Cause     error
}

func (e *CapabilityInitError) Error() string {
	return fmt.Sprintf("sable: capability %q failed to initialize: %v", e.Specifier, e.Cause)
}

func (e *CapabilityInitError) Unwrap() error { return e.Cause }

// UnsupportedOperationError reports a single operation that the current
// platform or host configuration cannot serve. Guest-recoverable.
type UnsupportedOperationError struct {
	Capability string
	Operation  string
	Reason     string
}

func (e *UnsupportedOperationError) Error() string {
	return fmt.Sprintf("%s.%s unsupported: %s", e.Capability, e.Operation, e.Reason)
}

// BootstrapError identifies the manifest entry at which bootstrap stopped.
// Bindings established by earlier entries remain in place.
type BootstrapError struct {
	Specifier string
	Global    string
	Cause     error
}

func (e *BootstrapError) Error() string {
	return fmt.Sprintf("sable: bootstrap failed binding %q to global %q: %v", e.Specifier, e.Global, e.Cause)
}

func (e *BootstrapError) Unwrap() error { return e.Cause }

func unsupportedOp(capability, operation, reason string) *UnsupportedOperationError {
	return &UnsupportedOperationError{Capability: capability, Operation: operation, Reason: reason}
}
