package sable

import (
	"fmt"
	"os"
	"sort"
	"strings"
)

// Environment exposes environment-variable reads to guest code. Backed by a
// snapshot taken at construction; the live process environment is never
// consulted afterwards, so guests observe a stable view. Synchronous, never
// suspends.
type Environment interface {
	Module
	Get(name string) (string, error)
	Lookup(name string) (string, bool)
	Has(name string) bool
	Keys() []string
}

// EnvNotSetError reports a read of an unset environment variable.
type EnvNotSetError struct {
	Name string
}

func (e *EnvNotSetError) Error() string {
	return fmt.Sprintf("env.get: variable %q is not set", e.Name)
}

// SnapshotOSEnv captures the current process environment as a map.
func SnapshotOSEnv() map[string]string {
	environ := os.Environ()
	vars := make(map[string]string, len(environ))
	for _, kv := range environ {
		if name, value, ok := strings.Cut(kv, "="); ok {
			vars[name] = value
		}
	}
	return vars
}

// NewEnvCapability constructs the environment capability over the given
// variables. A nil map snapshots the process environment.
func NewEnvCapability(vars map[string]string) (Environment, error) {
	if vars == nil {
		vars = SnapshotOSEnv()
	}
	snapshot := make(map[string]string, len(vars))
	for name, value := range vars {
		snapshot[name] = value
	}
	return &envModule{vars: snapshot}, nil
}

// MustNewEnvCapability constructs the environment capability or panics.
func MustNewEnvCapability(vars map[string]string) Environment {
	env, err := NewEnvCapability(vars)
	if err != nil {
		panic(err)
	}
	return env
}

type envModule struct {
	vars map[string]string
}

func (e *envModule) ModuleName() string { return "environment" }

// Get returns the variable's value, or *EnvNotSetError when unset.
func (e *envModule) Get(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("env.get: name must be non-empty")
	}
	value, ok := e.vars[name]
	if !ok {
		return "", &EnvNotSetError{Name: name}
	}
	return value, nil
}

func (e *envModule) Lookup(name string) (string, bool) {
	value, ok := e.vars[name]
	return value, ok
}

func (e *envModule) Has(name string) bool {
	_, ok := e.vars[name]
	return ok
}

func (e *envModule) Keys() []string {
	keys := make([]string, 0, len(e.vars))
	for name := range e.vars {
		keys = append(keys, name)
	}
	sort.Strings(keys)
	return keys
}
