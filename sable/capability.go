package sable

import (
	"context"
	"fmt"
	"reflect"
)

// Module is the minimal surface every capability module exposes. Each
// capability additionally satisfies its own operation interface (Console,
// FileSystem, Environment, Encoding, SystemInfo, Clock), which is the
// contract checked when the registry realizes an instance.
type Module interface {
	ModuleName() string
}

// Factory produces a capability module. The registry invokes a factory at
// most once per specifier per host instance; factories need not be
// idempotent or side-effect free.
type Factory func(ctx context.Context) (Module, error)

// Contract names a capability and the Go interface its instances must
// implement. Declaring the interface at registration time replaces the
// "any object can be the module" assumption with a checkable shape.
type Contract struct {
	Name string
	Type reflect.Type
}

// ContractFor builds a Contract for the capability interface T.
func ContractFor[T Module](name string) Contract {
	return Contract{Name: name, Type: reflect.TypeOf((*T)(nil)).Elem()}
}

func (c Contract) validate() error {
	if c.Name == "" {
		return fmt.Errorf("sable: capability contract requires a name")
	}
	if c.Type == nil || c.Type.Kind() != reflect.Interface {
		return fmt.Errorf("sable: capability contract for %q requires an interface type", c.Name)
	}
	return nil
}

func (c Contract) check(mod Module) error {
	if mod == nil {
		return fmt.Errorf("factory for %q returned nil module", c.Name)
	}
	if !reflect.TypeOf(mod).Implements(c.Type) {
		return fmt.Errorf("module %T does not satisfy the %s contract (%s)", mod, c.Name, c.Type)
	}
	return nil
}

// Reserved specifiers for the built-in capabilities.
const (
	SpecConsole     = "cap:sable/console"
	SpecFileSystem  = "cap:sable/filesystem"
	SpecEnvironment = "cap:sable/environment"
	SpecEncoding    = "cap:sable/encoding"
	SpecSystemInfo  = "cap:sable/systeminfo"
	SpecTime        = "cap:sable/time"
)

// Ambient global names under which the built-in capabilities are bound.
// These are guest-observable API surface; assignment at bootstrap always
// overwrites a guest-declared global of the same name.
const (
	GlobalConsole    = "console"
	GlobalFileSystem = "fs"
	GlobalEnv        = "env"
	GlobalEncoding   = "encoding"
	GlobalSystemInfo = "sys"
	GlobalTime       = "time"
)
