package sable

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/sablescript/sable/sable/internal/ctxlog"
)

// Config controls one host instance's capability wiring. Zero values get
// sane defaults in NewHost.
type Config struct {
	// Stdout and Stderr receive console capability output.
	Stdout io.Writer
	Stderr io.Writer

	// Env backs the environment capability; nil snapshots the process
	// environment.
	Env map[string]string

	// FSRoot confines the filesystem capability; defaults to the working
	// directory. FSReadOnly disables writes (soft-unavailable).
	FSRoot     string
	FSReadOnly bool

	// Clock overrides the time source.
	Clock func() time.Time

	// Probe overrides host introspection facts.
	Probe *SystemProbe

	// Manifest overrides the bootstrap order and naming; defaults to
	// DefaultManifest.
	Manifest Manifest

	// Logger receives injection-layer diagnostics.
	Logger *slog.Logger
}

// Host owns the capability wiring for one embedding instance: the
// registry, the resolver the engine hooks into, the guest-visible binding
// table, and the bootstrap sequencer.
type Host struct {
	registry  *Registry
	resolver  *Resolver
	globals   *BindingTable
	sequencer *Sequencer
	logger    *slog.Logger
}

// NewHost builds a host with the six built-in capabilities registered.
// Registration errors here indicate programming mistakes, so collisions
// surface immediately rather than at first import.
func NewHost(cfg Config) (*Host, error) {
	if cfg.Stdout == nil {
		cfg.Stdout = os.Stdout
	}
	if cfg.Stderr == nil {
		cfg.Stderr = os.Stderr
	}
	if cfg.FSRoot == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		cfg.FSRoot = wd
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Manifest == nil {
		cfg.Manifest = DefaultManifest()
	}

	registry := NewRegistry()
	if err := registerBuiltins(registry, cfg); err != nil {
		return nil, err
	}

	resolver, err := NewResolver(registry)
	if err != nil {
		return nil, err
	}
	globals := NewBindingTable()
	sequencer, err := NewSequencer(resolver, globals, cfg.Manifest)
	if err != nil {
		return nil, err
	}

	return &Host{
		registry:  registry,
		resolver:  resolver,
		globals:   globals,
		sequencer: sequencer,
		logger:    cfg.Logger,
	}, nil
}

// MustNewHost builds a host or panics.
func MustNewHost(cfg Config) *Host {
	host, err := NewHost(cfg)
	if err != nil {
		panic(err)
	}
	return host
}

func registerBuiltins(registry *Registry, cfg Config) error {
	type builtin struct {
		specifier string
		contract  Contract
		factory   Factory
	}
	builtins := []builtin{
		{SpecConsole, ContractFor[Console]("console"), func(context.Context) (Module, error) {
			return NewConsoleCapability(ConsoleConfig{Stdout: cfg.Stdout, Stderr: cfg.Stderr})
		}},
		{SpecEnvironment, ContractFor[Environment]("environment"), func(context.Context) (Module, error) {
			return NewEnvCapability(cfg.Env)
		}},
		{SpecSystemInfo, ContractFor[SystemInfo]("systeminfo"), func(context.Context) (Module, error) {
			probe := SystemProbe{}
			if cfg.Probe != nil {
				probe = *cfg.Probe
			}
			return NewSystemInfoCapability(probe)
		}},
		{SpecTime, ContractFor[Clock]("time"), func(context.Context) (Module, error) {
			return NewClockCapability(ClockConfig{Now: cfg.Clock})
		}},
		{SpecEncoding, ContractFor[Encoding]("encoding"), func(context.Context) (Module, error) {
			return NewEncodingCapability(), nil
		}},
		{SpecFileSystem, ContractFor[FileSystem]("filesystem"), func(context.Context) (Module, error) {
			return NewFSCapability(FSConfig{Root: cfg.FSRoot, ReadOnly: cfg.FSReadOnly})
		}},
	}
	for _, b := range builtins {
		if err := registry.Register(b.specifier, b.contract, b.factory); err != nil {
			return err
		}
	}
	return nil
}

// Bootstrap runs the sequencer once. Safe to call again: re-runs re-assert
// the same identities.
func (h *Host) Bootstrap(ctx context.Context) error {
	return h.sequencer.Run(ctxlog.WithLogger(ctx, h.logger))
}

// Globals is the binding table the engine mirrors into guest global scope.
func (h *Host) Globals() *BindingTable { return h.globals }

// Resolver is the import hook to register with the engine.
func (h *Host) Resolver() ImportHook { return h.resolver }

// Registry exposes the capability registry, mainly for diagnostics and for
// embedders that add their own capabilities before bootstrap.
func (h *Host) Registry() *Registry { return h.registry }

// Sequencer exposes bootstrap diagnostics.
func (h *Host) Sequencer() *Sequencer { return h.sequencer }
