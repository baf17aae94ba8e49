// Package sable implements the capability-injection layer of the Sable
// scripting host. It governs how host-implemented capabilities (console,
// filesystem, environment, encoding, system introspection, time) become
// visible to guest scripts:
//
//   - a Registry maps reserved module specifiers (cap:sable/...) to
//     capability factories and caches one instance per specifier,
//   - a Resolver routes imports in the reserved namespace to the Registry
//     and declines everything else,
//   - a Sequencer walks the bootstrap manifest once per host instance and
//     binds each resolved capability onto the guest-visible BindingTable.
//
// Script compilation and execution live in the engine, not here; the engine
// consumes this layer through the ImportHook interface and mirrors the
// BindingTable into guest global scope. Guest code then reaches native
// resources only through the capability wrappers, each of which enforces
// its own availability and error semantics at the call boundary.
package sable
