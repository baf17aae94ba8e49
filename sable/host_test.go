package sable

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestHost(t *testing.T) *Host {
	t.Helper()
	host, err := NewHost(Config{
		Stdout: &bytes.Buffer{},
		Stderr: &bytes.Buffer{},
		Env:    map[string]string{"HOME": "/home/guest"},
		FSRoot: t.TempDir(),
	})
	require.NoError(t, err)
	return host
}

func TestHostBootstrapBindsAllCapabilities(t *testing.T) {
	host := newTestHost(t)
	require.NoError(t, host.Bootstrap(context.Background()))

	require.Equal(t,
		[]string{GlobalConsole, GlobalEnv, GlobalSystemInfo, GlobalTime, GlobalEncoding, GlobalFileSystem},
		host.Globals().Names())

	env, ok := host.Globals().Lookup(GlobalEnv)
	require.True(t, ok)
	value, err := env.(Environment).Get("HOME")
	require.NoError(t, err)
	require.Equal(t, "/home/guest", value)
}

func TestHostBootstrapIdempotent(t *testing.T) {
	host := newTestHost(t)
	require.NoError(t, host.Bootstrap(context.Background()))

	before := make(map[string]Module)
	for _, name := range host.Globals().Names() {
		mod, ok := host.Globals().Lookup(name)
		require.True(t, ok)
		before[name] = mod
	}

	require.NoError(t, host.Bootstrap(context.Background()))
	for name, mod := range before {
		again, ok := host.Globals().Lookup(name)
		require.True(t, ok)
		require.Same(t, mod, again, "global %q diverged across bootstrap runs", name)
	}
	require.Equal(t, 2, host.Sequencer().Runs())
}

func TestHostResolverHook(t *testing.T) {
	host := newTestHost(t)
	hook := host.Resolver()

	require.True(t, hook.CanResolve(SpecTime))
	require.False(t, hook.CanResolve("./util.sbl"))

	mod, err := hook.Resolve(context.Background(), SpecTime)
	require.NoError(t, err)
	_, isClock := mod.(Clock)
	require.True(t, isClock)

	_, err = hook.Resolve(context.Background(), "./util.sbl")
	require.ErrorIs(t, err, ErrForeignSpecifier)
}

func TestHostImportAndGlobalShareIdentity(t *testing.T) {
	host := newTestHost(t)
	require.NoError(t, host.Bootstrap(context.Background()))

	imported, err := host.Resolver().Resolve(context.Background(), SpecEncoding)
	require.NoError(t, err)
	bound, ok := host.Globals().Lookup(GlobalEncoding)
	require.True(t, ok)
	require.Same(t, imported, bound)
}

func TestHostFilesystemHardUnavailable(t *testing.T) {
	host, err := NewHost(Config{
		Stdout: &bytes.Buffer{},
		Stderr: &bytes.Buffer{},
		FSRoot: "/definitely/does/not/exist",
	})
	require.NoError(t, err)

	err = host.Bootstrap(context.Background())
	var bootErr *BootstrapError
	require.ErrorAs(t, err, &bootErr)
	require.Equal(t, SpecFileSystem, bootErr.Specifier)

	// Everything before fs in the default manifest stays bound.
	for _, name := range []string{GlobalConsole, GlobalEnv, GlobalSystemInfo, GlobalTime, GlobalEncoding} {
		_, ok := host.Globals().Lookup(name)
		require.True(t, ok, "global %q should survive the fs failure", name)
	}
	_, ok := host.Globals().Lookup(GlobalFileSystem)
	require.False(t, ok)
}

func TestHostCustomManifestAndClock(t *testing.T) {
	fixed := time.UnixMilli(1_700_000_000_000)
	host, err := NewHost(Config{
		Stdout:   &bytes.Buffer{},
		Stderr:   &bytes.Buffer{},
		FSRoot:   t.TempDir(),
		Clock:    func() time.Time { return fixed },
		Manifest: Manifest{{Specifier: SpecTime, Global: "clock"}},
	})
	require.NoError(t, err)
	require.NoError(t, host.Bootstrap(context.Background()))

	require.Equal(t, []string{"clock"}, host.Globals().Names())
	clock, ok := host.Globals().Lookup("clock")
	require.True(t, ok)
	require.Equal(t, fixed.UnixMilli(), clock.(Clock).UnixMilli())
}

func TestHostRegistryOpenForEmbedderCapabilities(t *testing.T) {
	host := newTestHost(t)
	require.NoError(t, host.Registry().Register("cap:embedder/metrics", stubContract(), stubFactory("metrics")))

	mod, err := host.Resolver().Resolve(context.Background(), "cap:embedder/metrics")
	require.NoError(t, err)
	require.Equal(t, "metrics", mod.ModuleName())

	// Built-ins collide loudly.
	err = host.Registry().Register(SpecConsole, stubContract(), stubFactory("console"))
	var dup *DuplicateRegistrationError
	require.ErrorAs(t, err, &dup)
}
