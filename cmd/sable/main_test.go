package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sablescript/sable/sable"
)

func TestRunCLIInvalidCommand(t *testing.T) {
	require.Error(t, runCLI([]string{"sable"}))
	require.Error(t, runCLI([]string{"sable", "frobnicate"}))
}

func TestRunCLIHelp(t *testing.T) {
	require.NoError(t, runCLI([]string{"sable", "help"}))
}

func TestBuildHostWithManifest(t *testing.T) {
	dir := t.TempDir()
	manifestPath := filepath.Join(dir, "bootstrap.hcl")
	src := `
binding "clock" {
  module = "cap:sable/time"
}
`
	require.NoError(t, os.WriteFile(manifestPath, []byte(src), 0o644))

	host, err := buildHost(hostFlags{manifestPath: manifestPath, root: dir})
	require.NoError(t, err)
	require.NoError(t, host.Bootstrap(context.Background()))
	require.Equal(t, []string{"clock"}, host.Globals().Names())
}

func TestBuildHostBadManifest(t *testing.T) {
	_, err := buildHost(hostFlags{manifestPath: filepath.Join(t.TempDir(), "missing.hcl"), root: "."})
	require.Error(t, err)
}

func TestRenderCaps(t *testing.T) {
	host, err := sable.NewHost(sable.Config{
		Stdout: &bytes.Buffer{},
		Stderr: &bytes.Buffer{},
		FSRoot: t.TempDir(),
	})
	require.NoError(t, err)
	require.NoError(t, host.Bootstrap(context.Background()))

	var out bytes.Buffer
	renderCaps(&out, host, nil)
	text := out.String()
	require.Contains(t, text, "capability bindings")
	for _, name := range host.Globals().Names() {
		require.Contains(t, text, name)
	}
	require.Contains(t, text, sable.SpecFileSystem)
}
