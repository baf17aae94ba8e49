package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sablescript/sable/sable"
)

func newShellHost(t *testing.T) (*sable.Host, *bytes.Buffer) {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), []byte("hello"), 0o644))

	stdout := &bytes.Buffer{}
	host, err := sable.NewHost(sable.Config{
		Stdout:     stdout,
		Stderr:     &bytes.Buffer{},
		Env:        map[string]string{"HOME": "/home/guest"},
		FSRoot:     root,
		FSReadOnly: true,
	})
	require.NoError(t, err)
	require.NoError(t, host.Bootstrap(context.Background()))
	return host, stdout
}

func TestEvaluateGlobals(t *testing.T) {
	host, _ := newShellHost(t)
	out, isErr := evaluate(context.Background(), host, "globals")
	require.False(t, isErr)
	require.Equal(t, "console env sys time encoding fs", out)
}

func TestEvaluateEnv(t *testing.T) {
	host, _ := newShellHost(t)

	out, isErr := evaluate(context.Background(), host, "env get HOME")
	require.False(t, isErr)
	require.Equal(t, "/home/guest", out)

	out, isErr = evaluate(context.Background(), host, "env get MISSING")
	require.True(t, isErr)
	require.Contains(t, out, "not set")
}

func TestEvaluateConsole(t *testing.T) {
	host, stdout := newShellHost(t)

	_, isErr := evaluate(context.Background(), host, "console log hi there")
	require.False(t, isErr)
	require.Equal(t, "hi there\n", stdout.String())
}

func TestEvaluateSysAndTime(t *testing.T) {
	host, _ := newShellHost(t)

	out, isErr := evaluate(context.Background(), host, "sys platform")
	require.False(t, isErr)
	require.Equal(t, runtime.GOOS, out)

	out, isErr = evaluate(context.Background(), host, "time format 0 2006-01-02 UTC")
	require.False(t, isErr)
	require.Equal(t, "1970-01-01", out)
}

func TestEvaluateEncoding(t *testing.T) {
	host, _ := newShellHost(t)

	out, isErr := evaluate(context.Background(), host, "encoding base64 hello")
	require.False(t, isErr)
	require.Equal(t, "aGVsbG8=", out)

	_, isErr = evaluate(context.Background(), host, "encoding unbase64 !!!")
	require.True(t, isErr)
}

func TestEvaluateFS(t *testing.T) {
	host, _ := newShellHost(t)

	out, isErr := evaluate(context.Background(), host, "fs read notes.txt")
	require.False(t, isErr)
	require.Equal(t, "hello", out)

	out, isErr = evaluate(context.Background(), host, "fs write out.txt data")
	require.True(t, isErr)
	require.Contains(t, out, "read-only")
}

func TestEvaluateUnknowns(t *testing.T) {
	host, _ := newShellHost(t)

	out, isErr := evaluate(context.Background(), host, "nosuch op")
	require.True(t, isErr)
	require.Contains(t, out, "unknown global")

	out, isErr = evaluate(context.Background(), host, "env frobnicate X")
	require.True(t, isErr)
	require.Contains(t, out, "unknown operation")
}
