package sable

import (
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSysInfoHostDefaults(t *testing.T) {
	info, err := NewSystemInfoCapability(SystemProbe{})
	require.NoError(t, err)

	require.Equal(t, runtime.GOOS, info.Platform())
	require.Equal(t, runtime.GOARCH, info.Arch())
	require.Positive(t, info.NumCPU())
	require.Positive(t, info.PID())
}

func TestSysInfoSimulatedPlatform(t *testing.T) {
	probe := SystemProbe{
		Platform: "plan9",
		Arch:     "riscv64",
		NumCPU:   2,
		PID:      7,
		Hostname: func() (string, error) { return "glenda", nil },
		Uptime: func() (time.Duration, error) {
			return 0, unsupportedOp("sys", "uptime", "not readable on plan9")
		},
		KernelVersion: func() (string, error) {
			return "", unsupportedOp("sys", "kernel_version", "not readable on plan9")
		},
	}
	info, err := NewSystemInfoCapability(probe)
	require.NoError(t, err)

	require.Equal(t, "plan9", info.Platform())
	require.Equal(t, "riscv64", info.Arch())

	name, err := info.Hostname()
	require.NoError(t, err)
	require.Equal(t, "glenda", name)

	// The exact unsupported kind, not a generic failure.
	_, err = info.Uptime()
	var unsupported *UnsupportedOperationError
	require.ErrorAs(t, err, &unsupported)
	require.Equal(t, "uptime", unsupported.Operation)

	_, err = info.KernelVersion()
	require.ErrorAs(t, err, &unsupported)
	require.Equal(t, "kernel_version", unsupported.Operation)
}

func TestSysInfoUptimeOnLinux(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("uptime probe is linux-only")
	}
	info, err := NewSystemInfoCapability(SystemProbe{})
	require.NoError(t, err)

	uptime, err := info.Uptime()
	require.NoError(t, err)
	require.Positive(t, uptime)

	version, err := info.KernelVersion()
	require.NoError(t, err)
	require.NotEmpty(t, version)
}
