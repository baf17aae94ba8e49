package sable

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"
)

// SystemInfo exposes host introspection to guest code. Platform, Arch,
// NumCPU and PID are infallible; Hostname can fail with a wrapped OS error;
// Uptime and KernelVersion are soft-unavailable and fail with
// *UnsupportedOperationError on platforms that cannot answer them (the
// default probe answers both on Linux only). Synchronous, never suspends.
type SystemInfo interface {
	Module
	Platform() string
	Arch() string
	NumCPU() int
	PID() int
	Hostname() (string, error)
	Uptime() (time.Duration, error)
	KernelVersion() (string, error)
}

// SystemProbe supplies the facts the systeminfo capability reports. Zero
// fields are filled from HostProbe, so tests can simulate a platform by
// overriding only what they need.
type SystemProbe struct {
	Platform      string
	Arch          string
	NumCPU        int
	PID           int
	Hostname      func() (string, error)
	Uptime        func() (time.Duration, error)
	KernelVersion func() (string, error)
}

// HostProbe describes the real host.
func HostProbe() SystemProbe {
	return SystemProbe{
		Platform:      runtime.GOOS,
		Arch:          runtime.GOARCH,
		NumCPU:        runtime.NumCPU(),
		PID:           os.Getpid(),
		Hostname:      os.Hostname,
		Uptime:        hostUptime,
		KernelVersion: hostKernelVersion,
	}
}

// NewSystemInfoCapability constructs the systeminfo capability over probe.
func NewSystemInfoCapability(probe SystemProbe) (SystemInfo, error) {
	defaults := HostProbe()
	if probe.Platform == "" {
		probe.Platform = defaults.Platform
	}
	if probe.Arch == "" {
		probe.Arch = defaults.Arch
	}
	if probe.NumCPU <= 0 {
		probe.NumCPU = defaults.NumCPU
	}
	if probe.PID == 0 {
		probe.PID = defaults.PID
	}
	if probe.Hostname == nil {
		probe.Hostname = defaults.Hostname
	}
	if probe.Uptime == nil {
		probe.Uptime = defaults.Uptime
	}
	if probe.KernelVersion == nil {
		probe.KernelVersion = defaults.KernelVersion
	}
	return &sysInfoModule{probe: probe}, nil
}

// MustNewSystemInfoCapability constructs the capability or panics.
func MustNewSystemInfoCapability(probe SystemProbe) SystemInfo {
	info, err := NewSystemInfoCapability(probe)
	if err != nil {
		panic(err)
	}
	return info
}

type sysInfoModule struct {
	probe SystemProbe
}

func (s *sysInfoModule) ModuleName() string { return "systeminfo" }

func (s *sysInfoModule) Platform() string { return s.probe.Platform }
func (s *sysInfoModule) Arch() string     { return s.probe.Arch }
func (s *sysInfoModule) NumCPU() int      { return s.probe.NumCPU }
func (s *sysInfoModule) PID() int         { return s.probe.PID }

func (s *sysInfoModule) Hostname() (string, error) {
	name, err := s.probe.Hostname()
	if err != nil {
		return "", fmt.Errorf("sys.hostname: %w", err)
	}
	return name, nil
}

func (s *sysInfoModule) Uptime() (time.Duration, error) {
	return s.probe.Uptime()
}

func (s *sysInfoModule) KernelVersion() (string, error) {
	return s.probe.KernelVersion()
}

func hostUptime() (time.Duration, error) {
	if runtime.GOOS != "linux" {
		return 0, unsupportedOp("sys", "uptime", "only readable on linux")
	}
	data, err := os.ReadFile("/proc/uptime")
	if err != nil {
		return 0, fmt.Errorf("sys.uptime: %w", err)
	}
	fields := strings.Fields(string(data))
	if len(fields) == 0 {
		return 0, fmt.Errorf("sys.uptime: malformed /proc/uptime")
	}
	seconds, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0, fmt.Errorf("sys.uptime: malformed /proc/uptime: %w", err)
	}
	return time.Duration(seconds * float64(time.Second)), nil
}

func hostKernelVersion() (string, error) {
	if runtime.GOOS != "linux" {
		return "", unsupportedOp("sys", "kernel_version", "only readable on linux")
	}
	data, err := os.ReadFile("/proc/sys/kernel/osrelease")
	if err != nil {
		return "", fmt.Errorf("sys.kernel_version: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}
