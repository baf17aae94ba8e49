package main

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/sablescript/sable/sable"
)

// evaluate runs one capability-shell command against the host's binding
// table, exactly the way a guest reaches capabilities: by global name. It
// returns the rendered output and whether it is an error.
func evaluate(ctx context.Context, host *sable.Host, input string) (string, bool) {
	fields := strings.Fields(input)
	if len(fields) == 0 {
		return "", false
	}

	switch fields[0] {
	case "help":
		return shellHelp, false
	case "globals":
		names := host.Globals().Names()
		if len(names) == 0 {
			return "(no globals bound)", false
		}
		return strings.Join(names, " "), false
	}

	mod, ok := host.Globals().Lookup(fields[0])
	if !ok {
		return fmt.Sprintf("unknown global %q (try 'globals')", fields[0]), true
	}
	if len(fields) < 2 {
		return fmt.Sprintf("usage: %s <operation> [args...]", fields[0]), true
	}
	op, args := fields[1], fields[2:]

	out, err := invoke(ctx, mod, op, args)
	if err != nil {
		return err.Error(), true
	}
	return out, false
}

func invoke(ctx context.Context, mod sable.Module, op string, args []string) (string, error) {
	switch m := mod.(type) {
	case sable.Console:
		return invokeConsole(m, op, args)
	case sable.Environment:
		return invokeEnv(m, op, args)
	case sable.Encoding:
		return invokeEncoding(m, op, args)
	case sable.SystemInfo:
		return invokeSysInfo(m, op)
	case sable.Clock:
		return invokeClock(ctx, m, op, args)
	case sable.FileSystem:
		return invokeFS(ctx, m, op, args)
	default:
		return "", fmt.Errorf("module %q has no shell surface", mod.ModuleName())
	}
}

func invokeConsole(console sable.Console, op string, args []string) (string, error) {
	msg := strings.Join(args, " ")
	var err error
	switch op {
	case "log":
		err = console.Log(msg)
	case "warn":
		err = console.Warn(msg)
	case "error":
		err = console.Error(msg)
	case "debug":
		err = console.Debug(msg)
	default:
		return "", fmt.Errorf("console: unknown operation %q", op)
	}
	if err != nil {
		return "", err
	}
	return "(written)", nil
}

func invokeEnv(env sable.Environment, op string, args []string) (string, error) {
	switch op {
	case "get":
		if len(args) != 1 {
			return "", fmt.Errorf("usage: env get <name>")
		}
		return env.Get(args[0])
	case "has":
		if len(args) != 1 {
			return "", fmt.Errorf("usage: env has <name>")
		}
		return strconv.FormatBool(env.Has(args[0])), nil
	case "keys":
		return strings.Join(env.Keys(), "\n"), nil
	default:
		return "", fmt.Errorf("env: unknown operation %q", op)
	}
}

func invokeEncoding(enc sable.Encoding, op string, args []string) (string, error) {
	text := strings.Join(args, " ")
	switch op {
	case "base64":
		return enc.EncodeBase64([]byte(text)), nil
	case "unbase64":
		data, err := enc.DecodeBase64(text)
		if err != nil {
			return "", err
		}
		return string(data), nil
	case "hex":
		return enc.EncodeHex([]byte(text)), nil
	case "unhex":
		data, err := enc.DecodeHex(text)
		if err != nil {
			return "", err
		}
		return string(data), nil
	default:
		return "", fmt.Errorf("encoding: unknown operation %q", op)
	}
}

func invokeSysInfo(info sable.SystemInfo, op string) (string, error) {
	switch op {
	case "platform":
		return info.Platform(), nil
	case "arch":
		return info.Arch(), nil
	case "cpus":
		return strconv.Itoa(info.NumCPU()), nil
	case "pid":
		return strconv.Itoa(info.PID()), nil
	case "hostname":
		return info.Hostname()
	case "uptime":
		uptime, err := info.Uptime()
		if err != nil {
			return "", err
		}
		return uptime.Truncate(time.Second).String(), nil
	case "kernel":
		return info.KernelVersion()
	default:
		return "", fmt.Errorf("sys: unknown operation %q", op)
	}
}

func invokeClock(ctx context.Context, clock sable.Clock, op string, args []string) (string, error) {
	switch op {
	case "now":
		return clock.NowUTC().Format(time.RFC3339), nil
	case "unix":
		return strconv.FormatInt(clock.UnixMilli(), 10), nil
	case "format":
		if len(args) < 1 {
			return "", fmt.Errorf("usage: time format <unix-ms> [layout] [zone]")
		}
		ms, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return "", fmt.Errorf("time format: %q is not a millisecond timestamp", args[0])
		}
		layout, zone := "", ""
		if len(args) > 1 {
			layout = args[1]
		}
		if len(args) > 2 {
			zone = args[2]
		}
		return clock.Format(ms, layout, zone)
	case "sleep":
		if len(args) != 1 {
			return "", fmt.Errorf("usage: time sleep <duration>")
		}
		d, err := time.ParseDuration(args[0])
		if err != nil {
			return "", fmt.Errorf("time sleep: %w", err)
		}
		if err := clock.Sleep(ctx, d); err != nil {
			return "", err
		}
		return "(slept " + d.String() + ")", nil
	default:
		return "", fmt.Errorf("time: unknown operation %q", op)
	}
}

func invokeFS(ctx context.Context, fsys sable.FileSystem, op string, args []string) (string, error) {
	switch op {
	case "read":
		if len(args) != 1 {
			return "", fmt.Errorf("usage: fs read <path>")
		}
		return fsys.ReadTextFile(ctx, args[0])
	case "stat":
		if len(args) != 1 {
			return "", fmt.Errorf("usage: fs stat <path>")
		}
		info, err := fsys.Stat(ctx, args[0])
		if err != nil {
			return "", err
		}
		kind := "file"
		if info.IsDir {
			kind = "dir"
		}
		return fmt.Sprintf("%s %s %d bytes %s", kind, info.Path, info.Size, info.ModTime.Format(time.RFC3339)), nil
	case "ls":
		path := "."
		if len(args) > 0 {
			path = args[0]
		}
		entries, err := fsys.ReadDir(ctx, path)
		if err != nil {
			return "", err
		}
		names := make([]string, 0, len(entries))
		for _, entry := range entries {
			name := entry.Name
			if entry.IsDir {
				name += "/"
			}
			names = append(names, name)
		}
		sort.Strings(names)
		return strings.Join(names, "\n"), nil
	case "glob":
		if len(args) != 1 {
			return "", fmt.Errorf("usage: fs glob <pattern>")
		}
		matches, err := fsys.Glob(ctx, args[0])
		if err != nil {
			return "", err
		}
		return strings.Join(matches, "\n"), nil
	case "exists":
		if len(args) != 1 {
			return "", fmt.Errorf("usage: fs exists <path>")
		}
		ok, err := fsys.Exists(ctx, args[0])
		if err != nil {
			return "", err
		}
		return strconv.FormatBool(ok), nil
	case "hash":
		if len(args) != 2 {
			return "", fmt.Errorf("usage: fs hash <path> <md5|sha1|sha256>")
		}
		return fsys.Hash(ctx, args[0], args[1])
	case "write":
		if len(args) < 2 {
			return "", fmt.Errorf("usage: fs write <path> <text>")
		}
		if err := fsys.WriteFile(ctx, args[0], []byte(strings.Join(args[1:], " "))); err != nil {
			return "", err
		}
		return "(written)", nil
	default:
		return "", fmt.Errorf("fs: unknown operation %q", op)
	}
}

const shellHelp = `commands:
  globals                    list bound capability globals
  console log|warn|error|debug <msg>
  env get|has <name> | env keys
  sys platform|arch|cpus|pid|hostname|uptime|kernel
  time now|unix | time format <ms> [layout] [zone] | time sleep <dur>
  encoding base64|unbase64|hex|unhex <text>
  fs read|stat|ls|glob|exists <path> | fs hash <path> <algo> | fs write <path> <text>
  help                       this message`
