package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

func main() {
	if err := runCLI(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runCLI(args []string) error {
	if len(args) < 2 {
		return usageError()
	}
	switch args[1] {
	case "caps":
		return capsCommand(args[2:])
	case "shell":
		return shellCommand(args[2:])
	case "help", "-h", "--help":
		printUsage()
		return nil
	default:
		return usageError()
	}
}

func usageError() error {
	printUsage()
	return errors.New("invalid command")
}

func printUsage() {
	prog := filepath.Base(os.Args[0])
	fmt.Fprintf(os.Stderr, "Usage: %s <command> [flags]\n", prog)
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  caps   bootstrap the capability layer and list the guest-visible bindings")
	fmt.Fprintln(os.Stderr, "  shell  interactive capability shell (invoke operations as a guest would)")
	fmt.Fprintln(os.Stderr, "Flags (caps and shell):")
	fmt.Fprintln(os.Stderr, "  -manifest <file.hcl>")
	fmt.Fprintln(os.Stderr, "    bootstrap manifest (defaults to the built-in one)")
	fmt.Fprintln(os.Stderr, "  -root <dir>")
	fmt.Fprintln(os.Stderr, "    filesystem capability root (default \".\")")
	fmt.Fprintln(os.Stderr, "  -allow-write")
	fmt.Fprintln(os.Stderr, "    enable fs.write_file (default read-only)")
}

type flagErrorSink struct{}

func (flagErrorSink) Write(p []byte) (int, error) {
	return len(p), nil
}
