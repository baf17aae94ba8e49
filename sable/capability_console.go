package sable

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
)

// Console exposes host console output to guest code. All operations are
// synchronous and CPU-bounded; they never suspend. Construction never
// fails, and the only failure mode per operation is a wrapped write error
// from the underlying stream.
type Console interface {
	Module
	Log(msg string) error
	Warn(msg string) error
	Error(msg string) error
	Debug(msg string) error
}

// ConsoleConfig controls where console output goes. Nil writers default to
// the process stdout/stderr.
type ConsoleConfig struct {
	Stdout io.Writer
	Stderr io.Writer

	// ForceColor overrides TTY detection when non-nil.
	ForceColor *bool
}

// NewConsoleCapability constructs the console capability. Severity labels
// are colorized only when the destination is a terminal.
func NewConsoleCapability(cfg ConsoleConfig) (Console, error) {
	if cfg.Stdout == nil {
		cfg.Stdout = os.Stdout
	}
	if cfg.Stderr == nil {
		cfg.Stderr = os.Stderr
	}
	color := writerIsTerminal(cfg.Stdout) && writerIsTerminal(cfg.Stderr)
	if cfg.ForceColor != nil {
		color = *cfg.ForceColor
	}
	return &consoleModule{stdout: cfg.Stdout, stderr: cfg.Stderr, color: color}, nil
}

// MustNewConsoleCapability constructs the console capability or panics.
func MustNewConsoleCapability(cfg ConsoleConfig) Console {
	console, err := NewConsoleCapability(cfg)
	if err != nil {
		panic(err)
	}
	return console
}

type consoleModule struct {
	stdout io.Writer
	stderr io.Writer
	color  bool
}

func (c *consoleModule) ModuleName() string { return "console" }

func (c *consoleModule) Log(msg string) error {
	return c.writeLine("log", c.stdout, "", msg)
}

func (c *consoleModule) Warn(msg string) error {
	return c.writeLine("warn", c.stdout, c.label("warn", ansiYellow), msg)
}

func (c *consoleModule) Error(msg string) error {
	return c.writeLine("error", c.stderr, c.label("error", ansiRed), msg)
}

func (c *consoleModule) Debug(msg string) error {
	return c.writeLine("debug", c.stderr, c.label("debug", ansiDim), msg)
}

func (c *consoleModule) writeLine(op string, w io.Writer, label, msg string) error {
	var err error
	if label == "" {
		_, err = fmt.Fprintln(w, msg)
	} else {
		_, err = fmt.Fprintf(w, "%s %s\n", label, msg)
	}
	if err != nil {
		return fmt.Errorf("console.%s: %w", op, err)
	}
	return nil
}

const (
	ansiYellow = "\x1b[33m"
	ansiRed    = "\x1b[31m"
	ansiDim    = "\x1b[2m"
	ansiReset  = "\x1b[0m"
)

func (c *consoleModule) label(text, code string) string {
	if !c.color {
		return "[" + text + "]"
	}
	return code + "[" + text + "]" + ansiReset
}

func writerIsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
