package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/sablescript/sable/sable"
)

type hostFlags struct {
	manifestPath string
	root         string
	allowWrite   bool
}

func parseHostFlags(name string, args []string) (hostFlags, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(new(flagErrorSink))
	var flags hostFlags
	fs.StringVar(&flags.manifestPath, "manifest", "", "bootstrap manifest file")
	fs.StringVar(&flags.root, "root", ".", "filesystem capability root")
	fs.BoolVar(&flags.allowWrite, "allow-write", false, "enable fs.write_file")
	if err := fs.Parse(args); err != nil {
		return hostFlags{}, err
	}
	return flags, nil
}

func buildHost(flags hostFlags) (*sable.Host, error) {
	cfg := sable.Config{
		FSRoot:     flags.root,
		FSReadOnly: !flags.allowWrite,
	}
	if flags.manifestPath != "" {
		manifest, err := sable.LoadManifest(flags.manifestPath)
		if err != nil {
			return nil, err
		}
		cfg.Manifest = manifest
	}
	return sable.NewHost(cfg)
}

func capsCommand(args []string) error {
	flags, err := parseHostFlags("caps", args)
	if err != nil {
		return err
	}
	host, err := buildHost(flags)
	if err != nil {
		return err
	}

	bootErr := host.Bootstrap(context.Background())
	renderCaps(os.Stdout, host, bootErr)
	if bootErr != nil {
		return errors.New("bootstrap incomplete")
	}
	return nil
}

func renderCaps(w io.Writer, host *sable.Host, bootErr error) {
	fmt.Fprintln(w, headerStyle.Render("sable capability bindings"))

	names := host.Globals().Names()
	if len(names) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("  (none bound)"))
	}
	for _, name := range names {
		mod, ok := host.Globals().Lookup(name)
		if !ok {
			continue
		}
		specifier := specifierFor(host, mod)
		fmt.Fprintf(w, "  %s %s %s\n",
			resultStyle.Render(name),
			mutedStyle.Render("<-"),
			specifier)
	}

	if bootErr != nil {
		fmt.Fprintln(w, errorStyle.Render("  "+bootErr.Error()))
	}
}

func specifierFor(host *sable.Host, mod sable.Module) string {
	for _, spec := range host.Registry().Specifiers() {
		if cached, ok := host.Registry().Resolved(spec); ok && cached == mod {
			return spec
		}
	}
	return mod.ModuleName()
}

var (
	accentColor  = lipgloss.Color("#3B82F6")
	successColor = lipgloss.Color("#10B981")
	errorColor   = lipgloss.Color("#EF4444")
	mutedColor   = lipgloss.Color("#6B7280")

	headerStyle = lipgloss.NewStyle().
			Foreground(accentColor).
			Bold(true)

	resultStyle = lipgloss.NewStyle().
			Foreground(successColor)

	errorStyle = lipgloss.NewStyle().
			Foreground(errorColor)

	mutedStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	promptStyle = lipgloss.NewStyle().
			Foreground(accentColor).
			Bold(true)
)

func indentLines(text, prefix string) string {
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	for idx, line := range lines {
		lines[idx] = prefix + line
	}
	return strings.Join(lines, "\n")
}
