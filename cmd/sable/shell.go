package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/sablescript/sable/sable"
)

func shellCommand(args []string) error {
	flags, err := parseHostFlags("shell", args)
	if err != nil {
		return err
	}
	host, err := buildHost(flags)
	if err != nil {
		return err
	}
	if err := host.Bootstrap(context.Background()); err != nil {
		return err
	}

	program := tea.NewProgram(newShellModel(host))
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("shell failed: %w", err)
	}
	return nil
}

type historyEntry struct {
	input  string
	output string
	isErr  bool
}

type shellModel struct {
	textInput  textinput.Model
	host       *sable.Host
	history    []historyEntry
	cmdHistory []string
	historyIdx int
	width      int
	height     int
	quitting   bool
}

type keyMap struct {
	Up    key.Binding
	Down  key.Binding
	Enter key.Binding
	CtrlC key.Binding
	CtrlD key.Binding
	CtrlL key.Binding
}

var keys = keyMap{
	Up: key.NewBinding(
		key.WithKeys("up"),
		key.WithHelp("↑", "previous command"),
	),
	Down: key.NewBinding(
		key.WithKeys("down"),
		key.WithHelp("↓", "next command"),
	),
	Enter: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "execute"),
	),
	CtrlC: key.NewBinding(
		key.WithKeys("ctrl+c"),
		key.WithHelp("ctrl+c", "quit"),
	),
	CtrlD: key.NewBinding(
		key.WithKeys("ctrl+d"),
		key.WithHelp("ctrl+d", "quit"),
	),
	CtrlL: key.NewBinding(
		key.WithKeys("ctrl+l"),
		key.WithHelp("ctrl+l", "clear"),
	),
}

func newShellModel(host *sable.Host) shellModel {
	ti := textinput.New()
	ti.Placeholder = "type a capability command, 'help' to list them..."
	ti.Focus()
	ti.CharLimit = 500
	ti.Width = 60
	ti.PromptStyle = promptStyle
	ti.Prompt = "sable> "

	return shellModel{
		textInput:  ti,
		host:       host,
		history:    make([]historyEntry, 0),
		cmdHistory: make([]string, 0),
		historyIdx: -1,
	}
}

func (m shellModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m shellModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.textInput.Width = msg.Width - 10
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.CtrlC), key.Matches(msg, keys.CtrlD):
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, keys.CtrlL):
			m.history = make([]historyEntry, 0)
			return m, nil

		case key.Matches(msg, keys.Up):
			if len(m.cmdHistory) > 0 {
				if m.historyIdx == -1 {
					m.historyIdx = len(m.cmdHistory) - 1
				} else if m.historyIdx > 0 {
					m.historyIdx--
				}
				m.textInput.SetValue(m.cmdHistory[m.historyIdx])
				m.textInput.CursorEnd()
			}
			return m, nil

		case key.Matches(msg, keys.Down):
			if m.historyIdx != -1 {
				if m.historyIdx < len(m.cmdHistory)-1 {
					m.historyIdx++
					m.textInput.SetValue(m.cmdHistory[m.historyIdx])
				} else {
					m.historyIdx = -1
					m.textInput.SetValue("")
				}
				m.textInput.CursorEnd()
			}
			return m, nil

		case key.Matches(msg, keys.Enter):
			input := strings.TrimSpace(m.textInput.Value())
			if input == "" {
				return m, nil
			}
			if input == "quit" || input == "exit" {
				m.quitting = true
				return m, tea.Quit
			}

			output, isErr := evaluate(context.Background(), m.host, input)
			m.history = append(m.history, historyEntry{input: input, output: output, isErr: isErr})
			m.cmdHistory = append(m.cmdHistory, input)
			m.textInput.SetValue("")
			m.historyIdx = -1
			return m, nil
		}
	}

	m.textInput, cmd = m.textInput.Update(msg)
	return m, cmd
}

func (m shellModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render("sable capability shell"))
	b.WriteString(mutedStyle.Render("  (help, ctrl+l clear, ctrl+c quit)"))
	b.WriteString("\n\n")

	for _, entry := range m.history {
		if entry.input != "" {
			b.WriteString(promptStyle.Render("sable> "))
			b.WriteString(entry.input)
			b.WriteString("\n")
		}
		if entry.output != "" {
			style := resultStyle
			if entry.isErr {
				style = errorStyle
			}
			b.WriteString(indentLines(style.Render(entry.output), "  "))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(m.textInput.View())
	b.WriteString("\n")
	return b.String()
}
