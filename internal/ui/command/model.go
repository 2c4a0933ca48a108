// Package command implements the ':' palette over the mailbox command
// vocabulary: folder jumps, compose, trash maintenance, refresh, and
// session commands.
package command

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/modernmail/mmail/internal/model"
	"github.com/modernmail/mmail/internal/theme"
)

// CommandMsg is emitted when the user executes a command. The value is
// always one of the canonical command names; unknown input never leaves
// the palette.
type CommandMsg string

// entry is one command the palette understands.
type entry struct {
	name string
	desc string
}

// vocabulary lists every palette command. Folder jumps come first, in
// sidebar order.
func vocabulary() []entry {
	entries := make([]entry, 0, len(model.Folders)+5)
	for _, f := range model.Folders {
		entries = append(entries, entry{
			name: string(f),
			desc: "jump to " + f.Label(),
		})
	}
	return append(entries,
		entry{name: "compose", desc: "write a new mail"},
		entry{name: "empty-trash", desc: "permanently delete everything in Trash"},
		entry{name: "refresh", desc: "reload the current folder from the server"},
		entry{name: "logout", desc: "sign out and forget the saved session"},
		entry{name: "quit", desc: "exit"},
	)
}

// Model is the command palette view.
type Model struct {
	input   textinput.Model
	entries []entry
	errText string
	width   int
	height  int
}

// New creates a new command palette model.
func New(width, height int) Model {
	ti := textinput.New()
	ti.Placeholder = "type a command, tab to complete..."
	ti.Prompt = ": "
	ti.Focus()
	ti.Width = width - 6

	return Model{
		input:   ti,
		entries: vocabulary(),
		width:   width,
		height:  height,
	}
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages for the command palette.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "tab":
			if matched := m.matches(m.input.Value()); len(matched) > 0 {
				m.input.SetValue(matched[0].name)
				m.input.CursorEnd()
			}
			return m, nil

		case "enter":
			typed := strings.TrimSpace(m.input.Value())
			if typed == "" {
				return m, nil
			}

			name, ok := m.resolve(typed)
			if !ok {
				m.errText = fmt.Sprintf("Unknown command: %s", typed)
				return m, nil
			}

			m.input.Reset()
			m.errText = ""
			return m, func() tea.Msg {
				return CommandMsg(name)
			}
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	// Typing again dismisses a validation error; cursor blinks do not.
	if _, ok := msg.(tea.KeyMsg); ok {
		m.errText = ""
	}
	return m, cmd
}

// matches returns the vocabulary entries whose name starts with the typed
// prefix, the whole vocabulary for empty input.
func (m Model) matches(typed string) []entry {
	typed = strings.ToLower(strings.TrimSpace(typed))

	var matched []entry
	for _, e := range m.entries {
		if strings.HasPrefix(e.name, typed) {
			matched = append(matched, e)
		}
	}
	return matched
}

// resolve maps typed input to a canonical command name: an exact match
// wins, otherwise an unambiguous prefix.
func (m Model) resolve(typed string) (string, bool) {
	typed = strings.ToLower(strings.TrimSpace(typed))

	matched := m.matches(typed)
	for _, e := range matched {
		if e.name == typed {
			return e.name, true
		}
	}
	if len(matched) == 1 {
		return matched[0].name, true
	}
	return "", false
}

// View renders the palette with the commands matching the current input.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	parts := []string{
		titleStyle.Render("Command"),
		m.input.View(),
	}

	if m.errText != "" {
		parts = append(parts, lipgloss.NewStyle().
			Foreground(theme.ColorRed).
			Render(m.errText))
	}

	nameStyle := lipgloss.NewStyle().Foreground(theme.ColorBlue).Bold(true)
	for _, e := range m.matches(m.input.Value()) {
		parts = append(parts, fmt.Sprintf("  %s  %s",
			nameStyle.Render(fmt.Sprintf("%-12s", e.name)),
			theme.DimmedStyle.Render(e.desc)))
	}

	content := lipgloss.JoinVertical(lipgloss.Left, parts...)

	return theme.ViewerPanelStyle.
		Width(m.width - 4).
		Render(content)
}

// SetSize updates the command palette dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.input.Width = width - 6
}

// Focus gives keyboard focus to the text input.
func (m *Model) Focus() tea.Cmd {
	return m.input.Focus()
}
