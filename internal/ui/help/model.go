// Package help renders the key reference, grouped by what the keys do to
// the mailbox rather than as a flat binding dump.
package help

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/modernmail/mmail/internal/keys"
	"github.com/modernmail/mmail/internal/model"
	"github.com/modernmail/mmail/internal/theme"
)

// section groups bindings under a mailbox concern.
type section struct {
	title string
	binds []key.Binding
}

// Model is the help overlay view.
type Model struct {
	sections []section
	width    int
	height   int
}

// New creates a new help view model.
func New(k *keys.KeyMap, width, height int) Model {
	return Model{
		sections: []section{
			{
				title: "Navigate",
				binds: []key.Binding{k.Up, k.Down, k.Select, k.Back, k.Quit},
			},
			{
				title: "Folders",
				binds: []key.Binding{
					k.FolderInbox, k.FolderSent, k.FolderDrafts,
					k.FolderScheduled, k.FolderTrash,
				},
			},
			{
				title: "Mail",
				binds: []key.Binding{
					k.Compose, k.Delete, k.Restore, k.EditDraft,
					k.Export, k.EmptyTrash,
				},
			},
			{
				title: "Find and control",
				binds: []key.Binding{k.Search, k.Command, k.Refresh, k.Help},
			},
		},
		width:  width,
		height: height,
	}
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the help view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	return m, nil
}

// View renders the key reference.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)
	sectionStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorBlue)
	keyStyle := lipgloss.NewStyle().
		Foreground(theme.ColorYellow)

	var sb strings.Builder
	sb.WriteString(titleStyle.Render("Keyboard Reference"))
	sb.WriteString("\n")

	for _, sec := range m.sections {
		sb.WriteString("\n")
		sb.WriteString(sectionStyle.Render(sec.title))
		sb.WriteString("\n")
		for _, b := range sec.binds {
			h := b.Help()
			desc := h.Desc
			// Folder rows carry the folder's sidebar color.
			if f := model.Folder(h.Desc); f.Valid() {
				desc = theme.FolderStyle(string(f)).Render(f.Label())
			}
			sb.WriteString(fmt.Sprintf("  %s %s\n",
				keyStyle.Render(fmt.Sprintf("%-8s", h.Key)), desc))
		}
	}

	sb.WriteString("\n")
	sb.WriteString(theme.HelpStyle.Render("Folder keys work from the list and an open mail."))

	return theme.ViewerPanelStyle.
		Width(m.width - 4).
		Height(m.height - 4).
		Render(sb.String())
}

// SetSize updates the help view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}
