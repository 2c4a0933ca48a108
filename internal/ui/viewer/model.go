package viewer

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/microcosm-cc/bluemonday"

	"github.com/modernmail/mmail/internal/eml"
	"github.com/modernmail/mmail/internal/keys"
	"github.com/modernmail/mmail/internal/mailbox"
	"github.com/modernmail/mmail/internal/model"
	"github.com/modernmail/mmail/internal/theme"
)

// BackMsg signals the parent to navigate back to the list view.
type BackMsg struct{}

// MailLoadedMsg carries the result of a detail fetch.
type MailLoadedMsg struct {
	Err error
}

// DeleteRequestMsg asks the parent to delete the open mail.
type DeleteRequestMsg struct {
	MailID string
}

// RestoreRequestMsg asks the parent to restore the open mail from trash.
type RestoreRequestMsg struct {
	MailID string
}

// EditDraftMsg asks the parent to open the composer on the given draft.
type EditDraftMsg struct {
	Draft model.Mail
}

// ExportedMsg reports the outcome of a save-as-.eml.
type ExportedMsg struct {
	Path string
	Err  error
}

// stripTags reduces HTML bodies to plain text for terminal rendering.
var stripTags = bluemonday.StrictPolicy()

// Model is the mail detail view component.
type Model struct {
	store    mailbox.Actions
	viewport viewport.Model
	keys     *keys.KeyMap
	width    int
	height   int
	loading  bool
}

// New creates a new viewer model.
func New(s mailbox.Actions, k *keys.KeyMap, width, height int) Model {
	vp := viewport.New(width, height-2)
	vp.Style = lipgloss.NewStyle()

	return Model{
		store:    s,
		viewport: vp,
		keys:     k,
		width:    width,
		height:   height,
	}
}

// Init returns the initial command for the viewer.
func (m Model) Init() tea.Cmd {
	return nil
}

// SetLoading toggles the loading indicator while a detail fetch runs.
func (m *Model) SetLoading(loading bool) {
	m.loading = loading
}

// Update handles messages for the viewer.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case MailLoadedMsg:
		m.loading = false
		m.viewport.SetContent(m.renderContent())
		m.viewport.GotoTop()
		return m, nil

	case tea.KeyMsg:
		mail := m.store.Selected()

		switch {
		case key.Matches(msg, m.keys.Back):
			return m, func() tea.Msg { return BackMsg{} }

		case key.Matches(msg, m.keys.Delete):
			if mail != nil && m.store.Folder() != model.FolderTrash {
				id := mail.ID
				return m, func() tea.Msg { return DeleteRequestMsg{MailID: id} }
			}

		case key.Matches(msg, m.keys.Restore):
			if mail != nil && m.store.Folder() == model.FolderTrash {
				id := mail.ID
				return m, func() tea.Msg { return RestoreRequestMsg{MailID: id} }
			}

		case key.Matches(msg, m.keys.EditDraft):
			if mail != nil && m.store.Folder() == model.FolderDrafts {
				draft := *mail
				return m, func() tea.Msg { return EditDraftMsg{Draft: draft} }
			}

		case key.Matches(msg, m.keys.Export):
			if mail != nil {
				return m, exportMail(*mail)
			}
		}
	}

	// Delegate to viewport for scrolling (j/k, up/down, pgup/pgdn)
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// exportMail returns a command that writes the mail to an .eml file in the
// user's download directory.
func exportMail(mail model.Mail) tea.Cmd {
	return func() tea.Msg {
		dir := "."
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, "Downloads")
		}
		path, err := eml.Export(dir, mail)
		return ExportedMsg{Path: path, Err: err}
	}
}

// View renders the viewer.
func (m Model) View() string {
	if m.loading {
		return lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray).
			Render("Loading mail...")
	}

	if m.store.Selected() == nil {
		return lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray).
			Render("Select a mail to preview")
	}

	return m.viewport.View()
}

// renderContent builds the full mail text for the viewport.
func (m Model) renderContent() string {
	mail := m.store.Selected()
	if mail == nil {
		return ""
	}

	labelStyle := theme.DimmedStyle
	var sb strings.Builder

	subject := mail.Subject
	if subject == "" {
		subject = "(No subject)"
	}
	sb.WriteString(lipgloss.NewStyle().Bold(true).
		Foreground(theme.ColorWhite).Render(subject))
	sb.WriteString("\n\n")

	sb.WriteString(labelStyle.Render("From: "))
	sb.WriteString(mail.From)
	sb.WriteString("\n")
	sb.WriteString(labelStyle.Render("To:   "))
	sb.WriteString(mail.To)
	sb.WriteString("\n")
	if mail.Cc != "" {
		sb.WriteString(labelStyle.Render("Cc:   "))
		sb.WriteString(mail.Cc)
		sb.WriteString("\n")
	}
	if !mail.CreatedAt.IsZero() {
		sb.WriteString(labelStyle.Render("Date: "))
		sb.WriteString(mail.CreatedAt.Format("Mon, 02 Jan 2006 15:04"))
		sb.WriteString("\n")
	}
	if mail.IsScheduled && mail.ScheduledAt != nil {
		sb.WriteString(theme.FolderStyle("scheduled").Render("scheduled"))
		sb.WriteString(" for " + mail.ScheduledAt.Format("Mon, 02 Jan 2006 15:04"))
		sb.WriteString("\n")
	}

	if len(mail.Attachments) > 0 {
		sb.WriteString("\n")
		sb.WriteString(labelStyle.Render("Attachments:"))
		sb.WriteString("\n")
		for _, a := range mail.Attachments {
			sb.WriteString(fmt.Sprintf("  %s (%s)\n", a.FileName, humanSize(a.FileSize)))
		}
	}

	sb.WriteString("\n")
	sb.WriteString(bodyText(*mail))
	return sb.String()
}

// bodyText prefers the plain body and falls back to the sanitized HTML
// body; markup is stripped, never rendered.
func bodyText(mail model.Mail) string {
	if strings.TrimSpace(mail.Body) != "" {
		return mail.Body
	}
	if mail.HTMLBody != "" {
		return strings.TrimSpace(stripTags.Sanitize(mail.HTMLBody))
	}
	return "No content"
}

// humanSize formats a byte count for display.
func humanSize(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}

// SetSize updates the viewer dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height - 2
}

// Refresh re-renders the viewport content from the store selection.
func (m *Model) Refresh() {
	m.viewport.SetContent(m.renderContent())
}
