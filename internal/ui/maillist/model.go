package maillist

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/modernmail/mmail/internal/keys"
	"github.com/modernmail/mmail/internal/mailbox"
	"github.com/modernmail/mmail/internal/model"
	"github.com/modernmail/mmail/internal/theme"
)

// MailsLoadedMsg is sent when a folder listing has been fetched.
type MailsLoadedMsg struct {
	Folder model.Folder
	Err    error
}

// SelectedMailMsg is sent when the user opens a mail from the list.
type SelectedMailMsg struct {
	MailID string
}

// Model is the folder listing view component.
type Model struct {
	list        list.Model
	store       mailbox.Actions
	keys        *keys.KeyMap
	query       string
	searchMode  bool
	searchInput textinput.Model
	width       int
	height      int
}

// New creates a new mail list model.
func New(s mailbox.Actions, k *keys.KeyMap, width, height int) Model {
	l := list.New([]list.Item{}, ItemDelegate{}, width, height-2)
	l.Title = model.FolderInbox.Label()
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle

	si := textinput.New()
	si.Placeholder = "search subject, body, sender..."
	si.Prompt = "/ "
	si.Width = width - 4

	return Model{
		list:        l,
		store:       s,
		keys:        k,
		searchInput: si,
		width:       width,
		height:      height,
	}
}

// Init returns a command that loads the current folder.
func (m Model) Init() tea.Cmd {
	return m.LoadMails(m.store.Folder())
}

// Update handles messages for the mail list view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case MailsLoadedMsg:
		m.list.Title = m.store.Folder().Label()
		cmd := m.syncItems()
		return m, cmd

	case tea.KeyMsg:
		if m.searchMode {
			return m.handleSearchKeys(msg)
		}
		return m.handleNormalKeys(msg)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// handleSearchKeys processes key input while in search mode.
func (m Model) handleSearchKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.searchMode = false
		m.query = m.searchInput.Value()
		return m, m.syncItems()

	case "esc":
		m.searchMode = false
		m.searchInput.Reset()
		m.query = ""
		return m, m.syncItems()
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	return m, cmd
}

// handleNormalKeys processes key input in normal (non-search) mode.
func (m Model) handleNormalKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Select):
		item, ok := m.list.SelectedItem().(MailItem)
		if !ok {
			return m, nil
		}
		return m, func() tea.Msg {
			return SelectedMailMsg{MailID: item.Mail.ID}
		}

	case key.Matches(msg, m.keys.Search):
		m.searchMode = true
		m.searchInput.Reset()
		return m, m.searchInput.Focus()
	}

	// Delegate to the list for navigation keys (up/down/pgup/pgdn)
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// InSearchMode reports whether the search input currently has focus.
func (m Model) InSearchMode() bool {
	return m.searchMode
}

// SelectedMail returns the mail under the cursor, if any.
func (m Model) SelectedMail() (model.Mail, bool) {
	item, ok := m.list.SelectedItem().(MailItem)
	if !ok {
		return model.Mail{}, false
	}
	return item.Mail, true
}

// View renders the mail list view.
func (m Model) View() string {
	if m.searchMode {
		searchBar := lipgloss.NewStyle().
			Foreground(theme.ColorWhite).
			Padding(0, 1).
			Render(m.searchInput.View())
		return lipgloss.JoinVertical(lipgloss.Left, searchBar, m.list.View())
	}

	if m.store.Loading() {
		return lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray).
			Render("Loading " + m.store.Folder().Label() + "...")
	}

	if len(m.list.Items()) == 0 {
		return m.renderEmptyState()
	}

	return m.list.View()
}

// renderEmptyState shows guidance text when the folder has no mail.
func (m Model) renderEmptyState() string {
	style := lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray)

	if m.query != "" {
		return style.Render("No matching mail.\nPress / to change the search, esc to clear.")
	}

	return style.Render(m.store.Folder().Label() + " is empty.")
}

// LoadMails returns a tea.Cmd that fetches the given folder's listing.
func (m Model) LoadMails(folder model.Folder) tea.Cmd {
	s := m.store
	return func() tea.Msg {
		_, err := s.FetchMails(context.Background(), folder)
		return MailsLoadedMsg{Folder: folder, Err: err}
	}
}

// syncItems rebuilds the visible items from the store listing, applying the
// client-side search filter over subject, body, and sender.
func (m *Model) syncItems() tea.Cmd {
	folder := m.store.Folder()
	mails := m.store.Mails()

	items := make([]list.Item, 0, len(mails))
	lower := strings.ToLower(m.query)
	for _, mail := range mails {
		if lower != "" && !matchesQuery(mail, lower) {
			continue
		}
		items = append(items, MailItem{Mail: mail, Folder: folder})
	}

	m.list.Title = folder.Label()
	return m.list.SetItems(items)
}

// matchesQuery reports whether the mail matches the lowercased query.
func matchesQuery(mail model.Mail, lower string) bool {
	return strings.Contains(strings.ToLower(mail.Subject), lower) ||
		strings.Contains(strings.ToLower(mail.Body), lower) ||
		strings.Contains(strings.ToLower(mail.From), lower)
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-2)
	m.searchInput.Width = width - 4
}
