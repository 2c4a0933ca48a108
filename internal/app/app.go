package app

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/modernmail/mmail/internal/contacts"
	"github.com/modernmail/mmail/internal/keys"
	"github.com/modernmail/mmail/internal/mailbox"
	"github.com/modernmail/mmail/internal/model"
	"github.com/modernmail/mmail/internal/ui"
	"github.com/modernmail/mmail/internal/ui/command"
	"github.com/modernmail/mmail/internal/ui/compose"
	helpview "github.com/modernmail/mmail/internal/ui/help"
	"github.com/modernmail/mmail/internal/ui/login"
	"github.com/modernmail/mmail/internal/ui/maillist"
	"github.com/modernmail/mmail/internal/ui/viewer"
)

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewLogin ViewState = iota
	ViewList
	ViewDetail
	ViewCompose
	ViewHelp
	ViewCommand
)

// authResultMsg carries the outcome of a sign-in or registration attempt.
type authResultMsg struct {
	err error
}

// loggedOutMsg signals that the session has been cleared.
type loggedOutMsg struct {
	err error
}

// actionResultMsg carries the outcome of a list-level mutation such as
// delete, restore, or empty trash.
type actionResultMsg struct {
	info string
	err  error
}

// suggestionsMsg carries recipient autocomplete candidates from the local
// contacts database.
type suggestionsMsg struct {
	emails []string
}

// contactsRecordedMsg signals that recipients of a sent mail have been
// written to the contacts database.
type contactsRecordedMsg struct{}

// Model is the root Bubble Tea model that manages view routing, layout,
// and access to the mailbox store.
type Model struct {
	currentView  ViewState
	previousView ViewState
	layout       ui.Layout
	store        mailbox.Actions
	contacts     *contacts.Store
	keys         *keys.KeyMap
	log          zerolog.Logger

	loginView   login.Model
	mailList    maillist.Model
	mailViewer  viewer.Model
	composeView compose.Model
	helpView    helpview.Model
	commandView command.Model

	ready      bool
	statusText string
	statusErr  string
}

// New creates the root application model. The contacts store may be nil
// when the local database could not be opened; recipient suggestions are
// then simply disabled.
func New(s mailbox.Actions, c *contacts.Store, log zerolog.Logger) Model {
	k := keys.DefaultKeyMap()

	view := ViewLogin
	if s.Authenticated() {
		view = ViewList
	}

	return Model{
		currentView: view,
		store:       s,
		contacts:    c,
		keys:        k,
		log:         log,
		loginView:   login.New(80, 24),
		mailList:    maillist.New(s, k, 80, 24),
		mailViewer:  viewer.New(s, k, 80, 24),
		composeView: compose.New(s, 80, 24),
		helpView:    helpview.New(k, 80, 24),
		commandView: command.New(80, 24),
	}
}

// Init loads the inbox when a session was restored, otherwise it shows
// the sign-in form.
func (m Model) Init() tea.Cmd {
	if m.currentView == ViewList {
		return tea.Batch(m.mailList.Init(), m.loadSuggestions())
	}
	return m.loginView.Start()
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		contentWidth := m.layout.ContentWidth()
		contentHeight := m.layout.ContentHeight()
		m.loginView.SetSize(contentWidth, contentHeight)
		m.mailList.SetSize(contentWidth, contentHeight)
		m.mailViewer.SetSize(contentWidth, contentHeight)
		m.composeView.SetSize(contentWidth, contentHeight)
		m.helpView.SetSize(contentWidth, contentHeight)
		m.commandView.SetSize(contentWidth, contentHeight)
		// Forward to active view so huh forms can calculate their layout.
		return m.updateActiveView(msg)

	case login.AuthSubmitMsg:
		return m, m.authenticate(msg.Mode, msg.Credentials)

	case authResultMsg:
		if msg.err != nil {
			return m, m.loginView.SetError(msg.err.Error())
		}
		m.currentView = ViewList
		m.statusErr = ""
		m.statusText = ""
		return m, tea.Batch(
			m.mailList.LoadMails(model.FolderInbox),
			m.loadSuggestions(),
		)

	case loggedOutMsg:
		if msg.err != nil {
			m.log.Warn().Err(msg.err).Msg("logout did not fully clear session")
		}
		m.currentView = ViewLogin
		m.statusText = ""
		m.statusErr = ""
		return m, m.loginView.Start()

	case maillist.MailsLoadedMsg:
		if msg.Err != nil {
			m.statusErr = msg.Err.Error()
		} else {
			m.statusErr = ""
		}
		var cmd tea.Cmd
		m.mailList, cmd = m.mailList.Update(msg)
		return m, cmd

	case maillist.SelectedMailMsg:
		m.previousView = m.currentView
		m.currentView = ViewDetail
		m.mailViewer.SetLoading(true)
		return m, m.loadMailDetail(msg.MailID)

	case viewer.MailLoadedMsg:
		if msg.Err != nil {
			m.statusErr = msg.Err.Error()
			m.currentView = ViewList
			m.mailViewer.SetLoading(false)
			return m, nil
		}
		m.statusErr = ""
		var cmd tea.Cmd
		m.mailViewer, cmd = m.mailViewer.Update(msg)
		return m, cmd

	case viewer.BackMsg:
		m.currentView = ViewList
		return m, nil

	case viewer.DeleteRequestMsg:
		return m, m.deleteMail(msg.MailID)

	case viewer.RestoreRequestMsg:
		return m, m.restoreMail(msg.MailID)

	case viewer.EditDraftMsg:
		return m.openComposer(&msg.Draft)

	case viewer.ExportedMsg:
		if msg.Err != nil {
			m.statusErr = "Failed to export mail"
		} else {
			m.statusErr = ""
			m.statusText = "Saved " + msg.Path
		}
		return m, nil

	case actionResultMsg:
		if msg.err != nil {
			m.statusErr = msg.err.Error()
			return m, nil
		}
		m.statusErr = ""
		m.statusText = msg.info
		if m.currentView == ViewDetail && m.store.Selected() == nil {
			m.currentView = ViewList
		}
		m.mailViewer.Refresh()
		return m, m.resyncList()

	case compose.MailSentMsg:
		if msg.Err == nil {
			m.store.ToggleCompose(boolPtr(false), nil)
			m.currentView = ViewList
			m.statusErr = ""
			m.statusText = "Mail sent"
			if msg.Mail != nil && msg.Mail.IsScheduled {
				m.statusText = "Mail scheduled"
			}
			cmds := []tea.Cmd{m.resyncList()}
			if msg.Mail != nil {
				cmds = append(cmds, m.recordContacts(*msg.Mail))
			}
			return m, tea.Batch(cmds...)
		}
		var cmd tea.Cmd
		m.composeView, cmd = m.composeView.Update(msg)
		return m, cmd

	case compose.DraftSavedMsg:
		if msg.Err == nil {
			m.statusErr = ""
			m.statusText = "Draft saved"
		}
		var cmd tea.Cmd
		m.composeView, cmd = m.composeView.Update(msg)
		return m, tea.Batch(cmd, m.resyncList())

	case compose.ComposeCancelMsg:
		m.store.ToggleCompose(boolPtr(false), nil)
		m.currentView = ViewList
		return m, nil

	case suggestionsMsg:
		m.composeView.SetSuggestions(msg.emails)
		return m, nil

	case contactsRecordedMsg:
		return m, nil

	case command.CommandMsg:
		m.currentView = m.previousView
		return m.executeCommand(string(msg))

	case tea.KeyMsg:
		if newModel, cmd, handled := m.handleGlobalKeys(msg); handled {
			return newModel, cmd
		}
	}

	return m.updateActiveView(msg)
}

// handleGlobalKeys processes keys that work across views. Text-entry views
// keep full control of their input.
func (m Model) handleGlobalKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit, true
	}

	// Views with focused inputs see every key themselves.
	if m.currentView == ViewLogin || m.currentView == ViewCompose ||
		m.currentView == ViewCommand {
		return m, nil, false
	}
	if m.currentView == ViewList && m.mailList.InSearchMode() {
		return m, nil, false
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		if m.currentView == ViewList {
			return m, tea.Quit, true
		}

	case key.Matches(msg, m.keys.Help):
		if m.currentView == ViewHelp {
			m.currentView = m.previousView
			return m, nil, true
		}
		m.previousView = m.currentView
		m.currentView = ViewHelp
		return m, nil, true

	case key.Matches(msg, m.keys.Command):
		m.previousView = m.currentView
		m.currentView = ViewCommand
		return m, m.commandView.Focus(), true

	case key.Matches(msg, m.keys.Back):
		if m.currentView == ViewHelp || m.currentView == ViewCommand {
			m.currentView = m.previousView
			return m, nil, true
		}

	case key.Matches(msg, m.keys.Refresh):
		if m.currentView == ViewList {
			return m, m.mailList.LoadMails(m.store.Folder()), true
		}

	case key.Matches(msg, m.keys.Compose):
		if m.currentView == ViewList {
			newModel, cmd := m.openComposer(nil)
			return newModel, cmd, true
		}

	case key.Matches(msg, m.keys.Delete):
		if m.currentView == ViewList && m.store.Folder() != model.FolderTrash {
			if mail, ok := m.mailList.SelectedMail(); ok {
				return m, m.deleteMail(mail.ID), true
			}
		}

	case key.Matches(msg, m.keys.Restore):
		if m.currentView == ViewList && m.store.Folder() == model.FolderTrash {
			if mail, ok := m.mailList.SelectedMail(); ok {
				return m, m.restoreMail(mail.ID), true
			}
		}

	case key.Matches(msg, m.keys.EditDraft):
		if m.currentView == ViewList && m.store.Folder() == model.FolderDrafts {
			if mail, ok := m.mailList.SelectedMail(); ok {
				newModel, cmd := m.openComposer(&mail)
				return newModel, cmd, true
			}
		}

	case key.Matches(msg, m.keys.EmptyTrash):
		if m.store.Folder() == model.FolderTrash {
			return m, m.emptyTrash(), true
		}

	case key.Matches(msg, m.keys.FolderInbox):
		return m.switchFolder(model.FolderInbox)
	case key.Matches(msg, m.keys.FolderSent):
		return m.switchFolder(model.FolderSent)
	case key.Matches(msg, m.keys.FolderDrafts):
		return m.switchFolder(model.FolderDrafts)
	case key.Matches(msg, m.keys.FolderScheduled):
		return m.switchFolder(model.FolderScheduled)
	case key.Matches(msg, m.keys.FolderTrash):
		return m.switchFolder(model.FolderTrash)
	}

	return m, nil, false
}

// switchFolder changes the active folder, clears the selection, and loads
// the listing.
func (m Model) switchFolder(folder model.Folder) (tea.Model, tea.Cmd, bool) {
	if m.currentView != ViewList && m.currentView != ViewDetail {
		return m, nil, false
	}
	m.currentView = ViewList
	m.statusText = ""
	m.store.SetFolder(folder)
	return m, m.mailList.LoadMails(folder), true
}

// openComposer opens the compose form, optionally pre-filled from a draft.
func (m Model) openComposer(draft *model.Mail) (tea.Model, tea.Cmd) {
	m.previousView = m.currentView
	m.currentView = ViewCompose
	m.store.ToggleCompose(boolPtr(true), draft)

	var cmd tea.Cmd
	if draft != nil {
		cmd = m.composeView.StartEdit(*draft)
	} else {
		cmd = m.composeView.StartNew()
	}
	return m, tea.Batch(cmd, m.loadSuggestions())
}

// executeCommand handles a command string from the command palette.
func (m Model) executeCommand(cmd string) (tea.Model, tea.Cmd) {
	if folder := model.Folder(cmd); folder.Valid() {
		m.currentView = ViewList
		m.store.SetFolder(folder)
		return m, m.mailList.LoadMails(folder)
	}

	switch cmd {
	case "compose", "new":
		return m.openComposer(nil)

	case "empty-trash":
		return m, m.emptyTrash()

	case "refresh":
		m.currentView = ViewList
		return m, m.mailList.LoadMails(m.store.Folder())

	case "logout":
		return m, m.logout()

	case "quit", "q":
		return m, tea.Quit

	default:
		m.statusErr = fmt.Sprintf("Unknown command: %s", cmd)
		return m, nil
	}
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewLogin:
		m.loginView, cmd = m.loginView.Update(msg)
	case ViewList:
		m.mailList, cmd = m.mailList.Update(msg)
	case ViewDetail:
		m.mailViewer, cmd = m.mailViewer.Update(msg)
	case ViewCompose:
		m.composeView, cmd = m.composeView.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	case ViewCommand:
		m.commandView, cmd = m.commandView.Update(msg)
	}

	return m, cmd
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	if m.currentView == ViewLogin {
		return m.loginView.View()
	}

	header := m.layout.RenderHeader("Modern Mail", m.headerContext())
	content := m.renderContent()

	hints := m.keyHints()
	isError := false
	if m.statusErr != "" {
		hints = m.statusErr
		isError = true
	} else if m.statusText != "" {
		hints = m.statusText
	}
	statusBar := m.layout.RenderStatusBar(hints, isError)

	return m.layout.RenderWithFrame(header, content, statusBar)
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewList:
		return m.mailList.View()
	case ViewDetail:
		return m.mailViewer.View()
	case ViewCompose:
		return m.composeView.View()
	case ViewHelp:
		return m.helpView.View()
	case ViewCommand:
		return m.commandView.View()
	default:
		return ""
	}
}

// headerContext returns the right-hand header text: the signed-in address
// and the active folder.
func (m Model) headerContext() string {
	user := m.store.User()
	if user == nil {
		return m.store.Folder().Label()
	}
	return fmt.Sprintf("%s | %s", user.Email, m.store.Folder().Label())
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	switch m.currentView {
	case ViewHelp:
		return "? close help | esc back"
	case ViewCommand:
		return ": close | enter execute | esc back"
	case ViewDetail:
		switch m.store.Folder() {
		case model.FolderTrash:
			return "esc back | u restore | s save .eml | j/k scroll"
		case model.FolderDrafts:
			return "esc back | e edit draft | d delete | s save .eml"
		default:
			return "esc back | d delete | s save .eml | j/k scroll"
		}
	case ViewCompose:
		return "tab next field | enter submit | esc discard"
	default:
		if m.store.Folder() == model.FolderTrash {
			return "q quit | ? help | 1-5 folders | u restore | X empty trash"
		}
		return "q quit | ? help | / search | 1-5 folders | c compose | d delete"
	}
}

// authenticate runs sign-in or registration against the mail server.
func (m Model) authenticate(mode model.AuthMode, creds model.Credentials) tea.Cmd {
	s := m.store
	return func() tea.Msg {
		_, err := s.Authenticate(context.Background(), mode, creds)
		return authResultMsg{err: err}
	}
}

// logout clears the session and credential slots.
func (m Model) logout() tea.Cmd {
	s := m.store
	return func() tea.Msg {
		return loggedOutMsg{err: s.Logout()}
	}
}

// loadMailDetail fetches the full mail body for the detail view.
func (m Model) loadMailDetail(id string) tea.Cmd {
	s := m.store
	return func() tea.Msg {
		_, err := s.FetchMail(context.Background(), id)
		return viewer.MailLoadedMsg{Err: err}
	}
}

// deleteMail moves a mail to trash (or deletes it permanently when it is
// already there).
func (m Model) deleteMail(id string) tea.Cmd {
	s := m.store
	return func() tea.Msg {
		if err := s.DeleteMail(context.Background(), id); err != nil {
			return actionResultMsg{err: err}
		}
		return actionResultMsg{info: "Mail deleted"}
	}
}

// restoreMail moves a trashed mail back to the inbox.
func (m Model) restoreMail(id string) tea.Cmd {
	s := m.store
	return func() tea.Msg {
		if err := s.RestoreMail(context.Background(), id, model.FolderInbox); err != nil {
			return actionResultMsg{err: err}
		}
		return actionResultMsg{info: "Mail restored to Inbox"}
	}
}

// emptyTrash permanently deletes everything in the trash folder.
func (m Model) emptyTrash() tea.Cmd {
	s := m.store
	return func() tea.Msg {
		if err := s.EmptyTrash(context.Background()); err != nil {
			return actionResultMsg{err: err}
		}
		return actionResultMsg{info: "Trash emptied"}
	}
}

// resyncList rebuilds the list items from the store after a local
// reconciliation, without refetching from the server.
func (m Model) resyncList() tea.Cmd {
	folder := m.store.Folder()
	return func() tea.Msg {
		return maillist.MailsLoadedMsg{Folder: folder}
	}
}

// loadSuggestions reads recipient autocomplete candidates from the local
// contacts database.
func (m Model) loadSuggestions() tea.Cmd {
	if m.contacts == nil {
		return nil
	}
	c := m.contacts
	return func() tea.Msg {
		emails, err := c.Suggest(context.Background(), "", 50)
		if err != nil {
			return suggestionsMsg{}
		}
		return suggestionsMsg{emails: emails}
	}
}

// recordContacts stores the recipients of a sent mail for future
// autocomplete.
func (m Model) recordContacts(mail model.Mail) tea.Cmd {
	if m.contacts == nil {
		return nil
	}
	c := m.contacts
	log := m.log
	return func() tea.Msg {
		err := c.Record(context.Background(), mail.To, mail.Cc, mail.Bcc)
		if err != nil {
			log.Warn().Err(err).Msg("failed to record contacts")
		}
		return contactsRecordedMsg{}
	}
}

func boolPtr(b bool) *bool { return &b }
