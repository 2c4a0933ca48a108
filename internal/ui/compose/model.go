package compose

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/modernmail/mmail/internal/mailbox"
	"github.com/modernmail/mmail/internal/model"
	"github.com/modernmail/mmail/internal/theme"
)

// Submit actions offered at the bottom of the form.
const (
	actionSend      = "send"
	actionDraft     = "draft"
	actionFormalize = "formalize"
	actionDiscard   = "discard"
)

// ComposeCancelMsg is dispatched when the user discards the composer.
type ComposeCancelMsg struct{}

// MailSentMsg carries the outcome of a send.
type MailSentMsg struct {
	Mail *model.Mail
	Err  error
}

// DraftSavedMsg carries the outcome of a draft save. The composer stays
// open so the user can continue editing the same draft.
type DraftSavedMsg struct {
	Mail *model.Mail
	Err  error
}

// formalizedMsg carries the AI-rewritten body back into the form.
type formalizedMsg struct {
	text string
	err  error
}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	to       string
	cc       string
	bcc      string
	subject  string
	body     string
	attach   string
	schedule string
	action   string
}

// Model is the Bubble Tea model for the mail composer.
type Model struct {
	form        *huh.Form
	fb          *formBindings
	store       mailbox.Actions
	draftID     string
	attachments []model.Attachment
	suggestions []string
	errText     string
	busy        bool
	busyText    string
	width       int
	height      int
}

// New creates a new composer model.
func New(s mailbox.Actions, width, height int) Model {
	return Model{
		fb:     &formBindings{action: actionSend},
		store:  s,
		width:  width,
		height: height,
	}
}

// SetSuggestions sets the recipient autocomplete candidates.
func (m *Model) SetSuggestions(emails []string) {
	m.suggestions = emails
}

// StartNew initializes the form for a fresh mail.
func (m *Model) StartNew() tea.Cmd {
	m.draftID = ""
	m.attachments = nil
	m.errText = ""
	m.busy = false
	*m.fb = formBindings{action: actionSend}
	m.form = m.buildForm()
	return m.form.Init()
}

// StartEdit initializes the form from an existing draft.
func (m *Model) StartEdit(draft model.Mail) tea.Cmd {
	m.draftID = draft.ID
	m.attachments = draft.Attachments
	m.errText = ""
	m.busy = false
	*m.fb = formBindings{
		to:      draft.To,
		cc:      draft.Cc,
		bcc:     draft.Bcc,
		subject: draft.Subject,
		body:    draft.Body,
		action:  actionSend,
	}
	if draft.ScheduledAt != nil {
		m.fb.schedule = draft.ScheduledAt.Local().Format(scheduleLayout)
	}
	m.form = m.buildForm()
	return m.form.Init()
}

// Update handles messages for the composer.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case formalizedMsg:
		m.busy = false
		if msg.err != nil {
			m.errText = msg.err.Error()
		} else {
			m.fb.body = msg.text
			m.errText = ""
		}
		m.fb.action = actionSend
		m.form = m.buildForm()
		return m, m.form.Init()

	case DraftSavedMsg:
		m.busy = false
		if msg.Err != nil {
			m.errText = msg.Err.Error()
		} else {
			m.draftID = msg.Mail.ID
			m.attachments = msg.Mail.Attachments
			m.errText = ""
		}
		m.fb.action = actionSend
		m.form = m.buildForm()
		return m, m.form.Init()

	case MailSentMsg:
		// Only failures come back here; the parent closes the composer on
		// success.
		m.busy = false
		if msg.Err != nil {
			m.errText = msg.Err.Error()
			m.form = m.buildForm()
			return m, m.form.Init()
		}
		return m, nil
	}

	if m.form == nil || m.busy {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		return m.handleSubmit()
	}
	if m.form.State == huh.StateAborted {
		return m, func() tea.Msg { return ComposeCancelMsg{} }
	}

	return m, cmd
}

// handleSubmit dispatches the chosen submit action.
func (m Model) handleSubmit() (Model, tea.Cmd) {
	switch m.fb.action {
	case actionDiscard:
		return m, func() tea.Msg { return ComposeCancelMsg{} }

	case actionFormalize:
		m.busy = true
		m.busyText = "Rewriting with AI..."
		body := m.fb.body
		s := m.store
		return m, func() tea.Msg {
			text, err := s.GenerateFormal(context.Background(), body)
			return formalizedMsg{text: text, err: err}
		}

	case actionDraft:
		m.busy = true
		m.busyText = "Saving draft..."
		return m, m.saveDraftCmd()

	default:
		scheduledAt, err := parseSchedule(m.fb.schedule)
		if err != nil {
			m.errText = err.Error()
			m.form = m.buildForm()
			return m, m.form.Init()
		}
		m.busy = true
		m.busyText = "Sending..."
		return m, m.sendCmd(scheduledAt)
	}
}

// saveDraftCmd uploads any new attachments and saves the draft.
func (m Model) saveDraftCmd() tea.Cmd {
	s := m.store
	fb := *m.fb
	draftID := m.draftID
	existing := m.attachments

	return func() tea.Msg {
		attachments, err := resolveAttachments(s, existing, fb.attach)
		if err != nil {
			return DraftSavedMsg{Err: err}
		}

		saved, err := s.SaveDraft(context.Background(), model.DraftPayload{
			ID:          draftID,
			To:          strings.TrimSpace(fb.to),
			Cc:          strings.TrimSpace(fb.cc),
			Bcc:         strings.TrimSpace(fb.bcc),
			Subject:     fb.subject,
			Body:        fb.body,
			Attachments: attachments,
		})
		return DraftSavedMsg{Mail: saved, Err: err}
	}
}

// sendCmd uploads any new attachments and sends the mail.
func (m Model) sendCmd(scheduledAt *time.Time) tea.Cmd {
	s := m.store
	fb := *m.fb
	draftID := m.draftID
	existing := m.attachments

	return func() tea.Msg {
		attachments, err := resolveAttachments(s, existing, fb.attach)
		if err != nil {
			return MailSentMsg{Err: err}
		}

		sent, err := s.SendMail(context.Background(), model.SendPayload{
			To:          strings.TrimSpace(fb.to),
			Cc:          strings.TrimSpace(fb.cc),
			Bcc:         strings.TrimSpace(fb.bcc),
			Subject:     fb.subject,
			Body:        fb.body,
			DraftID:     draftID,
			Attachments: attachments,
			ScheduledAt: scheduledAt,
		})
		return MailSentMsg{Mail: sent, Err: err}
	}
}

// resolveAttachments uploads the local paths typed into the form and
// appends the results to attachments already on the draft.
func resolveAttachments(
	s mailbox.Actions,
	existing []model.Attachment,
	attachField string,
) ([]model.Attachment, error) {
	paths := splitPaths(attachField)
	if len(paths) == 0 {
		return existing, nil
	}

	uploaded, err := s.UploadAttachments(context.Background(), paths)
	if err != nil {
		return nil, err
	}
	return append(append([]model.Attachment{}, existing...), uploaded...), nil
}

// splitPaths splits the comma-separated attachment field.
func splitPaths(field string) []string {
	var paths []string
	for _, p := range strings.Split(field, ",") {
		if p = strings.TrimSpace(p); p != "" {
			paths = append(paths, p)
		}
	}
	return paths
}

// scheduleLayout is the format of the optional schedule field.
const scheduleLayout = "2006-01-02 15:04"

// parseSchedule parses the schedule field into a future send time.
func parseSchedule(field string) (*time.Time, error) {
	field = strings.TrimSpace(field)
	if field == "" {
		return nil, nil
	}

	t, err := time.ParseInLocation(scheduleLayout, field, time.Local)
	if err != nil {
		return nil, fmt.Errorf("invalid schedule, use YYYY-MM-DD HH:MM")
	}
	if t.Before(time.Now()) {
		return nil, fmt.Errorf("schedule must be in the future")
	}
	return &t, nil
}

// View renders the composer.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	titleText := "Compose Mail"
	if m.draftID != "" {
		titleText = "Edit Draft"
	}

	var parts []string
	parts = append(parts, titleStyle.Render(titleText))

	if len(m.attachments) > 0 {
		names := make([]string, len(m.attachments))
		for i, a := range m.attachments {
			names[i] = a.FileName
		}
		parts = append(parts, theme.HelpStyle.Render(
			"Attached: "+strings.Join(names, ", ")))
	}

	if m.errText != "" {
		parts = append(parts, lipgloss.NewStyle().
			Foreground(theme.ColorRed).
			Render(m.errText))
	}

	if m.busy {
		parts = append(parts, theme.HelpStyle.Render(m.busyText))
	} else if m.form != nil {
		parts = append(parts, m.form.View())
	}

	content := lipgloss.JoinVertical(lipgloss.Left, parts...)

	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(content)
}

// SetSize updates the composer dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *Model) buildForm() *huh.Form {
	toInput := huh.NewInput().
		Title("To").
		Placeholder("recipient@example.com").
		Value(&m.fb.to).
		Validate(validateRecipient)
	if len(m.suggestions) > 0 {
		toInput = toInput.Suggestions(m.suggestions)
	}

	fields := []huh.Field{
		toInput,
		huh.NewInput().
			Title("Cc").
			Value(&m.fb.cc),
		huh.NewInput().
			Title("Bcc").
			Value(&m.fb.bcc),
		huh.NewInput().
			Title("Subject").
			Value(&m.fb.subject),
		huh.NewText().
			Title("Message").
			Value(&m.fb.body),
		huh.NewInput().
			Title("Attachments").
			Placeholder("local file paths, comma separated (optional)").
			Value(&m.fb.attach),
		huh.NewInput().
			Title("Send at").
			Placeholder("YYYY-MM-DD HH:MM (optional)").
			Value(&m.fb.schedule),
		huh.NewSelect[string]().
			Title("Action").
			Options(
				huh.NewOption("Send", actionSend),
				huh.NewOption("Save as draft", actionDraft),
				huh.NewOption("Formalize with AI", actionFormalize),
				huh.NewOption("Discard", actionDiscard),
			).
			Value(&m.fb.action),
	}

	return huh.NewForm(
		huh.NewGroup(fields...),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func (m Model) formWidth() int {
	w := m.width - 4
	if w < 40 {
		w = 40
	}
	if w > 100 {
		w = 100
	}
	return w
}

func (m Model) formHeight() int {
	h := m.height - 6
	if h < 12 {
		h = 12
	}
	return h
}

// validateRecipient mirrors the store's pre-network check so the form
// catches a missing recipient before submit.
func validateRecipient(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("To is required")
	}
	return nil
}
