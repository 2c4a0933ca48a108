package login

import (
	"fmt"
	"net/mail"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/modernmail/mmail/internal/model"
	"github.com/modernmail/mmail/internal/theme"
)

// AuthSubmitMsg is dispatched when the user submits the auth form.
type AuthSubmitMsg struct {
	Mode        model.AuthMode
	Credentials model.Credentials
}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	mode     string
	name     string
	email    string
	password string
}

// Model is the Bubble Tea model for the login/register screen.
type Model struct {
	form     *huh.Form
	fb       *formBindings
	errText  string
	busy     bool
	width    int
	height   int
}

// New creates a new auth screen model.
func New(width, height int) Model {
	return Model{
		fb:     &formBindings{mode: string(model.AuthLogin)},
		width:  width,
		height: height,
	}
}

// Start initializes a fresh auth form, preserving the previously chosen
// mode and email so a failed attempt is easy to retry.
func (m *Model) Start() tea.Cmd {
	m.busy = false
	m.fb.password = ""
	m.form = m.buildForm()
	return m.form.Init()
}

// SetError displays a failure message above the form and re-enables it.
func (m *Model) SetError(msg string) tea.Cmd {
	m.errText = msg
	return m.Start()
}

// Update handles messages for the auth screen.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil || m.busy {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		m.busy = true
		m.errText = ""
		return m, m.handleSubmit()
	}

	return m, cmd
}

// View renders the auth screen.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	var parts []string
	parts = append(parts, titleStyle.Render("Modern Mail"))
	parts = append(parts,
		theme.HelpStyle.Render("Sign in to your mailbox, or create an account."))

	if m.errText != "" {
		parts = append(parts, lipgloss.NewStyle().
			Foreground(theme.ColorRed).
			Render(m.errText))
	}

	if m.busy {
		parts = append(parts, theme.HelpStyle.Render("Signing in..."))
	} else if m.form != nil {
		parts = append(parts, m.form.View())
	}

	content := lipgloss.JoinVertical(lipgloss.Left, parts...)

	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(content)
}

// SetSize updates the screen dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *Model) buildForm() *huh.Form {
	fields := []huh.Field{
		huh.NewSelect[string]().
			Title("Mode").
			Options(
				huh.NewOption("Sign in", string(model.AuthLogin)),
				huh.NewOption("Create account", string(model.AuthRegister)),
			).
			Value(&m.fb.mode),
		huh.NewInput().
			Title("Name").
			Placeholder("Only needed for a new account").
			Value(&m.fb.name),
		huh.NewInput().
			Title("Email").
			Placeholder("you@example.com").
			Value(&m.fb.email).
			Validate(validateEmail),
		huh.NewInput().
			Title("Password").
			EchoMode(huh.EchoModePassword).
			Value(&m.fb.password).
			Validate(validateRequired("Password")),
	}

	return huh.NewForm(
		huh.NewGroup(fields...),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func (m Model) handleSubmit() tea.Cmd {
	mode := model.AuthMode(m.fb.mode)
	creds := model.Credentials{
		Email:    strings.TrimSpace(m.fb.email),
		Password: m.fb.password,
	}
	if mode == model.AuthRegister {
		creds.Name = strings.TrimSpace(m.fb.name)
	}

	return func() tea.Msg {
		return AuthSubmitMsg{Mode: mode, Credentials: creds}
	}
}

func (m Model) formWidth() int {
	w := m.width - 4
	if w < 40 {
		w = 40
	}
	if w > 80 {
		w = 80
	}
	return w
}

func (m Model) formHeight() int {
	h := m.height - 8
	if h < 10 {
		h = 10
	}
	return h
}

func validateRequired(fieldName string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
		return nil
	}
}

func validateEmail(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return fmt.Errorf("Email is required")
	}
	if _, err := mail.ParseAddress(s); err != nil {
		return fmt.Errorf("invalid email address")
	}
	return nil
}
