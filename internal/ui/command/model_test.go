package command

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func typeString(m Model, s string) Model {
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
	return m
}

func pressEnter(m Model) (Model, tea.Cmd) {
	return m.Update(tea.KeyMsg{Type: tea.KeyEnter})
}

func TestMatchesFiltersByPrefix(t *testing.T) {
	m := New(80, 24)

	names := func(typed string) []string {
		var out []string
		for _, e := range m.matches(typed) {
			out = append(out, e.name)
		}
		return out
	}

	assert.Equal(t, []string{"compose"}, names("com"))
	assert.ElementsMatch(t, []string{"sent", "scheduled"}, names("s"))
	assert.Len(t, names(""), 10)
	assert.Empty(t, names("archive"))
}

func TestResolve(t *testing.T) {
	m := New(80, 24)

	name, ok := m.resolve("trash")
	require.True(t, ok)
	assert.Equal(t, "trash", name)

	// An unambiguous prefix resolves.
	name, ok = m.resolve("comp")
	require.True(t, ok)
	assert.Equal(t, "compose", name)

	// "s" is ambiguous between sent and scheduled.
	_, ok = m.resolve("s")
	assert.False(t, ok)

	_, ok = m.resolve("archive")
	assert.False(t, ok)
}

func TestEnterEmitsCanonicalCommand(t *testing.T) {
	m := New(80, 24)
	m = typeString(m, "inb")

	m, cmd := pressEnter(m)
	require.NotNil(t, cmd)

	msg, ok := cmd().(CommandMsg)
	require.True(t, ok)
	assert.Equal(t, CommandMsg("inbox"), msg)
	assert.Empty(t, m.errText)
}

func TestEnterRejectsUnknownCommand(t *testing.T) {
	m := New(80, 24)
	m = typeString(m, "archive")

	m, cmd := pressEnter(m)

	assert.Nil(t, cmd)
	assert.Equal(t, "Unknown command: archive", m.errText)

	// Typing again dismisses the error.
	m = typeString(m, "x")
	assert.Empty(t, m.errText)
}

func TestTabCompletesFirstMatch(t *testing.T) {
	m := New(80, 24)
	m = typeString(m, "log")

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})

	assert.Equal(t, "logout", m.input.Value())
}
