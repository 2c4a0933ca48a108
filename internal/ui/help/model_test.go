package help

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/modernmail/mmail/internal/keys"
)

func TestViewCoversEveryBinding(t *testing.T) {
	k := keys.DefaultKeyMap()
	m := New(k, 80, 40)

	out := m.View()

	for _, title := range []string{"Navigate", "Folders", "Mail", "Find and control"} {
		assert.Contains(t, out, title)
	}

	// Folder rows show display labels, action rows their help text.
	for _, label := range []string{"Inbox", "Sent", "Drafts", "Scheduled", "Trash"} {
		assert.Contains(t, out, label)
	}
	for _, desc := range []string{
		"compose", "delete", "restore", "edit draft", "save .eml",
		"empty trash", "search", "command palette", "refresh folder",
	} {
		assert.Contains(t, out, desc)
	}
}
