package maillist

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"

	"github.com/modernmail/mmail/internal/model"
)

func TestTruncateRespectsRuneBoundaries(t *testing.T) {
	// Every rune is multi-byte; a byte-indexed cut would split one.
	name := strings.Repeat("é", 40) + "@example.com"

	got := truncate(name, 28)

	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, 28, utf8.RuneCountInString(got))
	assert.True(t, strings.HasSuffix(got, "…"))
}

func TestTruncateLeavesShortStringsAlone(t *testing.T) {
	assert.Equal(t, "bob@example.com", truncate("bob@example.com", 28))
	assert.Equal(t, "", truncate("", 28))
}

func TestCorrespondentShowsRecipientForOutgoingFolders(t *testing.T) {
	mail := model.Mail{From: "alice@example.com", To: "bob@example.com"}

	assert.Equal(t, "alice@example.com",
		MailItem{Mail: mail, Folder: model.FolderInbox}.correspondent())
	assert.Equal(t, "alice@example.com",
		MailItem{Mail: mail, Folder: model.FolderTrash}.correspondent())

	for _, f := range []model.Folder{
		model.FolderSent, model.FolderDrafts, model.FolderScheduled,
	} {
		assert.Equal(t, "To: bob@example.com",
			MailItem{Mail: mail, Folder: f}.correspondent(), "folder %q", f)
	}
}

func TestCorrespondentHandlesMissingRecipient(t *testing.T) {
	item := MailItem{Mail: model.Mail{}, Folder: model.FolderDrafts}
	assert.Equal(t, "(no recipient)", item.correspondent())
}
