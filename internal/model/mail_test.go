package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFolderValid(t *testing.T) {
	for _, f := range Folders {
		assert.True(t, f.Valid(), "folder %q", f)
	}
	assert.False(t, Folder("archive").Valid())
	assert.False(t, Folder("").Valid())
}

func TestParseFolderDefaultsToInbox(t *testing.T) {
	assert.Equal(t, FolderTrash, ParseFolder("trash"))
	assert.Equal(t, FolderInbox, ParseFolder("nonsense"))
	assert.Equal(t, FolderInbox, ParseFolder(""))
}

func TestFolderLabel(t *testing.T) {
	assert.Equal(t, "Inbox", FolderInbox.Label())
	assert.Equal(t, "Scheduled", FolderScheduled.Label())
}

func TestMailIDUsesServerFieldName(t *testing.T) {
	var m Mail
	require.NoError(t, json.Unmarshal([]byte(`{"_id":"abc","subject":"hi"}`), &m))
	assert.Equal(t, "abc", m.ID)

	data, err := json.Marshal(m)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"_id":"abc"`)
}

func TestHasAttachments(t *testing.T) {
	assert.False(t, Mail{}.HasAttachments())
	assert.True(t, Mail{
		Attachments: []Attachment{{FileName: "a.pdf"}},
	}.HasAttachments())
}

func TestDraftPayloadOmitsEmptyID(t *testing.T) {
	data, err := json.Marshal(DraftPayload{Subject: "x"})
	require.NoError(t, err)
	assert.NotContains(t, string(data), `"id"`)

	data, err = json.Marshal(DraftPayload{ID: "d1", Subject: "x"})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"id":"d1"`)
}
