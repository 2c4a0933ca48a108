package mailbox_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modernmail/mmail/internal/api"
	"github.com/modernmail/mmail/internal/credential"
	"github.com/modernmail/mmail/internal/mailbox"
	"github.com/modernmail/mmail/internal/model"
	"github.com/modernmail/mmail/tests/testutil"
)

func authenticate(t *testing.T, s *mailbox.Store) {
	t.Helper()
	_, err := s.Authenticate(context.Background(), model.AuthLogin, model.Credentials{
		Email:    "test@example.com",
		Password: "hunter2",
	})
	require.NoError(t, err)
}

func TestAuthenticateStoresSession(t *testing.T) {
	server := testutil.NewMailServer(t)
	s, creds := testutil.NewTestStore(t, server)

	result, err := s.Authenticate(context.Background(), model.AuthLogin, model.Credentials{
		Email:    "test@example.com",
		Password: "hunter2",
	})
	require.NoError(t, err)

	assert.Equal(t, testutil.TestToken, result.Token)
	assert.True(t, s.Authenticated())
	require.NotNil(t, s.User())
	assert.Equal(t, "test@example.com", s.User().Email)

	// Both slots are persisted for the next start.
	tok, err := creds.Get("mmd-token")
	require.NoError(t, err)
	assert.Equal(t, testutil.TestToken, tok)
	_, err = creds.Get("mmd-user")
	assert.NoError(t, err)
}

func TestAuthenticateSurfacesServerMessage(t *testing.T) {
	server := testutil.NewMailServer(t)
	s, _ := testutil.NewTestStore(t, server)

	_, err := s.Authenticate(context.Background(), model.AuthLogin, model.Credentials{
		Email: "test@example.com",
	})

	require.Error(t, err)
	assert.Equal(t, "Invalid credentials", err.Error())
	assert.False(t, s.Authenticated())
}

func TestAuthenticateFallbackMessage(t *testing.T) {
	server := testutil.NewMailServer(t)
	s, _ := testutil.NewTestStore(t, server)

	server.FailNext(1, "")
	_, err := s.Authenticate(context.Background(), model.AuthLogin, model.Credentials{
		Email:    "test@example.com",
		Password: "hunter2",
	})

	require.Error(t, err)
	assert.Equal(t, "Authentication failed", err.Error())
}

func TestFetchMailsPopulatesListing(t *testing.T) {
	server := testutil.NewMailServer(t)
	s, _ := testutil.NewTestStore(t, server)
	authenticate(t, s)

	server.Seed(model.FolderInbox, model.Mail{Subject: "hello"})
	server.Seed(model.FolderSent, model.Mail{Subject: "outgoing"})

	mails, err := s.FetchMails(context.Background(), model.FolderInbox)
	require.NoError(t, err)

	assert.Len(t, mails, 1)
	assert.Equal(t, "hello", mails[0].Subject)
	assert.Equal(t, model.FolderInbox, s.Folder())
	assert.False(t, s.Loading())
	assert.Empty(t, s.LastError())
}

func TestFetchMailsFailureKeepsListing(t *testing.T) {
	server := testutil.NewMailServer(t)
	s, _ := testutil.NewTestStore(t, server)
	authenticate(t, s)

	server.Seed(model.FolderInbox, model.Mail{Subject: "hello"})
	_, err := s.FetchMails(context.Background(), model.FolderInbox)
	require.NoError(t, err)

	server.FailNext(1, "")
	_, err = s.FetchMails(context.Background(), model.FolderInbox)

	require.Error(t, err)
	assert.Equal(t, "Failed to load mail", err.Error())
	assert.Equal(t, "Failed to load mail", s.LastError())
	// The previous listing stays visible.
	assert.Len(t, s.Mails(), 1)
	assert.False(t, s.Loading())
}

func TestFetchMailSelects(t *testing.T) {
	server := testutil.NewMailServer(t)
	s, _ := testutil.NewTestStore(t, server)
	authenticate(t, s)

	id := server.Seed(model.FolderInbox, model.Mail{Subject: "hello", Body: "full body"})

	mail, err := s.FetchMail(context.Background(), id)
	require.NoError(t, err)

	assert.Equal(t, "full body", mail.Body)
	require.NotNil(t, s.Selected())
	assert.Equal(t, id, s.Selected().ID)
}

func TestSetFolderClearsSelection(t *testing.T) {
	server := testutil.NewMailServer(t)
	s, _ := testutil.NewTestStore(t, server)
	authenticate(t, s)

	id := server.Seed(model.FolderInbox, model.Mail{Subject: "hello"})
	_, err := s.FetchMail(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, s.Selected())

	s.SetFolder(model.FolderSent)

	assert.Nil(t, s.Selected())
	assert.Equal(t, model.FolderSent, s.Folder())
}

func TestSetFolderResetsLoadingForSupersededFetch(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte("[]"))
	}))
	defer srv.Close()

	client := api.NewClient(srv.URL, 5*time.Second, zerolog.Nop())
	s := mailbox.New(client, credential.NewMemoryStore(), zerolog.Nop())

	done := make(chan error, 1)
	go func() {
		_, err := s.FetchMails(context.Background(), model.FolderInbox)
		done <- err
	}()
	require.Eventually(t, s.Loading, time.Second, 5*time.Millisecond)

	// Switching folders mid-flight supersedes the fetch; the loading flag
	// must not be left behind for it.
	s.SetFolder(model.FolderSent)
	assert.False(t, s.Loading())

	close(release)
	require.NoError(t, <-done)

	assert.False(t, s.Loading())
	assert.Empty(t, s.LastError())
	// The discarded response must not flip the folder back.
	assert.Equal(t, model.FolderSent, s.Folder())
}

func TestDeleteMailRemovesAndDeselects(t *testing.T) {
	server := testutil.NewMailServer(t)
	s, _ := testutil.NewTestStore(t, server)
	authenticate(t, s)

	id := server.Seed(model.FolderInbox, model.Mail{Subject: "hello"})
	server.Seed(model.FolderInbox, model.Mail{Subject: "other"})
	_, err := s.FetchMails(context.Background(), model.FolderInbox)
	require.NoError(t, err)
	_, err = s.FetchMail(context.Background(), id)
	require.NoError(t, err)

	require.NoError(t, s.DeleteMail(context.Background(), id))

	assert.Len(t, s.Mails(), 1)
	assert.Nil(t, s.Selected())
	// The server moved it to trash.
	assert.Contains(t, server.FolderIDs(model.FolderTrash), id)
}

func TestDeleteMailFailureLeavesStateUntouched(t *testing.T) {
	server := testutil.NewMailServer(t)
	s, _ := testutil.NewTestStore(t, server)
	authenticate(t, s)

	id := server.Seed(model.FolderInbox, model.Mail{Subject: "hello"})
	_, err := s.FetchMails(context.Background(), model.FolderInbox)
	require.NoError(t, err)
	_, err = s.FetchMail(context.Background(), id)
	require.NoError(t, err)

	server.FailNext(1, "")
	err = s.DeleteMail(context.Background(), id)

	require.Error(t, err)
	assert.Equal(t, "Unable to delete mail", err.Error())
	assert.Len(t, s.Mails(), 1)
	require.NotNil(t, s.Selected())
	assert.Equal(t, id, s.Selected().ID)
}

func TestSendMailRequiresRecipient(t *testing.T) {
	server := testutil.NewMailServer(t)
	s, _ := testutil.NewTestStore(t, server)
	authenticate(t, s)

	_, err := s.SendMail(context.Background(), model.SendPayload{
		To:      "   ",
		Subject: "no recipient",
	})

	require.Error(t, err)
	assert.Equal(t, "Recipient is required", err.Error())
}

func TestSendMailFromDraftRemovesDraft(t *testing.T) {
	server := testutil.NewMailServer(t)
	s, _ := testutil.NewTestStore(t, server)
	authenticate(t, s)

	s.SetFolder(model.FolderDrafts)
	draft, err := s.SaveDraft(context.Background(), model.DraftPayload{
		To:      "x@y.z",
		Subject: "wip",
	})
	require.NoError(t, err)
	_, err = s.FetchMail(context.Background(), draft.ID)
	require.NoError(t, err)

	sent, err := s.SendMail(context.Background(), model.SendPayload{
		To:      "x@y.z",
		Subject: "wip",
		DraftID: draft.ID,
	})
	require.NoError(t, err)

	assert.NotEqual(t, draft.ID, sent.ID)
	for _, m := range s.Mails() {
		assert.NotEqual(t, draft.ID, m.ID)
	}
	assert.Nil(t, s.Selected())
	assert.Empty(t, server.FolderIDs(model.FolderDrafts))
	assert.Contains(t, server.FolderIDs(model.FolderSent), sent.ID)
}

func TestSendMailPrependsInSentFolder(t *testing.T) {
	server := testutil.NewMailServer(t)
	s, _ := testutil.NewTestStore(t, server)
	authenticate(t, s)

	server.Seed(model.FolderSent, model.Mail{Subject: "older"})
	_, err := s.FetchMails(context.Background(), model.FolderSent)
	require.NoError(t, err)

	sent, err := s.SendMail(context.Background(), model.SendPayload{
		To:      "x@y.z",
		Subject: "newest",
	})
	require.NoError(t, err)

	mails := s.Mails()
	require.Len(t, mails, 2)
	assert.Equal(t, sent.ID, mails[0].ID)
}

func TestSaveDraftUpsertIsIdempotent(t *testing.T) {
	server := testutil.NewMailServer(t)
	s, _ := testutil.NewTestStore(t, server)
	authenticate(t, s)

	s.SetFolder(model.FolderDrafts)
	_, err := s.FetchMails(context.Background(), model.FolderDrafts)
	require.NoError(t, err)

	draft, err := s.SaveDraft(context.Background(), model.DraftPayload{Subject: "v1"})
	require.NoError(t, err)
	require.Len(t, s.Mails(), 1)

	updated, err := s.SaveDraft(context.Background(), model.DraftPayload{
		ID:      draft.ID,
		Subject: "v2",
	})
	require.NoError(t, err)

	mails := s.Mails()
	require.Len(t, mails, 1)
	assert.Equal(t, draft.ID, updated.ID)
	assert.Equal(t, "v2", mails[0].Subject)

	require.NotNil(t, s.ComposeDraft())
	assert.Equal(t, "v2", s.ComposeDraft().Subject)
}

func TestRestoreMailReplacesSelection(t *testing.T) {
	server := testutil.NewMailServer(t)
	s, _ := testutil.NewTestStore(t, server)
	authenticate(t, s)

	id := server.Seed(model.FolderTrash, model.Mail{Subject: "trashed"})
	s.SetFolder(model.FolderTrash)
	_, err := s.FetchMails(context.Background(), model.FolderTrash)
	require.NoError(t, err)
	_, err = s.FetchMail(context.Background(), id)
	require.NoError(t, err)

	require.NoError(t, s.RestoreMail(context.Background(), id, ""))

	assert.Empty(t, s.Mails())
	require.NotNil(t, s.Selected())
	assert.Equal(t, id, s.Selected().ID)
	assert.Contains(t, server.FolderIDs(model.FolderInbox), id)
}

func TestEmptyTrashClearsTrashView(t *testing.T) {
	server := testutil.NewMailServer(t)
	s, _ := testutil.NewTestStore(t, server)
	authenticate(t, s)

	server.Seed(model.FolderTrash, model.Mail{Subject: "junk 1"})
	id := server.Seed(model.FolderTrash, model.Mail{Subject: "junk 2"})
	s.SetFolder(model.FolderTrash)
	_, err := s.FetchMails(context.Background(), model.FolderTrash)
	require.NoError(t, err)
	_, err = s.FetchMail(context.Background(), id)
	require.NoError(t, err)

	require.NoError(t, s.EmptyTrash(context.Background()))

	assert.Empty(t, s.Mails())
	assert.Nil(t, s.Selected())
	assert.Empty(t, server.FolderIDs(model.FolderTrash))
}

func TestEmptyTrashFailureMessage(t *testing.T) {
	server := testutil.NewMailServer(t)
	s, _ := testutil.NewTestStore(t, server)
	authenticate(t, s)

	server.FailNext(1, "")
	err := s.EmptyTrash(context.Background())

	require.Error(t, err)
	assert.Equal(t, "Unable to empty trash", err.Error())
}

func TestLogoutResetsEverything(t *testing.T) {
	server := testutil.NewMailServer(t)
	s, creds := testutil.NewTestStore(t, server)
	authenticate(t, s)

	id := server.Seed(model.FolderSent, model.Mail{Subject: "hello"})
	s.SetFolder(model.FolderSent)
	_, err := s.FetchMails(context.Background(), model.FolderSent)
	require.NoError(t, err)
	_, err = s.FetchMail(context.Background(), id)
	require.NoError(t, err)
	s.ToggleCompose(nil, nil)

	require.NoError(t, s.Logout())

	assert.False(t, s.Authenticated())
	assert.Nil(t, s.User())
	assert.Empty(t, s.Mails())
	assert.Nil(t, s.Selected())
	assert.Equal(t, model.FolderInbox, s.Folder())
	assert.False(t, s.IsComposeOpen())
	assert.Nil(t, s.ComposeDraft())
	assert.Empty(t, s.LastError())

	_, err = creds.Get("mmd-token")
	assert.Error(t, err)
	_, err = creds.Get("mmd-user")
	assert.Error(t, err)
}

func TestToggleCompose(t *testing.T) {
	server := testutil.NewMailServer(t)
	s, _ := testutil.NewTestStore(t, server)

	open := true
	draft := model.Mail{ID: "d1", Subject: "wip"}
	s.ToggleCompose(&open, &draft)
	assert.True(t, s.IsComposeOpen())
	require.NotNil(t, s.ComposeDraft())
	assert.Equal(t, "d1", s.ComposeDraft().ID)

	// The store keeps its own copy; mutating the caller's struct must not
	// leak into store state.
	draft.Subject = "mutated"
	assert.Equal(t, "wip", s.ComposeDraft().Subject)

	// nil flips the current state and clears the draft.
	s.ToggleCompose(nil, nil)
	assert.False(t, s.IsComposeOpen())
	assert.Nil(t, s.ComposeDraft())
}

func TestUploadAttachments(t *testing.T) {
	server := testutil.NewMailServer(t)
	s, _ := testutil.NewTestStore(t, server)
	authenticate(t, s)

	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("attachment body"), 0o644))

	files, err := s.UploadAttachments(context.Background(), []string{path})
	require.NoError(t, err)

	require.Len(t, files, 1)
	assert.Equal(t, "notes.txt", files[0].FileName)
	assert.NotEmpty(t, files[0].URL)
}

func TestUploadAttachmentsMissingFileFailsLocally(t *testing.T) {
	server := testutil.NewMailServer(t)
	s, _ := testutil.NewTestStore(t, server)
	authenticate(t, s)

	_, err := s.UploadAttachments(context.Background(),
		[]string{filepath.Join(t.TempDir(), "nope.txt")})

	require.Error(t, err)
}

func TestGenerateFormal(t *testing.T) {
	server := testutil.NewMailServer(t)
	s, _ := testutil.NewTestStore(t, server)
	authenticate(t, s)

	_, err := s.GenerateFormal(context.Background(), "   ")
	require.Error(t, err)
	assert.Equal(t, "Nothing to formalize", err.Error())

	text, err := s.GenerateFormal(context.Background(), "fix the thing")
	require.NoError(t, err)
	assert.Contains(t, text, "fix the thing")

	server.FailNext(1, "")
	_, err = s.GenerateFormal(context.Background(), "again")
	require.Error(t, err)
	assert.Equal(t, "Failed to generate text", err.Error())
}
